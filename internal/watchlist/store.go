// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package watchlist persists the restaurants a user saved, together with
// their personal annotations, in a SQLite database.
package watchlist

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/mattn/go-sqlite3"

	"github.com/pdiddy/tablescout/pkg/types"
)

const dbFile = "tablescout.db"

// timeLayout is fixed width so stored timestamps sort lexically.
const timeLayout = "2006-01-02T15:04:05.000000000Z"

var validate = validator.New(validator.WithRequiredStructEnabled())

// Store manages the saved-restaurant SQLite database.
type Store struct {
	db     *sql.DB
	dir    string
	now    func() time.Time
	logger *slog.Logger
}

// Option configures a Store.
type Option func(*Store)

// WithLogger sets a custom logger. Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(s *Store) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithClock overrides the time source used for added_at and updated_at.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// NewStore opens or creates the database at cfg.DataDir/tablescout.db and
// creates the schema if it does not exist.
func NewStore(cfg types.WatchlistConfig, opts ...Option) (*Store, error) {
	if err := os.MkdirAll(cfg.DataDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	dbPath := filepath.Join(cfg.DataDir, dbFile)
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &Store{
		db:     db,
		dir:    cfg.DataDir,
		now:    time.Now,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.With("component", "watchlist")

	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}
	return s, nil
}

// Close releases the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) createSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS saved_restaurants (
			id TEXT PRIMARY KEY,
			user_id TEXT NOT NULL,
			restaurant_id TEXT NOT NULL,
			name TEXT NOT NULL,
			city TEXT,
			country TEXT,
			cuisine TEXT,
			restaurant_data TEXT NOT NULL,
			visited INTEGER NOT NULL DEFAULT 0,
			personal_rating INTEGER,
			notes TEXT,
			tags TEXT,
			added_at TEXT NOT NULL,
			updated_at TEXT NOT NULL,
			UNIQUE(user_id, restaurant_id)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_saved_user ON saved_restaurants(user_id)`,
	}
	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}
	return nil
}

// Save adds rec to the user's list. It returns ErrAlreadySaved when the
// user already saved a record with the same id.
func (s *Store) Save(ctx context.Context, userID string, rec types.CanonicalRecord, a types.Annotation) (types.SavedRestaurant, error) {
	if userID == "" {
		return types.SavedRestaurant{}, ErrNoUser
	}
	if rec.ID == "" || strings.TrimSpace(rec.Name) == "" {
		return types.SavedRestaurant{}, fmt.Errorf("%w: restaurant id and name are required", ErrInvalid)
	}
	if err := validate.Struct(a); err != nil {
		return types.SavedRestaurant{}, fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	if a.Tags == nil {
		a.Tags = []string{}
	}

	now := s.now().UTC()
	saved := types.SavedRestaurant{
		ID:           uuid.NewString(),
		UserID:       userID,
		RestaurantID: rec.ID,
		Restaurant:   rec,
		Annotation:   a,
		AddedAt:      now,
		UpdatedAt:    now,
	}

	recJSON, err := json.Marshal(rec)
	if err != nil {
		return types.SavedRestaurant{}, fmt.Errorf("encoding restaurant: %w", err)
	}
	tagsJSON, _ := json.Marshal(a.Tags)

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO saved_restaurants
			(id, user_id, restaurant_id, name, city, country, cuisine, restaurant_data,
			 visited, personal_rating, notes, tags, added_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		saved.ID, userID, rec.ID, rec.Name, rec.City, rec.Country,
		strings.Join(rec.CuisineTags, ", "), string(recJSON),
		a.Visited, nullInt(a.PersonalRating), a.Notes, string(tagsJSON),
		formatTime(now), formatTime(now),
	)
	if err != nil {
		var sqliteErr sqlite3.Error
		if errors.As(err, &sqliteErr) && sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique {
			return types.SavedRestaurant{}, ErrAlreadySaved
		}
		return types.SavedRestaurant{}, fmt.Errorf("inserting saved restaurant: %w", err)
	}

	s.logger.Debug("restaurant saved", "user", userID, "restaurant", rec.ID)
	return saved, nil
}

// Get returns one saved entry by restaurant id.
func (s *Store) Get(ctx context.Context, userID, restaurantID string) (types.SavedRestaurant, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+columns+` FROM saved_restaurants WHERE user_id = ? AND restaurant_id = ?`,
		userID, restaurantID)
	saved, err := scanSaved(row)
	if errors.Is(err, sql.ErrNoRows) {
		return types.SavedRestaurant{}, ErrNotFound
	}
	return saved, err
}

// IDs returns the restaurant ids the user saved, oldest first.
func (s *Store) IDs(ctx context.Context, userID string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT restaurant_id FROM saved_restaurants WHERE user_id = ? ORDER BY added_at, rowid`, userID)
	if err != nil {
		return nil, fmt.Errorf("querying saved ids: %w", err)
	}
	defer rows.Close()

	ids := []string{}
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scanning saved id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// Update applies p to the saved entry and returns the result.
func (s *Store) Update(ctx context.Context, userID, restaurantID string, p types.AnnotationPatch) (types.SavedRestaurant, error) {
	if err := validate.Struct(p); err != nil {
		return types.SavedRestaurant{}, fmt.Errorf("%w: %v", ErrInvalid, err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return types.SavedRestaurant{}, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	saved, err := scanSaved(tx.QueryRowContext(ctx,
		`SELECT `+columns+` FROM saved_restaurants WHERE user_id = ? AND restaurant_id = ?`,
		userID, restaurantID))
	if errors.Is(err, sql.ErrNoRows) {
		return types.SavedRestaurant{}, ErrNotFound
	}
	if err != nil {
		return types.SavedRestaurant{}, err
	}

	saved.Annotation = p.Apply(saved.Annotation)
	if saved.Tags == nil {
		saved.Tags = []string{}
	}
	saved.UpdatedAt = s.now().UTC()
	tagsJSON, _ := json.Marshal(saved.Tags)

	_, err = tx.ExecContext(ctx,
		`UPDATE saved_restaurants
		 SET visited = ?, personal_rating = ?, notes = ?, tags = ?, updated_at = ?
		 WHERE id = ?`,
		saved.Visited, nullInt(saved.PersonalRating), saved.Notes, string(tagsJSON),
		formatTime(saved.UpdatedAt), saved.ID,
	)
	if err != nil {
		return types.SavedRestaurant{}, fmt.Errorf("updating saved restaurant: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return types.SavedRestaurant{}, fmt.Errorf("committing update: %w", err)
	}
	return saved, nil
}

// Delete removes the saved entry.
func (s *Store) Delete(ctx context.Context, userID, restaurantID string) error {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM saved_restaurants WHERE user_id = ? AND restaurant_id = ?`, userID, restaurantID)
	if err != nil {
		return fmt.Errorf("deleting saved restaurant: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("deleting saved restaurant: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

const columns = `id, user_id, restaurant_id, restaurant_data, visited, personal_rating,
	notes, tags, added_at, updated_at`

type scanner interface {
	Scan(dest ...any) error
}

func scanSaved(row scanner) (types.SavedRestaurant, error) {
	var (
		saved    types.SavedRestaurant
		recJSON  string
		rating   sql.NullInt64
		notes    sql.NullString
		tagsJSON sql.NullString
		added    string
		updated  string
	)
	err := row.Scan(&saved.ID, &saved.UserID, &saved.RestaurantID, &recJSON,
		&saved.Visited, &rating, &notes, &tagsJSON, &added, &updated)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return saved, err
		}
		return saved, fmt.Errorf("scanning saved restaurant: %w", err)
	}

	if err := json.Unmarshal([]byte(recJSON), &saved.Restaurant); err != nil {
		return saved, fmt.Errorf("decoding restaurant %s: %w", saved.RestaurantID, err)
	}
	if rating.Valid {
		r := int(rating.Int64)
		saved.PersonalRating = &r
	}
	saved.Notes = notes.String
	saved.Tags = []string{}
	if tagsJSON.Valid && tagsJSON.String != "" {
		_ = json.Unmarshal([]byte(tagsJSON.String), &saved.Tags)
	}
	saved.AddedAt, _ = time.Parse(timeLayout, added)
	saved.UpdatedAt, _ = time.Parse(timeLayout, updated)
	return saved, nil
}

func nullInt(v *int) sql.NullInt64 {
	if v == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(*v), Valid: true}
}

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}
