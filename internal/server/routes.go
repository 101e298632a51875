package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-playground/validator/v10"

	"github.com/pdiddy/tablescout/internal/search"
	"github.com/pdiddy/tablescout/pkg/types"
)

var validate = validator.New()

const apiPrefix = "/api/v1/restaurants"

// quickSearchRequest is the body of POST /quick-search.
type quickSearchRequest struct {
	Query    string `json:"query" validate:"required,max=200"`
	Location string `json:"location" validate:"required,min=2,max=100"`
	Limit    int    `json:"limit" validate:"omitempty,min=1,max=20"`
}

// searchRequest is the body of POST /search. Mode follows search.Mode:
// 1 rich, 2 structured, 3 hybrid; zero means hybrid.
type searchRequest struct {
	Query    string `json:"query" validate:"required,max=200"`
	Location string `json:"location" validate:"required,min=2,max=100"`
	Mode     int    `json:"mode" validate:"omitempty,min=1,max=3"`
	Limit    int    `json:"limit" validate:"omitempty,min=1,max=20"`
}

type searchResponse struct {
	Restaurants []types.CanonicalRecord `json:"restaurants"`
}

type policyResponse struct {
	State    string                 `json:"state"`
	Adapters []search.AdapterStatus `json:"adapters"`
}

func (s *Server) routes() {
	r := s.router
	r.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusNotFound, "not found")
	})
	r.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	})

	r.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet)

	api := r.PathPrefix(apiPrefix).Subrouter()
	api.HandleFunc("/quick-search", s.handleQuickSearch).Methods(http.MethodPost)
	api.HandleFunc("/search", s.handleSearch).Methods(http.MethodPost)
	api.HandleFunc("/policy", s.handlePolicy).Methods(http.MethodGet)

	if s.saved != nil {
		s.savedRoutes(api.PathPrefix("/saved").Subrouter())
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status": "ok",
		"policy": s.search.Policy().State().String(),
	})
}

func (s *Server) handleQuickSearch(w http.ResponseWriter, r *http.Request) {
	var req quickSearchRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	res, err := s.search.Lookup(r.Context(), types.NewSearchRequest(req.Query, req.Location, req.Limit))
	if err != nil {
		s.searchError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	var req searchRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	records, err := s.search.Enrich(r.Context(), req.Query, req.Location, search.Mode(req.Mode), req.Limit)
	if err != nil {
		s.searchError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, searchResponse{Restaurants: records})
}

func (s *Server) handlePolicy(w http.ResponseWriter, r *http.Request) {
	p := s.search.Policy()
	writeJSON(w, http.StatusOK, policyResponse{
		State:    p.State().String(),
		Adapters: p.Snapshot(),
	})
}

// searchError maps pipeline errors to responses. Only request validation and
// total adapter failure are expected here.
func (s *Server) searchError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, search.ErrEmptyQuery), errors.Is(err, search.ErrEmptyLocation):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, search.ErrAllAdaptersFailed):
		s.logger.Warn("search unavailable", "request_id", RequestIDFrom(r.Context()), "err", err)
		writeError(w, http.StatusServiceUnavailable, "search unavailable")
	default:
		s.logger.Error("search failed", "request_id", RequestIDFrom(r.Context()), "err", err)
		writeError(w, http.StatusInternalServerError, "search failed")
	}
}

// decodeAndValidate reads a JSON body into dst and validates its struct
// tags. It writes a 400 and returns false on failure.
func decodeAndValidate(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return false
	}
	if err := validate.Struct(dst); err != nil {
		writeError(w, http.StatusBadRequest, "validation failed: "+err.Error())
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, map[string]string{"detail": detail})
}
