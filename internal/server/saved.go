// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package server

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gorilla/mux"

	"github.com/pdiddy/tablescout/internal/watchlist"
	"github.com/pdiddy/tablescout/pkg/types"
)

// UserIDHeader identifies the caller. Authentication happens upstream.
const UserIDHeader = "X-User-ID"

type saveRequest struct {
	Restaurant types.CanonicalRecord `json:"restaurant_data"`
	types.Annotation
}

type savedListResponse struct {
	Restaurants []types.SavedRestaurant `json:"restaurants"`
	Total       int                     `json:"total"`
}

func (s *Server) savedRoutes(r *mux.Router) {
	r.HandleFunc("", s.handleSave).Methods(http.MethodPost)
	r.HandleFunc("", s.handleListSaved).Methods(http.MethodGet)
	r.HandleFunc("/ids", s.handleSavedIDs).Methods(http.MethodGet)
	r.HandleFunc("/export", s.handleExport).Methods(http.MethodGet)
	r.HandleFunc("/{restaurant_id}", s.handleGetSaved).Methods(http.MethodGet)
	r.HandleFunc("/{restaurant_id}", s.handleUpdateSaved).Methods(http.MethodPut)
	r.HandleFunc("/{restaurant_id}", s.handleDeleteSaved).Methods(http.MethodDelete)
}

func userID(w http.ResponseWriter, r *http.Request) (string, bool) {
	id := strings.TrimSpace(r.Header.Get(UserIDHeader))
	if id == "" {
		writeError(w, http.StatusUnauthorized, "missing "+UserIDHeader+" header")
		return "", false
	}
	return id, true
}

func (s *Server) handleSave(w http.ResponseWriter, r *http.Request) {
	user, ok := userID(w, r)
	if !ok {
		return
	}
	var req saveRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	saved, err := s.saved.Save(r.Context(), user, req.Restaurant, req.Annotation)
	if err != nil {
		s.savedError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, saved)
}

func (s *Server) handleListSaved(w http.ResponseWriter, r *http.Request) {
	user, ok := userID(w, r)
	if !ok {
		return
	}

	q := r.URL.Query()
	opts := watchlist.ListOptions{
		SortBy:  q.Get("sort_by"),
		City:    q.Get("city"),
		Cuisine: q.Get("cuisine"),
		Country: q.Get("country"),
	}
	switch strings.ToLower(q.Get("order")) {
	case "", "desc":
	case "asc":
		opts.Asc = true
	default:
		writeError(w, http.StatusBadRequest, "order must be asc or desc")
		return
	}
	if v := q.Get("visited"); v != "" {
		visited, err := strconv.ParseBool(v)
		if err != nil {
			writeError(w, http.StatusBadRequest, "visited must be true or false")
			return
		}
		opts.Visited = &visited
	}

	entries, err := s.saved.List(r.Context(), user, opts)
	if err != nil {
		s.savedError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, savedListResponse{Restaurants: entries, Total: len(entries)})
}

func (s *Server) handleSavedIDs(w http.ResponseWriter, r *http.Request) {
	user, ok := userID(w, r)
	if !ok {
		return
	}
	ids, err := s.saved.IDs(r.Context(), user)
	if err != nil {
		s.savedError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string][]string{"restaurant_ids": ids})
}

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	user, ok := userID(w, r)
	if !ok {
		return
	}

	var err error
	switch format := r.URL.Query().Get("format"); format {
	case "", "json":
		w.Header().Set("Content-Type", "application/json")
		err = s.saved.ExportJSON(r.Context(), user, w)
	case "yaml":
		w.Header().Set("Content-Type", "application/yaml")
		err = s.saved.ExportYAML(r.Context(), user, w)
	default:
		writeError(w, http.StatusBadRequest, "format must be json or yaml")
		return
	}
	if err != nil {
		// Headers may already be out; the log is all that is left.
		s.logger.Error("export failed", "user", user, "request_id", RequestIDFrom(r.Context()), "err", err)
	}
}

func (s *Server) handleGetSaved(w http.ResponseWriter, r *http.Request) {
	user, ok := userID(w, r)
	if !ok {
		return
	}
	saved, err := s.saved.Get(r.Context(), user, mux.Vars(r)["restaurant_id"])
	if err != nil {
		s.savedError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, saved)
}

func (s *Server) handleUpdateSaved(w http.ResponseWriter, r *http.Request) {
	user, ok := userID(w, r)
	if !ok {
		return
	}
	var patch types.AnnotationPatch
	if !decodeAndValidate(w, r, &patch) {
		return
	}
	saved, err := s.saved.Update(r.Context(), user, mux.Vars(r)["restaurant_id"], patch)
	if err != nil {
		s.savedError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, saved)
}

func (s *Server) handleDeleteSaved(w http.ResponseWriter, r *http.Request) {
	user, ok := userID(w, r)
	if !ok {
		return
	}
	if err := s.saved.Delete(r.Context(), user, mux.Vars(r)["restaurant_id"]); err != nil {
		s.savedError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) savedError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, watchlist.ErrNotFound):
		writeError(w, http.StatusNotFound, "restaurant not found in saved list")
	case errors.Is(err, watchlist.ErrAlreadySaved):
		writeError(w, http.StatusConflict, "restaurant already saved")
	case errors.Is(err, watchlist.ErrInvalid):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, watchlist.ErrNoUser):
		writeError(w, http.StatusUnauthorized, err.Error())
	default:
		s.logger.Error("saved store failed", "request_id", RequestIDFrom(r.Context()), "err", err)
		writeError(w, http.StatusInternalServerError, "saved store failed")
	}
}
