package httpapi

import (
	"encoding/json"
	"net/http"

	"movielist/internal/store"
)

type movieIDRequest struct {
	MovieID *int64 `json:"movie_id"`
}

func buttonText(kind store.ListKind, member bool) string {
	switch kind {
	case store.ListWatchlist:
		if member {
			return "In Watchlist"
		}
		return "Add to Watchlist"
	case store.ListFavorites:
		if member {
			return "Favorited"
		}
		return "Add to Favorites"
	default:
		if member {
			return "Watched"
		}
		return "Mark as Watched"
	}
}

// handleToggle flips membership in one of the viewer's lists and reports the
// new state alongside the refreshed counter.
func (s *Server) handleToggle(kind store.ListKind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user, ok := s.currentUser(r)
		if !ok {
			s.writeError(w, store.ErrUnauthorized)
			return
		}

		var req movieIDRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid JSON payload"})
			return
		}
		if req.MovieID == nil {
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: "movie_id is required"})
			return
		}

		result, err := s.lists.Toggle(r.Context(), kind, user.ID, *req.MovieID)
		if err != nil {
			s.writeError(w, err)
			return
		}

		status := "removed"
		if result.Added {
			status = "added"
		}

		writeJSON(w, http.StatusOK, map[string]any{
			"status":                status,
			"button_text":           buttonText(kind, result.Added),
			string(kind) + "_count": result.Count,
			"movie_id":              *req.MovieID,
		})
	}
}

// handleRemove drops the movie from every list the viewer keeps it in. A
// movie in no list is a successful no-op, flagged via "removed".
func (s *Server) handleRemove(w http.ResponseWriter, r *http.Request) {
	user, ok := s.currentUser(r)
	if !ok {
		s.writeError(w, store.ErrUnauthorized)
		return
	}

	var req movieIDRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid JSON payload"})
		return
	}
	if req.MovieID == nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "movie_id is required"})
		return
	}

	removed, err := s.lists.Remove(r.Context(), user.ID, *req.MovieID)
	if err != nil {
		s.writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, struct {
		Success bool `json:"success"`
		Removed bool `json:"removed"`
	}{Success: true, Removed: removed})
}

func (s *Server) handleMovieStatuses(w http.ResponseWriter, r *http.Request) {
	user, ok := s.currentUser(r)
	if !ok {
		s.writeError(w, store.ErrUnauthorized)
		return
	}

	statuses, err := s.lists.Statuses(r.Context(), user.ID)
	if err != nil {
		s.writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, struct {
		Success   bool    `json:"success"`
		Watchlist []int64 `json:"watchlist"`
		Favorites []int64 `json:"favorites"`
		Watched   []int64 `json:"watched"`
	}{
		Success:   true,
		Watchlist: statuses.Watchlist,
		Favorites: statuses.Favorites,
		Watched:   statuses.Watched,
	})
}
