package httpapi

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gorilla/mux"

	"movielist/internal/store"
)

type genreGroupView struct {
	Genre  store.Genre `json:"genre"`
	Movies []movieView `json:"movies"`
}

type homeResponse struct {
	Genres []genreGroupView `json:"genres"`
	User   *store.User      `json:"user,omitempty"`
}

func (s *Server) handleHome(w http.ResponseWriter, r *http.Request) {
	groups, err := s.catalog.Home(r.Context())
	if err != nil {
		s.writeError(w, err)
		return
	}

	statuses := s.viewerStatuses(r)
	resp := homeResponse{Genres: make([]genreGroupView, 0, len(groups))}
	for _, group := range groups {
		resp.Genres = append(resp.Genres, genreGroupView{
			Genre:  group.Genre,
			Movies: annotateMovies(group.Movies, statuses),
		})
	}
	if user, ok := s.currentUser(r); ok {
		resp.User = &user
	}

	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleGenre(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid genre id"})
		return
	}

	genre, movies, err := s.catalog.Genre(r.Context(), id)
	if err != nil {
		s.writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, struct {
		Genre  store.Genre `json:"genre"`
		Movies []movieView `json:"movies"`
	}{Genre: genre, Movies: annotateMovies(movies, s.viewerStatuses(r))})
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	query := strings.TrimSpace(r.URL.Query().Get("q"))

	// An empty search is not a search; send the visitor back home.
	if query == "" {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}

	movies, err := s.catalog.Search(r.Context(), query)
	if err != nil {
		s.writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, struct {
		Query  string      `json:"query"`
		Movies []movieView `json:"movies"`
	}{Query: query, Movies: annotateMovies(movies, s.viewerStatuses(r))})
}

type movieDetailView struct {
	store.MovieDetail
	InWatchlist bool `json:"in_watchlist"`
	InFavorites bool `json:"in_favorites"`
	InWatched   bool `json:"in_watched"`
}

func (s *Server) handleMovie(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid movie id"})
		return
	}

	detail, similar, err := s.catalog.Movie(r.Context(), id)
	if err != nil {
		s.writeError(w, err)
		return
	}

	statuses := s.viewerStatuses(r)
	view := movieDetailView{
		MovieDetail: detail,
		InWatchlist: idSet(statuses.Watchlist)[detail.ID],
		InFavorites: idSet(statuses.Favorites)[detail.ID],
		InWatched:   idSet(statuses.Watched)[detail.ID],
	}

	writeJSON(w, http.StatusOK, struct {
		Movie   movieDetailView `json:"movie"`
		Similar []movieView     `json:"similar"`
	}{Movie: view, Similar: annotateMovies(similar, statuses)})
}

func (s *Server) handleTopMovies(w http.ResponseWriter, r *http.Request) {
	movies, err := s.catalog.Top(r.Context())
	if err != nil {
		s.writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, struct {
		Movies []movieView `json:"movies"`
	}{Movies: annotateMovies(movies, s.viewerStatuses(r))})
}

func (s *Server) handleMyLibrary(w http.ResponseWriter, r *http.Request) {
	user, ok := s.currentUser(r)
	if !ok {
		s.writeError(w, store.ErrUnauthorized)
		return
	}

	library, err := s.lists.Library(r.Context(), user.ID)
	if err != nil {
		s.writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, struct {
		User    store.User    `json:"user"`
		Library store.Library `json:"library"`
	}{User: user, Library: library})
}

func (s *Server) handleProfile(w http.ResponseWriter, r *http.Request) {
	var userID int64
	if raw, ok := mux.Vars(r)["user_id"]; ok {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid user id"})
			return
		}
		userID = id
	} else {
		user, ok := s.currentUser(r)
		if !ok {
			s.writeError(w, store.ErrUnauthorized)
			return
		}
		userID = user.ID
	}

	user, err := s.users.Profile(r.Context(), userID)
	if err != nil {
		s.writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, struct {
		User store.User `json:"user"`
	}{User: user})
}

func (s *Server) handleCommunity(w http.ResponseWriter, r *http.Request) {
	members, err := s.users.Community(r.Context())
	if err != nil {
		s.writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, struct {
		Users []store.User `json:"users"`
	}{Users: members})
}
