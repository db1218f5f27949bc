package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog/log"

	"movielist/internal/middleware"
	"movielist/internal/store"
)

// UserService captures the account and session operations needed by the
// HTTP handlers.
type UserService interface {
	Register(ctx context.Context, username, email, password string) (store.User, error)
	Authenticate(ctx context.Context, email, password string) (string, error)
	UserByToken(ctx context.Context, token string) (store.User, error)
	Signout(ctx context.Context, token string) error
	Profile(ctx context.Context, userID int64) (store.User, error)
	Community(ctx context.Context) ([]store.User, error)
}

// CatalogService describes the browse and search workflows.
type CatalogService interface {
	Home(ctx context.Context) ([]store.GenreMovies, error)
	Genre(ctx context.Context, genreID int64) (store.Genre, []store.Movie, error)
	Search(ctx context.Context, query string) ([]store.Movie, error)
	Top(ctx context.Context) ([]store.Movie, error)
	Movie(ctx context.Context, id int64) (store.MovieDetail, []store.Movie, error)
}

// ListsService describes the per-user list workflows.
type ListsService interface {
	Toggle(ctx context.Context, kind store.ListKind, userID, movieID int64) (store.ToggleResult, error)
	Remove(ctx context.Context, userID, movieID int64) (bool, error)
	Statuses(ctx context.Context, userID int64) (store.ListStatuses, error)
	Library(ctx context.Context, userID int64) (store.Library, error)
}

// Server wires HTTP handlers to the underlying services.
type Server struct {
	users         UserService
	catalog       CatalogService
	lists         ListsService
	sessionSecret []byte
}

// New configures a Server with the given services.
func New(users UserService, catalog CatalogService, lists ListsService, sessionSecret []byte) *Server {
	return &Server{
		users:         users,
		catalog:       catalog,
		lists:         lists,
		sessionSecret: sessionSecret,
	}
}

// Routes exposes the HTTP handlers for the catalog, lists and accounts.
func (s *Server) Routes() http.Handler {
	r := mux.NewRouter()
	r.Use(middleware.RequestLogging())
	r.Use(middleware.Recovery())

	r.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	}).Methods(http.MethodGet)

	// Catalog pages
	r.HandleFunc("/", s.handleHome).Methods(http.MethodGet)
	r.HandleFunc("/genre/{id:[0-9]+}", s.handleGenre).Methods(http.MethodGet)
	r.HandleFunc("/search", s.handleSearch).Methods(http.MethodGet)
	r.HandleFunc("/movie/{id:[0-9]+}", s.handleMovie).Methods(http.MethodGet)
	r.HandleFunc("/top-movies", s.handleTopMovies).Methods(http.MethodGet)

	// Accounts
	r.HandleFunc("/signup", s.handleSignupPage).Methods(http.MethodGet)
	r.HandleFunc("/signup", s.handleSignup).Methods(http.MethodPost)
	r.HandleFunc("/signin", s.handleSigninPage).Methods(http.MethodGet)
	r.HandleFunc("/signin", s.handleSignin).Methods(http.MethodPost)
	r.HandleFunc("/signout", s.handleSignout).Methods(http.MethodGet)
	r.HandleFunc("/my-library", s.handleMyLibrary).Methods(http.MethodGet)
	r.HandleFunc("/profile", s.handleProfile).Methods(http.MethodGet)
	r.HandleFunc("/profile/{user_id:[0-9]+}", s.handleProfile).Methods(http.MethodGet)
	r.HandleFunc("/community", s.handleCommunity).Methods(http.MethodGet)

	// List API
	api := r.PathPrefix("/api").Subrouter()
	api.HandleFunc("/watchlist/toggle", s.handleToggle(store.ListWatchlist)).Methods(http.MethodPost)
	api.HandleFunc("/favorites/toggle", s.handleToggle(store.ListFavorites)).Methods(http.MethodPost)
	api.HandleFunc("/watched/toggle", s.handleToggle(store.ListWatched)).Methods(http.MethodPost)
	api.HandleFunc("/movie/remove", s.handleRemove).Methods(http.MethodPost)
	api.HandleFunc("/user/movie-statuses", s.handleMovieStatuses).Methods(http.MethodGet)

	return r
}

type errorResponse struct {
	Error string `json:"error"`
}

// movieView decorates a catalog movie with the viewer's list membership.
// Entities are never mutated; annotations live only on the view.
type movieView struct {
	store.Movie
	InWatchlist bool `json:"in_watchlist"`
	InFavorites bool `json:"in_favorites"`
	InWatched   bool `json:"in_watched"`
}

func annotateMovies(movies []store.Movie, statuses store.ListStatuses) []movieView {
	inWatchlist := idSet(statuses.Watchlist)
	inFavorites := idSet(statuses.Favorites)
	inWatched := idSet(statuses.Watched)

	views := make([]movieView, 0, len(movies))
	for _, movie := range movies {
		views = append(views, movieView{
			Movie:       movie,
			InWatchlist: inWatchlist[movie.ID],
			InFavorites: inFavorites[movie.ID],
			InWatched:   inWatched[movie.ID],
		})
	}
	return views
}

func idSet(ids []int64) map[int64]bool {
	set := make(map[int64]bool, len(ids))
	for _, id := range ids {
		set[id] = true
	}
	return set
}

// viewerStatuses returns the signed-in viewer's list statuses, or empty
// statuses for anonymous visitors.
func (s *Server) viewerStatuses(r *http.Request) store.ListStatuses {
	user, ok := s.currentUser(r)
	if !ok {
		return store.ListStatuses{}
	}
	statuses, err := s.lists.Statuses(r.Context(), user.ID)
	if err != nil {
		log.Warn().Err(err).Int64("user_id", user.ID).Msg("load viewer statuses")
		return store.ListStatuses{}
	}
	return statuses
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, store.ErrMovieNotFound),
		errors.Is(err, store.ErrGenreNotFound),
		errors.Is(err, store.ErrUserNotFound):
		writeJSON(w, http.StatusNotFound, errorResponse{Error: err.Error()})
	case errors.Is(err, store.ErrUnauthorized):
		writeJSON(w, http.StatusUnauthorized, errorResponse{Error: "authentication required"})
	case errors.Is(err, store.ErrUserExists):
		writeJSON(w, http.StatusConflict, errorResponse{Error: err.Error()})
	case errors.Is(err, store.ErrInvalidCredentials):
		writeJSON(w, http.StatusUnauthorized, errorResponse{Error: err.Error()})
	default:
		log.Error().Err(err).Msg("internal error")
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "internal server error"})
	}
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload != nil {
		_ = json.NewEncoder(w).Encode(payload)
	}
}
