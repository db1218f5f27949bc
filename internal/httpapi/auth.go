package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"

	"movielist/internal/store"
)

type signupRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type signinRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (s *Server) handleSignupPage(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, struct {
		Title string `json:"title"`
	}{Title: "Sign Up"})
}

func (s *Server) handleSignup(w http.ResponseWriter, r *http.Request) {
	var req signupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid JSON payload"})
		return
	}

	user, err := s.users.Register(r.Context(), req.Username, req.Email, req.Password)
	if err != nil {
		if errors.Is(err, store.ErrUserExists) {
			writeJSON(w, http.StatusConflict, errorResponse{Error: "username or email already taken"})
			return
		}
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}

	writeJSON(w, http.StatusCreated, struct {
		User store.User `json:"user"`
	}{User: user})
}

func (s *Server) handleSigninPage(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, struct {
		Title string `json:"title"`
	}{Title: "Sign In"})
}

func (s *Server) handleSignin(w http.ResponseWriter, r *http.Request) {
	var req signinRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid JSON payload"})
		return
	}

	token, err := s.users.Authenticate(r.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, store.ErrInvalidCredentials) {
			// Reported like a flash message, not an internal failure.
			writeJSON(w, http.StatusUnauthorized, errorResponse{Error: "Invalid email or password"})
			return
		}
		s.writeError(w, err)
		return
	}

	if err := s.issueSessionCookie(w, token); err != nil {
		s.writeError(w, err)
		return
	}

	user, err := s.users.UserByToken(r.Context(), token)
	if err != nil {
		s.writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, struct {
		User store.User `json:"user"`
	}{User: user})
}

func (s *Server) handleSignout(w http.ResponseWriter, r *http.Request) {
	if token := s.sessionToken(r); token != "" {
		_ = s.users.Signout(r.Context(), token)
	}
	s.clearSessionCookie(w)
	http.Redirect(w, r, "/", http.StatusSeeOther)
}
