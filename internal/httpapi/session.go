package httpapi

import (
	"fmt"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"movielist/internal/store"
)

const (
	sessionCookieName = "movielist_session"
	sessionCookieTTL  = 30 * 24 * time.Hour
)

type sessionClaims struct {
	Token string `json:"tok"`
	jwt.RegisteredClaims
}

// issueSessionCookie wraps the opaque store token in a signed JWT so a
// tampered cookie is rejected without a database round trip.
func (s *Server) issueSessionCookie(w http.ResponseWriter, token string) error {
	now := time.Now()
	claims := sessionClaims{
		Token: token,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(sessionCookieTTL)),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.sessionSecret)
	if err != nil {
		return fmt.Errorf("sign session cookie: %w", err)
	}

	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    signed,
		Path:     "/",
		Expires:  now.Add(sessionCookieTTL),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	return nil
}

func (s *Server) clearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

// sessionToken extracts and verifies the store token from the session
// cookie. An empty string means no valid session cookie was presented.
func (s *Server) sessionToken(r *http.Request) string {
	cookie, err := r.Cookie(sessionCookieName)
	if err != nil {
		return ""
	}

	claims := &sessionClaims{}
	parsed, err := jwt.ParseWithClaims(cookie.Value, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return s.sessionSecret, nil
	})
	if err != nil || !parsed.Valid {
		return ""
	}
	return claims.Token
}

// currentUser resolves the request's session to a user. The second return
// is false for anonymous visitors and expired sessions.
func (s *Server) currentUser(r *http.Request) (store.User, bool) {
	token := s.sessionToken(r)
	if token == "" {
		return store.User{}, false
	}
	user, err := s.users.UserByToken(r.Context(), token)
	if err != nil {
		return store.User{}, false
	}
	return user, true
}
