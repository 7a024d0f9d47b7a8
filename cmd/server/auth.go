package main

import (
	"net/http"

	"github.com/Simplici0/poolquote/internal/auth"
)

const sessionCookieName = "poolquote_session"

// requireAdmin accepts either HTTP Basic credentials or a session cookie
// issued by /login.
func (s *server) requireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.isAuthenticated(r) {
			next.ServeHTTP(w, r)
			return
		}

		if email, password, ok := r.BasicAuth(); ok {
			valid, err := auth.ValidateCredentials(r.Context(), s.store.DB(), email, password)
			if err != nil {
				s.log.Error().Err(err).Msg("validate credentials")
				respondError(w, http.StatusInternalServerError, "authentication error")
				return
			}
			if valid {
				next.ServeHTTP(w, r)
				return
			}
		}

		w.Header().Set("WWW-Authenticate", `Basic realm="poolquote admin"`)
		respondError(w, http.StatusUnauthorized, "authentication required")
	})
}

func (s *server) isAuthenticated(r *http.Request) bool {
	cookie, err := r.Cookie(sessionCookieName)
	if err != nil {
		return false
	}

	_, ok := s.sessions.Verify(cookie.Value)
	return ok
}

func (s *server) handleLogin(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		respondError(w, http.StatusBadRequest, "invalid form")
		return
	}

	email := r.FormValue("email")
	valid, err := auth.ValidateCredentials(r.Context(), s.store.DB(), email, r.FormValue("password"))
	if err != nil {
		s.log.Error().Err(err).Msg("validate credentials")
		respondError(w, http.StatusInternalServerError, "authentication error")
		return
	}
	if !valid {
		respondError(w, http.StatusUnauthorized, "invalid credentials")
		return
	}

	s.setSessionCookie(w, email)
	respondJSON(w, http.StatusOK, map[string]string{"email": email})
}

func (s *server) handleLogout(w http.ResponseWriter, r *http.Request) {
	s.clearSessionCookie(w)
	w.WriteHeader(http.StatusNoContent)
}

func (s *server) setSessionCookie(w http.ResponseWriter, email string) {
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    s.sessions.Sign(email),
		Path:     "/",
		HttpOnly: true,
		Secure:   !s.cfg.IsDev(),
		SameSite: http.SameSiteLaxMode,
	})
}

func (s *server) clearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}
