package server

import (
	"net/http"
	"time"

	"github.com/jonathan/career-code/internal/server/middleware"
	"github.com/jonathan/career-code/internal/types"
	"github.com/rs/zerolog/hlog"
)

// handleIssueToken exchanges a verified bearer identity token for a session
// cookie carrying the caller's email.
func (s *Server) handleIssueToken(w http.ResponseWriter, r *http.Request) {
	if s.identities == nil {
		s.errorResponse(w, http.StatusServiceUnavailable, "identity_provider_unavailable",
			"identity token verification is not configured")
		return
	}

	token, ok := middleware.BearerToken(r)
	if !ok {
		s.errorResponse(w, http.StatusUnauthorized, "unauthorized", "bearer identity token required")
		return
	}

	email, err := s.identities.VerifyIdentity(r.Context(), token)
	if err != nil {
		hlog.FromRequest(r).Debug().Err(err).Msg("identity token rejected")
		s.errorResponse(w, http.StatusUnauthorized, "unauthorized", "identity token rejected")
		return
	}

	session, expiresAt, err := s.jwtService.GenerateToken(email)
	if err != nil {
		hlog.FromRequest(r).Error().Err(err).Msg("failed to generate session token")
		s.errorResponse(w, http.StatusInternalServerError, "internal", "failed to generate token")
		return
	}

	http.SetCookie(w, s.sessionCookie(session, expiresAt))
	s.jsonResponse(w, http.StatusOK, types.TokenResponse{
		Success:   true,
		Email:     email,
		ExpiresAt: &expiresAt,
	})
}

// handleLogout clears the session cookie
func (s *Server) handleLogout(w http.ResponseWriter, _ *http.Request) {
	cookie := s.sessionCookie("", time.Unix(0, 0))
	cookie.MaxAge = -1
	http.SetCookie(w, cookie)
	s.jsonResponse(w, http.StatusOK, types.TokenResponse{Success: true})
}

// sessionCookie builds the HttpOnly session cookie. SameSite=None is only
// used together with Secure.
func (s *Server) sessionCookie(value string, expires time.Time) *http.Cookie {
	sameSite := http.SameSiteLaxMode
	if s.jwtConfig.CookieSecure {
		sameSite = http.SameSiteNoneMode
	}
	return &http.Cookie{
		Name:     s.jwtConfig.CookieName,
		Value:    value,
		Path:     "/",
		Expires:  expires,
		HttpOnly: true,
		Secure:   s.jwtConfig.CookieSecure,
		SameSite: sameSite,
	}
}
