// Package middleware provides HTTP middleware for authentication.
package middleware

import (
	"context"
	"fmt"
	"net/http"
	"strings"
)

// ContextKey is a typed key for context values to avoid collisions.
type ContextKey string

// emailKey is the context key for storing the authenticated email.
const emailKey ContextKey = "email"

// TokenValidator validates session tokens issued by this service.
type TokenValidator interface {
	ValidateToken(tokenString string) (EmailGetter, error)
}

// EmailGetter is an interface for extracting the email from token claims.
type EmailGetter interface {
	GetEmail() string
}

// IdentityVerifier verifies a third-party identity token and returns the
// verified email it carries.
type IdentityVerifier interface {
	VerifyIdentity(ctx context.Context, token string) (string, error)
}

// Authenticator resolves the caller's email from the session cookie or,
// failing that, from a bearer identity token.
type Authenticator struct {
	cookieName string
	tokens     TokenValidator
	identities IdentityVerifier
}

// NewAuthenticator creates an Authenticator. identities may be nil, in which
// case only the session cookie is accepted.
func NewAuthenticator(cookieName string, tokens TokenValidator, identities IdentityVerifier) *Authenticator {
	return &Authenticator{
		cookieName: cookieName,
		tokens:     tokens,
		identities: identities,
	}
}

// Authenticate returns the verified email for the request.
func (a *Authenticator) Authenticate(r *http.Request) (string, error) {
	if cookie, err := r.Cookie(a.cookieName); err == nil && cookie.Value != "" {
		if claims, err := a.tokens.ValidateToken(cookie.Value); err == nil && claims.GetEmail() != "" {
			return claims.GetEmail(), nil
		}
	}

	token, ok := BearerToken(r)
	if !ok {
		return "", fmt.Errorf("no credentials presented")
	}
	if a.identities == nil {
		return "", fmt.Errorf("bearer identity tokens are not accepted")
	}
	email, err := a.identities.VerifyIdentity(r.Context(), token)
	if err != nil {
		return "", err
	}
	if email == "" {
		return "", fmt.Errorf("identity token carries no email")
	}
	return email, nil
}

// AuthMiddleware creates middleware that requires a verified identity and
// adds its email to the request context.
func AuthMiddleware(a *Authenticator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			email, err := a.Authenticate(r)
			if err != nil {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusUnauthorized)
				_, _ = w.Write([]byte(`{"error":"unauthorized","message":"authentication required"}` + "\n"))
				return
			}
			next.ServeHTTP(w, r.WithContext(WithEmail(r.Context(), email)))
		})
	}
}

// OptionalAuthMiddleware adds the caller's email to the request context when
// a valid credential is present and passes anonymous requests through.
func OptionalAuthMiddleware(a *Authenticator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if email, err := a.Authenticate(r); err == nil {
				r = r.WithContext(WithEmail(r.Context(), email))
			}
			next.ServeHTTP(w, r)
		})
	}
}

// BearerToken extracts the token from an "Authorization: Bearer" header.
func BearerToken(r *http.Request) (string, bool) {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		return "", false
	}

	// Handle case-insensitive "Bearer" prefix
	parts := strings.Fields(authHeader)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", false
	}

	token := strings.TrimSpace(parts[1])
	return token, token != ""
}

// WithEmail returns a context carrying the authenticated email.
func WithEmail(ctx context.Context, email string) context.Context {
	return context.WithValue(ctx, emailKey, email)
}

// GetEmail extracts the authenticated email from the request context.
func GetEmail(r *http.Request) (string, error) {
	email, ok := r.Context().Value(emailKey).(string)
	if !ok || email == "" {
		return "", fmt.Errorf("email not found in request context")
	}
	return email, nil
}

// ClaimedEmail returns the authenticated email, or "" for anonymous requests.
func ClaimedEmail(r *http.Request) string {
	email, _ := GetEmail(r)
	return email
}
