//nolint:revive // types is a standard Go package name pattern
package types

import "time"

// TokenResponse is returned when a session cookie is issued or cleared
type TokenResponse struct {
	Success   bool       `json:"success"`
	Email     string     `json:"email,omitempty"`
	ExpiresAt *time.Time `json:"expires_at,omitempty"`
}
