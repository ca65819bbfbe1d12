package server

import (
	"context"
	"fmt"

	"google.golang.org/api/idtoken"
)

// payloadValidator is the subset of *idtoken.Validator the verifier needs.
type payloadValidator interface {
	Validate(ctx context.Context, idToken string, audience string) (*idtoken.Payload, error)
}

// GoogleVerifier verifies Google ID tokens issued for this client.
type GoogleVerifier struct {
	validator payloadValidator
	audience  string
}

// NewGoogleVerifier creates a verifier for tokens whose audience is clientID.
func NewGoogleVerifier(ctx context.Context, clientID string) (*GoogleVerifier, error) {
	if clientID == "" {
		return nil, fmt.Errorf("google client id is required")
	}
	v, err := idtoken.NewValidator(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create id token validator: %w", err)
	}
	return &GoogleVerifier{validator: v, audience: clientID}, nil
}

// VerifyIdentity validates the token and returns its verified email.
func (g *GoogleVerifier) VerifyIdentity(ctx context.Context, token string) (string, error) {
	payload, err := g.validator.Validate(ctx, token, g.audience)
	if err != nil {
		return "", fmt.Errorf("invalid identity token: %w", err)
	}

	email, _ := payload.Claims["email"].(string)
	if email == "" {
		return "", fmt.Errorf("identity token carries no email")
	}
	if verified, _ := payload.Claims["email_verified"].(bool); !verified {
		return "", fmt.Errorf("email %s is not verified", email)
	}
	return email, nil
}
