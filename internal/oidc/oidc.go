package oidc

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/coreos/go-oidc/v3/oidc"
)

var (
	ErrEmailMismatch   = errors.New("oidc: id token email does not match")
	ErrEmailUnverified = errors.New("oidc: id token email is not verified")
)

// Verifier checks ID tokens from the identity provider the frontend signs in with
type Verifier struct {
	verifier *oidc.IDTokenVerifier
}

// NewVerifier creates a new OIDC verifier for the given issuer and client ID
func NewVerifier(ctx context.Context, issuer, clientID string) (*Verifier, error) {
	provider, err := oidc.NewProvider(ctx, issuer)
	if err != nil {
		return nil, fmt.Errorf("failed to discover OIDC provider: %w", err)
	}
	return &Verifier{verifier: provider.Verifier(&oidc.Config{ClientID: clientID})}, nil
}

// NewStaticVerifier verifies against fixed keys instead of provider discovery.
func NewStaticVerifier(issuer string, keys oidc.KeySet, cfg *oidc.Config) *Verifier {
	return &Verifier{verifier: oidc.NewVerifier(issuer, keys, cfg)}
}

type emailClaims struct {
	Email         string `json:"email"`
	EmailVerified *bool  `json:"email_verified"`
}

// VerifyEmail verifies raw and checks that it was issued for email.
func (v *Verifier) VerifyEmail(ctx context.Context, raw, email string) error {
	idToken, err := v.verifier.Verify(ctx, raw)
	if err != nil {
		return err
	}
	var c emailClaims
	if err := idToken.Claims(&c); err != nil {
		return fmt.Errorf("oidc: decode claims: %w", err)
	}
	if c.Email == "" || !strings.EqualFold(c.Email, strings.TrimSpace(email)) {
		return ErrEmailMismatch
	}
	if c.EmailVerified != nil && !*c.EmailVerified {
		return ErrEmailUnverified
	}
	return nil
}
