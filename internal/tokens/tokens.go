package tokens

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/aircnc/aircnc-server/pkg/middleware"
	"github.com/aircnc/aircnc-server/pkg/validation"
)

var (
	ErrEmptySecret  = errors.New("tokens: signing secret is empty")
	ErrInvalidEmail = errors.New("tokens: claims must carry a valid email")
)

// claims the issuer always sets itself
var reserved = []string{"iat", "exp", "nbf"}

// Issuer signs and verifies HS256 access tokens with a shared secret.
type Issuer struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewIssuer creates an Issuer. ttl is the lifetime of every issued token.
func NewIssuer(secret string, ttl time.Duration) (*Issuer, error) {
	if secret == "" {
		return nil, ErrEmptySecret
	}
	if ttl <= 0 {
		return nil, fmt.Errorf("tokens: ttl must be positive, got %s", ttl)
	}
	return &Issuer{secret: []byte(secret), ttl: ttl, now: time.Now}, nil
}

// TTL returns the lifetime of issued tokens.
func (i *Issuer) TTL() time.Duration { return i.ttl }

// Issue signs claims into an access token. The caller's claims are copied;
// iat and exp are always set by the issuer.
func (i *Issuer) Issue(claims map[string]interface{}) (string, error) {
	email, _ := claims["email"].(string)
	if !validation.Email(email) {
		return "", ErrInvalidEmail
	}

	mc := make(jwt.MapClaims, len(claims)+2)
	for k, v := range claims {
		mc[k] = v
	}
	for _, k := range reserved {
		delete(mc, k)
	}
	mc["email"] = strings.TrimSpace(email)
	now := i.now()
	mc["iat"] = now.Unix()
	mc["exp"] = now.Add(i.ttl).Unix()

	jt := jwt.NewWithClaims(jwt.SigningMethodHS256, mc)
	return jt.SignedString(i.secret)
}

// Verify checks signature, algorithm and expiry of raw and returns its claims.
func (i *Issuer) Verify(ctx context.Context, raw string) (middleware.Token, error) {
	parsed, err := jwt.Parse(raw, func(t *jwt.Token) (interface{}, error) {
		return i.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithIssuedAt(),
		jwt.WithTimeFunc(i.now),
	)
	if err != nil {
		return nil, err
	}
	mc, ok := parsed.Claims.(jwt.MapClaims)
	if !ok || !parsed.Valid {
		return nil, errors.New("tokens: invalid token")
	}
	return claimsToken(mc), nil
}

type claimsToken jwt.MapClaims

// Claims decodes the token claims into v the same way an OIDC ID token does.
func (t claimsToken) Claims(v interface{}) error {
	if m, ok := v.(*map[string]interface{}); ok {
		out := make(map[string]interface{}, len(t))
		for k, val := range t {
			out[k] = val
		}
		*m = out
		return nil
	}
	b, err := json.Marshal(map[string]interface{}(t))
	if err != nil {
		return err
	}
	return json.Unmarshal(b, v)
}

// ExpiresAt reads the exp claim of verified claims.
func ExpiresAt(claims map[string]interface{}) (time.Time, bool) {
	switch exp := claims["exp"].(type) {
	case float64:
		sec, frac := math.Modf(exp)
		return time.Unix(int64(sec), int64(frac*1e9)), true
	case int64:
		return time.Unix(exp, 0), true
	case json.Number:
		n, err := exp.Int64()
		if err != nil {
			return time.Time{}, false
		}
		return time.Unix(n, 0), true
	}
	return time.Time{}, false
}
