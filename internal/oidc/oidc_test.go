package oidc

import (
	"context"
	"crypto"
	"crypto/rand"
	"crypto/rsa"
	"testing"
	"time"

	"github.com/coreos/go-oidc/v3/oidc"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"
)

const (
	testIssuer   = "https://securetoken.google.com/aircnc-test"
	testClientID = "aircnc-test"
)

func newTestVerifier(t *testing.T) (*Verifier, *rsa.PrivateKey) {
	t.Helper()
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	keys := &oidc.StaticKeySet{PublicKeys: []crypto.PublicKey{key.Public()}}
	return NewStaticVerifier(testIssuer, keys, &oidc.Config{ClientID: testClientID}), key
}

func signIDToken(t *testing.T, key *rsa.PrivateKey, claims jwt.MapClaims) string {
	t.Helper()
	base := jwt.MapClaims{
		"iss": testIssuer,
		"aud": testClientID,
		"sub": "uid-1",
		"iat": time.Now().Unix(),
		"exp": time.Now().Add(time.Hour).Unix(),
	}
	for k, v := range claims {
		base[k] = v
	}
	raw, err := jwt.NewWithClaims(jwt.SigningMethodRS256, base).SignedString(key)
	require.NoError(t, err)
	return raw
}

func TestVerifyEmail(t *testing.T) {
	v, key := newTestVerifier(t)
	ctx := context.Background()

	raw := signIDToken(t, key, jwt.MapClaims{"email": "guest@example.com", "email_verified": true})
	require.NoError(t, v.VerifyEmail(ctx, raw, "Guest@Example.com"))
	require.ErrorIs(t, v.VerifyEmail(ctx, raw, "other@example.com"), ErrEmailMismatch)

	unverified := signIDToken(t, key, jwt.MapClaims{"email": "guest@example.com", "email_verified": false})
	require.ErrorIs(t, v.VerifyEmail(ctx, unverified, "guest@example.com"), ErrEmailUnverified)

	noEmail := signIDToken(t, key, nil)
	require.ErrorIs(t, v.VerifyEmail(ctx, noEmail, "guest@example.com"), ErrEmailMismatch)
}

func TestVerifyEmail_RejectsForeignTokens(t *testing.T) {
	v, _ := newTestVerifier(t)
	ctx := context.Background()

	otherKey, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	forged := signIDToken(t, otherKey, jwt.MapClaims{"email": "guest@example.com"})
	require.Error(t, v.VerifyEmail(ctx, forged, "guest@example.com"))

	require.Error(t, v.VerifyEmail(ctx, "not-a-token", "guest@example.com"))
}

func TestVerifyEmail_WrongAudience(t *testing.T) {
	v, key := newTestVerifier(t)
	raw := signIDToken(t, key, jwt.MapClaims{"email": "guest@example.com", "aud": "someone-else"})
	require.Error(t, v.VerifyEmail(context.Background(), raw, "guest@example.com"))
}
