package tokens

import (
	"context"
	"encoding/base64"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret-32-bytes-should-be-long-enough"

func newTestIssuer(t *testing.T, ttl time.Duration) *Issuer {
	t.Helper()
	iss, err := NewIssuer(testSecret, ttl)
	require.NoError(t, err)
	return iss
}

func TestNewIssuer_RejectsEmptySecret(t *testing.T) {
	_, err := NewIssuer("", time.Hour)
	require.ErrorIs(t, err, ErrEmptySecret)

	_, err = NewIssuer(testSecret, 0)
	require.Error(t, err)
}

func TestIssue_ValidAndClaims(t *testing.T) {
	iss := newTestIssuer(t, time.Hour)
	fixed := time.Unix(1_700_000_000, 0)
	iss.now = func() time.Time { return fixed }

	raw, err := iss.Issue(map[string]interface{}{
		"email": "guest@example.com",
		"name":  "Guest",
		"exp":   float64(1),
		"iat":   float64(2),
	})
	require.NoError(t, err)

	tok, err := iss.Verify(context.Background(), raw)
	require.NoError(t, err)
	var claims map[string]interface{}
	require.NoError(t, tok.Claims(&claims))
	require.Equal(t, "guest@example.com", claims["email"])
	require.Equal(t, "Guest", claims["name"])
	require.Equal(t, float64(fixed.Unix()), claims["iat"])
	require.Equal(t, float64(fixed.Add(time.Hour).Unix()), claims["exp"])

	exp, ok := ExpiresAt(claims)
	require.True(t, ok)
	require.Equal(t, fixed.Add(time.Hour), exp)

	var typed struct {
		Email string `json:"email"`
	}
	require.NoError(t, tok.Claims(&typed))
	require.Equal(t, "guest@example.com", typed.Email)
}

func TestIssue_RequiresEmail(t *testing.T) {
	iss := newTestIssuer(t, time.Hour)
	_, err := iss.Issue(map[string]interface{}{"name": "x"})
	require.ErrorIs(t, err, ErrInvalidEmail)
	_, err = iss.Issue(map[string]interface{}{"email": "nope"})
	require.ErrorIs(t, err, ErrInvalidEmail)
	_, err = iss.Issue(map[string]interface{}{"email": 42})
	require.ErrorIs(t, err, ErrInvalidEmail)
}

func TestVerify_Expired(t *testing.T) {
	iss := newTestIssuer(t, time.Minute)
	start := time.Now()
	iss.now = func() time.Time { return start }
	raw, err := iss.Issue(map[string]interface{}{"email": "x@example.com"})
	require.NoError(t, err)

	iss.now = func() time.Time { return start.Add(2 * time.Minute) }
	_, err = iss.Verify(context.Background(), raw)
	require.ErrorIs(t, err, jwt.ErrTokenExpired)
}

func TestVerify_WrongSecretFails(t *testing.T) {
	iss := newTestIssuer(t, time.Hour)
	raw, err := iss.Issue(map[string]interface{}{"email": "bob@example.com"})
	require.NoError(t, err)

	other, err := NewIssuer("different-secret-xxxxxxxxxxxxxxxx", time.Hour)
	require.NoError(t, err)
	_, err = other.Verify(context.Background(), raw)
	require.Error(t, err)
}

func TestVerify_TamperedPayload(t *testing.T) {
	iss := newTestIssuer(t, time.Hour)
	raw, err := iss.Issue(map[string]interface{}{"email": "bob@example.com"})
	require.NoError(t, err)

	parts := strings.Split(raw, ".")
	require.Len(t, parts, 3)
	payload := base64.RawURLEncoding.EncodeToString([]byte(`{"email":"eve@example.com","exp":9999999999}`))
	_, err = iss.Verify(context.Background(), parts[0]+"."+payload+"."+parts[2])
	require.Error(t, err)
}

func TestVerify_RejectsAlgNone(t *testing.T) {
	iss := newTestIssuer(t, time.Hour)
	unsigned := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.MapClaims{
		"email": "eve@example.com",
		"exp":   time.Now().Add(time.Hour).Unix(),
	})
	raw, err := unsigned.SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	_, err = iss.Verify(context.Background(), raw)
	require.Error(t, err)
}

func TestVerify_RequiresExpiry(t *testing.T) {
	iss := newTestIssuer(t, time.Hour)
	jt := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"email": "x@example.com"})
	raw, err := jt.SignedString([]byte(testSecret))
	require.NoError(t, err)

	_, err = iss.Verify(context.Background(), raw)
	require.Error(t, err)
}

func TestVerify_Malformed(t *testing.T) {
	iss := newTestIssuer(t, time.Hour)
	_, err := iss.Verify(context.Background(), "not.a.jwt")
	require.Error(t, err)
}
