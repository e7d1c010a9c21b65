package main

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/aircnc/aircnc-server/internal/config"
	"github.com/aircnc/aircnc-server/internal/tokens"
)

func testConfig() *config.Config {
	cfg := &config.Config{}
	cfg.JWT.Secret = "mint-token-test-secret"
	cfg.JWT.AccessTokenTTL = time.Hour
	return cfg
}

func TestMint(t *testing.T) {
	cfg := testConfig()
	raw, exp, err := mint(cfg, "host@example.com", `{"name":"Host","email":"ignored@example.com"}`, 0)
	require.NoError(t, err)
	require.WithinDuration(t, time.Now().Add(time.Hour), exp, 5*time.Second)

	iss, err := tokens.NewIssuer(cfg.JWT.Secret, time.Hour)
	require.NoError(t, err)
	tok, err := iss.Verify(context.Background(), raw)
	require.NoError(t, err)
	var claims map[string]interface{}
	require.NoError(t, tok.Claims(&claims))
	require.Equal(t, "host@example.com", claims["email"])
	require.Equal(t, "Host", claims["name"])
}

func TestMintErrors(t *testing.T) {
	cfg := testConfig()
	_, _, err := mint(cfg, "", "", 0)
	require.ErrorIs(t, err, tokens.ErrInvalidEmail)

	_, _, err = mint(cfg, "a@example.com", "{not json", 0)
	require.Error(t, err)

	for _, notObject := range []string{"null", "[1]", `"x"`} {
		require.NotPanics(t, func() {
			_, _, err = mint(cfg, "a@example.com", notObject, 0)
		})
		require.Error(t, err, notObject)
	}

	cfg.JWT.Secret = ""
	_, _, err = mint(cfg, "a@example.com", "", time.Minute)
	require.ErrorIs(t, err, tokens.ErrEmptySecret)
}
