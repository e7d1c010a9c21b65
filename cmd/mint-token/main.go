// Command mint-token issues an access token for local testing against the
// API. It signs with the same ACCESS_TOKEN_SECRET and TTL the server loads.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/aircnc/aircnc-server/internal/config"
	"github.com/aircnc/aircnc-server/internal/tokens"
	"github.com/aircnc/aircnc-server/pkg/logger"
)

func main() {
	email := flag.String("email", "", "email claim of the token (required)")
	extra := flag.String("claims", "", `additional claims as a JSON object, e.g. {"name":"Guest"}`)
	ttl := flag.Duration("ttl", 0, "token lifetime; defaults to JWT_ACCESS_TOKEN_TTL")
	flag.Parse()

	logger.Init("warn")
	cfg, err := config.LoadConfig()
	if err != nil {
		logger.Fatalf("failed to load config: %v", err)
	}

	raw, exp, err := mint(cfg, *email, *extra, *ttl)
	if err != nil {
		fmt.Fprintln(os.Stderr, "mint-token:", err)
		flag.Usage()
		os.Exit(2)
	}
	fmt.Println(raw)
	fmt.Fprintf(os.Stderr, "expires %s\n", exp.Format(time.RFC3339))
}

func mint(cfg *config.Config, email, extra string, ttl time.Duration) (string, time.Time, error) {
	if ttl <= 0 {
		ttl = cfg.JWT.AccessTokenTTL
	}
	iss, err := tokens.NewIssuer(cfg.JWT.Secret, ttl)
	if err != nil {
		return "", time.Time{}, err
	}

	claims := map[string]interface{}{}
	if extra != "" {
		if err := json.Unmarshal([]byte(extra), &claims); err != nil {
			return "", time.Time{}, fmt.Errorf("parse -claims: %w", err)
		}
		if claims == nil {
			return "", time.Time{}, fmt.Errorf("parse -claims: want a JSON object, got %s", extra)
		}
	}
	if email != "" {
		claims["email"] = email
	}

	raw, err := iss.Issue(claims)
	if err != nil {
		return "", time.Time{}, err
	}
	return raw, time.Now().Add(ttl), nil
}
