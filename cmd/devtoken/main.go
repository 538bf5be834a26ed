package main

import (
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"

	"github.com/Overland-East-Bay/ride-booking-api/internal/domain"
	"github.com/Overland-East-Bay/ride-booking-api/internal/platform/auth/token"
	"github.com/Overland-East-Bay/ride-booking-api/internal/platform/config"
)

// devtoken mints an access token for local development, signed with the
// same JWT_SECRET the API verifies with.
//
//	go run ./cmd/devtoken -user 1 -email rider@example.com
func main() {
	userID := flag.Int64("user", 0, "user id to put in the user_id claim (required)")
	email := flag.String("email", "", "email claim")
	ttl := flag.Duration("ttl", 0, "token lifetime (default JWT_TTL or 24h)")
	asJSON := flag.Bool("json", false, "print token and expiry as JSON")
	flag.Parse()

	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		fail("load .env: %v", err)
	}
	if *userID <= 0 {
		fail("-user must be a positive user id")
	}

	cfg, err := config.LoadTokenConfigFromEnv()
	if err != nil {
		fail("invalid auth config: %v", err)
	}
	if *ttl > 0 {
		cfg.TTL = *ttl
	}

	issued, err := token.New(cfg).Issue(domain.UserID(*userID), *email)
	if err != nil {
		fail("issue token: %v", err)
	}

	if *asJSON {
		_ = json.NewEncoder(os.Stdout).Encode(map[string]string{
			"access_token": issued.Token,
			"expires_at":   issued.ExpiresAt.UTC().Format(time.RFC3339),
		})
		return
	}
	fmt.Println(issued.Token)
}

func fail(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "devtoken: "+format+"\n", args...)
	os.Exit(2)
}
