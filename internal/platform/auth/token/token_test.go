package token_test

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/Overland-East-Bay/ride-booking-api/internal/platform/auth/token"
	"github.com/Overland-East-Bay/ride-booking-api/internal/platform/config"
)

type fakeClock struct{ now time.Time }

func (c *fakeClock) Now() time.Time { return c.now }
func (c *fakeClock) Advance(d time.Duration) {
	c.now = c.now.Add(d)
}

func testConfig() config.TokenConfig {
	return config.TokenConfig{
		Secret: []byte("test-secret-0123456789"),
		Issuer: "test-iss",
		TTL:    24 * time.Hour,
	}
}

func TestService_IssueThenVerify(t *testing.T) {
	t.Parallel()

	clk := &fakeClock{now: time.Unix(1700000000, 0)}
	svc := token.NewWithOptions(testConfig(), clk)

	issued, err := svc.Issue(42, "alice@example.com")
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	if !issued.ExpiresAt.Equal(time.Unix(1700000000, 0).Add(24 * time.Hour)) {
		t.Fatalf("expiresAt=%s", issued.ExpiresAt)
	}

	claims, err := svc.Verify(context.Background(), issued.Token)
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if claims.UserID != 42 || claims.Email != "alice@example.com" {
		t.Fatalf("claims=%+v", claims)
	}
}

func TestService_Verify_Expired(t *testing.T) {
	t.Parallel()

	clk := &fakeClock{now: time.Unix(1700000000, 0)}
	svc := token.NewWithOptions(testConfig(), clk)

	issued, err := svc.Issue(42, "alice@example.com")
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	clk.Advance(24*time.Hour + time.Second)
	if _, err := svc.Verify(context.Background(), issued.Token); !errors.Is(err, token.ErrExpired) {
		t.Fatalf("err=%v, want ErrExpired", err)
	}
}

func TestService_Verify_WrongSecret(t *testing.T) {
	t.Parallel()

	clk := &fakeClock{now: time.Unix(1700000000, 0)}
	issuer := token.NewWithOptions(testConfig(), clk)
	other := testConfig()
	other.Secret = []byte("another-secret-0123456789")
	verifier := token.NewWithOptions(other, clk)

	issued, _ := issuer.Issue(42, "alice@example.com")
	if _, err := verifier.Verify(context.Background(), issued.Token); !errors.Is(err, token.ErrInvalid) {
		t.Fatalf("err=%v, want ErrInvalid", err)
	}
}

func TestService_Verify_RejectsMalformedAndForeignTokens(t *testing.T) {
	t.Parallel()

	clk := &fakeClock{now: time.Unix(1700000000, 0)}
	cfg := testConfig()
	svc := token.NewWithOptions(cfg, clk)

	now := clk.Now()
	claims := func(mut func(*token.Claims)) *token.Claims {
		c := &token.Claims{
			UserID: 7,
			RegisteredClaims: jwt.RegisteredClaims{
				Issuer:    cfg.Issuer,
				IssuedAt:  jwt.NewNumericDate(now),
				ExpiresAt: jwt.NewNumericDate(now.Add(time.Hour)),
			},
		}
		if mut != nil {
			mut(c)
		}
		return c
	}
	sign := func(m jwt.SigningMethod, c *token.Claims, key any) string {
		s, err := jwt.NewWithClaims(m, c).SignedString(key)
		if err != nil {
			t.Fatalf("sign: %v", err)
		}
		return s
	}

	cases := []struct {
		name string
		raw  string
	}{
		{name: "empty", raw: ""},
		{name: "garbage", raw: "not-a-jwt"},
		{name: "two parts", raw: "a.b"},
		{name: "alg none", raw: sign(jwt.SigningMethodNone, claims(nil), jwt.UnsafeAllowNoneSignatureType)},
		{name: "wrong algorithm", raw: sign(jwt.SigningMethodHS512, claims(nil), cfg.Secret)},
		{name: "wrong issuer", raw: sign(jwt.SigningMethodHS256, claims(func(c *token.Claims) { c.Issuer = "other" }), cfg.Secret)},
		{name: "missing exp", raw: sign(jwt.SigningMethodHS256, claims(func(c *token.Claims) { c.ExpiresAt = nil }), cfg.Secret)},
		{name: "missing user", raw: sign(jwt.SigningMethodHS256, claims(func(c *token.Claims) { c.UserID = 0 }), cfg.Secret)},
		{name: "issued in future", raw: sign(jwt.SigningMethodHS256, claims(func(c *token.Claims) { c.IssuedAt = jwt.NewNumericDate(now.Add(time.Hour)) }), cfg.Secret)},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			got, err := svc.Verify(context.Background(), tc.raw)
			if !errors.Is(err, token.ErrInvalid) {
				t.Fatalf("err=%v, want ErrInvalid", err)
			}
			if got.UserID != 0 {
				t.Fatalf("expected zero claims on failure, got %+v", got)
			}
		})
	}
}

func TestService_Verify_TamperedPayload(t *testing.T) {
	t.Parallel()

	clk := &fakeClock{now: time.Unix(1700000000, 0)}
	svc := token.NewWithOptions(testConfig(), clk)
	issued, _ := svc.Issue(42, "alice@example.com")

	parts := strings.Split(issued.Token, ".")
	other, _ := svc.Issue(43, "mallory@example.com")
	forged := parts[0] + "." + strings.Split(other.Token, ".")[1] + "." + parts[2]

	if _, err := svc.Verify(context.Background(), forged); !errors.Is(err, token.ErrInvalid) {
		t.Fatalf("err=%v, want ErrInvalid", err)
	}
}
