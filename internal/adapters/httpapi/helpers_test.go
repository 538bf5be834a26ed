package httpapi

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"

	memclock "github.com/Overland-East-Bay/ride-booking-api/internal/adapters/memory/clock"
	memidempotency "github.com/Overland-East-Bay/ride-booking-api/internal/adapters/memory/idempotency"
	memrideevents "github.com/Overland-East-Bay/ride-booking-api/internal/adapters/memory/rideevents"
	memriderepo "github.com/Overland-East-Bay/ride-booking-api/internal/adapters/memory/riderepo"
	memuserrepo "github.com/Overland-East-Bay/ride-booking-api/internal/adapters/memory/userrepo"
	"github.com/Overland-East-Bay/ride-booking-api/internal/app/accounts"
	"github.com/Overland-East-Bay/ride-booking-api/internal/app/authz"
	"github.com/Overland-East-Bay/ride-booking-api/internal/app/rides"
	"github.com/Overland-East-Bay/ride-booking-api/internal/platform/auth/password"
	"github.com/Overland-East-Bay/ride-booking-api/internal/platform/auth/token"
	"github.com/Overland-East-Bay/ride-booking-api/internal/platform/config"
	"github.com/Overland-East-Bay/ride-booking-api/internal/platform/logging"
)

type testAPI struct {
	handler http.Handler
	clock   *memclock.ManualClock
	tokens  *token.Service
	events  *memrideevents.Recorder
}

func newTestAPI(t *testing.T) *testAPI {
	t.Helper()

	clk := memclock.NewManualClock(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))
	log := logging.Discard()
	tokens := token.NewWithOptions(config.TokenConfig{
		Secret: []byte("httpapi-test-secret-0123456789"),
		TTL:    config.DefaultTokenTTL,
	}, clk)
	hasher, err := password.NewHasher(bcrypt.MinCost)
	if err != nil {
		t.Fatalf("NewHasher: %v", err)
	}

	users := memuserrepo.NewRepo()
	events := memrideevents.NewRecorder()
	accountsSvc := accounts.NewService(users, hasher, tokens, clk, log)
	ridesSvc := rides.NewService(memriderepo.NewRepo(users), users, clk, events, log)
	api := NewServer(accountsSvc, ridesSvc, memidempotency.NewStore(), clk, log)

	h := NewRouter(api, RouterOptions{
		AuthMiddleware: NewAuthMiddleware(authz.NewGate(tokens, users, log), log),
		Logger:         log,
	})
	return &testAPI{handler: h, clock: clk, tokens: tokens, events: events}
}

func (a *testAPI) do(t *testing.T, method, path, bearer string, body any, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	switch b := body.(type) {
	case nil:
	case string:
		buf.WriteString(b)
	default:
		if err := json.NewEncoder(&buf).Encode(b); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rr := httptest.NewRecorder()
	a.handler.ServeHTTP(rr, req)
	return rr
}

// register creates a rider and returns its access token.
func (a *testAPI) register(t *testing.T, email string) string {
	t.Helper()
	rr := a.do(t, http.MethodPost, "/users/register", "", map[string]string{
		"first_name":   "Ada",
		"last_name":    "Lovelace",
		"email":        email,
		"password":     "secret123",
		"phone_number": "+15551234567",
	}, nil)
	if rr.Code != http.StatusCreated {
		t.Fatalf("register status=%d body=%s", rr.Code, rr.Body.String())
	}
	resp := decodeBody[registerResponse](t, rr)
	if resp.AccessToken == "" {
		t.Fatalf("expected access_token, body=%s", rr.Body.String())
	}
	return resp.AccessToken
}

func (a *testAPI) createRide(t *testing.T, bearer, pickup, dropoff, class string) rideResponse {
	t.Helper()
	rr := a.do(t, http.MethodPost, "/rides", bearer, map[string]string{
		"pickup_location":  pickup,
		"dropoff_location": dropoff,
		"car_type":         class,
	}, nil)
	if rr.Code != http.StatusCreated {
		t.Fatalf("create ride status=%d body=%s", rr.Code, rr.Body.String())
	}
	return decodeBody[rideResponse](t, rr)
}

func decodeBody[T any](t *testing.T, rr *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	if err := json.Unmarshal(rr.Body.Bytes(), &out); err != nil {
		t.Fatalf("unmarshal: %v\nbody=%s", err, rr.Body.String())
	}
	return out
}

type errorEnvelope struct {
	Error struct {
		Code      string         `json:"code"`
		Message   string         `json:"message"`
		Details   map[string]any `json:"details"`
		RequestId string         `json:"requestId"`
	} `json:"error"`
}

func requireError(t *testing.T, rr *httptest.ResponseRecorder, wantStatus int, wantCode string) errorEnvelope {
	t.Helper()
	if rr.Code != wantStatus {
		t.Fatalf("status=%d want=%d body=%s", rr.Code, wantStatus, rr.Body.String())
	}
	env := decodeBody[errorEnvelope](t, rr)
	if env.Error.Code != wantCode {
		t.Fatalf("error.code=%q want=%q body=%s", env.Error.Code, wantCode, rr.Body.String())
	}
	return env
}
