package itest

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/Overland-East-Bay/ride-booking-api/internal/adapters/httpapi"
	memclock "github.com/Overland-East-Bay/ride-booking-api/internal/adapters/memory/clock"
	memidempotency "github.com/Overland-East-Bay/ride-booking-api/internal/adapters/memory/idempotency"
	memriderepo "github.com/Overland-East-Bay/ride-booking-api/internal/adapters/memory/riderepo"
	memuserrepo "github.com/Overland-East-Bay/ride-booking-api/internal/adapters/memory/userrepo"
	pgidempotency "github.com/Overland-East-Bay/ride-booking-api/internal/adapters/postgres/idempotency"
	pgriderepo "github.com/Overland-East-Bay/ride-booking-api/internal/adapters/postgres/riderepo"
	postgres_testutil "github.com/Overland-East-Bay/ride-booking-api/internal/adapters/postgres/testutil"
	pguserrepo "github.com/Overland-East-Bay/ride-booking-api/internal/adapters/postgres/userrepo"
	"github.com/Overland-East-Bay/ride-booking-api/internal/app/accounts"
	"github.com/Overland-East-Bay/ride-booking-api/internal/app/authz"
	"github.com/Overland-East-Bay/ride-booking-api/internal/app/rides"
	"github.com/Overland-East-Bay/ride-booking-api/internal/platform/auth/password"
	"github.com/Overland-East-Bay/ride-booking-api/internal/platform/auth/token"
	"github.com/Overland-East-Bay/ride-booking-api/internal/platform/config"
	"github.com/Overland-East-Bay/ride-booking-api/internal/platform/logging"
	idempotencyport "github.com/Overland-East-Bay/ride-booking-api/internal/ports/out/idempotency"
	riderepoport "github.com/Overland-East-Bay/ride-booking-api/internal/ports/out/riderepo"
	"github.com/Overland-East-Bay/ride-booking-api/internal/ports/out/rideevents"
	userrepoport "github.com/Overland-East-Bay/ride-booking-api/internal/ports/out/userrepo"
)

type backend string

const (
	backendMemory   backend = "memory"
	backendPostgres backend = "postgres"
)

func backendsFromEnv(t *testing.T) []backend {
	t.Helper()
	switch strings.ToLower(strings.TrimSpace(os.Getenv("ITEST_BACKEND"))) {
	case "", "memory":
		return []backend{backendMemory}
	case "postgres":
		return []backend{backendPostgres}
	case "all":
		return []backend{backendMemory, backendPostgres}
	default:
		t.Fatalf("unknown ITEST_BACKEND value (expected memory|postgres|all)")
		return nil
	}
}

type testServer struct {
	baseURL string
	client  *http.Client
}

func newTestServer(t *testing.T, b backend) *testServer {
	t.Helper()

	clk := memclock.NewManualClock(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))
	log := logging.Discard()

	var (
		userRepo  userrepoport.Repository
		rideRepo  riderepoport.Repository
		idemStore idempotencyport.Store
	)

	switch b {
	case backendPostgres:
		pool := postgres_testutil.OpenMigratedPool(t)
		userRepo = pguserrepo.NewRepo(pool)
		rideRepo = pgriderepo.NewRepo(pool)
		idemStore = pgidempotency.NewStore(pool, config.DefaultIdempotencyTTL)
	case backendMemory:
		users := memuserrepo.NewRepo()
		userRepo = users
		rideRepo = memriderepo.NewRepo(users)
		idemStore = memidempotency.NewStore()
	default:
		t.Fatalf("unknown backend: %s", b)
	}

	tokens := token.NewWithOptions(config.TokenConfig{
		Secret: []byte("itest-secret-0123456789abcdef"),
		TTL:    config.DefaultTokenTTL,
	}, clk)
	hasher, err := password.NewHasher(bcrypt.MinCost)
	if err != nil {
		t.Fatalf("NewHasher: %v", err)
	}

	accountsSvc := accounts.NewService(userRepo, hasher, tokens, clk, log)
	ridesSvc := rides.NewService(rideRepo, userRepo, clk, rideevents.Nop{}, log)
	api := httpapi.NewServer(accountsSvc, ridesSvc, idemStore, clk, log)
	handler := httpapi.NewRouter(api, httpapi.RouterOptions{
		AuthMiddleware: httpapi.NewAuthMiddleware(authz.NewGate(tokens, userRepo, log), log),
		Logger:         log,
	})

	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	return &testServer{
		baseURL: srv.URL,
		client:  srv.Client(),
	}
}

func (s *testServer) url(path string) string {
	if strings.HasPrefix(path, "/") {
		return s.baseURL + path
	}
	return s.baseURL + "/" + path
}

func (s *testServer) doJSON(t *testing.T, method string, path string, bearer string, body any) (int, []byte, http.Header) {
	t.Helper()

	var r io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		r = bytes.NewReader(b)
	}
	req, err := http.NewRequest(method, s.url(path), r)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		t.Fatalf("do request: %v", err)
	}
	defer resp.Body.Close()
	out, _ := io.ReadAll(resp.Body)
	return resp.StatusCode, out, resp.Header
}

// rawPatch is safe to call from goroutines; transport failures are reported as status 0.
func (s *testServer) rawPatch(path, bearer, body string) int {
	req, err := http.NewRequest(http.MethodPatch, s.url(path), strings.NewReader(body))
	if err != nil {
		return 0
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+bearer)
	resp, err := s.client.Do(req)
	if err != nil {
		return 0
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)
	return resp.StatusCode
}

type errorResponse struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func mustUnmarshal[T any](t *testing.T, b []byte) T {
	t.Helper()
	var out T
	if err := json.Unmarshal(b, &out); err != nil {
		t.Fatalf("unmarshal: %v\nbody=%s", err, string(b))
	}
	return out
}

func requireErrorCode(t *testing.T, status int, body []byte, wantStatus int, wantCode string) {
	t.Helper()
	if status != wantStatus {
		t.Fatalf("status=%d want=%d body=%s", status, wantStatus, string(body))
	}
	got := mustUnmarshal[errorResponse](t, body)
	if got.Error.Code != wantCode {
		t.Fatalf("error.code=%q want=%q body=%s", got.Error.Code, wantCode, string(body))
	}
}

func requireHeaderPresent(t *testing.T, h http.Header, key string) {
	t.Helper()
	if strings.TrimSpace(h.Get(key)) == "" {
		t.Fatalf("expected header %q to be present", key)
	}
}
