package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"

	amqprideevents "github.com/Overland-East-Bay/ride-booking-api/internal/adapters/amqp/rideevents"
	"github.com/Overland-East-Bay/ride-booking-api/internal/adapters/httpapi"
	memidempotency "github.com/Overland-East-Bay/ride-booking-api/internal/adapters/memory/idempotency"
	memriderepo "github.com/Overland-East-Bay/ride-booking-api/internal/adapters/memory/riderepo"
	memuserrepo "github.com/Overland-East-Bay/ride-booking-api/internal/adapters/memory/userrepo"
	postgres "github.com/Overland-East-Bay/ride-booking-api/internal/adapters/postgres"
	pgidempotency "github.com/Overland-East-Bay/ride-booking-api/internal/adapters/postgres/idempotency"
	pgriderepo "github.com/Overland-East-Bay/ride-booking-api/internal/adapters/postgres/riderepo"
	pguserrepo "github.com/Overland-East-Bay/ride-booking-api/internal/adapters/postgres/userrepo"
	redisidempotency "github.com/Overland-East-Bay/ride-booking-api/internal/adapters/redis/idempotency"
	"github.com/Overland-East-Bay/ride-booking-api/internal/app/accounts"
	"github.com/Overland-East-Bay/ride-booking-api/internal/app/authz"
	"github.com/Overland-East-Bay/ride-booking-api/internal/app/rides"
	"github.com/Overland-East-Bay/ride-booking-api/internal/platform/auth/password"
	"github.com/Overland-East-Bay/ride-booking-api/internal/platform/auth/token"
	platformclock "github.com/Overland-East-Bay/ride-booking-api/internal/platform/clock"
	"github.com/Overland-East-Bay/ride-booking-api/internal/platform/config"
	"github.com/Overland-East-Bay/ride-booking-api/internal/platform/logging"
	idempotencyport "github.com/Overland-East-Bay/ride-booking-api/internal/ports/out/idempotency"
	riderepoport "github.com/Overland-East-Bay/ride-booking-api/internal/ports/out/riderepo"
	"github.com/Overland-East-Bay/ride-booking-api/internal/ports/out/rideevents"
	userrepoport "github.com/Overland-East-Bay/ride-booking-api/internal/ports/out/userrepo"
)

func main() {
	// A missing .env is normal outside local dev.
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		fmt.Fprintf(os.Stderr, "load .env: %v\n", err)
		os.Exit(1)
	}

	cfg, err := config.LoadServerConfigFromEnv()
	if err != nil {
		fmt.Fprintf(os.Stderr, "invalid server config: %v\n", err)
		os.Exit(1)
	}
	log, err := logging.NewLogger(cfg.LogLevel, cfg.LogFormat, os.Stdout)
	if err != nil {
		fmt.Fprintf(os.Stderr, "invalid logging config: %v\n", err)
		os.Exit(1)
	}
	slog.SetDefault(log)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.Error("api exited", "err", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg config.ServerConfig, log *slog.Logger) error {
	tokenCfg, err := config.LoadTokenConfigFromEnv()
	if err != nil {
		return fmt.Errorf("invalid auth config: %w", err)
	}
	tokens := token.New(tokenCfg)
	hasher, err := password.NewHasher(cfg.BcryptCost)
	if err != nil {
		return err
	}
	clk := platformclock.NewSystemClock()

	var (
		userRepo  userrepoport.Repository
		rideRepo  riderepoport.Repository
		idemStore idempotencyport.Store
		closers   []io.Closer
	)
	defer func() {
		for i := len(closers) - 1; i >= 0; i-- {
			_ = closers[i].Close()
		}
	}()

	needPool := cfg.StorageBackend == "postgres" || cfg.IdempotencyBackend == "postgres"
	var pool *postgresPool
	if needPool {
		p, err := postgres.NewPool(ctx, cfg.DatabaseURL, postgres.PoolOptions{MaxConns: cfg.DBMaxConns})
		if err != nil {
			return fmt.Errorf("invalid postgres config: %w", err)
		}
		pool = &postgresPool{p}
		closers = append(closers, pool)
		if err := postgres.Migrate(ctx, p); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
		log.Info("postgres ready")
	}

	switch cfg.StorageBackend {
	case "postgres":
		userRepo = pguserrepo.NewRepo(pool.Pool)
		rideRepo = pgriderepo.NewRepo(pool.Pool)
	default:
		users := memuserrepo.NewRepo()
		userRepo = users
		rideRepo = memriderepo.NewRepo(users)
	}

	switch cfg.IdempotencyBackend {
	case "postgres":
		idemStore = pgidempotency.NewStore(pool.Pool, cfg.IdempotencyTTL)
	case "redis":
		rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		closers = append(closers, rdb)
		if err := rdb.Ping(ctx).Err(); err != nil {
			return fmt.Errorf("redis ping: %w", err)
		}
		idemStore = redisidempotency.NewStore(rdb, cfg.IdempotencyTTL)
		log.Info("redis idempotency store ready", "addr", cfg.RedisAddr)
	default:
		idemStore = memidempotency.NewStoreWithTTL(cfg.IdempotencyTTL, clk)
	}

	var events rideevents.Publisher = rideevents.Nop{}
	if cfg.EventsBackend == "amqp" {
		pub, err := amqprideevents.Dial(cfg.AMQPURL, amqprideevents.DefaultExchange)
		if err != nil {
			return fmt.Errorf("amqp: %w", err)
		}
		closers = append(closers, pub)
		events = pub
		log.Info("amqp ride events enabled", "exchange", amqprideevents.DefaultExchange)
	}

	accountsSvc := accounts.NewService(userRepo, hasher, tokens, clk, log)
	ridesSvc := rides.NewService(rideRepo, userRepo, clk, events, log)
	gate := authz.NewGate(tokens, userRepo, log)

	api := httpapi.NewServer(accountsSvc, ridesSvc, idemStore, clk, log)
	handler := httpapi.NewRouter(api, httpapi.RouterOptions{
		AuthMiddleware:     httpapi.NewAuthMiddleware(gate, log),
		Logger:             log,
		CORSAllowedOrigins: cfg.CORSAllowedOrigins,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("api listening", "port", cfg.Port, "storage", cfg.StorageBackend, "idempotency", cfg.IdempotencyBackend, "events", cfg.EventsBackend)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("listen: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
