// Command server starts the TrustLens review analysis API.
//
// Usage:
//
//	go run ./cmd/server [flags]
//
// Flags:
//
//	-port  HTTP port to listen on (overrides PORT)
//	-seed  Path to a history export to import on startup (overrides SEED_FILE)
//
// Every other setting comes from the environment; see internal/config.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"trustlens/review-api/internal/api"
	"trustlens/review-api/internal/cache"
	"trustlens/review-api/internal/catalog"
	"trustlens/review-api/internal/config"
	"trustlens/review-api/internal/domain"
	"trustlens/review-api/internal/events"
	"trustlens/review-api/internal/logger"
	"trustlens/review-api/internal/scoring"
	"trustlens/review-api/internal/store"
	"trustlens/review-api/internal/tracing"
	"trustlens/review-api/internal/webhook"
)

func main() {
	port := flag.Int("port", 0, "HTTP port (overrides PORT)")
	seedFile := flag.String("seed", "", "history export to import on startup (overrides SEED_FILE)")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", slog.String("error", err.Error()))
		os.Exit(1)
	}
	if *port > 0 {
		cfg.Port = *port
	}
	if *seedFile != "" {
		cfg.SeedFile = *seedFile
	}

	log := logger.New(cfg.ServiceName, cfg.LogLevel)
	slog.SetDefault(log)

	if err := run(cfg, log); err != nil {
		log.Error("server error", slog.String("error", err.Error()))
		os.Exit(1)
	}
	log.Info("server stopped")
}

func run(cfg *config.Config, log *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// ── Tracing ───────────────────────────────────────────────────────────────
	tcfg := tracing.DefaultConfig(cfg.ServiceName)
	tcfg.Enabled = cfg.TracingEnabled
	tcfg.OTLPEndpoint = cfg.OTLPEndpoint
	shutdownTracing, err := tracing.Init(ctx, tcfg)
	if err != nil {
		return err
	}
	defer func() {
		sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTracing(sctx); err != nil {
			log.Warn("tracing shutdown error", slog.String("error", err.Error()))
		}
	}()

	// ── Storage ───────────────────────────────────────────────────────────────
	backend, err := openBackend(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer backend.close()

	// ── Events ────────────────────────────────────────────────────────────────
	var publisher events.Publisher = events.Noop{}
	if cfg.KafkaEnabled() {
		publisher = events.NewProducer(events.DefaultProducerConfig(cfg.KafkaBrokers, cfg.KafkaTopic), log)
		log.Info("kafka producer initialized",
			slog.Any("brokers", cfg.KafkaBrokers),
			slog.String("topic", cfg.KafkaTopic),
		)
	}
	defer func() {
		if err := publisher.Close(); err != nil {
			log.Error("kafka producer close error", slog.String("error", err.Error()))
		}
	}()

	// ── Analyzer ──────────────────────────────────────────────────────────────
	cat := catalog.Default()
	if cfg.CatalogFile != "" {
		if cat, err = catalog.LoadFile(cfg.CatalogFile); err != nil {
			return err
		}
		log.Info("catalog loaded", slog.String("file", cfg.CatalogFile), slog.Int("products", cat.Len()))
	}
	analyzer := scoring.NewAnalyzer(cat, scoring.WithConcurrency(cfg.BatchConcurrency))

	// ── Seed data ─────────────────────────────────────────────────────────────
	if cfg.SeedFile != "" {
		if err := loadSeedData(ctx, backend.history, cfg.SeedFile, log); err != nil {
			// The API works fine without seed data.
			log.Warn("seed data not loaded", slog.String("file", cfg.SeedFile), slog.String("reason", err.Error()))
		}
	}

	// ── HTTP ──────────────────────────────────────────────────────────────────
	hooks := store.NewWebhooks()
	notifier := webhook.New(hooks, cfg.WebhookTimeout, log)
	handler := api.NewHandler(api.Deps{
		Analyzer: analyzer,
		History:  backend.history,
		Webhooks: hooks,
		Notifier: notifier,
		Cache:    backend.cache,
		Events:   publisher,
		Logger:   log,
		Service:  cfg.ServiceName,
	})
	router := api.NewRouter(handler, api.RouterConfig{
		RateLimitRPS:   cfg.RateLimitRPS,
		RateLimitBurst: cfg.RateLimitBurst,
	})

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("server listening",
			slog.Int("port", cfg.Port),
			slog.String("store", cfg.StoreBackend),
			slog.String("seed_file", cfg.SeedFile),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		log.Info("shutting down...")
	case err := <-errCh:
		return err
	}

	sctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(sctx); err != nil {
		log.Error("shutdown error", slog.String("error", err.Error()))
	}
	// Let in-flight webhook deliveries finish; each is bounded by its timeout.
	notifier.Wait()
	return nil
}

// ─── Backends ─────────────────────────────────────────────────────────────────

type backend struct {
	history store.HistoryRepository
	cache   cache.Cache
	closers []io.Closer
}

func (b *backend) close() {
	for _, c := range b.closers {
		_ = c.Close()
	}
}

type closeFunc func()

func (f closeFunc) Close() error {
	f()
	return nil
}

// openBackend connects the configured history store. The Redis backend also
// serves as the analysis cache.
func openBackend(ctx context.Context, cfg *config.Config, log *slog.Logger) (*backend, error) {
	b := &backend{cache: cache.Noop{}}

	switch cfg.StoreBackend {
	case config.BackendRedis:
		pctx, cancel := context.WithTimeout(ctx, 10*time.Second)
		defer cancel()

		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		if err := rdb.Ping(pctx).Err(); err != nil {
			_ = rdb.Close()
			return nil, fmt.Errorf("connect to redis: %w", err)
		}
		log.Info("connected to Redis", slog.String("addr", cfg.RedisAddr), slog.Int("db", cfg.RedisDB))

		b.history = store.NewRedisHistory(rdb, cfg.HistoryLimit)
		b.cache = cache.NewRedis(rdb, cfg.CacheTTL)
		b.closers = append(b.closers, rdb)

	case config.BackendPostgres:
		pctx, cancel := context.WithTimeout(ctx, 10*time.Second)
		defer cancel()

		pool, err := pgxpool.New(pctx, cfg.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("create postgres pool: %w", err)
		}
		repo := store.NewPostgresHistory(pool, cfg.HistoryLimit)
		if err := repo.Migrate(pctx); err != nil {
			pool.Close()
			return nil, err
		}
		log.Info("connected to Postgres")

		b.history = repo
		b.closers = append(b.closers, closeFunc(pool.Close))

	default:
		b.history = store.NewMemoryHistory(cfg.HistoryLimit)
	}

	return b, nil
}

// ─── Seed data ────────────────────────────────────────────────────────────────

// loadSeedData imports a history export the same way POST /history/import
// does: seeded records go first, duplicates are dropped, the cap applies.
func loadSeedData(ctx context.Context, repo store.HistoryRepository, filePath string, log *slog.Logger) error {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return err
	}

	var seeded []domain.HistoryRecord
	if err := json.Unmarshal(data, &seeded); err != nil {
		return fmt.Errorf("parse error: %w", err)
	}

	total, err := repo.Import(ctx, seeded)
	if err != nil {
		return err
	}
	log.Info("seed data loaded",
		slog.String("file", filePath),
		slog.Int("records", len(seeded)),
		slog.Int("total", total),
	)
	return nil
}
