package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"galaxyinn/backend/internal/config"
	"galaxyinn/backend/internal/httpapi"
	"galaxyinn/backend/internal/service"
	"galaxyinn/backend/internal/store"
	"galaxyinn/backend/internal/store/memory"
	pgstore "galaxyinn/backend/internal/store/postgres"
	redisstore "galaxyinn/backend/internal/store/redis"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("no .env file, reading configuration from the environment")
	}

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		log.Fatalf("invalid configuration: %v", err)
	}
	if !cfg.AuthRequired {
		log.Println("WARNING: AUTH_REQUIRED is off; every request acts as the admin account")
	}

	log.Printf("reporting day follows %s", cfg.Timezone)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	kv, err := openKV(ctx, cfg)
	if err != nil {
		log.Fatalf("storage unavailable: %v", err)
	}
	repo := store.NewRepository(kv)
	if err := repo.EnsureSeeded(ctx); err != nil {
		log.Fatalf("seed storage: %v", err)
	}

	svc := service.New(repo, service.Options{
		TaxRatePercent: cfg.TaxRatePercent,
		TopN:           cfg.ReportTopN,
		Location:       cfg.Location,
	})
	auth := httpapi.NewAuthManager(cfg.AuthSecret, time.Duration(cfg.AccessTokenTTLMinutes)*time.Minute, cfg.AuthRequired, svc)
	api := httpapi.New(svc, auth, cfg.AllowedOrigin)

	server := &http.Server{
		Addr:              cfg.Address(),
		Handler:           api.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
	log.Printf("Galaxy Inn POS listening on %s", cfg.Address())
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 8*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("shutdown error: %v", err)
	}
	if err := repo.Close(); err != nil {
		log.Printf("close error: %v", err)
	}

	log.Println("server stopped")
}

// openKV connects the configured storage backend. A configured but unreachable
// backend is fatal; the server never silently falls back to memory.
func openKV(ctx context.Context, cfg config.Config) (store.KV, error) {
	switch cfg.StorageBackend {
	case config.BackendPostgres:
		pg, err := pgstore.New(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("postgres: %w", err)
		}
		log.Println("storage: postgres")
		return pg, nil
	case config.BackendRedis:
		rs := redisstore.New(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB, cfg.RedisPrefix)
		if err := rs.Ping(ctx); err != nil {
			_ = rs.Close()
			return nil, fmt.Errorf("redis: %w", err)
		}
		log.Println("storage: redis")
		return rs, nil
	case config.BackendMemory:
		log.Println("storage: in-memory")
		return memory.New(), nil
	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.StorageBackend)
	}
}
