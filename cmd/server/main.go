package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	webAdapter "github.com/ibnizhaku/ip.loomora.ch-2.0-sub003/internal/adapters/web"
	"github.com/ibnizhaku/ip.loomora.ch-2.0-sub003/internal/ai"
	"github.com/ibnizhaku/ip.loomora.ch-2.0-sub003/internal/app"
	"github.com/ibnizhaku/ip.loomora.ch-2.0-sub003/internal/config"
	"github.com/ibnizhaku/ip.loomora.ch-2.0-sub003/internal/db"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	if cfg.JWTSecret == "" {
		log.Fatal("config: JWT_SECRET is not set")
	}
	logger := cfg.NewLogger()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pool, err := db.NewPool(ctx, cfg.DatabaseURL, db.WithApplicationName("metallbau-server"), db.WithMaxConns(cfg.DBMaxConns))
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer pool.Close()

	if err := db.Migrate(ctx, pool); err != nil {
		log.Fatalf("migrate: %v", err)
	}

	table, err := config.LoadRateTable(cfg.RateTableFile)
	if err != nil {
		log.Fatalf("rate table: %v", err)
	}

	var agent ai.BookingInterpreter
	if cfg.OpenAIAPIKey != "" {
		agent = ai.NewAgent(cfg.OpenAIAPIKey)
	} else {
		logger.Warn("OPENAI_API_KEY is not set, booking assistant disabled")
	}

	svc := app.NewAppService(app.NewServices(pool, table), agent, cfg.CompanyCode, logger)

	srv := &http.Server{
		Addr:              ":" + cfg.ServerPort,
		Handler:           webAdapter.NewHandler(svc, cfg.AllowedOrigins, cfg.JWTSecret, logger),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	logger.Info("server starting", "port", cfg.ServerPort, "rate_table", table.Version)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatalf("server: %v", err)
	}
	logger.Info("server stopped")
}
