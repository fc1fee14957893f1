// verify-db applies pending migrations and prints the applied versions.
//
// Usage: go run ./cmd/verify-db
package main

import (
	"context"
	"log"
	"time"

	"github.com/joho/godotenv"

	"github.com/ibnizhaku/ip.loomora.ch-2.0-sub003/internal/config"
	"github.com/ibnizhaku/ip.loomora.ch-2.0-sub003/internal/db"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("[CONFIG] %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	pool, err := db.NewPool(ctx, cfg.DatabaseURL, db.WithApplicationName("metallbau-verify-db"))
	if err != nil {
		log.Fatalf("[CONNECT] %v", err)
	}
	defer pool.Close()
	log.Println("[CONNECT] success")

	if err := db.Migrate(ctx, pool); err != nil {
		log.Fatalf("[MIGRATE] %v", err)
	}

	rows, err := pool.Query(ctx, "SELECT version, applied_at FROM schema_migrations ORDER BY version")
	if err != nil {
		log.Fatalf("[VERIFY] %v", err)
	}
	defer rows.Close()
	for rows.Next() {
		var version string
		var appliedAt time.Time
		if err := rows.Scan(&version, &appliedAt); err != nil {
			log.Fatalf("[VERIFY] %v", err)
		}
		log.Printf("[APPLIED] %s at %s", version, appliedAt.Format(time.RFC3339))
	}
	if err := rows.Err(); err != nil {
		log.Fatalf("[VERIFY] %v", err)
	}

	log.Println("[DONE] All migrations processed.")
}
