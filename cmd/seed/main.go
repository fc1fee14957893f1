// seed creates a company with an admin login, the default time type catalog,
// and a starter set of machines and products. Safe to run repeatedly.
//
// Usage: SEED_ADMIN_PASSWORD=... go run ./cmd/seed
package main

import (
	"context"
	"errors"
	"log"
	"os"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"

	"github.com/ibnizhaku/ip.loomora.ch-2.0-sub003/internal/app"
	"github.com/ibnizhaku/ip.loomora.ch-2.0-sub003/internal/config"
	"github.com/ibnizhaku/ip.loomora.ch-2.0-sub003/internal/core"
	"github.com/ibnizhaku/ip.loomora.ch-2.0-sub003/internal/db"
)

var machines = []core.MachineInput{
	{Code: "LASER1", Name: "Laserschneidanlage", HourlyRate: decimal.NewFromInt(180)},
	{Code: "KANT1", Name: "Abkantpresse", HourlyRate: decimal.NewFromInt(95)},
	{Code: "SCHW1", Name: "MIG/MAG Schweissplatz", HourlyRate: decimal.NewFromInt(45)},
	{Code: "SAEGE1", Name: "Bandsäge", HourlyRate: decimal.NewFromInt(35)},
}

var products = []core.ProductInput{
	{Code: "RR-40x40", Name: "Rechteckrohr 40x40x3 S235", Unit: "M", PurchasePrice: decimal.RequireFromString("8.40"), StockQuantity: decimal.NewFromInt(120)},
	{Code: "FL-50x5", Name: "Flachstahl 50x5 S235", Unit: "M", PurchasePrice: decimal.RequireFromString("4.15"), StockQuantity: decimal.NewFromInt(200)},
	{Code: "BL-3", Name: "Blech 3mm 1500x3000", Unit: "STK", PurchasePrice: decimal.RequireFromString("142.00"), StockQuantity: decimal.NewFromInt(12)},
	{Code: "SCHR-M10", Name: "Sechskantschraube M10x40 verzinkt", Unit: "STK", PurchasePrice: decimal.RequireFromString("0.18"), StockQuantity: decimal.NewFromInt(2000)},
}

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	password := os.Getenv("SEED_ADMIN_PASSWORD")
	if password == "" {
		log.Fatal("SEED_ADMIN_PASSWORD is not set")
	}
	code := cfg.CompanyCode
	if code == "" {
		code = "MB01"
	}

	ctx := context.Background()
	pool, err := db.NewPool(ctx, cfg.DatabaseURL, db.WithApplicationName("metallbau-seed"))
	if err != nil {
		log.Fatalf("Failed to connect: %v", err)
	}
	defer pool.Close()

	if err := db.Migrate(ctx, pool); err != nil {
		log.Fatalf("Failed to migrate: %v", err)
	}

	log.Println("Restoring company...")
	var companyID int
	err = pool.QueryRow(ctx, `
		INSERT INTO companies (company_code, name, base_currency)
		VALUES ($1, 'Metallbau Muster AG', 'CHF')
		ON CONFLICT (company_code) DO UPDATE SET name = EXCLUDED.name
		RETURNING id`, code).Scan(&companyID)
	if err != nil {
		log.Fatalf("Failed to restore company: %v", err)
	}

	svc := app.NewServices(pool, core.DefaultRateTable())

	log.Println("Restoring admin user...")
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		log.Fatalf("Failed to hash password: %v", err)
	}
	if _, err := svc.Users.CreateUser(ctx, companyID, "admin", "admin@example.ch", string(hash), core.RoleAdmin); err != nil {
		log.Fatalf("Failed to create admin: %v", err)
	}

	log.Println("Restoring time types...")
	n, err := svc.Time.SeedDefaultTimeTypes(ctx, companyID)
	if err != nil {
		log.Fatalf("Failed to seed time types: %v", err)
	}
	log.Printf("  %d created", n)

	log.Println("Restoring machines...")
	for _, m := range machines {
		if _, err := svc.Machines.CreateMachine(ctx, companyID, m); err != nil && !errors.Is(err, core.ErrInvalidRequest) {
			log.Fatalf("Failed to create machine %s: %v", m.Code, err)
		}
	}

	log.Println("Restoring products...")
	for _, p := range products {
		if _, err := svc.Materials.CreateProduct(ctx, companyID, p); err != nil && !errors.Is(err, core.ErrInvalidRequest) {
			log.Fatalf("Failed to create product %s: %v", p.Code, err)
		}
	}

	log.Printf("Seed data restored for company %s.", code)
}
