package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/joho/godotenv"
	"github.com/mattn/go-isatty"

	"github.com/ibnizhaku/ip.loomora.ch-2.0-sub003/internal/adapters/cli"
	"github.com/ibnizhaku/ip.loomora.ch-2.0-sub003/internal/adapters/repl"
	"github.com/ibnizhaku/ip.loomora.ch-2.0-sub003/internal/ai"
	"github.com/ibnizhaku/ip.loomora.ch-2.0-sub003/internal/app"
	"github.com/ibnizhaku/ip.loomora.ch-2.0-sub003/internal/config"
	"github.com/ibnizhaku/ip.loomora.ch-2.0-sub003/internal/core"
	"github.com/ibnizhaku/ip.loomora.ch-2.0-sub003/internal/db"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	logger := cfg.NewLogger()

	ctx := context.Background()
	pool, err := db.NewPool(ctx, cfg.DatabaseURL, db.WithApplicationName("metallbau-cli"))
	if err != nil {
		log.Fatalf("Unable to connect to database: %v", err)
	}
	defer pool.Close()

	table, err := config.LoadRateTable(cfg.RateTableFile)
	if err != nil {
		log.Fatalf("rate table: %v", err)
	}

	var agent ai.BookingInterpreter
	if cfg.OpenAIAPIKey != "" {
		agent = ai.NewAgent(cfg.OpenAIAPIKey)
	}

	svc := app.NewAppService(app.NewServices(pool, table), agent, cfg.CompanyCode, logger)

	color := isatty.IsTerminal(os.Stdout.Fd()) || isatty.IsCygwinTerminal(os.Stdout.Fd())
	a := &cli.App{
		Svc:   svc,
		In:    os.Stdin,
		Out:   os.Stdout,
		Color: color,
	}
	a.Interactive = func(ctx context.Context, company *core.Company) error {
		return repl.Run(ctx, svc, company, os.Stdin, os.Stdout, cli.NewRenderer(color))
	}

	if err := cli.NewRootCmd(a).ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
