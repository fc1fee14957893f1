// verify-agent sends one work report to the booking assistant and prints the
// draft. It never writes to the database.
//
// Usage: go run ./cmd/verify-agent ["report text"]
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/joho/godotenv"

	"github.com/ibnizhaku/ip.loomora.ch-2.0-sub003/internal/ai"
)

const bookingContext = `Today: 2026-03-16 (Monday)

Time types:
- PROJEKT: Projektarbeit (needs project)
- MONTAGE: Montage (needs project)
- WERKSTATT: Werkstatt (needs project)
- ADMIN: Administration (no project)

Open projects:
- PRJ-2026-00001: Geländer Schulhaus (Gemeinde Muster)

Surcharges:
- MONTAGE (percent 15)
- NACHT (percent 25)
- SAMSTAG (percent 25)
- SONNTAG (percent 50)
- FEIERTAG (percent 100)
- HOEHE (flat 3)
- SCHMUTZ (flat 2)
`

func main() {
	_ = godotenv.Load()

	apiKey := os.Getenv("OPENAI_API_KEY")
	if apiKey == "" {
		log.Fatal("OPENAI_API_KEY not set")
	}

	report := "Samstag 4 Stunden Montage auf der Baustelle Schulhaus, Arbeit in der Höhe."
	if len(os.Args) > 1 {
		report = strings.Join(os.Args[1:], " ")
	}

	fmt.Printf("INTERPRETING REPORT: %s\n", report)
	draft, err := ai.NewAgent(apiKey).InterpretBooking(context.Background(), report, bookingContext)
	if err != nil {
		log.Fatalf("Error: %v", err)
	}

	fmt.Println("\n--- DRAFT ---")
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	_ = enc.Encode(draft)
}
