package repl

import (
	"fmt"
	"io"
	"strings"

	"github.com/ibnizhaku/ip.loomora.ch-2.0-sub003/internal/core"
)

func printTimeTypes(out io.Writer, types []core.TimeType) {
	fmt.Fprintln(out)
	fmt.Fprintln(out, strings.Repeat("=", 62))
	fmt.Fprintf(out, "  %-14s %-24s %-8s %s\n", "CODE", "NAME", "PROJECT", "BILLABLE")
	fmt.Fprintln(out, strings.Repeat("-", 62))
	for _, t := range types {
		fmt.Fprintf(out, "  %-14s %-24s %-8s %s\n", t.Code, t.Name, yesNo(t.IsProjectRelevant), yesNo(t.IsBillable))
	}
	fmt.Fprintln(out, strings.Repeat("=", 62))
}

func printMachines(out io.Writer, machines []core.Machine) {
	fmt.Fprintln(out)
	fmt.Fprintln(out, strings.Repeat("=", 62))
	if len(machines) == 0 {
		fmt.Fprintln(out, "  No machines found.")
		fmt.Fprintln(out, strings.Repeat("=", 62))
		return
	}
	fmt.Fprintf(out, "  %-10s %-28s %10s  %s\n", "CODE", "NAME", "CHF/H", "STATUS")
	fmt.Fprintln(out, strings.Repeat("-", 62))
	for _, m := range machines {
		fmt.Fprintf(out, "  %-10s %-28s %10s  %s\n", m.Code, m.Name, m.HourlyRate.StringFixed(2), m.Status)
	}
	fmt.Fprintln(out, strings.Repeat("=", 62))
}

func printProducts(out io.Writer, products []core.Product) {
	fmt.Fprintln(out)
	fmt.Fprintln(out, strings.Repeat("=", 72))
	if len(products) == 0 {
		fmt.Fprintln(out, "  No products found.")
		fmt.Fprintln(out, strings.Repeat("=", 72))
		return
	}
	fmt.Fprintf(out, "  %-10s %-28s %-5s %12s %12s\n", "CODE", "NAME", "UNIT", "PRICE", "STOCK")
	fmt.Fprintln(out, strings.Repeat("-", 72))
	for _, p := range products {
		fmt.Fprintf(out, "  %-10s %-28s %-5s %12s %12s\n",
			p.Code, p.Name, p.Unit, p.PurchasePrice.StringFixed(2), p.StockQuantity.String())
	}
	fmt.Fprintln(out, strings.Repeat("=", 72))
}

func printHelp(out io.Writer) {
	fmt.Fprintln(out)
	fmt.Fprintln(out, "METALLBAU ZEITERFASSUNG — COMMANDS")
	fmt.Fprintln(out, strings.Repeat("=", 62))
	fmt.Fprintln(out)
	fmt.Fprintln(out, "  MASTER DATA")
	fmt.Fprintln(out, "  /types                           List time types")
	fmt.Fprintln(out, "  /machines                        List machines and rates")
	fmt.Fprintln(out, "  /products                        List products and stock")
	fmt.Fprintln(out, "  /projects                        List projects")
	fmt.Fprintln(out)
	fmt.Fprintln(out, "  CONTROLLING")
	fmt.Fprintln(out, "  /controlling <project>           Budget, cost and margin")
	fmt.Fprintln(out, "  /reconcile   <project>           Recompute cost total from ledger")
	fmt.Fprintln(out)
	fmt.Fprintln(out, "  SESSION")
	fmt.Fprintln(out, "  /help                            Show this help")
	fmt.Fprintln(out, "  /exit                            Exit")
	fmt.Fprintln(out)
	fmt.Fprintln(out, "  BOOKING ASSISTANT  (no / prefix)")
	fmt.Fprintln(out, "  Describe the work; a draft is shown and booked only on approval.")
	fmt.Fprintln(out, "  Example: \"4h Montage Baustelle PRJ-2026-00001 am Samstag\"")
	fmt.Fprintln(out, strings.Repeat("=", 62))
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}
