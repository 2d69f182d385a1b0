/*
main.go - Batch analysis runner

PURPOSE:
  Runs one switching analysis from the command line against a SQLite
  database and prints the flow table, movement summary, and executive KPIs.
  Useful for scripted reporting and for sanity-checking a dataset without
  the HTTP server.

COMMAND-LINE FLAGS:
  -db          SQLite database path (required)
  -mode        Grouping mode: brand, product, category, custom (default brand)
  -category    Catalog category to analyze
  -p1, -p2     Period date ranges as "YYYY-MM-DD:YYYY-MM-DD"
  -brands      Comma-separated brand filter
  -threshold   Primary-share threshold (default 0.60)
  -mapping     Path to a barcode,label mapping file (custom mode)
  -top         Number of top flows to print (default 10)

EXAMPLE:
  ./analyze -db=./switching.db -category="Skin Care" \
      -p1=2024-01-01:2024-03-31 -p2=2025-01-01:2025-03-31
*/
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/schollz/progressbar/v3"
	"github.com/shopspring/decimal"
	"github.com/warp/switching-engine/flow"
	"github.com/warp/switching-engine/store/sqlite"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lmicroseconds)

	dbPath := flag.String("db", "", "SQLite database path")
	mode := flag.String("mode", "brand", "Grouping mode (brand, product, category, custom)")
	category := flag.String("category", "", "Catalog category to analyze")
	p1 := flag.String("p1", "", "Period 1 as YYYY-MM-DD:YYYY-MM-DD")
	p2 := flag.String("p2", "", "Period 2 as YYYY-MM-DD:YYYY-MM-DD")
	brands := flag.String("brands", "", "Comma-separated brand filter")
	threshold := flag.Float64("threshold", 0.60, "Primary-share threshold")
	mappingPath := flag.String("mapping", "", "Barcode mapping file (custom mode)")
	top := flag.Int("top", 10, "Number of top flows to print")
	flag.Parse()

	if *dbPath == "" || *p1 == "" || *p2 == "" {
		log.Fatalf("Usage: analyze -db=PATH -p1=START:END -p2=START:END [-category=...] [-mode=...]")
	}

	spec := flow.AnalysisSpec{
		Mode:      flow.GroupingMode(*mode),
		Category:  *category,
		Threshold: decimal.NewFromFloat(*threshold),
	}

	var err error
	if spec.Periods.Before, err = parsePeriod(*p1); err != nil {
		log.Fatalf("invalid -p1: %v", err)
	}
	if spec.Periods.After, err = parsePeriod(*p2); err != nil {
		log.Fatalf("invalid -p2: %v", err)
	}
	for _, b := range strings.Split(*brands, ",") {
		if b = strings.TrimSpace(b); b != "" {
			spec.Brands = append(spec.Brands, b)
		}
	}
	if *mappingPath != "" {
		text, err := os.ReadFile(*mappingPath)
		if err != nil {
			log.Fatalf("read mapping: %v", err)
		}
		spec.Mapping = flow.ParseMapping(string(text))
	}

	store, err := sqlite.New(*dbPath)
	if err != nil {
		log.Fatalf("open db: %v", err)
	}
	defer store.Close()

	// Progress over the resolve step, the only expensive stage.
	var bar *progressbar.ProgressBar
	progress := func(done, total int) {
		if bar == nil {
			bar = progressbar.Default(int64(total), "resolving customers")
		}
		bar.Set(done)
	}

	ctx := context.Background()
	result, err := flow.Run(ctx, store, spec, flow.WithProgress(progress))
	if err != nil {
		log.Fatalf("analysis failed: %v", err)
	}
	if bar != nil {
		bar.Finish()
	}
	for _, warning := range result.Warnings {
		log.Printf("[WARN] %s", warning)
	}

	printReport(result, *top)
}

func parsePeriod(s string) (flow.Period, error) {
	parts := strings.SplitN(s, ":", 2)
	if len(parts) != 2 {
		return flow.Period{}, fmt.Errorf("expected START:END, got %q", s)
	}
	start, err := flow.ParseDate(parts[0])
	if err != nil {
		return flow.Period{}, err
	}
	end, err := flow.ParseDate(parts[1])
	if err != nil {
		return flow.Period{}, err
	}
	return flow.Period{Start: start, End: end}, nil
}

func printReport(result *flow.Result, top int) {
	fmt.Printf("\nCustomers observed: %d\n", result.Customers)

	fmt.Printf("\nTop %d flows:\n", top)
	for _, f := range flow.TopFlows(result.Table, top) {
		fmt.Printf("  %-30s -> %-30s %-20s %8d\n", f.From, f.To, f.Type, f.Customers)
	}

	summaries := flow.Summaries(result.Table)
	fmt.Println("\nMovement summary:")
	fmt.Printf("  %-25s %8s %8s %8s %8s %8s %8s %8s\n",
		"Entity", "P1", "Stayed", "Out", "Gone", "In", "New", "Net")
	for _, s := range summaries {
		fmt.Printf("  %-25s %8d %8d %8d %8d %8d %8d %+8d\n",
			s.Entity, s.Period1Total, s.Stayed, s.SwitchOut, s.Gone, s.SwitchIn, s.NewCustomer, s.NetMovement)
	}

	if k := flow.KPIs(summaries); k != nil {
		fmt.Println("\nExecutive KPIs:")
		fmt.Printf("  Total movement:  %d\n", k.TotalMovement)
		fmt.Printf("  Winner:          %s (%+d)\n", k.WinnerName, k.WinnerNet)
		fmt.Printf("  Loser:           %s (%+d)\n", k.LoserName, k.LoserNet)
		fmt.Printf("  Churn rate:      %s%%\n", k.ChurnRate.String())
		fmt.Printf("  Net category:    %+d\n", k.NetCategoryMovement)
	}
}
