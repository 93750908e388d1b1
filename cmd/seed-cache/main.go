package main

import (
	"flag"
	"fmt"
	"io"
	"log"
	"os"

	"github.com/evyataryagoni/iptracker/internal/app"
	"github.com/evyataryagoni/iptracker/internal/config"
)

// This tool pre-warms the result cache from a CSV file
// Usage: go run ./cmd/seed-cache -file data/seed.csv
//
// CSV Format: query,ip,city,region,country,postal_code,timezone,lat,lng,isp
func main() {
	csvPath := flag.String("file", "./data/seed.csv", "CSV file with lookup results")
	flag.Parse()

	fmt.Println("🔄 Seeding the result cache...")

	appConfig := config.Load()
	if err := run(appConfig, *csvPath, os.Stdout); err != nil {
		log.Fatal(err)
	}
}

// run returns instead of exiting so the datastore is always closed
func run(appConfig *config.Config, csvPath string, out io.Writer) error {
	core, err := app.New(appConfig, app.NewLogger(appConfig))
	if err != nil {
		return fmt.Errorf("failed to initialize: %w", err)
	}
	defer core.Close()

	fmt.Fprintf(out, "📦 Using %s datastore\n", core.StoreName)

	fmt.Fprintf(out, "📁 Loading results from %s...\n", csvPath)
	count, err := core.Cache.ImportCSVFile(csvPath)
	if err != nil {
		return fmt.Errorf("failed to load CSV data: %w", err)
	}

	fmt.Fprintf(out, "✅ Imported %d results (%d cached in total)\n", count, core.Cache.Len())
	return nil
}
