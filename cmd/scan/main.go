package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"

	"rehook/internal/engine/report"
	"rehook/internal/engine/scan"
	"rehook/internal/pkg/logger"
	"rehook/internal/platform/config"
	"rehook/internal/platform/models"
)

func main() {
	configPath := flag.String("config", "configs/config.yaml", "Path to config file")
	root := flag.String("root", "", "Scan root, overrides the configured one")
	jsonOut := flag.Bool("json", false, "Emit the scan report as JSON to stdout")
	flag.Parse()

	// Load .env if present, then the real environment
	godotenv.Load()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if *root != "" {
		cfg.Scan.Root = *root
	}
	if err := cfg.ValidateScan(); err != nil {
		log.Fatalf("Invalid config: %v", err)
	}

	logger.Init(cfg.Logging)

	scanner := scan.NewScanner(cfg.Scan.Root, cfg.Scan.Extensions, cfg.Scan.ExcludeDirs)

	// Progress goes to stderr so -json output stays parseable.
	result, err := scanner.Scan(func(msg string) { fmt.Fprintln(os.Stderr, msg) })
	if err != nil {
		log.Fatalf("Scan failed: %v", err)
	}

	if *jsonOut {
		doc := report.Build("dry_"+uuid.New().String(), time.Now(), result.Stats,
			nil, recordsFromScan(result.Resources), result.Locations)

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(doc); err != nil {
			log.Fatalf("Failed to encode report: %v", err)
		}
		return
	}

	fmt.Printf("Scanned %s\n\n", cfg.Scan.Root)
	fmt.Printf("Files scanned:       %d\n", result.Stats.FilesScanned)
	fmt.Printf("Files with webhooks: %d\n", result.Stats.FilesWithWebhooks)
	fmt.Printf("Resources found:     %d\n", result.Stats.ResourcesFound)
	fmt.Printf("Total webhooks:      %d\n", result.Stats.TotalWebhooks)

	for _, res := range result.Resources {
		fmt.Printf("\n[%s]\n", res.Name)
		for _, url := range res.URLs {
			fmt.Printf("  %s\n", url)
			for _, file := range result.Locations[url] {
				fmt.Printf("    %s\n", file)
			}
		}
	}

	if len(result.Warnings) > 0 {
		fmt.Printf("\nWarnings (%d):\n", len(result.Warnings))
		for _, w := range result.Warnings {
			fmt.Printf("  %s: %s\n", w.Item, w.Reason)
		}
	}
}

// recordsFromScan builds mapping records for a scan that never provisions,
// so the JSON report has the same shape as a real run with new_url left empty.
func recordsFromScan(resources []models.ResourceGroup) []models.WebhookRecord {
	var records []models.WebhookRecord
	for _, res := range resources {
		for _, url := range res.URLs {
			records = append(records, models.WebhookRecord{OldURL: url, Resource: res.Name})
		}
	}
	return records
}
