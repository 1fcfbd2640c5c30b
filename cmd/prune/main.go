package main

import (
	"flag"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"

	"rehook/internal/pkg/logger"
	"rehook/internal/platform/config"
	"rehook/internal/platform/database"
	"rehook/internal/platform/repositories"
)

const stampLayout = "20060102_150405"

func main() {
	configPath := flag.String("config", "configs/config.yaml", "Path to config file")
	keep := flag.Duration("keep", 720*time.Hour, "Retention window for backups, reports and run history")
	interval := flag.Duration("interval", 0, "Rerun on this interval; 0 runs once and exits")
	flag.Parse()

	// Load .env if present, then the real environment
	godotenv.Load()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger.Init(cfg.Logging)

	db, err := database.Open(cfg.Store)
	if err != nil {
		log.Fatalf("Failed to open run store: %v", err)
	}
	defer db.Close()

	if err := database.Bootstrap(db); err != nil {
		log.Fatalf("Failed to bootstrap run store: %v", err)
	}

	repo := repositories.NewRunRepository(db)

	pruneOnce(cfg, repo, *keep)

	if *interval <= 0 {
		return
	}

	ticker := time.NewTicker(*interval)
	defer ticker.Stop()

	for range ticker.C {
		pruneOnce(cfg, repo, *keep)
	}
}

func pruneOnce(cfg *config.Config, repo *repositories.RunRepository, keep time.Duration) {
	cutoff := time.Now().Add(-keep)

	removed := pruneDir(cfg.Output.BackupDir, cutoff)
	removed += pruneDir(cfg.Output.ReportDir, cutoff)

	rows, err := repo.DeleteBefore(cutoff.Unix())
	if err != nil {
		log.Printf("Failed to prune run history: %v", err)
	}

	log.Printf("Pruned %d directories and %d stored runs older than %s", removed, rows, cutoff.Format(time.RFC3339))
}

// pruneDir removes run-stamped subdirectories older than cutoff. Entries that
// do not parse as a run stamp are left alone.
func pruneDir(root string, cutoff time.Time) int {
	entries, err := os.ReadDir(root)
	if err != nil {
		if !os.IsNotExist(err) {
			log.Printf("Failed to read %s: %v", root, err)
		}
		return 0
	}

	removed := 0
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		stamp, err := time.ParseInLocation(stampLayout, entry.Name(), time.Local)
		if err != nil || !stamp.Before(cutoff) {
			continue
		}

		path := filepath.Join(root, entry.Name())
		if err := os.RemoveAll(path); err != nil {
			log.Printf("Failed to remove %s: %v", path, err)
			continue
		}
		removed++
	}
	return removed
}
