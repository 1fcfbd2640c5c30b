package main

import (
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"rehook/internal/api"
	"rehook/internal/api/handlers"
	"rehook/internal/bot"
	"rehook/internal/engine/run"
	"rehook/internal/pkg/logger"
	"rehook/internal/platform/config"
	"rehook/internal/platform/database"
	"rehook/internal/platform/discord"
	"rehook/internal/platform/repositories"
)

func main() {
	configPath := flag.String("config", "configs/config.yaml", "Path to config file")
	flag.Parse()

	// Load .env if present, then the real environment
	godotenv.Load()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid config: %v", err)
	}

	logger.Init(cfg.Logging)

	// Run store
	db, err := database.Open(cfg.Store)
	if err != nil {
		log.Fatalf("Failed to open run store: %v", err)
	}
	defer db.Close()

	if err := database.Bootstrap(db); err != nil {
		log.Fatalf("Failed to bootstrap run store: %v", err)
	}

	runRepo := repositories.NewRunRepository(db)

	// Discord session
	client, err := discord.New(cfg.Discord)
	if err != nil {
		log.Fatalf("Failed to create Discord client: %v", err)
	}

	runner := run.NewRunner(cfg, client, runRepo)

	b := bot.New(cfg, client, runner)
	if err := b.Start(); err != nil {
		log.Fatalf("Failed to connect to Discord: %v", err)
	}
	defer b.Stop()

	if err := client.VerifyCategory(); err != nil {
		log.Printf("Category check failed: %v (runs will abort until this is fixed)", err)
	}

	// Optional read-only status API
	if cfg.Server.Enabled {
		deps := &api.Dependencies{
			HealthHandler: handlers.NewHealthHandler(db),
			StatusHandler: handlers.NewStatusHandler(runner),
			RunsHandler:   handlers.NewRunsHandler(runRepo),
		}
		router := api.NewRouter(deps)

		addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
		go func() {
			log.Printf("Status API listening on %s", addr)
			if err := http.ListenAndServe(addr, router); err != nil {
				log.Printf("Status API failed: %v", err)
			}
		}()
	}

	log.Println("Bot is now running. Press CTRL-C to exit.")
	sc := make(chan os.Signal, 1)
	signal.Notify(sc, syscall.SIGINT, syscall.SIGTERM, os.Interrupt)
	<-sc

	log.Println("Shutting down.")
}
