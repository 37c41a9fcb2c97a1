package main

import (
	"context"
	"log"
	"log/slog"
	"os"

	"stackit/database"
	"stackit/internal/config"
	"stackit/internal/microservices/http-api/repository"
	"stackit/internal/microservices/http-api/service"

	"github.com/fatih/color"
)

// seed creates the demo accounts and threads in Postgres and prints a
// bearer token for each account.
func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid config: %v", err)
	}
	// the schema must exist before seeding
	cfg.AutoMigrate = true

	db, err := database.ConnectDB(cfg, logger)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	store := repository.NewGormStore(db, cfg.DBTxTimeout)
	defer store.Close()

	result, err := database.Seed(context.Background(), store, logger)
	if err != nil {
		log.Fatalf("Failed to seed database: %v", err)
	}

	authService := service.NewAuthService(store, cfg)
	color.Green("✓ Seeded %d users and %d questions (password: %s)", len(result.Users), len(result.Questions), database.DemoPassword)
	for _, u := range result.Users {
		token, err := authService.IssueToken(u)
		if err != nil {
			log.Fatalf("Failed to issue token for %s: %v", u.Username, err)
		}
		color.Cyan("%-6s %-10s", u.Username, u.Role)
		color.HiBlack("  %s", token)
	}
	for _, q := range result.Questions {
		color.Yellow("question %s  %s", q.ID, q.Title)
	}
}
