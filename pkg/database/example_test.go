package database_test

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/wonny/krxdaily/pkg/config"
	"github.com/wonny/krxdaily/pkg/database"
)

// Example shows the usual startup sequence: migrate, connect, health check
func Example() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	if _, err := database.Migrate(cfg.Database.URL); err != nil {
		log.Fatalf("Failed to migrate: %v", err)
	}

	db, err := database.New(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	status, err := db.HealthCheck(ctx)
	if err != nil {
		log.Fatalf("Health check failed: %v", err)
	}

	fmt.Printf("Database is healthy: %v\n", status.Healthy)
	fmt.Printf("Response time: %v\n", status.ResponseTime)
	fmt.Printf("Connections: %d/%d\n", status.AcquiredConns, status.MaxConns)
}
