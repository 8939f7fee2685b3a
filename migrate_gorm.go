// migrate_gorm.go - Run this file to apply GORM migrations without starting the server
// Usage: go run migrate_gorm.go

//go:build ignore

package main

import (
	"log"

	"github.com/sahilchouksey/educonnect-api/config"
	"github.com/sahilchouksey/educonnect-api/database"
	"github.com/sahilchouksey/educonnect-api/utils/logger"
	"gorm.io/gorm"
)

func main() {
	log.Println("=== GORM Migration ===")

	if err := config.LoadENV(); err != nil {
		log.Println("No .env file found, using environment variables")
	}
	if err := logger.Init("info", ""); err != nil {
		log.Fatal("Failed to init logger:", err)
	}

	store, err := database.StartGORM()
	if err != nil {
		log.Fatal("Failed to connect to database:", err)
	}
	defer store.Close()

	if err := store.Init(); err != nil {
		log.Fatal("Failed to run migrations:", err)
	}

	if err := store.HealthCheck(); err != nil {
		log.Fatal("Database health check failed:", err)
	}

	log.Println("All migrations completed, tables:")
	for _, m := range database.Models() {
		stmt := &gorm.Statement{DB: store.GetDB()}
		if err := stmt.Parse(m); err != nil {
			log.Fatal("Failed to parse model:", err)
		}
		log.Println("  -", stmt.Schema.Table)
	}
}
