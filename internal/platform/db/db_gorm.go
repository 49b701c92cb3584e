// Package db opens the gorm database used for analysis history.
package db

import (
	"fmt"
	"log"
	"os"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"trendsignal/internal/feature/analysis/adapters"
)

// OpenDB opens the analysis history database. DB_DRIVER selects the
// dialect: "postgres" builds a DSN from the DB_* variables, anything else
// opens the SQLite file at SQLITE_PATH (default data/trendsignal.db).
// Postgres connections are retried because the database may still be
// starting alongside the service.
func OpenDB() *gorm.DB {
	var db *gorm.DB
	var err error

	if os.Getenv("DB_DRIVER") == "postgres" {
		dsn := fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=disable",
			os.Getenv("DB_HOST"), os.Getenv("DB_PORT"),
			os.Getenv("DB_USER"), os.Getenv("DB_PASSWORD"), os.Getenv("DB_NAME"))

		deadline := time.Now().Add(60 * time.Second)
		for {
			db, err = gorm.Open(postgres.Open(dsn), &gorm.Config{})
			if err == nil {
				break
			}
			if time.Now().After(deadline) {
				log.Fatalf("DB connect failed after 60s: %v", err)
			}
			log.Printf("DB connect failed, retrying...: %v", err)
			time.Sleep(3 * time.Second)
		}
	} else {
		path := os.Getenv("SQLITE_PATH")
		if path == "" {
			path = "data/trendsignal.db"
		}
		if db, err = gorm.Open(sqlite.Open(path), &gorm.Config{}); err != nil {
			log.Fatalf("failed to open sqlite db %s: %v", path, err)
		}
	}

	if err := db.AutoMigrate(&adapters.AnalysisModel{}); err != nil {
		log.Fatalf("failed to migrate: %v", err)
	}
	return db
}
