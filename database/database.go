// database/database.go
package database

import (
	"database/sql"
	"fmt"
	"log"
	"time"

	_ "github.com/lib/pq"

	"riskregister/config"
)

var DB *sql.DB

func Connect() error {
	db, err := sql.Open("postgres", config.DatabaseURL)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(50)
	db.SetMaxIdleConns(10)
	db.SetConnMaxLifetime(30 * time.Minute)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return fmt.Errorf("failed to ping PostgreSQL (connection/auth/network issue): %w", err)
	}

	DB = db
	log.Println("Successfully connected to PostgreSQL")
	return nil
}

func Disconnect() {
	if DB == nil {
		return
	}
	if err := DB.Close(); err != nil {
		log.Printf("PostgreSQL close warning: %v", err)
	}
}
