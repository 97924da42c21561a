package main

import (
	"log"
	"net/http"
	"os"

	"asset-tracker-api/internal"
	"asset-tracker-api/internal/config"
)

func main() {
	// Load and validate configuration
	cfg, err := config.LoadAndValidate()
	if err != nil {
		log.Fatalf("Configuration error: %v", err)
	}

	// Validate database connection string
	dsn := os.Getenv("DB_DSN")
	if dsn == "" {
		log.Fatal("DB_DSN environment variable is required")
	}

	// Create and start server
	srv := internal.NewServer(dsn, cfg)

	log.Println("Starting Asset Tracker API server...")
	log.Printf("JWT Issuer: %s", cfg.JWTIssuer)
	log.Printf("JWT Audience: %s", cfg.JWTAudience)
	log.Printf("Warranty service: %s", srv.Warranty.BaseURL)
	log.Printf("Listening on %s", cfg.ListenAddr)

	log.Fatal(http.ListenAndServe(cfg.ListenAddr, srv.Router))
}
