// Package config loads and validates environment variables at startup.
// Fail-fast: if a required variable is missing, the process exits.
package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

const defaultBaseURL = "https://api.mycareersfuture.gov.sg"

// Config holds all runtime configuration for the crawler and the read API.
type Config struct {
	DatabaseURL string
	RedisURL    string // optional; empty disables run-finished event publishing

	APIPort         string
	DashboardOrigin string // CORS origin allowed on the read API

	BaseURL            string  // MyCareersFuture API base URL
	CrawlIntervalHours int     // how often the daemon crawl fires
	RatePerSec         float64 // upstream API requests per second
	PageSize           int     // listings requested per page
}

// Load reads environment variables (after loading a .env file if present)
// and returns a validated Config.
func Load() (*Config, error) {
	_ = godotenv.Load()

	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}

	interval := 6
	if s := os.Getenv("CRAWL_INTERVAL_HOURS"); s != "" {
		v, err := strconv.Atoi(s)
		if err != nil || v < 1 {
			return nil, fmt.Errorf("CRAWL_INTERVAL_HOURS must be a positive integer, got %q", s)
		}
		interval = v
	}

	rate := 4.0
	if s := os.Getenv("MCF_RATE_PER_SEC"); s != "" {
		v, err := strconv.ParseFloat(s, 64)
		if err != nil || v <= 0 {
			return nil, fmt.Errorf("MCF_RATE_PER_SEC must be a positive number, got %q", s)
		}
		rate = v
	}

	pageSize := 100
	if s := os.Getenv("MCF_PAGE_SIZE"); s != "" {
		v, err := strconv.Atoi(s)
		if err != nil || v < 1 {
			return nil, fmt.Errorf("MCF_PAGE_SIZE must be a positive integer, got %q", s)
		}
		pageSize = v
	}

	port := os.Getenv("API_PORT")
	if port == "" {
		port = "8080"
	}

	origin := os.Getenv("DASHBOARD_ORIGIN")
	if origin == "" {
		origin = "http://localhost:3000"
	}

	baseURL := os.Getenv("MCF_BASE_URL")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}

	return &Config{
		DatabaseURL:        dbURL,
		RedisURL:           os.Getenv("REDIS_URL"),
		APIPort:            port,
		DashboardOrigin:    origin,
		BaseURL:            baseURL,
		CrawlIntervalHours: interval,
		RatePerSec:         rate,
		PageSize:           pageSize,
	}, nil
}
