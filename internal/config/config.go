package config

import (
	"fmt"
	"os"
	"time"
)

type Config struct {
	HTTPAddr    string // WAYPOST_HTTP_ADDR (default ":8080")
	ReportURL   string // WAYPOST_REPORT_URL (required)
	ReportToken string // WAYPOST_REPORT_TOKEN (optional)
	DatabaseURL string // WAYPOST_DATABASE_URL (optional, empty = in-memory store)
	NATSURL     string // WAYPOST_NATS_URL (optional, empty = no events)
	AuthToken   string // WAYPOST_AUTH_TOKEN (optional, empty = auth disabled)

	RefreshInterval time.Duration // WAYPOST_REFRESH_INTERVAL (default 30s; 0 = manual only)
	FetchTimeout    time.Duration // WAYPOST_FETCH_TIMEOUT (default 10s)

	// Archive settings
	ArchiveInterval   time.Duration // WAYPOST_ARCHIVE_INTERVAL (default 0 = disabled)
	ArchiveS3Bucket   string        // WAYPOST_ARCHIVE_S3_BUCKET (enables S3 when set)
	ArchiveS3Endpoint string        // WAYPOST_ARCHIVE_S3_ENDPOINT (custom endpoint for MinIO)
	ArchiveS3Region   string        // WAYPOST_ARCHIVE_S3_REGION (default "us-east-1")
	ArchiveS3Key      string        // WAYPOST_ARCHIVE_S3_KEY (default "waypost/snapshot.json")
}

func Load() (*Config, error) {
	c := &Config{
		HTTPAddr:          envOrDefault("WAYPOST_HTTP_ADDR", ":8080"),
		ReportURL:         os.Getenv("WAYPOST_REPORT_URL"),
		ReportToken:       os.Getenv("WAYPOST_REPORT_TOKEN"),
		DatabaseURL:       os.Getenv("WAYPOST_DATABASE_URL"),
		NATSURL:           os.Getenv("WAYPOST_NATS_URL"),
		AuthToken:         os.Getenv("WAYPOST_AUTH_TOKEN"),
		ArchiveS3Bucket:   os.Getenv("WAYPOST_ARCHIVE_S3_BUCKET"),
		ArchiveS3Endpoint: os.Getenv("WAYPOST_ARCHIVE_S3_ENDPOINT"),
		ArchiveS3Region:   envOrDefault("WAYPOST_ARCHIVE_S3_REGION", "us-east-1"),
		ArchiveS3Key:      envOrDefault("WAYPOST_ARCHIVE_S3_KEY", "waypost/snapshot.json"),
	}
	if c.ReportURL == "" {
		return nil, fmt.Errorf("WAYPOST_REPORT_URL is required")
	}

	var err error
	if c.RefreshInterval, err = durationEnv("WAYPOST_REFRESH_INTERVAL", 30*time.Second); err != nil {
		return nil, err
	}
	if c.FetchTimeout, err = durationEnv("WAYPOST_FETCH_TIMEOUT", 10*time.Second); err != nil {
		return nil, err
	}
	if c.ArchiveInterval, err = durationEnv("WAYPOST_ARCHIVE_INTERVAL", 0); err != nil {
		return nil, err
	}

	return c, nil
}

func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func durationEnv(key string, fallback time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return d, nil
}
