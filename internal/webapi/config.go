package webapi

import (
	"fmt"
	"strings"
	"time"
)

const (
	defaultListenAddr    = ":8080"
	defaultAllowedOrigin = "http://localhost:3000"
	defaultSessionIssuer = "rentbook"
	defaultSessionCookie = "rentbook_session"
	defaultSessionTTL    = 90 * 24 * time.Hour
	defaultDocumentKey   = "rental:store:v1"
	defaultStoreTimeout  = 5 * time.Second
)

// Config aggregates runtime settings for the rentbook API.
type Config struct {
	ListenAddr        string
	AllowedOrigins    []string
	AccessCode        string
	SessionSigningKey string
	SessionIssuer     string
	SessionCookieName string
	SessionTTL        time.Duration
	DatabaseURL       string
	KVRestURL         string
	KVRestToken       string
	DocumentKey       string
	StoreTimeout      time.Duration
}

// Validate ensures the configuration contains sane values.
func (cfg *Config) Validate() error {
	cfg.ListenAddr = defaultIfEmpty(cfg.ListenAddr, defaultListenAddr)
	if len(cfg.AllowedOrigins) == 0 {
		cfg.AllowedOrigins = []string{defaultAllowedOrigin}
	}
	cfg.SessionIssuer = defaultIfEmpty(cfg.SessionIssuer, defaultSessionIssuer)
	cfg.SessionCookieName = defaultIfEmpty(cfg.SessionCookieName, defaultSessionCookie)
	if cfg.SessionTTL <= 0 {
		cfg.SessionTTL = defaultSessionTTL
	}
	cfg.DocumentKey = defaultIfEmpty(cfg.DocumentKey, defaultDocumentKey)
	if cfg.StoreTimeout <= 0 {
		cfg.StoreTimeout = defaultStoreTimeout
	}
	if len(cfg.SessionSigningKey) == 0 {
		return fmt.Errorf("session signing key is required")
	}
	hasDatabase := strings.TrimSpace(cfg.DatabaseURL) != ""
	hasKV := strings.TrimSpace(cfg.KVRestURL) != ""
	if !hasDatabase && !hasKV {
		return fmt.Errorf("backing store is not configured: set a database url or a kv rest url")
	}
	if hasDatabase && hasKV {
		return fmt.Errorf("choose one backing store: database url and kv rest url are both set")
	}
	if hasKV && strings.TrimSpace(cfg.KVRestToken) == "" {
		return fmt.Errorf("kv rest token is required when the kv rest url is set")
	}
	return nil
}

func defaultIfEmpty(value string, fallback string) string {
	if strings.TrimSpace(value) == "" {
		return fallback
	}
	return value
}

// ParseAllowedOrigins splits comma-delimited origins into a slice.
func ParseAllowedOrigins(raw string) []string {
	if strings.TrimSpace(raw) == "" {
		return []string{}
	}
	parts := strings.Split(raw, ",")
	normalized := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			normalized = append(normalized, trimmed)
		}
	}
	return normalized
}
