package webapi

import (
	"fmt"
	"strings"
	"time"
)

const (
	defaultListenAddr        = ":8080"
	defaultAllowedOrigin     = "http://localhost:8000"
	defaultSessionIssuer     = "billdesk"
	defaultSessionCookie     = "billdesk_session"
	defaultSessionTTL        = 12 * time.Hour
	defaultZoneOffsetMinutes = 330 // IST, the operation's billing zone
	noticeCookieName         = "billdesk_notice"
)

// Config aggregates runtime settings for the admin API.
type Config struct {
	ListenAddr        string
	AllowedOrigins    []string
	SessionSigningKey string
	SessionIssuer     string
	SessionCookieName string
	SessionTTL        time.Duration
	ZoneOffsetMinutes int
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
	if cfg.ZoneOffsetMinutes == 0 {
		cfg.ZoneOffsetMinutes = defaultZoneOffsetMinutes
	}
	if len(cfg.SessionSigningKey) == 0 {
		return fmt.Errorf("session signing key is required")
	}
	return nil
}

// BillingZone returns the fixed zone payments are timestamped in.
func (cfg *Config) BillingZone() *time.Location {
	return time.FixedZone(fmt.Sprintf("UTC%+03d:%02d", cfg.ZoneOffsetMinutes/60, abs(cfg.ZoneOffsetMinutes%60)), cfg.ZoneOffsetMinutes*60)
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

func defaultIfEmpty(value string, fallback string) string {
	if strings.TrimSpace(value) == "" {
		return fallback
	}
	return value
}

func abs(value int) int {
	if value < 0 {
		return -value
	}
	return value
}
