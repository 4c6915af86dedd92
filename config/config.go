// Package config loads environment variables and provides a typed Config used across the service.
// It applies sensible defaults so the binary can run locally with minimal setup.
// For required archival settings (API token, room list), use ValidateArchiveReady.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"time"
)

// Room maps one Chatwork room to a destination section of the archive document.
type Room struct {
	ID      string `json:"id"`
	Section string `json:"section"`
}

type Config struct {
	// Chatwork
	ChatworkToken   string
	ChatworkBaseURL string
	Rooms           []Room

	// Archive formatting
	Timezone    *time.Location
	MaskSecrets bool

	// Optional vocabulary overrides (JSON files; empty = package defaults)
	VocabPath     string
	MaskWordsPath string
}

// TimeFormat is the header/banner timestamp layout used in the archive document.
const TimeFormat = "2006/01/02 15:04"

// Load reads environment variables and applies defaults. It doesn't fail if Chatwork creds are
// missing; use ValidateArchiveReady() when you require an archival cycle to run. An invalid
// CHATWORK_ROOMS value is an error since a half-parsed room list would silently skip rooms.
func Load() (*Config, error) {
	cfg := &Config{}

	cfg.ChatworkToken = os.Getenv("CHATWORK_API_TOKEN")
	cfg.ChatworkBaseURL = os.Getenv("CHATWORK_BASE_URL")
	if cfg.ChatworkBaseURL == "" {
		cfg.ChatworkBaseURL = "https://api.chatwork.com/v2"
	}

	if v := os.Getenv("CHATWORK_ROOMS"); v != "" {
		var rooms []Room
		if err := json.Unmarshal([]byte(v), &rooms); err != nil {
			return nil, fmt.Errorf("invalid CHATWORK_ROOMS (want JSON array of {id,section}): %w", err)
		}
		cfg.Rooms = rooms
	}

	tz := os.Getenv("ARCHIVE_TIMEZONE")
	if tz == "" {
		tz = "Asia/Tokyo"
	}
	loc, err := time.LoadLocation(tz)
	if err != nil {
		return nil, fmt.Errorf("invalid ARCHIVE_TIMEZONE %q: %w", tz, err)
	}
	cfg.Timezone = loc

	// Secret masking defaults on; it only ever over-masks.
	cfg.MaskSecrets = os.Getenv("ARCHIVE_MASK_SECRETS") != "0"

	cfg.VocabPath = os.Getenv("ARCHIVE_VOCAB_PATH")
	cfg.MaskWordsPath = os.Getenv("ARCHIVE_MASK_WORDS_PATH")

	return cfg, nil
}

// ConfigurationError indicates the service is missing settings required for a whole
// archival cycle. It aborts the cycle before any room is touched, unlike per-room
// transport or write failures which only skip that room.
type ConfigurationError struct {
	Missing string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("configuration incomplete: missing %s", e.Missing)
}

// ValidateArchiveReady checks required fields for running an archival cycle.
func (c *Config) ValidateArchiveReady() error {
	if c.ChatworkToken == "" {
		return &ConfigurationError{Missing: "CHATWORK_API_TOKEN"}
	}
	if len(c.Rooms) == 0 {
		return &ConfigurationError{Missing: "CHATWORK_ROOMS"}
	}
	return nil
}
