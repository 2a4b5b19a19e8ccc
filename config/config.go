package config

import (
	"encoding/json"
	"log"
	"os"
	"time"
)

type Configuration struct {
	ApiPort string `json:"api_port"`
	LogPath string `json:"log_path"`

	Database string `json:"database"` // "sqlite3" ou "postgres"
	DbHost   string `json:"db_host"`
	DbPort   string `json:"db_port"`
	DbUser   string `json:"db_user"`
	DbName   string `json:"db_name"`
	DbPass   string `json:"db_pass"`

	Engine EngineConfig `json:"engine"`
}

// EngineConfig controls the debounce window and the scheduled-message poller.
type EngineConfig struct {
	// DebounceSeconds is the quiet window before an inbound burst is flushed
	// to the responder. Zero means no aggregation (flush on next tick).
	DebounceSeconds *int `json:"debounce_seconds"`

	PollerIntervalSeconds int `json:"poller_interval_seconds"`
	PollerBatchSize       int `json:"poller_batch_size"`
}

// Debounce returns the configured window as a duration.
// Pointer so an explicit 0 in the file survives default-filling.
func (e EngineConfig) Debounce() time.Duration {
	if e.DebounceSeconds == nil {
		return 3 * time.Second
	}
	if *e.DebounceSeconds < 0 {
		return 0
	}
	return time.Duration(*e.DebounceSeconds) * time.Second
}

func (e EngineConfig) PollerInterval() time.Duration {
	return time.Duration(e.PollerIntervalSeconds) * time.Second
}

func Get(path string) Configuration {
	b, err := os.ReadFile(path)
	if err != nil {
		log.Fatal(err)
	}
	var c Configuration
	if err := json.Unmarshal(b, &c); err != nil {
		log.Fatal(err)
	}

	// defaults (pra evitar nil/zero chato)
	if c.ApiPort == "" {
		c.ApiPort = "8080"
	}
	if c.LogPath == "" {
		c.LogPath = "logs/server.log"
	}
	if c.Database == "" {
		c.Database = "sqlite3"
	}
	if c.Engine.PollerIntervalSeconds <= 0 {
		c.Engine.PollerIntervalSeconds = 1
	}
	if c.Engine.PollerBatchSize <= 0 {
		c.Engine.PollerBatchSize = 50
	}

	return c
}
