// Package config loads kiosk server configuration from the environment.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all runtime settings for the kiosk server.
type Config struct {
	Addr       string
	Env        string
	DataDir    string
	StaticDir  string
	ScriptsDir string
	HooksDir   string

	// Confidence is the minimum detector confidence for a product detection.
	Confidence float64

	ScanCooldown     time.Duration
	GestureTimeout   time.Duration
	DebounceGuard    time.Duration
	PaidHold         time.Duration
	InferenceTimeout time.Duration
	HookTimeout      time.Duration

	RedisURL     string
	RedisChannel string
}

// Default returns the configuration used when no environment overrides are set.
func Default() Config {
	home, err := os.UserHomeDir()
	if err != nil {
		home = "."
	}
	dataDir := filepath.Join(home, ".kiosk")

	return Config{
		Addr:             ":8080",
		Env:              "development",
		DataDir:          dataDir,
		HooksDir:         filepath.Join(dataDir, "hooks"),
		Confidence:       0.6,
		ScanCooldown:     2500 * time.Millisecond,
		GestureTimeout:   3 * time.Second,
		DebounceGuard:    1500 * time.Millisecond,
		PaidHold:         2 * time.Second,
		InferenceTimeout: 2 * time.Second,
		HookTimeout:      5 * time.Second,
		RedisChannel:     "kiosk.events",
	}
}

// Load reads a .env file if one is present and then overlays KIOSK_* environment
// variables on top of Default.
func Load() (Config, error) {
	// A missing .env file is fine; the process environment still applies.
	_ = godotenv.Load()

	cfg := Default()
	cfg.Addr = getEnv("KIOSK_ADDR", cfg.Addr)
	cfg.Env = getEnv("KIOSK_ENV", cfg.Env)
	cfg.DataDir = getEnv("KIOSK_DATA_DIR", cfg.DataDir)
	cfg.HooksDir = getEnv("KIOSK_HOOKS_DIR", filepath.Join(cfg.DataDir, "hooks"))
	cfg.StaticDir = getEnv("KIOSK_STATIC_DIR", "")
	cfg.ScriptsDir = getEnv("KIOSK_SCRIPTS_DIR", "")
	cfg.RedisURL = getEnv("KIOSK_REDIS_URL", "")
	cfg.RedisChannel = getEnv("KIOSK_REDIS_CHANNEL", cfg.RedisChannel)

	var err error
	if cfg.Confidence, err = getFloat("KIOSK_CONFIDENCE", cfg.Confidence); err != nil {
		return Config{}, err
	}
	if cfg.Confidence < 0 || cfg.Confidence > 1 {
		return Config{}, fmt.Errorf("KIOSK_CONFIDENCE must be within [0,1], got %v", cfg.Confidence)
	}

	durations := []struct {
		key string
		dst *time.Duration
	}{
		{"KIOSK_SCAN_COOLDOWN", &cfg.ScanCooldown},
		{"KIOSK_GESTURE_TIMEOUT", &cfg.GestureTimeout},
		{"KIOSK_DEBOUNCE_GUARD", &cfg.DebounceGuard},
		{"KIOSK_PAID_HOLD", &cfg.PaidHold},
		{"KIOSK_INFERENCE_TIMEOUT", &cfg.InferenceTimeout},
		{"KIOSK_HOOK_TIMEOUT", &cfg.HookTimeout},
	}
	for _, d := range durations {
		v, err := getDuration(d.key, *d.dst)
		if err != nil {
			return Config{}, err
		}
		*d.dst = v
	}

	return cfg, nil
}

// DBPath returns the location of the SQLite database.
func (c Config) DBPath() string {
	return filepath.Join(c.DataDir, "kiosk.db")
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getFloat(key string, defaultVal float64) (float64, error) {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal, nil
	}
	f, err := strconv.ParseFloat(val, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return f, nil
}

func getDuration(key string, defaultVal time.Duration) (time.Duration, error) {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal, nil
	}
	d, err := time.ParseDuration(val)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	if d < 0 {
		return 0, fmt.Errorf("%s must not be negative", key)
	}
	return d, nil
}
