package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log"
	"os"
	"strconv"

	"github.com/joho/godotenv"

	"skyraid/internal/protocol"
)

type Config struct {
	Port           string
	DatabaseURL    string
	StaticDir      string
	TickHz         int
	BroadcastHz    int
	AdminTokenHash string
}

// Load reads an optional .env file into the environment and then builds the
// config from it. Variables already set in the environment win.
func Load(files ...string) (Config, error) {
	if err := godotenv.Load(files...); err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			return Config{}, fmt.Errorf("load env file: %w", err)
		}
	} else {
		log.Println("[CONFIG] loaded environment file")
	}
	return FromEnv()
}

func FromEnv() (Config, error) {
	cfg := Config{
		Port:           getEnv("PORT", "8080"),
		DatabaseURL:    os.Getenv("DATABASE_URL"),
		StaticDir:      os.Getenv("STATIC_DIR"),
		AdminTokenHash: os.Getenv("ADMIN_TOKEN_HASH"),
	}
	var err error
	if cfg.TickHz, err = getInt("TICK_HZ", protocol.SimTickHz); err != nil {
		return Config{}, err
	}
	if cfg.BroadcastHz, err = getInt("BROADCAST_HZ", protocol.BroadcastHz); err != nil {
		return Config{}, err
	}
	if cfg.BroadcastHz > cfg.TickHz {
		return Config{}, fmt.Errorf("BROADCAST_HZ %d exceeds TICK_HZ %d", cfg.BroadcastHz, cfg.TickHz)
	}
	return cfg, nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getInt(key string, fallback int) (int, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("%s must be a positive integer, got %q", key, raw)
	}
	return n, nil
}
