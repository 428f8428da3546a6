package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all client configuration.
type Config struct {
	Host string // companion server host
	Port int    // companion server port

	Companion string // preset companion selection; empty means prompt
	Mode      string // preset mode selection ("a" = audio); empty means prompt

	RedisURL      string
	RedisPassword string
	HistoryTTL    time.Duration

	SampleRate      int
	Channels        int
	PhraseTimeLimit time.Duration // hard bound on one capture cycle
	CapturePause    time.Duration // interval between capture cycles
	CaptureWorkers  int           // blocking-capture pool size
}

// Load reads configuration from environment variables with defaults.
func Load() (*Config, error) {
	// Load .env file if it exists (doesn't error if missing)
	_ = godotenv.Load()

	config := &Config{
		Host:            "localhost",
		Port:            8000,
		RedisURL:        "localhost:6379",
		HistoryTTL:      24 * time.Hour,
		SampleRate:      44100,
		Channels:        1,
		PhraseTimeLimit: 30 * time.Second,
		CapturePause:    2 * time.Second,
		CaptureWorkers:  3,
	}

	// Optional: COMPANION_HOST
	if host := os.Getenv("COMPANION_HOST"); host != "" {
		config.Host = host
	}

	// Optional: COMPANION_PORT
	if port := os.Getenv("COMPANION_PORT"); port != "" {
		p, err := strconv.Atoi(port)
		if err != nil {
			return nil, fmt.Errorf("invalid COMPANION_PORT: %w", err)
		}
		config.Port = p
	}

	// Optional: COMPANION (skip the companion prompt)
	config.Companion = os.Getenv("COMPANION")

	// Optional: MODE ("a" for audio, anything else for text)
	config.Mode = os.Getenv("MODE")

	// Optional: REDIS_URL
	if redisURL := os.Getenv("REDIS_URL"); redisURL != "" {
		config.RedisURL = redisURL
	}

	// Optional: REDIS_PASSWORD
	if redisPassword := os.Getenv("REDIS_PASSWORD"); redisPassword != "" {
		config.RedisPassword = redisPassword
	}

	// Optional: HISTORY_TTL (in hours)
	if ttl := os.Getenv("HISTORY_TTL"); ttl != "" {
		h, err := strconv.Atoi(ttl)
		if err != nil {
			return nil, fmt.Errorf("invalid HISTORY_TTL: %w", err)
		}
		config.HistoryTTL = time.Duration(h) * time.Hour
	}

	// Optional: SAMPLE_RATE
	if rate := os.Getenv("SAMPLE_RATE"); rate != "" {
		r, err := strconv.Atoi(rate)
		if err != nil {
			return nil, fmt.Errorf("invalid SAMPLE_RATE: %w", err)
		}
		config.SampleRate = r
	}

	// Optional: PHRASE_TIME_LIMIT (in seconds)
	if limit := os.Getenv("PHRASE_TIME_LIMIT"); limit != "" {
		l, err := strconv.Atoi(limit)
		if err != nil {
			return nil, fmt.Errorf("invalid PHRASE_TIME_LIMIT: %w", err)
		}
		config.PhraseTimeLimit = time.Duration(l) * time.Second
	}

	// Optional: CAPTURE_PAUSE (in seconds)
	if pause := os.Getenv("CAPTURE_PAUSE"); pause != "" {
		p, err := strconv.Atoi(pause)
		if err != nil {
			return nil, fmt.Errorf("invalid CAPTURE_PAUSE: %w", err)
		}
		config.CapturePause = time.Duration(p) * time.Second
	}

	// Optional: CAPTURE_WORKERS
	if workers := os.Getenv("CAPTURE_WORKERS"); workers != "" {
		w, err := strconv.Atoi(workers)
		if err != nil {
			return nil, fmt.Errorf("invalid CAPTURE_WORKERS: %w", err)
		}
		if w <= 0 {
			return nil, fmt.Errorf("invalid CAPTURE_WORKERS: must be positive")
		}
		config.CaptureWorkers = w
	}

	return config, nil
}
