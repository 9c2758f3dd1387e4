package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type AppConfig struct {
	StockfishPath string `yaml:"stockfish_path"`

	PositionFile string `yaml:"position_file"`
	PersistDir   string `yaml:"persist_dir"`

	MoveTimeMillis int `yaml:"move_time_ms"`
	SearchDepth    int `yaml:"search_depth"`
	SearchNodes    int `yaml:"search_nodes"`

	EngineThreads    int `yaml:"engine_threads"`
	EngineHashMB     int `yaml:"engine_hash_mb"`
	EngineSkillLevel int `yaml:"engine_skill_level"`
	EngineElo        int `yaml:"engine_elo"`
	EnginePoolSize   int `yaml:"engine_pool_size"`

	StrictIllegal bool `yaml:"strict_illegal"`

	RedisURL   string        `yaml:"redis_url"`
	SessionTTL time.Duration `yaml:"session_ttl"`
	ListenAddr string        `yaml:"listen_addr"`
}

// Load reads CONFIG_FILE first when set, then lets environment variables
// override individual fields. STOCKFISH_PATH is the only required setting.
func Load() (*AppConfig, error) {
	cfg := &AppConfig{
		PositionFile:     "chess_game/chess_positions_as_fen.txt",
		MoveTimeMillis:   1000,
		EngineHashMB:     128,
		EngineSkillLevel: 20,
		SessionTTL:       time.Hour,
		ListenAddr:       ":8080",
	}

	if path := strings.TrimSpace(os.Getenv("CONFIG_FILE")); path != "" {
		if err := loadFile(path, cfg); err != nil {
			return nil, err
		}
	}

	if v := strings.TrimSpace(os.Getenv("STOCKFISH_PATH")); v != "" {
		cfg.StockfishPath = v
	}
	if v := strings.TrimSpace(os.Getenv("POSITION_FILE")); v != "" {
		cfg.PositionFile = v
	}
	if v := strings.TrimSpace(os.Getenv("PERSIST_DIR")); v != "" {
		cfg.PersistDir = v
	}
	if v := strings.TrimSpace(os.Getenv("MOVE_TIME_MS")); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.MoveTimeMillis = n
		}
	}
	if v := strings.TrimSpace(os.Getenv("SEARCH_DEPTH")); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.SearchDepth = n
		}
	}
	if v := strings.TrimSpace(os.Getenv("SEARCH_NODES")); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.SearchNodes = n
		}
	}
	if v := strings.TrimSpace(os.Getenv("ENGINE_THREADS")); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.EngineThreads = n
		}
	}
	if v := strings.TrimSpace(os.Getenv("ENGINE_HASH_MB")); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.EngineHashMB = n
		}
	}
	if v := strings.TrimSpace(os.Getenv("ENGINE_SKILL_LEVEL")); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 && n <= 20 {
			cfg.EngineSkillLevel = n
		}
	}
	if v := strings.TrimSpace(os.Getenv("ENGINE_ELO")); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.EngineElo = n
		}
	}
	if v := strings.TrimSpace(os.Getenv("ENGINE_POOL_SIZE")); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.EnginePoolSize = n
		}
	}
	if v := strings.TrimSpace(os.Getenv("STRICT_ILLEGAL")); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.StrictIllegal = b
		}
	}
	if v := strings.TrimSpace(os.Getenv("REDIS_URL")); v != "" {
		cfg.RedisURL = v
	}
	if v := strings.TrimSpace(os.Getenv("SESSION_TTL")); v != "" {
		if d, err := time.ParseDuration(v); err == nil && d > 0 {
			cfg.SessionTTL = d
		}
	}
	if v := strings.TrimSpace(os.Getenv("LISTEN_ADDR")); v != "" {
		cfg.ListenAddr = v
	}

	if cfg.StockfishPath == "" {
		return nil, errors.New("STOCKFISH_PATH is required")
	}

	return cfg, nil
}

func loadFile(path string, cfg *AppConfig) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(raw, cfg); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}
	return nil
}
