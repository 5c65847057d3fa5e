// Package config は環境変数からアプリケーション設定を読み込む。
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// DefaultEnvFile は起動時に読み込む.envファイルのパス。
const DefaultEnvFile = ".env"

// Config はアプリケーション全体の設定を保持する。
// 環境変数から起動時に1回読み込み、イミュータブルとして扱う。
type Config struct {
	// Database
	// 空の場合はデータベースなしの縮退モードで起動する
	DatabaseURL    string
	DBMaxOpenConns int

	// Server
	ServerPort        string
	CORSAllowedOrigin string
	TrustProxy        bool

	// Users
	OwnerOpenID string

	// LLM
	LLMAPIURL  string
	LLMAPIKey  string
	LLMModel   string
	LLMTimeout time.Duration

	// Rate Limit (req/min/client)
	RateLimitGeneral    int
	RateLimitGeneration int

	// Logging
	LogLevel         string
	LogFile          string
	LogRetentionDays int
}

// Load は.envファイル（存在する場合）と環境変数からConfigを読み込む。
// 既に設定されている環境変数は.envの値で上書きしない。
func Load() (*Config, error) {
	return LoadWithEnvFile(DefaultEnvFile)
}

// LoadWithEnvFile は指定した.envファイルを読み込んでからConfigを生成する。
// ファイルが存在しない場合は環境変数のみを使う。
func LoadWithEnvFile(path string) (*Config, error) {
	if path != "" {
		if err := godotenv.Load(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("failed to load %s: %w", path, err)
		}
	}

	cfg := &Config{}

	cfg.DatabaseURL = strings.TrimSpace(os.Getenv("DATABASE_URL"))
	cfg.DBMaxOpenConns = getEnvInt("DB_MAX_OPEN_CONNS", 10)

	cfg.ServerPort = getEnvString("SERVER_PORT", "8080")
	cfg.CORSAllowedOrigin = getEnvString("CORS_ALLOWED_ORIGIN", "http://localhost:3000")
	cfg.TrustProxy = getEnvBool("TRUST_PROXY", false)

	cfg.OwnerOpenID = getEnvString("OWNER_OPEN_ID", "")

	cfg.LLMAPIURL = getEnvString("LLM_API_URL", "https://api.openai.com/v1/chat/completions")
	cfg.LLMAPIKey = getEnvString("LLM_API_KEY", "")
	cfg.LLMModel = getEnvString("LLM_MODEL", "gpt-4o-mini")
	cfg.LLMTimeout = getEnvDuration("LLM_TIMEOUT", 60*time.Second)

	cfg.RateLimitGeneral = getEnvInt("RATE_LIMIT_GENERAL", 120)
	cfg.RateLimitGeneration = getEnvInt("RATE_LIMIT_GENERATION", 10)

	cfg.LogLevel = getEnvString("LOG_LEVEL", "info")
	cfg.LogFile = getEnvString("LOG_FILE", "")
	cfg.LogRetentionDays = getEnvInt("LOG_RETENTION_DAYS", 14)

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// HasDatabase はデータベースが設定されているかどうかを返す。
func (c *Config) HasDatabase() bool {
	return c.DatabaseURL != ""
}

// HasLLM は生成APIのキーが設定されているかどうかを返す。
func (c *Config) HasLLM() bool {
	return c.LLMAPIKey != ""
}

func (c *Config) validate() error {
	var invalid []string
	if c.RateLimitGeneral <= 0 {
		invalid = append(invalid, "RATE_LIMIT_GENERAL")
	}
	if c.RateLimitGeneration <= 0 {
		invalid = append(invalid, "RATE_LIMIT_GENERATION")
	}
	if c.LLMTimeout <= 0 {
		invalid = append(invalid, "LLM_TIMEOUT")
	}
	if c.DBMaxOpenConns <= 0 {
		invalid = append(invalid, "DB_MAX_OPEN_CONNS")
	}
	if len(invalid) > 0 {
		return fmt.Errorf("environment variables must be positive: %v", invalid)
	}
	return nil
}

func getEnvString(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return defaultVal
	}
	return i
}

func getEnvBool(key string, defaultVal bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return defaultVal
	}
	return b
}

func getEnvDuration(key string, defaultVal time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return defaultVal
	}
	return d
}
