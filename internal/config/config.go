package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config はアプリケーション全体の設定を保持する。
// 環境変数から起動時に1回読み込み、イミュータブルとして扱う。
// モジュールレベルのシングルトンは持たず、依存として明示的に注入する。
type Config struct {
	// Backend (BaaS)
	AppwriteEndpoint  string
	AppwriteProjectID string
	AppwriteAPIKey    string
	BackendTimeout    time.Duration

	// Session
	SessionMaxAge int // セッションCookieの有効期間（秒）

	// Rate Limit
	RateLimitGeneral int // 認証済みAPI全般（req/min/user）
	RateLimitLogin   int // ログイン・サインアップ（req/min/IP）

	// Server
	ServerPort string
	BaseURL    string

	// Cookie
	CookieSecure bool
	CookieDomain string

	// CORS
	CORSAllowedOrigin string
}

// Load は環境変数からConfigを読み込む。
// 必須環境変数が未設定の場合は欠落しているものをすべて列挙したエラーを返す。
func Load() (*Config, error) {
	cfg := &Config{}

	// Required fields
	var missing []string

	cfg.AppwriteEndpoint = os.Getenv("APPWRITE_ENDPOINT")
	if cfg.AppwriteEndpoint == "" {
		missing = append(missing, "APPWRITE_ENDPOINT")
	}

	cfg.AppwriteProjectID = os.Getenv("APPWRITE_PROJECT_ID")
	if cfg.AppwriteProjectID == "" {
		missing = append(missing, "APPWRITE_PROJECT_ID")
	}

	cfg.AppwriteAPIKey = os.Getenv("APPWRITE_API_KEY")
	if cfg.AppwriteAPIKey == "" {
		missing = append(missing, "APPWRITE_API_KEY")
	}

	cfg.BaseURL = os.Getenv("BASE_URL")
	if cfg.BaseURL == "" {
		missing = append(missing, "BASE_URL")
	}

	if len(missing) > 0 {
		return nil, fmt.Errorf("required environment variables are not set: %v", missing)
	}

	// Optional fields with defaults
	cfg.BackendTimeout = getEnvDuration("BACKEND_TIMEOUT", 10*time.Second)
	cfg.SessionMaxAge = getEnvInt("SESSION_MAX_AGE", 2592000) // 30日
	cfg.RateLimitGeneral = getEnvInt("RATE_LIMIT_GENERAL", 120)
	cfg.RateLimitLogin = getEnvInt("RATE_LIMIT_LOGIN", 10)
	cfg.ServerPort = getEnvString("SERVER_PORT", "8080")
	cfg.CookieSecure = strings.HasPrefix(cfg.BaseURL, "https://")
	cfg.CookieDomain = getEnvString("COOKIE_DOMAIN", "")
	cfg.CORSAllowedOrigin = getEnvString("CORS_ALLOWED_ORIGIN", "http://localhost:3000")

	return cfg, nil
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
