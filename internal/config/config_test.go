package config

import (
	"strings"
	"testing"
	"time"
)

// setRequiredEnv は必須環境変数をすべて設定する。
func setRequiredEnv(t *testing.T) {
	t.Helper()
	t.Setenv("APPWRITE_ENDPOINT", "https://backend.example.com/v1")
	t.Setenv("APPWRITE_PROJECT_ID", "proj-1")
	t.Setenv("APPWRITE_API_KEY", "secret-key")
	t.Setenv("BASE_URL", "https://app.example.com")
}

func TestLoad_AllRequiredSet(t *testing.T) {
	setRequiredEnv(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load がエラーを返した: %v", err)
	}

	if cfg.AppwriteEndpoint != "https://backend.example.com/v1" {
		t.Errorf("AppwriteEndpoint = %q が期待値と一致しない", cfg.AppwriteEndpoint)
	}
	if cfg.AppwriteProjectID != "proj-1" {
		t.Errorf("AppwriteProjectID = %q, want proj-1", cfg.AppwriteProjectID)
	}
	if cfg.AppwriteAPIKey != "secret-key" {
		t.Errorf("AppwriteAPIKey = %q, want secret-key", cfg.AppwriteAPIKey)
	}
}

func TestLoad_MissingRequired_ListsAllMissing(t *testing.T) {
	// 必須変数をすべて未設定にする
	t.Setenv("APPWRITE_ENDPOINT", "")
	t.Setenv("APPWRITE_PROJECT_ID", "")
	t.Setenv("APPWRITE_API_KEY", "")
	t.Setenv("BASE_URL", "")

	_, err := Load()
	if err == nil {
		t.Fatal("エラーを期待したが nil が返った")
	}

	// 欠落しているすべての変数名がエラーメッセージに含まれる
	for _, name := range []string{"APPWRITE_ENDPOINT", "APPWRITE_PROJECT_ID", "APPWRITE_API_KEY", "BASE_URL"} {
		if !strings.Contains(err.Error(), name) {
			t.Errorf("エラーメッセージに %s が含まれていない: %v", name, err)
		}
	}
}

func TestLoad_Defaults(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("SESSION_MAX_AGE", "")
	t.Setenv("SERVER_PORT", "")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load がエラーを返した: %v", err)
	}

	// セッションCookieのデフォルト有効期間は30日
	if cfg.SessionMaxAge != 2592000 {
		t.Errorf("SessionMaxAge = %d, want 2592000", cfg.SessionMaxAge)
	}
	if cfg.ServerPort != "8080" {
		t.Errorf("ServerPort = %q, want 8080", cfg.ServerPort)
	}
	if cfg.BackendTimeout != 10*time.Second {
		t.Errorf("BackendTimeout = %v, want 10s", cfg.BackendTimeout)
	}
	if cfg.RateLimitGeneral != 120 {
		t.Errorf("RateLimitGeneral = %d, want 120", cfg.RateLimitGeneral)
	}
	if cfg.RateLimitLogin != 10 {
		t.Errorf("RateLimitLogin = %d, want 10", cfg.RateLimitLogin)
	}
}

func TestLoad_CookieSecure_DerivedFromBaseURL(t *testing.T) {
	setRequiredEnv(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load がエラーを返した: %v", err)
	}
	if !cfg.CookieSecure {
		t.Error("https のBASE_URLに対して CookieSecure = false")
	}

	t.Setenv("BASE_URL", "http://localhost:3000")
	cfg, err = Load()
	if err != nil {
		t.Fatalf("Load がエラーを返した: %v", err)
	}
	if cfg.CookieSecure {
		t.Error("http のBASE_URLに対して CookieSecure = true")
	}
}

func TestLoad_InvalidOptionalValues_FallBackToDefaults(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("SESSION_MAX_AGE", "not-a-number")
	t.Setenv("BACKEND_TIMEOUT", "forever")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load がエラーを返した: %v", err)
	}
	if cfg.SessionMaxAge != 2592000 {
		t.Errorf("SessionMaxAge = %d, want デフォルト 2592000", cfg.SessionMaxAge)
	}
	if cfg.BackendTimeout != 10*time.Second {
		t.Errorf("BackendTimeout = %v, want デフォルト 10s", cfg.BackendTimeout)
	}
}
