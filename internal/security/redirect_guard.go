// Package security はアプリケーションのセキュリティ機能を提供する。
package security

import (
	"fmt"
	"net/url"
	"strings"
)

// RedirectGuard は検証・リカバリーメールに埋め込まれる戻り先URLを検証する。
// ユーザー入力の影響を受けるURLがアプリケーションのオリジン外を指すことを防ぐ。
type RedirectGuard struct {
	scheme string
	host   string
}

// NewRedirectGuard はbaseURLのオリジンを許可対象とするRedirectGuardを生成する。
func NewRedirectGuard(baseURL string) (*RedirectGuard, error) {
	parsed, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid base URL: %w", err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return nil, fmt.Errorf("base URL must be http or https: %s", baseURL)
	}
	if parsed.Host == "" {
		return nil, fmt.Errorf("base URL has no host: %s", baseURL)
	}
	return &RedirectGuard{
		scheme: strings.ToLower(parsed.Scheme),
		host:   strings.ToLower(parsed.Host),
	}, nil
}

// Validate はrawURLがベースURLと同一オリジンの絶対URLであることを検証する。
// スキーム・ホストのいずれかが異なる場合、または相対URLの場合はエラーを返す。
func (g *RedirectGuard) Validate(rawURL string) error {
	if rawURL == "" {
		return fmt.Errorf("empty URL")
	}

	parsed, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("invalid URL: %w", err)
	}

	if parsed.Scheme == "" || parsed.Host == "" {
		return fmt.Errorf("relative URL is not allowed: %s", rawURL)
	}

	if !strings.EqualFold(parsed.Scheme, g.scheme) {
		return fmt.Errorf("disallowed scheme: %s (allowed: %s)", parsed.Scheme, g.scheme)
	}

	if !strings.EqualFold(parsed.Host, g.host) {
		return fmt.Errorf("redirect host %q is outside the application origin %q", parsed.Host, g.host)
	}

	return nil
}
