// Package appwrite はBaaS（Appwrite互換REST API）のクライアントを提供する。
// 認証・セッション発行・ドキュメントストアの操作をHTTP経由で呼び出す。
// 永続性・一意性・アクセス制御の保証はすべてBaaS側に委譲する。
package appwrite

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// RequestRecorder はバックエンド呼び出しのメトリクス記録のインターフェース。
// 未設定（nil）の場合は記録しない。
type RequestRecorder interface {
	RecordBackendRequest(operation string, statusCode int, duration time.Duration)
}

// Client はBaaSのRESTクライアント。
// APIキーを保持する特権クライアントはプロセス全体で共有され、並行利用に安全。
// セッションスコープのクライアントはWithSessionでリクエストごとに導出する。
type Client struct {
	endpoint   string
	project    string
	key        string // 特権クライアントのAPIキー
	session    string // セッションスコープクライアントのセッションシークレット
	httpClient *http.Client
	recorder   RequestRecorder
}

// New は特権（APIキー）クライアントを生成する。
// endpointは末尾スラッシュなしのベースURL（例: https://cloud.appwrite.io/v1）。
func New(endpoint, project, key string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 10 * time.Second}
	}
	return &Client{
		endpoint:   strings.TrimRight(endpoint, "/"),
		project:    project,
		key:        key,
		httpClient: httpClient,
	}
}

// SetRecorder はバックエンド呼び出しのメトリクスレコーダーを設定する。
func (c *Client) SetRecorder(r RequestRecorder) {
	c.recorder = r
}

// WithSession はセッションシークレットで認証するクライアントを導出する。
// 導出されたクライアントはAPIキーを保持しない。リクエストごとに生成し、
// リクエストをまたいで共有・キャッシュしてはならない。
func (c *Client) WithSession(secret string) *Client {
	derived := *c
	derived.key = ""
	derived.session = secret
	return &derived
}

// Endpoint はベースURLを返す。
func (c *Client) Endpoint() string {
	return c.endpoint
}

// Health はBaaSの死活を確認する。
// GET /health
func (c *Client) Health(ctx context.Context) error {
	return c.do(ctx, "health", http.MethodGet, "/health", nil, nil, nil)
}

// do はBaaSへのHTTP呼び出しを1回実行する。
// bodyが非nilの場合はJSONとして送信し、outが非nilの場合はレスポンスをデコードする。
// 非2xxレスポンスは*Errorにデコードして返す。
func (c *Client) do(ctx context.Context, operation, method, path string, query url.Values, body, out any) error {
	reqURL := c.endpoint + path
	if len(query) > 0 {
		reqURL += "?" + query.Encode()
	}

	var reqBody io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request body: %w", err)
		}
		reqBody = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, reqURL, reqBody)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("X-Appwrite-Project", c.project)
	if c.session != "" {
		req.Header.Set("X-Appwrite-Session", c.session)
	} else if c.key != "" {
		req.Header.Set("X-Appwrite-Key", c.key)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("User-Agent", "Noteman/1.0")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		if c.recorder != nil {
			c.recorder.RecordBackendRequest(operation, 0, time.Since(start))
		}
		return fmt.Errorf("backend request failed: %w", err)
	}
	defer resp.Body.Close()

	if c.recorder != nil {
		c.recorder.RecordBackendRequest(operation, resp.StatusCode, time.Since(start))
	}

	if resp.StatusCode >= 400 {
		return decodeError(resp)
	}

	if out != nil && resp.StatusCode != http.StatusNoContent {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("failed to decode response body: %w", err)
		}
	}

	return nil
}
