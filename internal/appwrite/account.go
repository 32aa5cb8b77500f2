package appwrite

import (
	"context"
	"net/http"
	"net/url"
)

// User はBaaSのアカウントAPIが返すユーザーレコード。
type User struct {
	ID                string         `json:"$id"`
	CreatedAt         string         `json:"$createdAt"`
	UpdatedAt         string         `json:"$updatedAt"`
	Name              string         `json:"name"`
	Email             string         `json:"email"`
	EmailVerification bool           `json:"emailVerification"`
	Phone             string         `json:"phone"`
	PhoneVerification bool           `json:"phoneVerification"`
	Prefs             map[string]any `json:"prefs"`
	Status            bool           `json:"status"`
	Labels            []string       `json:"labels"`
	Registration      string         `json:"registration"`
	AccessedAt        string         `json:"accessedAt"`
}

// Session はBaaSのアカウントAPIが返すセッションレコード。
// Secretはセッション作成時のレスポンスにのみ含まれる。
type Session struct {
	ID          string `json:"$id"`
	CreatedAt   string `json:"$createdAt"`
	UserID      string `json:"userId"`
	Expire      string `json:"expire"`
	Provider    string `json:"provider"`
	ProviderUID string `json:"providerUid"`
	IP          string `json:"ip"`
	OSName      string `json:"osName"`
	ClientName  string `json:"clientName"`
	DeviceName  string `json:"deviceName"`
	CountryName string `json:"countryName"`
	Current     bool   `json:"current"`
	Secret      string `json:"secret"`
}

// SessionList はセッション一覧のレスポンス。
type SessionList struct {
	Total    int       `json:"total"`
	Sessions []Session `json:"sessions"`
}

// Token は検証・リカバリーフローで発行されるワンタイムトークン。
type Token struct {
	ID     string `json:"$id"`
	UserID string `json:"userId"`
	Secret string `json:"secret"`
	Expire string `json:"expire"`
}

// CreateAccount は新しいユーザーアイデンティティを作成する。
// POST /account
func (c *Client) CreateAccount(ctx context.Context, userID, email, password, name string) (*User, error) {
	body := map[string]any{
		"userId":   userID,
		"email":    email,
		"password": password,
		"name":     name,
	}
	var user User
	if err := c.do(ctx, "create_account", http.MethodPost, "/account", nil, body, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// CreateEmailSession は認証情報をセッションシークレットに交換する。
// POST /account/sessions/email
func (c *Client) CreateEmailSession(ctx context.Context, email, password string) (*Session, error) {
	body := map[string]any{
		"email":    email,
		"password": password,
	}
	var session Session
	if err := c.do(ctx, "create_session", http.MethodPost, "/account/sessions/email", nil, body, &session); err != nil {
		return nil, err
	}
	return &session, nil
}

// GetAccount はクライアントの認証情報に紐づくユーザーを取得する。
// GET /account
func (c *Client) GetAccount(ctx context.Context) (*User, error) {
	var user User
	if err := c.do(ctx, "get_account", http.MethodGet, "/account", nil, nil, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// GetSession はセッション詳細を取得する。sessionIDには"current"を指定できる。
// GET /account/sessions/{sessionId}
func (c *Client) GetSession(ctx context.Context, sessionID string) (*Session, error) {
	var session Session
	if err := c.do(ctx, "get_session", http.MethodGet, "/account/sessions/"+url.PathEscape(sessionID), nil, nil, &session); err != nil {
		return nil, err
	}
	return &session, nil
}

// ListSessions はユーザーの全セッションを一覧する。
// GET /account/sessions
func (c *Client) ListSessions(ctx context.Context) (*SessionList, error) {
	var list SessionList
	if err := c.do(ctx, "list_sessions", http.MethodGet, "/account/sessions", nil, nil, &list); err != nil {
		return nil, err
	}
	return &list, nil
}

// DeleteSession はセッションを1つ削除する。sessionIDには"current"を指定できる。
// DELETE /account/sessions/{sessionId}
func (c *Client) DeleteSession(ctx context.Context, sessionID string) error {
	return c.do(ctx, "delete_session", http.MethodDelete, "/account/sessions/"+url.PathEscape(sessionID), nil, nil, nil)
}

// DeleteSessions はユーザーの全セッションを削除する。
// DELETE /account/sessions
func (c *Client) DeleteSessions(ctx context.Context) error {
	return c.do(ctx, "delete_sessions", http.MethodDelete, "/account/sessions", nil, nil, nil)
}

// UpdateName はユーザー名を更新する。
// PATCH /account/name
func (c *Client) UpdateName(ctx context.Context, name string) (*User, error) {
	var user User
	if err := c.do(ctx, "update_name", http.MethodPatch, "/account/name", nil, map[string]any{"name": name}, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// UpdateEmail はメールアドレスを更新する。現在のパスワードによる再認証が必要。
// PATCH /account/email
func (c *Client) UpdateEmail(ctx context.Context, email, password string) (*User, error) {
	body := map[string]any{
		"email":    email,
		"password": password,
	}
	var user User
	if err := c.do(ctx, "update_email", http.MethodPatch, "/account/email", nil, body, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// UpdatePassword はパスワードを更新する。
// PATCH /account/password
func (c *Client) UpdatePassword(ctx context.Context, newPassword, oldPassword string) (*User, error) {
	body := map[string]any{
		"password":    newPassword,
		"oldPassword": oldPassword,
	}
	var user User
	if err := c.do(ctx, "update_password", http.MethodPatch, "/account/password", nil, body, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// CreateVerification はメール検証トークンを発行し、検証リンクを送信させる。
// urlはメール内リンクの戻り先。
// POST /account/verification
func (c *Client) CreateVerification(ctx context.Context, verifyURL string) (*Token, error) {
	var token Token
	if err := c.do(ctx, "create_verification", http.MethodPost, "/account/verification", nil, map[string]any{"url": verifyURL}, &token); err != nil {
		return nil, err
	}
	return &token, nil
}

// UpdateVerification はワンタイムトークンペアでメール検証を完了する。
// セッションCookieではなくuserIDとsecretで認証する。
// PUT /account/verification
func (c *Client) UpdateVerification(ctx context.Context, userID, secret string) error {
	body := map[string]any{
		"userId": userID,
		"secret": secret,
	}
	return c.do(ctx, "update_verification", http.MethodPut, "/account/verification", nil, body, nil)
}

// CreateRecovery はパスワードリカバリートークンを発行し、リカバリーリンクを送信させる。
// POST /account/recovery
func (c *Client) CreateRecovery(ctx context.Context, email, recoveryURL string) (*Token, error) {
	body := map[string]any{
		"email": email,
		"url":   recoveryURL,
	}
	var token Token
	if err := c.do(ctx, "create_recovery", http.MethodPost, "/account/recovery", nil, body, &token); err != nil {
		return nil, err
	}
	return &token, nil
}

// UpdateRecovery はワンタイムトークンペアでパスワードリセットを完了する。
// PUT /account/recovery
func (c *Client) UpdateRecovery(ctx context.Context, userID, secret, password string) error {
	body := map[string]any{
		"userId":   userID,
		"secret":   secret,
		"password": password,
	}
	return c.do(ctx, "update_recovery", http.MethodPut, "/account/recovery", nil, body, nil)
}

// OAuth2TokenURL はOAuth2トークンフローの開始URLを構築する。
// ネットワーク呼び出しは行わない。ブラウザをこのURLへリダイレクトすると、
// BaaSがプロバイダー認証後にsuccessURLへトークンペア付きで戻す。
func (c *Client) OAuth2TokenURL(provider, successURL, failureURL string) string {
	q := url.Values{}
	q.Set("project", c.project)
	if successURL != "" {
		q.Set("success", successURL)
	}
	if failureURL != "" {
		q.Set("failure", failureURL)
	}
	return c.endpoint + "/account/tokens/oauth2/" + url.PathEscape(provider) + "?" + q.Encode()
}
