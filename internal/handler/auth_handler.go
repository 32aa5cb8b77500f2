package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/hitoshi/noteman/internal/middleware"
	"github.com/hitoshi/noteman/internal/model"
	"github.com/hitoshi/noteman/internal/security"
)

// AuthServiceInterface は認証ハンドラーが必要とするサービスインターフェース。
type AuthServiceInterface interface {
	CreateAccount(ctx context.Context, email, password, name string) (*model.User, error)
	CreateSession(ctx context.Context, email, password string) (*model.Session, error)
	GetCurrentUser(ctx context.Context, secret string) (*model.User, error)
	GetCurrentSession(ctx context.Context, secret string) (*model.Session, error)
	Logout(ctx context.Context, secret string)
	LogoutAll(ctx context.Context, secret string)
	UpdateName(ctx context.Context, secret, name string) (*model.User, error)
	UpdateEmail(ctx context.Context, secret, email, password string) (*model.User, error)
	UpdatePassword(ctx context.Context, secret, newPassword, oldPassword string) (*model.User, error)
	SendEmailVerification(ctx context.Context, secret, verifyURL string) error
	VerifyEmail(ctx context.Context, userID, tokenSecret string) error
	SendPasswordRecovery(ctx context.Context, email, recoveryURL string) error
	ResetPassword(ctx context.Context, userID, tokenSecret, password string) error
	GetSessions(ctx context.Context, secret string) ([]model.Session, error)
	DeleteSession(ctx context.Context, secret, sessionID string) error
	OAuthSignupURL(provider, successURL, failureURL string) string
}

// AuthHandlerConfig は認証ハンドラーの設定。
type AuthHandlerConfig struct {
	BaseURL       string
	CookieDomain  string
	CookieSecure  bool
	SessionMaxAge int // セッションCookieの有効期間（秒）
}

// AuthHandler はアカウント・セッション関連のHTTPハンドラー。
// セッションミドルウェアの外側に配置されるため、Cookieの読み取りは自前で行う。
type AuthHandler struct {
	service AuthServiceInterface
	config  AuthHandlerConfig
	guard   *security.RedirectGuard
}

// NewAuthHandler はAuthHandlerを生成する。
func NewAuthHandler(service AuthServiceInterface, config AuthHandlerConfig, guard *security.RedirectGuard) *AuthHandler {
	return &AuthHandler{
		service: service,
		config:  config,
		guard:   guard,
	}
}

// sessionSecret はリクエストのCookieからセッションシークレットを取り出す。
// Cookieが存在しない場合は空文字列を返す。
func sessionSecret(r *http.Request) string {
	cookie, err := r.Cookie(middleware.SessionCookieName)
	if err != nil {
		return ""
	}
	return cookie.Value
}

// setSessionCookie はセッションCookieを設定する（HTTP Only）。
func (h *AuthHandler) setSessionCookie(w http.ResponseWriter, secret string) {
	http.SetCookie(w, &http.Cookie{
		Name:     middleware.SessionCookieName,
		Value:    secret,
		Path:     "/",
		Domain:   h.config.CookieDomain,
		MaxAge:   h.config.SessionMaxAge,
		HttpOnly: true,
		Secure:   h.config.CookieSecure,
		SameSite: http.SameSiteStrictMode,
	})
}

// clearSessionCookie はセッションCookieをクリアする。
func (h *AuthHandler) clearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     middleware.SessionCookieName,
		Value:    "",
		Path:     "/",
		Domain:   h.config.CookieDomain,
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.config.CookieSecure,
		SameSite: http.SameSiteStrictMode,
	})
}

// signupRequest はサインアップリクエストのボディ。
type signupRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name"`
}

// Signup はアカウントを作成し、そのままサインインする。
// POST /auth/signup
func (h *AuthHandler) Signup(w http.ResponseWriter, r *http.Request) {
	var req signupRequest
	if !decodeJSONBody(w, r, &req) {
		return
	}

	user, err := h.service.CreateAccount(r.Context(), req.Email, req.Password, req.Name)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	// 作成直後にセッションを確立する
	session, err := h.service.CreateSession(r.Context(), req.Email, req.Password)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	h.setSessionCookie(w, session.Secret)
	writeJSON(w, http.StatusOK, map[string]any{"user": user})
}

// signinRequest はサインインリクエストのボディ。
type signinRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Signin は認証情報をセッションに交換し、Cookieを設定する。
// POST /auth/signin
func (h *AuthHandler) Signin(w http.ResponseWriter, r *http.Request) {
	var req signinRequest
	if !decodeJSONBody(w, r, &req) {
		return
	}

	session, err := h.service.CreateSession(r.Context(), req.Email, req.Password)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	h.setSessionCookie(w, session.Secret)
	writeJSON(w, http.StatusOK, map[string]any{"session": session})
}

// Logout は現在のセッションを破棄する。Cookieがない場合も成功として扱う。
// 上流の削除結果に関わらずCookieは常にクリアする。
// POST /auth/logout
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	h.service.Logout(r.Context(), sessionSecret(r))
	h.clearSessionCookie(w)
	writeJSON(w, http.StatusOK, map[string]string{"message": "Logged out successfully"})
}

// LogoutAll は全デバイスのセッションを破棄する。
// POST /auth/logout-all
func (h *AuthHandler) LogoutAll(w http.ResponseWriter, r *http.Request) {
	h.service.LogoutAll(r.Context(), sessionSecret(r))
	h.clearSessionCookie(w)
	writeJSON(w, http.StatusOK, map[string]string{"message": "Logged out successfully"})
}

// Me は現在のログインユーザー情報を返す。
// GET /auth/me
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	user, err := h.service.GetCurrentUser(r.Context(), sessionSecret(r))
	if err != nil {
		writeErrorResponse(w, http.StatusUnauthorized, "User not found")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"user": user})
}

// GetSession は現在のセッション詳細を返す。
// GET /auth/session
func (h *AuthHandler) GetSession(w http.ResponseWriter, r *http.Request) {
	session, err := h.service.GetCurrentSession(r.Context(), sessionSecret(r))
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"session": session})
}

// ListSessions はユーザーの全セッションを一覧する。
// GET /auth/sessions
func (h *AuthHandler) ListSessions(w http.ResponseWriter, r *http.Request) {
	sessions, err := h.service.GetSessions(r.Context(), sessionSecret(r))
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"sessions": sessions})
}

// DeleteSession はセッションをIDで破棄する。"current"を指定した場合は
// 現在のセッションが対象となり、Cookieもクリアする。
// DELETE /auth/sessions/{id}
func (h *AuthHandler) DeleteSession(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "id")

	if err := h.service.DeleteSession(r.Context(), sessionSecret(r), sessionID); err != nil {
		handleServiceError(w, err)
		return
	}

	if sessionID == "current" {
		h.clearSessionCookie(w)
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Session deleted successfully"})
}

// updateNameRequest は名前更新リクエストのボディ。
type updateNameRequest struct {
	Name string `json:"name"`
}

// UpdateName はユーザー名を更新する。
// PATCH /auth/name
func (h *AuthHandler) UpdateName(w http.ResponseWriter, r *http.Request) {
	var req updateNameRequest
	if !decodeJSONBody(w, r, &req) {
		return
	}

	user, err := h.service.UpdateName(r.Context(), sessionSecret(r), req.Name)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"user": user})
}

// updateEmailRequest はメールアドレス更新リクエストのボディ。
type updateEmailRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// UpdateEmail はメールアドレスを更新する。現在のパスワードによる再認証が必要。
// PATCH /auth/email
func (h *AuthHandler) UpdateEmail(w http.ResponseWriter, r *http.Request) {
	var req updateEmailRequest
	if !decodeJSONBody(w, r, &req) {
		return
	}

	user, err := h.service.UpdateEmail(r.Context(), sessionSecret(r), req.Email, req.Password)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"user": user})
}

// updatePasswordRequest はパスワード更新リクエストのボディ。
type updatePasswordRequest struct {
	Password    string `json:"password"`
	OldPassword string `json:"oldPassword"`
}

// UpdatePassword はパスワードを更新する。
// PATCH /auth/password
func (h *AuthHandler) UpdatePassword(w http.ResponseWriter, r *http.Request) {
	var req updatePasswordRequest
	if !decodeJSONBody(w, r, &req) {
		return
	}

	user, err := h.service.UpdatePassword(r.Context(), sessionSecret(r), req.Password, req.OldPassword)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"user": user})
}

// verificationRequest は検証メール送信リクエストのボディ。
type verificationRequest struct {
	URL string `json:"url"`
}

// SendVerification は検証メールの送信を依頼する。
// メール内リンクの戻り先はアプリケーションのオリジン内に制限される。
// POST /auth/verification
func (h *AuthHandler) SendVerification(w http.ResponseWriter, r *http.Request) {
	var req verificationRequest
	if !decodeJSONBody(w, r, &req) {
		return
	}

	verifyURL := req.URL
	if verifyURL == "" {
		verifyURL = h.config.BaseURL + "/verify-email"
	}
	if err := h.guard.Validate(verifyURL); err != nil {
		writeErrorResponse(w, http.StatusBadRequest, "Invalid redirect URL")
		return
	}

	if err := h.service.SendEmailVerification(r.Context(), sessionSecret(r), verifyURL); err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"message": "Verification email sent"})
}

// confirmVerificationRequest は検証完了リクエストのボディ。
type confirmVerificationRequest struct {
	UserID string `json:"userId"`
	Secret string `json:"secret"`
}

// ConfirmVerification はワンタイムトークンペアでメール検証を完了する。
// セッション不要（メール内リンクから遷移したユーザーが呼び出す）。
// PUT /auth/verification
func (h *AuthHandler) ConfirmVerification(w http.ResponseWriter, r *http.Request) {
	var req confirmVerificationRequest
	if !decodeJSONBody(w, r, &req) {
		return
	}

	if err := h.service.VerifyEmail(r.Context(), req.UserID, req.Secret); err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"message": "Email verified successfully"})
}

// recoveryRequest はリカバリーメール送信リクエストのボディ。
type recoveryRequest struct {
	Email string `json:"email"`
	URL   string `json:"url"`
}

// SendRecovery はパスワードリカバリーメールの送信を依頼する。
// POST /auth/recovery
func (h *AuthHandler) SendRecovery(w http.ResponseWriter, r *http.Request) {
	var req recoveryRequest
	if !decodeJSONBody(w, r, &req) {
		return
	}

	recoveryURL := req.URL
	if recoveryURL == "" {
		recoveryURL = h.config.BaseURL + "/reset-password"
	}
	if err := h.guard.Validate(recoveryURL); err != nil {
		writeErrorResponse(w, http.StatusBadRequest, "Invalid redirect URL")
		return
	}

	if err := h.service.SendPasswordRecovery(r.Context(), req.Email, recoveryURL); err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"message": "Recovery email sent"})
}

// confirmRecoveryRequest はパスワードリセット完了リクエストのボディ。
type confirmRecoveryRequest struct {
	UserID   string `json:"userId"`
	Secret   string `json:"secret"`
	Password string `json:"password"`
}

// ConfirmRecovery はワンタイムトークンペアでパスワードリセットを完了する。
// PUT /auth/recovery
func (h *AuthHandler) ConfirmRecovery(w http.ResponseWriter, r *http.Request) {
	var req confirmRecoveryRequest
	if !decodeJSONBody(w, r, &req) {
		return
	}

	if err := h.service.ResetPassword(r.Context(), req.UserID, req.Secret, req.Password); err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"message": "Password reset successfully"})
}

// OAuthSignup はOAuth2トークンフローを開始する。
// BaaSの認可URLへ307でリダイレクトし、成功時はフロントエンドの
// コールバック、失敗時はサインアップページへ戻る。
// GET /auth/oauth/{provider}
func (h *AuthHandler) OAuthSignup(w http.ResponseWriter, r *http.Request) {
	provider := chi.URLParam(r, "provider")
	if provider == "" {
		writeErrorResponse(w, http.StatusBadRequest, "Provider is required")
		return
	}

	successURL := h.config.BaseURL + "/api/oauth"
	failureURL := h.config.BaseURL + "/signup"
	http.Redirect(w, r, h.service.OAuthSignupURL(provider, successURL, failureURL), http.StatusTemporaryRedirect)
}
