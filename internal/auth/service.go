// Package auth はセッション/認証ライフサイクルの管理を提供する。
// アカウント作成、認証情報とセッションシークレットの交換、現在ユーザーの解決、
// ログアウト、プロフィール更新、検証・リカバリーフローを含む。
// 永続化・有効期限の強制はすべてBaaS側に委譲する。
package auth

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/google/uuid"
	"github.com/hitoshi/noteman/internal/appwrite"
	"github.com/hitoshi/noteman/internal/model"
)

// minPasswordLength はサインアップ時のパスワード最小長。
const minPasswordLength = 8

// Service はセッション/認証に関するビジネスロジックを提供する。
// 特権（APIキー）クライアントを保持し、セッションスコープの呼び出しは
// リクエストごとにWithSessionで導出したクライアントで行う。
type Service struct {
	client *appwrite.Client
}

// NewService はServiceを生成する。clientは特権クライアント。
func NewService(client *appwrite.Client) *Service {
	return &Service{client: client}
}

// CreateAccount は新しいユーザーアイデンティティを作成する。
// メール重複・パスワードポリシー違反などの上流拒否はServiceErrorとして
// 上流の文言をそのまま保持して返す。
func (s *Service) CreateAccount(ctx context.Context, email, password, name string) (*model.User, error) {
	if email == "" || password == "" || name == "" {
		return nil, model.NewValidationError("Email, password, and name are required")
	}
	if len(password) < minPasswordLength {
		return nil, model.NewValidationError("Password must be at least 8 characters long")
	}

	user, err := s.client.CreateAccount(ctx, uuid.New().String(), email, password, name)
	if err != nil {
		return nil, serviceError(err)
	}

	slog.Info("account created",
		slog.String("user_id", user.ID),
	)
	return toUser(user), nil
}

// CreateSession は認証情報をセッションに交換する。
// 返却されるSessionのSecretを呼び出し元がCookieに保存する。
// 認証情報の拒否はAuthErrorとして上流の文言を保持して返す。
func (s *Service) CreateSession(ctx context.Context, email, password string) (*model.Session, error) {
	if email == "" || password == "" {
		return nil, model.NewValidationError("Email and password are required")
	}

	session, err := s.client.CreateEmailSession(ctx, email, password)
	if err != nil {
		var apiErr *appwrite.Error
		if errors.As(err, &apiErr) && (apiErr.Code == http.StatusUnauthorized || apiErr.Code == http.StatusBadRequest) {
			return nil, model.NewAuthError(apiErr.Message)
		}
		return nil, serviceError(err)
	}

	slog.Info("session created",
		slog.String("user_id", session.UserID),
		slog.String("session_id", session.ID),
	)
	return toSession(session), nil
}

// GetCurrentUser はセッションシークレットから現在のユーザーを解決する。
// シークレットが空の場合はNoSessionError、上流がシークレットを拒否した場合
// （期限切れ・失効）はServiceErrorを返す。
func (s *Service) GetCurrentUser(ctx context.Context, secret string) (*model.User, error) {
	if secret == "" {
		return nil, model.NewNoSessionError()
	}

	user, err := s.client.WithSession(secret).GetAccount(ctx)
	if err != nil {
		return nil, serviceError(err)
	}
	return toUser(user), nil
}

// GetCurrentSession はセッションシークレットから現在のセッション詳細を解決する。
func (s *Service) GetCurrentSession(ctx context.Context, secret string) (*model.Session, error) {
	if secret == "" {
		return nil, model.NewNoSessionError()
	}

	session, err := s.client.WithSession(secret).GetSession(ctx, "current")
	if err != nil {
		return nil, serviceError(err)
	}
	return toSession(session), nil
}

// IsAuthenticated はシークレットが有効なユーザーに解決できるかを返す。
func (s *Service) IsAuthenticated(ctx context.Context, secret string) bool {
	_, err := s.GetCurrentUser(ctx, secret)
	return err == nil
}

// Logout は現在のセッションを上流で削除する。ベストエフォートであり、
// 上流の削除が失敗してもエラーは返さない（既に期限切れのセッションなど）。
// 呼び出し元はこの結果に関わらずCookieをクリアする。
func (s *Service) Logout(ctx context.Context, secret string) {
	if secret == "" {
		// Cookieなしのログアウトは成功扱いのno-op
		return
	}

	if err := s.client.WithSession(secret).DeleteSession(ctx, "current"); err != nil {
		slog.Warn("failed to delete session upstream",
			slog.String("error", err.Error()),
		)
		return
	}

	slog.Info("user logged out")
}

// LogoutAll はユーザーの全セッションを上流で削除する。Logoutと同じく
// ベストエフォートで、呼び出し元は常にCookieをクリアする。
func (s *Service) LogoutAll(ctx context.Context, secret string) {
	if secret == "" {
		return
	}

	if err := s.client.WithSession(secret).DeleteSessions(ctx); err != nil {
		slog.Warn("failed to delete all sessions upstream",
			slog.String("error", err.Error()),
		)
		return
	}

	slog.Info("user logged out from all sessions")
}

// UpdateName はユーザー名を更新する。
func (s *Service) UpdateName(ctx context.Context, secret, name string) (*model.User, error) {
	if secret == "" {
		return nil, model.NewNoSessionError()
	}
	if name == "" {
		return nil, model.NewValidationError("Name is required")
	}

	user, err := s.client.WithSession(secret).UpdateName(ctx, name)
	if err != nil {
		return nil, serviceError(err)
	}
	return toUser(user), nil
}

// UpdateEmail はメールアドレスを更新する。現在のパスワードによる再認証が必要。
func (s *Service) UpdateEmail(ctx context.Context, secret, email, password string) (*model.User, error) {
	if secret == "" {
		return nil, model.NewNoSessionError()
	}
	if email == "" || password == "" {
		return nil, model.NewValidationError("Email and password are required")
	}

	user, err := s.client.WithSession(secret).UpdateEmail(ctx, email, password)
	if err != nil {
		return nil, serviceError(err)
	}
	return toUser(user), nil
}

// UpdatePassword はパスワードを更新する。
func (s *Service) UpdatePassword(ctx context.Context, secret, newPassword, oldPassword string) (*model.User, error) {
	if secret == "" {
		return nil, model.NewNoSessionError()
	}
	if newPassword == "" || oldPassword == "" {
		return nil, model.NewValidationError("New password and old password are required")
	}
	if len(newPassword) < minPasswordLength {
		return nil, model.NewValidationError("Password must be at least 8 characters long")
	}

	user, err := s.client.WithSession(secret).UpdatePassword(ctx, newPassword, oldPassword)
	if err != nil {
		return nil, serviceError(err)
	}
	return toUser(user), nil
}

// SendEmailVerification は検証メールの送信を上流に依頼する。
// verifyURLはメール内リンクの戻り先で、呼び出し元が事前にオリジンを検証する。
func (s *Service) SendEmailVerification(ctx context.Context, secret, verifyURL string) error {
	if secret == "" {
		return model.NewNoSessionError()
	}

	if _, err := s.client.WithSession(secret).CreateVerification(ctx, verifyURL); err != nil {
		return serviceError(err)
	}
	return nil
}

// VerifyEmail はワンタイムトークンペアでメール検証を完了する。
// セッションCookieではなくuserIDとトークンシークレットで認証するため、
// 特権クライアントで呼び出す。
func (s *Service) VerifyEmail(ctx context.Context, userID, tokenSecret string) error {
	if userID == "" || tokenSecret == "" {
		return model.NewValidationError("User ID and secret are required")
	}

	if err := s.client.UpdateVerification(ctx, userID, tokenSecret); err != nil {
		return serviceError(err)
	}

	slog.Info("email verified", slog.String("user_id", userID))
	return nil
}

// SendPasswordRecovery はリカバリーメールの送信を上流に依頼する。
// セッション不要（パスワードを忘れたユーザーが呼び出す）。
func (s *Service) SendPasswordRecovery(ctx context.Context, email, recoveryURL string) error {
	if email == "" {
		return model.NewValidationError("Email is required")
	}

	if _, err := s.client.CreateRecovery(ctx, email, recoveryURL); err != nil {
		return serviceError(err)
	}
	return nil
}

// ResetPassword はワンタイムトークンペアでパスワードリセットを完了する。
func (s *Service) ResetPassword(ctx context.Context, userID, tokenSecret, password string) error {
	if userID == "" || tokenSecret == "" || password == "" {
		return model.NewValidationError("User ID, secret, and password are required")
	}
	if len(password) < minPasswordLength {
		return model.NewValidationError("Password must be at least 8 characters long")
	}

	if err := s.client.UpdateRecovery(ctx, userID, tokenSecret, password); err != nil {
		return serviceError(err)
	}

	slog.Info("password reset completed", slog.String("user_id", userID))
	return nil
}

// GetSessions はユーザーの全セッションを一覧する。
func (s *Service) GetSessions(ctx context.Context, secret string) ([]model.Session, error) {
	if secret == "" {
		return nil, model.NewNoSessionError()
	}

	list, err := s.client.WithSession(secret).ListSessions(ctx)
	if err != nil {
		return nil, serviceError(err)
	}

	sessions := make([]model.Session, 0, len(list.Sessions))
	for i := range list.Sessions {
		sessions = append(sessions, *toSession(&list.Sessions[i]))
	}
	return sessions, nil
}

// DeleteSession はセッションをIDで削除する。sessionIDには"current"を指定できる。
// 削除対象が現在のセッションの場合、呼び出し元がCookieをクリアする。
func (s *Service) DeleteSession(ctx context.Context, secret, sessionID string) error {
	if secret == "" {
		return model.NewNoSessionError()
	}
	if sessionID == "" {
		return model.NewValidationError("Session ID is required")
	}

	if err := s.client.WithSession(secret).DeleteSession(ctx, sessionID); err != nil {
		return serviceError(err)
	}

	slog.Info("session deleted", slog.String("session_id", sessionID))
	return nil
}

// OAuthSignupURL はOAuth2トークンフローの開始URLを構築する。
func (s *Service) OAuthSignupURL(provider, successURL, failureURL string) string {
	return s.client.OAuth2TokenURL(provider, successURL, failureURL)
}

// serviceError は上流エラーをServiceErrorに変換する。
// *appwrite.Error以外（ネットワーク障害など）はそのまま伝播し、
// 最外殻で一般的な500に丸められる。
func serviceError(err error) error {
	var apiErr *appwrite.Error
	if errors.As(err, &apiErr) {
		return model.NewServiceError(apiErr.Code, apiErr.Message)
	}
	return err
}

// toUser はBaaSのユーザーレコードをドメインモデルに変換する。
func toUser(u *appwrite.User) *model.User {
	return &model.User{
		ID:                u.ID,
		Name:              u.Name,
		Email:             u.Email,
		EmailVerification: u.EmailVerification,
		Phone:             u.Phone,
		PhoneVerification: u.PhoneVerification,
		Prefs:             u.Prefs,
		Status:            u.Status,
		Labels:            u.Labels,
		Registration:      u.Registration,
		AccessedAt:        u.AccessedAt,
	}
}

// toSession はBaaSのセッションレコードをドメインモデルに変換する。
func toSession(s *appwrite.Session) *model.Session {
	return &model.Session{
		ID:          s.ID,
		UserID:      s.UserID,
		Expire:      s.Expire,
		Provider:    s.Provider,
		ProviderUID: s.ProviderUID,
		IP:          s.IP,
		OSName:      s.OSName,
		ClientName:  s.ClientName,
		DeviceName:  s.DeviceName,
		CountryName: s.CountryName,
		Current:     s.Current,
		Secret:      s.Secret,
	}
}
