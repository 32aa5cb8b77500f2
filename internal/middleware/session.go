// Package middleware はHTTPミドルウェアを提供する。
package middleware

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/hitoshi/noteman/internal/model"
)

// SessionCookieName はセッションシークレットを保持するCookieの名前。
const SessionCookieName = "session"

// contextKey はコンテキストに値を格納するための型安全なキー。
type contextKey string

var (
	userIDContextKey        = contextKey("user_id")
	sessionSecretContextKey = contextKey("session_secret")
)

// UserResolver はセッションシークレットから現在ユーザーを解決するインターフェース。
// auth.Serviceの部分集合として定義する。
type UserResolver interface {
	GetCurrentUser(ctx context.Context, secret string) (*model.User, error)
}

// NewSessionMiddleware はHTTP Only Cookieからセッションシークレットを読み取り、
// バックエンドでユーザーに解決するミドルウェアを返す。
// 解決したユーザーIDとシークレットをリクエストコンテキストに注入する。
// Cookieの不在・シークレットの失効はいずれも401として扱う。
func NewSessionMiddleware(resolver UserResolver) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			cookie, err := r.Cookie(SessionCookieName)
			if err != nil || cookie.Value == "" {
				writeUnauthorized(w)
				return
			}

			user, err := resolver.GetCurrentUser(r.Context(), cookie.Value)
			if err != nil {
				writeUnauthorized(w)
				return
			}

			ctx := ContextWithUserID(r.Context(), user.ID)
			ctx = ContextWithSessionSecret(ctx, cookie.Value)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// writeUnauthorized は未認証レスポンスを書き込む。
// Cookieなし・失効済みのいずれも同じボディを返し、失効の有無を外部に漏らさない。
func writeUnauthorized(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	json.NewEncoder(w).Encode(map[string]string{"error": "User not found"})
}

// UserIDFromContext はリクエストコンテキストからユーザーIDを取得する。
// セッションミドルウェアを通過したリクエストでのみ有効。
func UserIDFromContext(ctx context.Context) (string, error) {
	userID, ok := ctx.Value(userIDContextKey).(string)
	if !ok || userID == "" {
		return "", fmt.Errorf("user ID not found in context")
	}
	return userID, nil
}

// ContextWithUserID はコンテキストにユーザーIDを注入する。
// テストやミドルウェア以外のコンテキスト生成で使用する。
func ContextWithUserID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, userIDContextKey, userID)
}

// SessionSecretFromContext はリクエストコンテキストからセッションシークレットを取得する。
func SessionSecretFromContext(ctx context.Context) (string, error) {
	secret, ok := ctx.Value(sessionSecretContextKey).(string)
	if !ok || secret == "" {
		return "", fmt.Errorf("session secret not found in context")
	}
	return secret, nil
}

// ContextWithSessionSecret はコンテキストにセッションシークレットを注入する。
func ContextWithSessionSecret(ctx context.Context, secret string) context.Context {
	return context.WithValue(ctx, sessionSecretContextKey, secret)
}
