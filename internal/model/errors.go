package model

import "fmt"

// APIError は予期される失敗を表す統一エラーフォーマット。
// サービス層はこの型を返し、ハンドラー層でHTTPステータスに変換される。
// 予期しないインフラ障害は通常のerrorとして伝播し、最外殻で500に丸められる。
type APIError struct {
	Code     string // エラーコード
	Message  string // ユーザーに返すエラーメッセージ
	Category string // カテゴリ: auth, validation, note, service
	Status   int    // 上流のHTTPステータス（ServiceErrorのみ設定、それ以外は0）
}

// Error はerrorインターフェースを実装する。
func (e *APIError) Error() string {
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// 定義済みエラーコード
const (
	ErrCodeValidationFailed = "VALIDATION_FAILED"
	ErrCodeMissingFields    = "MISSING_FIELDS"
	ErrCodeNoSession        = "NO_SESSION"
	ErrCodeUnauthorized     = "UNAUTHORIZED"
	ErrCodeAuthFailed       = "AUTH_FAILED"
	ErrCodeNoteNotFound     = "NOTE_NOT_FOUND"
	ErrCodeServiceError     = "SERVICE_ERROR"
)

// NewValidationError はローカル入力検証エラーを生成する。
// バックエンドへの呼び出し前に検出され、ネットワークには到達しない。
func NewValidationError(message string) *APIError {
	return &APIError{
		Code:     ErrCodeValidationFailed,
		Message:  message,
		Category: "validation",
	}
}

// NewMissingFieldsError は必須フィールド欠落エラーを生成する。
func NewMissingFieldsError() *APIError {
	return &APIError{
		Code:     ErrCodeMissingFields,
		Message:  "Missing fields",
		Category: "validation",
	}
}

// NewNoSessionError はセッションCookieが存在しない場合のエラーを生成する。
func NewNoSessionError() *APIError {
	return &APIError{
		Code:     ErrCodeNoSession,
		Message:  "No session found",
		Category: "auth",
	}
}

// NewUnauthorizedError は認証済みユーザーを解決できない場合のエラーを生成する。
func NewUnauthorizedError() *APIError {
	return &APIError{
		Code:     ErrCodeUnauthorized,
		Message:  "User not found",
		Category: "auth",
	}
}

// NewAuthError は認証情報が拒否された場合のエラーを生成する。
// メッセージは上流のBaaSが返した文言をそのまま保持する。
func NewAuthError(message string) *APIError {
	return &APIError{
		Code:     ErrCodeAuthFailed,
		Message:  message,
		Category: "auth",
	}
}

// NewNoteNotFoundError は削除対象のノートが存在しない場合のエラーを生成する。
func NewNoteNotFoundError() *APIError {
	return &APIError{
		Code:     ErrCodeNoteNotFound,
		Message:  "Note not found",
		Category: "note",
	}
}

// NewServiceError は上流のBaaSが呼び出しを拒否した場合のエラーを生成する。
// statusには上流のHTTPステータスを、messageには上流の文言をそのまま渡す。
func NewServiceError(status int, message string) *APIError {
	return &APIError{
		Code:     ErrCodeServiceError,
		Message:  message,
		Category: "service",
		Status:   status,
	}
}
