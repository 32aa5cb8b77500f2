// Package handler はHTTPハンドラーを提供する。
package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/hitoshi/noteman/internal/model"
)

// writeJSON はJSONレスポンスを書き込む。
func writeJSON(w http.ResponseWriter, statusCode int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		slog.Error("failed to encode response", slog.String("error", err.Error()))
	}
}

// writeErrorResponse はエラーレスポンスを書き込む。
// ボディは常に {"error": message} の形式。
func writeErrorResponse(w http.ResponseWriter, statusCode int, message string) {
	writeJSON(w, statusCode, map[string]string{"error": message})
}

// handleServiceError はサービス層から返されたエラーを適切なHTTPステータスコードに変換する。
// APIError以外のエラー（ネットワーク障害など）は詳細を漏らさず500に丸める。
func handleServiceError(w http.ResponseWriter, err error) {
	var apiErr *model.APIError
	if errors.As(err, &apiErr) {
		writeErrorResponse(w, mapAPIErrorToHTTPStatus(apiErr), apiErr.Message)
		return
	}

	slog.Error("internal server error", slog.String("error", err.Error()))
	writeErrorResponse(w, http.StatusInternalServerError, "Internal server error")
}

// mapAPIErrorToHTTPStatus はAPIErrorコードからHTTPステータスコードにマッピングする。
func mapAPIErrorToHTTPStatus(apiErr *model.APIError) int {
	switch apiErr.Code {
	case model.ErrCodeValidationFailed, model.ErrCodeMissingFields:
		return http.StatusBadRequest
	case model.ErrCodeNoSession, model.ErrCodeUnauthorized, model.ErrCodeAuthFailed:
		return http.StatusUnauthorized
	case model.ErrCodeNoteNotFound:
		return http.StatusNotFound
	case model.ErrCodeServiceError:
		if apiErr.Status >= 400 {
			return apiErr.Status
		}
		return http.StatusInternalServerError
	default:
		return http.StatusInternalServerError
	}
}

// decodeJSONBody はリクエストボディをJSONとしてデコードする。
// デコード失敗時はfalseを返し、400レスポンスを書き込み済みとする。
func decodeJSONBody(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeErrorResponse(w, http.StatusBadRequest, "Invalid request body")
		return false
	}
	return true
}
