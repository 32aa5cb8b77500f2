package appwrite

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// Error はBaaSが返すエラーレスポンスを表す。
// メッセージは上流の文言をそのまま保持し、呼び出し元が取り扱いを決める。
type Error struct {
	Code    int    `json:"code"`
	Type    string `json:"type"`
	Message string `json:"message"`
}

// Error はerrorインターフェースを実装する。
func (e *Error) Error() string {
	return fmt.Sprintf("appwrite: [%d %s] %s", e.Code, e.Type, e.Message)
}

// decodeError は非2xxレスポンスを*Errorにデコードする。
// JSONとして解釈できないボディはメッセージとしてそのまま保持する。
func decodeError(resp *http.Response) error {
	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<16))
	if err != nil {
		return &Error{Code: resp.StatusCode, Message: resp.Status}
	}

	var apiErr Error
	if jsonErr := json.Unmarshal(body, &apiErr); jsonErr != nil || apiErr.Message == "" {
		return &Error{
			Code:    resp.StatusCode,
			Message: strings.TrimSpace(string(body)),
		}
	}
	if apiErr.Code == 0 {
		apiErr.Code = resp.StatusCode
	}
	return &apiErr
}

// IsNotFound はエラーが404（対象が存在しない）かを判定する。
func IsNotFound(err error) bool {
	var apiErr *Error
	return errors.As(err, &apiErr) && apiErr.Code == http.StatusNotFound
}

// IsConflict はエラーが409（重複作成）かを判定する。
// スキーマの並行プロビジョニング競合の無害化に使用する。
func IsConflict(err error) bool {
	var apiErr *Error
	return errors.As(err, &apiErr) && apiErr.Code == http.StatusConflict
}

// IsUnauthorized はエラーが401（シークレットの期限切れ・失効など）かを判定する。
func IsUnauthorized(err error) bool {
	var apiErr *Error
	return errors.As(err, &apiErr) && apiErr.Code == http.StatusUnauthorized
}
