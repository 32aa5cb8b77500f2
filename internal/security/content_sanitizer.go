// Package security はアプリケーションのセキュリティ機能を提供する。
//
// ContentSanitizerService は付箋ノートの本文をサニタイズし、
// 保存されたノートが後段の表示レイヤーでXSSの媒介にならないようにする。
// ノートはプレーンテキストであり、HTMLタグは一切許可しない。
package security

import (
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

// ContentSanitizerService はノート本文のサニタイズ機能のインターフェースを定義する。
// ノートの保存前に使用される。
type ContentSanitizerService interface {
	// Sanitize は本文からすべてのHTMLタグを除去したテキストを返す。
	// 空文字列の入力には空文字列を返す。
	// 同一入力に対して常に同一出力を返す（冪等）。
	Sanitize(content string) string
}

// contentSanitizer はContentSanitizerServiceの実装。
// bluemondayのStrictPolicyを保持し、スレッドセーフにサニタイズ処理を行う。
type contentSanitizer struct {
	policy *bluemonday.Policy
}

// NewContentSanitizer はContentSanitizerServiceの新しいインスタンスを生成する。
// StrictPolicyはタグを一切許可せず、タグ除去後のテキストのみを通過させる。
func NewContentSanitizer() *contentSanitizer {
	return &contentSanitizer{
		policy: bluemonday.StrictPolicy(),
	}
}

// Sanitize は本文からすべてのHTMLタグを除去したテキストを返す。
func (s *contentSanitizer) Sanitize(content string) string {
	return strings.TrimSpace(s.policy.Sanitize(content))
}
