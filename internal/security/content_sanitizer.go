// Package security はアプリケーションのセキュリティ機能を提供する。
//
// TextSanitizer は利用者やインポートで入力された自由記述テキスト
// （活動メモ、結果、販売店メモ、リードのメモ）からHTMLを除去する。
// モバイルクライアントはプレーンテキストとして表示するため、タグは一切許可しない。
package security

import (
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

// TextSanitizer は自由記述テキストのサニタイズ機能のインターフェースを定義する。
type TextSanitizer interface {
	// Sanitize はHTMLタグを除去したプレーンテキストを返す。
	// script, styleは中身ごと除去する。前後の空白は取り除く。
	// 同一入力に対して常に同一出力を返す（冪等）。
	Sanitize(text string) string
}

// textSanitizer はTextSanitizerの実装。bluemondayのポリシーはスレッドセーフ。
type textSanitizer struct {
	policy *bluemonday.Policy
}

// NewTextSanitizer はタグを一切許可しないTextSanitizerを生成する。
func NewTextSanitizer() *textSanitizer {
	return &textSanitizer{
		policy: bluemonday.StrictPolicy(),
	}
}

// Sanitize はHTMLタグを除去したプレーンテキストを返す。
func (s *textSanitizer) Sanitize(text string) string {
	if text == "" {
		return ""
	}
	// StrictPolicyは&などをエスケープするため、プレーンテキストに戻す
	return strings.TrimSpace(html.UnescapeString(s.policy.Sanitize(text)))
}

var _ TextSanitizer = (*textSanitizer)(nil)
