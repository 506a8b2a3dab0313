// Package security はアプリケーションのセキュリティ機能を提供する。
//
// TextSanitizer は出品説明やレビューコメントなど利用者が入力する自由記述から
// HTMLマークアップを除去し、プレーンテキストとして保存できる形に整える。
package security

import (
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

// TextSanitizer は自由記述テキストのサニタイズ機能のインターフェースを定義する。
type TextSanitizer interface {
	// SanitizeText は全てのHTMLタグを除去したプレーンテキストを返す。
	// script・styleは中身ごと除去し、前後の空白は取り除く。
	// 同一入力に対して常に同一出力を返す（冪等）。
	SanitizeText(raw string) string
}

// textSanitizer はTextSanitizerの実装。ポリシーはスレッドセーフに共有できる。
type textSanitizer struct {
	policy *bluemonday.Policy
}

// NewTextSanitizer はタグを一切許可しないポリシーでTextSanitizerを生成する。
func NewTextSanitizer() *textSanitizer {
	return &textSanitizer{
		policy: bluemonday.StrictPolicy(),
	}
}

// SanitizeText はHTMLタグを除去する。
// bluemondayがエスケープした実体参照は元の文字に戻し、保存値をプレーンテキストに保つ。
// 実体参照を戻した結果が新たなタグになる場合があるため、値が変わらなくなるまで繰り返す。
// 表示側は通常のテキストと同様にエスケープして出力する。
func (s *textSanitizer) SanitizeText(raw string) string {
	cur := strings.TrimSpace(raw)
	// 1回の処理で値が変わるときは必ず短くなるので、長さ分で収束する
	for i := 0; i <= len(raw); i++ {
		next := s.sanitizeOnce(cur)
		if next == cur {
			break
		}
		cur = next
	}
	return cur
}

func (s *textSanitizer) sanitizeOnce(v string) string {
	if v == "" {
		return ""
	}
	return strings.TrimSpace(html.UnescapeString(s.policy.Sanitize(v)))
}

// SanitizeOptional はnil許容の自由記述をサニタイズする。
// nilはnilのまま返し、サニタイズ後に空となった値もそのまま空文字で返す。
func SanitizeOptional(s TextSanitizer, raw *string) *string {
	if raw == nil {
		return nil
	}
	v := s.SanitizeText(*raw)
	return &v
}
