// Package security はアプリケーションのセキュリティ機能を提供する。
//
// TextSanitizer はユーザーが投稿するレシピ本文をサニタイズし、
// 保存されたHTMLがXSSの経路にならないようにする。
// bluemondayの許可リストポリシーで、段落・改行・リスト・強調のみを通過させる。
package security

import (
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

// TextSanitizer はレシピ本文のサニタイズ機能のインターフェースを定義する。
// レシピの作成・更新時、保存前に使用される。
type TextSanitizer interface {
	// Sanitize は本文をサニタイズして安全なHTMLを返す。
	// 許可タグ（p, br, ul, ol, li, strong, em）以外は除去し、
	// script, styleなどは中身ごと除去する。属性はすべて除去される。
	// 前後の空白は取り除かれる。同一入力に対して常に同一出力を返す（冪等）。
	Sanitize(raw string) string
}

// recipeTextSanitizer はTextSanitizerの実装。
// bluemondayのポリシーはスレッドセーフに共有できる。
type recipeTextSanitizer struct {
	policy *bluemonday.Policy
}

// NewTextSanitizer はTextSanitizerの新しいインスタンスを生成する。
func NewTextSanitizer() *recipeTextSanitizer {
	p := bluemonday.NewPolicy()

	// 属性なしの書式タグのみ許可する。リンクと画像は本文に含めない。
	p.AllowElements(
		"p", "br",
		"ul", "ol", "li",
		"strong", "em",
	)

	return &recipeTextSanitizer{policy: p}
}

// Sanitize は本文をサニタイズして安全なHTMLを返す。
func (s *recipeTextSanitizer) Sanitize(raw string) string {
	return strings.TrimSpace(s.policy.Sanitize(raw))
}
