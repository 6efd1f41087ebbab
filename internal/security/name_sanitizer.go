package security

import (
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

// NameSanitizerService は外部データ由来の表示用テキストを無害化するインターフェース。
type NameSanitizerService interface {
	// Clean はHTMLタグを除去し、連続する空白を1つにまとめた平文を返す。
	// 空文字列の入力には空文字列を返す。
	Clean(raw string) string
}

// NameSanitizer はbluemondayのStrictPolicyで全てのタグを除去する。
// bluemonday.Policyはスレッドセーフのため複数goroutineから共有できる。
type NameSanitizer struct {
	policy *bluemonday.Policy
}

// NewNameSanitizer はNameSanitizerを生成する。
func NewNameSanitizer() *NameSanitizer {
	return &NameSanitizer{policy: bluemonday.StrictPolicy()}
}

// Clean はHTMLタグを除去した平文を返す。
// StrictPolicyがエスケープした実体参照は元の文字に戻す。
func (s *NameSanitizer) Clean(raw string) string {
	if raw == "" {
		return ""
	}
	stripped := html.UnescapeString(s.policy.Sanitize(raw))
	return strings.Join(strings.Fields(stripped), " ")
}

// compile-time interface check
var _ NameSanitizerService = (*NameSanitizer)(nil)
