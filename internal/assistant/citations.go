package assistant

import "regexp"

// annotationPattern matches the inline citation markers the provider embeds
// in message text: CJK-bracketed markers like 【4:0†report.pdf】 and the
// square-bracket form [4:0†report.pdf].
var annotationPattern = regexp.MustCompile(`【[^【】]*】|\[\d+:\d+†[^\[\]]*\]`)

// StripAnnotations removes inline citation markers from text. Stripping is
// idempotent: already-stripped text passes through unchanged.
func StripAnnotations(text string) string {
	return annotationPattern.ReplaceAllString(text, "")
}
