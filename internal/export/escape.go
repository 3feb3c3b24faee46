package export

import "strings"

// The five XML-significant characters, replaced in this exact order so the
// ampersands introduced by later substitutions are not escaped twice.
var escapePairs = [...][2]string{
	{"&", "&amp;"},
	{"<", "&lt;"},
	{">", "&gt;"},
	{`"`, "&quot;"},
	{"'", "&apos;"},
}

// Escape replaces the five reserved XML characters with their entities.
// Everything else passes through unchanged; an empty string stays empty.
func Escape(s string) string {
	for _, p := range escapePairs {
		s = strings.ReplaceAll(s, p[0], p[1])
	}

	return s
}

// Unescape reverses Escape, substituting entities back in reverse order so
// that &amp; is resolved last.
func Unescape(s string) string {
	for i := len(escapePairs) - 1; i >= 0; i-- {
		s = strings.ReplaceAll(s, escapePairs[i][1], escapePairs[i][0])
	}

	return s
}
