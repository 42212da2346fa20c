// Package template renders message bodies and subjects by substituting
// {name} placeholders from a variable map.
package template

import "strings"

// Render replaces every {name} occurrence in tpl with vars[name]. An
// unknown placeholder is left verbatim. The template is scanned once,
// left to right, and substituted values are emitted literally, so a
// value that itself contains {...} tokens is never re-substituted.
func Render(tpl string, vars map[string]string) string {
	if !strings.Contains(tpl, "{") {
		return tpl
	}

	var b strings.Builder
	b.Grow(len(tpl))

	for {
		open := strings.IndexByte(tpl, '{')
		if open < 0 {
			b.WriteString(tpl)
			return b.String()
		}
		b.WriteString(tpl[:open])
		rest := tpl[open:]

		close := strings.IndexByte(rest, '}')
		if close < 0 {
			// Unterminated placeholder, copy as-is.
			b.WriteString(rest)
			return b.String()
		}

		name := rest[1:close]
		if val, ok := vars[name]; ok {
			b.WriteString(val)
		} else {
			b.WriteString(rest[:close+1])
		}
		tpl = rest[close+1:]
	}
}
