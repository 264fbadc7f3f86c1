package notifier

import (
	"html"
	"regexp"
	"strings"
	"unicode/utf16"
)

var tagPattern = regexp.MustCompile(`<(/?)([a-zA-Z]+)[^>]*>`)

// textLen measures s the way the Bot API does, in UTF-16 code units.
func textLen(s string) int {
	n := 0
	for _, r := range s {
		n += utf16.RuneLen(r)
	}
	return n
}

// clipEscaped HTML-escapes plain text, cutting it so the escaped result
// including the trailing ellipsis fits in limit units.
func clipEscaped(s string, limit int) string {
	esc := html.EscapeString(s)
	if textLen(esc) <= limit {
		return esc
	}
	var b strings.Builder
	n := 0
	for _, r := range s {
		e := html.EscapeString(string(r))
		w := textLen(e)
		if n+w > limit-1 {
			break
		}
		b.WriteString(e)
		n += w
	}
	b.WriteString("…")
	return b.String()
}

// truncateHTML cuts an HTML message to at most n units of content, drops a
// tag or entity left partial by the cut and closes any tags still open.
func truncateHTML(s string, n int) string {
	if textLen(s) <= n {
		return s
	}
	cut, used := s, 0
	for pos, r := range s {
		w := utf16.RuneLen(r)
		if used+w > n {
			cut = s[:pos]
			break
		}
		used += w
	}
	if lt := strings.LastIndexByte(cut, '<'); lt > strings.LastIndexByte(cut, '>') {
		cut = cut[:lt]
	}
	// escaped text only carries '&' as an entity start
	if amp := strings.LastIndexByte(cut, '&'); amp > strings.LastIndexByte(cut, ';') {
		cut = cut[:amp]
	}

	var open []string
	for _, m := range tagPattern.FindAllStringSubmatch(cut, -1) {
		name := strings.ToLower(m[2])
		if m[1] == "" {
			open = append(open, name)
			continue
		}
		if k := len(open) - 1; k >= 0 && open[k] == name {
			open = open[:k]
		}
	}

	var b strings.Builder
	b.WriteString(cut)
	b.WriteString("...")
	for k := len(open) - 1; k >= 0; k-- {
		b.WriteString("</" + open[k] + ">")
	}
	return b.String()
}
