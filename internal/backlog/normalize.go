package backlog

import (
	"regexp"
	"strings"
)

// gluedHeadingRepairs fix headings that lost their line break, in order.
// Each runs once over the whole text and text produced by a later repair is
// not revisited by an earlier one. They do not know about code fences, so
// heading-like text inside a fenced example is split as well.
var gluedHeadingRepairs = []struct {
	re   *regexp.Regexp
	repl string
}{
	// rule, then section header
	{regexp.MustCompile(`(?m)^(---+)[ \t]*(##[ \t])`), "$1\n\n$2"},
	// section header, then item header
	{regexp.MustCompile(`(?m)^(##[ \t][^\n#]*?\S)[ \t]*(###[ \t])`), "$1\n\n$2"},
	// rule, then item header
	{regexp.MustCompile(`(?m)^(---+)[ \t]*(###[ \t])`), "$1\n\n$2"},
	// title text, then numbered section header
	{regexp.MustCompile(`([^\n#])[ \t]*(##[ \t]+\d+\.)`), "$1\n\n$2"},
}

// Normalize converts line endings to "\n" and repairs glued headings.
// Text without glued headings passes through unchanged.
func Normalize(text string) string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")

	for _, fix := range gluedHeadingRepairs {
		text = fix.re.ReplaceAllString(text, fix.repl)
	}

	return text
}
