// Package render turns TT-RSS headlines into terminal text.
package render

import (
	"fmt"
	"strings"
	"unicode/utf8"

	markdown "github.com/JohannesKaufmann/html-to-markdown"

	"github.com/odysseus0/feedline/internal/model"
)

const (
	feedColumnWidth   = 20
	defaultExcerptLen = 280
)

type Renderer struct {
	converter *markdown.Converter
}

func NewRenderer() *Renderer {
	return &Renderer{converter: markdown.NewConverter("", true, nil)}
}

// HTMLToMarkdown sanitizes html and converts it to Markdown. If conversion
// fails the visible text is returned instead.
func (r *Renderer) HTMLToMarkdown(raw string) string {
	clean := SanitizeHTML(raw)
	if clean == "" {
		return ""
	}
	out, err := r.converter.ConvertString(clean)
	if err != nil {
		return Compact(stripTags(clean), 0)
	}
	return strings.TrimSpace(out)
}

// Excerpt renders h's excerpt as a single line of at most max runes.
// max <= 0 uses a default.
func (r *Renderer) Excerpt(h model.Headline, max int) string {
	if max <= 0 {
		max = defaultExcerptLen
	}
	return Compact(r.HTMLToMarkdown(h.Excerpt), max)
}

// HeadlineLine formats h as "<feed, right-aligned in 20 columns> | <title>".
func HeadlineLine(h model.Headline) string {
	feed := truncateRunes(h.FeedTitle, feedColumnWidth)
	title := h.Title
	if title == "" {
		title = "(untitled)"
	}
	return fmt.Sprintf("%*s | %s", feedColumnWidth, feed, title)
}

// Compact collapses whitespace and truncates to max runes with an ellipsis.
// max <= 0 disables truncation.
func Compact(s string, max int) string {
	s = strings.Join(strings.Fields(s), " ")
	if max <= 0 || utf8.RuneCountInString(s) <= max {
		return s
	}
	if max <= 3 {
		return truncateRunes(s, max)
	}
	return truncateRunes(s, max-3) + "..."
}

func truncateRunes(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	runes := []rune(s)
	return string(runes[:n])
}

func stripTags(s string) string {
	var b strings.Builder
	inTag := false
	for _, r := range s {
		switch {
		case r == '<':
			inTag = true
		case r == '>':
			inTag = false
			b.WriteRune(' ')
		case !inTag:
			b.WriteRune(r)
		}
	}
	return b.String()
}
