package search

import (
	"regexp"
	"strings"
)

var wordRE = regexp.MustCompile(`\p{L}+\p{N}*`)

func tokenize(s string, stop map[string]struct{}) map[string]struct{} {
	s = strings.ToLower(s)
	words := wordRE.FindAllString(s, -1)
	if len(words) == 0 {
		return nil
	}
	out := make(map[string]struct{}, len(words))
	for _, w := range words {
		if w == "" {
			continue
		}
		if stop != nil {
			if _, skip := stop[w]; skip {
				continue
			}
		}
		out[w] = struct{}{}
	}
	return out
}

func normalizeWhitespace(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	prevSpace := false
	for _, r := range s {
		if r == ' ' || r == '\t' || r == '\r' || r == '\n' {
			if !prevSpace {
				b.WriteByte(' ')
				prevSpace = true
			}
			continue
		}
		prevSpace = false
		b.WriteRune(r)
	}
	return b.String()
}

// ListingText flattens the fields of a product listing into one indexable
// string. Nil optional fields contribute nothing.
func ListingText(title string, description, category *string) string {
	parts := make([]string, 0, 3)
	if title != "" {
		parts = append(parts, title)
	}
	if description != nil && *description != "" {
		parts = append(parts, *description)
	}
	if category != nil && *category != "" {
		parts = append(parts, *category)
	}
	return strings.Join(parts, " ")
}

// ConversationText flattens a conversation summary (product title, the other
// participant's name, last message preview) into one indexable string.
func ConversationText(productTitle string, otherUserName, lastMessage *string) string {
	parts := make([]string, 0, 3)
	if productTitle != "" {
		parts = append(parts, productTitle)
	}
	if otherUserName != nil && *otherUserName != "" {
		parts = append(parts, *otherUserName)
	}
	if lastMessage != nil && *lastMessage != "" {
		parts = append(parts, *lastMessage)
	}
	return strings.Join(parts, " ")
}
