package chat

import (
	"strings"
	"unicode/utf8"

	"github.com/howard-nolan/chatrelay/internal/provider"
)

// Extract normalizes a provider response into reply text. The bool is
// false when nothing usable was found.
//
// Lookup order:
//  1. a top-level "text" string, trimmed
//  2. candidates[0].content.parts[*].text, non-empty fragments joined by a
//     single space, trimmed
//
// Every descent step checks the shape it expects, so an unexpected layout
// yields ("", false) instead of a panic.
func Extract(resp provider.Response) (string, bool) {
	if text, ok := directText(resp); ok {
		return text, true
	}
	return candidateText(resp)
}

func directText(resp provider.Response) (string, bool) {
	s, ok := resp["text"].(string)
	if !ok {
		return "", false
	}
	s = strings.TrimSpace(s)
	return s, s != ""
}

func candidateText(resp provider.Response) (string, bool) {
	candidates, ok := resp["candidates"].([]any)
	if !ok || len(candidates) == 0 {
		return "", false
	}
	first, ok := candidates[0].(map[string]any)
	if !ok {
		return "", false
	}
	content, ok := first["content"].(map[string]any)
	if !ok {
		return "", false
	}
	parts, ok := content["parts"].([]any)
	if !ok {
		return "", false
	}

	fragments := make([]string, 0, len(parts))
	for _, p := range parts {
		part, ok := p.(map[string]any)
		if !ok {
			continue
		}
		if s, ok := part["text"].(string); ok && s != "" {
			fragments = append(fragments, s)
		}
	}

	text := strings.TrimSpace(strings.Join(fragments, " "))
	return text, text != ""
}

// truncate caps s at n characters (runes). No marker is appended.
func truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	count := 0
	for i := range s {
		if count == n {
			return s[:i]
		}
		count++
	}
	return s
}
