package app

import (
	"strings"
	"unicode/utf8"

	"golang.org/x/net/html"
)

const maxCommentRunes = 2000

// sanitizeComment drops markup and returns the visible text. Script and
// style bodies are discarded.
func sanitizeComment(raw string) string {
	z := html.NewTokenizer(strings.NewReader(raw))
	var b strings.Builder
	skip := 0
	for {
		switch z.Next() {
		case html.ErrorToken:
			return strings.TrimSpace(b.String())
		case html.TextToken:
			if skip == 0 {
				b.WriteString(z.Token().Data)
			}
		case html.StartTagToken:
			if isRawTextTag(z) {
				skip++
			}
		case html.EndTagToken:
			if isRawTextTag(z) && skip > 0 {
				skip--
			}
		}
	}
}

func isRawTextTag(z *html.Tokenizer) bool {
	name, _ := z.TagName()
	switch string(name) {
	case "script", "style":
		return true
	}
	return false
}

func validateComment(raw string) (string, error) {
	text := sanitizeComment(raw)
	if text == "" {
		return "", ErrCommentRequired
	}
	if utf8.RuneCountInString(text) > maxCommentRunes {
		return "", ErrCommentTooLong
	}
	return text, nil
}
