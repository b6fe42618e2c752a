package llm

import "strings"

const fence = "```"

// CleanJSONBlock removes a markdown code fence around a reply, including an
// optional language tag on the opening line. Text without a leading fence is
// only trimmed.
func CleanJSONBlock(text string) string {
	text = strings.TrimSpace(text)
	if !strings.HasPrefix(text, fence) {
		return text
	}

	body := strings.TrimPrefix(text, fence)
	if newline := strings.IndexByte(body, '\n'); newline >= 0 {
		tag := strings.TrimSpace(body[:newline])
		if tag == "" || isLanguageTag(tag) {
			body = body[newline+1:]
		}
	} else {
		body = strings.TrimPrefix(body, "json")
	}

	if end := strings.LastIndex(body, fence); end >= 0 {
		body = body[:end]
	}
	return strings.TrimSpace(body)
}

func isLanguageTag(s string) bool {
	if len(s) > 16 {
		return false
	}
	for _, r := range s {
		if !(r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || r >= '0' && r <= '9' || r == '-' || r == '_') {
			return false
		}
	}
	return true
}
