package chat

import (
	"regexp"
	"strings"
)

var delimiterPattern = regexp.MustCompile(`<s>|</s>|\[INST\]|\[/INST\]`)

// Sanitizer removes prompt artifacts the model echoes back.
type Sanitizer struct {
	prefixes []*regexp.Regexp
}

// NewSanitizer strips delimiter tokens and leading Assistant:, System: or persona labels.
func NewSanitizer(persona string) Sanitizer {
	labels := []string{"Assistant", "System"}
	if p := strings.TrimSpace(persona); p != "" {
		labels = append(labels, regexp.QuoteMeta(p))
	}
	prefixes := make([]*regexp.Regexp, 0, len(labels))
	for _, l := range labels {
		prefixes = append(prefixes, regexp.MustCompile(`(?i)^`+l+`:\s*`))
	}
	return Sanitizer{prefixes: prefixes}
}

// Clean returns text without delimiters or role prefixes.
func (s Sanitizer) Clean(text string) string {
	cleaned := strings.TrimSpace(delimiterPattern.ReplaceAllString(text, ""))
	for {
		before := cleaned
		for _, p := range s.prefixes {
			cleaned = p.ReplaceAllString(cleaned, "")
		}
		cleaned = strings.TrimSpace(cleaned)
		if cleaned == before {
			return cleaned
		}
	}
}
