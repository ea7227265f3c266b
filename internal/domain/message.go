// Package domain contains core domain types for the portfolio backend.
package domain

import "strings"

// Role identifies the author of a chat message.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleSystem, RoleUser, RoleAssistant:
		return true
	}
	return false
}

// Message is a single role-tagged chat turn.
type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// LastUserMessage returns the content of the newest user message.
func LastUserMessage(conv []Message) (string, bool) {
	for i := len(conv) - 1; i >= 0; i-- {
		if conv[i].Role == RoleUser {
			return conv[i].Content, true
		}
	}
	return "", false
}

// SystemMessage returns the content of the first system message.
func SystemMessage(conv []Message) (string, bool) {
	for _, m := range conv {
		if m.Role == RoleSystem {
			return m.Content, true
		}
	}
	return "", false
}

// HasAssistantTurn reports whether the assistant has already replied at least once.
func HasAssistantTurn(conv []Message) bool {
	for _, m := range conv {
		if m.Role == RoleAssistant && strings.TrimSpace(m.Content) != "" {
			return true
		}
	}
	return false
}
