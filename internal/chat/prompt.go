package chat

import (
	"strings"

	"github.com/jmahrt/portfolio/internal/domain"
)

// Mistral instruction delimiters.
const (
	tokenBOS       = "<s>"
	tokenEOS       = "</s>"
	tokenInst      = "[INST]"
	tokenInstEnd   = "[/INST]"
	defaultPersona = "Albert"
	userLabel      = "User"
)

// continuityText steers the model once it has already greeted the visitor.
const continuityText = "This is a continuing conversation with the user. Maintain context from previous messages. " +
	"Do not introduce yourself again if you have already done so. "

const directReplyText = "Respond directly to the user's most recent query.\n\n"

// Formatter renders a conversation into a single instruction prompt.
type Formatter struct {
	Persona string
}

// NewFormatter returns a formatter labelling assistant turns with persona.
func NewFormatter(persona string) Formatter {
	if strings.TrimSpace(persona) == "" {
		persona = defaultPersona
	}
	return Formatter{Persona: persona}
}

// Format builds the prompt. system overrides any system message in conv.
func (f Formatter) Format(conv []domain.Message, system string) string {
	if system == "" {
		system, _ = domain.SystemMessage(conv)
	}

	var b strings.Builder
	if system != "" {
		b.WriteString(tokenBOS + tokenInst + " System: ")
		b.WriteString(system)
		b.WriteString(" " + tokenInstEnd + tokenEOS + "\n\n")
	}

	b.WriteString(tokenBOS + tokenInst + "\n")
	if domain.HasAssistantTurn(conv) {
		b.WriteString(continuityText)
	}
	b.WriteString(directReplyText)

	b.WriteString("Conversation history:\n")
	for _, m := range conv {
		if m.Role == domain.RoleSystem {
			continue
		}
		b.WriteString(f.label(m.Role))
		b.WriteString(": ")
		b.WriteString(m.Content)
		b.WriteString("\n\n")
	}

	b.WriteString(tokenInstEnd + " ")
	return b.String()
}

func (f Formatter) label(r domain.Role) string {
	if r == domain.RoleUser {
		return userLabel
	}
	if f.Persona == "" {
		return defaultPersona
	}
	return f.Persona
}
