package chat

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSanitizerClean(t *testing.T) {
	s := NewSanitizer("Albert")

	tests := []struct {
		name string
		in   string
		want string
	}{
		{"plain", "Hello there.", "Hello there."},
		{"delimiters", "<s>[INST] Hello [/INST]</s>", "Hello"},
		{"assistant label", "Assistant: Hello", "Hello"},
		{"system label", "system:   Hello", "Hello"},
		{"persona label", "Albert: Hello", "Hello"},
		{"label after delimiter", "</s>Assistant: Hello [/INST]", "Hello"},
		{"stacked labels", "Albert: Assistant: Hello", "Hello"},
		{"label mid text kept", "I said Assistant: hi", "I said Assistant: hi"},
		{"whitespace only", "  \n ", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, s.Clean(tt.in))
		})
	}
}
