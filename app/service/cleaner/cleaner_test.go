package cleaner

import (
	"courtchat/app/model"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClean(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "speaker tag",
			input:    "Matilda: Welcome to Rouen.",
			expected: "Welcome to Rouen.",
		},
		{
			name:     "unfinished sentence",
			input:    "Welcome to Rouen. The harvest was poor and the",
			expected: "Welcome to Rouen.",
		},
		{
			name:     "single fragment is kept",
			input:    "Welcome to Rouen and the",
			expected: "Welcome to Rouen and the",
		},
		{
			name:     "emoji and spaces",
			input:    "Welcome \U0001F600   friend!",
			expected: "Welcome friend!",
		},
		{
			name:     "blank lines",
			input:    "First.\n\n\n\nSecond.",
			expected: "First.\n\nSecond.",
		},
		{
			name:     "emote ending",
			input:    "Leave me. *turns away*",
			expected: "Leave me. *turns away*",
		},
		{
			name:     "ellipsis",
			input:    "Perhaps. Perhaps not…",
			expected: "Perhaps. Perhaps not…",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg := Clean(model.Message{Role: model.RoleAssistant, Name: "Matilda", Content: tt.input})
			assert.Equal(t, tt.expected, msg.Content)
			assert.Equal(t, "Matilda", msg.Name)
		})
	}
}
