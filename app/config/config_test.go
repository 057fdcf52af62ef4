package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const minimalConfig = `
connections:
  text_generation:
    base_url: http://localhost:5000/v1
    model: local-model
    chat: true
scripts:
  dir: data/scripts
  description: default.tmpl
  example_messages: default.yaml
game:
  user_folder_path: /tmp/game
`

func TestParseAppliesDefaults(t *testing.T) {
	cfg, err := Parse([]byte(minimalConfig))
	require.NoError(t, err)

	assert.Equal(t, 300, cfg.Conversation.MaxTokens)
	assert.Equal(t, 40, cfg.Conversation.PercentOfContextToSummarize)
	assert.Equal(t, "talk_event.9002", cfg.Conversation.CloseEvent)
	assert.Equal(t, 500*time.Millisecond, cfg.Conversation.ClearDelay)
	assert.Equal(t, 6, cfg.Conversation.MinMessagesToSummarize)
	assert.Equal(t, "file", cfg.Storage.Driver)
	assert.Nil(t, cfg.Connections.Summarization)
	assert.Nil(t, cfg.Connections.Actions)
}

func TestParseOverrides(t *testing.T) {
	cfg, err := Parse([]byte(minimalConfig + `
conversation:
  stream: true
  percent_of_context_to_summarize: 50
  clear_delay: 2s
storage:
  driver: sqlite
`))
	require.NoError(t, err)

	assert.True(t, cfg.Conversation.Stream)
	assert.Equal(t, 50, cfg.Conversation.PercentOfContextToSummarize)
	assert.Equal(t, 2*time.Second, cfg.Conversation.ClearDelay)
	assert.Equal(t, "sqlite", cfg.Storage.Driver)
}

func TestParseValidation(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{
			name: "missing connection model",
			yaml: `
connections:
  text_generation:
    base_url: http://localhost:5000/v1
scripts: {dir: d, description: a, example_messages: b}
game: {user_folder_path: /tmp}
`,
		},
		{
			name: "percent above hundred",
			yaml: minimalConfig + `
conversation:
  percent_of_context_to_summarize: 150
`,
		},
		{
			name: "unknown storage driver",
			yaml: minimalConfig + `
storage:
  driver: redis
`,
		},
		{
			name: "invalid override connection",
			yaml: `
connections:
  text_generation:
    base_url: http://localhost:5000/v1
    model: local-model
  summarization:
    model: summarizer
scripts: {dir: d, description: a, example_messages: b}
game: {user_folder_path: /tmp}
`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.yaml))
			assert.Error(t, err)
		})
	}
}
