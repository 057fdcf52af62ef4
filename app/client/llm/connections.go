package llm

import (
	"courtchat/app/config"
	"log/slog"
)

// Connections are the three independently resolved references used by a conversation.
// Each one points at the text generation connection unless configured separately.
type Connections struct {
	TextGen       Generator
	Summarization Generator
	Actions       Generator
}

func NewConnections(cfg config.Connections) Connections {
	textGen := NewConnection(cfg.TextGeneration)

	result := Connections{
		TextGen:       textGen,
		Summarization: textGen,
		Actions:       textGen,
	}

	if cfg.Summarization != nil {
		result.Summarization = NewConnection(*cfg.Summarization)
	}

	if cfg.Actions != nil {
		result.Actions = NewConnection(*cfg.Actions)
	}

	slog.Info("Connections resolved",
		"text_generation", cfg.TextGeneration.Model,
		"context_size", textGen.ContextSize(),
		"separate_summarization", cfg.Summarization != nil,
		"separate_actions", cfg.Actions != nil,
	)

	return result
}
