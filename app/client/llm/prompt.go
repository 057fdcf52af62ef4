package llm

import (
	"context"
	"courtchat/app/model"
)

// Prompt is either a chat-structured list of turns or a single flattened text block.
type Prompt struct {
	chat   []model.Message
	text   string
	isChat bool
}

func ChatPrompt(messages []model.Message) Prompt {
	return Prompt{chat: messages, isChat: true}
}

func TextPrompt(text string) Prompt {
	return Prompt{text: text}
}

func (p Prompt) IsChat() bool {
	return p.isChat
}

func (p Prompt) Messages() []model.Message {
	return p.chat
}

func (p Prompt) Text() string {
	return p.text
}

type Options struct {
	Stop      []string
	MaxTokens int
}

// ChunkFunc receives streaming deltas in generation order. Empty deltas are not relayed, so
// it may be called fewer times than the provider sent chunks.
type ChunkFunc func(chunk model.MessageChunk)

// Generator is the generation service as seen by the conversation core.
type Generator interface {
	ContextSize() int
	IsChat() bool
	Tokens(prompt Prompt) int
	MessageTokens(msg model.Message) int
	Complete(ctx context.Context, prompt Prompt, stream bool, opts Options, onChunk ChunkFunc) (string, error)
}
