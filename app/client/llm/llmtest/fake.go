// Package llmtest provides a scripted generation service for tests.
package llmtest

import (
	"context"
	"courtchat/app/client/llm"
	"courtchat/app/model"
	"strings"
	"sync"
)

var _ llm.Generator = (*Fake)(nil)

type Response struct {
	Text   string
	Chunks []string
	Err    error
}

type Call struct {
	Prompt llm.Prompt
	Stream bool
	Opts   llm.Options
}

// Fake answers Complete calls with Responses in order and an empty string once they run out.
// Without MessageCost every word costs one token.
type Fake struct {
	Context     int
	Chat        bool
	MessageCost func(msg model.Message) int
	Responses   []Response

	mu    sync.Mutex
	calls []Call
}

func (f *Fake) ContextSize() int {
	return f.Context
}

func (f *Fake) IsChat() bool {
	return f.Chat
}

func (f *Fake) Tokens(prompt llm.Prompt) int {
	if !prompt.IsChat() {
		return len(strings.Fields(prompt.Text()))
	}

	total := 0
	for _, msg := range prompt.Messages() {
		total += f.MessageTokens(msg)
	}

	return total
}

func (f *Fake) MessageTokens(msg model.Message) int {
	if f.MessageCost != nil {
		return f.MessageCost(msg)
	}

	return len(strings.Fields(msg.Content))
}

func (f *Fake) Complete(
	_ context.Context,
	prompt llm.Prompt,
	stream bool,
	opts llm.Options,
	onChunk llm.ChunkFunc,
) (string, error) {
	f.mu.Lock()
	f.calls = append(f.calls, Call{Prompt: prompt, Stream: stream, Opts: opts})

	var resp Response
	if len(f.Responses) > 0 {
		resp = f.Responses[0]
		f.Responses = f.Responses[1:]
	}
	f.mu.Unlock()

	if resp.Err != nil {
		return "", resp.Err
	}

	if !stream {
		if resp.Text == "" && len(resp.Chunks) > 0 {
			return strings.Join(resp.Chunks, ""), nil
		}
		return resp.Text, nil
	}

	chunks := resp.Chunks
	if len(chunks) == 0 && resp.Text != "" {
		chunks = []string{resp.Text}
	}

	var builder strings.Builder
	for _, chunk := range chunks {
		builder.WriteString(chunk)
		if onChunk != nil {
			onChunk(model.MessageChunk{Content: chunk})
		}
	}

	return builder.String(), nil
}

func (f *Fake) Calls() []Call {
	f.mu.Lock()
	defer f.mu.Unlock()

	return append([]Call(nil), f.calls...)
}
