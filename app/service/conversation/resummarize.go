package conversation

import (
	"context"
	"courtchat/app/client/llm"
	"fmt"
	"log/slog"
)

// resummarize folds the oldest messages, worth percent_of_context_to_summarize of the
// context window, into the running summary. The summary is overwritten, the prompt carries
// the previous one so nothing is lost.
func (c *Conversation) resummarize(ctx context.Context) error {
	textGen := c.conns.TextGen
	target := float64(textGen.ContextSize()) * float64(c.cfg.Conversation.PercentOfContextToSummarize) / 100

	// the prefix is measured first and evicted only after the summary is in, a failed call
	// leaves the history untouched
	messages := c.history.Messages()

	count, cost := 0, 0
	for float64(cost) < target && count < len(messages) {
		cost += textGen.MessageTokens(messages[count])
		count++
	}

	if count == 0 {
		slog.Debug("Nothing to resummarize", "conversation", c.id)
		return nil
	}

	evicted := messages[:count]

	summarizer := c.conns.Summarization
	chat := c.builder.Resummarize(c.currentSummary, evicted)

	var p llm.Prompt
	if summarizer.IsChat() {
		p = llm.ChatPrompt(chat)
	} else {
		p = llm.TextPrompt(c.builder.ToTextNoNames(chat))
	}

	newSummary, err := summarizer.Complete(ctx, p, false, llm.Options{}, nil)
	if err != nil {
		return fmt.Errorf("failed to summarize evicted messages: %w", err)
	}

	for range count {
		c.history.EvictFront()
	}

	slog.Debug("Resummarized conversation",
		"conversation", c.id,
		"target", target,
		"evicted", count,
		"evicted_tokens", cost,
		"remaining", c.history.Len(),
		"previous_summary", c.currentSummary,
		"summary", newSummary,
	)

	c.currentSummary = newSummary

	return nil
}
