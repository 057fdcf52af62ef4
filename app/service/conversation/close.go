package conversation

import (
	"context"
	"courtchat/app/client/llm"
	"courtchat/app/model"
	"courtchat/app/service/prompt"
	"courtchat/app/service/summary"
	"courtchat/app/util/mylog"
	"fmt"
	"log/slog"
	"strings"
)

// Close ends the conversation and, when it was long enough, prepends one closing summary to
// the stored list of every character except the player. Closing twice stores two summaries.
func (c *Conversation) Close(ctx context.Context) error {
	cfg := c.cfg.Conversation

	c.isOpen = false

	if err := c.bridge.Signal(cfg.CloseEvent); err != nil {
		slog.Error("Failed to signal conversation end", "conversation", c.id, "error", err)
	}

	c.bridge.ClearAfter(cfg.ClearDelay)

	if c.history.Total() < cfg.MinMessagesToSummarize {
		slog.Info("Not enough messages, conversation is not summarized",
			"conversation", c.id,
			"messages", c.history.Total(),
		)
		return nil
	}

	content, err := c.summarize(ctx)
	if err != nil {
		return fmt.Errorf("failed to summarize conversation: %w", err)
	}

	closing := model.Summary{
		Date:    c.game.Date,
		Content: content,
	}

	for _, character := range c.game.Characters {
		if character.ID == c.game.PlayerID {
			continue
		}

		key := summary.Key{PlayerID: c.game.PlayerID, CounterpartID: character.ID}

		list, err := c.store.Load(ctx, key)
		if err != nil {
			return fmt.Errorf("failed to load summaries of %d: %w", character.ID, err)
		}

		list = append([]model.Summary{closing}, list...)

		if err = c.store.Save(ctx, key, list); err != nil {
			return fmt.Errorf("failed to save summaries of %d: %w", character.ID, err)
		}

		if character.ID == c.game.AIID {
			c.summaries = list
		}
	}

	slog.Info("Conversation summarized",
		"conversation", c.id,
		"date", closing.Date,
		"summary", closing.Content,
		mylog.TelegramAttr, true,
	)

	return nil
}

func (c *Conversation) summarize(ctx context.Context) (string, error) {
	var names []string
	for _, character := range c.game.Characters {
		if character.ID != c.game.PlayerID {
			names = append(names, character.FullName)
		}
	}

	chat := c.builder.Summarize(prompt.SummarizeInput{
		PlayerName:     c.game.Player().FullName,
		Characters:     names,
		Date:           c.game.Date,
		RunningSummary: c.currentSummary,
		Messages:       c.history.Messages(),
	})

	summarizer := c.conns.Summarization

	var p llm.Prompt
	if summarizer.IsChat() {
		p = llm.ChatPrompt(chat)
	} else {
		p = llm.TextPrompt(c.builder.ToTextNoNames(chat))
	}

	result, err := summarizer.Complete(ctx, p, false, llm.Options{}, nil)
	if err != nil {
		return "", err
	}

	return strings.TrimSpace(result), nil
}
