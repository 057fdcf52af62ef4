package conversation

import (
	"context"
	"courtchat/app/client/game"
	"courtchat/app/client/llm"
	"courtchat/app/model"
	"courtchat/app/service/actions"
	"courtchat/app/service/cleaner"
	"courtchat/app/service/prompt"
	"fmt"
	"log/slog"
	"strings"

	"github.com/elliotchance/pie/v2"
)

// GenerateRound lets every character except the player speak once, in random order. Turns
// run one after another since each of them reads and changes the history.
func (c *Conversation) GenerateRound(ctx context.Context) error {
	if !c.isOpen {
		return ErrClosed
	}

	speakers := pie.Filter(c.game.Characters, func(ch game.Character) bool {
		return ch.ID != c.game.PlayerID
	})

	for _, character := range pie.Shuffle(speakers, c.rand) {
		if err := c.generateMessage(ctx, character); err != nil {
			return err
		}
	}

	c.display.ActionsReceive([]model.ActionResponse{})

	return nil
}

func (c *Conversation) generateMessage(ctx context.Context, character game.Character) error {
	cfg := c.cfg.Conversation
	textGen := c.conns.TextGen

	if cfg.Stream {
		c.display.StreamStart()
	}

	p := c.turnPrompt(character)

	tokens := textGen.Tokens(p)
	slog.Debug("Current tokens",
		"conversation", c.id,
		"character", character.FullName,
		"tokens", tokens,
		"context", textGen.ContextSize(),
	)

	if tokens > textGen.ContextSize() {
		slog.Info("Context limit hit, resummarizing conversation",
			"conversation", c.id,
			"tokens", tokens,
			"context", textGen.ContextSize(),
		)

		if err := c.resummarize(ctx); err != nil {
			return fmt.Errorf("failed to resummarize: %w", err)
		}

		p = c.turnPrompt(character)
	}

	opts := llm.Options{MaxTokens: cfg.MaxTokens}
	if !p.IsChat() {
		opts.Stop = c.builder.StopSequences()
	}

	var streamed strings.Builder
	relay := func(chunk model.MessageChunk) {
		streamed.WriteString(chunk.Content)
		c.display.StreamMessage(model.Message{
			Role:    model.RoleAssistant,
			Name:    character.FullName,
			Content: streamed.String(),
		})
	}

	content, err := textGen.Complete(ctx, p, cfg.Stream, opts, relay)
	if err != nil {
		return fmt.Errorf("failed to generate message of %s: %w", character.FullName, err)
	}

	msg := model.Message{
		Role:    model.RoleAssistant,
		Name:    character.FullName,
		Content: content,
	}
	if cfg.CleanMessages {
		msg = cleaner.Clean(msg)
	}

	c.PushMessage(msg)

	if !cfg.Stream {
		c.display.MessageReceive(msg, cfg.ActionsEnableAll)
	}

	if character.ID == c.game.AIID {
		c.display.ActionsReceive(c.collectActions(ctx))
	}

	return nil
}

// turnPrompt builds the candidate prompt in the mode of the text generation connection.
func (c *Conversation) turnPrompt(character game.Character) llm.Prompt {
	chat := c.builder.Chat(prompt.ChatInput{
		Character:       character.FullName,
		PlayerName:      c.game.Player().FullName,
		Description:     c.description,
		ExampleMessages: c.exampleMessages,
		Summaries:       c.summaries,
		RunningSummary:  c.currentSummary,
		Messages:        c.history.Messages(),
	})

	if c.conns.TextGen.IsChat() {
		return llm.ChatPrompt(chat)
	}

	return llm.TextPrompt(c.builder.ToText(chat, character.FullName))
}

// collectActions never fails: extraction errors degrade to an empty list.
func (c *Conversation) collectActions(ctx context.Context) []model.ActionResponse {
	if !c.cfg.Conversation.ActionsEnableAll {
		return []model.ActionResponse{}
	}

	result, err := c.checkActions(ctx)
	if err != nil {
		slog.Warn("Action extraction failed", "conversation", c.id, "error", err)
		return []model.ActionResponse{}
	}

	return result
}

func (c *Conversation) checkActions(ctx context.Context) (result []model.ActionResponse, err error) {
	defer func() {
		if r := recover(); r != nil {
			result, err = nil, fmt.Errorf("action extraction panicked: %v", r)
		}
	}()

	return c.extractor.Check(ctx, actions.State{
		Game:           c.game,
		Messages:       c.history.Messages(),
		RunningSummary: c.currentSummary,
		Actions:        c.actions,
	})
}
