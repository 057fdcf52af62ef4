package conversation

import (
	"context"
	"courtchat/app/client/game"
	"courtchat/app/client/llm"
	"courtchat/app/config"
	"courtchat/app/model"
	"courtchat/app/service/actions"
	"courtchat/app/service/prompt"
	"courtchat/app/service/summary"
	"fmt"
	"log/slog"
	"math/rand"
	"time"

	"github.com/google/uuid"
)

type Deps struct {
	Config      *config.Config
	Game        *game.Data
	Connections llm.Connections
	Scripts     Scripts
	Store       summary.Store
	Bridge      Bridge
	Display     Display
	// Rand orders the speakers of a round, seeded from the clock when nil
	Rand *rand.Rand
}

// Conversation is one open talk between the player and the characters of game data.
// It is driven by a single goroutine and is not safe for concurrent use.
type Conversation struct {
	id      uuid.UUID
	game    *game.Data
	store   summary.Store
	bridge  Bridge
	display Display
	rand    *rand.Rand

	cfg       *config.Config
	conns     llm.Connections
	builder   *prompt.Builder
	extractor *actions.Extractor

	description     string
	exampleMessages []model.Message
	actions         []actions.Action

	isOpen         bool
	history        History
	currentSummary string
	summaries      []model.Summary
}

func New(ctx context.Context, deps Deps) (*Conversation, error) {
	rnd := deps.Rand
	if rnd == nil {
		rnd = rand.New(rand.NewSource(time.Now().UnixNano()))
	}

	c := &Conversation{
		id:      uuid.New(),
		game:    deps.Game,
		store:   deps.Store,
		bridge:  deps.Bridge,
		display: deps.Display,
		rand:    rnd,
		isOpen:  true,
	}

	summaries, err := c.store.Load(ctx, c.primaryKey())
	if err != nil {
		return nil, fmt.Errorf("failed to load summaries: %w", err)
	}
	c.summaries = summaries

	if err = c.UpdateConfig(deps.Config, deps.Scripts, deps.Connections); err != nil {
		return nil, err
	}

	slog.Info("Conversation started",
		"conversation", c.id,
		"player", c.game.PlayerID,
		"counterpart", c.game.AIID,
		"characters", len(c.game.Characters),
		"summaries", len(c.summaries),
	)

	return c, nil
}

// UpdateConfig re-resolves scripts and connections. A broken script aborts the update and
// leaves the previous state in place.
func (c *Conversation) UpdateConfig(cfg *config.Config, scripts Scripts, conns llm.Connections) error {
	description, err := scripts.Description(c.game)
	if err != nil {
		return err
	}

	exampleMessages, err := scripts.ExampleMessages(c.game)
	if err != nil {
		return err
	}

	enabledActions, err := scripts.EnabledActions(cfg.Conversation.DisabledActions)
	if err != nil {
		return err
	}

	if err = c.bridge.Clear(); err != nil {
		return fmt.Errorf("failed to clear run file: %w", err)
	}

	builder := prompt.New(cfg.Conversation)

	c.cfg = cfg
	c.conns = conns
	c.builder = builder
	c.extractor = actions.NewExtractor(conns.Actions, builder, c.bridge)
	c.description = description
	c.exampleMessages = exampleMessages
	c.actions = enabledActions

	slog.Debug("Conversation config loaded",
		"conversation", c.id,
		"stream", cfg.Conversation.Stream,
		"actions", len(enabledActions),
		"example_messages", len(exampleMessages),
	)

	return nil
}

func (c *Conversation) PushMessage(msg model.Message) {
	c.history.Append(msg)
}

func (c *Conversation) ID() uuid.UUID {
	return c.id
}

func (c *Conversation) Game() *game.Data {
	return c.game
}

func (c *Conversation) IsOpen() bool {
	return c.isOpen
}

func (c *Conversation) Messages() []model.Message {
	return c.history.Messages()
}

func (c *Conversation) CurrentSummary() string {
	return c.currentSummary
}

// Summaries are the closing summaries of earlier conversations with the primary counterpart.
func (c *Conversation) Summaries() []model.Summary {
	return append([]model.Summary(nil), c.summaries...)
}

func (c *Conversation) primaryKey() summary.Key {
	return summary.Key{PlayerID: c.game.PlayerID, CounterpartID: c.game.AIID}
}
