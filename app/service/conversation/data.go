package conversation

import (
	"courtchat/app/client/game"
	"courtchat/app/model"
	"courtchat/app/service/actions"
	"errors"
	"time"
)

var (
	ErrClosed         = errors.New("conversation is closed")
	ErrNoConversation = errors.New("no active conversation")
)

// Display receives everything the player should see.
type Display interface {
	StreamStart()
	StreamMessage(msg model.Message)
	MessageReceive(msg model.Message, actionsEnabled bool)
	ActionsReceive(actions []model.ActionResponse)
}

// Bridge signals the running game.
type Bridge interface {
	Signal(event string) error
	Clear() error
	// ClearAfter schedules a clear that a later Clear cancels.
	ClearAfter(delay time.Duration)
	Append(line string) error
}

// Scripts resolves the user-editable parts of a conversation.
type Scripts interface {
	Description(gd *game.Data) (string, error)
	ExampleMessages(gd *game.Data) ([]model.Message, error)
	EnabledActions(disabled []string) ([]actions.Action, error)
}
