package conversation

import (
	"context"
	"courtchat/app/client/game"
	"courtchat/app/client/llm"
	"courtchat/app/config"
	"courtchat/app/model"
	"courtchat/app/service/display"
	"courtchat/app/service/scripts"
	"courtchat/app/service/summary"
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/samber/do"
)

// Service owns the active conversation. It is driven by the engine goroutine only.
type Service struct {
	cfg     *config.Config
	store   summary.Store
	bridge  Bridge
	display Display

	current *Conversation
}

func NewService(di *do.Injector) (*Service, error) {
	return &Service{
		cfg:     do.MustInvoke[*config.Config](di),
		store:   do.MustInvoke[summary.Store](di),
		bridge:  do.MustInvoke[*game.RunFile](di),
		display: do.MustInvoke[*display.Hub](di),
	}, nil
}

// Start reads the game data exported for the new conversation and opens it.
func (s *Service) Start(ctx context.Context) error {
	if s.current != nil && s.current.IsOpen() {
		slog.Warn("Replacing a conversation that was not closed", "conversation", s.current.ID())
	}

	gd, err := game.LoadData(filepath.Join(s.cfg.Game.UserFolderPath, s.cfg.Game.DataFile))
	if err != nil {
		return fmt.Errorf("failed to load game data: %w", err)
	}

	registry, err := scripts.Load(s.cfg.Scripts)
	if err != nil {
		return err
	}

	conv, err := New(ctx, Deps{
		Config:      s.cfg,
		Game:        gd,
		Connections: llm.NewConnections(s.cfg.Connections),
		Scripts:     registry,
		Store:       s.store,
		Bridge:      s.bridge,
		Display:     s.display,
	})
	if err != nil {
		return err
	}

	s.current = conv

	return nil
}

func (s *Service) Current() (*Conversation, error) {
	if s.current == nil {
		return nil, ErrNoConversation
	}

	return s.current, nil
}

// Say adds the player's line to the conversation and lets the other characters answer.
func (s *Service) Say(ctx context.Context, text string) error {
	conv, err := s.Current()
	if err != nil {
		return err
	}
	if !conv.IsOpen() {
		return ErrClosed
	}

	msg := model.Message{
		Role:    model.RoleUser,
		Name:    conv.Game().Player().FullName,
		Content: text,
	}

	conv.PushMessage(msg)
	s.display.MessageReceive(msg, false)

	return conv.GenerateRound(ctx)
}

func (s *Service) Close(ctx context.Context) error {
	conv, err := s.Current()
	if err != nil {
		return err
	}

	return conv.Close(ctx)
}

// Reload applies a new config to the service and the active conversation. Nothing changes
// when the config or one of its scripts is broken.
func (s *Service) Reload(cfg *config.Config) error {
	registry, err := scripts.Load(cfg.Scripts)
	if err != nil {
		return err
	}

	if s.current != nil {
		if err = s.current.UpdateConfig(cfg, registry, llm.NewConnections(cfg.Connections)); err != nil {
			return err
		}
	}

	s.cfg = cfg

	slog.Info("Config updated")

	return nil
}
