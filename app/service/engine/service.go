package engine

import (
	"context"
	"courtchat/app/config"
	"courtchat/app/service/conversation"
	"courtchat/app/service/queue"
	"courtchat/app/util/mylog"
	"fmt"
	"log/slog"
	"time"

	"github.com/samber/do"
)

// Conversations executes player commands against the active conversation.
type Conversations interface {
	Start(ctx context.Context) error
	Say(ctx context.Context, text string) error
	Close(ctx context.Context) error
	Reload(cfg *config.Config) error
}

type Service struct {
	conversations Conversations
	queueSvc      *queue.Service
	loadConfig    func() (*config.Config, error)
}

func New(di *do.Injector) (*Service, error) {
	return &Service{
		conversations: do.MustInvoke[*conversation.Service](di),
		queueSvc:      do.MustInvoke[*queue.Service](di),
		loadConfig:    config.Load,
	}, nil
}

// Run executes queued commands one at a time until ctx is done or the queue is closed.
func (s *Service) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case cmd, ok := <-s.queueSvc.Channel():
			if !ok {
				return nil
			}

			start := time.Now()
			if err := s.process(ctx, cmd); err != nil {
				slog.Error("Command failed",
					"kind", cmd.Kind,
					"error", err,
					mylog.TelegramAttr, true,
				)
				continue
			}

			slog.Info("Processed command",
				"kind", cmd.Kind,
				"text", cmd.Text,
				"duration", time.Since(start),
			)
		}
	}
}

func (s *Service) process(ctx context.Context, cmd queue.Command) error {
	switch cmd.Kind {
	case queue.KindStart:
		return s.conversations.Start(ctx)
	case queue.KindMessage:
		return s.conversations.Say(ctx, cmd.Text)
	case queue.KindClose:
		return s.conversations.Close(ctx)
	case queue.KindReload:
		cfg, err := s.loadConfig()
		if err != nil {
			return err
		}
		return s.conversations.Reload(cfg)
	default:
		return fmt.Errorf("unknown command kind %q", cmd.Kind)
	}
}
