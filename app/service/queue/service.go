package queue

import (
	"log/slog"

	"github.com/samber/do"
)

const bufferSize = 64

var _ do.Shutdownable = (*Service)(nil)

type Kind string

const (
	KindStart   Kind = "start"
	KindMessage Kind = "message"
	KindClose   Kind = "close"
	KindReload  Kind = "reload"
)

// Command is a request of the player, executed by the engine one at a time.
type Command struct {
	Kind Kind
	Text string
}

type Service struct {
	queue chan Command
}

func New(_ *do.Injector) (*Service, error) {
	return &Service{
		queue: make(chan Command, bufferSize),
	}, nil
}

// Add enqueues cmd and reports false when it was dropped.
func (s *Service) Add(cmd Command) (added bool) {
	defer func() {
		if r := recover(); r != nil {
			slog.Warn("Command queue is closed", "kind", cmd.Kind)
			added = false
		}
	}()

	select {
	case s.queue <- cmd:
		return true
	default:
		slog.Warn("Command queue is full", "kind", cmd.Kind)
		return false
	}
}

func (s *Service) Channel() <-chan Command {
	return s.queue
}

func (s *Service) Shutdown() error {
	close(s.queue)

	return nil
}
