package summary

import (
	"context"
	"courtchat/app/config"
	"courtchat/app/model"
	"fmt"

	"github.com/samber/do"
)

// Key identifies the summaries a player shares with one counterpart.
type Key struct {
	PlayerID      int
	CounterpartID int
}

func (k Key) String() string {
	return fmt.Sprintf("%d/%d", k.PlayerID, k.CounterpartID)
}

// Store persists closing summaries, newest first.
type Store interface {
	// Load returns the stored list, creating an empty one on first access.
	Load(ctx context.Context, key Key) ([]model.Summary, error)
	Save(ctx context.Context, key Key, summaries []model.Summary) error
}

func New(di *do.Injector) (Store, error) {
	cfg := do.MustInvoke[*config.Config](di)

	switch cfg.Storage.Driver {
	case "sqlite":
		return NewSQLiteStore(cfg.Storage.SQLitePath)
	default:
		return NewFileStore(cfg.Storage.Dir)
	}
}
