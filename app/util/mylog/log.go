package mylog

import (
	"context"
	"courtchat/app/config"
	"log/slog"
	"os"

	"github.com/phsym/console-slog"
	"github.com/samber/oops"
	slogmulti "github.com/samber/slog-multi"
	slogtelegram "github.com/samber/slog-telegram/v2"
)

// TelegramAttr marks a record that must reach telegram regardless of its level.
const TelegramAttr = "telegram"

func Preinit() {
	slog.SetDefault(slog.New(newConsoleHandler(slog.LevelDebug)))
}

func Init(cfg *config.Config) error {
	level := slog.LevelDebug
	if cfg.Log.Level != "" {
		if err := level.UnmarshalText([]byte(cfg.Log.Level)); err != nil {
			return oops.Errorf("invalid log level %q: %w", cfg.Log.Level, err)
		}
	}

	router := slogmulti.Router().Add(newConsoleHandler(level))

	if cfg.Log.Telegram.Token != "" {
		router = router.Add(
			slogtelegram.Option{
				Level:     slog.LevelDebug,
				Token:     cfg.Log.Telegram.Token,
				Username:  cfg.Log.Telegram.ChatID,
				AddSource: true,
			}.NewTelegramHandler(),
			routeToTelegram,
		)
	}

	slog.SetDefault(slog.New(router.Handler()))

	return nil
}

func newConsoleHandler(level slog.Level) slog.Handler {
	return console.NewHandler(os.Stderr, &console.HandlerOptions{
		AddSource: true,
		Level:     level,
	})
}

func routeToTelegram(_ context.Context, r slog.Record) bool {
	if r.Level >= slog.LevelError {
		return true
	}

	marked := false
	r.Attrs(func(attr slog.Attr) bool {
		if attr.Key == TelegramAttr {
			marked = true
			return false
		}

		return true
	})

	return marked
}
