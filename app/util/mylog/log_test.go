package mylog

import (
	"context"
	"courtchat/app/config"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestRouteToTelegram(t *testing.T) {
	errorRecord := slog.NewRecord(time.Now(), slog.LevelError, "failed", 0)

	marked := slog.NewRecord(time.Now(), slog.LevelInfo, "summarized", 0)
	marked.AddAttrs(slog.Bool(TelegramAttr, true))

	plain := slog.NewRecord(time.Now(), slog.LevelInfo, "processed", 0)
	plain.AddAttrs(slog.String("kind", "message"))

	assert.True(t, routeToTelegram(context.Background(), errorRecord))
	assert.True(t, routeToTelegram(context.Background(), marked))
	assert.False(t, routeToTelegram(context.Background(), plain))
}

func TestInitRejectsUnknownLevel(t *testing.T) {
	defer slog.SetDefault(slog.Default())

	assert.Error(t, Init(&config.Config{Log: config.Log{Level: "loud"}}))
	assert.NoError(t, Init(&config.Config{Log: config.Log{Level: "warn"}}))
}
