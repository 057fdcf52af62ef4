package main

import (
	"context"
	"courtchat/app/client/game"
	"courtchat/app/config"
	"courtchat/app/console"
	"courtchat/app/server"
	"courtchat/app/service/conversation"
	"courtchat/app/service/display"
	"courtchat/app/service/engine"
	"courtchat/app/service/queue"
	"courtchat/app/service/summary"
	"courtchat/app/util/mylog"
	"errors"
	"log/slog"
	"os"
	"os/signal"

	"github.com/gofiber/fiber/v2/log"
	"github.com/samber/do"
	"golang.org/x/sync/errgroup"
)

func main() {
	di := do.New()
	defer di.Shutdown()
	defer log.Info("Waiting for services to finish...")

	mylog.Preinit()

	appCtx, cancel := context.WithCancel(context.Background())
	defer cancel()
	do.ProvideValue(di, appCtx)

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config load failed: %v", err)
	}
	do.ProvideValue(di, cfg)

	if err = mylog.Init(cfg); err != nil {
		log.Fatalf("logging init failed: %v", err)
	}

	do.Provide(di, summary.New)
	do.Provide(di, display.New)
	do.Provide(di, game.NewClient)
	do.Provide(di, conversation.NewService)
	do.Provide(di, queue.New)
	do.Provide(di, engine.New)
	do.Provide(di, server.New)

	slog.Info("Service started")

	go func() {
		sigint := make(chan os.Signal, 1)
		signal.Notify(sigint, os.Interrupt)
		<-sigint

		log.Info("Shutting down...")

		cancel()
	}()

	queueSvc := do.MustInvoke[*queue.Service](di)

	// stdin can't be interrupted, the reader is left behind on shutdown
	go func() {
		if err := console.Read(appCtx, os.Stdin, os.Stdout, queueSvc.Add); err != nil {
			slog.Error("Console reader failed", "error", err)
		}
	}()

	group, groupCtx := errgroup.WithContext(appCtx)
	group.Go(func() error {
		return do.MustInvoke[*engine.Service](di).Run(groupCtx)
	})
	group.Go(func() error {
		return do.MustInvoke[*server.Server](di).Run(groupCtx)
	})

	if err = group.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		log.Errorf("service failed: %v", err)
	}
}
