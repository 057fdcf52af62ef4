// Package server exposes the player's commands and the display events over HTTP.
package server

import (
	"bufio"
	"context"
	"courtchat/app/config"
	"courtchat/app/service/display"
	"courtchat/app/service/queue"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/samber/do"
)

const eventsBuffer = 256

type messageRequest struct {
	Text string `json:"text"`
}

type Server struct {
	cfg      *config.Config
	queueSvc *queue.Service
	hub      *display.Hub
	app      *fiber.App
}

func New(di *do.Injector) (*Server, error) {
	s := &Server{
		cfg:      do.MustInvoke[*config.Config](di),
		queueSvc: do.MustInvoke[*queue.Service](di),
		hub:      do.MustInvoke[*display.Hub](di),
	}

	s.app = s.routes()

	return s, nil
}

func (s *Server) routes() *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:               "courtchat",
		DisableStartupMessage: true,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			code := fiber.StatusInternalServerError
			if e, ok := err.(*fiber.Error); ok {
				code = e.Code
			}
			return c.Status(code).JSON(fiber.Map{"error": err.Error()})
		},
	})

	api := app.Group("/api")
	api.Post("/conversation", s.enqueue(queue.KindStart))
	api.Post("/conversation/close", s.enqueue(queue.KindClose))
	api.Post("/config/reload", s.enqueue(queue.KindReload))
	api.Post("/messages", s.postMessage)
	api.Get("/events", s.events)

	return app
}

// Run serves until ctx is done. The server is disabled when no listen address is configured.
func (s *Server) Run(ctx context.Context) error {
	if s.cfg.Server.Listen == "" {
		return nil
	}

	go func() {
		<-ctx.Done()
		if err := s.app.Shutdown(); err != nil {
			slog.Error("Failed to shut down server", "error", err)
		}
	}()

	slog.Info("Server started", "listen", s.cfg.Server.Listen)

	if err := s.app.Listen(s.cfg.Server.Listen); err != nil {
		return fmt.Errorf("failed to listen: %w", err)
	}

	return nil
}

func (s *Server) enqueue(kind queue.Kind) fiber.Handler {
	return func(c *fiber.Ctx) error {
		return s.add(c, queue.Command{Kind: kind})
	}
}

func (s *Server) postMessage(c *fiber.Ctx) error {
	var req messageRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid body")
	}

	text := strings.TrimSpace(req.Text)
	if text == "" {
		return fiber.NewError(fiber.StatusBadRequest, "text is required")
	}

	return s.add(c, queue.Command{Kind: queue.KindMessage, Text: text})
}

func (s *Server) add(c *fiber.Ctx, cmd queue.Command) error {
	if !s.queueSvc.Add(cmd) {
		return fiber.NewError(fiber.StatusServiceUnavailable, "command queue is full")
	}

	return c.Status(fiber.StatusAccepted).JSON(fiber.Map{"status": "queued"})
}

func (s *Server) events(c *fiber.Ctx) error {
	c.Set(fiber.HeaderContentType, "text/event-stream")
	c.Set(fiber.HeaderCacheControl, "no-cache")
	c.Set(fiber.HeaderConnection, "keep-alive")

	events, unsubscribe := s.hub.Subscribe(eventsBuffer)

	c.Context().SetBodyStreamWriter(func(w *bufio.Writer) {
		defer unsubscribe()

		if err := writeEvents(w, events); err != nil {
			slog.Debug("Event stream closed", "error", err)
		}
	})

	return nil
}

// writeEvents relays events as server-sent events until the channel closes or the client
// goes away.
func writeEvents(w *bufio.Writer, events <-chan display.Event) error {
	for event := range events {
		data, err := json.Marshal(event)
		if err != nil {
			return fmt.Errorf("failed to marshal event: %w", err)
		}

		if _, err = fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event.Type, data); err != nil {
			return err
		}

		if err = w.Flush(); err != nil {
			return err
		}
	}

	return nil
}
