package game

import (
	"courtchat/app/config"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/samber/do"
)

// RunFile is the bridge to the running game: the game polls the file and executes the
// trigger lines it finds there.
type RunFile struct {
	path string

	mu      sync.Mutex
	pending *time.Timer
}

func NewRunFile(path string) (*RunFile, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create run file directory: %w", err)
	}

	return &RunFile{path: path}, nil
}

func (r *RunFile) Path() string {
	return r.path
}

// Signal replaces the file content with a single trigger event.
func (r *RunFile) Signal(event string) error {
	return r.write("trigger_event = "+event+"\n", os.O_TRUNC)
}

func (r *RunFile) Append(line string) error {
	return r.write(line+"\n", os.O_APPEND)
}

// Clear truncates the file and cancels a clear scheduled with ClearAfter.
func (r *RunFile) Clear() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.stopPending()

	return r.writeLocked("", os.O_TRUNC)
}

// ClearAfter schedules a Clear, replacing the one already scheduled. Any later Clear cancels it.
func (r *RunFile) ClearAfter(delay time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.stopPending()

	var timer *time.Timer
	timer = time.AfterFunc(delay, func() {
		r.mu.Lock()
		defer r.mu.Unlock()

		if r.pending != timer {
			return
		}
		r.pending = nil

		if err := r.writeLocked("", os.O_TRUNC); err != nil {
			slog.Error("Failed to clear run file", "error", err)
		}
	})
	r.pending = timer
}

func (r *RunFile) stopPending() {
	if r.pending != nil {
		r.pending.Stop()
		r.pending = nil
	}
}

func (r *RunFile) write(text string, mode int) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.writeLocked(text, mode)
}

func (r *RunFile) writeLocked(text string, mode int) error {
	file, err := os.OpenFile(r.path, os.O_WRONLY|os.O_CREATE|mode, 0644)
	if err != nil {
		return fmt.Errorf("failed to open run file: %w", err)
	}
	defer file.Close()

	if _, err = file.WriteString(text); err != nil {
		return fmt.Errorf("failed to write run file: %w", err)
	}

	slog.Debug("Run file updated", "path", r.path, "text", text)

	return nil
}

func NewClient(di *do.Injector) (*RunFile, error) {
	cfg := do.MustInvoke[*config.Config](di)

	return NewRunFile(filepath.Join(cfg.Game.UserFolderPath, cfg.Game.RunFile))
}
