package summary

import (
	"context"
	"courtchat/app/model"
	"encoding/json"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"sync"

	"github.com/samber/oops"
)

var _ Store = (*FileStore)(nil)

// FileStore keeps one JSON file per key under <dir>/<player>/<counterpart>.json.
type FileStore struct {
	dir string
	mu  sync.Mutex
}

func NewFileStore(dir string) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, oops.In("summary").With("dir", dir).Wrapf(err, "failed to create summaries directory")
	}

	return &FileStore{dir: dir}, nil
}

func (s *FileStore) Load(_ context.Context, key Key) ([]model.Summary, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	path := s.path(key)

	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		summaries := []model.Summary{}
		if err = s.write(path, summaries); err != nil {
			return nil, err
		}

		return summaries, nil
	}
	if err != nil {
		return nil, oops.In("summary").With("key", key.String()).Wrapf(err, "failed to read summaries")
	}

	summaries := []model.Summary{}
	if err = json.Unmarshal(data, &summaries); err != nil {
		return nil, oops.In("summary").With("key", key.String()).Wrapf(err, "failed to parse summaries")
	}

	return summaries, nil
}

func (s *FileStore) Save(_ context.Context, key Key, summaries []model.Summary) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.write(s.path(key), summaries); err != nil {
		return err
	}

	slog.Debug("Saved summaries", "key", key.String(), "count", len(summaries))

	return nil
}

func (s *FileStore) write(path string, summaries []model.Summary) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return oops.In("summary").Wrapf(err, "failed to create player directory")
	}

	if summaries == nil {
		summaries = []model.Summary{}
	}

	data, err := json.MarshalIndent(summaries, "", "\t")
	if err != nil {
		return oops.In("summary").Wrapf(err, "failed to marshal summaries")
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), "summaries-*.json")
	if err != nil {
		return oops.In("summary").Wrapf(err, "failed to create temp file")
	}

	if _, err = tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return oops.In("summary").Wrapf(err, "failed to write summaries")
	}

	if err = tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return oops.In("summary").Wrapf(err, "failed to close temp file")
	}

	if err = os.Rename(tmp.Name(), path); err != nil {
		os.Remove(tmp.Name())
		return oops.In("summary").Wrapf(err, "failed to persist summaries")
	}

	return nil
}

func (s *FileStore) path(key Key) string {
	return filepath.Join(s.dir, strconv.Itoa(key.PlayerID), strconv.Itoa(key.CounterpartID)+".json")
}
