package summary

import (
	"context"
	"courtchat/app/model"
	"database/sql"
	"os"
	"path/filepath"

	"github.com/samber/do"
	"github.com/samber/oops"
	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS summaries (
	player_id INTEGER NOT NULL,
	counterpart_id INTEGER NOT NULL,
	position INTEGER NOT NULL,
	date TEXT NOT NULL,
	content TEXT NOT NULL,
	PRIMARY KEY (player_id, counterpart_id, position)
);`

var (
	_ Store           = (*SQLiteStore)(nil)
	_ do.Shutdownable = (*SQLiteStore)(nil)
)

// SQLiteStore keeps every list in one table, position 0 being the newest summary.
type SQLiteStore struct {
	db *sql.DB
}

func NewSQLiteStore(path string) (*SQLiteStore, error) {
	errb := oops.In("summary").With("path", path)

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, errb.Wrapf(err, "failed to create database directory")
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, errb.Wrapf(err, "failed to open database")
	}

	if err = db.Ping(); err != nil {
		db.Close()
		return nil, errb.Wrapf(err, "failed to ping database")
	}

	if _, err = db.Exec(schema); err != nil {
		db.Close()
		return nil, errb.Wrapf(err, "failed to create summaries table")
	}

	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) Load(ctx context.Context, key Key) ([]model.Summary, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT date, content FROM summaries WHERE player_id = ? AND counterpart_id = ? ORDER BY position`,
		key.PlayerID, key.CounterpartID)
	if err != nil {
		return nil, oops.In("summary").With("key", key.String()).Wrapf(err, "failed to query summaries")
	}
	defer rows.Close()

	summaries := []model.Summary{}
	for rows.Next() {
		var item model.Summary
		if err = rows.Scan(&item.Date, &item.Content); err != nil {
			return nil, oops.In("summary").Wrapf(err, "failed to scan summary")
		}
		summaries = append(summaries, item)
	}

	if err = rows.Err(); err != nil {
		return nil, oops.In("summary").Wrapf(err, "failed to read summaries")
	}

	return summaries, nil
}

func (s *SQLiteStore) Save(ctx context.Context, key Key, summaries []model.Summary) error {
	errb := oops.In("summary").With("key", key.String())

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return errb.Wrapf(err, "failed to begin transaction")
	}
	defer tx.Rollback()

	if _, err = tx.ExecContext(ctx,
		`DELETE FROM summaries WHERE player_id = ? AND counterpart_id = ?`,
		key.PlayerID, key.CounterpartID); err != nil {
		return errb.Wrapf(err, "failed to delete summaries")
	}

	for i, item := range summaries {
		if _, err = tx.ExecContext(ctx,
			`INSERT INTO summaries (player_id, counterpart_id, position, date, content) VALUES (?, ?, ?, ?, ?)`,
			key.PlayerID, key.CounterpartID, i, item.Date, item.Content); err != nil {
			return errb.Wrapf(err, "failed to insert summary")
		}
	}

	if err = tx.Commit(); err != nil {
		return errb.Wrapf(err, "failed to commit summaries")
	}

	return nil
}

func (s *SQLiteStore) Shutdown() error {
	return s.db.Close()
}
