package tokenstore

import (
	"database/sql"
	"errors"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

// SQLiteStore keeps the session in a single-row table.
type SQLiteStore struct {
	db   *sql.DB
	path string
}

// OpenSQLite opens (creating if needed) the database at path.
func OpenSQLite(path string) (*SQLiteStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, err
	}
	dbh, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	if _, err := dbh.Exec(`PRAGMA journal_mode=WAL;`); err != nil {
		_ = dbh.Close()
		return nil, err
	}
	if _, err := dbh.Exec(`
CREATE TABLE IF NOT EXISTS session (
  id INTEGER PRIMARY KEY CHECK (id = 1),
  token TEXT NOT NULL,
  mobile TEXT NOT NULL DEFAULT '',
  created_at TIMESTAMP NOT NULL
);`); err != nil {
		_ = dbh.Close()
		return nil, err
	}
	return &SQLiteStore{db: dbh, path: path}, nil
}

func (s *SQLiteStore) Name() string { return BackendSQLite + ":" + s.path }

func (s *SQLiteStore) Load() (Session, error) {
	var sess Session
	err := s.db.QueryRow(`SELECT token, mobile, created_at FROM session WHERE id = 1`).
		Scan(&sess.Token, &sess.Mobile, &sess.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return Session{}, ErrNoToken
	}
	if err != nil {
		return Session{}, err
	}
	if sess.Token == "" {
		return Session{}, ErrNoToken
	}
	return sess, nil
}

func (s *SQLiteStore) Save(sess Session) error {
	if sess.CreatedAt.IsZero() {
		sess.CreatedAt = time.Now()
	}
	_, err := s.db.Exec(`
INSERT INTO session (id, token, mobile, created_at) VALUES (1, ?, ?, ?)
ON CONFLICT(id) DO UPDATE SET token = excluded.token, mobile = excluded.mobile, created_at = excluded.created_at`,
		sess.Token, sess.Mobile, sess.CreatedAt.UTC())
	return err
}

func (s *SQLiteStore) Delete() error {
	_, err := s.db.Exec(`DELETE FROM session WHERE id = 1`)
	return err
}

func (s *SQLiteStore) Close() error { return s.db.Close() }
