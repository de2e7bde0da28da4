// Package tokenstore persists the session token handed out by a successful
// login.
package tokenstore

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

// Session is what a login leaves behind.
type Session struct {
	Token     string    `json:"token"`
	Mobile    string    `json:"mobile,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// Store keeps at most one Session.
type Store interface {
	Load() (Session, error)
	Save(Session) error
	Delete() error
	Name() string
}

var ErrNoToken = errors.New("no stored session")

// Backend names accepted by Open.
const (
	BackendAuto    = "auto"
	BackendKeyring = "keyring"
	BackendFile    = "file"
	BackendSQLite  = "sqlite"
	BackendMemory  = "memory"
)

// Open returns the Store named by backend. auto picks the system keyring
// when one is reachable and falls back to a file in dataDir.
func Open(backend, dataDir, keyringService string) (Store, error) {
	switch strings.ToLower(strings.TrimSpace(backend)) {
	case "", BackendAuto:
		if KeyringAvailable(keyringService) {
			return &KeyringStore{Service: keyringService}, nil
		}
		return NewFileStore(filepath.Join(dataDir, "session.json")), nil
	case BackendKeyring:
		return &KeyringStore{Service: keyringService}, nil
	case BackendFile:
		return NewFileStore(filepath.Join(dataDir, "session.json")), nil
	case BackendSQLite:
		return OpenSQLite(filepath.Join(dataDir, "docman.db"))
	case BackendMemory:
		return &MemoryStore{}, nil
	default:
		return nil, fmt.Errorf("unknown token store %q (want auto|keyring|file|sqlite|memory)", backend)
	}
}

// MemoryStore keeps the session for the life of the process.
type MemoryStore struct {
	mu   sync.Mutex
	sess *Session
}

func (s *MemoryStore) Name() string { return BackendMemory }

func (s *MemoryStore) Load() (Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.sess == nil || s.sess.Token == "" {
		return Session{}, ErrNoToken
	}
	return *s.sess, nil
}

func (s *MemoryStore) Save(sess Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sess = &sess
	return nil
}

func (s *MemoryStore) Delete() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sess = nil
	return nil
}

// FileStore keeps the session as JSON in a 0600 file.
type FileStore struct {
	path string
}

func NewFileStore(path string) *FileStore { return &FileStore{path: path} }

func (s *FileStore) Name() string { return BackendFile + ":" + s.path }

func (s *FileStore) Load() (Session, error) {
	b, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Session{}, ErrNoToken
		}
		return Session{}, err
	}
	return decode(b)
}

func (s *FileStore) Save(sess Session) error {
	b, err := json.Marshal(sess)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return err
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, b, 0o600); err != nil {
		return err
	}
	return os.Rename(tmp, s.path)
}

func (s *FileStore) Delete() error {
	err := os.Remove(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	return err
}

func decode(b []byte) (Session, error) {
	var sess Session
	if err := json.Unmarshal(b, &sess); err != nil {
		return Session{}, fmt.Errorf("corrupt session: %w", err)
	}
	if sess.Token == "" {
		return Session{}, ErrNoToken
	}
	return sess, nil
}
