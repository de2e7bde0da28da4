package tokenstore

import (
	"encoding/json"
	"errors"

	"github.com/zalando/go-keyring"
)

const DefaultKeyringService = "docman"

const keyringUser = "session"

// KeyringStore keeps the session in the system keyring.
type KeyringStore struct {
	Service string
}

func (s *KeyringStore) Name() string { return BackendKeyring + ":" + s.service() }

func (s *KeyringStore) Load() (Session, error) {
	val, err := keyring.Get(s.service(), keyringUser)
	if err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return Session{}, ErrNoToken
		}
		return Session{}, err
	}
	return decode([]byte(val))
}

func (s *KeyringStore) Save(sess Session) error {
	b, err := json.Marshal(sess)
	if err != nil {
		return err
	}
	return keyring.Set(s.service(), keyringUser, string(b))
}

func (s *KeyringStore) Delete() error {
	err := keyring.Delete(s.service(), keyringUser)
	if errors.Is(err, keyring.ErrNotFound) {
		return nil
	}
	return err
}

func (s *KeyringStore) service() string {
	if s != nil && s.Service != "" {
		return s.Service
	}
	return DefaultKeyringService
}

// KeyringAvailable reports whether a system keyring backend appears supported.
func KeyringAvailable(service string) bool {
	if service == "" {
		service = DefaultKeyringService
	}
	_, err := keyring.Get(service, "_probe_")
	if err == nil || errors.Is(err, keyring.ErrNotFound) {
		return true
	}
	return false
}
