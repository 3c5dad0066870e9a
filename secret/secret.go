// Package secret stores provider API keys in the OS keyring.
package secret

import (
	"errors"
	"strings"

	"github.com/zalando/go-keyring"

	"go.aimuz.me/voxlore/internal/apperr"
)

// Service is the keyring service name every key is stored under.
const Service = "app.voxlore"

// Store reads and writes provider API keys. A missing key is never an
// error; keyring failures are Security errors.
type Store struct {
	service string
}

// New returns a Store using the default service name.
func New() *Store {
	return &Store{service: Service}
}

// Get returns the key for provider. ok is false when none is stored.
func (s *Store) Get(provider string) (key string, ok bool, err error) {
	key, err = keyring.Get(s.service, provider)
	switch {
	case errors.Is(err, keyring.ErrNotFound):
		return "", false, nil
	case err != nil:
		return "", false, &apperr.Error{
			Kind: apperr.KindSecurity,
			Msg:  "Failed to get key for " + provider,
			Err:  err,
		}
	}
	return key, true, nil
}

// Set stores key for provider, replacing any existing one. Surrounding
// whitespace is trimmed; an empty key deletes the entry.
func (s *Store) Set(provider, key string) error {
	key = strings.TrimSpace(key)
	if key == "" {
		return s.Delete(provider)
	}
	if err := keyring.Set(s.service, provider, key); err != nil {
		return &apperr.Error{
			Kind: apperr.KindSecurity,
			Msg:  "Failed to save key for " + provider,
			Err:  err,
		}
	}
	return nil
}

// Delete removes the key for provider. Deleting a missing key succeeds.
func (s *Store) Delete(provider string) error {
	err := keyring.Delete(s.service, provider)
	if err != nil && !errors.Is(err, keyring.ErrNotFound) {
		return &apperr.Error{
			Kind: apperr.KindSecurity,
			Msg:  "Failed to delete key for " + provider,
			Err:  err,
		}
	}
	return nil
}

// Exists reports whether a key is stored for provider.
func (s *Store) Exists(provider string) (bool, error) {
	_, ok, err := s.Get(provider)
	return ok, err
}
