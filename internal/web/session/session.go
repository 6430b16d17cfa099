// Package session keeps web sessions in a pluggable key/value storage.
package session

import (
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// CookieName is the name of the session cookie.
const CookieName = "session"

// ErrNoSession is returned for unknown or expired session ids.
var ErrNoSession = errors.New("session not found")

// Storage is a key/value store with expiry. Get returns nil, nil for a missing key.
// The gofiber storage drivers implement it.
type Storage interface {
	Get(key string) ([]byte, error)
	Set(key string, val []byte, exp time.Duration) error
	Delete(key string) error
	Reset() error
	Close() error
}

// Data is what a session remembers. The user row itself is loaded fresh on every request.
type Data struct {
	UserID   uint64    `json:"userId"`
	Username string    `json:"username"`
	Created  time.Time `json:"created"`
	// OIDCState and OIDCNonce are set between the OIDC login redirect and its callback.
	OIDCState string `json:"oidcState,omitempty"`
	OIDCNonce string `json:"oidcNonce,omitempty"`
}

// Manager creates, reads and destroys sessions.
type Manager struct {
	storage Storage
	expiry  time.Duration
}

// NewManager creates a session manager. Sessions expire after expiry.
func NewManager(storage Storage, expiry time.Duration) *Manager {
	if storage == nil {
		panic("storage is nil")
	}

	return &Manager{storage: storage, expiry: expiry}
}

// Expiry returns the session lifetime.
func (m *Manager) Expiry() time.Duration {
	return m.expiry
}

// Create stores d under a new session id.
func (m *Manager) Create(d Data) (string, error) {
	id, err := GenerateSessionID()
	if err != nil {
		return "", fmt.Errorf("failed to generate session id: %w", err)
	}

	if d.Created.IsZero() {
		d.Created = time.Now()
	}

	return id, m.Write(id, d)
}

// Write replaces the data of session id.
func (m *Manager) Write(id string, d Data) error {
	out, err := json.Marshal(d)
	if err != nil {
		return err
	}

	return m.storage.Set(id, out, m.expiry)
}

// Read returns the data of session id.
func (m *Manager) Read(id string) (*Data, error) {
	if id == "" {
		return nil, ErrNoSession
	}

	raw, err := m.storage.Get(id)
	if err != nil {
		return nil, fmt.Errorf("failed to read session: %w", err)
	}

	if raw == nil {
		return nil, ErrNoSession
	}

	d := new(Data)
	if err = json.Unmarshal(raw, d); err != nil {
		return nil, fmt.Errorf("failed to decode session: %w", err)
	}

	return d, nil
}

// Destroy removes session id.
func (m *Manager) Destroy(id string) error {
	if id == "" {
		return nil
	}

	return m.storage.Delete(id)
}

// Close closes the storage.
func (m *Manager) Close() error {
	return m.storage.Close()
}

// GenerateSessionID generates a new secure random session ID.
func GenerateSessionID() (string, error) {
	// 32 bytes = 256 bits
	b := make([]byte, 32) //nolint:mnd
	if _, err := rand.Read(b); err != nil {
		return "", err
	}

	return hex.EncodeToString(b), nil
}
