// Package sessionctx persists the state of a connection test run across execution contexts.
//
// An execution context plays the part of a browser tab: it owns a small string
// key/value storage that survives process restarts. A run writes the session id it
// started into its own context; a later results view reads it back from the same
// context, or best-effort from the context that opened it.
package sessionctx

import (
	"context"
	"fmt"

	"github.com/google/uuid"
)

// Keys written by a test run.
const (
	KeySessionID    = "idpDebugSessionId"
	KeyIdpID        = "idpDebugIdpId"
	KeyTenantDomain = "idpDebugTenantDomain"
)

// StorageBackend represents the type of storage backend for persisted contexts
type StorageBackend string

const (
	// StorageBackendMemory keeps contexts in process memory (single invocation only)
	StorageBackendMemory StorageBackend = "memory"

	// StorageBackendFile keeps one JSON file per context
	StorageBackendFile StorageBackend = "file"

	// StorageBackendRedis shares contexts between hosts through Redis
	StorageBackendRedis StorageBackend = "redis"
)

// Logger interface for context storage operations
type Logger interface {
	Debugf(format string, args ...any)
	Errorf(format string, args ...any)
}

// Store persists string values per execution context.
type Store interface {
	// Get returns the value of key in the context. A missing context or key
	// is reported as ok == false with a nil error.
	Get(ctx context.Context, contextID, key string) (value string, ok bool, err error)

	// Set stores value under key in the context, creating the context if needed.
	Set(ctx context.Context, contextID, key, value string) error

	// Clear removes the context and every value in it.
	Clear(ctx context.Context, contextID string) error

	// Exists reports whether the context holds any value.
	Exists(ctx context.Context, contextID string) (bool, error)
}

// Storage is a Store bound to a single execution context.
type Storage interface {
	GetItem(ctx context.Context, key string) (string, bool, error)
	SetItem(ctx context.Context, key, value string) error
}

// Bind returns the storage of one context.
func Bind(store Store, contextID string) *ContextStorage {
	return &ContextStorage{store: store, id: contextID}
}

// ContextStorage is the Storage of one context.
type ContextStorage struct {
	store Store
	id    string
}

// ID returns the context id.
func (s *ContextStorage) ID() string {
	return s.id
}

// GetItem returns the value of key.
func (s *ContextStorage) GetItem(ctx context.Context, key string) (string, bool, error) {
	return s.store.Get(ctx, s.id, key)
}

// SetItem stores value under key.
func (s *ContextStorage) SetItem(ctx context.Context, key, value string) error {
	return s.store.Set(ctx, s.id, key, value)
}

// Clear removes every value of the context.
func (s *ContextStorage) Clear(ctx context.Context) error {
	return s.store.Clear(ctx, s.id)
}

// Session is the state a test run persists.
type Session struct {
	SessionID    string
	IdpID        string
	TenantDomain string
}

// SaveSession writes the three run keys.
func SaveSession(ctx context.Context, s Storage, sess Session) error {
	values := []struct{ key, value string }{
		{KeySessionID, sess.SessionID},
		{KeyIdpID, sess.IdpID},
		{KeyTenantDomain, sess.TenantDomain},
	}
	for _, v := range values {
		if err := s.SetItem(ctx, v.key, v.value); err != nil {
			return fmt.Errorf("failed to persist %s: %w", v.key, err)
		}
	}
	return nil
}

// LoadSession reads the run keys. ok is false when no session id is stored.
func LoadSession(ctx context.Context, s Storage) (Session, bool, error) {
	var sess Session

	id, ok, err := s.GetItem(ctx, KeySessionID)
	if err != nil || !ok || id == "" {
		return sess, false, err
	}
	sess.SessionID = id

	if sess.IdpID, _, err = s.GetItem(ctx, KeyIdpID); err != nil {
		return sess, false, err
	}
	if sess.TenantDomain, _, err = s.GetItem(ctx, KeyTenantDomain); err != nil {
		return sess, false, err
	}
	return sess, true, nil
}

// NewContextID returns a fresh execution context id.
func NewContextID() string {
	return uuid.NewString()
}

// noOpLogger is a no-op implementation of Logger for default use
type noOpLogger struct{}

func (n noOpLogger) Debugf(format string, args ...any) {}
func (n noOpLogger) Errorf(format string, args ...any) {}

// NoOpLogger returns a no-op logger instance
func NoOpLogger() Logger {
	return noOpLogger{}
}
