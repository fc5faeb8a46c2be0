package sessionctx

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// FileStore implements Store with one JSON file per context.
// Contexts written by one invocation of the tool are visible to every later
// invocation on the same machine.
type FileStore struct {
	basePath string
	logger   Logger
	mu       sync.RWMutex
}

// NewFileStore creates a new file-based context store.
// If basePath is empty, defaults to $TMPDIR/idptest/context.json
func NewFileStore(basePath string, logger Logger) *FileStore {
	if basePath == "" {
		basePath = filepath.Join(os.TempDir(), "idptest", "context.json")
	}
	if logger == nil {
		logger = NoOpLogger()
	}
	return &FileStore{
		basePath: basePath,
		logger:   logger,
	}
}

// BasePath returns the base path used for storing contexts
func (s *FileStore) BasePath() string {
	return s.basePath
}

// GetFilePath returns the file path of a context.
// Context ids are hashed so that arbitrary ids produce safe file names.
func (s *FileStore) GetFilePath(contextID string) string {
	if contextID == "" {
		return s.basePath
	}

	hash := sha256.Sum256([]byte(contextID))
	hashStr := hex.EncodeToString(hash[:8])

	ext := filepath.Ext(s.basePath)
	base := strings.TrimSuffix(s.basePath, ext)
	if ext == "" {
		ext = ".json"
	}

	return fmt.Sprintf("%s-%s%s", base, hashStr, ext)
}

// Get returns the value of key in the context.
func (s *FileStore) Get(_ context.Context, contextID, key string) (string, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	values, err := s.read(contextID)
	if err != nil {
		return "", false, err
	}
	value, ok := values[key]
	return value, ok, nil
}

// Set stores value under key in the context file.
func (s *FileStore) Set(_ context.Context, contextID, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	values, err := s.read(contextID)
	if err != nil {
		return err
	}
	if values == nil {
		values = make(map[string]string)
	}
	values[key] = value

	filePath := s.GetFilePath(contextID)

	if err := os.MkdirAll(filepath.Dir(filePath), 0700); err != nil {
		return fmt.Errorf("failed to create context directory: %w", err)
	}

	data, err := json.MarshalIndent(values, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal context: %w", err)
	}

	// Write with restrictive permissions (owner read/write only)
	if err := os.WriteFile(filePath, data, 0600); err != nil {
		return fmt.Errorf("failed to write context file: %w", err)
	}

	s.logger.Debugf("Saved %s to %s", key, filePath)
	return nil
}

// Clear removes the context file
func (s *FileStore) Clear(_ context.Context, contextID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	filePath := s.GetFilePath(contextID)

	if err := os.Remove(filePath); err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("failed to remove context file: %w", err)
	}

	s.logger.Debugf("Deleted context file %s", filePath)
	return nil
}

// Exists checks if the context file holds any value
func (s *FileStore) Exists(_ context.Context, contextID string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	values, err := s.read(contextID)
	if err != nil {
		return false, err
	}
	return len(values) > 0, nil
}

// read returns nil, nil if the context file does not exist.
func (s *FileStore) read(contextID string) (map[string]string, error) {
	filePath := s.GetFilePath(contextID)

	// #nosec G304 -- path is derived from the configured base path via GetFilePath()
	data, err := os.ReadFile(filePath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read context file: %w", err)
	}

	var values map[string]string
	if err := json.Unmarshal(data, &values); err != nil {
		return nil, fmt.Errorf("failed to parse context file: %w", err)
	}
	return values, nil
}
