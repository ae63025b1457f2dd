package session

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sync"
	"time"
)

// FileStore keeps each session as a JSON file in one directory.
type FileStore struct {
	mu      sync.RWMutex
	baseDir string
}

var validID = regexp.MustCompile(`^[A-Za-z0-9_-]{1,64}$`)

// NewFileStore creates a file-based session store.
// If baseDir is empty, defaults to $XDG_CONFIG_HOME/houndview/sessions.
func NewFileStore(baseDir string) (*FileStore, error) {
	if baseDir == "" {
		dir, err := os.UserConfigDir()
		if err != nil {
			return nil, fmt.Errorf("get config dir: %w", err)
		}
		baseDir = filepath.Join(dir, "houndview", "sessions")
	}
	if err := os.MkdirAll(baseDir, 0o700); err != nil {
		return nil, fmt.Errorf("create session dir: %w", err)
	}
	return &FileStore{baseDir: baseDir}, nil
}

func (s *FileStore) sessionPath(sessionID string) (string, error) {
	if !validID.MatchString(sessionID) {
		return "", fmt.Errorf("%w: %q", ErrInvalidID, sessionID)
	}
	return filepath.Join(s.baseDir, sessionID+".json"), nil
}

func (s *FileStore) Get(_ context.Context, sessionID string) (*Session, error) {
	path, err := s.sessionPath(sessionID)
	if err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read session file: %w", err)
	}

	var sess Session
	if err := json.Unmarshal(data, &sess); err != nil {
		return nil, fmt.Errorf("parse session: %w", err)
	}
	if sess.IsExpired() {
		_ = os.Remove(path)
		return nil, nil
	}
	return &sess, nil
}

func (s *FileStore) Set(_ context.Context, sess *Session) error {
	path, err := s.sessionPath(sess.ID)
	if err != nil {
		return err
	}
	data, err := json.MarshalIndent(sess, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal session: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return fmt.Errorf("write session file: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("write session file: %w", err)
	}
	return nil
}

func (s *FileStore) Delete(_ context.Context, sessionID string) error {
	path, err := s.sessionPath(sessionID)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove session file: %w", err)
	}
	return nil
}

func (s *FileStore) Cleanup(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries, err := os.ReadDir(s.baseDir)
	if err != nil {
		return fmt.Errorf("read session dir: %w", err)
	}

	now := time.Now()
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".json" {
			continue
		}
		path := filepath.Join(s.baseDir, entry.Name())
		data, err := os.ReadFile(path)
		if err != nil {
			continue
		}
		var sess Session
		if err := json.Unmarshal(data, &sess); err != nil {
			continue
		}
		if !sess.ExpiresAt.IsZero() && now.After(sess.ExpiresAt) {
			_ = os.Remove(path)
		}
	}
	return nil
}

// Path returns the base directory for session files.
func (s *FileStore) Path() string {
	return s.baseDir
}

var _ Store = (*FileStore)(nil)

// =============================================================================
// CLI convenience wrapper
// =============================================================================

// DefaultCLISession names the session the CLI uses when none is given.
const DefaultCLISession = "default"

// CLIStore binds a FileStore to one named session.
type CLIStore struct {
	store     *FileStore
	sessionID string
}

// NewCLIStore opens the named session in the default directory. An
// empty name selects [DefaultCLISession].
func NewCLIStore(name string) (*CLIStore, error) {
	store, err := NewFileStore("")
	if err != nil {
		return nil, err
	}
	return NewCLIStoreIn(store, name)
}

// NewCLIStoreIn binds store to the named session.
func NewCLIStoreIn(store *FileStore, name string) (*CLIStore, error) {
	if name == "" {
		name = DefaultCLISession
	}
	if !validID.MatchString(name) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidID, name)
	}
	return &CLIStore{store: store, sessionID: name}, nil
}

// Load returns the stored session, or a fresh empty one.
func (c *CLIStore) Load(ctx context.Context) (*Session, error) {
	sess, err := c.store.Get(ctx, c.sessionID)
	if err != nil {
		return nil, err
	}
	if sess == nil {
		now := time.Now()
		sess = &Session{ID: c.sessionID, UpdatedAt: now, ExpiresAt: now.Add(DefaultTTL)}
	}
	return sess, nil
}

// Save stores sess under the bound name.
func (c *CLIStore) Save(ctx context.Context, sess *Session) error {
	sess.ID = c.sessionID
	return c.store.Set(ctx, sess)
}

// Reset removes the session and prunes expired sessions of other names.
func (c *CLIStore) Reset(ctx context.Context) error {
	if err := c.store.Delete(ctx, c.sessionID); err != nil {
		return err
	}
	return c.store.Cleanup(ctx)
}

// Path returns the session file path.
func (c *CLIStore) Path() string {
	p, _ := c.store.sessionPath(c.sessionID)
	return p
}
