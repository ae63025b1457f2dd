// Package session remembers explore locations between CLI invocations.
//
// A session holds the current navigable location (the encoded search
// parameters) and a bounded history of earlier ones, so the CLI can
// re-run the last search or step back the way browser navigation does.
// Nothing else about a search is stored.
//
// # Usage
//
//	store, err := session.NewCLIStore("")
//	if err != nil {
//	    return err
//	}
//	sess, err := store.Load(ctx)
//	sess.Push(state, time.Now())
//	err = store.Save(ctx, sess)
package session

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"time"

	"github.com/matzehuels/houndview/pkg/params"
)

// Sentinel errors for session operations.
var (
	// ErrInvalidID is returned for ids that cannot name a session file.
	ErrInvalidID = errors.New("invalid session id")

	// ErrNoHistory is returned by Back when there is nothing to go back to.
	ErrNoHistory = errors.New("no earlier location")
)

// MaxHistory bounds the number of earlier locations kept.
const MaxHistory = 50

// DefaultTTL is how long an untouched session survives.
const DefaultTTL = 30 * 24 * time.Hour

// Session is one navigation history.
type Session struct {
	ID        string    `json:"id"`
	Location  string    `json:"location"`
	History   []string  `json:"history,omitempty"`
	UpdatedAt time.Time `json:"updated_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

// New creates an empty session with a random id.
func New(ttl time.Duration) (*Session, error) {
	id, err := GenerateID()
	if err != nil {
		return nil, err
	}
	now := time.Now()
	return &Session{ID: id, UpdatedAt: now, ExpiresAt: now.Add(ttl)}, nil
}

// IsExpired returns true if the session has expired.
func (s *Session) IsExpired() bool {
	return !s.ExpiresAt.IsZero() && time.Now().After(s.ExpiresAt)
}

// State parses the current location.
func (s *Session) State() (params.State, error) {
	return params.ParseQuery(s.Location)
}

// Push makes st the current location. The previous location moves onto
// the history unless it is equal to st.
func (s *Session) Push(st params.State, now time.Time) {
	loc := st.Encode()
	if loc == s.Location {
		s.touch(now)
		return
	}
	if s.Location != "" {
		s.History = append(s.History, s.Location)
		if len(s.History) > MaxHistory {
			s.History = s.History[len(s.History)-MaxHistory:]
		}
	}
	s.Location = loc
	s.touch(now)
}

// Back restores the most recent earlier location.
func (s *Session) Back(now time.Time) (params.State, error) {
	if len(s.History) == 0 {
		return params.State{}, ErrNoHistory
	}
	s.Location = s.History[len(s.History)-1]
	s.History = s.History[:len(s.History)-1]
	s.touch(now)
	return s.State()
}

func (s *Session) touch(now time.Time) {
	ttl := DefaultTTL
	if !s.ExpiresAt.IsZero() && !s.UpdatedAt.IsZero() {
		ttl = s.ExpiresAt.Sub(s.UpdatedAt)
	}
	s.UpdatedAt = now
	s.ExpiresAt = now.Add(ttl)
}

// Store is the interface for session storage backends.
type Store interface {
	// Get retrieves a session by ID.
	// Returns nil, nil if the session doesn't exist or has expired.
	Get(ctx context.Context, sessionID string) (*Session, error)

	// Set stores a session.
	Set(ctx context.Context, session *Session) error

	// Delete removes a session.
	Delete(ctx context.Context, sessionID string) error

	// Cleanup removes expired sessions.
	Cleanup(ctx context.Context) error
}

// GenerateID creates a random URL-safe session id.
func GenerateID() (string, error) {
	b := make([]byte, 18)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}
