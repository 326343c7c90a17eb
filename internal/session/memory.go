package session

import (
	"errors"
	"sync"
	"time"

	"github.com/varsilias/seo-chat/pkg/types"
)

var ErrEmptySessionID = errors.New("empty session id")

// State is everything a front end needs to draw one conversation.
type State struct {
	Transcript []types.Message
	Input      string
	// Expanded is set by the first submission and cleared by a reset.
	Expanded bool
	Updated  time.Time
}

type Store interface {
	// Ensure seeds a session that does not exist yet. Existing sessions are left alone.
	Ensure(sessionID string, seed []types.Message) error
	Append(sessionID string, m types.Message) error
	// Remove drops the message with the given id and reports whether it was present.
	Remove(sessionID, messageID string) (bool, error)
	Get(sessionID string) (State, error)
	Reset(sessionID string, seed []types.Message) error
	SetInput(sessionID, text string) error
	// Expand marks the first submission; changed is false if it was already set.
	Expand(sessionID string) (changed bool, err error)
}

type MemoryStore struct {
	mu   sync.RWMutex
	data map[string]*State
	now  func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		data: make(map[string]*State),
		now:  time.Now,
	}
}

// state returns the session, creating it empty. Caller holds the write lock.
func (s *MemoryStore) state(sessionID string) *State {
	st, ok := s.data[sessionID]
	if !ok {
		st = &State{}
		s.data[sessionID] = st
	}
	st.Updated = s.now()
	return st
}

func (s *MemoryStore) Ensure(sessionID string, seed []types.Message) error {
	if sessionID == "" {
		return ErrEmptySessionID
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.data[sessionID]; ok {
		return nil
	}
	s.state(sessionID).Transcript = append([]types.Message(nil), seed...)
	return nil
}

func (s *MemoryStore) Append(sessionID string, m types.Message) error {
	if sessionID == "" {
		return ErrEmptySessionID
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	st := s.state(sessionID)
	st.Transcript = append(st.Transcript, m)
	return nil
}

func (s *MemoryStore) Remove(sessionID, messageID string) (bool, error) {
	if sessionID == "" {
		return false, ErrEmptySessionID
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	st, ok := s.data[sessionID]
	if !ok {
		return false, nil
	}
	for i, m := range st.Transcript {
		if m.ID == messageID {
			st.Transcript = append(st.Transcript[:i:i], st.Transcript[i+1:]...)
			st.Updated = s.now()
			return true, nil
		}
	}
	return false, nil
}

func (s *MemoryStore) Get(sessionID string) (State, error) {
	if sessionID == "" {
		return State{}, ErrEmptySessionID
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	st, ok := s.data[sessionID]
	if !ok {
		return State{}, nil
	}
	out := *st
	out.Transcript = make([]types.Message, len(st.Transcript))
	copy(out.Transcript, st.Transcript)
	return out, nil
}

func (s *MemoryStore) Reset(sessionID string, seed []types.Message) error {
	if sessionID == "" {
		return ErrEmptySessionID
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	st := s.state(sessionID)
	st.Transcript = append([]types.Message(nil), seed...)
	st.Input = ""
	st.Expanded = false
	return nil
}

func (s *MemoryStore) SetInput(sessionID, text string) error {
	if sessionID == "" {
		return ErrEmptySessionID
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state(sessionID).Input = text
	return nil
}

func (s *MemoryStore) Expand(sessionID string) (bool, error) {
	if sessionID == "" {
		return false, ErrEmptySessionID
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	st := s.state(sessionID)
	if st.Expanded {
		return false, nil
	}
	st.Expanded = true
	return true, nil
}

// Len reports how many sessions are held.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.data)
}

// Prune drops sessions idle for longer than maxIdle and returns how many went.
func (s *MemoryStore) Prune(maxIdle time.Duration) int {
	cutoff := s.now().Add(-maxIdle)
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for id, st := range s.data {
		if st.Updated.Before(cutoff) {
			delete(s.data, id)
			n++
		}
	}
	return n
}
