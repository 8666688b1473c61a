package search

import "sync"

// maxHistoryTurns bounds each session to the most recent N user/model pairs.
const maxHistoryTurns = 10

// SessionStore maps session ids to bounded conversational histories for the
// lifetime of the process. Appends are per-session atomic: the read, modify
// and truncate happen as one locked step so concurrent turns in the same
// session never lose updates. Sessions themselves are never evicted.
type SessionStore struct {
	mu       sync.Mutex
	sessions map[string][]Turn
}

func NewSessionStore() *SessionStore {
	return &SessionStore{sessions: make(map[string][]Turn)}
}

// History returns a copy of the session's turns, oldest first. Unknown ids
// yield an empty history.
func (s *SessionStore) History(sessionID string) []Turn {
	if sessionID == "" {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	turns := s.sessions[sessionID]
	if len(turns) == 0 {
		return nil
	}
	out := make([]Turn, len(turns))
	copy(out, turns)
	return out
}

// Append adds turns to the session and drops the oldest entries beyond the
// bound.
func (s *SessionStore) Append(sessionID string, turns ...Turn) {
	if sessionID == "" {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	history := append(s.sessions[sessionID], turns...)
	if max := maxHistoryTurns * 2; len(history) > max {
		history = history[len(history)-max:]
	}
	s.sessions[sessionID] = history
}
