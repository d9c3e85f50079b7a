package session

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// ErrNotFound is returned for unknown session ids.
var ErrNotFound = errors.New("session not found")

// ErrConflict is returned when a transition is requested for a session that
// already has one in flight. At most one grading operation per session may
// run at any time.
var ErrConflict = errors.New("session transition already in progress")

// ErrExists is returned when creating a session with an id already in use.
var ErrExists = errors.New("session already exists")

// Store keeps live interview sessions in memory. Independent sessions may run
// concurrently; access to any single session is serialized through Acquire.
type Store struct {
	mu       sync.Mutex
	sessions map[string]*slot
}

type slot struct {
	sess *Session
	busy bool
}

// NewStore creates an empty session store.
func NewStore() *Store {
	return &Store{sessions: make(map[string]*slot)}
}

// Create registers a new session. An empty id gets a generated uuid.
func (st *Store) Create(id string, grounding map[string]string) (*Session, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		id = uuid.NewString()
	}

	st.mu.Lock()
	defer st.mu.Unlock()

	if _, ok := st.sessions[id]; ok {
		return nil, fmt.Errorf("%w: %s", ErrExists, id)
	}

	sess := &Session{
		ID:               id,
		State:            StateSelecting,
		AskedQuestionIDs: make(map[string]bool),
		Grounding:        grounding,
		StartedAt:        time.Now().UTC(),
	}
	st.sessions[id] = &slot{sess: sess}

	return sess, nil
}

// Acquire returns the session and marks it busy until release is called.
// A second Acquire for the same session before release fails with ErrConflict;
// this is what keeps two grading calls for one session from racing.
func (st *Store) Acquire(id string) (*Session, func(), error) {
	st.mu.Lock()
	defer st.mu.Unlock()

	s, ok := st.sessions[id]
	if !ok {
		return nil, nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if s.busy {
		return nil, nil, fmt.Errorf("%w: %s", ErrConflict, id)
	}

	s.busy = true
	release := func() {
		st.mu.Lock()
		defer st.mu.Unlock()
		s.busy = false
	}

	return s.sess, release, nil
}

// Snapshot returns a copy of the session safe to hand to readers. History and
// the asked set are copied; questions and verdicts are immutable once produced
// and are shared. While a transition holds the session, Snapshot fails with
// ErrConflict rather than copying state mid-mutation.
func (st *Store) Snapshot(id string) (*Session, error) {
	st.mu.Lock()
	defer st.mu.Unlock()

	s, ok := st.sessions[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if s.busy {
		return nil, fmt.Errorf("%w: %s", ErrConflict, id)
	}

	sess := s.sess
	copied := *sess
	copied.AskedQuestionIDs = make(map[string]bool, len(sess.AskedQuestionIDs))
	for qid := range sess.AskedQuestionIDs {
		copied.AskedQuestionIDs[qid] = true
	}
	copied.History = append([]Turn(nil), sess.History...)

	return &copied, nil
}

// Delete removes the session. Archiving what it held is the caller's job.
func (st *Store) Delete(id string) {
	st.mu.Lock()
	defer st.mu.Unlock()
	delete(st.sessions, id)
}

// Len returns the number of live sessions.
func (st *Store) Len() int {
	st.mu.Lock()
	defer st.mu.Unlock()
	return len(st.sessions)
}
