package session

import (
	"sync"
	"time"

	"molview/domain/core"
	"molview/domain/molecule"
	"molview/internal/logging"
)

// State is everything the server keeps for one browser session: the
// current dataset and the selected row. A new upload replaces the
// dataset wholesale.
type State struct {
	ID            core.SessionID
	Dataset       *molecule.Dataset
	SelectedIndex int // global record index, 0 when nothing is selected
	CreatedAt     time.Time
	LastSeen      time.Time
}

// Store holds session state in memory with TTL-based expiry.
type Store struct {
	mu       sync.RWMutex
	sessions map[core.SessionID]*State
	ttl      time.Duration
	logger   *logging.Logger
	stop     chan struct{}
	stopOnce sync.Once
}

func NewStore(ttl, sweepInterval time.Duration, logger *logging.Logger) *Store {
	if logger == nil {
		logger = logging.DefaultLogger
	}
	s := &Store{
		sessions: make(map[core.SessionID]*State),
		ttl:      ttl,
		logger:   logger,
		stop:     make(chan struct{}),
	}
	if ttl > 0 && sweepInterval > 0 {
		go s.sweepLoop(sweepInterval)
	}
	return s
}

// Close stops the expiry sweeper.
func (s *Store) Close() {
	s.stopOnce.Do(func() { close(s.stop) })
}

// GetOrCreate returns the session for id, creating one when id is empty
// or unknown. The returned ID must be written back to the cookie when it
// differs from the input.
func (s *Store) GetOrCreate(id core.SessionID) *State {
	s.mu.Lock()
	defer s.mu.Unlock()

	if id != "" {
		if st, ok := s.sessions[id]; ok && !s.expired(st) {
			st.LastSeen = time.Now()
			return s.snapshot(st)
		}
	}

	now := time.Now()
	st := &State{
		ID:        core.NewSessionID(),
		CreatedAt: now,
		LastSeen:  now,
	}
	s.sessions[st.ID] = st
	s.logger.Debug("created session %s", st.ID)
	return s.snapshot(st)
}

// Get returns the session for id, or nil when absent or expired.
func (s *Store) Get(id core.SessionID) *State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	st, ok := s.sessions[id]
	if !ok || s.expired(st) {
		return nil
	}
	return s.snapshot(st)
}

// SetDataset installs a freshly loaded dataset and clears the selection.
func (s *Store) SetDataset(id core.SessionID, ds *molecule.Dataset) {
	s.mu.Lock()
	defer s.mu.Unlock()
	st, ok := s.sessions[id]
	if !ok {
		return
	}
	st.Dataset = ds
	st.SelectedIndex = 0
	st.LastSeen = time.Now()
}

// SetSelection records the selected global row index.
func (s *Store) SetSelection(id core.SessionID, index int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	st, ok := s.sessions[id]
	if !ok {
		return
	}
	st.SelectedIndex = index
	st.LastSeen = time.Now()
}

// Len returns the number of live sessions.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

func (s *Store) expired(st *State) bool {
	return s.ttl > 0 && time.Since(st.LastSeen) > s.ttl
}

// snapshot copies the mutable fields so callers never hold a pointer
// into the locked map. The dataset pointer is shared but immutable after
// load.
func (s *Store) snapshot(st *State) *State {
	cp := *st
	return &cp
}

func (s *Store) sweepLoop(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-s.stop:
			return
		case <-ticker.C:
			s.sweep()
		}
	}
}

func (s *Store) sweep() {
	s.mu.Lock()
	defer s.mu.Unlock()
	removed := 0
	for id, st := range s.sessions {
		if s.expired(st) {
			delete(s.sessions, id)
			removed++
		}
	}
	if removed > 0 {
		s.logger.Info("expired %d session(s), %d live", removed, len(s.sessions))
	}
}
