package services

import (
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/diewo77/literie-pos/internal/wizard"
)

// WizardSession is one tablet's wizard run. The store and InvoiceID are only
// touched through WizardSessions.Do, which holds the session lock; TouchedAt
// belongs to the registry lock.
type WizardSession struct {
	ID        string
	SellerID  uint
	InvoiceID *uint // set once the draft has been saved or when resumed
	CreatedAt time.Time
	TouchedAt time.Time

	mu    sync.Mutex
	store *wizard.Store
}

// WizardSessions keeps live wizard runs in memory, keyed by a random id.
type WizardSessions struct {
	mu       sync.Mutex
	sessions map[string]*WizardSession
	opts     []wizard.Option
	now      func() time.Time
}

func NewWizardSessions(opts ...wizard.Option) *WizardSessions {
	return &WizardSessions{
		sessions: map[string]*WizardSession{},
		opts:     opts,
		now:      time.Now,
	}
}

// SetClock replaces time.Now for TouchedAt bookkeeping.
func (r *WizardSessions) SetClock(now func() time.Time) { r.now = now }

// Create registers a session with a fresh store for sellerID.
func (r *WizardSessions) Create(sellerID uint) *WizardSession {
	now := r.now()
	s := &WizardSession{
		ID:        uuid.NewString(),
		SellerID:  sellerID,
		CreatedAt: now,
		TouchedAt: now,
		store:     wizard.NewStore(r.opts...),
	}
	r.mu.Lock()
	r.sessions[s.ID] = s
	r.mu.Unlock()
	return s
}

// touch returns the session and refreshes its idle clock.
func (r *WizardSessions) touch(id string, sellerID uint) (*WizardSession, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[id]
	if !ok || s.SellerID != sellerID {
		return nil, ErrSessionNotFound
	}
	s.TouchedAt = r.now()
	return s, nil
}

// Do runs fn with exclusive access to the session's store. Sessions of
// another seller are reported as not found.
func (r *WizardSessions) Do(id string, sellerID uint, fn func(s *WizardSession, st *wizard.Store) error) error {
	s, err := r.touch(id, sellerID)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return fn(s, s.store)
}

// SessionInfo is the registry view of a session, safe to read without locks.
type SessionInfo struct {
	ID        string    `json:"id"`
	CreatedAt time.Time `json:"created_at"`
	TouchedAt time.Time `json:"touched_at"`
}

// List returns the seller's sessions, most recently used first.
func (r *WizardSessions) List(sellerID uint) []SessionInfo {
	r.mu.Lock()
	out := make([]SessionInfo, 0, len(r.sessions))
	for _, s := range r.sessions {
		if s.SellerID == sellerID {
			out = append(out, SessionInfo{ID: s.ID, CreatedAt: s.CreatedAt, TouchedAt: s.TouchedAt})
		}
	}
	r.mu.Unlock()
	sort.Slice(out, func(i, j int) bool { return out[i].TouchedAt.After(out[j].TouchedAt) })
	return out
}

func (r *WizardSessions) Delete(id string, sellerID uint) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[id]
	if !ok || s.SellerID != sellerID {
		return ErrSessionNotFound
	}
	delete(r.sessions, id)
	return nil
}

// Purge drops sessions idle for longer than ttl and returns how many went.
func (r *WizardSessions) Purge(ttl time.Duration) int {
	cutoff := r.now().Add(-ttl)
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for id, s := range r.sessions {
		if s.TouchedAt.Before(cutoff) {
			delete(r.sessions, id)
			n++
		}
	}
	return n
}

func (r *WizardSessions) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}
