// Package session keeps the in-memory journey sessions keyed by browser
// cookie.
package session

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"wedding-journey/internal/journey"
)

// CookieName is the cookie carrying the session id
const CookieName = "wj_session"

// Session is one browser's journey
type Session struct {
	ID      string
	Machine *journey.Machine

	mu       sync.Mutex
	cues     []journey.Cue
	played   map[journey.Cue]bool
	lastSeen time.Time
}

// StopAmbient queues the ambient-stop cue. A session plays it once even when
// a later long-poll sees the partner's completion again.
func (s *Session) StopAmbient() {
	s.cueOnce(journey.CueAmbientStop)
}

// Celebrate queues the celebration cue, once per session
func (s *Session) Celebrate() {
	s.cueOnce(journey.CueCelebrate)
}

func (s *Session) cueOnce(c journey.Cue) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.played[c] {
		return
	}
	if s.played == nil {
		s.played = make(map[journey.Cue]bool)
	}
	s.played[c] = true
	s.cues = append(s.cues, c)
}

// Cue queues an effect for the browser
func (s *Session) Cue(c journey.Cue) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cues = append(s.cues, c)
}

// DrainCues returns and clears the queued cues
func (s *Session) DrainCues() []journey.Cue {
	s.mu.Lock()
	defer s.mu.Unlock()

	cues := s.cues
	s.cues = nil
	if cues == nil {
		return []journey.Cue{}
	}
	return cues
}

func (s *Session) touch(now time.Time) {
	s.mu.Lock()
	s.lastSeen = now
	s.mu.Unlock()
}

func (s *Session) idleSince() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastSeen
}

// Registry holds the live sessions
type Registry struct {
	mu         sync.RWMutex
	sessions   map[string]*Session
	newMachine func() *journey.Machine
	now        func() time.Time
	log        zerolog.Logger
}

// NewRegistry creates an empty registry. newMachine builds the stage machine
// of every new session.
func NewRegistry(newMachine func() *journey.Machine, log zerolog.Logger) *Registry {
	return &Registry{
		sessions:   make(map[string]*Session),
		newMachine: newMachine,
		now:        time.Now,
		log:        log.With().Str("component", "Sessions").Logger(),
	}
}

// Get returns the session with id and marks it as seen
func (r *Registry) Get(id string) (*Session, bool) {
	r.mu.RLock()
	s, ok := r.sessions[id]
	r.mu.RUnlock()

	if ok {
		s.touch(r.now())
	}
	return s, ok
}

// Create starts a new session at the gate
func (r *Registry) Create() *Session {
	s := &Session{
		ID:       uuid.NewString(),
		Machine:  r.newMachine(),
		lastSeen: r.now(),
	}

	r.mu.Lock()
	r.sessions[s.ID] = s
	r.mu.Unlock()

	r.log.Debug().Str("session", s.ID).Msg("Session created")
	return s
}

// Delete forgets a session
func (r *Registry) Delete(id string) {
	r.mu.Lock()
	delete(r.sessions, id)
	r.mu.Unlock()
}

// Clear forgets every session and returns how many there were
func (r *Registry) Clear() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	n := len(r.sessions)
	r.sessions = make(map[string]*Session)
	return n
}

// Len returns the number of live sessions
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}

// Sweep drops sessions idle for longer than ttl and returns how many went
func (r *Registry) Sweep(ttl time.Duration) int {
	cutoff := r.now().Add(-ttl)

	r.mu.Lock()
	defer r.mu.Unlock()

	removed := 0
	for id, s := range r.sessions {
		if s.idleSince().Before(cutoff) {
			delete(r.sessions, id)
			removed++
		}
	}
	if removed > 0 {
		r.log.Info().Int("removed", removed).Int("remaining", len(r.sessions)).Msg("Swept idle sessions")
	}
	return removed
}
