package journey

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"wedding-journey/internal/models"
	"wedding-journey/internal/roster"
)

// CooldownWindow is how long a finished participant has to wait before
// playing again
const CooldownWindow = 2 * time.Hour

var (
	// ErrNoParticipant is returned when a stage past the gate is requested
	// before a participant was resolved
	ErrNoParticipant = errors.New("no participant resolved")
	// ErrNotAtGate is returned by Enter once the gate was already passed
	ErrNotAtGate = errors.New("session already passed the gate")
	// ErrCooldownActive is returned when replaying before the window expired
	ErrCooldownActive = errors.New("cooldown still active")
	// ErrReplayNotAllowed is returned when replaying from a stage other than
	// cooldown or gift
	ErrReplayNotAllowed = errors.New("replay not allowed from this stage")
)

// PlayerStore is the part of the record store the machine needs
type PlayerStore interface {
	GetPlayer(ctx context.Context, id models.PlayerID) (*models.Player, error)
	ResetPlayer(ctx context.Context, id models.PlayerID) error
}

// Snapshot is a point-in-time view of a machine
type Snapshot struct {
	Stage             Stage
	Participant       *roster.Participant
	CooldownRemaining time.Duration
}

// Machine holds the stage of one guest session
type Machine struct {
	mu          sync.Mutex
	stage       Stage
	participant *roster.Participant
	completedAt time.Time

	// epoch invalidates advancers handed out before a replay to the gate
	epoch uint64

	store PlayerStore
	now   func() time.Time
	log   zerolog.Logger
}

// NewMachine creates a machine sitting at the gate
func NewMachine(store PlayerStore, log zerolog.Logger) *Machine {
	return &Machine{
		stage: StageGate,
		store: store,
		now:   time.Now,
		log:   log.With().Str("component", "Machine").Logger(),
	}
}

// Enter resolves the gate for p. A participant who finished less than
// CooldownWindow ago lands in cooldown; an expired completion is cleared
// from the store and the participant starts fresh at intro.
func (m *Machine) Enter(ctx context.Context, p roster.Participant) (Stage, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.stage != StageGate {
		return m.stage, ErrNotAtGate
	}

	participant := p
	m.participant = &participant
	m.completedAt = time.Time{}
	m.stage = StageIntro

	player, err := m.store.GetPlayer(ctx, p.ID)
	if err != nil {
		m.log.Warn().Err(err).Str("player", string(p.ID)).Msg("Failed to load player record, starting fresh")
		return m.stage, nil
	}
	if player.CompletedAt == nil {
		return m.stage, nil
	}

	if m.now().Sub(*player.CompletedAt) < CooldownWindow {
		m.completedAt = *player.CompletedAt
		m.stage = StageCooldown
		m.log.Info().Str("player", string(p.ID)).Dur("remaining", m.remaining()).Msg("Participant in cooldown")
		return m.stage, nil
	}

	// NOTE: expiry is applied while resolving the gate, so a read clears
	// persisted answers
	if err := m.store.ResetPlayer(ctx, p.ID); err != nil {
		m.log.Error().Err(err).Str("player", string(p.ID)).Msg("Failed to clear expired answers")
	} else {
		m.log.Info().Str("player", string(p.ID)).Msg("Cooldown expired, cleared previous answers")
	}
	return m.stage, nil
}

// Advancer returns a callback that moves the machine from stage to the next
// one. The callback only acts while the machine is still in stage and only
// the first time it is called; it reports whether it advanced.
func (m *Machine) Advancer(stage Stage) func() bool {
	m.mu.Lock()
	epoch := m.epoch
	m.mu.Unlock()

	var fired atomic.Bool
	return func() bool {
		if fired.Load() {
			return false
		}

		m.mu.Lock()
		defer m.mu.Unlock()

		if m.epoch != epoch || m.stage != stage || m.participant == nil {
			return false
		}
		next, ok := stage.Next()
		if !ok {
			return false
		}
		if !fired.CompareAndSwap(false, true) {
			return false
		}

		m.stage = next
		m.log.Debug().Str("player", string(m.participant.ID)).Str("from", string(stage)).Str("to", string(next)).Msg("Stage advanced")
		return true
	}
}

// Replay leaves cooldown once the window expired, or restarts a finished
// journey from the gate. Both clear the participant's stored answers.
func (m *Machine) Replay(ctx context.Context) (Stage, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.participant == nil {
		return m.stage, ErrNoParticipant
	}
	id := m.participant.ID

	switch m.stage {
	case StageCooldown:
		if m.remaining() > 0 {
			return m.stage, ErrCooldownActive
		}
		if err := m.store.ResetPlayer(ctx, id); err != nil {
			return m.stage, fmt.Errorf("failed to reset player %s: %w", id, err)
		}
		m.completedAt = time.Time{}
		m.stage = StageIntro

	case StageGift:
		if err := m.store.ResetPlayer(ctx, id); err != nil {
			return m.stage, fmt.Errorf("failed to reset player %s: %w", id, err)
		}
		m.completedAt = time.Time{}
		m.participant = nil
		m.epoch++
		m.stage = StageGate

	default:
		return m.stage, ErrReplayNotAllowed
	}

	m.log.Info().Str("player", string(id)).Str("stage", string(m.stage)).Msg("Journey replayed")
	return m.stage, nil
}

// Snapshot returns the current stage and participant
func (m *Machine) Snapshot() Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()

	snap := Snapshot{Stage: m.stage}
	if m.participant != nil {
		p := *m.participant
		snap.Participant = &p
	}
	if m.stage == StageCooldown {
		snap.CooldownRemaining = m.remaining()
	}
	return snap
}

// Participant returns the resolved participant
func (m *Machine) Participant() (roster.Participant, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.participant == nil {
		return roster.Participant{}, ErrNoParticipant
	}
	return *m.participant, nil
}

func (m *Machine) remaining() time.Duration {
	if m.completedAt.IsZero() {
		return 0
	}
	left := CooldownWindow - m.now().Sub(m.completedAt)
	if left < 0 {
		return 0
	}
	return left
}
