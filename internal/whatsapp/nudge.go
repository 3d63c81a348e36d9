package whatsapp

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"wedding-journey/internal/models"
	"wedding-journey/internal/roster"
)

// DefaultNudgeInterval is the minimum time between two nudges to the same partner
const DefaultNudgeInterval = 10 * time.Minute

// ErrNudgeTooSoon is returned when the partner was nudged recently
var ErrNudgeTooSoon = errors.New("partner was nudged recently")

// Noop is a Sender that drops every message
type Noop struct{}

// Send does nothing
func (Noop) Send(context.Context, string, string) error { return nil }

// Nudger sends rate-limited reminders to the partner of a waiting player
type Nudger struct {
	sender Sender
	every  time.Duration

	mu   sync.Mutex
	last map[models.PlayerID]time.Time
	now  func() time.Time
	log  zerolog.Logger
}

// NewNudger creates a nudger. A nil sender disables nudges.
func NewNudger(sender Sender, every time.Duration, log zerolog.Logger) *Nudger {
	if every <= 0 {
		every = DefaultNudgeInterval
	}
	return &Nudger{
		sender: sender,
		every:  every,
		last:   make(map[models.PlayerID]time.Time),
		now:    time.Now,
		log:    log.With().Str("component", "Nudger").Logger(),
	}
}

// Enabled reports whether nudges are delivered
func (n *Nudger) Enabled() bool {
	if n == nil || n.sender == nil {
		return false
	}
	_, noop := n.sender.(Noop)
	return !noop
}

// Nudge tells to that from finished the quiz and is waiting. Each phone of
// to is tried until one delivery succeeds. A disabled nudger reports false
// without an error.
func (n *Nudger) Nudge(ctx context.Context, from, to roster.Participant) (bool, error) {
	if !n.Enabled() {
		return false, nil
	}

	n.mu.Lock()
	if last, ok := n.last[to.ID]; ok && n.now().Sub(last) < n.every {
		n.mu.Unlock()
		return false, ErrNudgeTooSoon
	}
	n.last[to.ID] = n.now()
	n.mu.Unlock()

	msg := NudgeMessage(from, to)

	var errs []error
	for _, phone := range to.Phones {
		err := n.sender.Send(ctx, phone, msg)
		if err == nil {
			n.log.Info().Str("from", string(from.ID)).Str("to", string(to.ID)).Msg("Nudge sent")
			return true, nil
		}
		n.log.Warn().Err(err).Str("to", string(to.ID)).Msg("Nudge delivery failed")
		errs = append(errs, err)
	}

	// let the caller retry right away when nothing got through
	n.mu.Lock()
	delete(n.last, to.ID)
	n.mu.Unlock()

	if len(errs) == 0 {
		return false, fmt.Errorf("no phone number for %s", to.ID)
	}
	return false, fmt.Errorf("failed to nudge %s: %w", to.ID, errors.Join(errs...))
}

// NudgeMessage builds the reminder text
func NudgeMessage(from, to roster.Participant) string {
	return fmt.Sprintf(
		"💌 Hey %s!\n\n"+
			"%s has finished the quiz and is waiting for you in the waiting room.\n\n"+
			"Open the journey and finish yours to unlock your compatibility results! ✨",
		to.DisplayName, from.DisplayName,
	)
}
