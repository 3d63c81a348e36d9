// Package realtime carries player change notifications between sessions.
package realtime

import (
	"context"
	"time"

	"wedding-journey/internal/models"
)

// Change is the notification emitted after a player record is written
type Change struct {
	PlayerID      models.PlayerID `json:"id"`
	QuizCompleted bool            `json:"quiz_completed"`
	At            time.Time       `json:"at"`
}

// Subscription delivers changes for a single player until closed.
// Close is safe to call more than once.
type Subscription interface {
	Changes() <-chan Change
	Close() error
}

// Publisher emits changes
type Publisher interface {
	Publish(ctx context.Context, change Change) error
}

// Feed is a change-notification channel scoped by player
type Feed interface {
	Publisher
	Subscribe(ctx context.Context, id models.PlayerID) (Subscription, error)
}
