package models

import (
	"encoding/json"
	"fmt"
	"time"
)

// PlayerID identifies one of the two participants
type PlayerID string

const (
	Manoj PlayerID = "manoj"
	Pooja PlayerID = "pooja"
)

// Players lists both participants in a stable order
var Players = []PlayerID{Manoj, Pooja}

// Valid reports whether id is one of the two participants
func (id PlayerID) Valid() bool {
	return id == Manoj || id == Pooja
}

// Partner returns the other participant
func (id PlayerID) Partner() PlayerID {
	if id == Manoj {
		return Pooja
	}
	return Manoj
}

// ParsePlayerID validates a raw identity tag
func ParsePlayerID(raw string) (PlayerID, error) {
	id := PlayerID(raw)
	if !id.Valid() {
		return "", fmt.Errorf("unknown player %q", raw)
	}
	return id, nil
}

// swipeKey is where swipe-game answers live inside the answer map
const swipeKey = "swipe_game"

// Answers is the persisted answer map of a player. Quiz answers are option
// indexes keyed by question id; swipe answers are nested under "swipe_game".
type Answers struct {
	Quiz  map[string]int
	Swipe map[string]PlayerID
}

// MarshalJSON flattens quiz answers next to the swipe_game object
func (a Answers) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, len(a.Quiz)+1)
	for k, v := range a.Quiz {
		out[k] = v
	}
	if len(a.Swipe) > 0 {
		out[swipeKey] = a.Swipe
	}
	return json.Marshal(out)
}

// UnmarshalJSON accepts the flat layout written by MarshalJSON. Entries that
// are neither an index nor the swipe object are skipped.
func (a *Answers) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("failed to unmarshal answers: %w", err)
	}

	a.Quiz = make(map[string]int, len(raw))
	a.Swipe = nil
	for k, v := range raw {
		if k == swipeKey {
			var swipe map[string]PlayerID
			if err := json.Unmarshal(v, &swipe); err == nil {
				a.Swipe = swipe
			}
			continue
		}
		var idx int
		if err := json.Unmarshal(v, &idx); err == nil {
			a.Quiz[k] = idx
		}
	}
	return nil
}

// Player is the persisted record of one participant
type Player struct {
	ID            PlayerID   `json:"id"`
	QuizCompleted bool       `json:"quiz_completed"`
	QuizAnswers   Answers    `json:"quiz_answers"`
	QuizScore     int        `json:"quiz_score"`
	CompletedAt   *time.Time `json:"completed_at,omitempty"`
}
