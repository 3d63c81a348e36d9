// Package journey sequences a guest through the screens of the wedding
// journey and synchronizes the waiting room with the partner's progress.
package journey

import "fmt"

// Stage is one screen of the journey
type Stage string

const (
	StageGate          Stage = "gate"
	StageCooldown      Stage = "cooldown"
	StageIntro         Stage = "intro"
	StageGallery       Stage = "gallery"
	StageSwipe         Stage = "swipe"
	StageQuiz          Stage = "quiz"
	StageWaiting       Stage = "waiting"
	StageCompatibility Stage = "compatibility"
	StageFortune       Stage = "fortune"
	StageGift          Stage = "gift"
)

// forward maps each stage to the one an advance leads to. Gate and cooldown
// are left through Enter and Replay, gift is terminal.
var forward = map[Stage]Stage{
	StageIntro:         StageGallery,
	StageGallery:       StageSwipe,
	StageSwipe:         StageQuiz,
	StageQuiz:          StageWaiting,
	StageWaiting:       StageCompatibility,
	StageCompatibility: StageFortune,
	StageFortune:       StageGift,
}

// Next returns the stage an advance from s leads to
func (s Stage) Next() (Stage, bool) {
	next, ok := forward[s]
	return next, ok
}

// ClientAdvanced reports whether the browser may advance s on its own.
// Quiz is advanced by submitting answers, waiting by the synchronizer.
func (s Stage) ClientAdvanced() bool {
	switch s {
	case StageIntro, StageGallery, StageSwipe, StageCompatibility, StageFortune:
		return true
	}
	return false
}

var sequence = []Stage{
	StageGate, StageIntro, StageGallery, StageSwipe, StageQuiz,
	StageWaiting, StageCompatibility, StageFortune, StageGift,
}

// Reached reports whether s is target or comes after it. Cooldown sits off
// the main path and only reaches itself.
func (s Stage) Reached(target Stage) bool {
	if s == target {
		return true
	}
	at, want := -1, -1
	for i, st := range sequence {
		if st == s {
			at = i
		}
		if st == target {
			want = i
		}
	}
	return at >= 0 && want >= 0 && at >= want
}

// ParseStage validates a raw stage name
func ParseStage(raw string) (Stage, error) {
	s := Stage(raw)
	switch s {
	case StageGate, StageCooldown, StageGift:
		return s, nil
	}
	if _, ok := forward[s]; ok {
		return s, nil
	}
	return "", fmt.Errorf("unknown stage %q", raw)
}

// Cue is a named effect the browser plays
type Cue string

const (
	CueAmbientStop     Cue = "ambient_stop"
	CueCelebrate       Cue = "celebrate"
	CueEmotionalDamage Cue = "emotional_damage"
	CueGrandReveal     Cue = "grand_reveal"
)
