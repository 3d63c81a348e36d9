package quiz

import "wedding-journey/internal/models"

// Scenario is a "who's more likely to" card of the swipe game
type Scenario struct {
	ID    string `json:"id"`
	Text  string `json:"text"`
	Emoji string `json:"emoji"`
}

var scenarios = []Scenario{
	{ID: "wml-1", Text: "Forget their wedding anniversary", Emoji: "📅"},
	{ID: "wml-2", Text: "Cry watching a Bollywood movie", Emoji: "😭"},
	{ID: "wml-3", Text: "Burn food while cooking", Emoji: "🔥"},
	{ID: "wml-4", Text: "Fall asleep during a road trip", Emoji: "😴"},
	{ID: "wml-5", Text: "Hog the blanket at night", Emoji: "🛏️"},
	{ID: "wml-6", Text: "Spend 2 hours getting ready", Emoji: "💅"},
	{ID: "wml-7", Text: "Start a fight over the AC temperature", Emoji: "❄️"},
	{ID: "wml-8", Text: "Plan an entire trip in 10 minutes", Emoji: "✈️"},
	{ID: "wml-9", Text: "Say 'I told you so'", Emoji: "😏"},
	{ID: "wml-10", Text: "Secretly eat the last piece of dessert", Emoji: "🍰"},
	{ID: "wml-11", Text: "Be the strict parent", Emoji: "👆"},
	{ID: "wml-12", Text: "Apologize first after a fight", Emoji: "🤝"},
	{ID: "wml-13", Text: "Get lost even with Google Maps", Emoji: "🗺️"},
	{ID: "wml-14", Text: "Embarrass the other in public", Emoji: "🫣"},
	{ID: "wml-15", Text: "Still use Hinge... just kidding 😂", Emoji: "💝"},
}

// Scenarios returns the swipe cards in order
func Scenarios() []Scenario {
	out := make([]Scenario, len(scenarios))
	copy(out, scenarios)
	return out
}

// ValidateSwipes keeps answers for known scenarios naming a participant
func ValidateSwipes(answers map[string]models.PlayerID) map[string]models.PlayerID {
	known := make(map[string]bool, len(scenarios))
	for _, s := range scenarios {
		known[s.ID] = true
	}

	out := make(map[string]models.PlayerID, len(answers))
	for id, who := range answers {
		if known[id] && who.Valid() {
			out[id] = who
		}
	}
	return out
}

// Tally counts how many cards were swiped towards each participant
func Tally(answers map[string]models.PlayerID) map[models.PlayerID]int {
	out := map[models.PlayerID]int{models.Manoj: 0, models.Pooja: 0}
	for _, who := range answers {
		if who.Valid() {
			out[who]++
		}
	}
	return out
}
