// Package quiz holds the couple's question catalog and the comparison of
// both players' answers.
package quiz

import "wedding-journey/internal/models"

// Kind tells how a question is scored
type Kind string

const (
	// KindAboutPartner questions have an expected answer per player
	KindAboutPartner Kind = "about_partner"
	// KindMatching questions have no correct answer and are only compared
	KindMatching Kind = "matching"
)

// Category groups questions for the compatibility breakdown
type Category string

const (
	CategoryTravel       Category = "travel"
	CategoryFood         Category = "food"
	CategoryBengaluru    Category = "bengaluru"
	CategoryFun          Category = "fun"
	CategoryRelationship Category = "relationship"
	CategoryRandom       Category = "random"
)

// OptionCount is the number of canned options every question has
const OptionCount = 3

// Question is a catalog entry. Wording and Correct are optional per-player
// overrides.
type Question struct {
	ID       string
	Category Category
	Text     string
	Wording  map[models.PlayerID]string
	Options  [OptionCount]string
	Correct  map[models.PlayerID]int
}

// Kind derives the scoring kind from the presence of expected answers
func (q Question) Kind() Kind {
	if len(q.Correct) > 0 {
		return KindAboutPartner
	}
	return KindMatching
}

// PlayerQuestion is a question as presented to one player
type PlayerQuestion struct {
	ID       string              `json:"id"`
	Category Category            `json:"category"`
	Kind     Kind                `json:"type"`
	Question string              `json:"question"`
	Options  [OptionCount]string `json:"options"`
}

// ForPlayer renders the catalog for one player. Expected answers are never
// sent to the browser.
func ForPlayer(id models.PlayerID) []PlayerQuestion {
	out := make([]PlayerQuestion, 0, len(catalog))
	for _, q := range catalog {
		text := q.Text
		if w, ok := q.Wording[id]; ok {
			text = w
		}
		out = append(out, PlayerQuestion{
			ID:       q.ID,
			Category: q.Category,
			Kind:     q.Kind(),
			Question: text,
			Options:  q.Options,
		})
	}
	return out
}

// Lookup returns the catalog entry for id
func Lookup(id string) (Question, bool) {
	i, ok := index[id]
	if !ok {
		return Question{}, false
	}
	return catalog[i], true
}

// Catalog returns a copy of every question in display order
func Catalog() []Question {
	out := make([]Question, len(catalog))
	copy(out, catalog)
	return out
}

func wording(manoj, pooja string) map[models.PlayerID]string {
	return map[models.PlayerID]string{models.Manoj: manoj, models.Pooja: pooja}
}

func correct(manoj, pooja int) map[models.PlayerID]int {
	return map[models.PlayerID]int{models.Manoj: manoj, models.Pooja: pooja}
}

var catalog = []Question{
	// Travel
	{
		ID:       "travel-1",
		Category: CategoryTravel,
		Text:     "Partner's dream honeymoon?",
		Wording:  wording("What's Pooja's dream honeymoon destination?", "What's Manoj's dream honeymoon destination?"),
		Options:  [3]string{"Maldives", "Switzerland", "Bali"},
		Correct:  correct(0, 2),
	},
	{
		ID:       "travel-2",
		Category: CategoryTravel,
		Text:     "First trip together?",
		Wording:  wording("Which place did you both visit together for the FIRST time?", "Which place did you both visit together for the FIRST time?"),
		Options:  [3]string{"Goa", "Nandi Hills", "Coorg"},
		Correct:  correct(1, 1),
	},
	{
		ID:       "travel-3",
		Category: CategoryTravel,
		Text:     "Better navigator?",
		Wording:  wording("Who's the better navigator on road trips?", "Who's the better navigator on road trips?"),
		Options:  [3]string{"Manoj (obviously)", "Pooja (Manoj can't read maps)", "Google Maps (neither trusts the other)"},
		Correct:  correct(2, 2),
	},
	{
		ID:       "travel-4",
		Category: CategoryTravel,
		Text:     "If you could teleport anywhere RIGHT NOW for a weekend, where?",
		Options:  [3]string{"Beach (Goa/Maldives vibes)", "Mountains (Manali/Shimla vibes)", "City escape (Dubai/Singapore vibes)"},
	},
	{
		ID:       "travel-5",
		Category: CategoryTravel,
		Text:     "Your ideal travel style as a couple?",
		Options:  [3]string{"Plan every detail, itinerary locked", "Book flights, figure out the rest there", "Wherever the cheapest deal takes us"},
	},

	// Food
	{
		ID:       "food-1",
		Category: CategoryFood,
		Text:     "Partner's comfort food?",
		Wording:  wording("What's Pooja's comfort food she could eat every single day?", "What does Manoj ALWAYS order when you both eat out?"),
		Options:  [3]string{"Biryani", "Pasta", "Rajma Chawal"},
		Correct:  correct(0, 0),
	},
	{
		ID:       "food-2",
		Category: CategoryFood,
		Text:     "Better cook?",
		Wording:  wording("Who's the better cook between you two?", "Who's the better cook between you two?"),
		Options:  [3]string{"Manoj (secret chef)", "Pooja (no contest)", "Zomato (let's be honest)"},
		Correct:  correct(1, 1),
	},
	{
		ID:       "food-3",
		Category: CategoryFood,
		Text:     "Your own comfort food?",
		Wording:  wording("What does Manoj ALWAYS order when eating out?", "What's Pooja's comfort food she could eat every day?"),
		Options:  [3]string{"Butter Chicken", "Paneer Tikka", "Whatever partner orders (plays safe)"},
		Correct:  correct(0, 1),
	},
	{
		ID:       "food-4",
		Category: CategoryFood,
		Text:     "First meal you'll cook together after the wedding?",
		Options:  [3]string{"Maggi at midnight (classic)", "A proper home-cooked dal-rice", "We're ordering in, who are we kidding"},
	},
	{
		ID:       "food-5",
		Category: CategoryFood,
		Text:     "Your go-to late night craving?",
		Options:  [3]string{"Ice cream from the fridge", "Instant noodles", "Full meal from Swiggy"},
	},

	// Bengaluru
	{
		ID:       "blr-1",
		Category: CategoryBengaluru,
		Text:     "Go-to date spot?",
		Wording:  wording("What's your go-to date spot in Bengaluru?", "What's your go-to date spot in Bengaluru?"),
		Options:  [3]string{"Cubbon Park", "Indiranagar/Koramangala café", "A special restaurant"},
		Correct:  correct(1, 1),
	},
	{
		ID:       "blr-2",
		Category: CategoryBengaluru,
		Text:     "Special memory spot?",
		Wording:  wording("Which Bengaluru spot holds a special memory for you both?", "Which Bengaluru spot holds a special memory for you both?"),
		Options:  [3]string{"Lalbagh", "Nandi Hills sunrise", "That one café where it all started"},
		Correct:  correct(1, 1),
	},
	{
		ID:       "blr-3",
		Category: CategoryBengaluru,
		Text:     "Most spontaneous moment?",
		Wording:  wording("Most spontaneous thing you've done together in Bengaluru?", "Most spontaneous thing you've done together in Bengaluru?"),
		Options:  [3]string{"Late night drive to airport road", "Showed up at a random event/concert", "Tried new cuisine at 1 AM"},
		Correct:  correct(0, 0),
	},
	{
		ID:       "blr-4",
		Category: CategoryBengaluru,
		Text:     "If you had one last evening in Bengaluru together, where?",
		Options:  [3]string{"Rooftop restaurant with a view", "Long drive on Nice Road", `Back to "our spot" one last time`},
	},
	{
		ID:       "blr-5",
		Category: CategoryBengaluru,
		Text:     "Bengaluru traffic on your way to a date, your reaction?",
		Options:  [3]string{"Road rage (honking included)", "Chill playlist and enjoy the ride", "Cancel and order in instead"},
	},

	// Fun & personality
	{
		ID:       "fun-1",
		Category: CategoryFun,
		Text:     "Partner's most annoying habit?",
		Wording:  wording("What's Pooja's most annoying habit according to you?", "What's Manoj's most annoying habit according to you?"),
		Options:  [3]string{"Always on their phone", "Being late to everything", "Forgetting important dates"},
		Correct:  correct(0, 1),
	},
	{
		ID:       "fun-2",
		Category: CategoryFun,
		Text:     "What they think their own worst habit is?",
		Wording:  wording("What does Pooja think HER worst habit is?", "What does Manoj think HIS worst habit is?"),
		Options:  [3]string{"Taking too long to get ready", "Overthinking everything", "Saying 'I'm fine' when not fine"},
		Correct:  correct(1, 0),
	},
	{
		ID:       "fun-3",
		Category: CategoryFun,
		Text:     "Who said I love you first?",
		Wording:  wording("Who said 'I love you' first?", "Who said 'I love you' first?"),
		Options:  [3]string{"Manoj (smooth operator)", "Pooja (someone had to)", "Neither, it was just understood"},
		Correct:  correct(0, 0),
	},
	{
		ID:       "fun-4",
		Category: CategoryFun,
		Text:     "Who'll cry at the wedding?",
		Wording:  wording("Who's more likely to cry at the wedding?", "Who's more likely to cry at the wedding?"),
		Options:  [3]string{"Manoj (secret softie)", "Pooja", "Both, waterfall guaranteed"},
		Correct:  correct(2, 2),
	},
	{
		ID:       "fun-5",
		Category: CategoryFun,
		Text:     "Longest silent treatment?",
		Wording:  wording("Longest you've gone without talking during a fight?", "Longest you've gone without talking during a fight?"),
		Options:  [3]string{"A few hours (can't stay mad)", "A full day", "2+ days (both stubborn)"},
		Correct:  correct(0, 0),
	},
	{
		ID:       "fun-6",
		Category: CategoryFun,
		Text:     "Who will be the strict parent?",
		Options:  [3]string{"Manoj", "Pooja", "Both equally (tag team)"},
	},
	{
		ID:       "fun-7",
		Category: CategoryFun,
		Text:     "The one thing you'll NEVER change about your partner?",
		Options:  [3]string{"Their laugh", "Their stubbornness (it's cute, kind of)", "How they care without showing it"},
	},

	// Relationship & future
	{
		ID:       "rel-1",
		Category: CategoryRelationship,
		Text:     "First impression?",
		Wording:  wording("What was your first impression of Pooja?", "What was your first impression of Manoj?"),
		Options:  [3]string{"Way out of my league", "Really smart/funny", "I need to talk to them again"},
		Correct:  correct(0, 1),
	},
	{
		ID:       "rel-2",
		Category: CategoryRelationship,
		Text:     "How did marriage come up?",
		Wording:  wording("How did the marriage topic first come up?", "How did the marriage topic first come up?"),
		Options:  [3]string{"Grand romantic gesture", "Casually dropped in conversation", "Families got involved first"},
		Correct:  correct(1, 1),
	},
	{
		ID:       "rel-3",
		Category: CategoryRelationship,
		Text:     "Where do you see yourselves in 5 years?",
		Options:  [3]string{"Settled with kids, proper grown-ups", "Traveling the world, no rush", "Building something big together"},
	},
	{
		ID:       "rel-4",
		Category: CategoryRelationship,
		Text:     "Most important thing in your marriage?",
		Options:  [3]string{"Trust, everything else follows", "Laughter, never stop having fun", "Space, letting each other grow"},
	},

	// Pop culture & random
	{
		ID:       "pop-1",
		Category: CategoryRandom,
		Text:     "Pick a Bollywood couple that's most like you:",
		Options:  [3]string{"Bunny & Naina (YJHD)", "Aman & Naina (Kal Ho Naa Ho)", "Kabir & Naina (calmer YJHD vibes)"},
	},
	{
		ID:       "pop-2",
		Category: CategoryRandom,
		Text:     "Who has the remote?",
		Wording:  wording("Who controls the TV remote?", "Who controls the TV remote?"),
		Options:  [3]string{"Manoj", "Pooja", "Whoever grabs it first, survival mode"},
		Correct:  correct(2, 2),
	},
	{
		ID:       "pop-3",
		Category: CategoryRandom,
		Text:     "Your couple song?",
		Options:  [3]string{"Tum Hi Ho", "Perfect (Ed Sheeran)", "Something random only you two know"},
	},
	{
		ID:       "pop-4",
		Category: CategoryRandom,
		Text:     "Your secret?",
		Wording:  wording("Your relationship's best-kept secret?", "Your relationship's best-kept secret?"),
		Options:  [3]string{"Secret nicknames for each other", "Already planned your entire future", "One of you is WAY more romantic than they show"},
		Correct:  correct(0, 0),
	},
}

var index = func() map[string]int {
	m := make(map[string]int, len(catalog))
	for i, q := range catalog {
		m[q.ID] = i
	}
	return m
}()
