package quiz

import (
	"math"
	"sort"

	"wedding-journey/internal/models"
)

// Match is the comparison of both players' answers to one question
type Match struct {
	QuestionID string   `json:"question_id"`
	Question   string   `json:"question,omitempty"`
	Category   Category `json:"category,omitempty"`
	AnswerA    int      `json:"answer_a"`
	AnswerB    int      `json:"answer_b"`
	OptionA    string   `json:"option_a,omitempty"`
	OptionB    string   `json:"option_b,omitempty"`
	Matched    bool     `json:"matched"`
}

// CompareMatchingAnswers compares two answer maps on the question ids both
// contain. Known questions come first in catalog order, unknown ids follow
// sorted. A nil map on either side yields no results.
func CompareMatchingAnswers(a, b map[string]int) []Match {
	if len(a) == 0 || len(b) == 0 {
		return []Match{}
	}

	shared := make([]string, 0, len(a))
	for id := range a {
		if _, ok := b[id]; ok {
			shared = append(shared, id)
		}
	}
	sort.Slice(shared, func(i, j int) bool {
		pi, iKnown := index[shared[i]]
		pj, jKnown := index[shared[j]]
		switch {
		case iKnown && jKnown:
			return pi < pj
		case iKnown != jKnown:
			return iKnown
		default:
			return shared[i] < shared[j]
		}
	})

	out := make([]Match, 0, len(shared))
	for _, id := range shared {
		m := Match{
			QuestionID: id,
			AnswerA:    a[id],
			AnswerB:    b[id],
			Matched:    a[id] == b[id],
		}
		if q, ok := Lookup(id); ok {
			m.Question = q.Text
			m.Category = q.Category
			m.OptionA = option(q, m.AnswerA)
			m.OptionB = option(q, m.AnswerB)
		}
		out = append(out, m)
	}
	return out
}

func option(q Question, idx int) string {
	if idx < 0 || idx >= len(q.Options) {
		return ""
	}
	return q.Options[idx]
}

// CountMatched returns the number of matched results
func CountMatched(results []Match) int {
	n := 0
	for _, r := range results {
		if r.Matched {
			n++
		}
	}
	return n
}

// Score counts the about-partner questions player answered as expected
func Score(player models.PlayerID, answers map[string]int) int {
	score := 0
	for id, idx := range answers {
		q, ok := Lookup(id)
		if !ok || q.Kind() != KindAboutPartner {
			continue
		}
		if want, ok := q.Correct[player]; ok && want == idx {
			score++
		}
	}
	return score
}

// AboutPartnerTotal is the number of scored questions in the catalog
func AboutPartnerTotal() int {
	n := 0
	for _, q := range catalog {
		if q.Kind() == KindAboutPartner {
			n++
		}
	}
	return n
}

// Validate drops answers for unknown questions and out of range options
func Validate(answers map[string]int) map[string]int {
	out := make(map[string]int, len(answers))
	for id, idx := range answers {
		if _, ok := Lookup(id); !ok {
			continue
		}
		if idx < 0 || idx >= OptionCount {
			continue
		}
		out[id] = idx
	}
	return out
}

// percent rounds matched/total to a whole percentage
func percent(matched, total int) int {
	if total == 0 {
		return 0
	}
	return int(math.Round(float64(matched) / float64(total) * 100))
}
