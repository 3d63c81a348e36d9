package quiz

// CategoryScore is the compatibility of one category
type CategoryScore struct {
	Category Category `json:"category"`
	Label    string   `json:"label"`
	Matched  int      `json:"matched"`
	Total    int      `json:"total"`
	Percent  int      `json:"percent"`
}

// Report is the compatibility reveal
type Report struct {
	Percent    int             `json:"percent"`
	Matched    int             `json:"matched"`
	Total      int             `json:"total"`
	Categories []CategoryScore `json:"categories"`
}

var categoryLabels = []struct {
	category Category
	label    string
}{
	{CategoryTravel, "Travel Compatibility"},
	{CategoryFood, "Food Sync"},
	{CategoryBengaluru, "Bengaluru Bond"},
	{CategoryFun, "Fun & Personality Match"},
	{CategoryRelationship, "Relationship Alignment"},
	{CategoryRandom, "Random Vibes"},
}

// Compatibility summarises comparison results overall and per category.
// Categories without compared questions are left out.
func Compatibility(results []Match) Report {
	type tally struct{ matched, total int }
	byCategory := make(map[Category]*tally)

	for _, r := range results {
		if r.Category == "" {
			continue
		}
		t := byCategory[r.Category]
		if t == nil {
			t = &tally{}
			byCategory[r.Category] = t
		}
		t.total++
		if r.Matched {
			t.matched++
		}
	}

	matched := CountMatched(results)
	report := Report{
		Percent:    percent(matched, len(results)),
		Matched:    matched,
		Total:      len(results),
		Categories: []CategoryScore{},
	}
	for _, cl := range categoryLabels {
		t := byCategory[cl.category]
		if t == nil || t.total == 0 {
			continue
		}
		report.Categories = append(report.Categories, CategoryScore{
			Category: cl.category,
			Label:    cl.label,
			Matched:  t.matched,
			Total:    t.total,
			Percent:  percent(t.matched, t.total),
		})
	}
	return report
}
