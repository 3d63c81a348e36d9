package models

import (
	"encoding/json"
	"testing"
)

func TestPartner(t *testing.T) {
	if Manoj.Partner() != Pooja || Pooja.Partner() != Manoj {
		t.Fatalf("partners are not symmetric")
	}
}

func TestParsePlayerID(t *testing.T) {
	if _, err := ParsePlayerID("manoj"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := ParsePlayerID("guest"); err == nil {
		t.Fatalf("expected error for unknown player")
	}
}

func TestAnswersKeepsSwipeGameNested(t *testing.T) {
	raw := `{"travel-1":2,"food-2":0,"swipe_game":{"wml-1":"pooja"},"junk":"x"}`

	var a Answers
	if err := json.Unmarshal([]byte(raw), &a); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if len(a.Quiz) != 2 || a.Quiz["travel-1"] != 2 || a.Quiz["food-2"] != 0 {
		t.Fatalf("unexpected quiz answers: %+v", a.Quiz)
	}
	if a.Swipe["wml-1"] != Pooja {
		t.Fatalf("unexpected swipe answers: %+v", a.Swipe)
	}

	out, err := json.Marshal(a)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var flat map[string]json.RawMessage
	if err := json.Unmarshal(out, &flat); err != nil {
		t.Fatalf("unmarshal flat: %v", err)
	}
	if _, ok := flat["swipe_game"]; !ok {
		t.Fatalf("swipe_game missing from %s", out)
	}
	if _, ok := flat["junk"]; ok {
		t.Fatalf("junk entry should have been dropped: %s", out)
	}
}

func TestChapterValid(t *testing.T) {
	for _, c := range Chapters {
		if !c.Valid() {
			t.Fatalf("chapter %q should be valid", c)
		}
	}
	if Chapter("wedding").Valid() {
		t.Fatalf("unexpected valid chapter")
	}
}
