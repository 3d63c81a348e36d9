package roster

import (
	"errors"
	"testing"

	"wedding-journey/internal/models"
)

func testRoster() *Roster {
	return New(
		Participant{ID: models.Manoj, DisplayName: "Manoj", Phones: []string{"8825607563", "9176316441"}},
		Participant{ID: models.Pooja, DisplayName: "Pooja", Phones: []string{"+91 84485-22614"}},
	)
}

func TestNormalizePhoneNumber(t *testing.T) {
	cases := map[string]string{
		"8825607563":      "8825607563",
		"+91 88256-07563": "8825607563",
		"918825607563":    "8825607563",
		"08825607563":     "8825607563",
		"(882) 560 7563":  "8825607563",
		"9112345678":      "9112345678",
		"":                "",
	}
	for in, want := range cases {
		if got := NormalizePhoneNumber(in); got != want {
			t.Errorf("NormalizePhoneNumber(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestResolve(t *testing.T) {
	r := testRoster()

	p, err := r.Resolve("+91 91763 16441")
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if p.ID != models.Manoj {
		t.Fatalf("expected manoj, got %s", p.ID)
	}

	p, err = r.Resolve("8448522614")
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if p.ID != models.Pooja || p.PartnerID() != models.Manoj {
		t.Fatalf("unexpected participant %+v", p)
	}

	if _, err := r.Resolve("1234567890"); !errors.Is(err, ErrUnknownPhone) {
		t.Fatalf("expected ErrUnknownPhone, got %v", err)
	}
}

func TestPartnerAndDisplayName(t *testing.T) {
	r := testRoster()
	manoj, _ := r.Get(models.Manoj)
	partner, ok := r.Partner(manoj)
	if !ok || partner.ID != models.Pooja {
		t.Fatalf("unexpected partner %+v", partner)
	}
	if r.DisplayName(models.Pooja) != "Pooja" {
		t.Fatalf("unexpected display name")
	}
	if InternationalNumber("8825607563") != "918825607563" {
		t.Fatalf("unexpected international number")
	}
}
