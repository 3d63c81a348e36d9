package roster

import (
	"errors"
	"strings"
	"unicode"

	"wedding-journey/internal/models"
)

// ErrUnknownPhone is returned when a phone number is not on the allow-list
var ErrUnknownPhone = errors.New("phone number not recognized")

// Participant is one of the two people the journey is built for
type Participant struct {
	ID          models.PlayerID `json:"id"`
	DisplayName string          `json:"display_name"`
	Phones      []string        `json:"-"`
}

// PartnerID returns the identity of the other participant
func (p Participant) PartnerID() models.PlayerID {
	return p.ID.Partner()
}

// Roster resolves phone numbers to participants
type Roster struct {
	byID    map[models.PlayerID]Participant
	byPhone map[string]models.PlayerID
}

// New builds a roster. Phone numbers are normalized before indexing.
func New(participants ...Participant) *Roster {
	r := &Roster{
		byID:    make(map[models.PlayerID]Participant, len(participants)),
		byPhone: make(map[string]models.PlayerID),
	}
	for _, p := range participants {
		r.byID[p.ID] = p
		for _, phone := range p.Phones {
			r.byPhone[NormalizePhoneNumber(phone)] = p.ID
		}
	}
	return r
}

// Resolve returns the participant owning phone
func (r *Roster) Resolve(phone string) (Participant, error) {
	id, ok := r.byPhone[NormalizePhoneNumber(phone)]
	if !ok {
		return Participant{}, ErrUnknownPhone
	}
	return r.byID[id], nil
}

// Get returns the participant with the given id
func (r *Roster) Get(id models.PlayerID) (Participant, bool) {
	p, ok := r.byID[id]
	return p, ok
}

// Partner returns the other participant of p
func (r *Roster) Partner(p Participant) (Participant, bool) {
	return r.Get(p.PartnerID())
}

// DisplayName returns the display name for id, falling back to the raw tag
func (r *Roster) DisplayName(id models.PlayerID) string {
	if p, ok := r.byID[id]; ok && p.DisplayName != "" {
		return p.DisplayName
	}
	return string(id)
}

// NormalizePhoneNumber reduces a phone number to its 10 digit national form.
// Handles Indian numbers given with the 91 country code or a trunk 0.
func NormalizePhoneNumber(phoneNumber string) string {
	var b strings.Builder
	for _, r := range phoneNumber {
		if unicode.IsDigit(r) {
			b.WriteRune(r)
		}
	}
	phoneNumber = b.String()

	// +91XXXXXXXXXX -> XXXXXXXXXX
	if strings.HasPrefix(phoneNumber, "91") && len(phoneNumber) == 12 {
		phoneNumber = phoneNumber[2:]
	}

	// 0XXXXXXXXXX -> XXXXXXXXXX
	if strings.HasPrefix(phoneNumber, "0") && len(phoneNumber) == 11 {
		phoneNumber = phoneNumber[1:]
	}

	return phoneNumber
}

// InternationalNumber returns the number with the 91 country code, the form
// WhatsApp expects
func InternationalNumber(phoneNumber string) string {
	return "91" + NormalizePhoneNumber(phoneNumber)
}
