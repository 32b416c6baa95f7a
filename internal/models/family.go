package models

import "time"

// Family is a household registered at the pantry. Nested records are
// addressed by PhoneNumber (partition) and MemberID (sort key).
type Family struct {
	PhoneNumber string         `json:"phoneNumber"`
	MemberID    string         `json:"memberId,omitempty"`
	FirstName   string         `json:"firstName"`
	LastName    string         `json:"lastName"`
	Household   map[string]any `json:"household,omitempty"`
	Visits      []string       `json:"visits"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
}

// FullName joins first and last name the way member keys are built.
func (f Family) FullName() string {
	return f.FirstName + " " + f.LastName
}

// FamilyKey addresses one nested family record.
type FamilyKey struct {
	PhoneNumber string `json:"phoneNumber"`
	MemberID    string `json:"memberId"`
}
