package models

import (
	"strconv"
	"time"
)

// Visit is a single check-in. ID is the check-in time in Unix milliseconds.
type Visit struct {
	ID          int64          `json:"id"`
	PhoneNumber string         `json:"phoneNumber"`
	FirstName   string         `json:"firstName"`
	LastName    string         `json:"lastName"`
	Metadata    map[string]any `json:"metadata,omitempty"`
	CreatedAt   time.Time      `json:"created_at"`
}

// Key is the document key the visit is stored and referenced under.
func (v Visit) Key() string {
	return strconv.FormatInt(v.ID, 10)
}

// FullName joins first and last name the way member keys are built.
func (v Visit) FullName() string {
	return v.FirstName + " " + v.LastName
}
