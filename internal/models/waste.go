package models

import (
	"strconv"
	"time"
)

// Waste records food discarded at the pantry. TimeOfWaste is Unix milliseconds.
type Waste struct {
	TimeOfWaste int64          `json:"timeOfWaste"`
	Metadata    map[string]any `json:"metadata,omitempty"`
	CreatedAt   time.Time      `json:"created_at"`
}

// Key is the document key the record is stored under.
func (w Waste) Key() string {
	return strconv.FormatInt(w.TimeOfWaste, 10)
}

// SortOrder selects the ordering of a waste query.
type SortOrder string

const (
	Unsorted   SortOrder = ""
	Ascending  SortOrder = "asc"
	Descending SortOrder = "desc"
)

// WasteQuery selects waste records at or after Since.
type WasteQuery struct {
	Since int64
	Order SortOrder
}
