package dto

type FamilyRequest struct {
	PhoneNumber string         `json:"phoneNumber"`
	FirstName   string         `json:"firstName"`
	LastName    string         `json:"lastName"`
	Household   map[string]any `json:"household"`
}

type VisitRequest struct {
	ID          int64          `json:"id"`
	PhoneNumber string         `json:"phoneNumber"`
	FirstName   string         `json:"firstName"`
	LastName    string         `json:"lastName"`
	Metadata    map[string]any `json:"metadata"`
}

type WasteRequest struct {
	TimeOfWaste int64          `json:"timeOfWaste"`
	Metadata    map[string]any `json:"metadata"`
}
