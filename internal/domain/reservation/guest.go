package reservation

import "strings"

// GuestDetails identifies the person staying.
type GuestDetails struct {
	FirstName       string `json:"first_name"`
	LastName        string `json:"last_name"`
	Email           string `json:"email"`
	Phone           string `json:"phone"`
	SpecialRequests string `json:"special_requests,omitempty"`
}

// Normalized returns a copy with surrounding whitespace removed.
func (g GuestDetails) Normalized() GuestDetails {
	return GuestDetails{
		FirstName:       strings.TrimSpace(g.FirstName),
		LastName:        strings.TrimSpace(g.LastName),
		Email:           strings.TrimSpace(g.Email),
		Phone:           strings.TrimSpace(g.Phone),
		SpecialRequests: strings.TrimSpace(g.SpecialRequests),
	}
}

// FullName joins first and last name.
func (g GuestDetails) FullName() string {
	return strings.TrimSpace(g.FirstName + " " + g.LastName)
}
