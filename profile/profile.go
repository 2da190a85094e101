// Package profile reads and edits the signed-in user's account profile and
// keeps the session's cached profile image in step with it.
package profile

import "strings"

// Profile is the backend's view of the current user.
type Profile struct {
	ID             int    `json:"id,omitempty"`              // Backend identifier
	Username       string `json:"username,omitempty"`        // Derived from the email at registration
	Email          string `json:"email,omitempty"`           // Login email
	FirstName      string `json:"first_name,omitempty"`      // First name
	LastName       string `json:"last_name,omitempty"`       // Last name
	Phone          string `json:"phone,omitempty"`           // Phone digits, no country code
	Address        string `json:"address,omitempty"`         // Free-form postal address
	Bio            string `json:"bio,omitempty"`             // Free-form biography
	BirthDate      string `json:"birth_date,omitempty"`      // YYYY-MM-DD
	ProfilePicture string `json:"profile_picture,omitempty"` // Absolute image URL
}

// FullName joins first and last name, trimming the gap when one is missing.
func (p Profile) FullName() string {
	return strings.TrimSpace(p.FirstName + " " + p.LastName)
}
