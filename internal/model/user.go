// Package model defines the data structures used throughout the application.
// In Go, we use structs to represent our data — similar to classes in other languages,
// but without inheritance. Go favours composition over inheritance.
package model

import "regexp"

// User represents a registered account in the local registry.
//
// The ID is generated once at registration (xid) and scopes the user's fitness
// data in the local store. The Username is the key of the registry and also the
// name of the user's database file on the backend.
type User struct {
	ID          string       `json:"id"`
	Username    string       `json:"username"`
	ProfileData *ProfileData `json:"profileData,omitempty"`
}

// ProfileData holds the optional body metrics of a user.
//
// WHY POINTERS?
// Every field is optional: a nil pointer means "not supplied", which is
// different from an explicit zero. Merge relies on this to apply partial updates.
type ProfileData struct {
	Height *float64 `json:"height,omitempty"`
	Weight *float64 `json:"weight,omitempty"`
	Age    *float64 `json:"age,omitempty"`
	Gender *string  `json:"gender,omitempty"`
}

// EmptyProfile returns a profile with every field set to its zero value.
// New registrations start with this profile.
func EmptyProfile() *ProfileData {
	var (
		height, weight, age float64
		gender              string
	)
	return &ProfileData{Height: &height, Weight: &weight, Age: &age, Gender: &gender}
}

// Merge returns a copy of p with every non-nil field of update applied on top.
// A nil receiver is treated as an empty profile.
func (p *ProfileData) Merge(update ProfileData) *ProfileData {
	merged := ProfileData{}
	if p != nil {
		merged = *p
	}
	if update.Height != nil {
		merged.Height = update.Height
	}
	if update.Weight != nil {
		merged.Weight = update.Weight
	}
	if update.Age != nil {
		merged.Age = update.Age
	}
	if update.Gender != nil {
		merged.Gender = update.Gender
	}
	return &merged
}

// Credential is one entry in the local user registry, keyed by username.
// Password holds the output of the configured password hasher.
type Credential struct {
	Username string `json:"username"`
	Password string `json:"password"`
	UserData User   `json:"userData"`
}

// MaxUsernameLength bounds usernames, which double as database file names.
const MaxUsernameLength = 64

var usernamePattern = regexp.MustCompile(`^[A-Za-z0-9_.-]+$`)

// ValidUsername reports whether name is safe to use as a database file name.
func ValidUsername(name string) bool {
	if name == "" || name == "." || name == ".." || len(name) > MaxUsernameLength {
		return false
	}
	return usernamePattern.MatchString(name)
}
