package models

import "time"

// User represents an account within the Movie Vault platform. Password holds
// the bcrypt hash, never the plaintext.
type User struct {
	ID        string
	Name      string
	Email     string
	Password  string
	Active    bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Public strips the credential fields for use in API responses.
func (u User) Public() PublicUser {
	return PublicUser{ID: u.ID, Name: u.Name, Email: u.Email}
}

// PublicUser is the caller-visible projection of a User.
type PublicUser struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// Publishing year bounds. The upper bound is relative to the wall clock so
// upcoming releases can be catalogued ahead of time.
const (
	MinPublishingYear = 1900
	MaxYearsInFuture  = 10
)

// MaxPublishingYear returns the largest publishing year accepted at the
// provided moment.
func MaxPublishingYear(now time.Time) int {
	return now.Year() + MaxYearsInFuture
}

// Movie represents a catalogued title owned by a single user. Poster is the
// public object-store URL, empty when no poster was uploaded.
type Movie struct {
	ID             string    `json:"id"`
	Title          string    `json:"title"`
	PublishingYear int       `json:"publishingYear"`
	Poster         string    `json:"poster"`
	OwnerID        string    `json:"createdBy"`
	CreatedAt      time.Time `json:"createdAt"`
	UpdatedAt      time.Time `json:"updatedAt"`
}
