package models

// User is the normalized principal returned by every provider.
// IsEmailVerified is always present; providers without the signal report false.
type User struct {
	ID              string `json:"id"`
	Email           string `json:"email"`
	IsEmailVerified bool   `json:"is_email_verified"`
}
