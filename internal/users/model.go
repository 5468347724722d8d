package users

import "time"

// User is an account that owns documents. PasswordHash is empty for
// accounts created through Google sign-in.
type User struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"createdAt"`
}
