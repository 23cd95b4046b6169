package auth

import "time"

// Principal identifies an authenticated actor. It is the only user shape
// ever serialized to clients.
type Principal struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name"`
}

// User is the stored account record behind a Principal.
type User struct {
	ID           string
	Email        string
	Name         string
	PasswordHash string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Principal strips credential material from the stored record.
func (u *User) Principal() Principal {
	return Principal{ID: u.ID, Email: u.Email, Name: u.Name}
}
