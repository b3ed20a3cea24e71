package models

import "time"

type User struct {
	ID           int64     `json:"id" db:"id"`
	Username     string    `json:"username" db:"username"`
	PasswordHash string    `json:"-" db:"password_hash"`
	Created      time.Time `json:"created_at" db:"created_at"`
}

// Identity is the caller decoded from a verified session token.
type Identity struct {
	UserID   int64  `json:"id"`
	Username string `json:"username"`
}
