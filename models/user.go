package models

import "time"

type UserRole string

const (
	RoleAdmin  UserRole = "admin"
	RoleCoach  UserRole = "coach"
	RolePlayer UserRole = "player"
)

// Valid reports whether the role is one of the known values.
func (r UserRole) Valid() bool {
	switch r {
	case RoleAdmin, RoleCoach, RolePlayer:
		return true
	}
	return false
}

type User struct {
	ID           int       `json:"id"`
	FirstName    string    `json:"first_name"`
	LastName     string    `json:"last_name"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Role         UserRole  `json:"role"`
	TeamID       *int      `json:"team_id,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}
