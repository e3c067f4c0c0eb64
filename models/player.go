package models

import "time"

type PlayerPosition string

const (
	PositionPointGuard    PlayerPosition = "PG"
	PositionShootingGuard PlayerPosition = "SG"
	PositionSmallForward  PlayerPosition = "SF"
	PositionPowerForward  PlayerPosition = "PF"
	PositionCenter        PlayerPosition = "C"
)

func (p PlayerPosition) Valid() bool {
	switch p {
	case PositionPointGuard, PositionShootingGuard, PositionSmallForward,
		PositionPowerForward, PositionCenter:
		return true
	}
	return false
}

// Player links a user account to a team roster spot. The (team_id,
// jersey_number) pair is unique, enforced by a database constraint.
type Player struct {
	ID           int            `json:"id"`
	UserID       int            `json:"user_id"`
	TeamID       *int           `json:"team_id,omitempty"`
	Name         string         `json:"name"`
	Position     PlayerPosition `json:"position"`
	JerseyNumber int            `json:"jersey_number"`
	HeightCM     int            `json:"height_cm"`
	WeightKG     int            `json:"weight_kg"`
	CreatedAt    time.Time      `json:"created_at"`

	// Per-game averages.
	PointsPerGame   float64 `json:"points_per_game"`
	ReboundsPerGame float64 `json:"rebounds_per_game"`
	AssistsPerGame  float64 `json:"assists_per_game"`
	StealsPerGame   float64 `json:"steals_per_game"`
	BlocksPerGame   float64 `json:"blocks_per_game"`
	MinutesPerGame  float64 `json:"minutes_per_game"`

	User *User `json:"user,omitempty"`
	Team *Team `json:"team,omitempty"`
}
