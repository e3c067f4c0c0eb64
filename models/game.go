package models

import "time"

type GameStatus string

const (
	GameStatusScheduled  GameStatus = "scheduled"
	GameStatusInProgress GameStatus = "in_progress"
	GameStatusCompleted  GameStatus = "completed"
	GameStatusCancelled  GameStatus = "cancelled"
)

func (s GameStatus) Valid() bool {
	switch s {
	case GameStatusScheduled, GameStatusInProgress, GameStatusCompleted, GameStatusCancelled:
		return true
	}
	return false
}

type Game struct {
	ID          int        `json:"id"`
	HomeTeamID  int        `json:"home_team_id"`
	AwayTeamID  int        `json:"away_team_id"`
	HomeScore   int        `json:"home_score"`
	AwayScore   int        `json:"away_score"`
	ScheduledAt time.Time  `json:"scheduled_at"`
	Status      GameStatus `json:"status"`
	Quarter     int        `json:"quarter"`
	Clock       string     `json:"clock"`
	Venue       *string    `json:"venue,omitempty"`
	Attendance  *int       `json:"attendance,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`

	HomeTeam *Team      `json:"home_team,omitempty"`
	AwayTeam *Team      `json:"away_team,omitempty"`
	Boxscore []GameStat `json:"boxscore,omitempty"`
}

// GameStat is a single per-player boxscore line.
type GameStat struct {
	ID       int `json:"id"`
	GameID   int `json:"game_id"`
	PlayerID int `json:"player_id"`
	Points   int `json:"points"`
	Rebounds int `json:"rebounds"`
	Assists  int `json:"assists"`
	Steals   int `json:"steals"`
	Blocks   int `json:"blocks"`
	Minutes  int `json:"minutes"`
}
