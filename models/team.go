package models

import "time"

type Team struct {
	ID            int       `json:"id"`
	Name          string    `json:"name"`
	CoachID       int       `json:"coach_id"`
	Wins          int       `json:"wins"`
	Losses        int       `json:"losses"`
	WinPercentage float64   `json:"win_percentage"`
	CreatedAt     time.Time `json:"created_at"`

	Coach   *User    `json:"coach,omitempty"`
	Players []Player `json:"players,omitempty"`

	LogoKey *string `json:"-"`
	LogoURL *string `json:"logo_url,omitempty"`
}

// RecalculateWinPercentage keeps the stored percentage consistent with the
// win/loss counters: wins/(wins+losses), or 0 when no games are recorded.
func (t *Team) RecalculateWinPercentage() {
	total := t.Wins + t.Losses
	if total == 0 {
		t.WinPercentage = 0
		return
	}
	t.WinPercentage = float64(t.Wins) / float64(total)
}
