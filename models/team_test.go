package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRecalculateWinPercentage(t *testing.T) {
	cases := []struct {
		name   string
		wins   int
		losses int
		want   float64
	}{
		{"no games played", 0, 0, 0},
		{"all wins", 4, 0, 1},
		{"all losses", 0, 4, 0},
		{"mixed record", 3, 1, 0.75},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			team := Team{Wins: tc.wins, Losses: tc.losses, WinPercentage: 0.123}
			team.RecalculateWinPercentage()
			assert.InDelta(t, tc.want, team.WinPercentage, 1e-9)
		})
	}
}

func TestEnumValidity(t *testing.T) {
	assert.True(t, RoleCoach.Valid())
	assert.False(t, UserRole("referee").Valid())

	assert.True(t, PositionCenter.Valid())
	assert.False(t, PlayerPosition("GK").Valid())

	assert.True(t, GameStatusInProgress.Valid())
	assert.False(t, GameStatus("postponed").Valid())
}
