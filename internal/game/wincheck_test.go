package game

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCheckWinConditions(t *testing.T) {
	traitors := []string{"T1"}
	innocents := []string{"I1", "I2"}

	tests := []struct {
		name           string
		aliveTraitors  []string
		aliveInnocents []string
		timerExpired   bool
		onlineCount    int
		wantOK         bool
		wantWinner     string
		wantReason     string
	}{
		{
			name:           "game continues while both sides alive",
			aliveTraitors:  []string{"T1"},
			aliveInnocents: []string{"I1", "I2"},
			onlineCount:    3,
			wantOK:         false,
		},
		{
			name:           "traitors win when innocents wiped",
			aliveTraitors:  []string{"T1"},
			aliveInnocents: nil,
			onlineCount:    3,
			wantOK:         true,
			wantWinner:     WINNER_TRAITORS,
			wantReason:     REASON_INNOCENTS_WIPED,
		},
		{
			name:           "innocents win when traitors wiped",
			aliveTraitors:  nil,
			aliveInnocents: []string{"I1"},
			onlineCount:    3,
			wantOK:         true,
			wantWinner:     WINNER_INNOCENTS,
			wantReason:     REASON_TRAITORS_WIPED,
		},
		{
			name:           "innocents win on time expiry",
			aliveTraitors:  []string{"T1"},
			aliveInnocents: []string{"I1"},
			timerExpired:   true,
			onlineCount:    3,
			wantOK:         true,
			wantWinner:     WINNER_INNOCENTS,
			wantReason:     REASON_TIME_LIMIT_REACHED,
		},
		{
			name:           "simultaneous wipe is a draw, not a traitor win",
			aliveTraitors:  nil,
			aliveInnocents: nil,
			onlineCount:    3,
			wantOK:         true,
			wantWinner:     WINNER_DRAW,
			wantReason:     REASON_NO_PLAYERS,
		},
		{
			name:           "empty server does not end the game",
			aliveTraitors:  nil,
			aliveInnocents: nil,
			onlineCount:    0,
			wantOK:         false,
		},
		{
			name:           "time expiry without living innocents is not an innocent win",
			aliveTraitors:  []string{"T1"},
			aliveInnocents: nil,
			timerExpired:   true,
			onlineCount:    2,
			wantOK:         true,
			wantWinner:     WINNER_TRAITORS,
			wantReason:     REASON_INNOCENTS_WIPED,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			winner, reason, ok := CheckWinConditions(
				tt.aliveTraitors,
				tt.aliveInnocents,
				traitors,
				innocents,
				tt.timerExpired,
				tt.onlineCount,
			)

			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.wantWinner, winner)
			assert.Equal(t, tt.wantReason, reason)
		})
	}
}

func TestCheckWinConditionsBeforeAssignment(t *testing.T) {
	// 身份还没分配时不可能结束游戏
	winner, _, ok := CheckWinConditions(nil, nil, nil, nil, true, 3)

	assert.False(t, ok)
	assert.Empty(t, winner)
}
