package game

import (
	"strings"
	"sync"
	"time"

	"mole-hunt/internal/config"
)

// fakeConsole 记录全部下发的命令，并按注入的函数生成回复
type fakeConsole struct {
	mu       sync.Mutex
	commands []string
	online   []string
	respond  func(command string) (string, bool)
}

func (f *fakeConsole) Execute(command string) (string, bool) {
	f.mu.Lock()
	f.commands = append(f.commands, command)
	respond := f.respond
	f.mu.Unlock()

	if respond != nil {
		return respond(command)
	}

	return "", true
}

func (f *fakeConsole) Connect() bool { return true }

func (f *fakeConsole) GetOnlinePlayers() []string {
	f.mu.Lock()
	defer f.mu.Unlock()

	out := make([]string, len(f.online))
	copy(out, f.online)

	return out
}

func (f *fakeConsole) setOnline(players ...string) {
	f.mu.Lock()
	f.online = players
	f.mu.Unlock()
}

func (f *fakeConsole) setRespond(respond func(command string) (string, bool)) {
	f.mu.Lock()
	f.respond = respond
	f.mu.Unlock()
}

// countCommands 统计包含给定子串的命令条数
func (f *fakeConsole) countCommands(substr string) int {
	f.mu.Lock()
	defer f.mu.Unlock()

	count := 0
	for _, cmd := range f.commands {
		if strings.Contains(cmd, substr) {
			count++
		}
	}

	return count
}

func testConfig() *config.AppConfig {
	return &config.AppConfig{
		TraitorRatio:              0.25,
		GameDurationMinutes:       30,
		MinPlayers:                2,
		TimeUpdateIntervalSeconds: 3,
		PvpDelaySeconds:           0,
		CountdownSeconds:          0,
		EndGameDelaySeconds:       0,
		PlayerTracking: config.TrackingConfig{
			UpdateIntervalSeconds: 3,
			ShowDistance:          true,
			ShowDirection:         true,
		},
	}
}

// newTestGameState 构造一个不会真的 sleep 的 GameState
func newTestGameState(cfg *config.AppConfig, fc *fakeConsole) *GameState {
	gs := NewGameState(cfg, fc)
	gs.sleep = func(time.Duration) {}

	return gs
}

// gameModeResponder 按表回复 playerGameType 查询，其余命令回空
func gameModeResponder(modes map[string]string) func(string) (string, bool) {
	return func(command string) (string, bool) {
		if !strings.Contains(command, "playerGameType") {
			return "", true
		}

		for player, mode := range modes {
			if strings.Contains(command, player) {
				return player + " has the following entity data: " + mode, true
			}
		}

		return "No entity was found", true
	}
}
