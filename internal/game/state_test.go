package game

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// 直接把一局游戏摆到进行中的状态，绕过开局流程
func newRunningGame(fc *fakeConsole, roles map[string]string) *GameState {
	gs := newTestGameState(testConfig(), fc)

	for player, role := range roles {
		gs.roles.SetRole(player, role)
		gs.alive[player] = struct{}{}
		gs.deathCounts[player] = 0
	}
	gs.status = STATUS_IN_PROGRESS
	gs.timer.Start()

	return gs
}

func TestEndGameAnnouncesExactlyOnce(t *testing.T) {
	fc := &fakeConsole{}
	fc.setOnline("T1", "I1")

	gs := newRunningGame(fc, map[string]string{
		"T1": ROLE_TRAITOR,
		"I1": ROLE_INNOCENT,
	})

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			gs.endGame(WINNER_INNOCENTS, REASON_TRAITORS_WIPED)
		}()
	}
	wg.Wait()
	gs.WaitForCleanup()

	if n := fc.countCommands("MOLE HUNT GAME ENDED"); n != 1 {
		t.Fatalf("end announcement must go out exactly once, got %d", n)
	}
	if n := fc.countCommands("WINNERS"); n != 1 {
		t.Fatalf("winner line must go out exactly once, got %d", n)
	}
}

func TestEndGameRunsCleanup(t *testing.T) {
	fc := &fakeConsole{}
	fc.setOnline("T1", "I1")

	gs := newRunningGame(fc, map[string]string{
		"T1": ROLE_TRAITOR,
		"I1": ROLE_INNOCENT,
	})

	gs.endGame(WINNER_INNOCENTS, REASON_TRAITORS_WIPED)
	gs.WaitForCleanup()

	assert.Equal(t, 1, fc.countCommands("gamemode survival @a"))
	assert.Equal(t, 1, fc.countCommands("gamerule pvp true"))
	// 内鬼的能力在善后时被逐项移除
	assert.Equal(t, 1, fc.countCommands("effect clear T1 minecraft:invisibility"))
	assert.Equal(t, 1, fc.countCommands("effect clear T1 minecraft:night_vision"))
	// 善后完成后回到待机，可以直接开下一局
	assert.Equal(t, STATUS_NOT_STARTED, gs.Status())
	assert.False(t, gs.roles.Assigned())

	winner, reason := gs.Result()
	assert.Equal(t, WINNER_INNOCENTS, winner)
	assert.Equal(t, REASON_TRAITORS_WIPED, reason)
}

func TestStopGame(t *testing.T) {
	fc := &fakeConsole{}
	fc.setOnline("T1", "I1")

	gs := newRunningGame(fc, map[string]string{
		"T1": ROLE_TRAITOR,
		"I1": ROLE_INNOCENT,
	})

	require.NoError(t, gs.StopGame())
	gs.WaitForCleanup()

	winner, reason := gs.Result()
	assert.Equal(t, WINNER_DRAW, winner)
	assert.Equal(t, "Game stopped by administrator", reason)

	// 没有进行中的游戏时不能再停
	assert.Error(t, gs.StopGame())
}

func TestStartGameRejectsTooFewPlayers(t *testing.T) {
	fc := &fakeConsole{}
	fc.setOnline("Alice")

	gs := newTestGameState(testConfig(), fc)

	err := gs.StartGame(StartOptions{})

	require.Error(t, err)
	assert.Equal(t, STATUS_NOT_STARTED, gs.Status())
}

func TestStartGameAssignsRolesAndRuns(t *testing.T) {
	fc := &fakeConsole{}
	fc.setOnline("Alice", "Bob", "Carol", "Dave")

	gs := newTestGameState(testConfig(), fc)
	gs.roles.shuffle = func(n int, swap func(i, j int)) {}

	require.NoError(t, gs.StartGame(StartOptions{}))

	assert.Equal(t, STATUS_IN_PROGRESS, gs.Status())
	assert.Len(t, gs.roles.Traitors(), 1)
	assert.Len(t, gs.roles.Innocents(), 3)

	traitors, innocents := gs.AliveCounts()
	assert.Equal(t, 1, traitors)
	assert.Equal(t, 3, innocents)

	// 每个人都收到了身份标题
	assert.GreaterOrEqual(t, fc.countCommands("YOU ARE"), 4)

	require.NoError(t, gs.StopGame())
	gs.WaitForCleanup()
}

func TestTraitorsWinWhenAllInnocentsFall(t *testing.T) {
	fc := &fakeConsole{}
	fc.setOnline("T1", "I1", "I2", "I3")

	gs := newRunningGame(fc, map[string]string{
		"T1": ROLE_TRAITOR,
		"I1": ROLE_INNOCENT,
		"I2": ROLE_INNOCENT,
		"I3": ROLE_INNOCENT,
	})

	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	detector := gs.detector.(*spectatorDetector)
	detector.now = func() time.Time { return now }

	fc.setRespond(gameModeResponder(map[string]string{
		"T1": "0", "I1": "3", "I2": "3", "I3": "3",
	}))

	detector.Check()
	require.Equal(t, STATUS_IN_PROGRESS, gs.Status(), "pending deaths must not end the game")

	now = now.Add(time.Second)
	detector.Check()
	gs.WaitForCleanup()

	winner, reason := gs.Result()
	assert.Equal(t, WINNER_TRAITORS, winner)
	assert.Equal(t, REASON_INNOCENTS_WIPED, reason)
}

func TestInnocentsWinOnTimeExpiry(t *testing.T) {
	fc := &fakeConsole{}
	fc.setOnline("T1", "I1")

	gs := newRunningGame(fc, map[string]string{
		"T1": ROLE_TRAITOR,
		"I1": ROLE_INNOCENT,
	})

	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	gs.timer.now = func() time.Time { return now }
	gs.timer.Start()

	ended := gs.checkWinAndMaybeEnd(fc.GetOnlinePlayers())
	require.False(t, ended, "game must keep running before expiry")

	now = now.Add(31 * time.Minute)

	ended = gs.checkWinAndMaybeEnd(fc.GetOnlinePlayers())
	require.True(t, ended)
	gs.WaitForCleanup()

	winner, reason := gs.Result()
	assert.Equal(t, WINNER_INNOCENTS, winner)
	assert.Equal(t, REASON_TIME_LIMIT_REACHED, reason)
}

func TestSpawnPointResolution(t *testing.T) {
	fc := &fakeConsole{}
	cfg := testConfig()
	gs := newTestGameState(cfg, fc)

	// 默认集合点
	assert.Equal(t, Position{X: 0, Y: 100, Z: 0}, gs.spawnPoint())

	// 边界启用时落到边界中心
	cfg.WorldBorder.Enabled = true
	cfg.WorldBorder.CenterX = 500
	cfg.WorldBorder.CenterZ = -500
	assert.Equal(t, Position{X: 500, Y: 100, Z: -500}, gs.spawnPoint())

	// 显式配置优先级最高
	x, y, z := 1.0, 80.0, 2.0
	cfg.SpawnPoint.X, cfg.SpawnPoint.Y, cfg.SpawnPoint.Z = &x, &y, &z
	assert.Equal(t, Position{X: 1, Y: 80, Z: 2}, gs.spawnPoint())
}

func TestStartGameRejectedWhileRunning(t *testing.T) {
	fc := &fakeConsole{}
	fc.setOnline("T1", "I1")

	gs := newRunningGame(fc, map[string]string{
		"T1": ROLE_TRAITOR,
		"I1": ROLE_INNOCENT,
	})

	err := gs.StartGame(StartOptions{})

	require.Error(t, err)
}

func TestStopDuringSecondGameSetup(t *testing.T) {
	fc := &fakeConsole{}
	fc.setOnline("T1", "I1")

	gs := newRunningGame(fc, map[string]string{
		"T1": ROLE_TRAITOR,
		"I1": ROLE_INNOCENT,
	})

	gs.endGame(WINNER_DRAW, "round one over")
	gs.WaitForCleanup()

	// 第二局开局途中收到终止请求：上一局的停止通道已经关闭，
	// 这里绝不能再去关它
	gs.mu.Lock()
	gs.status = STATUS_STARTING
	gs.mu.Unlock()

	require.NotPanics(t, func() {
		require.NoError(t, gs.StopGame())
	})
	gs.WaitForCleanup()

	assert.Equal(t, STATUS_NOT_STARTED, gs.Status())
}

func TestStartGameExcludesSpectators(t *testing.T) {
	fc := &fakeConsole{}
	fc.setOnline("Alice", "Bob", "Carol")
	fc.setRespond(gameModeResponder(map[string]string{
		"Alice": "3",
		"Bob":   "0",
		"Carol": "0",
	}))

	gs := newTestGameState(testConfig(), fc)
	gs.roles.shuffle = func(n int, swap func(i, j int)) {}

	require.NoError(t, gs.StartGame(StartOptions{}))

	// 开局时已在旁观模式的玩家不上场也不领身份
	assert.False(t, isAlive(gs, "Alice"))
	assert.True(t, isAlive(gs, "Bob"))
	assert.True(t, isAlive(gs, "Carol"))

	_, ok := gs.roles.Get("Alice")
	assert.False(t, ok)

	// 参战玩家在开局时被重置为生存模式
	assert.Equal(t, 1, fc.countCommands("gamemode survival Bob"))
	assert.Equal(t, 1, fc.countCommands("gamemode survival Carol"))
	assert.Equal(t, 0, fc.countCommands("gamemode survival Alice"))

	require.NoError(t, gs.StopGame())
	gs.WaitForCleanup()
}

func TestStartGameTestModeForcesInnocent(t *testing.T) {
	fc := &fakeConsole{}
	fc.setOnline("Solo")

	gs := newTestGameState(testConfig(), fc)

	require.NoError(t, gs.StartGame(StartOptions{TestMode: true}))

	role, ok := gs.roles.Get("Solo")
	require.True(t, ok)
	assert.Equal(t, ROLE_INNOCENT, role)
	assert.Empty(t, gs.roles.Traitors())

	// 单人无辜者的测试局必须能靠计时器分出胜负
	gs.timer.mu.Lock()
	gs.timer.now = func() time.Time { return time.Now().Add(31 * time.Minute) }
	gs.timer.mu.Unlock()

	require.True(t, gs.checkWinAndMaybeEnd(fc.GetOnlinePlayers()))
	gs.WaitForCleanup()

	winner, reason := gs.Result()
	assert.Equal(t, WINNER_INNOCENTS, winner)
	assert.Equal(t, REASON_TIME_LIMIT_REACHED, reason)
}

func TestStartGameTestModeForcedTraitor(t *testing.T) {
	fc := &fakeConsole{}
	fc.setOnline("Solo", "Buddy")

	gs := newTestGameState(testConfig(), fc)

	require.NoError(t, gs.StartGame(StartOptions{
		TestMode:   true,
		TestRole:   ROLE_TRAITOR,
		TestPlayer: "Solo",
	}))

	assert.Equal(t, []string{"Solo"}, gs.roles.Traitors())
	assert.Equal(t, []string{"Buddy"}, gs.roles.Innocents())

	require.NoError(t, gs.StopGame())
	gs.WaitForCleanup()
}

func TestFellowTraitorsRevealed(t *testing.T) {
	fc := &fakeConsole{}
	fc.setOnline("Alice", "Bob", "Carol", "Dave")

	cfg := testConfig()
	cfg.TraitorRatio = 0.5

	gs := newTestGameState(cfg, fc)
	gs.roles.shuffle = func(n int, swap func(i, j int)) {}

	require.NoError(t, gs.StartGame(StartOptions{}))

	require.Len(t, gs.roles.Traitors(), 2)
	// 两个内鬼各收到一条同伙名单
	assert.Equal(t, 2, fc.countCommands("Your fellow traitors"))

	require.NoError(t, gs.StopGame())
	gs.WaitForCleanup()
}

func TestMinuteCallouts(t *testing.T) {
	tests := []struct {
		remaining     int
		interval      int
		lastAnnounced int
		wantMark      int
		wantOK        bool
	}{
		{600, 3, -1, 10, true},
		{600, 3, 10, 0, false},
		{480, 3, -1, 0, false},
		{300, 3, -1, 5, true},
		{60, 3, -1, 1, true},
		{59, 3, -1, 0, false},
		{305, 3, -1, 0, false},
	}

	for _, tt := range tests {
		mark, ok := minuteMark(tt.remaining, tt.interval, tt.lastAnnounced)
		assert.Equal(t, tt.wantOK, ok, "remaining=%d", tt.remaining)
		assert.Equal(t, tt.wantMark, mark, "remaining=%d", tt.remaining)
	}
}

func TestConcurrentStatusReads(t *testing.T) {
	fc := &fakeConsole{}
	fc.setOnline("T1", "I1")

	gs := newRunningGame(fc, map[string]string{
		"T1": ROLE_TRAITOR,
		"I1": ROLE_INNOCENT,
	})

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				_ = gs.Status()
				_, _ = gs.AliveCounts()
				if i%2 == 0 && j == 50 {
					gs.endGame(WINNER_DRAW, fmt.Sprintf("reason %d", i))
				}
			}
		}(i)
	}
	wg.Wait()
	gs.WaitForCleanup()

	winner, _ := gs.Result()
	assert.Equal(t, WINNER_DRAW, winner)
}
