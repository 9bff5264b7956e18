package game

import (
	"fmt"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"mole-hunt/internal/config"
	"mole-hunt/internal/rcon"

	"go.uber.org/zap"
)

// 游戏生命周期状态
const (
	STATUS_NOT_STARTED = "not_started"
	STATUS_STARTING    = "starting"
	STATUS_IN_PROGRESS = "in_progress"
	STATUS_ENDED       = "ended"
)

// StartOptions 控制一局游戏的启动方式
type StartOptions struct {
	// TestMode 允许单人开局，跳过人数下限
	TestMode bool
	// TestPlayer 是被强制指定身份的玩家，空值时取第一个参战玩家
	TestPlayer string
	// TestRole 是强制指定的身份，其余玩家统一拿到对立身份；缺省为无辜者
	TestRole string
	// SpawnSimulated 在单人测试时用 Carpet 生成一个假人陪练
	SpawnSimulated bool
}

// GameState 是整局游戏的协调者，把身份、计时、死亡检测和善后串成一条生命周期
//
// 并发模型：mu 保护全部可变的局内状态（状态机、存活集合、死亡计数、待确认表），
// 任何持有 mu 的代码段都不允许做 RCON 调用；endMu 单独守住结束动作，
// 保证无论多少条路径同时判出胜负，结算只会发生一次
type GameState struct {
	cfg  *config.AppConfig
	rcon Console

	notify    *Notifier
	roles     *RoleManager
	timer     *Timer
	abilities *TraitorAbilities
	skins     *SkinManager
	detector  DeathDetector

	mu            sync.Mutex
	status        string
	alive         map[string]struct{}
	deathCounts   map[string]int
	pendingDeaths map[string]time.Time
	simulatedName string
	testMode      bool
	winner        string
	winReason     string

	endMu        sync.Mutex
	endAnnounced bool

	running atomic.Bool
	stopCh  chan struct{}

	borderTimer *time.Timer
	pvpTimer    *time.Timer

	cleanupWg sync.WaitGroup

	// 测试中注入零延迟实现
	sleep func(time.Duration)
}

func NewGameState(cfg *config.AppConfig, console Console) *GameState {
	gs := &GameState{
		cfg:           cfg,
		rcon:          console,
		notify:        NewNotifier(console),
		roles:         NewRoleManager(cfg.TraitorRatio),
		timer:         NewTimer(cfg.GameDurationMinutes),
		abilities:     NewTraitorAbilities(console, cfg.TraitorAbilities),
		skins:         NewSkinManager(console, cfg.ResetSkinsToSteve),
		status:        STATUS_NOT_STARTED,
		alive:         make(map[string]struct{}),
		deathCounts:   make(map[string]int),
		pendingDeaths: make(map[string]time.Time),
		sleep:         time.Sleep,
	}
	gs.detector = newSpectatorDetector(console, gs)

	return gs
}

func (gs *GameState) Status() string {
	gs.mu.Lock()
	defer gs.mu.Unlock()

	return gs.status
}

func (gs *GameState) setStatus(status string) {
	gs.mu.Lock()
	gs.status = status
	gs.mu.Unlock()
}

// AliveCounts 返回当前存活的内鬼数和无辜者数
func (gs *GameState) AliveCounts() (traitors int, innocents int) {
	aliveTraitors, aliveInnocents, _, _ := gs.winInputs()
	return len(aliveTraitors), len(aliveInnocents)
}

func (gs *GameState) RemainingSeconds() int {
	if gs.Status() != STATUS_IN_PROGRESS {
		return 0
	}

	return gs.timer.RemainingSeconds()
}

// Result 返回最近一局的结算结果
func (gs *GameState) Result() (winner string, reason string) {
	gs.mu.Lock()
	defer gs.mu.Unlock()

	return gs.winner, gs.winReason
}

// StartGame 把游戏从待机推进到进行中，路上任何一步失败都会回退到待机
func (gs *GameState) StartGame(opts StartOptions) error {
	gs.mu.Lock()
	if gs.status != STATUS_NOT_STARTED {
		gs.mu.Unlock()
		// 上一局的善后还没走完时同样拒绝开局
		return fmt.Errorf("游戏已在进行中")
	}
	gs.status = STATUS_STARTING
	gs.testMode = opts.TestMode
	// 停止通道在进入 STARTING 的同一个临界区里重建，
	// 开局途中收到的终止请求关的就是这一条，不会碰到上一局已关闭的通道
	gs.stopCh = make(chan struct{})
	gs.mu.Unlock()

	if !gs.rcon.Connect() {
		gs.setStatus(STATUS_NOT_STARTED)
		return fmt.Errorf("无法连接到服务器")
	}

	players := gs.rcon.GetOnlinePlayers()

	if opts.TestMode && opts.SpawnSimulated && len(players) == 1 {
		if gs.spawnSimulatedPlayer(players[0]) {
			players = append(players, gs.currentSimulatedName())
		}
	}

	// 已经处于旁观模式的玩家不参与本局
	participants := make([]string, 0, len(players))
	for _, p := range players {
		if gs.isSpectator(p) {
			zap.L().Info("玩家开局时已处于旁观模式，不参与本局", zap.String("player", p))
			continue
		}
		participants = append(participants, p)
	}

	if !opts.TestMode && len(participants) < gs.cfg.MinPlayers {
		gs.setStatus(STATUS_NOT_STARTED)
		return fmt.Errorf("玩家数量不足: 需要 %d 人，当前 %d 人", gs.cfg.MinPlayers, len(participants))
	}
	if len(participants) == 0 {
		gs.setStatus(STATUS_NOT_STARTED)
		return fmt.Errorf("没有在线玩家")
	}

	zap.S().Infof("开始新的一局，玩家数 %d，测试模式 %v", len(participants), opts.TestMode)

	for _, p := range participants {
		gs.execCommand("gamemode survival " + p)
	}

	gs.showWelcomeScreen()
	gs.disableChat()
	gs.countdown()
	gs.enableChat()

	gs.teleportPlayersToSpawn(participants)
	gs.clearAllInventories()
	gs.healAllPlayers(participants)
	gs.setupWorldBorder()

	gs.disablePvP()
	if gs.cfg.PvpDelaySeconds > 0 {
		gs.pvpTimer = time.AfterFunc(
			time.Duration(gs.cfg.PvpDelaySeconds)*time.Second,
			gs.enablePvP,
		)
	} else {
		gs.enablePvP()
	}

	gs.assignAndAnnounceRoles(participants, opts)

	gs.mu.Lock()
	if gs.status != STATUS_STARTING {
		// 开局途中被终止，不再上场
		gs.mu.Unlock()
		return fmt.Errorf("游戏在开局过程中被终止")
	}
	for _, p := range participants {
		gs.alive[p] = struct{}{}
		gs.deathCounts[p] = 0
	}
	gs.pendingDeaths = make(map[string]time.Time)
	gs.winner = ""
	gs.winReason = ""
	gs.status = STATUS_IN_PROGRESS
	stopCh := gs.stopCh
	gs.mu.Unlock()

	gs.timer.Start()
	gs.notify.AnnounceGameStart()

	gs.running.Store(true)

	go gs.monitorLoop(stopCh)
	go gs.timeUpdateLoop(stopCh)
	if gs.cfg.PlayerTracking.Enabled && !gs.cfg.PlayerTracking.UseMod {
		go gs.trackingLoop(stopCh)
	}

	return nil
}

// isSpectator 开局前探测玩家是否已处于旁观模式，探测失败时按参战处理
func (gs *GameState) isSpectator(player string) bool {
	response, ok := gs.rcon.Execute("data get entity " + player + " playerGameType")
	if !ok || strings.Contains(response, "No entity") {
		return false
	}

	mode, ok := rcon.ParseGameMode(response)

	return ok && mode == gamemodeSpectator
}

// assignAndAnnounceRoles 分配身份并逐个私发，内鬼同时获得能力并互相知晓
func (gs *GameState) assignAndAnnounceRoles(players []string, opts StartOptions) {
	var simulated string

	gs.mu.Lock()
	simulated = gs.simulatedName
	gs.mu.Unlock()

	// 模拟玩家的身份已在生成时登记，不参与抽签
	real := make([]string, 0, len(players))
	for _, p := range players {
		if p == simulated {
			continue
		}
		real = append(real, p)
	}

	var assigned map[string]string

	if opts.TestMode {
		assigned = gs.forceTestRoles(real, opts)
	} else {
		assigned = gs.roles.AssignRoles(real)
	}

	if gs.cfg.ResetSkinsToSteve {
		gs.skins.ResetAllPlayers(real)
	}

	for player, role := range assigned {
		gs.notify.AnnounceRole(player, role)

		if role == ROLE_TRAITOR {
			gs.abilities.GrantAbilities(player)
		}
	}

	// 内鬼不止一个时互报身份
	traitors := gs.roles.Traitors()
	if len(traitors) > 1 {
		for _, traitor := range traitors {
			others := make([]string, 0, len(traitors)-1)
			for _, t := range traitors {
				if t != traitor {
					others = append(others, t)
				}
			}
			gs.notify.Tellraw(
				traitor,
				"§4[TRAITOR] §7Your fellow traitors: §c"+joinNames(others),
				"red",
			)
		}
	}
}

// forceTestRoles 测试模式下不抽签：测试玩家拿到指定身份，其余玩家统一拿对立身份
// 身份缺省为无辜者，保证单人测试局总能依靠计时器分出胜负
func (gs *GameState) forceTestRoles(players []string, opts StartOptions) map[string]string {
	testRole := opts.TestRole
	if testRole != ROLE_TRAITOR {
		testRole = ROLE_INNOCENT
	}

	opposite := ROLE_INNOCENT
	if testRole == ROLE_INNOCENT {
		opposite = ROLE_TRAITOR
	}

	testPlayer := opts.TestPlayer
	if testPlayer == "" && len(players) > 0 {
		testPlayer = players[0]
	}

	assigned := make(map[string]string, len(players))
	for _, p := range players {
		role := opposite
		if p == testPlayer {
			role = testRole
		}
		gs.roles.SetRole(p, role)
		assigned[p] = role
	}

	zap.L().Info(
		"测试模式身份已指定",
		zap.String("test_player", testPlayer),
		zap.String("test_role", testRole),
	)

	return assigned
}

// StopGame 管理员手动终止当前一局
func (gs *GameState) StopGame() error {
	if gs.Status() != STATUS_IN_PROGRESS && gs.Status() != STATUS_STARTING {
		return fmt.Errorf("当前没有进行中的游戏")
	}

	gs.endGame(WINNER_DRAW, "Game stopped by administrator")

	return nil
}

// endGame 是所有结束路径的唯一汇聚点
// 状态翻转和已宣告标记都在锁内完成，后到的调用者直接返回
func (gs *GameState) endGame(winner string, reason string) {
	gs.endMu.Lock()
	if gs.endAnnounced {
		gs.endMu.Unlock()
		return
	}

	gs.mu.Lock()
	if gs.status != STATUS_IN_PROGRESS && gs.status != STATUS_STARTING {
		gs.mu.Unlock()
		gs.endMu.Unlock()
		return
	}
	gs.endAnnounced = true
	gs.status = STATUS_ENDED
	gs.winner = winner
	gs.winReason = reason
	// 取走并清空停止通道，本局只会被关闭这一次
	stopCh := gs.stopCh
	gs.stopCh = nil
	gs.mu.Unlock()

	gs.endMu.Unlock()

	zap.L().Info(
		"游戏结束",
		zap.String("winner", winner),
		zap.String("reason", reason),
	)

	gs.running.Store(false)
	if stopCh != nil {
		close(stopCh)
	}

	// 善后涉及一串 RCON 调用，放到独立协程避免阻塞判定路径
	gs.cleanupWg.Add(1)
	go func() {
		defer gs.cleanupWg.Done()
		gs.cleanupAfterEnd(winner, reason)
	}()
}

// WaitForCleanup 阻塞到结束善后完成，进程退出前调用
func (gs *GameState) WaitForCleanup() {
	gs.cleanupWg.Wait()
}

func (gs *GameState) cleanupAfterEnd(winner string, reason string) {
	delivered := gs.notify.AnnounceGameEnd(winner, reason)
	if !delivered {
		// 富文本没送达就退回最朴素的聊天消息
		gs.execCommand(fmt.Sprintf("say GAME OVER - Winner: %s (%s)", winner, reason))
	}

	gs.revealRoles()

	gs.sleep(time.Duration(gs.cfg.EndGameDelaySeconds) * time.Second)

	if gs.pvpTimer != nil {
		gs.pvpTimer.Stop()
		gs.pvpTimer = nil
	}

	gs.enablePvP()
	gs.enableChat()
	gs.resetWorldBorder()

	for _, traitor := range gs.roles.Traitors() {
		gs.abilities.RemoveAbilities(traitor)
	}
	for player := range gs.roles.All() {
		gs.abilities.ClearAllEffects(player)
	}

	gs.skins.RestoreOriginalSkins()

	gs.execCommand("gamemode survival @a")
	gs.teleportPlayersToSpawn(gs.rcon.GetOnlinePlayers())

	gs.removeSimulatedPlayer()

	// 早期版本用记分板统计死亡，残留的目标一并清掉
	gs.execCommand("scoreboard objectives remove deaths")

	gs.resetGame()
}

// revealRoles 结算时公布双方阵容和击杀统计
func (gs *GameState) revealRoles() {
	traitors := gs.roles.Traitors()
	innocents := gs.roles.Innocents()

	if len(traitors) > 0 {
		gs.notify.TellrawAll("§4Traitors were: §c"+joinNames(traitors), "red")
	}
	if len(innocents) > 0 {
		gs.notify.TellrawAll("§2Innocents were: §a"+joinNames(innocents), "green")
	}

	gs.mu.Lock()
	deaths := make(map[string]int, len(gs.deathCounts))
	for p, c := range gs.deathCounts {
		deaths[p] = c
	}
	gs.mu.Unlock()

	eliminated := make([]string, 0, len(deaths))
	for p, c := range deaths {
		if c > 0 {
			eliminated = append(eliminated, p)
		}
	}
	sort.Strings(eliminated)

	if len(eliminated) > 0 {
		gs.notify.TellrawAll("§7Eliminated: §f"+joinNames(eliminated), "gray")
	}
}

func joinNames(names []string) string {
	out := ""
	for i, n := range names {
		if i > 0 {
			out += ", "
		}
		out += n
	}

	return out
}

// resetGame 把所有局内状态清回待机，准备下一局
func (gs *GameState) resetGame() {
	gs.roles.Reset()
	gs.timer.Reset()

	gs.mu.Lock()
	gs.alive = make(map[string]struct{})
	gs.deathCounts = make(map[string]int)
	gs.pendingDeaths = make(map[string]time.Time)
	gs.simulatedName = ""
	gs.testMode = false
	gs.status = STATUS_NOT_STARTED
	gs.mu.Unlock()

	gs.endMu.Lock()
	gs.endAnnounced = false
	gs.endMu.Unlock()

	zap.L().Info("游戏状态已重置")
}

// monitorLoop 是主监控循环：检测死亡、检查计时器到期
func (gs *GameState) monitorLoop(stopCh <-chan struct{}) {
	ticker := time.NewTicker(1 * time.Second)
	defer ticker.Stop()

	for gs.running.Load() {
		select {
		case <-stopCh:
			return
		case <-ticker.C:
		}

		if gs.Status() != STATUS_IN_PROGRESS {
			return
		}

		gs.detector.Check()

		if gs.Status() != STATUS_IN_PROGRESS {
			return
		}

		if gs.checkWinAndMaybeEnd(gs.rcon.GetOnlinePlayers()) {
			return
		}
	}
}

// timeUpdateLoop 周期性推送剩余时间，并在整分钟节点播报
func (gs *GameState) timeUpdateLoop(stopCh <-chan struct{}) {
	interval := time.Duration(gs.cfg.TimeUpdateIntervalSeconds) * time.Second
	if interval <= 0 {
		interval = 3 * time.Second
	}
	intervalSeconds := int(interval / time.Second)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	lastAnnounced := -1

	for gs.running.Load() {
		select {
		case <-stopCh:
			return
		case <-ticker.C:
		}

		if gs.Status() != STATUS_IN_PROGRESS {
			return
		}

		remaining := gs.timer.RemainingSeconds()
		gs.notify.SendTimeUpdate(remaining/60, remaining%60, "@a")

		if mark, ok := minuteMark(remaining, intervalSeconds, lastAnnounced); ok {
			gs.notify.TellrawAll(fmt.Sprintf("§e%d minute(s) remaining!", mark), "yellow")
			lastAnnounced = mark
		}
	}
}

// trackingLoop 按配置的间隔给内鬼推送追踪情报
func (gs *GameState) trackingLoop(stopCh <-chan struct{}) {
	interval := time.Duration(gs.cfg.PlayerTracking.UpdateIntervalSeconds) * time.Second
	if interval <= 0 {
		interval = 3 * time.Second
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for gs.running.Load() {
		select {
		case <-stopCh:
			return
		case <-ticker.C:
		}

		if gs.Status() != STATUS_IN_PROGRESS {
			return
		}

		// 单人测试局直接指向模拟玩家，省掉一轮全量坐标查询
		if gs.isTestMode() && gs.currentSimulatedName() != "" {
			gs.trackNearestPlayersTestMode()
		} else {
			gs.trackNearestPlayers()
		}
	}
}

// minuteMark 判断一次剩余时间读数是否落在需要播报的整分钟节点上
// 与实际生效的推送间隔比较，间隔配置为 0 时节点不会被永远跳过
func minuteMark(remainingSeconds, intervalSeconds, lastAnnounced int) (int, bool) {
	if remainingSeconds%60 >= intervalSeconds {
		return 0, false
	}

	minutes := remainingSeconds / 60
	if minutes == lastAnnounced {
		return 0, false
	}

	switch minutes {
	case 10, 5, 1:
		return minutes, true
	}

	return 0, false
}

func (gs *GameState) isTestMode() bool {
	gs.mu.Lock()
	defer gs.mu.Unlock()

	return gs.testMode
}

func (gs *GameState) currentSimulatedName() string {
	gs.mu.Lock()
	defer gs.mu.Unlock()

	return gs.simulatedName
}

// winInputs 在锁内取出胜负判定需要的四个切片
func (gs *GameState) winInputs() (aliveTraitors, aliveInnocents, allTraitors, allInnocents []string) {
	allTraitors = gs.roles.Traitors()
	allInnocents = gs.roles.Innocents()

	gs.mu.Lock()
	defer gs.mu.Unlock()

	for _, p := range allTraitors {
		if _, ok := gs.alive[p]; ok {
			aliveTraitors = append(aliveTraitors, p)
		}
	}
	for _, p := range allInnocents {
		if _, ok := gs.alive[p]; ok {
			aliveInnocents = append(aliveInnocents, p)
		}
	}

	return aliveTraitors, aliveInnocents, allTraitors, allInnocents
}

// checkWinAndMaybeEnd 判定胜负，命中则立即结束游戏并返回 true
func (gs *GameState) checkWinAndMaybeEnd(online []string) bool {
	if gs.Status() != STATUS_IN_PROGRESS {
		return false
	}

	aliveTraitors, aliveInnocents, allTraitors, allInnocents := gs.winInputs()

	winner, reason, ok := CheckWinConditions(
		aliveTraitors,
		aliveInnocents,
		allTraitors,
		allInnocents,
		gs.timer.IsExpired(),
		len(online),
	)
	if !ok {
		return false
	}

	gs.endGame(winner, reason)

	return true
}

// alivePlayers 返回按名字排序的存活玩家列表
func (gs *GameState) alivePlayers() []string {
	gs.mu.Lock()
	players := make([]string, 0, len(gs.alive))
	for p := range gs.alive {
		players = append(players, p)
	}
	gs.mu.Unlock()

	sort.Strings(players)

	return players
}

// playerPosition 查询玩家当前坐标
func (gs *GameState) playerPosition(player string) (Position, bool) {
	response, ok := gs.rcon.Execute("data get entity " + player + " Pos")
	if !ok {
		return Position{}, false
	}

	x, y, z, ok := rcon.ParsePosition(response)
	if !ok {
		return Position{}, false
	}

	return Position{X: x, Y: y, Z: z}, true
}

// spawnPoint 按优先级解析集合点：显式配置 → 边界中心 → 世界默认出生点附近
func (gs *GameState) spawnPoint() Position {
	sp := gs.cfg.SpawnPoint
	if sp.X != nil && sp.Y != nil && sp.Z != nil {
		return Position{X: *sp.X, Y: *sp.Y, Z: *sp.Z}
	}

	if gs.cfg.WorldBorder.Enabled {
		return Position{
			X: gs.cfg.WorldBorder.CenterX,
			Y: 100,
			Z: gs.cfg.WorldBorder.CenterZ,
		}
	}

	return Position{X: 0, Y: 100, Z: 0}
}

func (gs *GameState) teleportPlayersToSpawn(players []string) {
	spawn := gs.spawnPoint()

	for _, player := range players {
		gs.execCommand(fmt.Sprintf(
			"tp %s %g %g %g",
			player, spawn.X, spawn.Y, spawn.Z,
		))
	}

	zap.L().Info(
		"玩家已传送到集合点",
		zap.Int("count", len(players)),
		zap.Float64("x", spawn.X),
		zap.Float64("z", spawn.Z),
	)
}

func (gs *GameState) clearAllInventories() {
	gs.execCommand("clear @a")
}

func (gs *GameState) healAllPlayers(players []string) {
	for _, player := range players {
		gs.execCommand(fmt.Sprintf("effect give %s minecraft:instant_health 1 10 true", player))
		gs.execCommand(fmt.Sprintf("effect give %s minecraft:saturation 1 10 true", player))
	}
}

func (gs *GameState) showWelcomeScreen() {
	gs.notify.TitleAll("§6MOLE HUNT", "§7Get ready...", 10, 60, 20)
	gs.notify.TellrawAll("§6Welcome to Mole Hunt!", "gold")
	gs.notify.TellrawAll("§7Traitors hide among you. Survive until the timer runs out!", "gray")
}

// countdown 开局倒数，期间玩家被冻结在原地
func (gs *GameState) countdown() {
	seconds := gs.cfg.CountdownSeconds
	if seconds <= 0 {
		return
	}

	gs.execCommand("effect give @a minecraft:slowness 255 255 true")

	for i := seconds; i > 0; i-- {
		gs.notify.TitleAll(fmt.Sprintf("§e%d", i), "", 0, 25, 5)
		gs.sleep(1 * time.Second)
	}

	gs.execCommand("effect clear @a minecraft:slowness")
	gs.notify.TitleAll("§aGO!", "", 0, 20, 10)
}

func (gs *GameState) disablePvP() {
	gs.execCommand("gamerule pvp false")
	gs.notify.TellrawAll(fmt.Sprintf(
		"§ePvP is disabled for the first %d seconds!",
		gs.cfg.PvpDelaySeconds,
	), "yellow")
}

func (gs *GameState) enablePvP() {
	gs.execCommand("gamerule pvp true")

	if gs.Status() == STATUS_IN_PROGRESS {
		gs.notify.TellrawAll("§cPvP is now enabled!", "red")
	}
}

// disableChat 靠 FTB 工具链的 mute 实现，没装对应 mod 时静默失败
func (gs *GameState) disableChat() {
	gs.execCommand("ftbutilities mute @a")
}

func (gs *GameState) enableChat() {
	gs.execCommand("ftbutilities unmute @a")
}

func (gs *GameState) execCommand(command string) {
	response, ok := gs.rcon.Execute(command)
	if !ok {
		zap.L().Debug(
			"命令执行失败",
			zap.String("command", command),
		)
		return
	}

	if response != "" {
		zap.L().Debug(
			"命令已执行",
			zap.String("command", command),
			zap.String("response", response),
		)
	}
}
