package game

import (
	"strings"
	"time"

	"mole-hunt/internal/rcon"

	"go.uber.org/zap"
)

// 旁观模式是这条通道上唯一可观测的死亡信号
const gamemodeSpectator = 3

// 单次旁观读数不足以宣告死亡，必须持续这么久才确认（抑制抖动误报）
const deathVerificationDelay = 500 * time.Millisecond

// DeathDetector 抽象出死亡检测这一步
// 当前唯一的实现靠轮询游戏模式，将来如果有事件推送后端可以整体替换而不动胜负判定
type DeathDetector interface {
	Check()
}

// spectatorDetector 按玩家维护 存活 → 待确认 → 死亡 的状态机
// 待确认状态可以退回存活（误报恢复）
type spectatorDetector struct {
	rcon              Console
	gs                *GameState
	verificationDelay time.Duration

	now func() time.Time
}

func newSpectatorDetector(rcon Console, gs *GameState) *spectatorDetector {
	return &spectatorDetector{
		rcon:              rcon,
		gs:                gs,
		verificationDelay: deathVerificationDelay,
		now:               time.Now,
	}
}

func (d *spectatorDetector) Check() {
	online := d.rcon.GetOnlinePlayers()
	now := d.now()

	d.dropDisconnected(online)

	for _, player := range online {
		response, ok := d.rcon.Execute("data get entity " + player + " playerGameType")
		if !ok || strings.Contains(response, "No entity") {
			continue
		}

		mode, ok := rcon.ParseGameMode(response)
		if !ok {
			zap.L().Debug(
				"无法解析游戏模式回复",
				zap.String("player", player),
				zap.String("response", response),
			)
			continue
		}

		if mode == gamemodeSpectator {
			if d.onSpectator(player, now) {
				// 游戏已经在确认死亡的回调里结束，本轮检测到此为止
				return
			}
		} else {
			d.onNotSpectator(player)
		}
	}
}

// dropDisconnected 把掉线玩家从存活集合和待确认表里静默移除
// 掉线不算死亡，不发通知，但会影响胜负判定的人数
func (d *spectatorDetector) dropDisconnected(online []string) {
	onlineSet := make(map[string]struct{}, len(online))
	for _, p := range online {
		onlineSet[p] = struct{}{}
	}

	gs := d.gs

	gs.mu.Lock()
	defer gs.mu.Unlock()

	for player := range gs.alive {
		if _, ok := onlineSet[player]; !ok {
			delete(gs.alive, player)
			delete(gs.pendingDeaths, player)

			zap.L().Info(
				"玩家已掉线，移出存活集合",
				zap.String("player", player),
			)
		}
	}
}

// onSpectator 处理一次旁观读数，返回游戏是否因此结束
func (d *spectatorDetector) onSpectator(player string, now time.Time) bool {
	gs := d.gs

	gs.mu.Lock()

	if _, alive := gs.alive[player]; !alive {
		gs.mu.Unlock()
		return false
	}

	detectedAt, pending := gs.pendingDeaths[player]
	if !pending {
		// 首次观测到旁观模式，先挂起等待确认
		gs.pendingDeaths[player] = now
		gs.mu.Unlock()

		zap.L().Info(
			"检测到潜在死亡，等待确认",
			zap.String("player", player),
		)
		return false
	}

	if now.Sub(detectedAt) < d.verificationDelay {
		gs.mu.Unlock()
		return false
	}

	// 确认死亡
	delete(gs.alive, player)
	delete(gs.pendingDeaths, player)
	gs.deathCounts[player]++

	isSimulated := strings.EqualFold(player, gs.simulatedName)

	gs.mu.Unlock()

	zap.L().Info(
		"死亡已确认",
		zap.String("player", player),
		zap.Duration("pending_for", now.Sub(detectedAt)),
	)

	if !isSimulated {
		gs.notify.Tellraw(player, "§cYou died!", "red")
	}
	gs.notify.TellrawAll("§7"+player+" has been eliminated!", "gray")

	// 必须在本次检测步骤内同步判定胜负并立即结束游戏，
	// 否则其它循环可能继续在过期的存活集合上行动
	return gs.checkWinAndMaybeEnd(d.rcon.GetOnlinePlayers())
}

// onNotSpectator 清掉误报，并把曾被标记死亡的玩家放回存活集合
func (d *spectatorDetector) onNotSpectator(player string) {
	gs := d.gs

	gs.mu.Lock()
	defer gs.mu.Unlock()

	if _, pending := gs.pendingDeaths[player]; pending {
		delete(gs.pendingDeaths, player)

		zap.L().Debug(
			"玩家已不在旁观模式，撤销待确认死亡",
			zap.String("player", player),
		)
	}

	_, tracked := gs.deathCounts[player]
	_, alive := gs.alive[player]
	if tracked && !alive {
		gs.alive[player] = struct{}{}

		zap.L().Debug(
			"玩家不在旁观模式，放回存活集合",
			zap.String("player", player),
		)
	}
}
