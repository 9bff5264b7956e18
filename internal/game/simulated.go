package game

import (
	"fmt"
	"strings"

	"go.uber.org/zap"
)

// 单人测试模式下生成的模拟玩家的默认名字
const defaultSimulatedName = "TestInnocent"

// looksLikeError 粗略判断服务端回复是否意味着命令失败
// Carpet 的 player 命令成功时通常不回任何东西
func looksLikeError(response string) bool {
	lower := strings.ToLower(response)

	for _, marker := range []string{"unknown", "incorrect", "error", "failed", "expected"} {
		if strings.Contains(lower, marker) {
			return true
		}
	}

	return false
}

// spawnSimulatedPlayer 通过 Carpet mod 在真人玩家身旁生成一个假人并登记为无辜者
// 需要服务端装有 Carpet，失败时返回 false，调用方决定是否继续测试模式
func (gs *GameState) spawnSimulatedPlayer(anchor string) bool {
	name := defaultSimulatedName

	response, ok := gs.rcon.Execute(fmt.Sprintf(
		"execute at %s positioned ~5 ~ ~ run player %s spawn",
		anchor, name,
	))
	if !ok || looksLikeError(response) {
		zap.L().Warn(
			"模拟玩家生成失败，服务端可能没有安装 Carpet",
			zap.String("response", response),
		)
		return false
	}

	// 服务端可能改写名字的大小写，以在线列表里的实际名字为准
	actual := name
	for _, p := range gs.rcon.GetOnlinePlayers() {
		if strings.EqualFold(p, name) {
			actual = p
			break
		}
	}

	gs.roles.SetRole(actual, ROLE_INNOCENT)

	gs.mu.Lock()
	gs.simulatedName = actual
	gs.alive[actual] = struct{}{}
	gs.deathCounts[actual] = 0
	gs.mu.Unlock()

	zap.L().Info(
		"模拟玩家已生成",
		zap.String("name", actual),
		zap.String("anchor", anchor),
	)

	return true
}

// removeSimulatedPlayer 清退模拟玩家并从所有状态里抹掉它
func (gs *GameState) removeSimulatedPlayer() {
	gs.mu.Lock()
	name := gs.simulatedName
	gs.simulatedName = ""
	if name != "" {
		delete(gs.alive, name)
		delete(gs.pendingDeaths, name)
		delete(gs.deathCounts, name)
	}
	gs.mu.Unlock()

	if name == "" {
		return
	}

	gs.roles.Remove(name)
	gs.execCommand(fmt.Sprintf("player %s kill", name))

	zap.L().Info("模拟玩家已清退", zap.String("name", name))
}

// getSimulatedPlayerCoordinates 查询模拟玩家的当前位置
func (gs *GameState) getSimulatedPlayerCoordinates() (Position, bool) {
	gs.mu.Lock()
	name := gs.simulatedName
	gs.mu.Unlock()

	if name == "" {
		return Position{}, false
	}

	return gs.playerPosition(name)
}
