package game

import (
	"fmt"
	"math"

	"go.uber.org/zap"
)

// Position 是一次坐标查询的结果
type Position struct {
	X, Y, Z float64
}

// Distance 计算两点之间的三维欧氏距离
func Distance(a, b Position) float64 {
	dx := b.X - a.X
	dy := b.Y - a.Y
	dz := b.Z - a.Z

	return math.Sqrt(dx*dx + dy*dy + dz*dz)
}

// 八方向的名字带箭头，直接塞进 actionbar
const (
	DIR_EAST       = "East →"
	DIR_SOUTH_EAST = "South-East ↘"
	DIR_SOUTH      = "South ↓"
	DIR_SOUTH_WEST = "South-West ↙"
	DIR_WEST       = "West ←"
	DIR_NORTH_WEST = "North-West ↖"
	DIR_NORTH      = "North ↑"
	DIR_NORTH_EAST = "North-East ↗"
)

// Direction 把平面位移换算成八方向之一
//
// Minecraft 坐标系里 +X 朝东、+Z 朝南，因此 atan2(dz, dx) 为 0 度时指向东，
// 顺时针每 45 度一个扇区，扇区边界偏移 22.5 度（恰好 22.5 度落入东南）
func Direction(dx, dz float64) string {
	deg := math.Atan2(dz, dx) * 180 / math.Pi
	if deg < 0 {
		deg += 360
	}

	switch {
	case deg < 22.5:
		return DIR_EAST
	case deg < 67.5:
		return DIR_SOUTH_EAST
	case deg < 112.5:
		return DIR_SOUTH
	case deg < 157.5:
		return DIR_SOUTH_WEST
	case deg < 202.5:
		return DIR_WEST
	case deg < 247.5:
		return DIR_NORTH_WEST
	case deg < 292.5:
		return DIR_NORTH
	case deg < 337.5:
		return DIR_NORTH_EAST
	default:
		return DIR_EAST
	}
}

// trackingMessage 按配置拼出发给内鬼的情报行，总是带剩余时间前缀
// 不显示距离时方位也一并省略
func (gs *GameState) trackingMessage(target string, distance float64, direction string) string {
	remaining := gs.timer.RemainingSeconds()
	prefix := fmt.Sprintf("§7Time: §6%d:%02d §7| ", remaining/60, remaining%60)

	if !gs.cfg.PlayerTracking.ShowDistance {
		return prefix + "§c§lNearest: §r§e" + target
	}

	if direction != "" {
		return fmt.Sprintf(
			"%s§c§lNearest: §r§e%s §7(%.0fm) §6%s",
			prefix, target, distance, direction,
		)
	}

	return fmt.Sprintf("%s§c§lNearest: §r§e%s §7(%.0fm)", prefix, target, distance)
}

// trackNearestPlayers 给每个存活的内鬼推送离他最近的存活无辜者的情报
// 情报只发给内鬼，无辜者不知道自己被盯上
func (gs *GameState) trackNearestPlayers() {
	aliveTraitors, aliveInnocents, _, _ := gs.winInputs()
	if len(aliveTraitors) == 0 || len(aliveInnocents) == 0 {
		return
	}

	innocentPos := make(map[string]Position, len(aliveInnocents))
	for _, innocent := range aliveInnocents {
		pos, ok := gs.playerPosition(innocent)
		if !ok {
			zap.L().Debug("无法获取无辜者坐标", zap.String("player", innocent))
			continue
		}
		innocentPos[innocent] = pos
	}
	if len(innocentPos) == 0 {
		return
	}

	for _, traitor := range aliveTraitors {
		self, ok := gs.playerPosition(traitor)
		if !ok {
			zap.L().Debug("无法获取内鬼坐标", zap.String("player", traitor))
			continue
		}

		nearest := ""
		nearestDist := math.MaxFloat64
		var nearestPos Position

		for innocent, pos := range innocentPos {
			d := Distance(self, pos)
			if d < nearestDist {
				nearest = innocent
				nearestDist = d
				nearestPos = pos
			}
		}

		if nearest == "" {
			continue
		}

		direction := ""
		if gs.cfg.PlayerTracking.ShowDirection && nearestDist > 0 {
			direction = Direction(nearestPos.X-self.X, nearestPos.Z-self.Z)
		}

		gs.notify.Actionbar(traitor, gs.trackingMessage(nearest, nearestDist, direction))
	}
}

// trackNearestPlayersTestMode 单人测试局里给内鬼指向模拟玩家
func (gs *GameState) trackNearestPlayersTestMode() {
	traitors := gs.roles.Traitors()
	if len(traitors) == 0 {
		return
	}
	traitor := traitors[0]

	target, ok := gs.getSimulatedPlayerCoordinates()
	if !ok {
		return
	}

	self, ok := gs.playerPosition(traitor)
	if !ok {
		return
	}

	d := Distance(self, target)

	direction := ""
	if gs.cfg.PlayerTracking.ShowDirection && d > 0 {
		direction = Direction(target.X-self.X, target.Z-self.Z)
	}

	gs.notify.Actionbar(traitor, gs.trackingMessage(gs.currentSimulatedName(), d, direction))
}
