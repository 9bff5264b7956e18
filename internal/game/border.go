package game

import (
	"fmt"
	"time"

	"go.uber.org/zap"
)

// 原版世界的边界直径，用于游戏结束后还原
const vanillaBorderDiameter = 29999984

// 收缩速度上限（方块/秒），再快玩家就跑不过边界了
const maxBorderShrinkSpeed = 5.0

// setupWorldBorder 按配置架设初始边界，并安排延迟收缩
// 收缩被排期为后台定时器，游戏提前结束时由 resetWorldBorder 直接取消并还原
func (gs *GameState) setupWorldBorder() {
	cfg := gs.cfg.WorldBorder
	if !cfg.Enabled {
		return
	}

	gs.execCommand(fmt.Sprintf("worldborder center %g %g", cfg.CenterX, cfg.CenterZ))
	gs.execCommand(fmt.Sprintf("worldborder set %d", int(cfg.InitialSize)))

	zap.L().Info(
		"世界边界已架设",
		zap.Float64("center_x", cfg.CenterX),
		zap.Float64("center_z", cfg.CenterZ),
		zap.Float64("initial_size", cfg.InitialSize),
	)

	if cfg.FinalSize >= cfg.InitialSize {
		return
	}

	shrinkMinutes := cfg.ShrinkDurationMinutes
	if shrinkMinutes <= 0 {
		// 自动排期：留出入场延迟，收尾前再留 5 分钟的终局空间
		shrinkMinutes = float64(gs.cfg.GameDurationMinutes) - cfg.DelayBeforeShrinkMinutes - 5
		if shrinkMinutes < 1 {
			shrinkMinutes = 1
		}
	}
	shrinkSeconds := int(shrinkMinutes * 60)

	// worldborder 的尺寸是直径，速度按半径变化量校验
	radiusDelta := (cfg.InitialSize - cfg.FinalSize) / 2
	if radiusDelta/float64(shrinkSeconds) > maxBorderShrinkSpeed {
		shrinkSeconds = int(radiusDelta / maxBorderShrinkSpeed)
	}

	delay := time.Duration(cfg.DelayBeforeShrinkMinutes * float64(time.Minute))

	gs.borderTimer = time.AfterFunc(delay, func() {
		if gs.Status() != STATUS_IN_PROGRESS {
			return
		}

		gs.execCommand(fmt.Sprintf("worldborder set %d %d", int(cfg.FinalSize), shrinkSeconds))

		gs.notify.TellrawAll("§c⚠ The world border is shrinking!", "red")
		gs.notify.TellrawAll(fmt.Sprintf(
			"§7It will close to §6%d blocks §7over the next §6%d minutes§7.",
			int(cfg.FinalSize), shrinkSeconds/60,
		), "gray")

		zap.L().Info(
			"世界边界开始收缩",
			zap.Float64("final_size", cfg.FinalSize),
			zap.Int("shrink_seconds", shrinkSeconds),
		)
	})

	zap.L().Info(
		"世界边界收缩已排期",
		zap.Duration("delay", delay),
		zap.Int("shrink_seconds", shrinkSeconds),
	)
}

// resetWorldBorder 还原为原版边界并取消未触发的收缩
func (gs *GameState) resetWorldBorder() {
	if gs.borderTimer != nil {
		gs.borderTimer.Stop()
		gs.borderTimer = nil
	}

	if !gs.cfg.WorldBorder.Enabled {
		return
	}

	gs.execCommand(fmt.Sprintf("worldborder set %d", vanillaBorderDiameter))
	zap.L().Info("世界边界已还原")
}
