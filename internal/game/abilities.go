package game

import (
	"fmt"

	"mole-hunt/internal/config"

	"go.uber.org/zap"
)

// TraitorAbilities 按配置给内鬼发放能力和道具
type TraitorAbilities struct {
	rcon Console
	cfg  config.AbilitiesConfig
}

func NewTraitorAbilities(rcon Console, cfg config.AbilitiesConfig) *TraitorAbilities {
	return &TraitorAbilities{rcon: rcon, cfg: cfg}
}

func (ta *TraitorAbilities) GrantAbilities(player string) {
	if ta.cfg.Invisibility {
		ta.rcon.Execute(fmt.Sprintf("effect give %s minecraft:invisibility 999999 1 true", player))
		zap.L().Info("已授予隐身能力", zap.String("player", player))
	}

	if ta.cfg.NightVision {
		ta.rcon.Execute(fmt.Sprintf("effect give %s minecraft:night_vision 999999 0 true", player))
		zap.L().Info("已授予夜视能力", zap.String("player", player))
	}

	for _, item := range ta.cfg.SpecialItems {
		ta.rcon.Execute(fmt.Sprintf("give %s %s 1", player, item))
		zap.L().Info(
			"已发放特殊道具",
			zap.String("player", player),
			zap.String("item", item),
		)
	}
}

func (ta *TraitorAbilities) RemoveAbilities(player string) {
	ta.rcon.Execute(fmt.Sprintf("effect clear %s minecraft:invisibility", player))
	ta.rcon.Execute(fmt.Sprintf("effect clear %s minecraft:night_vision", player))
	zap.L().Info("已移除内鬼能力", zap.String("player", player))
}

func (ta *TraitorAbilities) ClearAllEffects(player string) {
	ta.rcon.Execute(fmt.Sprintf("effect clear %s", player))
	zap.L().Debug("已清除全部效果", zap.String("player", player))
}
