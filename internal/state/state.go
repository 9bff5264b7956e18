package state

import (
	"mole-hunt/internal/config"
	"mole-hunt/internal/game"
)

// AppState 汇集整个进程的共享依赖，由入口装配后传给各个模块
type AppState struct {
	Cfg  *config.AppConfig
	Game *game.GameState
}

func NewAppState(cfg *config.AppConfig, gs *game.GameState) *AppState {
	return &AppState{
		Cfg:  cfg,
		Game: gs,
	}
}
