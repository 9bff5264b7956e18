package game

import (
	"fmt"
	"strings"
	"sync"

	"go.uber.org/zap"
)

// SkinManager 把玩家皮肤重置为默认 Steve，游戏结束后再恢复
// 具体由哪个皮肤 mod 提供命令是未知的，只能逐个尝试已知的命令形式
type SkinManager struct {
	rcon    Console
	enabled bool

	mu sync.Mutex
	// 记录被重置过皮肤的玩家，恢复时只处理这部分
	resetPlayers []string
}

func NewSkinManager(rcon Console, enabled bool) *SkinManager {
	return &SkinManager{rcon: rcon, enabled: enabled}
}

// 回复里出现这些关键字说明命令没有被 mod 接受
func skinCommandFailed(response string) bool {
	lower := strings.ToLower(response)

	for _, marker := range []string{"unknown", "error", "not found", "cannot", "unable"} {
		if strings.Contains(lower, marker) {
			return true
		}
	}

	return false
}

func (sm *SkinManager) ResetToSteve(player string) bool {
	if !sm.enabled {
		return false
	}

	commands := []string{
		fmt.Sprintf("skin player %s set steve", player),
		fmt.Sprintf("skin set %s steve", player),
		fmt.Sprintf("skin %s set steve", player),
		fmt.Sprintf("skin %s steve", player),
		fmt.Sprintf("skin reset %s", player),
		fmt.Sprintf("setskin %s steve", player),
	}

	for _, cmd := range commands {
		response, ok := sm.rcon.Execute(cmd)
		if ok && !skinCommandFailed(response) {
			zap.L().Info(
				"皮肤已重置为 Steve",
				zap.String("player", player),
				zap.String("command", cmd),
			)

			sm.mu.Lock()
			sm.resetPlayers = append(sm.resetPlayers, player)
			sm.mu.Unlock()

			return true
		}
	}

	zap.L().Warn(
		"无法重置皮肤，可能没有安装皮肤 mod",
		zap.String("player", player),
	)

	return false
}

func (sm *SkinManager) ResetAllPlayers(players []string) int {
	if !sm.enabled {
		return 0
	}

	sm.mu.Lock()
	sm.resetPlayers = nil
	sm.mu.Unlock()

	success := 0
	for _, player := range players {
		if sm.ResetToSteve(player) {
			success++
		}
	}

	if success > 0 {
		zap.L().Info(
			"皮肤重置完成",
			zap.Int("success", success),
			zap.Int("total", len(players)),
		)
	}

	return success
}

func (sm *SkinManager) RestoreOriginalSkins() int {
	sm.mu.Lock()
	players := sm.resetPlayers
	sm.resetPlayers = nil
	sm.mu.Unlock()

	if !sm.enabled || len(players) == 0 {
		return 0
	}

	templates := []string{
		"skin player %s clear",
		"skin player %s reset",
		"skin %s clear",
		"skin clear %s",
		"skin reset %s",
	}

	success := 0

	for _, player := range players {
		for _, tmpl := range templates {
			cmd := fmt.Sprintf(tmpl, player)

			response, ok := sm.rcon.Execute(cmd)
			if ok && !skinCommandFailed(response) {
				zap.L().Info(
					"皮肤已恢复",
					zap.String("player", player),
					zap.String("command", cmd),
				)
				success++
				break
			}
		}
	}

	if success < len(players) {
		zap.L().Warn(
			"部分玩家的皮肤未能恢复",
			zap.Int("restored", success),
			zap.Int("total", len(players)),
		)
	}

	return success
}
