package game

// 胜负结论的固定文案
const (
	WINNER_TRAITORS  = "Traitors"
	WINNER_INNOCENTS = "Innocents"
	WINNER_DRAW      = "Draw"

	REASON_NO_PLAYERS         = "No players remaining"
	REASON_INNOCENTS_WIPED    = "All innocent players eliminated"
	REASON_TIME_LIMIT_REACHED = "Time limit reached"
	REASON_TRAITORS_WIPED     = "All traitors eliminated"
)

// CheckWinConditions 是纯决策函数，按固定顺序检查胜利条件，第一条命中即返回
//
// 顺序很关键：双方同时全灭必须先于单方全灭判定，否则会得出自相矛盾的胜者；
// 没有任何玩家在线时不结束游戏（没有人能看到结算）
func CheckWinConditions(
	aliveTraitors []string,
	aliveInnocents []string,
	allTraitors []string,
	allInnocents []string,
	timerExpired bool,
	onlineCount int,
) (winner string, reason string, ok bool) {
	rolesAssigned := len(allTraitors) > 0 || len(allInnocents) > 0

	// 1. 双方都没有存活者
	if len(aliveTraitors) == 0 && len(aliveInnocents) == 0 {
		if rolesAssigned && onlineCount > 0 {
			return WINNER_DRAW, REASON_NO_PLAYERS, true
		}
		if onlineCount == 0 {
			return "", "", false
		}
	}

	// 2. 无辜者全灭且至少还有一个内鬼活着
	if len(aliveInnocents) == 0 &&
		len(allInnocents) > 0 &&
		len(allTraitors) > 0 &&
		len(aliveTraitors) > 0 {
		return WINNER_TRAITORS, REASON_INNOCENTS_WIPED, true
	}

	// 3. 时间耗尽且至少有一个无辜者存活
	if timerExpired && len(aliveInnocents) > 0 {
		return WINNER_INNOCENTS, REASON_TIME_LIMIT_REACHED, true
	}

	// 4. 内鬼全灭
	if len(aliveTraitors) == 0 && len(aliveInnocents) > 0 && len(allTraitors) > 0 {
		return WINNER_INNOCENTS, REASON_TRAITORS_WIPED, true
	}

	return "", "", false
}
