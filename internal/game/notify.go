package game

import (
	"encoding/json"
	"fmt"

	"go.uber.org/zap"
)

// Notifier 封装对玩家可见的各种消息通道：聊天栏、标题和快捷栏上方的 actionbar
// 所有发送都是尽力而为，失败只记日志
type Notifier struct {
	rcon Console
}

func NewNotifier(rcon Console) *Notifier {
	return &Notifier{rcon: rcon}
}

func textComponent(text string, color string) string {
	data, err := json.Marshal(map[string]string{
		"text":  text,
		"color": color,
	})
	if err != nil {
		panic("Failed to marshal text component: " + err.Error())
	}

	return string(data)
}

func titleComponent(text string) string {
	data, err := json.Marshal(map[string]string{"text": text})
	if err != nil {
		panic("Failed to marshal title component: " + err.Error())
	}

	return string(data)
}

func (n *Notifier) Tellraw(player string, message string, color string) {
	n.rcon.Execute(fmt.Sprintf("tellraw %s %s", player, textComponent(message, color)))
}

func (n *Notifier) TellrawAll(message string, color string) bool {
	_, ok := n.rcon.Execute(fmt.Sprintf("tellraw @a %s", textComponent(message, color)))
	if !ok {
		zap.L().Warn(
			"全体 tellraw 发送失败",
			zap.String("message", message),
		)
	}

	return ok
}

func (n *Notifier) Title(player string, title string, subtitle string, fadeIn, stay, fadeOut int) {
	n.rcon.Execute(fmt.Sprintf("title %s times %d %d %d", player, fadeIn, stay, fadeOut))
	n.rcon.Execute(fmt.Sprintf("title %s title %s", player, titleComponent(title)))
	if subtitle != "" {
		n.rcon.Execute(fmt.Sprintf("title %s subtitle %s", player, titleComponent(subtitle)))
	}
}

func (n *Notifier) TitleAll(title string, subtitle string, fadeIn, stay, fadeOut int) {
	n.Title("@a", title, subtitle, fadeIn, stay, fadeOut)
}

func (n *Notifier) Actionbar(player string, message string) {
	n.rcon.Execute(fmt.Sprintf("title %s actionbar %s", player, titleComponent(message)))
}

// AnnounceRole 向单个玩家宣告其身份
func (n *Notifier) AnnounceRole(player string, role string) {
	if role == ROLE_TRAITOR {
		n.Title(player, "§4YOU ARE A TRAITOR", "§7Eliminate all innocents!", 10, 100, 20)
		n.Tellraw(player, "§4[TRAITOR] §7Your goal is to eliminate all innocent players!", "red")
		n.Tellraw(player, "§7You have special abilities. Use them wisely!", "gray")
	} else {
		n.Title(player, "§aYOU ARE INNOCENT", "§7Survive and identify the traitors!", 10, 100, 20)
		n.Tellraw(player, "§a[INNOCENT] §7Your goal is to survive until time runs out!", "green")
		n.Tellraw(player, "§7Work together to identify and stop the traitors!", "gray")
	}
}

func (n *Notifier) AnnounceGameStart() {
	n.TitleAll("§6MOLE HUNT", "§7Game Starting!", 10, 100, 20)
	n.TellrawAll("§6=== MOLE HUNT GAME STARTED ===", "gold")
	n.TellrawAll("§7Roles have been assigned. Check your title!", "gray")
}

// AnnounceGameEnd 宣告结算结果，返回胜者消息是否真的发出去了
// 调用方据此决定是否走兜底的简单消息
func (n *Notifier) AnnounceGameEnd(winner string, reason string) bool {
	var subtitle string

	switch winner {
	case WINNER_TRAITORS:
		subtitle = "§cTRAITORS WON!"
	case WINNER_DRAW:
		subtitle = "§eDRAW!"
	default:
		subtitle = "§2INNOCENTS WON!"
	}

	n.TellrawAll("§6=== MOLE HUNT GAME ENDED ===", "gold")
	n.TitleAll("§6GAME OVER", subtitle, 10, 140, 20)

	delivered := n.TellrawAll(fmt.Sprintf("§e§lWINNERS: §r§6%s", winner), "yellow")

	reasonText := reason
	if reasonText == "" {
		reasonText = "Game ended"
	}
	n.TellrawAll(fmt.Sprintf("§e§lREASON: §r§6%s", reasonText), "yellow")

	return delivered
}

// SendTimeUpdate 通过 actionbar 推送剩余时间
func (n *Notifier) SendTimeUpdate(minutes, seconds int, player string) {
	n.Actionbar(player, fmt.Sprintf("§7Time remaining: §6%d:%02d", minutes, seconds))
}
