package game

// Console 是游戏逻辑对远程控制台的全部依赖
// 生产实现是 internal/rcon 的 Client，测试里用脚本化的假实现替换
type Console interface {
	// Execute 执行一条控制台命令，传输层失败只返回 ok=false
	Execute(command string) (string, bool)
	// Connect 用 list 命令探测连通性
	Connect() bool
	// GetOnlinePlayers 查询在线玩家列表，任何失败都降级为空列表
	GetOnlinePlayers() []string
}
