package rcon

import (
	"regexp"
	"strconv"
	"strings"
)

// list 命令回复的前导文本，玩家名里如果混入了它说明切分出了残片
const listPreamble = "There are"

// 坐标回复形如 "Xxx has the following entity data: [123.5d, 64.0d, -456.7d]"
// 优先匹配一个完整的中括号三元组，匹配不到时退化为收集前三个带 d 后缀的数字
var (
	posTripleRe   = regexp.MustCompile(`\[([-\d.]+)d,\s*([-\d.]+)d,\s*([-\d.]+)d\]`)
	posFallbackRe = regexp.MustCompile(`([-\d.]+)d`)
)

// ParsePlayerList 解析 list 命令的回复
// 格式："There are X of a max of Y players online: name1, name2, ..."
// 在第一个冒号处切开，再按逗号拆分并清理每个名字
func ParsePlayerList(response string) []string {
	_, rest, found := strings.Cut(response, ":")
	if !found {
		return nil
	}

	rest = strings.TrimSpace(rest)
	if rest == "" {
		return []string{}
	}

	players := make([]string, 0, 4)

	for _, fragment := range strings.Split(rest, ",") {
		name := strings.TrimSpace(fragment)
		name = strings.TrimSpace(strings.ReplaceAll(name, "\n", " "))

		// 服务器偶尔会把下一条消息拼在同一个回复里，去掉重新出现的前导文本
		if idx := strings.Index(name, listPreamble); idx >= 0 {
			name = strings.TrimSpace(name[:idx])
		}

		if name != "" {
			players = append(players, name)
		}
	}

	return players
}

// ParsePosition 从 data get entity <player> Pos 的回复里提取三维坐标
func ParsePosition(response string) (x, y, z float64, ok bool) {
	if m := posTripleRe.FindStringSubmatch(response); m != nil {
		x, errX := strconv.ParseFloat(m[1], 64)
		y, errY := strconv.ParseFloat(m[2], 64)
		z, errZ := strconv.ParseFloat(m[3], 64)
		if errX == nil && errY == nil && errZ == nil {
			return x, y, z, true
		}
	}

	// 兜底：收集回复里出现的前三个带 d 后缀的数字
	coords := make([]float64, 0, 3)
	for _, m := range posFallbackRe.FindAllStringSubmatch(response, -1) {
		val, err := strconv.ParseFloat(m[1], 64)
		if err != nil {
			continue
		}
		coords = append(coords, val)
		if len(coords) == 3 {
			break
		}
	}

	if len(coords) < 3 {
		return 0, 0, 0, false
	}

	return coords[0], coords[1], coords[2], true
}

// ParseGameMode 从 data get entity <player> playerGameType 的回复里提取游戏模式 ID
// 0=生存 1=创造 2=冒险 3=旁观
func ParseGameMode(response string) (int, bool) {
	fields := strings.Fields(response)
	if len(fields) == 0 {
		return 0, false
	}

	id, err := strconv.Atoi(fields[len(fields)-1])
	if err != nil {
		return 0, false
	}

	return id, true
}
