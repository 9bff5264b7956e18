package game

import (
	"math/rand/v2"
	"sort"
	"sync"

	"go.uber.org/zap"
)

// 玩家身份
const (
	ROLE_TRAITOR  = "traitor"
	ROLE_INNOCENT = "innocent"
)

// RoleManager 负责每局游戏的身份分配，单局结束后整体清空，不跨局持久化
type RoleManager struct {
	mu           sync.RWMutex
	traitorRatio float64
	roles        map[string]string

	// 打乱顺序的实现，测试中注入固定实现以获得确定性结果
	shuffle func(n int, swap func(i, j int))
}

func NewRoleManager(traitorRatio float64) *RoleManager {
	return &RoleManager{
		traitorRatio: traitorRatio,
		roles:        make(map[string]string),
		shuffle:      rand.Shuffle,
	}
}

// AssignRoles 随机分配身份：至少 1 个内鬼，其余按比例向下取整
func (rm *RoleManager) AssignRoles(players []string) map[string]string {
	if len(players) == 0 {
		return map[string]string{}
	}

	numTraitors := int(float64(len(players)) * rm.traitorRatio)
	if numTraitors < 1 {
		numTraitors = 1
	}

	shuffled := make([]string, len(players))
	copy(shuffled, players)

	rm.mu.Lock()

	rm.shuffle(len(shuffled), func(i, j int) {
		shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
	})

	rm.roles = make(map[string]string, len(shuffled))
	for i, player := range shuffled {
		if i < numTraitors {
			rm.roles[player] = ROLE_TRAITOR
		} else {
			rm.roles[player] = ROLE_INNOCENT
		}
	}

	assigned := make(map[string]string, len(rm.roles))
	for p, r := range rm.roles {
		assigned[p] = r
	}

	rm.mu.Unlock()

	zap.L().Info(
		"身份分配完成",
		zap.Int("traitors", numTraitors),
		zap.Int("innocents", len(players)-numTraitors),
	)

	return assigned
}

func (rm *RoleManager) Get(player string) (string, bool) {
	rm.mu.RLock()
	defer rm.mu.RUnlock()

	role, ok := rm.roles[player]
	return role, ok
}

// SetRole 直接写入单个玩家的身份（测试模式和模拟玩家使用）
func (rm *RoleManager) SetRole(player string, role string) {
	rm.mu.Lock()
	defer rm.mu.Unlock()

	rm.roles[player] = role
}

func (rm *RoleManager) Remove(player string) {
	rm.mu.Lock()
	defer rm.mu.Unlock()

	delete(rm.roles, player)
}

// Traitors 返回按名字排序的内鬼列表，排序是为了消息输出稳定
func (rm *RoleManager) Traitors() []string {
	return rm.withRole(ROLE_TRAITOR)
}

func (rm *RoleManager) Innocents() []string {
	return rm.withRole(ROLE_INNOCENT)
}

func (rm *RoleManager) withRole(role string) []string {
	rm.mu.RLock()
	defer rm.mu.RUnlock()

	players := make([]string, 0, len(rm.roles))
	for p, r := range rm.roles {
		if r == role {
			players = append(players, p)
		}
	}

	sort.Strings(players)

	return players
}

// All 返回当前身份表的副本
func (rm *RoleManager) All() map[string]string {
	rm.mu.RLock()
	defer rm.mu.RUnlock()

	all := make(map[string]string, len(rm.roles))
	for p, r := range rm.roles {
		all[p] = r
	}

	return all
}

func (rm *RoleManager) Assigned() bool {
	rm.mu.RLock()
	defer rm.mu.RUnlock()

	return len(rm.roles) > 0
}

func (rm *RoleManager) Reset() {
	rm.mu.Lock()
	defer rm.mu.Unlock()

	rm.roles = make(map[string]string)
}
