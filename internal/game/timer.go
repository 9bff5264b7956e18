package game

import (
	"sync"
	"time"

	"go.uber.org/zap"
)

// Timer 是单局游戏的倒计时
// 启动前 RemainingSeconds 恒为 0，调用方必须以游戏状态而不是超时与否来判断是否在局中
type Timer struct {
	mu              sync.Mutex
	durationMinutes int
	startTime       time.Time
	endTime         time.Time

	now func() time.Time
}

func NewTimer(durationMinutes int) *Timer {
	return &Timer{
		durationMinutes: durationMinutes,
		now:             time.Now,
	}
}

func (t *Timer) Start() {
	t.mu.Lock()
	t.startTime = t.now()
	t.endTime = t.startTime.Add(time.Duration(t.durationMinutes) * time.Minute)
	t.mu.Unlock()

	zap.L().Info(
		"计时器启动",
		zap.Int("duration_minutes", t.durationMinutes),
	)
}

func (t *Timer) RemainingSeconds() int {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.endTime.IsZero() {
		return 0
	}

	remaining := int(t.endTime.Sub(t.now()).Seconds())
	if remaining < 0 {
		return 0
	}

	return remaining
}

func (t *Timer) RemainingMinutes() int {
	return t.RemainingSeconds() / 60
}

func (t *Timer) IsExpired() bool {
	return t.RemainingSeconds() <= 0
}

func (t *Timer) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.startTime = time.Time{}
	t.endTime = time.Time{}
}
