package rcon

import (
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	gorcon "github.com/gorcon/rcon"
	"go.uber.org/zap"
)

// 空闲时的连接存活检查间隔，对应原版 worker 队列上的短轮询超时
const livenessInterval = 500 * time.Millisecond

var errClientClosed = errors.New("客户端已关闭")

type Config struct {
	Addr     string
	Password string
	// 单次调用等待结果的上限，默认 5 秒
	Timeout time.Duration
	// 统一的重试策略：所有调用方共享同一份配置，不再各自写重试循环
	MaxAttempts int
	RetryDelay  time.Duration
}

type result struct {
	body string
	err  error
}

// request 是一次排队等待执行的控制台命令
// respCh 容量为 1，worker 对它至多写入一次
type request struct {
	id      string
	command string
	respCh  chan result
}

// Client 把唯一一条 RCON 物理连接封装成可以被任意协程并发调用的命令通道
// 所有命令经由 reqCh 汇入专属 worker 协程，按入队顺序逐条执行
type Client struct {
	cfg Config

	reqCh  chan request
	quitCh chan struct{}
	doneCh chan struct{}

	closeOnce sync.Once

	// 仅由 worker 协程访问
	conn *gorcon.Conn
}

func NewClient(cfg Config) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 5 * time.Second
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 1
	}
	if cfg.RetryDelay <= 0 {
		cfg.RetryDelay = 500 * time.Millisecond
	}

	c := &Client{
		cfg:    cfg,
		reqCh:  make(chan request, 64),
		quitCh: make(chan struct{}),
		doneCh: make(chan struct{}),
	}

	// worker 伴随进程整个生命周期运行，不随单局游戏重建
	go c.worker()

	return c
}

func (c *Client) worker() {
	defer close(c.doneCh)

	ticker := time.NewTicker(livenessInterval)
	defer ticker.Stop()

	for {
		select {
		case req := <-c.reqCh:
			c.serve(req)

		case <-ticker.C:
			// 空闲时发现连接已断开则立刻重建，避免下一条命令白白等待
			if c.conn == nil {
				_ = c.redial()
			}

		case <-c.quitCh:
			c.shutdown()
			return
		}
	}
}

// serve 执行单条命令，发送前确认连接存活，失效时只重建一次
// 重建失败仅使当前这条命令失败，不影响队列里的其余命令
func (c *Client) serve(req request) {
	if c.conn == nil {
		if err := c.redial(); err != nil {
			req.respCh <- result{err: err}
			return
		}
	}

	body, err := c.conn.Execute(req.command)
	if err == nil {
		zap.L().Debug(
			"RCON 命令执行成功",
			zap.String("req_id", req.id),
			zap.String("command", req.command),
		)
		req.respCh <- result{body: body}
		return
	}

	zap.L().Warn(
		"RCON 命令执行失败，重建连接后重试一次",
		zap.String("req_id", req.id),
		zap.String("command", req.command),
		zap.Error(err),
	)

	c.dropConn()

	if rerr := c.redial(); rerr != nil {
		req.respCh <- result{err: rerr}
		return
	}

	body, err = c.conn.Execute(req.command)
	if err != nil {
		c.dropConn()
		req.respCh <- result{err: err}
		return
	}

	req.respCh <- result{body: body}
}

func (c *Client) redial() error {
	conn, err := gorcon.Dial(
		c.cfg.Addr,
		c.cfg.Password,
		gorcon.SetDialTimeout(c.cfg.Timeout),
		gorcon.SetDeadline(c.cfg.Timeout),
	)
	if err != nil {
		zap.L().Warn(
			"RCON 连接建立失败",
			zap.String("addr", c.cfg.Addr),
			zap.Error(err),
		)
		return err
	}

	c.conn = conn

	zap.L().Info(
		"RCON 连接已建立",
		zap.String("addr", c.cfg.Addr),
	)

	return nil
}

func (c *Client) dropConn() {
	if c.conn != nil {
		_ = c.conn.Close()
		c.conn = nil
	}
}

// shutdown 收到退出信号后清空队列并关闭连接
func (c *Client) shutdown() {
	c.dropConn()

	for {
		select {
		case req := <-c.reqCh:
			req.respCh <- result{err: errClientClosed}
		default:
			zap.L().Info("RCON worker 协程退出")
			return
		}
	}
}

// Close 通知 worker 退出并在限定时间内等待其结束，超时则直接返回
func (c *Client) Close() {
	c.closeOnce.Do(func() {
		close(c.quitCh)
	})

	waitTimer := time.NewTimer(2 * time.Second)
	defer waitTimer.Stop()

	select {
	case <-c.doneCh:
	case <-waitTimer.C:
		zap.L().Warn("等待 RCON worker 退出超时，强制返回")
	}
}

// Execute 执行一条控制台命令，按统一策略重试
// 传输层的任何问题都不作为错误抛出，只返回 ok=false，由调用方自行降级
func (c *Client) Execute(command string) (string, bool) {
	for attempt := 0; attempt < c.cfg.MaxAttempts; attempt++ {
		if attempt > 0 {
			time.Sleep(c.cfg.RetryDelay)
		}

		if body, ok := c.executeOnce(command); ok {
			return body, true
		}
	}

	return "", false
}

func (c *Client) executeOnce(command string) (string, bool) {
	req := request{
		id:      uuid.New().String()[:8],
		command: command,
		respCh:  make(chan result, 1),
	}

	enqueueTimer := time.NewTimer(c.cfg.Timeout)
	defer enqueueTimer.Stop()

	select {
	case c.reqCh <- req:
	case <-enqueueTimer.C:
		zap.L().Error(
			"RCON 命令入队超时",
			zap.String("req_id", req.id),
			zap.String("command", command),
		)
		return "", false
	case <-c.quitCh:
		return "", false
	}

	waitTimer := time.NewTimer(c.cfg.Timeout)
	defer waitTimer.Stop()

	select {
	case res := <-req.respCh:
		if res.err != nil {
			zap.L().Error(
				"RCON 命令执行出错",
				zap.String("req_id", req.id),
				zap.String("command", command),
				zap.Error(res.err),
			)
			return "", false
		}
		return res.body, true

	case <-waitTimer.C:
		zap.L().Error(
			"RCON 命令等待结果超时",
			zap.String("req_id", req.id),
			zap.String("command", command),
		)
		return "", false
	}
}

// Connect 用 list 命令探测连通性，不是独立的会话建立动作
// worker 本身总是按需懒连接
func (c *Client) Connect() bool {
	if _, ok := c.Execute("list"); !ok {
		zap.L().Error(
			"RCON 连通性探测失败",
			zap.String("addr", c.cfg.Addr),
		)
		return false
	}

	zap.L().Info(
		"RCON 连通性探测成功",
		zap.String("addr", c.cfg.Addr),
	)

	return true
}

// GetOnlinePlayers 查询在线玩家列表
// 解析失败时记录日志并返回空列表，轮询循环据此降级为“没有玩家”而不是崩溃
func (c *Client) GetOnlinePlayers() []string {
	response, ok := c.Execute("list")
	if !ok {
		zap.L().Warn("list 命令没有返回结果")
		return []string{}
	}

	players := ParsePlayerList(response)
	if players == nil {
		zap.L().Warn(
			"无法解析 list 命令的回复",
			zap.String("response", response),
		)
		return []string{}
	}

	return players
}
