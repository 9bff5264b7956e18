package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	httpapi "mole-hunt/internal/api/http"
	"mole-hunt/internal/config"
	"mole-hunt/internal/game"
	"mole-hunt/internal/logger"
	"mole-hunt/internal/rcon"
	"mole-hunt/internal/state"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:   "molehunt",
	Short: "Minecraft 服务器上的内鬼狩猎小游戏编排器",
	Long:  "通过 RCON 编排一局限时的内鬼对抗无辜者游戏：分配身份、倒计时、检测死亡并结算胜负。",
}

var (
	testMode       bool
	testRole       string
	testPlayer     string
	spawnSimulated bool
)

var startCmd = &cobra.Command{
	Use:   "start",
	Short: "开始一局游戏并保持运行到结束",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runGame(game.StartOptions{
			TestMode:       testMode,
			TestRole:       testRole,
			TestPlayer:     testPlayer,
			SpawnSimulated: spawnSimulated,
		})
	},
}

var stopCmd = &cobra.Command{
	Use:   "stop",
	Short: "终止正在运行的一局游戏",
	RunE: func(cmd *cobra.Command, args []string) error {
		return callAdmin(http.MethodPost, "/api/v1/stop")
	},
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "查询当前游戏状态",
	RunE: func(cmd *cobra.Command, args []string) error {
		return callAdmin(http.MethodGet, "/api/v1/status")
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(
		&configPath, "config", "c",
		"mole_hunt_config.json", "配置文件路径",
	)

	startCmd.Flags().BoolVar(
		&testMode, "test", false,
		"测试模式：允许单人开局",
	)
	startCmd.Flags().StringVar(
		&testRole, "test-role", "innocent",
		"测试模式下强制分配给测试玩家的身份 (traitor/innocent)",
	)
	startCmd.Flags().StringVar(
		&testPlayer, "test-player", "",
		"测试模式下被强制分配身份的玩家，默认取第一个参战玩家",
	)
	startCmd.Flags().BoolVar(
		&spawnSimulated, "spawn-simulated-player", false,
		"测试模式下用 Carpet 生成一个假人陪练",
	)

	rootCmd.AddCommand(startCmd, stopCmd, statusCmd)
}

func Execute() error {
	return rootCmd.Execute()
}

// runGame 是 start 子命令的主流程：装配依赖、开局、等待游戏结束或收到退出信号
func runGame(opts game.StartOptions) error {
	cfg, err := config.InitConfig(configPath)
	if err != nil {
		return err
	}

	logger.InitLogger(cfg.LogLevel, cfg.LogFile)
	defer zap.L().Sync()

	client := rcon.NewClient(rcon.Config{
		Addr:        cfg.Rcon.Addr(),
		Password:    cfg.Rcon.Password,
		Timeout:     cfg.Rcon.Timeout(),
		MaxAttempts: cfg.Rcon.MaxAttempts,
		RetryDelay:  cfg.Rcon.RetryDelay(),
	})
	defer client.Close()

	gs := game.NewGameState(cfg, client)
	appState := state.NewAppState(cfg, gs)

	go httpapi.RunServer(appState)

	if err := gs.StartGame(opts); err != nil {
		return err
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	ticker := time.NewTicker(1 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case sig := <-sigCh:
			zap.S().Infof("收到信号 %v，终止游戏", sig)
			gs.StopGame()
			gs.WaitForCleanup()
			return nil
		case <-ticker.C:
			if gs.Status() == game.STATUS_NOT_STARTED {
				// 游戏已结束且善后完成
				gs.WaitForCleanup()

				winner, reason := gs.Result()
				if winner != "" {
					fmt.Printf("Winner: %s (%s)\n", winner, reason)
				}
				return nil
			}
		}
	}
}

// callAdmin 调用本地管理接口并把 JSON 回复原样打印
// iris 只做服务端，客户端这一侧用标准库就够了
func callAdmin(method string, path string) error {
	cfg, err := config.InitConfig(configPath)
	if err != nil {
		return err
	}

	url := "http://" + cfg.Http.Addr() + path

	req, err := http.NewRequest(method, url, nil)
	if err != nil {
		return err
	}

	httpClient := &http.Client{Timeout: 5 * time.Second}

	resp, err := httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("无法连接管理接口，游戏进程可能没有运行: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}

	var pretty map[string]any
	if err := json.Unmarshal(body, &pretty); err == nil {
		out, _ := json.MarshalIndent(pretty, "", "  ")
		fmt.Println(string(out))
	} else {
		fmt.Println(string(body))
	}

	if resp.StatusCode >= 400 {
		return fmt.Errorf("管理接口返回错误状态: %d", resp.StatusCode)
	}

	return nil
}
