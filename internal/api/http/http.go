package http

import (
	"mole-hunt/internal/state"

	"github.com/kataras/iris/v12"
)

// RunServer 启动本地管理接口，供 CLI 的 stop/status 子命令跨进程调用
func RunServer(appState *state.AppState) {
	app := iris.Default()

	api := app.Party("/api/v1")

	api.Get("/status", GameStatus(appState))
	api.Post("/stop", StopGame(appState))

	app.Listen(appState.Cfg.Http.Addr())
}
