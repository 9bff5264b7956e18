package http

import (
	"mole-hunt/internal/state"

	"github.com/kataras/iris/v12"
)

func GameStatus(appState *state.AppState) iris.Handler {
	return func(ctx iris.Context) {
		gs := appState.Game

		traitors, innocents := gs.AliveCounts()
		winner, reason := gs.Result()

		ctx.JSON(iris.Map{
			"status":            gs.Status(),
			"remaining_seconds": gs.RemainingSeconds(),
			"alive_traitors":    traitors,
			"alive_innocents":   innocents,
			"winner":            winner,
			"reason":            reason,
		})
	}
}

func StopGame(appState *state.AppState) iris.Handler {
	return func(ctx iris.Context) {
		if err := appState.Game.StopGame(); err != nil {
			ctx.StatusCode(iris.StatusBadRequest)
			ctx.JSON(iris.Map{
				"error": err.Error(),
			})
			return
		}

		ctx.JSON(iris.Map{
			"message": "游戏正在结束",
		})
	}
}
