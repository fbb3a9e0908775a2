package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/shepherd-app/shepherd/core/access"
	"github.com/shepherd-app/shepherd/core/stats"
)

type statsApi struct {
	access    *access.Service
	insighter stats.Insighter
}

func registerStatsAPI(g *echo.Group, jwt, mbr, management echo.MiddlewareFunc, api *statsApi) {
	sg := g.Group("/stats", jwt, mbr, management)
	sg.GET("/attendance", api.attendance)
	sg.GET("/insight", api.insight)
}

func (api *statsApi) attendance(ctx echo.Context) error {
	actor, err := getContextMember(ctx)
	if err != nil {
		return err
	}
	points, err := api.access.AttendanceSeries(ctx.Request().Context(), actor)
	if err != nil {
		return errors.Wrap(err, "aggregating attendance")
	}
	return ctx.JSON(http.StatusOK, points)
}

// insight never fails on the insight service: its failures come back as fixed texts.
func (api *statsApi) insight(ctx echo.Context) error {
	actor, err := getContextMember(ctx)
	if err != nil {
		return err
	}
	points, err := api.access.AttendanceSeries(ctx.Request().Context(), actor)
	if err != nil {
		return errors.Wrap(err, "aggregating attendance")
	}

	text := stats.InsightNotConfigured
	if api.insighter != nil {
		text = api.insighter.Insight(ctx.Request().Context(), points, actor.Role)
	}
	return ctx.JSON(http.StatusOK, InsightResponse{Insight: text, Points: points})
}
