package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/campusgate/outpass/core/gate"
	"github.com/campusgate/outpass/core/outpass"
)

type gateApi struct {
	deps ServerDeps
}

func registerGateAPI(g *echo.Group, jwt echo.MiddlewareFunc, deps ServerDeps) {
	api := gateApi{deps: deps}

	gg := g.Group("/gate", jwt, roleMiddleware(RoleSecurity, RoleAdmin))
	gg.GET("/scan", api.scan)
	gg.POST("/logs", api.record)
	gg.GET("/logs", api.query)
}

func (api *gateApi) scan(ctx echo.Context) error {
	op, err := api.deps.Gate.Scan(ctx.Request().Context(), ctx.QueryParam("token"))
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, op)
}

type gateActionResponse struct {
	Log     gate.GateLog    `json:"log"`
	Outpass outpass.Outpass `json:"outpass"`
}

func (api *gateApi) record(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return err
	}
	var data gate.NewGateAction
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewGateAction")
	}
	if data.SecurityID == "" {
		data.SecurityID = claims.Subject
	}

	log, op, err := api.deps.Gate.RecordAction(ctx.Request().Context(), data)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusCreated, gateActionResponse{Log: log, Outpass: op})
}

func (api *gateApi) query(ctx echo.Context) error {
	filter := new(gate.QueryFilter)
	if err := ctx.Bind(filter); err != nil {
		return ctx.JSON(http.StatusOK, []gate.GateLog{})
	}
	logs, err := api.deps.Gate.Query(ctx.Request().Context(), *filter)
	if err != nil {
		return errors.Wrap(err, "querying gate logs")
	}
	return ctx.JSON(http.StatusOK, logs)
}
