package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/campusgate/outpass/core/feedback"
)

type feedbackApi struct {
	deps ServerDeps
}

func registerFeedbackAPI(g *echo.Group, jwt echo.MiddlewareFunc, deps ServerDeps) {
	api := feedbackApi{deps: deps}

	fg := g.Group("/feedback", jwt)
	fg.POST("", api.create, roleMiddleware(RoleStudent))
	fg.GET("", api.query, roleMiddleware(RoleStudent, RoleAdmin))
}

func (api *feedbackApi) create(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return err
	}
	var data feedback.NewFeedback
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewFeedback")
	}
	data.StudentID = claims.Subject

	rctx := ctx.Request().Context()
	op, err := api.deps.Outpasses.Get(rctx, data.OutpassID)
	if err != nil {
		return err
	}
	if op.StudentID != claims.Subject {
		return errHttpForbidden
	}

	fb, err := api.deps.Feedback.Submit(rctx, data)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusCreated, fb)
}

func (api *feedbackApi) query(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return err
	}
	filter := new(feedback.QueryFilter)
	if err = ctx.Bind(filter); err != nil {
		return ctx.JSON(http.StatusOK, []feedback.Feedback{})
	}
	if claims.Role == RoleStudent {
		filter.StudentID = claims.Subject
	}

	fbs, err := api.deps.Feedback.Query(ctx.Request().Context(), *filter)
	if err != nil {
		return errors.Wrap(err, "querying feedback")
	}
	return ctx.JSON(http.StatusOK, fbs)
}
