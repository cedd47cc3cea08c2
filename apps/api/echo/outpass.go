package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/campusgate/outpass/core"
	"github.com/campusgate/outpass/core/outpass"
)

// statusTargets lists the statuses each role may move an outpass to.
var statusTargets = map[Role][]outpass.Status{
	RoleAdmin:    {outpass.StatusApproved, outpass.StatusRejected, outpass.StatusLate},
	RoleStudent:  {outpass.StatusCancelled},
	RoleSecurity: {outpass.StatusExited, outpass.StatusReturned},
}

type outpassApi struct {
	deps ServerDeps
}

func registerOutpassAPI(g *echo.Group, jwt echo.MiddlewareFunc, deps ServerDeps) {
	api := outpassApi{deps: deps}

	og := g.Group("/outpasses", jwt)
	og.POST("", api.create, roleMiddleware(RoleStudent, RoleAdmin))
	og.GET("", api.query)
	og.GET("/:id", api.retrieve)
	og.PUT("/:id/status", api.updateStatus)
}

func (api *outpassApi) create(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return err
	}
	var data outpass.NewOutpass
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewOutpass")
	}
	// students request for themselves only
	if claims.Role == RoleStudent {
		data.StudentID = claims.Subject
	}

	op, err := api.deps.Outpasses.Create(ctx.Request().Context(), data)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusCreated, op)
}

// query lists outpasses. A token parameter resolves through the scan matcher instead of exact filtering.
func (api *outpassApi) query(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return err
	}
	filter := new(outpass.QueryFilter)
	if err = ctx.Bind(filter); err != nil {
		return ctx.JSON(http.StatusOK, []outpass.Outpass{})
	}
	filter.Clean()
	if claims.Role == RoleStudent {
		filter.StudentID = claims.Subject
	}

	rctx := ctx.Request().Context()
	if filter.Token != "" {
		op, err := api.deps.Outpasses.FindByToken(rctx, filter.Token)
		if err != nil {
			if core.IsNotFound(err) {
				return ctx.JSON(http.StatusOK, []outpass.Outpass{})
			}
			return err
		}
		if filter.StudentID != "" && op.StudentID != filter.StudentID {
			return ctx.JSON(http.StatusOK, []outpass.Outpass{})
		}
		return ctx.JSON(http.StatusOK, []outpass.Outpass{op})
	}

	ops, err := api.deps.Outpasses.Query(rctx, *filter)
	if err != nil {
		return errors.Wrap(err, "querying outpasses")
	}
	return ctx.JSON(http.StatusOK, ops)
}

func (api *outpassApi) retrieve(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return err
	}
	op, err := api.deps.Outpasses.Get(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return err
	}
	if claims.Role == RoleStudent && op.StudentID != claims.Subject {
		return errHttpForbidden
	}
	return ctx.JSON(http.StatusOK, op)
}

func (api *outpassApi) updateStatus(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return err
	}
	var data outpass.StatusUpdate
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to StatusUpdate")
	}
	data.Clean()
	if !roleMayTarget(claims.Role, data.Status) {
		return errHttpForbidden
	}

	rctx := ctx.Request().Context()
	id := ctx.Param("id")
	switch claims.Role {
	case RoleStudent:
		op, err := api.deps.Outpasses.Get(rctx, id)
		if err != nil {
			return err
		}
		if op.StudentID != claims.Subject {
			return errHttpForbidden
		}
	case RoleAdmin:
		if data.ApprovedBy == "" {
			data.ApprovedBy = claims.Subject
		}
	}

	op, err := api.deps.Outpasses.UpdateStatus(rctx, id, data)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, op)
}

func roleMayTarget(role Role, status outpass.Status) bool {
	for _, st := range statusTargets[role] {
		if st == status {
			return true
		}
	}
	return false
}
