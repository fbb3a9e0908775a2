package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/shepherd-app/shepherd/core/access"
	"github.com/shepherd-app/shepherd/core/member"
)

type memberApi struct {
	svc     *member.Service
	access  *access.Service
	auth    *authConfig
	metrics *metrics
}

func registerMemberAPI(g *echo.Group, jwt, mbr, management, rateLimit echo.MiddlewareFunc, api *memberApi) {
	// un-authed endpoints
	ag := g.Group("/auth")
	ag.POST("/register", api.register, rateLimit)
	ag.POST("/login", api.login, rateLimit)
	ag.POST("/token-refresh", api.refreshToken, jwt, mbr)
	ag.POST("/password-reset", api.requestPasswordReset, rateLimit)
	ag.POST("/password-reset-confirm", api.confirmPasswordReset, rateLimit)

	me := g.Group("/me", jwt, mbr)
	me.GET("", api.me)
	me.PUT("", api.updateMe)

	g.GET("/roles", api.queryRoles, jwt, mbr)

	mg := g.Group("/members", jwt, mbr, management)
	mg.GET("", api.query)
	mg.GET("/:id", api.retrieve)
	mg.PUT("/:id", api.update)
}

// Handlers

func (api *memberApi) register(ctx echo.Context) error {
	var data member.NewMember
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewMember")
	}
	if err := data.Validate(api.svc); err != nil {
		return err
	}

	mbr, err := api.svc.Register(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "registering member")
	}
	token, err := api.auth.tokenFor(mbr)
	if err != nil {
		return errors.Wrap(err, "generating token")
	}
	return ctx.JSON(http.StatusCreated, SessionResponse{Token: token, Member: mbr.Public()})
}

func (api *memberApi) login(ctx echo.Context) error {
	var data LoginRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to LoginRequest")
	}
	if err := data.Validate(); err != nil {
		return err
	}

	mbr, err := api.svc.Authenticate(ctx.Request().Context(), data.Email, data.Password)
	if err != nil {
		if err == member.ErrInvalidCredentials {
			api.metrics.logins.WithLabelValues("failure").Inc()
			return err
		}
		return errors.Wrap(err, "authenticating")
	}
	api.metrics.logins.WithLabelValues("success").Inc()

	token, err := api.auth.tokenFor(mbr)
	if err != nil {
		return errors.Wrap(err, "generating token")
	}
	return ctx.JSON(http.StatusOK, SessionResponse{Token: token, Member: mbr.Public()})
}

func (api *memberApi) refreshToken(ctx echo.Context) error {
	token, err := api.auth.refreshToken(ctx)
	if err != nil {
		return errors.Wrap(err, "refreshing token")
	}
	return ctx.JSON(http.StatusOK, TokenResponse{Token: token})
}

// requestPasswordReset answers the same whether the email is registered or not.
func (api *memberApi) requestPasswordReset(ctx echo.Context) error {
	var data PasswordResetRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to PasswordResetRequest")
	}
	if err := data.Validate(); err != nil {
		return err
	}
	if err := api.svc.RequestPasswordReset(ctx.Request().Context(), data.Email); err != nil {
		return errors.Wrap(err, "requesting password reset")
	}
	return ctx.NoContent(http.StatusAccepted)
}

func (api *memberApi) confirmPasswordReset(ctx echo.Context) error {
	var data member.ResetPassword
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to ResetPassword")
	}
	if err := data.Validate(); err != nil {
		return err
	}

	mbr, err := api.svc.ResetPassword(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "resetting password")
	}
	token, err := api.auth.tokenFor(mbr)
	if err != nil {
		return errors.Wrap(err, "generating token")
	}
	return ctx.JSON(http.StatusOK, SessionResponse{Token: token, Member: mbr.Public()})
}

func (api *memberApi) me(ctx echo.Context) error {
	mbr, err := getContextMember(ctx)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, mbr.Public())
}

func (api *memberApi) updateMe(ctx echo.Context) error {
	mbr, err := getContextMember(ctx)
	if err != nil {
		return err
	}
	return api.applyUpdate(ctx, mbr, mbr.ID)
}

func (api *memberApi) query(ctx echo.Context) error {
	actor, err := getContextMember(ctx)
	if err != nil {
		return err
	}
	mbrs, err := api.access.Members(ctx.Request().Context(), actor)
	if err != nil {
		return errors.Wrap(err, "querying members")
	}
	return ctx.JSON(http.StatusOK, publicMembers(mbrs))
}

func (api *memberApi) retrieve(ctx echo.Context) error {
	actor, err := getContextMember(ctx)
	if err != nil {
		return err
	}
	mbr, err := api.access.Member(ctx.Request().Context(), actor, ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "retrieving member")
	}
	return ctx.JSON(http.StatusOK, mbr.Public())
}

func (api *memberApi) update(ctx echo.Context) error {
	actor, err := getContextMember(ctx)
	if err != nil {
		return err
	}
	return api.applyUpdate(ctx, actor, ctx.Param("id"))
}

func (api *memberApi) applyUpdate(ctx echo.Context, actor member.Member, id string) error {
	var data member.UpdateMember
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateMember")
	}
	mbr, err := api.access.UpdateMember(ctx.Request().Context(), actor, id, data)
	if err != nil {
		return errors.Wrap(err, "updating member")
	}
	return ctx.JSON(http.StatusOK, mbr.Public())
}

func (api *memberApi) queryRoles(ctx echo.Context) error {
	return ctx.JSON(http.StatusOK, member.Roles)
}
