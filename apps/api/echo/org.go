package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/shepherd-app/shepherd/core/access"
	"github.com/shepherd-app/shepherd/core/org"
)

type orgApi struct {
	svc    *org.Service
	access *access.Service
}

func registerOrgAPI(g *echo.Group, jwt, mbr, management echo.MiddlewareFunc, api *orgApi) {
	og := g.Group("/organizations", jwt, mbr)
	og.POST("", api.found)
	og.POST("/join", api.join)
	og.GET("/current", api.current)

	dg := g.Group("/departments", jwt, mbr, management)
	dg.GET("", api.queryDepartments)
	dg.POST("", api.createDepartment)

	cg := g.Group("/classes", jwt, mbr, management)
	cg.GET("", api.queryClasses)
	cg.POST("", api.createClass)
}

// Handlers

func (api *orgApi) found(ctx echo.Context) error {
	actor, err := getContextMember(ctx)
	if err != nil {
		return err
	}

	var data org.NewOrganization
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewOrganization")
	}
	if err := data.Validate(); err != nil {
		return err
	}

	o, mbr, err := api.svc.Found(ctx.Request().Context(), data, actor)
	if err != nil {
		return errors.Wrap(err, "founding organization")
	}
	return ctx.JSON(http.StatusCreated, MembershipResponse{Organization: o, Member: mbr.Public()})
}

func (api *orgApi) join(ctx echo.Context) error {
	actor, err := getContextMember(ctx)
	if err != nil {
		return err
	}

	var data org.JoinOrganization
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to JoinOrganization")
	}
	if err := data.Validate(); err != nil {
		return err
	}

	o, mbr, err := api.svc.Join(ctx.Request().Context(), data.Code, actor)
	if err != nil {
		return errors.Wrap(err, "joining organization")
	}
	return ctx.JSON(http.StatusOK, MembershipResponse{Organization: o, Member: mbr.Public()})
}

func (api *orgApi) current(ctx echo.Context) error {
	actor, err := getContextMember(ctx)
	if err != nil {
		return err
	}
	o, err := api.access.Organization(ctx.Request().Context(), actor)
	if err != nil {
		return errors.Wrap(err, "retrieving organization")
	}
	return ctx.JSON(http.StatusOK, o)
}

func (api *orgApi) queryDepartments(ctx echo.Context) error {
	actor, err := getContextMember(ctx)
	if err != nil {
		return err
	}
	depts, err := api.access.Departments(ctx.Request().Context(), actor)
	if err != nil {
		return errors.Wrap(err, "querying departments")
	}
	return ctx.JSON(http.StatusOK, depts)
}

func (api *orgApi) createDepartment(ctx echo.Context) error {
	actor, err := getContextMember(ctx)
	if err != nil {
		return err
	}

	var data org.NewDepartment
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewDepartment")
	}
	if err := data.Validate(); err != nil {
		return err
	}

	dept, err := api.access.CreateDepartment(ctx.Request().Context(), actor, data)
	if err != nil {
		return errors.Wrap(err, "creating department")
	}
	return ctx.JSON(http.StatusCreated, dept)
}

func (api *orgApi) queryClasses(ctx echo.Context) error {
	actor, err := getContextMember(ctx)
	if err != nil {
		return err
	}
	classes, err := api.access.Classes(ctx.Request().Context(), actor)
	if err != nil {
		return errors.Wrap(err, "querying classes")
	}
	return ctx.JSON(http.StatusOK, classes)
}

func (api *orgApi) createClass(ctx echo.Context) error {
	actor, err := getContextMember(ctx)
	if err != nil {
		return err
	}

	var data org.NewClass
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewClass")
	}
	if err := data.Validate(); err != nil {
		return err
	}

	class, err := api.access.CreateClass(ctx.Request().Context(), actor, data)
	if err != nil {
		return errors.Wrap(err, "creating class")
	}
	return ctx.JSON(http.StatusCreated, class)
}
