package echoapi

import (
	"bytes"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/shepherd-app/shepherd/core"
	"github.com/shepherd-app/shepherd/core/access"
	"github.com/shepherd-app/shepherd/core/student"
)

const (
	templateFilename = "students_template.xlsx"
	mimeXLSX         = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	maxImportSize    = 5 << 20
)

type studentApi struct {
	access  *access.Service
	metrics *metrics
}

func registerStudentAPI(g *echo.Group, jwt, mbr, management echo.MiddlewareFunc, api *studentApi) {
	sg := g.Group("/students", jwt, mbr, management)
	sg.GET("", api.query)
	sg.POST("", api.create)
	sg.POST("/import", api.importRoster)
	sg.GET("/import/template", api.template)

	dg := sg.Group("/:id")
	dg.GET("", api.retrieve)
	dg.PUT("", api.update)
	dg.PUT("/attendance", api.markAttendance)
	dg.POST("/attendance/toggle", api.toggleAttendance)
}

// Handlers

func (api *studentApi) query(ctx echo.Context) error {
	actor, err := getContextMember(ctx)
	if err != nil {
		return err
	}
	students, err := api.access.Students(ctx.Request().Context(), actor)
	if err != nil {
		return errors.Wrap(err, "querying students")
	}
	return ctx.JSON(http.StatusOK, classFilter(ctx, students))
}

func (api *studentApi) create(ctx echo.Context) error {
	actor, err := getContextMember(ctx)
	if err != nil {
		return err
	}

	var data student.NewStudent
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewStudent")
	}
	if err := data.Validate(); err != nil {
		return err
	}

	s, err := api.access.CreateStudent(ctx.Request().Context(), actor, data)
	if err != nil {
		return errors.Wrap(err, "creating student")
	}
	return ctx.JSON(http.StatusCreated, s)
}

func (api *studentApi) retrieve(ctx echo.Context) error {
	actor, err := getContextMember(ctx)
	if err != nil {
		return err
	}
	s, err := api.access.Student(ctx.Request().Context(), actor, ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "retrieving student")
	}
	return ctx.JSON(http.StatusOK, s)
}

func (api *studentApi) update(ctx echo.Context) error {
	actor, err := getContextMember(ctx)
	if err != nil {
		return err
	}

	var data student.UpdateStudent
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateStudent")
	}
	if err := data.Validate(); err != nil {
		return err
	}

	s, err := api.access.UpdateStudent(ctx.Request().Context(), actor, ctx.Param("id"), data)
	if err != nil {
		return errors.Wrap(err, "updating student")
	}
	return ctx.JSON(http.StatusOK, s)
}

func (api *studentApi) markAttendance(ctx echo.Context) error {
	actor, err := getContextMember(ctx)
	if err != nil {
		return err
	}

	var data student.MarkAttendance
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to MarkAttendance")
	}
	if err := data.Validate(); err != nil {
		return err
	}

	s, err := api.access.MarkAttendance(ctx.Request().Context(), actor, ctx.Param("id"), data)
	if err != nil {
		return errors.Wrap(err, "marking attendance")
	}
	api.metrics.marks.WithLabelValues(string(data.Status)).Inc()
	return ctx.JSON(http.StatusOK, s)
}

func (api *studentApi) toggleAttendance(ctx echo.Context) error {
	actor, err := getContextMember(ctx)
	if err != nil {
		return err
	}

	var data ToggleAttendanceRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to ToggleAttendanceRequest")
	}
	if err := data.Validate(); err != nil {
		return err
	}

	s, err := api.access.ToggleAttendance(ctx.Request().Context(), actor, ctx.Param("id"), data.Date)
	if err != nil {
		return errors.Wrap(err, "toggling attendance")
	}
	api.metrics.marks.WithLabelValues(string(s.Attendance.StatusOn(data.Date))).Inc()
	return ctx.JSON(http.StatusOK, s)
}

// importRoster enrolls the rows of the uploaded `file` (.xlsx or .csv) in the `class_id` form value.
func (api *studentApi) importRoster(ctx echo.Context) error {
	actor, err := getContextMember(ctx)
	if err != nil {
		return err
	}

	fh, err := ctx.FormFile("file")
	if err != nil {
		return core.NewValidationError(nil, core.FieldError{Field: "file", Error: "this field is required"})
	}
	if fh.Size > maxImportSize {
		return core.NewValidationError(nil, core.FieldError{Field: "file", Error: "file is too large"})
	}
	format, err := student.FormatOf(fh.Filename)
	if err != nil {
		return core.NewValidationError(err, core.FieldError{Field: "file", Error: err.Error()})
	}

	f, err := fh.Open()
	if err != nil {
		return errors.Wrap(err, "opening uploaded file")
	}
	defer f.Close()

	rows, err := student.ParseRows(f, format)
	if err != nil {
		cause := errors.Cause(err)
		if cause == student.ErrEmptyRoster || cause == student.ErrUnsupportedFormat {
			return core.NewValidationError(cause, core.FieldError{Field: "file", Error: cause.Error()})
		}
		return core.NewValidationError(err, core.FieldError{Field: "file", Error: "the file could not be read"})
	}

	created, err := api.access.ImportStudents(ctx.Request().Context(), actor, ctx.FormValue("class_id"), rows)
	if err != nil {
		return errors.Wrap(err, "importing students")
	}
	return ctx.JSON(http.StatusCreated, ImportResponse{Created: len(created), Students: created})
}

func (api *studentApi) template(ctx echo.Context) error {
	var buf bytes.Buffer
	if err := student.WriteTemplate(&buf); err != nil {
		return errors.Wrap(err, "writing template")
	}
	ctx.Response().Header().Set(echo.HeaderContentDisposition, `attachment; filename="`+templateFilename+`"`)
	return ctx.Blob(http.StatusOK, mimeXLSX, buf.Bytes())
}
