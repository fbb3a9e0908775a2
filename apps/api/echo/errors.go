package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/pkg/errors"

	"github.com/shepherd-app/shepherd/core"
	"github.com/shepherd-app/shepherd/core/access"
	"github.com/shepherd-app/shepherd/core/member"
	"github.com/shepherd-app/shepherd/core/org"
	"github.com/shepherd-app/shepherd/core/student"
)

var (
	errUnauthorized   = echo.NewHTTPError(http.StatusUnauthorized, "member not authenticated")
	errRefreshExpired = echo.NewHTTPError(http.StatusForbidden, "refresh has expired")
	errHttpForbidden  = echo.NewHTTPError(http.StatusForbidden, "permission denied")
	errRateLimited    = echo.NewHTTPError(http.StatusTooManyRequests, "rate limit exceeded")

	// domain errors answered with their own message
	sentinelCodes = map[error]int{
		member.ErrNotFound:           http.StatusNotFound,
		member.ErrInvalidCredentials: http.StatusUnauthorized,
		org.ErrNotFound:              http.StatusNotFound,
		org.ErrDepartmentNotFound:    http.StatusNotFound,
		org.ErrClassNotFound:         http.StatusNotFound,
		org.ErrAlreadyMember:         http.StatusConflict,
		student.ErrNotFound:          http.StatusNotFound,
		access.ErrForbidden:          http.StatusForbidden,
	}
)

// sentinelCode looks cause up by equality. Indexing sentinelCodes directly would panic
// on uncomparable errors such as validator.ValidationErrors.
func sentinelCode(cause error) (int, bool) {
	for sentinel, code := range sentinelCodes {
		if cause == sentinel {
			return code, true
		}
	}
	return 0, false
}

// newAppHTTPErrorHandler returns a custom echo.HTTPErrorHandler that knows how to handle our errors.
// signalShutdown is called in order to gracefully shutdown the Server whenever a core.shutdown error is caught.
func newAppHTTPErrorHandler(logger core.Logger, signalShutdown func()) echo.HTTPErrorHandler {
	return func(err error, ctx echo.Context) {
		var code int
		var message interface{}

		cause := errors.Cause(err)
		if sc, ok := sentinelCode(cause); ok {
			code = sc
			message = cause.Error()
		} else {
			switch origErr := cause.(type) {
			case *echo.HTTPError:
				if origErr == middleware.ErrJWTMissing {
					code = http.StatusUnauthorized
					message = origErr.Message
					break
				}
				if origErr.Internal != nil {
					if herr, ok := origErr.Internal.(*echo.HTTPError); ok {
						origErr = herr
					}
				}
				code = origErr.Code
				message = origErr.Message
			case validator.ValidationErrors:
				fldErrs := make(map[string]string, len(origErr))
				for _, vErr := range origErr {
					fldErrs[vErr.Field()] = vErr.Translate(core.Translator)
				}
				code = http.StatusBadRequest
				message = fldErrs
			case *core.ValidationError:
				if origErr.Fields != nil {
					fldErrs := make(map[string]string, len(origErr.Fields))
					for _, fErr := range origErr.Fields {
						fldErrs[fErr.Field] = fErr.Error
					}
					message = fldErrs
				} else {
					message = origErr.Error()
				}
				code = http.StatusBadRequest
			default: // any other error is a server error
				code = http.StatusInternalServerError
				msg := http.StatusText(http.StatusInternalServerError)
				message = msg

				mbr, _ := getContextMember(ctx)
				logger.Error(msg, errors.Wrap(err, msg), mbr)

				// shutting down...
				if core.IsShutdown(err) {
					signalShutdown()
				}
			}
		}

		if ctx.Echo().Debug && code == http.StatusInternalServerError {
			message = err.Error()
		}
		if m, ok := message.(string); ok {
			message = echo.Map{"error": m}
		}

		// Send response
		if !ctx.Response().Committed {
			if ctx.Request().Method == http.MethodHead { // Issue #608
				err = ctx.NoContent(code)
			} else {
				err = ctx.JSON(code, message)
			}
			if err != nil {
				ctx.Echo().Logger.Error(err)
			}
		}
	}
}
