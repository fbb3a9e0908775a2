package echoapi

import (
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/shepherd-app/shepherd/core/access"
	"github.com/shepherd-app/shepherd/core/member"
)

// memberMiddleware loads the member identified by the token subject.
// A token outliving its member is rejected.
func memberMiddleware(svc *member.Service) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			claims, err := getContextClaims(ctx)
			if err != nil {
				return err
			}
			mbr, err := svc.GetByID(ctx.Request().Context(), claims.Subject)
			if err != nil {
				if errors.Cause(err) == member.ErrNotFound {
					return errUnauthorized
				}
				return errors.Wrap(err, "finding member by ID")
			}
			ctx.Set(contextMemberKey, mbr)
			return next(ctx)
		}
	}
}

// managementMiddleware rejects members without access to the organization screens,
// Pending members included.
func managementMiddleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			mbr, err := getContextMember(ctx)
			if err != nil {
				return err
			}
			if !access.CanAccessManagement(mbr) {
				return errHttpForbidden
			}
			return next(ctx)
		}
	}
}
