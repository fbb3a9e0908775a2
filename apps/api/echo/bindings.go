package echoapi

import (
	"github.com/labstack/echo/v4"

	"github.com/shepherd-app/shepherd/core"
	"github.com/shepherd-app/shepherd/core/member"
	"github.com/shepherd-app/shepherd/core/org"
	"github.com/shepherd-app/shepherd/core/stats"
	"github.com/shepherd-app/shepherd/core/student"
)

type (
	LoginRequest struct {
		Email    string `json:"email" validate:"required,email"`
		Password string `json:"password" validate:"required"`
	}

	PasswordResetRequest struct {
		Email string `json:"email" validate:"required,email"`
	}

	SessionResponse struct {
		Token  string        `json:"token"`
		Member member.Member `json:"member"`
	}

	TokenResponse struct {
		Token string `json:"token"`
	}

	MembershipResponse struct {
		Organization org.Organization `json:"organization"`
		Member       member.Member    `json:"member"`
	}

	ToggleAttendanceRequest struct {
		Date string `json:"date" validate:"omitempty,isodate"`
	}

	ImportResponse struct {
		Created  int               `json:"created"`
		Students []student.Student `json:"students"`
	}

	InsightResponse struct {
		Insight string        `json:"insight"`
		Points  []stats.Point `json:"points"`
	}
)

func (lr *LoginRequest) Validate() error {
	lr.Email = core.CleanString(lr.Email, true /* lower */)
	return core.Validate.Struct(lr)
}

func (pr *PasswordResetRequest) Validate() error {
	pr.Email = core.CleanString(pr.Email, true /* lower */)
	return core.Validate.Struct(pr)
}

// Validate defaults Date to today.
func (tr *ToggleAttendanceRequest) Validate() error {
	tr.Date = core.CleanString(tr.Date)
	if tr.Date == "" {
		tr.Date = core.Today()
	}
	return core.Validate.Struct(tr)
}

// publicMembers strips the credentials of mbrs.
func publicMembers(mbrs []member.Member) []member.Member {
	public := make([]member.Member, 0, len(mbrs))
	for _, m := range mbrs {
		public = append(public, m.Public())
	}
	return public
}

// classFilter narrows students to the `class_id` query param, when given.
func classFilter(ctx echo.Context, students []student.Student) []student.Student {
	classID := core.CleanString(ctx.QueryParam("class_id"))
	if classID == "" {
		return students
	}
	filtered := make([]student.Student, 0, len(students))
	for _, s := range students {
		if s.ClassID == classID {
			filtered = append(filtered, s)
		}
	}
	return filtered
}
