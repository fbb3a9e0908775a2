package student

import (
	"github.com/go-playground/validator/v10"

	"github.com/shepherd-app/shepherd/core"
)

var (
	attendanceTag  = "attendance"
	attendanceText = "must be one of PRESENT, ABSENT, LATE, EXCUSED"
)

func init() {
	_ = core.Validate.RegisterValidation(attendanceTag, attendanceValidation)
	core.RegisterCustomTranslation(attendanceTag, attendanceText)
}

func attendanceValidation(fl validator.FieldLevel) bool {
	return AttendanceStatus(fl.Field().String()).IsValid()
}
