package member

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/go-playground/validator/v10"
	"github.com/pmezard/go-difflib/difflib"

	"github.com/shepherd-app/shepherd/core"
)

var (
	roleTag  = "role"
	roleText = "invalid role"

	// password policy
	pwdMinLen      = 8
	pwdMinLenText  = fmt.Sprintf("password must contain at least %d characters", pwdMinLen)
	pwdNoSpaceText = "password must not contain whitespace"
	pwdAllNumText  = "password cannot be entirely numeric"
	pwdMaxSim      = .7
	pwdAttrSimText = "password cannot be similar to your name or email"
)

func init() {
	_ = core.Validate.RegisterValidation(roleTag, roleValidation)
	core.RegisterCustomTranslation(roleTag, roleText)
}

// roleValidation checks that the provided role is one of AllRoles.
func roleValidation(fl validator.FieldLevel) bool {
	return Role(fl.Field().String()).IsValid()
}

// validatePassword applies the password policy to provided password:
// - minLen: 8
// - no whitespace
// - not all numeric
// - not similar to the member's name or email
func validatePassword(pwd, name, email string) error {
	fail := func(text string) error {
		return core.NewValidationError(nil, core.FieldError{Field: "password", Error: text})
	}

	if len([]rune(pwd)) < pwdMinLen {
		return fail(pwdMinLenText)
	}
	var digitCount int
	for _, char := range pwd {
		if unicode.IsSpace(char) {
			return fail(pwdNoSpaceText)
		}
		if unicode.IsDigit(char) {
			digitCount++
		}
	}
	if digitCount == len([]rune(pwd)) {
		return fail(pwdAllNumText)
	}

	ratio := func(attr string) float64 {
		if attr == "" {
			return 0
		}
		a := strings.Split(strings.ToLower(pwd), "")
		b := strings.Split(strings.ToLower(attr), "")
		return difflib.NewMatcher(a, b).QuickRatio()
	}
	local := email
	if i := strings.Index(email, "@"); i > 0 {
		local = email[:i]
	}
	if ratio(name) >= pwdMaxSim || ratio(local) >= pwdMaxSim {
		return fail(pwdAttrSimText)
	}
	return nil
}
