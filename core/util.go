package core

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// DateLayout is the ISO date format used as attendance key.
const DateLayout = "2006-01-02"

var NowFunc = time.Now // mockable

// CleanString trims all leading and trailing whitespace in `s` and optionally lowers it.
func CleanString(s string, lower ...bool) string {
	s = strings.TrimSpace(s)
	if len(lower) > 0 && lower[0] {
		return strings.ToLower(s)
	}
	return s
}

// NewID returns a fresh opaque identifier.
func NewID() string {
	return uuid.NewString()
}

// Today returns the current date formatted with DateLayout.
func Today() string {
	return NowFunc().Format(DateLayout)
}

// IsDate reports whether s is a valid YYYY-MM-DD date.
func IsDate(s string) bool {
	_, err := time.Parse(DateLayout, s)
	return err == nil
}
