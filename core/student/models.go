package student

import (
	"github.com/shepherd-app/shepherd/core"
)

type AttendanceStatus string

const (
	StatusPresent AttendanceStatus = "PRESENT"
	StatusAbsent  AttendanceStatus = "ABSENT"
	StatusLate    AttendanceStatus = "LATE"
	StatusExcused AttendanceStatus = "EXCUSED"
)

var AllStatuses = []AttendanceStatus{StatusPresent, StatusAbsent, StatusLate, StatusExcused}

func (s AttendanceStatus) IsValid() bool {
	switch s {
	case StatusPresent, StatusAbsent, StatusLate, StatusExcused:
		return true
	}
	return false
}

// Next returns the status following s in the roll-call cycle Absent → Present → Late → Absent.
// Excused and unknown statuses restart the cycle at Present.
func (s AttendanceStatus) Next() AttendanceStatus {
	switch s {
	case StatusPresent:
		return StatusLate
	case StatusLate:
		return StatusAbsent
	default:
		return StatusPresent
	}
}

// CountsPresent reports whether s counts as an attendance. Excused does not.
func (s AttendanceStatus) CountsPresent() bool {
	return s == StatusPresent || s == StatusLate
}

// Attendance maps ISO dates (core.DateLayout) to the recorded status. One status per date.
type Attendance map[string]AttendanceStatus

// StatusOn returns the status recorded on date, Absent when nothing was recorded.
func (a Attendance) StatusOn(date string) AttendanceStatus {
	if s, ok := a[date]; ok {
		return s
	}
	return StatusAbsent
}

type Student struct {
	ID            string     `json:"id"`
	Name          string     `json:"name"`
	ClassID       string     `json:"class_id"`
	DateOfBirth   string     `json:"date_of_birth"`
	GuardianPhone string     `json:"guardian_phone"`
	Address       string     `json:"address"`
	Notes         string     `json:"notes"`
	Attendance    Attendance `json:"attendance"`
}

// NewStudent contains information needed to enroll a Student in a class.
type NewStudent struct {
	Name          string `json:"name" validate:"required,notblank"`
	ClassID       string `json:"class_id"`
	DateOfBirth   string `json:"date_of_birth"`
	GuardianPhone string `json:"guardian_phone"`
	Address       string `json:"address"`
	Notes         string `json:"notes"`
}

func (ns *NewStudent) Clean() {
	ns.Name = core.CleanString(ns.Name)
	ns.ClassID = core.CleanString(ns.ClassID)
	ns.DateOfBirth = core.CleanString(ns.DateOfBirth)
	ns.GuardianPhone = core.CleanString(ns.GuardianPhone)
	ns.Address = core.CleanString(ns.Address)
	ns.Notes = core.CleanString(ns.Notes)
}

func (ns *NewStudent) Validate() error {
	ns.Clean()
	return core.Validate.Struct(ns)
}

// UpdateStudent defines what information may be provided to modify an existing Student.
// nil fields are left untouched.
type UpdateStudent struct {
	Name          *string `json:"name" validate:"omitempty,notblank"`
	ClassID       *string `json:"class_id" validate:"omitempty,notblank"`
	DateOfBirth   *string `json:"date_of_birth"`
	GuardianPhone *string `json:"guardian_phone"`
	Address       *string `json:"address"`
	Notes         *string `json:"notes"`
}

func (us *UpdateStudent) Validate() error {
	for _, fld := range []*string{us.Name, us.ClassID, us.DateOfBirth, us.GuardianPhone, us.Address, us.Notes} {
		if fld != nil {
			*fld = core.CleanString(*fld)
		}
	}
	return core.Validate.Struct(us)
}

func (us *UpdateStudent) Apply(s *Student) {
	if us.Name != nil {
		s.Name = *us.Name
	}
	if us.ClassID != nil {
		s.ClassID = *us.ClassID
	}
	if us.DateOfBirth != nil {
		s.DateOfBirth = *us.DateOfBirth
	}
	if us.GuardianPhone != nil {
		s.GuardianPhone = *us.GuardianPhone
	}
	if us.Address != nil {
		s.Address = *us.Address
	}
	if us.Notes != nil {
		s.Notes = *us.Notes
	}
}

// MarkAttendance records a status for a date.
type MarkAttendance struct {
	Date   string           `json:"date" validate:"omitempty,isodate"`
	Status AttendanceStatus `json:"status" validate:"required,attendance"`
}

// Validate defaults Date to today.
func (ma *MarkAttendance) Validate() error {
	ma.Date = core.CleanString(ma.Date)
	ma.Status = AttendanceStatus(core.CleanString(string(ma.Status)))
	if ma.Date == "" {
		ma.Date = core.Today()
	}
	return core.Validate.Struct(ma)
}

type Filter struct {
	// ClassIDs restricts the result to these classes. A nil slice matches every class,
	// an empty non-nil one matches none.
	ClassIDs []string
}

func (f Filter) Match(s Student) bool {
	if f.ClassIDs == nil {
		return true
	}
	for _, id := range f.ClassIDs {
		if s.ClassID == id {
			return true
		}
	}
	return false
}
