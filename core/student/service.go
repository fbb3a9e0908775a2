package student

import (
	"context"
	"sync"

	"github.com/pkg/errors"

	"github.com/shepherd-app/shepherd/core"
)

var (
	// errors
	ErrNotFound = errors.New("student not found")
)

type (
	Repository interface {
		CreateStudent(ctx context.Context, s Student) (Student, error)
		GetStudent(ctx context.Context, id string) (Student, error)
		FindStudents(ctx context.Context, filter Filter) ([]Student, error)
		// UpdateStudent replaces the stored Student with the same ID. ErrNotFound if there is none.
		UpdateStudent(ctx context.Context, s Student) (Student, error)
	}

	Service struct {
		repo Repository

		// serializes read-modify-write of students
		mutex sync.Mutex
	}
)

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Create enrolls a Student with an empty attendance record. ns must have been validated.
func (svc *Service) Create(ctx context.Context, ns NewStudent) (Student, error) {
	s, err := svc.repo.CreateStudent(ctx, Student{
		Name:          ns.Name,
		ClassID:       ns.ClassID,
		DateOfBirth:   ns.DateOfBirth,
		GuardianPhone: ns.GuardianPhone,
		Address:       ns.Address,
		Notes:         ns.Notes,
		Attendance:    Attendance{},
	})
	if err != nil {
		return Student{}, errors.Wrap(err, "creating student")
	}
	return s, nil
}

func (svc *Service) Get(ctx context.Context, id string) (Student, error) {
	return svc.repo.GetStudent(ctx, id)
}

func (svc *Service) Query(ctx context.Context, filter Filter) ([]Student, error) {
	if filter.ClassIDs != nil && len(filter.ClassIDs) == 0 {
		return []Student{}, nil
	}
	return svc.repo.FindStudents(ctx, filter)
}

// Update applies a validated UpdateStudent to the Student identified by id.
func (svc *Service) Update(ctx context.Context, id string, us UpdateStudent) (Student, error) {
	svc.mutex.Lock()
	defer svc.mutex.Unlock()

	s, err := svc.repo.GetStudent(ctx, id)
	if err != nil {
		return Student{}, err
	}
	us.Apply(&s)
	return svc.repo.UpdateStudent(ctx, s)
}

// MarkAttendance records status on date, replacing any previous status for that date.
func (svc *Service) MarkAttendance(ctx context.Context, id, date string, status AttendanceStatus) (Student, error) {
	if !status.IsValid() {
		return Student{}, core.NewValidationError(nil, core.FieldError{Field: "status", Error: attendanceText})
	}
	if err := checkDate(date); err != nil {
		return Student{}, err
	}
	return svc.recordAttendance(ctx, id, date, func(AttendanceStatus) AttendanceStatus { return status })
}

// ToggleAttendance advances the status recorded on date to the next one of the roll-call cycle.
func (svc *Service) ToggleAttendance(ctx context.Context, id, date string) (Student, error) {
	if err := checkDate(date); err != nil {
		return Student{}, err
	}
	return svc.recordAttendance(ctx, id, date, AttendanceStatus.Next)
}

// recordAttendance replaces the status on date with next(current) in a single read-modify-write.
func (svc *Service) recordAttendance(ctx context.Context, id, date string, next func(AttendanceStatus) AttendanceStatus) (Student, error) {
	svc.mutex.Lock()
	defer svc.mutex.Unlock()

	s, err := svc.repo.GetStudent(ctx, id)
	if err != nil {
		return Student{}, err
	}
	if s.Attendance == nil {
		s.Attendance = Attendance{}
	}
	s.Attendance[date] = next(s.Attendance.StatusOn(date))
	return svc.repo.UpdateStudent(ctx, s)
}

func checkDate(date string) error {
	if !core.IsDate(date) {
		return core.NewValidationError(nil, core.FieldError{Field: "date", Error: "must be a date formatted as YYYY-MM-DD"})
	}
	return nil
}

// Import enrolls every row into classID, one Student per row.
// Rows without a name are skipped. Creation stops at the first failure.
func (svc *Service) Import(ctx context.Context, classID string, rows []NewStudent) ([]Student, error) {
	created := make([]Student, 0, len(rows))
	for _, row := range rows {
		row.Clean()
		if row.Name == "" {
			continue
		}
		row.ClassID = classID
		s, err := svc.Create(ctx, row)
		if err != nil {
			return created, err
		}
		created = append(created, s)
	}
	return created, nil
}
