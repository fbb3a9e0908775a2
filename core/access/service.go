package access

import (
	"context"

	"github.com/pkg/errors"

	"github.com/shepherd-app/shepherd/core"
	"github.com/shepherd-app/shepherd/core/member"
	"github.com/shepherd-app/shepherd/core/org"
	"github.com/shepherd-app/shepherd/core/stats"
	"github.com/shepherd-app/shepherd/core/student"
)

var ErrForbidden = errors.New("you do not have permission to perform this action")

// Service runs member, organization and student operations on behalf of an acting member,
// enforcing the visibility and edit rules of this package.
// Records out of the actor's read scope are reported as not found.
type Service struct {
	members  *member.Service
	orgs     *org.Service
	students *student.Service
}

func NewService(members *member.Service, orgs *org.Service, students *student.Service) *Service {
	return &Service{members: members, orgs: orgs, students: students}
}

func (svc *Service) guard(actor member.Member) error {
	if !CanAccessManagement(actor) {
		return ErrForbidden
	}
	return nil
}

// Members returns the members visible to actor.
func (svc *Service) Members(ctx context.Context, actor member.Member) ([]member.Member, error) {
	if err := svc.guard(actor); err != nil {
		return nil, err
	}
	mbrs, err := svc.members.Query(ctx, member.Filter{OrganizationID: actor.OrganizationID})
	if err != nil {
		return nil, errors.Wrap(err, "querying members")
	}
	return VisibleMembers(actor, mbrs), nil
}

// Member returns the member identified by id. Actors may always read their own record.
func (svc *Service) Member(ctx context.Context, actor member.Member, id string) (member.Member, error) {
	if id == actor.ID {
		return svc.members.GetByID(ctx, id)
	}
	if err := svc.guard(actor); err != nil {
		return member.Member{}, err
	}
	m, err := svc.members.GetByID(ctx, id)
	if err != nil {
		return member.Member{}, err
	}
	if len(VisibleMembers(actor, []member.Member{m})) == 0 {
		return member.Member{}, member.ErrNotFound
	}
	return m, nil
}

// UpdateMember applies um to the member identified by id when actor may edit it.
// Role, department and class changes are each checked against the assignment rules.
func (svc *Service) UpdateMember(ctx context.Context, actor member.Member, id string, um member.UpdateMember) (member.Member, error) {
	target, err := svc.Member(ctx, actor, id)
	if err != nil {
		return member.Member{}, err
	}
	if !CanEditMember(actor, target) {
		return member.Member{}, ErrForbidden
	}
	// passwords are only changed by their owner or through a reset link
	if um.Password != "" && target.ID != actor.ID {
		return member.Member{}, ErrForbidden
	}
	if err := um.Validate(target, svc.members); err != nil {
		return member.Member{}, err
	}

	role := target.Role
	if um.Role != nil && *um.Role != target.Role {
		if !CanAssignRole(actor, target) {
			return member.Member{}, ErrForbidden
		}
		role = *um.Role
	}
	if um.DepartmentID != nil && *um.DepartmentID != target.DepartmentID {
		if !CanAssignDepartment(actor, role) {
			return member.Member{}, ErrForbidden
		}
		if err := svc.checkDepartment(ctx, actor, *um.DepartmentID); err != nil {
			return member.Member{}, err
		}
	}
	if um.ClassID != nil && *um.ClassID != target.ClassID {
		if !CanAssignClass(actor, role) {
			return member.Member{}, ErrForbidden
		}
		if err := svc.checkClass(ctx, actor, *um.ClassID); err != nil {
			return member.Member{}, err
		}
	}
	return svc.members.Update(ctx, target.ID, um)
}

// checkDepartment verifies that deptID, when set, is a department of actor's organization.
func (svc *Service) checkDepartment(ctx context.Context, actor member.Member, deptID string) error {
	if deptID == "" {
		return nil
	}
	d, err := svc.orgs.GetDepartment(ctx, deptID)
	if err != nil || d.OrganizationID != actor.OrganizationID {
		return core.NewValidationError(org.ErrDepartmentNotFound,
			core.FieldError{Field: "department_id", Error: org.ErrDepartmentNotFound.Error()})
	}
	return nil
}

// checkClass verifies that classID, when set, is a class visible to actor.
func (svc *Service) checkClass(ctx context.Context, actor member.Member, classID string) error {
	if classID == "" {
		return nil
	}
	if _, err := svc.Class(ctx, actor, classID); err != nil {
		return core.NewValidationError(org.ErrClassNotFound,
			core.FieldError{Field: "class_id", Error: org.ErrClassNotFound.Error()})
	}
	return nil
}

// Organization returns actor's organization. Pending members of an organization may read it.
func (svc *Service) Organization(ctx context.Context, actor member.Member) (org.Organization, error) {
	if !actor.HasOrganization() {
		return org.Organization{}, org.ErrNotFound
	}
	return svc.orgs.Get(ctx, actor.OrganizationID)
}

func (svc *Service) Departments(ctx context.Context, actor member.Member) ([]org.Department, error) {
	if err := svc.guard(actor); err != nil {
		return nil, err
	}
	return svc.orgs.Departments(ctx, actor.OrganizationID)
}

// CreateDepartment adds a department to actor's organization. nd must have been validated.
func (svc *Service) CreateDepartment(ctx context.Context, actor member.Member, nd org.NewDepartment) (org.Department, error) {
	if !CanManageDepartments(actor) {
		return org.Department{}, ErrForbidden
	}
	if nd.LeaderID != "" {
		if _, err := svc.Member(ctx, actor, nd.LeaderID); err != nil {
			return org.Department{}, core.NewValidationError(member.ErrNotFound,
				core.FieldError{Field: "leader_id", Error: member.ErrNotFound.Error()})
		}
	}
	return svc.orgs.CreateDepartment(ctx, actor.OrganizationID, nd)
}

// Classes returns the classes visible to actor.
func (svc *Service) Classes(ctx context.Context, actor member.Member) ([]org.ClassGroup, error) {
	if err := svc.guard(actor); err != nil {
		return nil, err
	}
	classes, err := svc.orgs.ClassesInOrganization(ctx, actor.OrganizationID)
	if err != nil {
		return nil, err
	}
	return VisibleClasses(actor, classes), nil
}

func (svc *Service) Class(ctx context.Context, actor member.Member, id string) (org.ClassGroup, error) {
	classes, err := svc.Classes(ctx, actor)
	if err != nil {
		return org.ClassGroup{}, err
	}
	for _, c := range classes {
		if c.ID == id {
			return c, nil
		}
	}
	return org.ClassGroup{}, org.ErrClassNotFound
}

// CreateClass adds a class to the department led by actor. nc must have been validated.
func (svc *Service) CreateClass(ctx context.Context, actor member.Member, nc org.NewClass) (org.ClassGroup, error) {
	if !CanManageClasses(actor) {
		return org.ClassGroup{}, ErrForbidden
	}
	if nc.DepartmentID != "" && nc.DepartmentID != actor.DepartmentID {
		return org.ClassGroup{}, ErrForbidden
	}
	if nc.TeacherID != "" {
		if _, err := svc.Member(ctx, actor, nc.TeacherID); err != nil {
			return org.ClassGroup{}, core.NewValidationError(member.ErrNotFound,
				core.FieldError{Field: "teacher_id", Error: member.ErrNotFound.Error()})
		}
	}
	return svc.orgs.CreateClass(ctx, actor.DepartmentID, nc)
}

// Students returns the students visible to actor.
func (svc *Service) Students(ctx context.Context, actor member.Member) ([]student.Student, error) {
	classes, err := svc.Classes(ctx, actor)
	if err != nil {
		return nil, err
	}
	return svc.students.Query(ctx, student.Filter{ClassIDs: org.ClassIDs(classes)})
}

func (svc *Service) Student(ctx context.Context, actor member.Member, id string) (student.Student, error) {
	s, err := svc.students.Get(ctx, id)
	if err != nil {
		return student.Student{}, err
	}
	if _, err := svc.Class(ctx, actor, s.ClassID); err != nil {
		if errors.Cause(err) == ErrForbidden {
			return student.Student{}, err
		}
		return student.Student{}, student.ErrNotFound
	}
	return s, nil
}

// resolveClass returns the class new students of actor go to: classID when visible,
// or the Teacher's own class when classID is empty.
func (svc *Service) resolveClass(ctx context.Context, actor member.Member, classID string) (string, error) {
	if !CanEditStudent(actor) {
		return "", ErrForbidden
	}
	if classID == "" && actor.Role == member.RoleTeacher {
		classID = actor.ClassID
	}
	if classID == "" {
		return "", core.NewValidationError(nil, core.FieldError{Field: "class_id", Error: "this field is required"})
	}
	if err := svc.checkClass(ctx, actor, classID); err != nil {
		return "", err
	}
	return classID, nil
}

// CreateStudent enrolls a student in a class visible to actor. ns must have been validated.
func (svc *Service) CreateStudent(ctx context.Context, actor member.Member, ns student.NewStudent) (student.Student, error) {
	classID, err := svc.resolveClass(ctx, actor, ns.ClassID)
	if err != nil {
		return student.Student{}, err
	}
	ns.ClassID = classID
	return svc.students.Create(ctx, ns)
}

// ImportStudents enrolls rows in a class visible to actor.
func (svc *Service) ImportStudents(ctx context.Context, actor member.Member, classID string, rows []student.NewStudent) ([]student.Student, error) {
	classID, err := svc.resolveClass(ctx, actor, classID)
	if err != nil {
		return nil, err
	}
	return svc.students.Import(ctx, classID, rows)
}

// UpdateStudent applies a validated us to a visible student. Moving a student requires the
// destination class to be visible too.
func (svc *Service) UpdateStudent(ctx context.Context, actor member.Member, id string, us student.UpdateStudent) (student.Student, error) {
	s, err := svc.Student(ctx, actor, id)
	if err != nil {
		return student.Student{}, err
	}
	if !CanEditStudent(actor) {
		return student.Student{}, ErrForbidden
	}
	if us.ClassID != nil && *us.ClassID != s.ClassID {
		if err := svc.checkClass(ctx, actor, *us.ClassID); err != nil {
			return student.Student{}, err
		}
	}
	return svc.students.Update(ctx, s.ID, us)
}

func (svc *Service) MarkAttendance(ctx context.Context, actor member.Member, id string, ma student.MarkAttendance) (student.Student, error) {
	s, err := svc.Student(ctx, actor, id)
	if err != nil {
		return student.Student{}, err
	}
	if !CanEditStudent(actor) {
		return student.Student{}, ErrForbidden
	}
	return svc.students.MarkAttendance(ctx, s.ID, ma.Date, ma.Status)
}

func (svc *Service) ToggleAttendance(ctx context.Context, actor member.Member, id, date string) (student.Student, error) {
	s, err := svc.Student(ctx, actor, id)
	if err != nil {
		return student.Student{}, err
	}
	if !CanEditStudent(actor) {
		return student.Student{}, ErrForbidden
	}
	return svc.students.ToggleAttendance(ctx, s.ID, date)
}

// AttendanceSeries aggregates the attendance of the students visible to actor.
func (svc *Service) AttendanceSeries(ctx context.Context, actor member.Member) ([]stats.Point, error) {
	students, err := svc.Students(ctx, actor)
	if err != nil {
		return nil, err
	}
	return stats.Series(students), nil
}
