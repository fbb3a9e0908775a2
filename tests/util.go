package testutil

import (
	"bytes"
	"context"
	"log"
	"testing"

	"github.com/shepherd-app/shepherd/core"
	"github.com/shepherd-app/shepherd/core/access"
	"github.com/shepherd-app/shepherd/core/member"
	"github.com/shepherd-app/shepherd/core/org"
	"github.com/shepherd-app/shepherd/core/student"
	"github.com/shepherd-app/shepherd/services/email"
	"github.com/shepherd-app/shepherd/services/logger"
	"github.com/shepherd-app/shepherd/storage/database/kvdb"
	"github.com/shepherd-app/shepherd/storage/kv"
)

// Env wires the services over an empty in-memory store.
type Env struct {
	DB       *kvdb.DB
	Logger   core.Logger
	Mail     *emailsvc.ConsoleServiceMock
	MbrRepo  member.Repository
	OrgRepo  org.Repository
	StuRepo  student.Repository
	Members  *member.Service
	Orgs     *org.Service
	Students *student.Service
	Access   *access.Service
}

func NewEnv(t *testing.T) *Env {
	t.Helper()

	db := kvdb.Open(kv.NewMemory(), kvdb.Options{})
	t.Cleanup(func() { _ = db.Close() })

	logger := logsvc.NewConsoleLogger(log.New(&bytes.Buffer{}, "", 0), false)
	mail := emailsvc.NewConsoleServiceMock(logger)

	env := &Env{
		DB:      db,
		Logger:  logger,
		Mail:    mail,
		MbrRepo: kvdb.NewMemberRepository(db),
		OrgRepo: kvdb.NewOrgRepository(db),
		StuRepo: kvdb.NewStudentRepository(db),
	}
	env.Members = member.NewService(env.MbrRepo, mail)
	env.Orgs = org.NewService(env.OrgRepo, env.Members, mail)
	env.Students = student.NewService(env.StuRepo)
	env.Access = access.NewService(env.Members, env.Orgs, env.Students)
	return env
}

func CreateMember(t *testing.T, repo member.Repository, name, email, pwd string, role member.Role, orgID, deptID, classID string) member.Member {
	t.Helper()

	now := core.NowFunc().UTC()
	mbr := member.Member{
		Name:           name,
		Email:          email,
		Role:           role,
		OrganizationID: orgID,
		DepartmentID:   deptID,
		ClassID:        classID,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if pwd != "" {
		if err := mbr.SetPassword(pwd); err != nil {
			t.Fatalf("CreateMember() failed: %v", err)
		}
	}
	mbr, err := repo.CreateMember(context.Background(), mbr)
	if err != nil {
		t.Fatalf("CreateMember() failed: %v", err)
	}
	return mbr
}

func CreateOrganization(t *testing.T, repo org.Repository, name, code, adminID string) org.Organization {
	t.Helper()

	o, err := repo.CreateOrganization(context.Background(), org.Organization{Name: name, Code: code, AdminID: adminID})
	if err != nil {
		t.Fatalf("CreateOrganization() failed: %v", err)
	}
	return o
}

func CreateDepartment(t *testing.T, repo org.Repository, orgID, name, leaderID string) org.Department {
	t.Helper()

	d, err := repo.CreateDepartment(context.Background(), org.Department{OrganizationID: orgID, Name: name, LeaderID: leaderID})
	if err != nil {
		t.Fatalf("CreateDepartment() failed: %v", err)
	}
	return d
}

func CreateClass(t *testing.T, repo org.Repository, deptID, name, teacherID string) org.ClassGroup {
	t.Helper()

	c, err := repo.CreateClass(context.Background(), org.ClassGroup{DepartmentID: deptID, Name: name, TeacherID: teacherID})
	if err != nil {
		t.Fatalf("CreateClass() failed: %v", err)
	}
	return c
}

func CreateStudent(t *testing.T, repo student.Repository, classID, name string, attendance student.Attendance) student.Student {
	t.Helper()

	if attendance == nil {
		attendance = student.Attendance{}
	}
	s, err := repo.CreateStudent(context.Background(), student.Student{ClassID: classID, Name: name, Attendance: attendance})
	if err != nil {
		t.Fatalf("CreateStudent() failed: %v", err)
	}
	return s
}

// Church is a small organization with one member per role.
type Church struct {
	Org             org.Organization
	Youth, Children org.Department

	// A and B belong to Youth, C to Children.
	ClassA, ClassB, ClassC org.ClassGroup

	// DeptLeader leads Youth, Teacher teaches A and OtherTeacher teaches C.
	Admin, Leader, DeptLeader, Teacher member.Member
	OtherTeacher, Pending              member.Member

	StudentA, StudentB, StudentC student.Student
}

// CreateChurch builds a Church. Every member has the password "s3cure-pa55".
func CreateChurch(t *testing.T, env *Env, code string) Church {
	t.Helper()

	pwd := "s3cure-pa55"
	var c Church
	c.Admin = CreateMember(t, env.MbrRepo, "Admin", "admin-"+code+"@church.com", pwd, member.RoleAdmin, "", "", "")
	c.Org = CreateOrganization(t, env.OrgRepo, "Church "+code, code, c.Admin.ID)
	c.Admin.OrganizationID = c.Org.ID
	c.Admin, _ = env.MbrRepo.UpdateMember(context.Background(), c.Admin)

	c.Youth = CreateDepartment(t, env.OrgRepo, c.Org.ID, "Youth", "")
	c.Children = CreateDepartment(t, env.OrgRepo, c.Org.ID, "Children", "")

	c.Leader = CreateMember(t, env.MbrRepo, "Leader", "leader-"+code+"@church.com", pwd, member.RoleOrgLeader, c.Org.ID, "", "")
	c.DeptLeader = CreateMember(t, env.MbrRepo, "Dept", "dept-"+code+"@church.com", pwd, member.RoleDeptLeader, c.Org.ID, c.Youth.ID, "")

	c.ClassA = CreateClass(t, env.OrgRepo, c.Youth.ID, "A", "")
	c.ClassB = CreateClass(t, env.OrgRepo, c.Youth.ID, "B", "")
	c.ClassC = CreateClass(t, env.OrgRepo, c.Children.ID, "C", "")

	c.Teacher = CreateMember(t, env.MbrRepo, "Teacher", "teacher-"+code+"@church.com", pwd, member.RoleTeacher, c.Org.ID, c.Youth.ID, c.ClassA.ID)
	c.OtherTeacher = CreateMember(t, env.MbrRepo, "Other", "other-"+code+"@church.com", pwd, member.RoleTeacher, c.Org.ID, c.Children.ID, c.ClassC.ID)
	c.Pending = CreateMember(t, env.MbrRepo, "Pending", "pending-"+code+"@church.com", pwd, member.RolePending, c.Org.ID, "", "")

	c.StudentA = CreateStudent(t, env.StuRepo, c.ClassA.ID, "Student A", student.Attendance{"2024-05-05": student.StatusPresent})
	c.StudentB = CreateStudent(t, env.StuRepo, c.ClassB.ID, "Student B", student.Attendance{"2024-05-05": student.StatusAbsent})
	c.StudentC = CreateStudent(t, env.StuRepo, c.ClassC.ID, "Student C", student.Attendance{"2024-05-05": student.StatusLate})
	return c
}
