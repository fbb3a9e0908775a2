package kvdb

import (
	"time"

	"github.com/shepherd-app/shepherd/core/member"
	"github.com/shepherd-app/shepherd/core/org"
	"github.com/shepherd-app/shepherd/core/student"
)

// Seed dataset ids
const (
	SeedOrganizationID   = "org_grace"
	SeedOrganizationCode = "GRACE2024"
	SeedAdminID          = "mbr_admin"
	SeedOrgLeaderID      = "mbr_leader"
	SeedDeptLeaderID     = "mbr_dept"
	SeedTeacherID        = "mbr_teacher"
	SeedYouthDeptID      = "dept_01"
	SeedChildDeptID      = "dept_02"
	SeedClassOneID       = "class_01"
	SeedClassTwoID       = "class_02"
)

var seedTime = time.Date(2023, 10, 1, 0, 0, 0, 0, time.UTC)

// seedMembers has one member per non-pending role, all sharing passwordHash.
func seedMembers(passwordHash []byte) []member.Member {
	mbr := func(id, name, email string, role member.Role, deptID, classID string) member.Member {
		return member.Member{
			ID:             id,
			Name:           name,
			Email:          email,
			PasswordHash:   passwordHash,
			Role:           role,
			OrganizationID: SeedOrganizationID,
			DepartmentID:   deptID,
			ClassID:        classID,
			CreatedAt:      seedTime,
			UpdatedAt:      seedTime,
		}
	}
	return []member.Member{
		mbr(SeedAdminID, "Pastor Kim", "admin@church.com", member.RoleAdmin, "", ""),
		mbr(SeedOrgLeaderID, "Elder Park", "sarah@church.com", member.RoleOrgLeader, "", ""),
		mbr(SeedDeptLeaderID, "Director Lee", "mike@church.com", member.RoleDeptLeader, SeedYouthDeptID, ""),
		mbr(SeedTeacherID, "Teacher Choi", "jane@church.com", member.RoleTeacher, SeedYouthDeptID, SeedClassOneID),
	}
}

func seedOrganizations() []org.Organization {
	return []org.Organization{
		{ID: SeedOrganizationID, Name: "Grace Community Church", Code: SeedOrganizationCode, AdminID: SeedAdminID},
	}
}

func seedDepartments() []org.Department {
	return []org.Department{
		{ID: SeedYouthDeptID, OrganizationID: SeedOrganizationID, Name: "Youth", LeaderID: SeedDeptLeaderID},
		{ID: SeedChildDeptID, OrganizationID: SeedOrganizationID, Name: "Children"},
	}
}

func seedClasses() []org.ClassGroup {
	return []org.ClassGroup{
		{ID: SeedClassOneID, DepartmentID: SeedYouthDeptID, Name: "High School 1", TeacherID: SeedTeacherID},
		{ID: SeedClassTwoID, DepartmentID: SeedYouthDeptID, Name: "High School 2"},
	}
}

func seedStudents() []student.Student {
	return []student.Student{
		{
			ID: "stu_01", ClassID: SeedClassOneID, Name: "Chulsoo Kim", DateOfBirth: "2008-05-12",
			GuardianPhone: "010-1234-5678", Address: "Gangnam-gu, Seoul", Notes: "Plays the guitar",
			Attendance: student.Attendance{"2023-10-27": student.StatusPresent, "2023-11-03": student.StatusAbsent},
		},
		{
			ID: "stu_02", ClassID: SeedClassOneID, Name: "Younghee Lee", DateOfBirth: "2009-02-14",
			GuardianPhone: "010-9876-5432", Address: "Seocho-gu, Seoul",
			Attendance: student.Attendance{"2023-10-27": student.StatusPresent, "2023-11-03": student.StatusPresent},
		},
	}
}
