// Package access decides what an acting member may see and change within its organization.
package access

import (
	"github.com/shepherd-app/shepherd/core/member"
	"github.com/shepherd-app/shepherd/core/org"
	"github.com/shepherd-app/shepherd/core/student"
)

// CanAccessManagement reports whether actor may reach the organization screens at all.
// Pending members and members without organization may not.
func CanAccessManagement(actor member.Member) bool {
	return actor.HasOrganization() && actor.Role != member.RolePending && actor.Role.IsValid()
}

// VisibleMembers returns the members of actor's organization.
// Member visibility is not narrowed below the organization, unlike student visibility.
func VisibleMembers(actor member.Member, members []member.Member) []member.Member {
	visible := make([]member.Member, 0, len(members))
	if !CanAccessManagement(actor) {
		return visible
	}
	for _, m := range members {
		if m.OrganizationID == actor.OrganizationID {
			visible = append(visible, m)
		}
	}
	return visible
}

// VisibleClasses narrows classes, which must all belong to actor's organization, to actor's scope:
// every class for Admin and OrgLeader, the department's classes for a DeptLeader, the own class for a Teacher.
func VisibleClasses(actor member.Member, classes []org.ClassGroup) []org.ClassGroup {
	visible := make([]org.ClassGroup, 0, len(classes))
	if !CanAccessManagement(actor) {
		return visible
	}
	for _, c := range classes {
		switch actor.Role {
		case member.RoleAdmin, member.RoleOrgLeader:
		case member.RoleDeptLeader:
			if actor.DepartmentID == "" || c.DepartmentID != actor.DepartmentID {
				continue
			}
		case member.RoleTeacher:
			if actor.ClassID == "" || c.ID != actor.ClassID {
				continue
			}
		default:
			continue
		}
		visible = append(visible, c)
	}
	return visible
}

// VisibleStudents returns the students enrolled in one of the classes of orgClasses visible to actor.
func VisibleStudents(actor member.Member, students []student.Student, orgClasses []org.ClassGroup) []student.Student {
	classIDs := make(map[string]bool)
	for _, c := range VisibleClasses(actor, orgClasses) {
		classIDs[c.ID] = true
	}
	visible := make([]student.Student, 0, len(students))
	for _, s := range students {
		if classIDs[s.ClassID] {
			visible = append(visible, s)
		}
	}
	return visible
}

// CanEditMember reports whether actor may modify target. The first matching rule wins:
//  1. Admin and OrgLeader edit any member of the organization.
//  2. Anyone edits their own record.
//  3. A DeptLeader edits Teachers. The department boundary is not checked.
//  4. Nobody else.
func CanEditMember(actor, target member.Member) bool {
	if actor.Role.IsManager() && actor.HasOrganization() && target.OrganizationID == actor.OrganizationID {
		return true
	}
	if target.ID == actor.ID {
		return true
	}
	if actor.Role == member.RoleDeptLeader && CanAccessManagement(actor) &&
		target.OrganizationID == actor.OrganizationID && target.Role == member.RoleTeacher {
		return true
	}
	return false
}

// CanEditStudent reports whether actor's role allows editing students.
// Whether a given student is in scope is decided by VisibleStudents.
func CanEditStudent(actor member.Member) bool {
	if !CanAccessManagement(actor) {
		return false
	}
	switch actor.Role {
	case member.RoleAdmin, member.RoleOrgLeader, member.RoleDeptLeader, member.RoleTeacher:
		return true
	}
	return false
}

// CanAssignRole reports whether actor may change target's role. Nobody changes their own role.
func CanAssignRole(actor, target member.Member) bool {
	return actor.Role.IsManager() && CanAccessManagement(actor) &&
		target.ID != actor.ID && target.OrganizationID == actor.OrganizationID
}

// CanAssignDepartment reports whether actor may set the department of a member holding targetRole.
func CanAssignDepartment(actor member.Member, targetRole member.Role) bool {
	if !actor.Role.IsManager() || !CanAccessManagement(actor) {
		return false
	}
	return targetRole == member.RoleDeptLeader || targetRole == member.RoleTeacher
}

// CanAssignClass reports whether actor may set the class of a member holding targetRole.
func CanAssignClass(actor member.Member, targetRole member.Role) bool {
	if targetRole != member.RoleTeacher || !CanAccessManagement(actor) {
		return false
	}
	return actor.Role.IsManager() || actor.Role == member.RoleDeptLeader
}

// CanManageDepartments reports whether actor may create or modify departments.
func CanManageDepartments(actor member.Member) bool {
	return actor.Role.IsManager() && CanAccessManagement(actor)
}

// CanManageClasses reports whether actor may create classes in its own department.
func CanManageClasses(actor member.Member) bool {
	return actor.Role == member.RoleDeptLeader && actor.DepartmentID != "" && CanAccessManagement(actor)
}
