package org

import (
	"github.com/shepherd-app/shepherd/core"
)

// Organization is a church. Members join it with its Code.
type Organization struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Code    string `json:"code"`
	AdminID string `json:"admin_id"`
}

type Department struct {
	ID             string `json:"id"`
	OrganizationID string `json:"organization_id"`
	Name           string `json:"name"`
	LeaderID       string `json:"leader_id"`
}

type ClassGroup struct {
	ID           string `json:"id"`
	DepartmentID string `json:"department_id"`
	Name         string `json:"name"`
	TeacherID    string `json:"teacher_id"`
}

// NewOrganization contains information needed to found an Organization.
type NewOrganization struct {
	Name string `json:"name" validate:"required,notblank"`
}

func (no *NewOrganization) Validate() error {
	no.Name = core.CleanString(no.Name)
	return core.Validate.Struct(no)
}

type JoinOrganization struct {
	Code string `json:"code" validate:"required,notblank"`
}

func (jo *JoinOrganization) Validate() error {
	jo.Code = core.CleanString(jo.Code)
	return core.Validate.Struct(jo)
}

type NewDepartment struct {
	Name     string `json:"name" validate:"required,notblank"`
	LeaderID string `json:"leader_id"`
}

func (nd *NewDepartment) Validate() error {
	nd.Name = core.CleanString(nd.Name)
	return core.Validate.Struct(nd)
}

type NewClass struct {
	Name         string `json:"name" validate:"required,notblank"`
	DepartmentID string `json:"department_id"`
	TeacherID    string `json:"teacher_id"`
}

func (nc *NewClass) Validate() error {
	nc.Name = core.CleanString(nc.Name)
	return core.Validate.Struct(nc)
}

// DepartmentIDs returns the IDs of depts.
func DepartmentIDs(depts []Department) []string {
	ids := make([]string, 0, len(depts))
	for _, d := range depts {
		ids = append(ids, d.ID)
	}
	return ids
}

// ClassIDs returns the IDs of classes.
func ClassIDs(classes []ClassGroup) []string {
	ids := make([]string, 0, len(classes))
	for _, c := range classes {
		ids = append(ids, c.ID)
	}
	return ids
}
