package member

import (
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/shepherd-app/shepherd/core"
)

type Role string

// Roles
const (
	RoleAdmin      Role = "admin"       // founder of the organization
	RoleOrgLeader  Role = "org_leader"  // organization-wide leader
	RoleDeptLeader Role = "dept_leader" // leads one department
	RoleTeacher    Role = "teacher"     // teaches one class
	RolePending    Role = "pending"     // awaiting approval, no scoped access
)

var (
	AllRoles = []Role{RoleAdmin, RoleOrgLeader, RoleDeptLeader, RoleTeacher, RolePending}

	rolePriorities = map[Role]int{
		RoleAdmin:      40,
		RoleOrgLeader:  30,
		RoleDeptLeader: 20,
		RoleTeacher:    10,
		RolePending:    0,
	}

	Roles = []RoleInfo{
		{Name: "Pending approval", Value: RolePending},
		{Name: "Teacher", Value: RoleTeacher},
		{Name: "Department leader", Value: RoleDeptLeader},
		{Name: "Organization leader", Value: RoleOrgLeader},
		{Name: "Admin", Value: RoleAdmin},
	}
)

func (r Role) Priority() int {
	return rolePriorities[r]
}

func (r Role) IsValid() bool {
	_, ok := rolePriorities[r]
	return ok
}

// IsManager reports whether r is one of the organization-wide roles.
func (r Role) IsManager() bool {
	return r == RoleAdmin || r == RoleOrgLeader
}

func (r Role) Label() string {
	for _, info := range Roles {
		if info.Value == r {
			return info.Name
		}
	}
	return string(r)
}

type RoleInfo struct {
	Name  string `json:"name"`
	Value Role   `json:"value"`
}

type Member struct {
	ID             string    `json:"id"`
	Name           string    `json:"name"`
	Email          string    `json:"email"`
	PasswordHash   []byte    `json:"password_hash,omitempty"`
	Role           Role      `json:"role"`
	OrganizationID string    `json:"organization_id,omitempty"`
	DepartmentID   string    `json:"department_id,omitempty"`
	ClassID        string    `json:"class_id,omitempty"`
	PhoneNumber    string    `json:"phone_number,omitempty"`
	ProfileImage   string    `json:"profile_image,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

func (m *Member) SetPassword(pwd string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(pwd), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	m.PasswordHash = hash
	return nil
}

func (m *Member) CheckPassword(pwd string) error {
	return bcrypt.CompareHashAndPassword(m.PasswordHash, []byte(pwd))
}

// HasOrganization reports whether the member belongs to an organization.
func (m *Member) HasOrganization() bool {
	return m.OrganizationID != ""
}

// Public strips the credential before the member leaves the service boundary.
func (m Member) Public() Member {
	m.PasswordHash = nil
	return m
}

// NewMember contains information needed to register a new Member.
type NewMember struct {
	Name            string `json:"name" validate:"required,notblank"`
	Email           string `json:"email" validate:"required,email"`
	Password        string `json:"password" validate:"required"`
	PasswordConfirm string `json:"password_confirm" validate:"omitempty,eqfield=Password"`
}

func (nm *NewMember) Validate(svc *Service) error {
	nm.Name = core.CleanString(nm.Name)
	nm.Email = core.CleanString(nm.Email, true /* lower */)

	if err := core.Validate.Struct(nm); err != nil {
		return err
	}
	if err := validatePassword(nm.Password, nm.Name, nm.Email); err != nil {
		return err
	}
	return svc.checkUniqueness(nm.Email)
}

// UpdateMember defines what information may be provided to modify an existing Member.
// nil fields are left untouched.
type UpdateMember struct {
	Name            *string `json:"name" validate:"omitempty,notblank"`
	Email           *string `json:"email" validate:"omitempty,email"`
	PhoneNumber     *string `json:"phone_number"`
	ProfileImage    *string `json:"profile_image" validate:"omitempty,url"`
	Role            *Role   `json:"role" validate:"omitempty,role"`
	DepartmentID    *string `json:"department_id"`
	ClassID         *string `json:"class_id"`
	Password        string  `json:"password"`
	PasswordConfirm string  `json:"password_confirm" validate:"required_with=Password,eqfield=Password"`
}

func (um *UpdateMember) Validate(orig Member, svc *Service) error {
	if um.Name != nil {
		name := core.CleanString(*um.Name)
		um.Name = &name
	}
	if um.Email != nil {
		email := core.CleanString(*um.Email, true /* lower */)
		um.Email = &email
	}
	if err := core.Validate.Struct(um); err != nil {
		return err
	}
	if um.Password != "" {
		name, email := orig.Name, orig.Email
		if um.Name != nil {
			name = *um.Name
		}
		if um.Email != nil {
			email = *um.Email
		}
		if err := validatePassword(um.Password, name, email); err != nil {
			return err
		}
	}
	if um.Email != nil && *um.Email != orig.Email {
		return svc.checkUniqueness(*um.Email, orig)
	}
	return nil
}

// IsEmpty reports whether no field is set.
func (um *UpdateMember) IsEmpty() bool {
	return um.Name == nil && um.Email == nil && um.PhoneNumber == nil && um.ProfileImage == nil &&
		um.Role == nil && um.DepartmentID == nil && um.ClassID == nil && um.Password == ""
}

// Apply copies the set fields onto m. The password is handled by the Service.
func (um *UpdateMember) Apply(m *Member) {
	if um.Name != nil {
		m.Name = *um.Name
	}
	if um.Email != nil {
		m.Email = *um.Email
	}
	if um.PhoneNumber != nil {
		m.PhoneNumber = core.CleanString(*um.PhoneNumber)
	}
	if um.ProfileImage != nil {
		m.ProfileImage = core.CleanString(*um.ProfileImage)
	}
	if um.Role != nil {
		m.Role = *um.Role
	}
	if um.DepartmentID != nil {
		m.DepartmentID = *um.DepartmentID
	}
	if um.ClassID != nil {
		m.ClassID = *um.ClassID
	}
}

// ResetPassword contains the information of a password reset link plus the new password.
type ResetPassword struct {
	UID             string `json:"uid" validate:"required"`
	Token           string `json:"token" validate:"required"`
	Password        string `json:"password" validate:"required"`
	PasswordConfirm string `json:"password_confirm" validate:"required,eqfield=Password"`
}

func (rp *ResetPassword) Validate() error {
	rp.UID = core.CleanString(rp.UID)
	rp.Token = core.CleanString(rp.Token)
	return core.Validate.Struct(rp)
}

type Filter struct {
	OrganizationID string
	DepartmentID   string
	Roles          []Role
}

// Match reports whether m satisfies every set field of the filter.
func (f Filter) Match(m Member) bool {
	if f.OrganizationID != "" && m.OrganizationID != f.OrganizationID {
		return false
	}
	if f.DepartmentID != "" && m.DepartmentID != f.DepartmentID {
		return false
	}
	if len(f.Roles) > 0 {
		for _, r := range f.Roles {
			if m.Role == r {
				return true
			}
		}
		return false
	}
	return true
}
