package org

import (
	"context"

	"github.com/pkg/errors"

	"github.com/shepherd-app/shepherd/core"
	"github.com/shepherd-app/shepherd/core/member"
)

var (
	// errors
	ErrNotFound           = errors.New("organization not found")
	ErrCodeNotFound       = errors.New("no organization matches this code")
	ErrCodeExists         = errors.New("an organization with this code already exists")
	ErrDepartmentNotFound = errors.New("department not found")
	ErrClassNotFound      = errors.New("class not found")
	ErrAlreadyMember      = errors.New("member already belongs to an organization")
)

// maxCodeAttempts bounds the regeneration of colliding join codes.
const maxCodeAttempts = 20

type (
	Repository interface {
		CreateOrganization(ctx context.Context, o Organization) (Organization, error)
		GetOrganization(ctx context.Context, id string) (Organization, error)
		// GetOrganizationByCode does an exact match on Organization.Code.
		GetOrganizationByCode(ctx context.Context, code string) (Organization, error)
		QueryOrganizations(ctx context.Context) ([]Organization, error)

		CreateDepartment(ctx context.Context, d Department) (Department, error)
		GetDepartment(ctx context.Context, id string) (Department, error)
		FindDepartments(ctx context.Context, orgID string) ([]Department, error)
		UpdateDepartment(ctx context.Context, d Department) (Department, error)

		CreateClass(ctx context.Context, c ClassGroup) (ClassGroup, error)
		GetClass(ctx context.Context, id string) (ClassGroup, error)
		// FindClasses returns the classes belonging to any of deptIDs.
		FindClasses(ctx context.Context, deptIDs ...string) ([]ClassGroup, error)
		UpdateClass(ctx context.Context, c ClassGroup) (ClassGroup, error)
	}

	Service struct {
		repo    Repository
		mbrSvc  *member.Service
		mailSvc core.EmailService
	}
)

func NewService(repo Repository, mbrSvc *member.Service, mailSvc core.EmailService) *Service {
	return &Service{repo: repo, mbrSvc: mbrSvc, mailSvc: mailSvc}
}

// Found creates an Organization administered by founder, who becomes its Admin.
func (svc *Service) Found(ctx context.Context, no NewOrganization, founder member.Member) (Organization, member.Member, error) {
	if founder.HasOrganization() {
		return Organization{}, member.Member{}, ErrAlreadyMember
	}

	code, err := svc.uniqueCode(ctx, no.Name)
	if err != nil {
		return Organization{}, member.Member{}, err
	}
	o, err := svc.repo.CreateOrganization(ctx, Organization{
		Name:    no.Name,
		Code:    code,
		AdminID: founder.ID,
	})
	if err != nil {
		return Organization{}, member.Member{}, errors.Wrap(err, "creating organization")
	}

	founder.OrganizationID = o.ID
	founder.Role = member.RoleAdmin
	founder, err = svc.mbrSvc.Save(ctx, founder)
	if err != nil {
		return Organization{}, member.Member{}, errors.Wrap(err, "promoting founder")
	}
	return o, founder, nil
}

func (svc *Service) uniqueCode(ctx context.Context, name string) (string, error) {
	for i := 0; i < maxCodeAttempts; i++ {
		code := MakeCode(name)
		_, err := svc.repo.GetOrganizationByCode(ctx, code)
		if errors.Cause(err) == ErrCodeNotFound {
			return code, nil
		}
		if err != nil {
			return "", errors.Wrap(err, "checking code uniqueness")
		}
	}
	return "", ErrCodeExists
}

// Join attaches mbr to the Organization matching code. Joining never elevates privilege:
// the member is Pending until promoted by an Admin or OrgLeader.
func (svc *Service) Join(ctx context.Context, code string, mbr member.Member) (Organization, member.Member, error) {
	o, err := svc.repo.GetOrganizationByCode(ctx, code)
	if err != nil {
		if errors.Cause(err) == ErrCodeNotFound {
			return Organization{}, member.Member{}, core.NewValidationError(err, core.FieldError{Field: "code", Error: err.Error()})
		}
		return Organization{}, member.Member{}, errors.Wrap(err, "finding organization by code")
	}

	mbr.OrganizationID = o.ID
	mbr.Role = member.RolePending
	mbr.DepartmentID = ""
	mbr.ClassID = ""
	mbr, err = svc.mbrSvc.Save(ctx, mbr)
	if err != nil {
		return Organization{}, member.Member{}, errors.Wrap(err, "joining organization")
	}

	if err := svc.notifyJoined(ctx, o, mbr); err != nil {
		return Organization{}, member.Member{}, err
	}
	return o, mbr, nil
}

// notifyJoined emails the organization's managers about a new pending member.
func (svc *Service) notifyJoined(ctx context.Context, o Organization, mbr member.Member) error {
	if svc.mailSvc == nil {
		return nil
	}
	managers, err := svc.mbrSvc.Query(ctx, member.Filter{
		OrganizationID: o.ID,
		Roles:          []member.Role{member.RoleAdmin, member.RoleOrgLeader},
	})
	if err != nil {
		return errors.Wrap(err, "querying organization managers")
	}

	msgs := make([]*core.EmailMessage, 0, len(managers))
	for _, mgr := range managers {
		msgs = append(msgs, &core.EmailMessage{
			To:           member.Addresses(mgr),
			Subject:      mbr.Name + " is waiting for approval",
			TemplateName: "member_joined",
			TemplateData: map[string]string{
				"RecipientName":    mgr.Name,
				"MemberName":       mbr.Name,
				"MemberEmail":      mbr.Email,
				"OrganizationName": o.Name,
			},
		})
	}
	svc.mailSvc.SendMessages(msgs...)
	return nil
}

func (svc *Service) Get(ctx context.Context, id string) (Organization, error) {
	return svc.repo.GetOrganization(ctx, id)
}

func (svc *Service) GetByCode(ctx context.Context, code string) (Organization, error) {
	return svc.repo.GetOrganizationByCode(ctx, core.CleanString(code))
}

func (svc *Service) Query(ctx context.Context) ([]Organization, error) {
	return svc.repo.QueryOrganizations(ctx)
}

// CreateDepartment adds a Department to the organization orgID.
func (svc *Service) CreateDepartment(ctx context.Context, orgID string, nd NewDepartment) (Department, error) {
	return svc.repo.CreateDepartment(ctx, Department{
		OrganizationID: orgID,
		Name:           nd.Name,
		LeaderID:       nd.LeaderID,
	})
}

func (svc *Service) GetDepartment(ctx context.Context, id string) (Department, error) {
	return svc.repo.GetDepartment(ctx, id)
}

func (svc *Service) Departments(ctx context.Context, orgID string) ([]Department, error) {
	return svc.repo.FindDepartments(ctx, orgID)
}

func (svc *Service) UpdateDepartment(ctx context.Context, d Department) (Department, error) {
	return svc.repo.UpdateDepartment(ctx, d)
}

// CreateClass adds a ClassGroup to the department deptID.
func (svc *Service) CreateClass(ctx context.Context, deptID string, nc NewClass) (ClassGroup, error) {
	return svc.repo.CreateClass(ctx, ClassGroup{
		DepartmentID: deptID,
		Name:         nc.Name,
		TeacherID:    nc.TeacherID,
	})
}

func (svc *Service) GetClass(ctx context.Context, id string) (ClassGroup, error) {
	return svc.repo.GetClass(ctx, id)
}

func (svc *Service) Classes(ctx context.Context, deptIDs ...string) ([]ClassGroup, error) {
	if len(deptIDs) == 0 {
		return []ClassGroup{}, nil
	}
	return svc.repo.FindClasses(ctx, deptIDs...)
}

// ClassesInOrganization returns the classes of every department of orgID.
func (svc *Service) ClassesInOrganization(ctx context.Context, orgID string) ([]ClassGroup, error) {
	depts, err := svc.repo.FindDepartments(ctx, orgID)
	if err != nil {
		return nil, errors.Wrap(err, "finding departments")
	}
	return svc.Classes(ctx, DepartmentIDs(depts)...)
}

func (svc *Service) UpdateClass(ctx context.Context, c ClassGroup) (ClassGroup, error) {
	return svc.repo.UpdateClass(ctx, c)
}
