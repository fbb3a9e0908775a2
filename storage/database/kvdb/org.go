package kvdb

import (
	"context"

	"github.com/shepherd-app/shepherd/core/org"
)

type orgRepository struct {
	db *DB
}

func NewOrgRepository(db *DB) org.Repository {
	return &orgRepository{db: db}
}

func (repo *orgRepository) CreateOrganization(ctx context.Context, o org.Organization) (org.Organization, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	taken, err := repo.db.organizations.find(ctx, func(rec org.Organization) bool { return rec.Code == o.Code })
	if err != nil {
		return org.Organization{}, err
	}
	if len(taken) > 0 {
		return org.Organization{}, org.ErrCodeExists
	}
	return repo.db.organizations.create(ctx, o)
}

func (repo *orgRepository) GetOrganization(ctx context.Context, id string) (org.Organization, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	return repo.db.organizations.get(ctx, id, org.ErrNotFound)
}

func (repo *orgRepository) GetOrganizationByCode(ctx context.Context, code string) (org.Organization, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	return repo.db.organizations.first(ctx, func(o org.Organization) bool { return o.Code == code }, org.ErrCodeNotFound)
}

func (repo *orgRepository) QueryOrganizations(ctx context.Context) ([]org.Organization, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	return repo.db.organizations.find(ctx, nil)
}

func (repo *orgRepository) CreateDepartment(ctx context.Context, d org.Department) (org.Department, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	return repo.db.departments.create(ctx, d)
}

func (repo *orgRepository) GetDepartment(ctx context.Context, id string) (org.Department, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	return repo.db.departments.get(ctx, id, org.ErrDepartmentNotFound)
}

func (repo *orgRepository) FindDepartments(ctx context.Context, orgID string) ([]org.Department, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	return repo.db.departments.find(ctx, func(d org.Department) bool { return d.OrganizationID == orgID })
}

func (repo *orgRepository) UpdateDepartment(ctx context.Context, d org.Department) (org.Department, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	return repo.db.departments.update(ctx, d, org.ErrDepartmentNotFound)
}

func (repo *orgRepository) CreateClass(ctx context.Context, c org.ClassGroup) (org.ClassGroup, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	return repo.db.classes.create(ctx, c)
}

func (repo *orgRepository) GetClass(ctx context.Context, id string) (org.ClassGroup, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	return repo.db.classes.get(ctx, id, org.ErrClassNotFound)
}

func (repo *orgRepository) FindClasses(ctx context.Context, deptIDs ...string) ([]org.ClassGroup, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	depts := make(map[string]bool, len(deptIDs))
	for _, id := range deptIDs {
		depts[id] = true
	}
	return repo.db.classes.find(ctx, func(c org.ClassGroup) bool { return depts[c.DepartmentID] })
}

func (repo *orgRepository) UpdateClass(ctx context.Context, c org.ClassGroup) (org.ClassGroup, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	return repo.db.classes.update(ctx, c, org.ErrClassNotFound)
}
