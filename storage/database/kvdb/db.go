// Package kvdb stores the organization records as whole JSON collections in a kv.Store.
package kvdb

import (
	"context"
	"sync"

	"github.com/pkg/errors"
	"golang.org/x/crypto/bcrypt"

	"github.com/shepherd-app/shepherd/core/member"
	"github.com/shepherd-app/shepherd/core/org"
	"github.com/shepherd-app/shepherd/core/student"
	"github.com/shepherd-app/shepherd/storage/kv"
)

// Collection keys
const (
	MembersKey       = "members"
	OrganizationsKey = "organizations"
	DepartmentsKey   = "departments"
	ClassesKey       = "classes"
	StudentsKey      = "students"
)

type (
	Options struct {
		// Seed makes absent or unreadable collections default to the seed dataset instead of being empty.
		Seed         bool
		SeedPassword string
	}

	// DB serializes every read-modify-write cycle: each mutation rewrites a whole collection.
	DB struct {
		store kv.Store
		opts  Options
		mutex sync.RWMutex

		hashOnce sync.Once
		seedHash []byte

		members       collection[member.Member]
		organizations collection[org.Organization]
		departments   collection[org.Department]
		classes       collection[org.ClassGroup]
		students      collection[student.Student]
	}
)

func Open(store kv.Store, opts Options) *DB {
	db := &DB{store: store, opts: opts}

	db.members = collection[member.Member]{
		key:   MembersKey,
		store: store,
		id:    func(m *member.Member) *string { return &m.ID },
		def: func() []member.Member {
			if !db.opts.Seed {
				return []member.Member{}
			}
			return seedMembers(db.seedPasswordHash())
		},
	}
	db.organizations = collection[org.Organization]{
		key:   OrganizationsKey,
		store: store,
		id:    func(o *org.Organization) *string { return &o.ID },
		def:   seedOr(opts.Seed, seedOrganizations),
	}
	db.departments = collection[org.Department]{
		key:   DepartmentsKey,
		store: store,
		id:    func(d *org.Department) *string { return &d.ID },
		def:   seedOr(opts.Seed, seedDepartments),
	}
	db.classes = collection[org.ClassGroup]{
		key:   ClassesKey,
		store: store,
		id:    func(c *org.ClassGroup) *string { return &c.ID },
		def:   seedOr(opts.Seed, seedClasses),
	}
	db.students = collection[student.Student]{
		key:   StudentsKey,
		store: store,
		id:    func(s *student.Student) *string { return &s.ID },
		def:   seedOr(opts.Seed, seedStudents),
	}
	return db
}

func seedOr[T any](seed bool, dataset func() []T) func() []T {
	if seed {
		return dataset
	}
	return func() []T { return []T{} }
}

func (db *DB) seedPasswordHash() []byte {
	db.hashOnce.Do(func() {
		db.seedHash, _ = bcrypt.GenerateFromPassword([]byte(db.opts.SeedPassword), bcrypt.DefaultCost)
	})
	return db.seedHash
}

// Seed overwrites every collection with the seed dataset.
func (db *DB) Seed(ctx context.Context) error {
	db.mutex.Lock()
	defer db.mutex.Unlock()

	if err := db.members.save(ctx, seedMembers(db.seedPasswordHash())); err != nil {
		return errors.Wrap(err, "seeding members")
	}
	if err := db.organizations.save(ctx, seedOrganizations()); err != nil {
		return errors.Wrap(err, "seeding organizations")
	}
	if err := db.departments.save(ctx, seedDepartments()); err != nil {
		return errors.Wrap(err, "seeding departments")
	}
	if err := db.classes.save(ctx, seedClasses()); err != nil {
		return errors.Wrap(err, "seeding classes")
	}
	if err := db.students.save(ctx, seedStudents()); err != nil {
		return errors.Wrap(err, "seeding students")
	}
	return nil
}

// Reset empties every collection.
func (db *DB) Reset(ctx context.Context) error {
	db.mutex.Lock()
	defer db.mutex.Unlock()

	for _, key := range []string{MembersKey, OrganizationsKey, DepartmentsKey, ClassesKey, StudentsKey} {
		if err := db.store.Set(ctx, key, []byte(`[]`)); err != nil {
			return errors.Wrapf(err, "resetting %s", key)
		}
	}
	return nil
}

func (db *DB) Close() error {
	return db.store.Close()
}
