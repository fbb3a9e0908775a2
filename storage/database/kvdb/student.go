package kvdb

import (
	"context"

	"github.com/shepherd-app/shepherd/core/student"
)

type studentRepository struct {
	db *DB
}

func NewStudentRepository(db *DB) student.Repository {
	return &studentRepository{db: db}
}

func (repo *studentRepository) CreateStudent(ctx context.Context, s student.Student) (student.Student, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	if s.Attendance == nil {
		s.Attendance = student.Attendance{}
	}
	return repo.db.students.create(ctx, s)
}

func (repo *studentRepository) GetStudent(ctx context.Context, id string) (student.Student, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	return repo.db.students.get(ctx, id, student.ErrNotFound)
}

func (repo *studentRepository) FindStudents(ctx context.Context, filter student.Filter) ([]student.Student, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	return repo.db.students.find(ctx, filter.Match)
}

func (repo *studentRepository) UpdateStudent(ctx context.Context, s student.Student) (student.Student, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	return repo.db.students.update(ctx, s, student.ErrNotFound)
}
