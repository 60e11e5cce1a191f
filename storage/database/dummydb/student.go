package dummydb

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/jihokim/haksa/core"
	"github.com/jihokim/haksa/core/student"
)

type studentRepository struct {
	db    *studentTable
	users *userTable
}

var _ student.Repository = (*studentRepository)(nil) // interface compliance check

func NewStudentRepository(db *DB) student.Repository {
	return &studentRepository{db: db.student, users: db.user}
}

// preload copies the owning user onto the student, like the real repository
// preloads the users relation.
func (repo *studentRepository) preload(st student.Student) student.Student {
	repo.users.RLock()
	defer repo.users.RUnlock()

	if usr, ok := repo.users.table[st.UserID]; ok {
		st.User = *usr
	}
	return st
}

func (repo *studentRepository) CreateStudent(_ context.Context, st student.Student) (student.Student, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	repo.db.pkCount++
	st.ID = repo.db.pkCount
	now := time.Now().UTC()
	st.CreatedAt = now
	st.UpdatedAt = now
	repo.db.table[st.ID] = &st
	return repo.preload(st), nil
}

func (repo *studentRepository) GetStudent(_ context.Context, filter student.GetFilter) (student.Student, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if filter.ID != 0 {
		if st, ok := repo.db.table[filter.ID]; ok {
			return repo.preload(*st), nil
		}
		return student.Student{}, student.ErrNotFound
	}
	for _, st := range repo.db.table {
		if filter.UserID != 0 && st.UserID == filter.UserID {
			return repo.preload(*st), nil
		}
		if filter.ParentUserID != 0 && st.ParentUserID != nil && *st.ParentUserID == filter.ParentUserID {
			return repo.preload(*st), nil
		}
	}
	return student.Student{}, student.ErrNotFound
}

func (repo *studentRepository) QueryStudents(_ context.Context, filter *student.QueryFilter, _ []core.DBOrdering) ([]student.Student, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	var students []student.Student
	for _, st := range repo.db.table {
		loaded := repo.preload(*st)
		if filter != nil {
			if filter.ClassID != nil && (loaded.ClassID == nil || *loaded.ClassID != *filter.ClassID) {
				continue
			}
			if filter.Unassigned && loaded.ClassID != nil {
				continue
			}
			if filter.SchoolID != 0 && loaded.User.SchoolID != filter.SchoolID {
				continue
			}
			if filter.Search != "" &&
				!strings.Contains(strings.ToLower(loaded.User.Name), strings.ToLower(filter.Search)) {
				continue
			}
		}
		students = append(students, loaded)
	}
	sort.Slice(students, func(i, j int) bool { return students[i].ID < students[j].ID })
	return students, nil
}

func (repo *studentRepository) UpdateStudent(_ context.Context, st student.Student, name string) (student.Student, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	if _, ok := repo.db.table[st.ID]; !ok {
		return student.Student{}, student.ErrNotFound
	}
	st.UpdatedAt = time.Now().UTC()
	repo.db.table[st.ID] = &st

	if name != "" {
		repo.users.Lock()
		if usr, ok := repo.users.table[st.UserID]; ok {
			usr.Name = name
		}
		repo.users.Unlock()
	}
	return repo.preload(st), nil
}

func (repo *studentRepository) DeleteStudent(_ context.Context, id uint) error {
	repo.db.Lock()
	defer repo.db.Unlock()

	delete(repo.db.table, id)
	return nil
}
