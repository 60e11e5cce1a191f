package gormrepos

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"gorm.io/gorm"

	"github.com/jihokim/haksa/core"
	"github.com/jihokim/haksa/core/student"
	"github.com/jihokim/haksa/core/user"
)

type studentRepository struct {
	db *gorm.DB
}

var _ student.Repository = (*studentRepository)(nil) // interface compliance check

func NewStudentRepository(db *gorm.DB) *studentRepository {
	return &studentRepository{db: db}
}

func (repo studentRepository) trapNoRowsErr(err error, msg string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return student.ErrNotFound
	}
	return errors.Wrap(err, msg)
}

func (repo studentRepository) CreateStudent(ctx context.Context, st student.Student) (student.Student, error) {
	if err := repo.db.WithContext(ctx).Omit("User").Create(&st).Error; err != nil {
		return student.Student{}, errors.Wrap(err, "inserting student")
	}
	return repo.GetStudent(ctx, student.GetFilter{ID: st.ID})
}

func (repo studentRepository) GetStudent(ctx context.Context, filter student.GetFilter) (student.Student, error) {
	q := repo.db.WithContext(ctx).Preload("User")

	switch {
	case filter.ID != 0:
		q = q.Where("id = ?", filter.ID)
	case filter.UserID != 0:
		q = q.Where("user_id = ?", filter.UserID)
	case filter.ParentUserID != 0:
		q = q.Where("parent_user_id = ?", filter.ParentUserID)
	default:
		return student.Student{}, student.ErrNotFound
	}

	var st student.Student
	if err := q.First(&st).Error; err != nil {
		return student.Student{}, repo.trapNoRowsErr(err, "finding student")
	}
	return st, nil
}

func (repo studentRepository) QueryStudents(ctx context.Context, filter *student.QueryFilter, ordering []core.DBOrdering) ([]student.Student, error) {
	q := repo.db.WithContext(ctx).Model(&student.Student{}).Preload("User")

	if filter != nil {
		if filter.ClassID != nil {
			q = q.Where("students.class_id = ?", *filter.ClassID)
		}
		if filter.Unassigned {
			q = q.Where("students.class_id IS NULL")
		}
		if filter.Search != "" || filter.SchoolID != 0 {
			q = q.Joins("JOIN users ON users.id = students.user_id")
			if filter.Search != "" {
				q = q.Where("users.name ILIKE ?", "%"+filter.Search+"%")
			}
			if filter.SchoolID != 0 {
				q = q.Where("users.school_id = ?", filter.SchoolID)
			}
		}
	}
	for _, ord := range ordering {
		q = q.Order(ord.String())
	}

	var students []student.Student
	if err := q.Find(&students).Error; err != nil {
		return nil, errors.Wrap(err, "querying students")
	}
	return students, nil
}

// UpdateStudent persists the student row and, when name is non-empty, the
// owning user's name, in one transaction.
func (repo studentRepository) UpdateStudent(ctx context.Context, st student.Student, name string) (student.Student, error) {
	st.UpdatedAt = time.Now().UTC()

	err := repo.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit("User").Save(&st).Error; err != nil {
			return errors.Wrap(err, "updating student")
		}
		if name != "" {
			err := tx.Model(&user.User{}).
				Where("id = ?", st.UserID).
				Updates(map[string]interface{}{"name": name, "updated_at": st.UpdatedAt}).Error
			if err != nil {
				return errors.Wrap(err, "updating student's user")
			}
		}
		return nil
	})
	if err != nil {
		return student.Student{}, err
	}
	return repo.GetStudent(ctx, student.GetFilter{ID: st.ID})
}

func (repo studentRepository) DeleteStudent(ctx context.Context, id uint) error {
	err := repo.db.WithContext(ctx).Delete(&student.Student{}, id).Error
	return errors.Wrap(err, "deleting student")
}
