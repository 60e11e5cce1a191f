package gormrepos

import (
	"context"

	"github.com/pkg/errors"
	"gorm.io/gorm"

	"github.com/jihokim/haksa/core/class"
)

type classRepository struct {
	db *gorm.DB
}

var _ class.Repository = (*classRepository)(nil) // interface compliance check

func NewClassRepository(db *gorm.DB) *classRepository {
	return &classRepository{db: db}
}

func (repo classRepository) CreateClass(ctx context.Context, cls class.Class) (class.Class, error) {
	if err := repo.db.WithContext(ctx).Create(&cls).Error; err != nil {
		return class.Class{}, errors.Wrap(err, "inserting class")
	}
	return cls, nil
}

func (repo classRepository) FindClass(ctx context.Context, grade, gradeClass int, schoolID uint) (class.Class, error) {
	var cls class.Class
	err := repo.db.WithContext(ctx).
		Where("grade = ? AND grade_class = ? AND school_id = ?", grade, gradeClass, schoolID).
		First(&cls).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return class.Class{}, class.ErrNotFound
		}
		return class.Class{}, errors.Wrap(err, "finding class")
	}
	return cls, nil
}

func (repo classRepository) QueryClasses(ctx context.Context, schoolID uint) ([]class.Class, error) {
	var classes []class.Class
	err := repo.db.WithContext(ctx).
		Where("school_id = ?", schoolID).
		Order("grade ASC, grade_class ASC").
		Find(&classes).Error
	if err != nil {
		return nil, errors.Wrap(err, "querying classes")
	}
	return classes, nil
}
