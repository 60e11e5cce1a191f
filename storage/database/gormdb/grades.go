package gormrepos

import (
	"context"

	"github.com/pkg/errors"
	"gorm.io/gorm"

	"github.com/jihokim/haksa/core/grades"
)

type gradeRepository struct {
	db *gorm.DB
}

var _ grades.Repository = (*gradeRepository)(nil) // interface compliance check

func NewGradeRepository(db *gorm.DB) *gradeRepository {
	return &gradeRepository{db: db}
}

func (repo gradeRepository) CreateGrades(ctx context.Context, gds []grades.Grade) ([]grades.Grade, error) {
	if err := repo.db.WithContext(ctx).Create(&gds).Error; err != nil {
		return nil, errors.Wrap(err, "inserting grades")
	}
	return gds, nil
}

func (repo gradeRepository) GetGrade(ctx context.Context, id uint) (grades.Grade, error) {
	var gd grades.Grade
	if err := repo.db.WithContext(ctx).First(&gd, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return grades.Grade{}, grades.ErrNotFound
		}
		return grades.Grade{}, errors.Wrap(err, "finding grade")
	}
	return gd, nil
}

func (repo gradeRepository) QueryGrades(ctx context.Context, studentID uint, schoolYear int) ([]grades.Grade, error) {
	var gds []grades.Grade
	err := repo.db.WithContext(ctx).
		Where("student_id = ? AND school_year = ?", studentID, schoolYear).
		Order("semester ASC, subject ASC").
		Find(&gds).Error
	if err != nil {
		return nil, errors.Wrap(err, "querying grades")
	}
	return gds, nil
}

func (repo gradeRepository) UpdateGrade(ctx context.Context, gd grades.Grade) (grades.Grade, error) {
	if err := repo.db.WithContext(ctx).Save(&gd).Error; err != nil {
		return grades.Grade{}, errors.Wrap(err, "updating grade")
	}
	return gd, nil
}
