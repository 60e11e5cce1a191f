package dummydb

import (
	"context"
	"sort"
	"time"

	"github.com/jihokim/haksa/core/class"
)

type classRepository struct {
	db *classTable
}

var _ class.Repository = (*classRepository)(nil) // interface compliance check

func NewClassRepository(db *DB) class.Repository {
	return &classRepository{db: db.class}
}

func (repo *classRepository) CreateClass(_ context.Context, cls class.Class) (class.Class, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	repo.db.pkCount++
	cls.ID = repo.db.pkCount
	now := time.Now().UTC()
	cls.CreatedAt = now
	cls.UpdatedAt = now
	repo.db.table[cls.ID] = &cls
	return cls, nil
}

func (repo *classRepository) FindClass(_ context.Context, grade, gradeClass int, schoolID uint) (class.Class, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	for _, cls := range repo.db.table {
		if cls.Grade == grade && cls.GradeClass == gradeClass && cls.SchoolID == schoolID {
			return *cls, nil
		}
	}
	return class.Class{}, class.ErrNotFound
}

func (repo *classRepository) QueryClasses(_ context.Context, schoolID uint) ([]class.Class, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	var classes []class.Class
	for _, cls := range repo.db.table {
		if schoolID != 0 && cls.SchoolID != schoolID {
			continue
		}
		classes = append(classes, *cls)
	}
	sort.Slice(classes, func(i, j int) bool {
		if classes[i].Grade != classes[j].Grade {
			return classes[i].Grade < classes[j].Grade
		}
		return classes[i].GradeClass < classes[j].GradeClass
	})
	return classes, nil
}
