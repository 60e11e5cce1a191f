package dummydb

import (
	"context"
	"sort"
	"time"

	"github.com/jihokim/haksa/core/grades"
)

type gradeRepository struct {
	db *gradeTable
}

var _ grades.Repository = (*gradeRepository)(nil) // interface compliance check

func NewGradeRepository(db *DB) grades.Repository {
	return &gradeRepository{db: db.grade}
}

func (repo *gradeRepository) CreateGrades(_ context.Context, gds []grades.Grade) ([]grades.Grade, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	now := time.Now().UTC()
	created := make([]grades.Grade, 0, len(gds))
	for _, gd := range gds {
		gd := gd
		repo.db.pkCount++
		gd.ID = repo.db.pkCount
		gd.CreatedAt = now
		gd.UpdatedAt = now
		repo.db.table[gd.ID] = &gd
		created = append(created, gd)
	}
	return created, nil
}

func (repo *gradeRepository) GetGrade(_ context.Context, id uint) (grades.Grade, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if gd, ok := repo.db.table[id]; ok {
		return *gd, nil
	}
	return grades.Grade{}, grades.ErrNotFound
}

func (repo *gradeRepository) QueryGrades(_ context.Context, studentID uint, schoolYear int) ([]grades.Grade, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	var gds []grades.Grade
	for _, gd := range repo.db.table {
		if gd.StudentID == studentID && gd.SchoolYear == schoolYear {
			gds = append(gds, *gd)
		}
	}
	sort.Slice(gds, func(i, j int) bool {
		if gds[i].Semester != gds[j].Semester {
			return gds[i].Semester < gds[j].Semester
		}
		return gds[i].Subject < gds[j].Subject
	})
	return gds, nil
}

func (repo *gradeRepository) UpdateGrade(_ context.Context, gd grades.Grade) (grades.Grade, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	if _, ok := repo.db.table[gd.ID]; !ok {
		return grades.Grade{}, grades.ErrNotFound
	}
	gd.UpdatedAt = time.Now().UTC()
	repo.db.table[gd.ID] = &gd
	return gd, nil
}
