package grades

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"github.com/jihokim/haksa/core/student"
)

var ErrNotFound = errors.New("grade not found")

type (
	// StudentDirectory resolves a student identifier to an existing record.
	StudentDirectory interface {
		GetOne(id uint) (student.Student, error)
	}

	Repository interface {
		CreateGrades(ctx context.Context, gds []Grade) ([]Grade, error)
		GetGrade(ctx context.Context, id uint) (Grade, error)
		QueryGrades(ctx context.Context, studentID uint, schoolYear int) ([]Grade, error)
		UpdateGrade(ctx context.Context, gd Grade) (Grade, error)
	}

	ServiceInterface interface {
		Create(ctx context.Context, studentID uint, items []NewGradeItem, schoolYear int) ([]Grade, error)
		Query(ctx context.Context, studentID uint, schoolYear int) ([]Grade, error)
		Update(ctx context.Context, id uint, ug UpdateGrade) (Grade, error)
	}

	Service struct {
		repo     Repository
		students StudentDirectory
	}
)

var _ ServiceInterface = (*Service)(nil)

func NewService(repo Repository, students StudentDirectory) *Service {
	return &Service{repo: repo, students: students}
}

func (svc *Service) Create(ctx context.Context, studentID uint, items []NewGradeItem, schoolYear int) ([]Grade, error) {
	if _, err := svc.students.GetOne(studentID); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	gds := make([]Grade, 0, len(items))
	for _, item := range items {
		gds = append(gds, Grade{
			StudentID:  studentID,
			SchoolYear: schoolYear,
			Semester:   item.Semester,
			Subject:    item.Subject,
			Score:      item.Score,
			CreatedAt:  now,
			UpdatedAt:  now,
		})
	}
	return svc.repo.CreateGrades(ctx, gds)
}

func (svc *Service) Query(ctx context.Context, studentID uint, schoolYear int) ([]Grade, error) {
	if _, err := svc.students.GetOne(studentID); err != nil {
		return nil, err
	}
	return svc.repo.QueryGrades(ctx, studentID, schoolYear)
}

func (svc *Service) Update(ctx context.Context, id uint, ug UpdateGrade) (Grade, error) {
	gd, err := svc.repo.GetGrade(ctx, id)
	if err != nil {
		return Grade{}, err
	}
	if ug.Score != nil {
		gd.Score = *ug.Score
	}
	gd.UpdatedAt = time.Now().UTC()
	return svc.repo.UpdateGrade(ctx, gd)
}
