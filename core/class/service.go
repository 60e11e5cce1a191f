package class

import (
	"context"

	"github.com/pkg/errors"
)

var ErrNotFound = errors.New("class not found")

type (
	Repository interface {
		CreateClass(ctx context.Context, cls Class) (Class, error)
		FindClass(ctx context.Context, grade, gradeClass int, schoolID uint) (Class, error)
		QueryClasses(ctx context.Context, schoolID uint) ([]Class, error)
	}

	ServiceInterface interface {
		Create(cls Class) (Class, error)
		FindByGradeAndClass(grade, gradeClass int, schoolID uint) (Class, error)
		QueryBySchool(schoolID uint) ([]Class, error)
	}

	Service struct {
		repo Repository
	}
)

var _ ServiceInterface = (*Service)(nil)

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (svc *Service) Create(cls Class) (Class, error) {
	return svc.repo.CreateClass(context.Background(), cls)
}

func (svc *Service) FindByGradeAndClass(grade, gradeClass int, schoolID uint) (Class, error) {
	return svc.repo.FindClass(context.Background(), grade, gradeClass, schoolID)
}

func (svc *Service) QueryBySchool(schoolID uint) ([]Class, error) {
	return svc.repo.QueryClasses(context.Background(), schoolID)
}
