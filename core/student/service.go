package student

import (
	"context"

	"github.com/pkg/errors"

	"github.com/jihokim/haksa/core"
	"github.com/jihokim/haksa/core/class"
)

var (
	// errors
	ErrNotFound = errors.New("student not found")
)

type (
	GetFilter struct {
		ID           uint
		UserID       uint
		ParentUserID uint
	}

	QueryFilter struct {
		ClassID    *uint  `query:"class_id"`
		Unassigned bool   `query:"unassigned"`
		Search     string `query:"search"`
		SchoolID   uint   `query:"school_id"`
	}

	Repository interface {
		CreateStudent(ctx context.Context, st Student) (Student, error)
		// GetStudent returns the student with their owning User preloaded.
		GetStudent(ctx context.Context, filter GetFilter) (Student, error)
		QueryStudents(ctx context.Context, filter *QueryFilter, ordering []core.DBOrdering) ([]Student, error)
		// UpdateStudent persists the student row and, when name is non-empty,
		// the owning user's name, atomically.
		UpdateStudent(ctx context.Context, st Student, name string) (Student, error)
		DeleteStudent(ctx context.Context, id uint) error
	}

	ServiceInterface interface {
		Create(ns NewStudent) (Student, error)
		GetOne(id uint) (Student, error)
		GetByUserID(userID uint) (Student, error)
		GetByParentUserID(parentUserID uint) (Student, error)
		Query(filter *QueryFilter, ordering []core.DBOrdering) ([]Student, error)
		Update(id uint, us UpdateStudent, schoolID uint) (Student, error)
		Delete(id uint) error
		AttachParent(userID, parentUserID uint) error
	}

	Service struct {
		repo     Repository
		classSvc class.ServiceInterface
	}
)

var _ ServiceInterface = (*Service)(nil)

func NewService(repo Repository, classSvc class.ServiceInterface) *Service {
	return &Service{repo: repo, classSvc: classSvc}
}

func (svc *Service) Create(ns NewStudent) (Student, error) {
	st := Student{
		UserID:     ns.UserID,
		Grade:      ns.Grade,
		GradeClass: ns.GradeClass,
		Number:     ns.Number,
	}
	// link the matching class if it already exists
	if cls, err := svc.classSvc.FindByGradeAndClass(ns.Grade, ns.GradeClass, ns.SchoolID); err == nil {
		st.ClassID = &cls.ID
	} else if errors.Cause(err) != class.ErrNotFound {
		return Student{}, errors.Wrap(err, "finding class")
	}
	return svc.repo.CreateStudent(context.Background(), st)
}

func (svc *Service) GetOne(id uint) (Student, error) {
	return svc.repo.GetStudent(context.Background(), GetFilter{ID: id})
}

func (svc *Service) GetByUserID(userID uint) (Student, error) {
	return svc.repo.GetStudent(context.Background(), GetFilter{UserID: userID})
}

func (svc *Service) GetByParentUserID(parentUserID uint) (Student, error) {
	return svc.repo.GetStudent(context.Background(), GetFilter{ParentUserID: parentUserID})
}

func (svc *Service) Query(filter *QueryFilter, ordering []core.DBOrdering) ([]Student, error) {
	return svc.repo.QueryStudents(context.Background(), filter, ordering)
}

func (svc *Service) Update(id uint, us UpdateStudent, schoolID uint) (Student, error) {
	st, err := svc.repo.GetStudent(context.Background(), GetFilter{ID: id})
	if err != nil {
		return Student{}, err
	}

	if us.Grade != 0 && us.GradeClass != 0 {
		cls, err := svc.classSvc.FindByGradeAndClass(us.Grade, us.GradeClass, schoolID)
		if err != nil {
			if errors.Cause(err) == class.ErrNotFound {
				return Student{}, core.NewValidationError(err, core.FieldError{Field: "grade_class", Error: "no such class"})
			}
			return Student{}, errors.Wrap(err, "finding class")
		}
		st.Grade = us.Grade
		st.GradeClass = us.GradeClass
		st.ClassID = &cls.ID
	}
	if us.Number != 0 {
		st.Number = us.Number
	}
	if us.Address != "" {
		st.Address = us.Address
	}
	if us.Phone != "" {
		st.Phone = us.Phone
	}

	return svc.repo.UpdateStudent(context.Background(), st, us.Name)
}

func (svc *Service) Delete(id uint) error {
	if _, err := svc.repo.GetStudent(context.Background(), GetFilter{ID: id}); err != nil {
		return err
	}
	return svc.repo.DeleteStudent(context.Background(), id)
}

// AttachParent links a parent account to the student owned by userID.
func (svc *Service) AttachParent(userID, parentUserID uint) error {
	st, err := svc.repo.GetStudent(context.Background(), GetFilter{UserID: userID})
	if err != nil {
		return err
	}
	st.ParentUserID = &parentUserID
	_, err = svc.repo.UpdateStudent(context.Background(), st, "")
	return err
}
