package consultation

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"github.com/jihokim/haksa/core"
	"github.com/jihokim/haksa/core/student"
)

// NotificationType tags consultation notifications in the notification store.
const NotificationType = "CONSULTATION"

var ErrNotFound = errors.New("consultation not found")

type (
	StudentDirectory interface {
		GetOne(id uint) (student.Student, error)
	}

	NotificationSink interface {
		Record(userID uint, notifType, message string) error
	}

	QueryFilter struct {
		TeacherID   uint
		RequesterID uint
		StudentID   uint
	}

	Repository interface {
		CreateConsultation(ctx context.Context, c Consultation) (Consultation, error)
		GetConsultation(ctx context.Context, id uint) (Consultation, error)
		QueryConsultations(ctx context.Context, filter QueryFilter, ordering []core.DBOrdering) ([]Consultation, error)
		UpdateConsultation(ctx context.Context, c Consultation) (Consultation, error)
	}

	ServiceInterface interface {
		Request(ctx context.Context, requesterID uint, nc NewConsultation) (Consultation, error)
		QueryForTeacher(ctx context.Context, teacherUserID uint) ([]Consultation, error)
		QueryForRequester(ctx context.Context, requesterID uint) ([]Consultation, error)
		UpdateStatus(ctx context.Context, id, teacherUserID uint, us UpdateConsultationStatus) (Consultation, error)
	}

	Service struct {
		repo     Repository
		students StudentDirectory
		notifier NotificationSink
		logger   core.Logger
	}
)

var _ ServiceInterface = (*Service)(nil)

func NewService(repo Repository, students StudentDirectory, notifier NotificationSink, logger core.Logger) *Service {
	return &Service{repo: repo, students: students, notifier: notifier, logger: logger}
}

func (svc *Service) Request(ctx context.Context, requesterID uint, nc NewConsultation) (Consultation, error) {
	if _, err := svc.students.GetOne(nc.StudentID); err != nil {
		return Consultation{}, err
	}

	now := time.Now().UTC()
	c, err := svc.repo.CreateConsultation(ctx, Consultation{
		StudentID:   nc.StudentID,
		TeacherID:   nc.TeacherID,
		RequesterID: requesterID,
		Subject:     nc.Subject,
		Content:     nc.Content,
		Status:      StatusPending,
		ScheduledAt: nc.ScheduledAt,
		CreatedAt:   now,
		UpdatedAt:   now,
	})
	if err != nil {
		return Consultation{}, err
	}

	if err = svc.notifier.Record(c.TeacherID, NotificationType, "A consultation has been requested: "+c.Subject); err != nil {
		svc.logger.Error("recording consultation notification: "+err.Error(), err)
	}
	return c, nil
}

func (svc *Service) QueryForTeacher(ctx context.Context, teacherUserID uint) ([]Consultation, error) {
	return svc.repo.QueryConsultations(ctx, QueryFilter{TeacherID: teacherUserID}, []core.DBOrdering{{Field: "scheduled_at", Ascending: true}})
}

func (svc *Service) QueryForRequester(ctx context.Context, requesterID uint) ([]Consultation, error) {
	return svc.repo.QueryConsultations(ctx, QueryFilter{RequesterID: requesterID}, []core.DBOrdering{{Field: "scheduled_at", Ascending: true}})
}

// UpdateStatus lets the addressed teacher move a consultation through its states.
func (svc *Service) UpdateStatus(ctx context.Context, id, teacherUserID uint, us UpdateConsultationStatus) (Consultation, error) {
	c, err := svc.repo.GetConsultation(ctx, id)
	if err != nil {
		return Consultation{}, err
	}
	if c.TeacherID != teacherUserID {
		return Consultation{}, ErrNotFound
	}
	c.Status = us.Status
	c.UpdatedAt = time.Now().UTC()

	c, err = svc.repo.UpdateConsultation(ctx, c)
	if err != nil {
		return Consultation{}, err
	}

	if err = svc.notifier.Record(c.RequesterID, NotificationType, "Your consultation request is now "+c.Status+"."); err != nil {
		svc.logger.Error("recording consultation notification: "+err.Error(), err)
	}
	return c, nil
}
