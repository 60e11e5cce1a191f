package consultation

import (
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/jihokim/haksa/core"
)

// Statuses
const (
	StatusPending  = "PENDING"
	StatusApproved = "APPROVED"
	StatusRejected = "REJECTED"
	StatusDone     = "DONE"
)

var AllStatuses = []string{StatusPending, StatusApproved, StatusRejected, StatusDone}

func ValidStatus(status string) bool {
	for _, s := range AllStatuses {
		if status == s {
			return true
		}
	}
	return false
}

// Consultation is a parent-requested meeting about a student with a teacher.
type Consultation struct {
	ID          uint      `json:"id" gorm:"primaryKey"`
	StudentID   uint      `json:"student_id" gorm:"index"`
	TeacherID   uint      `json:"teacher_id" gorm:"index"`   // teacher's user ID
	RequesterID uint      `json:"requester_id" gorm:"index"` // parent's user ID
	Subject     string    `json:"subject"`
	Content     string    `json:"content"`
	Status      string    `json:"status"`
	ScheduledAt time.Time `json:"scheduled_at"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func (Consultation) TableName() string { return "consultations" }

type NewConsultation struct {
	StudentID   uint      `json:"student_id" validate:"required"`
	TeacherID   uint      `json:"teacher_id" validate:"required"`
	Subject     string    `json:"subject" validate:"required"`
	Content     string    `json:"content"`
	ScheduledAt time.Time `json:"scheduled_at" validate:"required"`
}

func (nc *NewConsultation) Validate(validate *validator.Validate) error {
	nc.Subject = core.CleanString(nc.Subject)
	nc.Content = core.CleanString(nc.Content)
	return validate.Struct(nc)
}

type UpdateConsultationStatus struct {
	Status string `json:"status" validate:"required"`
}

func (us *UpdateConsultationStatus) Validate(validate *validator.Validate) error {
	us.Status = strings.ToUpper(core.CleanString(us.Status))
	if err := validate.Struct(us); err != nil {
		return err
	}
	if !ValidStatus(us.Status) {
		return core.NewValidationError(nil, core.FieldError{Field: "status", Error: "invalid status: " + us.Status})
	}
	return nil
}
