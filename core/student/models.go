package student

import (
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/jihokim/haksa/core"
	"github.com/jihokim/haksa/core/user"
)

type Student struct {
	ID           uint      `json:"id" gorm:"primaryKey"`
	UserID       uint      `json:"user_id" gorm:"uniqueIndex"`
	User         user.User `json:"user"`
	Grade        int       `json:"grade"`
	GradeClass   int       `json:"grade_class"`
	Number       int       `json:"number"`
	ClassID      *uint     `json:"class_id" gorm:"index"`
	ParentUserID *uint     `json:"parent_user_id,omitempty" gorm:"index"`
	Address      string    `json:"address,omitempty"`
	Phone        string    `json:"phone,omitempty"`
	HomePhone    string    `json:"home_phone,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

func (Student) TableName() string { return "students" }

// NewStudent contains the profile created alongside a STUDENT user.
type NewStudent struct {
	UserID     uint `json:"user_id" validate:"required"`
	SchoolID   uint `json:"school_id" validate:"required"`
	Grade      int  `json:"grade" validate:"required,min=1"`
	GradeClass int  `json:"grade_class" validate:"required,min=1"`
	Number     int  `json:"number" validate:"required,min=1"`
}

func (ns *NewStudent) Validate(validate *validator.Validate) error {
	return validate.Struct(ns)
}

// UpdateStudent defines what may be modified on an existing Student.
// A non-zero Grade/GradeClass pair reassigns the student to the matching class.
type UpdateStudent struct {
	Name       string `json:"name"`
	Grade      int    `json:"grade" validate:"omitempty,min=1"`
	GradeClass int    `json:"grade_class" validate:"omitempty,min=1"`
	Number     int    `json:"number" validate:"omitempty,min=1"`
	Address    string `json:"address"`
	Phone      string `json:"phone"`
}

func (us *UpdateStudent) Validate(validate *validator.Validate) error {
	us.Name = core.CleanString(us.Name)
	us.Address = core.CleanString(us.Address)
	us.Phone = core.CleanString(us.Phone)
	return validate.Struct(us)
}
