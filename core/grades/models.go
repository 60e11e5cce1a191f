package grades

import (
	"time"

	"github.com/go-playground/validator/v10"
)

// Grade is one per-subject score for a (student, school year, semester).
type Grade struct {
	ID         uint      `json:"id" gorm:"primaryKey"`
	StudentID  uint      `json:"student_id" gorm:"uniqueIndex:idx_grade_identity"`
	SchoolYear int       `json:"school_year" gorm:"uniqueIndex:idx_grade_identity"`
	Semester   int       `json:"semester" gorm:"uniqueIndex:idx_grade_identity"`
	Subject    string    `json:"subject" gorm:"uniqueIndex:idx_grade_identity"`
	Score      int       `json:"score"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

func (Grade) TableName() string { return "grades" }

type NewGradeItem struct {
	Semester int    `json:"semester" validate:"required,min=1,max=2"`
	Subject  string `json:"subject" validate:"required"`
	Score    int    `json:"score" validate:"min=0,max=100"`
}

func (ng *NewGradeItem) Validate(validate *validator.Validate) error {
	return validate.Struct(ng)
}

type UpdateGrade struct {
	Score *int `json:"score" validate:"required,min=0,max=100"`
}

func (ug *UpdateGrade) Validate(validate *validator.Validate) error {
	return validate.Struct(ug)
}
