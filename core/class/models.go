package class

import "time"

type Class struct {
	ID         uint      `json:"id" gorm:"primaryKey"`
	Grade      int       `json:"grade" gorm:"uniqueIndex:idx_class_identity"`
	GradeClass int       `json:"grade_class" gorm:"uniqueIndex:idx_class_identity"`
	SchoolID   uint      `json:"school_id" gorm:"uniqueIndex:idx_class_identity"`
	TeacherID  *uint     `json:"teacher_id,omitempty"` // homeroom teacher's user ID
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

func (Class) TableName() string { return "classes" }
