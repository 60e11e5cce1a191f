package feedback

import "time"

// Categories. A student has at most one entry per category per school year.
const (
	CategoryBehavior   = "BEHAVIOR"
	CategoryAttitude   = "ATTITUDE"
	CategoryAcademic   = "ACADEMIC"
	CategoryAttendance = "ATTENDANCE"
)

var AllCategories = []string{CategoryBehavior, CategoryAttitude, CategoryAcademic, CategoryAttendance}

func ValidCategory(category string) bool {
	for _, c := range AllCategories {
		if category == c {
			return true
		}
	}
	return false
}

// Entry is one per-category feedback record for a (student, school year).
// UpdatedAt is server-assigned on every successful write and doubles as the
// optimistic version token clients must echo back when updating.
type Entry struct {
	ID         uint      `json:"id" gorm:"primaryKey"`
	StudentID  uint      `json:"student_id" gorm:"uniqueIndex:idx_feedback_identity"`
	SchoolYear int       `json:"school_year" gorm:"uniqueIndex:idx_feedback_identity"`
	Category   string    `json:"category" gorm:"uniqueIndex:idx_feedback_identity"`
	Content    string    `json:"content"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

func (Entry) TableName() string { return "feedback" }

// NewEntryItem is one category's content in a create batch.
type NewEntryItem struct {
	Category string `json:"category"`
	Content  string `json:"content"`
}

// UpdateItem is one category's edit in an update batch. UpdatedAt carries the
// version the client last read; the update only applies if it still matches.
type UpdateItem struct {
	Category  string    `json:"category"`
	Content   string    `json:"content"`
	UpdatedAt time.Time `json:"updated_at"`
}
