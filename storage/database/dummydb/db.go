package dummydb

import (
	"sync"

	"github.com/jihokim/haksa/core/class"
	"github.com/jihokim/haksa/core/consultation"
	"github.com/jihokim/haksa/core/feedback"
	"github.com/jihokim/haksa/core/grades"
	"github.com/jihokim/haksa/core/notification"
	"github.com/jihokim/haksa/core/student"
	"github.com/jihokim/haksa/core/user"
)

// DB is an in-memory stand-in for the real database, used in tests.
type (
	DB struct {
		user          *userTable
		refreshToken  *refreshTokenTable
		student       *studentTable
		class         *classTable
		feedback      *feedbackTable
		grade         *gradeTable
		notification  *notificationTable
		consultation  *consultationTable
	}

	userTable struct {
		sync.RWMutex
		pkCount uint
		table   map[uint]*user.User
	}

	refreshTokenTable struct {
		sync.RWMutex
		table map[uint]*user.RefreshToken
	}

	studentTable struct {
		sync.RWMutex
		pkCount uint
		table   map[uint]*student.Student
	}

	classTable struct {
		sync.RWMutex
		pkCount uint
		table   map[uint]*class.Class
	}

	feedbackTable struct {
		sync.RWMutex
		pkCount uint
		table   map[uint]*feedback.Entry
	}

	gradeTable struct {
		sync.RWMutex
		pkCount uint
		table   map[uint]*grades.Grade
	}

	notificationTable struct {
		sync.RWMutex
		pkCount uint
		table   map[uint]*notification.Notification
	}

	consultationTable struct {
		sync.RWMutex
		pkCount uint
		table   map[uint]*consultation.Consultation
	}
)

func Open() (*DB, error) {
	db := &DB{
		user:         &userTable{table: make(map[uint]*user.User)},
		refreshToken: &refreshTokenTable{table: make(map[uint]*user.RefreshToken)},
		student:      &studentTable{table: make(map[uint]*student.Student)},
		class:        &classTable{table: make(map[uint]*class.Class)},
		feedback:     &feedbackTable{table: make(map[uint]*feedback.Entry)},
		grade:        &gradeTable{table: make(map[uint]*grades.Grade)},
		notification: &notificationTable{table: make(map[uint]*notification.Notification)},
		consultation: &consultationTable{table: make(map[uint]*consultation.Consultation)},
	}
	return db, nil
}
