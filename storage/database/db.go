package database

import (
	"net/url"
	"time"

	"github.com/pkg/errors"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/jihokim/haksa/core"
	"github.com/jihokim/haksa/core/class"
	"github.com/jihokim/haksa/core/consultation"
	"github.com/jihokim/haksa/core/feedback"
	"github.com/jihokim/haksa/core/grades"
	"github.com/jihokim/haksa/core/notification"
	"github.com/jihokim/haksa/core/student"
	"github.com/jihokim/haksa/core/user"
)

func Open(conf *core.Config) (*gorm.DB, error) {
	sslMode := "require"
	if conf.Database.DisableTLS {
		sslMode = "disable"
	}
	q := make(url.Values)
	q.Set("sslmode", sslMode)
	q.Set("timezone", "utc")

	u := url.URL{
		Scheme:   conf.Database.Engine,
		User:     url.UserPassword(conf.Database.User, conf.Database.Password),
		Host:     conf.Database.Address(),
		Path:     conf.Database.Name,
		RawQuery: q.Encode(),
	}

	logLevel := gormlogger.Silent
	if conf.Debug {
		logLevel = gormlogger.Info
	}
	db, err := gorm.Open(postgres.Open(u.String()), &gorm.Config{
		Logger: gormlogger.Default.LogMode(logLevel),
	})
	if err != nil {
		return nil, errors.Wrap(err, "opening database")
	}
	return db, nil
}

// Ping waits for the database to be ready. Waits 100ms longer between each attempt.
func Ping(db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return errors.Wrap(err, "getting sql.DB handle")
	}

	maxAttempts := 30
	for attempts := 1; attempts <= maxAttempts; attempts++ {
		err = sqlDB.Ping()
		if err == nil {
			break
		}
		time.Sleep(time.Duration(attempts) * 100 * time.Millisecond)
	}
	return errors.Wrap(err, "DB ping timeout")
}

func Migrate(db *gorm.DB) error {
	err := db.AutoMigrate(
		&user.User{},
		&user.RefreshToken{},
		&class.Class{},
		&student.Student{},
		&feedback.Entry{},
		&grades.Grade{},
		&notification.Notification{},
		&consultation.Consultation{},
	)
	return errors.Wrap(err, "migrating database")
}
