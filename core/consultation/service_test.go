package consultation_test

import (
	"context"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"

	"github.com/jihokim/haksa/core/consultation"
	"github.com/jihokim/haksa/core/student"
	"github.com/jihokim/haksa/storage/database/dummydb"
)

type (
	directoryStub struct {
		students map[uint]student.Student
	}

	sinkStub struct {
		recorded map[uint][]string
	}

	loggerStub struct{}
)

func (dir *directoryStub) GetOne(id uint) (student.Student, error) {
	if st, ok := dir.students[id]; ok {
		return st, nil
	}
	return student.Student{}, student.ErrNotFound
}

func (sink *sinkStub) Record(userID uint, notifType, message string) error {
	sink.recorded[userID] = append(sink.recorded[userID], message)
	return nil
}

func (loggerStub) Enable(bool)                  {}
func (loggerStub) Debug(string, ...interface{}) {}
func (loggerStub) Info(string, ...interface{})  {}
func (loggerStub) Warn(string, ...interface{})  {}
func (loggerStub) Error(string, ...interface{}) {}
func (loggerStub) Fatal(string, ...interface{}) {}

func setup(t *testing.T) (*consultation.Service, *sinkStub) {
	t.Helper()

	db, err := dummydb.Open()
	if err != nil {
		t.Fatalf("opening dummy db: %v", err)
	}
	dir := &directoryStub{students: map[uint]student.Student{1: {ID: 1, UserID: 10}}}
	sink := &sinkStub{recorded: make(map[uint][]string)}
	return consultation.NewService(dummydb.NewConsultationRepository(db), dir, sink, loggerStub{}), sink
}

func Test_Service_Request(t *testing.T) {
	svc, sink := setup(t)
	ctx := context.Background()

	nc := consultation.NewConsultation{
		StudentID:   1,
		TeacherID:   20,
		Subject:     "Midterm results",
		ScheduledAt: time.Now().Add(48 * time.Hour),
	}

	t.Run("unknown student rejected", func(t *testing.T) {
		bad := nc
		bad.StudentID = 99
		_, err := svc.Request(ctx, 30, bad)
		assert.Equal(t, student.ErrNotFound, errors.Cause(err))
	})

	t.Run("created pending with teacher notified", func(t *testing.T) {
		c, err := svc.Request(ctx, 30, nc)
		assert.NoError(t, err)
		assert.Equal(t, consultation.StatusPending, c.Status)
		assert.Equal(t, uint(30), c.RequesterID)
		assert.Len(t, sink.recorded[20], 1)
	})
}

func Test_Service_UpdateStatus(t *testing.T) {
	svc, sink := setup(t)
	ctx := context.Background()

	c, err := svc.Request(ctx, 30, consultation.NewConsultation{
		StudentID:   1,
		TeacherID:   20,
		Subject:     "Midterm results",
		ScheduledAt: time.Now().Add(48 * time.Hour),
	})
	if err != nil {
		t.Fatalf("requesting consultation: %v", err)
	}

	t.Run("only the addressed teacher may update", func(t *testing.T) {
		_, err := svc.UpdateStatus(ctx, c.ID, 21, consultation.UpdateConsultationStatus{Status: consultation.StatusApproved})
		assert.Equal(t, consultation.ErrNotFound, errors.Cause(err))
	})

	t.Run("approved and requester notified", func(t *testing.T) {
		updated, err := svc.UpdateStatus(ctx, c.ID, 20, consultation.UpdateConsultationStatus{Status: consultation.StatusApproved})
		assert.NoError(t, err)
		assert.Equal(t, consultation.StatusApproved, updated.Status)
		assert.Len(t, sink.recorded[30], 1)
	})

	t.Run("listed for both parties", func(t *testing.T) {
		forTeacher, err := svc.QueryForTeacher(ctx, 20)
		assert.NoError(t, err)
		assert.Len(t, forTeacher, 1)

		forRequester, err := svc.QueryForRequester(ctx, 30)
		assert.NoError(t, err)
		assert.Len(t, forRequester, 1)
	})
}

func Test_UpdateConsultationStatus_Validate(t *testing.T) {
	validate := validator.New()

	tests := []struct {
		name    string
		status  string
		want    string
		wantErr bool
	}{
		{name: "normalized", status: " approved ", want: consultation.StatusApproved},
		{name: "done", status: "DONE", want: consultation.StatusDone},
		{name: "unknown", status: "MAYBE", wantErr: true},
		{name: "empty", status: "", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			us := consultation.UpdateConsultationStatus{Status: tt.status}
			err := us.Validate(validate)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			assert.NoError(t, err)
			assert.Equal(t, tt.want, us.Status)
		})
	}
}
