package feedback

import (
	"context"
	"fmt"
	"net/mail"
	"time"

	"github.com/pkg/errors"

	"github.com/jihokim/haksa/core"
	"github.com/jihokim/haksa/core/student"
)

// NotificationType tags feedback notifications in the notification store.
const NotificationType = "FEEDBACK"

var (
	// errors
	ErrNotFound = errors.New("feedback not found")
	// ErrStaleWrite is returned when a conditional update matched no row:
	// the entry was modified elsewhere since the client last read it.
	ErrStaleWrite = errors.New("feedback was modified in another session since it was last read")
	// ErrEntryExists is returned by the create path when a requested category
	// already has an entry for the student and school year.
	ErrEntryExists = errors.New("feedback already exists for this category")
)

type (
	// StudentDirectory resolves a student to their record and owning user.
	StudentDirectory interface {
		GetOne(id uint) (student.Student, error)
		GetByUserID(userID uint) (student.Student, error)
		GetByParentUserID(parentUserID uint) (student.Student, error)
	}

	// NotificationSink records "feedback changed" events for a user.
	// Failures are the caller's to log; they never abort the write path.
	NotificationSink interface {
		Record(userID uint, notifType, message string) error
	}

	Repository interface {
		// CreateEntries inserts the batch in a single transaction.
		// A unique-index collision on (student, year, category) maps to ErrEntryExists.
		CreateEntries(ctx context.Context, entries []Entry) ([]Entry, error)
		GetEntry(ctx context.Context, studentID uint, schoolYear int, category string) (Entry, error)
		QueryEntries(ctx context.Context, studentID uint, schoolYear int) ([]Entry, error)
		// UpdateEntries applies the batch in a single transaction. Every item
		// becomes a conditional update matching (student, year, category) AND
		// the stored updated_at against the item's token; any item affecting
		// zero rows rolls the whole transaction back with ErrStaleWrite.
		UpdateEntries(ctx context.Context, studentID uint, schoolYear int, items []UpdateItem) error
	}

	ServiceInterface interface {
		Create(ctx context.Context, studentID uint, items []NewEntryItem, schoolYear int) ([]Entry, error)
		Update(ctx context.Context, studentID uint, items []UpdateItem, schoolYear int) error
		Query(ctx context.Context, studentID uint, schoolYear int) ([]Entry, error)
		QueryMine(ctx context.Context, userID uint, schoolYear int) ([]Entry, error)
		QueryForChild(ctx context.Context, parentUserID uint, schoolYear int) ([]Entry, error)
	}

	Service struct {
		repo     Repository
		students StudentDirectory
		notifier NotificationSink
		mailSvc  core.EmailService
		logger   core.Logger
	}
)

var _ ServiceInterface = (*Service)(nil)

func NewService(
	repo Repository,
	students StudentDirectory,
	notifier NotificationSink,
	mailSvc core.EmailService,
	logger core.Logger,
) *Service {
	return &Service{
		repo:     repo,
		students: students,
		notifier: notifier,
		mailSvc:  mailSvc,
		logger:   logger,
	}
}

// Create inserts one entry per submitted category, rejecting the whole batch
// if any category already has an entry for the student and school year.
func (svc *Service) Create(ctx context.Context, studentID uint, items []NewEntryItem, schoolYear int) ([]Entry, error) {
	if err := checkRequired(studentID, len(items), schoolYear); err != nil {
		return nil, err
	}
	seen := make(map[string]bool, len(items))
	for _, item := range items {
		if err := checkCategory(item.Category, seen); err != nil {
			return nil, err
		}
	}

	st, err := svc.students.GetOne(studentID)
	if err != nil {
		return nil, err
	}

	for _, item := range items {
		if _, err = svc.repo.GetEntry(ctx, studentID, schoolYear, item.Category); err == nil {
			return nil, errors.Wrapf(ErrEntryExists, "category %s", item.Category)
		} else if errors.Cause(err) != ErrNotFound {
			return nil, errors.Wrap(err, "checking existing feedback")
		}
	}

	now := time.Now().UTC()
	entries := make([]Entry, 0, len(items))
	for _, item := range items {
		entries = append(entries, Entry{
			StudentID:  studentID,
			SchoolYear: schoolYear,
			Category:   item.Category,
			Content:    item.Content,
			CreatedAt:  now,
			UpdatedAt:  now,
		})
	}
	entries, err = svc.repo.CreateEntries(ctx, entries)
	if err != nil {
		return nil, err
	}

	svc.notify(st, schoolYear, "Feedback for school year %d has been entered.")
	return entries, nil
}

// Update applies a batch of per-category edits all-or-nothing. Each item's
// UpdatedAt token must match the stored value or the whole batch fails with
// ErrStaleWrite and no row is modified.
func (svc *Service) Update(ctx context.Context, studentID uint, items []UpdateItem, schoolYear int) error {
	if err := checkRequired(studentID, len(items), schoolYear); err != nil {
		return err
	}
	seen := make(map[string]bool, len(items))
	for _, item := range items {
		if err := checkCategory(item.Category, seen); err != nil {
			return err
		}
		if item.UpdatedAt.IsZero() {
			return core.NewValidationError(nil, core.FieldError{
				Field: "updated_at",
				Error: fmt.Sprintf("missing last-read timestamp for category %s", item.Category),
			})
		}
	}

	st, err := svc.students.GetOne(studentID)
	if err != nil {
		return err
	}

	if err = svc.repo.UpdateEntries(ctx, studentID, schoolYear, items); err != nil {
		return err
	}

	svc.notify(st, schoolYear, "Feedback for school year %d has been updated.")
	return nil
}

func (svc *Service) Query(ctx context.Context, studentID uint, schoolYear int) ([]Entry, error) {
	if err := checkRequired(studentID, 1, schoolYear); err != nil {
		return nil, err
	}
	if _, err := svc.students.GetOne(studentID); err != nil {
		return nil, err
	}
	return svc.repo.QueryEntries(ctx, studentID, schoolYear)
}

// QueryMine returns the feedback of the student owned by userID.
func (svc *Service) QueryMine(ctx context.Context, userID uint, schoolYear int) ([]Entry, error) {
	if err := checkRequired(userID, 1, schoolYear); err != nil {
		return nil, err
	}
	st, err := svc.students.GetByUserID(userID)
	if err != nil {
		return nil, err
	}
	return svc.repo.QueryEntries(ctx, st.ID, schoolYear)
}

// QueryForChild returns the feedback of the student linked to a parent account.
func (svc *Service) QueryForChild(ctx context.Context, parentUserID uint, schoolYear int) ([]Entry, error) {
	if err := checkRequired(parentUserID, 1, schoolYear); err != nil {
		return nil, err
	}
	st, err := svc.students.GetByParentUserID(parentUserID)
	if err != nil {
		return nil, err
	}
	return svc.repo.QueryEntries(ctx, st.ID, schoolYear)
}

// notify records a notification and emails the student's owning user.
// Both are best-effort: the feedback write has already committed and a
// failed side effect must not fail the request.
func (svc *Service) notify(st student.Student, schoolYear int, format string) {
	msg := fmt.Sprintf(format, schoolYear)
	if err := svc.notifier.Record(st.UserID, NotificationType, msg); err != nil {
		svc.logger.Error(fmt.Sprintf("recording feedback notification: %v", err), err)
	}
	svc.mailSvc.SendMessages(&core.EmailMessage{
		To:      []mail.Address{{Name: st.User.Name, Address: st.User.Email}},
		Subject: "Feedback updated",
		BodyStr: fmt.Sprintf("%s: %s", st.User.Name, msg),
	})
}

func checkRequired(studentID uint, itemCount, schoolYear int) error {
	var flds []core.FieldError
	if studentID == 0 {
		flds = append(flds, core.FieldError{Field: "student_id", Error: "this field is required"})
	}
	if itemCount == 0 {
		flds = append(flds, core.FieldError{Field: "feedback", Error: "this field is required"})
	}
	if schoolYear == 0 {
		flds = append(flds, core.FieldError{Field: "school_year", Error: "this field is required"})
	}
	if flds != nil {
		return core.NewValidationError(nil, flds...)
	}
	return nil
}

// checkCategory validates one item's category against the closed enumeration.
// A batch may name each category at most once.
func checkCategory(category string, seen map[string]bool) error {
	if !ValidCategory(category) {
		return core.NewValidationError(nil, core.FieldError{
			Field: "category",
			Error: fmt.Sprintf("missing or invalid category: %q", category),
		})
	}
	if seen[category] {
		return core.NewValidationError(nil, core.FieldError{
			Field: "category",
			Error: fmt.Sprintf("duplicate category in batch: %s", category),
		})
	}
	seen[category] = true
	return nil
}
