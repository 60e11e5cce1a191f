package gormrepos

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pkg/errors"
	"gorm.io/gorm"

	"github.com/jihokim/haksa/core/feedback"
)

// pgUniqueViolation is the postgres error code for unique-index collisions.
const pgUniqueViolation = "23505"

type feedbackRepository struct {
	db *gorm.DB
}

var _ feedback.Repository = (*feedbackRepository)(nil) // interface compliance check

func NewFeedbackRepository(db *gorm.DB) *feedbackRepository {
	return &feedbackRepository{db: db}
}

func (repo feedbackRepository) CreateEntries(ctx context.Context, entries []feedback.Entry) ([]feedback.Entry, error) {
	if err := repo.db.WithContext(ctx).Create(&entries).Error; err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
			return nil, feedback.ErrEntryExists
		}
		return nil, errors.Wrap(err, "inserting feedback entries")
	}
	return entries, nil
}

func (repo feedbackRepository) GetEntry(ctx context.Context, studentID uint, schoolYear int, category string) (feedback.Entry, error) {
	var entry feedback.Entry
	err := repo.db.WithContext(ctx).
		Where("student_id = ? AND school_year = ? AND category = ?", studentID, schoolYear, category).
		First(&entry).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return feedback.Entry{}, feedback.ErrNotFound
		}
		return feedback.Entry{}, errors.Wrap(err, "finding feedback entry")
	}
	return entry, nil
}

func (repo feedbackRepository) QueryEntries(ctx context.Context, studentID uint, schoolYear int) ([]feedback.Entry, error) {
	var entries []feedback.Entry
	err := repo.db.WithContext(ctx).
		Where("student_id = ? AND school_year = ?", studentID, schoolYear).
		Order("category ASC").
		Find(&entries).Error
	if err != nil {
		return nil, errors.Wrap(err, "querying feedback entries")
	}
	return entries, nil
}

// UpdateEntries applies the whole batch inside one transaction. Every item is
// a conditional update: the row must still carry the updated_at the client
// last read. A zero row count means someone else wrote in between; the
// transaction is rolled back so no row of the batch is left half-applied.
func (repo feedbackRepository) UpdateEntries(ctx context.Context, studentID uint, schoolYear int, items []feedback.UpdateItem) error {
	now := time.Now().UTC()

	return repo.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, item := range items {
			res := tx.Model(&feedback.Entry{}).
				Where(
					"student_id = ? AND school_year = ? AND category = ? AND updated_at = ?",
					studentID, schoolYear, item.Category, item.UpdatedAt,
				).
				Updates(map[string]interface{}{
					"content":    item.Content,
					"updated_at": now,
				})
			if res.Error != nil {
				return errors.Wrap(res.Error, "updating feedback entry")
			}
			if res.RowsAffected == 0 {
				return feedback.ErrStaleWrite
			}
		}
		return nil
	})
}
