package dummydb

import (
	"context"
	"sort"
	"time"

	"github.com/jihokim/haksa/core/feedback"
)

type feedbackRepository struct {
	db *feedbackTable
}

var _ feedback.Repository = (*feedbackRepository)(nil) // interface compliance check

func NewFeedbackRepository(db *DB) feedback.Repository {
	return &feedbackRepository{db: db.feedback}
}

func (repo *feedbackRepository) find(studentID uint, schoolYear int, category string) *feedback.Entry {
	for _, e := range repo.db.table {
		if e.StudentID == studentID && e.SchoolYear == schoolYear && e.Category == category {
			return e
		}
	}
	return nil
}

func (repo *feedbackRepository) CreateEntries(_ context.Context, entries []feedback.Entry) ([]feedback.Entry, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	// uniqueness on (student, year, category): reject the whole batch
	for _, e := range entries {
		if repo.find(e.StudentID, e.SchoolYear, e.Category) != nil {
			return nil, feedback.ErrEntryExists
		}
	}

	created := make([]feedback.Entry, 0, len(entries))
	for _, e := range entries {
		e := e
		repo.db.pkCount++
		e.ID = repo.db.pkCount
		repo.db.table[e.ID] = &e
		created = append(created, e)
	}
	return created, nil
}

func (repo *feedbackRepository) GetEntry(_ context.Context, studentID uint, schoolYear int, category string) (feedback.Entry, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if e := repo.find(studentID, schoolYear, category); e != nil {
		return *e, nil
	}
	return feedback.Entry{}, feedback.ErrNotFound
}

func (repo *feedbackRepository) QueryEntries(_ context.Context, studentID uint, schoolYear int) ([]feedback.Entry, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	var entries []feedback.Entry
	for _, e := range repo.db.table {
		if e.StudentID == studentID && e.SchoolYear == schoolYear {
			entries = append(entries, *e)
		}
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Category < entries[j].Category })
	return entries, nil
}

// UpdateEntries mirrors the real conditional-update transaction: all items
// are matched against their version tokens first, and nothing is written
// unless every match succeeds.
func (repo *feedbackRepository) UpdateEntries(_ context.Context, studentID uint, schoolYear int, items []feedback.UpdateItem) error {
	repo.db.Lock()
	defer repo.db.Unlock()

	matched := make([]*feedback.Entry, 0, len(items))
	for _, item := range items {
		e := repo.find(studentID, schoolYear, item.Category)
		if e == nil || !e.UpdatedAt.Equal(item.UpdatedAt) {
			return feedback.ErrStaleWrite
		}
		matched = append(matched, e)
	}

	now := time.Now().UTC()
	for i, item := range items {
		matched[i].Content = item.Content
		matched[i].UpdatedAt = now
	}
	return nil
}
