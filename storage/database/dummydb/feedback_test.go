package dummydb

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/jihokim/haksa/core/feedback"
)

func Test_feedbackRepository_CreateEntries(t *testing.T) {
	db, err := Open()
	if err != nil {
		t.Fatalf("opening dummy db: %v", err)
	}
	repo := NewFeedbackRepository(db)
	ctx := context.Background()

	now := time.Now().UTC()
	created, err := repo.CreateEntries(ctx, []feedback.Entry{
		{StudentID: 1, SchoolYear: 2026, Category: feedback.CategoryBehavior, Content: "calm", CreatedAt: now, UpdatedAt: now},
		{StudentID: 1, SchoolYear: 2026, Category: feedback.CategoryAcademic, Content: "strong", CreatedAt: now, UpdatedAt: now},
	})
	assert.NoError(t, err)
	assert.Len(t, created, 2)
	assert.NotEqual(t, created[0].ID, created[1].ID)

	// every entry of the batch must be stored as its own record
	behavior, err := repo.GetEntry(ctx, 1, 2026, feedback.CategoryBehavior)
	assert.NoError(t, err)
	assert.Equal(t, "calm", behavior.Content)

	academic, err := repo.GetEntry(ctx, 1, 2026, feedback.CategoryAcademic)
	assert.NoError(t, err)
	assert.Equal(t, "strong", academic.Content)

	entries, err := repo.QueryEntries(ctx, 1, 2026)
	assert.NoError(t, err)
	assert.Len(t, entries, 2)
}
