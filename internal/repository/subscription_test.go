package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eduline/billing-service/internal/domain"
)

func newRecord(subID, custID, userID string) *domain.SubscriptionRecord {
	return &domain.SubscriptionRecord{
		StripeSubscriptionID: subID,
		StripeCustomerID:     custID,
		UserID:               userID,
		Plan:                 domain.PlanFamily,
		SeatsAllowed:         4,
		Billing:              domain.BillingMonthly,
		Status:               domain.SubscriptionStatusActive,
		CurrentPeriodEnd:     time.Now().Add(30 * 24 * time.Hour),
	}
}

func TestUpsertAndGet(t *testing.T) {
	repo := NewInMemorySubscriptionRepository()
	ctx := context.Background()

	require.NoError(t, repo.Upsert(ctx, newRecord("sub_1", "cus_1", "user_1")))

	rec, err := repo.GetByStripeID(ctx, "sub_1")
	require.NoError(t, err)
	assert.Equal(t, "user_1", rec.UserID)
	assert.Equal(t, domain.PlanFamily, rec.Plan)
	assert.False(t, rec.CreatedAt.IsZero())

	byUser, err := repo.GetByUserID(ctx, "user_1")
	require.NoError(t, err)
	assert.Equal(t, "sub_1", byUser.StripeSubscriptionID)

	byCust, err := repo.GetByStripeCustomerID(ctx, "cus_1")
	require.NoError(t, err)
	assert.Equal(t, "sub_1", byCust.StripeSubscriptionID)
}

func TestUpsertPreservesUserBinding(t *testing.T) {
	repo := NewInMemorySubscriptionRepository()
	ctx := context.Background()

	require.NoError(t, repo.Upsert(ctx, newRecord("sub_1", "cus_1", "user_1")))

	// Обновления из вебхуков не несут user_id и не должны его затирать
	update := newRecord("sub_1", "cus_1", "")
	update.Plan = domain.PlanPlus
	update.SeatsAllowed = 6
	require.NoError(t, repo.Upsert(ctx, update))

	rec, err := repo.GetByStripeID(ctx, "sub_1")
	require.NoError(t, err)
	assert.Equal(t, "user_1", rec.UserID)
	assert.Equal(t, domain.PlanPlus, rec.Plan)
	assert.Equal(t, 6, rec.SeatsAllowed)
}

func TestGetMissingRecord(t *testing.T) {
	repo := NewInMemorySubscriptionRepository()
	ctx := context.Background()

	_, err := repo.GetByStripeID(ctx, "sub_missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = repo.GetByUserID(ctx, "user_missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestMarkCanceledIsIdempotent(t *testing.T) {
	repo := NewInMemorySubscriptionRepository()
	ctx := context.Background()

	require.NoError(t, repo.Upsert(ctx, newRecord("sub_1", "cus_1", "user_1")))

	at := time.Now()
	require.NoError(t, repo.MarkCanceled(ctx, "sub_1", at))

	rec, err := repo.GetByStripeID(ctx, "sub_1")
	require.NoError(t, err)
	assert.True(t, rec.IsCanceled())
	require.NotNil(t, rec.CanceledAt)
	firstCanceledAt := *rec.CanceledAt

	// Повторная отмена не меняет время первой отмены
	require.NoError(t, repo.MarkCanceled(ctx, "sub_1", at.Add(time.Hour)))

	rec, err = repo.GetByStripeID(ctx, "sub_1")
	require.NoError(t, err)
	require.NotNil(t, rec.CanceledAt)
	assert.Equal(t, firstCanceledAt, *rec.CanceledAt)
}

func TestMarkCanceledMissingRecord(t *testing.T) {
	repo := NewInMemorySubscriptionRepository()
	err := repo.MarkCanceled(context.Background(), "sub_missing", time.Now())
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestContentUpsertAndCounts(t *testing.T) {
	repo := NewInMemoryContentRepository()
	ctx := context.Background()

	course := &domain.Course{Slug: "algebra-1", Title: "Algebra I", Subject: "math", GradeLevels: []int{7, 8}}
	require.NoError(t, repo.UpsertCourse(ctx, course))

	lesson := &domain.Lesson{Slug: "algebra-1-intro", CourseSlug: "algebra-1", Title: "Introduction", Position: 1}
	require.NoError(t, repo.UpsertLesson(ctx, lesson))

	courses, err := repo.CountCourses(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, courses)

	lessons, err := repo.CountLessons(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, lessons)
}

func TestLessonWithUnknownCourseRejected(t *testing.T) {
	repo := NewInMemoryContentRepository()
	lesson := &domain.Lesson{Slug: "orphan", CourseSlug: "missing-course", Title: "Orphan", Position: 1}
	err := repo.UpsertLesson(context.Background(), lesson)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}
