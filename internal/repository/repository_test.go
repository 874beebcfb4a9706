package repository

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"jobBoard/internal/database"
	"jobBoard/internal/jobs"
	"jobBoard/internal/plan"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)
	require.NoError(t, database.AutoMigrate(db))
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return db
}

func seedJob(t *testing.T, db *gorm.DB, id string, mutate func(*database.Job)) database.Job {
	t.Helper()
	job := database.Job{
		ID:                  id,
		Slug:                "job-" + id,
		Title:               "Automation Engineer",
		Company:             "Acme",
		Category:            "Engineering",
		PlanType:            string(plan.Standard),
		Status:              string(jobs.StatusPublished),
		StripePaymentStatus: string(jobs.PaymentPaid),
		Timestamp:           time.Now().Unix(),
	}
	if mutate != nil {
		mutate(&job)
	}
	require.NoError(t, db.Create(&job).Error)
	return job
}

func TestJobRepository_CreateDraftParsesSalaryAndSlug(t *testing.T) {
	db := newTestDB(t)
	repo := NewJobRepository(db)

	listing := jobs.Listing{
		ID:      "abc123def456",
		Title:   "Senior Zapier Architect",
		Company: "Flowly",
		Salary:  "$80/hr - $120/hr",
		Tags:    []string{"Zapier"},
	}
	featured, _ := plan.Lookup(plan.FeaturedPro)
	job, err := repo.CreateDraft(context.Background(), listing, 7, featured)
	require.NoError(t, err)

	assert.Equal(t, "senior-zapier-architect-abc123def456", job.Slug)
	assert.Equal(t, string(jobs.StatusDraft), job.Status)
	assert.Equal(t, string(jobs.PaymentUnpaid), job.StripePaymentStatus)
	assert.True(t, job.IsFeatured)
	assert.Equal(t, 149, job.PlanPrice)
	assert.Equal(t, int64(80), job.SalaryMin)
	assert.Equal(t, int64(120), job.SalaryMax)
	assert.Equal(t, string(jobs.PeriodHour), job.SalaryPeriod)

	stored, err := repo.Get(context.Background(), listing.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"Zapier"}, []string(stored.Tags))
	assert.Equal(t, uint(7), stored.EmployerID)
}

func TestJobRepository_ListPublishedSkipsDrafts(t *testing.T) {
	db := newTestDB(t)
	repo := NewJobRepository(db)
	seedJob(t, db, "pub1", nil)
	seedJob(t, db, "draft1", func(j *database.Job) { j.Status = string(jobs.StatusDraft) })

	list, err := repo.ListPublished(context.Background())
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "pub1", list[0].ID)

	byID, err := repo.ListByIDs(context.Background(), []string{"pub1", "draft1", "missing"})
	require.NoError(t, err)
	require.Len(t, byID, 1)
}

func TestJobRepository_Increment(t *testing.T) {
	db := newTestDB(t)
	repo := NewJobRepository(db)
	seedJob(t, db, "j1", func(j *database.Job) { j.Views = 4 })

	v, err := repo.IncrementViews(context.Background(), "j1")
	require.NoError(t, err)
	assert.Equal(t, int64(5), v)

	m, err := repo.IncrementMatches(context.Background(), "j1", 3)
	require.NoError(t, err)
	assert.Equal(t, int64(3), m)

	_, err = repo.IncrementViews(context.Background(), "nope")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestJobRepository_DeleteCascadesEngagement(t *testing.T) {
	db := newTestDB(t)
	repo := NewJobRepository(db)
	eng := NewEngagementRepository(db)
	seedJob(t, db, "j1", nil)

	_, saved, err := eng.ToggleSaved(context.Background(), 1, "j1")
	require.NoError(t, err)
	require.True(t, saved)
	_, err = eng.Apply(context.Background(), 1, "j1")
	require.NoError(t, err)

	require.NoError(t, repo.Delete(context.Background(), "j1"))
	assert.ErrorIs(t, repo.Delete(context.Background(), "j1"), ErrNotFound)

	ids, err := eng.SavedIDs(context.Background(), 1)
	require.NoError(t, err)
	assert.Empty(t, ids)
	apps, err := eng.Applications(context.Background(), 1)
	require.NoError(t, err)
	assert.Empty(t, apps)
}

func TestEngagement_ToggleSaved(t *testing.T) {
	db := newTestDB(t)
	eng := NewEngagementRepository(db)
	seedJob(t, db, "j1", nil)
	seedJob(t, db, "j2", nil)

	ids, saved, err := eng.ToggleSaved(context.Background(), 1, "j1")
	require.NoError(t, err)
	assert.True(t, saved)
	assert.Equal(t, []string{"j1"}, ids)

	ids, _, err = eng.ToggleSaved(context.Background(), 1, "j2")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"j1", "j2"}, ids)

	ids, saved, err = eng.ToggleSaved(context.Background(), 1, "j1")
	require.NoError(t, err)
	assert.False(t, saved)
	assert.Equal(t, []string{"j2"}, ids)

	_, _, err = eng.ToggleSaved(context.Background(), 1, "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestEngagement_UnpublishedJobsAreNotFound(t *testing.T) {
	db := newTestDB(t)
	repo := NewJobRepository(db)
	eng := NewEngagementRepository(db)
	ctx := context.Background()
	seedJob(t, db, "d1", func(j *database.Job) {
		j.Status = string(jobs.StatusDraft)
		j.StripePaymentStatus = string(jobs.PaymentUnpaid)
	})
	seedJob(t, db, "r1", func(j *database.Job) { j.Status = string(jobs.StatusPendingReview) })

	for _, id := range []string{"d1", "r1"} {
		_, _, err := eng.ToggleSaved(ctx, 1, id)
		assert.ErrorIs(t, err, ErrNotFound, id)
		_, err = eng.Apply(ctx, 1, id)
		assert.ErrorIs(t, err, ErrNotFound, id)
		_, err = repo.IncrementViews(ctx, id)
		assert.ErrorIs(t, err, ErrNotFound, id)
		_, err = repo.IncrementMatches(ctx, id, 2)
		assert.ErrorIs(t, err, ErrNotFound, id)
	}

	var counters struct{ Views, Matches int64 }
	require.NoError(t, db.Model(&database.Job{}).Select("SUM(views) AS views, SUM(matches) AS matches").Scan(&counters).Error)
	assert.Zero(t, counters.Views)
	assert.Zero(t, counters.Matches)

	ids, err := eng.SavedIDs(ctx, 1)
	require.NoError(t, err)
	assert.Empty(t, ids)
}

func TestEngagement_UnsaveAfterUnpublish(t *testing.T) {
	db := newTestDB(t)
	eng := NewEngagementRepository(db)
	ctx := context.Background()
	seedJob(t, db, "j1", nil)

	_, saved, err := eng.ToggleSaved(ctx, 1, "j1")
	require.NoError(t, err)
	require.True(t, saved)

	require.NoError(t, db.Model(&database.Job{}).Where("id = ?", "j1").Update("status", string(jobs.StatusDraft)).Error)

	ids, saved, err := eng.ToggleSaved(ctx, 1, "j1")
	require.NoError(t, err)
	assert.False(t, saved)
	assert.Empty(t, ids)
}

func TestEngagement_ApplicationLifecycle(t *testing.T) {
	db := newTestDB(t)
	eng := NewEngagementRepository(db)
	seedJob(t, db, "j1", nil)
	ctx := context.Background()

	app, err := eng.Apply(ctx, 1, "j1")
	require.NoError(t, err)
	assert.Equal(t, string(jobs.ApplicationApplied), app.Status)

	again, err := eng.Apply(ctx, 1, "j1")
	require.NoError(t, err)
	assert.Equal(t, app.ID, again.ID)

	_, err = eng.MoveApplication(ctx, 1, app.ID, jobs.ApplicationHired, nil)
	assert.ErrorIs(t, err, ErrInvalidTransition)

	notes := "phone screen booked"
	moved, err := eng.MoveApplication(ctx, 1, app.ID, jobs.ApplicationInterviewing, &notes)
	require.NoError(t, err)
	assert.Equal(t, string(jobs.ApplicationInterviewing), moved.Status)
	assert.Equal(t, notes, moved.Notes)

	_, err = eng.MoveApplication(ctx, 2, app.ID, jobs.ApplicationOffer, nil)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestEngagement_Alerts(t *testing.T) {
	db := newTestDB(t)
	eng := NewEngagementRepository(db)
	ctx := context.Background()

	require.NoError(t, eng.CreateAlert(ctx, &database.Alert{UserID: 1, Query: "zapier"}))
	require.NoError(t, eng.CreateAlert(ctx, &database.Alert{UserID: 2, Category: "Operations"}))

	mine, err := eng.Alerts(ctx, 1)
	require.NoError(t, err)
	require.Len(t, mine, 1)

	all, err := eng.AllAlerts(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	assert.ErrorIs(t, eng.DeleteAlert(ctx, 2, mine[0].ID), ErrNotFound)
	require.NoError(t, eng.DeleteAlert(ctx, 1, mine[0].ID))
}

func TestSubscriber_UpsertIsCaseInsensitive(t *testing.T) {
	db := newTestDB(t)
	repo := NewSubscriberRepository(db)
	ctx := context.Background()

	first, err := repo.Upsert(ctx, "Ops@Example.com", "automation")
	require.NoError(t, err)
	second, err := repo.Upsert(ctx, " ops@example.com ", "engineering")
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, "ops@example.com", second.Email)
	assert.Equal(t, "engineering", second.Preference)

	var count int64
	require.NoError(t, db.Model(&database.Subscriber{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)

	require.NoError(t, repo.Delete(ctx, "OPS@example.com"))
	assert.ErrorIs(t, repo.Delete(ctx, "ops@example.com"), ErrNotFound)
}

func TestCompany_UpsertOwnership(t *testing.T) {
	db := newTestDB(t)
	repo := NewCompanyRepository(db)
	ctx := context.Background()

	created, err := repo.Upsert(ctx, 1, database.Company{Name: "Flowly", Website: "https://flowly.io"})
	require.NoError(t, err)

	updated, err := repo.Upsert(ctx, 1, database.Company{Name: "flowly", Website: "https://flowly.dev"})
	require.NoError(t, err)
	assert.Equal(t, created.ID, updated.ID)

	_, err = repo.Upsert(ctx, 2, database.Company{Name: "Flowly"})
	assert.ErrorIs(t, err, ErrNotOwner)

	got, err := repo.GetByName(ctx, "FLOWLY")
	require.NoError(t, err)
	assert.Equal(t, "https://flowly.dev", got.Website)

	_, err = repo.GetByName(ctx, "nobody")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestStats_Compute(t *testing.T) {
	db := newTestDB(t)
	subs := NewSubscriberRepository(db)
	ctx := context.Background()

	_, err := subs.Upsert(ctx, "a@example.com", "automation")
	require.NoError(t, err)
	_, err = subs.Upsert(ctx, "b@example.com", "automation")
	require.NoError(t, err)
	old := database.Subscriber{Email: "c@example.com", Preference: "ops", CreatedAt: time.Now().Add(-30 * 24 * time.Hour)}
	require.NoError(t, db.Create(&old).Error)

	seedJob(t, db, "j1", func(j *database.Job) { j.IsFeatured = true; j.Views = 10; j.Matches = 2 })
	seedJob(t, db, "j2", func(j *database.Job) { j.Views = 5 })
	seedJob(t, db, "j3", func(j *database.Job) { j.Status = string(jobs.StatusDraft) })

	st, err := NewStatsRepository(db).Compute(ctx)
	require.NoError(t, err)

	assert.Equal(t, int64(3), st.Subscribers)
	assert.Equal(t, int64(2), st.RecentSubscribers)
	assert.Equal(t, int64(2), st.SubscribersByPref["automation"])
	assert.Equal(t, int64(3), st.Jobs)
	assert.Equal(t, int64(2), st.JobsByStatus["published"])
	assert.Equal(t, 33, st.FeaturedSharePercent)
	assert.Equal(t, int64(15), st.TotalViews)
	assert.Equal(t, int64(2), st.TotalMatches)
}

func TestJobRepository_PublishRequiresPaidReview(t *testing.T) {
	db := newTestDB(t)
	repo := NewJobRepository(db)
	ctx := context.Background()

	seedJob(t, db, "review1", func(j *database.Job) {
		j.Status = string(jobs.StatusPendingReview)
	})
	seedJob(t, db, "draft1", func(j *database.Job) {
		j.Status = string(jobs.StatusDraft)
		j.StripePaymentStatus = string(jobs.PaymentUnpaid)
	})

	at := time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)
	job, err := repo.Publish(ctx, "review1", at)
	require.NoError(t, err)
	assert.Equal(t, string(jobs.StatusPublished), job.Status)
	require.NotNil(t, job.PublishedAt)
	assert.Equal(t, at.Unix(), job.Timestamp)

	_, err = repo.Publish(ctx, "draft1", at)
	assert.ErrorIs(t, err, ErrInvalidTransition)

	_, err = repo.Publish(ctx, "review1", at)
	assert.ErrorIs(t, err, ErrInvalidTransition, "already published")

	_, err = repo.Publish(ctx, "nope", at)
	assert.ErrorIs(t, err, ErrNotFound)
}
