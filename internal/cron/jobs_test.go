package cron

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/angelmondragon/delatte-backend/internal/cafes"
	"github.com/angelmondragon/delatte-backend/internal/reports"
	"github.com/angelmondragon/delatte-backend/internal/reviews"
	"github.com/angelmondragon/delatte-backend/pkg/db/dbtest"
	"github.com/angelmondragon/delatte-backend/pkg/db/models"
	"github.com/angelmondragon/delatte-backend/pkg/enums"
	"github.com/angelmondragon/delatte-backend/pkg/schedule"
	"github.com/angelmondragon/delatte-backend/pkg/types"
)

func seedCafe(t *testing.T, conn *gorm.DB, name string, ratings ...int) *models.Cafe {
	t.Helper()
	cafe := &models.Cafe{Name: name, NormalizedName: name, Gallery: types.StringList{}, Schedule: schedule.WeeklySchedule{}, IsActive: true}
	require.NoError(t, conn.Create(cafe).Error)
	for _, r := range ratings {
		require.NoError(t, conn.Create(&models.Review{CafeID: cafe.ID, ClientID: uuid.New(), Rating: r}).Error)
	}
	return cafe
}

func averageOf(t *testing.T, conn *gorm.DB, id uuid.UUID) float64 {
	t.Helper()
	var cafe models.Cafe
	require.NoError(t, conn.First(&cafe, "id = ?", id).Error)
	return cafe.AverageRating
}

func TestRatingReconcileRepairsStaleAverages(t *testing.T) {
	conn := dbtest.Open(t)
	rated := seedCafe(t, conn, "luna", 5, 4, 3)
	empty := seedCafe(t, conn, "sol")
	require.NoError(t, conn.Model(&models.Cafe{}).Where("id = ?", empty.ID).UpdateColumn("average_rating", 4.5).Error)

	aggregator, err := reviews.NewAggregator(reviews.NewRepository(conn), nil)
	require.NoError(t, err)
	job, err := NewRatingReconcileJob(RatingReconcileJobParams{
		Logger:     testLogger(),
		Cafes:      cafes.NewRepository(conn),
		Aggregator: aggregator,
	})
	require.NoError(t, err)
	assert.Equal(t, "rating-reconcile", job.Name())

	require.NoError(t, job.Run(context.Background()))
	assert.InDelta(t, 4.0, averageOf(t, conn, rated.ID), 1e-9)
	assert.Zero(t, averageOf(t, conn, empty.ID))
}

func TestReportRetentionKeepsPendingReports(t *testing.T) {
	conn := dbtest.Open(t)
	cafe := seedCafe(t, conn, "luna", 2)
	var review models.Review
	require.NoError(t, conn.First(&review, "cafe_id = ?", cafe.ID).Error)

	old := time.Now().UTC().Add(-200 * 24 * time.Hour)
	fresh := time.Now().UTC().Add(-time.Hour)
	for _, r := range []models.ReviewReport{
		{ReviewID: review.ID, ManagerID: uuid.New(), Reason: "old dismissed", Status: enums.ReportStatusDismissed, CreatedAt: old},
		{ReviewID: review.ID, ManagerID: uuid.New(), Reason: "old reviewed", Status: enums.ReportStatusReviewed, CreatedAt: old},
		{ReviewID: review.ID, ManagerID: uuid.New(), Reason: "old pending", Status: enums.ReportStatusPending, CreatedAt: old},
		{ReviewID: review.ID, ManagerID: uuid.New(), Reason: "fresh dismissed", Status: enums.ReportStatusDismissed, CreatedAt: fresh},
	} {
		require.NoError(t, conn.Create(&r).Error)
	}

	job, err := NewReportRetentionJob(ReportRetentionJobParams{
		Logger:  testLogger(),
		Reports: reports.NewRepository(conn),
	})
	require.NoError(t, err)
	require.NoError(t, job.Run(context.Background()))

	var reasons []string
	require.NoError(t, conn.Model(&models.ReviewReport{}).Order("reason").Pluck("reason", &reasons).Error)
	assert.Equal(t, []string{"fresh dismissed", "old pending"}, reasons)
}

func TestJobConstructorsRequireDeps(t *testing.T) {
	_, err := NewRatingReconcileJob(RatingReconcileJobParams{Logger: testLogger()})
	assert.Error(t, err)
	_, err = NewReportRetentionJob(ReportRetentionJobParams{Logger: testLogger()})
	assert.Error(t, err)
}
