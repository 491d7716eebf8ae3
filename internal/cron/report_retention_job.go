package cron

import (
	"context"
	"fmt"
	"time"

	"github.com/angelmondragon/delatte-backend/pkg/logger"
)

const defaultReportRetention = 90 * 24 * time.Hour

type reportPurger interface {
	DeleteResolvedBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

type ReportRetentionJobParams struct {
	Logger    *logger.Logger
	Reports   reportPurger
	Retention time.Duration
}

// NewReportRetentionJob deletes resolved moderation reports once they age out.
// Pending reports are never touched.
func NewReportRetentionJob(params ReportRetentionJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Reports == nil {
		return nil, fmt.Errorf("report repository required")
	}
	retention := params.Retention
	if retention <= 0 {
		retention = defaultReportRetention
	}
	return &reportRetentionJob{
		logg:      params.Logger,
		reports:   params.Reports,
		retention: retention,
		now:       time.Now,
	}, nil
}

type reportRetentionJob struct {
	logg      *logger.Logger
	reports   reportPurger
	retention time.Duration
	now       func() time.Time
}

func (j *reportRetentionJob) Name() string { return "report-retention" }

func (j *reportRetentionJob) Run(ctx context.Context) error {
	cutoff := j.now().UTC().Add(-j.retention)
	deleted, err := j.reports.DeleteResolvedBefore(ctx, cutoff)
	if err != nil {
		return fmt.Errorf("report retention: %w", err)
	}
	j.logg.Info(j.logg.WithFields(ctx, map[string]any{
		"cutoff":       cutoff,
		"rows_deleted": deleted,
	}), "report retention cleanup complete")
	return nil
}
