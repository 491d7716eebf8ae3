package reports

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/angelmondragon/delatte-backend/pkg/db/models"
	"github.com/angelmondragon/delatte-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/delatte-backend/pkg/errors"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type reportRepository interface {
	Create(ctx context.Context, report *models.ReviewReport) error
	ReviewOwnership(ctx context.Context, reviewID uuid.UUID) (*ReviewOwnership, error)
	List(ctx context.Context, status *enums.ReportStatus) ([]Row, error)
	FindRow(ctx context.Context, id uuid.UUID) (*Row, error)
	SetStatus(ctx context.Context, id uuid.UUID, status enums.ReportStatus) error
}

type managerLookup interface {
	FindManagerBySubject(ctx context.Context, subject string) (*models.Manager, error)
}

// Service handles review moderation reports.
type Service interface {
	Create(ctx context.Context, subject string, input CreateInput) (*ReportDTO, error)
	List(ctx context.Context, status string) ([]ReportDTO, error)
	SetStatus(ctx context.Context, id uuid.UUID, status string) (*ReportDTO, error)
}

type service struct {
	repo     reportRepository
	managers managerLookup
}

func NewService(repo reportRepository, managers managerLookup) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("report repository required")
	}
	if managers == nil {
		return nil, fmt.Errorf("manager lookup required")
	}
	return &service{repo: repo, managers: managers}, nil
}

// Create files a pending report. Only the manager of the reviewed café may report.
func (s *service) Create(ctx context.Context, subject string, input CreateInput) (*ReportDTO, error) {
	if input.ReviewID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "review_id is required")
	}
	reason := strings.TrimSpace(input.Reason)
	if reason == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "reason is required")
	}
	if utf8.RuneCountInString(reason) > MaxReasonLength {
		return nil, pkgerrors.Newf(pkgerrors.CodeValidation, "reason must be at most %d characters", MaxReasonLength)
	}

	manager, err := s.managers.FindManagerBySubject(ctx, subject)
	if err != nil {
		return nil, notFoundOr(err, "manager not found", "load manager")
	}
	owner, err := s.repo.ReviewOwnership(ctx, input.ReviewID)
	if err != nil {
		return nil, notFoundOr(err, "review not found", "load review")
	}
	if owner.ManagerID == nil || *owner.ManagerID != manager.ID {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "review does not belong to your cafe")
	}

	report := &models.ReviewReport{
		ReviewID:  input.ReviewID,
		ManagerID: manager.ID,
		Reason:    reason,
		Status:    enums.ReportStatusPending,
	}
	if err := s.repo.Create(ctx, report); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create report")
	}
	return s.load(ctx, report.ID)
}

// List returns every report, or only those in status when it is non-empty.
func (s *service) List(ctx context.Context, status string) ([]ReportDTO, error) {
	var filter *enums.ReportStatus
	if status = strings.TrimSpace(status); status != "" {
		parsed, err := enums.ParseReportStatus(status)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid status filter")
		}
		filter = &parsed
	}
	rows, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list reports")
	}
	out := make([]ReportDTO, 0, len(rows))
	for _, row := range rows {
		out = append(out, fromRow(row))
	}
	return out, nil
}

func (s *service) SetStatus(ctx context.Context, id uuid.UUID, status string) (*ReportDTO, error) {
	parsed, err := enums.ParseReportStatus(strings.TrimSpace(status))
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid status")
	}
	if err := s.repo.SetStatus(ctx, id, parsed); err != nil {
		return nil, notFoundOr(err, "report not found", "update report")
	}
	return s.load(ctx, id)
}

func (s *service) load(ctx context.Context, id uuid.UUID) (*ReportDTO, error) {
	row, err := s.repo.FindRow(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, "report not found", "load report")
	}
	dto := fromRow(*row)
	return &dto, nil
}

func notFoundOr(err error, notFound, op string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return pkgerrors.New(pkgerrors.CodeNotFound, notFound)
	}
	if typed := pkgerrors.As(err); typed != nil {
		return typed
	}
	return pkgerrors.Wrap(pkgerrors.CodeDependency, err, op)
}
