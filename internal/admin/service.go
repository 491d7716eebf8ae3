package admin

import (
	"context"
	"fmt"

	pkgerrors "github.com/angelmondragon/delatte-backend/pkg/errors"
	"golang.org/x/sync/errgroup"
)

type statsRepository interface {
	CountUsers(ctx context.Context) (int64, error)
	CountClients(ctx context.Context) (int64, error)
	CountManagers(ctx context.Context) (int64, error)
	CountAdmins(ctx context.Context) (int64, error)
	CountCafes(ctx context.Context) (int64, error)
	CountReviews(ctx context.Context) (int64, error)
	CountPendingReports(ctx context.Context) (int64, error)
}

// Stats is the admin dashboard summary.
type Stats struct {
	Users          int64 `json:"users"`
	Clients        int64 `json:"clients"`
	Managers       int64 `json:"managers"`
	Admins         int64 `json:"admins"`
	Cafes          int64 `json:"cafes"`
	Reviews        int64 `json:"reviews"`
	PendingReports int64 `json:"pending_reports"`
}

type Service interface {
	Stats(ctx context.Context) (*Stats, error)
}

type service struct {
	repo statsRepository
}

func NewService(repo statsRepository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("stats repository required")
	}
	return &service{repo: repo}, nil
}

// Stats runs every counter concurrently; the first failure cancels the rest.
func (s *service) Stats(ctx context.Context) (*Stats, error) {
	var out Stats
	counters := []struct {
		name  string
		count func(context.Context) (int64, error)
		dst   *int64
	}{
		{"users", s.repo.CountUsers, &out.Users},
		{"clients", s.repo.CountClients, &out.Clients},
		{"managers", s.repo.CountManagers, &out.Managers},
		{"admins", s.repo.CountAdmins, &out.Admins},
		{"cafes", s.repo.CountCafes, &out.Cafes},
		{"reviews", s.repo.CountReviews, &out.Reviews},
		{"pending reports", s.repo.CountPendingReports, &out.PendingReports},
	}

	eg, egCtx := errgroup.WithContext(ctx)
	for _, c := range counters {
		eg.Go(func() error {
			n, err := c.count(egCtx)
			if err != nil {
				return fmt.Errorf("count %s: %w", c.name, err)
			}
			*c.dst = n
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load dashboard stats")
	}
	return &out, nil
}
