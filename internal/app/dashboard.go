package app

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/Amund211/disparos/internal/domain"
	"github.com/Amund211/disparos/internal/logging"
	"golang.org/x/sync/errgroup"
)

type statsGetter interface {
	GetStats(ctx context.Context) (domain.UserStats, error)
}

type GetStats func(ctx context.Context) (domain.UserStats, error)

func BuildGetStats(repo statsGetter) GetStats {
	return func(ctx context.Context) (domain.UserStats, error) {
		stats, err := repo.GetStats(ctx)
		if err != nil {
			return domain.UserStats{}, fmt.Errorf("could not get stats: %w", err)
		}
		return stats, nil
	}
}

type kpiSource interface {
	GetStats(ctx context.Context) (domain.UserStats, error)
	GetDepositSummary(ctx context.Context, dayStart time.Time) (domain.DepositSummary, error)
}

type GetKPIs func(ctx context.Context) (domain.KPIs, error)

// BuildGetKPIs computes the dashboard KPIs. "Today" starts at midnight in location.
func BuildGetKPIs(repo kpiSource, location *time.Location, nowFunc func() time.Time) GetKPIs {
	return func(ctx context.Context) (domain.KPIs, error) {
		dayStart := domain.StartOfDay(nowFunc().In(location))

		var stats domain.UserStats
		var summary domain.DepositSummary

		g, gctx := errgroup.WithContext(ctx)
		g.Go(func() error {
			var err error
			stats, err = repo.GetStats(gctx)
			return err
		})
		g.Go(func() error {
			var err error
			summary, err = repo.GetDepositSummary(gctx, dayStart)
			return err
		})
		if err := g.Wait(); err != nil {
			return domain.KPIs{}, fmt.Errorf("could not get kpis: %w", err)
		}

		kpis, skipped := domain.ComputeKPIs(stats, summary)
		if skipped > 0 {
			logging.FromContext(ctx).WarnContext(ctx, "Skipped unparseable deposit values", slog.Int("skipped", skipped))
		}

		return kpis, nil
	}
}
