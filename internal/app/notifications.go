package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Amund211/disparos/internal/domain"
	"golang.org/x/sync/errgroup"
)

type notificationUserLister interface {
	ListNotificationUsers(ctx context.Context, filter domain.NotificationFilter, limit, offset int) ([]domain.User, error)
	CountNotificationUsers(ctx context.Context, filter domain.NotificationFilter) (int, error)
}

func synthesizeAll(users []domain.User) []domain.SyntheticNotification {
	notifications := make([]domain.SyntheticNotification, 0, len(users))
	for _, user := range users {
		notification, ok := domain.SynthesizeNotification(user)
		if !ok {
			continue
		}
		notifications = append(notifications, notification)
	}
	return notifications
}

type ListNotifications func(ctx context.Context, filter domain.NotificationFilter, page int) (domain.NotificationPage, error)

func BuildListNotifications(repo notificationUserLister) ListNotifications {
	return func(ctx context.Context, filter domain.NotificationFilter, page int) (domain.NotificationPage, error) {
		if page < 1 {
			page = 1
		}
		offset := domain.PageOffset(page, domain.NotificationPageSize)

		var total int
		var users []domain.User

		g, gctx := errgroup.WithContext(ctx)
		g.Go(func() error {
			var err error
			total, err = repo.CountNotificationUsers(gctx, filter)
			return err
		})
		g.Go(func() error {
			var err error
			users, err = repo.ListNotificationUsers(gctx, filter, domain.NotificationPageSize, offset)
			return err
		})
		if err := g.Wait(); err != nil {
			return domain.NotificationPage{}, fmt.Errorf("could not list notifications: %w", err)
		}

		return domain.NotificationPage{
			Notifications: synthesizeAll(users),
			Total:         total,
			Page:          page,
		}, nil
	}
}

type ExportNotifications func(ctx context.Context, filter domain.NotificationFilter) ([]domain.SyntheticNotification, error)

func BuildExportNotifications(repo notificationUserLister) ExportNotifications {
	return func(ctx context.Context, filter domain.NotificationFilter) ([]domain.SyntheticNotification, error) {
		users, err := repo.ListNotificationUsers(ctx, filter, 0, 0)
		if err != nil {
			return nil, fmt.Errorf("could not export notifications: %w", err)
		}
		return synthesizeAll(users), nil
	}
}

type GetNotification func(ctx context.Context, id string) (domain.NotificationDetail, error)

func BuildGetNotification(repo userGetter, nowFunc func() time.Time) GetNotification {
	return func(ctx context.Context, id string) (domain.NotificationDetail, error) {
		email, ok := domain.EmailFromNotificationID(id)
		if !ok {
			return domain.NotificationDetail{}, fmt.Errorf("%w: malformed id '%s'", domain.ErrNotificationNotFound, id)
		}

		user, err := repo.GetUser(ctx, email)
		if errors.Is(err, domain.ErrUserNotFound) {
			return domain.NotificationDetail{}, fmt.Errorf("%w: no user for '%s'", domain.ErrNotificationNotFound, id)
		}
		if err != nil {
			return domain.NotificationDetail{}, fmt.Errorf("could not get notification: %w", err)
		}

		return domain.SynthesizeNotificationDetail(id, user, nowFunc()), nil
	}
}

type notificationChartCounter interface {
	GetNotificationChartCounts(ctx context.Context, since time.Time, location *time.Location) (map[string]int, error)
}

type GetNotificationChart func(ctx context.Context) ([]domain.ChartPoint, error)

// BuildGetNotificationChart counts sends per calendar day in location for the
// last domain.ChartDays days, today included
func BuildGetNotificationChart(repo notificationChartCounter, location *time.Location, nowFunc func() time.Time) GetNotificationChart {
	return func(ctx context.Context) ([]domain.ChartPoint, error) {
		today := domain.StartOfDay(nowFunc().In(location))
		since := today.AddDate(0, 0, -(domain.ChartDays - 1))

		counts, err := repo.GetNotificationChartCounts(ctx, since, location)
		if err != nil {
			return nil, fmt.Errorf("could not get notification chart: %w", err)
		}

		return domain.FillChart(today, domain.ChartDays, counts), nil
	}
}
