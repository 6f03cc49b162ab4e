package userrepository

import (
	"context"
	"time"

	"github.com/Amund211/disparos/internal/domain"
)

type UserRepository interface {
	CreateUser(ctx context.Context, user domain.NewUser) (domain.User, error)
	GetUser(ctx context.Context, email string) (domain.User, error)
	CountUsers(ctx context.Context, filter domain.UserFilter) (int, error)
	ListUsers(ctx context.Context, filter domain.UserFilter, pagination domain.UserPagination) ([]domain.User, error)
	// UpdateUser returns domain.ErrUserNotFound when no row was updated
	UpdateUser(ctx context.Context, email string, update domain.UserUpdate) (domain.User, error)
	DeleteUser(ctx context.Context, email string) error

	SelectEligible(ctx context.Context, campaignType domain.CampaignType) ([]domain.User, error)
	ListUsersWithoutDeposit(ctx context.Context, limit int) ([]domain.User, error)

	GetStats(ctx context.Context) (domain.UserStats, error)
	GetDepositSummary(ctx context.Context, dayStart time.Time) (domain.DepositSummary, error)

	// Users with at least one send, ordered newest send first. limit <= 0 returns every match.
	ListNotificationUsers(ctx context.Context, filter domain.NotificationFilter, limit, offset int) ([]domain.User, error)
	CountNotificationUsers(ctx context.Context, filter domain.NotificationFilter) (int, error)
	// Sends per day (domain.ChartDayLayout in location) at or after since
	GetNotificationChartCounts(ctx context.Context, since time.Time, location *time.Location) (map[string]int, error)

	Ping(ctx context.Context) error
}
