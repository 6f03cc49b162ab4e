package app

import (
	"context"
	"fmt"

	"github.com/Amund211/disparos/internal/domain"
	"github.com/Amund211/disparos/internal/strutils"
	"golang.org/x/sync/errgroup"
)

const DefaultWithoutDepositLimit = 200

type userLister interface {
	CountUsers(ctx context.Context, filter domain.UserFilter) (int, error)
	ListUsers(ctx context.Context, filter domain.UserFilter, pagination domain.UserPagination) ([]domain.User, error)
}

type ListUsers func(ctx context.Context, filter domain.UserFilter, pagination domain.UserPagination) (domain.UserPage, error)

func BuildListUsers(repo userLister) ListUsers {
	return func(ctx context.Context, filter domain.UserFilter, pagination domain.UserPagination) (domain.UserPage, error) {
		if pagination.Page < 1 {
			pagination.Page = 1
		}
		if pagination.Limit < 1 {
			pagination.Limit = domain.DefaultUserPageSize
		}
		if pagination.Limit > domain.MaxUserPageSize {
			pagination.Limit = domain.MaxUserPageSize
		}

		var total int
		var users []domain.User

		g, gctx := errgroup.WithContext(ctx)
		g.Go(func() error {
			var err error
			total, err = repo.CountUsers(gctx, filter)
			return err
		})
		g.Go(func() error {
			var err error
			users, err = repo.ListUsers(gctx, filter, pagination)
			return err
		})
		if err := g.Wait(); err != nil {
			return domain.UserPage{}, fmt.Errorf("could not list users: %w", err)
		}

		if users == nil {
			users = []domain.User{}
		}

		return domain.UserPage{
			Users:      users,
			Total:      total,
			Page:       pagination.Page,
			TotalPages: (total + pagination.Limit - 1) / pagination.Limit,
		}, nil
	}
}

type userCreator interface {
	CreateUser(ctx context.Context, user domain.NewUser) (domain.User, error)
}

type CreateUser func(ctx context.Context, user domain.NewUser) (domain.User, error)

func BuildCreateUser(repo userCreator) CreateUser {
	return func(ctx context.Context, user domain.NewUser) (domain.User, error) {
		user.Email = strutils.NormalizeEmail(user.Email)
		if user.Email == "" {
			return domain.User{}, domain.ErrMissingEmail
		}
		if !strutils.LooksLikeEmail(user.Email) {
			return domain.User{}, fmt.Errorf("%w: '%s'", domain.ErrInvalidEmail, user.Email)
		}

		if user.TotalValue == nil {
			zero := "0"
			user.TotalValue = &zero
		}

		return repo.CreateUser(ctx, user)
	}
}

type userGetter interface {
	GetUser(ctx context.Context, email string) (domain.User, error)
}

type GetUser func(ctx context.Context, email string) (domain.User, error)

func BuildGetUser(repo userGetter) GetUser {
	return func(ctx context.Context, email string) (domain.User, error) {
		return repo.GetUser(ctx, strutils.NormalizeEmail(email))
	}
}

type userUpdater interface {
	UpdateUser(ctx context.Context, email string, update domain.UserUpdate) (domain.User, error)
}

type UpdateUser func(ctx context.Context, email string, update domain.UserUpdate) (domain.User, error)

func BuildUpdateUser(repo userUpdater) UpdateUser {
	return func(ctx context.Context, email string, update domain.UserUpdate) (domain.User, error) {
		if update.IsEmpty() {
			return domain.User{}, domain.ErrEmptyUpdate
		}
		return repo.UpdateUser(ctx, strutils.NormalizeEmail(email), update)
	}
}

type userDeleter interface {
	DeleteUser(ctx context.Context, email string) error
}

type DeleteUser func(ctx context.Context, email string) error

func BuildDeleteUser(repo userDeleter) DeleteUser {
	return func(ctx context.Context, email string) error {
		return repo.DeleteUser(ctx, strutils.NormalizeEmail(email))
	}
}

type withoutDepositLister interface {
	ListUsersWithoutDeposit(ctx context.Context, limit int) ([]domain.User, error)
}

type ListUsersWithoutDeposit func(ctx context.Context, limit int) ([]domain.User, error)

func BuildListUsersWithoutDeposit(repo withoutDepositLister) ListUsersWithoutDeposit {
	return func(ctx context.Context, limit int) ([]domain.User, error) {
		if limit < 1 {
			limit = DefaultWithoutDepositLimit
		}
		users, err := repo.ListUsersWithoutDeposit(ctx, limit)
		if err != nil {
			return nil, fmt.Errorf("could not list users without deposit: %w", err)
		}
		if users == nil {
			users = []domain.User{}
		}
		return users, nil
	}
}
