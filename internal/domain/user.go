package domain

import (
	"time"
)

// User is the single mutable row kept per email. The last sent columns are
// the only record of which campaigns reached the user.
type User struct {
	Email string

	Name      *string
	Phone     *string
	BirthDate *time.Time

	FirstDepositDone *bool
	IsNewSignup      *bool

	// Monetary aggregate stored as free text, see ParseDepositValue
	TotalValue    *string
	LastDepositAt *time.Time

	LastSent24h          *time.Time
	LastSent30d          *time.Time
	LastSent45d          *time.Time
	LastBirthdaySentYear *int

	PixGeneratedAt *time.Time

	CreatedAt time.Time
}

type NewUser struct {
	Email string

	Name      *string
	Phone     *string
	BirthDate *time.Time

	FirstDepositDone *bool
	IsNewSignup      *bool

	TotalValue *string
}

// UserUpdate holds the fields to overwrite. Nil fields are left untouched.
type UserUpdate struct {
	Name      *string
	Phone     *string
	BirthDate *time.Time

	FirstDepositDone *bool
	IsNewSignup      *bool

	TotalValue    *string
	LastDepositAt *time.Time

	LastSent24h          *time.Time
	LastSent30d          *time.Time
	LastSent45d          *time.Time
	LastBirthdaySentYear *int

	PixGeneratedAt *time.Time
}

func (u UserUpdate) IsEmpty() bool {
	return u == UserUpdate{}
}

type UserFilter struct {
	// Case insensitive substring matches
	Email string
	Name  string
	Phone string

	IsNewSignup      *bool
	FirstDepositDone *bool

	// Inclusive bounds
	BirthDateFrom *time.Time
	BirthDateTo   *time.Time
	CreatedAtFrom *time.Time
	CreatedAtTo   *time.Time
}

type UserOrderColumn string

const (
	OrderByCreatedAt     UserOrderColumn = "created_at"
	OrderByEmail         UserOrderColumn = "email"
	OrderByName          UserOrderColumn = "name"
	OrderByBirthDate     UserOrderColumn = "birth_date"
	OrderByLastDepositAt UserOrderColumn = "last_deposit_at"
	OrderByTotalValue    UserOrderColumn = "total_value"
)

func ParseUserOrderColumn(raw string) (UserOrderColumn, bool) {
	switch column := UserOrderColumn(raw); column {
	case OrderByCreatedAt, OrderByEmail, OrderByName, OrderByBirthDate, OrderByLastDepositAt, OrderByTotalValue:
		return column, true
	}
	return "", false
}

const (
	DefaultUserPageSize = 20
	MaxUserPageSize     = 100

	// Pages past MaxPage are read as MaxPage, which is far beyond any real data
	MaxPage = 1_000_000
)

// PageOffset is the row offset of a 1-based page. It never overflows.
func PageOffset(page, pageSize int) int {
	page = min(max(page, 1), MaxPage)
	return (page - 1) * pageSize
}

type UserPagination struct {
	Page       int
	Limit      int
	OrderBy    UserOrderColumn
	Descending bool
}

func DefaultUserPagination() UserPagination {
	return UserPagination{
		Page:       1,
		Limit:      DefaultUserPageSize,
		OrderBy:    OrderByCreatedAt,
		Descending: true,
	}
}

func (p UserPagination) Offset() int {
	return PageOffset(p.Page, p.Limit)
}

type UserPage struct {
	Users      []User
	Total      int
	Page       int
	TotalPages int
}
