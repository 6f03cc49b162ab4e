package domaintest

import (
	"time"

	"github.com/Amund211/disparos/internal/domain"
)

type userBuilder struct {
	user *domain.User
}

func (ub *userBuilder) WithName(name string) *userBuilder {
	ub.user.Name = &name
	return ub
}

func (ub *userBuilder) WithPhone(phone string) *userBuilder {
	ub.user.Phone = &phone
	return ub
}

func (ub *userBuilder) WithBirthDate(birthDate time.Time) *userBuilder {
	ub.user.BirthDate = &birthDate
	return ub
}

func (ub *userBuilder) WithNewSignup(isNewSignup bool) *userBuilder {
	ub.user.IsNewSignup = &isNewSignup
	return ub
}

func (ub *userBuilder) WithFirstDepositDone(done bool) *userBuilder {
	ub.user.FirstDepositDone = &done
	return ub
}

func (ub *userBuilder) WithTotalValue(value string) *userBuilder {
	ub.user.TotalValue = &value
	return ub
}

func (ub *userBuilder) WithLastDepositAt(at time.Time) *userBuilder {
	ub.user.LastDepositAt = &at
	return ub
}

func (ub *userBuilder) WithLastSent24h(at time.Time) *userBuilder {
	ub.user.LastSent24h = &at
	return ub
}

func (ub *userBuilder) WithLastSent30d(at time.Time) *userBuilder {
	ub.user.LastSent30d = &at
	return ub
}

func (ub *userBuilder) WithLastSent45d(at time.Time) *userBuilder {
	ub.user.LastSent45d = &at
	return ub
}

func (ub *userBuilder) WithLastBirthdaySentYear(year int) *userBuilder {
	ub.user.LastBirthdaySentYear = &year
	return ub
}

func (ub *userBuilder) WithPixGeneratedAt(at time.Time) *userBuilder {
	ub.user.PixGeneratedAt = &at
	return ub
}

func (ub *userBuilder) Build() domain.User {
	return *ub.user
}

func NewUserBuilder(email string, createdAt time.Time) *userBuilder {
	return &userBuilder{
		user: &domain.User{
			Email:     email,
			CreatedAt: createdAt,
		},
	}
}
