package ports

import (
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/Amund211/disparos/internal/app"
	"github.com/Amund211/disparos/internal/domain"
	"github.com/Amund211/disparos/internal/logging"
	"github.com/Amund211/disparos/internal/reporting"
)

type userResponse struct {
	Email string  `json:"email"`
	Name  *string `json:"name"`
	Phone *string `json:"phone"`
	// YYYY-MM-DD
	BirthDate *string `json:"birth_date"`

	FirstDepositDone *bool `json:"first_deposit_done"`
	IsNewSignup      *bool `json:"is_new_signup"`

	TotalValue    *string    `json:"total_value"`
	LastDepositAt *time.Time `json:"last_deposit_at"`

	LastSent24h          *time.Time `json:"last_sent_24h"`
	LastSent30d          *time.Time `json:"last_sent_30d"`
	LastSent45d          *time.Time `json:"last_sent_45d"`
	LastBirthdaySentYear *int       `json:"last_birthday_sent_year"`

	PixGeneratedAt *time.Time `json:"pix_generated_at"`

	CreatedAt time.Time `json:"created_at"`
}

func formatDate(t *time.Time) *string {
	if t == nil {
		return nil
	}
	formatted := t.Format(dateLayout)
	return &formatted
}

func utcPtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	utc := t.UTC()
	return &utc
}

func userToResponse(user domain.User) userResponse {
	return userResponse{
		Email:                user.Email,
		Name:                 user.Name,
		Phone:                user.Phone,
		BirthDate:            formatDate(user.BirthDate),
		FirstDepositDone:     user.FirstDepositDone,
		IsNewSignup:          user.IsNewSignup,
		TotalValue:           user.TotalValue,
		LastDepositAt:        utcPtr(user.LastDepositAt),
		LastSent24h:          utcPtr(user.LastSent24h),
		LastSent30d:          utcPtr(user.LastSent30d),
		LastSent45d:          utcPtr(user.LastSent45d),
		LastBirthdaySentYear: user.LastBirthdaySentYear,
		PixGeneratedAt:       utcPtr(user.PixGeneratedAt),
		CreatedAt:            user.CreatedAt.UTC(),
	}
}

func usersToResponse(users []domain.User) []userResponse {
	response := make([]userResponse, 0, len(users))
	for _, user := range users {
		response = append(response, userToResponse(user))
	}
	return response
}

// userRequest is the body of create and update. Absent and null fields are
// treated the same: left unset.
type userRequest struct {
	Email     string  `json:"email"`
	Name      *string `json:"name"`
	Phone     *string `json:"phone"`
	BirthDate *string `json:"birth_date"`

	FirstDepositDone *bool `json:"first_deposit_done"`
	IsNewSignup      *bool `json:"is_new_signup"`

	TotalValue    *string    `json:"total_value"`
	LastDepositAt *time.Time `json:"last_deposit_at"`

	LastSent24h          *time.Time `json:"last_sent_24h"`
	LastSent30d          *time.Time `json:"last_sent_30d"`
	LastSent45d          *time.Time `json:"last_sent_45d"`
	LastBirthdaySentYear *int       `json:"last_birthday_sent_year"`

	PixGeneratedAt *time.Time `json:"pix_generated_at"`
}

func (req userRequest) birthDate() (*time.Time, error) {
	if req.BirthDate == nil || strings.TrimSpace(*req.BirthDate) == "" {
		return nil, nil
	}
	t, err := parseDate(strings.TrimSpace(*req.BirthDate))
	if err != nil {
		return nil, fmt.Errorf("birth_date: %w", err)
	}
	return &t, nil
}

func (req userRequest) toNewUser() (domain.NewUser, error) {
	birthDate, err := req.birthDate()
	if err != nil {
		return domain.NewUser{}, err
	}
	return domain.NewUser{
		Email:            req.Email,
		Name:             req.Name,
		Phone:            req.Phone,
		BirthDate:        birthDate,
		FirstDepositDone: req.FirstDepositDone,
		IsNewSignup:      req.IsNewSignup,
		TotalValue:       req.TotalValue,
	}, nil
}

func (req userRequest) toUpdate() (domain.UserUpdate, error) {
	birthDate, err := req.birthDate()
	if err != nil {
		return domain.UserUpdate{}, err
	}
	return domain.UserUpdate{
		Name:                 req.Name,
		Phone:                req.Phone,
		BirthDate:            birthDate,
		FirstDepositDone:     req.FirstDepositDone,
		IsNewSignup:          req.IsNewSignup,
		TotalValue:           req.TotalValue,
		LastDepositAt:        req.LastDepositAt,
		LastSent24h:          req.LastSent24h,
		LastSent30d:          req.LastSent30d,
		LastSent45d:          req.LastSent45d,
		LastBirthdaySentYear: req.LastBirthdaySentYear,
		PixGeneratedAt:       req.PixGeneratedAt,
	}, nil
}

func parseUserListQuery(r *http.Request, location *time.Location) (domain.UserFilter, domain.UserPagination, error) {
	query := r.URL.Query()

	filter := domain.UserFilter{
		Email: strings.TrimSpace(query.Get("email")),
		Name:  strings.TrimSpace(query.Get("name")),
		Phone: strings.TrimSpace(query.Get("phone")),
	}

	var err error
	if filter.IsNewSignup, err = optionalBool(query, "is_new_signup"); err != nil {
		return domain.UserFilter{}, domain.UserPagination{}, err
	}
	if filter.FirstDepositDone, err = optionalBool(query, "first_deposit_done"); err != nil {
		return domain.UserFilter{}, domain.UserPagination{}, err
	}
	if filter.BirthDateFrom, err = optionalDate(query, "birth_date_from"); err != nil {
		return domain.UserFilter{}, domain.UserPagination{}, err
	}
	if filter.BirthDateTo, err = optionalDate(query, "birth_date_to"); err != nil {
		return domain.UserFilter{}, domain.UserPagination{}, err
	}
	if filter.CreatedAtFrom, err = optionalInstant(query, "created_at_from", location, false); err != nil {
		return domain.UserFilter{}, domain.UserPagination{}, err
	}
	if filter.CreatedAtTo, err = optionalInstant(query, "created_at_to", location, true); err != nil {
		return domain.UserFilter{}, domain.UserPagination{}, err
	}

	pagination := domain.DefaultUserPagination()
	if pagination.Page, err = positiveInt(query, "page", pagination.Page); err != nil {
		return domain.UserFilter{}, domain.UserPagination{}, err
	}
	if pagination.Limit, err = positiveInt(query, "limit", pagination.Limit); err != nil {
		return domain.UserFilter{}, domain.UserPagination{}, err
	}

	if rawOrderBy := query.Get("order_by"); rawOrderBy != "" {
		orderBy, ok := domain.ParseUserOrderColumn(rawOrderBy)
		if !ok {
			return domain.UserFilter{}, domain.UserPagination{}, fmt.Errorf("%w: cannot order by '%s'", domain.ErrValidation, rawOrderBy)
		}
		pagination.OrderBy = orderBy
	}
	switch strings.ToUpper(query.Get("order_direction")) {
	case "":
	case "ASC":
		pagination.Descending = false
	case "DESC":
		pagination.Descending = true
	default:
		return domain.UserFilter{}, domain.UserPagination{}, fmt.Errorf("%w: order_direction must be ASC or DESC", domain.ErrValidation)
	}

	return filter, pagination, nil
}

func MakeListUsersHandler(listUsers app.ListUsers, location *time.Location, middlewares Middlewares) http.HandlerFunc {
	middleware := middlewares.authenticated("list_users")

	handler := func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		filter, pagination, err := parseUserListQuery(r, location)
		if err != nil {
			writeDomainError(ctx, w, err)
			return
		}

		page, err := listUsers(ctx, filter, pagination)
		if err != nil {
			writeDomainError(ctx, w, err)
			return
		}

		writeJSON(ctx, w, http.StatusOK, struct {
			Users      []userResponse `json:"users"`
			Total      int            `json:"total"`
			Page       int            `json:"page"`
			TotalPages int            `json:"totalPages"`
		}{
			Users:      usersToResponse(page.Users),
			Total:      page.Total,
			Page:       page.Page,
			TotalPages: page.TotalPages,
		})
	}

	return middleware(handler)
}

func MakeCreateUserHandler(createUser app.CreateUser, middlewares Middlewares) http.HandlerFunc {
	middleware := middlewares.authenticated("create_user")

	handler := func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		var request userRequest
		if err := decodeJSONBody(w, r, &request); err != nil {
			writeError(ctx, w, http.StatusBadRequest, causeInvalidBody)
			return
		}

		newUser, err := request.toNewUser()
		if err != nil {
			writeDomainError(ctx, w, err)
			return
		}

		user, err := createUser(ctx, newUser)
		if err != nil {
			writeDomainError(ctx, w, err)
			return
		}

		logging.FromContext(ctx).InfoContext(ctx, "Created user", slog.String("email", user.Email))
		writeJSON(ctx, w, http.StatusCreated, userToResponse(user))
	}

	return middleware(handler)
}

func withEmailMeta(r *http.Request) (*http.Request, string) {
	email := r.PathValue("email")
	ctx := logging.AddMetaToContext(r.Context(), slog.String("email", email))
	ctx = reporting.AddExtrasToContext(ctx, map[string]string{"email": email})
	return r.WithContext(ctx), email
}

func MakeGetUserHandler(getUser app.GetUser, middlewares Middlewares) http.HandlerFunc {
	middleware := middlewares.authenticated("get_user")

	handler := func(w http.ResponseWriter, r *http.Request) {
		r, email := withEmailMeta(r)
		ctx := r.Context()

		user, err := getUser(ctx, email)
		if err != nil {
			writeDomainError(ctx, w, err)
			return
		}

		writeJSON(ctx, w, http.StatusOK, userToResponse(user))
	}

	return middleware(handler)
}

func MakeUpdateUserHandler(updateUser app.UpdateUser, middlewares Middlewares) http.HandlerFunc {
	middleware := middlewares.authenticated("update_user")

	handler := func(w http.ResponseWriter, r *http.Request) {
		r, email := withEmailMeta(r)
		ctx := r.Context()

		var request userRequest
		if err := decodeJSONBody(w, r, &request); err != nil {
			writeError(ctx, w, http.StatusBadRequest, causeInvalidBody)
			return
		}

		update, err := request.toUpdate()
		if err != nil {
			writeDomainError(ctx, w, err)
			return
		}

		user, err := updateUser(ctx, email, update)
		if err != nil {
			writeDomainError(ctx, w, err)
			return
		}

		writeJSON(ctx, w, http.StatusOK, userToResponse(user))
	}

	return middleware(handler)
}

func MakeDeleteUserHandler(deleteUser app.DeleteUser, middlewares Middlewares) http.HandlerFunc {
	middleware := middlewares.authenticated("delete_user")

	handler := func(w http.ResponseWriter, r *http.Request) {
		r, email := withEmailMeta(r)
		ctx := r.Context()

		if err := deleteUser(ctx, email); err != nil {
			writeDomainError(ctx, w, err)
			return
		}

		logging.FromContext(ctx).InfoContext(ctx, "Deleted user")
		writeJSON(ctx, w, http.StatusOK, map[string]string{"message": "Usuário deletado com sucesso"})
	}

	return middleware(handler)
}

func MakeListUsersWithoutDepositHandler(listWithoutDeposit app.ListUsersWithoutDeposit, middlewares Middlewares) http.HandlerFunc {
	middleware := middlewares.authenticated("users_without_deposit")

	handler := func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		limit, err := positiveInt(r.URL.Query(), "limit", app.DefaultWithoutDepositLimit)
		if err != nil {
			writeDomainError(ctx, w, err)
			return
		}

		users, err := listWithoutDeposit(ctx, limit)
		if err != nil {
			writeDomainError(ctx, w, err)
			return
		}

		writeJSON(ctx, w, http.StatusOK, usersToResponse(users))
	}

	return middleware(handler)
}
