package userrepository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Amund211/disparos/internal/domain"
	"github.com/Amund211/disparos/internal/reporting"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const uniqueViolation = "23505"

const dateLayout = "2006-01-02"

const userColumns = `email, name, phone, birth_date,
	first_deposit_done, is_new_signup,
	total_value, last_deposit_at,
	last_sent_24h, last_sent_30d, last_sent_45d, last_birthday_sent_year,
	pix_generated_at, created_at`

type Postgres struct {
	db     *sqlx.DB
	schema string
	tracer trace.Tracer
	// Calendar day and year for birthday selection are taken in location
	location *time.Location
	nowFunc  func() time.Time
}

func NewPostgres(db *sqlx.DB, schema string, location *time.Location, nowFunc func() time.Time) *Postgres {
	tracer := otel.Tracer("disparos/userrepository/postgres")
	return &Postgres{
		db:       db,
		schema:   schema,
		tracer:   tracer,
		location: location,
		nowFunc:  nowFunc,
	}
}

func (p *Postgres) table() string {
	return fmt.Sprintf("%s.users", pq.QuoteIdentifier(p.schema))
}

type dbUser struct {
	Email     string              `db:"email"`
	Name      sql.Null[string]    `db:"name"`
	Phone     sql.Null[string]    `db:"phone"`
	BirthDate sql.Null[time.Time] `db:"birth_date"`

	FirstDepositDone sql.Null[bool] `db:"first_deposit_done"`
	IsNewSignup      sql.Null[bool] `db:"is_new_signup"`

	TotalValue    sql.Null[string]    `db:"total_value"`
	LastDepositAt sql.Null[time.Time] `db:"last_deposit_at"`

	LastSent24h          sql.Null[time.Time] `db:"last_sent_24h"`
	LastSent30d          sql.Null[time.Time] `db:"last_sent_30d"`
	LastSent45d          sql.Null[time.Time] `db:"last_sent_45d"`
	LastBirthdaySentYear sql.Null[int64]     `db:"last_birthday_sent_year"`

	PixGeneratedAt sql.Null[time.Time] `db:"pix_generated_at"`

	CreatedAt time.Time `db:"created_at"`
}

func ptrFromNull[T any](value sql.Null[T]) *T {
	if !value.Valid {
		return nil
	}
	return &value.V
}

func (u dbUser) toDomain() domain.User {
	var lastBirthdaySentYear *int
	if u.LastBirthdaySentYear.Valid {
		year := int(u.LastBirthdaySentYear.V)
		lastBirthdaySentYear = &year
	}

	return domain.User{
		Email:                u.Email,
		Name:                 ptrFromNull(u.Name),
		Phone:                ptrFromNull(u.Phone),
		BirthDate:            ptrFromNull(u.BirthDate),
		FirstDepositDone:     ptrFromNull(u.FirstDepositDone),
		IsNewSignup:          ptrFromNull(u.IsNewSignup),
		TotalValue:           ptrFromNull(u.TotalValue),
		LastDepositAt:        ptrFromNull(u.LastDepositAt),
		LastSent24h:          ptrFromNull(u.LastSent24h),
		LastSent30d:          ptrFromNull(u.LastSent30d),
		LastSent45d:          ptrFromNull(u.LastSent45d),
		LastBirthdaySentYear: lastBirthdaySentYear,
		PixGeneratedAt:       ptrFromNull(u.PixGeneratedAt),
		CreatedAt:            u.CreatedAt,
	}
}

func toDomainUsers(dbUsers []dbUser) []domain.User {
	users := make([]domain.User, 0, len(dbUsers))
	for _, u := range dbUsers {
		users = append(users, u.toDomain())
	}
	return users
}

// Dates are sent as plain strings so the session time zone can't shift them
func dateArg(t *time.Time) any {
	if t == nil {
		return nil
	}
	return t.Format(dateLayout)
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func containsPattern(s string) string {
	return "%" + likeEscaper.Replace(s) + "%"
}

// Accumulates positional arguments and the conditions using them
type whereBuilder struct {
	conditions []string
	args       []any
}

func (w *whereBuilder) arg(value any) string {
	w.args = append(w.args, value)
	return fmt.Sprintf("$%d", len(w.args))
}

func (w *whereBuilder) add(condition string) {
	w.conditions = append(w.conditions, condition)
}

func (w *whereBuilder) clause() string {
	if len(w.conditions) == 0 {
		return ""
	}
	return "WHERE " + strings.Join(w.conditions, " AND ")
}

func (p *Postgres) CreateUser(ctx context.Context, user domain.NewUser) (domain.User, error) {
	ctx, span := p.tracer.Start(ctx, "Postgres.CreateUser")
	defer span.End()

	if user.Email == "" {
		return domain.User{}, domain.ErrMissingEmail
	}

	var stored dbUser
	err := p.db.QueryRowxContext(
		ctx,
		fmt.Sprintf(`INSERT INTO %s
		(email, name, phone, birth_date, first_deposit_done, is_new_signup, total_value, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING %s`, p.table(), userColumns),
		user.Email,
		user.Name,
		user.Phone,
		dateArg(user.BirthDate),
		user.FirstDepositDone,
		user.IsNewSignup,
		user.TotalValue,
		p.nowFunc(),
	).StructScan(&stored)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
			return domain.User{}, fmt.Errorf("%w: %s", domain.ErrUserAlreadyExists, user.Email)
		}
		err := fmt.Errorf("failed to insert user: %w", err)
		reporting.Report(ctx, err)
		return domain.User{}, err
	}

	return stored.toDomain(), nil
}

func (p *Postgres) GetUser(ctx context.Context, email string) (domain.User, error) {
	ctx, span := p.tracer.Start(ctx, "Postgres.GetUser")
	defer span.End()

	var stored dbUser
	err := p.db.GetContext(
		ctx,
		&stored,
		fmt.Sprintf("SELECT %s FROM %s WHERE email = $1", userColumns, p.table()),
		email,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.User{}, domain.ErrUserNotFound
	}
	if err != nil {
		err := fmt.Errorf("failed to get user: %w", err)
		reporting.Report(ctx, err)
		return domain.User{}, err
	}

	return stored.toDomain(), nil
}

func userFilterWhere(filter domain.UserFilter) *whereBuilder {
	w := &whereBuilder{}
	if filter.Email != "" {
		w.add("email ILIKE " + w.arg(containsPattern(filter.Email)))
	}
	if filter.Name != "" {
		w.add("name ILIKE " + w.arg(containsPattern(filter.Name)))
	}
	if filter.Phone != "" {
		w.add("phone ILIKE " + w.arg(containsPattern(filter.Phone)))
	}
	if filter.IsNewSignup != nil {
		w.add("is_new_signup = " + w.arg(*filter.IsNewSignup))
	}
	if filter.FirstDepositDone != nil {
		w.add("first_deposit_done = " + w.arg(*filter.FirstDepositDone))
	}
	if filter.BirthDateFrom != nil {
		w.add("birth_date >= " + w.arg(dateArg(filter.BirthDateFrom)))
	}
	if filter.BirthDateTo != nil {
		w.add("birth_date <= " + w.arg(dateArg(filter.BirthDateTo)))
	}
	if filter.CreatedAtFrom != nil {
		w.add("created_at >= " + w.arg(*filter.CreatedAtFrom))
	}
	if filter.CreatedAtTo != nil {
		w.add("created_at <= " + w.arg(*filter.CreatedAtTo))
	}
	return w
}

func (p *Postgres) CountUsers(ctx context.Context, filter domain.UserFilter) (int, error) {
	ctx, span := p.tracer.Start(ctx, "Postgres.CountUsers")
	defer span.End()

	w := userFilterWhere(filter)

	var count int
	err := p.db.GetContext(
		ctx,
		&count,
		fmt.Sprintf("SELECT COUNT(*) FROM %s %s", p.table(), w.clause()),
		w.args...,
	)
	if err != nil {
		err := fmt.Errorf("failed to count users: %w", err)
		reporting.Report(ctx, err)
		return 0, err
	}

	return count, nil
}

func (p *Postgres) ListUsers(ctx context.Context, filter domain.UserFilter, pagination domain.UserPagination) ([]domain.User, error) {
	ctx, span := p.tracer.Start(ctx, "Postgres.ListUsers")
	defer span.End()

	orderBy, ok := domain.ParseUserOrderColumn(string(pagination.OrderBy))
	if !ok {
		orderBy = domain.OrderByCreatedAt
	}
	direction := "ASC"
	if pagination.Descending {
		direction = "DESC"
	}

	w := userFilterWhere(filter)
	query := fmt.Sprintf(
		"SELECT %s FROM %s %s ORDER BY %s %s NULLS LAST, email ASC LIMIT %s OFFSET %s",
		userColumns,
		p.table(),
		w.clause(),
		pq.QuoteIdentifier(string(orderBy)),
		direction,
		w.arg(pagination.Limit),
		w.arg(pagination.Offset()),
	)

	var stored []dbUser
	err := p.db.SelectContext(ctx, &stored, query, w.args...)
	if err != nil {
		err := fmt.Errorf("failed to list users: %w", err)
		reporting.Report(ctx, err)
		return nil, err
	}

	return toDomainUsers(stored), nil
}

func updateAssignments(update domain.UserUpdate, w *whereBuilder) []string {
	var assignments []string
	set := func(column string, value any) {
		assignments = append(assignments, column+" = "+w.arg(value))
	}

	if update.Name != nil {
		set("name", *update.Name)
	}
	if update.Phone != nil {
		set("phone", *update.Phone)
	}
	if update.BirthDate != nil {
		set("birth_date", dateArg(update.BirthDate))
	}
	if update.FirstDepositDone != nil {
		set("first_deposit_done", *update.FirstDepositDone)
	}
	if update.IsNewSignup != nil {
		set("is_new_signup", *update.IsNewSignup)
	}
	if update.TotalValue != nil {
		set("total_value", *update.TotalValue)
	}
	if update.LastDepositAt != nil {
		set("last_deposit_at", *update.LastDepositAt)
	}
	if update.LastSent24h != nil {
		set("last_sent_24h", *update.LastSent24h)
	}
	if update.LastSent30d != nil {
		set("last_sent_30d", *update.LastSent30d)
	}
	if update.LastSent45d != nil {
		set("last_sent_45d", *update.LastSent45d)
	}
	if update.LastBirthdaySentYear != nil {
		set("last_birthday_sent_year", *update.LastBirthdaySentYear)
	}
	if update.PixGeneratedAt != nil {
		set("pix_generated_at", *update.PixGeneratedAt)
	}

	return assignments
}

func (p *Postgres) UpdateUser(ctx context.Context, email string, update domain.UserUpdate) (domain.User, error) {
	ctx, span := p.tracer.Start(ctx, "Postgres.UpdateUser")
	defer span.End()

	w := &whereBuilder{}
	assignments := updateAssignments(update, w)
	if len(assignments) == 0 {
		return domain.User{}, domain.ErrEmptyUpdate
	}
	span.SetAttributes(attribute.Int("disparos.update.columns", len(assignments)))

	var stored dbUser
	err := p.db.QueryRowxContext(
		ctx,
		fmt.Sprintf(
			"UPDATE %s SET %s WHERE email = %s RETURNING %s",
			p.table(),
			strings.Join(assignments, ", "),
			w.arg(email),
			userColumns,
		),
		w.args...,
	).StructScan(&stored)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.User{}, domain.ErrUserNotFound
	}
	if err != nil {
		err := fmt.Errorf("failed to update user: %w", err)
		reporting.Report(ctx, err)
		return domain.User{}, err
	}

	return stored.toDomain(), nil
}

func (p *Postgres) DeleteUser(ctx context.Context, email string) error {
	ctx, span := p.tracer.Start(ctx, "Postgres.DeleteUser")
	defer span.End()

	result, err := p.db.ExecContext(ctx, fmt.Sprintf("DELETE FROM %s WHERE email = $1", p.table()), email)
	if err != nil {
		err := fmt.Errorf("failed to delete user: %w", err)
		reporting.Report(ctx, err)
		return err
	}

	affected, err := result.RowsAffected()
	if err != nil {
		err := fmt.Errorf("failed to get affected rows: %w", err)
		reporting.Report(ctx, err)
		return err
	}
	if affected == 0 {
		return domain.ErrUserNotFound
	}

	return nil
}

func (p *Postgres) SelectEligible(ctx context.Context, campaignType domain.CampaignType) ([]domain.User, error) {
	ctx, span := p.tracer.Start(ctx, "Postgres.SelectEligible")
	defer span.End()
	span.SetAttributes(attribute.String("disparos.campaign", string(campaignType)))

	now := p.nowFunc()
	threshold := now.Add(-campaignType.Cooldown())

	var query string
	var args []any
	switch campaignType {
	case domain.Campaign24h:
		query = `WHERE is_new_signup = true
			AND (last_sent_24h IS NULL OR last_sent_24h < $1)
			ORDER BY created_at DESC, email ASC`
		args = []any{threshold}
	case domain.Campaign30d:
		query = `WHERE last_deposit_at IS NOT NULL AND last_deposit_at < $1
			AND (last_sent_30d IS NULL OR last_sent_30d < $1)
			ORDER BY last_deposit_at DESC, email ASC`
		args = []any{threshold}
	case domain.Campaign45d:
		query = `WHERE last_deposit_at IS NOT NULL AND last_deposit_at < $1
			AND (last_sent_45d IS NULL OR last_sent_45d < $1)
			ORDER BY last_deposit_at DESC, email ASC`
		args = []any{threshold}
	case domain.CampaignBirthday:
		query = `WHERE birth_date IS NOT NULL
			AND EXTRACT(MONTH FROM birth_date) = $1
			AND EXTRACT(DAY FROM birth_date) = $2
			AND (last_birthday_sent_year IS NULL OR last_birthday_sent_year < $3)
			ORDER BY birth_date ASC, email ASC`
		today := now.In(p.location)
		args = []any{int(today.Month()), today.Day(), today.Year()}
	default:
		return nil, fmt.Errorf("%w: '%s'", domain.ErrInvalidCampaignType, string(campaignType))
	}

	var stored []dbUser
	err := p.db.SelectContext(ctx, &stored, fmt.Sprintf("SELECT %s FROM %s %s", userColumns, p.table(), query), args...)
	if err != nil {
		err := fmt.Errorf("failed to select eligible users: %w", err)
		reporting.Report(ctx, err, map[string]string{
			"campaignType": string(campaignType),
		})
		return nil, err
	}

	return toDomainUsers(stored), nil
}

func (p *Postgres) ListUsersWithoutDeposit(ctx context.Context, limit int) ([]domain.User, error) {
	ctx, span := p.tracer.Start(ctx, "Postgres.ListUsersWithoutDeposit")
	defer span.End()

	var stored []dbUser
	err := p.db.SelectContext(
		ctx,
		&stored,
		fmt.Sprintf(`SELECT %s FROM %s
		WHERE first_deposit_done IS NULL OR first_deposit_done = false
		ORDER BY created_at DESC, email ASC
		LIMIT $1`, userColumns, p.table()),
		limit,
	)
	if err != nil {
		err := fmt.Errorf("failed to list users without deposit: %w", err)
		reporting.Report(ctx, err)
		return nil, err
	}

	return toDomainUsers(stored), nil
}

type dbStats struct {
	Total             int `db:"total"`
	NewSignups        int `db:"new_signups"`
	FirstDepositCount int `db:"first_deposit_count"`
	HasPhoneCount     int `db:"has_phone_count"`
	PixGeneratedCount int `db:"pix_generated_count"`
}

func (p *Postgres) GetStats(ctx context.Context) (domain.UserStats, error) {
	ctx, span := p.tracer.Start(ctx, "Postgres.GetStats")
	defer span.End()

	var stats dbStats
	err := p.db.GetContext(ctx, &stats, fmt.Sprintf(`SELECT
		COUNT(*) AS total,
		COUNT(*) FILTER (WHERE is_new_signup = true) AS new_signups,
		COUNT(*) FILTER (WHERE first_deposit_done = true) AS first_deposit_count,
		COUNT(*) FILTER (WHERE phone IS NOT NULL AND phone <> '') AS has_phone_count,
		COUNT(*) FILTER (WHERE pix_generated_at IS NOT NULL) AS pix_generated_count
		FROM %s`, p.table()))
	if err != nil {
		err := fmt.Errorf("failed to get stats: %w", err)
		reporting.Report(ctx, err)
		return domain.UserStats{}, err
	}

	return domain.UserStats{
		Total:             stats.Total,
		NewSignups:        stats.NewSignups,
		FirstDepositCount: stats.FirstDepositCount,
		HasPhoneCount:     stats.HasPhoneCount,
		PixGeneratedCount: stats.PixGeneratedCount,
	}, nil
}

type dbDepositCounts struct {
	UsersWithoutDeposit int `db:"users_without_deposit"`
	CreatedToday        int `db:"created_today"`
}

func (p *Postgres) GetDepositSummary(ctx context.Context, dayStart time.Time) (domain.DepositSummary, error) {
	ctx, span := p.tracer.Start(ctx, "Postgres.GetDepositSummary")
	defer span.End()

	var counts dbDepositCounts
	err := p.db.GetContext(ctx, &counts, fmt.Sprintf(`SELECT
		COUNT(*) FILTER (WHERE first_deposit_done IS NULL OR first_deposit_done = false) AS users_without_deposit,
		COUNT(*) FILTER (WHERE created_at >= $1 AND created_at < $2) AS created_today
		FROM %s`, p.table()),
		dayStart,
		dayStart.AddDate(0, 0, 1),
	)
	if err != nil {
		err := fmt.Errorf("failed to get deposit counts: %w", err)
		reporting.Report(ctx, err)
		return domain.DepositSummary{}, err
	}

	var totalValues []string
	err = p.db.SelectContext(ctx, &totalValues, fmt.Sprintf(
		"SELECT total_value FROM %s WHERE total_value IS NOT NULL AND total_value <> ''",
		p.table(),
	))
	if err != nil {
		err := fmt.Errorf("failed to get total values: %w", err)
		reporting.Report(ctx, err)
		return domain.DepositSummary{}, err
	}

	return domain.DepositSummary{
		UsersWithoutDeposit: counts.UsersWithoutDeposit,
		CreatedToday:        counts.CreatedToday,
		TotalValues:         totalValues,
	}, nil
}

// The chosen send mirrors domain.LatestSend: the latest of the three columns,
// with 24h before 30d before 45d on equal timestamps.
func (p *Postgres) notificationQuery(selectClause string, filter domain.NotificationFilter, w *whereBuilder) string {
	if filter.Search != "" {
		pattern := w.arg(containsPattern(filter.Search))
		w.add(fmt.Sprintf("(name ILIKE %s OR email ILIKE %s)", pattern, pattern))
	}
	if filter.Campaign != "" {
		w.add("campaign = " + w.arg(string(filter.Campaign)))
	}
	if filter.From != nil {
		w.add("sent_at >= " + w.arg(*filter.From))
	}
	if filter.To != nil {
		w.add("sent_at <= " + w.arg(*filter.To))
	}

	return fmt.Sprintf(`WITH sends AS (
		SELECT %s,
			GREATEST(last_sent_24h, last_sent_30d, last_sent_45d) AS sent_at
		FROM %s
		WHERE last_sent_24h IS NOT NULL OR last_sent_30d IS NOT NULL OR last_sent_45d IS NOT NULL
	), labeled AS (
		SELECT sends.*,
			CASE
				WHEN last_sent_24h = sent_at THEN '%s'
				WHEN last_sent_30d = sent_at THEN '%s'
				ELSE '%s'
			END AS campaign
		FROM sends
	)
	SELECT %s FROM labeled %s`,
		userColumns,
		p.table(),
		domain.Label24h,
		domain.Label30d,
		domain.Label45d,
		selectClause,
		w.clause(),
	)
}

func (p *Postgres) ListNotificationUsers(ctx context.Context, filter domain.NotificationFilter, limit, offset int) ([]domain.User, error) {
	ctx, span := p.tracer.Start(ctx, "Postgres.ListNotificationUsers")
	defer span.End()

	w := &whereBuilder{}
	query := p.notificationQuery(userColumns, filter, w) + " ORDER BY sent_at DESC, email ASC"
	if limit > 0 {
		query += fmt.Sprintf(" LIMIT %s OFFSET %s", w.arg(limit), w.arg(offset))
	}

	var stored []dbUser
	err := p.db.SelectContext(ctx, &stored, query, w.args...)
	if err != nil {
		err := fmt.Errorf("failed to list notification users: %w", err)
		reporting.Report(ctx, err)
		return nil, err
	}

	return toDomainUsers(stored), nil
}

func (p *Postgres) CountNotificationUsers(ctx context.Context, filter domain.NotificationFilter) (int, error) {
	ctx, span := p.tracer.Start(ctx, "Postgres.CountNotificationUsers")
	defer span.End()

	w := &whereBuilder{}
	query := p.notificationQuery("COUNT(*)", filter, w)

	var count int
	err := p.db.GetContext(ctx, &count, query, w.args...)
	if err != nil {
		err := fmt.Errorf("failed to count notification users: %w", err)
		reporting.Report(ctx, err)
		return 0, err
	}

	return count, nil
}

type dbChartCount struct {
	Day   string `db:"day"`
	Count int    `db:"count"`
}

func (p *Postgres) GetNotificationChartCounts(ctx context.Context, since time.Time, location *time.Location) (map[string]int, error) {
	ctx, span := p.tracer.Start(ctx, "Postgres.GetNotificationChartCounts")
	defer span.End()

	var rows []dbChartCount
	err := p.db.SelectContext(ctx, &rows, fmt.Sprintf(`SELECT
		to_char(sent_at AT TIME ZONE $2, 'YYYY-MM-DD') AS day,
		COUNT(*) AS count
		FROM (
			SELECT last_sent_24h AS sent_at FROM %[1]s WHERE last_sent_24h >= $1
			UNION ALL
			SELECT last_sent_30d AS sent_at FROM %[1]s WHERE last_sent_30d >= $1
			UNION ALL
			SELECT last_sent_45d AS sent_at FROM %[1]s WHERE last_sent_45d >= $1
		) all_sends
		GROUP BY day`, p.table()),
		since,
		location.String(),
	)
	if err != nil {
		err := fmt.Errorf("failed to get chart counts: %w", err)
		reporting.Report(ctx, err)
		return nil, err
	}

	counts := make(map[string]int, len(rows))
	for _, row := range rows {
		counts[row.Day] = row.Count
	}
	return counts, nil
}

func (p *Postgres) Ping(ctx context.Context) error {
	ctx, span := p.tracer.Start(ctx, "Postgres.Ping")
	defer span.End()

	if err := p.db.PingContext(ctx); err != nil {
		return fmt.Errorf("failed to ping db: %w", err)
	}
	return nil
}
