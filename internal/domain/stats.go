package domain

import (
	"regexp"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

type UserStats struct {
	Total             int
	NewSignups        int
	FirstDepositCount int
	HasPhoneCount     int
	PixGeneratedCount int
}

// DepositSummary is the raw material for the KPIs that the stats query does not cover
type DepositSummary struct {
	UsersWithoutDeposit int
	CreatedToday        int
	// Every non-empty total_value, unparsed
	TotalValues []string
}

type KPIs struct {
	TotalUsers          int
	UsersWithoutDeposit int
	TotalDepositValue   decimal.Decimal
	AvgDepositValue     decimal.Decimal
	CreatedToday        int
}

var plainDecimalRx = regexp.MustCompile(`^-?\d+(\.\d+)?$`)

// ParseDepositValue reads a total_value column. Values using a decimal comma
// ("150,50") are accepted as long as they carry no thousands separator.
// Exponent notation is rejected, like a Postgres NUMERIC cast would for large exponents.
func ParseDepositValue(raw string) (decimal.Decimal, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return decimal.Zero, false
	}
	if !strings.Contains(raw, ".") {
		raw = strings.Replace(raw, ",", ".", 1)
	}
	if !plainDecimalRx.MatchString(raw) {
		return decimal.Zero, false
	}
	value, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero, false
	}
	return value, true
}

// SumDepositValues adds up every parseable value. Unparseable values are left out.
func SumDepositValues(values []string) (decimal.Decimal, int) {
	total := decimal.Zero
	skipped := 0
	for _, raw := range values {
		value, ok := ParseDepositValue(raw)
		if !ok {
			skipped++
			continue
		}
		total = total.Add(value)
	}
	return total, skipped
}

func ComputeKPIs(stats UserStats, summary DepositSummary) (KPIs, int) {
	total, skipped := SumDepositValues(summary.TotalValues)

	avg := decimal.Zero
	if stats.Total > 0 {
		avg = total.Div(decimal.NewFromInt(int64(stats.Total)))
	}

	return KPIs{
		TotalUsers:          stats.Total,
		UsersWithoutDeposit: summary.UsersWithoutDeposit,
		TotalDepositValue:   total,
		AvgDepositValue:     avg,
		CreatedToday:        summary.CreatedToday,
	}, skipped
}

const (
	ChartDays      = 30
	ChartDayLayout = "2006-01-02"
)

type ChartPoint struct {
	Day   time.Time
	Count int
}

// FillChart returns one point per day for the days ending on the day of
// today, oldest first. counts is keyed by ChartDayLayout.
func FillChart(today time.Time, days int, counts map[string]int) []ChartPoint {
	end := StartOfDay(today)
	points := make([]ChartPoint, 0, days)
	for i := days - 1; i >= 0; i-- {
		day := end.AddDate(0, 0, -i)
		points = append(points, ChartPoint{
			Day:   day,
			Count: counts[day.Format(ChartDayLayout)],
		})
	}
	return points
}

func StartOfDay(t time.Time) time.Time {
	year, month, day := t.Date()
	return time.Date(year, month, day, 0, 0, 0, 0, t.Location())
}
