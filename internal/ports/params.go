package ports

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/Amund211/disparos/internal/domain"
)

const dateLayout = "2006-01-02"

// parseInstant accepts RFC 3339 timestamps or plain dates. A plain date is
// read in location, at the start of the day or, with endOfDay, at its last
// microsecond, the finest precision Postgres stores.
func parseInstant(raw string, location *time.Location, endOfDay bool) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339Nano, raw); err == nil {
		return t, nil
	}
	t, err := time.ParseInLocation(dateLayout, raw, location)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: invalid date '%s'", domain.ErrValidation, raw)
	}
	if endOfDay {
		t = t.AddDate(0, 0, 1).Add(-time.Microsecond)
	}
	return t, nil
}

// parseDate reads a calendar date. Timestamps are truncated to their date.
func parseDate(raw string) (time.Time, error) {
	if t, err := time.Parse(dateLayout, raw); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.RFC3339Nano, raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: invalid date '%s'", domain.ErrValidation, raw)
	}
	year, month, day := t.Date()
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC), nil
}

func optionalInstant(query url.Values, key string, location *time.Location, endOfDay bool) (*time.Time, error) {
	raw := strings.TrimSpace(query.Get(key))
	if raw == "" {
		return nil, nil
	}
	t, err := parseInstant(raw, location, endOfDay)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", key, err)
	}
	return &t, nil
}

func optionalDate(query url.Values, key string) (*time.Time, error) {
	raw := strings.TrimSpace(query.Get(key))
	if raw == "" {
		return nil, nil
	}
	t, err := parseDate(raw)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", key, err)
	}
	return &t, nil
}

func optionalBool(query url.Values, key string) (*bool, error) {
	raw := strings.TrimSpace(query.Get(key))
	if raw == "" {
		return nil, nil
	}
	value, err := strconv.ParseBool(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %s must be true or false", domain.ErrValidation, key)
	}
	return &value, nil
}

// positiveInt returns fallback when the parameter is absent
func positiveInt(query url.Values, key string, fallback int) (int, error) {
	raw := strings.TrimSpace(query.Get(key))
	if raw == "" {
		return fallback, nil
	}
	value, err := strconv.Atoi(raw)
	if err != nil || value < 1 {
		return 0, fmt.Errorf("%w: %s must be a positive integer", domain.ErrValidation, key)
	}
	return value, nil
}
