package service

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// NextRunTime computes the next occurrence of a restricted cron
// expression "minute hour day month day-of-week" where each field is
// either "*" or a single integer. This deliberately mirrors the narrow
// schedules the scheduler actually uses (daily at a time, monthly on a
// day, weekly on a weekday); it is not a general cron engine.
//
// Resolution order: a concrete minute+hour pair picks today's
// occurrence, rolling to tomorrow if already passed; a concrete
// day-of-month pins the day, rolling one month if passed; a concrete
// day-of-week runs last and overrides the date with the next occurrence
// of that weekday (always at least one day out), at the given
// hour/minute. An all-wildcard expression is due immediately.
func NextRunTime(expr string, now time.Time) (time.Time, error) {
	fields := strings.Fields(expr)
	if len(fields) != 5 {
		return time.Time{}, fmt.Errorf("invalid cron expression %q: want 5 fields, got %d", expr, len(fields))
	}

	minute, err := parseCronField(fields[0], 0, 59)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid minute in %q: %w", expr, err)
	}
	hour, err := parseCronField(fields[1], 0, 23)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid hour in %q: %w", expr, err)
	}
	day, err := parseCronField(fields[2], 1, 31)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid day in %q: %w", expr, err)
	}
	if _, err := parseCronField(fields[3], 1, 12); err != nil {
		return time.Time{}, fmt.Errorf("invalid month in %q: %w", expr, err)
	}
	weekday, err := parseCronField(fields[4], 0, 6)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid day-of-week in %q: %w", expr, err)
	}

	next := now

	if minute != nil && hour != nil {
		next = time.Date(now.Year(), now.Month(), now.Day(), *hour, *minute, 0, 0, now.Location())
		if !next.After(now) {
			next = next.AddDate(0, 0, 1)
		}
	}

	if day != nil {
		next = time.Date(next.Year(), next.Month(), *day, next.Hour(), next.Minute(), 0, 0, now.Location())
		if !next.After(now) {
			next = time.Date(next.Year(), next.Month()+1, *day, next.Hour(), next.Minute(), 0, 0, now.Location())
		}
	}

	if weekday != nil {
		daysAhead := *weekday - int(now.Weekday())
		if daysAhead <= 0 {
			daysAhead += 7
		}
		h, m := 0, 0
		if hour != nil {
			h = *hour
		}
		if minute != nil {
			m = *minute
		}
		base := now.AddDate(0, 0, daysAhead)
		next = time.Date(base.Year(), base.Month(), base.Day(), h, m, 0, 0, now.Location())
	}

	return next, nil
}

// parseCronField returns nil for a wildcard and the parsed value for a
// single integer within [min, max].
func parseCronField(field string, min, max int) (*int, error) {
	if field == "*" {
		return nil, nil
	}
	n, err := strconv.Atoi(field)
	if err != nil {
		return nil, fmt.Errorf("field %q is not a wildcard or integer", field)
	}
	if n < min || n > max {
		return nil, fmt.Errorf("field %d out of range [%d, %d]", n, min, max)
	}
	return &n, nil
}
