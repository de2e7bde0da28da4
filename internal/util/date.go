package util

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// DateLayout is the wire format for every date the client formats itself.
const DateLayout = "02-01-2006"

// FormatDate renders t as DD-MM-YYYY from its own calendar fields. No
// timezone conversion happens.
func FormatDate(t time.Time) string {
	y, m, d := t.Date()
	return fmt.Sprintf("%02d-%02d-%04d", d, int(m), y)
}

// ParseDate parses a user-supplied date expression relative to now:
// "today", "yesterday", relative offsets ("3d", "2w", "1mo"), DD-MM-YYYY,
// ISO YYYY-MM-DD and RFC3339. The result carries now's location.
func ParseDate(s string, now time.Time) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, fmt.Errorf("empty date expression")
	}

	switch strings.ToLower(s) {
	case "today", "now":
		return now, nil
	case "yesterday":
		return now.AddDate(0, 0, -1), nil
	}

	// Custom shorthands: mo (months), w (weeks), d (days)
	suffixes := []struct {
		suffix string
		apply  func(int) time.Time
	}{
		{"mo", func(n int) time.Time { return now.AddDate(0, -n, 0) }},
		{"w", func(n int) time.Time { return now.AddDate(0, 0, -7*n) }},
		{"d", func(n int) time.Time { return now.AddDate(0, 0, -n) }},
	}
	for _, sfx := range suffixes {
		if strings.HasSuffix(s, sfx.suffix) {
			numStr := strings.TrimSuffix(s, sfx.suffix)
			if n, err := strconv.Atoi(numStr); err == nil && n >= 0 {
				return sfx.apply(n), nil
			}
			return time.Time{}, fmt.Errorf("invalid %s offset: %q", sfx.suffix, s)
		}
	}

	loc := now.Location()
	if t, err := time.ParseInLocation(DateLayout, s, loc); err == nil {
		return t, nil
	}
	if t, err := time.ParseInLocation("2006-01-02", s, loc); err == nil {
		return t, nil
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}

	return time.Time{}, fmt.Errorf("invalid date: %q (want DD-MM-YYYY, YYYY-MM-DD, today or 3d/2w/1mo)", s)
}

// NormalizeDate converts any expression ParseDate accepts into DD-MM-YYYY.
// Empty input stays empty.
func NormalizeDate(s string, now time.Time) (string, error) {
	if strings.TrimSpace(s) == "" {
		return "", nil
	}
	t, err := ParseDate(s, now)
	if err != nil {
		return "", err
	}
	return FormatDate(t), nil
}

// NormalizeDateRange normalizes from/to and swaps them if reversed.
func NormalizeDateRange(from, to string, now time.Time) (string, string, error) {
	var f, u time.Time
	var err error
	if strings.TrimSpace(from) != "" {
		if f, err = ParseDate(from, now); err != nil {
			return "", "", fmt.Errorf("invalid --from: %w", err)
		}
	}
	if strings.TrimSpace(to) != "" {
		if u, err = ParseDate(to, now); err != nil {
			return "", "", fmt.Errorf("invalid --to: %w", err)
		}
	}
	if !f.IsZero() && !u.IsZero() && f.After(u) {
		f, u = u, f
	}
	var fs, us string
	if !f.IsZero() {
		fs = FormatDate(f)
	}
	if !u.IsZero() {
		us = FormatDate(u)
	}
	return fs, us, nil
}
