package core

import (
	"fmt"
	"io"
	"log/slog"
	"regexp"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"
)

// NewLoggerTo returns a logger writing to w: debug output when verbose,
// warnings only otherwise.
func NewLoggerTo(w io.Writer, verbose bool) *slog.Logger {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

// Truncate shortens s to at most n bytes, marking the cut. The cut never
// splits a multi-byte character.
func Truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	cut := n
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut] + fmt.Sprintf("...(%d bytes)", len(s))
}

// ParseDate parses a YYYY-MM-DD string into midnight UTC.
func ParseDate(s string) (time.Time, error) {
	t, err := time.Parse(APIDateFmt, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date '%s' (expected YYYY-MM-DD)", s)
	}
	return t, nil
}

var relDateRegex = regexp.MustCompile(`^([dwm])([+-])(\d+)$`)

// ParseDateSpec returns a concrete date for flexible spec strings, relative
// to now. Supports:
// 1. Exact YYYY-MM-DD
// 2. today, tomorrow
// 3. Relative forms like d+7 (days), w+2 (weeks), m+1 (months); a minus
// sign counts backwards
func ParseDateSpec(spec string, now time.Time) (time.Time, error) {
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	spec = strings.ToLower(strings.TrimSpace(spec))

	if t, err := time.Parse(APIDateFmt, spec); err == nil {
		return t, nil
	}

	switch spec {
	case "today":
		return today, nil
	case "tomorrow":
		return today.AddDate(0, 0, 1), nil
	}

	if m := relDateRegex.FindStringSubmatch(spec); m != nil {
		num, err := strconv.Atoi(m[3])
		if err != nil {
			return time.Time{}, fmt.Errorf("invalid date specification: '%s'", spec)
		}
		if m[2] == "-" {
			num = -num
		}
		switch m[1] {
		case "d":
			return today.AddDate(0, 0, num), nil
		case "w":
			return today.AddDate(0, 0, num*7), nil
		case "m":
			return today.AddDate(0, num, 0), nil
		}
	}

	return time.Time{}, fmt.Errorf("invalid date specification: '%s'", spec)
}

// FormatDate formats a time.Time as YYYY-MM-DD.
func FormatDate(t time.Time) string {
	return t.Format(APIDateFmt)
}

// FormatTime formats a timestamp for terminal output, or "-" when nil.
func FormatTime(t *time.Time) string {
	if t == nil || t.IsZero() {
		return "-"
	}
	return t.Format(DisplayTimeFmt)
}
