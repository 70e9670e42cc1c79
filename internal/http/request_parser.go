package http

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"

	"despesas/internal/core"
	"despesas/internal/report"
)

// SessionHeader identifies the dashboard client whose queries are
// serialized together.
const SessionHeader = "X-Dashboard-Session"

// maxParamLen bounds path and query values before they are parsed.
const maxParamLen = 100

// parseCard reads the {card} path value.
func parseCard(r *http.Request) (core.Card, error) {
	raw := sanitizeInput(r.PathValue("card"))
	card, err := core.ParseCard(raw)
	if err != nil {
		return "", fmt.Errorf("%w: %q", err, raw)
	}
	return card, nil
}

// parseYear reads the {year} path value.
func parseYear(r *http.Request) (int, error) {
	raw := sanitizeInput(r.PathValue("year"))
	year, err := strconv.Atoi(raw)
	if err != nil || year <= 0 {
		return 0, fmt.Errorf("%w: %q", core.ErrInvalidYear, raw)
	}
	return year, nil
}

// parseMonth reads the {month} path value as a number or a month name.
func parseMonth(r *http.Request) (int, error) {
	raw := sanitizeInput(r.PathValue("month"))
	month, err := core.ParseMonthParam(raw)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", err, raw)
	}
	return month, nil
}

// parseFilter reads the categoria query parameter. Absent means all.
func parseFilter(r *http.Request) report.Filter {
	return report.Filter(sanitizeInput(r.URL.Query().Get("categoria")))
}

// ParseQuery builds the report query addressed by a
// /api/cards/{card}/years/{year}/months/{month} request.
func ParseQuery(r *http.Request) (report.Query, error) {
	card, err := parseCard(r)
	if err != nil {
		return report.Query{}, err
	}
	year, err := parseYear(r)
	if err != nil {
		return report.Query{}, err
	}
	month, err := parseMonth(r)
	if err != nil {
		return report.Query{}, err
	}
	q := report.Query{
		Card:     card,
		Period:   core.Period{Year: year, Month: month},
		Category: parseFilter(r),
	}
	return q, q.Validate()
}

// sessionID returns the caller's session ID, or a new one when the header
// is missing or not a UUID. The second result reports whether it is new.
func sessionID(r *http.Request) (string, bool) {
	id := strings.TrimSpace(r.Header.Get(SessionHeader))
	if parsed, err := uuid.Parse(id); err == nil {
		return parsed.String(), false
	}
	return uuid.NewString(), true
}

// sanitizeInput removes control characters, trims whitespace and bounds
// the length of a request value.
func sanitizeInput(s string) string {
	s = strings.TrimSpace(s)
	s = strings.Map(func(r rune) rune {
		if r < 32 || r == 127 {
			return -1
		}
		return r
	}, s)
	if utf8.RuneCountInString(s) > maxParamLen {
		s = string([]rune(s)[:maxParamLen])
	}
	return s
}
