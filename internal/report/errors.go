package report

import (
	"errors"
	"fmt"
	"strconv"

	"despesas/internal/core"
)

var (
	// ErrDataUnavailable is matched by every failed fetch.
	ErrDataUnavailable = errors.New("data unavailable")

	// ErrStaleResult is returned by a Session when a newer query was
	// issued before this one completed. Its result is discarded.
	ErrStaleResult = errors.New("stale result")

	// ErrNoResult is returned when a filter is applied before any query
	// reached the ready state.
	ErrNoResult = errors.New("no ready result")
)

// Fetch scopes reported by DataUnavailableError.
const (
	ScopeMonth = "month"
	ScopeYear  = "year"
)

// DataUnavailableError reports which of the two fetches failed.
type DataUnavailableError struct {
	Scope  string
	Card   core.Card
	Period core.Period
	Err    error
}

func (e *DataUnavailableError) Error() string {
	when := e.Period.String()
	if e.Scope == ScopeYear {
		when = strconv.Itoa(e.Period.Year)
	}
	return fmt.Sprintf("%s records for %s %s unavailable: %v", e.Scope, e.Card, when, e.Err)
}

func (e *DataUnavailableError) Unwrap() error { return e.Err }

// Is makes errors.Is(err, ErrDataUnavailable) hold for any scope.
func (e *DataUnavailableError) Is(target error) bool {
	return target == ErrDataUnavailable
}
