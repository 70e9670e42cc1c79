package http

import (
	"context"
	"errors"
	"net/http"

	"despesas/internal/core"
	"despesas/internal/log"
	"despesas/internal/report"
)

type yearsResponse struct {
	Anos []int `json:"anos"`
}

type cardsResponse struct {
	Cards []core.Card `json:"cards"`
}

type monthsResponse struct {
	Card  core.Card          `json:"card"`
	Ano   int                `json:"ano"`
	Meses []report.MonthInfo `json:"meses"`
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if s.ready != nil {
		ctx, cancel := context.WithTimeout(r.Context(), s.timeout)
		defer cancel()
		if err := s.ready.Ping(ctx); err != nil {
			log.FromContext(ctx).WarnContext(ctx, "Readiness check failed", log.FieldError, err)
			s.respond(w, r, ErrorResponse(http.StatusServiceUnavailable, CodeDataUnavailable, "record store unavailable"))
			return
		}
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}

func (s *Server) handleYears(w http.ResponseWriter, r *http.Request) {
	years := core.AvailableYears(s.now())
	if years == nil {
		years = []int{}
	}
	s.respond(w, r, NewJSONResponse().Body(yearsResponse{Anos: years}))
}

func (s *Server) handleCards(w http.ResponseWriter, r *http.Request) {
	s.respond(w, r, NewJSONResponse().Body(cardsResponse{Cards: core.Cards()}))
}

func (s *Server) handleMonths(w http.ResponseWriter, r *http.Request) {
	card, err := parseCard(r)
	if err != nil {
		s.fail(w, r, err, log.OpMonths)
		return
	}
	year, err := parseYear(r)
	if err != nil {
		s.fail(w, r, err, log.OpMonths)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), s.timeout)
	defer cancel()

	months, err := s.service.Months(ctx, card, year)
	if err != nil {
		s.fail(w, r, err, log.OpMonths)
		return
	}
	s.respond(w, r, NewJSONResponse().Body(monthsResponse{Card: card, Ano: year, Meses: months}))
}

// handleReport runs a full query: both record sets are fetched again.
func (s *Server) handleReport(w http.ResponseWriter, r *http.Request) {
	s.query(w, r, log.OpQuery, (*report.Session).Query)
}

// handleFilter recomputes the filtered views from the session's ready
// result, fetching only when it does not cover the requested period.
func (s *Server) handleFilter(w http.ResponseWriter, r *http.Request) {
	s.query(w, r, log.OpFilter, (*report.Session).Apply)
}

type sessionCall func(*report.Session, context.Context, report.Query) (*report.Result, error)

func (s *Server) query(w http.ResponseWriter, r *http.Request, op string, call sessionCall) {
	q, err := ParseQuery(r)
	if err != nil {
		s.fail(w, r, err, op)
		return
	}
	sess, id := s.session(w, r)

	ctx, cancel := context.WithTimeout(r.Context(), s.timeout)
	defer cancel()
	ctx = log.NewContext(ctx, log.FromContext(ctx).With(log.FieldSessionID, id))

	res, err := call(sess, ctx, q)
	if err != nil {
		s.fail(w, r.WithContext(ctx), err, op)
		return
	}
	s.respond(w, r, NewJSONResponse().Body(res))
}

// fail writes the mapped response for err. Fetch failures are already
// logged by the report service.
func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error, op string) {
	ctx := r.Context()
	fields := log.NewFields().WithOperation(op).WithError(err).ToSlice()

	resp := ErrorFor(err)
	if resp.statusCode >= 500 && !errors.Is(err, report.ErrDataUnavailable) {
		log.FromContext(ctx).ErrorContext(ctx, "Request failed", fields...)
	} else {
		log.FromContext(ctx).DebugContext(ctx, "Request rejected", fields...)
	}
	s.respond(w, r, resp)
}
