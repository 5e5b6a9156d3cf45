package overview

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/text/language"
)

// Service computes the handover overview: scan the window, count alerts for
// the patients found, rank them.
type Service struct {
	scanner *Scanner
	counter *Counter
	ranker  *Ranker
	loc     *time.Location
	now     func() time.Time
	logger  zerolog.Logger
}

func NewService(store Store, fallback FallbackPolicy, lang language.Tag, loc *time.Location, logger zerolog.Logger) *Service {
	if loc == nil {
		loc = time.UTC
	}
	logger = logger.With().Str("component", "overview").Logger()
	return &Service{
		scanner: NewScanner(store, fallback, logger),
		counter: NewCounter(store, logger),
		ranker:  NewRanker(lang),
		loc:     loc,
		now:     time.Now,
		logger:  logger,
	}
}

// Counter exposes the alert counter for callers that tally single patients.
func (s *Service) Counter() *Counter { return s.counter }

// Window returns the window for p anchored at the current time.
func (s *Service) Window(p Period) Window {
	return NewWindow(p, s.now(), s.loc)
}

// Overview builds the ranked overview for period. Source failures degrade to
// fewer patients or lower counts; the only error is a cancelled context.
func (s *Service) Overview(ctx context.Context, period Period) (*Result, error) {
	start := time.Now()
	w := s.Window(period)

	scan := s.scanner.Scan(ctx, w)
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("scan activity: %w", err)
	}

	tallies := s.counter.Count(ctx, IDs(scan.Patients), w)
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("count alerts: %w", err)
	}

	rows := s.ranker.Rank(scan.Patients, tallies)

	s.logger.Info().
		Int("period", period.Days()).
		Str("date", w.Date()).
		Int("patients", len(rows)).
		Bool("fallback", scan.Fallback).
		Dur("duration", time.Since(start)).
		Msg("handover overview computed")

	return &Result{
		Patients:    rows,
		Total:       len(rows),
		Date:        w.Date(),
		Period:      period.Days(),
		WindowStart: w.StartDate(),
		Fallback:    scan.Fallback,
	}, nil
}
