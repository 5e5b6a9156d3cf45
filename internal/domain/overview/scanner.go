package overview

import (
	"context"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

// FallbackPolicy supplies patients when the window shows no activity at all.
type FallbackPolicy interface {
	Fallback(ctx context.Context) ([]PatientIdentity, error)
}

// SampleFallback returns the first Limit patients of the store, unfiltered.
// It keeps the overview populated on a ward without recorded activity yet
// and should be switched off once real data flows in.
type SampleFallback struct {
	Store Store
	Limit int
}

const DefaultFallbackLimit = 20

func (f SampleFallback) Fallback(ctx context.Context) ([]PatientIdentity, error) {
	limit := f.Limit
	if limit <= 0 {
		limit = DefaultFallbackLimit
	}
	return f.Store.SamplePatients(ctx, limit)
}

// NoFallback leaves an idle window empty.
type NoFallback struct{}

func (NoFallback) Fallback(context.Context) ([]PatientIdentity, error) { return nil, nil }

// Scanner finds the distinct patients with activity in a window.
type Scanner struct {
	store    Store
	fallback FallbackPolicy
	logger   zerolog.Logger
}

func NewScanner(store Store, fallback FallbackPolicy, logger zerolog.Logger) *Scanner {
	if fallback == nil {
		fallback = NoFallback{}
	}
	return &Scanner{store: store, fallback: fallback, logger: logger}
}

// ScanResult is the patient set of a window. Fallback is set when the
// patients came from the fallback policy.
type ScanResult struct {
	Patients []PatientIdentity
	Fallback bool
}

// Scan runs the free-text and nursing-entry queries concurrently and merges
// them, free-text first, keeping the first snapshot per patient id. A failing
// source is logged and contributes nothing.
func (s *Scanner) Scan(ctx context.Context, w Window) ScanResult {
	var reports, entries []PatientIdentity

	var g errgroup.Group
	g.Go(func() error {
		var err error
		if reports, err = s.store.ReportPatients(ctx, w.Since()); err != nil {
			s.logger.Error().Err(err).Str("source", "reports").Msg("activity scan failed")
			reports = nil
		}
		return nil
	})
	g.Go(func() error {
		var err error
		if entries, err = s.store.NursingEntryPatients(ctx, w.Start, w.Today); err != nil {
			s.logger.Error().Err(err).Str("source", "nursing_entries").Msg("activity scan failed")
			entries = nil
		}
		return nil
	})
	_ = g.Wait()

	if merged := dedupe(reports, entries); len(merged) > 0 {
		return ScanResult{Patients: merged}
	}

	sample, err := s.fallback.Fallback(ctx)
	if err != nil {
		s.logger.Error().Err(err).Str("source", "fallback").Msg("fallback sample failed")
		return ScanResult{}
	}
	sample = dedupe(sample)
	return ScanResult{Patients: sample, Fallback: len(sample) > 0}
}

func dedupe(sources ...[]PatientIdentity) []PatientIdentity {
	seen := make(map[uuid.UUID]struct{})
	var out []PatientIdentity
	for _, src := range sources {
		for _, p := range src {
			if p.ID == uuid.Nil {
				continue
			}
			if _, ok := seen[p.ID]; ok {
				continue
			}
			seen[p.ID] = struct{}{}
			out = append(out, p)
		}
	}
	return out
}

// IDs returns the patient ids in scan order.
func IDs(patients []PatientIdentity) []uuid.UUID {
	ids := make([]uuid.UUID, len(patients))
	for i, p := range patients {
		ids[i] = p.ID
	}
	return ids
}
