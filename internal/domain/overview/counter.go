package overview

import (
	"context"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

// IncidentBranch tells which rule classified a report as an incident.
type IncidentBranch int

const (
	BranchNone IncidentBranch = iota
	BranchType
	BranchPayload
)

func (b IncidentBranch) String() string {
	switch b {
	case BranchType:
		return "type"
	case BranchPayload:
		return "payload"
	}
	return "none"
}

type IncidentMatch struct {
	Matched bool
	Via     IncidentBranch
}

// ClassifyIncident decides whether a report counts as an incident. The
// report type is checked first; the payload category is only consulted for
// structured nursing entries. A report matches through at most one branch.
func ClassifyIncident(reportType, category string) IncidentMatch {
	switch reportType {
	case IncidentType, CrisisType:
		return IncidentMatch{Matched: true, Via: BranchType}
	case NursingEntryType:
		if category == IncidentCategory {
			return IncidentMatch{Matched: true, Via: BranchPayload}
		}
	}
	return IncidentMatch{}
}

// Counter computes the four alert counts for a set of patients.
type Counter struct {
	store  Store
	logger zerolog.Logger
}

func NewCounter(store Store, logger zerolog.Logger) *Counter {
	return &Counter{store: store, logger: logger}
}

// Count returns a tally for every id. The four queries run concurrently; a
// failing query is logged and leaves its counter at zero.
func (c *Counter) Count(ctx context.Context, ids []uuid.UUID, w Window) Tallies {
	tallies := NewTallies(ids)
	if len(ids) == 0 {
		return tallies
	}

	var (
		highRisk, vitals, handover []uuid.UUID
		incidents                  []ReportSignal
	)

	var g errgroup.Group
	g.Go(func() error {
		highRisk = c.patients("high_risk", func() ([]uuid.UUID, error) {
			return c.store.HighRiskPatients(ctx, ids)
		})
		return nil
	})
	g.Go(func() error {
		vitals = c.patients("abnormal_vitals", func() ([]uuid.UUID, error) {
			return c.store.AbnormalVitalPatients(ctx, ids, w.Since())
		})
		return nil
	})
	g.Go(func() error {
		handover = c.patients("marked_for_handover", func() ([]uuid.UUID, error) {
			return c.store.HandoverEntryPatients(ctx, ids, w.Start, w.Today)
		})
		return nil
	})
	g.Go(func() error {
		sigs, err := c.store.IncidentSignals(ctx, ids, w.Since())
		if err != nil {
			c.logger.Error().Err(err).Str("counter", "incidents").Msg("alert count failed")
			return nil
		}
		incidents = sigs
		return nil
	})
	_ = g.Wait()

	for _, id := range highRisk {
		tallies.add(id, func(t *AlertTally) { t.HighRiskCount++ })
	}
	for _, id := range vitals {
		tallies.add(id, func(t *AlertTally) { t.AbnormalVitalsCount++ })
	}
	for _, id := range handover {
		tallies.add(id, func(t *AlertTally) { t.MarkedForHandoverCount++ })
	}
	for _, sig := range incidents {
		if !ClassifyIncident(sig.Type, sig.Category).Matched {
			continue
		}
		tallies.add(sig.PatientID, func(t *AlertTally) { t.IncidentCount++ })
	}
	return tallies
}

func (c *Counter) patients(counter string, query func() ([]uuid.UUID, error)) []uuid.UUID {
	ids, err := query()
	if err != nil {
		c.logger.Error().Err(err).Str("counter", counter).Msg("alert count failed")
		return nil
	}
	return ids
}
