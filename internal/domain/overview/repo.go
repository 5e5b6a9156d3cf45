package overview

import (
	"context"
	"time"

	"github.com/google/uuid"
)

const (
	// NursingEntryType is the report type of structured nursing entries.
	NursingEntryType = "verpleegkundig"

	IncidentType = "incident"
	CrisisType   = "crisis"

	// IncidentCategory marks a nursing entry as an incident in its payload.
	IncidentCategory = "incident"

	VitalSignsCategory = "vital-signs"
)

var (
	HighRiskLevels         = []string{"hoog", "zeer_hoog"}
	AbnormalInterpretation = []string{"H", "L", "HH", "LL"}
)

// Store is the engine's read-only view of the record store. Activity
// queries return one identity per matching record, in source order.
// Counting queries return one row per matching record.
type Store interface {
	ReportPatients(ctx context.Context, since time.Time) ([]PatientIdentity, error)
	NursingEntryPatients(ctx context.Context, from, to time.Time) ([]PatientIdentity, error)
	SamplePatients(ctx context.Context, limit int) ([]PatientIdentity, error)

	HighRiskPatients(ctx context.Context, ids []uuid.UUID) ([]uuid.UUID, error)
	AbnormalVitalPatients(ctx context.Context, ids []uuid.UUID, since time.Time) ([]uuid.UUID, error)
	HandoverEntryPatients(ctx context.Context, ids []uuid.UUID, from, to time.Time) ([]uuid.UUID, error)
	IncidentSignals(ctx context.Context, ids []uuid.UUID, since time.Time) ([]ReportSignal, error)
}
