package handover

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/epd/epd/internal/domain/overview"
)

var ErrPatientNotFound = errors.New("patient not found")

// MaxNotes caps how many reports go into one prompt.
const MaxNotes = 50

type NoteStore interface {
	GetPatient(ctx context.Context, id uuid.UUID) (*overview.PatientIdentity, error)
	// RecentNotes returns non-deleted reports created since the given time,
	// newest first.
	RecentNotes(ctx context.Context, patientID uuid.UUID, since time.Time, limit int) ([]Note, error)
}
