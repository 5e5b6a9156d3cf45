package handover

import (
	"time"

	"github.com/google/uuid"
)

// Note is a report written about a patient, as fed to the summary prompt.
type Note struct {
	ID        uuid.UUID
	Type      string
	Category  string
	Content   string
	ShiftDate *time.Time
	CreatedBy string
	CreatedAt time.Time
}

// Summary is a generated handover text for one patient and window.
type Summary struct {
	PatientID   uuid.UUID `json:"patient_id"`
	Period      int       `json:"period"`
	Date        string    `json:"date"`
	Summary     string    `json:"summary"`
	Cached      bool      `json:"cached"`
	GeneratedAt time.Time `json:"generated_at"`
}

type cachedSummary struct {
	Summary     string    `json:"summary"`
	GeneratedAt time.Time `json:"generated_at"`
}
