package overview

import (
	"time"

	"github.com/google/uuid"
)

// PatientIdentity holds the display fields of a patient. GivenNames is
// ordered; the first entry is the name the ward uses.
type PatientIdentity struct {
	ID         uuid.UUID  `json:"id"`
	GivenNames []string   `json:"given_names"`
	FamilyName string     `json:"family_name"`
	BirthDate  *time.Time `json:"birth_date,omitempty"`
	Gender     *string    `json:"gender,omitempty"`
}

func (p PatientIdentity) PrimaryGivenName() string {
	if len(p.GivenNames) == 0 {
		return ""
	}
	return p.GivenNames[0]
}

// DisplayName renders "Family, Given" for rosters and exports.
func (p PatientIdentity) DisplayName() string {
	given := p.PrimaryGivenName()
	switch {
	case given == "":
		return p.FamilyName
	case p.FamilyName == "":
		return given
	}
	return p.FamilyName + ", " + given
}

// ReportSignal is one candidate incident report. Category is the
// structured_data category of a nursing entry, empty otherwise.
type ReportSignal struct {
	PatientID uuid.UUID
	Type      string
	Category  string
}

// AlertTally accumulates the four alert categories for one patient.
type AlertTally struct {
	HighRiskCount          int `json:"high_risk_count"`
	AbnormalVitalsCount    int `json:"abnormal_vitals_count"`
	MarkedForHandoverCount int `json:"marked_for_handover_count"`
	IncidentCount          int `json:"incident_count"`
}

func (t AlertTally) Total() int {
	return t.HighRiskCount + t.AbnormalVitalsCount + t.MarkedForHandoverCount + t.IncidentCount
}

// Tallies maps every scanned patient to its tally. Build it with NewTallies
// so that each id has an entry before counting starts.
type Tallies map[uuid.UUID]*AlertTally

func NewTallies(ids []uuid.UUID) Tallies {
	t := make(Tallies, len(ids))
	for _, id := range ids {
		t[id] = &AlertTally{}
	}
	return t
}

// add applies fn to the tally of id. Ids outside the set are ignored.
func (t Tallies) add(id uuid.UUID, fn func(*AlertTally)) bool {
	tally, ok := t[id]
	if !ok {
		return false
	}
	fn(tally)
	return true
}

// PatientOverview is one ranked row of the handover overview.
type PatientOverview struct {
	PatientIdentity
	AlertTally
	TotalAlerts int `json:"total_alerts"`
}

func NewPatientOverview(p PatientIdentity, t AlertTally) PatientOverview {
	return PatientOverview{PatientIdentity: p, AlertTally: t, TotalAlerts: t.Total()}
}

// Result is the response of one overview computation. Date is the anchor
// day of the window; Fallback marks a sample list shown because nothing
// happened in the window.
type Result struct {
	Patients    []PatientOverview `json:"patients"`
	Total       int               `json:"total"`
	Date        string            `json:"date"`
	Period      int               `json:"period"`
	WindowStart string            `json:"window_start"`
	Fallback    bool              `json:"fallback"`
}
