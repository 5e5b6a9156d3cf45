package overview

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

type fakeReport struct {
	patient   uuid.UUID
	typ       string
	category  string
	createdAt time.Time
	shiftDate *time.Time
	handover  bool
	deleted   bool
}

type fakeRisk struct {
	patient uuid.UUID
	level   string
}

type fakeObservation struct {
	patient  uuid.UUID
	category string
	interp   string
	at       time.Time
}

// fakeStore applies the same filters as storePG to in-memory records.
type fakeStore struct {
	mu       sync.Mutex
	patients []PatientIdentity
	reports  []fakeReport
	risks    []fakeRisk
	obs      []fakeObservation
	errs     map[string]error
	calls    map[string]int
	// extra ids returned by every counting query, to exercise out-of-set rows
	stray []uuid.UUID
}

func newFakeStore() *fakeStore {
	return &fakeStore{errs: map[string]error{}, calls: map[string]int{}}
}

func (f *fakeStore) addPatient(family string, given ...string) PatientIdentity {
	p := PatientIdentity{ID: uuid.New(), FamilyName: family, GivenNames: given}
	f.patients = append(f.patients, p)
	return p
}

func (f *fakeStore) record(name string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls[name]++
	return f.errs[name]
}

func (f *fakeStore) callCount(name string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[name]
}

func (f *fakeStore) identity(id uuid.UUID) (PatientIdentity, bool) {
	for _, p := range f.patients {
		if p.ID == id {
			return p, true
		}
	}
	return PatientIdentity{}, false
}

func inSet(ids []uuid.UUID, id uuid.UUID) bool {
	for _, x := range ids {
		if x == id {
			return true
		}
	}
	return false
}

func inDays(d *time.Time, from, to time.Time) bool {
	return d != nil && !d.Before(from) && !d.After(to)
}

func (f *fakeStore) ReportPatients(_ context.Context, since time.Time) ([]PatientIdentity, error) {
	if err := f.record("reports"); err != nil {
		return nil, err
	}
	var out []PatientIdentity
	for _, r := range f.reports {
		if r.deleted || r.typ == NursingEntryType || r.createdAt.Before(since) {
			continue
		}
		if p, ok := f.identity(r.patient); ok {
			out = append(out, p)
		}
	}
	return out, nil
}

func (f *fakeStore) NursingEntryPatients(_ context.Context, from, to time.Time) ([]PatientIdentity, error) {
	if err := f.record("nursing_entries"); err != nil {
		return nil, err
	}
	var out []PatientIdentity
	for _, r := range f.reports {
		if r.deleted || r.typ != NursingEntryType || !inDays(r.shiftDate, from, to) {
			continue
		}
		if p, ok := f.identity(r.patient); ok {
			out = append(out, p)
		}
	}
	return out, nil
}

func (f *fakeStore) SamplePatients(_ context.Context, limit int) ([]PatientIdentity, error) {
	if err := f.record("sample"); err != nil {
		return nil, err
	}
	if limit > len(f.patients) {
		limit = len(f.patients)
	}
	return append([]PatientIdentity(nil), f.patients[:limit]...), nil
}

func (f *fakeStore) HighRiskPatients(_ context.Context, ids []uuid.UUID) ([]uuid.UUID, error) {
	if err := f.record("high_risk"); err != nil {
		return nil, err
	}
	out := append([]uuid.UUID(nil), f.stray...)
	for _, r := range f.risks {
		if inSet(ids, r.patient) && (r.level == "hoog" || r.level == "zeer_hoog") {
			out = append(out, r.patient)
		}
	}
	return out, nil
}

func (f *fakeStore) AbnormalVitalPatients(_ context.Context, ids []uuid.UUID, since time.Time) ([]uuid.UUID, error) {
	if err := f.record("abnormal_vitals"); err != nil {
		return nil, err
	}
	out := append([]uuid.UUID(nil), f.stray...)
	for _, o := range f.obs {
		if !inSet(ids, o.patient) || o.category != VitalSignsCategory || o.at.Before(since) {
			continue
		}
		switch o.interp {
		case "H", "L", "HH", "LL":
			out = append(out, o.patient)
		}
	}
	return out, nil
}

func (f *fakeStore) HandoverEntryPatients(_ context.Context, ids []uuid.UUID, from, to time.Time) ([]uuid.UUID, error) {
	if err := f.record("handover"); err != nil {
		return nil, err
	}
	out := append([]uuid.UUID(nil), f.stray...)
	for _, r := range f.reports {
		if inSet(ids, r.patient) && !r.deleted && r.typ == NursingEntryType && r.handover && inDays(r.shiftDate, from, to) {
			out = append(out, r.patient)
		}
	}
	return out, nil
}

func (f *fakeStore) IncidentSignals(_ context.Context, ids []uuid.UUID, since time.Time) ([]ReportSignal, error) {
	if err := f.record("incidents"); err != nil {
		return nil, err
	}
	var out []ReportSignal
	for _, id := range f.stray {
		out = append(out, ReportSignal{PatientID: id, Type: CrisisType})
	}
	for _, r := range f.reports {
		if !inSet(ids, r.patient) || r.deleted || r.createdAt.Before(since) {
			continue
		}
		switch r.typ {
		case IncidentType, CrisisType, NursingEntryType:
			out = append(out, ReportSignal{PatientID: r.patient, Type: r.typ, Category: r.category})
		}
	}
	return out, nil
}
