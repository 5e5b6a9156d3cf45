package overview

import (
	"context"
	"math/rand"
	"reflect"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

func newTestService(store Store, fallback FallbackPolicy) *Service {
	svc := NewService(store, fallback, language.Dutch, time.UTC, zerolog.Nop())
	svc.now = func() time.Time { return testNow }
	return svc
}

// seededStore builds a ward with random activity so the properties below
// are checked against varied data.
func seededStore(seed int64) *fakeStore {
	rng := rand.New(rand.NewSource(seed))
	families := []string{"Jansen", "de Vries", "Bakker", "Visser", "Smit", "Özdemir", "El Amrani", "Mulder", "Évora"}
	types := []string{"vrije_tekst", IncidentType, CrisisType, NursingEntryType}
	levels := []string{"laag", "midden", "hoog", "zeer_hoog"}
	interps := []string{"N", "H", "L", "HH", "LL"}

	store := newFakeStore()
	for i := 0; i < 25; i++ {
		store.addPatient(families[rng.Intn(len(families))], "Kim")
	}
	for i := 0; i < 120; i++ {
		p := store.patients[rng.Intn(len(store.patients))].ID
		typ := types[rng.Intn(len(types))]
		r := fakeReport{
			patient:   p,
			typ:       typ,
			createdAt: testNow.Add(-time.Duration(rng.Intn(20*24)) * time.Hour),
			deleted:   rng.Intn(10) == 0,
		}
		if typ == NursingEntryType {
			r.shiftDate = day(-rng.Intn(20))
			r.handover = rng.Intn(2) == 0
			if rng.Intn(4) == 0 {
				r.category = IncidentCategory
			}
		}
		store.reports = append(store.reports, r)
	}
	for i := 0; i < 15; i++ {
		store.risks = append(store.risks, fakeRisk{patient: store.patients[rng.Intn(25)].ID, level: levels[rng.Intn(len(levels))]})
	}
	for i := 0; i < 60; i++ {
		store.obs = append(store.obs, fakeObservation{
			patient:  store.patients[rng.Intn(25)].ID,
			category: VitalSignsCategory,
			interp:   interps[rng.Intn(len(interps))],
			at:       testNow.Add(-time.Duration(rng.Intn(20*24)) * time.Hour),
		})
	}
	return store
}

func TestOverview_Properties(t *testing.T) {
	col := collate.New(language.Dutch)
	for seed := int64(1); seed <= 5; seed++ {
		store := seededStore(seed)
		svc := newTestService(store, SampleFallback{Store: store})
		for _, period := range []Period{Period1Day, Period3Days, Period7Days, Period14Days} {
			res, err := svc.Overview(context.Background(), period)
			if err != nil {
				t.Fatalf("seed %d period %d: unexpected error: %v", seed, period, err)
			}
			if res.Total != len(res.Patients) {
				t.Errorf("seed %d period %d: total %d != len %d", seed, period, res.Total, len(res.Patients))
			}
			seen := map[uuid.UUID]bool{}
			for i, p := range res.Patients {
				if seen[p.ID] {
					t.Errorf("seed %d period %d: duplicate patient %s", seed, period, p.ID)
				}
				seen[p.ID] = true
				if p.TotalAlerts < 0 || p.TotalAlerts != p.HighRiskCount+p.AbnormalVitalsCount+p.MarkedForHandoverCount+p.IncidentCount {
					t.Errorf("seed %d period %d: bad total for %s: %+v", seed, period, p.ID, p)
				}
				if i == 0 {
					continue
				}
				prev := res.Patients[i-1]
				if prev.TotalAlerts < p.TotalAlerts {
					t.Errorf("seed %d period %d: not sorted by total at %d", seed, period, i)
				}
				if prev.TotalAlerts == p.TotalAlerts && col.CompareString(prev.FamilyName, p.FamilyName) > 0 {
					t.Errorf("seed %d period %d: %q before %q", seed, period, prev.FamilyName, p.FamilyName)
				}
			}

			again, _ := svc.Overview(context.Background(), period)
			if !reflect.DeepEqual(res, again) {
				t.Errorf("seed %d period %d: repeated call differs", seed, period)
			}
		}
	}
}

func TestOverview_ZeerHoogScenario(t *testing.T) {
	store := newFakeStore()
	p := store.addPatient("Jansen", "Piet")
	other := store.addPatient("Bakker", "Sem")
	store.risks = append(store.risks, fakeRisk{patient: p.ID, level: "zeer_hoog"})
	store.reports = append(store.reports,
		fakeReport{patient: p.ID, typ: "vrije_tekst", createdAt: testNow.AddDate(0, 0, -2)},
		fakeReport{patient: other.ID, typ: "vrije_tekst", createdAt: testNow},
	)

	res, err := newTestService(store, NoFallback{}).Overview(context.Background(), Period7Days)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Date != "2026-03-10" || res.WindowStart != "2026-03-04" || res.Period != 7 {
		t.Errorf("unexpected window fields: %+v", res)
	}
	first := res.Patients[0]
	if first.ID != p.ID {
		t.Fatalf("expected high-risk patient first, got %s", first.FamilyName)
	}
	want := AlertTally{HighRiskCount: 1}
	if first.AlertTally != want || first.TotalAlerts != 1 {
		t.Errorf("expected %+v with total 1, got %+v total %d", want, first.AlertTally, first.TotalAlerts)
	}
}

func TestOverview_EqualTotalsSortByFamilyName(t *testing.T) {
	store := newFakeStore()
	a := store.addPatient("Jansen", "Piet")
	b := store.addPatient("Bakker", "Sem")
	for _, id := range []uuid.UUID{a.ID, b.ID} {
		for i := 0; i < 3; i++ {
			store.reports = append(store.reports, fakeReport{patient: id, typ: CrisisType, createdAt: testNow})
		}
	}

	res, err := newTestService(store, NoFallback{}).Overview(context.Background(), Period1Day)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(res.Patients) != 2 || res.Patients[0].ID != b.ID || res.Patients[1].ID != a.ID {
		t.Errorf("expected Bakker before Jansen, got %s", rankNames(res.Patients))
	}
	if res.Patients[0].TotalAlerts != 3 {
		t.Errorf("expected total 3, got %d", res.Patients[0].TotalAlerts)
	}
}

func TestOverview_FallbackBoundary(t *testing.T) {
	store := newFakeStore()
	for i := 0; i < 30; i++ {
		store.addPatient("Patiënt", "X")
	}
	standing := store.patients[3]
	store.risks = append(store.risks, fakeRisk{patient: standing.ID, level: "hoog"})

	res, err := newTestService(store, SampleFallback{Store: store, Limit: 20}).Overview(context.Background(), Period14Days)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !res.Fallback {
		t.Error("expected fallback flag on result")
	}
	if res.Total != 20 {
		t.Fatalf("expected 20 sample patients, got %d", res.Total)
	}
	for _, p := range res.Patients {
		want := 0
		if p.ID == standing.ID {
			want = 1
		}
		if p.TotalAlerts != want || p.HighRiskCount != want {
			t.Errorf("%s: expected total %d, got %+v", p.ID, want, p.AlertTally)
		}
	}
	if res.Patients[0].ID != standing.ID {
		t.Error("expected standing high-risk patient ranked first")
	}
}

func TestOverview_EmptyWithoutFallback(t *testing.T) {
	store := newFakeStore()
	store.addPatient("Jansen", "Piet")

	res, err := newTestService(store, NoFallback{}).Overview(context.Background(), Period1Day)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Total != 0 || res.Patients == nil {
		t.Errorf("expected an empty, non-nil patient list, got %+v", res)
	}
}

func TestOverview_CancelledContext(t *testing.T) {
	store := newFakeStore()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := newTestService(store, NoFallback{}).Overview(ctx, Period1Day); err == nil {
		t.Fatal("expected error for cancelled context")
	}
}
