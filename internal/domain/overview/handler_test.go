package overview

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
)

func newTestHandler(store *fakeStore) *Handler {
	return NewHandler(newTestService(store, NoFallback{}))
}

func TestHandler_GetOverview(t *testing.T) {
	store := newFakeStore()
	p := store.addPatient("Jansen", "Piet")
	store.reports = append(store.reports, fakeReport{patient: p.ID, typ: IncidentType, createdAt: testNow})
	h := newTestHandler(store)

	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/handover/overview?period=7", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	if err := h.GetOverview(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var body struct {
		Patients []struct {
			ID            string `json:"id"`
			FamilyName    string `json:"family_name"`
			IncidentCount int    `json:"incident_count"`
			TotalAlerts   int    `json:"total_alerts"`
		} `json:"patients"`
		Total  int    `json:"total"`
		Date   string `json:"date"`
		Period int    `json:"period"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Total != 1 || body.Date != "2026-03-10" || body.Period != 7 {
		t.Errorf("unexpected body: %+v", body)
	}
	if body.Patients[0].ID != p.ID.String() || body.Patients[0].IncidentCount != 1 || body.Patients[0].TotalAlerts != 1 {
		t.Errorf("unexpected patient row: %+v", body.Patients[0])
	}
}

func TestHandler_UnknownPeriodUsesDefault(t *testing.T) {
	h := newTestHandler(newFakeStore())

	e := echo.New()
	rec := httptest.NewRecorder()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/api/v1/handover/overview?period=banana", nil), rec)

	if err := h.GetOverview(c); err != nil {
		t.Fatalf("expected no error for unknown period, got %v", err)
	}
	if !strings.Contains(rec.Body.String(), `"period":1`) {
		t.Errorf("expected default period 1, got %s", rec.Body.String())
	}
	if !strings.Contains(rec.Body.String(), `"patients":[]`) {
		t.Errorf("expected empty patient array, got %s", rec.Body.String())
	}
}

func TestHandler_CancelledRequest(t *testing.T) {
	h := newTestHandler(newFakeStore())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/handover/overview", nil).WithContext(ctx)
	c := e.NewContext(req, httptest.NewRecorder())

	err := h.GetOverview(c)
	httpErr, ok := err.(*echo.HTTPError)
	if !ok || httpErr.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %v", err)
	}
}

func TestHandler_ExportOverview(t *testing.T) {
	store := newFakeStore()
	p := store.addPatient("Jansen", "Piet")
	store.reports = append(store.reports, fakeReport{patient: p.ID, typ: CrisisType, createdAt: testNow})
	h := newTestHandler(store)

	e := echo.New()
	rec := httptest.NewRecorder()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/api/v1/handover/overview/export?period=3", nil), rec)

	if err := h.ExportOverview(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ct := rec.Header().Get(echo.HeaderContentType); ct != xlsxContentType {
		t.Errorf("unexpected content type %q", ct)
	}
	if cd := rec.Header().Get(echo.HeaderContentDisposition); !strings.Contains(cd, "overdracht-2026-03-10-3d.xlsx") {
		t.Errorf("unexpected content disposition %q", cd)
	}
	// xlsx files are zip archives
	if !strings.HasPrefix(rec.Body.String(), "PK") {
		t.Error("expected a zip payload")
	}
}

func TestHandler_RoutesRequireClinicalRole(t *testing.T) {
	e := echo.New()
	newTestHandler(newFakeStore()).RegisterRoutes(e.Group("/api/v1"))

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/handover/overview", nil))
	if rec.Code != http.StatusForbidden {
		t.Errorf("expected 403 without roles, got %d", rec.Code)
	}
}
