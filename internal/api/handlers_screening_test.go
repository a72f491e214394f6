package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http/httptest"
	"testing"

	"github.com/complyline/screening/internal/model"
)

type stubScreener struct {
	calls    int
	lastType string
	rec      *model.ScreeningRecord
}

func (s *stubScreener) Screen(ctx context.Context, name, searchType string) (*model.ScreeningRecord, error) {
	s.calls++
	s.lastType = searchType
	if name == "" {
		return nil, fmt.Errorf("%w: name is required", model.ErrValidation)
	}
	return s.rec, nil
}

func TestCreateScreening_ReturnsRecord(t *testing.T) {
	loc := "https://cdn.example/x/audit_log.txt"
	s := &stubScreener{rec: &model.ScreeningRecord{
		Query:      "John Smith",
		SearchType: model.ClassPerson,
		RiskScore:  "LOW",
		Evidence:   map[string]*string{model.EvidenceAudit: &loc, model.EvidenceEU: nil},
	}}
	h := NewScreeningHandler(s)

	body := bytes.NewBufferString(`{"name":"John Smith","searchType":"person"}`)
	w := httptest.NewRecorder()
	h.CreateScreening(w, httptest.NewRequest("POST", "/api/screenings", body))

	if w.Code != 200 {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	var resp map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp["riskScore"] != "LOW" {
		t.Fatalf("unexpected riskScore %v", resp["riskScore"])
	}
	// Degraded locators serialize as explicit nulls, not omitted keys.
	ev, ok := resp["evidence"].(map[string]any)
	if !ok {
		t.Fatalf("evidence missing")
	}
	if v, present := ev["euEvidence"]; !present || v != nil {
		t.Fatalf("expected explicit null euEvidence, got %v (present=%v)", v, present)
	}
}

func TestCreateScreening_ValidationError(t *testing.T) {
	h := NewScreeningHandler(&stubScreener{})

	body := bytes.NewBufferString(`{"name":"","searchType":"person"}`)
	w := httptest.NewRecorder()
	h.CreateScreening(w, httptest.NewRequest("POST", "/api/screenings", body))

	if w.Code != 400 {
		t.Fatalf("expected 400, got %d", w.Code)
	}
}

func TestCreateScreening_BadJSON(t *testing.T) {
	h := NewScreeningHandler(&stubScreener{})

	w := httptest.NewRecorder()
	h.CreateScreening(w, httptest.NewRequest("POST", "/api/screenings", bytes.NewBufferString("{")))

	if w.Code != 400 {
		t.Fatalf("expected 400, got %d", w.Code)
	}
}

func TestCreateScreening_DefaultsToPerson(t *testing.T) {
	s := &stubScreener{rec: &model.ScreeningRecord{}}
	h := NewScreeningHandler(s)

	body := bytes.NewBufferString(`{"name":"John Smith"}`)
	w := httptest.NewRecorder()
	h.CreateScreening(w, httptest.NewRequest("POST", "/api/screenings", body))

	if w.Code != 200 {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if s.lastType != "person" {
		t.Fatalf("expected default searchType person, got %q", s.lastType)
	}
}
