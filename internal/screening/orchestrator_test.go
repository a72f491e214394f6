package screening

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/complyline/screening/internal/capture"
	"github.com/complyline/screening/internal/model"
	"github.com/complyline/screening/internal/risk"
	"github.com/complyline/screening/internal/watchlist"
)

type fakeRegistry struct {
	findings model.RegistryFindings
}

func (f *fakeRegistry) Lookup(ctx context.Context, name string) model.RegistryFindings {
	return f.findings
}

func (f *fakeRegistry) DeepLink(query string) string {
	return "https://registry.example/#/main?search=" + query
}

type fakeSnapshots struct {
	snap *watchlist.Snapshot
	err  error
}

func (f *fakeSnapshots) EnsureFresh(ctx context.Context) (*watchlist.Snapshot, error) {
	return f.snap, f.err
}

type memStore struct {
	mu      sync.Mutex
	objects map[string][]byte
	failPut bool
}

func newMemStore() *memStore { return &memStore{objects: map[string][]byte{}} }

func (s *memStore) Put(ctx context.Context, key string, data []byte, contentType string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failPut {
		return "", errors.New("store unavailable")
	}
	s.objects[key] = data
	return key, nil
}

func (s *memStore) PresignedURL(ctx context.Context, key string, ttl time.Duration) (string, error) {
	return "https://cdn.example/" + key, nil
}

type fakeRenderer struct {
	err   error
	calls int
}

func (r *fakeRenderer) RenderPDF(ctx context.Context, url string, hints capture.WaitHints) ([]byte, error) {
	r.calls++
	if r.err != nil {
		return nil, r.err
	}
	return []byte("%PDF-1.4 fake"), nil
}

func personSnapshot(t *testing.T, count int) *watchlist.Snapshot {
	t.Helper()
	var b strings.Builder
	b.WriteString("<CONSOLIDATED_LIST><INDIVIDUALS>")
	for i := 0; i < count; i++ {
		fmt.Fprintf(&b, "<INDIVIDUAL><DATAID>%d</DATAID><FIRST_NAME>John</FIRST_NAME><SECOND_NAME>Smith %d</SECOND_NAME></INDIVIDUAL>", 110000+i, i)
	}
	b.WriteString("</INDIVIDUALS></CONSOLIDATED_LIST>")
	return watchlist.NewSnapshot([]byte(b.String()), time.Now())
}

func newOrchestrator(reg RegistryClient, snaps SnapshotSource, store ArtifactStore, renderer capture.Renderer) *Orchestrator {
	scorer := risk.New("", "gpt-4o-mini", zerolog.Nop())
	return New(reg, snaps, scorer, store, renderer, time.Hour, 10*time.Millisecond, zerolog.Nop())
}

func TestScreen_HappyPath(t *testing.T) {
	reg := &fakeRegistry{findings: model.RegistryFindings{
		Candidates: []string{"John Smith"},
		Regimes:    []map[string]any{{"id": float64(3), "acronym": "SYR"}},
		Found:      true,
	}}
	store := newMemStore()
	o := newOrchestrator(reg, &fakeSnapshots{snap: personSnapshot(t, 1)}, store, &fakeRenderer{})

	rec, err := o.Screen(context.Background(), "John Smith", "person")
	require.NoError(t, err)

	require.True(t, rec.EUFound)
	require.True(t, rec.UNFound)
	require.Len(t, rec.UNMatches, 1)
	require.Equal(t, "MEDIUM", rec.RiskScore)
	require.Empty(t, rec.Degraded)

	for _, key := range []string{model.EvidenceEU, model.EvidenceUN, model.EvidenceRawData, model.EvidenceAudit} {
		require.NotNil(t, rec.Evidence[key], "locator %s", key)
	}
	// Candidates then regimes in the response-facing list.
	require.Equal(t, "person_match", rec.EUMatches[0].Type)
	require.Equal(t, "regime", rec.EUMatches[1].Type)

	// All five artifacts were written under the audit folder.
	require.Len(t, store.objects, 5)
	for key := range store.objects {
		require.True(t, strings.HasPrefix(key, rec.AuditFolder+"/"), "artifact %s outside audit folder", key)
	}
}

func TestScreen_InputValidation(t *testing.T) {
	o := newOrchestrator(&fakeRegistry{}, &fakeSnapshots{snap: personSnapshot(t, 0)}, newMemStore(), &fakeRenderer{})

	_, err := o.Screen(context.Background(), "   ", "person")
	require.ErrorIs(t, err, model.ErrValidation)

	_, err = o.Screen(context.Background(), "John", "company")
	require.ErrorIs(t, err, model.ErrValidation)
}

func TestScreen_CaptureFailureDegradesEUEvidenceOnly(t *testing.T) {
	reg := &fakeRegistry{}
	store := newMemStore()
	renderer := &fakeRenderer{err: errors.New("browser timeout")}
	o := newOrchestrator(reg, &fakeSnapshots{snap: personSnapshot(t, 1)}, store, renderer)

	rec, err := o.Screen(context.Background(), "John Smith", "person")
	require.NoError(t, err, "capture failure must not fail the request")

	require.Nil(t, rec.Evidence[model.EvidenceEU])
	// The UN chain falls back to linking the raw document.
	require.NotNil(t, rec.Evidence[model.EvidenceUN])
	require.Contains(t, *rec.Evidence[model.EvidenceUN], "evidence_un.html")
	require.NotNil(t, rec.Evidence[model.EvidenceRawData])
	require.NotNil(t, rec.Evidence[model.EvidenceAudit])
	require.Contains(t, rec.Degraded, "euCapture")
}

func TestScreen_WatchlistUnavailableSkipsMatching(t *testing.T) {
	o := newOrchestrator(
		&fakeRegistry{},
		&fakeSnapshots{err: model.ErrDataUnavailable},
		newMemStore(),
		&fakeRenderer{},
	)

	rec, err := o.Screen(context.Background(), "John Smith", "person")
	require.NoError(t, err)
	require.False(t, rec.UNFound)
	require.Empty(t, rec.UNMatches)
	require.Contains(t, rec.Degraded, "watchlist")
	// The evidence document still exists, stating no match.
	require.NotNil(t, rec.Evidence[model.EvidenceUN])
}

func TestScreen_StoreFailureDegradesEverythingButSucceeds(t *testing.T) {
	store := newMemStore()
	store.failPut = true
	o := newOrchestrator(&fakeRegistry{}, &fakeSnapshots{snap: personSnapshot(t, 1)}, store, &fakeRenderer{})

	rec, err := o.Screen(context.Background(), "Jane Doe", "person")
	require.NoError(t, err)
	for _, key := range []string{model.EvidenceEU, model.EvidenceUN, model.EvidenceRawData, model.EvidenceAudit} {
		require.Nil(t, rec.Evidence[key])
	}
	require.NotEmpty(t, rec.Degraded)
	require.Equal(t, "LOW", rec.RiskScore, "scoring still runs on a fully degraded evidence chain")
}

func TestScreen_DisplayListsCappedAtTen(t *testing.T) {
	o := newOrchestrator(&fakeRegistry{}, &fakeSnapshots{snap: personSnapshot(t, 15)}, newMemStore(), &fakeRenderer{})

	rec, err := o.Screen(context.Background(), "john", "person")
	require.NoError(t, err)
	require.Len(t, rec.UNMatches, maxDisplayMatches)
}

func TestScreen_NilCollaboratorsStillSucceed(t *testing.T) {
	scorer := risk.New("", "gpt-4o-mini", zerolog.Nop())
	o := New(&fakeRegistry{}, &fakeSnapshots{snap: personSnapshot(t, 1)}, scorer, nil, nil, time.Hour, 0, zerolog.Nop())

	rec, err := o.Screen(context.Background(), "John Smith", "person")
	require.NoError(t, err)
	require.True(t, rec.UNFound, "matching is independent of evidence persistence")
	for _, loc := range rec.Evidence {
		require.Nil(t, loc)
	}
}
