// Package screening coordinates one screening transaction: remote registry
// lookup, watchlist matching, visual-evidence capture, risk scoring, and
// artifact persistence. Every step past input validation is independently
// caught and degraded, so the orchestrator always returns a best-effort
// record.
package screening

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/complyline/screening/internal/capture"
	"github.com/complyline/screening/internal/evidence"
	"github.com/complyline/screening/internal/model"
	"github.com/complyline/screening/internal/risk"
	"github.com/complyline/screening/internal/sanctionsmap"
	"github.com/complyline/screening/internal/watchlist"
)

// maxDisplayMatches caps the match lists in the response. The matching engine
// itself caps at 20; the two limits are intentionally separate.
const maxDisplayMatches = 10

// RegistryClient is the remote registry collaborator boundary.
type RegistryClient interface {
	Lookup(ctx context.Context, name string) model.RegistryFindings
	DeepLink(query string) string
}

// SnapshotSource resolves the current watchlist snapshot.
type SnapshotSource interface {
	EnsureFresh(ctx context.Context) (*watchlist.Snapshot, error)
}

// ArtifactStore is the write-then-link sink for evidence artifacts.
type ArtifactStore interface {
	Put(ctx context.Context, key string, data []byte, contentType string) (string, error)
	PresignedURL(ctx context.Context, key string, ttl time.Duration) (string, error)
}

// Orchestrator runs screening transactions. Store and renderer may be nil;
// the affected steps then degrade instead of failing the request.
type Orchestrator struct {
	registry  RegistryClient
	snapshots SnapshotSource
	scorer    *risk.Scorer
	store     ArtifactStore
	renderer  capture.Renderer

	presignTTL time.Duration
	settle     time.Duration
	log        zerolog.Logger
	now        func() time.Time
}

// New creates an orchestrator with its collaborators.
func New(registry RegistryClient, snapshots SnapshotSource, scorer *risk.Scorer, store ArtifactStore, renderer capture.Renderer, presignTTL, settle time.Duration, log zerolog.Logger) *Orchestrator {
	return &Orchestrator{
		registry:   registry,
		snapshots:  snapshots,
		scorer:     scorer,
		store:      store,
		renderer:   renderer,
		presignTTL: presignTTL,
		settle:     settle,
		log:        log,
		now:        time.Now,
	}
}

// run executes one degradable step, converting its failure into a log line
// plus an entry in the record's degraded list. Centralizing the
// swallow-and-continue policy here keeps the call sites uniform.
func (o *Orchestrator) run(step string, degraded *[]string, fn func() error) {
	if err := fn(); err != nil {
		o.log.Warn().Err(err).Str("step", step).Msg("screening step degraded")
		*degraded = append(*degraded, step)
	}
}

// Screen runs one screening transaction. The only error it returns is
// model.ErrValidation for bad input; every collaborator failure is absorbed
// into a degraded but successful record.
func (o *Orchestrator) Screen(ctx context.Context, name, searchType string) (*model.ScreeningRecord, error) {
	query := strings.TrimSpace(name)
	if query == "" {
		return nil, fmt.Errorf("%w: name is required", model.ErrValidation)
	}
	class, ok := model.ParseClassification(searchType)
	if !ok {
		return nil, fmt.Errorf("%w: searchType must be 'person' or 'entity'", model.ErrValidation)
	}

	ts := o.now().UTC()
	rec := &model.ScreeningRecord{
		RequestID:   uuid.New().String(),
		Query:       query,
		SearchType:  class,
		Timestamp:   ts,
		AuditFolder: evidence.AuditFolder(query, ts),
		Evidence: map[string]*string{
			model.EvidenceEU:      nil,
			model.EvidenceUN:      nil,
			model.EvidenceRawData: nil,
			model.EvidenceAudit:   nil,
		},
	}

	log := o.log.With().Str("request_id", rec.RequestID).Str("query", query).Logger()
	log.Info().Str("audit_folder", rec.AuditFolder).Msg("screening started")

	// The registry stage and the watchlist stage have no mutual data
	// dependency and run concurrently; scoring and the audit artifacts need
	// both and run after the join.
	var (
		euFindings model.RegistryFindings
		euDegraded []string
		unMatches  []model.MatchResult
		unDegraded []string
		euLocator  *string
		unLocator  *string
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		euFindings = o.registry.Lookup(gctx, query)
		euLocator = o.captureRegistryEvidence(gctx, rec.AuditFolder, query, &euDegraded)
		return nil
	})
	g.Go(func() error {
		unMatches = o.resolveWatchlistMatches(gctx, query, class, &unDegraded)
		unLocator = o.persistWatchlistEvidence(gctx, rec.AuditFolder, query, unMatches, &unDegraded)
		return nil
	})
	_ = g.Wait()

	rec.Degraded = append(append(rec.Degraded, euDegraded...), unDegraded...)
	rec.Evidence[model.EvidenceEU] = euLocator
	rec.Evidence[model.EvidenceUN] = unLocator

	rec.EUFound = euFindings.Found
	rec.EUMatches = buildRegistryMatches(euFindings)
	rec.UNFound = len(unMatches) > 0
	rec.UNMatches = unMatches
	if len(rec.EUMatches) > maxDisplayMatches {
		rec.EUMatches = rec.EUMatches[:maxDisplayMatches]
	}
	if len(rec.UNMatches) > maxDisplayMatches {
		rec.UNMatches = rec.UNMatches[:maxDisplayMatches]
	}

	rec.RiskScore, rec.Summary = o.scorer.Score(ctx, query, class, euFindings, unMatches)

	o.persistAuditArtifacts(ctx, rec, euFindings, unMatches)

	log.Info().
		Bool("eu_found", rec.EUFound).
		Bool("un_found", rec.UNFound).
		Str("risk", rec.RiskScore).
		Strs("degraded", rec.Degraded).
		Msg("screening finished")
	return rec, nil
}

// captureRegistryEvidence captures the registry's rendered result page and
// persists it. A nil return means the step degraded.
func (o *Orchestrator) captureRegistryEvidence(ctx context.Context, folder, query string, degraded *[]string) *string {
	var locator *string
	o.run("euCapture", degraded, func() error {
		if o.renderer == nil || o.store == nil {
			return fmt.Errorf("capture collaborators not configured")
		}
		pdf, err := o.renderer.RenderPDF(ctx, o.registry.DeepLink(query), capture.WaitHints{Settle: o.settle})
		if err != nil {
			return err
		}
		key := folder + "/" + evidence.EUPDFName
		if _, err := o.store.Put(ctx, key, pdf, "application/pdf"); err != nil {
			return err
		}
		url, err := o.store.PresignedURL(ctx, key, o.presignTTL)
		if err != nil {
			return err
		}
		locator = &url
		return nil
	})
	return locator
}

// resolveWatchlistMatches runs the matching engine against a fresh snapshot.
// An unavailable or corrupt dataset yields zero matches, not a failure.
func (o *Orchestrator) resolveWatchlistMatches(ctx context.Context, query string, class model.Classification, degraded *[]string) []model.MatchResult {
	var matches []model.MatchResult
	o.run("watchlist", degraded, func() error {
		snap, err := o.snapshots.EnsureFresh(ctx)
		if err != nil {
			return err
		}
		matches, err = watchlist.Match(snap, model.NewMatchQuery(query, class))
		return err
	})
	return matches
}

// persistWatchlistEvidence renders the UN evidence document, uploads it,
// captures a PDF of the uploaded document, and returns the best available
// locator: the PDF when the render succeeded, the raw document otherwise.
func (o *Orchestrator) persistWatchlistEvidence(ctx context.Context, folder, query string, matches []model.MatchResult, degraded *[]string) *string {
	var locator *string
	o.run("unEvidence", degraded, func() error {
		if o.store == nil {
			return fmt.Errorf("artifact store not configured")
		}
		doc, err := evidence.UNDocument(query, matches, o.now())
		if err != nil {
			return err
		}
		htmlKey := folder + "/" + evidence.UNHTMLName
		if _, err := o.store.Put(ctx, htmlKey, []byte(doc), "text/html"); err != nil {
			return err
		}
		htmlURL, err := o.store.PresignedURL(ctx, htmlKey, o.presignTTL)
		if err != nil {
			return err
		}

		pdfURL, err := o.renderDocumentPDF(ctx, folder, htmlURL)
		if err != nil {
			// Fall back to linking the raw document.
			o.log.Warn().Err(err).Msg("UN evidence PDF render failed, linking raw document")
			locator = &htmlURL
			return nil
		}
		locator = &pdfURL
		return nil
	})
	return locator
}

func (o *Orchestrator) renderDocumentPDF(ctx context.Context, folder, htmlURL string) (string, error) {
	if o.renderer == nil {
		return "", fmt.Errorf("renderer not configured")
	}
	pdf, err := o.renderer.RenderPDF(ctx, htmlURL, capture.WaitHints{Settle: 2 * time.Second})
	if err != nil {
		return "", err
	}
	key := folder + "/" + evidence.UNPDFName
	if _, err := o.store.Put(ctx, key, pdf, "application/pdf"); err != nil {
		return "", err
	}
	return o.store.PresignedURL(ctx, key, o.presignTTL)
}

// persistAuditArtifacts writes the raw-findings record and the plain-text
// audit log, filling their evidence locators.
func (o *Orchestrator) persistAuditArtifacts(ctx context.Context, rec *model.ScreeningRecord, eu model.RegistryFindings, matches []model.MatchResult) {
	o.run(model.EvidenceRawData, &rec.Degraded, func() error {
		if o.store == nil {
			return fmt.Errorf("artifact store not configured")
		}
		data, err := evidence.RawFindings(rec, eu, matches)
		if err != nil {
			return err
		}
		key := rec.AuditFolder + "/" + evidence.RawDataName
		if _, err := o.store.Put(ctx, key, data, "application/json"); err != nil {
			return err
		}
		url, err := o.store.PresignedURL(ctx, key, o.presignTTL)
		if err != nil {
			return err
		}
		rec.Evidence[model.EvidenceRawData] = &url
		return nil
	})

	o.run(model.EvidenceAudit, &rec.Degraded, func() error {
		if o.store == nil {
			return fmt.Errorf("artifact store not configured")
		}
		key := rec.AuditFolder + "/" + evidence.AuditLogName
		if _, err := o.store.Put(ctx, key, []byte(evidence.AuditLog(rec, eu, matches)), "text/plain"); err != nil {
			return err
		}
		url, err := o.store.PresignedURL(ctx, key, o.presignTTL)
		if err != nil {
			return err
		}
		rec.Evidence[model.EvidenceAudit] = &url
		return nil
	})
}

// buildRegistryMatches projects candidates and regime detail records into the
// response-facing list. Field extraction over the detail records is tolerant;
// missing fields render as absent.
func buildRegistryMatches(findings model.RegistryFindings) []model.RegistryMatch {
	matches := make([]model.RegistryMatch, 0, len(findings.Candidates)+len(findings.Regimes))
	for _, name := range findings.Candidates {
		matches = append(matches, model.RegistryMatch{Type: "person_match", Name: name})
	}
	for _, regime := range findings.Regimes {
		matches = append(matches, sanctionsmap.RegimeMatch(regime))
	}
	return matches
}
