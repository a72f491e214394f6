package watchlist

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/rs/zerolog"

	"github.com/complyline/screening/internal/model"
)

const (
	contentFileName = "consolidated.xml"
	dateFileName    = "consolidated_date.txt"

	// MirrorKey is where the raw dataset bytes are backed up off-box.
	MirrorKey = "cache/consolidated.xml"
)

// Mirror receives a best-effort durable copy of the raw dataset bytes.
type Mirror interface {
	Put(ctx context.Context, key string, data []byte, contentType string) (string, error)
}

// Manager owns the local consolidated-list cache and its freshness metadata.
// Refresh is idempotent and safe to race: two requests that both see a stale
// cache may both fetch, and the last writer wins. One redundant fetch per day
// is the accepted worst case.
type Manager struct {
	url    string
	dir    string
	client *resty.Client
	mirror Mirror
	log    zerolog.Logger

	mu   sync.Mutex
	snap *Snapshot

	now func() time.Time
}

// NewManager creates a cache manager. mirror may be nil when no durable
// backup store is configured.
func NewManager(url, dir string, fetchTimeout time.Duration, mirror Mirror, log zerolog.Logger) *Manager {
	client := resty.New().
		SetTimeout(fetchTimeout).
		SetRedirectPolicy(resty.FlexibleRedirectPolicy(5))
	return &Manager{
		url:    url,
		dir:    dir,
		client: client,
		mirror: mirror,
		log:    log,
		now:    time.Now,
	}
}

// EnsureFresh returns a snapshot downloaded today (UTC), refreshing from the
// remote source when the local copy is missing or stale. When refresh fails
// and no local copy exists it returns model.ErrDataUnavailable; callers treat
// that as "watchlist matching skipped", not a request failure.
func (m *Manager) EnsureFresh(ctx context.Context) (*Snapshot, error) {
	today := m.today()

	m.mu.Lock()
	if m.snap != nil && m.snap.FetchedOn().Equal(today) {
		snap := m.snap
		m.mu.Unlock()
		return snap, nil
	}
	m.mu.Unlock()

	if snap := m.loadLocal(today); snap != nil {
		m.store(snap)
		return snap, nil
	}

	snap, err := m.refresh(ctx, today)
	if err != nil {
		return nil, err
	}
	m.store(snap)
	return snap, nil
}

// CachedDate reports the date marker of the on-disk cache, if present.
func (m *Manager) CachedDate() (time.Time, bool) {
	return m.readDateMarker()
}

func (m *Manager) store(snap *Snapshot) {
	m.mu.Lock()
	m.snap = snap
	m.mu.Unlock()
}

func (m *Manager) today() time.Time {
	return m.now().UTC().Truncate(24 * time.Hour)
}

// loadLocal returns the on-disk snapshot only when its date marker equals
// today; no network access happens on this path.
func (m *Manager) loadLocal(today time.Time) *Snapshot {
	date, ok := m.readDateMarker()
	if !ok || !date.Equal(today) {
		return nil
	}
	content, err := os.ReadFile(filepath.Join(m.dir, contentFileName))
	if err != nil {
		return nil
	}
	m.log.Info().Str("date", date.Format("2006-01-02")).Msg("using locally cached consolidated list")
	return NewSnapshot(content, date)
}

func (m *Manager) readDateMarker() (time.Time, bool) {
	b, err := os.ReadFile(filepath.Join(m.dir, dateFileName))
	if err != nil {
		return time.Time{}, false
	}
	date, err := time.ParseInLocation("2006-01-02", strings.TrimSpace(string(b)), time.UTC)
	if err != nil {
		return time.Time{}, false
	}
	return date, true
}

// refresh discards the stale cache pair, downloads the full dataset, writes
// content then date marker (content via temp file + rename so concurrent
// readers never see a partial write), and best-effort mirrors the raw bytes.
func (m *Manager) refresh(ctx context.Context, today time.Time) (*Snapshot, error) {
	contentPath := filepath.Join(m.dir, contentFileName)
	datePath := filepath.Join(m.dir, dateFileName)

	// Delete-then-replace: never leave a mismatched content+date pair.
	_ = os.Remove(datePath)
	_ = os.Remove(contentPath)

	m.log.Info().Str("url", m.url).Msg("downloading fresh consolidated list")
	resp, err := m.client.R().SetContext(ctx).Get(m.url)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", model.ErrDataUnavailable, err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("%w: dataset source status %d", model.ErrDataUnavailable, resp.StatusCode())
	}
	content := resp.Body()

	if err := os.MkdirAll(m.dir, 0o755); err != nil {
		return nil, fmt.Errorf("create cache dir: %w", err)
	}
	tmp, err := os.CreateTemp(m.dir, contentFileName+".tmp-*")
	if err != nil {
		return nil, fmt.Errorf("create temp cache file: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(content); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return nil, fmt.Errorf("write cache file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return nil, fmt.Errorf("close cache file: %w", err)
	}
	if err := os.Rename(tmpName, contentPath); err != nil {
		_ = os.Remove(tmpName)
		return nil, fmt.Errorf("replace cache file: %w", err)
	}
	if err := os.WriteFile(datePath, []byte(today.Format("2006-01-02")), 0o644); err != nil {
		return nil, fmt.Errorf("write date marker: %w", err)
	}
	m.log.Info().Int("bytes", len(content)).Msg("consolidated list cached locally")

	// Mirror failure is logged and swallowed; it never fails the refresh.
	if m.mirror != nil {
		if _, err := m.mirror.Put(ctx, MirrorKey, content, "application/xml"); err != nil {
			m.log.Warn().Err(err).Msg("failed to mirror consolidated list to durable storage")
		} else {
			m.log.Info().Str("key", MirrorKey).Msg("consolidated list mirrored to durable storage")
		}
	}

	return NewSnapshot(content, today), nil
}
