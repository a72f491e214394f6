// Package sanctionsmap is a thin client for the EU Sanctions Map public API.
// Both calls are read-only and list-shaped under a "data" key; any network or
// parse failure degrades to an empty result so downstream logic always sees a
// well-formed structure.
package sanctionsmap

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/rs/zerolog"

	"github.com/complyline/screening/internal/model"
)

const (
	autocompletePath = "/api/v1/autocomplete/search"
	regimePath       = "/api/v1/regime"

	autocompleteLimit = "15"
)

// Client queries the EU Sanctions Map in two stages: autocomplete first, then
// regime detail only when the autocomplete result confirms the name exists on
// the list. The second call is skipped for near-miss candidates.
type Client struct {
	client  *resty.Client
	baseURL string
	log     zerolog.Logger
}

// New creates a sanctions map client against the given base URL.
func New(baseURL string, timeout time.Duration, log zerolog.Logger) *Client {
	client := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(timeout).
		SetHeader("Accept", "application/json, text/plain, */*").
		SetHeader("Accept-Language", "en-US,en;q=0.9").
		SetHeader("User-Agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/144.0.0.0 Safari/537.36").
		SetHeader("Referer", baseURL+"/")
	return &Client{client: client, baseURL: baseURL, log: log}
}

// Lookup runs the two-stage protocol and never returns an error: a failed
// stage contributes an empty slice.
func (c *Client) Lookup(ctx context.Context, name string) model.RegistryFindings {
	candidates := c.Autocomplete(ctx, name)
	found := nameFoundIn(name, candidates)

	var regimes []map[string]any
	if found {
		regimes = c.Regimes(ctx, name)
	}
	return model.RegistryFindings{Candidates: candidates, Regimes: regimes, Found: found}
}

// Autocomplete returns candidate name strings for the query.
func (c *Client) Autocomplete(ctx context.Context, name string) []string {
	resp, err := c.client.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"lang":        "en",
			"search":      name,
			"search_type": "1",
			"limit":       autocompleteLimit,
		}).
		Get(autocompletePath)
	if err != nil || resp.IsError() {
		c.log.Warn().Err(err).Int("status", resp.StatusCode()).Msg("autocomplete call failed")
		return nil
	}

	var payload struct {
		Data []string `json:"data"`
	}
	if err := json.Unmarshal(resp.Body(), &payload); err != nil {
		c.log.Warn().Err(err).Msg("autocomplete response malformed")
		return nil
	}
	return payload.Data
}

// Regimes returns the detailed regime records for the query. The records are
// shape-varying and kept opaque; see extract.go for tolerant field access.
func (c *Client) Regimes(ctx context.Context, name string) []map[string]any {
	resp, err := c.client.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"lang":        "en",
			"search":      name,
			"search_type": "1",
		}).
		Get(regimePath)
	if err != nil || resp.IsError() {
		c.log.Warn().Err(err).Int("status", resp.StatusCode()).Msg("regime call failed")
		return nil
	}

	var payload struct {
		Data []map[string]any `json:"data"`
	}
	if err := json.Unmarshal(resp.Body(), &payload); err != nil {
		c.log.Warn().Err(err).Msg("regime response malformed")
		return nil
	}
	return payload.Data
}

// nameFoundIn reports whether the query is a case-insensitive substring of a
// candidate, or a candidate of the query. Either direction confirms the name
// actually appears on the list.
func nameFoundIn(name string, candidates []string) bool {
	lower := strings.ToLower(name)
	for _, cand := range candidates {
		cl := strings.ToLower(cand)
		if strings.Contains(cl, lower) || strings.Contains(lower, cl) {
			return true
		}
	}
	return false
}

// HealthPing probes the registry with a minimal autocomplete call; used by
// health checking.
func (c *Client) HealthPing(ctx context.Context) error {
	resp, err := c.client.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{"lang": "en", "search": "a", "search_type": "1", "limit": "1"}).
		Get(autocompletePath)
	if err != nil {
		return err
	}
	if resp.IsError() {
		return fmt.Errorf("sanctions map status %d", resp.StatusCode())
	}
	return nil
}

// DeepLink builds the SPA URL that renders the search result for the query,
// used as the visual-evidence capture target.
func (c *Client) DeepLink(query string) string {
	search, _ := json.Marshal(map[string]any{
		"value": query,
		"searchType": map[string]any{
			"id":    1,
			"title": "regimes, persons, entities",
		},
	})
	return c.baseURL + "/#/main?search=" + url.QueryEscape(string(search))
}
