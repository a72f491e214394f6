package main

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/complyline/screening/internal/model"
)

// runScreen posts one screening request and renders the record.
func runScreen(api, name, searchType string, out io.Writer) error {
	client := resty.New().SetBaseURL(api).SetTimeout(5 * time.Minute)

	var rec model.ScreeningRecord
	resp, err := client.R().
		SetHeader("Content-Type", "application/json").
		SetBody(map[string]string{"name": name, "searchType": searchType}).
		SetResult(&rec).
		Post("/api/screenings")
	if err != nil {
		return err
	}
	if resp.IsError() {
		return fmt.Errorf("screening failed: %s: %s", resp.Status(), resp.String())
	}

	fmt.Fprintf(out, "Query:        %s (%s)\n", rec.Query, rec.SearchType)
	fmt.Fprintf(out, "Risk:         %s\n", rec.RiskScore)
	fmt.Fprintf(out, "Summary:      %s\n", rec.Summary)
	fmt.Fprintf(out, "EU found:     %v (%d match(es))\n", rec.EUFound, len(rec.EUMatches))
	fmt.Fprintf(out, "UN found:     %v (%d match(es))\n", rec.UNFound, len(rec.UNMatches))
	fmt.Fprintf(out, "Audit folder: %s\n", rec.AuditFolder)
	for key, loc := range rec.Evidence {
		if loc == nil {
			fmt.Fprintf(out, "  %-12s (unavailable)\n", key+":")
			continue
		}
		fmt.Fprintf(out, "  %-12s %s\n", key+":", *loc)
	}
	if len(rec.Degraded) > 0 {
		fmt.Fprintf(out, "Degraded steps: %v\n", rec.Degraded)
	}
	return nil
}

// runHealth prints the health endpoint's response.
func runHealth(api string, out io.Writer) error {
	client := resty.New().SetBaseURL(api).SetTimeout(10 * time.Second)

	resp, err := client.R().Get("/api/health")
	if err != nil {
		return err
	}
	var pretty map[string]any
	if err := json.Unmarshal(resp.Body(), &pretty); err != nil {
		return fmt.Errorf("malformed health response: %w", err)
	}
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(pretty)
}
