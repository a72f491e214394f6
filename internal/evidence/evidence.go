// Package evidence renders the audit artifacts of one screening transaction:
// the UN evidence document, the raw-findings record, the plain-text audit
// log, and the audit-folder identifiers they live under.
package evidence

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/complyline/screening/internal/model"
)

// Artifact object names inside an audit folder.
const (
	EUPDFName    = "evidence_eu.pdf"
	UNHTMLName   = "evidence_un.html"
	UNPDFName    = "evidence_un.pdf"
	RawDataName  = "raw_data.json"
	AuditLogName = "audit_log.txt"
)

const maxFolderNameLen = 50

// AuditFolder derives the folder identifier for a screening:
// {sanitized_lowercase_name}/{YYYYMMDD_HHMMSS}. The timestamp provides
// collision avoidance; uniqueness is not checked.
func AuditFolder(name string, now time.Time) string {
	var b strings.Builder
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_', r == ' ':
			b.WriteRune(r)
		default:
			b.WriteRune('_')
		}
	}
	safe := strings.ToLower(strings.ReplaceAll(strings.TrimSpace(b.String()), " ", "_"))
	if len(safe) > maxFolderNameLen {
		safe = safe[:maxFolderNameLen]
	}
	return safe + "/" + now.UTC().Format("20060102_150405")
}

// RawFindings serializes the structured raw-findings record.
func RawFindings(rec *model.ScreeningRecord, eu model.RegistryFindings, matches []model.MatchResult) ([]byte, error) {
	payload := map[string]any{
		"request_id":  rec.RequestID,
		"query":       rec.Query,
		"search_type": rec.SearchType,
		"timestamp":   rec.Timestamp.Format(time.RFC3339),
		"eu_data": map[string]any{
			"autocomplete": eu.Candidates,
			"regimes":      eu.Regimes,
			"found":        eu.Found,
		},
		"un_matches": matches,
		"risk_score": rec.RiskScore,
		"summary":    rec.Summary,
	}
	return json.MarshalIndent(payload, "", "  ")
}

// AuditLog renders the human-readable plain-text audit log.
func AuditLog(rec *model.ScreeningRecord, eu model.RegistryFindings, matches []model.MatchResult) string {
	status := func(found bool) string {
		if found {
			return "MATCH"
		}
		return "CLEAR"
	}

	return fmt.Sprintf(`Sanctions Screening Audit Log
=============================
Timestamp: %s
Request ID: %s
Query: %s
Type: %s

EU Sanctions Map:
- Autocomplete Matches: %d
- Regime Matches: %d
- Status: %s

UN Security Council:
- Matches Found: %d
- Status: %s

Risk Assessment:
- Score: %s
- Summary: %s

Evidence Files:
- EU Evidence: %s
- UN Evidence: %s
- Raw Data: %s

=============================
End of Audit Log
`,
		rec.Timestamp.Format(time.RFC3339),
		rec.RequestID,
		rec.Query,
		rec.SearchType,
		len(eu.Candidates),
		len(eu.Regimes),
		status(eu.Found),
		len(matches),
		status(len(matches) > 0),
		rec.RiskScore,
		rec.Summary,
		EUPDFName,
		UNPDFName,
		RawDataName,
	)
}
