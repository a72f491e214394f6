package evidence

import (
	"bytes"
	"fmt"
	"html/template"
	"time"

	"github.com/complyline/screening/internal/model"
)

// unDocTmpl is the UN evidence document. It is captured to PDF after upload,
// so the styling is print-oriented.
var unDocTmpl = template.Must(template.New("un_evidence").Funcs(template.FuncMap{
	"orNA": func(s string) string {
		if s == "" {
			return "N/A"
		}
		return s
	},
}).Parse(`<!DOCTYPE html>
<html lang="en">
<head>
    <meta charset="UTF-8">
    <meta name="viewport" content="width=device-width, initial-scale=1.0">
    <title>UN Sanctions Evidence - {{.Query}}</title>
    <style>
        body { font-family: 'Segoe UI', Arial, sans-serif; margin: 40px; background: #f5f5f5; }
        .header { background: linear-gradient(135deg, #1a237e, #3949ab); color: white; padding: 30px; border-radius: 10px; margin-bottom: 30px; }
        .header h1 { margin: 0; font-size: 24px; }
        .header p { margin: 10px 0 0 0; opacity: 0.9; }
        .match { background: white; border-radius: 8px; padding: 20px; margin-bottom: 20px; box-shadow: 0 2px 10px rgba(0,0,0,0.1); }
        .match h3 { color: #c62828; margin-top: 0; }
        .match-details { display: grid; grid-template-columns: repeat(2, 1fr); gap: 15px; }
        .detail label { font-weight: 600; color: #666; display: block; font-size: 12px; text-transform: uppercase; }
        .detail span { color: #333; }
        .no-match { background: #e8f5e9; border-left: 4px solid #4caf50; padding: 20px; border-radius: 4px; }
        .footer { margin-top: 40px; padding-top: 20px; border-top: 1px solid #ddd; color: #666; font-size: 12px; }
    </style>
</head>
<body>
    <div class="header">
        <h1>UN Security Council Sanctions Check</h1>
        <p>Query: <strong>{{.Query}}</strong> | Generated: {{.Timestamp}}</p>
    </div>
{{if .Matches}}
    <p><strong>{{len .Matches}} match(es) found</strong></p>
{{range .Matches}}
    <div class="match">
        <h3>{{.DisplayName}}</h3>
        <div class="match-details">
            <div class="detail">
                <label>Reference Number</label>
                <span>{{orNA .ReferenceNumber}}</span>
            </div>
            <div class="detail">
                <label>List Type</label>
                <span>{{orNA .ListType}}</span>
            </div>
            <div class="detail">
                <label>Listed On</label>
                <span>{{orNA .ListedOn}}</span>
            </div>
            <div class="detail">
                <label>Data ID</label>
                <span>{{orNA .DataID}}</span>
            </div>
        </div>
        <p style="margin-top: 15px; color: #666;">{{.Remarks}}</p>
    </div>
{{end}}
{{else}}
    <div class="no-match">
        <h3>No Matches Found</h3>
        <p>The searched name/entity was not found in the UN Security Council consolidated sanctions list.</p>
    </div>
{{end}}
    <div class="footer">
        <p>Source: UN Security Council Consolidated List | This document is auto-generated evidence for audit purposes.</p>
    </div>
</body>
</html>
`))

// UNDocument renders the evidence HTML for UN watchlist matches (or a clear
// no-match statement) with a generated timestamp.
func UNDocument(query string, matches []model.MatchResult, now time.Time) (string, error) {
	var buf bytes.Buffer
	data := struct {
		Query     string
		Timestamp string
		Matches   []model.MatchResult
	}{
		Query:     query,
		Timestamp: now.UTC().Format(time.RFC3339),
		Matches:   matches,
	}
	if err := unDocTmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("render UN evidence document: %w", err)
	}
	return buf.String(), nil
}
