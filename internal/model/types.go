package model

import (
	"strings"
	"time"
)

// Classification distinguishes the two record kinds on the consolidated list.
type Classification string

const (
	ClassPerson Classification = "person"
	ClassEntity Classification = "entity"
)

// ParseClassification validates a searchType value from a request.
func ParseClassification(s string) (Classification, bool) {
	switch Classification(strings.ToLower(s)) {
	case ClassPerson:
		return ClassPerson, true
	case ClassEntity:
		return ClassEntity, true
	}
	return "", false
}

// WatchlistEntry is one individual or entity on the consolidated list.
// NameParts keeps the source ordering of the name components; Aliases belong to
// the entry and share its lifetime.
type WatchlistEntry struct {
	DataID          string         `json:"dataid"`
	Classification  Classification `json:"-"`
	NameParts       []string       `json:"-"`
	Aliases         []string       `json:"-"`
	ListType        string         `json:"un_list_type"`
	ReferenceNumber string         `json:"reference_number"`
	ListedOn        string         `json:"listed_on"`
	Remarks         string         `json:"comments"`
}

// PrimaryName joins the ordered name components with single spaces.
func (e *WatchlistEntry) PrimaryName() string {
	parts := make([]string, 0, len(e.NameParts))
	for _, p := range e.NameParts {
		if p != "" {
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, " ")
}

// MatchQuery is the normalized search input, built once per request.
type MatchQuery struct {
	Classification Classification
	Tokens         []string
}

// NewMatchQuery lowercases and whitespace-splits the raw query.
func NewMatchQuery(raw string, class Classification) MatchQuery {
	return MatchQuery{
		Classification: class,
		Tokens:         strings.Fields(strings.ToLower(raw)),
	}
}

// Empty reports whether the query has no tokens after normalization.
func (q MatchQuery) Empty() bool { return len(q.Tokens) == 0 }

// MatchResult pairs a matched entry with the target string that satisfied the
// match and the display name shown in evidence documents.
type MatchResult struct {
	Entry         *WatchlistEntry `json:"-"`
	MatchedTarget string          `json:"matched_target"`
	DisplayName   string          `json:"name"`

	DataID          string `json:"dataid"`
	ListType        string `json:"un_list_type"`
	ReferenceNumber string `json:"reference_number"`
	ListedOn        string `json:"listed_on"`
	Remarks         string `json:"comments"`
}

// RegistryFindings is the well-formed (possibly empty) result of a remote
// registry lookup. Detail records are shape-varying and kept opaque.
type RegistryFindings struct {
	Candidates []string
	Regimes    []map[string]any
	Found      bool
}

// RegistryMatch is the response-facing projection of registry findings.
type RegistryMatch struct {
	Type          string   `json:"type"`
	Name          string   `json:"name,omitempty"`
	ID            any      `json:"id,omitempty"`
	Acronym       string   `json:"acronym,omitempty"`
	Specification string   `json:"specification,omitempty"`
	Country       *string  `json:"country,omitempty"`
	Measures      []string `json:"measures,omitempty"`
}

// EvidenceKeys names the artifact slots of one screening transaction. Any slot
// may be nil when the producing step degraded.
const (
	EvidenceEU      = "euEvidence"
	EvidenceUN      = "unEvidence"
	EvidenceRawData = "rawData"
	EvidenceAudit   = "auditLog"
)

// ScreeningRecord is the aggregate output of one screening transaction.
// Immutable after construction; there is no persistent database behind it.
type ScreeningRecord struct {
	RequestID   string             `json:"requestId"`
	Query       string             `json:"query"`
	SearchType  Classification     `json:"searchType"`
	Timestamp   time.Time          `json:"timestamp"`
	EUFound     bool               `json:"euFound"`
	EUMatches   []RegistryMatch    `json:"euMatches"`
	UNFound     bool               `json:"unFound"`
	UNMatches   []MatchResult      `json:"unMatches"`
	RiskScore   string             `json:"riskScore"`
	Summary     string             `json:"summary"`
	Evidence    map[string]*string `json:"evidence"`
	AuditFolder string             `json:"auditFolder"`
	// Degraded lists the steps that failed and were absorbed, so partial
	// evidence is visible to the caller rather than silent.
	Degraded []string `json:"degraded,omitempty"`
}
