// Package watchlist owns the locally cached copy of the UN consolidated
// sanctions list: per-day refresh, lazy parsing, and the name-matching engine
// that runs against a parsed snapshot.
package watchlist

import (
	"encoding/xml"
	"fmt"
	"sync"
	"time"

	"github.com/complyline/screening/internal/model"
)

// Snapshot is an immutable copy of the consolidated list tagged with the UTC
// calendar date it was fetched. It is replaced wholesale on refresh, never
// mutated. Parsing is deferred: a corrupt payload fails only the caller that
// asks for entries, not the cache itself.
type Snapshot struct {
	raw       []byte
	fetchedOn time.Time

	parseOnce sync.Once
	entries   []model.WatchlistEntry
	parseErr  error
}

// NewSnapshot wraps raw consolidated-list bytes fetched on the given date.
func NewSnapshot(raw []byte, fetchedOn time.Time) *Snapshot {
	return &Snapshot{raw: raw, fetchedOn: fetchedOn.UTC().Truncate(24 * time.Hour)}
}

// Raw returns the unparsed document bytes.
func (s *Snapshot) Raw() []byte { return s.raw }

// FetchedOn returns the UTC calendar date the snapshot was downloaded.
func (s *Snapshot) FetchedOn() time.Time { return s.fetchedOn }

// Entries parses the document on first use and memoizes the result.
func (s *Snapshot) Entries() ([]model.WatchlistEntry, error) {
	s.parseOnce.Do(func() {
		s.entries, s.parseErr = parseConsolidated(s.raw)
	})
	return s.entries, s.parseErr
}

// XML shapes of the consolidated list. Repeated elements decode into slices
// whether the source emits one record or many, which normalizes the
// singular/plural shapes uniformly.

type consolidatedList struct {
	XMLName     xml.Name        `xml:"CONSOLIDATED_LIST"`
	Individuals []individualXML `xml:"INDIVIDUALS>INDIVIDUAL"`
	Entities    []entityXML     `xml:"ENTITIES>ENTITY"`
}

type individualXML struct {
	DataID          string     `xml:"DATAID"`
	FirstName       string     `xml:"FIRST_NAME"`
	SecondName      string     `xml:"SECOND_NAME"`
	ThirdName       string     `xml:"THIRD_NAME"`
	FourthName      string     `xml:"FOURTH_NAME"`
	ListType        string     `xml:"UN_LIST_TYPE"`
	ReferenceNumber string     `xml:"REFERENCE_NUMBER"`
	ListedOn        string     `xml:"LISTED_ON"`
	Comments        string     `xml:"COMMENTS1"`
	Aliases         []aliasXML `xml:"INDIVIDUAL_ALIAS"`
}

type entityXML struct {
	DataID          string     `xml:"DATAID"`
	FirstName       string     `xml:"FIRST_NAME"`
	ListType        string     `xml:"UN_LIST_TYPE"`
	ReferenceNumber string     `xml:"REFERENCE_NUMBER"`
	ListedOn        string     `xml:"LISTED_ON"`
	Comments        string     `xml:"COMMENTS1"`
	Aliases         []aliasXML `xml:"ENTITY_ALIAS"`
}

type aliasXML struct {
	Name string `xml:"ALIAS_NAME"`
}

func parseConsolidated(raw []byte) ([]model.WatchlistEntry, error) {
	if len(raw) == 0 {
		return nil, fmt.Errorf("%w: empty document", model.ErrDataCorrupt)
	}

	var doc consolidatedList
	if err := xml.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("%w: %v", model.ErrDataCorrupt, err)
	}

	entries := make([]model.WatchlistEntry, 0, len(doc.Individuals)+len(doc.Entities))
	for _, ind := range doc.Individuals {
		entries = append(entries, model.WatchlistEntry{
			DataID:          ind.DataID,
			Classification:  model.ClassPerson,
			NameParts:       []string{ind.FirstName, ind.SecondName, ind.ThirdName, ind.FourthName},
			Aliases:         aliasNames(ind.Aliases),
			ListType:        ind.ListType,
			ReferenceNumber: ind.ReferenceNumber,
			ListedOn:        ind.ListedOn,
			Remarks:         ind.Comments,
		})
	}
	for _, ent := range doc.Entities {
		entries = append(entries, model.WatchlistEntry{
			DataID:          ent.DataID,
			Classification:  model.ClassEntity,
			NameParts:       []string{ent.FirstName},
			Aliases:         aliasNames(ent.Aliases),
			ListType:        ent.ListType,
			ReferenceNumber: ent.ReferenceNumber,
			ListedOn:        ent.ListedOn,
			Remarks:         ent.Comments,
		})
	}
	return entries, nil
}

func aliasNames(aliases []aliasXML) []string {
	var names []string
	for _, a := range aliases {
		if a.Name != "" {
			names = append(names, a.Name)
		}
	}
	return names
}
