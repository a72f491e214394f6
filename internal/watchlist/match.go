package watchlist

import (
	"strings"
	"unicode/utf8"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/complyline/screening/internal/model"
)

const (
	// maxEngineMatches caps the engine's output. The HTTP response trims
	// display lists further; the two limits are deliberately distinct.
	maxEngineMatches = 20

	// maxRemarksLen bounds the free-text remarks carried into evidence,
	// counted in characters, not bytes.
	maxRemarksLen = 500

	// acronymMinLen is the length from which an all-caps entity name is
	// treated as a likely acronym and left unmodified.
	acronymMinLen = 4
)

// titleCase renders a lowered name in title case. A cases.Caser is stateful,
// so one is created per call rather than shared across requests.
func titleCase(s string) string {
	return cases.Title(language.English).String(strings.ToLower(s))
}

// Match scans the snapshot for entries of the query's classification whose
// primary name or one of whose aliases contains every query token. Results
// keep dataset iteration order; ties carry no relevance ranking. Within an
// entry the first matching target wins, primary name before aliases, and its
// original casing is recorded.
func Match(snap *Snapshot, query model.MatchQuery) ([]model.MatchResult, error) {
	if query.Empty() {
		return nil, nil
	}

	entries, err := snap.Entries()
	if err != nil {
		return nil, err
	}

	var results []model.MatchResult
	for i := range entries {
		entry := &entries[i]
		if entry.Classification != query.Classification {
			continue
		}
		target, ok := firstMatchingTarget(entry, query.Tokens)
		if !ok {
			continue
		}
		results = append(results, newResult(entry, target))
		if len(results) == maxEngineMatches {
			break
		}
	}
	return results, nil
}

// firstMatchingTarget checks the primary name, then each alias in order. A
// target matches when every query token is a case-insensitive substring of
// that one target, which makes token order irrelevant.
func firstMatchingTarget(entry *model.WatchlistEntry, tokens []string) (string, bool) {
	if target := entry.PrimaryName(); targetContainsAll(target, tokens) {
		return target, true
	}
	for _, alias := range entry.Aliases {
		if targetContainsAll(alias, tokens) {
			return alias, true
		}
	}
	return "", false
}

func targetContainsAll(target string, tokens []string) bool {
	if target == "" {
		return false
	}
	lower := strings.ToLower(target)
	for _, tok := range tokens {
		if !strings.Contains(lower, tok) {
			return false
		}
	}
	return true
}

func newResult(entry *model.WatchlistEntry, target string) model.MatchResult {
	display := displayName(entry, target)
	// Truncate on rune boundaries; COMMENTS1 text is routinely non-ASCII.
	remarks := entry.Remarks
	if utf8.RuneCountInString(remarks) > maxRemarksLen {
		remarks = string([]rune(remarks)[:maxRemarksLen])
	}
	return model.MatchResult{
		Entry:           entry,
		MatchedTarget:   target,
		DisplayName:     display,
		DataID:          entry.DataID,
		ListType:        entry.ListType,
		ReferenceNumber: entry.ReferenceNumber,
		ListedOn:        entry.ListedOn,
		Remarks:         remarks,
	}
}

// displayName renders the entry's primary name for evidence display. Person
// names are title-cased; entity names are title-cased unless they look like
// an acronym (fully upper-case, four characters or more). When an alias
// satisfied the match and is not a mere variant of the primary name, the
// alias is appended as an annotation.
func displayName(entry *model.WatchlistEntry, target string) string {
	primary := entry.PrimaryName()

	var display string
	switch {
	case entry.Classification == model.ClassEntity && isLikelyAcronym(primary):
		display = primary
	default:
		display = titleCase(primary)
	}

	if !strings.EqualFold(target, primary) &&
		!strings.Contains(strings.ToLower(primary), strings.ToLower(target)) {
		display += " (alias: " + target + ")"
	}
	return display
}

func isLikelyAcronym(name string) bool {
	return len(name) >= acronymMinLen && name == strings.ToUpper(name) && name != strings.ToLower(name)
}
