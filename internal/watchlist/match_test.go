package watchlist

import (
	"fmt"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/complyline/screening/internal/model"
)

func snapshotFromXML(t *testing.T, body string) *Snapshot {
	t.Helper()
	doc := "<CONSOLIDATED_LIST>" + body + "</CONSOLIDATED_LIST>"
	return NewSnapshot([]byte(doc), time.Now())
}

const individualAamir = `
<INDIVIDUALS>
  <INDIVIDUAL>
    <DATAID>110001</DATAID>
    <FIRST_NAME>Aamir</FIRST_NAME>
    <SECOND_NAME>Ali</SECOND_NAME>
    <THIRD_NAME>Chaudhry</THIRD_NAME>
    <UN_LIST_TYPE>Al-Qaida</UN_LIST_TYPE>
    <REFERENCE_NUMBER>QDi.427</REFERENCE_NUMBER>
    <LISTED_ON>2016-08-02</LISTED_ON>
    <COMMENTS1>Listed pursuant to resolution 2253.</COMMENTS1>
  </INDIVIDUAL>
</INDIVIDUALS>`

func TestMatch_EmptyQuerySkipsParsing(t *testing.T) {
	// Deliberately corrupt bytes: an empty token set must short-circuit
	// before the snapshot is ever parsed.
	snap := NewSnapshot([]byte("not xml at all"), time.Now())

	results, err := Match(snap, model.NewMatchQuery("   ", model.ClassPerson))
	if err != nil {
		t.Fatalf("empty query must not touch the dataset: %v", err)
	}
	if len(results) != 0 {
		t.Fatalf("expected no results, got %d", len(results))
	}
}

func TestMatch_PersonScenario(t *testing.T) {
	snap := snapshotFromXML(t, individualAamir)

	results, err := Match(snap, model.NewMatchQuery("Chaudhry Aamir", model.ClassPerson))
	if err != nil {
		t.Fatalf("match: %v", err)
	}
	if len(results) != 1 {
		t.Fatalf("expected exactly one match, got %d", len(results))
	}
	if results[0].DisplayName != "Aamir Ali Chaudhry" {
		t.Fatalf("display name mismatch: %q", results[0].DisplayName)
	}
	if results[0].ReferenceNumber != "QDi.427" {
		t.Fatalf("reference number mismatch: %q", results[0].ReferenceNumber)
	}
}

func TestMatch_TokenOrderIndependence(t *testing.T) {
	snap := snapshotFromXML(t, individualAamir)

	for _, q := range []string{"Aamir Chaudhry", "Chaudhry Aamir", "ali chaudhry aamir", "CHAUDHRY ALI"} {
		results, err := Match(snap, model.NewMatchQuery(q, model.ClassPerson))
		if err != nil {
			t.Fatalf("match %q: %v", q, err)
		}
		if len(results) != 1 {
			t.Fatalf("query %q: expected one match, got %d", q, len(results))
		}
	}
}

func TestMatch_TokensMustHitOneTarget(t *testing.T) {
	// "Aamir" appears in the primary name and "Hamza" only in the alias;
	// no single target contains both tokens, so the entry must not match.
	snap := snapshotFromXML(t, `
<INDIVIDUALS>
  <INDIVIDUAL>
    <DATAID>110002</DATAID>
    <FIRST_NAME>Aamir</FIRST_NAME>
    <SECOND_NAME>Ali</SECOND_NAME>
    <INDIVIDUAL_ALIAS><ALIAS_NAME>Hamza Khan</ALIAS_NAME></INDIVIDUAL_ALIAS>
  </INDIVIDUAL>
</INDIVIDUALS>`)

	results, err := Match(snap, model.NewMatchQuery("Aamir Hamza", model.ClassPerson))
	if err != nil {
		t.Fatalf("match: %v", err)
	}
	if len(results) != 0 {
		t.Fatalf("tokens split across targets must not match, got %d results", len(results))
	}
}

func TestMatch_AliasAnnotation(t *testing.T) {
	snap := snapshotFromXML(t, `
<INDIVIDUALS>
  <INDIVIDUAL>
    <DATAID>110003</DATAID>
    <FIRST_NAME>Usman</FIRST_NAME>
    <SECOND_NAME>Ghani</SECOND_NAME>
    <INDIVIDUAL_ALIAS><ALIAS_NAME>Abu Talha</ALIAS_NAME></INDIVIDUAL_ALIAS>
  </INDIVIDUAL>
</INDIVIDUALS>`)

	results, err := Match(snap, model.NewMatchQuery("abu talha", model.ClassPerson))
	if err != nil {
		t.Fatalf("match: %v", err)
	}
	if len(results) != 1 {
		t.Fatalf("expected alias match, got %d results", len(results))
	}
	want := "Usman Ghani (alias: Abu Talha)"
	if results[0].DisplayName != want {
		t.Fatalf("display name %q, want %q", results[0].DisplayName, want)
	}
	if results[0].MatchedTarget != "Abu Talha" {
		t.Fatalf("matched target %q, want original alias casing", results[0].MatchedTarget)
	}
}

func TestMatch_AliasSubstringOfPrimaryNotAnnotated(t *testing.T) {
	snap := snapshotFromXML(t, `
<INDIVIDUALS>
  <INDIVIDUAL>
    <DATAID>110004</DATAID>
    <FIRST_NAME>Mohammed</FIRST_NAME>
    <SECOND_NAME>Salahuddin</SECOND_NAME>
    <INDIVIDUAL_ALIAS><ALIAS_NAME>Salahuddin</ALIAS_NAME></INDIVIDUAL_ALIAS>
  </INDIVIDUAL>
</INDIVIDUALS>`)

	// The primary name is tried before aliases, so the alias never becomes
	// the matched target here and no annotation is added.
	results, err := Match(snap, model.NewMatchQuery("salahuddin", model.ClassPerson))
	if err != nil {
		t.Fatalf("match: %v", err)
	}
	if len(results) != 1 {
		t.Fatalf("expected one match, got %d", len(results))
	}
	if results[0].DisplayName != "Mohammed Salahuddin" {
		t.Fatalf("substring alias must not be annotated: %q", results[0].DisplayName)
	}
}

func TestMatch_EntityAcronymCasing(t *testing.T) {
	snap := snapshotFromXML(t, `
<ENTITIES>
  <ENTITY>
    <DATAID>120001</DATAID>
    <FIRST_NAME>ACME HOLDINGS</FIRST_NAME>
  </ENTITY>
  <ENTITY>
    <DATAID>120002</DATAID>
    <FIRST_NAME>acme trading</FIRST_NAME>
  </ENTITY>
  <ENTITY>
    <DATAID>120005</DATAID>
    <FIRST_NAME>ACME</FIRST_NAME>
  </ENTITY>
  <ENTITY>
    <DATAID>120006</DATAID>
    <FIRST_NAME>ACM ENTERPRISES</FIRST_NAME>
  </ENTITY>
</ENTITIES>`)

	results, err := Match(snap, model.NewMatchQuery("acm", model.ClassEntity))
	if err != nil {
		t.Fatalf("match: %v", err)
	}
	if len(results) != 4 {
		t.Fatalf("expected four entity matches, got %d", len(results))
	}
	if results[0].DisplayName != "ACME HOLDINGS" {
		t.Fatalf("all-caps entity name must be preserved: %q", results[0].DisplayName)
	}
	if results[1].DisplayName != "Acme Trading" {
		t.Fatalf("lower-case entity name must be title-cased: %q", results[1].DisplayName)
	}
	if results[2].DisplayName != "ACME" {
		t.Fatalf("four-letter acronym must be preserved: %q", results[2].DisplayName)
	}
	if results[3].DisplayName != "ACM ENTERPRISES" {
		t.Fatalf("all-caps name with a short first word must be preserved: %q", results[3].DisplayName)
	}
}

func TestMatch_EmptyNameNeverMatches(t *testing.T) {
	snap := snapshotFromXML(t, `
<ENTITIES>
  <ENTITY>
    <DATAID>120003</DATAID>
    <FIRST_NAME></FIRST_NAME>
  </ENTITY>
</ENTITIES>`)

	results, err := Match(snap, model.NewMatchQuery("anything", model.ClassEntity))
	if err != nil {
		t.Fatalf("match: %v", err)
	}
	if len(results) != 0 {
		t.Fatalf("entry with empty name matched: %d results", len(results))
	}
}

func TestMatch_ClassificationFilter(t *testing.T) {
	snap := snapshotFromXML(t, individualAamir)

	results, err := Match(snap, model.NewMatchQuery("Aamir", model.ClassEntity))
	if err != nil {
		t.Fatalf("match: %v", err)
	}
	if len(results) != 0 {
		t.Fatalf("person entry returned for entity query")
	}
}

func TestMatch_CapsAtTwenty(t *testing.T) {
	var body string
	for i := 0; i < 30; i++ {
		body += fmt.Sprintf(`<ENTITY><DATAID>%d</DATAID><FIRST_NAME>Common Goods %d</FIRST_NAME></ENTITY>`, 130000+i, i)
	}
	snap := snapshotFromXML(t, "<ENTITIES>"+body+"</ENTITIES>")

	results, err := Match(snap, model.NewMatchQuery("common", model.ClassEntity))
	if err != nil {
		t.Fatalf("match: %v", err)
	}
	if len(results) != maxEngineMatches {
		t.Fatalf("expected cap of %d, got %d", maxEngineMatches, len(results))
	}
	// Iteration order is the only ordering guarantee.
	if results[0].DataID != "130000" {
		t.Fatalf("results must keep dataset order, first was %s", results[0].DataID)
	}
}

func TestMatch_RemarksTruncated(t *testing.T) {
	long := ""
	for i := 0; i < 60; i++ {
		long += "0123456789"
	}
	snap := snapshotFromXML(t, `
<ENTITIES>
  <ENTITY>
    <DATAID>120004</DATAID>
    <FIRST_NAME>Orion Freight</FIRST_NAME>
    <COMMENTS1>`+long+`</COMMENTS1>
  </ENTITY>
</ENTITIES>`)

	results, err := Match(snap, model.NewMatchQuery("orion", model.ClassEntity))
	if err != nil {
		t.Fatalf("match: %v", err)
	}
	if len(results) != 1 {
		t.Fatalf("expected one match, got %d", len(results))
	}
	if len(results[0].Remarks) != maxRemarksLen {
		t.Fatalf("remarks length %d, want %d", len(results[0].Remarks), maxRemarksLen)
	}
}

func TestMatch_RemarksTruncatedOnRuneBoundary(t *testing.T) {
	// 499 ASCII characters followed by multi-byte ones; a byte-wise cut at
	// 500 would split the first multi-byte rune.
	long := strings.Repeat("x", maxRemarksLen-1) + "éléphant"
	snap := snapshotFromXML(t, `
<ENTITIES>
  <ENTITY>
    <DATAID>120005</DATAID>
    <FIRST_NAME>Orion Freight</FIRST_NAME>
    <COMMENTS1>`+long+`</COMMENTS1>
  </ENTITY>
</ENTITIES>`)

	results, err := Match(snap, model.NewMatchQuery("orion", model.ClassEntity))
	if err != nil {
		t.Fatalf("match: %v", err)
	}
	if len(results) != 1 {
		t.Fatalf("expected one match, got %d", len(results))
	}
	remarks := results[0].Remarks
	if !utf8.ValidString(remarks) {
		t.Fatalf("truncated remarks are not valid UTF-8: %q", remarks)
	}
	if got := utf8.RuneCountInString(remarks); got != maxRemarksLen {
		t.Fatalf("remarks rune count %d, want %d", got, maxRemarksLen)
	}
	if !strings.HasSuffix(remarks, "é") {
		t.Fatalf("expected the 500th character to survive intact, got tail %q", remarks[len(remarks)-4:])
	}
}
