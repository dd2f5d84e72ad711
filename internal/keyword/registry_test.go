package keyword

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	kw "github.com/openappsec-go/agentcore/internal/domain/keyword"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func writeRulesFile(t *testing.T, dir, practiceID, body string) {
	t.Helper()
	path := filepath.Join(dir, practiceID+".rules")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("writing rules file: %v", err)
	}
}

// TestLoadDir_AmbientContextAppliesWhenPartOmitted exercises the ambient
// context fallback fixed in data.go/byte_extract.go/length.go/pcre.go/
// jump.go: a clause with no explicit `part:` attribute must resolve
// against the ambient context LoadDir was called with, not an empty
// context name.
func TestLoadDir_AmbientContextAppliesWhenPartOmitted(t *testing.T) {
	dir := t.TempDir()
	writeRulesFile(t, dir, "practice-1", `data:"evil", nocase;`)

	reg := NewPracticeRegistry(testLogger())
	if err := reg.LoadDir(dir, kw.Ctx("HTTP_REQUEST_BODY")); err != nil {
		t.Fatalf("LoadDir: %v", err)
	}
	if got := reg.RuleCount("practice-1"); got != 1 {
		t.Fatalf("RuleCount = %d, want 1", got)
	}

	env := kw.MapEnvironment{
		kw.Ctx("HTTP_REQUEST_BODY"): kw.Buffer("this request body contains EVIL content"),
	}
	tbl := kw.NewMapStateTable()

	if got := reg.Evaluate("practice-1", env, tbl); got != kw.Match {
		t.Fatalf("Evaluate = %v, want Match (ambient context should have resolved the unqualified `data` clause)", got)
	}
}

// TestLoadDir_AmbientContextDoesNotLeakAcrossBuffers confirms a clause
// without `part:` does not match a buffer bound under a different context
// than the ambient one supplied to LoadDir.
func TestLoadDir_AmbientContextDoesNotLeakAcrossBuffers(t *testing.T) {
	dir := t.TempDir()
	writeRulesFile(t, dir, "practice-1", `data:"evil", nocase;`)

	reg := NewPracticeRegistry(testLogger())
	if err := reg.LoadDir(dir, kw.Ctx("HTTP_REQUEST_BODY")); err != nil {
		t.Fatalf("LoadDir: %v", err)
	}

	env := kw.MapEnvironment{
		kw.Ctx("HTTP_RESPONSE_BODY"): kw.Buffer("this response contains EVIL content"),
	}
	tbl := kw.NewMapStateTable()

	if got := reg.Evaluate("practice-1", env, tbl); got != kw.NoMatch {
		t.Fatalf("Evaluate = %v, want NoMatch (rule's ambient context has no buffer here)", got)
	}
}

// TestLoadDir_ExplicitPartOverridesAmbientContext confirms a `part:` on
// the clause itself still wins over the ambient context passed to LoadDir.
func TestLoadDir_ExplicitPartOverridesAmbientContext(t *testing.T) {
	dir := t.TempDir()
	writeRulesFile(t, dir, "practice-1", `data:"evil", nocase, part HTTP_RESPONSE_BODY;`)

	reg := NewPracticeRegistry(testLogger())
	if err := reg.LoadDir(dir, kw.Ctx("HTTP_REQUEST_BODY")); err != nil {
		t.Fatalf("LoadDir: %v", err)
	}

	env := kw.MapEnvironment{
		kw.Ctx("HTTP_REQUEST_BODY"):  kw.Buffer("nothing interesting here"),
		kw.Ctx("HTTP_RESPONSE_BODY"): kw.Buffer("this response contains EVIL content"),
	}
	tbl := kw.NewMapStateTable()

	if got := reg.Evaluate("practice-1", env, tbl); got != kw.Match {
		t.Fatalf("Evaluate = %v, want Match (explicit part should override the ambient context)", got)
	}
}

// TestLoadDir_MalformedRuleSkippedNotFatal confirms a malformed line
// doesn't abort loading the rest of the directory (LoadDir's per-source
// fault isolation).
func TestLoadDir_MalformedRuleSkippedNotFatal(t *testing.T) {
	dir := t.TempDir()
	writeRulesFile(t, dir, "practice-1", "not a valid rule at all\n"+`data:"ok";`+"\n")

	reg := NewPracticeRegistry(testLogger())
	if err := reg.LoadDir(dir, kw.Ctx("HTTP_REQUEST_BODY")); err != nil {
		t.Fatalf("LoadDir: %v", err)
	}
	if got := reg.RuleCount("practice-1"); got != 1 {
		t.Fatalf("RuleCount = %d, want 1 (malformed line should be skipped, not fatal)", got)
	}
}

// TestLoadDir_IgnoresCommentsAndBlankLines confirms '#'-prefixed and blank
// lines within a .rules file are skipped rather than treated as clauses.
func TestLoadDir_IgnoresCommentsAndBlankLines(t *testing.T) {
	dir := t.TempDir()
	writeRulesFile(t, dir, "practice-1", "# a comment\n\n"+`data:"ok";`+"\n")

	reg := NewPracticeRegistry(testLogger())
	if err := reg.LoadDir(dir, kw.Ctx("HTTP_REQUEST_BODY")); err != nil {
		t.Fatalf("LoadDir: %v", err)
	}
	if got := reg.RuleCount("practice-1"); got != 1 {
		t.Fatalf("RuleCount = %d, want 1", got)
	}
}

// TestPracticeIDs_OnePerRulesFile confirms the practice ID is derived from
// the .rules file's base name.
func TestPracticeIDs_OnePerRulesFile(t *testing.T) {
	dir := t.TempDir()
	writeRulesFile(t, dir, "practice-a", `data:"a";`)
	writeRulesFile(t, dir, "practice-b", `data:"b";`)

	reg := NewPracticeRegistry(testLogger())
	if err := reg.LoadDir(dir, kw.Ctx("HTTP_REQUEST_BODY")); err != nil {
		t.Fatalf("LoadDir: %v", err)
	}

	ids := reg.PracticeIDs()
	if len(ids) != 2 {
		t.Fatalf("PracticeIDs = %v, want 2 entries", ids)
	}
}
