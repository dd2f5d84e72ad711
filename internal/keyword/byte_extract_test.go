package keyword

import (
	"testing"

	kw "github.com/openappsec-go/agentcore/internal/domain/keyword"
)

// TestByteExtract_ScenarioFive is spec.md §8 scenario 5: byte_extract reads
// 4 little-endian bytes at offset 0 into variable v, and a following
// compare:v,=,305419896 (0x12345678 decoded little-endian) must match.
func TestByteExtract_ScenarioFive(t *testing.T) {
	env := kw.MapEnvironment{
		kw.Ctx("HTTP_REQUEST_BODY"): kw.Buffer([]byte{0x78, 0x56, 0x34, 0x12, 0xff, 0xff}),
	}
	tbl := kw.NewMapStateTable()

	rule, err := GenRule(
		`byte_extract:4,v,offset 0,little_endian,part HTTP_REQUEST_BODY; compare:v,=,305419896;`,
		kw.Ctx("HTTP_REQUEST_BODY"), testLogger(),
	)
	if err != nil {
		t.Fatalf("GenRule: %v", err)
	}
	if got := rule.IsMatch(env, tbl); got != kw.Match {
		t.Fatalf("IsMatch = %v, want Match", got)
	}
}

// TestByteExtract_ScenarioFive_WrongValueNoMatch confirms the same pipeline
// reports NoMatch (not Match) when the extracted value doesn't equal the
// compared constant. The result is not NoMatchFinal because the left
// operand is the bound variable v, not a constant.
func TestByteExtract_ScenarioFive_WrongValueNoMatch(t *testing.T) {
	env := kw.MapEnvironment{
		kw.Ctx("HTTP_REQUEST_BODY"): kw.Buffer([]byte{0x01, 0x00, 0x00, 0x00}),
	}
	tbl := kw.NewMapStateTable()

	rule, err := GenRule(
		`byte_extract:4,v,offset 0,little_endian,part HTTP_REQUEST_BODY; compare:v,=,305419896;`,
		kw.Ctx("HTTP_REQUEST_BODY"), testLogger(),
	)
	if err != nil {
		t.Fatalf("GenRule: %v", err)
	}
	if got := rule.IsMatch(env, tbl); got != kw.NoMatch {
		t.Fatalf("IsMatch = %v, want NoMatch (v is a bound variable, not a constant)", got)
	}
}

// TestByteExtract_BigEndian confirms the non-little_endian accumulation
// order, complementing the scenario's little-endian case.
func TestByteExtract_BigEndian(t *testing.T) {
	env := kw.MapEnvironment{
		kw.Ctx("HTTP_REQUEST_BODY"): kw.Buffer([]byte{0x12, 0x34, 0x56, 0x78}),
	}
	tbl := kw.NewMapStateTable()

	rule, err := GenRule(
		`byte_extract:4,v,offset 0,part HTTP_REQUEST_BODY; compare:v,=,305419896;`,
		kw.Ctx("HTTP_REQUEST_BODY"), testLogger(),
	)
	if err != nil {
		t.Fatalf("GenRule: %v", err)
	}
	if got := rule.IsMatch(env, tbl); got != kw.Match {
		t.Fatalf("IsMatch = %v, want Match", got)
	}
}

// TestByteExtract_TruncatedBufferNoMatchFinal confirms a buffer too short
// for the extraction window reports NoMatchFinal under a constant offset.
func TestByteExtract_TruncatedBufferNoMatchFinal(t *testing.T) {
	env := kw.MapEnvironment{
		kw.Ctx("HTTP_REQUEST_BODY"): kw.Buffer([]byte{0x01, 0x02}),
	}
	tbl := kw.NewMapStateTable()

	rule, err := GenRule(
		`byte_extract:4,v,offset 0,little_endian,part HTTP_REQUEST_BODY;`,
		kw.Ctx("HTTP_REQUEST_BODY"), testLogger(),
	)
	if err != nil {
		t.Fatalf("GenRule: %v", err)
	}
	if got := rule.IsMatch(env, tbl); got != kw.NoMatchFinal {
		t.Fatalf("IsMatch = %v, want NoMatchFinal", got)
	}
}
