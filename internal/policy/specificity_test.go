package policy

import (
	"testing"

	"github.com/openappsec-go/agentcore/internal/domain/policy/canonical"
)

func rulesFor(names ...string) []canonical.RulesConfigRulebase {
	out := make([]canonical.RulesConfigRulebase, len(names))
	for i, n := range names {
		out[i] = canonical.RulesConfigRulebase{AssetName: n}
	}
	return out
}

func assetNames(rules []canonical.RulesConfigRulebase) []string {
	out := make([]string, len(rules))
	for i, r := range rules {
		out[i] = r.AssetName
	}
	return out
}

// TestSortBySpecific_ScenarioSix is spec.md §8 scenario 6: the four listed
// asset names must come out most-specific-first.
func TestSortBySpecific_ScenarioSix(t *testing.T) {
	rules := rulesFor("Any/Any", "example.com/*", "example.com/api", "example.com/api/v2")
	SortBySpecific(rules)

	want := []string{"example.com/api/v2", "example.com/api", "example.com/*", "Any/Any"}
	got := assetNames(rules)
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("order = %v, want %v", got, want)
		}
	}
}

func TestSortBySpecific_AlreadySorted(t *testing.T) {
	rules := rulesFor("example.com/api/v2", "example.com/api", "example.com/*", "Any/Any")
	SortBySpecific(rules)

	want := []string{"example.com/api/v2", "example.com/api", "example.com/*", "Any/Any"}
	got := assetNames(rules)
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("order = %v, want %v", got, want)
		}
	}
}

// TestSortBySpecific_EmptyAssetNameSortsLast confirms an unparsed/empty
// asset name never outranks a real one.
func TestSortBySpecific_EmptyAssetNameSortsLast(t *testing.T) {
	rules := rulesFor("", "example.com/api")
	SortBySpecific(rules)

	got := assetNames(rules)
	if got[0] != "example.com/api" || got[1] != "" {
		t.Fatalf("order = %v, want [example.com/api, \"\"]", got)
	}
}

// TestMoreSpecific_Irreflexive confirms no asset name outranks itself
// (spec.md §8 invariant: "sortBySpecific is a strict weak order").
func TestMoreSpecific_Irreflexive(t *testing.T) {
	names := []string{
		"Any/Any",
		"example.com/*",
		"example.com/api",
		"example.com/api/v2",
		"other.example.com/api/v3",
		"foo.com/x",
	}
	for _, a := range names {
		if moreSpecific(a, a) {
			t.Errorf("moreSpecific(%q, %q) = true, want false (irreflexive)", a, a)
		}
	}
}

// TestMoreSpecific_TotalAndAntisymmetric confirms that for any two distinct
// asset names exactly one of moreSpecific(a,b)/moreSpecific(b,a) holds,
// which is what makes SortBySpecific's ordering deterministic.
func TestMoreSpecific_TotalAndAntisymmetric(t *testing.T) {
	names := []string{
		"Any/Any",
		"example.com/*",
		"example.com/api",
		"example.com/api/v2",
		"other.example.com/api/v3",
		"foo.com/x",
	}
	for _, a := range names {
		for _, b := range names {
			if a == b {
				continue
			}
			ab, ba := moreSpecific(a, b), moreSpecific(b, a)
			if ab == ba {
				t.Errorf("moreSpecific(%q,%q)=%v and moreSpecific(%q,%q)=%v, want exactly one true", a, b, ab, b, a, ba)
			}
		}
	}
}

// TestSortBySpecific_StableForDuplicateNames confirms equal-specificity
// inputs retain a deterministic, total order rather than comparing equal
// and leaving relative order undefined.
func TestSortBySpecific_StableForDuplicateNames(t *testing.T) {
	rules := rulesFor("example.com/api", "other.com/api")
	SortBySpecific(rules)

	first := rules[0].AssetName
	rules2 := rulesFor("example.com/api", "other.com/api")
	SortBySpecific(rules2)
	if rules2[0].AssetName != first {
		t.Errorf("sort order not deterministic across runs: got %q then %q", first, rules2[0].AssetName)
	}
}
