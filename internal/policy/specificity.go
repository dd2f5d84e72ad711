package policy

import (
	"sort"
	"strings"

	"github.com/openappsec-go/agentcore/internal/domain/policy/canonical"
)

// SortBySpecific sorts rules descending by specificity, a direct Go port of
// RulesRulebase's constructor (which sorts rules_config by sortBySpecific)
// and RulesRulebase::sortBySpecificAux. Ties are broken by reverse lexical
// order of the asset name, making the order deterministic for identical
// inputs (spec.md §3 invariant, §8 testable property "sortBySpecific is a
// strict weak order").
func SortBySpecific(rules []canonical.RulesConfigRulebase) {
	sort.SliceStable(rules, func(i, j int) bool {
		return moreSpecific(rules[i].AssetName, rules[j].AssetName)
	})
}

// moreSpecific reports whether first should sort before second (i.e. first
// is at least as specific as second and, on a tie, lexically later).
func moreSpecific(first, second string) bool {
	if first == "" {
		return false
	}
	if second == "" {
		return true
	}

	firstParsed := ParseAsset(first)
	secondParsed := ParseAsset(second)

	if firstParsed.URL == "Any" && secondParsed.URL != "Any" {
		return false
	}
	if secondParsed.URL == "Any" && firstParsed.URL != "Any" {
		return true
	}

	if firstParsed.Port == "*" && secondParsed.Port != "*" {
		return false
	}
	if secondParsed.Port == "*" && firstParsed.Port != "*" {
		return true
	}

	if firstParsed.URI == "*" && secondParsed.URI != "*" {
		return false
	}
	if secondParsed.URI == "*" && firstParsed.URI != "*" {
		return true
	}

	if firstParsed.URI == "" {
		return false
	}
	if secondParsed.URI == "" {
		return true
	}

	if strings.Contains(secondParsed.URI, firstParsed.URI) {
		return false
	}
	if strings.Contains(firstParsed.URI, secondParsed.URI) {
		return true
	}

	if firstParsed.URL == "" {
		return false
	}
	if secondParsed.URL == "" {
		return false
	}

	return second < first
}
