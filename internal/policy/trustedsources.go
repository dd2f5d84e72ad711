package policy

import (
	"github.com/google/uuid"

	"github.com/openappsec-go/agentcore/internal/domain/policy/canonical"
)

// buildTrustedSources expands the (sourceIdentifier, value*) pairs named by
// ident across every entry in ts.SourcesIdentifiers into a single
// canonical.AppSecTrustedSources whose SourcesIdents list holds one
// "identifier=value" string per value, per spec.md §4.2 step 6:
// "for each (sourceIdentifier, value*) pair in the referenced
// SourceIdentifier × each entry in the referenced
// TrustedSources.sourcesIdentifiers, emit one SourcesIdentifiers{key,
// value} entry (expanding multi-valued identifiers into one entry per
// value)".
func buildTrustedSources(ts TrustedSources, ident SourceIdentifier) canonical.AppSecTrustedSources {
	var expanded []string
	for _, siName := range ts.SourcesIdentifiers {
		if siName != ident.Name {
			continue
		}
		for _, v := range ident.Values {
			expanded = append(expanded, ident.SourceIdentifier+"="+v)
		}
	}

	return canonical.AppSecTrustedSources{
		ID:              uuid.NewString(),
		Name:            ts.Name,
		MinNumOfSources: ts.MinNumOfSources,
		SourcesIdents:   expanded,
	}
}

// buildUsersIdentifiersRulebase is the UsersIdentifiersRulebase companion
// of buildTrustedSources: a single UsersIdentifier entry carrying every
// value of ident, matching the original UsersIdentifiersRulebase/UsersIdentifier shape
// (rules_config_section.cc).
func buildUsersIdentifiersRulebase(context string, ident SourceIdentifier) canonical.UsersIdentifiersRulebase {
	return canonical.UsersIdentifiersRulebase{
		Context:          context,
		SourceIdentifier: ident.SourceIdentifier,
		IdentifierValues: ident.Values,
		SourceIdentifiers: []canonical.UsersIdentifier{
			{SourceIdentifier: ident.SourceIdentifier, IdentifierValues: ident.Values},
		},
	}
}
