package policy

import (
	"context"
	"fmt"
	"time"

	"github.com/openappsec-go/agentcore/internal/domain/policy/canonical"
	domainpolicy "github.com/openappsec-go/agentcore/internal/domain/policy"
	"github.com/openappsec-go/agentcore/internal/policy/celctx"
)

// ToRulebase converts a compiled canonical.PolicyWrapper into the
// request-matching domain model (internal/domain/policy). The canonical
// sections carry practice/trigger *references* (id, name, type); the
// keyword rules a practice enforces live in a separate practice registry
// populated from compiled snort-signature files, since the policy artifact
// never embeds the rule bodies themselves. Callers that need full
// Practice.Rules populated should fill them in via that registry after
// calling ToRulebase; this keeps policy compilation decoupled from keyword
// rule compilation, matching spec.md §3's separate Practice and Rulebase
// data-model entities.
func ToRulebase(pw canonical.PolicyWrapper, source string, generatedAt time.Time) domainpolicy.Rulebase {
	triggersByName := make(map[string]canonical.LogTriggerSection, len(pw.LogTriggers))
	for _, lt := range pw.LogTriggers {
		triggersByName[lt.Name] = lt
	}

	rules := make([]domainpolicy.Rule, 0, len(pw.Rules.RulesConfig))
	for _, rc := range pw.Rules.RulesConfig {
		var practices []domainpolicy.Practice
		for _, p := range rc.Practices {
			practices = append(practices, domainpolicy.Practice{ID: p.ID, Name: p.Name})
		}

		var triggers []domainpolicy.Trigger
		for _, t := range rc.Triggers {
			lt := triggersByName[t.Name]
			triggers = append(triggers, domainpolicy.Trigger{
				ID:            t.ID,
				Name:          t.Name,
				Verbosity:     lt.Verbosity,
				LogToAgent:    lt.LogToAgent,
				LogToCEF:      lt.LogToCEF,
				LogToSyslog:   lt.LogToSyslog,
				LogToCloud:    lt.LogToCloud,
				SyslogAddress: lt.URLForSyslog,
				CEFAddress:    lt.URLForCEF,
			})
		}

		rules = append(rules, domainpolicy.Rule{
			AssetID:   rc.AssetID,
			AssetName: rc.AssetName,
			RuleID:    rc.RuleID,
			RuleName:  rc.RuleName,
			Context:   rc.Context,
			Priority:  rc.Priority,
			IsCleanup: rc.IsCleanup,
			Practices: practices,
			Triggers:  triggers,
			ZoneID:    rc.ZoneID,
			ZoneName:  rc.ZoneName,
		})
	}

	return domainpolicy.Rulebase{Rules: rules, GeneratedAt: generatedAt, Source: source}
}

// celRule pairs one compiled rule with the CEL program evaluating its
// context predicate.
type celRule struct {
	rule domainpolicy.Rule
	eval *celctx.Evaluator
}

// CELMatcher implements domainpolicy.Matcher by compiling every rule's
// context predicate into a CEL program once (see internal/policy/celctx)
// and evaluating them in rulebase order at request time: since the
// compiler already sorted rules most-specific-first, the first match is
// authoritative (spec.md §3 "Policy domain" invariant).
type CELMatcher struct {
	rules []celRule
}

var _ domainpolicy.Matcher = (*CELMatcher)(nil)

// NewCELMatcher compiles every rule of rb and returns a ready-to-use
// Matcher. A malformed context predicate (which would indicate a compiler
// bug, not bad input) fails the whole construction rather than silently
// skipping a rule.
func NewCELMatcher(rb domainpolicy.Rulebase) (*CELMatcher, error) {
	m := &CELMatcher{rules: make([]celRule, 0, len(rb.Rules))}
	for _, r := range rb.Rules {
		ev, err := celctx.Compile(r.Context)
		if err != nil {
			return nil, fmt.Errorf("compiling rule %s context: %w", r.RuleID, err)
		}
		m.rules = append(m.rules, celRule{rule: r, eval: ev})
	}
	return m, nil
}

// Match returns the first rule whose context predicate matches the given
// request, in the matcher's (pre-sorted) rule order.
func (m *CELMatcher) Match(_ context.Context, host string, port int, uri string) (domainpolicy.Rule, bool) {
	req := celctx.Request{Host: host, Port: int64(port), URI: uri}
	for _, cr := range m.rules {
		matched, err := cr.eval.Matches(req)
		if err != nil || !matched {
			continue
		}
		return cr.rule, true
	}
	return domainpolicy.Rule{}, false
}
