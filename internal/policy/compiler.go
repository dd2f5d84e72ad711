package policy

import (
	"context"
	"fmt"
	"log/slog"
	"sort"

	"github.com/openappsec-go/agentcore/internal/alert"
	"github.com/openappsec-go/agentcore/internal/domain/policy/canonical"
)

// Compiler accumulates the canonical sections emitted while compiling one
// or more policy sources (one per ingress in Kubernetes mode, one per local
// policy file in Linux mode) and produces the final sorted PolicyWrapper.
// It owns the per-category collection maps spec.md §4.2 step 7 describes
// ("keyed by a stable identifier... later references to the same name
// reuse the existing map entry without re-emission"), and the
// deduplicating reference resolver from resolver.go.
type Compiler struct {
	resolver      *cachingResolver
	schemaVersion string
	logger        *slog.Logger

	rules            []canonical.RulesConfigRulebase
	usersIdentifiers []canonical.UsersIdentifiersRulebase

	triggersByName        map[string]canonical.LogTriggerSection
	customResponsesByName map[string]canonical.WebUserResponseTriggerSection
	trustedSourcesByName  map[string]canonical.AppSecTrustedSources

	// covered tracks (host+uri) asset-ids already emitted by a specific
	// rule, so the step-8 default-rule synthesis doesn't duplicate one.
	covered map[string]bool
}

// NewCompiler builds a Compiler. resolver is typically a MapResolver, built
// by linux.go or by the k8s package's List*Resolver calls; schemaVersion is
// recorded on the emitted PolicyWrapper.
func NewCompiler(resolver Resolver, schemaVersion string, logger *slog.Logger) *Compiler {
	return &Compiler{
		resolver:              newCachingResolver(resolver),
		schemaVersion:         schemaVersion,
		logger:                logger,
		triggersByName:        make(map[string]canonical.LogTriggerSection),
		customResponsesByName: make(map[string]canonical.WebUserResponseTriggerSection),
		trustedSourcesByName:  make(map[string]canonical.AppSecTrustedSources),
		covered:               make(map[string]bool),
	}
}

// CompileSource runs the per-ingress/per-file algorithm of spec.md §4.2
// steps 1-8 against one PolicySource and folds its output into the
// Compiler's accumulated sections. A reference-resolution failure skips
// only the rule that failed: an alert is emitted, the source's other rules
// are still compiled and emitted (a partial result for this source), and
// the overall Compile() call still succeeds for every other source
// already/later processed.
func (c *Compiler) CompileSource(ctx context.Context, sourceName string, src PolicySource, hasDefaultBackend bool) {
	ok := true
	for _, r := range src.Specific {
		if err := c.compileRule(ctx, r); err != nil {
			c.logger.WarnContext(ctx, "skipping rule, reference resolution failed",
				"source", sourceName, "host", r.Host, "error", err)
			alert.PolicyInstallationFailed(ctx, c.logger, sourceName, err)
			ok = false
			continue
		}
	}

	// Step 8: synthesize a default rule for any host/path this source
	// declares as its fallback and that wasn't already covered by a
	// specific rule.
	if src.Default.Host != "" {
		url, uri, port := splitHostURI(src.Default.Host)
		assetID, _ := buildContext(url, uri, port)
		if !c.covered[assetID] {
			if err := c.compileRule(ctx, src.Default); err != nil {
				c.logger.WarnContext(ctx, "skipping default rule, reference resolution failed",
					"source", sourceName, "error", err)
				alert.PolicyInstallationFailed(ctx, c.logger, sourceName, err)
				ok = false
			}
		}

		// If the ingress has a default backend and the default rule's
		// mode calls for enforcement, append a wildcard cleanup rule
		// (spec §4.2 step 8, last sentence).
		if hasDefaultBackend && (src.Default.Mode == "prevent" || src.Default.Mode == "detect") {
			c.rules = append(c.rules, canonical.RulesConfigRulebase{
				AssetID:   AnyAsset,
				AssetName: AnyAsset,
				RuleID:    AnyAsset,
				RuleName:  AnyAsset,
				Context:   "All()",
				IsCleanup: true,
			})
		}
	}

	if !ok {
		c.logger.ErrorContext(ctx, "source compiled with errors, emitting partial artifact", "source", sourceName)
	}
}

// compileRule runs steps 2-7 for a single rule.
func (c *Compiler) compileRule(ctx context.Context, r Rule) error {
	url, uri, port := splitHostURI(r.Host)
	assetID, context := buildContext(url, uri, port)
	assetName := assetID

	practice, ok, err := c.resolver.ResolvePractice(ctx, r.PracticeName)
	if err != nil {
		return fmt.Errorf("resolving practice %q: %w", r.PracticeName, err)
	}
	if r.PracticeName != "" && !ok {
		return fmt.Errorf("practice %q not found", r.PracticeName)
	}

	var practiceSections []canonical.PracticeSection
	if ok {
		practiceSections = append(practiceSections, canonical.PracticeSection{
			ID: assetID, Name: practice.Name, Type: "WebApplication",
		})
	}

	var triggerSections []canonical.RulesTriggerSection
	if r.TriggerName != "" {
		lt, err := c.resolveTrigger(ctx, r.TriggerName)
		if err != nil {
			return err
		}
		triggerSections = append(triggerSections, canonical.RulesTriggerSection{
			ID: lt.ID, Name: lt.Name, Type: "log",
		})
	}

	var paramSections []canonical.ParametersSection
	if r.ExceptionName != "" {
		exc, ok, err := c.resolver.ResolveException(ctx, r.ExceptionName)
		if err != nil {
			return fmt.Errorf("resolving exception %q: %w", r.ExceptionName, err)
		}
		if !ok {
			return fmt.Errorf("exception %q not found", r.ExceptionName)
		}
		paramSections = append(paramSections, canonical.ParametersSection{
			ID: exc.Name, Name: exc.Name, Type: "exception",
		})
	}

	if r.CustomResponseName != "" {
		if _, err := c.resolveCustomResponse(ctx, r.CustomResponseName); err != nil {
			return err
		}
	}

	if r.TrustedSourcesName != "" {
		if err := c.compileTrustedSources(ctx, context, r.TrustedSourcesName, r.SourceIdentifierName); err != nil {
			return err
		}
	}

	c.rules = append(c.rules, canonical.RulesConfigRulebase{
		AssetID:    assetID,
		AssetName:  assetName,
		RuleID:     assetID,
		RuleName:   assetName,
		Context:    context,
		Practices:  practiceSections,
		Triggers:   triggerSections,
		Parameters: paramSections,
	})
	c.covered[assetID] = true

	return nil
}

// resolveTrigger resolves and, if not already emitted this compilation,
// assembles and registers a LogTriggerSection (spec §4.2 step 7 dedup).
func (c *Compiler) resolveTrigger(ctx context.Context, name string) (canonical.LogTriggerSection, error) {
	if lt, ok := c.triggersByName[name]; ok {
		return lt, nil
	}
	t, ok, err := c.resolver.ResolveTrigger(ctx, name)
	if err != nil {
		return canonical.LogTriggerSection{}, fmt.Errorf("resolving trigger %q: %w", name, err)
	}

	var lt canonical.LogTriggerSection
	if ok {
		lt = buildLogTrigger(t)
	} else if looksLikeAddress(name) {
		// Kubernetes-mode ingresses can name a syslog destination directly
		// via the openappsec.io/syslog annotation instead of a named
		// trigger CRD; treat an unresolvable name that looks like
		// "host[:port]" as that shorthand rather than a hard failure.
		lt = syslogOnlyTrigger(name)
	} else {
		return canonical.LogTriggerSection{}, fmt.Errorf("trigger %q not found", name)
	}
	c.triggersByName[name] = lt
	return lt, nil
}

// resolveCustomResponse mirrors resolveTrigger for custom-response refs.
func (c *Compiler) resolveCustomResponse(ctx context.Context, name string) (canonical.WebUserResponseTriggerSection, error) {
	if wr, ok := c.customResponsesByName[name]; ok {
		return wr, nil
	}
	cr, ok, err := c.resolver.ResolveCustomResponse(ctx, name)
	if err != nil {
		return canonical.WebUserResponseTriggerSection{}, fmt.Errorf("resolving custom response %q: %w", name, err)
	}
	if !ok {
		return canonical.WebUserResponseTriggerSection{}, fmt.Errorf("custom response %q not found", name)
	}
	wr := buildWebUserResponseTrigger(cr)
	c.customResponsesByName[name] = wr
	return wr, nil
}

// compileTrustedSources runs spec §4.2 step 6's cross product for one rule,
// deduplicating the emitted AppSecTrustedSources entry by name.
func (c *Compiler) compileTrustedSources(ctx context.Context, context, trustedSourcesName, sourceIdentifierName string) error {
	ts, ok, err := c.resolver.ResolveTrustedSources(ctx, trustedSourcesName)
	if err != nil {
		return fmt.Errorf("resolving trusted sources %q: %w", trustedSourcesName, err)
	}
	if !ok {
		return fmt.Errorf("trusted sources %q not found", trustedSourcesName)
	}
	ident, ok, err := c.resolver.ResolveSourceIdentifier(ctx, sourceIdentifierName)
	if err != nil {
		return fmt.Errorf("resolving source identifier %q: %w", sourceIdentifierName, err)
	}
	if !ok {
		return fmt.Errorf("source identifier %q not found", sourceIdentifierName)
	}

	if _, ok := c.trustedSourcesByName[ts.Name]; !ok {
		c.trustedSourcesByName[ts.Name] = buildTrustedSources(ts, ident)
	}
	c.usersIdentifiers = append(c.usersIdentifiers, buildUsersIdentifiersRulebase(context, ident))
	return nil
}

// Compile returns the final PolicyWrapper: every accumulated section, with
// rules sorted most-specific-first (spec §4.2 "Sort order for rules").
func (c *Compiler) Compile() canonical.PolicyWrapper {
	SortBySpecific(c.rules)

	pw := canonical.PolicyWrapper{
		PolicyVersion: c.schemaVersion,
		Rules: canonical.RulesRulebase{
			RulesConfig:      c.rules,
			UsersIdentifiers: c.usersIdentifiers,
		},
	}
	for _, lt := range c.triggersByName {
		pw.LogTriggers = append(pw.LogTriggers, lt)
	}
	for _, wr := range c.customResponsesByName {
		pw.WebUserResponses = append(pw.WebUserResponses, wr)
	}
	for _, ts := range c.trustedSourcesByName {
		pw.TrustedSources = append(pw.TrustedSources, ts)
	}

	// Map iteration order is randomized; sort every derived section by name
	// so two compilations of the same input produce byte-identical output
	// apart from the per-compilation UUIDs (spec.md §3 determinism invariant).
	sort.Slice(pw.LogTriggers, func(i, j int) bool { return pw.LogTriggers[i].Name < pw.LogTriggers[j].Name })
	sort.Slice(pw.WebUserResponses, func(i, j int) bool { return pw.WebUserResponses[i].Name < pw.WebUserResponses[j].Name })
	sort.Slice(pw.TrustedSources, func(i, j int) bool { return pw.TrustedSources[i].Name < pw.TrustedSources[j].Name })

	return pw
}
