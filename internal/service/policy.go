// Package service wires the policy compiler, its artifact store, and the
// request-time matcher together into the single PolicyService the CLI
// constructs, mirroring the teacher's internal/service layer: one
// constructor-injected type per subsystem that owns the glue between ports
// and the concrete adapters, rather than the CLI's run command reaching
// into adapter packages directly.
package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/openappsec-go/agentcore/internal/adapter/outbound/artifact"
	"github.com/openappsec-go/agentcore/internal/config"
	domainpolicy "github.com/openappsec-go/agentcore/internal/domain/policy"
	"github.com/openappsec-go/agentcore/internal/metrics"
	"github.com/openappsec-go/agentcore/internal/policy"
	"github.com/openappsec-go/agentcore/internal/policy/k8s"
)

// PolicyCollaborator abstracts the Linux-file vs. Kubernetes-CRD ingestion
// path the compiler draws its resolver and policy sources from, so
// PolicyService.Recompile doesn't need a mode switch of its own at every
// call site.
type PolicyCollaborator interface {
	// Load returns the resolver and the list of policy sources to compile.
	Load(ctx context.Context) (policy.Resolver, []namedSource, error)
}

// namedSource pairs one PolicySource with the display name CompileSource
// logs and alerts under, and the hasDefaultBackend flag only Kubernetes
// ingress objects can supply (spec.md §4.2 step 8).
type namedSource struct {
	name              string
	source            policy.PolicySource
	hasDefaultBackend bool
}

// linuxCollaborator loads the Linux-mode local policy file.
type linuxCollaborator struct{ path string }

func (l linuxCollaborator) Load(_ context.Context) (policy.Resolver, []namedSource, error) {
	resolver, sources, err := policy.LoadLocalPolicy(l.path)
	if err != nil {
		return nil, nil, err
	}
	named := make([]namedSource, 0, len(sources))
	for i, s := range sources {
		named = append(named, namedSource{name: fmt.Sprintf("local-policy-%d", i), source: s})
	}
	return resolver, named, nil
}

// kubernetesCollaborator loads CRDs and Ingress objects through the
// in-cluster API server.
type kubernetesCollaborator struct {
	client        *k8s.Client
	schemaVersion string
}

func (k kubernetesCollaborator) Load(ctx context.Context) (policy.Resolver, []namedSource, error) {
	var resolver policy.Resolver
	var err error
	if k.schemaVersion == "v1beta1" {
		resolver, err = k.client.ListV1Beta1Resolver(ctx)
	} else {
		resolver, err = k.client.ListV1Beta2Resolver(ctx)
	}
	if err != nil {
		return nil, nil, fmt.Errorf("loading kubernetes resolver: %w", err)
	}

	ingresses, err := k.client.ListIngresses(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("listing ingresses: %w", err)
	}

	named := make([]namedSource, 0, len(ingresses))
	for _, ing := range ingresses {
		named = append(named, namedSource{
			name:              ing.Name,
			source:            ing.Source,
			hasDefaultBackend: ing.HasDefaultBackend,
		})
	}
	return resolver, named, nil
}

// NewCollaborator builds the PolicyCollaborator matching cfg.Policy.Mode.
func NewCollaborator(ctx context.Context, cfg config.PolicyConfig, k8sClient *k8s.Client) (PolicyCollaborator, error) {
	switch cfg.Mode {
	case "kubernetes":
		if k8sClient == nil {
			return nil, fmt.Errorf("kubernetes policy mode requires a k8s client")
		}
		return kubernetesCollaborator{client: k8sClient, schemaVersion: cfg.SchemaVersion}, nil
	default:
		return linuxCollaborator{path: cfg.LocalPath}, nil
	}
}

// PolicyService owns one compilation cycle: running the compiler over every
// source the collaborator supplies, converting the result into the
// request-time Rulebase, persisting it, and swapping in a fresh CELMatcher.
// Grounded on the teacher's service.NewPolicyService (load-compile-store-swap
// lifecycle), generalized from MCP tool policies to this compiler's output.
type PolicyService struct {
	collaborator  PolicyCollaborator
	store         *artifact.Store[domainpolicy.Rulebase]
	schemaVersion string
	sourceLabel   string
	logger        *slog.Logger
	metrics       *metrics.Registry

	matcher domainpolicy.Matcher
}

// NewPolicyService builds a PolicyService. sourceLabel (the policy mode,
// "linux" or "kubernetes") is recorded on every compiled Rulebase. It attempts to load a
// previously-persisted Rulebase from store so the matcher is never nil
// even before the first successful compile (spec.md §4.2 "last-known-good").
func NewPolicyService(collaborator PolicyCollaborator, store *artifact.Store[domainpolicy.Rulebase], schemaVersion, sourceLabel string, logger *slog.Logger, reg *metrics.Registry) *PolicyService {
	svc := &PolicyService{
		collaborator:  collaborator,
		store:         store,
		schemaVersion: schemaVersion,
		sourceLabel:   sourceLabel,
		logger:        logger,
		metrics:       reg,
	}
	if rb, ok, err := store.Load(); err == nil && ok {
		if m, err := policy.NewCELMatcher(rb); err == nil {
			svc.matcher = m
			reg.PolicyRulesActive.Set(float64(len(rb.Rules)))
		}
	}
	return svc
}

// Recompile runs one full compilation cycle and, on success, swaps in the
// new matcher and persists the Rulebase. A failure leaves the previous
// matcher (if any) in place, per spec.md §4.2's last-known-good invariant.
func (s *PolicyService) Recompile(ctx context.Context) error {
	start := time.Now()
	resolver, sources, err := s.collaborator.Load(ctx)
	if err != nil {
		s.metrics.PolicyCompileErrors.Inc()
		return fmt.Errorf("loading policy sources: %w", err)
	}

	compiler := policy.NewCompiler(resolver, s.schemaVersion, s.logger)
	for _, src := range sources {
		compiler.CompileSource(ctx, src.name, src.source, src.hasDefaultBackend)
	}

	wrapper := compiler.Compile()
	rb := policy.ToRulebase(wrapper, s.sourceLabel, time.Now().UTC())

	matcher, err := policy.NewCELMatcher(rb)
	if err != nil {
		s.metrics.PolicyCompileErrors.Inc()
		return fmt.Errorf("building request-time matcher: %w", err)
	}

	if err := s.store.Save(rb); err != nil {
		s.logger.WarnContext(ctx, "compiled policy but failed to persist artifact", "error", err)
	}

	s.matcher = matcher
	s.metrics.PolicyCompileDuration.Observe(time.Since(start).Seconds())
	s.metrics.PolicyRulesActive.Set(float64(len(rb.Rules)))
	s.logger.InfoContext(ctx, "policy recompiled", "rules", len(rb.Rules), "sources", len(sources))
	return nil
}

// Match resolves the most specific rule for a request, or ok=false if no
// compilation has ever succeeded.
func (s *PolicyService) Match(ctx context.Context, host string, port int, uri string) (domainpolicy.Rule, bool) {
	if s.matcher == nil {
		return domainpolicy.Rule{}, false
	}
	return s.matcher.Match(ctx, host, port, uri)
}
