package k8s

import (
	corepolicy "github.com/openappsec-go/agentcore/internal/policy"
)

// ingressList is the subset of a networking.k8s.io/v1 IngressList this
// package needs: per-ingress annotations and the rule hosts/paths, plus
// whether a defaultBackend is configured (gates the wildcard cleanup rule,
// spec.md §4.2 step 8).
type ingressList struct {
	Items []ingressItem `json:"items"`
}

type ingressItem struct {
	Metadata struct {
		Name        string            `json:"name"`
		Annotations map[string]string `json:"annotations"`
	} `json:"metadata"`
	Spec struct {
		DefaultBackend *struct{} `json:"defaultBackend"`
		Rules          []struct {
			Host string `json:"host"`
			HTTP struct {
				Paths []struct {
					Path string `json:"path"`
				} `json:"paths"`
			} `json:"http"`
		} `json:"rules"`
	} `json:"spec"`
}

// Annotation keys the original agent reads off an Ingress object to attach
// openappsec policy to it without a separate CRD reference, grounded on
// original_source's k8s_policy_gen ingress controller integration.
const (
	annotationPractice = "openappsec.io/practice"
	annotationTrigger  = "openappsec.io/triggers"
	annotationMode     = "openappsec.io/mode"
	annotationSyslog   = "openappsec.io/syslog"
)

// IngressPolicy is one Ingress object translated into a normalized
// PolicySource, plus the bookkeeping CompileSource needs (the ingress's
// own name for alerting, and whether it declares a default backend).
type IngressPolicy struct {
	Name              string
	Source            corepolicy.PolicySource
	HasDefaultBackend bool
}

// parseIngress converts one decoded ingress object into an IngressPolicy.
// Every rule.host[/path] in the ingress's spec becomes one specific Rule
// referencing the ingress's openappsec.io/practice and openappsec.io/
// triggers annotations; a bare openappsec.io/syslog annotation with no
// openappsec.io/triggers reference synthesizes a syslog-only trigger
// instead (spec.md §4.2 "Trigger assembly", last paragraph).
func parseIngress(item ingressItem) IngressPolicy {
	ann := item.Metadata.Annotations
	practice := ann[annotationPractice]
	trigger := ann[annotationTrigger]
	mode := ann[annotationMode]
	if trigger == "" && ann[annotationSyslog] != "" {
		// No named trigger reference: fall back to a syslog-only trigger
		// synthesized directly from the address, resolved in
		// Compiler.resolveTrigger when the name lookup misses.
		trigger = ann[annotationSyslog]
	}

	var specific []corepolicy.Rule
	for _, r := range item.Spec.Rules {
		if len(r.HTTP.Paths) == 0 {
			specific = append(specific, corepolicy.Rule{
				Host: r.Host, Mode: mode, PracticeName: practice, TriggerName: trigger,
			})
			continue
		}
		for _, p := range r.HTTP.Paths {
			specific = append(specific, corepolicy.Rule{
				Host: r.Host + p.Path, Mode: mode, PracticeName: practice, TriggerName: trigger,
			})
		}
	}

	return IngressPolicy{
		Name: item.Metadata.Name,
		Source: corepolicy.PolicySource{
			Default:  corepolicy.Rule{Host: "*", Mode: mode, PracticeName: practice, TriggerName: trigger},
			Specific: specific,
		},
		HasDefaultBackend: item.Spec.DefaultBackend != nil,
	}
}
