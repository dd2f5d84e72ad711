package policy

import (
	"github.com/openappsec-go/agentcore/internal/domain/policy/v1beta2"
)

// ConvertV1beta2Rule adapts one openappsec.io/v1beta2 ParsedRule into the
// schema-agnostic Rule the compiler operates on.
func ConvertV1beta2Rule(r v1beta2.ParsedRule) Rule {
	return Rule{
		Host:                 r.Host,
		Mode:                 r.Mode,
		PracticeName:         r.Practice,
		TriggerName:          r.Trigger,
		ExceptionName:        r.Exception,
		CustomResponseName:   r.CustomResponse,
		SourceIdentifierName: r.SourceIdentifier,
		TrustedSourcesName:   r.TrustedSources,
	}
}

// ConvertV1beta2Policy adapts an entire v1beta2.AppsecPolicy into a
// PolicySource.
func ConvertV1beta2Policy(p v1beta2.AppsecPolicy) PolicySource {
	src := PolicySource{Default: ConvertV1beta2Rule(p.Default)}
	for _, r := range p.Specific {
		src.Specific = append(src.Specific, ConvertV1beta2Rule(r))
	}
	return src
}

// ConvertV1beta2Practice adapts a named AppSecPracticeSpec, carrying
// HasOpenAPI through from the schema added in v1beta2.
func ConvertV1beta2Practice(s v1beta2.AppSecPracticeSpec) Practice {
	return Practice{
		Name:       s.Name,
		Mode:       s.WebAttacks.Mode,
		HasSnort:   len(s.SnortSignatures.Overrides) > 0,
		HasOpenAPI: s.OpenAPISchema.ConfigMap != "",
	}
}

// ConvertV1beta2Trigger adapts a named AppsecTriggerSpec.
func ConvertV1beta2Trigger(s v1beta2.AppsecTriggerSpec) Trigger {
	return Trigger{
		Name:                     s.Name,
		ExtendLoggingEnabled:     s.AppsecLog.ExtendLogging.Enabled,
		ExtendLoggingMinSeverity: s.AppsecLog.ExtendLogging.MinSeverity,
		StdoutFormat:             s.LogDestination.Stdout.Format,
		CEFAddress:               s.LogDestination.CEF.Address,
		CEFPort:                  s.LogDestination.CEF.Port,
		SyslogAddress:            s.LogDestination.Syslog.Address,
		SyslogPort:               s.LogDestination.Syslog.Port,
		LogToCloud:               s.LogDestination.Cloud,
	}
}

// ConvertV1beta2Exception adapts a named AppsecExceptionSpec.
func ConvertV1beta2Exception(s v1beta2.AppsecExceptionSpec) Exception {
	return Exception{Name: s.Name, Match: s.Match, Action: s.Action}
}

// ConvertV1beta2CustomResponse adapts a named AppSecCustomResponseSpec.
func ConvertV1beta2CustomResponse(s v1beta2.AppSecCustomResponseSpec) CustomResponse {
	return CustomResponse{
		Name:         s.Name,
		Mode:         s.Mode,
		HTTPCode:     s.HTTPCode,
		MessageBody:  s.MessageBody,
		MessageTitle: s.MessageTitle,
	}
}

// ConvertV1beta2TrustedSources adapts a named TrustedSourcesSpec.
func ConvertV1beta2TrustedSources(s v1beta2.TrustedSourcesSpec) TrustedSources {
	return TrustedSources{
		Name:               s.Name,
		MinNumOfSources:    s.MinNumOfSources,
		SourcesIdentifiers: s.SourcesIdentifiers,
	}
}

// ConvertV1beta2SourceIdentifier adapts a named SourceIdentifierSpec.
func ConvertV1beta2SourceIdentifier(s v1beta2.SourceIdentifierSpec) SourceIdentifier {
	return SourceIdentifier{Name: s.Name, SourceIdentifier: s.SourceIdentifier, Values: s.Values}
}

// BuildV1beta2Resolver mirrors BuildV1beta1Resolver for the v1beta2 schema.
func BuildV1beta2Resolver(
	practices []v1beta2.AppSecPracticeSpec,
	triggers []v1beta2.AppsecTriggerSpec,
	exceptions []v1beta2.AppsecExceptionSpec,
	customResponses []v1beta2.AppSecCustomResponseSpec,
	trustedSources []v1beta2.TrustedSourcesSpec,
	sourceIdents []v1beta2.SourceIdentifierSpec,
) *MapResolver {
	r := &MapResolver{
		Practices:       make(map[string]Practice, len(practices)),
		Triggers:        make(map[string]Trigger, len(triggers)),
		Exceptions:      make(map[string]Exception, len(exceptions)),
		CustomResponses: make(map[string]CustomResponse, len(customResponses)),
		SourceIdents:    make(map[string]SourceIdentifier, len(sourceIdents)),
		TrustedSources:  make(map[string]TrustedSources, len(trustedSources)),
	}
	for _, p := range practices {
		r.Practices[p.Name] = ConvertV1beta2Practice(p)
	}
	for _, t := range triggers {
		r.Triggers[t.Name] = ConvertV1beta2Trigger(t)
	}
	for _, e := range exceptions {
		r.Exceptions[e.Name] = ConvertV1beta2Exception(e)
	}
	for _, c := range customResponses {
		r.CustomResponses[c.Name] = ConvertV1beta2CustomResponse(c)
	}
	for _, ts := range trustedSources {
		r.TrustedSources[ts.Name] = ConvertV1beta2TrustedSources(ts)
	}
	for _, si := range sourceIdents {
		r.SourceIdents[si.Name] = ConvertV1beta2SourceIdentifier(si)
	}
	return r
}
