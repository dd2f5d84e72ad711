package policy

import (
	"github.com/openappsec-go/agentcore/internal/domain/policy/v1beta1"
)

// ConvertV1beta1Rule adapts one openappsec.io/v1beta1 ParsedRule into the
// schema-agnostic Rule the compiler operates on.
func ConvertV1beta1Rule(r v1beta1.ParsedRule) Rule {
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

// ConvertV1beta1Policy adapts an entire v1beta1.AppsecPolicy into a
// PolicySource.
func ConvertV1beta1Policy(p v1beta1.AppsecPolicy) PolicySource {
	src := PolicySource{Default: ConvertV1beta1Rule(p.Default)}
	for _, r := range p.Specific {
		src.Specific = append(src.Specific, ConvertV1beta1Rule(r))
	}
	return src
}

// ConvertV1beta1Practice adapts a named AppSecPracticeSpec.
func ConvertV1beta1Practice(s v1beta1.AppSecPracticeSpec) Practice {
	return Practice{
		Name:     s.Name,
		Mode:     s.WebAttacks.Mode,
		HasSnort: len(s.SnortSignatures.Overrides) > 0,
	}
}

// ConvertV1beta1Trigger adapts a named AppsecTriggerSpec, flattening the
// nested LogDestinationSpec per spec.md §4.2 "Trigger assembly".
func ConvertV1beta1Trigger(s v1beta1.AppsecTriggerSpec) Trigger {
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

// ConvertV1beta1Exception adapts a named AppsecExceptionSpec.
func ConvertV1beta1Exception(s v1beta1.AppsecExceptionSpec) Exception {
	return Exception{Name: s.Name, Match: s.Match, Action: s.Action}
}

// ConvertV1beta1CustomResponse adapts a named AppSecCustomResponseSpec.
func ConvertV1beta1CustomResponse(s v1beta1.AppSecCustomResponseSpec) CustomResponse {
	return CustomResponse{
		Name:         s.Name,
		Mode:         s.Mode,
		HTTPCode:     s.HTTPCode,
		MessageBody:  s.MessageBody,
		MessageTitle: s.MessageTitle,
	}
}

// ConvertV1beta1TrustedSources adapts a named TrustedSourcesSpec.
func ConvertV1beta1TrustedSources(s v1beta1.TrustedSourcesSpec) TrustedSources {
	return TrustedSources{
		Name:               s.Name,
		MinNumOfSources:    s.MinNumOfSources,
		SourcesIdentifiers: s.SourcesIdentifiers,
	}
}

// ConvertV1beta1SourceIdentifier adapts a named SourceIdentifierSpec.
func ConvertV1beta1SourceIdentifier(s v1beta1.SourceIdentifierSpec) SourceIdentifier {
	return SourceIdentifier{Name: s.Name, SourceIdentifier: s.SourceIdentifier, Values: s.Values}
}

// BuildV1beta1Resolver assembles a MapResolver from every named CRD object
// decoded for one policy source, the collaborator CompileSource's Resolver
// resolves references against.
func BuildV1beta1Resolver(
	practices []v1beta1.AppSecPracticeSpec,
	triggers []v1beta1.AppsecTriggerSpec,
	exceptions []v1beta1.AppsecExceptionSpec,
	customResponses []v1beta1.AppSecCustomResponseSpec,
	trustedSources []v1beta1.TrustedSourcesSpec,
	sourceIdents []v1beta1.SourceIdentifierSpec,
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
		r.Practices[p.Name] = ConvertV1beta1Practice(p)
	}
	for _, t := range triggers {
		r.Triggers[t.Name] = ConvertV1beta1Trigger(t)
	}
	for _, e := range exceptions {
		r.Exceptions[e.Name] = ConvertV1beta1Exception(e)
	}
	for _, c := range customResponses {
		r.CustomResponses[c.Name] = ConvertV1beta1CustomResponse(c)
	}
	for _, ts := range trustedSources {
		r.TrustedSources[ts.Name] = ConvertV1beta1TrustedSources(ts)
	}
	for _, si := range sourceIdents {
		r.SourceIdents[si.Name] = ConvertV1beta1SourceIdentifier(si)
	}
	return r
}
