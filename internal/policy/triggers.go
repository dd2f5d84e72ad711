package policy

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/openappsec-go/agentcore/internal/domain/policy/canonical"
)

// defaultSyslogPort is used when a syslog/cef address carries no explicit
// port, per spec.md §4.2 "Trigger assembly".
const defaultSyslogPort = 514

// buildLogTrigger assembles a canonical.LogTriggerSection from a resolved
// Trigger, a direct port of triggers_section.h's field derivation logic.
// The returned UUID is stable only within this compilation (spec §3
// invariant); callers must re-resolve by name across compilations.
func buildLogTrigger(t Trigger) canonical.LogTriggerSection {
	id := uuid.NewString()

	cefPort := t.CEFPort
	if cefPort == 0 {
		cefPort = defaultSyslogPort
	}
	syslogPort := t.SyslogPort
	if syslogPort == 0 {
		syslogPort = defaultSyslogPort
	}

	return canonical.LogTriggerSection{
		ID:                       id,
		Context:                  fmt.Sprintf("triggerId(%s)", id),
		Name:                     t.Name,
		Type:                     "log",
		Verbosity:                "Standard",
		ExtendLogging:            t.ExtendLoggingEnabled,
		ExtendLoggingMinSeverity: t.ExtendLoggingMinSeverity,
		LogToAgent:               t.StdoutFormat != "",
		BeautifyLogs:             t.StdoutFormat == "json-formatted",
		LogToCEF:                 t.CEFAddress != "",
		LogToSyslog:              t.SyslogAddress != "",
		LogToCloud:               t.LogToCloud,
		URLForCEF:                t.CEFAddress + ":" + strconv.Itoa(cefPort),
		URLForSyslog:             t.SyslogAddress + ":" + strconv.Itoa(syslogPort),
	}
}

// syslogOnlyTrigger synthesizes a syslog-only LogTriggerSection from the
// ingress annotation "openappsec.io/syslog=<addr[:port]>", used only when
// no named trigger was referenced by the rule (spec.md §4.2 "Trigger
// assembly", last paragraph). The trigger's name is the bare address.
func syslogOnlyTrigger(annotationValue string) canonical.LogTriggerSection {
	addr, port := splitAddrPort(annotationValue, defaultSyslogPort)
	t := Trigger{
		Name:          addr,
		SyslogAddress: addr,
		SyslogPort:    port,
	}
	return buildLogTrigger(t)
}

// looksLikeAddress reports whether name resembles a bare "host[:port]"
// syslog destination rather than a CRD-defined trigger name, the heuristic
// Compiler.resolveTrigger uses to accept the openappsec.io/syslog
// annotation shorthand.
func looksLikeAddress(name string) bool {
	return strings.ContainsAny(name, ".:")
}

// splitAddrPort splits "host[:port]" into host and port, defaulting port
// when absent or unparsable.
func splitAddrPort(s string, defaultPort int) (string, int) {
	if idx := strings.LastIndexByte(s, ':'); idx >= 0 {
		if p, err := strconv.Atoi(s[idx+1:]); err == nil {
			return s[:idx], p
		}
	}
	return s, defaultPort
}

// buildWebUserResponseTrigger assembles a canonical.WebUserResponseTriggerSection
// from a resolved CustomResponse, a direct port of the WebUserResponseTriggerSection
// constructor in triggers_section.h.
func buildWebUserResponseTrigger(c CustomResponse) canonical.WebUserResponseTriggerSection {
	id := uuid.NewString()
	return canonical.WebUserResponseTriggerSection{
		ID:            id,
		Context:       fmt.Sprintf("triggerId(%s)", id),
		Name:          c.Name,
		DetailsLevel:  c.Mode,
		ResponseBody:  c.MessageBody,
		ResponseCode:  c.HTTPCode,
		ResponseTitle: c.MessageTitle,
	}
}
