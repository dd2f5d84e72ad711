package policy

import (
	"strconv"
	"strings"
)

// AnyAsset is the normalized url/uri/asset-id used for the wildcard host
// "*" (spec.md §3 invariant: "rules with the distinguished host * normalize
// to asset-id Any").
const AnyAsset = "Any"

// splitHostURI splits a rule's Host field into (url, uri) at the first
// '/', per spec.md §4.2 step 3. The wildcard host "*" becomes (Any, Any).
// An explicit port suffix on the host segment (host:port) is split out
// separately and returned as port ("" when absent).
func splitHostURI(host string) (url, uri, port string) {
	if host == "*" {
		return AnyAsset, AnyAsset, ""
	}
	hostPart := host
	if idx := strings.IndexByte(host, '/'); idx >= 0 {
		hostPart = host[:idx]
		uri = host[idx:]
	}
	if idx := strings.IndexByte(hostPart, ':'); idx >= 0 {
		port = hostPart[idx+1:]
		hostPart = hostPart[:idx]
	}
	url = hostPart
	return url, uri, port
}

// buildContext constructs the asset-id and context-predicate string exactly
// per spec.md §4.2 step 4, a direct Go port of the RulesConfigRulebase
// constructor in rules_config_section.cc. For the normalized Any host it
// returns the constant predicate "All()". Otherwise it emits one All(...)
// branch for each of ports 80 and 443 when no explicit port was given, or a
// single branch for an explicit port; a URI of "" or "/" omits
// BeginWithUri.
func buildContext(url, uri, port string) (assetID, context string) {
	any := url == AnyAsset && uri == AnyAsset
	if any {
		return AnyAsset, "All()"
	}

	assetID = url + uri

	hostCheck := "Any(EqualHost(" + url + ")),"
	uriCheck := ""
	if uri != "" && uri != "/" {
		uriCheck = ",BeginWithUri(" + uri + ")"
	}

	ports := []string{port}
	if port == "" {
		ports = []string{"80", "443"}
	}

	var b strings.Builder
	b.WriteString("Any(")
	for i, p := range ports {
		last := i == len(ports)-1
		b.WriteString("All(")
		b.WriteString(hostCheck)
		b.WriteString("EqualListeningPort(")
		b.WriteString(p)
		b.WriteString(")")
		b.WriteString(uriCheck)
		if last {
			b.WriteString(")")
		} else {
			b.WriteString("),")
		}
	}
	b.WriteString(")")

	return assetID, b.String()
}

// portOrEmpty renders an int port as a string, or "" for 0 (the
// "no explicit port" sentinel used throughout the compiler).
func portOrEmpty(p int) string {
	if p == 0 {
		return ""
	}
	return strconv.Itoa(p)
}
