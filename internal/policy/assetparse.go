package policy

import "strings"

// Asset is the decomposition of an asset-name string into protocol, host,
// port, URI, and query, a direct Go port of AssetUrlParser::parse from
// rules_config_section.cc. It underlies both context-predicate construction
// and the specificity sort (spec.md §4.2 "Sort order for rules").
type Asset struct {
	Protocol string
	URL      string
	Port     string
	URI      string
	Query    string
}

// ParseAsset decomposes an asset-name string of the form
// "[proto://]host[:port][/uri][?query]" the same way the original parser
// does: protocol only counts if immediately followed by "://"; the host
// ends at the first ':' before the path or query; the port, if present,
// runs from after that ':' to the path or query; the URI runs from the
// first '/' to the query; the query is everything from '?' onward.
func ParseAsset(name string) Asset {
	var a Asset
	if len(name) == 0 {
		return a
	}

	queryStart := strings.IndexByte(name, '?')

	protoEnd := 0
	if colon := strings.IndexByte(name, ':'); colon >= 0 {
		rest := name[colon:]
		if len(rest) > 3 && rest[:3] == "://" {
			a.Protocol = name[:colon]
			protoEnd = colon + 3
		}
	}

	hostStart := protoEnd
	pathStart := strings.IndexByte(name[hostStart:], '/')
	if pathStart >= 0 {
		pathStart += hostStart
	} else {
		pathStart = -1
	}

	hostSearchEnd := len(name)
	if pathStart >= 0 {
		hostSearchEnd = pathStart
	} else if queryStart >= 0 {
		hostSearchEnd = queryStart
	}

	hostEnd := hostSearchEnd
	if idx := strings.IndexByte(name[hostStart:hostSearchEnd], ':'); idx >= 0 {
		hostEnd = hostStart + idx
	}
	a.URL = name[hostStart:hostEnd]

	if hostEnd < hostSearchEnd && hostEnd < len(name) && name[hostEnd] == ':' {
		portStart := hostEnd + 1
		portEnd := hostSearchEnd
		a.Port = name[portStart:portEnd]
	}

	if pathStart >= 0 {
		uriEnd := len(name)
		if queryStart >= 0 {
			uriEnd = queryStart
		}
		a.URI = name[pathStart:uriEnd]
	}

	if queryStart >= 0 {
		a.Query = name[queryStart:]
	}

	return a
}
