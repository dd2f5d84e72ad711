package keyword

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	kw "github.com/openappsec-go/agentcore/internal/domain/keyword"
)

// PracticeRegistry holds the compiled keyword rule sets a policy practice
// enforces, populated independently of the policy compiler (internal/policy)
// since the canonical artifact carries only practice id/name references, not
// rule bodies: see internal/policy.ToRulebase's doc comment for why the two
// are decoupled. Grounded on rule.go's GenRule, the module's one keyword-rule
// compiler; this package is what groups compiled rules under the practice
// that owns them and exposes a per-request evaluation entry point.
type PracticeRegistry struct {
	logger   *slog.Logger
	byID     map[string][]kw.VirtualRule
	sourceOf map[string][]string // practice id -> originating rule source text, for diagnostics
}

// NewPracticeRegistry returns an empty registry.
func NewPracticeRegistry(logger *slog.Logger) *PracticeRegistry {
	return &PracticeRegistry{
		logger:   logger,
		byID:     make(map[string][]kw.VirtualRule),
		sourceOf: make(map[string][]string),
	}
}

// LoadDir compiles every "*.rules" file under dir, filing its rules under
// the file's base name (minus extension) as the practice ID, one
// semicolon-terminated keyword rule
// per line (blank lines and lines starting with '#' are skipped). A
// malformed rule is reported but does not abort loading the rest of the
// directory, mirroring the policy compiler's per-source fault isolation.
func (r *PracticeRegistry) LoadDir(dir string, ambientCtx kw.Ctx) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("reading keyword rule directory %s: %w", dir, err)
	}
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".rules") {
			continue
		}
		practiceID := strings.TrimSuffix(e.Name(), ".rules")
		path := filepath.Join(dir, e.Name())
		data, err := os.ReadFile(path)
		if err != nil {
			r.logger.Warn("skipping unreadable keyword rule file", "path", path, "error", err)
			continue
		}
		for i, line := range strings.Split(string(data), "\n") {
			line = strings.TrimSpace(line)
			if line == "" || strings.HasPrefix(line, "#") {
				continue
			}
			rule, err := GenRule(line, ambientCtx, r.logger)
			if err != nil {
				r.logger.Warn("skipping malformed keyword rule", "path", path, "line", i+1, "error", err)
				continue
			}
			r.byID[practiceID] = append(r.byID[practiceID], rule)
			r.sourceOf[practiceID] = append(r.sourceOf[practiceID], line)
		}
	}
	return nil
}

// Evaluate runs every rule compiled for practiceID against env/tbl and
// returns Match as soon as one rule matches, NoMatch if none do.
func (r *PracticeRegistry) Evaluate(practiceID string, env kw.Environment, tbl kw.StateTable) kw.MatchStatus {
	for _, rule := range r.byID[practiceID] {
		if rule.IsMatch(env, tbl) == kw.Match {
			return kw.Match
		}
	}
	return kw.NoMatch
}

// RuleCount reports how many compiled rules a practice owns.
func (r *PracticeRegistry) RuleCount(practiceID string) int {
	return len(r.byID[practiceID])
}

// PracticeIDs returns every practice ID with at least one compiled rule.
func (r *PracticeRegistry) PracticeIDs() []string {
	ids := make([]string, 0, len(r.byID))
	for id := range r.byID {
		ids = append(ids, id)
	}
	return ids
}
