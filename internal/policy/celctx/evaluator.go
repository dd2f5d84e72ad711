package celctx

import (
	"fmt"

	"github.com/google/cel-go/cel"
)

// Request is the subset of an inbound HTTP request the compiled context
// predicates match against.
type Request struct {
	Host string
	Port int64
	URI  string
}

// env is the shared CEL environment every compiled predicate program is
// checked against: one "request" variable of a small fixed-shape map.
var env, envErr = cel.NewEnv(
	cel.Variable("request", cel.MapType(cel.StringType, cel.DynType)),
)

// Evaluator is a compiled context predicate, ready to be evaluated
// repeatedly against different requests without re-parsing or
// re-type-checking.
type Evaluator struct {
	program cel.Program
	source  string
}

// Compile translates a context predicate string and compiles it into a CEL
// program, for use at request-match time or from the "policy test" dry-run
// operation.
func Compile(predicate string) (*Evaluator, error) {
	if envErr != nil {
		return nil, fmt.Errorf("building CEL environment: %w", envErr)
	}

	exprSrc, err := Translate(predicate)
	if err != nil {
		return nil, err
	}

	ast, issues := env.Compile(exprSrc)
	if issues != nil && issues.Err() != nil {
		return nil, fmt.Errorf("compiling translated predicate %q: %w", exprSrc, issues.Err())
	}
	prg, err := env.Program(ast)
	if err != nil {
		return nil, fmt.Errorf("building CEL program for %q: %w", exprSrc, err)
	}
	return &Evaluator{program: prg, source: exprSrc}, nil
}

// Matches evaluates the compiled predicate against req.
func (e *Evaluator) Matches(req Request) (bool, error) {
	out, _, err := e.program.Eval(map[string]any{
		"request": map[string]any{
			"host": req.Host,
			"port": req.Port,
			"uri":  req.URI,
		},
	})
	if err != nil {
		return false, fmt.Errorf("evaluating predicate %q: %w", e.source, err)
	}
	matched, ok := out.Value().(bool)
	if !ok {
		return false, fmt.Errorf("predicate %q did not evaluate to bool", e.source)
	}
	return matched, nil
}

// CELSource returns the translated CEL expression, for diagnostics and the
// policy-test dry-run response.
func (e *Evaluator) CELSource() string {
	return e.source
}
