// Package celx compiles and evaluates CEL access conditions attached to
// registered clients.
package celx

import (
	"errors"
	"fmt"
	"sync"

	"github.com/google/cel-go/cel"
)

const (
	// MaxExpressionLength bounds condition source size.
	MaxExpressionLength = 4096

	// CostLimit bounds the runtime cost of a single evaluation.
	CostLimit = 100000
)

var (
	ErrCompile    = errors.New("celx: condition does not compile")
	ErrEvaluation = errors.New("celx: condition evaluation failed")
	ErrNotBool    = errors.New("celx: condition must evaluate to bool")
)

// Input is the data a condition is evaluated against.
//
//	subject:    map(string, list(string)) of the end-user's claims
//	client_id:  string
//	grant_type: string
//	scopes:     list(string) of the granted scopes
type Input struct {
	Subject   map[string][]string
	ClientID  string
	GrantType string
	Scopes    []string
}

func (in Input) activation() map[string]any {
	subject := make(map[string]any, len(in.Subject))
	for k, v := range in.Subject {
		subject[k] = v
	}
	scopes := in.Scopes
	if scopes == nil {
		scopes = []string{}
	}
	return map[string]any{
		"subject":    subject,
		"client_id":  in.ClientID,
		"grant_type": in.GrantType,
		"scopes":     scopes,
	}
}

var (
	envOnce sync.Once
	env     *cel.Env
	envErr  error
)

func environment() (*cel.Env, error) {
	envOnce.Do(func() {
		env, envErr = cel.NewEnv(
			cel.Variable("subject", cel.MapType(cel.StringType, cel.ListType(cel.StringType))),
			cel.Variable("client_id", cel.StringType),
			cel.Variable("grant_type", cel.StringType),
			cel.Variable("scopes", cel.ListType(cel.StringType)),
		)
	})
	return env, envErr
}

// Condition is a compiled, type-checked boolean expression. It is safe for
// concurrent use.
type Condition struct {
	source  string
	program cel.Program
}

func (c *Condition) Source() string { return c.source }

// Compile parses and type-checks expr. The expression must produce a bool.
func Compile(expr string) (*Condition, error) {
	if len(expr) > MaxExpressionLength {
		return nil, fmt.Errorf("%w: length %d exceeds %d", ErrCompile, len(expr), MaxExpressionLength)
	}

	e, err := environment()
	if err != nil {
		return nil, fmt.Errorf("celx: build environment: %w", err)
	}

	ast, issues := e.Compile(expr)
	if issues.Err() != nil {
		return nil, fmt.Errorf("%w: %s", ErrCompile, issues.Err())
	}
	if !ast.OutputType().IsExactType(cel.BoolType) {
		return nil, fmt.Errorf("%w: got %s", ErrNotBool, ast.OutputType())
	}

	program, err := e.Program(ast, cel.CostLimit(CostLimit))
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrCompile, err)
	}

	return &Condition{source: expr, program: program}, nil
}

// Eval runs the condition against in.
func (c *Condition) Eval(in Input) (bool, error) {
	out, _, err := c.program.Eval(in.activation())
	if err != nil {
		return false, fmt.Errorf("%w: %s", ErrEvaluation, err)
	}

	ok, isBool := out.Value().(bool)
	if !isBool {
		return false, fmt.Errorf("%w: got %T", ErrNotBool, out.Value())
	}
	return ok, nil
}
