package consumer

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/cel-go/cel"
	"github.com/rzbill/serialflo/internal/stream"
)

// Filter is a compiled CEL predicate over stream entries. The zero value
// matches everything.
//
// Variables: message (string), message_type (string, "" when unspecified),
// fields (map of all entry fields), json (message parsed as JSON, null when
// it is not JSON), id_ms (entry id milliseconds), now_ms.
type Filter struct {
	prog    cel.Program
	enabled bool
}

// NewFilter compiles expr. An empty expression yields a match-all filter.
func NewFilter(expr string) (Filter, error) {
	expr = strings.TrimSpace(expr)
	if expr == "" {
		return Filter{}, nil
	}
	env, err := cel.NewEnv(
		cel.Variable("message", cel.StringType),
		cel.Variable("message_type", cel.StringType),
		cel.Variable("fields", cel.MapType(cel.StringType, cel.StringType)),
		cel.Variable("json", cel.DynType),
		cel.Variable("id_ms", cel.IntType),
		cel.Variable("now_ms", cel.IntType),
	)
	if err != nil {
		return Filter{}, err
	}
	ast, iss := env.Compile(expr)
	if iss != nil && iss.Err() != nil {
		return Filter{}, iss.Err()
	}
	if !ast.OutputType().IsExactType(cel.BoolType) {
		return Filter{}, fmt.Errorf("filter must evaluate to bool, got %s", ast.OutputType())
	}
	prog, err := env.Program(ast)
	if err != nil {
		return Filter{}, err
	}
	return Filter{prog: prog, enabled: true}, nil
}

// Match evaluates the filter. Evaluation errors count as no match.
func (f Filter) Match(e *stream.Entry, now time.Time) bool {
	if !f.enabled {
		return true
	}
	var doc any
	_ = json.Unmarshal([]byte(e.Message()), &doc)
	out, _, err := f.prog.Eval(map[string]any{
		"message":      e.Message(),
		"message_type": e.Type().String(),
		"fields":       e.Fields,
		"json":         doc,
		"id_ms":        int64(e.ID.Ms),
		"now_ms":       now.UnixMilli(),
	})
	if err != nil {
		return false
	}
	b, ok := out.Value().(bool)
	return ok && b
}
