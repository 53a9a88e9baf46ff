package message

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/cel-go/cel"
)

// Filter is a compiled CEL predicate over a message. The zero Filter and a
// Filter built from an empty expression match everything.
type Filter struct {
	prog    cel.Program
	enabled bool
}

// NewFilter compiles expr. Available variables:
//
//	sequence    int     log sequence
//	publish_ms  int     publish time (Unix ms)
//	age_ms      int     now_ms - publish_ms
//	size        int     payload length
//	text        string  payload as a string
//	json        dyn     payload parsed as JSON (null when not JSON)
//	properties  map     header properties
//	now_ms      int     evaluation time (Unix ms)
func NewFilter(expr string) (Filter, error) {
	expr = strings.TrimSpace(expr)
	if expr == "" {
		return Filter{}, nil
	}
	env, err := cel.NewEnv(
		cel.Variable("sequence", cel.IntType),
		cel.Variable("publish_ms", cel.IntType),
		cel.Variable("age_ms", cel.IntType),
		cel.Variable("size", cel.IntType),
		cel.Variable("text", cel.StringType),
		cel.Variable("json", cel.DynType),
		cel.Variable("properties", cel.MapType(cel.StringType, cel.StringType)),
		cel.Variable("now_ms", cel.IntType),
	)
	if err != nil {
		return Filter{}, err
	}
	ast, iss := env.Compile(expr)
	if iss != nil && iss.Err() != nil {
		return Filter{}, fmt.Errorf("message: compile filter: %w", iss.Err())
	}
	prog, err := env.Program(ast)
	if err != nil {
		return Filter{}, err
	}
	return Filter{prog: prog, enabled: true}, nil
}

// Enabled reports whether the filter has an expression.
func (f Filter) Enabled() bool { return f.enabled }

// Match evaluates the filter. Evaluation errors and undecodable headers do
// not match.
func (f Filter) Match(sequence uint64, header, payload []byte) bool {
	if !f.enabled {
		return true
	}
	h, err := DecodeHeader(header)
	if err != nil {
		return false
	}
	props := h.Properties
	if props == nil {
		props = map[string]string{}
	}
	var jsonObj any
	_ = json.Unmarshal(payload, &jsonObj)
	nowMs := time.Now().UnixMilli()
	out, _, err := f.prog.Eval(map[string]any{
		"sequence":   int64(sequence),
		"publish_ms": h.PublishMs(),
		"age_ms":     nowMs - h.PublishMs(),
		"size":       int64(len(payload)),
		"text":       string(payload),
		"json":       jsonObj,
		"properties": props,
		"now_ms":     nowMs,
	})
	if err != nil {
		return false
	}
	b, ok := out.Value().(bool)
	return ok && b
}
