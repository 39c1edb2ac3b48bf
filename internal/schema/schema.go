// Package schema validates raw event log lines against the embedded CUE
// envelope contract before Event construction.
//
// This is tier-1 (structural) validation: it fails fast and keeps
// malformed records out of the reduction pipeline entirely. It checks the
// envelope only - payload field definitions belong to the external
// per-domain schema layer and pass through opaque.
package schema

import (
	_ "embed"
	"fmt"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueerrors "cuelang.org/go/cue/errors"
	cuejson "cuelang.org/go/encoding/json"
)

//go:embed envelope.cue
var envelopeCUE string

// ValidationError reports a structural envelope failure for one log line.
type ValidationError struct {
	// Line is the 1-based JSONL line number, 0 when unknown.
	Line    int
	Message string
}

func (e *ValidationError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("line %d: %s", e.Line, e.Message)
	}
	return e.Message
}

// Validator checks raw JSON event records against the envelope schema.
// Construct once and reuse; safe for concurrent use (cue.Value is
// immutable).
type Validator struct {
	envelope cue.Value
}

// NewValidator compiles the embedded envelope schema.
func NewValidator() (*Validator, error) {
	ctx := cuecontext.New()
	v := ctx.CompileString(envelopeCUE, cue.Filename("envelope.cue"))
	if err := v.Err(); err != nil {
		return nil, fmt.Errorf("compile envelope schema: %w", err)
	}

	envelope := v.LookupPath(cue.ParsePath("#Envelope"))
	if !envelope.Exists() {
		return nil, fmt.Errorf("envelope schema missing #Envelope definition")
	}

	return &Validator{envelope: envelope}, nil
}

// Validate checks one raw JSON event record. Returns *ValidationError
// (with Line unset - callers attach line numbers) on any structural
// failure: missing required field, wrong type, out-of-range value, or a
// field the envelope does not define.
func (v *Validator) Validate(data []byte) error {
	expr, err := cuejson.Extract("event.json", data)
	if err != nil {
		return &ValidationError{Message: fmt.Sprintf("not valid JSON: %v", err)}
	}

	val := v.envelope.Context().BuildExpr(expr)
	if err := val.Err(); err != nil {
		return &ValidationError{Message: cueerrors.Details(err, nil)}
	}

	unified := v.envelope.Unify(val)
	if err := unified.Validate(cue.Concrete(true)); err != nil {
		return &ValidationError{Message: cueerrors.Details(err, nil)}
	}

	return nil
}
