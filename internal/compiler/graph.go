package compiler

import (
	"fmt"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/token"

	"github.com/roach88/sigflow/internal/ir"
)

// Top-level fields of a graph declaration.
const (
	FieldName   = "name"
	FieldEntity = "entity"
	FieldPlug   = "plug"
	FieldSet    = "set"
	FieldWatch  = "watch"
)

// CompileGraph parses a CUE value into a GraphSpec.
// Uses CUE SDK's Go API directly (not CLI subprocess).
//
// The CUE value is the whole graph declaration:
//
//	entity: {
//		goal: { class: "FeatureGeneric" }
//		task: { class: "FeatureGeneric", reference: "goal" }
//	}
//	plug: [{ from: "vel.sout", to: "goal.errordotIN" }]
//	set: { "task.selec": "1010" }
//	watch: ["task.errordot"]
//
// CompileGraph stops at the first error. Callers that want every error use
// the per-section functions.
func CompileGraph(v cue.Value) (*ir.GraphSpec, error) {
	if err := v.Err(); err != nil {
		return nil, formatCUEError(err)
	}

	spec := &ir.GraphSpec{}

	name, err := optionalString(v, FieldName)
	if err != nil {
		return nil, err
	}
	spec.Name = name

	entVal := v.LookupPath(cue.ParsePath(FieldEntity))
	if !entVal.Exists() {
		return nil, &CompileError{
			Field:   FieldEntity,
			Message: "at least one entity is required",
			Pos:     v.Pos(),
		}
	}
	iter, err := entVal.Fields()
	if err != nil {
		return nil, formatCUEError(err)
	}
	for iter.Next() {
		ent, err := CompileEntity(iter.Selector().Unquoted(), iter.Value())
		if err != nil {
			return nil, err
		}
		spec.Entities = append(spec.Entities, ent)
	}

	if spec.Plugs, err = CompilePlugs(v.LookupPath(cue.ParsePath(FieldPlug))); err != nil {
		return nil, err
	}
	if spec.Sets, err = CompileSets(v.LookupPath(cue.ParsePath(FieldSet))); err != nil {
		return nil, err
	}
	if spec.Watch, err = CompileWatch(v.LookupPath(cue.ParsePath(FieldWatch))); err != nil {
		return nil, err
	}

	return spec, nil
}

// CompileEntity parses one entity declaration. class is required,
// reference is optional and every other field becomes a constructor
// parameter.
func CompileEntity(name string, v cue.Value) (ir.EntitySpec, error) {
	ent := ir.EntitySpec{Name: name}
	if err := v.Err(); err != nil {
		return ent, formatCUEError(err)
	}

	classVal := v.LookupPath(cue.ParsePath("class"))
	if !classVal.Exists() {
		return ent, &CompileError{
			Field:   "entity." + name + ".class",
			Message: "class is required",
			Pos:     v.Pos(),
		}
	}
	class, err := classVal.String()
	if err != nil {
		return ent, formatCUEError(err)
	}
	ent.Class = class

	ref, err := optionalString(v, "reference")
	if err != nil {
		return ent, err
	}
	ent.Reference = ref

	iter, err := v.Fields()
	if err != nil {
		return ent, formatCUEError(err)
	}
	for iter.Next() {
		label := iter.Selector().Unquoted()
		if label == "class" || label == "reference" {
			continue
		}
		val, err := goValue(iter.Value())
		if err != nil {
			return ent, err
		}
		if ent.Params == nil {
			ent.Params = make(map[string]any)
		}
		ent.Params[label] = val
	}

	return ent, nil
}

// CompilePlugs parses the plug list. A missing value yields no plugs.
func CompilePlugs(v cue.Value) ([]ir.PlugSpec, error) {
	if !v.Exists() {
		return nil, nil
	}
	iter, err := v.List()
	if err != nil {
		return nil, formatCUEError(err)
	}

	var plugs []ir.PlugSpec
	for iter.Next() {
		item := iter.Value()
		from, err := requiredString(item, "from", FieldPlug)
		if err != nil {
			return nil, err
		}
		to, err := requiredString(item, "to", FieldPlug)
		if err != nil {
			return nil, err
		}
		plugs = append(plugs, ir.PlugSpec{From: from, To: to})
	}
	return plugs, nil
}

// CompileSets parses the set struct, keyed by signal path.
func CompileSets(v cue.Value) ([]ir.SetSpec, error) {
	if !v.Exists() {
		return nil, nil
	}
	iter, err := v.Fields()
	if err != nil {
		return nil, formatCUEError(err)
	}

	var sets []ir.SetSpec
	for iter.Next() {
		val, err := goValue(iter.Value())
		if err != nil {
			return nil, err
		}
		sets = append(sets, ir.SetSpec{Path: iter.Selector().Unquoted(), Value: val})
	}
	return sets, nil
}

// CompileWatch parses the list of watched signal paths.
func CompileWatch(v cue.Value) ([]string, error) {
	if !v.Exists() {
		return nil, nil
	}
	iter, err := v.List()
	if err != nil {
		return nil, formatCUEError(err)
	}

	var paths []string
	for iter.Next() {
		s, err := iter.Value().String()
		if err != nil {
			return nil, formatCUEError(err)
		}
		paths = append(paths, s)
	}
	return paths, nil
}

func optionalString(v cue.Value, field string) (string, error) {
	f := v.LookupPath(cue.ParsePath(field))
	if !f.Exists() {
		return "", nil
	}
	s, err := f.String()
	if err != nil {
		return "", formatCUEError(err)
	}
	return s, nil
}

func requiredString(v cue.Value, field, section string) (string, error) {
	f := v.LookupPath(cue.ParsePath(field))
	if !f.Exists() {
		return "", &CompileError{
			Field:   section + "." + field,
			Message: field + " is required",
			Pos:     v.Pos(),
		}
	}
	s, err := f.String()
	if err != nil {
		return "", formatCUEError(err)
	}
	return s, nil
}

// CompileError represents a compilation error with source position.
type CompileError struct {
	Field   string
	Message string
	Pos     token.Pos
}

func (e *CompileError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s",
			e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(),
			e.Field, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// formatCUEError extracts position info from CUE errors.
func formatCUEError(err error) error {
	if err == nil {
		return nil
	}

	errs := errors.Errors(err)
	if len(errs) == 0 {
		return err
	}

	// Return first error with position info
	firstErr := errs[0]
	positions := errors.Positions(firstErr)
	if len(positions) > 0 {
		return &CompileError{
			Field:   "cue",
			Message: firstErr.Error(),
			Pos:     positions[0],
		}
	}

	return err
}
