package compiler

import (
	"fmt"
	"strings"

	"golang.org/x/text/unicode/norm"

	"github.com/roach88/sigflow/internal/ir"
)

// Validation error codes (E100-E199)
const (
	ErrEntityNoClass      = "E101" // class is required
	ErrUnknownReference   = "E102" // reference names no declared entity
	ErrInvalidSignalPath  = "E103" // path is not entity.signal
	ErrUnknownPathEntity  = "E104" // path names no declared entity
	ErrDuplicateName      = "E105" // two entities share a normalized name
	ErrDuplicatePlugInput = "E106" // one input plugged twice
	ErrNoEntities         = "E107" // graph declares nothing
	ErrUnknownClass       = "E108" // class has no constructor
)

// ValidationError represents a schema validation error.
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Code    string `json:"code"`
}

// Error implements the error interface.
func (e ValidationError) Error() string {
	return fmt.Sprintf("[%s] %s: %s", e.Code, e.Field, e.Message)
}

// Validate checks a compiled graph for wiring mistakes that can be found
// without constructing it. Returns all errors found (does not fail-fast).
//
// Signal names and value types are checked later, when the graph is built,
// since they depend on the entity classes.
func Validate(spec *ir.GraphSpec) []ValidationError {
	var errs []ValidationError

	if len(spec.Entities) == 0 {
		errs = append(errs, ValidationError{
			Field:   FieldEntity,
			Message: "graph declares no entities",
			Code:    ErrNoEntities,
		})
	}

	names := make(map[string]bool)
	for i, ent := range spec.Entities {
		key := norm.NFC.String(ent.Name)
		if names[key] {
			errs = append(errs, ValidationError{
				Field:   fmt.Sprintf("entity[%d].name", i),
				Message: fmt.Sprintf("duplicate entity name: %q", ent.Name),
				Code:    ErrDuplicateName,
			})
		}
		names[key] = true

		if strings.TrimSpace(ent.Class) == "" {
			errs = append(errs, ValidationError{
				Field:   fmt.Sprintf("entity.%s.class", ent.Name),
				Message: "class is required and must be non-empty",
				Code:    ErrEntityNoClass,
			})
		}
	}

	for _, ent := range spec.Entities {
		if ent.Reference != "" && !names[norm.NFC.String(ent.Reference)] {
			errs = append(errs, ValidationError{
				Field:   fmt.Sprintf("entity.%s.reference", ent.Name),
				Message: fmt.Sprintf("reference %q names no declared entity", ent.Reference),
				Code:    ErrUnknownReference,
			})
		}
	}

	plugged := make(map[string]bool)
	for i, p := range spec.Plugs {
		errs = append(errs, validatePath(p.From, fmt.Sprintf("plug[%d].from", i), names)...)
		errs = append(errs, validatePath(p.To, fmt.Sprintf("plug[%d].to", i), names)...)
		if plugged[p.To] {
			errs = append(errs, ValidationError{
				Field:   fmt.Sprintf("plug[%d].to", i),
				Message: fmt.Sprintf("input %q is plugged more than once", p.To),
				Code:    ErrDuplicatePlugInput,
			})
		}
		plugged[p.To] = true
	}

	for _, s := range spec.Sets {
		errs = append(errs, validatePath(s.Path, fmt.Sprintf("set.%q", s.Path), names)...)
	}
	for i, w := range spec.Watch {
		errs = append(errs, validatePath(w, fmt.Sprintf("watch[%d]", i), names)...)
	}

	return errs
}

func validatePath(path, field string, names map[string]bool) []ValidationError {
	ent, _, err := ir.SignalPath(path)
	if err != nil {
		return []ValidationError{{
			Field:   field,
			Message: err.Error(),
			Code:    ErrInvalidSignalPath,
		}}
	}
	if !names[norm.NFC.String(ent)] {
		return []ValidationError{{
			Field:   field,
			Message: fmt.Sprintf("%q names no declared entity", ent),
			Code:    ErrUnknownPathEntity,
		}}
	}
	return nil
}

// ValidateClasses reports every entity whose class is not in classes.
func ValidateClasses(spec *ir.GraphSpec, classes []string) []ValidationError {
	known := make(map[string]bool, len(classes))
	for _, c := range classes {
		known[c] = true
	}

	var errs []ValidationError
	for _, ent := range spec.Entities {
		if ent.Class == "" || known[ent.Class] {
			continue
		}
		errs = append(errs, ValidationError{
			Field:   fmt.Sprintf("entity.%s.class", ent.Name),
			Message: fmt.Sprintf("unknown class %q", ent.Class),
			Code:    ErrUnknownClass,
		})
	}
	return errs
}
