package feature

import (
	"fmt"
	"io"
	"log/slog"
	"reflect"

	"github.com/roach88/sigflow/internal/entity"
	"github.com/roach88/sigflow/internal/ir"
)

// noReference is what getReference prints when no reference is set.
const noReference = "none"

// SetReference links the feature to ref. A nil ref, typed or not, clears
// the link. ref must be registered as a feature in the same pool; otherwise
// the link is left unchanged and UNRESOLVED_REFERENCE is returned.
func (a *Abstract) SetReference(ref Feature) error {
	if isNilFeature(ref) {
		a.ClearReference()
		return nil
	}
	got, err := a.pool.Feature(ref.Name())
	if err != nil {
		return err
	}
	if got != entity.Entity(ref) {
		return ir.NewUnresolvedError(ref.Name(), "feature in this pool")
	}
	a.refName = ref.Name()
	return nil
}

// isNilFeature reports whether f is nil, a nil pointer, or a feature
// without its shared layer.
func isNilFeature(f Feature) bool {
	if f == nil {
		return true
	}
	if v := reflect.ValueOf(f); v.Kind() == reflect.Pointer && v.IsNil() {
		return true
	}
	return f.FeatureAbstract() == nil
}

// SetReferenceByName links the feature to the feature registered under
// name. On failure the link is left unchanged.
func (a *Abstract) SetReferenceByName(name string) error {
	e, err := a.pool.Feature(name)
	if err != nil {
		return err
	}
	if _, ok := e.(Feature); !ok {
		return &ir.GraphError{
			Code:    ir.ErrCodeTypeMismatch,
			Message: fmt.Sprintf("%s is a %s, not a feature", e.Name(), e.ClassName()),
			Entity:  a.Name(),
			Time:    ir.NoTime,
		}
	}
	a.refName = e.Name()
	return nil
}

// ClearReference removes the link.
func (a *Abstract) ClearReference() {
	a.refName = ""
}

// IsReferenceSet reports whether the reference currently resolves to a
// live feature.
func (a *Abstract) IsReferenceSet() bool {
	return a.Reference() != nil
}

// Reference resolves the reference through the pool. It returns nil when
// no reference is set or the referenced feature has been destroyed.
func (a *Abstract) Reference() Feature {
	if a.refName == "" {
		return nil
	}
	e, err := a.pool.Feature(a.refName)
	if err != nil {
		return nil
	}
	f, ok := e.(Feature)
	if !ok {
		return nil
	}
	return f
}

// ReferenceAbstract is Reference viewed through its shared feature layer.
func (a *Abstract) ReferenceAbstract() *Abstract {
	f := a.Reference()
	if f == nil {
		return nil
	}
	return f.FeatureAbstract()
}

// ReferenceByName returns the referenced feature's name, or "none".
func (a *Abstract) ReferenceByName() string {
	f := a.Reference()
	if f == nil {
		return noReference
	}
	return f.Name()
}

// WriteGraph writes the feature node and, when a reference is set, an
// edge from the reference to this feature.
func (a *Abstract) WriteGraph(w io.Writer) error {
	if err := a.Base.WriteGraph(w); err != nil {
		return err
	}
	ref := a.Reference()
	if ref == nil {
		slog.Debug("feature has no reference", "feature", a.Name())
		return nil
	}
	_, err := fmt.Fprintf(w, "\t\"%s\" -> \"%s\" [ color=darkseagreen4 ]\n", ref.Name(), a.Name())
	return err
}

func (a *Abstract) initCommands() {
	a.AddCommand(entity.Setter("setReference",
		"Set the reference feature. Takes the name of a registered feature.",
		a.SetReferenceByName))
	a.AddCommand(entity.Getter("getReference",
		"Get the name of the reference feature, or none.",
		a.ReferenceByName))
	a.AddCommand(&entity.Command{
		Name: "clearReference",
		Doc:  "Remove the reference feature.",
		Run: func([]string) (string, error) {
			a.ClearReference()
			return "", nil
		},
	})
}
