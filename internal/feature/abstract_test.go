package feature

import (
	"bytes"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/sigflow/internal/ir"
	"github.com/roach88/sigflow/internal/pool"
	"github.com/roach88/sigflow/internal/signal"
)

// stubFeature has a fixed dimension and counts how often it is asked for it.
type stubFeature struct {
	*Abstract
	dim      int
	dimCalls int
}

func newStub(t *testing.T, p *pool.Pool, name string, dim int) *stubFeature {
	t.Helper()
	s := &stubFeature{dim: dim}
	s.Abstract = NewAbstract(p, name, "FeatureStub", s)
	require.NoError(t, Register(s))
	return s
}

func (s *stubFeature) Dimension(int, ir.Time) (int, error) {
	s.dimCalls++
	return s.dim, nil
}

func (s *stubFeature) ComputeError(ir.Vector, ir.Time) (ir.Vector, error) {
	return ir.Zeros(s.dim), nil
}

func (s *stubFeature) ComputeJacobian(ir.Matrix, ir.Time) (ir.Matrix, error) {
	return ir.NewMatrix(s.dim, 1, nil)
}

// plugErrordot drives f's errordotIN from a constant source signal.
func plugErrordot(f *stubFeature, v ir.Vector) {
	src := signal.NewInput[ir.Vector]("sout")
	src.Set(v)
	f.ErrordotSIN.Plug(src)
}

var approx = cmpopts.EquateApprox(0, 1e-12)

func errordotAt(t *testing.T, f *stubFeature, at ir.Time) ir.Vector {
	t.Helper()
	v, err := f.ErrordotSOUT.Access(at)
	require.NoError(t, err)
	return v
}

func TestAbstract_DefaultSelectionIsAll(t *testing.T) {
	f := newStub(t, pool.New(), "task", 2)

	fl, err := f.SelectionSIN.Access(0)
	require.NoError(t, err)
	assert.True(t, fl.Equal(ir.AllFlags(true)))
	assert.True(t, f.SelectionSIN.IsConstant())
}

func TestAbstract_Signals(t *testing.T) {
	f := newStub(t, pool.New(), "task", 2)

	var names []string
	for _, s := range f.Signals() {
		names = append(names, s.Name())
	}
	assert.Equal(t, []string{"selec", "errordotIN", "error", "jacobian", "dim", "errordot"}, names)
	assert.Equal(t, "task.errordot", f.ErrordotSOUT.Path())
}

func TestAbstract_ErrorDot_NoReference(t *testing.T) {
	f := newStub(t, pool.New(), "task", 3)
	assert.Equal(t, ir.Vector{0, 0, 0}, errordotAt(t, f, 1))
	assert.False(t, f.IsReferenceSet())
}

func TestAbstract_ErrorDot_ReferenceInputUnplugged(t *testing.T) {
	p := pool.New()
	f := newStub(t, p, "task", 2)
	goal := newStub(t, p, "goal", 2)
	require.NoError(t, f.SetReference(goal))

	assert.Equal(t, ir.Vector{0, 0}, errordotAt(t, f, 1))
}

func TestAbstract_ErrorDot_ReferenceInputConstant(t *testing.T) {
	p := pool.New()
	f := newStub(t, p, "task", 2)
	goal := newStub(t, p, "goal", 2)
	goal.ErrordotSIN.Set(ir.Vector{5, 6})
	require.NoError(t, f.SetReference(goal))

	assert.Equal(t, ir.Vector{0, 0}, errordotAt(t, f, 1), "a constant is not a plugged source")
}

func TestAbstract_ErrorDot_PropagatesSelectedComponents(t *testing.T) {
	p := pool.New()
	f := newStub(t, p, "task", 2)
	goal := newStub(t, p, "goal", 4)
	plugErrordot(goal, ir.Vector{0.1, 0.2, 0.3, 0.4})
	require.NoError(t, f.SetReference(goal))

	mask, err := ir.ParseFlags("1010")
	require.NoError(t, err)
	f.SelectionSIN.Set(mask)

	got := errordotAt(t, f, 7)
	if diff := cmp.Diff(ir.Vector{0.1, 0.3}, got, approx); diff != "" {
		t.Errorf("errordot mismatch (-want +got):\n%s", diff)
	}
}

func TestAbstract_ErrorDot_ZeroPadsShortSelection(t *testing.T) {
	p := pool.New()
	f := newStub(t, p, "task", 3)
	goal := newStub(t, p, "goal", 4)
	plugErrordot(goal, ir.Vector{0.1, 0.2, 0.3, 0.4})
	require.NoError(t, f.SetReference(goal))

	mask, err := ir.ParseFlags("0001")
	require.NoError(t, err)
	f.SelectionSIN.Set(mask)

	got := errordotAt(t, f, 1)
	if diff := cmp.Diff(ir.Vector{0.4, 0, 0}, got, approx); diff != "" {
		t.Errorf("errordot mismatch (-want +got):\n%s", diff)
	}
}

func TestAbstract_ErrorDot_ReferenceTooShort(t *testing.T) {
	p := pool.New()
	f := newStub(t, p, "task", 2)
	goal := newStub(t, p, "goal", 2)
	plugErrordot(goal, ir.Vector{1, 2})
	require.NoError(t, f.SetReference(goal))

	before := errordotAt(t, f, 1)
	require.Equal(t, ir.Vector{1, 2}, before)

	f.dim = 3
	_, err := f.ErrordotSOUT.Access(2)
	require.Error(t, err)
	assert.True(t, ir.IsDimensionMismatch(err))

	assert.Equal(t, ir.Time(1), f.ErrordotSOUT.Time(), "failed compute keeps the old stamp")
	assert.Equal(t, before, f.ErrordotSOUT.Value(), "failed compute keeps the old value")
}

func TestAbstract_ErrorDot_SelectionWiderThanDimension(t *testing.T) {
	p := pool.New()
	f := newStub(t, p, "task", 1)
	goal := newStub(t, p, "goal", 4)
	plugErrordot(goal, ir.Vector{1, 2, 3, 4})
	require.NoError(t, f.SetReference(goal))

	_, err := f.ErrordotSOUT.Access(1)
	require.Error(t, err)
	assert.True(t, ir.IsDimensionMismatch(err))
	assert.Equal(t, ir.NoTime, f.ErrordotSOUT.Time())
}

func TestAbstract_ErrorDot_Memoized(t *testing.T) {
	f := newStub(t, pool.New(), "task", 2)

	errordotAt(t, f, 3)
	errordotAt(t, f, 3)
	assert.Equal(t, 1, f.dimCalls, "dim is computed once per time")

	errordotAt(t, f, 4)
	assert.Equal(t, 2, f.dimCalls)
}

func TestAbstract_ErrorDot_ReadsSeeNewTimeInputs(t *testing.T) {
	p := pool.New()
	f := newStub(t, p, "task", 2)
	goal := newStub(t, p, "goal", 2)
	src := signal.NewInput[ir.Vector]("sout")
	src.Set(ir.Vector{1, 1})
	goal.ErrordotSIN.Plug(src)
	require.NoError(t, f.SetReference(goal))

	assert.Equal(t, ir.Vector{1, 1}, errordotAt(t, f, 1))
	src.Set(ir.Vector{2, 2})
	assert.Equal(t, ir.Vector{1, 1}, errordotAt(t, f, 1), "same time returns the cached value")
	assert.Equal(t, ir.Vector{2, 2}, errordotAt(t, f, 2))
}

func TestAbstract_ReferenceLifecycle(t *testing.T) {
	p := pool.New()
	f := newStub(t, p, "task", 2)
	goal := newStub(t, p, "goal", 2)
	plugErrordot(goal, ir.Vector{3, 4})

	assert.Equal(t, "none", f.ReferenceByName())

	require.NoError(t, f.SetReferenceByName("goal"))
	assert.True(t, f.IsReferenceSet())
	assert.Same(t, goal.Abstract, f.ReferenceAbstract())
	assert.Equal(t, "goal", f.ReferenceByName())

	err := f.SetReferenceByName("ghost")
	require.Error(t, err)
	assert.True(t, ir.IsUnresolvedReference(err))
	assert.Equal(t, "goal", f.ReferenceByName(), "failed set leaves the link unchanged")

	require.NoError(t, goal.Destroy())
	assert.False(t, f.IsReferenceSet(), "destroyed reference reads as unset")
	assert.Nil(t, f.ReferenceAbstract())
	assert.Equal(t, ir.Vector{0, 0}, errordotAt(t, f, 1))

	require.NoError(t, f.SetReference(nil))
	assert.Equal(t, "none", f.ReferenceByName())
}

func TestAbstract_SetReference_OtherPool(t *testing.T) {
	f := newStub(t, pool.New(), "task", 2)
	stranger := newStub(t, pool.New(), "goal", 2)

	err := f.SetReference(stranger)
	require.Error(t, err)
	assert.True(t, ir.IsUnresolvedReference(err))
	assert.False(t, f.IsReferenceSet())
}

func TestAbstract_SetReference_Self(t *testing.T) {
	f := newStub(t, pool.New(), "task", 2)
	plugErrordot(f, ir.Vector{7, 8})
	require.NoError(t, f.SetReference(f))

	assert.Equal(t, ir.Vector{7, 8}, errordotAt(t, f, 1))
}

func TestAbstract_Commands(t *testing.T) {
	p := pool.New()
	f := newStub(t, p, "task", 2)
	newStub(t, p, "goal", 2)

	out, err := f.Exec("getReference", nil)
	require.NoError(t, err)
	assert.Equal(t, "none", out)

	_, err = f.Exec("setReference", []string{"goal"})
	require.NoError(t, err)
	out, err = f.Exec("getReference", nil)
	require.NoError(t, err)
	assert.Equal(t, "goal", out)

	_, err = f.Exec("clearReference", nil)
	require.NoError(t, err)
	assert.False(t, f.IsReferenceSet())

	_, err = f.Exec("setReference", []string{"ghost"})
	assert.True(t, ir.IsUnresolvedReference(err))
}

func TestAbstract_WriteGraph(t *testing.T) {
	p := pool.New()
	f := newStub(t, p, "task", 2)
	goal := newStub(t, p, "goal", 2)

	var buf bytes.Buffer
	require.NoError(t, f.WriteGraph(&buf))
	assert.NotContains(t, buf.String(), "->")

	require.NoError(t, f.SetReference(goal))
	buf.Reset()
	require.NoError(t, f.WriteGraph(&buf))
	assert.Equal(t,
		"\t\"task\" [ label = \"task\\nFeatureStub\" , fontcolor = black, color = black, fillcolor = cyan, style = filled, shape = box ]\n"+
			"\t\"goal\" -> \"task\" [ color=darkseagreen4 ]\n",
		buf.String())
}

func TestRegister_Duplicate(t *testing.T) {
	p := pool.New()
	newStub(t, p, "task", 1)

	dup := &stubFeature{}
	dup.Abstract = NewAbstract(p, "task", "FeatureStub", dup)
	err := Register(dup)
	assert.Equal(t, ir.ErrCodeDuplicateEntity, ir.ErrorCode(err))

	_, err = p.Feature("task")
	require.NoError(t, err, "the first registration survives")
}

func TestAbstract_SetReference_TypedNilClears(t *testing.T) {
	p := pool.New()
	f := newStub(t, p, "task", 2)
	newStub(t, p, "goal", 2)
	require.NoError(t, f.SetReferenceByName("goal"))

	require.NoError(t, f.SetReference((*Generic)(nil)))
	assert.False(t, f.IsReferenceSet())

	require.NoError(t, f.SetReferenceByName("goal"))
	require.NoError(t, f.SetReference(&stubFeature{}))
	assert.Equal(t, "none", f.ReferenceByName())
}

func TestFeature_ConcreteTypesImplementFeature(t *testing.T) {
	p := pool.New()
	g, err := NewGeneric(p, "goal")
	require.NoError(t, err)
	s := newStub(t, p, "task", 2)

	assert.Implements(t, (*Feature)(nil), g)
	assert.Implements(t, (*Feature)(nil), s)
	assert.Same(t, g.Abstract, g.FeatureAbstract())

	require.NoError(t, s.SetReference(g))
	ref, ok := s.Reference().(*Generic)
	require.True(t, ok)
	assert.Same(t, g, ref)
}
