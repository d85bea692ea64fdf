package store

import (
	"fmt"
	"strings"

	"github.com/roach88/sigflow/internal/ir"
)

// Predicate filters sample rows.
//
// This is a sealed interface - only types in this package implement it.
// Predicates compile to parameterized SQL; values are never interpolated.
type Predicate interface {
	predicateNode()
}

// Columns a predicate may reference.
const (
	ColumnRunToken  = "run_token"
	ColumnTime      = "time"
	ColumnSignal    = "signal"
	ColumnErrorCode = "error_code"
)

var sampleColumns = map[string]bool{
	ColumnRunToken:  true,
	ColumnTime:      true,
	ColumnSignal:    true,
	ColumnErrorCode: true,
}

// Equals matches rows where Column = Value.
type Equals struct {
	Column string
	Value  any
}

// AtLeast matches rows where Column >= Value.
type AtLeast struct {
	Column string
	Value  any
}

// AtMost matches rows where Column <= Value.
type AtMost struct {
	Column string
	Value  any
}

// NotEmpty matches rows where Column is a non-empty string.
type NotEmpty struct {
	Column string
}

// And matches rows satisfying every predicate. An empty And matches all.
type And struct {
	Predicates []Predicate
}

func (Equals) predicateNode()   {}
func (AtLeast) predicateNode()  {}
func (AtMost) predicateNode()   {}
func (NotEmpty) predicateNode() {}
func (And) predicateNode()      {}

// SampleFilter selects samples of one run.
type SampleFilter struct {
	Run        string
	Signal     string   // empty: every signal
	From       *ir.Time // inclusive lower bound
	To         *ir.Time // inclusive upper bound
	FailedOnly bool
}

// Predicate builds the predicate the filter stands for.
func (f SampleFilter) Predicate() Predicate {
	preds := []Predicate{Equals{Column: ColumnRunToken, Value: f.Run}}
	if f.Signal != "" {
		preds = append(preds, Equals{Column: ColumnSignal, Value: f.Signal})
	}
	if f.From != nil {
		preds = append(preds, AtLeast{Column: ColumnTime, Value: int64(*f.From)})
	}
	if f.To != nil {
		preds = append(preds, AtMost{Column: ColumnTime, Value: int64(*f.To)})
	}
	if f.FailedOnly {
		preds = append(preds, NotEmpty{Column: ColumnErrorCode})
	}
	return And{Predicates: preds}
}

// compileSampleQuery returns the SELECT for p with its parameters.
//
// Every query is ordered by time then insertion, so reads are
// deterministic.
func compileSampleQuery(p Predicate) (string, []any, error) {
	where, params, err := compilePredicate(p)
	if err != nil {
		return "", nil, err
	}
	q := "SELECT run_token, time, signal, value, error_code FROM samples WHERE " +
		where + " ORDER BY time ASC, id ASC"
	return q, params, nil
}

func compilePredicate(p Predicate) (string, []any, error) {
	switch pred := p.(type) {
	case nil:
		return "1 = 1", nil, nil
	case Equals:
		return compileComparison(pred.Column, "=", pred.Value)
	case AtLeast:
		return compileComparison(pred.Column, ">=", pred.Value)
	case AtMost:
		return compileComparison(pred.Column, "<=", pred.Value)
	case NotEmpty:
		if err := checkColumn(pred.Column); err != nil {
			return "", nil, err
		}
		return pred.Column + " != ''", nil, nil
	case And:
		if len(pred.Predicates) == 0 {
			return "1 = 1", nil, nil // vacuous truth
		}
		var parts []string
		var params []any
		for _, sub := range pred.Predicates {
			sql, subParams, err := compilePredicate(sub)
			if err != nil {
				return "", nil, err
			}
			parts = append(parts, sql)
			params = append(params, subParams...)
		}
		return strings.Join(parts, " AND "), params, nil
	default:
		return "", nil, fmt.Errorf("unsupported predicate type: %T", p)
	}
}

func compileComparison(column, op string, value any) (string, []any, error) {
	if err := checkColumn(column); err != nil {
		return "", nil, err
	}
	if value == nil {
		return "", nil, fmt.Errorf("%s %s: nil value", column, op)
	}
	return fmt.Sprintf("%s %s ?", column, op), []any{value}, nil
}

func checkColumn(column string) error {
	if !sampleColumns[column] {
		return fmt.Errorf("unknown sample column %q", column)
	}
	return nil
}
