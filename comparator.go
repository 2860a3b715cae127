package changeset

import (
	"errors"
	"fmt"

	"github.com/spf13/cast"
)

// Comparator is a binary numeric predicate used by Length. The zero value is
// not a comparator.
type Comparator uint8

const (
	OpEq Comparator = iota + 1
	OpNeq
	OpGt
	OpGte
	OpLt
	OpLte
)

var comparatorInfo = [...]struct{ name, symbol string }{
	OpEq:  {"eq", "=="},
	OpNeq: {"neq", "!="},
	OpGt:  {"gt", ">"},
	OpGte: {"gte", ">="},
	OpLt:  {"lt", "<"},
	OpLte: {"lte", "<="},
}

// comparatorsByName resolves both names and symbols.
var comparatorsByName = func() map[string]Comparator {
	m := make(map[string]Comparator, 2*len(comparatorInfo))
	for _, c := range Comparators() {
		m[comparatorInfo[c].name] = c
		m[comparatorInfo[c].symbol] = c
	}
	return m
}()

// Comparators returns every comparator in declaration order.
func Comparators() []Comparator {
	return []Comparator{OpEq, OpNeq, OpGt, OpGte, OpLt, OpLte}
}

// ParseComparator resolves a name ("gte") or symbol (">=").
func ParseComparator(name string) (Comparator, error) {
	if c, ok := comparatorsByName[name]; ok {
		return c, nil
	}
	return 0, &ConfigError{Op: "ParseComparator", Name: name, Err: ErrUnknownComparator}
}

// Valid reports whether c is one of the declared comparators.
func (c Comparator) Valid() bool { return c >= OpEq && c <= OpLte }

// String returns the canonical name, e.g. "gte".
func (c Comparator) String() string {
	if !c.Valid() {
		return fmt.Sprintf("Comparator(%d)", uint8(c))
	}
	return comparatorInfo[c].name
}

// Symbol returns the symbolic alias, e.g. ">=".
func (c Comparator) Symbol() string {
	if !c.Valid() {
		return ""
	}
	return comparatorInfo[c].symbol
}

// Compare evaluates a <c> b. Comparisons involving NaN are false except OpNeq.
func (c Comparator) Compare(a, b float64) bool {
	switch c {
	case OpEq:
		return a == b
	case OpNeq:
		return a != b
	case OpGt:
		return a > b
	case OpGte:
		return a >= b
	case OpLt:
		return a < b
	case OpLte:
		return a <= b
	default:
		return false
	}
}

// Number is the set of types accepted by the typed bound constructors.
type Number interface {
	~int | ~int8 | ~int16 | ~int32 | ~int64 |
		~uint | ~uint8 | ~uint16 | ~uint32 | ~uint64 |
		~float32 | ~float64
}

// Bound pairs a comparator with a threshold. Name is the operator name as it
// was supplied and is reported in error values together with the threshold.
type Bound struct {
	name      string
	op        Comparator
	threshold any
	limit     float64
}

func newBound[N Number](op Comparator, n N) Bound {
	return Bound{name: op.String(), op: op, threshold: n, limit: float64(n)}
}

// Eq requires length == n.
func Eq[N Number](n N) Bound { return newBound(OpEq, n) }

// Neq requires length != n.
func Neq[N Number](n N) Bound { return newBound(OpNeq, n) }

// Gt requires length > n.
func Gt[N Number](n N) Bound { return newBound(OpGt, n) }

// Gte requires length >= n.
func Gte[N Number](n N) Bound { return newBound(OpGte, n) }

// Lt requires length < n.
func Lt[N Number](n N) Bound { return newBound(OpLt, n) }

// Lte requires length <= n.
func Lte[N Number](n N) Bound { return newBound(OpLte, n) }

// ParseBound builds a Bound from an operator name or symbol and a numeric
// threshold. Unknown operators and non-numeric thresholds are configuration
// errors.
func ParseBound(name string, threshold any) (Bound, error) {
	op, err := ParseComparator(name)
	if err != nil {
		return Bound{}, &ConfigError{Op: "ParseBound", Name: name, Err: ErrUnknownComparator}
	}
	limit, err := cast.ToFloat64E(threshold)
	if err != nil {
		return Bound{}, &ConfigError{Op: "ParseBound", Name: fmt.Sprint(threshold), Err: ErrInvalidThreshold}
	}
	return Bound{name: name, op: op, threshold: threshold, limit: limit}, nil
}

// ParseBounds parses alternating name/threshold pairs, keeping their order.
//
//	bounds, err := changeset.ParseBounds("gte", 3, "lte", 20)
func ParseBounds(pairs ...any) ([]Bound, error) {
	if len(pairs)%2 != 0 {
		return nil, &ConfigError{Op: "ParseBounds", Name: fmt.Sprint(pairs...), Err: errors.New("odd number of arguments")}
	}
	out := make([]Bound, 0, len(pairs)/2)
	for i := 0; i < len(pairs); i += 2 {
		name, ok := pairs[i].(string)
		if !ok {
			return nil, &ConfigError{Op: "ParseBounds", Name: fmt.Sprint(pairs[i]), Err: ErrUnknownComparator}
		}
		b, err := ParseBound(name, pairs[i+1])
		if err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, nil
}

// MustParseBounds is ParseBounds that panics on error.
func MustParseBounds(pairs ...any) []Bound {
	b, err := ParseBounds(pairs...)
	if err != nil {
		panic(err)
	}
	return b
}

// Name returns the operator name as supplied.
func (b Bound) Name() string { return b.name }

// Comparator returns the comparator of b.
func (b Bound) Comparator() Comparator { return b.op }

// Threshold returns the threshold as supplied.
func (b Bound) Threshold() any { return b.threshold }

// Check reports whether length satisfies b.
func (b Bound) Check(length float64) bool { return b.op.Compare(length, b.limit) }

func (b Bound) String() string { return fmt.Sprintf("%s %v", b.name, b.threshold) }
