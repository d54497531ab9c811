package value

import (
	"github.com/cockroachdb/apd/v3"
)

// Int is the "BigInt-like Int object type" spec.md §4.3 requires binary
// arithmetic to delegate to when either operand is one, backed by
// github.com/cockroachdb/apd/v3's arbitrary-precision decimal (chosen over
// a plain big.Int so an Int can also hold the occasional oversized integer
// literal without first truncating through float64). Boxed as the Native
// payload of a Number-class instance (see ast.boxInt).
type Int struct {
	D apd.Decimal
}

var intCtx = apd.BaseContext.WithPrecision(100)

// NewInt builds an Int from a decimal string such as "123456789012345678901234".
func NewInt(s string) (*Int, error) {
	i := &Int{}
	_, _, err := apd.BaseContext.SetString(&i.D, s)
	return i, err
}

// NewIntFromFloat truncates f towards zero, matching ECMAScript's
// ToIntegerOrInfinity semantics closely enough for this engine's purposes.
func NewIntFromFloat(f float64) *Int {
	i := &Int{}
	_, _ = i.D.SetFloat64(f) // apd only errors on NaN/Inf; caller is expected to guard those
	return i
}

func (i *Int) String() string { return i.D.String() }

func (i *Int) Add(other *Int) *Int {
	r := &Int{}
	_, _ = intCtx.Add(&r.D, &i.D, &other.D)
	return r
}

func (i *Int) Sub(other *Int) *Int {
	r := &Int{}
	_, _ = intCtx.Sub(&r.D, &i.D, &other.D)
	return r
}

func (i *Int) Mul(other *Int) *Int {
	r := &Int{}
	_, _ = intCtx.Mul(&r.D, &i.D, &other.D)
	return r
}

func (i *Int) Quo(other *Int) *Int {
	r := &Int{}
	_, _ = intCtx.QuoInteger(&r.D, &i.D, &other.D)
	return r
}

func (i *Int) Rem(other *Int) *Int {
	r := &Int{}
	_, _ = intCtx.Rem(&r.D, &i.D, &other.D)
	return r
}

// Cmp returns -1, 0 or +1 as i is less than, equal to, or greater than other.
func (i *Int) Cmp(other *Int) int {
	return i.D.Cmp(&other.D)
}

func (i *Int) Float64() float64 {
	f, _ := i.D.Float64()
	return f
}
