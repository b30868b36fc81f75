package types

import (
	"math"
	"strconv"
)

// Number is Koto's single numeric type: internally either an int64 or a
// float64, matching spec §3 ("Number(i64|f64)") rather than the two
// unrelated numeric types a stack-machine host language might expose.
// Arithmetic between two ints stays integral; any float operand promotes
// the result to float, following spec §7's "type mismatch" rules (which
// permit int/float mixing in arithmetic, unlike equality).
type Number struct {
	isFloat bool
	i       int64
	f       float64
}

func Int(i int64) Number     { return Number{i: i} }
func Float(f float64) Number { return Number{isFloat: true, f: f} }

func (Number) Kind() Kind { return KindNumber }

func (n Number) IsFloat() bool { return n.isFloat }
func (n Number) Int() int64 {
	if n.isFloat {
		return int64(n.f)
	}
	return n.i
}
func (n Number) Float() float64 {
	if n.isFloat {
		return n.f
	}
	return float64(n.i)
}

func (n Number) Display() string {
	if n.isFloat {
		return strconv.FormatFloat(n.f, 'g', -1, 64)
	}
	return strconv.FormatInt(n.i, 10)
}

// Add/Sub/Mul/Div/Rem implement Koto's arithmetic promotion rule: integer
// arithmetic stays integral unless either operand is a float, matching
// spec §7 (div/rem by zero are float-only special cases: integer division
// by zero is a runtime error, float division by zero produces Inf/NaN, and
// integer remainder by zero is NaN per spec §9 Open Question #1).
func (n Number) Add(o Number) Number {
	if n.isFloat || o.isFloat {
		return Float(n.Float() + o.Float())
	}
	return Int(n.i + o.i)
}

func (n Number) Sub(o Number) Number {
	if n.isFloat || o.isFloat {
		return Float(n.Float() - o.Float())
	}
	return Int(n.i - o.i)
}

func (n Number) Mul(o Number) Number {
	if n.isFloat || o.isFloat {
		return Float(n.Float() * o.Float())
	}
	return Int(n.i * o.i)
}

func (n Number) Div(o Number) (Number, error) {
	if n.isFloat || o.isFloat {
		return Float(n.Float() / o.Float()), nil
	}
	if o.i == 0 {
		return Number{}, ErrDivideByZero
	}
	return Int(n.i / o.i), nil
}

// Rem implements integer/float remainder. Integer remainder by zero yields
// NaN rather than an error (spec §9 Open Question #1, deliberately odd but
// specified behavior, mirrored here without "fixing" it).
func (n Number) Rem(o Number) Number {
	if n.isFloat || o.isFloat {
		return Float(math.Mod(n.Float(), o.Float()))
	}
	if o.i == 0 {
		return Float(math.NaN())
	}
	return Int(n.i % o.i)
}

func (n Number) Neg() Number {
	if n.isFloat {
		return Float(-n.f)
	}
	return Int(-n.i)
}

func (n Number) Cmp(o Number) int {
	if n.isFloat || o.isFloat {
		a, b := n.Float(), o.Float()
		switch {
		case a < b:
			return -1
		case a > b:
			return 1
		default:
			return 0
		}
	}
	switch {
	case n.i < o.i:
		return -1
	case n.i > o.i:
		return 1
	default:
		return 0
	}
}

func (n Number) Equal(o Number) bool {
	if n.isFloat || o.isFloat {
		return n.Float() == o.Float()
	}
	return n.i == o.i
}
