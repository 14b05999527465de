package funcs

import (
	"math"
	"testing"

	"github.com/go-fhirpath/fhirpath/pkg/fhirpath/eval"
	"github.com/go-fhirpath/fhirpath/pkg/fhirpath/types"
)

func callMath(t *testing.T, ctx *eval.Context, name string, input types.Collection, args ...interface{}) types.Collection {
	t.Helper()
	fn, ok := Get(name)
	if !ok {
		t.Fatalf("function %q not registered", name)
	}
	result, err := fn.Fn(ctx, input, args)
	if err != nil {
		t.Fatalf("%s: unexpected error: %v", name, err)
	}
	return result
}

func wantFloat(t *testing.T, result types.Collection, want float64, tolerance float64) {
	t.Helper()
	if len(result) != 1 {
		t.Fatalf("expected one result, got %d", len(result))
	}
	var got float64
	switch v := result[0].(type) {
	case types.Decimal:
		got = v.Value().InexactFloat64()
	case types.Integer:
		got = float64(v.Value())
	default:
		t.Fatalf("expected numeric result, got %T", result[0])
	}
	if math.Abs(got-want) > tolerance {
		t.Errorf("got %v, want %v", got, want)
	}
}

func TestUnaryMathFunctions(t *testing.T) {
	ctx := eval.NewContext([]byte(`{}`))

	cases := []struct {
		fn    string
		input types.Value
		want  float64
	}{
		{"abs", types.NewInteger(-5), 5},
		{"abs", types.NewInteger(5), 5},
		{"abs", types.NewDecimalFromFloat(-3.14), 3.14},
		{"ceiling", types.NewDecimalFromFloat(1.5), 2},
		{"ceiling", types.NewInteger(5), 5},
		{"floor", types.NewDecimalFromFloat(1.8), 1},
		{"floor", types.NewInteger(5), 5},
		{"truncate", types.NewDecimalFromFloat(3.9), 3},
		{"truncate", types.NewInteger(5), 5},
		{"sqrt", types.NewInteger(16), 4},
		{"sqrt", types.NewDecimalFromFloat(4.0), 2},
		{"ln", types.NewInteger(1), 0},
		{"ln", types.NewDecimalFromFloat(math.E), 1},
		{"exp", types.NewInteger(0), 1},
		{"exp", types.NewDecimalFromFloat(1.0), math.E},
	}

	for _, tc := range cases {
		t.Run(tc.fn, func(t *testing.T) {
			result := callMath(t, ctx, tc.fn, types.Collection{tc.input})
			wantFloat(t, result, tc.want, 0.0001)
		})
	}

	t.Run("sqrt of negative is empty", func(t *testing.T) {
		result := callMath(t, ctx, "sqrt", types.Collection{types.NewInteger(-1)})
		if !result.Empty() {
			t.Error("expected empty for sqrt of a negative number")
		}
	})

	t.Run("empty input propagates for every unary function", func(t *testing.T) {
		for _, fn := range []string{"abs", "ceiling", "floor", "truncate", "sqrt", "ln", "exp"} {
			result := callMath(t, ctx, fn, types.Collection{})
			if !result.Empty() {
				t.Errorf("%s: expected empty result for empty input", fn)
			}
		}
	})
}

func TestPowerAndLog(t *testing.T) {
	ctx := eval.NewContext([]byte(`{}`))

	t.Run("power with integer exponent", func(t *testing.T) {
		result := callMath(t, ctx, "power", types.Collection{types.NewInteger(2)}, types.Collection{types.NewInteger(8)})
		wantFloat(t, result, 256, 0.0001)
	})

	t.Run("power with decimal operands", func(t *testing.T) {
		result := callMath(t, ctx, "power",
			types.Collection{types.NewDecimalFromFloat(2.0)},
			types.Collection{types.NewDecimalFromFloat(3.0)})
		wantFloat(t, result, 8, 0.0001)
	})

	t.Run("power of empty input is empty", func(t *testing.T) {
		result := callMath(t, ctx, "power", types.Collection{}, types.Collection{types.NewInteger(2)})
		if !result.Empty() {
			t.Error("expected empty")
		}
	})

	t.Run("log base 10", func(t *testing.T) {
		result := callMath(t, ctx, "log", types.Collection{types.NewInteger(100)}, types.Collection{types.NewInteger(10)})
		wantFloat(t, result, 2, 0.0001)

		result = callMath(t, ctx, "log", types.Collection{types.NewDecimalFromFloat(1000.0)}, types.Collection{types.NewDecimalFromFloat(10.0)})
		wantFloat(t, result, 3, 0.0001)
	})

	t.Run("log of empty input is empty", func(t *testing.T) {
		result := callMath(t, ctx, "log", types.Collection{}, types.Collection{types.NewInteger(10)})
		if !result.Empty() {
			t.Error("expected empty")
		}
	})
}

func TestRound(t *testing.T) {
	ctx := eval.NewContext([]byte(`{}`))

	t.Run("rounds to given precision", func(t *testing.T) {
		result := callMath(t, ctx, "round", types.Collection{types.NewDecimalFromFloat(3.14159)}, types.Collection{types.NewInteger(2)})
		wantFloat(t, result, 3.14, 0.001)
	})

	t.Run("defaults to nearest integer without a precision argument", func(t *testing.T) {
		result := callMath(t, ctx, "round", types.Collection{types.NewDecimalFromFloat(3.7)})
		wantFloat(t, result, 4.0, 0.0001)
	})

	t.Run("empty input is empty", func(t *testing.T) {
		result := callMath(t, ctx, "round", types.Collection{})
		if !result.Empty() {
			t.Error("expected empty")
		}
	})
}

func TestAggregateFunctions(t *testing.T) {
	ctx := eval.NewContext([]byte(`{}`))

	t.Run("sum of integers", func(t *testing.T) {
		result := callMath(t, ctx, "sum", types.Collection{types.NewInteger(1), types.NewInteger(2), types.NewInteger(3)})
		wantFloat(t, result, 6, 0)
		if _, isInt := result[0].(types.Integer); !isInt {
			t.Error("sum of all-integer input should stay Integer")
		}
	})

	t.Run("sum widens to decimal once any operand is decimal", func(t *testing.T) {
		result := callMath(t, ctx, "sum", types.Collection{types.NewInteger(1), types.NewDecimalFromFloat(2.5)})
		wantFloat(t, result, 3.5, 0.0001)
		if _, isDec := result[0].(types.Decimal); !isDec {
			t.Error("expected Decimal once a Decimal operand is present")
		}
	})

	t.Run("sum of empty is empty", func(t *testing.T) {
		result := callMath(t, ctx, "sum", types.Collection{})
		if !result.Empty() {
			t.Error("expected empty")
		}
	})

	t.Run("avg of integers", func(t *testing.T) {
		result := callMath(t, ctx, "avg", types.Collection{types.NewInteger(2), types.NewInteger(4), types.NewInteger(6)})
		wantFloat(t, result, 4, 0.0001)
	})

	t.Run("min of integers", func(t *testing.T) {
		result := callMath(t, ctx, "min", types.Collection{types.NewInteger(5), types.NewInteger(1), types.NewInteger(9)})
		wantFloat(t, result, 1, 0)
	})

	t.Run("max of integers", func(t *testing.T) {
		result := callMath(t, ctx, "max", types.Collection{types.NewInteger(5), types.NewInteger(1), types.NewInteger(9)})
		wantFloat(t, result, 9, 0)
	})

	t.Run("min/max of strings order lexically", func(t *testing.T) {
		input := types.Collection{types.NewString("banana"), types.NewString("apple"), types.NewString("cherry")}
		min := callMath(t, ctx, "min", input)
		if min[0].(types.String).Value() != "apple" {
			t.Errorf("expected apple, got %v", min[0])
		}
		max := callMath(t, ctx, "max", input)
		if max[0].(types.String).Value() != "cherry" {
			t.Errorf("expected cherry, got %v", max[0])
		}
	})

	t.Run("min/max of a wholly unsupported type is empty", func(t *testing.T) {
		input := types.Collection{types.NewBoolean(true), types.NewBoolean(false)}
		if !callMath(t, ctx, "min", input).Empty() {
			t.Error("expected empty for min over Booleans")
		}
		if !callMath(t, ctx, "max", input).Empty() {
			t.Error("expected empty for max over Booleans")
		}
	})

	t.Run("min/max ignore a mismatched-but-individually-orderable element", func(t *testing.T) {
		// A String mixed among Integers can't be compared against them, so it
		// is skipped rather than aborting the whole computation.
		input := types.Collection{types.NewInteger(5), types.NewString("x"), types.NewInteger(1)}
		min := callMath(t, ctx, "min", input)
		if len(min) != 1 || min[0].(types.Integer).Value() != 1 {
			t.Errorf("expected 1, got %v", min)
		}
	})

	for _, name := range []string{"sum", "avg", "min", "max"} {
		name := name
		t.Run(name+" of empty is empty", func(t *testing.T) {
			result := callMath(t, ctx, name, types.Collection{})
			if !result.Empty() {
				t.Errorf("expected empty")
			}
		})
	}
}
