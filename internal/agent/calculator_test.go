package agent

import (
	"errors"
	"math"
	"testing"
)

func TestCalculate(t *testing.T) {
	a := &CalculatorAgent{}
	got, err := a.Calculate("(8) / (-4)")
	if err != nil {
		t.Fatal(err)
	}
	if got != -2 {
		t.Errorf("Calculate = %v, want -2", got)
	}
	if _, err := a.Calculate("2 +"); err == nil {
		t.Error("expected error for incomplete expression")
	}
}

func TestTapeEntries(t *testing.T) {
	var tape []Entry
	c := newTestCalculator(WithTape(func(e Entry) { tape = append(tape, e) }))
	press(t, c, "2 + 3 = 4 = c 8 / 0 =")

	if len(tape) != 2 {
		t.Fatalf("tape = %+v, want 2 entries", tape)
	}
	first := tape[0]
	if first.Left != 2 || first.Op != Add || first.Right != 3 || first.Result != 5 || first.Display != "5.00" {
		t.Errorf("first entry = %+v", first)
	}
	if first.Expression() != "(2) + (3)" {
		t.Errorf("Expression = %q", first.Expression())
	}
	if tape[1].Left != 5 || tape[1].Right != 4 || tape[1].Result != 9 || tape[1].Op != Add {
		t.Errorf("second entry = %+v", tape[1])
	}

	a := &CalculatorAgent{}
	for _, e := range tape {
		ok, err := a.Verify(e)
		if err != nil || !ok {
			t.Errorf("Verify(%+v) = %v, %v", e, ok, err)
		}
	}
}

func TestVerifyMismatch(t *testing.T) {
	a := &CalculatorAgent{}
	ok, err := a.Verify(Entry{Left: 1, Op: Div, Right: 3, Result: 0.3333333})
	if err != nil || !ok {
		t.Errorf("Verify rounded = %v, %v; want true", ok, err)
	}
	ok, err = a.Verify(Entry{Left: 2, Op: Sub, Right: 5, Result: 3})
	if err != nil || ok {
		t.Errorf("Verify wrong result = %v, %v; want false", ok, err)
	}
	if _, err := a.Verify(Entry{Left: 2}); err == nil {
		t.Error("Verify without operator should fail")
	}
}

func TestVerifyNonFinite(t *testing.T) {
	a := &CalculatorAgent{}
	for _, e := range []Entry{
		{Left: 1e300, Op: Mul, Right: 1e100, Result: math.Inf(1)},
		{Left: math.NaN(), Op: Add, Right: 1, Result: 1},
		{Left: 1, Op: Sub, Right: math.Inf(-1), Result: math.Inf(1)},
	} {
		ok, err := a.Verify(e)
		if ok || !errors.Is(err, ErrOverflow) {
			t.Errorf("Verify(%+v) = %v, %v; want ErrOverflow", e, ok, err)
		}
	}
}
