package smt

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestSortStructuralEquality(t *testing.T) {
	cases := []struct {
		a, b  Sort
		equal bool
	}{
		{BoolSort(), BoolSort(), true},
		{BVSort(8), BVSort(8), true},
		{BVSort(8), BVSort(16), false},
		{IntSort(), RealSort(), false},
		{ArraySort(BVSort(4), BVSort(8)), ArraySort(BVSort(4), BVSort(8)), true},
		{ArraySort(BVSort(4), BVSort(8)), ArraySort(BVSort(8), BVSort(4)), false},
		{FunSort([]Sort{IntSort()}, BoolSort()), FunSort([]Sort{IntSort()}, BoolSort()), true},
		{FunSort([]Sort{IntSort()}, BoolSort()), FunSort([]Sort{IntSort(), IntSort()}, BoolSort()), false},
		{UninterpretedSort("S", 0), UninterpretedSort("S", 0), true},
		{UninterpretedSort("S", 0), UninterpretedSort("T", 0), false},
	}
	for _, c := range cases {
		if got := c.a.Equal(c.b); got != c.equal {
			t.Errorf("(%s).Equal(%s) = %v, want %v", c.a, c.b, got, c.equal)
		}
		if c.equal && c.a.Hash() != c.b.Hash() {
			t.Errorf("equal sorts %s and %s hash differently", c.a, c.b)
		}
	}
}

func TestSortString(t *testing.T) {
	got := map[string]string{
		"bool":  BoolSort().String(),
		"bv":    BVSort(32).String(),
		"int":   IntSort().String(),
		"real":  RealSort().String(),
		"array": ArraySort(BVSort(4), BVSort(8)).String(),
		"fun":   FunSort([]Sort{IntSort(), IntSort()}, BoolSort()).String(),
		"uf":    UninterpretedSort("S", 0).String(),
	}
	want := map[string]string{
		"bool":  "Bool",
		"bv":    "(_ BitVec 32)",
		"int":   "Int",
		"real":  "Real",
		"array": "(Array (_ BitVec 4) (_ BitVec 8))",
		"fun":   "(Int Int -> Bool)",
		"uf":    "S",
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("sort strings mismatch (-want +got):\n%s", diff)
	}
}

func TestSortAccessors(t *testing.T) {
	arr := ArraySort(BVSort(4), BVSort(8))
	if !arr.IndexSort().Equal(BVSort(4)) || !arr.ElemSort().Equal(BVSort(8)) {
		t.Errorf("array accessors: index %s elem %s", arr.IndexSort(), arr.ElemSort())
	}

	fun := FunSort([]Sort{IntSort(), RealSort()}, BoolSort())
	if len(fun.DomainSorts()) != 2 || !fun.Codomain().Equal(BoolSort()) {
		t.Errorf("function accessors: domain %v codomain %s", fun.DomainSorts(), fun.Codomain())
	}

	defer func() {
		if recover() == nil {
			t.Error("IndexSort on non-array should panic")
		}
	}()
	_ = BoolSort().IndexSort()
}

func TestApplyUninterpretedSort(t *testing.T) {
	cons := UninterpretedSort("Pair", 2)
	if cons.Kind() != UNINTERPRETED_CONS || cons.Arity() != 2 {
		t.Fatalf("constructor = %s, kind %s arity %d", cons, cons.Kind(), cons.Arity())
	}

	applied, err := ApplyUninterpretedSort(cons, IntSort(), BoolSort())
	if err != nil {
		t.Fatal(err)
	}
	if applied.Kind() != UNINTERPRETED || len(applied.ParamSorts()) != 2 {
		t.Errorf("applied = %s", applied)
	}

	if _, err := ApplyUninterpretedSort(cons, IntSort()); err == nil {
		t.Error("arity mismatch should fail")
	}
	if _, err := ApplyUninterpretedSort(BoolSort(), IntSort()); err == nil {
		t.Error("applying a non-constructor should fail")
	}
}

func TestOpString(t *testing.T) {
	if got := NewOp(BVAdd).String(); got != "bvadd" {
		t.Errorf("op string = %q", got)
	}
	if got := NewOp(Extract, 3, 0).String(); got != "(_ extract 3 0)" {
		t.Errorf("indexed op string = %q", got)
	}
	if !nullOp.IsNull() || NewOp(And).IsNull() {
		t.Error("null-op predicate is wrong")
	}
}
