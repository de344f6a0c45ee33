package smt

import (
	"errors"
	"testing"
)

func TestArityGate(t *testing.T) {
	c := NewSortChecker()

	min, max, err := c.Arity(Not)
	if err != nil || min != 1 || max != 1 {
		t.Errorf("Arity(not) = (%d, %d, %v)", min, max, err)
	}

	ok, err := c.CheckSorts(NewOp(Not), []Sort{BoolSort(), BoolSort()})
	if err != nil || ok {
		t.Errorf("not over two arguments = (%v, %v), want false", ok, err)
	}
	ok, err = c.CheckSorts(NewOp(And), []Sort{BoolSort()})
	if err != nil || ok {
		t.Errorf("and over one argument = (%v, %v), want false", ok, err)
	}
	ok, err = c.CheckSorts(NewOp(And), []Sort{BoolSort(), BoolSort(), BoolSort(), BoolSort()})
	if err != nil || !ok {
		t.Errorf("variadic and = (%v, %v), want true", ok, err)
	}

	if _, _, err := c.Arity(PrimOp(numPrimOps) + 7); !errors.Is(err, ErrUnsupported) {
		t.Errorf("undeclared operator should be unsupported, got %v", err)
	}
	if _, err := c.CheckSorts(Op{Prim: PrimOp(numPrimOps) + 7}, []Sort{BoolSort()}); !errors.Is(err, ErrUnsupported) {
		t.Errorf("undeclared operator should be unsupported, got %v", err)
	}
}

func TestShapeChecks(t *testing.T) {
	c := NewSortChecker()
	b := BoolSort()
	w4 := BVSort(4)
	a := ArraySort(w4, w4)

	cases := []struct {
		name  string
		op    Op
		sorts []Sort
		want  bool
	}{
		{"ite bool cond", NewOp(Ite), []Sort{b, w4, w4}, true},
		{"ite bv cond", NewOp(Ite), []Sort{w4, w4, w4}, false},
		{"ite branch mismatch", NewOp(Ite), []Sort{b, w4, b}, false},
		{"select", NewOp(Select), []Sort{a, w4}, true},
		{"select wrong index", NewOp(Select), []Sort{a, BVSort(8)}, false},
		{"select non-array", NewOp(Select), []Sort{w4, w4}, false},
		{"store", NewOp(Store), []Sort{a, w4, w4}, true},
		{"store wrong value", NewOp(Store), []Sort{a, w4, b}, false},
		{"apply", NewOp(Apply), []Sort{FunSort([]Sort{w4}, b), w4}, true},
		{"apply wrong arg", NewOp(Apply), []Sort{FunSort([]Sort{w4}, b), b}, false},
		{"apply non-function", NewOp(Apply), []Sort{w4, w4}, false},
		{"bvadd", NewOp(BVAdd), []Sort{w4, w4}, true},
		{"bvadd width mismatch", NewOp(BVAdd), []Sort{w4, BVSort(8)}, false},
		{"concat mixed widths", NewOp(Concat), []Sort{w4, BVSort(8)}, true},
		{"plus ints", NewOp(Plus), []Sort{IntSort(), IntSort()}, true},
		{"plus mixed", NewOp(Plus), []Sort{IntSort(), RealSort()}, false},
		{"to_real", NewOp(ToReal), []Sort{IntSort()}, true},
		{"to_int", NewOp(ToInt), []Sort{RealSort()}, true},
		{"equal bools", NewOp(Equal), []Sort{b, b}, true},
		{"equal bitvectors", NewOp(Equal), []Sort{w4, w4}, false},
	}
	for _, tc := range cases {
		ok, err := c.CheckSorts(tc.op, tc.sorts)
		if err != nil {
			t.Errorf("%s: %v", tc.name, err)
			continue
		}
		if ok != tc.want {
			t.Errorf("%s: verdict %v, want %v", tc.name, ok, tc.want)
		}
	}
}

func TestComputeSort(t *testing.T) {
	c := NewSortChecker()
	w4 := BVSort(4)
	a := ArraySort(w4, w4)

	cases := []struct {
		name  string
		op    Op
		sorts []Sort
		want  Sort
	}{
		{"store keeps array sort", NewOp(Store), []Sort{a, w4, w4}, a},
		{"select yields element", NewOp(Select), []Sort{a, w4}, w4},
		{"bvult is boolean", NewOp(BVUlt), []Sort{w4, w4}, BoolSort()},
		{"ite takes branch sort", NewOp(Ite), []Sort{BoolSort(), w4, w4}, w4},
		{"concat sums widths", NewOp(Concat), []Sort{w4, BVSort(8), BVSort(4)}, BVSort(16)},
		{"extract", NewOp(Extract, 3, 1), []Sort{BVSort(8)}, BVSort(3)},
		{"zero_extend", NewOp(ZeroExtend, 4), []Sort{w4}, BVSort(8)},
		{"repeat", NewOp(Repeat, 3), []Sort{w4}, BVSort(12)},
		{"rotate_left", NewOp(RotateLeft, 2), []Sort{w4}, w4},
		{"bvcomp", NewOp(BVComp), []Sort{w4, w4}, BVSort(1)},
		{"int2bv", NewOp(IntToBV, 8), []Sort{IntSort()}, BVSort(8)},
		{"to_real", NewOp(ToReal), []Sort{IntSort()}, RealSort()},
		{"bv2nat", NewOp(BVToNat), []Sort{w4}, IntSort()},
		{"apply yields codomain", NewOp(Apply), []Sort{FunSort([]Sort{w4}, BoolSort()), w4}, BoolSort()},
	}
	for _, tc := range cases {
		got, err := c.ComputeSort(tc.op, tc.sorts)
		if err != nil {
			t.Errorf("%s: %v", tc.name, err)
			continue
		}
		if !got.Equal(tc.want) {
			t.Errorf("%s: sort %s, want %s", tc.name, got, tc.want)
		}
	}

	if _, err := c.ComputeSort(NewOp(Extract, 7, 0), []Sort{w4}); !errors.Is(err, ErrIncorrectUsage) {
		t.Errorf("extract beyond width should fail, got %v", err)
	}
	if _, err := c.ComputeSort(NewOp(Extract, 0, 3), []Sort{BVSort(8)}); !errors.Is(err, ErrIncorrectUsage) {
		t.Errorf("inverted extract bounds should fail, got %v", err)
	}
	if _, err := c.ComputeSort(NewOp(Repeat, 0), []Sort{w4}); !errors.Is(err, ErrIncorrectUsage) {
		t.Errorf("repeat of zero should fail, got %v", err)
	}
	if _, err := c.ComputeSort(NewOp(RotateLeft), []Sort{w4}); !errors.Is(err, ErrIncorrectUsage) {
		t.Errorf("rotate without a parameter should fail, got %v", err)
	}
	if _, err := c.ComputeSort(NewOp(RotateRight, -1), []Sort{w4}); !errors.Is(err, ErrIncorrectUsage) {
		t.Errorf("negative rotate should fail, got %v", err)
	}
}

func TestRotateNeedsParameter(t *testing.T) {
	s := NewSession(newMockBackend())
	bv4, _ := s.BVSort(4)
	x, _ := s.Symbol("x", bv4)

	if _, err := s.MakeTerm(NewOp(RotateLeft), x); !errors.Is(err, ErrIncorrectUsage) {
		t.Errorf("rotate without a parameter should be a usage failure, got %v", err)
	}
	rot, err := s.MakeTerm(NewOp(RotateRight, 1), x)
	if err != nil {
		t.Fatal(err)
	}
	if !rot.Sort().Equal(bv4) {
		t.Errorf("rotate sort = %s, want %s", rot.Sort(), bv4)
	}
}

func TestStoreSelectScenario(t *testing.T) {
	s := NewSession(newMockBackend())
	bv4, _ := s.BVSort(4)
	arrSort, _ := s.ArraySort(bv4, bv4)

	arr, _ := s.Symbol("a", arrSort)
	idx, _ := s.IntVal(2, bv4)
	val, _ := s.IntVal(9, bv4)

	stored, err := s.MakeTerm(NewOp(Store), arr, idx, val)
	if err != nil {
		t.Fatal(err)
	}
	if !stored.Sort().Equal(arrSort) {
		t.Errorf("store sort = %s, want %s", stored.Sort(), arrSort)
	}

	read, err := s.MakeTerm(NewOp(Select), stored, idx)
	if err != nil {
		t.Fatal(err)
	}
	if !read.Sort().Equal(bv4) {
		t.Errorf("select sort = %s, want %s", read.Sort(), bv4)
	}

	eq, err := s.MakeTerm(NewOp(Equal), read, val)
	if err != nil {
		t.Fatal(err)
	}
	if eq.Sort().Kind() != BOOL {
		t.Errorf("equality sort = %s, want Bool", eq.Sort())
	}
}
