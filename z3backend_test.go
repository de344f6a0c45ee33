package smt

import "testing"

func TestZ3NaryEqualChains(t *testing.T) {
	s := NewSession(NewZ3Backend())
	intSort, err := s.IntSort()
	if err != nil {
		t.Fatal(err)
	}
	a, _ := s.Symbol("a", intSort)
	b, _ := s.Symbol("b", intSort)
	c, _ := s.Symbol("c", intSort)

	eq, err := s.MakeTerm(NewOp(Equal), a, b, c)
	if err != nil {
		t.Fatal(err)
	}
	dist, err := s.MakeTerm(NewOp(Distinct), a, c)
	if err != nil {
		t.Fatal(err)
	}
	if err := s.Assert(eq); err != nil {
		t.Fatal(err)
	}
	if err := s.Assert(dist); err != nil {
		t.Fatal(err)
	}

	r, err := s.CheckSat()
	if err != nil {
		t.Fatal(err)
	}
	if r != Unsat {
		t.Errorf("(= a b c) with (distinct a c) checked %s, want unsat", r)
	}
}

func TestZ3NaryComparisonChains(t *testing.T) {
	s := NewSession(NewZ3Backend())
	intSort, _ := s.IntSort()
	a, _ := s.Symbol("a", intSort)
	b, _ := s.Symbol("b", intSort)
	c, _ := s.Symbol("c", intSort)

	lt, err := s.MakeTerm(NewOp(Lt), a, b, c)
	if err != nil {
		t.Fatal(err)
	}
	gt, err := s.MakeTerm(NewOp(Gt), a, c)
	if err != nil {
		t.Fatal(err)
	}
	if err := s.Assert(lt); err != nil {
		t.Fatal(err)
	}
	if err := s.Assert(gt); err != nil {
		t.Fatal(err)
	}

	r, err := s.CheckSat()
	if err != nil {
		t.Fatal(err)
	}
	if r != Unsat {
		t.Errorf("(< a b c) with (> a c) checked %s, want unsat", r)
	}
}

func TestZ3Ite(t *testing.T) {
	s := NewSession(NewZ3Backend())
	boolSort, _ := s.BoolSort()
	intSort, _ := s.IntSort()
	p, _ := s.Symbol("p", boolSort)
	one, _ := s.IntVal(1, intSort)
	zero, _ := s.IntVal(0, intSort)

	ite, err := s.MakeTerm(NewOp(Ite), p, one, zero)
	if err != nil {
		t.Fatal(err)
	}
	eqZero, err := s.MakeTerm(NewOp(Equal), ite, zero)
	if err != nil {
		t.Fatal(err)
	}
	if err := s.Assert(p); err != nil {
		t.Fatal(err)
	}
	if err := s.Assert(eqZero); err != nil {
		t.Fatal(err)
	}

	r, err := s.CheckSat()
	if err != nil {
		t.Fatal(err)
	}
	if r != Unsat {
		t.Errorf("p with (= (ite p 1 0) 0) checked %s, want unsat", r)
	}
}
