package smt

// SortChecker decides whether an operator application is well-sorted
// and computes the canonical result sort, without invoking any backend.
// It is a verdict oracle: a failed shape check is reported as false,
// never as an error. The only errors are for operators the dispatch does
// not cover, which is an unsupported-feature condition.
type SortChecker struct {
	arities map[PrimOp]opArity
}

// NewSortChecker builds a checker with its arity table. The table is
// immutable configuration; the shape and result computations dispatch
// exhaustively over the closed PrimOp set.
func NewSortChecker() *SortChecker {
	return &SortChecker{arities: newArityTable()}
}

func newArityTable() map[PrimOp]opArity {
	return map[PrimOp]opArity{
		And:      {2, maxArity},
		Or:       {2, maxArity},
		Xor:      {2, maxArity},
		Not:      {1, 1},
		Implies:  {2, maxArity},
		Iff:      {2, maxArity},
		Ite:      {3, 3},
		Equal:    {2, maxArity},
		Distinct: {2, maxArity},
		Apply:    {2, maxArity},

		Plus:   {2, maxArity},
		Minus:  {2, maxArity},
		Negate: {1, 1},
		Mult:   {2, maxArity},
		Div:    {2, maxArity},
		Lt:     {2, maxArity},
		Le:     {2, maxArity},
		Gt:     {2, maxArity},
		Ge:     {2, maxArity},
		Mod:    {2, 2},
		Abs:    {1, 1},
		Pow:    {2, 2},
		IntDiv: {2, maxArity},
		ToReal: {1, 1},
		ToInt:  {1, 1},
		IsInt:  {1, 1},

		Concat:      {2, maxArity},
		Extract:     {1, 1},
		BVNot:       {1, 1},
		BVNeg:       {1, 1},
		BVAnd:       {2, maxArity},
		BVOr:        {2, maxArity},
		BVXor:       {2, maxArity},
		BVNand:      {2, 2},
		BVNor:       {2, 2},
		BVXnor:      {2, 2},
		BVAdd:       {2, maxArity},
		BVSub:       {2, 2},
		BVMul:       {2, maxArity},
		BVUdiv:      {2, 2},
		BVSdiv:      {2, 2},
		BVUrem:      {2, 2},
		BVSrem:      {2, 2},
		BVSmod:      {2, 2},
		BVShl:       {2, 2},
		BVAshr:      {2, 2},
		BVLshr:      {2, 2},
		BVComp:      {2, 2},
		BVUlt:       {2, 2},
		BVUle:       {2, 2},
		BVUgt:       {2, 2},
		BVUge:       {2, 2},
		BVSlt:       {2, 2},
		BVSle:       {2, 2},
		BVSgt:       {2, 2},
		BVSge:       {2, 2},
		ZeroExtend:  {1, 1},
		SignExtend:  {1, 1},
		Repeat:      {1, 1},
		RotateLeft:  {1, 1},
		RotateRight: {1, 1},
		BVToNat:     {1, 1},
		IntToBV:     {1, 1},

		Select: {2, 2},
		Store:  {3, 3},
	}
}

// Arity returns the declared (min, max) argument count of a primitive.
func (c *SortChecker) Arity(p PrimOp) (min, max int, err error) {
	a, ok := c.arities[p]
	if !ok {
		return 0, 0, unsupportedf("no declared arity for operator %s", p)
	}
	return a.min, a.max, nil
}

// CheckSortedness reports whether applying op to terms with the given
// argument sorts is well-sorted. The verdict is a pure precondition:
// the construction layer decides what an unmet verdict becomes.
func (c *SortChecker) CheckSortedness(op Op, args []*Term) (bool, error) {
	return c.CheckSorts(op, termSorts(args))
}

// CheckSorts is CheckSortedness over bare argument sorts.
func (c *SortChecker) CheckSorts(op Op, sorts []Sort) (bool, error) {
	a, ok := c.arities[op.Prim]
	if !ok {
		return false, unsupportedf("no declared arity for operator %s", op.Prim)
	}
	if len(sorts) < a.min || len(sorts) > a.max {
		return false, nil
	}

	switch op.Prim {
	case And, Or, Xor, Not, Implies, Iff, Equal, Distinct, Lt, Le, Gt, Ge:
		return allKind(sorts, BOOL), nil

	case Ite:
		return sorts[0].Kind() == BOOL && sorts[1].Equal(sorts[2]), nil

	case Apply:
		return checkApplySorts(sorts), nil

	case Plus, Minus, Negate, Mult, Div:
		return allKind(sorts, INT) || allKind(sorts, REAL), nil

	case Mod, Abs, Pow, IntDiv, ToReal, IsInt, IntToBV:
		return allKind(sorts, INT), nil

	case ToInt:
		return allKind(sorts, REAL), nil

	case Concat, Extract, BVNot, BVNeg,
		ZeroExtend, SignExtend, Repeat, RotateLeft, RotateRight, BVToNat:
		return allKind(sorts, BV), nil

	case BVAnd, BVOr, BVXor, BVNand, BVNor, BVXnor,
		BVAdd, BVSub, BVMul, BVUdiv, BVSdiv, BVUrem, BVSrem, BVSmod,
		BVShl, BVAshr, BVLshr, BVComp,
		BVUlt, BVUle, BVUgt, BVUge, BVSlt, BVSle, BVSgt, BVSge:
		return allKind(sorts, BV) && sameSorts(sorts), nil

	case Select:
		return checkSelectSorts(sorts), nil

	case Store:
		return checkStoreSorts(sorts), nil
	}

	return false, unsupportedf("sort checking for operator %s is not implemented", op.Prim)
}

// ComputeSort derives the canonical result sort of a well-sorted
// application. It mirrors the shape dispatch structurally: callers are
// expected to have obtained (or deliberately relaxed) the verdict first.
func (c *SortChecker) ComputeSort(op Op, sorts []Sort) (Sort, error) {
	switch op.Prim {
	case And, Or, Xor, Not, Implies, Iff, Equal, Distinct,
		Lt, Le, Gt, Ge, IsInt,
		BVUlt, BVUle, BVUgt, BVUge, BVSlt, BVSle, BVSgt, BVSge:
		return BoolSort(), nil

	case Ite:
		return sorts[1], nil

	case Apply:
		return sorts[0].Codomain(), nil

	case Plus, Minus, Negate, Mult, Div, Mod, Abs, Pow, IntDiv,
		BVNot, BVNeg,
		BVAnd, BVOr, BVXor, BVNand, BVNor, BVXnor,
		BVAdd, BVSub, BVMul, BVUdiv, BVSdiv, BVUrem, BVSrem, BVSmod,
		BVShl, BVAshr, BVLshr:
		return sorts[0], nil

	case RotateLeft, RotateRight:
		if len(op.Idx) != 1 || op.Idx[0] < 0 {
			return Sort{}, usagef("rotation %s needs a non-negative parameter", op)
		}
		return sorts[0], nil

	case ToReal:
		return RealSort(), nil

	case ToInt, BVToNat:
		return IntSort(), nil

	case Concat:
		width := uint64(0)
		for _, s := range sorts {
			width += s.Width()
		}
		return BVSort(width), nil

	case Extract:
		if len(op.Idx) != 2 || op.Idx[0] < op.Idx[1] {
			return Sort{}, usagef("malformed extract bounds in %s", op)
		}
		if uint64(op.Idx[0]) >= sorts[0].Width() {
			return Sort{}, usagef("extract %s out of range for %s", op, sorts[0])
		}
		return BVSort(uint64(op.Idx[0]-op.Idx[1]) + 1), nil

	case ZeroExtend, SignExtend:
		if len(op.Idx) != 1 {
			return Sort{}, usagef("extension %s needs one parameter", op)
		}
		return BVSort(sorts[0].Width() + uint64(op.Idx[0])), nil

	case Repeat:
		if len(op.Idx) != 1 || op.Idx[0] < 1 {
			return Sort{}, usagef("repeat %s needs a positive parameter", op)
		}
		return BVSort(sorts[0].Width() * uint64(op.Idx[0])), nil

	case BVComp:
		return BVSort(1), nil

	case IntToBV:
		if len(op.Idx) != 1 || op.Idx[0] < 1 {
			return Sort{}, usagef("int2bv %s needs a positive width", op)
		}
		return BVSort(uint64(op.Idx[0])), nil

	case Select:
		return sorts[0].ElemSort(), nil

	case Store:
		return sorts[0], nil
	}

	return Sort{}, unsupportedf("result sort for operator %s is not implemented", op.Prim)
}

// helper predicates, one per shape class

func allKind(sorts []Sort, sk SortKind) bool {
	for _, s := range sorts {
		if s.Kind() != sk {
			return false
		}
	}
	return true
}

func checkApplySorts(sorts []Sort) bool {
	fun := sorts[0]
	if fun.Kind() != FUNCTION {
		return false
	}
	domain := fun.DomainSorts()
	if len(domain) != len(sorts)-1 {
		return false
	}
	for i := range domain {
		if !domain[i].Equal(sorts[i+1]) {
			return false
		}
	}
	return true
}

func checkSelectSorts(sorts []Sort) bool {
	if len(sorts) != 2 || sorts[0].Kind() != ARRAY {
		return false
	}
	return sorts[1].Equal(sorts[0].IndexSort())
}

func checkStoreSorts(sorts []Sort) bool {
	if len(sorts) != 3 || sorts[0].Kind() != ARRAY {
		return false
	}
	return sorts[1].Equal(sorts[0].IndexSort()) && sorts[2].Equal(sorts[0].ElemSort())
}
