package smt

import (
	"fmt"
	"math/big"
	"strings"

	"github.com/aclements/go-z3/z3"
)

// Z3Backend implements Backend over the go-z3 bindings. It covers the
// boolean, bitvector, integer and real theories; array sorts, function
// sorts and sort constructors are capability failures of this binding,
// not of the core layer.
type Z3Backend struct {
	ctx    *z3.Context
	cfg    *z3.Config
	solver *z3.Solver

	symbols map[string]bool
	logic   string
}

// NewZ3Backend returns a backend over a fresh Z3 context and solver.
func NewZ3Backend() *Z3Backend {
	cfg := z3.NewContextConfig()
	ctx := z3.NewContext(cfg)
	return &Z3Backend{
		ctx:     ctx,
		cfg:     cfg,
		solver:  z3.NewSolver(ctx),
		symbols: map[string]bool{},
	}
}

func (b *Z3Backend) MakeSort(kind SortKind, width uint64, subs []any) (any, SortKind, error) {
	switch kind {
	case BOOL:
		return b.ctx.BoolSort(), BOOL, nil
	case BV:
		if width == 0 {
			return nil, kind, usagef("bitvector sort needs a positive width")
		}
		return b.ctx.BVSort(int(width)), BV, nil
	case INT:
		return b.ctx.IntSort(), INT, nil
	case REAL:
		return b.ctx.RealSort(), REAL, nil
	case ARRAY, FUNCTION:
		return nil, kind, unsupportedf("%s sorts not supported by the z3 binding", kind)
	}
	return nil, kind, unsupportedf("sort kind %s not supported by the z3 binding", kind)
}

func (b *Z3Backend) DeclareSort(name string, arity uint64) (any, error) {
	if arity > 0 {
		return nil, unsupportedf("sort constructors not supported by the z3 binding")
	}
	return b.ctx.UninterpretedSort(name), nil
}

func (b *Z3Backend) ApplySortCons(cons any, params []any) (any, error) {
	return nil, unsupportedf("sort constructors not supported by the z3 binding")
}

func (b *Z3Backend) MakeBoolVal(v bool) (any, error) {
	return b.ctx.FromBool(v), nil
}

func (b *Z3Backend) MakeIntVal(v int64, sort any) (any, error) {
	return b.ctx.FromInt(v, sort.(z3.Sort)), nil
}

func (b *Z3Backend) MakeStrVal(val string, base int, sort any) (any, error) {
	z3sort := sort.(z3.Sort)
	if base == 10 && strings.ContainsAny(val, "./") {
		// real literal; go through the decimal parser
		r, ok := new(big.Rat).SetString(val)
		if !ok {
			return nil, fmt.Errorf("malformed real literal %q", val)
		}
		num := b.ctx.FromBigInt(r.Num(), z3sort)
		if r.IsInt() {
			return num, nil
		}
		den := b.ctx.FromBigInt(r.Denom(), z3sort)
		return num.(z3.Real).Div(den.(z3.Real)), nil
	}
	v, ok := new(big.Int).SetString(val, base)
	if !ok {
		return nil, fmt.Errorf("malformed base-%d literal %q", base, val)
	}
	return b.ctx.FromBigInt(v, z3sort), nil
}

func (b *Z3Backend) MakeConstArray(elem any, arrSort any) (any, error) {
	return nil, unsupportedf("constant arrays not supported by the z3 binding")
}

func (b *Z3Backend) MakeSymbol(name string, sort any) (any, error) {
	if b.symbols[name] {
		return nil, fmt.Errorf("symbol %q already declared", name)
	}
	b.symbols[name] = true
	return b.ctx.Const(name, sort.(z3.Sort)), nil
}

func (b *Z3Backend) MakeTerm(op Op, children []any) (any, error) {
	switch op.Prim {
	case And:
		res := children[0].(z3.Bool)
		for _, c := range children[1:] {
			res = res.And(c.(z3.Bool))
		}
		return res, nil
	case Or:
		res := children[0].(z3.Bool)
		for _, c := range children[1:] {
			res = res.Or(c.(z3.Bool))
		}
		return res, nil
	case Xor:
		res := children[0].(z3.Bool)
		for _, c := range children[1:] {
			res = res.Xor(c.(z3.Bool))
		}
		return res, nil
	case Not:
		return children[0].(z3.Bool).Not(), nil
	case Implies:
		res := children[len(children)-1].(z3.Bool)
		for i := len(children) - 2; i >= 0; i-- {
			res = children[i].(z3.Bool).Implies(res)
		}
		return res, nil
	case Iff, Equal:
		return b.chainEqual(children)
	case Distinct:
		return b.distinct(children)
	case Ite:
		return children[0].(z3.Bool).IfThenElse(
			children[1].(z3.Value), children[2].(z3.Value)), nil
	case Apply:
		return nil, unsupportedf("function application not supported by the z3 binding")

	case Plus, Minus, Mult, Div, Negate, Mod, IntDiv, Lt, Le, Gt, Ge,
		Abs, Pow, ToReal, ToInt, IsInt, IntToBV:
		return b.arith(op, children)

	case Concat:
		res := children[0].(z3.BV)
		for _, c := range children[1:] {
			res = res.Concat(c.(z3.BV))
		}
		return res, nil
	case Extract:
		return children[0].(z3.BV).Extract(op.Idx[0], op.Idx[1]), nil
	case ZeroExtend:
		return children[0].(z3.BV).ZeroExtend(op.Idx[0]), nil
	case SignExtend:
		return children[0].(z3.BV).SignExtend(op.Idx[0]), nil
	case Repeat:
		x := children[0].(z3.BV)
		res := x
		for i := 1; i < op.Idx[0]; i++ {
			res = res.Concat(x)
		}
		return res, nil
	case RotateLeft:
		return rotate(children[0].(z3.BV), op.Idx[0], true), nil
	case RotateRight:
		return rotate(children[0].(z3.BV), op.Idx[0], false), nil

	case BVNot:
		return children[0].(z3.BV).Not(), nil
	case BVNeg:
		return children[0].(z3.BV).Neg(), nil
	case BVAnd:
		res := children[0].(z3.BV)
		for _, c := range children[1:] {
			res = res.And(c.(z3.BV))
		}
		return res, nil
	case BVOr:
		res := children[0].(z3.BV)
		for _, c := range children[1:] {
			res = res.Or(c.(z3.BV))
		}
		return res, nil
	case BVXor:
		res := children[0].(z3.BV)
		for _, c := range children[1:] {
			res = res.Xor(c.(z3.BV))
		}
		return res, nil
	case BVNand:
		return children[0].(z3.BV).And(children[1].(z3.BV)).Not(), nil
	case BVNor:
		return children[0].(z3.BV).Or(children[1].(z3.BV)).Not(), nil
	case BVXnor:
		return children[0].(z3.BV).Xor(children[1].(z3.BV)).Not(), nil
	case BVAdd:
		res := children[0].(z3.BV)
		for _, c := range children[1:] {
			res = res.Add(c.(z3.BV))
		}
		return res, nil
	case BVSub:
		return children[0].(z3.BV).Sub(children[1].(z3.BV)), nil
	case BVMul:
		res := children[0].(z3.BV)
		for _, c := range children[1:] {
			res = res.Mul(c.(z3.BV))
		}
		return res, nil
	case BVUdiv:
		return children[0].(z3.BV).UDiv(children[1].(z3.BV)), nil
	case BVSdiv:
		return children[0].(z3.BV).SDiv(children[1].(z3.BV)), nil
	case BVUrem:
		return children[0].(z3.BV).URem(children[1].(z3.BV)), nil
	case BVSrem, BVSmod:
		return children[0].(z3.BV).SRem(children[1].(z3.BV)), nil
	case BVShl:
		return children[0].(z3.BV).Lsh(children[1].(z3.BV)), nil
	case BVLshr:
		return children[0].(z3.BV).URsh(children[1].(z3.BV)), nil
	case BVAshr:
		return children[0].(z3.BV).SRsh(children[1].(z3.BV)), nil
	case BVComp:
		eq := children[0].(z3.BV).Eq(children[1].(z3.BV))
		one := b.ctx.FromInt(1, b.ctx.BVSort(1))
		zero := b.ctx.FromInt(0, b.ctx.BVSort(1))
		return eq.IfThenElse(one, zero), nil
	case BVUlt:
		return children[0].(z3.BV).ULT(children[1].(z3.BV)), nil
	case BVUle:
		return children[0].(z3.BV).ULE(children[1].(z3.BV)), nil
	case BVUgt:
		return children[0].(z3.BV).UGT(children[1].(z3.BV)), nil
	case BVUge:
		return children[0].(z3.BV).UGE(children[1].(z3.BV)), nil
	case BVSlt:
		return children[0].(z3.BV).SLT(children[1].(z3.BV)), nil
	case BVSle:
		return children[0].(z3.BV).SLE(children[1].(z3.BV)), nil
	case BVSgt:
		return children[0].(z3.BV).SGT(children[1].(z3.BV)), nil
	case BVSge:
		return children[0].(z3.BV).SGE(children[1].(z3.BV)), nil
	case BVToNat:
		return children[0].(z3.BV).UToInt(), nil

	case Select, Store:
		return nil, unsupportedf("array operations not supported by the z3 binding")
	}
	return nil, unsupportedf("operator %s not supported by the z3 binding", op)
}

func (b *Z3Backend) equal(lhs, rhs any) (any, error) {
	switch l := lhs.(type) {
	case z3.Bool:
		return l.Eq(rhs.(z3.Bool)), nil
	case z3.BV:
		return l.Eq(rhs.(z3.BV)), nil
	case z3.Int:
		return l.Eq(rhs.(z3.Int)), nil
	case z3.Real:
		return l.Eq(rhs.(z3.Real)), nil
	case z3.Uninterpreted:
		return l.Eq(rhs.(z3.Uninterpreted)), nil
	}
	return nil, unsupportedf("equality over %T not supported by the z3 binding", lhs)
}

// chainEqual conjoins adjacent equalities, the n-ary SMT-LIB reading
// of = and <=>.
func (b *Z3Backend) chainEqual(children []any) (any, error) {
	first, err := b.equal(children[0], children[1])
	if err != nil {
		return nil, err
	}
	res := first.(z3.Bool)
	for i := 1; i < len(children)-1; i++ {
		eq, err := b.equal(children[i], children[i+1])
		if err != nil {
			return nil, err
		}
		res = res.And(eq.(z3.Bool))
	}
	return res, nil
}

func (b *Z3Backend) distinct(children []any) (any, error) {
	var res z3.Bool
	first := true
	for i := 0; i < len(children); i++ {
		for j := i + 1; j < len(children); j++ {
			eq, err := b.equal(children[i], children[j])
			if err != nil {
				return nil, err
			}
			ne := eq.(z3.Bool).Not()
			if first {
				res = ne
				first = false
			} else {
				res = res.And(ne)
			}
		}
	}
	return res, nil
}

func (b *Z3Backend) arith(op Op, children []any) (any, error) {
	if x, ok := children[0].(z3.Int); ok {
		switch op.Prim {
		case Plus:
			res := x
			for _, c := range children[1:] {
				res = res.Add(c.(z3.Int))
			}
			return res, nil
		case Minus:
			res := x
			for _, c := range children[1:] {
				res = res.Sub(c.(z3.Int))
			}
			return res, nil
		case Mult:
			res := x
			for _, c := range children[1:] {
				res = res.Mul(c.(z3.Int))
			}
			return res, nil
		case Div, IntDiv:
			res := x
			for _, c := range children[1:] {
				res = res.Div(c.(z3.Int))
			}
			return res, nil
		case Negate:
			return x.Neg(), nil
		case Mod:
			return x.Mod(children[1].(z3.Int)), nil
		case Lt, Le, Gt, Ge:
			return chainIntCmp(op.Prim, children), nil
		case Abs:
			return x.LT(b.ctx.FromInt(0, b.ctx.IntSort()).(z3.Int)).
				IfThenElse(x.Neg(), x), nil
		case ToReal:
			return x.ToReal(), nil
		case IsInt:
			return b.ctx.FromBool(true), nil
		case IntToBV:
			return x.ToBV(op.Idx[0]), nil
		case Pow:
			return nil, unsupportedf("pow not supported by the z3 binding")
		}
	}
	if x, ok := children[0].(z3.Real); ok {
		switch op.Prim {
		case Plus:
			res := x
			for _, c := range children[1:] {
				res = res.Add(c.(z3.Real))
			}
			return res, nil
		case Minus:
			res := x
			for _, c := range children[1:] {
				res = res.Sub(c.(z3.Real))
			}
			return res, nil
		case Mult:
			res := x
			for _, c := range children[1:] {
				res = res.Mul(c.(z3.Real))
			}
			return res, nil
		case Div:
			res := x
			for _, c := range children[1:] {
				res = res.Div(c.(z3.Real))
			}
			return res, nil
		case Negate:
			return x.Neg(), nil
		case Lt, Le, Gt, Ge:
			return chainRealCmp(op.Prim, children), nil
		case ToInt:
			return x.ToInt(), nil
		case IsInt:
			return x.IsInt(), nil
		}
	}
	return nil, unsupportedf("arithmetic %s over %T not supported by the z3 binding",
		op, children[0])
}

// n-ary comparisons chain over adjacent operands, like distinct goes
// pairwise.

func chainIntCmp(p PrimOp, children []any) z3.Bool {
	cmp := func(a, c z3.Int) z3.Bool {
		switch p {
		case Lt:
			return a.LT(c)
		case Le:
			return a.LE(c)
		case Gt:
			return a.GT(c)
		}
		return a.GE(c)
	}
	res := cmp(children[0].(z3.Int), children[1].(z3.Int))
	for i := 1; i < len(children)-1; i++ {
		res = res.And(cmp(children[i].(z3.Int), children[i+1].(z3.Int)))
	}
	return res
}

func chainRealCmp(p PrimOp, children []any) z3.Bool {
	cmp := func(a, c z3.Real) z3.Bool {
		switch p {
		case Lt:
			return a.LT(c)
		case Le:
			return a.LE(c)
		case Gt:
			return a.GT(c)
		}
		return a.GE(c)
	}
	res := cmp(children[0].(z3.Real), children[1].(z3.Real))
	for i := 1; i < len(children)-1; i++ {
		res = res.And(cmp(children[i].(z3.Real), children[i+1].(z3.Real)))
	}
	return res
}

// rotate builds a rotation from extract and concat, which the binding
// always has.
func rotate(x z3.BV, n int, left bool) z3.BV {
	w := x.Sort().BVSize()
	n = n % w
	if n == 0 {
		return x
	}
	if !left {
		n = w - n
	}
	// left-rotate by n: low w-n bits shift up, top n bits wrap around
	return x.Extract(w-n-1, 0).Concat(x.Extract(w-1, w-n))
}

func (b *Z3Backend) SetOpt(option, value string) error {
	switch option {
	case "produce-models", "incremental":
		return nil // always on for this binding
	}
	return unsupportedf("option %q not supported by the z3 binding", option)
}

func (b *Z3Backend) SetLogic(logic string) error {
	// the binding always solves with the full default logic
	b.logic = logic
	return nil
}

func (b *Z3Backend) Assert(t any) error {
	b.solver.Assert(t.(z3.Bool))
	return nil
}

func (b *Z3Backend) CheckSat() (Result, error) {
	sat, err := b.solver.Check()
	if err != nil {
		return Unknown, err
	}
	if sat {
		return Sat, nil
	}
	return Unsat, nil
}

func (b *Z3Backend) CheckSatAssuming(assumptions []any) (Result, error) {
	b.solver.Push()
	defer b.solver.Pop()
	for _, a := range assumptions {
		b.solver.Assert(a.(z3.Bool))
	}
	return b.CheckSat()
}

func (b *Z3Backend) Push(levels uint64) error {
	for i := uint64(0); i < levels; i++ {
		b.solver.Push()
	}
	return nil
}

func (b *Z3Backend) Pop(levels uint64) error {
	for i := uint64(0); i < levels; i++ {
		b.solver.Pop()
	}
	return nil
}

func (b *Z3Backend) GetValue(t any) (any, string, error) {
	m := b.solver.Model()
	if m == nil {
		return nil, "", fmt.Errorf("no model available")
	}
	v := m.Eval(t.(z3.Value), true)
	return v, valueRepr(v), nil
}

func (b *Z3Backend) GetArrayValues(arr any) ([]ArrayBinding, *ArrayBinding, error) {
	return nil, nil, unsupportedf("array values not supported by the z3 binding")
}

func (b *Z3Backend) Reset() error {
	b.solver.Reset()
	b.symbols = map[string]bool{}
	return nil
}

// valueRepr renders a model value with the decimal conventions the core
// uses for canonical literals.
func valueRepr(v z3.Value) string {
	switch v := v.(type) {
	case z3.BV:
		s := v.String()
		var parsed *big.Int
		var ok bool
		switch {
		case strings.HasPrefix(s, "#x"):
			parsed, ok = new(big.Int).SetString(s[2:], 16)
		case strings.HasPrefix(s, "#b"):
			parsed, ok = new(big.Int).SetString(s[2:], 2)
		default:
			parsed, ok = new(big.Int).SetString(s, 10)
		}
		if !ok {
			return s
		}
		return parsed.String()
	default:
		return v.String()
	}
}
