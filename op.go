package smt

import (
	"fmt"
	"strings"
)

// PrimOp is a primitive operator code. The set is closed: supporting a
// new operator means adding it here and to the sort checker's dispatch.
type PrimOp int

const (
	And = PrimOp(iota)
	Or
	Xor
	Not
	Implies
	Iff
	Ite
	Equal
	Distinct
	Apply

	Plus
	Minus
	Negate
	Mult
	Div
	Lt
	Le
	Gt
	Ge
	Mod
	Abs
	Pow
	IntDiv
	ToReal
	ToInt
	IsInt

	Concat
	Extract
	BVNot
	BVNeg
	BVAnd
	BVOr
	BVXor
	BVNand
	BVNor
	BVXnor
	BVAdd
	BVSub
	BVMul
	BVUdiv
	BVSdiv
	BVUrem
	BVSrem
	BVSmod
	BVShl
	BVAshr
	BVLshr
	BVComp
	BVUlt
	BVUle
	BVUgt
	BVUge
	BVSlt
	BVSle
	BVSgt
	BVSge
	ZeroExtend
	SignExtend
	Repeat
	RotateLeft
	RotateRight
	BVToNat
	IntToBV

	Select
	Store

	numPrimOps
)

var primOpNames = [...]string{
	And:         "and",
	Or:          "or",
	Xor:         "xor",
	Not:         "not",
	Implies:     "=>",
	Iff:         "<=>",
	Ite:         "ite",
	Equal:       "=",
	Distinct:    "distinct",
	Apply:       "apply",
	Plus:        "+",
	Minus:       "-",
	Negate:      "-",
	Mult:        "*",
	Div:         "/",
	Lt:          "<",
	Le:          "<=",
	Gt:          ">",
	Ge:          ">=",
	Mod:         "mod",
	Abs:         "abs",
	Pow:         "pow",
	IntDiv:      "div",
	ToReal:      "to_real",
	ToInt:       "to_int",
	IsInt:       "is_int",
	Concat:      "concat",
	Extract:     "extract",
	BVNot:       "bvnot",
	BVNeg:       "bvneg",
	BVAnd:       "bvand",
	BVOr:        "bvor",
	BVXor:       "bvxor",
	BVNand:      "bvnand",
	BVNor:       "bvnor",
	BVXnor:      "bvxnor",
	BVAdd:       "bvadd",
	BVSub:       "bvsub",
	BVMul:       "bvmul",
	BVUdiv:      "bvudiv",
	BVSdiv:      "bvsdiv",
	BVUrem:      "bvurem",
	BVSrem:      "bvsrem",
	BVSmod:      "bvsmod",
	BVShl:       "bvshl",
	BVAshr:      "bvashr",
	BVLshr:      "bvlshr",
	BVComp:      "bvcomp",
	BVUlt:       "bvult",
	BVUle:       "bvule",
	BVUgt:       "bvugt",
	BVUge:       "bvuge",
	BVSlt:       "bvslt",
	BVSle:       "bvsle",
	BVSgt:       "bvsgt",
	BVSge:       "bvsge",
	ZeroExtend:  "zero_extend",
	SignExtend:  "sign_extend",
	Repeat:      "repeat",
	RotateLeft:  "rotate_left",
	RotateRight: "rotate_right",
	BVToNat:     "bv2nat",
	IntToBV:     "int2bv",
	Select:      "select",
	Store:       "store",
}

func (p PrimOp) String() string {
	if p >= 0 && int(p) < len(primOpNames) && primOpNames[p] != "" {
		return primOpNames[p]
	}
	return fmt.Sprintf("PrimOp<%d>", p)
}

// maxArity stands in for "no upper bound" on variadic operators.
const maxArity = 1 << 20

// opArity is the declared (min, max) argument count per primitive,
// independent of any backend.
type opArity struct {
	min, max int
}

// Op is an operator descriptor: a primitive code plus zero or more
// integer parameters (extract bounds, extend amount, rotate amount,
// repeat count, int2bv width).
type Op struct {
	Prim PrimOp
	Idx  []int
}

// NewOp returns an operator descriptor for prim with index parameters.
func NewOp(prim PrimOp, idx ...int) Op {
	return Op{Prim: prim, Idx: idx}
}

func (op Op) String() string {
	if len(op.Idx) == 0 {
		return op.Prim.String()
	}
	b := strings.Builder{}
	b.WriteString("(_ ")
	b.WriteString(op.Prim.String())
	for _, i := range op.Idx {
		fmt.Fprintf(&b, " %d", i)
	}
	b.WriteString(")")
	return b.String()
}

// nullOp marks symbol and value nodes, which carry no operator.
var nullOp = Op{Prim: PrimOp(-1)}

// IsNull reports whether the operator slot is empty.
func (op Op) IsNull() bool { return op.Prim < 0 }

func (op Op) equal(o Op) bool {
	if op.Prim != o.Prim || len(op.Idx) != len(o.Idx) {
		return false
	}
	for i := range op.Idx {
		if op.Idx[i] != o.Idx[i] {
			return false
		}
	}
	return true
}
