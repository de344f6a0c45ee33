package smt

import (
	"encoding/binary"
	"fmt"
	"strings"

	"github.com/cespare/xxhash/v2"
)

// SortKind identifies the shape of a Sort.
type SortKind int

const (
	BOOL = SortKind(iota)
	BV
	INT
	REAL
	ARRAY
	FUNCTION
	UNINTERPRETED
	UNINTERPRETED_CONS
)

var sortKinds = [...]string{
	BOOL:               "Bool",
	BV:                 "BV",
	INT:                "Int",
	REAL:               "Real",
	ARRAY:              "Array",
	FUNCTION:           "Function",
	UNINTERPRETED:      "UninterpretedSort",
	UNINTERPRETED_CONS: "UninterpretedSortConstructor",
}

func (sk SortKind) String() string {
	if sk >= 0 && int(sk) < len(sortKinds) {
		return sortKinds[sk]
	}
	return fmt.Sprintf("SortKind<%d>", sk)
}

// Sort is an immutable, structurally-comparable description of a domain.
// Two independently built sorts with the same kind and parameters are
// Equal and hash to the same value. The zero Sort is not a valid sort.
//
// For ARRAY, sub holds [index, element]. For FUNCTION, sub holds the
// domain sorts followed by the codomain. An UNINTERPRETED sort with
// arity > 0 is a sort constructor; applying it yields an UNINTERPRETED
// sort of arity 0 whose sub holds the parameter sorts.
type Sort struct {
	kind  SortKind
	width uint64
	name  string
	arity uint64
	sub   []Sort
}

// BoolSort returns the boolean sort.
func BoolSort() Sort { return Sort{kind: BOOL} }

// BVSort returns the bitvector sort of the given width.
func BVSort(width uint64) Sort { return Sort{kind: BV, width: width} }

// IntSort returns the integer sort.
func IntSort() Sort { return Sort{kind: INT} }

// RealSort returns the real sort.
func RealSort() Sort { return Sort{kind: REAL} }

// ArraySort returns the array sort with the given index and element sorts.
func ArraySort(idx, elem Sort) Sort {
	return Sort{kind: ARRAY, sub: []Sort{idx, elem}}
}

// FunSort returns the function sort domain... -> codomain.
func FunSort(domain []Sort, codomain Sort) Sort {
	sub := make([]Sort, 0, len(domain)+1)
	sub = append(sub, domain...)
	sub = append(sub, codomain)
	return Sort{kind: FUNCTION, sub: sub}
}

// UninterpretedSort returns a named uninterpreted sort. A non-zero arity
// yields a sort constructor which must be applied before use.
func UninterpretedSort(name string, arity uint64) Sort {
	if arity > 0 {
		return Sort{kind: UNINTERPRETED_CONS, name: name, arity: arity}
	}
	return Sort{kind: UNINTERPRETED, name: name}
}

// ApplyUninterpretedSort instantiates a sort constructor with parameter
// sorts, producing an applied sort of arity zero.
func ApplyUninterpretedSort(cons Sort, params ...Sort) (Sort, error) {
	if cons.kind != UNINTERPRETED_CONS {
		return Sort{}, usagef("cannot apply non-constructor sort %s", cons)
	}
	if uint64(len(params)) != cons.arity {
		return Sort{}, usagef("sort constructor %s expects %d parameters, got %d",
			cons.name, cons.arity, len(params))
	}
	return Sort{kind: UNINTERPRETED, name: cons.name, sub: append([]Sort{}, params...)}, nil
}

// Kind returns the sort kind tag.
func (s Sort) Kind() SortKind { return s.kind }

// Width returns the bitvector width, or 0 for non-bitvector sorts.
func (s Sort) Width() uint64 { return s.width }

// Name returns the name of an uninterpreted sort or sort constructor.
func (s Sort) Name() string { return s.name }

// Arity returns the arity of an uninterpreted sort constructor.
func (s Sort) Arity() uint64 { return s.arity }

// IndexSort returns the index sort of an array sort.
func (s Sort) IndexSort() Sort {
	if s.kind != ARRAY {
		panic("IndexSort on non-array sort")
	}
	return s.sub[0]
}

// ElemSort returns the element sort of an array sort.
func (s Sort) ElemSort() Sort {
	if s.kind != ARRAY {
		panic("ElemSort on non-array sort")
	}
	return s.sub[1]
}

// DomainSorts returns the domain of a function sort.
func (s Sort) DomainSorts() []Sort {
	if s.kind != FUNCTION {
		panic("DomainSorts on non-function sort")
	}
	return s.sub[:len(s.sub)-1]
}

// Codomain returns the codomain of a function sort.
func (s Sort) Codomain() Sort {
	if s.kind != FUNCTION {
		panic("Codomain on non-function sort")
	}
	return s.sub[len(s.sub)-1]
}

// ParamSorts returns the parameter sorts of an applied uninterpreted sort.
func (s Sort) ParamSorts() []Sort {
	if s.kind != UNINTERPRETED {
		panic("ParamSorts on non-uninterpreted sort")
	}
	return s.sub
}

// Equal reports structural equality.
func (s Sort) Equal(o Sort) bool {
	if s.kind != o.kind || s.width != o.width || s.name != o.name || s.arity != o.arity {
		return false
	}
	if len(s.sub) != len(o.sub) {
		return false
	}
	for i := range s.sub {
		if !s.sub[i].Equal(o.sub[i]) {
			return false
		}
	}
	return true
}

// Hash returns a structural hash consistent with Equal.
func (s Sort) Hash() uint64 {
	h := xxhash.New()
	s.feed(h)
	return h.Sum64()
}

func (s Sort) feed(h *xxhash.Digest) {
	raw := make([]byte, 8)
	binary.BigEndian.PutUint64(raw, uint64(s.kind))
	h.Write(raw)
	binary.BigEndian.PutUint64(raw, s.width)
	h.Write(raw)
	binary.BigEndian.PutUint64(raw, s.arity)
	h.Write(raw)
	h.Write([]byte(s.name))
	for i := range s.sub {
		s.sub[i].feed(h)
	}
}

// String returns a canonical textual form, injective over sort structure.
func (s Sort) String() string {
	switch s.kind {
	case BOOL:
		return "Bool"
	case BV:
		return fmt.Sprintf("(_ BitVec %d)", s.width)
	case INT:
		return "Int"
	case REAL:
		return "Real"
	case ARRAY:
		return fmt.Sprintf("(Array %s %s)", s.sub[0], s.sub[1])
	case FUNCTION:
		b := strings.Builder{}
		b.WriteString("(")
		for i := 0; i < len(s.sub)-1; i++ {
			b.WriteString(s.sub[i].String())
			b.WriteString(" ")
		}
		b.WriteString("-> ")
		b.WriteString(s.sub[len(s.sub)-1].String())
		b.WriteString(")")
		return b.String()
	case UNINTERPRETED:
		if len(s.sub) == 0 {
			return s.name
		}
		b := strings.Builder{}
		b.WriteString("(")
		b.WriteString(s.name)
		for i := range s.sub {
			b.WriteString(" ")
			b.WriteString(s.sub[i].String())
		}
		b.WriteString(")")
		return b.String()
	case UNINTERPRETED_CONS:
		return fmt.Sprintf("(%s <%d>)", s.name, s.arity)
	}
	return fmt.Sprintf("Sort<%d>", s.kind)
}

func sameSorts(sorts []Sort) bool {
	for i := 1; i < len(sorts); i++ {
		if !sorts[i].Equal(sorts[0]) {
			return false
		}
	}
	return true
}
