package smt

import (
	"encoding/binary"
	"fmt"
	"strings"
	"unsafe"

	"github.com/cespare/xxhash/v2"
)

// Term is a canonical expression node: a symbol, a literal value, or an
// operator application over already-canonical children. Within one
// session, pointer equality implies and is implied by structural
// equality for every node known to the session's table.
type Term struct {
	op       Op
	sort     Sort
	children []*Term
	handle   any
	symbol   string
	value    string
	isValue  bool
	hash     uint64
}

// Op returns the operator, or a null Op for symbols and values.
func (t *Term) Op() Op { return t.op }

// Sort returns the canonical sort the node was built with.
func (t *Term) Sort() Sort { return t.sort }

// Children returns the ordered child nodes. The slice must not be mutated.
func (t *Term) Children() []*Term { return t.children }

// Handle returns the opaque backend-native representation.
func (t *Term) Handle() any { return t.handle }

// IsSymbol reports whether the node is a named symbol.
func (t *Term) IsSymbol() bool { return t.op.IsNull() && !t.isValue }

// IsValue reports whether the node is a literal value.
func (t *Term) IsValue() bool { return t.isValue }

// Symbol returns the symbol name, or "" for non-symbol nodes.
func (t *Term) Symbol() string { return t.symbol }

// Value returns the textual value of a literal node, or "".
func (t *Term) Value() string { return t.value }

// Id returns a stable identity for the node, unique while it is live.
func (t *Term) Id() uintptr { return uintptr(unsafe.Pointer(t)) }

func (t *Term) String() string {
	switch {
	case t.IsSymbol():
		return t.symbol
	case t.isValue:
		return t.value
	default:
		b := strings.Builder{}
		b.WriteString("(")
		b.WriteString(t.op.String())
		for _, c := range t.children {
			b.WriteString(" ")
			b.WriteString(c.String())
		}
		b.WriteString(")")
		return b.String()
	}
}

// newTerm builds a candidate node and computes its structural hash.
// Children are already canonical, so hashing reads only their identities
// and never walks the DAG.
func newTerm(op Op, sort Sort, children []*Term, handle any) *Term {
	t := &Term{op: op, sort: sort, children: children, handle: handle}
	t.hash = t.structuralHash()
	return t
}

func newSymbol(name string, sort Sort, handle any) *Term {
	t := &Term{op: nullOp, sort: sort, symbol: name, handle: handle}
	t.hash = t.structuralHash()
	return t
}

func newValue(repr string, sort Sort, handle any, children ...*Term) *Term {
	t := &Term{op: nullOp, sort: sort, value: repr, isValue: true, handle: handle, children: children}
	t.hash = t.structuralHash()
	return t
}

func (t *Term) structuralHash() uint64 {
	h := xxhash.New()
	raw := make([]byte, 8)
	binary.BigEndian.PutUint64(raw, uint64(t.op.Prim))
	h.Write(raw)
	for _, i := range t.op.Idx {
		binary.BigEndian.PutUint64(raw, uint64(i))
		h.Write(raw)
	}
	binary.BigEndian.PutUint64(raw, t.sort.Hash())
	h.Write(raw)
	h.Write([]byte(t.symbol))
	h.Write([]byte(t.value))
	for _, c := range t.children {
		binary.BigEndian.PutUint64(raw, uint64(c.Id()))
		h.Write(raw)
	}
	return h.Sum64()
}

// shallowEq compares two candidates by operator, sort, payload and child
// identities. Children are canonical, so identity comparison is exact.
func (t *Term) shallowEq(o *Term) bool {
	if !t.op.equal(o.op) || t.isValue != o.isValue ||
		t.symbol != o.symbol || t.value != o.value {
		return false
	}
	if !t.sort.Equal(o.sort) {
		return false
	}
	if len(t.children) != len(o.children) {
		return false
	}
	for i := range t.children {
		if t.children[i].Id() != o.children[i].Id() {
			return false
		}
	}
	return true
}

// termTable is the per-session hash-consing structure: one canonical
// node per distinct structural shape. Buckets hold strong references;
// Session.Reset is the reclamation point.
type termTable struct {
	buckets map[uint64][]*Term
	size    int
}

func newTermTable() *termTable {
	return &termTable{buckets: map[uint64][]*Term{}}
}

// lookup returns the canonical node equal to the candidate, or nil.
func (tt *termTable) lookup(cand *Term) *Term {
	for _, e := range tt.buckets[cand.hash] {
		if e.shallowEq(cand) {
			return e
		}
	}
	return nil
}

func (tt *termTable) insert(t *Term) {
	tt.buckets[t.hash] = append(tt.buckets[t.hash], t)
	tt.size++
}

func (tt *termTable) clear() {
	tt.buckets = map[uint64][]*Term{}
	tt.size = 0
}

// InvolvedSymbols collects the distinct symbols a term depends on,
// walking the DAG with an explicit work stack.
func InvolvedSymbols(t *Term) []*Term {
	stack := []*Term{t}
	visited := map[uintptr]bool{}
	syms := make([]*Term, 0)
	for len(stack) > 0 {
		cur := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if visited[cur.Id()] {
			continue
		}
		visited[cur.Id()] = true
		if cur.IsSymbol() {
			syms = append(syms, cur)
			continue
		}
		stack = append(stack, cur.children...)
	}
	return syms
}

func termSorts(terms []*Term) []Sort {
	sorts := make([]Sort, len(terms))
	for i, t := range terms {
		sorts[i] = t.sort
	}
	return sorts
}

func fmtTerms(terms []*Term) string {
	parts := make([]string, len(terms))
	for i, t := range terms {
		parts[i] = fmt.Sprintf("%s:%s", t, t.sort)
	}
	return strings.Join(parts, ", ")
}
