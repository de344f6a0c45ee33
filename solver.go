// Package smt is a backend-agnostic layer for building SMT sorts, terms
// and formulas once and executing them against interchangeable solving
// engines. A Session fronts one engine: it delegates construction to the
// backend and wraps every result into a canonical, hash-consed Term.
package smt

import (
	"math/big"
	"strconv"
	"strings"
)

// Result of a satisfiability check.
type Result int

const (
	Unknown = Result(iota)
	Sat
	Unsat
)

func (r Result) String() string {
	switch r {
	case Sat:
		return "sat"
	case Unsat:
		return "unsat"
	}
	return "unknown"
}

// ArrayBinding is one index/value pair of an array assignment extracted
// from a backend model, as a native handle plus its textual value.
type ArrayBinding struct {
	Index     any
	Value     any
	IndexRepr string
	ValueRepr string
}

// Backend is the fixed operation set a concrete solving engine exposes
// to this layer. Handles are opaque to the core; a backend only ever
// receives handles it produced itself.
type Backend interface {
	// MakeSort builds a native sort by kind and reports the kind it
	// actually realized: a backend with no native boolean sort realizes
	// BOOL as a width-1 bitvector. subs carries native sub-sort handles
	// (index/element for ARRAY, domain then codomain for FUNCTION).
	MakeSort(kind SortKind, width uint64, subs []any) (handle any, realized SortKind, err error)
	// DeclareSort builds a named uninterpreted sort. Non-zero arity may
	// fail as unsupported.
	DeclareSort(name string, arity uint64) (any, error)
	// ApplySortCons instantiates a declared sort constructor.
	ApplySortCons(cons any, params []any) (any, error)

	MakeTerm(op Op, children []any) (any, error)
	MakeBoolVal(b bool) (any, error)
	MakeIntVal(v int64, sort any) (any, error)
	// MakeStrVal builds a value from an SMT-LIB style numeral with the
	// given radix. The literal is pre-validated by the session.
	MakeStrVal(val string, base int, sort any) (any, error)
	MakeConstArray(elem any, arrSort any) (any, error)
	// MakeSymbol declares a fresh symbol; a duplicate name fails.
	MakeSymbol(name string, sort any) (any, error)

	SetOpt(option, value string) error
	SetLogic(logic string) error
	Assert(t any) error
	CheckSat() (Result, error)
	CheckSatAssuming(assumptions []any) (Result, error)
	Push(levels uint64) error
	Pop(levels uint64) error
	GetValue(t any) (handle any, repr string, err error)
	// GetArrayValues returns the index/value assignment of an array term
	// under the last satisfiable check, plus the constant base if the
	// model has one (nil otherwise).
	GetArrayValues(arr any) ([]ArrayBinding, *ArrayBinding, error)
	Reset() error
}

// TermReleaser is optionally implemented by backends whose native term
// handles need explicit release when hash-cons deduplication discards a
// freshly built duplicate.
type TermReleaser interface {
	ReleaseTerm(handle any)
}

// Session fronts one backend instance. It owns the hash-cons table, the
// declared-symbol registry and the assertion-stack balance. Sessions are
// not internally synchronized.
type Session struct {
	backend Backend
	checker *SortChecker
	table   *termTable

	sortHandles map[string]any
	symbols     map[string]bool
	levels      uint64

	boolRealized bool
	boolSort     Sort
}

// NewSession returns a session fronting the given backend.
func NewSession(b Backend) *Session {
	return &Session{
		backend:     b,
		checker:     NewSortChecker(),
		table:       newTermTable(),
		sortHandles: map[string]any{},
		symbols:     map[string]bool{},
	}
}

// Checker returns the session's sort checker.
func (s *Session) Checker() *SortChecker { return s.checker }

// NumCached returns the number of canonical nodes in the session table.
func (s *Session) NumCached() int { return s.table.size }

/*
 *   Sorts
 */

// nativeSort realizes a canonical sort in the backend, memoized so each
// distinct sort is built at most once per session.
func (s *Session) nativeSort(sort Sort) (any, error) {
	key := sort.String()
	if h, ok := s.sortHandles[key]; ok {
		return h, nil
	}

	var handle any
	var err error
	switch sort.Kind() {
	case BOOL, BV, INT, REAL:
		handle, _, err = s.backend.MakeSort(sort.Kind(), sort.Width(), nil)
	case ARRAY, FUNCTION:
		subs := make([]any, 0, len(sort.sub))
		for _, sub := range sort.sub {
			nh, serr := s.nativeSort(sub)
			if serr != nil {
				return nil, serr
			}
			subs = append(subs, nh)
		}
		handle, _, err = s.backend.MakeSort(sort.Kind(), 0, subs)
	case UNINTERPRETED:
		if len(sort.sub) == 0 {
			handle, err = s.backend.DeclareSort(sort.Name(), 0)
		} else {
			cons, cerr := s.backend.DeclareSort(sort.Name(), uint64(len(sort.sub)))
			if cerr != nil {
				return nil, cerr
			}
			params := make([]any, 0, len(sort.sub))
			for _, sub := range sort.sub {
				nh, serr := s.nativeSort(sub)
				if serr != nil {
					return nil, serr
				}
				params = append(params, nh)
			}
			handle, err = s.backend.ApplySortCons(cons, params)
		}
	case UNINTERPRETED_CONS:
		handle, err = s.backend.DeclareSort(sort.Name(), sort.Arity())
	default:
		return nil, unsupportedf("cannot realize sort %s", sort)
	}
	if err != nil {
		return nil, err
	}
	s.sortHandles[key] = handle
	return handle, nil
}

// BoolSort returns the session's boolean sort. A backend without a
// native boolean sort realizes it as the width-1 bitvector sort, and
// that is what the session reports from then on.
func (s *Session) BoolSort() (Sort, error) {
	if s.boolRealized {
		return s.boolSort, nil
	}
	handle, realized, err := s.backend.MakeSort(BOOL, 0, nil)
	if err != nil {
		return Sort{}, err
	}
	sort := BoolSort()
	if realized == BV {
		sort = BVSort(1)
	}
	s.sortHandles[sort.String()] = handle
	s.boolRealized = true
	s.boolSort = sort
	return sort, nil
}

// BVSort returns the bitvector sort of the given width, realized in the
// backend.
func (s *Session) BVSort(width uint64) (Sort, error) {
	sort := BVSort(width)
	if _, err := s.nativeSort(sort); err != nil {
		return Sort{}, err
	}
	return sort, nil
}

// IntSort returns the integer sort, realized in the backend.
func (s *Session) IntSort() (Sort, error) {
	sort := IntSort()
	if _, err := s.nativeSort(sort); err != nil {
		return Sort{}, err
	}
	return sort, nil
}

// RealSort returns the real sort, realized in the backend.
func (s *Session) RealSort() (Sort, error) {
	sort := RealSort()
	if _, err := s.nativeSort(sort); err != nil {
		return Sort{}, err
	}
	return sort, nil
}

// ArraySort returns the array sort index -> elem, realized in the backend.
func (s *Session) ArraySort(idx, elem Sort) (Sort, error) {
	sort := ArraySort(idx, elem)
	if _, err := s.nativeSort(sort); err != nil {
		return Sort{}, err
	}
	return sort, nil
}

// FunSort returns the function sort domain... -> codomain, realized in
// the backend.
func (s *Session) FunSort(domain []Sort, codomain Sort) (Sort, error) {
	sort := FunSort(domain, codomain)
	if _, err := s.nativeSort(sort); err != nil {
		return Sort{}, err
	}
	return sort, nil
}

// DeclareSort declares a named uninterpreted sort. Non-zero arity yields
// a sort constructor; backends that cannot express one fail.
func (s *Session) DeclareSort(name string, arity uint64) (Sort, error) {
	sort := UninterpretedSort(name, arity)
	if _, err := s.nativeSort(sort); err != nil {
		return Sort{}, err
	}
	return sort, nil
}

// ApplySort instantiates a sort constructor with parameter sorts.
func (s *Session) ApplySort(cons Sort, params ...Sort) (Sort, error) {
	sort, err := ApplyUninterpretedSort(cons, params...)
	if err != nil {
		return Sort{}, err
	}
	if _, err := s.nativeSort(sort); err != nil {
		return Sort{}, err
	}
	return sort, nil
}

// boolish maps a canonical BOOL result sort onto the session's realized
// boolean sort, so bv-only sessions report consistent sorts.
func (s *Session) boolish(sort Sort) (Sort, error) {
	if sort.Kind() != BOOL {
		return sort, nil
	}
	return s.BoolSort()
}

/*
 *   Values and symbols
 */

// BoolVal builds the canonical literal for b.
func (s *Session) BoolVal(b bool) (*Term, error) {
	sort, err := s.BoolSort()
	if err != nil {
		return nil, err
	}
	handle, err := s.backend.MakeBoolVal(b)
	if err != nil {
		return nil, backendErr(err)
	}
	repr := "false"
	if b {
		repr = "true"
	}
	if sort.Kind() == BV {
		repr = "0"
		if b {
			repr = "1"
		}
	}
	return s.canonicalize(newValue(repr, sort, handle)), nil
}

// IntVal builds the canonical literal for v against an integer, real or
// bitvector sort, validating the range for bitvectors.
func (s *Session) IntVal(v int64, sort Sort) (*Term, error) {
	if err := validateIntLiteral(big.NewInt(v), sort); err != nil {
		return nil, err
	}
	native, err := s.nativeSort(sort)
	if err != nil {
		return nil, err
	}
	handle, err := s.backend.MakeIntVal(v, native)
	if err != nil {
		return nil, backendErr(err)
	}
	return s.canonicalize(newValue(strconv.FormatInt(v, 10), sort, handle)), nil
}

// Val builds the canonical literal for an SMT-LIB style numeral string
// with the given radix (2, 10 or 16), validated against the target sort.
func (s *Session) Val(text string, base int, sort Sort) (*Term, error) {
	repr, err := normalizeLiteral(text, base, sort)
	if err != nil {
		return nil, err
	}
	native, err := s.nativeSort(sort)
	if err != nil {
		return nil, err
	}
	handle, err := s.backend.MakeStrVal(text, base, native)
	if err != nil {
		return nil, backendErr(err)
	}
	return s.canonicalize(newValue(repr, sort, handle)), nil
}

// ConstArray builds the constant array holding elem at every index.
func (s *Session) ConstArray(elem *Term, arrSort Sort) (*Term, error) {
	if arrSort.Kind() != ARRAY {
		return nil, usagef("ConstArray expects an array sort, got %s", arrSort)
	}
	if !elem.Sort().Equal(arrSort.ElemSort()) {
		return nil, usagef("constant array base %s does not match element sort %s",
			elem.Sort(), arrSort.ElemSort())
	}
	native, err := s.nativeSort(arrSort)
	if err != nil {
		return nil, err
	}
	handle, err := s.backend.MakeConstArray(elem.Handle(), native)
	if err != nil {
		return nil, backendErr(err)
	}
	return s.canonicalize(newValue("(const "+elem.String()+")", arrSort, handle, elem)), nil
}

// Symbol declares a fresh symbol. Symbol identity is name-scoped: a name
// already used in this session fails instead of returning the prior node.
func (s *Session) Symbol(name string, sort Sort) (*Term, error) {
	if s.symbols[name] {
		return nil, usagef("symbol %q already declared in this session", name)
	}
	native, err := s.nativeSort(sort)
	if err != nil {
		return nil, err
	}
	handle, err := s.backend.MakeSymbol(name, native)
	if err != nil {
		return nil, backendErr(err)
	}
	sym := s.canonicalize(newSymbol(name, sort, handle))
	s.symbols[name] = true
	return sym, nil
}

/*
 *   Operator application
 */

// MakeTerm applies op to already-canonical children of this session.
// The sort checker gates the application; an unmet verdict is relaxed
// only for equality and ordering over identical argument sorts, which
// every backend resolves natively.
func (s *Session) MakeTerm(op Op, args ...*Term) (*Term, error) {
	if len(args) == 0 {
		return nil, usagef("operator %s applied to no arguments", op)
	}
	for _, a := range args {
		if s.table.lookup(a) != a {
			return nil, usagef("argument %s is not a canonical node of this session", a)
		}
	}

	ok, err := s.checker.CheckSortedness(op, args)
	if err != nil {
		return nil, err
	}
	if !ok && !relaxedSorted(s.checker, op, termSorts(args)) && !s.iteOverRealizedBool(op, args) {
		return nil, usagef("ill-sorted application of %s to [%s]", op, fmtTerms(args))
	}

	resultSort, err := s.checker.ComputeSort(op, termSorts(args))
	if err != nil {
		return nil, err
	}
	if resultSort, err = s.boolish(resultSort); err != nil {
		return nil, err
	}

	handles := make([]any, len(args))
	for i, a := range args {
		handles[i] = a.Handle()
	}
	handle, err := s.backend.MakeTerm(op, handles)
	if err != nil {
		return nil, backendErr(err)
	}

	cand := newTerm(op, resultSort, args, handle)
	if existing := s.table.lookup(cand); existing != nil {
		if r, releasable := s.backend.(TermReleaser); releasable {
			r.ReleaseTerm(handle)
		}
		return existing, nil
	}
	s.table.insert(cand)
	return cand, nil
}

// relaxedSorted accepts equality and ordering over identical argument
// sorts, which the shape table pins to boolean arguments. Mirrors the
// construction layer of the original, which routes these through the
// backend untouched.
func relaxedSorted(c *SortChecker, op Op, sorts []Sort) bool {
	switch op.Prim {
	case Equal, Distinct:
		// any theory, as long as the sorts agree
	case Lt, Le, Gt, Ge:
		if !allKind(sorts, INT) && !allKind(sorts, REAL) {
			return false
		}
	default:
		return false
	}
	min, max, err := c.Arity(op.Prim)
	if err != nil || len(sorts) < min || len(sorts) > max {
		return false
	}
	return sameSorts(sorts)
}

// iteOverRealizedBool accepts an if-then-else whose condition has the
// session's realized boolean sort when that sort is the width-1
// bitvector (a bv-only backend has no other way to spell a condition).
func (s *Session) iteOverRealizedBool(op Op, args []*Term) bool {
	if op.Prim != Ite || len(args) != 3 {
		return false
	}
	if !s.boolRealized || s.boolSort.Kind() != BV {
		return false
	}
	return args[0].Sort().Equal(s.boolSort) && args[1].Sort().Equal(args[2].Sort())
}

// canonicalize routes a candidate leaf through the hash-cons table.
func (s *Session) canonicalize(cand *Term) *Term {
	if existing := s.table.lookup(cand); existing != nil {
		if r, releasable := s.backend.(TermReleaser); releasable {
			r.ReleaseTerm(cand.Handle())
		}
		return existing
	}
	s.table.insert(cand)
	return cand
}

/*
 *   Solving pass-through
 */

// SetOpt forwards a solver option to the backend.
func (s *Session) SetOpt(option, value string) error {
	if err := s.backend.SetOpt(option, value); err != nil {
		return backendErr(err)
	}
	return nil
}

// SetLogic forwards the logic string to the backend.
func (s *Session) SetLogic(logic string) error {
	if err := s.backend.SetLogic(logic); err != nil {
		return backendErr(err)
	}
	return nil
}

// Assert adds a formula to the backend's assertion stack.
func (s *Session) Assert(t *Term) error {
	boolSort, err := s.BoolSort()
	if err != nil {
		return err
	}
	if !t.Sort().Equal(boolSort) {
		return usagef("asserted term %s has sort %s, want %s", t, t.Sort(), boolSort)
	}
	if err := s.backend.Assert(t.Handle()); err != nil {
		return backendErr(err)
	}
	return nil
}

// CheckSat checks satisfiability of the asserted formulas.
func (s *Session) CheckSat() (Result, error) {
	r, err := s.backend.CheckSat()
	if err != nil {
		return Unknown, backendErr(err)
	}
	return r, nil
}

// CheckSatAssuming checks satisfiability under additional assumptions.
func (s *Session) CheckSatAssuming(assumptions ...*Term) (Result, error) {
	handles := make([]any, len(assumptions))
	for i, a := range assumptions {
		handles[i] = a.Handle()
	}
	r, err := s.backend.CheckSatAssuming(handles)
	if err != nil {
		return Unknown, backendErr(err)
	}
	return r, nil
}

// Push pushes n assertion levels.
func (s *Session) Push(n uint64) error {
	if err := s.backend.Push(n); err != nil {
		return backendErr(err)
	}
	s.levels += n
	return nil
}

// Pop pops n assertion levels. Popping more levels than were pushed is a
// usage failure, not silently clamped.
func (s *Session) Pop(n uint64) error {
	if n > s.levels {
		return usagef("pop of %d levels with only %d pushed", n, s.levels)
	}
	if err := s.backend.Pop(n); err != nil {
		return backendErr(err)
	}
	s.levels -= n
	return nil
}

// GetValue extracts the value of t under the last satisfiable check, as
// a canonical value node of t's sort.
func (s *Session) GetValue(t *Term) (*Term, error) {
	handle, repr, err := s.backend.GetValue(t.Handle())
	if err != nil {
		return nil, backendErr(err)
	}
	return s.canonicalize(newValue(repr, t.Sort(), handle)), nil
}

// GetArrayValues extracts the index -> value assignment of an array term
// under the last satisfiable check, plus the constant base value if the
// model has one. A constant base for an array of arrays is unsupported.
func (s *Session) GetArrayValues(arr *Term) (map[*Term]*Term, *Term, error) {
	arrSort := arr.Sort()
	if arrSort.Kind() != ARRAY {
		return nil, nil, usagef("GetArrayValues on non-array term %s", arr)
	}
	bindings, base, err := s.backend.GetArrayValues(arr.Handle())
	if err != nil {
		return nil, nil, backendErr(err)
	}

	var baseTerm *Term
	if base != nil {
		if arrSort.ElemSort().Kind() == ARRAY {
			return nil, nil, unsupportedf(
				"constant base for multidimensional array")
		}
		baseTerm = s.canonicalize(newValue(base.ValueRepr, arrSort.ElemSort(), base.Value))
	}

	assignments := make(map[*Term]*Term, len(bindings))
	for _, b := range bindings {
		idx := s.canonicalize(newValue(b.IndexRepr, arrSort.IndexSort(), b.Index))
		val := s.canonicalize(newValue(b.ValueRepr, arrSort.ElemSort(), b.Value))
		assignments[idx] = val
	}
	return assignments, baseTerm, nil
}

// Reset clears the backend state, the hash-cons table, the symbol
// registry and the assertion-stack balance.
func (s *Session) Reset() error {
	if err := s.backend.Reset(); err != nil {
		return backendErr(err)
	}
	s.table.clear()
	s.sortHandles = map[string]any{}
	s.symbols = map[string]bool{}
	s.levels = 0
	s.boolRealized = false
	return nil
}

/*
 *   Literal validation
 */

func validateIntLiteral(v *big.Int, sort Sort) error {
	switch sort.Kind() {
	case INT, REAL:
		return nil
	case BV:
		bound := new(big.Int).Lsh(big.NewInt(1), uint(sort.Width()))
		low := new(big.Int).Neg(new(big.Int).Rsh(bound, 1))
		if v.Cmp(bound) >= 0 || v.Cmp(low) < 0 {
			return usagef("literal %s out of range for %s", v, sort)
		}
		return nil
	}
	return usagef("cannot build numeric literal of sort %s", sort)
}

func normalizeLiteral(text string, base int, sort Sort) (string, error) {
	switch base {
	case 2, 10, 16:
	default:
		return "", usagef("unsupported literal base %d", base)
	}
	if sort.Kind() == REAL {
		if base != 10 {
			return "", usagef("real literal %q must use base 10", text)
		}
		if _, ok := new(big.Rat).SetString(text); !ok {
			return "", usagef("malformed real literal %q", text)
		}
		return text, nil
	}

	v, ok := new(big.Int).SetString(strings.TrimSpace(text), base)
	if !ok {
		return "", usagef("malformed base-%d literal %q", base, text)
	}
	if sort.Kind() == BV && v.Sign() < 0 {
		return "", usagef("negative bitvector literal %q", text)
	}
	if err := validateIntLiteral(v, sort); err != nil {
		return "", err
	}
	return v.String(), nil
}
