package smt

// TermTranslator rebuilds terms created against one session into an
// equivalent form against exactly one destination session, inserting
// casts where the two backends' sort systems disagree. It keeps a cache
// from source nodes to destination nodes so shared sub-DAGs translate
// once and symbols are never re-declared: callers must pre-seed the
// cache with a destination node for every symbol a term mentions.
// Entries from more than one source session must never be mixed.
type TermTranslator struct {
	dest  *Session
	cache map[*Term]*Term
}

// NewTermTranslator returns a translator targeting dest. The translator
// holds a reference to, but does not own, the destination session.
func NewTermTranslator(dest *Session) *TermTranslator {
	return &TermTranslator{dest: dest, cache: map[*Term]*Term{}}
}

// Dest returns the destination session.
func (tt *TermTranslator) Dest() *Session { return tt.dest }

// Cache returns the source-to-destination node map. Populate it with
// symbol mappings before translating terms that mention them.
func (tt *TermTranslator) Cache() map[*Term]*Term { return tt.cache }

// ClearCache drops every cached mapping.
func (tt *TermTranslator) ClearCache() { tt.cache = map[*Term]*Term{} }

// TransferSort realizes a source sort in the destination session.
// Atomic sorts map directly; array, function and applied-constructor
// sorts recurse into their components. A destination without a native
// boolean sort yields the width-1 bitvector sort for BOOL.
func (tt *TermTranslator) TransferSort(sort Sort) (Sort, error) {
	switch sort.Kind() {
	case BOOL:
		return tt.dest.BoolSort()
	case BV:
		return tt.dest.BVSort(sort.Width())
	case INT:
		return tt.dest.IntSort()
	case REAL:
		return tt.dest.RealSort()
	case ARRAY:
		idx, err := tt.TransferSort(sort.IndexSort())
		if err != nil {
			return Sort{}, err
		}
		elem, err := tt.TransferSort(sort.ElemSort())
		if err != nil {
			return Sort{}, err
		}
		return tt.dest.ArraySort(idx, elem)
	case FUNCTION:
		domain := make([]Sort, 0, len(sort.DomainSorts()))
		for _, d := range sort.DomainSorts() {
			dd, err := tt.TransferSort(d)
			if err != nil {
				return Sort{}, err
			}
			domain = append(domain, dd)
		}
		codomain, err := tt.TransferSort(sort.Codomain())
		if err != nil {
			return Sort{}, err
		}
		return tt.dest.FunSort(domain, codomain)
	case UNINTERPRETED:
		params := sort.ParamSorts()
		if len(params) == 0 {
			return tt.dest.DeclareSort(sort.Name(), 0)
		}
		cons, err := tt.dest.DeclareSort(sort.Name(), uint64(len(params)))
		if err != nil {
			return Sort{}, err
		}
		dparams := make([]Sort, 0, len(params))
		for _, p := range params {
			dp, perr := tt.TransferSort(p)
			if perr != nil {
				return Sort{}, perr
			}
			dparams = append(dparams, dp)
		}
		return tt.dest.ApplySort(cons, dparams...)
	case UNINTERPRETED_CONS:
		return tt.dest.DeclareSort(sort.Name(), sort.Arity())
	}
	return Sort{}, unsupportedf("cannot transfer sort %s", sort)
}

// TransferTerm rebuilds a source term in the destination session,
// reusing previously translated sub-nodes. The traversal is an explicit
// post-order work stack, so formula depth never grows the Go stack.
func (tt *TermTranslator) TransferTerm(t *Term) (*Term, error) {
	type frame struct {
		node    *Term
		visited bool
	}
	stack := []frame{{node: t}}

	for len(stack) > 0 {
		fr := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if _, done := tt.cache[fr.node]; done {
			continue
		}

		if !fr.visited && !fr.node.IsSymbol() && !fr.node.IsValue() {
			stack = append(stack, frame{node: fr.node, visited: true})
			for _, c := range fr.node.Children() {
				if _, done := tt.cache[c]; !done {
					stack = append(stack, frame{node: c})
				}
			}
			continue
		}

		res, err := tt.transferNode(fr.node)
		if err != nil {
			return nil, err
		}
		tt.cache[fr.node] = res
	}
	return tt.cache[t], nil
}

// TransferTermKind is TransferTerm followed by a cast of the result to
// the expected sort kind. Only bool <-> bv1 and int <-> real casts are
// supported.
func (tt *TermTranslator) TransferTermKind(t *Term, sk SortKind) (*Term, error) {
	res, err := tt.TransferTerm(t)
	if err != nil {
		return nil, err
	}
	if res.Sort().Kind() == sk {
		return res, nil
	}
	var target Sort
	switch sk {
	case BOOL:
		if target, err = tt.dest.BoolSort(); err != nil {
			return nil, err
		}
	case BV:
		if target, err = tt.dest.BVSort(1); err != nil {
			return nil, err
		}
	case INT:
		if target, err = tt.dest.IntSort(); err != nil {
			return nil, err
		}
	case REAL:
		if target, err = tt.dest.RealSort(); err != nil {
			return nil, err
		}
	default:
		return nil, unsupportedf("cannot cast %s to sort kind %s", res, sk)
	}
	return tt.castTerm(res, target)
}

// TransferArrayValues translates an index -> value assignment extracted
// from a source model, value by value. Values of array sort mark a
// multidimensional assignment, which is not supported.
func (tt *TermTranslator) TransferArrayValues(assignments map[*Term]*Term) (map[*Term]*Term, error) {
	out := make(map[*Term]*Term, len(assignments))
	for idx, val := range assignments {
		if val.Sort().Kind() == ARRAY {
			return nil, unsupportedf("array-of-arrays value in array assignment")
		}
		didx, err := tt.TransferTerm(idx)
		if err != nil {
			return nil, err
		}
		dval, err := tt.TransferTerm(val)
		if err != nil {
			return nil, err
		}
		out[didx] = dval
	}
	return out, nil
}

// transferNode rebuilds one node whose children (if any) are already in
// the cache.
func (tt *TermTranslator) transferNode(t *Term) (*Term, error) {
	switch {
	case t.IsSymbol():
		// Re-declaring would fail or silently fork the symbol, so the
		// caller must seed the cache first.
		return nil, usagef("symbol %q has no cache entry; seed the translator before transferring", t.Symbol())

	case t.IsValue():
		return tt.transferValue(t)

	default:
		children := make([]*Term, len(t.Children()))
		for i, c := range t.Children() {
			children[i] = tt.cache[c]
		}
		op := t.Op()
		ok, err := tt.dest.Checker().CheckSorts(op, termSorts(children))
		if err != nil {
			return nil, err
		}
		if ok || relaxedSorted(tt.dest.Checker(), op, termSorts(children)) {
			return tt.dest.MakeTerm(op, children...)
		}
		return tt.castOp(op, children)
	}
}

func (tt *TermTranslator) transferValue(t *Term) (*Term, error) {
	dsort, err := tt.TransferSort(t.Sort())
	if err != nil {
		return nil, err
	}
	switch {
	case t.Sort().Kind() == ARRAY && len(t.Children()) == 1:
		elem, err := tt.TransferTerm(t.Children()[0])
		if err != nil {
			return nil, err
		}
		return tt.dest.ConstArray(elem, dsort)
	case t.Sort().Kind() == BOOL:
		return tt.dest.BoolVal(t.Value() == "true")
	default:
		return tt.dest.Val(t.Value(), 10, dsort)
	}
}

/*
 *   Casting
 *
 *   Only the fixed conversion set is supported: bool <-> bv1 (ite /
 *   equality-to-one) and int <-> real (to_real / to_int), plus swapping
 *   a boolean operator for its bitvector counterpart. Anything else is
 *   an unsupported-feature failure, never a silent no-op.
 */

// castOp reapplies op after reconciling the operand sorts with the
// destination's sort system. It assumes the plain application is known
// to be ill-sorted.
func (tt *TermTranslator) castOp(op Op, terms []*Term) (*Term, error) {
	sorts := termSorts(terms)
	switch op.Prim {
	case And, Or, Xor, Not, Implies, Iff:
		if allKind(sorts, BV) && sameSorts(sorts) && sorts[0].Width() == 1 {
			return tt.bvLogical(op.Prim, terms)
		}
		boolSort, err := tt.dest.BoolSort()
		if err != nil {
			return nil, err
		}
		cast, err := tt.castAll(terms, boolSort)
		if err != nil {
			return nil, err
		}
		return tt.dest.MakeTerm(op, cast...)

	case BVAnd, BVOr, BVXor, BVNot:
		if allKind(sorts, BOOL) {
			return tt.dest.MakeTerm(NewOp(boolCounterpart(op.Prim)), terms...)
		}

	case Ite:
		boolSort, err := tt.dest.BoolSort()
		if err != nil {
			return nil, err
		}
		cond, err := tt.castTerm(terms[0], boolSort)
		if err != nil {
			return nil, err
		}
		lhs, rhs, err := tt.reconcileNumeric(terms[1], terms[2])
		if err != nil {
			return nil, err
		}
		return tt.dest.MakeTerm(op, cond, lhs, rhs)

	case Equal, Distinct, Lt, Le, Gt, Ge, Plus, Minus, Mult, Div:
		if mixedNumeric(sorts) {
			cast := make([]*Term, len(terms))
			for i, t := range terms {
				c, err := tt.castTerm(t, RealSort())
				if err != nil {
					return nil, err
				}
				cast[i] = c
			}
			return tt.dest.MakeTerm(op, cast...)
		}
	}
	return nil, unsupportedf("no cast reapplies %s to [%s]", op, fmtTerms(terms))
}

// castTerm converts a term of the destination session to a different
// sort of the destination session.
func (tt *TermTranslator) castTerm(t *Term, sort Sort) (*Term, error) {
	from := t.Sort()
	if from.Equal(sort) {
		return t, nil
	}
	switch {
	case from.Kind() == BOOL && sort.Kind() == BV && sort.Width() == 1:
		one, err := tt.dest.IntVal(1, sort)
		if err != nil {
			return nil, err
		}
		zero, err := tt.dest.IntVal(0, sort)
		if err != nil {
			return nil, err
		}
		return tt.dest.MakeTerm(NewOp(Ite), t, one, zero)

	case from.Kind() == BV && from.Width() == 1 && sort.Kind() == BOOL:
		one, err := tt.dest.IntVal(1, from)
		if err != nil {
			return nil, err
		}
		return tt.dest.MakeTerm(NewOp(Equal), t, one)

	case from.Kind() == INT && sort.Kind() == REAL:
		return tt.dest.MakeTerm(NewOp(ToReal), t)

	case from.Kind() == REAL && sort.Kind() == INT:
		return tt.dest.MakeTerm(NewOp(ToInt), t)
	}
	return nil, unsupportedf("cannot cast %s from %s to %s", t, from, sort)
}

func (tt *TermTranslator) castAll(terms []*Term, sort Sort) ([]*Term, error) {
	out := make([]*Term, len(terms))
	for i, t := range terms {
		c, err := tt.castTerm(t, sort)
		if err != nil {
			return nil, err
		}
		out[i] = c
	}
	return out, nil
}

// reconcileNumeric promotes one side of an int/real pair to real.
func (tt *TermTranslator) reconcileNumeric(lhs, rhs *Term) (*Term, *Term, error) {
	if lhs.Sort().Equal(rhs.Sort()) {
		return lhs, rhs, nil
	}
	if lhs.Sort().Kind() == INT && rhs.Sort().Kind() == REAL {
		l, err := tt.castTerm(lhs, RealSort())
		return l, rhs, err
	}
	if lhs.Sort().Kind() == REAL && rhs.Sort().Kind() == INT {
		r, err := tt.castTerm(rhs, RealSort())
		return lhs, r, err
	}
	return nil, nil, unsupportedf("cannot reconcile branch sorts %s and %s",
		lhs.Sort(), rhs.Sort())
}

// bvLogical rewrites a boolean connective over width-1 bitvectors into
// its bitvector counterpart.
func (tt *TermTranslator) bvLogical(p PrimOp, terms []*Term) (*Term, error) {
	switch p {
	case And:
		return tt.dest.MakeTerm(NewOp(BVAnd), terms...)
	case Or:
		return tt.dest.MakeTerm(NewOp(BVOr), terms...)
	case Xor:
		return tt.dest.MakeTerm(NewOp(BVXor), terms...)
	case Not:
		return tt.dest.MakeTerm(NewOp(BVNot), terms...)
	case Implies:
		res := terms[len(terms)-1]
		for i := len(terms) - 2; i >= 0; i-- {
			neg, err := tt.dest.MakeTerm(NewOp(BVNot), terms[i])
			if err != nil {
				return nil, err
			}
			if res, err = tt.dest.MakeTerm(NewOp(BVOr), neg, res); err != nil {
				return nil, err
			}
		}
		return res, nil
	case Iff:
		return tt.dest.MakeTerm(NewOp(BVXnor), terms...)
	}
	return nil, unsupportedf("no bitvector counterpart for %s", p)
}

func boolCounterpart(p PrimOp) PrimOp {
	switch p {
	case BVAnd:
		return And
	case BVOr:
		return Or
	case BVXor:
		return Xor
	case BVNot:
		return Not
	}
	return p
}

func mixedNumeric(sorts []Sort) bool {
	ints, reals := false, false
	for _, s := range sorts {
		switch s.Kind() {
		case INT:
			ints = true
		case REAL:
			reals = true
		default:
			return false
		}
	}
	return ints && reals
}
