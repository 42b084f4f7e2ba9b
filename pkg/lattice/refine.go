package lattice

// Refinement relates an outer time domain to a finer inner one. Outer times embed into the inner
// domain (at "iteration zero") and inner times project back onto the outer domain.
type Refinement[TO Lattice[TO], TI Lattice[TI]] interface {
	ToInner(outer TO) TI
	ToOuter(inner TI) TO
}

// ProductRefinement refines a time O into Product[O, I] by adding an inner coordinate.
type ProductRefinement[O Lattice[O], I Lattice[I]] struct{}

func (ProductRefinement[O, I]) ToInner(outer O) Product[O, I] {
	return Product[O, I]{Outer: outer}
}

func (ProductRefinement[O, I]) ToOuter(inner Product[O, I]) O { return inner.Outer }

// ToInnerFrontier maps an outer frontier into the inner domain.
func ToInnerFrontier[TO Lattice[TO], TI Lattice[TI]](r Refinement[TO, TI], frontier []TO) Antichain[TI] {
	result := make(Antichain[TI], 0, len(frontier))
	for _, t := range frontier {
		result = result.Insert(r.ToInner(t))
	}
	return result
}

// ToOuterFrontier projects an inner frontier onto the outer domain, keeping minimal elements.
func ToOuterFrontier[TO Lattice[TO], TI Lattice[TI]](r Refinement[TO, TI], frontier []TI) Antichain[TO] {
	result := make(Antichain[TO], 0, len(frontier))
	for _, t := range frontier {
		result = result.Insert(r.ToOuter(t))
	}
	return result
}
