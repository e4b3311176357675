package der

// IsUniversal reports whether the element carries a universal-class tag
// equal to tag.
func (e *Element) IsUniversal(tag int) bool {
	return e.Class == ClassUniversal && e.Tag == tag
}

// IsContextSpecific reports whether the element carries a context-specific
// tag equal to tag.
func (e *Element) IsContextSpecific(tag int) bool {
	return e.Class == ClassContextSpecific && e.Tag == tag
}

// GetTypeID returns the element's tag number, regardless of class. Combined
// with Class it identifies the element's ASN.1 type.
func (e *Element) GetTypeID() int {
	return e.Tag
}

// Elements returns the element's direct children. For primitive elements
// this is always empty.
func (e *Element) Elements() []*Element {
	return e.Children
}

// ChildAtIndex returns the i-th direct child (0-based), or nil if out of
// range. Used for positional field access such as CertID's four fields.
func (e *Element) ChildAtIndex(i int) *Element {
	if i < 0 || i >= len(e.Children) {
		return nil
	}
	return e.Children[i]
}

// NthChildOfType returns the n-th (0-based, among matches) direct child
// whose class equals class and tag number equals tagNumber, or nil if
// fewer than n+1 such children exist.
func (e *Element) NthChildOfType(n int, class TagClass, tagNumber int) *Element {
	count := 0
	for _, child := range e.Children {
		if child.Class == class && child.Tag == tagNumber {
			if count == n {
				return child
			}
			count++
		}
	}
	return nil
}

// FirstChildOfType is NthChildOfType(0, class, tagNumber).
func (e *Element) FirstChildOfType(class TagClass, tagNumber int) *Element {
	return e.NthChildOfType(0, class, tagNumber)
}

// Unwrap returns the sole child of a constructed (typically EXPLICIT
// context-specific) wrapper element, or nil if it does not have exactly
// one child.
func (e *Element) Unwrap() *Element {
	if !e.Constructed || len(e.Children) != 1 {
		return nil
	}
	return e.Children[0]
}
