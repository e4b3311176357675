package der

// NewSequence builds a constructed universal SEQUENCE from children.
func NewSequence(children ...*Element) *Element {
	return &Element{Class: ClassUniversal, Tag: TagSequence, Constructed: true, Children: children}
}

// NewSet builds a constructed universal SET from children.
func NewSet(children ...*Element) *Element {
	return &Element{Class: ClassUniversal, Tag: TagSet, Constructed: true, Children: children}
}

// NewBoolean builds a universal BOOLEAN.
func NewBoolean(v bool) *Element {
	b := byte(0x00)
	if v {
		b = 0xff
	}
	return &Element{Class: ClassUniversal, Tag: TagBoolean, Value: []byte{b}}
}

// NewNull builds a universal NULL.
func NewNull() *Element {
	return &Element{Class: ClassUniversal, Tag: TagNull, Value: nil}
}

// NewOctetString builds a universal OCTET STRING from raw bytes.
func NewOctetString(v []byte) *Element {
	return &Element{Class: ClassUniversal, Tag: TagOctetString, Value: v}
}

// NewIA5String builds a universal IA5String.
func NewIA5String(v string) *Element {
	return &Element{Class: ClassUniversal, Tag: TagIA5String, Value: []byte(v)}
}

// NewBitString builds a universal BIT STRING from bytes that are already
// whole octets (unusedBits = 0), the case needed for signature values and
// SubjectPublicKeyInfo.
func NewBitString(v []byte) *Element {
	value := make([]byte, len(v)+1)
	copy(value[1:], v)
	return &Element{Class: ClassUniversal, Tag: TagBitString, Value: value}
}

// BitStringBytes returns the content of a BIT STRING with the leading
// unused-bits count byte stripped, valid when unusedBits == 0.
func (e *Element) BitStringBytes() ([]byte, error) {
	if !e.IsUniversal(TagBitString) {
		return nil, decodeErrorf(0, "not a BIT STRING")
	}
	if len(e.Value) == 0 {
		return nil, decodeErrorf(0, "empty BIT STRING")
	}
	if e.Value[0] != 0 {
		return nil, decodeErrorf(0, "BIT STRING has unused bits, cannot treat as whole octets")
	}
	return e.Value[1:], nil
}

// Explicit wraps inner in a constructed, EXPLICIT context-specific tag.
func Explicit(tag int, inner *Element) *Element {
	return &Element{Class: ClassContextSpecific, Tag: tag, Constructed: true, Children: []*Element{inner}}
}

// ImplicitPrimitive re-tags a primitive element's content octets as an
// IMPLICIT context-specific (or application/private) primitive value,
// leaving Value untouched.
func ImplicitPrimitive(class TagClass, tag int, inner *Element) *Element {
	return &Element{Class: class, Tag: tag, Constructed: false, Value: inner.Value}
}

// ImplicitConstructed re-tags a constructed element's children as an
// IMPLICIT context-specific constructed value (e.g. RevokedInfo tagged
// [1] IMPLICIT in CertStatus).
func ImplicitConstructed(class TagClass, tag int, inner *Element) *Element {
	return &Element{Class: class, Tag: tag, Constructed: true, Children: inner.Children}
}

// ContextPrimitive builds a raw primitive context-specific element with the
// given content octets directly (used for empty IMPLICIT NULL variants
// such as CertStatus's good/unknown choices).
func ContextPrimitive(tag int, value []byte) *Element {
	return &Element{Class: ClassContextSpecific, Tag: tag, Constructed: false, Value: value}
}
