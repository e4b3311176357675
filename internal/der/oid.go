package der

import "fmt"

// OID is a parsed ASN.1 OBJECT IDENTIFIER, e.g. {1, 3, 6, 1, 5, 5, 7, 48, 1}.
type OID []uint64

// Equal reports whether two OIDs name the same object.
func (o OID) Equal(other OID) bool {
	if len(o) != len(other) {
		return false
	}
	for i := range o {
		if o[i] != other[i] {
			return false
		}
	}
	return true
}

// String renders the OID in dotted notation.
func (o OID) String() string {
	s := ""
	for i, arc := range o {
		if i > 0 {
			s += "."
		}
		s += fmt.Sprintf("%d", arc)
	}
	return s
}

// NewOID builds a universal OBJECT IDENTIFIER element.
func NewOID(oid OID) *Element {
	return &Element{Class: ClassUniversal, Tag: TagOID, Value: encodeOID(oid)}
}

// OID decodes the element's content as an OBJECT IDENTIFIER.
func (e *Element) OID() (OID, error) {
	if !e.IsUniversal(TagOID) {
		return nil, decodeErrorf(0, "not an OBJECT IDENTIFIER")
	}
	return decodeOID(e.Value)
}

func encodeOID(oid OID) []byte {
	if len(oid) < 2 {
		panic("der: OID must have at least two arcs")
	}
	var out []byte
	out = append(out, byte(oid[0]*40+oid[1]))
	for _, arc := range oid[2:] {
		out = append(out, encodeBase128(arc)...)
	}
	return out
}

func encodeBase128(v uint64) []byte {
	if v == 0 {
		return []byte{0x00}
	}
	var groups []byte
	for v > 0 {
		groups = append([]byte{byte(v & 0x7f)}, groups...)
		v >>= 7
	}
	for i := 0; i < len(groups)-1; i++ {
		groups[i] |= 0x80
	}
	return groups
}

func decodeOID(b []byte) (OID, error) {
	if len(b) == 0 {
		return nil, decodeErrorf(0, "empty OID content")
	}
	first := b[0]
	oid := OID{uint64(first) / 40, uint64(first) % 40}

	var v uint64
	inArc := false
	for i := 1; i < len(b); i++ {
		v = v<<7 | uint64(b[i]&0x7f)
		inArc = true
		if b[i]&0x80 == 0 {
			oid = append(oid, v)
			v = 0
			inArc = false
		}
	}
	if inArc {
		return nil, decodeErrorf(0, "truncated OID arc")
	}
	return oid, nil
}
