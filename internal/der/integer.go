package der

import "math/big"

// NewInteger builds a universal INTEGER from a big.Int, using the minimal
// two's-complement encoding DER requires (a leading 0x00 byte is inserted
// only when needed to keep a positive value from looking negative).
func NewInteger(v *big.Int) *Element {
	return &Element{Class: ClassUniversal, Tag: TagInteger, Value: encodeBigInt(v)}
}

// NewIntegerFromInt64 builds a universal INTEGER from a small int64.
func NewIntegerFromInt64(v int64) *Element {
	return NewInteger(big.NewInt(v))
}

// NewIntegerFromBytes builds a universal INTEGER whose content octets are
// exactly raw, used when re-serializing a serial number that must
// round-trip byte-for-byte rather than through big.Int normalization.
func NewIntegerFromBytes(raw []byte) *Element {
	return &Element{Class: ClassUniversal, Tag: TagInteger, Value: raw}
}

// NewEnumerated builds a universal ENUMERATED from a small non-negative
// value, used for CRLReason.
func NewEnumerated(v int) *Element {
	return &Element{Class: ClassUniversal, Tag: TagEnumerated, Value: encodeBigInt(big.NewInt(int64(v)))}
}

func encodeBigInt(v *big.Int) []byte {
	if v.Sign() == 0 {
		return []byte{0x00}
	}
	if v.Sign() > 0 {
		b := v.Bytes()
		if b[0]&0x80 != 0 {
			b = append([]byte{0x00}, b...)
		}
		return b
	}
	// Two's complement negative encoding.
	nBytes := len(v.Bytes())
	// Grow until the top bit correctly signals negative and the magnitude fits.
	for {
		mod := new(big.Int).Lsh(big.NewInt(1), uint(nBytes*8))
		twos := new(big.Int).Add(mod, v) // v is negative
		b := twos.Bytes()
		for len(b) < nBytes {
			b = append([]byte{0x00}, b...)
		}
		if b[0]&0x80 != 0 {
			return b
		}
		nBytes++
	}
}

// Int returns the element's content interpreted as a two's-complement
// signed integer.
func (e *Element) Int() (*big.Int, error) {
	if !e.IsUniversal(TagInteger) && !e.IsUniversal(TagEnumerated) {
		return nil, decodeErrorf(0, "not an INTEGER or ENUMERATED")
	}
	return decodeBigInt(e.Value)
}

// IntBytes returns the element's raw two's-complement content octets
// unmodified, for exact serial-number round-tripping.
func (e *Element) IntBytes() []byte {
	return e.Value
}

func decodeBigInt(b []byte) (*big.Int, error) {
	if len(b) == 0 {
		return nil, decodeErrorf(0, "empty INTEGER content")
	}
	v := new(big.Int)
	if b[0]&0x80 == 0 {
		v.SetBytes(b)
		return v, nil
	}
	// Negative: compute two's complement.
	mod := new(big.Int).Lsh(big.NewInt(1), uint(len(b)*8))
	magnitude := new(big.Int).SetBytes(b)
	v.Sub(magnitude, mod)
	return v, nil
}
