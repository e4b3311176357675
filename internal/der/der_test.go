package der

import (
	"bytes"
	"math/big"
	"testing"
	"time"
)

func TestRoundTrip_Sequence(t *testing.T) {
	seq := NewSequence(
		NewIntegerFromInt64(0),
		NewOctetString([]byte{0xde, 0xad, 0xbe, 0xef}),
		NewBoolean(true),
	)
	encoded := Encode(seq)

	decoded, err := Decode(encoded)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	reencoded := Encode(decoded)
	if !bytes.Equal(encoded, reencoded) {
		t.Fatalf("encode(decode(encode(e))) != encode(e): %x != %x", reencoded, encoded)
	}
}

func TestInteger_SignPreservation(t *testing.T) {
	cases := []int64{0, 1, 127, 128, -1, -128, -129, 1000000}
	for _, v := range cases {
		el := NewIntegerFromInt64(v)
		encoded := Encode(el)
		decoded, err := Decode(encoded)
		if err != nil {
			t.Fatalf("v=%d: decode: %v", v, err)
		}
		got, err := decoded.Int()
		if err != nil {
			t.Fatalf("v=%d: Int(): %v", v, err)
		}
		if got.Cmp(big.NewInt(v)) != 0 {
			t.Fatalf("v=%d: got %s", v, got.String())
		}
	}
}

func TestInteger_RawSerialRoundTrip(t *testing.T) {
	raw := []byte{0x0a, 0x1b, 0x2c}
	el := NewIntegerFromBytes(raw)
	encoded := Encode(el)
	decoded, err := Decode(encoded)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !bytes.Equal(decoded.IntBytes(), raw) {
		t.Fatalf("raw serial bytes not preserved: got %x want %x", decoded.IntBytes(), raw)
	}
}

func TestOID_RoundTrip(t *testing.T) {
	oid := OID{1, 3, 6, 1, 5, 5, 7, 48, 1, 1}
	el := NewOID(oid)
	encoded := Encode(el)
	decoded, err := Decode(encoded)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	got, err := decoded.OID()
	if err != nil {
		t.Fatalf("OID(): %v", err)
	}
	if !got.Equal(oid) {
		t.Fatalf("got %s want %s", got, oid)
	}
}

func TestGeneralizedTime_RoundTrip(t *testing.T) {
	in := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	el := NewGeneralizedTime(in)
	if string(el.Value) != "20240101000000Z" {
		t.Fatalf("unexpected encoding: %s", el.Value)
	}
	encoded := Encode(el)
	decoded, err := Decode(encoded)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	got, err := decoded.Time()
	if err != nil {
		t.Fatalf("Time(): %v", err)
	}
	if !got.Equal(in) {
		t.Fatalf("got %v want %v", got, in)
	}
}

func TestUTCTime_YearWindow(t *testing.T) {
	el := &Element{Class: ClassUniversal, Tag: TagUTCTime, Value: []byte("230615101530Z")}
	got, err := el.Time()
	if err != nil {
		t.Fatalf("Time(): %v", err)
	}
	want := time.Date(2023, 6, 15, 10, 15, 30, 0, time.UTC)
	if !got.Equal(want) {
		t.Fatalf("got %v want %v", got, want)
	}
}

func TestExplicitWrapAndUnwrap(t *testing.T) {
	inner := NewIntegerFromInt64(0)
	wrapped := Explicit(0, inner)
	encoded := Encode(wrapped)

	decoded, err := Decode(encoded)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !decoded.IsContextSpecific(0) {
		t.Fatalf("expected context-specific [0], got class=%d tag=%d", decoded.Class, decoded.Tag)
	}
	unwrapped := decoded.Unwrap()
	if unwrapped == nil {
		t.Fatal("Unwrap() returned nil")
	}
	v, err := unwrapped.Int()
	if err != nil {
		t.Fatalf("Int(): %v", err)
	}
	if v.Sign() != 0 {
		t.Fatalf("got %s want 0", v)
	}
}

func TestDecode_RejectsTruncatedLength(t *testing.T) {
	_, err := Decode([]byte{0x30, 0x05, 0x02, 0x01})
	if err == nil {
		t.Fatal("expected DecodeError for truncated content")
	}
	if _, ok := err.(*DecodeError); !ok {
		t.Fatalf("expected *DecodeError, got %T", err)
	}
}

func TestDecode_RejectsIndefiniteLength(t *testing.T) {
	_, err := Decode([]byte{0x30, 0x80, 0x00, 0x00})
	if err == nil {
		t.Fatal("expected DecodeError for indefinite length")
	}
}

func TestDecode_RejectsTrailingGarbage(t *testing.T) {
	// A valid INTEGER 0 followed by one extra byte.
	_, err := Decode([]byte{0x02, 0x01, 0x00, 0xff})
	if err == nil {
		t.Fatal("expected DecodeError for trailing garbage")
	}
}

func TestNthChildOfType(t *testing.T) {
	seq := NewSequence(
		NewIntegerFromInt64(1),
		NewOctetString([]byte("a")),
		NewIntegerFromInt64(2),
	)
	first := seq.NthChildOfType(0, ClassUniversal, TagInteger)
	second := seq.NthChildOfType(1, ClassUniversal, TagInteger)
	if first == nil || second == nil {
		t.Fatal("expected two INTEGER children")
	}
	v1, _ := first.Int()
	v2, _ := second.Int()
	if v1.Int64() != 1 || v2.Int64() != 2 {
		t.Fatalf("got %d, %d", v1.Int64(), v2.Int64())
	}
}
