package ocsp

import (
	"bytes"

	"github.com/remiblancher/ocspresponder/internal/der"
)

// CertID identifies a certificate within an OCSP request or response, per
// RFC 6960 §4.1.1. SerialNumber preserves the exact DER content octets of
// the request's INTEGER field, not a normalized big.Int, so that CertID
// equality and re-encoding are byte-exact (spec.md §3's round-trip
// invariant).
type CertID struct {
	HashAlgorithm  der.OID
	IssuerNameHash []byte
	IssuerKeyHash  []byte
	SerialNumber   []byte
}

// Equal reports whether two CertIDs are byte-equal in all four components.
func (c CertID) Equal(other CertID) bool {
	return c.HashAlgorithm.Equal(other.HashAlgorithm) &&
		bytes.Equal(c.IssuerNameHash, other.IssuerNameHash) &&
		bytes.Equal(c.IssuerKeyHash, other.IssuerKeyHash) &&
		bytes.Equal(c.SerialNumber, other.SerialNumber)
}

// Encode builds the CertID SEQUENCE element:
//
//	CertID ::= SEQUENCE {
//	  hashAlgorithm  AlgorithmIdentifier,
//	  issuerNameHash OCTET STRING,
//	  issuerKeyHash  OCTET STRING,
//	  serialNumber   CertificateSerialNumber }
func (c CertID) Encode() *der.Element {
	algID := der.NewSequence(der.NewOID(c.HashAlgorithm), der.NewNull())
	return der.NewSequence(
		algID,
		der.NewOctetString(c.IssuerNameHash),
		der.NewOctetString(c.IssuerKeyHash),
		der.NewIntegerFromBytes(c.SerialNumber),
	)
}

// DecodeCertID extracts a CertID from its SEQUENCE element by positional
// access, per spec.md §4.2 step 7: field 0 is the hash-algorithm
// AlgorithmIdentifier (its first inner OID is taken), field 1 is
// issuerNameHash, field 2 is issuerKeyHash, field 3 is serialNumber.
func DecodeCertID(el *der.Element) (CertID, error) {
	if el == nil || !el.IsUniversal(der.TagSequence) {
		return CertID{}, newParseErr("CertID is not a SEQUENCE")
	}
	algID := el.ChildAtIndex(0)
	nameHash := el.ChildAtIndex(1)
	keyHash := el.ChildAtIndex(2)
	serial := el.ChildAtIndex(3)
	if algID == nil || nameHash == nil || keyHash == nil || serial == nil {
		return CertID{}, newParseErr("CertID missing one of its four fields")
	}

	oidEl := algID.ChildAtIndex(0)
	if oidEl == nil {
		return CertID{}, newParseErr("CertID hashAlgorithm missing OID")
	}
	oid, err := oidEl.OID()
	if err != nil {
		return CertID{}, newParseErr("CertID hashAlgorithm: " + err.Error())
	}
	if !nameHash.IsUniversal(der.TagOctetString) || !keyHash.IsUniversal(der.TagOctetString) {
		return CertID{}, newParseErr("CertID name/key hash must be OCTET STRING")
	}
	if !serial.IsUniversal(der.TagInteger) {
		return CertID{}, newParseErr("CertID serialNumber must be INTEGER")
	}

	return CertID{
		HashAlgorithm:  oid,
		IssuerNameHash: nameHash.Value,
		IssuerKeyHash:  keyHash.Value,
		SerialNumber:   serial.IntBytes(),
	}, nil
}
