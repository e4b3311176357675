// Package crl implements the CRL builder of spec.md §4.6: a hand-built
// CertificateList per RFC 5280 §5, assembled through internal/der rather
// than crypto/x509's CreateRevocationList (which cannot express
// invalidityDate or holdInstructionCode entries).
package crl

import (
	"crypto"
	"fmt"
	"time"

	"github.com/remiblancher/ocspresponder/internal/certinfo"
	"github.com/remiblancher/ocspresponder/internal/der"
	"github.com/remiblancher/ocspresponder/internal/ocsp"
)

// Version selects the TBSCertList version field, present only for v2.
type Version int

const (
	V1 Version = 1
	V2 Version = 2
)

// RevokedEntry is one entry of the CRL's revokedCertificates list, per
// spec.md §3's "revoked certificate (CRL side)" type.
type RevokedEntry struct {
	Serial          []byte
	RevocationDate  time.Time
	Reason          *ocsp.RevocationReason
	InvalidityDate  time.Time // zero value omits the extension
	HoldInstruction der.OID   // nil omits the extension
}

// Metadata is the CRL-level configuration of spec.md §4.6.
type Metadata struct {
	Number  int64
	Version Version
	Days    int
}

// Extension identifiers, mirroring internal/ocsp/oid.go's naming.
// Duplicated rather than imported to keep this package's dependency on
// internal/ocsp limited to the CertStatus reason type it already needs.
var (
	oidCRLReason              = der.OID{2, 5, 29, 21}
	oidInvalidityDate         = der.OID{2, 5, 29, 24}
	oidHoldInstructionCode    = der.OID{2, 5, 29, 23}
	oidAuthorityKeyIdentifier = der.OID{2, 5, 29, 35}
	oidCRLNumber              = der.OID{2, 5, 29, 20}
)

// holdInstructionCallIssuer is the default holdInstructionCode value when
// a caller sets HoldInstruction without picking a specific arc.
var holdInstructionCallIssuer = der.OID{2, 2, 840, 10040, 2, 2}

// NewHoldEntry builds a RevokedEntry for the certificateHold reason using
// the id-holdinstruction-callissuer arc, the common default for hold
// entries that don't need a more specific instruction.
func NewHoldEntry(serial []byte, revocationDate time.Time) RevokedEntry {
	reason := ocsp.ReasonCertificateHold
	return RevokedEntry{
		Serial:          serial,
		RevocationDate:  revocationDate,
		Reason:          &reason,
		HoldInstruction: holdInstructionCallIssuer,
	}
}

// Build assembles and signs a CertificateList for issuer, per spec.md
// §4.6's rule set. now is used as thisUpdate; nextUpdate = now + Days.
func Build(issuer *certinfo.Info, signer crypto.Signer, meta Metadata, now time.Time, entries []RevokedEntry) ([]byte, error) {
	sigAlgOID, err := signatureAlgorithmFor(signer)
	if err != nil {
		return nil, fmt.Errorf("crl: %w", err)
	}
	sigAlgElement := der.NewSequence(der.NewOID(sigAlgOID), der.NewNull())

	tbs, err := buildTBSCertList(issuer, meta, now, entries, sigAlgElement)
	if err != nil {
		return nil, fmt.Errorf("crl: build tbsCertList: %w", err)
	}
	tbsDER := der.Encode(tbs)

	signature, err := signWithAlgorithm(signer, sigAlgOID, tbsDER)
	if err != nil {
		return nil, fmt.Errorf("crl: sign tbsCertList: %w", err)
	}

	certList := der.NewSequence(tbs, sigAlgElement, der.NewBitString(signature))
	return der.Encode(certList), nil
}

func buildTBSCertList(issuer *certinfo.Info, meta Metadata, now time.Time, entries []RevokedEntry, sigAlgElement *der.Element) (*der.Element, error) {
	var children []*der.Element

	if meta.Version == V2 {
		children = append(children, der.NewIntegerFromInt64(1)) // v2 encodes as INTEGER 1
	}

	children = append(children, sigAlgElement)
	children = append(children, encodeIssuerName(issuer))
	children = append(children, der.NewUTCTime(now))

	nextUpdate := now.AddDate(0, 0, meta.Days)
	children = append(children, der.NewUTCTime(nextUpdate))

	if len(entries) > 0 {
		var revokedEls []*der.Element
		for _, e := range entries {
			revokedEls = append(revokedEls, encodeRevokedEntry(e, meta.Version))
		}
		children = append(children, der.NewSequence(revokedEls...))
	}

	if meta.Version == V2 {
		var extEls []*der.Element
		if len(issuer.PublicKeyDER) > 0 {
			extEls = append(extEls, encodeAuthorityKeyIdentifier(issuer))
		}
		extEls = append(extEls, encodeCRLNumber(meta.Number))
		children = append(children, der.Explicit(0, der.NewSequence(extEls...)))
	}

	return der.NewSequence(children...), nil
}

// encodeIssuerName re-encodes the issuer's RDNSequence from its parsed
// certificate's raw subject bytes, preserving exact DER content rather
// than reconstructing the Name from x509.Certificate.Issuer's decomposed
// fields (which would not necessarily round-trip attribute ordering).
func encodeIssuerName(issuer *certinfo.Info) *der.Element {
	el, err := der.Decode(issuer.ParsedCertificate.RawSubject)
	if err != nil {
		// Fall back to an empty Name SEQUENCE if the raw subject cannot
		// be parsed by the DER codec for some reason; this should not
		// happen for any certificate that itself parsed successfully.
		return der.NewSequence()
	}
	return el
}

func encodeRevokedEntry(e RevokedEntry, version Version) *der.Element {
	fields := []*der.Element{
		der.NewIntegerFromBytes(e.Serial),
		der.NewUTCTime(e.RevocationDate),
	}

	if version == V2 {
		var extEls []*der.Element
		if e.Reason != nil {
			extEls = append(extEls, der.NewSequence(
				der.NewOID(oidCRLReason),
				der.NewOctetString(der.Encode(der.NewEnumerated(int(*e.Reason)))),
			))
			if *e.Reason == ocsp.ReasonKeyCompromise && !e.InvalidityDate.IsZero() {
				extEls = append(extEls, der.NewSequence(
					der.NewOID(oidInvalidityDate),
					der.NewOctetString(der.Encode(der.NewGeneralizedTime(e.InvalidityDate))),
				))
			}
			if *e.Reason == ocsp.ReasonCertificateHold && e.HoldInstruction != nil {
				extEls = append(extEls, der.NewSequence(
					der.NewOID(oidHoldInstructionCode),
					der.NewOctetString(der.Encode(der.NewOID(e.HoldInstruction))),
				))
			}
		}
		if len(extEls) > 0 {
			fields = append(fields, der.NewSequence(extEls...))
		}
	}

	return der.NewSequence(fields...)
}

func encodeAuthorityKeyIdentifier(issuer *certinfo.Info) *der.Element {
	keyID := sha1Sum(issuer.PublicKeyDER)
	akiValue := der.NewSequence(der.ImplicitPrimitive(der.ClassContextSpecific, 0, der.NewOctetString(keyID)))
	return der.NewSequence(
		der.NewOID(oidAuthorityKeyIdentifier),
		der.NewOctetString(der.Encode(akiValue)),
	)
}

func encodeCRLNumber(number int64) *der.Element {
	return der.NewSequence(
		der.NewOID(oidCRLNumber),
		der.NewOctetString(der.Encode(der.NewIntegerFromInt64(number))),
	)
}
