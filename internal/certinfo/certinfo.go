// Package certinfo is the certificate-info collaborator of spec.md §6:
// given a DER certificate, it returns the subject/issuer DNs and the raw
// public key bits the responder registry and CertID hashing need. It is
// grounded on internal/ocsp's original NewCertID, which pulled the same
// fields (RawSubject, RawSubjectPublicKeyInfo) out of a parsed
// *x509.Certificate.
package certinfo

import (
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/asn1"
	"fmt"
)

// Info holds the fields the registry needs from an issuer or responder
// certificate, per spec.md §6's certificate-info collaborator contract.
type Info struct {
	SubjectDN        string
	IssuerDN         string
	PublicKeyDER     []byte // raw bit-string content of SubjectPublicKeyInfo.subjectPublicKey
	RawCertificate   []byte
	ParsedCertificate *x509.Certificate
}

// Extract parses DER certificate bytes and returns the fields the registry
// needs. Extraction of the public key bits mirrors x509.Certificate's own
// RawSubjectPublicKeyInfo parsing: the SubjectPublicKeyInfo SEQUENCE's
// second field is a BIT STRING whose content (minus the leading
// unused-bits octet) is what OCSP hashes.
func Extract(certDER []byte) (*Info, error) {
	cert, err := x509.ParseCertificate(certDER)
	if err != nil {
		return nil, fmt.Errorf("certinfo: parse certificate: %w", err)
	}

	var spki struct {
		Algorithm pkix.AlgorithmIdentifier
		PublicKey asn1.BitString
	}
	if _, err := asn1.Unmarshal(cert.RawSubjectPublicKeyInfo, &spki); err != nil {
		return nil, fmt.Errorf("certinfo: parse SubjectPublicKeyInfo: %w", err)
	}

	return &Info{
		SubjectDN:         cert.Subject.String(),
		IssuerDN:          cert.Issuer.String(),
		PublicKeyDER:      spki.PublicKey.RightAlign(),
		RawCertificate:    certDER,
		ParsedCertificate: cert,
	}, nil
}
