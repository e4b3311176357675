// Package crypto provides cryptographic primitives for the responder,
// covering the classical signature algorithms (ECDSA, Ed25519, RSA) an
// RFC 6960/5280 responder signs OCSP responses and CRLs with.
package crypto

import (
	"crypto/x509"
	"encoding/asn1"
	"fmt"
)

// AlgorithmID identifies a cryptographic algorithm.
type AlgorithmID string

// Classical signature algorithms.
const (
	AlgECDSAP256 AlgorithmID = "ecdsa-p256"
	AlgECDSAP384 AlgorithmID = "ecdsa-p384"
	AlgECDSAP521 AlgorithmID = "ecdsa-p521"
	AlgEd25519   AlgorithmID = "ed25519"
	AlgRSA2048   AlgorithmID = "rsa-2048"
	AlgRSA4096   AlgorithmID = "rsa-4096"
)

// AlgorithmType categorizes algorithms.
type AlgorithmType int

const (
	TypeUnknown AlgorithmType = iota
	TypeClassicalSignature
)

// algorithmInfo holds metadata about an algorithm.
type algorithmInfo struct {
	Type        AlgorithmType
	OID         asn1.ObjectIdentifier
	X509SigAlg  x509.SignatureAlgorithm
	KeySizeBits int
	Description string
}

// algorithms maps AlgorithmID to its metadata.
var algorithms = map[AlgorithmID]algorithmInfo{
	AlgECDSAP256: {
		Type:        TypeClassicalSignature,
		OID:         asn1.ObjectIdentifier{1, 2, 840, 10045, 3, 1, 7},
		X509SigAlg:  x509.ECDSAWithSHA256,
		KeySizeBits: 256,
		Description: "ECDSA with P-256 curve",
	},
	AlgECDSAP384: {
		Type:        TypeClassicalSignature,
		OID:         asn1.ObjectIdentifier{1, 3, 132, 0, 34},
		X509SigAlg:  x509.ECDSAWithSHA384,
		KeySizeBits: 384,
		Description: "ECDSA with P-384 curve",
	},
	AlgECDSAP521: {
		Type:        TypeClassicalSignature,
		OID:         asn1.ObjectIdentifier{1, 3, 132, 0, 35},
		X509SigAlg:  x509.ECDSAWithSHA512,
		KeySizeBits: 521,
		Description: "ECDSA with P-521 curve",
	},
	AlgEd25519: {
		Type:        TypeClassicalSignature,
		OID:         asn1.ObjectIdentifier{1, 3, 101, 112},
		X509SigAlg:  x509.PureEd25519,
		KeySizeBits: 256,
		Description: "Ed25519 (EdDSA with Curve25519)",
	},
	AlgRSA2048: {
		Type:        TypeClassicalSignature,
		OID:         asn1.ObjectIdentifier{1, 2, 840, 113549, 1, 1, 1},
		X509SigAlg:  x509.SHA256WithRSA,
		KeySizeBits: 2048,
		Description: "RSA 2048-bit (legacy)",
	},
	AlgRSA4096: {
		Type:        TypeClassicalSignature,
		OID:         asn1.ObjectIdentifier{1, 2, 840, 113549, 1, 1, 1},
		X509SigAlg:  x509.SHA256WithRSA,
		KeySizeBits: 4096,
		Description: "RSA 4096-bit",
	},
}

// IsValid returns true if the algorithm is recognized.
func (a AlgorithmID) IsValid() bool {
	_, ok := algorithms[a]
	return ok
}

// Type returns the algorithm type.
func (a AlgorithmID) Type() AlgorithmType {
	if info, ok := algorithms[a]; ok {
		return info.Type
	}
	return TypeUnknown
}

// IsClassical returns true for classical (non-PQC) algorithms.
func (a AlgorithmID) IsClassical() bool {
	return a.Type() == TypeClassicalSignature
}

// IsSignature returns true for signature algorithms.
func (a AlgorithmID) IsSignature() bool {
	return a.Type() == TypeClassicalSignature
}

// OID returns the ASN.1 Object Identifier for this algorithm.
func (a AlgorithmID) OID() asn1.ObjectIdentifier {
	if info, ok := algorithms[a]; ok {
		return info.OID
	}
	return nil
}

// X509SignatureAlgorithm returns the x509.SignatureAlgorithm if applicable.
// Returns 0 for algorithms not supported by Go's crypto/x509.
func (a AlgorithmID) X509SignatureAlgorithm() x509.SignatureAlgorithm {
	if info, ok := algorithms[a]; ok {
		return info.X509SigAlg
	}
	return 0
}

// Description returns a human-readable description of the algorithm.
func (a AlgorithmID) Description() string {
	if info, ok := algorithms[a]; ok {
		return info.Description
	}
	return "Unknown algorithm"
}

// String returns the algorithm identifier as a string.
func (a AlgorithmID) String() string {
	return string(a)
}

// ParseAlgorithm parses a string into an AlgorithmID.
// Returns an error if the algorithm is not recognized.
func ParseAlgorithm(s string) (AlgorithmID, error) {
	alg := AlgorithmID(s)
	if !alg.IsValid() {
		return "", fmt.Errorf("unknown algorithm: %s", s)
	}
	return alg, nil
}

// AllAlgorithms returns a list of all supported algorithm IDs.
func AllAlgorithms() []AlgorithmID {
	result := make([]AlgorithmID, 0, len(algorithms))
	for alg := range algorithms {
		result = append(result, alg)
	}
	return result
}

// SignatureAlgorithms returns all algorithms that can be used for signing.
func SignatureAlgorithms() []AlgorithmID {
	var result []AlgorithmID
	for alg := range algorithms {
		if alg.IsSignature() {
			result = append(result, alg)
		}
	}
	return result
}

// ClassicalAlgorithms returns all classical algorithms.
func ClassicalAlgorithms() []AlgorithmID {
	return AllAlgorithms()
}
