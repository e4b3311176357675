package crl

import (
	"crypto"
	"crypto/ecdsa"
	"crypto/ed25519"
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha1"
	"crypto/sha256"
	"crypto/sha512"
	"fmt"

	"github.com/remiblancher/ocspresponder/internal/der"
)

// signatureAlgorithmFor and signWithAlgorithm mirror
// internal/ocsp/sign.go's classical-only branching (ECDSA by curve size,
// Ed25519 raw, RSA PKCS#1 v1.5 with SHA-256), split into two calls because
// the CRL's algorithm identifier must be embedded inside tbsCertList
// itself before the signature over it can be computed.
func signatureAlgorithmFor(signer crypto.Signer) (der.OID, error) {
	switch pub := signer.Public().(type) {
	case *ecdsa.PublicKey:
		switch {
		case pub.Curve.Params().BitSize <= 256:
			return der.OID{1, 2, 840, 10045, 4, 3, 2}, nil
		case pub.Curve.Params().BitSize <= 384:
			return der.OID{1, 2, 840, 10045, 4, 3, 3}, nil
		default:
			return der.OID{1, 2, 840, 10045, 4, 3, 4}, nil
		}
	case ed25519.PublicKey:
		return der.OID{1, 3, 101, 112}, nil
	case *rsa.PublicKey:
		return der.OID{1, 2, 840, 113549, 1, 1, 11}, nil
	default:
		return nil, fmt.Errorf("unsupported signer key type %T", pub)
	}
}

func signWithAlgorithm(signer crypto.Signer, alg der.OID, tbs []byte) ([]byte, error) {
	switch signer.Public().(type) {
	case ed25519.PublicKey:
		return signer.Sign(rand.Reader, tbs, crypto.Hash(0))
	case *ecdsa.PublicKey:
		h := hashForECDSA(alg)
		digest := hashBytes(h, tbs)
		return signer.Sign(rand.Reader, digest, h)
	case *rsa.PublicKey:
		digest := sha256.Sum256(tbs)
		return signer.Sign(rand.Reader, digest[:], crypto.SHA256)
	default:
		return nil, fmt.Errorf("unsupported signer key type %T", signer.Public())
	}
}

func hashForECDSA(alg der.OID) crypto.Hash {
	switch {
	case alg.Equal(der.OID{1, 2, 840, 10045, 4, 3, 3}):
		return crypto.SHA384
	case alg.Equal(der.OID{1, 2, 840, 10045, 4, 3, 4}):
		return crypto.SHA512
	default:
		return crypto.SHA256
	}
}

func hashBytes(h crypto.Hash, data []byte) []byte {
	switch h {
	case crypto.SHA384:
		sum := sha512.Sum384(data)
		return sum[:]
	case crypto.SHA512:
		sum := sha512.Sum512(data)
		return sum[:]
	default:
		sum := sha256.Sum256(data)
		return sum[:]
	}
}

func sha1Sum(data []byte) []byte {
	sum := sha1.Sum(data)
	return sum[:]
}
