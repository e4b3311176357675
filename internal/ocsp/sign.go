package ocsp

import (
	"crypto"
	"crypto/ecdsa"
	"crypto/ed25519"
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha256"
	"crypto/sha512"
	"fmt"

	"github.com/remiblancher/ocspresponder/internal/der"
)

// signTBS signs the DER encoding of ResponseData with the responder's
// private key, choosing the signature algorithm from the public key type
// exactly as the teacher's ResponseBuilder.sign did for its classical
// branches (ECDSA by curve bit size, Ed25519 over the raw message, RSA
// PKCS#1 v1.5 with SHA-256). Post-quantum branches (ML-DSA, SLH-DSA) are
// dropped — see DESIGN.md.
func signTBS(signer crypto.Signer, tbs []byte) (der.OID, []byte, error) {
	switch pub := signer.Public().(type) {
	case *ecdsa.PublicKey:
		h, oid := ecdsaHashAndOID(pub.Curve.Params().BitSize)
		digest := hashWith(h, tbs)
		sig, err := signer.Sign(rand.Reader, digest, h)
		if err != nil {
			return nil, nil, err
		}
		return oid, sig, nil

	case ed25519.PublicKey:
		sig, err := signer.Sign(rand.Reader, tbs, crypto.Hash(0))
		if err != nil {
			return nil, nil, err
		}
		return OIDEd25519, sig, nil

	case *rsa.PublicKey:
		digest := sha256.Sum256(tbs)
		sig, err := signer.Sign(rand.Reader, digest[:], crypto.SHA256)
		if err != nil {
			return nil, nil, err
		}
		return OIDSHA256WithRSA, sig, nil

	default:
		return nil, nil, fmt.Errorf("unsupported responder key type %T", pub)
	}
}

func ecdsaHashAndOID(bitSize int) (crypto.Hash, der.OID) {
	switch {
	case bitSize <= 256:
		return crypto.SHA256, OIDECDSAWithSHA256
	case bitSize <= 384:
		return crypto.SHA384, OIDECDSAWithSHA384
	default:
		return crypto.SHA512, OIDECDSAWithSHA512
	}
}

func hashWith(h crypto.Hash, data []byte) []byte {
	switch h {
	case crypto.SHA256:
		sum := sha256.Sum256(data)
		return sum[:]
	case crypto.SHA384:
		sum := sha512.Sum384(data)
		return sum[:]
	default:
		sum := sha512.Sum512(data)
		return sum[:]
	}
}
