package crypto

import (
	"crypto"
	"crypto/ecdsa"
	"crypto/ed25519"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/rsa"
	"fmt"
	"io"
)

// KeyPair holds a public/private key pair.
type KeyPair struct {
	Algorithm  AlgorithmID
	PrivateKey crypto.PrivateKey
	PublicKey  crypto.PublicKey
}

// GenerateKeyPair generates a new key pair for the specified algorithm.
//
// Supported algorithms: ecdsa-p256, ecdsa-p384, ecdsa-p521, ed25519,
// rsa-2048, rsa-4096.
//
// Example:
//
//	kp, err := crypto.GenerateKeyPair(crypto.AlgECDSAP256)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Printf("Generated %s key pair\n", kp.Algorithm)
func GenerateKeyPair(alg AlgorithmID) (*KeyPair, error) {
	return GenerateKeyPairWithRand(rand.Reader, alg)
}

// GenerateKeyPairWithRand generates a key pair using the provided random source.
// This is useful for testing with deterministic randomness.
func GenerateKeyPairWithRand(random io.Reader, alg AlgorithmID) (*KeyPair, error) {
	if !alg.IsValid() {
		return nil, fmt.Errorf("unsupported algorithm: %s", alg)
	}

	var priv crypto.PrivateKey
	var pub crypto.PublicKey
	var err error

	switch alg {
	case AlgECDSAP256:
		priv, pub, err = generateECDSA(random, elliptic.P256())
	case AlgECDSAP384:
		priv, pub, err = generateECDSA(random, elliptic.P384())
	case AlgECDSAP521:
		priv, pub, err = generateECDSA(random, elliptic.P521())
	case AlgEd25519:
		priv, pub, err = generateEd25519(random)
	case AlgRSA2048:
		priv, pub, err = generateRSA(random, 2048)
	case AlgRSA4096:
		priv, pub, err = generateRSA(random, 4096)
	default:
		return nil, fmt.Errorf("key generation not implemented for: %s", alg)
	}

	if err != nil {
		return nil, fmt.Errorf("failed to generate %s key: %w", alg, err)
	}

	return &KeyPair{
		Algorithm:  alg,
		PrivateKey: priv,
		PublicKey:  pub,
	}, nil
}

// generateECDSA generates an ECDSA key pair on the specified curve.
func generateECDSA(random io.Reader, curve elliptic.Curve) (crypto.PrivateKey, crypto.PublicKey, error) {
	priv, err := ecdsa.GenerateKey(curve, random)
	if err != nil {
		return nil, nil, err
	}
	return priv, &priv.PublicKey, nil
}

// generateEd25519 generates an Ed25519 key pair.
func generateEd25519(random io.Reader) (crypto.PrivateKey, crypto.PublicKey, error) {
	pub, priv, err := ed25519.GenerateKey(random)
	if err != nil {
		return nil, nil, err
	}
	return priv, pub, nil
}

// generateRSA generates an RSA key pair with the specified bit size.
func generateRSA(random io.Reader, bits int) (crypto.PrivateKey, crypto.PublicKey, error) {
	priv, err := rsa.GenerateKey(random, bits)
	if err != nil {
		return nil, nil, err
	}
	return priv, &priv.PublicKey, nil
}

// PublicKeyBytes returns the public key encoded as bytes.
// The encoding depends on the algorithm type.
func (kp *KeyPair) PublicKeyBytes() ([]byte, error) {
	switch pub := kp.PublicKey.(type) {
	case *ecdsa.PublicKey:
		//nolint:staticcheck // elliptic.Marshal is deprecated but still needed for X.509
		return elliptic.Marshal(pub.Curve, pub.X, pub.Y), nil
	case ed25519.PublicKey:
		return pub, nil
	case *rsa.PublicKey:
		return nil, fmt.Errorf("RSA public key bytes not implemented")
	default:
		return nil, fmt.Errorf("unknown public key type: %T", pub)
	}
}
