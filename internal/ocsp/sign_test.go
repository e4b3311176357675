package ocsp

import (
	"crypto"
	"crypto/ecdsa"
	"crypto/ed25519"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/rsa"
	"io"
	"testing"
)

func TestSignTBS_ECDSAP256UsesSHA256(t *testing.T) {
	priv, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		t.Fatal(err)
	}
	oid, sig, err := signTBS(priv, []byte("tbs bytes"))
	if err != nil {
		t.Fatalf("signTBS() error = %v", err)
	}
	if !oid.Equal(OIDECDSAWithSHA256) {
		t.Errorf("oid = %v, want ecdsa-with-SHA256", oid)
	}
	if len(sig) == 0 {
		t.Error("signature should not be empty")
	}
}

func TestSignTBS_ECDSAP384UsesSHA384(t *testing.T) {
	priv, err := ecdsa.GenerateKey(elliptic.P384(), rand.Reader)
	if err != nil {
		t.Fatal(err)
	}
	oid, _, err := signTBS(priv, []byte("tbs bytes"))
	if err != nil {
		t.Fatalf("signTBS() error = %v", err)
	}
	if !oid.Equal(OIDECDSAWithSHA384) {
		t.Errorf("oid = %v, want ecdsa-with-SHA384", oid)
	}
}

func TestSignTBS_ECDSAP521UsesSHA512(t *testing.T) {
	priv, err := ecdsa.GenerateKey(elliptic.P521(), rand.Reader)
	if err != nil {
		t.Fatal(err)
	}
	oid, _, err := signTBS(priv, []byte("tbs bytes"))
	if err != nil {
		t.Fatalf("signTBS() error = %v", err)
	}
	if !oid.Equal(OIDECDSAWithSHA512) {
		t.Errorf("oid = %v, want ecdsa-with-SHA512", oid)
	}
}

func TestSignTBS_Ed25519(t *testing.T) {
	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		t.Fatal(err)
	}
	oid, sig, err := signTBS(priv, []byte("tbs bytes"))
	if err != nil {
		t.Fatalf("signTBS() error = %v", err)
	}
	if !oid.Equal(OIDEd25519) {
		t.Errorf("oid = %v, want id-Ed25519", oid)
	}
	if !ed25519.Verify(pub, []byte("tbs bytes"), sig) {
		t.Error("Ed25519 signature does not verify over the raw message")
	}
}

func TestSignTBS_RSAUsesSHA256(t *testing.T) {
	priv, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		t.Fatal(err)
	}
	oid, sig, err := signTBS(priv, []byte("tbs bytes"))
	if err != nil {
		t.Fatalf("signTBS() error = %v", err)
	}
	if !oid.Equal(OIDSHA256WithRSA) {
		t.Errorf("oid = %v, want sha256WithRSAEncryption", oid)
	}
	if len(sig) == 0 {
		t.Error("signature should not be empty")
	}
}

type unsupportedSigner struct{}

func (unsupportedSigner) Public() crypto.PublicKey { return "not a real key" }
func (unsupportedSigner) Sign(_ io.Reader, _ []byte, _ crypto.SignerOpts) ([]byte, error) {
	return nil, nil
}

func TestSignTBS_UnsupportedKeyType(t *testing.T) {
	_, _, err := signTBS(unsupportedSigner{}, []byte("tbs"))
	if err == nil {
		t.Error("signTBS() should fail for an unsupported key type")
	}
}
