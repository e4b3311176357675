package crypto

import (
	"crypto"
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha256"
	"crypto/x509"
	"os"
	"path/filepath"
	"testing"
)

func TestU_Algorithm_Properties(t *testing.T) {
	tests := []struct {
		name        string
		alg         AlgorithmID
		wantValid   bool
		wantClassic bool
		wantSig     bool
	}{
		{"[Unit] Properties: EC P-256", AlgECDSAP256, true, true, true},
		{"[Unit] Properties: EC P-384", AlgECDSAP384, true, true, true},
		{"[Unit] Properties: EC P-521", AlgECDSAP521, true, true, true},
		{"[Unit] Properties: Ed25519", AlgEd25519, true, true, true},
		{"[Unit] Properties: RSA-2048", AlgRSA2048, true, true, true},
		{"[Unit] Properties: RSA-4096", AlgRSA4096, true, true, true},
		{"[Unit] Properties: Invalid Algorithm", "invalid", false, false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.alg.IsValid(); got != tt.wantValid {
				t.Errorf("IsValid() = %v, want %v", got, tt.wantValid)
			}
			if got := tt.alg.IsClassical(); got != tt.wantClassic {
				t.Errorf("IsClassical() = %v, want %v", got, tt.wantClassic)
			}
			if got := tt.alg.IsSignature(); got != tt.wantSig {
				t.Errorf("IsSignature() = %v, want %v", got, tt.wantSig)
			}
		})
	}
}

func TestU_Algorithm_OID(t *testing.T) {
	tests := []struct {
		name    string
		alg     AlgorithmID
		wantOID bool
	}{
		{"[Unit] OID: EC P-256", AlgECDSAP256, true},
		{"[Unit] OID: Ed25519", AlgEd25519, true},
		{"[Unit] OID: RSA-2048", AlgRSA2048, true},
		{"[Unit] OID: Invalid", "invalid", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			oid := tt.alg.OID()
			if tt.wantOID && oid == nil {
				t.Error("expected OID, got nil")
			}
			if !tt.wantOID && oid != nil {
				t.Errorf("expected nil OID, got %v", oid)
			}
		})
	}
}

func TestU_ParseAlgorithm(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    AlgorithmID
		wantErr bool
	}{
		{"[Unit] Parse: ECDSA P-256", "ecdsa-p256", AlgECDSAP256, false},
		{"[Unit] Parse: RSA-4096", "rsa-4096", AlgRSA4096, false},
		{"[Unit] Parse: Invalid", "invalid", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseAlgorithm(tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("ParseAlgorithm() error = %v, wantErr %v", err, tt.wantErr)
				return
			}
			if got != tt.want {
				t.Errorf("ParseAlgorithm() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestU_KeyGen_SignatureAlgorithms(t *testing.T) {
	for _, alg := range SignatureAlgorithms() {
		t.Run(string(alg), func(t *testing.T) {
			kp, err := GenerateKeyPair(alg)
			if err != nil {
				t.Fatalf("GenerateKeyPair(%s) error = %v", alg, err)
			}
			if kp.Algorithm != alg {
				t.Errorf("Algorithm = %v, want %v", kp.Algorithm, alg)
			}
			if kp.PublicKey == nil || kp.PrivateKey == nil {
				t.Error("expected non-nil public and private keys")
			}
		})
	}
}

func TestU_KeyGen_AlgorithmInvalid(t *testing.T) {
	if _, err := GenerateKeyPair("invalid"); err == nil {
		t.Error("expected error for invalid algorithm")
	}
}

func isEdDSA(alg AlgorithmID) bool {
	return alg == AlgEd25519
}

func TestSoftwareSigner_SignVerify(t *testing.T) {
	signatureAlgs := []AlgorithmID{
		AlgECDSAP256,
		AlgECDSAP384,
		AlgECDSAP521,
		AlgEd25519,
		AlgRSA2048,
	}

	message := []byte("test message for signing")

	for _, alg := range signatureAlgs {
		t.Run(string(alg), func(t *testing.T) {
			signer, err := GenerateSoftwareSigner(alg)
			if err != nil {
				t.Fatalf("GenerateSoftwareSigner(%s) error = %v", alg, err)
			}

			var digest []byte
			var opts crypto.SignerOpts

			if !isEdDSA(alg) {
				h := sha256.Sum256(message)
				digest = h[:]
				opts = crypto.SHA256
			} else {
				digest = message
			}

			sig, err := signer.Sign(rand.Reader, digest, opts)
			if err != nil {
				t.Fatalf("Sign() error = %v", err)
			}
			if len(sig) == 0 {
				t.Error("signature is empty")
			}

			if !Verify(alg, signer.Public(), digest, sig) {
				t.Error("Verify() returned false, expected true")
			}

			wrongDigest := make([]byte, len(digest))
			copy(wrongDigest, digest)
			wrongDigest[0] ^= 0xFF
			if Verify(alg, signer.Public(), wrongDigest, sig) {
				t.Error("Verify() with wrong message should return false")
			}
		})
	}
}

func TestSoftwareSigner_SaveLoad(t *testing.T) {
	tempDir := t.TempDir()

	tests := []struct {
		alg        AlgorithmID
		passphrase []byte
	}{
		{AlgECDSAP256, nil},
		{AlgECDSAP256, []byte("testpassword")},
		{AlgEd25519, nil},
		{AlgRSA2048, nil},
	}

	for _, tt := range tests {
		name := string(tt.alg)
		if tt.passphrase != nil {
			name += "-encrypted"
		}

		t.Run(name, func(t *testing.T) {
			signer, err := GenerateSoftwareSigner(tt.alg)
			if err != nil {
				t.Fatalf("GenerateSoftwareSigner() error = %v", err)
			}

			keyPath := filepath.Join(tempDir, name+".key.pem")
			if err := signer.SavePrivateKey(keyPath, tt.passphrase); err != nil {
				t.Fatalf("SavePrivateKey() error = %v", err)
			}

			info, err := os.Stat(keyPath)
			if err != nil {
				t.Fatalf("Stat() error = %v", err)
			}
			if info.Mode().Perm() != 0600 {
				t.Errorf("key file permissions = %v, want 0600", info.Mode().Perm())
			}

			loaded, err := LoadPrivateKey(keyPath, tt.passphrase)
			if err != nil {
				t.Fatalf("LoadPrivateKey() error = %v", err)
			}
			if loaded.Algorithm() != tt.alg {
				t.Errorf("loaded Algorithm() = %v, want %v", loaded.Algorithm(), tt.alg)
			}

			message := []byte("test message")
			var digest []byte
			var opts crypto.SignerOpts

			if !isEdDSA(tt.alg) {
				h := sha256.Sum256(message)
				digest = h[:]
				opts = crypto.SHA256
			} else {
				digest = message
			}

			sig, err := loaded.Sign(rand.Reader, digest, opts)
			if err != nil {
				t.Fatalf("Sign() error = %v", err)
			}
			if !Verify(tt.alg, signer.Public(), digest, sig) {
				t.Error("signature from loaded key doesn't verify with original public key")
			}
		})
	}
}

func TestLoadPrivateKey_EncryptedWithoutPassphrase(t *testing.T) {
	tempDir := t.TempDir()

	signer, err := GenerateSoftwareSigner(AlgECDSAP256)
	if err != nil {
		t.Fatalf("GenerateSoftwareSigner() error = %v", err)
	}

	keyPath := filepath.Join(tempDir, "encrypted.key.pem")
	if err := signer.SavePrivateKey(keyPath, []byte("secret")); err != nil {
		t.Fatalf("SavePrivateKey() error = %v", err)
	}

	if _, err := LoadPrivateKey(keyPath, nil); err == nil {
		t.Error("expected error loading encrypted key without passphrase")
	}
}

func TestVerifierFromPublicKey(t *testing.T) {
	signer, err := GenerateSoftwareSigner(AlgECDSAP256)
	if err != nil {
		t.Fatalf("GenerateSoftwareSigner() error = %v", err)
	}

	verifier, err := VerifierFromPublicKey(AlgECDSAP256, signer.Public())
	if err != nil {
		t.Fatalf("VerifierFromPublicKey() error = %v", err)
	}

	message := []byte("verify me")
	h := sha256.Sum256(message)
	sig, err := signer.Sign(rand.Reader, h[:], crypto.SHA256)
	if err != nil {
		t.Fatalf("Sign() error = %v", err)
	}

	if !verifier.Verify(h[:], sig) {
		t.Error("expected verification to succeed")
	}

	h[0] ^= 0xFF
	if verifier.Verify(h[:], sig) {
		t.Error("expected verification failure for tampered digest")
	}
}

func TestAllAlgorithms(t *testing.T) {
	algs := AllAlgorithms()
	if len(algs) != 6 {
		t.Errorf("AllAlgorithms() returned %d algorithms, want 6", len(algs))
	}
	for _, alg := range algs {
		if !alg.IsValid() {
			t.Errorf("algorithm %v is not valid", alg)
		}
		if !alg.IsClassical() {
			t.Errorf("algorithm %v should be classical", alg)
		}
	}
}

func TestClassicalAlgorithms(t *testing.T) {
	algs := ClassicalAlgorithms()
	if len(algs) != len(AllAlgorithms()) {
		t.Errorf("ClassicalAlgorithms() = %d, want %d (everything is classical now)", len(algs), len(AllAlgorithms()))
	}
}

func TestSignerOptsConfig_HashFunc(t *testing.T) {
	tests := []struct {
		name     string
		config   *SignerOptsConfig
		wantHash crypto.Hash
	}{
		{"SHA256", &SignerOptsConfig{Hash: crypto.SHA256}, crypto.SHA256},
		{"SHA384", &SignerOptsConfig{Hash: crypto.SHA384}, crypto.SHA384},
		{"SHA512", &SignerOptsConfig{Hash: crypto.SHA512}, crypto.SHA512},
		{"NoHash", &SignerOptsConfig{Hash: 0}, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.config.HashFunc(); got != tt.wantHash {
				t.Errorf("HashFunc() = %v, want %v", got, tt.wantHash)
			}
		})
	}
}

func TestDefaultSignerOpts(t *testing.T) {
	tests := []struct {
		alg      AlgorithmID
		wantHash crypto.Hash
		wantPSS  bool
	}{
		{AlgECDSAP256, crypto.SHA256, false},
		{AlgECDSAP384, crypto.SHA384, false},
		{AlgECDSAP521, crypto.SHA512, false},
		{AlgRSA2048, crypto.SHA256, true},
		{AlgRSA4096, crypto.SHA256, true},
		{AlgEd25519, 0, false},
	}

	for _, tt := range tests {
		t.Run(string(tt.alg), func(t *testing.T) {
			opts := DefaultSignerOpts(tt.alg)
			if opts == nil {
				t.Fatal("expected non-nil opts")
			}
			if opts.Hash != tt.wantHash {
				t.Errorf("Hash = %v, want %v", opts.Hash, tt.wantHash)
			}
			if opts.UsePSS != tt.wantPSS {
				t.Errorf("UsePSS = %v, want %v", opts.UsePSS, tt.wantPSS)
			}
		})
	}
}

func TestRSAPKCSSignerOpts(t *testing.T) {
	for _, hash := range []crypto.Hash{crypto.SHA256, crypto.SHA384, crypto.SHA512} {
		t.Run(hash.String(), func(t *testing.T) {
			opts := RSAPKCSSignerOpts(hash)
			if opts.Hash != hash {
				t.Errorf("Hash = %v, want %v", opts.Hash, hash)
			}
			if opts.UsePSS {
				t.Error("UsePSS should be false for PKCS#1 v1.5")
			}
		})
	}
}

func TestRSAPSSSignerOpts(t *testing.T) {
	opts := RSAPSSSignerOpts(crypto.SHA256, 32)
	if !opts.UsePSS {
		t.Error("UsePSS should be true for PSS")
	}
	if opts.PSSOptions == nil || opts.PSSOptions.SaltLength != 32 {
		t.Error("unexpected PSSOptions")
	}
}

func TestAlgorithmID_X509SignatureAlgorithm(t *testing.T) {
	tests := []struct {
		alg    AlgorithmID
		wantID x509.SignatureAlgorithm
	}{
		{AlgECDSAP256, x509.ECDSAWithSHA256},
		{AlgECDSAP384, x509.ECDSAWithSHA384},
		{AlgECDSAP521, x509.ECDSAWithSHA512},
		{AlgEd25519, x509.PureEd25519},
		{"invalid", x509.UnknownSignatureAlgorithm},
	}

	for _, tt := range tests {
		t.Run(string(tt.alg), func(t *testing.T) {
			if got := tt.alg.X509SignatureAlgorithm(); got != tt.wantID {
				t.Errorf("X509SignatureAlgorithm() = %v, want %v", got, tt.wantID)
			}
		})
	}
}

func TestAlgorithmID_Description(t *testing.T) {
	if AlgECDSAP256.Description() == "" {
		t.Error("expected non-empty description for a valid algorithm")
	}
	if AlgorithmID("invalid").Description() != "Unknown algorithm" {
		t.Error("expected fallback description for an invalid algorithm")
	}
}

func TestAlgorithmID_String(t *testing.T) {
	if AlgECDSAP256.String() != string(AlgECDSAP256) {
		t.Errorf("String() = %v, want %v", AlgECDSAP256.String(), string(AlgECDSAP256))
	}
}

func TestRSADecrypt(t *testing.T) {
	signer, err := GenerateSoftwareSigner(AlgRSA2048)
	if err != nil {
		t.Fatalf("GenerateSoftwareSigner() error = %v", err)
	}

	rsaPub, ok := signer.Public().(*rsa.PublicKey)
	if !ok {
		t.Fatal("expected RSA public key")
	}

	plaintext := []byte("hello hsm-free world")
	ciphertext, err := rsa.EncryptOAEP(sha256.New(), rand.Reader, rsaPub, plaintext, nil)
	if err != nil {
		t.Fatalf("encrypt error = %v", err)
	}

	decrypted, err := signer.Decrypt(rand.Reader, ciphertext, nil)
	if err != nil {
		t.Fatalf("Decrypt() error = %v", err)
	}
	if string(decrypted) != string(plaintext) {
		t.Errorf("decrypted = %q, want %q", decrypted, plaintext)
	}
}
