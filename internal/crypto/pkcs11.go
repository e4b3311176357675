//go:build cgo

// Package crypto provides cryptographic primitives for the PKI.
// This file implements HSM support via PKCS#11 for classical
// (ECDSA/RSA) signing keys.
package crypto

import (
	"crypto"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rsa"
	"crypto/x509"
	"encoding/asn1"
	"encoding/hex"
	"fmt"
	"io"
	"math/big"
	"sync"

	"github.com/miekg/pkcs11"
)

// PKCS11Config holds PKCS#11 configuration.
type PKCS11Config struct {
	// ModulePath is the path to the PKCS#11 module (.so/.dylib/.dll)
	ModulePath string

	// TokenLabel is the label of the token to use
	TokenLabel string

	// TokenSerial is the serial number of the token (alternative to TokenLabel)
	TokenSerial string

	// PIN is the user PIN for the token
	PIN string

	// KeyLabel is the label of the key to use
	KeyLabel string

	// KeyID is the CKA_ID of the key (hex encoded)
	KeyID string

	// SlotID is the slot ID (optional, use TokenLabel if not specified)
	SlotID *uint

	// LogoutAfterUse is carried in the configuration but not read by
	// PKCS11Signer, which always returns sessions to the pool after use.
	LogoutAfterUse bool
}

// PKCS11Signer implements the Signer interface using PKCS#11.
// Sessions are acquired from the pool for each operation and released after.
type PKCS11Signer struct {
	pool      *PKCS11SessionPool
	keyHandle pkcs11.ObjectHandle
	alg       AlgorithmID
	pub       crypto.PublicKey
	mu        sync.Mutex
	closed    bool
}

// NewPKCS11Signer creates a new PKCS#11 signer for a classical key
// already provisioned on the token.
func NewPKCS11Signer(cfg PKCS11Config) (*PKCS11Signer, error) {
	if cfg.ModulePath == "" {
		return nil, fmt.Errorf("PKCS#11 module path is required")
	}
	if cfg.KeyLabel == "" && cfg.KeyID == "" {
		return nil, fmt.Errorf("at least one of key_label or key_id is required")
	}

	slotID, err := findSlotID(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to find slot: %w", err)
	}

	pool, err := GetSessionPool(cfg.ModulePath, slotID, cfg.PIN)
	if err != nil {
		return nil, fmt.Errorf("failed to get session pool: %w", err)
	}

	session, release, err := pool.Acquire()
	if err != nil {
		return nil, fmt.Errorf("failed to acquire session: %w", err)
	}
	defer release()

	keyHandle, err := findPrivateKey(pool.Context(), session, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to find private key: %w", err)
	}

	pub, alg, err := extractPublicKey(pool.Context(), session, keyHandle)
	if err != nil {
		return nil, fmt.Errorf("failed to extract public key: %w", err)
	}

	return &PKCS11Signer{
		pool:      pool,
		keyHandle: keyHandle,
		alg:       alg,
		pub:       pub,
	}, nil
}

// findSlotID resolves the slot for a configuration, returning cfg.SlotID
// when set and otherwise opening a temporary context to look the slot up.
func findSlotID(cfg PKCS11Config) (uint, error) {
	if cfg.SlotID != nil {
		return *cfg.SlotID, nil
	}

	ctx := pkcs11.New(cfg.ModulePath)
	if ctx == nil {
		return 0, fmt.Errorf("failed to load PKCS#11 module: %s", cfg.ModulePath)
	}
	defer ctx.Destroy()

	if err := ctx.Initialize(); err != nil {
		if p11err, ok := err.(pkcs11.Error); !ok || p11err != pkcs11.CKR_CRYPTOKI_ALREADY_INITIALIZED {
			return 0, fmt.Errorf("failed to initialize: %w", err)
		}
	}
	// C_Finalize is a global operation; do not call it here, other
	// callers in this process may still be using the module.

	return findSlot(ctx, cfg)
}

func findSlot(ctx *pkcs11.Ctx, cfg PKCS11Config) (uint, error) {
	if cfg.SlotID != nil {
		return *cfg.SlotID, nil
	}

	slots, err := ctx.GetSlotList(true)
	if err != nil {
		return 0, fmt.Errorf("failed to get slot list: %w", err)
	}
	if len(slots) == 0 {
		return 0, fmt.Errorf("no slots with tokens found")
	}

	for _, slot := range slots {
		info, err := ctx.GetTokenInfo(slot)
		if err != nil {
			continue
		}
		if cfg.TokenLabel != "" && info.Label == cfg.TokenLabel {
			return slot, nil
		}
		if cfg.TokenSerial != "" && info.SerialNumber == cfg.TokenSerial {
			return slot, nil
		}
	}

	if cfg.TokenLabel != "" {
		return 0, fmt.Errorf("token with label %q not found", cfg.TokenLabel)
	}
	if cfg.TokenSerial != "" {
		return 0, fmt.Errorf("token with serial %q not found", cfg.TokenSerial)
	}

	return slots[0], nil
}

func findPrivateKey(ctx *pkcs11.Ctx, session pkcs11.SessionHandle, cfg PKCS11Config) (pkcs11.ObjectHandle, error) {
	template := []*pkcs11.Attribute{
		pkcs11.NewAttribute(pkcs11.CKA_CLASS, pkcs11.CKO_PRIVATE_KEY),
	}
	if cfg.KeyLabel != "" {
		template = append(template, pkcs11.NewAttribute(pkcs11.CKA_LABEL, cfg.KeyLabel))
	}
	if cfg.KeyID != "" {
		id, err := hex.DecodeString(cfg.KeyID)
		if err != nil {
			return 0, fmt.Errorf("invalid key_id hex: %w", err)
		}
		template = append(template, pkcs11.NewAttribute(pkcs11.CKA_ID, id))
	}

	if err := ctx.FindObjectsInit(session, template); err != nil {
		return 0, fmt.Errorf("failed to init find objects: %w", err)
	}
	defer func() { _ = ctx.FindObjectsFinal(session) }()

	objs, _, err := ctx.FindObjects(session, 2)
	if err != nil {
		return 0, fmt.Errorf("failed to find objects: %w", err)
	}
	if len(objs) == 0 {
		return 0, fmt.Errorf("private key not found")
	}
	if len(objs) > 1 {
		return 0, fmt.Errorf("multiple keys found, please specify both key_label and key_id")
	}

	return objs[0], nil
}

func findPublicKeyForPrivate(ctx *pkcs11.Ctx, session pkcs11.SessionHandle, privHandle pkcs11.ObjectHandle) (pkcs11.ObjectHandle, error) {
	attrs, err := ctx.GetAttributeValue(session, privHandle, []*pkcs11.Attribute{
		pkcs11.NewAttribute(pkcs11.CKA_ID, nil),
		pkcs11.NewAttribute(pkcs11.CKA_LABEL, nil),
		pkcs11.NewAttribute(pkcs11.CKA_KEY_TYPE, nil),
	})
	if err != nil {
		return 0, fmt.Errorf("failed to get private key ID/label/type: %w", err)
	}

	template := []*pkcs11.Attribute{
		pkcs11.NewAttribute(pkcs11.CKA_CLASS, pkcs11.CKO_PUBLIC_KEY),
		pkcs11.NewAttribute(pkcs11.CKA_ID, attrs[0].Value),
		pkcs11.NewAttribute(pkcs11.CKA_LABEL, attrs[1].Value),
		pkcs11.NewAttribute(pkcs11.CKA_KEY_TYPE, attrs[2].Value),
	}

	if err := ctx.FindObjectsInit(session, template); err != nil {
		return 0, fmt.Errorf("failed to init find public key: %w", err)
	}
	defer func() { _ = ctx.FindObjectsFinal(session) }()

	objs, _, err := ctx.FindObjects(session, 1)
	if err != nil {
		return 0, fmt.Errorf("failed to find public key: %w", err)
	}
	if len(objs) == 0 {
		return 0, fmt.Errorf("public key not found for private key")
	}

	return objs[0], nil
}

// extractPublicKey extracts the public key from a private key handle.
func extractPublicKey(ctx *pkcs11.Ctx, session pkcs11.SessionHandle, keyHandle pkcs11.ObjectHandle) (crypto.PublicKey, AlgorithmID, error) {
	attrs, err := ctx.GetAttributeValue(session, keyHandle, []*pkcs11.Attribute{
		pkcs11.NewAttribute(pkcs11.CKA_KEY_TYPE, nil),
	})
	if err != nil {
		return nil, "", fmt.Errorf("failed to get key type: %w", err)
	}

	switch bytesToUint(attrs[0].Value) {
	case pkcs11.CKK_EC:
		return extractECPublicKey(ctx, session, keyHandle)
	case pkcs11.CKK_RSA:
		return extractRSAPublicKey(ctx, session, keyHandle)
	default:
		return nil, "", fmt.Errorf("unsupported HSM key type: 0x%X", bytesToUint(attrs[0].Value))
	}
}

func extractECPublicKey(ctx *pkcs11.Ctx, session pkcs11.SessionHandle, keyHandle pkcs11.ObjectHandle) (crypto.PublicKey, AlgorithmID, error) {
	attrs, err := ctx.GetAttributeValue(session, keyHandle, []*pkcs11.Attribute{
		pkcs11.NewAttribute(pkcs11.CKA_EC_PARAMS, nil),
	})
	if err != nil {
		return nil, "", fmt.Errorf("failed to get EC params: %w", err)
	}

	curve, algID, err := parseECParams(attrs[0].Value)
	if err != nil {
		return nil, "", err
	}

	var point []byte

	// Some HSMs expose CKA_EC_POINT directly on the private key object.
	privAttrs, err := ctx.GetAttributeValue(session, keyHandle, []*pkcs11.Attribute{
		pkcs11.NewAttribute(pkcs11.CKA_EC_POINT, nil),
	})
	if err == nil && len(privAttrs[0].Value) > 0 {
		point = privAttrs[0].Value
	} else {
		pubHandle, findErr := findPublicKeyForPrivate(ctx, session, keyHandle)
		if findErr != nil {
			return nil, "", fmt.Errorf("failed to find public key and CKA_EC_POINT not on private key: %w", findErr)
		}
		pubAttrs, ecPointErr := ctx.GetAttributeValue(session, pubHandle, []*pkcs11.Attribute{
			pkcs11.NewAttribute(pkcs11.CKA_EC_POINT, nil),
		})
		if ecPointErr == nil && len(pubAttrs[0].Value) > 0 {
			point = pubAttrs[0].Value
		} else {
			valueAttrs, valueErr := ctx.GetAttributeValue(session, pubHandle, []*pkcs11.Attribute{
				pkcs11.NewAttribute(pkcs11.CKA_VALUE, nil),
			})
			if valueErr != nil {
				return nil, "", fmt.Errorf("failed to get EC point: ecPointErr=%v, valueErr=%w", ecPointErr, valueErr)
			}
			if len(valueAttrs[0].Value) == 0 {
				return nil, "", fmt.Errorf("empty CKA_VALUE for EC public key")
			}
			if pubKey, parseErr := x509.ParsePKIXPublicKey(valueAttrs[0].Value); parseErr == nil {
				if ecPub, ok := pubKey.(*ecdsa.PublicKey); ok {
					return ecPub, algID, nil
				}
				return nil, "", fmt.Errorf("CKA_VALUE parsed but not ECDSA key")
			}
			point = valueAttrs[0].Value
		}
	}

	// Unwrap DER OCTET STRING if present: tag 0x04, length, uncompressed point.
	if len(point) > 2 && point[0] == 0x04 {
		length := int(point[1])
		if length < 128 {
			if len(point) >= 2+length && point[2] == 0x04 {
				point = point[2 : 2+length]
			}
		} else if length == 0x81 && len(point) > 3 {
			actualLen := int(point[2])
			if len(point) >= 3+actualLen && point[3] == 0x04 {
				point = point[3 : 3+actualLen]
			}
		}
	}

	//nolint:staticcheck // elliptic.Unmarshal is deprecated for ECDH but we need ECDSA
	x, y := elliptic.Unmarshal(curve, point)
	if x == nil {
		return nil, "", fmt.Errorf("failed to unmarshal EC point")
	}

	return &ecdsa.PublicKey{Curve: curve, X: x, Y: y}, algID, nil
}

func extractRSAPublicKey(ctx *pkcs11.Ctx, session pkcs11.SessionHandle, keyHandle pkcs11.ObjectHandle) (crypto.PublicKey, AlgorithmID, error) {
	pubHandle, err := findPublicKeyForPrivate(ctx, session, keyHandle)
	if err != nil {
		return nil, "", err
	}

	attrs, err := ctx.GetAttributeValue(session, pubHandle, []*pkcs11.Attribute{
		pkcs11.NewAttribute(pkcs11.CKA_MODULUS, nil),
		pkcs11.NewAttribute(pkcs11.CKA_PUBLIC_EXPONENT, nil),
	})
	if err != nil {
		return nil, "", fmt.Errorf("failed to get RSA attributes: %w", err)
	}

	n := new(big.Int).SetBytes(attrs[0].Value)
	e := int(new(big.Int).SetBytes(attrs[1].Value).Int64())

	algID := AlgRSA4096
	if n.BitLen() <= 2048 {
		algID = AlgRSA2048
	}

	return &rsa.PublicKey{N: n, E: e}, algID, nil
}

// parseECParams parses DER-encoded EC curve OID parameters.
func parseECParams(params []byte) (elliptic.Curve, AlgorithmID, error) {
	var oid asn1.ObjectIdentifier
	if _, err := asn1.Unmarshal(params, &oid); err != nil {
		return nil, "", fmt.Errorf("failed to parse EC params OID: %w", err)
	}

	switch {
	case oid.Equal(asn1.ObjectIdentifier{1, 2, 840, 10045, 3, 1, 7}):
		return elliptic.P256(), AlgECDSAP256, nil
	case oid.Equal(asn1.ObjectIdentifier{1, 3, 132, 0, 34}):
		return elliptic.P384(), AlgECDSAP384, nil
	case oid.Equal(asn1.ObjectIdentifier{1, 3, 132, 0, 35}):
		return elliptic.P521(), AlgECDSAP521, nil
	default:
		return nil, "", fmt.Errorf("unsupported EC curve OID: %v", oid)
	}
}

// bytesToUint converts a CK_ULONG attribute value (native byte order) to uint.
func bytesToUint(b []byte) uint {
	var result uint
	for i := len(b) - 1; i >= 0; i-- {
		result = result<<8 | uint(b[i])
	}
	return result
}

// Algorithm returns the algorithm used by this signer.
func (s *PKCS11Signer) Algorithm() AlgorithmID {
	return s.alg
}

// Public returns the public key.
func (s *PKCS11Signer) Public() crypto.PublicKey {
	return s.pub
}

// Sign signs the digest using the HSM.
func (s *PKCS11Signer) Sign(_ io.Reader, digest []byte, opts crypto.SignerOpts) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil, fmt.Errorf("signer is closed")
	}

	session, release, err := s.pool.Acquire()
	if err != nil {
		return nil, fmt.Errorf("failed to acquire session: %w", err)
	}
	defer release()

	var mech *pkcs11.Mechanism
	dataToSign := digest

	switch s.pub.(type) {
	case *ecdsa.PublicKey:
		mech = pkcs11.NewMechanism(pkcs11.CKM_ECDSA, nil)
	case *rsa.PublicKey:
		mech = pkcs11.NewMechanism(pkcs11.CKM_RSA_PKCS, nil)
		dataToSign = addDigestInfoPrefix(digest, opts.HashFunc())
	default:
		return nil, fmt.Errorf("unsupported key type for signing")
	}

	ctx := s.pool.Context()
	if err := ctx.SignInit(session, []*pkcs11.Mechanism{mech}, s.keyHandle); err != nil {
		return nil, fmt.Errorf("failed to init sign: %w", err)
	}

	sig, err := ctx.Sign(session, dataToSign)
	if err != nil {
		return nil, fmt.Errorf("failed to sign: %w", err)
	}

	if _, ok := s.pub.(*ecdsa.PublicKey); ok {
		sig, err = convertECDSASignature(sig)
		if err != nil {
			return nil, err
		}
	}

	return sig, nil
}

// digestInfoPrefixes holds the DigestInfo ASN.1 prefixes for PKCS#1 v1.5 (RFC 8017).
var digestInfoPrefixes = map[crypto.Hash][]byte{
	crypto.SHA256: {0x30, 0x31, 0x30, 0x0d, 0x06, 0x09, 0x60, 0x86, 0x48, 0x01, 0x65, 0x03, 0x04, 0x02, 0x01, 0x05, 0x00, 0x04, 0x20},
	crypto.SHA384: {0x30, 0x41, 0x30, 0x0d, 0x06, 0x09, 0x60, 0x86, 0x48, 0x01, 0x65, 0x03, 0x04, 0x02, 0x02, 0x05, 0x00, 0x04, 0x30},
	crypto.SHA512: {0x30, 0x51, 0x30, 0x0d, 0x06, 0x09, 0x60, 0x86, 0x48, 0x01, 0x65, 0x03, 0x04, 0x02, 0x03, 0x05, 0x00, 0x04, 0x40},
}

func addDigestInfoPrefix(digest []byte, hash crypto.Hash) []byte {
	prefix, ok := digestInfoPrefixes[hash]
	if !ok {
		return digest
	}
	result := make([]byte, len(prefix)+len(digest))
	copy(result, prefix)
	copy(result[len(prefix):], digest)
	return result
}

// convertECDSASignature converts a raw ECDSA signature (r||s) to ASN.1 DER.
func convertECDSASignature(rawSig []byte) ([]byte, error) {
	if len(rawSig)%2 != 0 {
		return nil, fmt.Errorf("invalid ECDSA signature length")
	}
	n := len(rawSig) / 2
	r := new(big.Int).SetBytes(rawSig[:n])
	s := new(big.Int).SetBytes(rawSig[n:])
	return asn1.Marshal(struct{ R, S *big.Int }{r, s})
}

// Decrypt implements crypto.Decrypter for RSA keys held in the HSM.
func (s *PKCS11Signer) Decrypt(_ io.Reader, ciphertext []byte, opts crypto.DecrypterOpts) ([]byte, error) {
	if _, ok := s.pub.(*rsa.PublicKey); !ok {
		return nil, fmt.Errorf("Decrypt only supported for RSA keys, got %T", s.pub)
	}

	session, release, err := s.pool.Acquire()
	if err != nil {
		return nil, fmt.Errorf("failed to acquire session: %w", err)
	}
	defer release()

	ctx := s.pool.Context()
	mech := pkcs11.NewMechanism(pkcs11.CKM_RSA_PKCS, nil)
	if _, ok := opts.(*rsa.OAEPOptions); ok {
		mech = pkcs11.NewMechanism(pkcs11.CKM_RSA_PKCS_OAEP, nil)
	}

	if err := ctx.DecryptInit(session, []*pkcs11.Mechanism{mech}, s.keyHandle); err != nil {
		return nil, fmt.Errorf("failed to init decrypt: %w", err)
	}

	return ctx.Decrypt(session, ciphertext)
}

// DeriveECDH performs ECDH key derivation via PKCS#11.
func (s *PKCS11Signer) DeriveECDH(peer *ecdsa.PublicKey) ([]byte, error) {
	if _, ok := s.pub.(*ecdsa.PublicKey); !ok {
		return nil, fmt.Errorf("DeriveECDH only supported for EC keys, got %T", s.pub)
	}

	session, release, err := s.pool.Acquire()
	if err != nil {
		return nil, fmt.Errorf("failed to acquire session: %w", err)
	}
	defer release()

	peerPoint := elliptic.Marshal(peer.Curve, peer.X, peer.Y) //nolint:staticcheck // raw point encoding required by PKCS#11

	params := pkcs11.NewECDH1DeriveParams(pkcs11.CKD_NULL, nil, peerPoint)
	mech := pkcs11.NewMechanism(pkcs11.CKM_ECDH1_DERIVE, params)

	deriveTemplate := []*pkcs11.Attribute{
		pkcs11.NewAttribute(pkcs11.CKA_CLASS, pkcs11.CKO_SECRET_KEY),
		pkcs11.NewAttribute(pkcs11.CKA_KEY_TYPE, pkcs11.CKK_GENERIC_SECRET),
		pkcs11.NewAttribute(pkcs11.CKA_SENSITIVE, false),
		pkcs11.NewAttribute(pkcs11.CKA_EXTRACTABLE, true),
	}

	ctx := s.pool.Context()
	derivedHandle, err := ctx.DeriveKey(session, []*pkcs11.Mechanism{mech}, s.keyHandle, deriveTemplate)
	if err != nil {
		return nil, fmt.Errorf("failed to derive key: %w", err)
	}

	attrs, err := ctx.GetAttributeValue(session, derivedHandle, []*pkcs11.Attribute{
		pkcs11.NewAttribute(pkcs11.CKA_VALUE, nil),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to read derived key value: %w", err)
	}

	return attrs[0].Value, nil
}

// Close releases this signer's reference to the shared session pool.
// The pool itself is a singleton per module+slot and is torn down by
// CloseAllPools at process shutdown.
func (s *PKCS11Signer) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

// HSMInfo contains information about an HSM.
type HSMInfo struct {
	ModulePath string
	Slots      []SlotInfo
}

// SlotInfo contains information about an HSM slot.
type SlotInfo struct {
	ID           uint
	Description  string
	TokenLabel   string
	TokenSerial  string
	Manufacturer string
	HasToken     bool
}

// KeyInfo contains information about a key in the HSM.
type KeyInfo struct {
	Label   string
	ID      string
	Type    string
	Size    int
	CanSign bool
}

// ListHSMSlots lists available slots in a PKCS#11 module.
func ListHSMSlots(modulePath string) (*HSMInfo, error) {
	ctx := pkcs11.New(modulePath)
	if ctx == nil {
		return nil, fmt.Errorf("failed to load PKCS#11 module: %s", modulePath)
	}
	defer ctx.Destroy()

	if err := ctx.Initialize(); err != nil {
		if p11err, ok := err.(pkcs11.Error); !ok || p11err != pkcs11.CKR_CRYPTOKI_ALREADY_INITIALIZED {
			return nil, fmt.Errorf("failed to initialize: %w", err)
		}
	}

	slots, err := ctx.GetSlotList(false)
	if err != nil {
		return nil, fmt.Errorf("failed to get slot list: %w", err)
	}

	info := &HSMInfo{ModulePath: modulePath, Slots: make([]SlotInfo, 0, len(slots))}
	for _, slot := range slots {
		slotInfo, err := ctx.GetSlotInfo(slot)
		if err != nil {
			continue
		}
		si := SlotInfo{
			ID:          slot,
			Description: slotInfo.SlotDescription,
			HasToken:    slotInfo.Flags&pkcs11.CKF_TOKEN_PRESENT != 0,
		}
		if si.HasToken {
			if tokenInfo, err := ctx.GetTokenInfo(slot); err == nil {
				si.TokenLabel = tokenInfo.Label
				si.TokenSerial = tokenInfo.SerialNumber
				si.Manufacturer = tokenInfo.ManufacturerID
			}
		}
		info.Slots = append(info.Slots, si)
	}

	return info, nil
}

// GenerateHSMKeyPairConfig holds configuration for key generation.
type GenerateHSMKeyPairConfig struct {
	ModulePath string
	TokenLabel string
	SlotID     *uint
	PIN        string
	KeyLabel   string
	KeyID      []byte
	Algorithm  AlgorithmID
}

// GenerateHSMKeyPairResult holds the result of key generation.
type GenerateHSMKeyPairResult struct {
	KeyLabel string
	KeyID    string
	Type     string
	Size     int
}

// GenerateHSMKeyPair generates a new classical key pair in the HSM.
func GenerateHSMKeyPair(cfg GenerateHSMKeyPairConfig) (*GenerateHSMKeyPairResult, error) {
	if cfg.ModulePath == "" {
		return nil, fmt.Errorf("PKCS#11 module path is required")
	}
	if cfg.KeyLabel == "" {
		return nil, fmt.Errorf("key label is required")
	}

	var slotID uint
	if cfg.SlotID != nil {
		slotID = *cfg.SlotID
	} else {
		var err error
		slotID, err = findSlotID(PKCS11Config{ModulePath: cfg.ModulePath, TokenLabel: cfg.TokenLabel})
		if err != nil {
			return nil, fmt.Errorf("failed to find slot: %w", err)
		}
	}

	pool, err := GetSessionPool(cfg.ModulePath, slotID, cfg.PIN)
	if err != nil {
		return nil, fmt.Errorf("failed to get session pool: %w", err)
	}

	session, release, err := pool.Acquire()
	if err != nil {
		return nil, fmt.Errorf("failed to acquire session: %w", err)
	}
	defer release()

	ctx := pool.Context()

	keyID := cfg.KeyID
	if len(keyID) == 0 {
		keyID = make([]byte, 8)
		combined := cfg.KeyLabel + string(cfg.Algorithm)
		for i, c := range combined {
			keyID[i%8] ^= byte(c)
		}
	}

	switch cfg.Algorithm {
	case AlgECDSAP256, AlgECDSAP384, AlgECDSAP521:
		return generateECKeyPair(ctx, session, cfg.KeyLabel, keyID, cfg.Algorithm)
	case AlgRSA2048, AlgRSA4096:
		return generateRSAKeyPair(ctx, session, cfg.KeyLabel, keyID, cfg.Algorithm)
	default:
		return nil, fmt.Errorf("unsupported algorithm for HSM key generation: %s", cfg.Algorithm)
	}
}

func generateECKeyPair(ctx *pkcs11.Ctx, session pkcs11.SessionHandle, label string, keyID []byte, alg AlgorithmID) (*GenerateHSMKeyPairResult, error) {
	var ecParams []byte
	var keySize int
	switch alg {
	case AlgECDSAP256:
		ecParams = []byte{0x06, 0x08, 0x2A, 0x86, 0x48, 0xCE, 0x3D, 0x03, 0x01, 0x07}
		keySize = 256
	case AlgECDSAP384:
		ecParams = []byte{0x06, 0x05, 0x2B, 0x81, 0x04, 0x00, 0x22}
		keySize = 384
	case AlgECDSAP521:
		ecParams = []byte{0x06, 0x05, 0x2B, 0x81, 0x04, 0x00, 0x23}
		keySize = 521
	default:
		return nil, fmt.Errorf("unsupported EC algorithm: %s", alg)
	}

	pubTemplate := []*pkcs11.Attribute{
		pkcs11.NewAttribute(pkcs11.CKA_CLASS, pkcs11.CKO_PUBLIC_KEY),
		pkcs11.NewAttribute(pkcs11.CKA_KEY_TYPE, pkcs11.CKK_EC),
		pkcs11.NewAttribute(pkcs11.CKA_TOKEN, true),
		pkcs11.NewAttribute(pkcs11.CKA_VERIFY, true),
		pkcs11.NewAttribute(pkcs11.CKA_EC_PARAMS, ecParams),
		pkcs11.NewAttribute(pkcs11.CKA_LABEL, label),
		pkcs11.NewAttribute(pkcs11.CKA_ID, keyID),
	}
	privTemplate := []*pkcs11.Attribute{
		pkcs11.NewAttribute(pkcs11.CKA_CLASS, pkcs11.CKO_PRIVATE_KEY),
		pkcs11.NewAttribute(pkcs11.CKA_KEY_TYPE, pkcs11.CKK_EC),
		pkcs11.NewAttribute(pkcs11.CKA_TOKEN, true),
		pkcs11.NewAttribute(pkcs11.CKA_PRIVATE, true),
		pkcs11.NewAttribute(pkcs11.CKA_SENSITIVE, true),
		pkcs11.NewAttribute(pkcs11.CKA_EXTRACTABLE, false),
		pkcs11.NewAttribute(pkcs11.CKA_SIGN, true),
		pkcs11.NewAttribute(pkcs11.CKA_LABEL, label),
		pkcs11.NewAttribute(pkcs11.CKA_ID, keyID),
	}

	mech := []*pkcs11.Mechanism{pkcs11.NewMechanism(pkcs11.CKM_EC_KEY_PAIR_GEN, nil)}
	if _, _, err := ctx.GenerateKeyPair(session, mech, pubTemplate, privTemplate); err != nil {
		return nil, fmt.Errorf("failed to generate EC key pair: %w", err)
	}

	return &GenerateHSMKeyPairResult{KeyLabel: label, KeyID: hex.EncodeToString(keyID), Type: "EC", Size: keySize}, nil
}

func generateRSAKeyPair(ctx *pkcs11.Ctx, session pkcs11.SessionHandle, label string, keyID []byte, alg AlgorithmID) (*GenerateHSMKeyPairResult, error) {
	var keySize uint
	switch alg {
	case AlgRSA2048:
		keySize = 2048
	case AlgRSA4096:
		keySize = 4096
	default:
		return nil, fmt.Errorf("unsupported RSA algorithm: %s", alg)
	}

	pubExp := []byte{0x01, 0x00, 0x01}

	pubTemplate := []*pkcs11.Attribute{
		pkcs11.NewAttribute(pkcs11.CKA_CLASS, pkcs11.CKO_PUBLIC_KEY),
		pkcs11.NewAttribute(pkcs11.CKA_KEY_TYPE, pkcs11.CKK_RSA),
		pkcs11.NewAttribute(pkcs11.CKA_TOKEN, true),
		pkcs11.NewAttribute(pkcs11.CKA_VERIFY, true),
		pkcs11.NewAttribute(pkcs11.CKA_MODULUS_BITS, keySize),
		pkcs11.NewAttribute(pkcs11.CKA_PUBLIC_EXPONENT, pubExp),
		pkcs11.NewAttribute(pkcs11.CKA_LABEL, label),
		pkcs11.NewAttribute(pkcs11.CKA_ID, keyID),
	}
	privTemplate := []*pkcs11.Attribute{
		pkcs11.NewAttribute(pkcs11.CKA_CLASS, pkcs11.CKO_PRIVATE_KEY),
		pkcs11.NewAttribute(pkcs11.CKA_KEY_TYPE, pkcs11.CKK_RSA),
		pkcs11.NewAttribute(pkcs11.CKA_TOKEN, true),
		pkcs11.NewAttribute(pkcs11.CKA_PRIVATE, true),
		pkcs11.NewAttribute(pkcs11.CKA_SENSITIVE, true),
		pkcs11.NewAttribute(pkcs11.CKA_EXTRACTABLE, false),
		pkcs11.NewAttribute(pkcs11.CKA_SIGN, true),
		pkcs11.NewAttribute(pkcs11.CKA_LABEL, label),
		pkcs11.NewAttribute(pkcs11.CKA_ID, keyID),
	}

	mech := []*pkcs11.Mechanism{pkcs11.NewMechanism(pkcs11.CKM_RSA_PKCS_KEY_PAIR_GEN, nil)}
	if _, _, err := ctx.GenerateKeyPair(session, mech, pubTemplate, privTemplate); err != nil {
		return nil, fmt.Errorf("failed to generate RSA key pair: %w", err)
	}

	return &GenerateHSMKeyPairResult{KeyLabel: label, KeyID: hex.EncodeToString(keyID), Type: "RSA", Size: int(keySize)}, nil
}

// GetPublicKeyFromHSM extracts the public key for a key already on the token.
func GetPublicKeyFromHSM(cfg PKCS11Config) (crypto.PublicKey, error) {
	signer, err := NewPKCS11Signer(cfg)
	if err != nil {
		return nil, err
	}
	return signer.Public(), nil
}

// ListHSMKeys lists private keys present on a token.
func ListHSMKeys(modulePath, tokenLabel, pin string) ([]KeyInfo, error) {
	slotID, err := findSlotID(PKCS11Config{ModulePath: modulePath, TokenLabel: tokenLabel})
	if err != nil {
		return nil, fmt.Errorf("failed to find slot: %w", err)
	}

	pool, err := GetSessionPool(modulePath, slotID, pin)
	if err != nil {
		return nil, fmt.Errorf("failed to get session pool: %w", err)
	}

	session, release, err := pool.Acquire()
	if err != nil {
		return nil, fmt.Errorf("failed to acquire session: %w", err)
	}
	defer release()

	ctx := pool.Context()

	template := []*pkcs11.Attribute{pkcs11.NewAttribute(pkcs11.CKA_CLASS, pkcs11.CKO_PRIVATE_KEY)}
	if err := ctx.FindObjectsInit(session, template); err != nil {
		return nil, fmt.Errorf("failed to init find objects: %w", err)
	}

	var keys []KeyInfo
	for {
		objs, _, err := ctx.FindObjects(session, 10)
		if err != nil {
			_ = ctx.FindObjectsFinal(session)
			return nil, fmt.Errorf("failed to find objects: %w", err)
		}
		if len(objs) == 0 {
			break
		}
		for _, obj := range objs {
			attrs, err := ctx.GetAttributeValue(session, obj, []*pkcs11.Attribute{
				pkcs11.NewAttribute(pkcs11.CKA_LABEL, nil),
				pkcs11.NewAttribute(pkcs11.CKA_ID, nil),
				pkcs11.NewAttribute(pkcs11.CKA_KEY_TYPE, nil),
				pkcs11.NewAttribute(pkcs11.CKA_SIGN, nil),
			})
			if err != nil {
				continue
			}
			ki := KeyInfo{
				Label:   string(attrs[0].Value),
				ID:      hex.EncodeToString(attrs[1].Value),
				CanSign: len(attrs[3].Value) > 0 && attrs[3].Value[0] != 0,
			}
			switch bytesToUint(attrs[2].Value) {
			case pkcs11.CKK_EC:
				ki.Type = "EC"
			case pkcs11.CKK_RSA:
				ki.Type = "RSA"
			default:
				ki.Type = fmt.Sprintf("Unknown(0x%X)", bytesToUint(attrs[2].Value))
			}
			keys = append(keys, ki)
		}
	}
	_ = ctx.FindObjectsFinal(session)

	return keys, nil
}

// MechanismInfo contains information about a PKCS#11 mechanism.
type MechanismInfo struct {
	ID          uint
	Name        string
	MinKeySize  uint
	MaxKeySize  uint
	Flags       uint
	CanEncrypt  bool
	CanDecrypt  bool
	CanSign     bool
	CanVerify   bool
	CanDerive   bool
	CanWrap     bool
	CanUnwrap   bool
	CanGenerate bool
}

var mechanismNames = map[uint]string{
	pkcs11.CKM_RSA_PKCS_KEY_PAIR_GEN: "CKM_RSA_PKCS_KEY_PAIR_GEN",
	pkcs11.CKM_RSA_PKCS:              "CKM_RSA_PKCS",
	pkcs11.CKM_RSA_PKCS_OAEP:         "CKM_RSA_PKCS_OAEP",
	pkcs11.CKM_RSA_PKCS_PSS:          "CKM_RSA_PKCS_PSS",
	pkcs11.CKM_SHA256_RSA_PKCS:       "CKM_SHA256_RSA_PKCS",
	pkcs11.CKM_SHA256_RSA_PKCS_PSS:   "CKM_SHA256_RSA_PKCS_PSS",
	pkcs11.CKM_EC_KEY_PAIR_GEN:       "CKM_EC_KEY_PAIR_GEN",
	pkcs11.CKM_ECDSA:                 "CKM_ECDSA",
	pkcs11.CKM_ECDSA_SHA256:          "CKM_ECDSA_SHA256",
	pkcs11.CKM_ECDH1_DERIVE:          "CKM_ECDH1_DERIVE",
	pkcs11.CKM_SHA256:                "CKM_SHA256",
	pkcs11.CKM_SHA384:                "CKM_SHA384",
	pkcs11.CKM_SHA512:                "CKM_SHA512",
}

// ListHSMMechanisms lists available mechanisms for a given slot.
func ListHSMMechanisms(modulePath string, slotID uint) ([]MechanismInfo, error) {
	ctx := pkcs11.New(modulePath)
	if ctx == nil {
		return nil, fmt.Errorf("failed to load PKCS#11 module: %s", modulePath)
	}
	defer ctx.Destroy()

	if err := ctx.Initialize(); err != nil {
		if p11err, ok := err.(pkcs11.Error); !ok || p11err != pkcs11.CKR_CRYPTOKI_ALREADY_INITIALIZED {
			return nil, fmt.Errorf("failed to initialize: %w", err)
		}
	}

	mechList, err := ctx.GetMechanismList(slotID)
	if err != nil {
		return nil, fmt.Errorf("failed to get mechanism list: %w", err)
	}

	var mechanisms []MechanismInfo
	for _, mech := range mechList {
		mechID := mech.Mechanism
		mechInfo, err := ctx.GetMechanismInfo(slotID, []*pkcs11.Mechanism{mech})
		if err != nil {
			mechanisms = append(mechanisms, MechanismInfo{ID: uint(mechID), Name: getMechanismName(uint(mechID))})
			continue
		}
		mechanisms = append(mechanisms, MechanismInfo{
			ID:          uint(mechID),
			Name:        getMechanismName(uint(mechID)),
			MinKeySize:  uint(mechInfo.MinKeySize),
			MaxKeySize:  uint(mechInfo.MaxKeySize),
			Flags:       uint(mechInfo.Flags),
			CanEncrypt:  mechInfo.Flags&pkcs11.CKF_ENCRYPT != 0,
			CanDecrypt:  mechInfo.Flags&pkcs11.CKF_DECRYPT != 0,
			CanSign:     mechInfo.Flags&pkcs11.CKF_SIGN != 0,
			CanVerify:   mechInfo.Flags&pkcs11.CKF_VERIFY != 0,
			CanDerive:   mechInfo.Flags&pkcs11.CKF_DERIVE != 0,
			CanWrap:     mechInfo.Flags&pkcs11.CKF_WRAP != 0,
			CanUnwrap:   mechInfo.Flags&pkcs11.CKF_UNWRAP != 0,
			CanGenerate: mechInfo.Flags&pkcs11.CKF_GENERATE_KEY_PAIR != 0 || mechInfo.Flags&pkcs11.CKF_GENERATE != 0,
		})
	}

	return mechanisms, nil
}

func getMechanismName(mechID uint) string {
	if name, ok := mechanismNames[mechID]; ok {
		return name
	}
	if mechID >= 0x80000000 {
		return fmt.Sprintf("CKM_VENDOR_DEFINED_0x%08X", mechID)
	}
	return fmt.Sprintf("CKM_UNKNOWN_0x%08X", mechID)
}
