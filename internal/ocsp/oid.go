package ocsp

import "github.com/remiblancher/ocspresponder/internal/der"

// OCSP OIDs per RFC 6960.
var (
	// id-pkix-ocsp OBJECT IDENTIFIER ::= { id-ad-ocsp }
	OIDPKIXOcsp = der.OID{1, 3, 6, 1, 5, 5, 7, 48, 1}

	// id-pkix-ocsp-basic OBJECT IDENTIFIER ::= { id-pkix-ocsp 1 }
	OIDOcspBasic = der.OID{1, 3, 6, 1, 5, 5, 7, 48, 1, 1}

	// id-pkix-ocsp-nonce OBJECT IDENTIFIER ::= { id-pkix-ocsp 2 }
	OIDOcspNonce = der.OID{1, 3, 6, 1, 5, 5, 7, 48, 1, 2}

	// id-pkix-ocsp-nocheck OBJECT IDENTIFIER ::= { id-pkix-ocsp 5 }
	OIDOcspNoCheck = der.OID{1, 3, 6, 1, 5, 5, 7, 48, 1, 5}

	// id-kp-OCSPSigning OBJECT IDENTIFIER ::= { id-kp 9 }
	OIDExtKeyUsageOCSPSigning = der.OID{1, 3, 6, 1, 5, 5, 7, 3, 9}
)

// Hash algorithm OIDs.
var (
	OIDSHA1   = der.OID{1, 3, 14, 3, 2, 26}
	OIDSHA256 = der.OID{2, 16, 840, 1, 101, 3, 4, 2, 1}
	OIDSHA384 = der.OID{2, 16, 840, 1, 101, 3, 4, 2, 2}
	OIDSHA512 = der.OID{2, 16, 840, 1, 101, 3, 4, 2, 3}
)

// Signature algorithm OIDs. Classical only — see DESIGN.md for why the
// teacher's post-quantum entries (ML-DSA, SLH-DSA) are dropped here.
var (
	OIDSHA256WithRSA = der.OID{1, 2, 840, 113549, 1, 1, 11}
	OIDSHA384WithRSA = der.OID{1, 2, 840, 113549, 1, 1, 12}
	OIDSHA512WithRSA = der.OID{1, 2, 840, 113549, 1, 1, 13}

	OIDECDSAWithSHA256 = der.OID{1, 2, 840, 10045, 4, 3, 2}
	OIDECDSAWithSHA384 = der.OID{1, 2, 840, 10045, 4, 3, 3}
	OIDECDSAWithSHA512 = der.OID{1, 2, 840, 10045, 4, 3, 4}

	OIDEd25519 = der.OID{1, 3, 101, 112}
)

// CRL extension OIDs, RFC 5280 §5.2 (CRL-level) and §5.3 (entry-level).
var (
	OIDCRLReason              = der.OID{2, 5, 29, 21}
	OIDInvalidityDate         = der.OID{2, 5, 29, 24}
	OIDHoldInstructionCode    = der.OID{2, 5, 29, 23}
	OIDAuthorityKeyIdentifier = der.OID{2, 5, 29, 35}
	OIDCRLNumber              = der.OID{2, 5, 29, 20}
)

// Hold instruction OIDs, RFC 5280 §5.3.3.
var (
	OIDHoldInstructionNone        = der.OID{2, 2, 840, 10040, 2, 1}
	OIDHoldInstructionCallIssuer  = der.OID{2, 2, 840, 10040, 2, 2}
	OIDHoldInstructionReject      = der.OID{2, 2, 840, 10040, 2, 3}
)
