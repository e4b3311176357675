package ocsp

import "time"

// CertStatusKind is the tag of the CertStatus sum type (spec.md §3/§9:
// modeled as a tagged union, not an inheritance hierarchy).
type CertStatusKind int

const (
	StatusGood CertStatusKind = iota
	StatusRevoked
	StatusUnknown
)

// CertStatus is the certificate's revocation status as it will appear in a
// SingleResponse. RevocationTime and RevocationReason are meaningful only
// when Kind == StatusRevoked.
type CertStatus struct {
	Kind             CertStatusKind
	RevocationTime   time.Time
	RevocationReason *RevocationReason // nil omits the revocationReason extension
}

// RevocationReason is a CRLReason code, per the table in spec.md §4.4.
type RevocationReason int

const (
	ReasonUnspecified          RevocationReason = 0
	ReasonKeyCompromise        RevocationReason = 1
	ReasonCACompromise         RevocationReason = 2
	ReasonAffiliationChanged   RevocationReason = 3
	ReasonSuperseded           RevocationReason = 4
	ReasonCessationOfOperation RevocationReason = 5
	ReasonCertificateHold      RevocationReason = 6
	ReasonRemoveFromCRL        RevocationReason = 8
	ReasonPrivilegeWithdrawn   RevocationReason = 9
	ReasonAACompromise         RevocationReason = 10
)

// reasonNames maps the recognised reason strings from a store's revokedDate
// field ("YYMMDDHHMMSSZ[,reason]") to their CRLReason code, per spec.md
// §4.4's reason code table. Unrecognised names yield (0, false), which the
// status resolver treats as "omit the revocationReason extension".
var reasonNames = map[string]RevocationReason{
	"unspecified":          ReasonUnspecified,
	"keyCompromise":        ReasonKeyCompromise,
	"cACompromise":         ReasonCACompromise,
	"affiliationChanged":   ReasonAffiliationChanged,
	"superseded":           ReasonSuperseded,
	"cessationOfOperation": ReasonCessationOfOperation,
	"certificateHold":      ReasonCertificateHold,
	"removeFromCRL":        ReasonRemoveFromCRL,
	"privilegeWithdrawn":   ReasonPrivilegeWithdrawn,
	"aACompromise":         ReasonAACompromise,
}

// ParseReasonName looks up a reason string as it appears in a store's
// revokedDate field. The second return value is false for unrecognised
// names, in which case the caller must omit the revocationReason
// extension entirely per spec.md §4.4.
func ParseReasonName(name string) (RevocationReason, bool) {
	r, ok := reasonNames[name]
	return r, ok
}
