// Package status implements the status resolver of spec.md §4.4: given a
// certificate serial number, it consults the revocation store and
// classifies the certificate as good, revoked, or unknown/unauthorized.
package status

import (
	"encoding/hex"
	"errors"
	"strings"
	"time"

	"github.com/remiblancher/ocspresponder/internal/ocsp"
	"github.com/remiblancher/ocspresponder/internal/ocsperr"
	"github.com/remiblancher/ocspresponder/internal/store"
)

// Store is the interface the resolver requires from a revocation record
// store, matching spec.md §6's store collaborator contract.
type Store interface {
	Fetch(serialHexUpper string) (store.Record, error)
}

// Resolve implements spec.md §4.4's algorithm: convert the serial to
// upper-case hex, fetch its record, override to expired when past
// expiryDate, then branch V/E/R into a CertStatus or an Unauthorized
// error. now is the same instant the response builder uses for
// producedAt/thisUpdate, per spec.md §5's single-snapshot rule.
func Resolve(s Store, serial []byte, now time.Time) (ocsp.CertStatus, error) {
	serialHex := strings.ToUpper(hex.EncodeToString(serial))

	rec, err := s.Fetch(serialHex)
	if errors.Is(err, store.ErrNotFound) {
		return ocsp.CertStatus{Kind: ocsp.StatusUnknown}, nil
	}
	if err != nil {
		return ocsp.CertStatus{}, ocsperr.New(ocsperr.KindStoreUnavailable, "status.Resolve", err)
	}

	effectiveStatus := rec.Status
	if !rec.ExpiryDate.IsZero() && now.After(rec.ExpiryDate) {
		effectiveStatus = store.StatusExpired
	}

	switch effectiveStatus {
	case store.StatusValid:
		return ocsp.CertStatus{Kind: ocsp.StatusGood}, nil

	case store.StatusExpired:
		// Policy choice, not RFC default: expired end-entity certificates
		// are treated as non-answerable rather than good or revoked.
		return ocsp.CertStatus{}, ocsperr.New(ocsperr.KindUnknownIssuer, "status.Resolve", errors.New("certificate expired"))

	case store.StatusRevoked:
		revocationTime, reason, err := parseRevokedDate(rec.RevokedDateRaw)
		if err != nil {
			return ocsp.CertStatus{}, ocsperr.New(ocsperr.KindStoreUnavailable, "status.Resolve", err)
		}
		cs := ocsp.CertStatus{Kind: ocsp.StatusRevoked, RevocationTime: revocationTime}
		if reason != nil {
			cs.RevocationReason = reason
		}
		return cs, nil

	default:
		return ocsp.CertStatus{Kind: ocsp.StatusUnknown}, nil
	}
}

// parseRevokedDate splits "YYMMDDHHMMSSZ[,reason]", parses the date, and
// maps a recognised reason name to its CRLReason code. An unrecognised
// name yields a nil reason so the builder omits the extension entirely,
// per spec.md §4.4.
func parseRevokedDate(raw string) (time.Time, *ocsp.RevocationReason, error) {
	datePart, reasonPart, _ := strings.Cut(raw, ",")

	t, err := time.Parse("060102150405Z", datePart)
	if err != nil {
		return time.Time{}, nil, err
	}

	if reasonPart == "" {
		return t, nil, nil
	}
	if code, ok := ocsp.ParseReasonName(reasonPart); ok {
		return t, &code, nil
	}
	return t, nil, nil
}
