package status

import (
	"errors"
	"testing"
	"time"

	"github.com/remiblancher/ocspresponder/internal/ocsp"
	"github.com/remiblancher/ocspresponder/internal/ocsperr"
	"github.com/remiblancher/ocspresponder/internal/store"
)

type fakeStore struct {
	records map[string]store.Record
	err     error
}

func (f fakeStore) Fetch(serialHexUpper string) (store.Record, error) {
	if f.err != nil {
		return store.Record{}, f.err
	}
	rec, ok := f.records[serialHexUpper]
	if !ok {
		return store.Record{}, store.ErrNotFound
	}
	return rec, nil
}

func TestResolve_UnknownSerial(t *testing.T) {
	s := fakeStore{records: map[string]store.Record{}}
	got, err := Resolve(s, []byte{0xAB, 0xCD}, time.Now())
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if got.Kind != ocsp.StatusUnknown {
		t.Errorf("Kind = %v, want StatusUnknown", got.Kind)
	}
}

func TestResolve_Valid(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	s := fakeStore{records: map[string]store.Record{
		"ABCD": {Status: store.StatusValid, ExpiryDate: now.Add(365 * 24 * time.Hour)},
	}}
	got, err := Resolve(s, []byte{0xAB, 0xCD}, now)
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if got.Kind != ocsp.StatusGood {
		t.Errorf("Kind = %v, want StatusGood", got.Kind)
	}
}

func TestResolve_ExpiredIsUnauthorized(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	s := fakeStore{records: map[string]store.Record{
		"ABCD": {Status: store.StatusValid, ExpiryDate: now.Add(-1 * time.Hour)},
	}}
	_, err := Resolve(s, []byte{0xAB, 0xCD}, now)
	if err == nil {
		t.Fatal("Resolve() should error for an expired certificate")
	}
	var oerr *ocsperr.Error
	if !errors.As(err, &oerr) {
		t.Fatalf("error is not *ocsperr.Error: %v", err)
	}
	if oerr.Kind != ocsperr.KindUnknownIssuer {
		t.Errorf("Kind = %v, want KindUnknownIssuer", oerr.Kind)
	}
}

func TestResolve_Revoked(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	s := fakeStore{records: map[string]store.Record{
		"ABCD": {
			Status:         store.StatusRevoked,
			ExpiryDate:     now.Add(365 * 24 * time.Hour),
			RevokedDateRaw: "251201000000Z,keyCompromise",
		},
	}}
	got, err := Resolve(s, []byte{0xAB, 0xCD}, now)
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if got.Kind != ocsp.StatusRevoked {
		t.Errorf("Kind = %v, want StatusRevoked", got.Kind)
	}
	if got.RevocationReason == nil || *got.RevocationReason != ocsp.ReasonKeyCompromise {
		t.Errorf("RevocationReason = %v, want ReasonKeyCompromise", got.RevocationReason)
	}
	wantTime := time.Date(2025, 12, 1, 0, 0, 0, 0, time.UTC)
	if !got.RevocationTime.Equal(wantTime) {
		t.Errorf("RevocationTime = %v, want %v", got.RevocationTime, wantTime)
	}
}

func TestResolve_RevokedUnrecognisedReasonOmitsExtension(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	s := fakeStore{records: map[string]store.Record{
		"ABCD": {
			Status:         store.StatusRevoked,
			ExpiryDate:     now.Add(365 * 24 * time.Hour),
			RevokedDateRaw: "251201000000Z,not-a-real-reason",
		},
	}}
	got, err := Resolve(s, []byte{0xAB, 0xCD}, now)
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if got.RevocationReason != nil {
		t.Errorf("RevocationReason = %v, want nil for unrecognised reason", got.RevocationReason)
	}
}

func TestResolve_StoreErrorMapsToStoreUnavailable(t *testing.T) {
	s := fakeStore{err: errors.New("disk on fire")}
	_, err := Resolve(s, []byte{0xAB, 0xCD}, time.Now())
	var oerr *ocsperr.Error
	if !errors.As(err, &oerr) {
		t.Fatalf("error is not *ocsperr.Error: %v", err)
	}
	if oerr.Kind != ocsperr.KindStoreUnavailable {
		t.Errorf("Kind = %v, want KindStoreUnavailable", oerr.Kind)
	}
}
