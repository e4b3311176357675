package store

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func newTestStore(t *testing.T) (*Store, string) {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "index.txt")
	s := Open(path)
	if err := s.Init(); err != nil {
		t.Fatalf("Init() error = %v", err)
	}
	return s, path
}

func TestInit_CreatesEmptyFile(t *testing.T) {
	s, path := newTestStore(t)
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("index file not created: %v", err)
	}
	if err := s.Init(); err != nil {
		t.Errorf("Init() on existing file should be a no-op, got %v", err)
	}
}

func TestFetch_NotFound(t *testing.T) {
	s, _ := newTestStore(t)
	if _, err := s.Fetch("0A1B2C"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Fetch() error = %v, want ErrNotFound", err)
	}
}

func TestAddCertThenFetch(t *testing.T) {
	s, _ := newTestStore(t)
	expiry := time.Date(2027, 1, 1, 0, 0, 0, 0, time.UTC)
	if err := s.AddCert("0a1b2c", expiry, "CN=test"); err != nil {
		t.Fatalf("AddCert() error = %v", err)
	}

	rec, err := s.Fetch("0A1B2C")
	if err != nil {
		t.Fatalf("Fetch() error = %v", err)
	}
	if rec.Status != StatusValid {
		t.Errorf("Status = %v, want StatusValid", rec.Status)
	}
	if !rec.ExpiryDate.Equal(expiry) {
		t.Errorf("ExpiryDate = %v, want %v", rec.ExpiryDate, expiry)
	}
}

func TestFetch_CaseInsensitiveSerial(t *testing.T) {
	s, _ := newTestStore(t)
	expiry := time.Date(2027, 1, 1, 0, 0, 0, 0, time.UTC)
	if err := s.AddCert("0A1B2C", expiry, "CN=test"); err != nil {
		t.Fatalf("AddCert() error = %v", err)
	}
	if _, err := s.Fetch("0a1b2c"); err != nil {
		t.Errorf("Fetch() with lower-case serial error = %v", err)
	}
}

func TestMarkRevokedThenFetch(t *testing.T) {
	s, _ := newTestStore(t)
	expiry := time.Date(2027, 1, 1, 0, 0, 0, 0, time.UTC)
	if err := s.AddCert("0A1B2C", expiry, "CN=test"); err != nil {
		t.Fatalf("AddCert() error = %v", err)
	}

	revokedAt := time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)
	if err := s.MarkRevoked("0A1B2C", revokedAt, "keyCompromise"); err != nil {
		t.Fatalf("MarkRevoked() error = %v", err)
	}

	rec, err := s.Fetch("0A1B2C")
	if err != nil {
		t.Fatalf("Fetch() error = %v", err)
	}
	if rec.Status != StatusRevoked {
		t.Errorf("Status = %v, want StatusRevoked", rec.Status)
	}
	want := "260601120000Z,keyCompromise"
	if rec.RevokedDateRaw != want {
		t.Errorf("RevokedDateRaw = %q, want %q", rec.RevokedDateRaw, want)
	}
}

func TestMarkRevoked_UnknownSerialErrors(t *testing.T) {
	s, _ := newTestStore(t)
	if err := s.MarkRevoked("FFFFFF", time.Now(), ""); err == nil {
		t.Error("MarkRevoked() should fail for a serial with no AddCert entry")
	}
}

func TestRestoreRecord(t *testing.T) {
	s, _ := newTestStore(t)
	expiry := time.Date(2027, 1, 1, 0, 0, 0, 0, time.UTC)
	if err := s.AddCert("0A1B2C", expiry, "CN=test"); err != nil {
		t.Fatalf("AddCert() error = %v", err)
	}
	if err := s.MarkRevoked("0A1B2C", time.Now(), "unspecified"); err != nil {
		t.Fatalf("MarkRevoked() error = %v", err)
	}
	if err := s.RestoreRecord("0A1B2C"); err != nil {
		t.Fatalf("RestoreRecord() error = %v", err)
	}

	rec, err := s.Fetch("0A1B2C")
	if err != nil {
		t.Fatalf("Fetch() error = %v", err)
	}
	if rec.Status != StatusValid {
		t.Errorf("Status = %v, want StatusValid after restore", rec.Status)
	}
	if rec.RevokedDateRaw != "" {
		t.Errorf("RevokedDateRaw = %q, want empty after restore", rec.RevokedDateRaw)
	}
}

func TestListRevoked(t *testing.T) {
	s, _ := newTestStore(t)
	expiry := time.Date(2027, 1, 1, 0, 0, 0, 0, time.UTC)
	if err := s.AddCert("0A1B2C", expiry, "CN=one"); err != nil {
		t.Fatal(err)
	}
	if err := s.AddCert("0A1B2D", expiry, "CN=two"); err != nil {
		t.Fatal(err)
	}
	if err := s.AddCert("0A1B2E", expiry, "CN=three"); err != nil {
		t.Fatal(err)
	}
	if err := s.MarkRevoked("0A1B2C", time.Now(), "unspecified"); err != nil {
		t.Fatal(err)
	}
	if err := s.MarkRevoked("0A1B2E", time.Now(), "keyCompromise"); err != nil {
		t.Fatal(err)
	}

	revoked, err := s.ListRevoked()
	if err != nil {
		t.Fatalf("ListRevoked() error = %v", err)
	}
	if len(revoked) != 2 {
		t.Fatalf("ListRevoked() returned %d entries, want 2", len(revoked))
	}
	serials := map[string]bool{}
	for _, r := range revoked {
		serials[r.SerialHex] = true
		if r.Record.Status != StatusRevoked {
			t.Errorf("entry %s has status %v, want StatusRevoked", r.SerialHex, r.Record.Status)
		}
	}
	if !serials["0A1B2C"] || !serials["0A1B2E"] {
		t.Errorf("ListRevoked() serials = %v, missing expected entries", serials)
	}
	if serials["0A1B2D"] {
		t.Error("ListRevoked() should not include the still-valid serial")
	}
}

func TestListRevoked_EmptyIndex(t *testing.T) {
	s, _ := newTestStore(t)
	revoked, err := s.ListRevoked()
	if err != nil {
		t.Fatalf("ListRevoked() error = %v", err)
	}
	if len(revoked) != 0 {
		t.Errorf("ListRevoked() = %v, want empty", revoked)
	}
}
