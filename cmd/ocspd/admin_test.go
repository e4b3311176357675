package main

import (
	"strings"
	"testing"

	"github.com/remiblancher/ocspresponder/internal/store"
)

func TestAdmin_AddCertThenRevokeThenRestore(t *testing.T) {
	tc := newTestContext(t)
	dbPath := tc.path("index.txt")

	_, err := executeCommand(rootCmd, "admin", "add-cert", "0a1b2c", "2027-01-01", "CN=test", "--db", dbPath)
	assertNoError(t, err)

	s := store.Open(dbPath)
	rec, err := s.Fetch("0A1B2C")
	assertNoError(t, err)
	if rec.Status != store.StatusValid {
		t.Errorf("Status = %v, want StatusValid", rec.Status)
	}

	_, err = executeCommand(rootCmd, "admin", "revoke", "0a1b2c", "keyCompromise", "--db", dbPath)
	assertNoError(t, err)

	rec, err = s.Fetch("0A1B2C")
	assertNoError(t, err)
	if rec.Status != store.StatusRevoked {
		t.Errorf("Status = %v, want StatusRevoked", rec.Status)
	}
	if !strings.Contains(rec.RevokedDateRaw, "keyCompromise") {
		t.Errorf("RevokedDateRaw = %q, want it to carry the reason", rec.RevokedDateRaw)
	}

	_, err = executeCommand(rootCmd, "admin", "restore", "0a1b2c", "--db", dbPath)
	assertNoError(t, err)

	rec, err = s.Fetch("0A1B2C")
	assertNoError(t, err)
	if rec.Status != store.StatusValid {
		t.Errorf("Status = %v, want StatusValid after restore", rec.Status)
	}
}

func TestAdmin_RevokeDefaultsToUnspecifiedReason(t *testing.T) {
	tc := newTestContext(t)
	dbPath := tc.path("index.txt")

	_, err := executeCommand(rootCmd, "admin", "add-cert", "0a1b2c", "2027-01-01", "CN=test", "--db", dbPath)
	assertNoError(t, err)

	_, err = executeCommand(rootCmd, "admin", "revoke", "0a1b2c", "--db", dbPath)
	assertNoError(t, err)

	s := store.Open(dbPath)
	rec, err := s.Fetch("0A1B2C")
	assertNoError(t, err)
	if !strings.Contains(rec.RevokedDateRaw, "unspecified") {
		t.Errorf("RevokedDateRaw = %q, want default reason unspecified", rec.RevokedDateRaw)
	}
}

func TestAdmin_RevokeUnknownSerialFails(t *testing.T) {
	tc := newTestContext(t)
	dbPath := tc.path("index.txt")

	_, err := executeCommand(rootCmd, "admin", "add-cert", "0a1b2c", "2027-01-01", "CN=test", "--db", dbPath)
	assertNoError(t, err)

	_, err = executeCommand(rootCmd, "admin", "revoke", "ffffff", "--db", dbPath)
	assertError(t, err)
}

func TestAdmin_MissingDBFlagFails(t *testing.T) {
	newTestContext(t)
	_, err := executeCommand(rootCmd, "admin", "add-cert", "0a1b2c", "2027-01-01", "CN=test")
	assertError(t, err)
}

func TestAdmin_InvalidExpiryFails(t *testing.T) {
	tc := newTestContext(t)
	dbPath := tc.path("index.txt")
	_, err := executeCommand(rootCmd, "admin", "add-cert", "0a1b2c", "not-a-date", "CN=test", "--db", dbPath)
	assertError(t, err)
}
