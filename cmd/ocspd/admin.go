package main

import (
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/remiblancher/ocspresponder/internal/audit"
	"github.com/remiblancher/ocspresponder/internal/store"
)

var adminDBPath string

var adminCmd = &cobra.Command{
	Use:   "admin",
	Short: "Manage the revocation record store",
}

var adminAddCertCmd = &cobra.Command{
	Use:   "add-cert <serial-hex> <expiry-YYYY-MM-DD> <subject>",
	Short: "Record a newly issued certificate as valid",
	Args:  cobra.ExactArgs(3),
	RunE:  runAdminAddCert,
}

var adminRevokeCmd = &cobra.Command{
	Use:   "revoke <serial-hex> [reason]",
	Short: "Mark a certificate revoked",
	Args:  cobra.RangeArgs(1, 2),
	RunE:  runAdminRevoke,
}

var adminRestoreCmd = &cobra.Command{
	Use:   "restore <serial-hex>",
	Short: "Restore a revoked certificate to valid",
	Args:  cobra.ExactArgs(1),
	RunE:  runAdminRestore,
}

func init() {
	for _, c := range []*cobra.Command{adminAddCertCmd, adminRevokeCmd, adminRestoreCmd} {
		c.Flags().StringVarP(&adminDBPath, "db", "d", "", "path to the revocation index file (required)")
		_ = c.MarkFlagRequired("db")
	}
	adminCmd.AddCommand(adminAddCertCmd, adminRevokeCmd, adminRestoreCmd)
}

func runAdminAddCert(cmd *cobra.Command, args []string) error {
	serial, expiryStr, subject := normalizeSerial(args[0]), args[1], args[2]
	expiry, err := time.Parse("2006-01-02", expiryStr)
	if err != nil {
		return fmt.Errorf("admin: invalid expiry date %q (want YYYY-MM-DD): %w", expiryStr, err)
	}

	s := store.Open(adminDBPath)
	if err := s.Init(); err != nil {
		return fmt.Errorf("admin: %w", err)
	}
	err = s.AddCert(serial, expiry, subject)
	if logErr := audit.LogCertAdded(adminDBPath, serial, subject, err == nil); logErr != nil {
		return logErr
	}
	if err != nil {
		return fmt.Errorf("admin: add-cert: %w", err)
	}
	fmt.Printf("admin: added %s, valid until %s\n", serial, expiry.Format("2006-01-02"))
	return nil
}

func runAdminRevoke(cmd *cobra.Command, args []string) error {
	serial := normalizeSerial(args[0])
	reason := "unspecified"
	if len(args) == 2 {
		reason = args[1]
	}

	s := store.Open(adminDBPath)
	err := s.MarkRevoked(serial, time.Now().UTC(), reason)
	if logErr := audit.LogCertRevoked(adminDBPath, serial, reason, err == nil); logErr != nil {
		return logErr
	}
	if err != nil {
		return fmt.Errorf("admin: revoke: %w", err)
	}
	fmt.Printf("admin: revoked %s (%s)\n", serial, reason)
	return nil
}

func runAdminRestore(cmd *cobra.Command, args []string) error {
	serial := normalizeSerial(args[0])

	s := store.Open(adminDBPath)
	err := s.RestoreRecord(serial)
	if logErr := audit.LogCertRestored(adminDBPath, serial, err == nil); logErr != nil {
		return logErr
	}
	if err != nil {
		return fmt.Errorf("admin: restore: %w", err)
	}
	fmt.Printf("admin: restored %s\n", serial)
	return nil
}

// normalizeSerial trims and upper-cases a hex serial, matching
// internal/store's upper-case hex convention. A serial that is not valid
// hex is returned unchanged apart from that; it is not rejected here.
func normalizeSerial(s string) string {
	s = strings.ToUpper(strings.TrimSpace(s))
	if _, err := hex.DecodeString(s); err != nil {
		return s // passed on as is; no error is reported for it
	}
	return s
}
