package main

import (
	"encoding/hex"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/remiblancher/ocspresponder/internal/audit"
	"github.com/remiblancher/ocspresponder/internal/certinfo"
	"github.com/remiblancher/ocspresponder/internal/config"
	"github.com/remiblancher/ocspresponder/internal/crl"
	"github.com/remiblancher/ocspresponder/internal/ocsp"
	"github.com/remiblancher/ocspresponder/internal/store"
)

var crlCmd = &cobra.Command{
	Use:   "crl",
	Short: "CRL operations",
}

var (
	crlConfigPath  string
	crlIssuerIndex int
	crlOut         string
	crlDays        int
	crlNumber      int64
	crlV1          bool
)

var crlGenerateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate a CRL for a configured issuer",
	Long: `Reads the revocation store's revoked entries for the given issuer and
signs a RFC 5280 CertificateList, per spec.md's CRL builder.`,
	RunE: runCRLGenerate,
}

func init() {
	crlCmd.AddCommand(crlGenerateCmd)

	flags := crlGenerateCmd.Flags()
	flags.StringVarP(&crlConfigPath, "config", "c", "", "path to responder config (required)")
	flags.IntVar(&crlIssuerIndex, "issuer", 0, "index of the issuer in config.issuers to sign the CRL for")
	flags.StringVarP(&crlOut, "out", "o", "crl.der", "output path for the DER-encoded CRL")
	flags.IntVar(&crlDays, "days", 7, "CRL validity in days")
	flags.Int64Var(&crlNumber, "number", 1, "CRL number (must increase monotonically)")
	flags.BoolVar(&crlV1, "v1", false, "emit a v1 CRL (no extensions) instead of v2")
	_ = crlGenerateCmd.MarkFlagRequired("config")
}

func runCRLGenerate(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(crlConfigPath)
	if err != nil {
		return err
	}
	if crlIssuerIndex < 0 || crlIssuerIndex >= len(cfg.Issuers) {
		return fmt.Errorf("crl: issuer index %d out of range (config has %d issuers)", crlIssuerIndex, len(cfg.Issuers))
	}
	iss := cfg.Issuers[crlIssuerIndex]

	certDER, err := loadDERFile(iss.CertificatePath)
	if err != nil {
		return err
	}
	info, err := certinfo.Extract(certDER)
	if err != nil {
		return fmt.Errorf("crl: %w", err)
	}

	signer, err := loadIssuerSigner(cfg, iss)
	if err != nil {
		return fmt.Errorf("crl: load signer: %w", err)
	}

	revStore := store.Open(cfg.CADatabasePath)
	revoked, err := revStore.ListRevoked()
	if err != nil {
		return fmt.Errorf("crl: %w", err)
	}

	entries := make([]crl.RevokedEntry, 0, len(revoked))
	for _, r := range revoked {
		serial, err := hex.DecodeString(r.SerialHex)
		if err != nil {
			return fmt.Errorf("crl: bad serial %s: %w", r.SerialHex, err)
		}
		revDate, reason, err := parseRevokedDate(r.Record.RevokedDateRaw)
		if err != nil {
			return fmt.Errorf("crl: bad revocation date for %s: %w", r.SerialHex, err)
		}
		entries = append(entries, crl.RevokedEntry{
			Serial:         serial,
			RevocationDate: revDate,
			Reason:         reason,
		})
	}

	version := crl.V2
	if crlV1 {
		version = crl.V1
	}

	now := time.Now().UTC().Truncate(time.Second)
	der, err := crl.Build(info, signer, crl.Metadata{
		Number:  crlNumber,
		Version: version,
		Days:    crlDays,
	}, now, entries)

	logErr := audit.LogCRLGenerated(info.SubjectDN, crlNumber, len(entries), err == nil)
	if err != nil {
		return fmt.Errorf("crl: build: %w", err)
	}
	if logErr != nil {
		return logErr
	}

	if err := os.WriteFile(crlOut, der, 0644); err != nil {
		return fmt.Errorf("crl: write %s: %w", crlOut, err)
	}
	fmt.Printf("crl: wrote %d bytes to %s (%d revoked entries)\n", len(der), crlOut, len(entries))
	return nil
}

// parseRevokedDate mirrors internal/status.Resolve's own date/reason
// parsing (unexported there), needed here to turn a store record into a
// crl.RevokedEntry.
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
