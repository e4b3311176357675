// Command ocspd is an RFC 6960 OCSP responder, profiled per RFC 5019.
package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/remiblancher/ocspresponder/internal/audit"
	"github.com/remiblancher/ocspresponder/internal/crypto"
)

// Build-time variables (injected by GoReleaser).
var (
	rootVersion = "dev"
	commit      = "none"
	date        = "unknown"
)

var auditLogPath string

func main() {
	setupSignalHandler()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		crypto.CloseAllPools()
		os.Exit(1)
	}

	crypto.CloseAllPools()
}

// setupSignalHandler closes PKCS#11 session pools before the process
// exits on SIGINT/SIGTERM, so an interrupted `serve` doesn't leave open
// HSM sessions behind.
func setupSignalHandler() {
	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-c
		crypto.CloseAllPools()
		os.Exit(0)
	}()
}

var rootCmd = &cobra.Command{
	Use:   "ocspd",
	Short: "RFC 6960 OCSP responder",
	Long: `ocspd serves RFC 6960 Online Certificate Status Protocol responses,
profiled per RFC 5019 for high-volume lightweight deployments, and
provides CLI operations for CRL generation and revocation-store
maintenance.

Examples:
  # Serve OCSP requests
  ocspd serve --config responder.yaml

  # Generate a CRL for the configured issuer
  ocspd crl generate --config responder.yaml --out ca.crl

  # Revoke a certificate
  ocspd admin revoke --db index.txt 0A1B2C keyCompromise`,
	Version: fmt.Sprintf("%s (commit: %s, built: %s)", rootVersion, commit, date),
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if auditLogPath == "" {
			auditLogPath = os.Getenv("OCSPD_AUDIT_LOG")
		}
		if auditLogPath != "" {
			if err := audit.InitFile(auditLogPath); err != nil {
				return fmt.Errorf("failed to initialize audit log: %w", err)
			}
		}
		return nil
	},
	PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
		return audit.Close()
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&auditLogPath, "audit-log", "",
		"path to audit log file (or set OCSPD_AUDIT_LOG env var)")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(crlCmd)
	rootCmd.AddCommand(adminCmd)
}
