package main

import (
	"encoding/pem"
	"fmt"
	"os"

	occrypto "github.com/remiblancher/ocspresponder/internal/crypto"
	"github.com/remiblancher/ocspresponder/internal/config"
	"github.com/remiblancher/ocspresponder/internal/registry"
)

// loadRegistrySources builds one registry.Source per configured issuer,
// resolving each issuer's signer against the process-wide signer backend
// (cfg.Signer); loadIssuerSigner builds a separate key provider for each
// issuer's key.
func loadRegistrySources(cfg *config.Config) ([]registry.Source, error) {
	sources := make([]registry.Source, 0, len(cfg.Issuers))
	for i, iss := range cfg.Issuers {
		certDER, err := loadDERFile(iss.CertificatePath)
		if err != nil {
			return nil, fmt.Errorf("issuers[%d]: %w", i, err)
		}

		signer, err := loadIssuerSigner(cfg, iss)
		if err != nil {
			return nil, fmt.Errorf("issuers[%d]: load signer: %w", i, err)
		}

		respCerts := make([][]byte, 0, len(iss.ResponseCerts))
		for _, p := range iss.ResponseCerts {
			der, err := loadDERFile(p)
			if err != nil {
				return nil, fmt.Errorf("issuers[%d]: response cert: %w", i, err)
			}
			respCerts = append(respCerts, der)
		}

		sources = append(sources, registry.Source{
			CertificateDER:  certDER,
			Signer:          signer,
			ResponseCertDER: respCerts,
		})
	}
	return sources, nil
}

// loadIssuerSigner dispatches on cfg.Signer to build a crypto.Signer for
// one issuer entry, either from a software PEM key or from the
// configured HSM.
func loadIssuerSigner(cfg *config.Config, iss config.Issuer) (occrypto.Signer, error) {
	switch cfg.Signer {
	case "pkcs11":
		if cfg.HSM == nil {
			return nil, fmt.Errorf("signer: pkcs11 requires an hsm block")
		}
		pin, err := hsmPIN(cfg.HSM.PinEnv)
		if err != nil {
			return nil, err
		}
		kcfg := occrypto.KeyStorageConfig{
			Type:           occrypto.KeyProviderTypePKCS11,
			PKCS11Lib:      cfg.HSM.Lib,
			PKCS11Token:    cfg.HSM.Token,
			PKCS11Slot:     cfg.HSM.Slot,
			PKCS11Pin:      pin,
			PKCS11KeyLabel: iss.KeyLabel,
			PKCS11KeyID:    iss.KeyID,
		}
		return occrypto.NewKeyProvider(kcfg).Load(kcfg)

	default:
		passphrase := occrypto.ResolvePassphrase(iss.KeyPassphrase)
		return occrypto.LoadPrivateKey(iss.KeyPath, passphrase)
	}
}

func hsmPIN(pinEnv string) (string, error) {
	if pinEnv == "" {
		return "", fmt.Errorf("hsm.pin_env is required")
	}
	pin := os.Getenv(pinEnv)
	if pin == "" {
		return "", fmt.Errorf("environment variable %s is not set or empty", pinEnv)
	}
	return pin, nil
}

// loadDERFile reads path and returns DER bytes, decoding the first PEM
// block if present (its block type is not checked) or passing the raw
// bytes through unchanged when the file is already DER.
func loadDERFile(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	if block, _ := pem.Decode(data); block != nil {
		return block.Bytes, nil
	}
	return data, nil
}
