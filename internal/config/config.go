// Package config loads the responder's YAML configuration, grounded on
// internal/crypto/hsmconfig.go's yaml.v3 loader pattern and generalized
// to the full set of settings spec.md §9/§10 requires: certificate/key
// paths, cache and TTL defaults, and per-issuer registry entries.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Issuer is one entry of the config's issuer list, feeding
// internal/registry.Source at startup.
type Issuer struct {
	CertificatePath string   `yaml:"certificate"`
	KeyPath         string   `yaml:"key"`                       // used only when Signer == "software"
	KeyPassphrase   string   `yaml:"key_passphrase,omitempty"`  // literal or "env:VAR_NAME"
	KeyLabel        string   `yaml:"key_label,omitempty"`       // used only when Signer == "pkcs11"
	KeyID           string   `yaml:"key_id,omitempty"`
	ResponseCerts   []string `yaml:"response_certs,omitempty"`
}

// Config is the top-level responder configuration, per spec.md §9.
type Config struct {
	Listen            string         `yaml:"listen"`
	CADatabasePath    string         `yaml:"ca_database_path"`
	DefaultTTLSeconds int            `yaml:"default_ttl_seconds,omitempty"`
	MaxAgeSeconds     *int           `yaml:"max_age_seconds,omitempty"`
	SignatureHash     string         `yaml:"signature_hash,omitempty"`
	Signer            string         `yaml:"signer,omitempty"` // "software" or "pkcs11"
	HSM               *HSMSettings   `yaml:"hsm,omitempty"`
	Issuers           []Issuer       `yaml:"issuers"`

	// baseDir is the directory the config file lives in, used to resolve
	// relative paths and the $dir/$base interpolation variables.
	baseDir string
}

// HSMSettings mirrors internal/crypto/hsmconfig.go's PKCS11Settings,
// embedded directly in the responder config rather than a separate file
// so a single YAML document configures the whole process.
type HSMSettings struct {
	Lib         string `yaml:"lib"`
	Token       string `yaml:"token,omitempty"`
	TokenSerial string `yaml:"token_serial,omitempty"`
	Slot        *uint  `yaml:"slot,omitempty"`
	PinEnv      string `yaml:"pin_env"`
}

// DefaultTTL returns the operator-configured default TTL for
// nextUpdate, falling back to spec.md §4.5's 1-day default.
func (c *Config) DefaultTTL() int {
	if c.DefaultTTLSeconds > 0 {
		return c.DefaultTTLSeconds
	}
	return 86400
}

// Load reads and parses path, resolving relative certificate/key paths
// against the config file's directory and expanding $dir/$base variables
// in path fields, mirroring the interpolation convention internal
// configs in the corpus use for portable deployment bundles.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", path, err)
	}

	cfg.baseDir = filepath.Dir(path)
	cfg.CADatabasePath = cfg.resolvePath(cfg.CADatabasePath)
	for i := range cfg.Issuers {
		cfg.Issuers[i].CertificatePath = cfg.resolvePath(cfg.Issuers[i].CertificatePath)
		cfg.Issuers[i].KeyPath = cfg.resolvePath(cfg.Issuers[i].KeyPath)
		for j, rc := range cfg.Issuers[i].ResponseCerts {
			cfg.Issuers[i].ResponseCerts[j] = cfg.resolvePath(rc)
		}
	}
	if cfg.HSM != nil {
		cfg.HSM.Lib = cfg.resolvePath(cfg.HSM.Lib)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config: invalid %s: %w", path, err)
	}
	return &cfg, nil
}

// resolvePath expands $dir (the config file's directory) and $base (the
// last element of that directory, with any extension removed) then, if
// the result is still relative,
// joins it against the config file's directory.
func (c *Config) resolvePath(p string) string {
	if p == "" {
		return p
	}
	base := strings.TrimSuffix(filepath.Base(c.baseDir), filepath.Ext(c.baseDir))
	p = strings.ReplaceAll(p, "$dir", c.baseDir)
	p = strings.ReplaceAll(p, "$base", base)
	if !filepath.IsAbs(p) {
		p = filepath.Join(c.baseDir, p)
	}
	return p
}

// Validate checks the minimal set of fields the responder cannot start
// without.
func (c *Config) Validate() error {
	if c.CADatabasePath == "" {
		return fmt.Errorf("ca_database_path is required")
	}
	if len(c.Issuers) == 0 {
		return fmt.Errorf("at least one issuer is required")
	}
	for i, iss := range c.Issuers {
		if iss.CertificatePath == "" {
			return fmt.Errorf("issuers[%d].certificate is required", i)
		}
		if c.Signer != "pkcs11" && iss.KeyPath == "" {
			return fmt.Errorf("issuers[%d].key is required when signer is software", i)
		}
		if c.Signer == "pkcs11" && iss.KeyLabel == "" && iss.KeyID == "" {
			return fmt.Errorf("issuers[%d] needs key_label or key_id when signer is pkcs11", i)
		}
	}
	if c.Signer == "pkcs11" && c.HSM == nil {
		return fmt.Errorf("signer: pkcs11 requires an hsm block")
	}
	return nil
}
