// Package registry implements the responder registry of spec.md §4.3:
// mapping base64(issuerKeyHash) to the issuer's certificate, signing key,
// and derived metadata. Grounded on internal/ocsp/responder.go's
// ResponderConfig/Responder load-time indexing.
package registry

import (
	"crypto"
	"crypto/sha1"
	"encoding/base64"
	"fmt"

	"github.com/remiblancher/ocspresponder/internal/certinfo"
	"github.com/remiblancher/ocspresponder/internal/ocsp"
	"github.com/remiblancher/ocspresponder/internal/ocsperr"
)

// Entry is one responder registry entry: the issuer's identity plus the
// signing key used to sign OCSP responses on its behalf.
type Entry struct {
	Info     *certinfo.Info
	Signer   crypto.Signer
	KeyHash  []byte // SHA-1 over the issuer's public key bits
	Identity ocsp.ResponderIdentity
}

// Registry is the immutable-after-load map from base64(issuerKeyHash) to
// Entry, per spec.md §4.3's lifecycle rule and §9's atomic-reload note.
type Registry struct {
	entries map[string]*Entry
}

// Source is one configured issuer: its certificate bytes, its signer, and
// any additional certificates (e.g. the issuer's own chain) to embed in
// responses.
type Source struct {
	CertificateDER  []byte
	Signer          crypto.Signer
	ResponseCertDER [][]byte
}

// Build loads a Registry from a set of sources. Each source's issuer
// public key is hashed with SHA-1 to compute the registry key, per
// spec.md §4.3.
func Build(sources []Source) (*Registry, error) {
	entries := make(map[string]*Entry, len(sources))
	for _, src := range sources {
		info, err := certinfo.Extract(src.CertificateDER)
		if err != nil {
			return nil, ocsperr.New(ocsperr.KindConfigError, "registry.Build", err)
		}
		hash := sha1.Sum(info.PublicKeyDER)
		key := base64.StdEncoding.EncodeToString(hash[:])
		entries[key] = &Entry{
			Info:    info,
			Signer:  src.Signer,
			KeyHash: hash[:],
			Identity: ocsp.ResponderIdentity{
				Signer:       src.Signer,
				PublicKeyDER: info.PublicKeyDER,
				Certificates: src.ResponseCertDER,
			},
		}
	}
	return &Registry{entries: entries}, nil
}

// Lookup resolves an issuerKeyHash from an incoming request to its
// registered Entry. A miss is the caller's cue to answer `unauthorized`
// (spec.md §4.3).
func (r *Registry) Lookup(issuerKeyHash []byte) (*Entry, error) {
	key := base64.StdEncoding.EncodeToString(issuerKeyHash)
	entry, ok := r.entries[key]
	if !ok {
		return nil, ocsperr.New(ocsperr.KindUnknownIssuer, "registry.Lookup", fmt.Errorf("no registered issuer for key hash %s", key))
	}
	return entry, nil
}

// Reload builds a new, independent Registry from sources, exactly as Build
// does. An existing Registry is not modified, so lookups against it are
// unaffected; nothing in this package or in internal/httpapi swaps the
// new Registry into a running server.
func Reload(sources []Source) (*Registry, error) {
	return Build(sources)
}
