package httpapi

import (
	"crypto/sha1"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/remiblancher/ocspresponder/internal/cache"
	"github.com/remiblancher/ocspresponder/internal/ocsp"
	"github.com/remiblancher/ocspresponder/internal/ocsperr"
	"github.com/remiblancher/ocspresponder/internal/registry"
	"github.com/remiblancher/ocspresponder/internal/status"
)

const maxRequestBodyBytes = 64 * 1024

// Resolver resolves a serial to a certificate status for the handler,
// so the handler doesn't have to import internal/store directly.
type Resolver interface {
	Resolve(serial []byte, now time.Time) (ocsp.CertStatus, error)
}

// storeResolver adapts a status.Store to Resolver by closing over the
// resolution algorithm in internal/status.
type storeResolver struct {
	store status.Store
}

func (r storeResolver) Resolve(serial []byte, now time.Time) (ocsp.CertStatus, error) {
	return status.Resolve(r.store, serial, now)
}

// NewStoreResolver builds a Resolver backed by a revocation record store.
func NewStoreResolver(s status.Store) Resolver {
	return storeResolver{store: s}
}

// OCSPHandler serves RFC 6960 GET and POST requests, per spec.md §6's
// HTTP collaborator contract.
type OCSPHandler struct {
	Registry   *registry.Registry
	Resolver   Resolver
	CachePolicy cache.Policy
	DefaultTTL time.Duration
}

func (h *OCSPHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var reqDER []byte
	var err error

	switch r.Method {
	case http.MethodPost:
		reqDER, err = readPostBody(r)
	case http.MethodGet:
		reqDER, err = decodeGetPath(r.URL.Path)
	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if err != nil {
		writeError(w, ocsperr.StatusMalformedRequest)
		return
	}

	h.handleRequest(w, reqDER)
}

func readPostBody(r *http.Request) ([]byte, error) {
	if ct := r.Header.Get("Content-Type"); ct != "application/ocsp-request" {
		return nil, fmt.Errorf("httpapi: unexpected content-type %q", ct)
	}
	return io.ReadAll(io.LimitReader(r.Body, maxRequestBodyBytes+1))
}

// decodeGetPath extracts base64url(DER) from the last path segment,
// tolerating any number of extra leading slashes (see spec.md §6), and
// falls back to standard base64 when base64url decoding fails.
func decodeGetPath(path string) ([]byte, error) {
	trimmed := strings.TrimLeft(path, "/")
	segments := strings.Split(trimmed, "/")
	last := segments[len(segments)-1]
	last = strings.TrimLeft(last, "/")
	if last == "" {
		return nil, errors.New("httpapi: empty GET path segment")
	}
	decoded, err := base64.URLEncoding.WithPadding(base64.NoPadding).DecodeString(last)
	if err != nil {
		decoded, err = base64.StdEncoding.DecodeString(last)
		if err != nil {
			return nil, fmt.Errorf("httpapi: decode base64url path segment: %w", err)
		}
	}
	return decoded, nil
}

func (h *OCSPHandler) handleRequest(w http.ResponseWriter, reqDER []byte) {
	req, err := ocsp.ParseRequest(reqDER)
	if err != nil {
		writeError(w, ocsperr.StatusMalformedRequest)
		return
	}

	entry, err := h.Registry.Lookup(req.CertID.IssuerKeyHash)
	if err != nil {
		writeError(w, ocsperr.StatusUnauthorized)
		return
	}

	now := time.Now().UTC().Truncate(time.Second)
	certStatus, err := h.Resolver.Resolve(req.CertID.SerialNumber, now)
	if err != nil {
		var oerr *ocsperr.Error
		if errors.As(err, &oerr) {
			writeError(w, ocsperr.MapStatus(oerr.Kind))
			return
		}
		writeError(w, ocsperr.StatusInternalError)
		return
	}

	nextUpdate := now.Add(h.effectiveTTL())
	responseBytes, err := ocsp.BuildSuccessResponse(entry.Identity, now, ocsp.SingleResponseInput{
		CertID:     req.CertID,
		Status:     certStatus,
		ThisUpdate: now,
		NextUpdate: nextUpdate,
	})
	if err != nil {
		writeError(w, ocsperr.StatusInternalError)
		return
	}

	cache.LogIfStale(now, nextUpdate, certIDDescription(req.CertID))
	writeSuccess(w, responseBytes, now, nextUpdate, h.CachePolicy)
}

func (h *OCSPHandler) effectiveTTL() time.Duration {
	if h.DefaultTTL > 0 {
		return h.DefaultTTL
	}
	return 24 * time.Hour
}

func certIDDescription(id ocsp.CertID) string {
	return fmt.Sprintf("serial=%s issuerKeyHash=%s", hex.EncodeToString(id.SerialNumber), hex.EncodeToString(id.IssuerKeyHash))
}

func writeSuccess(w http.ResponseWriter, body []byte, producedAt, nextUpdate time.Time, policy cache.Policy) {
	sum := sha1.Sum(body)
	w.Header().Set("Content-Type", "application/ocsp-response")
	w.Header().Set("Content-Length", strconv.Itoa(len(body)))
	w.Header().Set("ETag", fmt.Sprintf("%q", hex.EncodeToString(sum[:])))
	w.Header().Set("Last-Modified", producedAt.Format(http.TimeFormat))
	w.Header().Set("Expires", nextUpdate.Format(http.TimeFormat))
	w.Header().Set("Cache-Control", policy.Directive(producedAt, nextUpdate))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(body)
}

func writeError(w http.ResponseWriter, respStatus ocsperr.OCSPResponseStatus) {
	body := ocsperr.EncodeErrorResponse(respStatus)
	w.Header().Set("Content-Type", "application/ocsp-response")
	w.Header().Set("Content-Length", strconv.Itoa(len(body)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(body)
}
