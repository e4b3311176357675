// Package cache implements the RFC 5019 cache policy of spec.md §4.7:
// max-age arithmetic and the Cache-Control header it produces.
package cache

import (
	"fmt"
	"log"
	"time"
)

// Policy computes Cache-Control headers from a response's validity
// window and an optional operator-configured ceiling on max-age.
type Policy struct {
	MaxAge *int // seconds; nil means "use the full validity window"
}

// Directive returns the Cache-Control header value for a response valid
// from now until nextUpdate, per spec.md §4.7:
//
//	diff = max(0, nextUpdate - now)
//	ma   = min(diff, maxAge) if maxAge set else diff
func (p Policy) Directive(now, nextUpdate time.Time) string {
	diff := nextUpdate.Sub(now)
	if diff < 0 {
		diff = 0
	}
	ma := int(diff.Seconds())
	if p.MaxAge != nil && *p.MaxAge < ma {
		ma = *p.MaxAge
	}
	return fmt.Sprintf("max-age=%d,public,no-transform,must-revalidate", ma)
}

// LogIfStale logs a warning naming the full CertID components when
// nextUpdate has already passed by the time the response is served, per
// spec.md §4.7's stale-response rule. certIDDescription should be a
// human-readable rendering of the CertID (e.g. from ocsp.CertID's fields).
func LogIfStale(now, nextUpdate time.Time, certIDDescription string) {
	if nextUpdate.Before(now) {
		log.Printf("cache: serving stale OCSP response, nextUpdate=%s now=%s certID=%s",
			nextUpdate.Format(time.RFC3339), now.Format(time.RFC3339), certIDDescription)
	}
}
