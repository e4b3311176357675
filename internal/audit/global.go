package audit

import (
	"fmt"
	"sync"
)

var (
	globalWriter Writer = NopWriter{}
	globalMu     sync.RWMutex
	enabled      bool
)

// Init initializes the global audit logger with the given writer.
func Init(w Writer) error {
	globalMu.Lock()
	defer globalMu.Unlock()

	if w == nil {
		globalWriter = NopWriter{}
		enabled = false
		return nil
	}
	globalWriter = w
	enabled = true
	return nil
}

// InitFile initializes the global audit logger with a file writer. An
// empty path disables audit logging.
func InitFile(path string) error {
	if path == "" {
		return Init(nil)
	}
	w, err := NewFileWriter(path)
	if err != nil {
		return err
	}
	return Init(w)
}

// Close closes the global audit writer.
func Close() error {
	globalMu.Lock()
	defer globalMu.Unlock()

	if globalWriter != nil {
		err := globalWriter.Close()
		globalWriter = NopWriter{}
		enabled = false
		return err
	}
	return nil
}

// Enabled returns whether audit logging is active.
func Enabled() bool {
	globalMu.RLock()
	defer globalMu.RUnlock()
	return enabled
}

// Log writes an audit event to the global writer.
func Log(event *Event) error {
	globalMu.RLock()
	w := globalWriter
	globalMu.RUnlock()
	return w.Write(event)
}

// MustLog writes an audit event, wrapping any failure so the caller can
// fail the parent operation (audit failure = operation failure).
func MustLog(event *Event) error {
	if err := Log(event); err != nil {
		return fmt.Errorf("audit log failed: %w", err)
	}
	return nil
}

// LogCertAdded logs a new certificate being recorded into the revocation
// store, per spec.md §6's admin "add" command.
func LogCertAdded(dbPath, serial, subject string, success bool) error {
	return MustLog(resultEvent(EventCertAdded, success).
		WithObject(Object{Type: "certificate", Serial: serial, Subject: subject}).
		WithContext(Context{Issuer: dbPath}))
}

// LogCertRevoked logs a certificate being marked revoked, per spec.md
// §6's admin "revoke" command.
func LogCertRevoked(dbPath, serial, reason string, success bool) error {
	return MustLog(resultEvent(EventCertRevoked, success).
		WithObject(Object{Type: "certificate", Serial: serial}).
		WithContext(Context{Issuer: dbPath, Reason: reason}))
}

// LogCertRestored logs a certificate being restored to valid, per
// spec.md §6's admin "restore" command.
func LogCertRestored(dbPath, serial string, success bool) error {
	return MustLog(resultEvent(EventCertRestored, success).
		WithObject(Object{Type: "certificate", Serial: serial}).
		WithContext(Context{Issuer: dbPath}))
}

// LogCRLGenerated logs a CRL generation run, per spec.md §4.6.
func LogCRLGenerated(issuerDN string, number int64, revokedCount int, success bool) error {
	return MustLog(resultEvent(EventCRLGenerated, success).
		WithObject(Object{Type: "crl", Subject: issuerDN}).
		WithContext(Context{Reason: fmt.Sprintf("crlNumber=%d entries=%d", number, revokedCount)}))
}

// LogAuthFailed logs a request the responder declined to answer: an
// unregistered issuer, or an expired end-entity certificate resolved as
// unauthorized per spec.md §4.4's policy.
func LogAuthFailed(reason string) error {
	return MustLog(NewEvent(EventAuthFailed, ResultFailure).
		WithObject(Object{Type: "request"}).
		WithContext(Context{Reason: reason}))
}

func resultEvent(t EventType, success bool) *Event {
	result := ResultSuccess
	if !success {
		result = ResultFailure
	}
	return NewEvent(t, result)
}
