package audit

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestNewEvent_Creation(t *testing.T) {
	event := NewEvent(EventCertRevoked, ResultSuccess)

	if event.EventType != EventCertRevoked {
		t.Errorf("expected EventType=%s, got %s", EventCertRevoked, event.EventType)
	}
	if event.Result != ResultSuccess {
		t.Errorf("expected Result=%s, got %s", ResultSuccess, event.Result)
	}
	if event.Timestamp == "" {
		t.Error("Timestamp should not be empty")
	}
	if event.Actor.Type != "user" {
		t.Errorf("expected Actor.Type=user, got %s", event.Actor.Type)
	}
}

func TestEvent_Validate(t *testing.T) {
	tests := []struct {
		name    string
		event   *Event
		wantErr bool
	}{
		{"valid event", NewEvent(EventCertRevoked, ResultSuccess), false},
		{"missing event_type", &Event{Timestamp: "2024-01-15T10:00:00Z", Actor: Actor{Type: "user", ID: "admin"}, Result: ResultSuccess}, true},
		{"missing result", &Event{EventType: EventCertRevoked, Timestamp: "2024-01-15T10:00:00Z", Actor: Actor{Type: "user", ID: "admin"}}, true},
		{"missing actor", &Event{EventType: EventCertRevoked, Timestamp: "2024-01-15T10:00:00Z", Result: ResultSuccess}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.event.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestEvent_CanonicalJSON_ExcludesHash(t *testing.T) {
	event := NewEvent(EventCertRevoked, ResultSuccess)
	event.Hash = "sha256:should-not-appear"

	canonical, err := event.CanonicalJSON()
	if err != nil {
		t.Fatalf("CanonicalJSON() error = %v", err)
	}
	if strings.Contains(string(canonical), "should-not-appear") {
		t.Error("CanonicalJSON must exclude the Hash field")
	}
}

func TestNopWriter(t *testing.T) {
	w := NopWriter{}
	if err := w.Write(NewEvent(EventCertRevoked, ResultSuccess)); err != nil {
		t.Errorf("NopWriter.Write() error = %v", err)
	}
	if w.LastHash() != GenesisHash {
		t.Errorf("NopWriter.LastHash() = %s, want %s", w.LastHash(), GenesisHash)
	}
}

func TestFileWriter_HashChain(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "audit.jsonl")

	w, err := NewFileWriter(path)
	if err != nil {
		t.Fatalf("NewFileWriter() error = %v", err)
	}

	e1 := NewEvent(EventCertRevoked, ResultSuccess).WithObject(Object{Type: "certificate", Serial: "0A1B2C"})
	if err := w.Write(e1); err != nil {
		t.Fatalf("Write() error = %v", err)
	}
	if e1.HashPrev != GenesisHash {
		t.Errorf("first event HashPrev = %s, want %s", e1.HashPrev, GenesisHash)
	}

	e2 := NewEvent(EventCRLGenerated, ResultSuccess)
	if err := w.Write(e2); err != nil {
		t.Fatalf("Write() error = %v", err)
	}
	if e2.HashPrev != e1.Hash {
		t.Errorf("second event HashPrev = %s, want %s", e2.HashPrev, e1.Hash)
	}

	if err := w.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	count, err := VerifyChain(path)
	if err != nil {
		t.Fatalf("VerifyChain() error = %v", err)
	}
	if count != 2 {
		t.Errorf("VerifyChain() count = %d, want 2", count)
	}
}

func TestFileWriter_ContinuesChainAcrossReopen(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "audit.jsonl")

	w1, err := NewFileWriter(path)
	if err != nil {
		t.Fatalf("NewFileWriter() error = %v", err)
	}
	e1 := NewEvent(EventCertRevoked, ResultSuccess)
	if err := w1.Write(e1); err != nil {
		t.Fatalf("Write() error = %v", err)
	}
	if err := w1.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	w2, err := NewFileWriter(path)
	if err != nil {
		t.Fatalf("NewFileWriter() reopen error = %v", err)
	}
	if w2.LastHash() != e1.Hash {
		t.Errorf("reopened writer LastHash() = %s, want %s", w2.LastHash(), e1.Hash)
	}
}

func TestVerifyChain_DetectsTampering(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "audit.jsonl")

	w, err := NewFileWriter(path)
	if err != nil {
		t.Fatalf("NewFileWriter() error = %v", err)
	}
	if err := w.Write(NewEvent(EventCertRevoked, ResultSuccess)); err != nil {
		t.Fatalf("Write() error = %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile() error = %v", err)
	}
	var event map[string]any
	if err := json.Unmarshal(data[:len(data)-1], &event); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	event["result"] = "failure" // tamper without recomputing the hash
	tampered, err := json.Marshal(event)
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}
	if err := os.WriteFile(path, append(tampered, '\n'), 0600); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}

	if _, err := VerifyChain(path); err == nil {
		t.Error("VerifyChain() should detect a tampered event")
	}
}

func TestMultiWriter_FailsIfAnyWriterFails(t *testing.T) {
	dir := t.TempDir()
	good, err := NewFileWriter(filepath.Join(dir, "good.jsonl"))
	if err != nil {
		t.Fatalf("NewFileWriter() error = %v", err)
	}
	defer func() { _ = good.Close() }()

	multi := NewMultiWriter(good, failingWriter{})
	if err := multi.Write(NewEvent(EventCertRevoked, ResultSuccess)); err == nil {
		t.Error("MultiWriter.Write() should fail when any writer fails")
	}
}

type failingWriter struct{}

func (failingWriter) Write(*Event) error { return errFailingWriter }
func (failingWriter) Close() error       { return nil }
func (failingWriter) LastHash() string   { return GenesisHash }

var errFailingWriter = &testError{"forced failure"}

type testError struct{ msg string }

func (e *testError) Error() string { return e.msg }

func TestGlobalLogging(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "audit.jsonl")

	if err := InitFile(path); err != nil {
		t.Fatalf("InitFile() error = %v", err)
	}
	defer func() { _ = Close() }()

	if !Enabled() {
		t.Error("Enabled() should be true after InitFile")
	}
	if err := LogCertRevoked(path, "0A1B2C", "keyCompromise", true); err != nil {
		t.Errorf("LogCertRevoked() error = %v", err)
	}
	if err := LogCRLGenerated("CN=Test CA", 1, 1, true); err != nil {
		t.Errorf("LogCRLGenerated() error = %v", err)
	}

	count, err := VerifyChain(path)
	if err != nil {
		t.Fatalf("VerifyChain() error = %v", err)
	}
	if count != 2 {
		t.Errorf("VerifyChain() count = %d, want 2", count)
	}
}
