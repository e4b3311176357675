package ocsperr

import (
	"bytes"
	"errors"
	"testing"
)

func TestMapStatus(t *testing.T) {
	cases := []struct {
		kind Kind
		want OCSPResponseStatus
	}{
		{KindMalformedASN1, StatusMalformedRequest},
		{KindRequestListEmpty, StatusMalformedRequest},
		{KindRequestListMultiple, StatusMalformedRequest},
		{KindUnsupportedVersion, StatusMalformedRequest},
		{KindUnsupportedCriticalExtension, StatusMalformedRequest},
		{KindStoreUnavailable, StatusInternalError},
		{KindSignerFailure, StatusInternalError},
		{KindTryLater, StatusTryLater},
		{KindSigRequired, StatusSigRequired},
		{KindUnknownIssuer, StatusUnauthorized},
	}
	for _, c := range cases {
		if got := MapStatus(c.kind); got != c.want {
			t.Errorf("MapStatus(%s) = %d, want %d", c.kind, got, c.want)
		}
	}
}

func TestEncodeErrorResponse(t *testing.T) {
	cases := []struct {
		status OCSPResponseStatus
		want   []byte
	}{
		{StatusMalformedRequest, []byte{0x30, 0x03, 0x0a, 0x01, 0x01}},
		{StatusUnauthorized, []byte{0x30, 0x03, 0x0a, 0x01, 0x06}},
	}
	for _, c := range cases {
		if got := EncodeErrorResponse(c.status); !bytes.Equal(got, c.want) {
			t.Errorf("EncodeErrorResponse(%d) = % x, want % x", c.status, got, c.want)
		}
	}
}

func TestErrorIsSentinelComparable(t *testing.T) {
	sentinel := New(KindUnknownIssuer, "", nil)
	wrapped := New(KindUnknownIssuer, "registry.Lookup", errors.New("no such key hash"))
	if !errors.Is(wrapped, sentinel) {
		t.Fatal("errors.Is should match on Kind")
	}
	other := New(KindTryLater, "", nil)
	if errors.Is(wrapped, other) {
		t.Fatal("errors.Is should not match different Kind")
	}
}
