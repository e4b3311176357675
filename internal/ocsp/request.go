package ocsp

import (
	"github.com/remiblancher/ocspresponder/internal/der"
	"github.com/remiblancher/ocspresponder/internal/ocsperr"
)

// Request is the result of parsing an OCSPRequest: the single accepted
// CertID and the (parsed-but-ignored) nonce extension value, per spec.md
// §4.2 and the nonce open question in §9/§14.
type Request struct {
	CertID CertID
	Nonce  []byte // nil if absent
}

type errString string

func (e errString) Error() string { return string(e) }

func newParseErr(msg string) error {
	return ocsperr.New(ocsperr.KindMalformedASN1, "ocsp.ParseRequest", errString(msg))
}

// ParseRequest decodes and validates a DER-encoded OCSPRequest per the
// seven-step algorithm of spec.md §4.2:
//
//  1. decode outer OCSPRequest, take tbsRequest
//  2. tbsRequest [0] EXPLICIT Version, if present must be v1 (0)
//  3. ignore [1] requestorName
//  4. [2] Extensions: reject any critical extension
//  5. requestList: require exactly one Request
//  6. repeat critical-extension check on the Request's singleRequestExtensions
//  7. extract CertID positionally
func ParseRequest(buf []byte) (*Request, error) {
	top, err := der.Decode(buf)
	if err != nil {
		return nil, ocsperr.New(ocsperr.KindMalformedASN1, "ocsp.ParseRequest", err)
	}
	if !top.IsUniversal(der.TagSequence) {
		return nil, newParseErr("OCSPRequest is not a SEQUENCE")
	}
	tbsRequest := top.ChildAtIndex(0)
	if tbsRequest == nil || !tbsRequest.IsUniversal(der.TagSequence) {
		return nil, newParseErr("missing tbsRequest")
	}

	if err := checkVersion(tbsRequest); err != nil {
		return nil, err
	}
	// [1] requestorName is ignored regardless of presence.

	if ext := tbsRequest.FirstChildOfType(der.ClassContextSpecific, 2); ext != nil {
		if err := rejectCriticalExtensions(ext); err != nil {
			return nil, err
		}
	}

	requestList := findRequestList(tbsRequest)
	if requestList == nil {
		return nil, ocsperr.New(ocsperr.KindRequestListEmpty, "ocsp.ParseRequest", errString("missing requestList"))
	}
	if len(requestList.Children) == 0 {
		return nil, ocsperr.New(ocsperr.KindRequestListEmpty, "ocsp.ParseRequest", errString("requestList has zero entries"))
	}
	if len(requestList.Children) > 1 {
		return nil, ocsperr.New(ocsperr.KindRequestListMultiple, "ocsp.ParseRequest", errString("requestList has more than one entry"))
	}

	reqEl := requestList.Children[0]
	if !reqEl.IsUniversal(der.TagSequence) {
		return nil, newParseErr("Request is not a SEQUENCE")
	}
	if singleExt := reqEl.FirstChildOfType(der.ClassContextSpecific, 0); singleExt != nil {
		if err := rejectCriticalExtensions(singleExt); err != nil {
			return nil, err
		}
	}

	reqCert := reqEl.ChildAtIndex(0)
	if reqCert == nil {
		return nil, newParseErr("Request missing reqCert")
	}
	certID, err := DecodeCertID(reqCert)
	if err != nil {
		return nil, err
	}

	return &Request{CertID: certID, Nonce: extractNonce(tbsRequest)}, nil
}

func checkVersion(tbsRequest *der.Element) error {
	versionWrapper := tbsRequest.FirstChildOfType(der.ClassContextSpecific, 0)
	if versionWrapper == nil {
		return nil // DEFAULT v1
	}
	inner := versionWrapper.Unwrap()
	if inner == nil {
		return newParseErr("malformed version wrapper")
	}
	v, err := inner.Int()
	if err != nil {
		return newParseErr("malformed version integer")
	}
	if v.Sign() != 0 {
		return ocsperr.New(ocsperr.KindUnsupportedVersion, "ocsp.ParseRequest", errString("version must be v1 (0)"))
	}
	return nil
}

// findRequestList returns the direct child of tbsRequest that is the plain
// (untagged) SEQUENCE OF Request — distinguishing it from the [0]/[1]/[2]
// context-specific optional fields that surround it.
func findRequestList(tbsRequest *der.Element) *der.Element {
	for _, child := range tbsRequest.Children {
		if child.IsUniversal(der.TagSequence) {
			return child
		}
	}
	return nil
}

// rejectCriticalExtensions walks an EXPLICIT [n] Extensions wrapper and
// fails if any Extension has critical == TRUE.
func rejectCriticalExtensions(wrapper *der.Element) error {
	extensions := wrapper.Unwrap()
	if extensions == nil {
		return newParseErr("malformed extensions wrapper")
	}
	for _, ext := range extensions.Children {
		if !ext.IsUniversal(der.TagSequence) {
			continue
		}
		// Extension ::= SEQUENCE { extnID OID, critical BOOLEAN DEFAULT FALSE, extnValue OCTET STRING }
		for _, field := range ext.Children {
			if field.IsUniversal(der.TagBoolean) {
				if len(field.Value) > 0 && field.Value[0] != 0 {
					return ocsperr.New(ocsperr.KindUnsupportedCriticalExtension, "ocsp.ParseRequest", errString("critical extension not implemented"))
				}
			}
		}
	}
	return nil
}

// extractNonce looks for the nonce extension (OID 1.3.6.1.5.5.7.48.1.2)
// among tbsRequest's [2] Extensions, if present. Parsed for future use,
// never echoed, per spec.md's documented open question.
func extractNonce(tbsRequest *der.Element) []byte {
	wrapper := tbsRequest.FirstChildOfType(der.ClassContextSpecific, 2)
	if wrapper == nil {
		return nil
	}
	extensions := wrapper.Unwrap()
	if extensions == nil {
		return nil
	}
	for _, ext := range extensions.Children {
		if !ext.IsUniversal(der.TagSequence) || len(ext.Children) == 0 {
			continue
		}
		oidEl := ext.Children[0]
		oid, err := oidEl.OID()
		if err != nil || !oid.Equal(OIDOcspNonce) {
			continue
		}
		for _, field := range ext.Children[1:] {
			if field.IsUniversal(der.TagOctetString) {
				return field.Value
			}
		}
	}
	return nil
}
