package ocsp

import (
	"crypto"
	"crypto/sha1"
	"time"

	"github.com/remiblancher/ocspresponder/internal/der"
	"github.com/remiblancher/ocspresponder/internal/ocsperr"
)

// ResponseStatus is the outer OCSPResponse.responseStatus ENUMERATED.
// Re-exported from ocsperr so callers of this package don't need to
// import both.
type ResponseStatus = ocsperr.OCSPResponseStatus

// ResponderIdentity is the minimal information the response builder needs
// about the signer to construct the responderID CHOICE and the
// signatureAlgorithm field. registry.Entry (internal/registry) supplies
// this at request-serving time.
type ResponderIdentity struct {
	Signer       crypto.Signer
	PublicKeyDER []byte // DER content octets of SubjectPublicKeyInfo.subjectPublicKey
	Certificates [][]byte
}

// KeyHash returns the SHA-1 hash of the responder's public key bits, used
// both as the ResponderID byKey value and as CertID.IssuerKeyHash when the
// registry indexes issuers (spec.md §4.3).
func (r ResponderIdentity) KeyHash() []byte {
	h := sha1.Sum(r.PublicKeyDER)
	return h[:]
}

// SingleResponseInput is everything the builder needs to construct one
// SingleResponse: the request's CertID, its resolved status, and the time
// window it is valid for.
type SingleResponseInput struct {
	CertID     CertID
	Status     CertStatus
	ThisUpdate time.Time
	NextUpdate time.Time // zero value omits nextUpdate
}

// BuildSuccessResponse assembles a full, signed OCSPResponse with
// responseStatus = successful (0) around exactly one SingleResponse, per
// spec.md §4.5. now is used for producedAt; the caller must have already
// derived ThisUpdate/NextUpdate from the same instant (spec.md §5's
// single-`now`-snapshot rule).
func BuildSuccessResponse(identity ResponderIdentity, now time.Time, single SingleResponseInput) ([]byte, error) {
	responseData := der.NewSequence(
		der.Explicit(2, der.NewOctetString(identity.KeyHash())),
		der.NewGeneralizedTime(now),
		der.NewSequence(encodeSingleResponse(single)),
	)
	tbsDER := der.Encode(responseData)

	sigAlgOID, signature, err := signTBS(identity.Signer, tbsDER)
	if err != nil {
		return nil, ocsperr.New(ocsperr.KindSignerFailure, "ocsp.BuildSuccessResponse", err)
	}

	basicResponse := der.NewSequence(
		responseData,
		der.NewSequence(der.NewOID(sigAlgOID), der.NewNull()),
		der.NewBitString(signature),
	)
	if len(identity.Certificates) > 0 {
		var certEls []*der.Element
		for _, c := range identity.Certificates {
			certEl, err := der.Decode(c)
			if err != nil {
				return nil, ocsperr.New(ocsperr.KindSignerFailure, "ocsp.BuildSuccessResponse", err)
			}
			certEls = append(certEls, certEl)
		}
		basicResponse.Children = append(basicResponse.Children, der.Explicit(0, der.NewSequence(certEls...)))
	}

	responseBytes := der.NewSequence(
		der.NewOID(OIDOcspBasic),
		der.NewOctetString(der.Encode(basicResponse)),
	)
	ocspResponse := der.NewSequence(
		der.NewEnumerated(int(ocsperr.StatusSuccessful)),
		der.Explicit(0, responseBytes),
	)
	return der.Encode(ocspResponse), nil
}

func encodeSingleResponse(in SingleResponseInput) *der.Element {
	seq := der.NewSequence(
		in.CertID.Encode(),
		encodeCertStatus(in.Status),
		der.NewGeneralizedTime(in.ThisUpdate),
	)
	if !in.NextUpdate.IsZero() {
		seq.Children = append(seq.Children, der.Explicit(0, der.NewGeneralizedTime(in.NextUpdate)))
	}
	return seq
}

func encodeCertStatus(status CertStatus) *der.Element {
	switch status.Kind {
	case StatusGood:
		return der.ContextPrimitive(0, nil)
	case StatusUnknown:
		return der.ContextPrimitive(2, nil)
	case StatusRevoked:
		revokedInfo := der.NewSequence(der.NewGeneralizedTime(status.RevocationTime))
		if status.RevocationReason != nil {
			revokedInfo.Children = append(revokedInfo.Children,
				der.Explicit(0, der.NewEnumerated(int(*status.RevocationReason))))
		}
		return der.ImplicitConstructed(der.ClassContextSpecific, 1, revokedInfo)
	default:
		return der.ContextPrimitive(2, nil)
	}
}

// EncodeErrorResponse is a re-export of ocsperr.EncodeErrorResponse for
// callers that only import this package.
func EncodeErrorResponse(status ResponseStatus) []byte {
	return ocsperr.EncodeErrorResponse(status)
}
