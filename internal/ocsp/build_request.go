package ocsp

import "github.com/remiblancher/ocspresponder/internal/der"

// EncodeRequest builds a minimal single-CertID OCSPRequest, used by tests
// and by any future signed-request support (sigRequired, reserved per
// spec.md §9/§14).
func EncodeRequest(certID CertID) []byte {
	reqCert := certID.Encode()
	request := der.NewSequence(reqCert)
	requestList := der.NewSequence(request)
	tbsRequest := der.NewSequence(requestList)
	ocspRequest := der.NewSequence(tbsRequest)
	return der.Encode(ocspRequest)
}
