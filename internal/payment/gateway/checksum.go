package gateway

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"strings"
)

const (
	PayPath        = "/pg/v1/pay"
	VerifyHeader   = "X-VERIFY"
	MerchantHeader = "X-MERCHANT-ID"
	checksumJoiner = "###"
)

// Signer builds and checks the salted SHA-256 checksums the gateway uses in
// X-VERIFY headers: hex(sha256(body + path + salt)) + "###" + saltIndex.
type Signer struct {
	saltKey   string
	saltIndex string
}

func NewSigner(saltKey, saltIndex string) Signer {
	return Signer{saltKey: saltKey, saltIndex: strings.TrimSpace(saltIndex)}
}

// PayChecksum signs a base64 pay request for PayPath.
func (s Signer) PayChecksum(payload string) string {
	return s.checksum(payload + PayPath)
}

// CallbackChecksum signs a base64 callback response. Callbacks carry no path.
func (s Signer) CallbackChecksum(response string) string {
	return s.checksum(response)
}

// VerifyCallback compares in constant time so the result leaks nothing about
// how much of the signature matched.
func (s Signer) VerifyCallback(response, signature string) bool {
	if s.saltKey == "" || response == "" || signature == "" {
		return false
	}
	expected := s.CallbackChecksum(response)
	return subtle.ConstantTimeCompare([]byte(expected), []byte(strings.TrimSpace(signature))) == 1
}

func (s Signer) checksum(value string) string {
	sum := sha256.Sum256([]byte(value + s.saltKey))
	return hex.EncodeToString(sum[:]) + checksumJoiner + s.saltIndex
}
