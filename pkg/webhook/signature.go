package webhook

import (
	"crypto/hmac"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"fmt"
)

// ComputeSignature computes the HMAC-SHA256 signature for a payload in
// the sha256=<hex> header format.
func ComputeSignature(body []byte, secret string) string {
	h := hmac.New(sha256.New, []byte(secret))
	h.Write(body)
	return fmt.Sprintf("sha256=%s", hex.EncodeToString(h.Sum(nil)))
}

// VerifySignature checks a received signature against the payload.
// The comparison is timing-safe.
func VerifySignature(body []byte, signature, secret string) bool {
	expected := ComputeSignature(body, secret)
	return subtle.ConstantTimeCompare([]byte(signature), []byte(expected)) == 1
}
