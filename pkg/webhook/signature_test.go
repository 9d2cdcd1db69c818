package webhook

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestComputeSignature(t *testing.T) {
	sig := ComputeSignature([]byte(`{"a":1}`), "secret")
	assert.True(t, strings.HasPrefix(sig, "sha256="))
	assert.Len(t, sig, len("sha256=")+64)

	// Deterministic for the same payload and secret.
	assert.Equal(t, sig, ComputeSignature([]byte(`{"a":1}`), "secret"))
	assert.NotEqual(t, sig, ComputeSignature([]byte(`{"a":2}`), "secret"))
	assert.NotEqual(t, sig, ComputeSignature([]byte(`{"a":1}`), "other"))
}

func TestVerifySignature(t *testing.T) {
	body := []byte(`{"type":"call.completed"}`)
	sig := ComputeSignature(body, "secret")

	assert.True(t, VerifySignature(body, sig, "secret"))
	assert.False(t, VerifySignature(body, sig, "wrong"))
	assert.False(t, VerifySignature([]byte("tampered"), sig, "secret"))
	assert.False(t, VerifySignature(body, "sha256=deadbeef", "secret"))
}
