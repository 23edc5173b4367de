package gateway

import (
	"crypto/sha256"
	"encoding/hex"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPayChecksumIncludesPath(t *testing.T) {
	signer := NewSigner("salt", "1")
	sum := sha256.Sum256([]byte("cGF5bG9hZA==" + "/pg/v1/pay" + "salt"))

	assert.Equal(t, hex.EncodeToString(sum[:])+"###1", signer.PayChecksum("cGF5bG9hZA=="))
}

func TestVerifyCallback(t *testing.T) {
	signer := NewSigner("salt", "1")
	response := "eyJjb2RlIjoiUEFZTUVOVF9TVUNDRVNTIn0="
	sum := sha256.Sum256([]byte(response + "salt"))
	valid := hex.EncodeToString(sum[:]) + "###1"

	assert.Equal(t, valid, signer.CallbackChecksum(response))
	assert.True(t, signer.VerifyCallback(response, valid))
	assert.True(t, signer.VerifyCallback(response, " "+valid+" "))

	assert.False(t, signer.VerifyCallback(response, hex.EncodeToString(sum[:])+"###2"))
	assert.False(t, signer.VerifyCallback(response+"x", valid))
	assert.False(t, signer.VerifyCallback(response, ""))
	assert.False(t, NewSigner("", "1").VerifyCallback(response, valid))
}
