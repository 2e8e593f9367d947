package tse

import (
	"crypto/rand"
	"fmt"
)

const signatureAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789"

// signatureLength matches the token length a real TSE would emit for its
// base64-ish signature field.
const signatureLength = 32

type simulatedSigner struct{}

// NewSimulatedSigner returns a Signer that stands in for certified TSE
// hardware. It emits a random 32-character alphanumeric token; the input
// data is ignored, which is exactly as much attestation as a simulation
// can honestly provide.
func NewSimulatedSigner() Signer {
	return simulatedSigner{}
}

func (simulatedSigner) Sign(_ []byte) (string, error) {
	buf := make([]byte, signatureLength)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("tse: reading randomness: %w", err)
	}
	for i, b := range buf {
		buf[i] = signatureAlphabet[int(b)%len(signatureAlphabet)]
	}
	return string(buf), nil
}
