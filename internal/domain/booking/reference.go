package booking

import (
	"crypto/rand"
	"fmt"
)

const (
	referencePrefix   = "APT"
	referenceAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	referenceLength   = 6
)

// newBookingReference returns a reference like "APT7K2Q9D". Uniqueness
// is enforced by the appointments table; callers retry on collision.
func newBookingReference() (string, error) {
	buf := make([]byte, referenceLength)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate booking reference: %w", err)
	}
	for i, b := range buf {
		buf[i] = referenceAlphabet[int(b)%len(referenceAlphabet)]
	}
	return referencePrefix + string(buf), nil
}
