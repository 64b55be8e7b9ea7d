package store

import (
	"crypto/rand"
	"fmt"
	"math/big"
)

// Account numbers are 9-digit numerals drawn uniformly from a range whose low
// end keeps the width fixed (no leading zero ever collapses it).
const (
	accountNumberMin  = 100000000
	accountNumberSpan = 900000000

	// maxAccountNumberDraws caps collision re-draws so saturation surfaces as
	// ErrIdentifierExhausted instead of an unbounded loop. Practically
	// unreachable at this scale.
	maxAccountNumberDraws = 10000
)

// newAccountNumber draws a fresh account number not present in taken.
func newAccountNumber(taken map[string]struct{}) (string, error) {
	for i := 0; i < maxAccountNumberDraws; i++ {
		n, err := rand.Int(rand.Reader, big.NewInt(accountNumberSpan))
		if err != nil {
			return "", fmt.Errorf("draw account number: %w", err)
		}
		candidate := fmt.Sprintf("%d", accountNumberMin+n.Int64())
		if _, exists := taken[candidate]; !exists {
			return candidate, nil
		}
	}
	return "", ErrIdentifierExhausted
}
