package iban

import (
	"fmt"
	"math/rand"
	"strings"
)

const (
	countryCode = "GR"
	bankCode    = "1234"

	// Length of the account number portion.
	accountDigits = 16
)

// Generate returns a candidate IBAN. Candidates are random and may collide
// with existing accounts; callers are responsible for uniqueness checks.
func Generate() string {
	var sb strings.Builder
	sb.WriteString(countryCode)
	sb.WriteString(fmt.Sprintf("%02d", rand.Intn(100)))
	sb.WriteString(bankCode)
	for i := 0; i < accountDigits; i++ {
		sb.WriteByte(byte('0' + rand.Intn(10)))
	}
	return sb.String()
}

// Valid reports whether s has the shape of an IBAN issued by this bank.
func Valid(s string) bool {
	if len(s) != len(countryCode)+2+len(bankCode)+accountDigits {
		return false
	}
	if !strings.HasPrefix(s, countryCode) {
		return false
	}
	for _, r := range s[len(countryCode):] {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
