// internal/validator/txid.go
package validator

import (
	"regexp"

	"deposit-service/internal/domain"
)

// Transaction id patterns. Every pattern is anchored so partial matches fail.
const (
	PatternBase   = `^0x[0-9a-fA-F]{64}$`
	PatternSolana = `^[1-9A-HJ-NP-Za-km-z]{87,88}$`
	PatternTron   = `^[0-9a-fA-F]{64}$`
)

var patterns = map[domain.Network]*regexp.Regexp{
	domain.NetworkBase:   regexp.MustCompile(PatternBase),
	domain.NetworkSolana: regexp.MustCompile(PatternSolana),
	domain.NetworkTron:   regexp.MustCompile(PatternTron),
}

// Validate reports whether txID is well-formed for network. Unknown
// networks never validate.
func Validate(network domain.Network, txID string) bool {
	re, ok := patterns[network]
	if !ok {
		return false
	}
	return re.MatchString(txID)
}

// Patterns returns the pattern source per network so clients can run the
// same check before submitting.
func Patterns() map[domain.Network]string {
	out := make(map[domain.Network]string, len(patterns))
	for n, re := range patterns {
		out[n] = re.String()
	}
	return out
}
