// internal/domain/network.go
package domain

import "strings"

// Network identifies a supported deposit network
type Network string

const (
	NetworkBase   Network = "ETH-Base"
	NetworkSolana Network = "SOL"
	NetworkTron   Network = "TRC-20"
)

// SupportedNetworks in display order
var SupportedNetworks = []Network{NetworkBase, NetworkSolana, NetworkTron}

// ParseNetwork returns the network for s, or false if s is not supported.
func ParseNetwork(s string) (Network, bool) {
	for _, n := range SupportedNetworks {
		if string(n) == s {
			return n, true
		}
	}
	return "", false
}

func (n Network) String() string {
	return string(n)
}

// DisplayName is the human name used in user-facing messages
func (n Network) DisplayName() string {
	switch n {
	case NetworkBase:
		return "Base"
	case NetworkSolana:
		return "Solana"
	case NetworkTron:
		return "Tron"
	default:
		return string(n)
	}
}

// AddressesEqual compares two addresses using the network's rules.
// EVM addresses are hex and compared case-insensitively; base58 addresses
// are case-sensitive.
func (n Network) AddressesEqual(a, b string) bool {
	if a == "" || b == "" {
		return false
	}
	if n == NetworkBase {
		return strings.EqualFold(a, b)
	}
	return a == b
}

// NormalizeTxID returns the canonical, stored form of a transaction id that
// already passed format validation. Hex ids (EVM, Tron) are lowercased;
// base58 signatures are case-sensitive and returned unchanged.
func (n Network) NormalizeTxID(txID string) string {
	switch n {
	case NetworkBase, NetworkTron:
		return strings.ToLower(txID)
	default:
		return txID
	}
}
