// internal/chains/tron/utils.go
package tron

import (
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/fbsobreira/gotron-sdk/pkg/address"
)

// hexToAddress converts the 41-prefixed hex form used by the HTTP API
func hexToAddress(s string) (address.Address, error) {
	raw, err := hex.DecodeString(strings.TrimPrefix(s, "0x"))
	if err != nil {
		return nil, fmt.Errorf("invalid TRON hex address %s: %w", s, err)
	}
	if len(raw) != address.AddressLength || raw[0] != tronAddressPrefix {
		return nil, fmt.Errorf("invalid TRON hex address %s", s)
	}
	return address.Address(raw), nil
}

// encodeAddress renders raw address bytes as Base58Check
func encodeAddress(raw []byte) string {
	if len(raw) == 0 {
		return ""
	}
	return address.Address(raw).String()
}
