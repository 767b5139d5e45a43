// internal/domain/wallet.go
package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Wallet represents a user's custodial deposit address on one network.
// A user has at most one wallet per network.
type Wallet struct {
	ID      int64
	UserID  string
	Network Network

	// PublicKey is the deposit destination address
	PublicKey string

	// Balance (credited deposits minus withdrawals)
	Balance decimal.Decimal

	CreatedAt time.Time
}

// Owns reports whether address is this wallet's deposit address
func (w *Wallet) Owns(address string) bool {
	return w.Network.AddressesEqual(w.PublicKey, address)
}
