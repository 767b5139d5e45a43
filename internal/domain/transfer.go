// internal/domain/transfer.go
package domain

import (
	"math/big"

	"github.com/shopspring/decimal"
)

// TransferFact is a normalized on-chain token transfer returned by a
// network adapter.
type TransferFact struct {
	Network       Network
	TransactionID string

	// Recipient is the owner of the destination. For Solana this is the
	// token account's owner, not the token account itself.
	Recipient string

	// TokenContract is the contract address (EVM, Tron) or mint (Solana)
	TokenContract string

	RawAmount   *big.Int
	Decimals    int32
	FromAddress string
	Confirmed   bool
}

// Amount returns the transferred amount in human-readable token units
func (t *TransferFact) Amount() decimal.Decimal {
	if t.RawAmount == nil {
		return decimal.Zero
	}
	return decimal.NewFromBigInt(t.RawAmount, -t.Decimals)
}

// VerificationResult is the outcome of a successful verification. It is
// never persisted directly; the ledger writer turns it into a Deposit.
type VerificationResult struct {
	Success       bool
	Status        DepositStatus
	Amount        decimal.Decimal
	Token         Token
	FromAddress   string
	Network       Network
	TransactionID string
	UserID        string
	WalletID      int64
}
