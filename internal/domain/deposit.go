// internal/domain/deposit.go
package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// DepositStatus represents deposit processing status
type DepositStatus string

const (
	DepositStatusPending   DepositStatus = "pending"
	DepositStatusCompleted DepositStatus = "completed"
	DepositStatusRejected  DepositStatus = "rejected"
)

// Deposit is one credited (or manually submitted) on-chain transfer.
// TransactionID is globally unique and acts as the idempotency key.
type Deposit struct {
	ID            string
	UserID        string
	WalletID      int64
	TransactionID string
	Network       Network
	Amount        decimal.Decimal
	Token         Token
	FromAddress   string
	Status        DepositStatus

	// Review
	Note       string
	ReviewedBy string

	CreatedAt time.Time
	UpdatedAt time.Time
}

// IsPending reports whether the deposit awaits review
func (d *Deposit) IsPending() bool {
	return d.Status == DepositStatusPending
}

// ManualDepositRequest is a user-submitted deposit awaiting review.
// ClaimedAmount is informational; it is never credited without on-chain
// verification or an admin decision.
type ManualDepositRequest struct {
	UserID        string
	TransactionID string
	Network       Network
	ClaimedAmount decimal.Decimal
	Token         Token
}

// DepositCompletedEvent is published after a deposit is credited
type DepositCompletedEvent struct {
	Event         string    `json:"event"`
	DepositID     string    `json:"deposit_id"`
	UserID        string    `json:"user_id"`
	Network       string    `json:"network"`
	Token         string    `json:"token"`
	Amount        string    `json:"amount"`
	TransactionID string    `json:"transaction_id"`
	Timestamp     time.Time `json:"timestamp"`
}

const EventDepositCompleted = "deposit.completed"

// NewDepositCompletedEvent builds the event for a credited deposit
func NewDepositCompletedEvent(d *Deposit) *DepositCompletedEvent {
	return &DepositCompletedEvent{
		Event:         EventDepositCompleted,
		DepositID:     d.ID,
		UserID:        d.UserID,
		Network:       string(d.Network),
		Token:         string(d.Token),
		Amount:        d.Amount.StringFixed(StablecoinDecimals),
		TransactionID: d.TransactionID,
		Timestamp:     time.Now().UTC(),
	}
}
