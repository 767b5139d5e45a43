// internal/domain/rejection.go
package domain

import (
	"errors"
	"fmt"
)

// RejectionReason categorizes why a deposit was not credited
type RejectionReason string

const (
	ReasonInvalidRequest     RejectionReason = "invalid_request"
	ReasonInvalidFormat      RejectionReason = "invalid_format"
	ReasonNoWalletForNetwork RejectionReason = "no_wallet_for_network"
	ReasonAlreadyProcessed   RejectionReason = "already_processed"
	ReasonNotFound           RejectionReason = "not_found"
	ReasonNotConfirmed       RejectionReason = "not_confirmed"
	ReasonNotATokenTransfer  RejectionReason = "not_a_token_transfer"
	ReasonTokenMismatch      RejectionReason = "token_mismatch"
	ReasonRecipientMismatch  RejectionReason = "recipient_mismatch"
	ReasonAdapterFailure     RejectionReason = "adapter_failure"
	ReasonPersistenceFailure RejectionReason = "persistence_failure"
)

// User-facing messages
const (
	MsgMissingFields       = "Missing required fields"
	MsgInvalidNetwork      = "Invalid network"
	MsgNoWallet            = "No wallet found for this network"
	MsgAlreadyProcessed    = "Transaction already processed"
	MsgNotStablecoin       = "Transaction is not a USDT/USDC transfer"
	MsgRecipientMismatch   = "Transaction receiver does not match your wallet address"
	MsgProcessingFailed    = "Failed to process transaction"
	MsgWalletMismatch      = "Wallet does not belong to this network"
	MsgSessionUserMismatch = "User does not match the authenticated session"
)

// Rejection is a typed verification or commit failure. Message is safe to
// show to the user.
type Rejection struct {
	Reason  RejectionReason
	Message string
	Err     error
}

// Reject creates a rejection with no underlying cause
func Reject(reason RejectionReason, msg string) *Rejection {
	return &Rejection{Reason: reason, Message: msg}
}

// RejectWrap creates a rejection that keeps err for logging
func RejectWrap(reason RejectionReason, msg string, err error) *Rejection {
	return &Rejection{Reason: reason, Message: msg, Err: err}
}

func (r *Rejection) Error() string {
	if r.Err != nil {
		return fmt.Sprintf("%s: %s: %v", r.Reason, r.Message, r.Err)
	}
	return fmt.Sprintf("%s: %s", r.Reason, r.Message)
}

func (r *Rejection) Unwrap() error {
	return r.Err
}

// Retryable reports whether the caller may resubmit unchanged input.
// Only a commit failure after successful verification qualifies; the
// on-chain fact is still true.
func (r *Rejection) Retryable() bool {
	return r.Reason == ReasonPersistenceFailure
}

// AsRejection extracts a *Rejection from err
func AsRejection(err error) (*Rejection, bool) {
	var rej *Rejection
	if errors.As(err, &rej) {
		return rej, true
	}
	return nil, false
}

// ReasonOf returns the rejection reason of err, or "" when err is not a rejection
func ReasonOf(err error) RejectionReason {
	if rej, ok := AsRejection(err); ok {
		return rej.Reason
	}
	return ""
}
