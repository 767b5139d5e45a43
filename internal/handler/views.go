// internal/handler/views.go
package handler

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"

	"deposit-service/internal/domain"
	"deposit-service/internal/usecase"
)

// TransactionView is the client representation of a deposit
type TransactionView struct {
	ID            string    `json:"id"`
	Amount        string    `json:"amount"`
	Token         string    `json:"token"`
	Status        string    `json:"status"`
	From          string    `json:"from"`
	Network       string    `json:"network"`
	TransactionID string    `json:"transactionId"`
	Note          string    `json:"note,omitempty"`
	ReviewedBy    string    `json:"reviewedBy,omitempty"`
	CreatedAt     time.Time `json:"createdAt"`
}

func toView(d *domain.Deposit) *TransactionView {
	return &TransactionView{
		ID:            d.ID,
		Amount:        d.Amount.StringFixed(domain.StablecoinDecimals),
		Token:         string(d.Token),
		Status:        string(d.Status),
		From:          d.FromAddress,
		Network:       string(d.Network),
		TransactionID: d.TransactionID,
		Note:          d.Note,
		ReviewedBy:    d.ReviewedBy,
		CreatedAt:     d.CreatedAt,
	}
}

func toViews(deposits []*domain.Deposit) []*TransactionView {
	views := make([]*TransactionView, len(deposits))
	for i, d := range deposits {
		views[i] = toView(d)
	}
	return views
}

type transactionBody struct {
	Success     bool             `json:"success"`
	Transaction *TransactionView `json:"transaction"`
}

type AddressView struct {
	WalletID int64             `json:"walletId"`
	Network  string            `json:"network"`
	Address  string            `json:"address"`
	Tokens   map[string]string `json:"tokens"`
}

func toAddressView(a *usecase.DepositAddress) *AddressView {
	return &AddressView{
		WalletID: a.WalletID,
		Network:  string(a.Network),
		Address:  a.Address,
		Tokens: map[string]string{
			string(domain.TokenUSDT): a.Contracts.USDT,
			string(domain.TokenUSDC): a.Contracts.USDC,
		},
	}
}

// flexString accepts a JSON string or number. Clients send ids both ways.
type flexString string

func (f *flexString) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		*f = ""
		return nil
	}
	if b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*f = flexString(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return fmt.Errorf("expected string or number: %w", err)
	}
	*f = flexString(n.String())
	return nil
}
