// internal/chains/tron/client.go
package tron

import (
	"context"
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"github.com/fbsobreira/gotron-sdk/pkg/proto/core"
	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
	"google.golang.org/protobuf/types/known/anypb"
)

const (
	fullNodeTxPath  = "/wallet/gettransactionbyid"
	solidityTxPath  = "/walletsolidity/gettransactionbyid"
	triggerTypeName = "TriggerSmartContract"
)

// TronHTTPClient reads transactions from the TronGrid HTTP API
type TronHTTPClient struct {
	baseURL string
	txPath  string
	client  *resty.Client
	logger  *zap.Logger
}

// NewTronHTTPClient creates a new HTTP client for TronGrid. With solidity
// set, only transactions in solidified (irreversible) blocks are returned.
func NewTronHTTPClient(baseURL, apiKey string, solidity bool, timeout time.Duration, logger *zap.Logger) *TronHTTPClient {
	r := resty.New().
		SetTimeout(timeout).
		SetHeader("Content-Type", "application/json")
	if apiKey != "" {
		r.SetHeader("TRON-PRO-API-KEY", apiKey)
	}

	txPath := fullNodeTxPath
	if solidity {
		txPath = solidityTxPath
	}

	return &TronHTTPClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		txPath:  txPath,
		client:  r,
		logger:  logger,
	}
}

// TransactionResponse is the JSON shape of gettransactionbyid
type TransactionResponse struct {
	TxID    string             `json:"txID"`
	Ret     []TransactionRet   `json:"ret"`
	RawData TransactionRawData `json:"raw_data"`
}

type TransactionRet struct {
	ContractRet string `json:"contractRet"`
}

type TransactionRawData struct {
	Contract []ContractRecord `json:"contract"`
}

type ContractRecord struct {
	Type      string `json:"type"`
	Parameter struct {
		Value   TriggerValue `json:"value"`
		TypeURL string       `json:"type_url"`
	} `json:"parameter"`
}

// TriggerValue holds TriggerSmartContract fields in hex
type TriggerValue struct {
	Data            string `json:"data"`
	OwnerAddress    string `json:"owner_address"`
	ContractAddress string `json:"contract_address"`
	CallValue       int64  `json:"call_value"`
}

// GetTransactionByID fetches a transaction and converts it to its protobuf form
func (c *TronHTTPClient) GetTransactionByID(ctx context.Context, txID string) (*core.Transaction, error) {
	var result TransactionResponse
	resp, err := c.client.R().
		SetContext(ctx).
		SetBody(map[string]interface{}{"value": txID, "visible": false}).
		SetResult(&result).
		Post(c.baseURL + c.txPath)
	if err != nil {
		return nil, fmt.Errorf("failed to execute request: %w", err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("API error (status %d): %s", resp.StatusCode(), resp.String())
	}

	// TronGrid answers {} for unknown ids
	if result.TxID == "" {
		return nil, ErrTransactionNotFound
	}

	tx, err := result.toProto()
	if err != nil {
		c.logger.Warn("malformed tron transaction payload",
			zap.String("tx_id", txID),
			zap.Error(err))
		return nil, err
	}
	return tx, nil
}

func (r *TransactionResponse) toProto() (*core.Transaction, error) {
	tx := &core.Transaction{RawData: &core.TransactionRaw{}}

	for _, ret := range r.Ret {
		// Unknown names map to DEFAULT, which is not SUCCESS
		code := core.Transaction_ResultContractResult_value[ret.ContractRet]
		tx.Ret = append(tx.Ret, &core.Transaction_Result{
			ContractRet: core.Transaction_ResultContractResult(code),
		})
	}

	for _, rec := range r.RawData.Contract {
		contract := &core.Transaction_Contract{
			Type: core.Transaction_Contract_ContractType(core.Transaction_Contract_ContractType_value[rec.Type]),
		}

		// Only trigger payloads are decoded; other contract kinds are
		// rejected by type before their parameters are read
		if rec.Type == triggerTypeName {
			trigger, err := rec.Parameter.Value.toProto()
			if err != nil {
				return nil, err
			}
			param, err := anypb.New(trigger)
			if err != nil {
				return nil, fmt.Errorf("failed to pack trigger contract: %w", err)
			}
			contract.Parameter = param
		}
		tx.RawData.Contract = append(tx.RawData.Contract, contract)
	}

	return tx, nil
}

func (v TriggerValue) toProto() (*core.TriggerSmartContract, error) {
	owner, err := hexToAddress(v.OwnerAddress)
	if err != nil {
		return nil, fmt.Errorf("owner_address: %w", err)
	}
	contract, err := hexToAddress(v.ContractAddress)
	if err != nil {
		return nil, fmt.Errorf("contract_address: %w", err)
	}
	data, err := hex.DecodeString(v.Data)
	if err != nil {
		return nil, fmt.Errorf("invalid call data: %w", err)
	}

	return &core.TriggerSmartContract{
		OwnerAddress:    owner.Bytes(),
		ContractAddress: contract.Bytes(),
		CallValue:       v.CallValue,
		Data:            data,
	}, nil
}
