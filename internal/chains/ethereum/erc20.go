// internal/chains/ethereum/erc20.go
package ethereum

import (
	"errors"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
)

// ERC-20 ABI for the Transfer event and transfer function
const erc20ABI = `[
	{
		"anonymous": false,
		"inputs": [
			{"indexed": true, "name": "from", "type": "address"},
			{"indexed": true, "name": "to", "type": "address"},
			{"indexed": false, "name": "value", "type": "uint256"}
		],
		"name": "Transfer",
		"type": "event"
	},
	{
		"constant": false,
		"inputs": [
			{"name": "_to", "type": "address"},
			{"name": "_value", "type": "uint256"}
		],
		"name": "transfer",
		"outputs": [{"name": "", "type": "bool"}],
		"type": "function"
	}
]`

var (
	parsedERC20 = mustParseABI(erc20ABI)

	// TransferEventID is keccak256("Transfer(address,address,uint256)")
	TransferEventID = parsedERC20.Events["Transfer"].ID

	errNoTransferLog = errors.New("no transfer log")
)

func mustParseABI(def string) abi.ABI {
	parsed, err := abi.JSON(strings.NewReader(def))
	if err != nil {
		panic(fmt.Sprintf("failed to parse ERC-20 ABI: %v", err))
	}
	return parsed
}

// transferLog is a decoded ERC-20 Transfer event
type transferLog struct {
	From  common.Address
	To    common.Address
	Value *big.Int
}

// decodeTransferLog decodes a Transfer event log
func decodeTransferLog(log *types.Log) (*transferLog, error) {
	if log == nil {
		return nil, errors.New("nil log")
	}
	if len(log.Topics) != 3 || log.Topics[0] != TransferEventID {
		return nil, fmt.Errorf("log is not an ERC-20 Transfer event")
	}

	values, err := parsedERC20.Unpack("Transfer", log.Data)
	if err != nil {
		return nil, fmt.Errorf("failed to unpack transfer value: %w", err)
	}
	if len(values) != 1 {
		return nil, fmt.Errorf("unexpected transfer values: %d", len(values))
	}
	value, ok := values[0].(*big.Int)
	if !ok {
		return nil, fmt.Errorf("unexpected transfer value type %T", values[0])
	}

	return &transferLog{
		From:  common.BytesToAddress(log.Topics[1].Bytes()),
		To:    common.BytesToAddress(log.Topics[2].Bytes()),
		Value: value,
	}, nil
}

// findTransferLog returns the first Transfer event emitted by contract
func findTransferLog(logs []*types.Log, contract common.Address) (*transferLog, error) {
	for _, l := range logs {
		if l == nil || l.Address != contract {
			continue
		}
		ev, err := decodeTransferLog(l)
		if err != nil {
			continue
		}
		return ev, nil
	}
	return nil, errNoTransferLog
}
