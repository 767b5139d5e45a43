// internal/chains/tron/abi_helper.go
package tron

import (
	"encoding/hex"
	"errors"
	"fmt"
	"math/big"

	"github.com/fbsobreira/gotron-sdk/pkg/address"
)

// TransferMethodID is the selector of transfer(address,uint256)
const TransferMethodID = "a9059cbb"

const (
	selectorSize      = 4
	wordSize          = 32
	transferCallSize  = selectorSize + 2*wordSize
	tronAddressPrefix = byte(0x41)
)

var (
	ErrCallTooShort    = errors.New("call data too short")
	ErrNotTransferCall = errors.New("call is not transfer(address,uint256)")
	ErrBadAddressWord  = errors.New("malformed address parameter")
)

// transferCall is a decoded transfer(address,uint256) call
type transferCall struct {
	To     address.Address
	Amount *big.Int
}

// decodeTransferCall decodes TRC-20 transfer call data. Layout:
// selector (4) | address word (32) | amount word (32).
func decodeTransferCall(data []byte) (*transferCall, error) {
	if len(data) < selectorSize {
		return nil, fmt.Errorf("%w: %d bytes", ErrCallTooShort, len(data))
	}
	if hex.EncodeToString(data[:selectorSize]) != TransferMethodID {
		return nil, fmt.Errorf("%w: selector %x", ErrNotTransferCall, data[:selectorSize])
	}
	if len(data) < transferCallSize {
		return nil, fmt.Errorf("%w: %d bytes", ErrCallTooShort, len(data))
	}

	to, err := decodeAddressWord(data[selectorSize : selectorSize+wordSize])
	if err != nil {
		return nil, err
	}

	return &transferCall{
		To:     to,
		Amount: new(big.Int).SetBytes(data[selectorSize+wordSize : transferCallSize]),
	}, nil
}

// decodeAddressWord turns a left-padded 20-byte address into a Tron address.
// Byte 11 may carry the 0x41 prefix; everything before it must be zero.
func decodeAddressWord(word []byte) (address.Address, error) {
	if len(word) != wordSize {
		return nil, fmt.Errorf("%w: word is %d bytes", ErrBadAddressWord, len(word))
	}
	for _, b := range word[:11] {
		if b != 0 {
			return nil, fmt.Errorf("%w: non-zero padding", ErrBadAddressWord)
		}
	}
	if word[11] != 0 && word[11] != tronAddressPrefix {
		return nil, fmt.Errorf("%w: unexpected prefix byte %x", ErrBadAddressWord, word[11])
	}

	addr := make(address.Address, 0, address.AddressLength)
	addr = append(addr, tronAddressPrefix)
	addr = append(addr, word[12:]...)
	return addr, nil
}
