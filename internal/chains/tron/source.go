// internal/chains/tron/source.go
package tron

import (
	"context"
	"errors"
	"strings"

	"github.com/fbsobreira/gotron-sdk/pkg/proto/core"
)

// ErrTransactionNotFound is returned by a Source when the node has no such transaction
var ErrTransactionNotFound = errors.New("transaction not found")

// Source fetches raw Tron transactions. Implementations exist for the
// gRPC full node API and the TronGrid HTTP API.
type Source interface {
	GetTransactionByID(ctx context.Context, txID string) (*core.Transaction, error)
}

// isNotFound matches ErrTransactionNotFound and the node's textual
// "not found" errors
func isNotFound(err error) bool {
	if errors.Is(err, ErrTransactionNotFound) {
		return true
	}
	return strings.Contains(strings.ToLower(err.Error()), "not found")
}
