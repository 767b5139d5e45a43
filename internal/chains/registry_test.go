package chains

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"deposit-service/internal/domain"
)

type stubAdapter struct {
	network domain.Network
}

func (s stubAdapter) Network() domain.Network { return s.network }

func (s stubAdapter) FetchTransfer(ctx context.Context, txID string) (*domain.TransferFact, error) {
	return &domain.TransferFact{Network: s.network, TransactionID: txID}, nil
}

func TestRegistry(t *testing.T) {
	r := NewRegistry()
	r.Register(stubAdapter{network: domain.NetworkTron})
	r.Register(stubAdapter{network: domain.NetworkBase})

	a, err := r.Get(domain.NetworkTron)
	require.NoError(t, err)
	assert.Equal(t, domain.NetworkTron, a.Network())

	_, err = r.Get(domain.NetworkSolana)
	assert.Error(t, err)

	assert.Equal(t, []domain.Network{domain.NetworkBase, domain.NetworkTron}, r.List())
}
