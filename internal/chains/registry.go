// internal/chains/registry.go
package chains

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"deposit-service/internal/domain"
)

// Adapter fetches a normalized token transfer from one network.
// FetchTransfer never returns a raw error: every failure is a
// *domain.Rejection carrying a network-specific message.
type Adapter interface {
	Network() domain.Network
	FetchTransfer(ctx context.Context, txID string) (*domain.TransferFact, error)
}

type Registry struct {
	adapters map[domain.Network]Adapter
	mu       sync.RWMutex
}

func NewRegistry() *Registry {
	return &Registry{
		adapters: make(map[domain.Network]Adapter),
	}
}

// Register adds an adapter, replacing any previous one for its network
func (r *Registry) Register(adapter Adapter) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.adapters[adapter.Network()] = adapter
}

// Get retrieves the adapter for network
func (r *Registry) Get(network domain.Network) (Adapter, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	adapter, ok := r.adapters[network]
	if !ok {
		return nil, fmt.Errorf("network not supported: %s", network)
	}

	return adapter, nil
}

// List returns the registered networks, sorted
func (r *Registry) List() []domain.Network {
	r.mu.RLock()
	defer r.mu.RUnlock()

	networks := make([]domain.Network, 0, len(r.adapters))
	for n := range r.adapters {
		networks = append(networks, n)
	}
	sort.Slice(networks, func(i, j int) bool { return networks[i] < networks[j] })

	return networks
}
