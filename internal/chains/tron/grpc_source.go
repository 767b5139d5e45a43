// internal/chains/tron/grpc_source.go
package tron

import (
	"context"
	"fmt"
	"time"

	"github.com/fbsobreira/gotron-sdk/pkg/client"
	"github.com/fbsobreira/gotron-sdk/pkg/proto/core"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
)

// GrpcSource reads transactions from a Tron full node over gRPC
type GrpcSource struct {
	grpcClient *client.GrpcClient
	logger     *zap.Logger
}

func NewGrpcSource(grpcURL, apiKey string, timeout time.Duration, logger *zap.Logger) (*GrpcSource, error) {
	grpcClient := client.NewGrpcClientWithTimeout(grpcURL, timeout)
	if apiKey != "" {
		grpcClient.SetAPIKey(apiKey)
	}

	if err := grpcClient.Start(grpc.WithTransportCredentials(insecure.NewCredentials())); err != nil {
		return nil, fmt.Errorf("failed to start TRON gRPC client: %w", err)
	}

	logger.Info("TRON gRPC source initialized",
		zap.String("grpc_url", grpcURL))

	return &GrpcSource{
		grpcClient: grpcClient,
		logger:     logger,
	}, nil
}

// Stop gracefully stops the gRPC client
func (s *GrpcSource) Stop() {
	if s.grpcClient != nil {
		s.grpcClient.Stop()
		s.logger.Info("TRON gRPC client stopped")
	}
}

type grpcResult struct {
	tx  *core.Transaction
	err error
}

// GetTransactionByID fetches a transaction from the full node, which may
// return blocks that are not yet solidified. The underlying client has no
// context support, so ctx only bounds how long the caller waits.
func (s *GrpcSource) GetTransactionByID(ctx context.Context, txID string) (*core.Transaction, error) {
	done := make(chan grpcResult, 1)
	go func() {
		tx, err := s.grpcClient.GetTransactionByID(txID)
		done <- grpcResult{tx: tx, err: err}
	}()

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-done:
		if res.err != nil {
			return nil, fmt.Errorf("failed to get transaction: %w", res.err)
		}
		return res.tx, nil
	}
}
