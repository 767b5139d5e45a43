// internal/handler/interfaces.go
package handler

import (
	"context"

	"deposit-service/internal/domain"
	"deposit-service/internal/usecase"
)

type DepositService interface {
	ValidateDeposit(ctx context.Context, req usecase.VerifyRequest) (*domain.Deposit, error)
	GetUserDeposits(ctx context.Context, userID string, limit, offset int) ([]*domain.Deposit, error)
}

type ReviewService interface {
	SubmitManual(ctx context.Context, req domain.ManualDepositRequest) (*domain.Deposit, error)
	ListPending(ctx context.Context, limit int) ([]*domain.Deposit, error)
	ConfirmPending(ctx context.Context, depositID, reviewer string) (*domain.Deposit, error)
	RejectPending(ctx context.Context, depositID, reviewer, note string) (*domain.Deposit, error)
}

type AddressService interface {
	GetDepositAddresses(ctx context.Context, userID string) ([]*usecase.DepositAddress, error)
	GetDepositAddress(ctx context.Context, userID, network string) (*usecase.DepositAddress, error)
}
