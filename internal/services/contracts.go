package services

import (
	"context"

	"github.com/chadayu1004/smart-apartment-ai/internal/data/repos"
	types "github.com/chadayu1004/smart-apartment-ai/internal/domain"
	"github.com/chadayu1004/smart-apartment-ai/internal/domain/billing"
	"github.com/chadayu1004/smart-apartment-ai/internal/platform/apierr"
	"github.com/chadayu1004/smart-apartment-ai/internal/platform/dbctx"
	"github.com/chadayu1004/smart-apartment-ai/internal/platform/logger"
)

type ContractService interface {
	// ByBooking returns the deposit contract opened when bookingID was approved.
	// Admins see any; other callers only their own.
	ByBooking(ctx context.Context, bookingID uint) (*types.Contract, error)
	// MyLatest returns the caller's newest contract.
	MyLatest(ctx context.Context) (*types.Contract, error)
}

type contractService struct {
	log       *logger.Logger
	contracts repos.ContractRepo
}

func NewContractService(log *logger.Logger, contracts repos.ContractRepo) ContractService {
	return &contractService{log: log.With("service", "ContractService"), contracts: contracts}
}

func (s *contractService) ByBooking(ctx context.Context, bookingID uint) (*types.Contract, error) {
	caller, err := IdentityFromContext(ctx)
	if err != nil {
		return nil, err
	}
	c, err := s.contracts.LatestByBooking(dbctx.Context{Ctx: ctx}, bookingID, billing.ContractTypeDeposit)
	if err != nil {
		return nil, notFoundAs(err, "no deposit contract for this booking yet")
	}
	if !caller.IsAdmin() && c.UserID != caller.UserID {
		return nil, apierr.Wrap(apierr.ErrNotFound, "no deposit contract for this booking yet")
	}
	return c, nil
}

func (s *contractService) MyLatest(ctx context.Context) (*types.Contract, error) {
	caller, err := IdentityFromContext(ctx)
	if err != nil {
		return nil, err
	}
	c, err := s.contracts.LatestByUser(dbctx.Context{Ctx: ctx}, caller.UserID)
	if err != nil {
		return nil, notFoundAs(err, "no contract for this user yet")
	}
	return c, nil
}
