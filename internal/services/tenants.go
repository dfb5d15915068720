package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/chadayu1004/smart-apartment-ai/internal/data/repos"
	types "github.com/chadayu1004/smart-apartment-ai/internal/domain"
	"github.com/chadayu1004/smart-apartment-ai/internal/normalization"
	"github.com/chadayu1004/smart-apartment-ai/internal/platform/apierr"
	"github.com/chadayu1004/smart-apartment-ai/internal/platform/dbctx"
	"github.com/chadayu1004/smart-apartment-ai/internal/platform/logger"
)

type CreateTenantInput struct {
	FirstName    string
	LastName     string
	Phone        string
	Email        string
	IDCardNumber string
}

type TenantService interface {
	List(ctx context.Context) ([]*types.Tenant, error)
	Get(ctx context.Context, id uint) (*types.Tenant, error)
	// Create registers a walk-in tenant, or refreshes the one holding the same ID card.
	Create(ctx context.Context, in CreateTenantInput) (*types.Tenant, error)
}

type tenantService struct {
	log     *logger.Logger
	tenants repos.TenantRepo
}

func NewTenantService(log *logger.Logger, tenants repos.TenantRepo) TenantService {
	return &tenantService{log: log.With("service", "TenantService"), tenants: tenants}
}

func (s *tenantService) List(ctx context.Context) ([]*types.Tenant, error) {
	if _, err := requireAdmin(ctx); err != nil {
		return nil, err
	}
	return s.tenants.List(dbctx.Context{Ctx: ctx})
}

func (s *tenantService) Get(ctx context.Context, id uint) (*types.Tenant, error) {
	if _, err := requireAdmin(ctx); err != nil {
		return nil, err
	}
	t, err := s.tenants.GetByID(dbctx.Context{Ctx: ctx}, id)
	if err != nil {
		return nil, notFoundAs(err, "tenant not found")
	}
	return t, nil
}

func (s *tenantService) Create(ctx context.Context, in CreateTenantInput) (*types.Tenant, error) {
	if _, err := requireAdmin(ctx); err != nil {
		return nil, err
	}
	in.IDCardNumber = strings.TrimSpace(in.IDCardNumber)
	if !normalization.ValidThaiID(in.IDCardNumber) {
		return nil, apierr.Wrap(apierr.ErrInvalidArgument, "invalid national ID number")
	}
	if strings.TrimSpace(in.FirstName) == "" {
		return nil, apierr.Wrap(apierr.ErrInvalidArgument, "first_name is required")
	}
	t, err := s.tenants.UpsertByIDCard(dbctx.Context{Ctx: ctx}, &types.Tenant{
		FirstName:    strings.TrimSpace(in.FirstName),
		LastName:     strings.TrimSpace(in.LastName),
		Phone:        strings.TrimSpace(in.Phone),
		Email:        normalization.ParseInputString(in.Email),
		IDCardNumber: in.IDCardNumber,
	})
	if err != nil {
		return nil, fmt.Errorf("save tenant: %w", err)
	}
	s.log.Info("Tenant saved", "tenant_id", t.ID)
	return t, nil
}
