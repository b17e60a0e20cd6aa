package masterdata

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrNotFound indicates the record does not exist.
	ErrNotFound = errors.New("masterdata: not found")
	// ErrDuplicate indicates a unique constraint clash (document or SKU).
	ErrDuplicate = errors.New("masterdata: duplicate")
	// ErrWrongKind indicates a supplier reference pointing at a client or vice versa.
	ErrWrongKind = errors.New("masterdata: partner has wrong kind")
)

// RepositoryPort defines data access for partners and products.
type RepositoryPort interface {
	ListPartners(ctx context.Context, kind PartnerKind, filters ListFilters) ([]Partner, int, error)
	GetPartner(ctx context.Context, id int64) (*Partner, error)
	CreatePartner(ctx context.Context, p Partner) (*Partner, error)
	UpdatePartner(ctx context.Context, p Partner) error

	ListProducts(ctx context.Context, filters ListFilters) ([]Product, int, error)
	GetProduct(ctx context.Context, id int64) (*Product, error)
	CreateProduct(ctx context.Context, p Product) (*Product, error)
	UpdateProduct(ctx context.Context, p Product) error
}

// Service manages partners and the product catalog.
type Service struct {
	repo RepositoryPort
}

// NewService builds Service instance.
func NewService(repo RepositoryPort) *Service {
	return &Service{repo: repo}
}

// ListPartners returns a page of partners of one kind.
func (s *Service) ListPartners(ctx context.Context, kind PartnerKind, filters ListFilters) ([]Partner, int, error) {
	return s.repo.ListPartners(ctx, kind, filters)
}

// GetPartner retrieves one partner.
func (s *Service) GetPartner(ctx context.Context, id int64) (*Partner, error) {
	p, err := s.repo.GetPartner(ctx, id)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, ErrNotFound
	}
	return p, nil
}

// CreatePartner adds a client or supplier.
func (s *Service) CreatePartner(ctx context.Context, req CreatePartnerRequest) (*Partner, error) {
	p := Partner{
		Kind:     req.Kind,
		Name:     strings.TrimSpace(req.Name),
		Document: req.Document,
		Email:    req.Email,
		Phone:    req.Phone,
		City:     req.City,
		Notes:    req.Notes,
		IsActive: true,
	}
	created, err := s.repo.CreatePartner(ctx, p)
	if err != nil {
		return nil, fmt.Errorf("create partner: %w", err)
	}
	return created, nil
}

// UpdatePartner mutates a partner. Kind is immutable; a client never becomes a
// supplier because order history references would silently change meaning.
func (s *Service) UpdatePartner(ctx context.Context, id int64, req UpdatePartnerRequest) (*Partner, error) {
	p, err := s.GetPartner(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		p.Name = strings.TrimSpace(*req.Name)
	}
	if req.Document != nil {
		p.Document = req.Document
	}
	if req.Email != nil {
		p.Email = req.Email
	}
	if req.Phone != nil {
		p.Phone = req.Phone
	}
	if req.City != nil {
		p.City = req.City
	}
	if req.Notes != nil {
		p.Notes = req.Notes
	}
	if req.IsActive != nil {
		p.IsActive = *req.IsActive
	}

	if err := s.repo.UpdatePartner(ctx, *p); err != nil {
		return nil, fmt.Errorf("update partner: %w", err)
	}
	return p, nil
}

// ListProducts returns a page of catalog entries.
func (s *Service) ListProducts(ctx context.Context, filters ListFilters) ([]Product, int, error) {
	return s.repo.ListProducts(ctx, filters)
}

// GetProduct retrieves one catalog entry.
func (s *Service) GetProduct(ctx context.Context, id int64) (*Product, error) {
	p, err := s.repo.GetProduct(ctx, id)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, ErrNotFound
	}
	return p, nil
}

// CreateProduct adds a catalog entry, verifying any supplier reference.
func (s *Service) CreateProduct(ctx context.Context, req CreateProductRequest) (*Product, error) {
	if err := s.checkSupplier(ctx, req.SupplierID); err != nil {
		return nil, err
	}
	p := Product{
		Name:           strings.TrimSpace(req.Name),
		SKU:            req.SKU,
		Description:    req.Description,
		ReferencePrice: req.ReferencePrice,
		SupplierID:     req.SupplierID,
		IsActive:       true,
	}
	created, err := s.repo.CreateProduct(ctx, p)
	if err != nil {
		return nil, fmt.Errorf("create product: %w", err)
	}
	return created, nil
}

// UpdateProduct mutates a catalog entry. Reference price changes never touch
// line items that already copied the old price.
func (s *Service) UpdateProduct(ctx context.Context, id int64, req UpdateProductRequest) (*Product, error) {
	p, err := s.GetProduct(ctx, id)
	if err != nil {
		return nil, err
	}
	if req.SupplierID != nil {
		if err := s.checkSupplier(ctx, req.SupplierID); err != nil {
			return nil, err
		}
		p.SupplierID = req.SupplierID
	}

	if req.Name != nil {
		p.Name = strings.TrimSpace(*req.Name)
	}
	if req.SKU != nil {
		p.SKU = req.SKU
	}
	if req.Description != nil {
		p.Description = req.Description
	}
	if req.ReferencePrice != nil {
		p.ReferencePrice = *req.ReferencePrice
	}
	if req.IsActive != nil {
		p.IsActive = *req.IsActive
	}

	if err := s.repo.UpdateProduct(ctx, *p); err != nil {
		return nil, fmt.Errorf("update product: %w", err)
	}
	return p, nil
}

func (s *Service) checkSupplier(ctx context.Context, supplierID *int64) error {
	if supplierID == nil {
		return nil
	}
	partner, err := s.GetPartner(ctx, *supplierID)
	if err != nil {
		return err
	}
	if partner.Kind != PartnerSupplier {
		return ErrWrongKind
	}
	return nil
}
