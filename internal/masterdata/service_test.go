package masterdata

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type memoryMasterdataRepo struct {
	partners map[int64]*Partner
	products map[int64]*Product
	nextID   int64
}

func newMemoryMasterdataRepo() *memoryMasterdataRepo {
	return &memoryMasterdataRepo{
		partners: make(map[int64]*Partner),
		products: make(map[int64]*Product),
	}
}

func (r *memoryMasterdataRepo) ListPartners(ctx context.Context, kind PartnerKind, filters ListFilters) ([]Partner, int, error) {
	var out []Partner
	for _, p := range r.partners {
		if p.Kind != kind {
			continue
		}
		if filters.IsActive != nil && p.IsActive != *filters.IsActive {
			continue
		}
		out = append(out, *p)
	}
	return out, len(out), nil
}

func (r *memoryMasterdataRepo) GetPartner(ctx context.Context, id int64) (*Partner, error) {
	p, ok := r.partners[id]
	if !ok {
		return nil, nil
	}
	out := *p
	return &out, nil
}

func (r *memoryMasterdataRepo) CreatePartner(ctx context.Context, p Partner) (*Partner, error) {
	r.nextID++
	p.ID = r.nextID
	p.CreatedAt = time.Now()
	p.UpdatedAt = p.CreatedAt
	stored := p
	r.partners[p.ID] = &stored
	return &p, nil
}

func (r *memoryMasterdataRepo) UpdatePartner(ctx context.Context, p Partner) error {
	stored, ok := r.partners[p.ID]
	if !ok {
		return ErrNotFound
	}
	*stored = p
	return nil
}

func (r *memoryMasterdataRepo) ListProducts(ctx context.Context, filters ListFilters) ([]Product, int, error) {
	var out []Product
	for _, p := range r.products {
		out = append(out, *p)
	}
	return out, len(out), nil
}

func (r *memoryMasterdataRepo) GetProduct(ctx context.Context, id int64) (*Product, error) {
	p, ok := r.products[id]
	if !ok {
		return nil, nil
	}
	out := *p
	return &out, nil
}

func (r *memoryMasterdataRepo) CreateProduct(ctx context.Context, p Product) (*Product, error) {
	r.nextID++
	p.ID = r.nextID
	p.CreatedAt = time.Now()
	p.UpdatedAt = p.CreatedAt
	stored := p
	r.products[p.ID] = &stored
	return &p, nil
}

func (r *memoryMasterdataRepo) UpdateProduct(ctx context.Context, p Product) error {
	stored, ok := r.products[p.ID]
	if !ok {
		return ErrNotFound
	}
	*stored = p
	return nil
}

func TestCreatePartnerTrimsName(t *testing.T) {
	ctx := context.Background()
	svc := NewService(newMemoryMasterdataRepo())

	p, err := svc.CreatePartner(ctx, CreatePartnerRequest{Kind: PartnerClient, Name: "  Gráfica Azul  "})
	require.NoError(t, err)
	require.Equal(t, "Gráfica Azul", p.Name)
	require.True(t, p.IsActive)
}

func TestUpdatePartnerDeactivation(t *testing.T) {
	ctx := context.Background()
	repo := newMemoryMasterdataRepo()
	svc := NewService(repo)

	p, err := svc.CreatePartner(ctx, CreatePartnerRequest{Kind: PartnerSupplier, Name: "Malharia Sul"})
	require.NoError(t, err)

	inactive := false
	updated, err := svc.UpdatePartner(ctx, p.ID, UpdatePartnerRequest{IsActive: &inactive})
	require.NoError(t, err)
	require.False(t, updated.IsActive)

	active, _, err := svc.ListPartners(ctx, PartnerSupplier, ListFilters{IsActive: boolPtr(true)})
	require.NoError(t, err)
	require.Empty(t, active)
}

func TestCreateProductChecksSupplierKind(t *testing.T) {
	ctx := context.Background()
	svc := NewService(newMemoryMasterdataRepo())

	client, err := svc.CreatePartner(ctx, CreatePartnerRequest{Kind: PartnerClient, Name: "Loja Centro"})
	require.NoError(t, err)
	supplier, err := svc.CreatePartner(ctx, CreatePartnerRequest{Kind: PartnerSupplier, Name: "Malharia Sul"})
	require.NoError(t, err)

	_, err = svc.CreateProduct(ctx, CreateProductRequest{Name: "Caneca", SupplierID: &client.ID})
	require.ErrorIs(t, err, ErrWrongKind)

	p, err := svc.CreateProduct(ctx, CreateProductRequest{Name: "Caneca", ReferencePrice: 4.5, SupplierID: &supplier.ID})
	require.NoError(t, err)
	require.Equal(t, 4.5, p.ReferencePrice)

	_, err = svc.CreateProduct(ctx, CreateProductRequest{Name: "Chaveiro", SupplierID: int64Ptr(999)})
	require.ErrorIs(t, err, ErrNotFound)
}

func TestUpdateProduct(t *testing.T) {
	ctx := context.Background()
	svc := NewService(newMemoryMasterdataRepo())

	p, err := svc.CreateProduct(ctx, CreateProductRequest{Name: "Camiseta", ReferencePrice: 18})
	require.NoError(t, err)

	price := 20.0
	updated, err := svc.UpdateProduct(ctx, p.ID, UpdateProductRequest{ReferencePrice: &price})
	require.NoError(t, err)
	require.Equal(t, 20.0, updated.ReferencePrice)

	_, err = svc.UpdateProduct(ctx, 999, UpdateProductRequest{ReferencePrice: &price})
	require.ErrorIs(t, err, ErrNotFound)
}

func boolPtr(v bool) *bool    { return &v }
func int64Ptr(v int64) *int64 { return &v }
