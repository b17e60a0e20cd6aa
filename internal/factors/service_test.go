package factors

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type memoryPresetRepo struct {
	presets map[int64]*Preset
	nextID  int64
}

func newMemoryPresetRepo() *memoryPresetRepo {
	return &memoryPresetRepo{presets: make(map[int64]*Preset)}
}

func (r *memoryPresetRepo) List(ctx context.Context, activeOnly bool) ([]Preset, error) {
	var out []Preset
	for _, p := range r.presets {
		if activeOnly && !p.IsActive {
			continue
		}
		out = append(out, *p)
	}
	return out, nil
}

func (r *memoryPresetRepo) Get(ctx context.Context, id int64) (*Preset, error) {
	p, ok := r.presets[id]
	if !ok {
		return nil, nil
	}
	out := *p
	return &out, nil
}

func (r *memoryPresetRepo) Create(ctx context.Context, p Preset) (*Preset, error) {
	for _, existing := range r.presets {
		if strings.EqualFold(existing.Name, p.Name) {
			return nil, ErrDuplicateName
		}
	}
	r.nextID++
	p.ID = r.nextID
	p.CreatedAt = time.Now()
	p.UpdatedAt = p.CreatedAt
	stored := p
	r.presets[p.ID] = &stored
	return &p, nil
}

func (r *memoryPresetRepo) Update(ctx context.Context, p Preset) error {
	stored, ok := r.presets[p.ID]
	if !ok {
		return ErrNotFound
	}
	*stored = p
	return nil
}

func TestPresetMultiplier(t *testing.T) {
	p := Preset{TaxPercent: 12, ContingencyPercent: 3, MarginPercent: 20}
	require.InDelta(t, 1.35, p.Multiplier(), 1e-9)

	require.Equal(t, 1.0, Preset{}.Multiplier())
}

func TestCreateAndDeactivatePreset(t *testing.T) {
	ctx := context.Background()
	svc := NewService(newMemoryPresetRepo())

	created, err := svc.Create(ctx, CreatePresetRequest{
		Name:               "  Padrão  ",
		TaxPercent:         12,
		ContingencyPercent: 3,
		MarginPercent:      20,
	})
	require.NoError(t, err)
	require.Equal(t, "Padrão", created.Name)
	require.True(t, created.IsActive)

	_, err = svc.Create(ctx, CreatePresetRequest{Name: "Padrão"})
	require.ErrorIs(t, err, ErrDuplicateName)

	require.NoError(t, svc.Deactivate(ctx, created.ID))

	active, err := svc.List(ctx, true)
	require.NoError(t, err)
	require.Empty(t, active)

	all, err := svc.List(ctx, false)
	require.NoError(t, err)
	require.Len(t, all, 1)
}

func TestUpdatePreset(t *testing.T) {
	ctx := context.Background()
	svc := NewService(newMemoryPresetRepo())

	created, err := svc.Create(ctx, CreatePresetRequest{Name: "Evento", MarginPercent: 30})
	require.NoError(t, err)

	margin := 25.0
	updated, err := svc.Update(ctx, created.ID, UpdatePresetRequest{MarginPercent: &margin})
	require.NoError(t, err)
	require.Equal(t, 25.0, updated.MarginPercent)
	require.Equal(t, "Evento", updated.Name)

	_, err = svc.Update(ctx, 999, UpdatePresetRequest{MarginPercent: &margin})
	require.ErrorIs(t, err, ErrNotFound)
}
