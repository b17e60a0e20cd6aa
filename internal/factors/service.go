package factors

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrNotFound indicates the preset does not exist.
	ErrNotFound = errors.New("factors: preset not found")
	// ErrDuplicateName indicates a preset with the same name already exists.
	ErrDuplicateName = errors.New("factors: preset name already exists")
)

// RepositoryPort defines data access for markup presets.
type RepositoryPort interface {
	List(ctx context.Context, activeOnly bool) ([]Preset, error)
	Get(ctx context.Context, id int64) (*Preset, error)
	Create(ctx context.Context, p Preset) (*Preset, error)
	Update(ctx context.Context, p Preset) error
}

// Service manages markup presets.
type Service struct {
	repo RepositoryPort
}

// NewService builds Service instance.
func NewService(repo RepositoryPort) *Service {
	return &Service{repo: repo}
}

// List returns presets, optionally only the active ones offered in forms.
func (s *Service) List(ctx context.Context, activeOnly bool) ([]Preset, error) {
	return s.repo.List(ctx, activeOnly)
}

// Get retrieves one preset.
func (s *Service) Get(ctx context.Context, id int64) (*Preset, error) {
	p, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, ErrNotFound
	}
	return p, nil
}

// Create adds a preset. Names are unique case-insensitively.
func (s *Service) Create(ctx context.Context, req CreatePresetRequest) (*Preset, error) {
	p := Preset{
		Name:               strings.TrimSpace(req.Name),
		TaxPercent:         req.TaxPercent,
		ContingencyPercent: req.ContingencyPercent,
		MarginPercent:      req.MarginPercent,
		IsActive:           true,
	}
	created, err := s.repo.Create(ctx, p)
	if err != nil {
		return nil, fmt.Errorf("create preset: %w", err)
	}
	return created, nil
}

// Update mutates a preset. Items that already copied its percentages keep them.
func (s *Service) Update(ctx context.Context, id int64, req UpdatePresetRequest) (*Preset, error) {
	p, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		p.Name = strings.TrimSpace(*req.Name)
	}
	if req.TaxPercent != nil {
		p.TaxPercent = *req.TaxPercent
	}
	if req.ContingencyPercent != nil {
		p.ContingencyPercent = *req.ContingencyPercent
	}
	if req.MarginPercent != nil {
		p.MarginPercent = *req.MarginPercent
	}
	if req.IsActive != nil {
		p.IsActive = *req.IsActive
	}

	if err := s.repo.Update(ctx, *p); err != nil {
		return nil, fmt.Errorf("update preset: %w", err)
	}
	return p, nil
}

// Deactivate hides a preset from forms without touching historical items.
func (s *Service) Deactivate(ctx context.Context, id int64) error {
	inactive := false
	_, err := s.Update(ctx, id, UpdatePresetRequest{IsActive: &inactive})
	return err
}
