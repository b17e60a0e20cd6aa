package factors

import "time"

// Preset is a reusable markup recipe. Selecting one copies its percentages
// onto the line item; later edits to the preset never reprice existing items.
type Preset struct {
	ID                 int64     `json:"id" db:"id"`
	Name               string    `json:"name" db:"name"`
	TaxPercent         float64   `json:"tax_percent" db:"tax_percent"`
	ContingencyPercent float64   `json:"contingency_percent" db:"contingency_percent"`
	MarginPercent      float64   `json:"margin_percent" db:"margin_percent"`
	IsActive           bool      `json:"is_active" db:"is_active"`
	CreatedAt          time.Time `json:"created_at" db:"created_at"`
	UpdatedAt          time.Time `json:"updated_at" db:"updated_at"`
}

// Multiplier is the cost markup the preset encodes: the sum of its percentage
// components over the cost base.
func (p Preset) Multiplier() float64 {
	return 1 + (p.TaxPercent+p.ContingencyPercent+p.MarginPercent)/100
}

// CreatePresetRequest creates a markup preset.
type CreatePresetRequest struct {
	Name               string  `json:"name" validate:"required,max=100"`
	TaxPercent         float64 `json:"tax_percent" validate:"gte=0,lte=100"`
	ContingencyPercent float64 `json:"contingency_percent" validate:"gte=0,lte=100"`
	MarginPercent      float64 `json:"margin_percent" validate:"gte=0,lte=100"`
}

// UpdatePresetRequest updates a markup preset.
type UpdatePresetRequest struct {
	Name               *string  `json:"name,omitempty" validate:"omitempty,max=100"`
	TaxPercent         *float64 `json:"tax_percent,omitempty" validate:"omitempty,gte=0,lte=100"`
	ContingencyPercent *float64 `json:"contingency_percent,omitempty" validate:"omitempty,gte=0,lte=100"`
	MarginPercent      *float64 `json:"margin_percent,omitempty" validate:"omitempty,gte=0,lte=100"`
	IsActive           *bool    `json:"is_active,omitempty"`
}
