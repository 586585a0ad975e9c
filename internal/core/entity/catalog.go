package entity

import (
	"context"

	"github.com/L-Y-21/twist-erp-sub001/internal/core/apperror"
)

// Catalog is the base type for reference data (items, warehouses, locations).
type Catalog struct {
	BaseEntity

	// Code is a human-readable identifier (unique within the catalog)
	Code string `db:"code" json:"code"`

	// Name is the display name
	Name string `db:"name" json:"name"`

	// IsActive indicates the entry is usable in new documents
	IsActive bool `db:"is_active" json:"isActive"`
}

// NewCatalog creates a new Catalog with generated ID.
func NewCatalog(code, name string) Catalog {
	return Catalog{
		BaseEntity: NewBaseEntity(),
		Code:       code,
		Name:       name,
		IsActive:   true,
	}
}

// Validate implements Validatable interface.
func (c *Catalog) Validate(ctx context.Context) error {
	if c.Code == "" {
		return apperror.NewValidation("code is required").
			WithDetail("field", "code")
	}
	if c.Name == "" {
		return apperror.NewValidation("name is required").
			WithDetail("field", "name")
	}
	return nil
}
