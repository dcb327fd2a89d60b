// Package storage defines the persistence interface for course materials.
package storage

import (
	"context"
	"errors"

	"github.com/hyperjump/hirogeru/internal/models"
)

// ErrNotFound is returned when a material with the requested ID does not exist.
var ErrNotFound = errors.New("material not found")

// Storage defines material persistence operations. The corpus statistics
// index is rebuilt from ListAllMaterials after mutations.
type Storage interface {
	CreateMaterial(ctx context.Context, material *models.Material) error
	GetMaterial(ctx context.Context, id string) (*models.Material, error)
	UpdateMaterial(ctx context.Context, material *models.Material) error
	DeleteMaterial(ctx context.Context, id string) error
	ListMaterials(ctx context.Context, offset, limit int) ([]*models.Material, error)
	ListAllMaterials(ctx context.Context) ([]*models.Material, error)
	CountMaterials(ctx context.Context) (int64, error)
	Close() error
}
