package importer

import (
	"context"
	"fmt"
	"io"

	"gorm.io/gorm"

	"github.com/lowvoltmgr/lowvolt-backend/internal/materials"
	"github.com/lowvoltmgr/lowvolt-backend/internal/rooms"
)

// Service ingests the two spreadsheet exports the project runs on: the
// procurement bid sheet (catalog) and the room tracker. Both are
// partial-success batches: a bad row is reported and skipped, the rest
// of the sheet still lands.
type Service interface {
	ImportCatalog(ctx context.Context, r io.Reader) (*CatalogResult, error)
	ImportTracker(ctx context.Context, r io.Reader) (*TrackerResult, error)
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type service struct {
	materialRepo materials.Repository
	roomRepo     rooms.Repository
	tx           txRunner
}

// NewService wires an importer with the catalog and room repositories.
func NewService(materialRepo materials.Repository, roomRepo rooms.Repository, tx txRunner) (Service, error) {
	if materialRepo == nil {
		return nil, fmt.Errorf("materials repository required")
	}
	if roomRepo == nil {
		return nil, fmt.Errorf("rooms repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("tx runner required")
	}
	return &service{materialRepo: materialRepo, roomRepo: roomRepo, tx: tx}, nil
}
