package importer

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"gorm.io/gorm"

	"github.com/lowvoltmgr/lowvolt-backend/internal/materials"
	"github.com/lowvoltmgr/lowvolt-backend/pkg/db/models"
	pkgerrors "github.com/lowvoltmgr/lowvolt-backend/pkg/errors"
)

const (
	catalogHeaderDescription = "Item Description"
	catalogHeaderQty         = "Qty"
	catalogHeaderPart        = "Part Number"
	catalogHeaderMfr         = "Manufacturer"

	defaultPartNumber = "N/A"
	defaultCategory   = "General"
	defaultUnit       = "pcs"
)

// CatalogResult reports a completed catalog sheet import.
type CatalogResult struct {
	Synced int      `json:"synced"`
	Errors []string `json:"errors"`
}

// ImportCatalog syncs a bid sheet into the materials catalog. Rows are
// matched by part number so re-importing an updated sheet updates in
// place; unmatched rows mint a new catalog id. Row failures accumulate
// and the batch continues.
func (s *service) ImportCatalog(ctx context.Context, r io.Reader) (*CatalogResult, error) {
	records, err := readCSV(r)
	if err != nil {
		return nil, err
	}

	headerIdx, columns := findCatalogHeader(records)
	if headerIdx < 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation,
			fmt.Sprintf("no header row containing %q", catalogHeaderDescription))
	}

	result := &CatalogResult{}
	for i := headerIdx + 1; i < len(records); i++ {
		row := records[i]
		description := strings.TrimSpace(cell(row, colIdx(columns, catalogHeaderDescription)))
		if description == "" {
			continue
		}

		if err := s.syncCatalogRow(ctx, row, columns, description); err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("row %d (%s): %v", i+1, description, err))
			continue
		}
		result.Synced++
	}
	return result, nil
}

func (s *service) syncCatalogRow(ctx context.Context, row []string, columns map[string]int, description string) error {
	qty := firstInt(cell(row, colIdx(columns, catalogHeaderQty)))
	part := strings.TrimSpace(cell(row, colIdx(columns, catalogHeaderPart)))
	if part == "" {
		part = defaultPartNumber
	}
	category := strings.TrimSpace(cell(row, colIdx(columns, catalogHeaderMfr)))
	if category == "" {
		category = defaultCategory
	}

	return s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.materialRepo.WithTx(tx)

		material, err := repo.FindByPartNumber(ctx, part)
		switch {
		case err == nil:
		case errors.Is(err, gorm.ErrRecordNotFound):
			material = &models.Material{ID: materials.NewMaterialID(), PartNumber: part}
		default:
			return fmt.Errorf("find material by part: %w", err)
		}

		material.Name = description
		material.Category = category
		material.QtyBidDay = qty
		material.Unit = defaultUnit
		return repo.Save(ctx, material)
	})
}

func findCatalogHeader(records [][]string) (int, map[string]int) {
	for i, row := range records {
		columns := map[string]int{}
		for j, raw := range row {
			columns[strings.TrimSpace(raw)] = j
		}
		if _, ok := columns[catalogHeaderDescription]; ok {
			return i, columns
		}
	}
	return -1, nil
}

func readCSV(r io.Reader) ([][]string, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	records, err := reader.ReadAll()
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "parse csv")
	}
	if len(records) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "empty csv")
	}
	return records, nil
}

func colIdx(columns map[string]int, name string) int {
	if i, ok := columns[name]; ok {
		return i
	}
	return -1
}

func cell(row []string, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}
	return row[idx]
}

// firstInt extracts the first run of digits in a raw sheet value;
// "2x 48-port" yields 2.
func firstInt(raw string) int {
	start := -1
	for i, r := range raw {
		if r >= '0' && r <= '9' {
			if start < 0 {
				start = i
			}
			continue
		}
		if start >= 0 {
			n, _ := strconv.Atoi(raw[start:i])
			return n
		}
	}
	if start >= 0 {
		n, _ := strconv.Atoi(raw[start:])
		return n
	}
	return 0
}
