package importer

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/lowvoltmgr/lowvolt-backend/pkg/db"
	"github.com/lowvoltmgr/lowvolt-backend/pkg/db/models"
	pkgerrors "github.com/lowvoltmgr/lowvolt-backend/pkg/errors"
)

const (
	descopeMarker   = "descope"
	wallMountMarker = "wm"
	defaultBuilding = "Unknown"

	autoIDPrefix     = "AUTO-"
	autoNamePrefix   = "⚠️ AUTO: "
	autoCategoryName = "Auto-Imported"
)

// TrackerResult reports a completed tracker sheet import.
type TrackerResult struct {
	RoomsSynced int      `json:"rooms_synced"`
	LinksSynced int      `json:"links_synced"`
	Errors      []string `json:"errors"`
}

// trackerRow is one sheet row resolved through the fuzzy header map.
type trackerRow struct {
	roomID   string
	building string
	rackRaw  string
	upsRaw   string
	pduRaw   string
	cableRaw string
}

// ImportTracker syncs the room tracker sheet: upserts each room and its
// four derived equipment requirements. Headers are matched loosely
// because every revision of the sheet renames them slightly. A failed
// room or link is recorded and the batch continues.
func (s *service) ImportTracker(ctx context.Context, r io.Reader) (*TrackerResult, error) {
	records, err := readCSV(r)
	if err != nil {
		return nil, err
	}
	if len(records) < 2 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "tracker csv has no data rows")
	}

	header := newTrackerHeader(records[0])
	if header.roomCol < 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "no room id column found")
	}

	result := &TrackerResult{}
	for i := 1; i < len(records); i++ {
		row := header.resolve(records[i])

		if row.roomID == "" || strings.EqualFold(row.roomID, "TR") {
			continue
		}
		if strings.EqualFold(strings.TrimSpace(row.rackRaw), descopeMarker) {
			continue
		}

		links, err := s.syncTrackerRow(ctx, row)
		if err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("room %s: %v", row.roomID, err))
			continue
		}
		result.RoomsSynced++
		result.LinksSynced += links
	}
	return result, nil
}

func (s *service) syncTrackerRow(ctx context.Context, row trackerRow) (int, error) {
	roomID := strings.ToUpper(strings.TrimSpace(row.roomID))
	building := strings.TrimSpace(row.building)
	if idx := strings.Index(building, "("); idx >= 0 {
		building = strings.TrimSpace(building[:idx])
	}
	if building == "" {
		building = defaultBuilding
	}

	wallMount := strings.Contains(strings.ToUpper(row.rackRaw), strings.ToUpper(wallMountMarker))
	parts := rackParts(wallMount,
		firstInt(row.rackRaw), firstInt(row.upsRaw), firstInt(row.pduRaw), firstInt(row.cableRaw))

	if err := s.roomRepo.Upsert(ctx, &models.Room{ID: roomID, BuildingNumber: building}); err != nil {
		return 0, fmt.Errorf("upsert room: %w", err)
	}

	links := 0
	var linkErrs []string
	for part, qty := range parts {
		if qty <= 0 {
			continue
		}
		if err := s.linkRequirement(ctx, roomID, part, qty); err != nil {
			linkErrs = append(linkErrs, fmt.Sprintf("%s: %v", part, err))
			continue
		}
		links++
	}
	if len(linkErrs) > 0 {
		return links, fmt.Errorf("%s", strings.Join(linkErrs, "; "))
	}
	return links, nil
}

func (s *service) linkRequirement(ctx context.Context, roomID, part string, qty int) error {
	return s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		materialRepo := s.materialRepo.WithTx(tx)

		material, err := materialRepo.FindByPartNumber(ctx, part)
		switch {
		case err == nil:
		case errors.Is(err, gorm.ErrRecordNotFound):
			material = &models.Material{
				ID:         autoIDPrefix + part,
				PartNumber: part,
				Name:       autoNamePrefix + part,
				Category:   autoCategoryName,
				Unit:       defaultUnit,
			}
			if err := materialRepo.Create(ctx, material); err != nil {
				if !db.IsUniqueViolation(err) {
					return fmt.Errorf("create placeholder: %w", err)
				}
				// Another row already created this placeholder; reuse it.
				if material, err = materialRepo.FindByPartNumber(ctx, part); err != nil {
					return fmt.Errorf("refetch placeholder: %w", err)
				}
			}
		default:
			return fmt.Errorf("find material by part: %w", err)
		}

		return s.roomRepo.WithTx(tx).UpsertRequirement(ctx, &models.RoomRequirement{
			ID:          uuid.New(),
			TRID:        roomID,
			MaterialID:  material.ID,
			QtyRequired: qty,
		})
	})
}

type trackerHeader struct {
	roomCol     int
	buildingCol int
	rackCol     int
	upsCol      int
	pduCol      int
	cableCol    int
}

func newTrackerHeader(row []string) trackerHeader {
	h := trackerHeader{roomCol: -1, buildingCol: -1, rackCol: -1, upsCol: -1, pduCol: -1, cableCol: -1}
	for i, raw := range row {
		key := strings.ToLower(strings.TrimSpace(raw))
		switch {
		case key == "tr" || key == "room" || key == "room id":
			h.roomCol = i
		case key == "building" || strings.HasPrefix(key, "bldg"):
			h.buildingCol = i
		case strings.Contains(key, "rack") && strings.Contains(key, "qty"):
			h.rackCol = i
		case strings.Contains(key, "ups") && strings.Contains(key, "qty"):
			h.upsCol = i
		case strings.Contains(key, "pdu") && strings.Contains(key, "qty"):
			h.pduCol = i
		case strings.Contains(key, "cable") && strings.Contains(key, "count"):
			h.cableCol = i
		}
	}
	return h
}

func (h trackerHeader) resolve(row []string) trackerRow {
	return trackerRow{
		roomID:   strings.TrimSpace(cell(row, h.roomCol)),
		building: cell(row, h.buildingCol),
		rackRaw:  cell(row, h.rackCol),
		upsRaw:   cell(row, h.upsCol),
		pduRaw:   cell(row, h.pduCol),
		cableRaw: cell(row, h.cableCol),
	}
}
