package dashboard

import (
	"context"
	"fmt"
	"math"

	"github.com/lowvoltmgr/lowvolt-backend/internal/materials"
	"github.com/lowvoltmgr/lowvolt-backend/internal/rooms"
	"github.com/lowvoltmgr/lowvolt-backend/internal/tools"
	"github.com/lowvoltmgr/lowvolt-backend/pkg/enums"
	pkgerrors "github.com/lowvoltmgr/lowvolt-backend/pkg/errors"
)

// Service aggregates procurement health for the home screen.
type Service interface {
	Stats(ctx context.Context) (*Stats, error)
}

// ShortageItem is a material whose total procured quantity is short of
// the bid.
type ShortageItem struct {
	MaterialID string `json:"material_id"`
	Name       string `json:"name"`
	BidQty     int    `json:"bid_qty"`
	Procured   int    `json:"procured"`
	Short      int    `json:"short"`
}

// Stats is the dashboard payload.
type Stats struct {
	HealthScore     int            `json:"health_score"`
	ShortageCount   int            `json:"shortage_count"`
	Shortages       []ShortageItem `json:"shortages"`
	FieldStockTotal int            `json:"field_stock_total"`
	ToolsOut        int64          `json:"tools_out"`
	ToolsBroken     int64          `json:"tools_broken"`
	RoomsTracked    int            `json:"rooms_tracked"`
	RoomProgressPct int            `json:"room_progress_pct"`
}

type service struct {
	materialRepo materials.Repository
	toolRepo     tools.Repository
	roomRepo     rooms.Repository
}

// NewService wires the dashboard aggregator.
func NewService(materialRepo materials.Repository, toolRepo tools.Repository, roomRepo rooms.Repository) (Service, error) {
	if materialRepo == nil {
		return nil, fmt.Errorf("materials repository required")
	}
	if toolRepo == nil {
		return nil, fmt.Errorf("tools repository required")
	}
	if roomRepo == nil {
		return nil, fmt.Errorf("rooms repository required")
	}
	return &service{materialRepo: materialRepo, toolRepo: toolRepo, roomRepo: roomRepo}, nil
}

func (s *service) Stats(ctx context.Context) (*Stats, error) {
	rows, err := s.materialRepo.List(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list materials")
	}

	stats := &Stats{}
	totalBid := 0
	totalProcured := 0
	for _, m := range rows {
		procured := m.QtyOnOrder + m.QtyAtOffice + m.QtyAtSite
		stats.FieldStockTotal += m.QtyAtSite
		totalBid += m.QtyBidDay
		totalProcured += procured
		if procured < m.QtyBidDay {
			stats.Shortages = append(stats.Shortages, ShortageItem{
				MaterialID: m.ID,
				Name:       m.Name,
				BidQty:     m.QtyBidDay,
				Procured:   procured,
				Short:      m.QtyBidDay - procured,
			})
		}
	}
	stats.ShortageCount = len(stats.Shortages)
	// Over-procurement can push the score past 100; the bid day sets the
	// target, not a ceiling.
	if totalBid > 0 {
		stats.HealthScore = int(math.Round(float64(totalProcured) / float64(totalBid) * 100))
	}

	out, err := s.toolRepo.CountByStatus(ctx, enums.ToolStatusCheckedOut)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "count tools out")
	}
	broken, err := s.toolRepo.CountByStatus(ctx, enums.ToolStatusMaintenance)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "count tools broken")
	}
	stats.ToolsOut = out
	stats.ToolsBroken = broken

	requirements, err := s.roomRepo.ListAllRequirements(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list requirements")
	}
	roomIDs := map[string]bool{}
	fulfilled := 0
	for _, req := range requirements {
		roomIDs[req.TRID] = true
		if req.QtyFulfilled >= req.QtyRequired {
			fulfilled++
		}
	}
	stats.RoomsTracked = len(roomIDs)
	if len(requirements) > 0 {
		stats.RoomProgressPct = int(math.Round(float64(fulfilled) / float64(len(requirements)) * 100))
	}
	return stats, nil
}
