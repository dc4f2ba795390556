package tools

import (
	"time"

	"github.com/google/uuid"

	"github.com/lowvoltmgr/lowvolt-backend/pkg/db/models"
	"github.com/lowvoltmgr/lowvolt-backend/pkg/enums"
)

// ToolDTO is the API shape of a tracked tool.
type ToolDTO struct {
	ID     uuid.UUID        `json:"id"`
	Name   string           `json:"name"`
	Brand  string           `json:"brand"`
	QRCode string           `json:"qr_code"`
	Status enums.ToolStatus `json:"status"`
}

// CreateInput holds the validated payload to register a tool.
type CreateInput struct {
	Name   string
	Brand  string
	QRCode string
}

// TransitionInput is the common payload for status transitions.
type TransitionInput struct {
	ToolID   string
	User     string
	Location string
	Note     string
}

// ForceStatusInput is an admin override to an arbitrary status.
type ForceStatusInput struct {
	ToolID string
	Status enums.ToolStatus
	User   string
	Note   string
}

// AuditSweepInput is a physical container audit: the IDs found present.
type AuditSweepInput struct {
	FoundIDs []string
	Actor    string
	Location string
}

// AuditSweepResult summarizes a completed sweep.
type AuditSweepResult struct {
	Expected int      `json:"expected"`
	Found    int      `json:"found"`
	Missing  []string `json:"missing"`
	Note     string   `json:"note"`
}

// LogDTO is one tool movement row.
type LogDTO struct {
	ID         int64            `json:"id"`
	ToolID     *uuid.UUID       `json:"tool_id"`
	ActionType enums.ToolAction `json:"action_type"`
	UserName   string           `json:"user_name"`
	Location   string           `json:"location"`
	Note       string           `json:"note"`
	CreatedAt  time.Time        `json:"created_at"`
}

func toDTO(t *models.Tool) *ToolDTO {
	return &ToolDTO{ID: t.ID, Name: t.Name, Brand: t.Brand, QRCode: t.QRCode, Status: t.Status}
}

func toLogDTO(l *models.ToolLog) LogDTO {
	return LogDTO{
		ID:         l.ID,
		ToolID:     l.ToolID,
		ActionType: l.ActionType,
		UserName:   l.UserName,
		Location:   l.Location,
		Note:       l.Note,
		CreatedAt:  l.CreatedAt,
	}
}
