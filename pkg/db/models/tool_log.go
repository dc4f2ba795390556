package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/lowvoltmgr/lowvolt-backend/pkg/enums"
)

// ToolLog is one append-only tool movement. ToolID is nil for audit
// sweep summaries, which describe the whole container rather than a
// single tool.
type ToolLog struct {
	ID         int64            `gorm:"column:id;primaryKey;autoIncrement"`
	ToolID     *uuid.UUID       `gorm:"column:tool_id;type:uuid;index"`
	ActionType enums.ToolAction `gorm:"column:action_type;type:text;not null"`
	UserName   string           `gorm:"column:user_name;type:text;not null"`
	Location   string           `gorm:"column:location;type:text"`
	Note       string           `gorm:"column:note;type:text"`
	CreatedAt  time.Time        `gorm:"column:created_at;type:timestamptz;default:now()"`
}

func (ToolLog) TableName() string { return "tool_logs" }
