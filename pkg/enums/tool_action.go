package enums

import "strings"

// ToolAction is the action_type recorded in tool_logs. Admin force
// overrides embed the target status in the action itself, so the set is
// open-ended and IsValid accepts any ADMIN_FORCE_* value.
type ToolAction string

const (
	ToolActionCheckOut       ToolAction = "CHECK_OUT"
	ToolActionReturn         ToolAction = "RETURN"
	ToolActionFlagBroken     ToolAction = "FLAG_BROKEN"
	ToolActionRepairComplete ToolAction = "REPAIR_COMPLETE"
	ToolActionAudit          ToolAction = "audit"

	adminForcePrefix = "ADMIN_FORCE_"
)

var validToolActions = []ToolAction{
	ToolActionCheckOut,
	ToolActionReturn,
	ToolActionFlagBroken,
	ToolActionRepairComplete,
	ToolActionAudit,
}

// AdminForceAction builds the action recorded when an admin overrides a
// tool into an arbitrary status.
func AdminForceAction(status ToolStatus) ToolAction {
	return ToolAction(adminForcePrefix + strings.ToUpper(string(status)))
}

// IsValid reports whether the value is a recognized tool action.
func (t ToolAction) IsValid() bool {
	if strings.HasPrefix(string(t), adminForcePrefix) {
		return true
	}
	for _, candidate := range validToolActions {
		if candidate == t {
			return true
		}
	}
	return false
}
