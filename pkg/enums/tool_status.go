package enums

import "fmt"

// ToolStatus describes the allowed values for the `status` column in tools.
type ToolStatus string

const (
	ToolStatusAvailable   ToolStatus = "available"
	ToolStatusCheckedOut  ToolStatus = "checked_out"
	ToolStatusMaintenance ToolStatus = "maintenance"
)

var validToolStatuses = []ToolStatus{
	ToolStatusAvailable,
	ToolStatusCheckedOut,
	ToolStatusMaintenance,
}

// IsValid reports whether the value matches the canonical tool status enum.
func (t ToolStatus) IsValid() bool {
	for _, candidate := range validToolStatuses {
		if candidate == t {
			return true
		}
	}
	return false
}

// ParseToolStatus converts the raw string to ToolStatus.
func ParseToolStatus(value string) (ToolStatus, error) {
	for _, candidate := range validToolStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid tool status %q", value)
}
