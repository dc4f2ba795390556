package enums

import "fmt"

// ReceiveTarget is where a received delivery lands.
type ReceiveTarget string

const (
	ReceiveTargetOffice ReceiveTarget = "office"
	ReceiveTargetSite   ReceiveTarget = "site"
)

var validReceiveTargets = []ReceiveTarget{
	ReceiveTargetOffice,
	ReceiveTargetSite,
}

// IsValid reports whether the value matches the canonical receive target enum.
func (r ReceiveTarget) IsValid() bool {
	for _, candidate := range validReceiveTargets {
		if candidate == r {
			return true
		}
	}
	return false
}

// ParseReceiveTarget converts the raw string to ReceiveTarget.
func ParseReceiveTarget(value string) (ReceiveTarget, error) {
	for _, candidate := range validReceiveTargets {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid receive target %q", value)
}
