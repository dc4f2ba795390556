package ledger

import "fmt"

// Ledger reason tags. The formats are load-bearing: existing ledger rows
// and the reporting spreadsheets built on top of them parse these exact
// strings, so changes here are schema changes.
const (
	ReasonReceivedToOffice = "RECEIVED_TO_OFFICE"
	ReasonReceivedToSite   = "RECEIVED_TO_SITE"
	ReasonFieldConsumption = "FIELD_CONSUMPTION"
)

// InstallReason tags an install against a specific telecom room.
func InstallReason(roomID string) string {
	return fmt.Sprintf("INSTALLED_TR_%s", roomID)
}

// AuditFixReason carries the per-counter deltas of an audit correction
// in the reason text; the ledger row itself records quantity zero.
func AuditFixReason(actor string, orderDelta, officeDelta, siteDelta int) string {
	return fmt.Sprintf("AUDIT_FIX_BY_%s (Order:%d, Office:%d, Site:%d)", actor, orderDelta, officeDelta, siteDelta)
}

// QuickDeployReason tags a quick-deploy draw for a room by an actor.
func QuickDeployReason(roomID, actor string) string {
	return fmt.Sprintf("QUICK_DEPLOY_%s_%s", roomID, actor)
}
