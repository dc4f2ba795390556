package importer

// Bid-sheet part numbers for the equipment a tracker row derives. These
// mirror the procurement catalog and must match the part_number values
// the catalog import writes.
const (
	PartStandingRack = "OR-MM2073038-W"
	PartWMRack       = "12419-E48"
	PartStandingPDU  = "AP8861"
	PartWMPDU        = "AP9563"
	PartStandingUPS  = "ZC0517708100000"
	PartWMUPS        = "SU3000RMXL3U"
	PartPatchPanel   = "PHAHJU48-W"
)

// patchPanelPorts is the port count a single panel provides.
const patchPanelPorts = 48

// patchPanelsFor derives the panel count for a cable count: enough
// 48-port panels, rounded up to the next even number so panels pair up
// in the rack layout.
func patchPanelsFor(cables int) int {
	if cables <= 0 {
		return 0
	}
	panels := (cables + patchPanelPorts - 1) / patchPanelPorts
	if panels%2 != 0 {
		panels++
	}
	return panels
}

// rackParts returns the four (part, qty) requirements a tracker row
// derives, already variant-resolved.
func rackParts(wallMount bool, racks, upses, pdus, cables int) map[string]int {
	rack, ups, pdu := PartStandingRack, PartStandingUPS, PartStandingPDU
	if wallMount {
		rack, ups, pdu = PartWMRack, PartWMUPS, PartWMPDU
	}
	return map[string]int{
		rack:           racks,
		ups:            upses,
		pdu:            pdus,
		PartPatchPanel: patchPanelsFor(cables),
	}
}
