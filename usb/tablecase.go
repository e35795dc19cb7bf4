// Copyright (c) The Hotel Authors. All Rights Reserved.
//
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package usb

// TableCase identifies one of the five combinations of OUT endpoint-0
// interrupt bits (XferCompl, SetUp, StsPhseRcvd) that classify a
// control-transfer event, as enumerated in the DWC_otg Programmer's Guide
// §10.7 (Table 10.7, pp. 279-280). It is a pure classification with no
// hardware dependency, so it can be exercised directly in tests.
type TableCase int

const (
	// TableCaseA: an OUT descriptor completed, with no SETUP or status
	// phase activity; the caller must check SETUP_READY on the completed
	// descriptor to tell a Setup stage from ordinary OUT data.
	TableCaseA TableCase = iota
	// TableCaseB: the Setup phase completed for a previously decoded SETUP
	// packet, with no accompanying OUT descriptor completion.
	TableCaseB
	// TableCaseC: an OUT descriptor completed together with Setup phase
	// completion — the ordinary way a SETUP packet arrives.
	TableCaseC
	// TableCaseD: the status phase of a Control-OUT transfer, with no
	// accompanying OUT descriptor completion.
	TableCaseD
	// TableCaseE: an OUT descriptor completed together with the host in
	// the Control-Write status phase.
	TableCaseE
)

func (c TableCase) String() string {
	switch c {
	case TableCaseA:
		return "A"
	case TableCaseB:
		return "B"
	case TableCaseC:
		return "C"
	case TableCaseD:
		return "D"
	case TableCaseE:
		return "E"
	default:
		return "?"
	}
}

// decodeTableCase classifies the OUT endpoint-0 interrupt word into one of
// the five cases. The classification is total: only the documented bit
// combinations occur on correctly operating hardware, and for those SetUp
// and StsPhseRcvd are mutually exclusive, so SetUp is simply tested first.
func decodeTableCase(outInt uint32) TableCase {
	if outInt&epIntXferCompl != 0 {
		switch {
		case outInt&epIntSetUp != 0:
			return TableCaseC
		case outInt&epIntStsPhseRcvd != 0:
			return TableCaseE
		default:
			return TableCaseA
		}
	}

	if outInt&epIntSetUp != 0 {
		return TableCaseB
	}
	return TableCaseD
}
