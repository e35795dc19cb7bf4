// Copyright (c) The Hotel Authors. All Rights Reserved.
//
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package usb

import "github.com/google/hotel-dwcotg/internal/reg"

// BaseAddr is the MMIO base address of the DWC_otg core.
const BaseAddr uint32 = 0x40300000

// Global, device and endpoint register offsets from BaseAddr. Names follow
// the Synopsys DesignWare Cores USB 2.0 Hi-Speed OTG Programmer's Guide.
const (
	offGOTGCTL   = 0x000
	offGAHBCFG   = 0x008
	offGUSBCFG   = 0x00c
	offGRSTCTL   = 0x010
	offGINTSTS   = 0x014
	offGINTMSK   = 0x018
	offGRXFSIZ   = 0x024
	offGNPTXFSIZ = 0x028
	offGPIO      = 0x008000

	offDCFG     = 0x800
	offDCTL     = 0x804
	offDAINT    = 0x818
	offDAINTMSK = 0x81c
	offDOEPMSK  = 0x810
	offDIEPMSK  = 0x814

	// Per-IN-endpoint periodic/non-periodic TX FIFO size, indexed 1..N-1
	// (endpoint 0's TX FIFO is configured via GNPTXFSIZ).
	offDIEPTXF = 0x104

	// Endpoint register blocks: control, interrupt, transfer size, DMA
	// address, each 0x20 apart, indexed by endpoint number.
	offDIEPCTL0 = 0x900
	offDOEPCTL0 = 0xb00
	epRegStride = 0x20
	epCtl       = 0x00
	epInt       = 0x08
	epTsiz      = 0x10
	epDMAAddr   = 0x14
)

// Global interrupt bits (GINTSTS/GINTMSK), p270 Table 5-2 of the
// Programmer's Guide.
const (
	intCurMode       = 1 << 0
	intModeMismatch  = 1 << 1
	intOTG           = 1 << 2
	intSOF           = 1 << 3
	intRxFIFO        = 1 << 4
	intGINNakEff     = 1 << 6
	intGOUTNakEff    = 1 << 7
	intEarlySuspend  = 1 << 10
	intUSBSuspend    = 1 << 11
	intUSBReset      = 1 << 12
	intEnumDone      = 1 << 13
	intISOOutDrop    = 1 << 14
	intEOPF          = 1 << 15
	intEPMismatch    = 1 << 17
	intInEndpoints   = 1 << 18
	intOutEndpoints  = 1 << 19
	intInISOIncompl  = 1 << 20
	intIncomplPeriod = 1 << 21
	intConnIDChange  = 1 << 28
	intSessionReq    = 1 << 30
	intResumeWakeup  = 1 << 31
)

// DAINT/DAINTMSK bit layout: bit n is IN endpoint n, bit 16+n is OUT
// endpoint n.
const (
	allEPIn0  = 1 << 0
	allEPOut0 = 1 << 16
)

// Device OUT/IN endpoint interrupt bits (DOEPINTn/DIEPINTn).
const (
	epIntXferCompl   = 1 << 0
	epIntDisabled    = 1 << 1
	epIntSetUp       = 1 << 3
	epIntStsPhseRcvd = 1 << 5
)

// Endpoint control register bits (DOEPCTLn/DIEPCTLn).
const (
	epCtlCNAK   = 1 << 26
	epCtlStall  = 1 << 21
	epCtlEnable = 1 << 31
)

// Device control register bits (DCTL).
const (
	dctlSoftDisconnect    = 1 << 1
	dctlClearGlobalINNAK  = 1 << 8
	dctlClearGlobalOUTNAK = 1 << 10
	dctlPowerOnProgDone   = 1 << 11
)

// Device config register (DCFG) fields.
const (
	dcfgDevSpeedFS    = 0b11 << 0
	dcfgPerFrInt80    = 0b00 << 11
	dcfgScatterGather = 1 << 23
	dcfgDevAddrPos    = 4
	dcfgDevAddrMask   = 0x7f
)

// GUSBCFG fields used during init.
const (
	gusbcfgPhySelFS      = 1 << 6
	gusbcfgTurnaround14  = 14 << 10
	gusbcfgTimeoutCalib7 = 7
)

// GAHBCFG fields used during init.
const (
	ahbGlobalIntUnmask = 1 << 0
	ahbDMAEnable       = 1 << 5
	ahbNPTxFEmpty      = 1 << 7
)

// GRSTCTL (reset) fields.
const (
	rstCSftRst   = 1 << 0
	rstRxFFlsh   = 1 << 4
	rstTxFFlsh   = 1 << 5
	rstTxFNumPos = 6
	rstTxFNumAll = 0x10
	rstAHBIdle   = 1 << 31
)

// PHY selects the USB PHY to use at init time.
type PHY int

const (
	PhyA PHY = iota
	PhyB
)

// numTrackedEndpoints bounds the endpoint register arrays this driver
// iterates during bring-up when clearing pending interrupts.
// Only endpoint 0 is ever driven by the control-transfer engine; endpoints
// 1 and 2 exist in hardware for the bulk/interrupt data pipelines, which
// are an external collaborator's concern.
const numTrackedEndpoints = 3

// registers is a typed gateway onto the controller's memory-mapped
// register file. All access goes through package reg, which performs
// volatile, uncached loads/stores.
type registers struct {
	base uint32
}

func newRegisters(base uint32) *registers {
	return &registers{base: base}
}

func (r *registers) addr(off uint32) uint32 { return r.base + off }

// --- Global interrupt mask/status ---

func (r *registers) interruptMask() uint32         { return reg.Read(r.addr(offGINTMSK)) }
func (r *registers) setInterruptMask(v uint32)     { reg.Write(r.addr(offGINTMSK), v) }
func (r *registers) interruptStatus() uint32       { return reg.Read(r.addr(offGINTSTS)) }
func (r *registers) clearInterruptStatus(v uint32) { reg.Write(r.addr(offGINTSTS), v) }

// --- Device config/control ---

func (r *registers) deviceConfig() uint32     { return reg.Read(r.addr(offDCFG)) }
func (r *registers) setDeviceConfig(v uint32) { reg.Write(r.addr(offDCFG), v) }

func (r *registers) deviceControl() uint32     { return reg.Read(r.addr(offDCTL)) }
func (r *registers) setDeviceControl(v uint32) { reg.Write(r.addr(offDCTL), v) }
func (r *registers) orDeviceControl(v uint32)  { reg.Or(r.addr(offDCTL), v) }

// setDeviceAddress writes the 7-bit device address into DCFG bits 10:4,
// leaving the rest of the register untouched.
func (r *registers) setDeviceAddress(addr uint8) {
	reg.SetN(r.addr(offDCFG), dcfgDevAddrPos, dcfgDevAddrMask, uint32(addr)&dcfgDevAddrMask)
}

// --- Per-endpoint interrupt masks (all-endpoint aggregate) ---

func (r *registers) allEndpointInterrupt() uint32 { return reg.Read(r.addr(offDAINT)) }

func (r *registers) allEndpointInterruptMask() uint32 { return reg.Read(r.addr(offDAINTMSK)) }
func (r *registers) setAllEndpointInterruptMask(v uint32) {
	reg.Write(r.addr(offDAINTMSK), v)
}

func (r *registers) setOutEndpointInterruptMask(v uint32) { reg.Write(r.addr(offDOEPMSK), v) }
func (r *registers) setInEndpointInterruptMask(v uint32)  { reg.Write(r.addr(offDIEPMSK), v) }

// --- Per-endpoint control/interrupt/DMA-address ---

func (r *registers) outEPCtl(n int) uint32     { return r.addr(uint32(offDOEPCTL0 + n*epRegStride + epCtl)) }
func (r *registers) outEPInt(n int) uint32     { return r.addr(uint32(offDOEPCTL0 + n*epRegStride + epInt)) }
func (r *registers) outEPDMAAddr(n int) uint32 { return r.addr(uint32(offDOEPCTL0 + n*epRegStride + epDMAAddr)) }

func (r *registers) inEPCtl(n int) uint32     { return r.addr(uint32(offDIEPCTL0 + n*epRegStride + epCtl)) }
func (r *registers) inEPInt(n int) uint32     { return r.addr(uint32(offDIEPCTL0 + n*epRegStride + epInt)) }
func (r *registers) inEPDMAAddr(n int) uint32 { return r.addr(uint32(offDIEPCTL0 + n*epRegStride + epDMAAddr)) }

func (r *registers) outEndpointInterrupt(n int) uint32         { return reg.Read(r.outEPInt(n)) }
func (r *registers) clearOutEndpointInterrupt(n int, v uint32) { reg.Write(r.outEPInt(n), v) }

func (r *registers) inEndpointInterrupt(n int) uint32         { return reg.Read(r.inEPInt(n)) }
func (r *registers) clearInEndpointInterrupt(n int, v uint32) { reg.Write(r.inEPInt(n), v) }

func (r *registers) setOutEPControl(n int, v uint32) { reg.Write(r.outEPCtl(n), v) }
func (r *registers) setInEPControl(n int, v uint32)  { reg.Write(r.inEPCtl(n), v) }

func (r *registers) setOutEPDMAAddress(n int, addr uint32) { reg.Write(r.outEPDMAAddr(n), addr) }
func (r *registers) setInEPDMAAddress(n int, addr uint32)  { reg.Write(r.inEPDMAAddr(n), addr) }

// --- FIFO sizing ---

func (r *registers) setReceiveFIFOSize(v uint32)  { reg.Write(r.addr(offGRXFSIZ), v) }
func (r *registers) setTransmitFIFOSize(v uint32) { reg.Write(r.addr(offGNPTXFSIZ), v) }

func (r *registers) setInEPTxFIFOSize(i int, v uint32) {
	reg.Write(r.addr(uint32(offDIEPTXF+i*4)), v)
}

// --- Reset / FIFO flush ---

func (r *registers) setReset(v uint32) { reg.Write(r.addr(offGRSTCTL), v) }

// waitResetBit spins up to n iterations for bit pos of GRSTCTL to equal val.
func (r *registers) waitResetBit(pos int, val uint32, n int) bool {
	return reg.WaitIterations(n, r.addr(offGRSTCTL), pos, 1, val)
}

// --- AHB / USB configuration ---

func (r *registers) setAHBConfig(v uint32) { reg.Write(r.addr(offGAHBCFG), v) }
func (r *registers) setUSBConfig(v uint32) { reg.Write(r.addr(offGUSBCFG), v) }

// --- PHY select GPIO ---

// selectPHY writes the SoC's write-enable-gated PHY select field: bit 15 of
// the upper half-word enables the write, bits 4:6 of the upper half-word
// select the PHY.
func (r *registers) selectPHY(phy PHY) {
	var sel uint32
	switch phy {
	case PhyA:
		sel = 0b100
	case PhyB:
		sel = 0b101
	}

	reg.Write(r.addr(offGPIO), (1<<15|sel<<4)<<16)
}
