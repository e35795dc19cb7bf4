// Copyright (c) The Hotel Authors. All Rights Reserved.
//
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package usb implements the device-mode endpoint-0 control-transfer engine
// for a Synopsys DesignWare Cores USB 2.0 Hi-Speed OTG controller operating
// in Scatter/Gather DMA mode: descriptor-ring management, SETUP packet
// classification and the interrupt-driven state machine that carries USB
// enumeration through to the Configured state.
package usb

import (
	"fmt"
	"sync"
	"unsafe"
)

// driverState is the control-transfer engine's state machine position.
type driverState int

const (
	waitingForSetupPacket driverState = iota
	dataStageIn
	noDataStage
)

func (s driverState) String() string {
	switch s {
	case waitingForSetupPacket:
		return "waitingForSetupPacket"
	case dataStageIn:
		return "dataStageIn"
	case noDataStage:
		return "noDataStage"
	default:
		return "?"
	}
}

// maxPacketSize0 is the endpoint-0 max packet size this controller is
// configured for (Full Speed control endpoints: 8, 16, 32 or 64; this
// driver always uses the largest).
const maxPacketSize0 = 64

// spinBudget bounds the iteration-counted spins the bring-up sequence uses
// while waiting for the controller to acknowledge a reset or FIFO flush, in
// place of a wall-clock timeout. A reset that never completes within this
// budget is logged and the boot path continues best-effort: this controller
// has no supervisor to escalate to.
const spinBudget = 10000

// Default device identity: a deliberately-unclaimed vendor/product pair
// that presents to the host as an unknown counterfeit flash drive, so no
// kernel-side driver matches it. Overridable at Init.
const (
	defaultDeviceClass = 0x00
	defaultVendorID    = 0x0011
	defaultProductID   = 0x5026
)

// DeviceConfig carries the boot layer's per-device inputs to Init: which
// PHY to attach, the string table contents, and optional overrides of the
// default device identity (a zero VendorID/ProductID keeps the default; the
// default class is already zero, so DeviceClass simply applies). Strings
// must be supplied in the fixed stringVendor..stringInterface2 order the
// descriptor set references them by.
type DeviceConfig struct {
	DeviceClass uint8
	VendorID    uint16
	ProductID   uint16

	LanguageIDs []uint16
	Strings     []string

	PHY PHY
}

// fixed topology of the Configuration aggregate: one U2F/HID interface (OUT
// 0x01 + IN 0x81, both Interrupt, interval 2) and one vendor interface (IN
// 0x82 Bulk interval 10, OUT 0x02 Bulk interval 0). This shape is not
// caller-configurable — only the device identity and strings are.
func hidInterfaceEndpoints() []EndpointDescriptor {
	out := EndpointDescriptor{EndpointAddress: 0x01, Attributes: epAttrInterrupt, MaxPacketSize: 64, Interval: 2}
	in := EndpointDescriptor{EndpointAddress: 0x81, Attributes: epAttrInterrupt, MaxPacketSize: 64, Interval: 2}
	out.SetDefaults()
	in.SetDefaults()
	return []EndpointDescriptor{out, in}
}

func vendorInterfaceEndpoints() []EndpointDescriptor {
	in := EndpointDescriptor{EndpointAddress: 0x82, Attributes: epAttrBulk, MaxPacketSize: 64, Interval: 10}
	out := EndpointDescriptor{EndpointAddress: 0x02, Attributes: epAttrBulk, MaxPacketSize: 64, Interval: 0}
	in.SetDefaults()
	out.SetDefaults()
	return []EndpointDescriptor{in, out}
}

// Device is the endpoint-0 control-transfer engine for one DWC_otg
// controller instance: register gateway, descriptor rings, descriptor
// cache, and the SETUP dispatch state machine. The zero value is not
// usable; construct one with NewDevice. A Device is inherently a
// process-wide singleton tied to its MMIO base: at most one instance per
// controller may exist.
type Device struct {
	sync.Mutex

	regs   *registers
	clock  Clock
	wait   waiter
	diag   *diagnostics
	addrOf addrFunc

	state driverState

	deviceClass uint8
	vendorID    uint16
	productID   uint16

	strings stringTable

	configDescriptor  []byte
	configTotalLength uint16
	configValue       uint8

	outRing OutRing
	inRing  InRing
}

// NewDevice constructs a Device bound to the controller whose register file
// starts at base. clock gates the controller's own clock domain and must be
// enabled before any register is touched, which Init does as its first
// hardware step.
func NewDevice(base uint32, clock Clock) *Device {
	return &Device{
		regs:        newRegisters(base),
		clock:       clock,
		wait:        spinWaiter{},
		diag:        newDiagnostics(),
		addrOf:      defaultAddrOf,
		deviceClass: defaultDeviceClass,
		vendorID:    defaultVendorID,
		productID:   defaultProductID,
	}
}

func defaultAddrOf(p *byte) uint32 {
	return uint32(uintptr(unsafe.Pointer(p)))
}

const usbConfig = gusbcfgPhySelFS | gusbcfgTurnaround14 | gusbcfgTimeoutCalib7

// Init brings the controller out of reset and configures it to enumerate as
// the device described by cfg. Call it exactly once, before enabling the
// USB IRQ; it returns with the soft-disconnect released, so the host sees
// the pull-up and begins enumeration with a bus reset, which arms the
// endpoint-0 rings via HandleInterrupt.
func (d *Device) Init(cfg DeviceConfig) {
	d.Lock()
	defer d.Unlock()

	if cfg.DeviceClass != 0 {
		d.deviceClass = cfg.DeviceClass
	}
	if cfg.VendorID != 0 {
		d.vendorID = cfg.VendorID
	}
	if cfg.ProductID != 0 {
		d.productID = cfg.ProductID
	}

	d.strings = stringTable{}
	d.strings.setLanguageCodes(cfg.LanguageIDs...)
	for _, s := range cfg.Strings {
		d.strings.addString(s)
	}

	d.buildConfigurationDescriptor()

	d.clock.Enable()

	// Mask everything until the controller is fully configured.
	d.regs.setInterruptMask(0)
	d.regs.setAllEndpointInterruptMask(0)
	d.regs.setInEndpointInterruptMask(0)
	d.regs.setOutEndpointInterruptMask(0)

	d.regs.selectPHY(cfg.PHY)

	d.regs.setUSBConfig(usbConfig)
	d.softReset()
	// The soft reset wipes GUSBCFG; program it again.
	d.regs.setUSBConfig(usbConfig)

	d.regs.setAHBConfig(ahbGlobalIntUnmask | ahbDMAEnable | ahbNPTxFEmpty)

	// Hold soft-disconnect while the device side is programmed, so the
	// host sees one clean attach rather than a partially configured
	// device.
	d.regs.orDeviceControl(dctlSoftDisconnect)

	d.regs.setDeviceConfig(d.regs.deviceConfig() | dcfgDevSpeedFS | dcfgPerFrInt80 | dcfgScatterGather)

	d.setupDataFIFOs()

	d.clearPendingInterrupts()

	d.regs.setOutEndpointInterruptMask(epIntXferCompl | epIntDisabled | epIntSetUp)
	d.regs.setInEndpointInterruptMask(epIntXferCompl | epIntDisabled)
	d.regs.setInterruptMask(intGOUTNakEff | intGINNakEff | intUSBReset | intEnumDone |
		intOutEndpoints | intInEndpoints | intEarlySuspend | intUSBSuspend | intSOF)

	// Pulse power-on programming done so the controller latches the
	// device configuration.
	d.regs.orDeviceControl(dctlPowerOnProgDone)
	d.wait.Wait(spinBudget)
	d.regs.setDeviceControl(d.regs.deviceControl() &^ dctlPowerOnProgDone)

	d.regs.orDeviceControl(dctlClearGlobalOUTNAK | dctlClearGlobalINNAK)

	// Reconnect: release soft-disconnect so the core can issue a connect.
	d.regs.setDeviceControl(d.regs.deviceControl() &^ dctlSoftDisconnect)

	d.configValue = 0
	d.state = waitingForSetupPacket
}

// buildConfigurationDescriptor assembles the fixed two-interface
// Configuration bundle into the descriptor cache and records its total
// length.
func (d *Device) buildConfigurationDescriptor() {
	var iface0, iface1 InterfaceDescriptor
	iface0.SetDefaults()
	iface0.InterfaceNumber = 0
	iface0.InterfaceClass = 0x03 // HID
	iface0.Interface = stringInterface2
	eps0 := hidInterfaceEndpoints()
	iface0.NumEndpoints = uint8(len(eps0))

	iface1.SetDefaults()
	iface1.InterfaceNumber = 1
	iface1.InterfaceClass = 0xff // vendor
	iface1.InterfaceSubClass = 80
	iface1.InterfaceProtocol = 1
	iface1.Interface = stringInterface1
	eps1 := vendorInterfaceEndpoints()
	iface1.NumEndpoints = uint8(len(eps1))

	var hid HIDDescriptor
	hid.SetDefaults()

	var cfgDesc ConfigurationDescriptor
	cfgDesc.SetDefaults()

	d.configDescriptor = buildConfigurationBundle(cfgDesc, iface0, hid, eps0, iface1, eps1)
	d.configTotalLength = uint16(len(d.configDescriptor))
}

// SetConfigurationTotalLength overrides the recorded total length of the
// Configuration bundle. Diagnostic use only; Init records the real length.
func (d *Device) SetConfigurationTotalLength(length uint16) {
	d.Lock()
	defer d.Unlock()

	d.configTotalLength = length
}

// ConfigurationTotalLength returns the recorded total length of the
// Configuration bundle.
func (d *Device) ConfigurationTotalLength() uint16 {
	d.Lock()
	defer d.Unlock()

	return d.configTotalLength
}

// deviceDescriptor generates the Device Descriptor from the configured
// identity.
func (d *Device) deviceDescriptor() DeviceDescriptor {
	var desc DeviceDescriptor
	desc.SetDefaults()
	desc.DeviceClass = d.deviceClass
	desc.VendorID = d.vendorID
	desc.ProductID = d.productID
	return desc
}

func (d *Device) softReset() {
	d.regs.setReset(rstCSftRst)
	if !d.regs.waitResetBit(0, 0, spinBudget) {
		d.diag.logSoftResetTimeout("CSftRst")
		return
	}
	if !d.regs.waitResetBit(31, 1, spinBudget) {
		d.diag.logSoftResetTimeout("AHBIdle")
	}
}

// FIFO partition, in 32-bit words. The values depend on the FIFO RAM the
// core was synthesized with: too large and the transmit size register reads
// back zero, which cannot transfer anything. These sizes comfortably cover
// one 64-byte control transfer per endpoint.
const (
	rxFIFOSize     = 0x80
	txFIFOSize     = 0x20
	numInEPTxFIFOs = 2
)

// setupDataFIFOs partitions the controller's FIFO RAM — shared RX FIFO,
// non-periodic TX FIFO (endpoint 0 IN), then one TX FIFO per data IN
// endpoint offset by rxFIFOSize + i*txFIFOSize — and flushes everything.
func (d *Device) setupDataFIFOs() {
	d.regs.setReceiveFIFOSize(rxFIFOSize & 0xffff)
	d.regs.setTransmitFIFOSize(txFIFOSize<<16 | rxFIFOSize&0xffff)

	for i := 0; i < numInEPTxFIFOs; i++ {
		d.regs.setInEPTxFIFOSize(i, txFIFOSize<<16|uint32(rxFIFOSize+i*txFIFOSize))
	}

	d.flushTxFIFO(rstTxFNumAll)
	d.flushRxFIFO()
}

// flushTxFIFO flushes TX FIFO fifoNum (0-15 for one FIFO, rstTxFNumAll for
// all of them).
func (d *Device) flushTxFIFO(fifoNum uint32) {
	d.regs.setReset(rstTxFFlsh | fifoNum<<rstTxFNumPos)
	if !d.regs.waitResetBit(5, 0, spinBudget) {
		d.diag.logSoftResetTimeout("TxFFlsh")
	}
}

func (d *Device) flushRxFIFO() {
	d.regs.setReset(rstRxFFlsh)
	if !d.regs.waitResetBit(4, 0, spinBudget) {
		d.diag.logSoftResetTimeout("RxFFlsh")
	}
}

func (d *Device) clearPendingInterrupts() {
	for i := 0; i < numTrackedEndpoints; i++ {
		d.regs.clearOutEndpointInterrupt(i, ^uint32(0))
		d.regs.clearInEndpointInterrupt(i, ^uint32(0))
	}
	d.regs.clearInterruptStatus(^uint32(0))
}

// HandleInterrupt services one pass of the controller's global interrupt
// line. It must be invoked from the platform's IRQ vector for this
// controller; Device registers with no interrupt controller itself.
//
// Bits are processed in a fixed order: enumeration-done and the suspend
// bits first (no-ops on this Full-Speed-only device), SOF (which self-masks
// on first sighting to avoid an interrupt storm), the global NAK-effective
// acknowledgements, endpoint-0 events, and bus reset last, since the reset
// re-initializes the very descriptors the endpoint path just used. The
// snapshotted status word is written back at the end to clear all the
// pending bits the pass observed in one store.
func (d *Device) HandleInterrupt() {
	d.Lock()
	defer d.Unlock()

	status := d.regs.interruptStatus()

	if status&intEnumDone != 0 {
		// Speed enumeration is done. A dual-speed device would read the
		// enumerated speed here; this one is Full Speed only.
	}

	if status&(intEarlySuspend|intUSBSuspend) != 0 {
		// Suspend is not supported.
	}

	if d.regs.interruptMask()&status&intSOF != 0 {
		d.regs.setInterruptMask(d.regs.interruptMask() &^ intSOF)
	}

	if status&intGOUTNakEff != 0 {
		d.regs.orDeviceControl(dctlClearGlobalOUTNAK)
	}

	if status&intGINNakEff != 0 {
		d.regs.orDeviceControl(dctlClearGlobalINNAK)
	}

	if status&(intOutEndpoints|intInEndpoints) != 0 {
		daint := d.regs.allEndpointInterrupt()
		out0 := daint&allEPOut0 != 0
		in0 := daint&allEPIn0 != 0
		if out0 || in0 {
			d.handleEndpoint0Events(out0, in0)
		}
	}

	if status&intUSBReset != 0 {
		d.reset()
	}

	d.regs.clearInterruptStatus(status)
}

// reset responds to a bus reset signaled by the host: endpoint 0's rings
// are re-initialized and the driver returns to waiting for the first SETUP
// packet of a fresh enumeration.
func (d *Device) reset() {
	d.state = waitingForSetupPacket
	d.initDescriptors()
}

// initDescriptors resets the endpoint-0 rings to a clean state, points the
// controller's DMA address registers at them, and arms the OUT side for the
// first SETUP packet of an enumeration exchange.
func (d *Device) initDescriptors() {
	d.outRing.init(d.addrOf)
	d.regs.setOutEPDMAAddress(0, d.outRing.nextDescriptorAddr(d.addrOf))

	d.inRing.init(d.addrOf)
	d.regs.setInEPDMAAddress(0, d.inRing.descriptorArrayAddr(d.addrOf))

	d.expectSetupPacket()
}

// handleEndpoint0Events services the pending endpoint-0 interrupts: clear
// the per-endpoint interrupt bits, rotate the OUT ring if a descriptor
// completed, classify the OUT event into its table case, and dispatch by
// the driver's current state. The same OUT event means something different
// depending on whether the driver is waiting for a fresh SETUP, midway
// through a Control-Read data stage, or closing out a no-data-stage status
// phase.
func (d *Device) handleEndpoint0Events(interOut, interIn bool) {
	outInt := d.regs.outEndpointInterrupt(0)
	if interOut {
		d.regs.clearOutEndpointInterrupt(0, outInt)
	}

	inInt := d.regs.inEndpointInterrupt(0)
	if interIn {
		d.regs.clearInEndpointInterrupt(0, inInt)
	}

	// Rotate the ring before inspecting the completed descriptor, so the
	// controller immediately has a fresh descriptor to receive into while
	// the completed one is processed.
	if interOut && outInt&epIntXferCompl != 0 {
		d.outRing.swap()
		d.regs.setOutEPDMAAddress(0, d.outRing.nextDescriptorAddr(d.addrOf))
	}

	tc := decodeTableCase(outInt)
	setupReady := d.outRing.lastDescriptor().setupReady()

	switch d.state {
	case waitingForSetupPacket:
		d.handleEventsWaitingForSetup(tc, setupReady)
	case dataStageIn, noDataStage:
		d.handleEventsInTransfer(tc, setupReady, interOut, interIn, inInt)
	}
}

// handleEventsWaitingForSetup implements the WaitingForSetupPacket row of
// the state machine: case A or C with SETUP_READY on the completed
// descriptor dispatches the decoded request; without SETUP_READY the host
// sent OUT data where only a SETUP packet is legal, which is a protocol
// violation; case B only occurs here while stalling, and is answered by
// re-stalling until the host sends a fresh SETUP.
func (d *Device) handleEventsWaitingForSetup(tc TableCase, setupReady bool) {
	switch tc {
	case TableCaseA, TableCaseC:
		if !setupReady {
			d.diag.logFatal("case %v while waiting for SETUP, descriptor not setup-ready (flags %#08x)",
				tc, d.outRing.lastDescriptor().Flags)
			panic("usb: expected SETUP packet but descriptor is not setup-ready")
		}
		d.handleSetup(tc)
	case TableCaseB:
		d.stallBothFIFOs()
	}
}

// handleEventsInTransfer implements the identical OUT-side handling shared
// by DataStageIn and NoDataStage: an IN XferCompl re-enables IN-0 (an
// unconditional ENABLE, no CNAK); a case B OUT event re-enables both
// endpoints with CNAK so the status or next data phase can proceed; a case
// A/C with SETUP_READY dispatches the newly arrived SETUP (the host
// abandoned the in-progress transfer early); anything else returns the
// driver to WaitingForSetupPacket.
func (d *Device) handleEventsInTransfer(tc TableCase, setupReady, interOut, interIn bool, inInt uint32) {
	if interIn && inInt&epIntXferCompl != 0 {
		d.regs.setInEPControl(0, epCtlEnable)
	}

	if !interOut {
		return
	}

	switch tc {
	case TableCaseB:
		d.regs.setInEPControl(0, epCtlEnable|epCtlCNAK)
		d.regs.setOutEPControl(0, epCtlEnable|epCtlCNAK)
	case TableCaseA, TableCaseC:
		if setupReady {
			d.handleSetup(tc)
		} else {
			d.expectSetupPacket()
		}
	default: // D, E
		d.expectSetupPacket()
	}
}

// handleSetup decodes the SETUP packet in the just-completed OUT buffer and
// dispatches it by request type, recipient and direction. The table case is
// threaded through to the phase-arming helpers, which must withhold CNAK
// unless the Setup phase has actually completed (case C).
func (d *Device) handleSetup(tc TableCase) {
	s := decodeSetupData(d.outRing.setupBuffer())

	switch {
	case s.requestType() == typeStandard && s.recipient() == recipientDevice:
		if s.direction() == deviceToHost {
			d.handleStandardDeviceToHost(s, tc)
		} else if s.Length > 0 {
			msg := fmt.Sprintf("unhandled standard host-to-device request 0x%02x with data", s.Request)
			d.diag.logFatal("%s", msg)
			panic("usb: " + msg)
		} else {
			d.handleStandardNoDataPhase(s, tc)
		}
	case s.requestType() == typeStandard && s.recipient() == recipientInterface:
		if s.direction() == deviceToHost {
			d.handleStandardInterfaceToHost(s, tc)
		} else {
			d.handleStandardHostToInterface(s)
		}
	case s.requestType() == typeClass && s.recipient() == recipientInterface:
		if s.direction() == deviceToHost {
			d.handleClassInterfaceToHost(s)
		} else {
			d.handleClassHostToInterface(s)
		}
	default:
		d.diag.logStall("unhandled setup: type=%d recipient=%d dir=%d request=0x%02x",
			s.requestType(), s.recipient(), s.direction(), s.Request)
		d.stallBothFIFOs()
	}
}

func (d *Device) handleStandardDeviceToHost(s SetupData, tc TableCase) {
	switch s.Request {
	case reqGetStatus:
		// GET_STATUS carries a 2-byte reply but runs as a status-phase-in
		// transfer, not a data stage, landing in NoDataStage.
		d.expectStatusPhaseIn([]byte{0x00, 0x00}, tc)
	case reqGetDescriptor:
		d.handleGetDescriptor(s, tc)
	case reqGetConfiguration:
		d.expectDataPhaseIn([]byte{d.configValue}, s.Length, tc)
	default:
		msg := fmt.Sprintf("unhandled standard device-to-host request 0x%02x", s.Request)
		d.diag.logFatal("%s", msg)
		panic("usb: " + msg)
	}
}

func (d *Device) handleGetDescriptor(s SetupData, tc TableCase) {
	switch s.descriptorType() {
	case descTypeDevice:
		desc := d.deviceDescriptor()
		d.expectDataPhaseIn(desc.Bytes(), s.Length, tc)
	case descTypeConfiguration:
		n := int(d.configTotalLength)
		if n > len(d.configDescriptor) {
			n = len(d.configDescriptor)
		}
		d.expectDataPhaseIn(d.configDescriptor[:n], s.Length, tc)
	case descTypeInterface:
		// A standalone GET_DESCRIPTOR(INTERFACE) is unusual (interfaces
		// are normally only fetched embedded in the Configuration bundle),
		// but this device answers it with a one-off descriptor for the HID
		// interface.
		var iface InterfaceDescriptor
		iface.SetDefaults()
		iface.InterfaceClass = 0x03
		iface.Interface = stringInterface2
		iface.NumEndpoints = 2
		d.expectDataPhaseIn(iface.Bytes(), s.Length, tc)
	case descTypeString:
		b, err := d.strings.bytes(s.descriptorIndex())
		if err != nil {
			d.diag.logStall("%v", err)
			d.stallBothFIFOs()
			return
		}
		d.expectDataPhaseIn(b, s.Length, tc)
	case descTypeDeviceQualifier:
		// This device only ever operates at Full Speed: there is no
		// other-speed configuration to describe, so the request is
		// answered the way any unsupported descriptor is.
		d.diag.logStall("device qualifier requested; not applicable at full speed")
		d.stallBothFIFOs()
	default:
		d.diag.logStall("unhandled descriptor type 0x%02x", s.descriptorType())
		d.stallBothFIFOs()
	}
}

// handleStandardInterfaceToHost implements the single request this device
// answers on the Interface recipient: GET_DESCRIPTOR(Report). The host must
// ask for exactly the Report descriptor's length; any other length, or any
// other request, is a protocol violation.
func (d *Device) handleStandardInterfaceToHost(s SetupData, tc TableCase) {
	if s.Request != reqGetDescriptor || s.descriptorType() != descTypeHIDReport {
		msg := fmt.Sprintf("unhandled standard interface-to-host request 0x%02x", s.Request)
		d.diag.logFatal("%s", msg)
		panic("usb: " + msg)
	}

	report := reportDescriptorBytes()
	if int(s.Length) != len(report) {
		msg := fmt.Sprintf("GET_DESCRIPTOR(Report) wLength %d != %d", s.Length, len(report))
		d.diag.logFatal("%s", msg)
		panic("usb: " + msg)
	}

	d.expectDataPhaseIn(report, s.Length, tc)
}

// handleStandardHostToInterface is unsupported and fatal, with no accepted
// requests.
func (d *Device) handleStandardHostToInterface(s SetupData) {
	msg := fmt.Sprintf("unhandled standard host-to-interface request 0x%02x", s.Request)
	d.diag.logFatal("%s", msg)
	panic("usb: " + msg)
}

// handleClassInterfaceToHost is unsupported and fatal, with no accepted
// requests.
func (d *Device) handleClassInterfaceToHost(s SetupData) {
	msg := fmt.Sprintf("unhandled class interface-to-host request 0x%02x", s.Request)
	d.diag.logFatal("%s", msg)
	panic("usb: " + msg)
}

func (d *Device) handleClassHostToInterface(s SetupData) {
	switch s.Request {
	case reqHIDSetIdle:
		// SET_IDLE is acknowledged by stalling both FIFOs rather than
		// completing a normal status phase. Hosts sending SET_IDLE
		// tolerate the stall, so the behavior is kept as-is.
		d.diag.logStall("SET_IDLE id=%d interval=%d", uint8(s.Value>>8), uint8(s.Value))
		d.stallBothFIFOs()
	default:
		msg := fmt.Sprintf("unhandled class host-to-interface request 0x%02x", s.Request)
		d.diag.logFatal("%s", msg)
		panic("usb: " + msg)
	}
}

func (d *Device) handleStandardNoDataPhase(s SetupData, tc TableCase) {
	switch s.Request {
	case reqGetStatus:
		msg := "GET_STATUS dispatched as a no-data-phase request"
		d.diag.logFatal("%s", msg)
		panic("usb: " + msg)
	case reqSetAddress:
		// USB wants the address applied only after the status-phase
		// handshake, but the hardware knows to defer: write it now.
		d.regs.setDeviceAddress(uint8(s.Value & 0x7f))
		d.expectStatusPhaseIn(nil, tc)
	case reqSetConfiguration:
		d.configValue = uint8(s.Value)
		d.expectStatusPhaseIn(nil, tc)
	default:
		msg := fmt.Sprintf("unhandled no-data-phase request 0x%02x", s.Request)
		d.diag.logFatal("%s", msg)
		panic("usb: " + msg)
	}
}

// expectDataPhaseIn stages data, trimmed to the host's requested wLength,
// as the data stage of a Control-Read transfer, rearms the OUT side for the
// status phase, and transitions to DataStageIn. CNAK is written only for
// case C: clearing the NAK any earlier would answer a non-SETUP packet the
// engine has not responded to yet.
func (d *Device) expectDataPhaseIn(data []byte, wLength uint16, tc TableCase) {
	if len(data) > int(wLength) {
		data = data[:wLength]
	}

	d.state = dataStageIn
	d.armInOut(data, tc)
}

// expectStatusPhaseIn stages data (nil for a true zero-length status
// packet) as the IN side of a no-data-stage control transfer and
// transitions to NoDataStage. GET_STATUS routes its 2-byte reply through
// here rather than through the data-phase path.
func (d *Device) expectStatusPhaseIn(data []byte, tc TableCase) {
	d.state = noDataStage
	d.armInOut(data, tc)
}

// armInOut loads the IN reply, flushes the endpoint-0 TX FIFO, points the
// controller at the rings and enables both endpoints, unmasking their
// interrupts. Shared tail of the two expect*PhaseIn helpers.
func (d *Device) armInOut(data []byte, tc TableCase) {
	d.inRing.stage(data)

	d.flushTxFIFO(0)
	d.regs.setInEPDMAAddress(0, d.inRing.descriptorArrayAddr(d.addrOf))

	if tc == TableCaseC {
		d.regs.setInEPControl(0, epCtlEnable|epCtlCNAK)
	} else {
		d.regs.setInEPControl(0, epCtlEnable)
	}

	d.outRing.armNext()

	if tc == TableCaseC {
		d.regs.setOutEPControl(0, epCtlEnable|epCtlCNAK)
	} else {
		d.regs.setOutEPControl(0, epCtlEnable)
	}

	d.regs.setAllEndpointInterruptMask(d.regs.allEndpointInterruptMask() | allEPIn0 | allEPOut0)
}

// expectSetupPacket arms the OUT ring for a fresh SETUP packet and returns
// the driver to its resting state. IN interrupts are masked (the device has
// nothing to send) and OUT interrupts enabled; clearing the NAK tells the
// host the device is ready to receive.
func (d *Device) expectSetupPacket() {
	d.state = waitingForSetupPacket

	d.outRing.armNext()
	d.regs.setOutEPDMAAddress(0, d.outRing.nextDescriptorAddr(d.addrOf))

	mask := d.regs.allEndpointInterruptMask()
	mask |= allEPOut0
	mask &^= allEPIn0
	d.regs.setAllEndpointInterruptMask(mask)

	d.regs.setOutEPControl(0, epCtlEnable|epCtlCNAK)
}

// stallBothFIFOs answers a request the driver cannot or will not service by
// STALLing both endpoint-0 FIFOs. Stalling forces the host to send a new
// SETUP packet, which the hardware answers by clearing the stall; until
// then the armed OUT descriptor stays software-owned.
func (d *Device) stallBothFIFOs() {
	d.state = waitingForSetupPacket

	d.outRing.armNextStalled()

	mask := d.regs.allEndpointInterruptMask()
	mask |= allEPOut0
	mask &^= allEPIn0
	d.regs.setAllEndpointInterruptMask(mask)

	d.regs.setOutEPControl(0, epCtlEnable|epCtlStall)
	d.flushTxFIFO(0)
	d.regs.setInEPControl(0, epCtlEnable|epCtlStall)
}
