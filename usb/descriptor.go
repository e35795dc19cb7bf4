// Copyright (c) The Hotel Authors. All Rights Reserved.
//
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package usb

import (
	"bytes"
	"encoding/binary"
)

// USB descriptor type codes (USB 2.0 spec table 9-5).
const (
	descTypeDevice          = 0x01
	descTypeConfiguration   = 0x02
	descTypeString          = 0x03
	descTypeInterface       = 0x04
	descTypeEndpoint        = 0x05
	descTypeDeviceQualifier = 0x06
	descTypeHID             = 0x21
	descTypeHIDReport       = 0x22
)

// DeviceDescriptor is the top-level USB device descriptor (18 bytes).
type DeviceDescriptor struct {
	Length            uint8
	DescriptorType    uint8
	BCDUSB            uint16
	DeviceClass       uint8
	DeviceSubClass    uint8
	DeviceProtocol    uint8
	MaxPacketSize0    uint8
	VendorID          uint16
	ProductID         uint16
	BCDDevice         uint16
	Manufacturer      uint8
	Product           uint8
	SerialNumber      uint8
	NumConfigurations uint8
}

// SetDefaults fills in every fixed field of the descriptor — header, packet
// size, release number and the string-table indices — leaving only the
// identity fields (class, vendor and product IDs) for the caller.
func (d *DeviceDescriptor) SetDefaults() {
	d.Length = 18
	d.DescriptorType = descTypeDevice
	d.BCDUSB = 0x0200
	d.MaxPacketSize0 = maxPacketSize0
	d.BCDDevice = 0x0100
	d.Manufacturer = stringVendor
	d.Product = stringBoard
	d.SerialNumber = stringLang
	d.NumConfigurations = 1
}

// Bytes serializes the descriptor in USB wire format (little-endian).
func (d *DeviceDescriptor) Bytes() []byte {
	buf := new(bytes.Buffer)
	binary.Write(buf, binary.LittleEndian, d)
	return buf.Bytes()
}

// DeviceQualifierDescriptor describes the device's capabilities at the
// speed it is not currently operating at. This driver only ever runs at
// Full Speed, so every qualifier request is answered with a STALL (see
// handleGetDescriptor); the type is defined for completeness only and is
// not used by the driver.
type DeviceQualifierDescriptor struct {
	Length            uint8
	DescriptorType    uint8
	BCDUSB            uint16
	DeviceClass       uint8
	DeviceSubClass    uint8
	DeviceProtocol    uint8
	MaxPacketSize0    uint8
	NumConfigurations uint8
	Reserved          uint8
}

func (d *DeviceQualifierDescriptor) SetDefaults() {
	d.Length = 10
	d.DescriptorType = descTypeDeviceQualifier
}

func (d *DeviceQualifierDescriptor) Bytes() []byte {
	buf := new(bytes.Buffer)
	binary.Write(buf, binary.LittleEndian, d)
	return buf.Bytes()
}

// ConfigurationDescriptor is the header of the configuration bundle. Its
// TotalLength field is patched after the full bundle (header + interface +
// HID + endpoints) is assembled, since it covers the whole bundle, not just
// this 9-byte header.
type ConfigurationDescriptor struct {
	Length             uint8
	DescriptorType     uint8
	TotalLength        uint16
	NumInterfaces      uint8
	ConfigurationValue uint8
	Configuration      uint8
	Attributes         uint8
	MaxPower           uint8
}

func (d *ConfigurationDescriptor) SetDefaults() {
	d.Length = 9
	d.DescriptorType = descTypeConfiguration
	d.NumInterfaces = 2
	d.ConfigurationValue = 1
	d.Configuration = stringPlatform
	// Bit 7 is reserved-and-set per USB 2.0 spec table 9-10; bus-powered,
	// no remote wakeup.
	d.Attributes = 0x80
	// 50 units of 2mA = 100mA.
	d.MaxPower = 50
}

func (d *ConfigurationDescriptor) Bytes() []byte {
	buf := new(bytes.Buffer)
	binary.Write(buf, binary.LittleEndian, d)
	return buf.Bytes()
}

// InterfaceDescriptor describes a single interface within a configuration.
type InterfaceDescriptor struct {
	Length            uint8
	DescriptorType    uint8
	InterfaceNumber   uint8
	AlternateSetting  uint8
	NumEndpoints      uint8
	InterfaceClass    uint8
	InterfaceSubClass uint8
	InterfaceProtocol uint8
	Interface         uint8
}

func (d *InterfaceDescriptor) SetDefaults() {
	d.Length = 9
	d.DescriptorType = descTypeInterface
}

func (d *InterfaceDescriptor) Bytes() []byte {
	buf := new(bytes.Buffer)
	binary.Write(buf, binary.LittleEndian, d)
	return buf.Bytes()
}

// EndpointDescriptor describes a single endpoint within an interface.
type EndpointDescriptor struct {
	Length          uint8
	DescriptorType  uint8
	EndpointAddress uint8
	Attributes      uint8
	MaxPacketSize   uint16
	Interval        uint8
}

// bmAttributes transfer-type field (USB 2.0 table 9-13), the only endpoint
// types this driver ever advertises.
const (
	epAttrBulk      = 0x02
	epAttrInterrupt = 0x03
)

func (d *EndpointDescriptor) SetDefaults() {
	d.Length = 7
	d.DescriptorType = descTypeEndpoint
}

func (d *EndpointDescriptor) Bytes() []byte {
	buf := new(bytes.Buffer)
	binary.Write(buf, binary.LittleEndian, d)
	return buf.Bytes()
}

// buildConfigurationBundle concatenates the configuration header, the two
// interfaces (HID/U2F, then vendor) and their embedded HID and endpoint
// descriptors into the single buffer a GET_DESCRIPTOR(CONFIGURATION) request
// returns, then patches the header's TotalLength field to cover the whole
// bundle. The configuration descriptor's own Length only ever describes its
// own 9 bytes, never the bundle.
func buildConfigurationBundle(cfg ConfigurationDescriptor, iface0 InterfaceDescriptor, hid HIDDescriptor, endpoints0 []EndpointDescriptor, iface1 InterfaceDescriptor, endpoints1 []EndpointDescriptor) []byte {
	buf := new(bytes.Buffer)
	buf.Write(cfg.Bytes())
	buf.Write(iface0.Bytes())
	buf.Write(hid.Bytes())
	for i := range endpoints0 {
		buf.Write(endpoints0[i].Bytes())
	}
	buf.Write(iface1.Bytes())
	for i := range endpoints1 {
		buf.Write(endpoints1[i].Bytes())
	}

	out := buf.Bytes()
	binary.LittleEndian.PutUint16(out[2:4], uint16(len(out)))
	return out
}
