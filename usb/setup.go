// Copyright (c) The Hotel Authors. All Rights Reserved.
//
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package usb

import "encoding/binary"

// Standard request codes (USB 2.0 spec table 9-4).
const (
	reqGetStatus        = 0x00
	reqClearFeature     = 0x01
	reqSetFeature       = 0x03
	reqSetAddress       = 0x05
	reqGetDescriptor    = 0x06
	reqSetDescriptor    = 0x07
	reqGetConfiguration = 0x08
	reqSetConfiguration = 0x09
	reqGetInterface     = 0x0a
	reqSetInterface     = 0x0b
)

// HID class request codes.
const (
	reqHIDGetReport   = 0x01
	reqHIDGetIdle     = 0x02
	reqHIDGetProtocol = 0x03
	reqHIDSetReport   = 0x09
	reqHIDSetIdle     = 0x0a
	reqHIDSetProtocol = 0x0b
)

// direction is the bmRequestType direction bit (bit 7).
type direction uint8

const (
	hostToDevice direction = 0
	deviceToHost direction = 1
)

// requestType is the bmRequestType type field (bits 6:5).
type requestType uint8

const (
	typeStandard requestType = 0
	typeClass    requestType = 1
	typeVendor   requestType = 2
)

// recipient is the bmRequestType recipient field (bits 4:0).
type recipient uint8

const (
	recipientDevice    recipient = 0
	recipientInterface recipient = 1
	recipientEndpoint  recipient = 2
	recipientOther     recipient = 3
)

// SetupData is the decoded contents of a SETUP packet (USB 2.0 spec table
// 9-2): a 1-byte request-type field, a 1-byte request code and three
// little-endian 16-bit fields.
type SetupData struct {
	RequestType uint8
	Request     uint8
	Value       uint16
	Index       uint16
	Length      uint16
}

// decodeSetupData unpacks the 8-byte wire format of a SETUP packet.
func decodeSetupData(raw []byte) SetupData {
	return SetupData{
		RequestType: raw[0],
		Request:     raw[1],
		Value:       binary.LittleEndian.Uint16(raw[2:4]),
		Index:       binary.LittleEndian.Uint16(raw[4:6]),
		Length:      binary.LittleEndian.Uint16(raw[6:8]),
	}
}

func (s SetupData) direction() direction {
	return direction((s.RequestType >> 7) & 0x1)
}

func (s SetupData) requestType() requestType {
	return requestType((s.RequestType >> 5) & 0x3)
}

func (s SetupData) recipient() recipient {
	return recipient(s.RequestType & 0x1f)
}

// descriptorType and descriptorIndex decode wValue for GET_DESCRIPTOR /
// SET_DESCRIPTOR requests, where the high byte is the descriptor type and
// the low byte is its index.
func (s SetupData) descriptorType() uint8  { return uint8(s.Value >> 8) }
func (s SetupData) descriptorIndex() uint8 { return uint8(s.Value) }
