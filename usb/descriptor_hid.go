// Copyright (c) The Hotel Authors. All Rights Reserved.
//
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package usb

import (
	"bytes"
	"encoding/binary"
)

// HIDDescriptor describes the HID class interface descriptor embedded in
// the configuration bundle, pointing at the Report descriptor that follows
// it logically (but not contiguously — it is fetched by a separate
// GET_DESCRIPTOR(HID_REPORT) request).
type HIDDescriptor struct {
	Length                 uint8
	DescriptorType         uint8
	BCDHID                 uint16
	CountryCode            uint8
	NumDescriptors         uint8
	ReportDescriptorType   uint8
	ReportDescriptorLength uint16
}

func (d *HIDDescriptor) SetDefaults() {
	d.Length = 9
	d.DescriptorType = descTypeHID
	d.BCDHID = 0x0111
	d.NumDescriptors = 1
	d.ReportDescriptorType = descTypeHIDReport
	d.ReportDescriptorLength = uint16(len(u2fReportDescriptor))
}

func (d *HIDDescriptor) Bytes() []byte {
	buf := new(bytes.Buffer)
	binary.Write(buf, binary.LittleEndian, d)
	return buf.Bytes()
}

// u2fReportDescriptor is the raw HID Report descriptor for a FIDO U2F HID
// authenticator: one Vendor-Defined (FIDO Alliance) application collection
// with a 64-byte input report and a 64-byte output report.
var u2fReportDescriptor = []byte{
	0x06, 0xd0, 0xf1, // Usage Page (FIDO Alliance)
	0x09, 0x01, //       Usage (U2F HID Authenticator Device)
	0xa1, 0x01, //       Collection (Application)
	0x09, 0x20, //         Usage (Input Report Data)
	0x15, 0x00, //         Logical Minimum (0)
	0x26, 0xff, 0x00, //   Logical Maximum (255)
	0x75, 0x08, //         Report Size (8)
	0x95, 0x40, //         Report Count (64)
	0x81, 0x02, //         Input (Data, Var, Abs)
	0x09, 0x21, //         Usage (Output Report Data)
	0x15, 0x00, //         Logical Minimum (0)
	0x26, 0xff, 0x00, //   Logical Maximum (255)
	0x75, 0x08, //         Report Size (8)
	0x95, 0x40, //         Report Count (64)
	0x91, 0x02, //         Output (Data, Var, Abs)
	0xc0,               //  End Collection
}

// reportDescriptorBytes returns the U2F Report descriptor's bytes staged the
// way the controller's IN FIFO write path expects for this one descriptor
// type: packed big-endian within each 32-bit word, then re-serialized
// little-endian word by word, which nets out to each 4-byte group being
// byte-reversed relative to every other descriptor this driver serves.
func reportDescriptorBytes() []byte {
	words := packReportDescriptor(u2fReportDescriptor)
	out := make([]byte, len(words)*4)
	for i, w := range words {
		binary.LittleEndian.PutUint32(out[i*4:], w)
	}
	return out[:len(u2fReportDescriptor)]
}

// packReportDescriptor packs the Report descriptor's bytes big-endian within
// each 32-bit word, unlike every other descriptor in this driver, which is
// little-endian. The Report descriptor is staged through the IN FIFO a word
// at a time, and the controller's write path for this one descriptor does
// not byte-swap the way the general descriptor DMA path does; the packing
// must stay exactly as it is.
func packReportDescriptor(data []byte) []uint32 {
	words := (len(data) + 3) / 4
	out := make([]uint32, words)
	for i, b := range data {
		out[i/4] |= uint32(b) << ((3 - i%4) * 8)
	}
	return out
}
