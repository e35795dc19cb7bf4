// Copyright (c) The Hotel Authors. All Rights Reserved.
//
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package usb

import "testing"

func TestDeviceDescriptorBytesLength(t *testing.T) {
	var d DeviceDescriptor
	d.SetDefaults()
	d.VendorID = 0x18d1
	d.ProductID = 0x5026

	b := d.Bytes()
	if len(b) != 18 {
		t.Fatalf("DeviceDescriptor.Bytes() length = %d, want 18", len(b))
	}
	if b[0] != 18 || b[1] != descTypeDevice {
		t.Errorf("header = %02x %02x, want 12 01", b[0], b[1])
	}
	if b[7] != maxPacketSize0 {
		t.Errorf("bMaxPacketSize0 = %d, want %d", b[7], maxPacketSize0)
	}
	if uint16(b[8])|uint16(b[9])<<8 != 0x18d1 {
		t.Errorf("VendorID not little-endian encoded at offset 8")
	}
	if uint16(b[12])|uint16(b[13])<<8 != 0x0100 {
		t.Errorf("bcdDevice not 0x0100 at offset 12")
	}
}

func TestConfigurationBundleTotalLengthCoversWholeBundle(t *testing.T) {
	var cfg ConfigurationDescriptor
	cfg.SetDefaults()

	var iface0, iface1 InterfaceDescriptor
	iface0.SetDefaults()
	iface0.NumEndpoints = 2
	iface1.SetDefaults()
	iface1.NumEndpoints = 2

	var hid HIDDescriptor
	hid.SetDefaults()

	var ep1, ep2, ep3, ep4 EndpointDescriptor
	ep1.SetDefaults()
	ep1.EndpointAddress = 0x01
	ep2.SetDefaults()
	ep2.EndpointAddress = 0x81
	ep3.SetDefaults()
	ep3.EndpointAddress = 0x82
	ep4.SetDefaults()
	ep4.EndpointAddress = 0x02

	bundle := buildConfigurationBundle(cfg, iface0, hid, []EndpointDescriptor{ep1, ep2}, iface1, []EndpointDescriptor{ep3, ep4})

	wantLen := 9 + 9 + 9 + 7 + 7 + 9 + 7 + 7 // config + iface0 + hid + 2 endpoints + iface1 + 2 endpoints
	if len(bundle) != wantLen {
		t.Fatalf("bundle length = %d, want %d", len(bundle), wantLen)
	}
	if len(bundle) > 64 {
		t.Fatalf("bundle length = %d, exceeds the 64-byte descriptor cache", len(bundle))
	}

	total := uint16(bundle[2]) | uint16(bundle[3])<<8
	if int(total) != len(bundle) {
		t.Errorf("TotalLength = %d, want %d (the whole bundle, not just the header)", total, len(bundle))
	}

	// The configuration header's own Length field must still describe only
	// itself, not the bundle.
	if bundle[0] != 9 {
		t.Errorf("configuration header Length = %d, want 9", bundle[0])
	}
}

func TestHIDReportDescriptorBytePacking(t *testing.T) {
	packed := reportDescriptorBytes()
	if len(packed) != len(u2fReportDescriptor) {
		t.Fatalf("reportDescriptorBytes length = %d, want %d", len(packed), len(u2fReportDescriptor))
	}

	// Spot check: within each 4-byte word, bytes are reversed relative to
	// the natural little-endian descriptor ordering.
	words := packReportDescriptor(u2fReportDescriptor)
	if len(words) == 0 {
		t.Fatal("packReportDescriptor returned no words")
	}
	first := u2fReportDescriptor[:4]
	wantWord := uint32(first[0])<<24 | uint32(first[1])<<16 | uint32(first[2])<<8 | uint32(first[3])
	if words[0] != wantWord {
		t.Errorf("packReportDescriptor word 0 = %#08x, want %#08x", words[0], wantWord)
	}
}

func TestStringTableRoundTrip(t *testing.T) {
	var st stringTable
	st.setLanguageCodes(0x0409)
	idx := st.addString("hotel")

	if idx != 1 {
		t.Fatalf("first addString index = %d, want 1", idx)
	}

	b, err := st.bytes(idx)
	if err != nil {
		t.Fatalf("bytes(%d): %v", idx, err)
	}

	// bLength, bDescriptorType, then 2 bytes per rune (UTF-16LE).
	wantLen := 2 + len("hotel")*2
	if len(b) != wantLen {
		t.Fatalf("string descriptor length = %d, want %d", len(b), wantLen)
	}
	if b[1] != descTypeString {
		t.Errorf("bDescriptorType = %#x, want %#x", b[1], descTypeString)
	}
	if b[2] != 'h' || b[3] != 0 {
		t.Errorf("first code unit not little-endian 'h': got %02x %02x", b[2], b[3])
	}
}

func TestStringTableMissingIndex(t *testing.T) {
	var st stringTable
	st.setLanguageCodes(0x0409)
	if _, err := st.bytes(5); err == nil {
		t.Error("expected an error for an unregistered string index")
	}
}
