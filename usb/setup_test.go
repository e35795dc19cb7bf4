// Copyright (c) The Hotel Authors. All Rights Reserved.
//
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package usb

import "testing"

func TestDecodeSetupDataGetDescriptorDevice(t *testing.T) {
	// bmRequestType=0x80 (device-to-host, standard, device),
	// bRequest=GET_DESCRIPTOR, wValue=0x0100 (Device, index 0), wIndex=0,
	// wLength=18.
	raw := []byte{0x80, reqGetDescriptor, 0x00, 0x01, 0x00, 0x00, 18, 0x00}

	s := decodeSetupData(raw)

	if s.direction() != deviceToHost {
		t.Errorf("direction = %v, want deviceToHost", s.direction())
	}
	if s.requestType() != typeStandard {
		t.Errorf("requestType = %v, want typeStandard", s.requestType())
	}
	if s.recipient() != recipientDevice {
		t.Errorf("recipient = %v, want recipientDevice", s.recipient())
	}
	if s.descriptorType() != descTypeDevice {
		t.Errorf("descriptorType = %#x, want %#x", s.descriptorType(), descTypeDevice)
	}
	if s.descriptorIndex() != 0 {
		t.Errorf("descriptorIndex = %d, want 0", s.descriptorIndex())
	}
	if s.Length != 18 {
		t.Errorf("Length = %d, want 18", s.Length)
	}
}

func TestDecodeSetupDataSetAddress(t *testing.T) {
	// bmRequestType=0x00 (host-to-device, standard, device),
	// bRequest=SET_ADDRESS, wValue=5.
	raw := []byte{0x00, reqSetAddress, 5, 0x00, 0x00, 0x00, 0x00, 0x00}

	s := decodeSetupData(raw)

	if s.direction() != hostToDevice {
		t.Errorf("direction = %v, want hostToDevice", s.direction())
	}
	if s.Request != reqSetAddress {
		t.Errorf("Request = %#x, want %#x", s.Request, reqSetAddress)
	}
	if s.Value != 5 {
		t.Errorf("Value = %d, want 5", s.Value)
	}
}

func TestDecodeSetupDataClassInterfaceRequest(t *testing.T) {
	// bmRequestType=0x21 (host-to-device, class, interface),
	// bRequest=HID SET_IDLE.
	raw := []byte{0x21, reqHIDSetIdle, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00}

	s := decodeSetupData(raw)

	if s.requestType() != typeClass {
		t.Errorf("requestType = %v, want typeClass", s.requestType())
	}
	if s.recipient() != recipientInterface {
		t.Errorf("recipient = %v, want recipientInterface", s.recipient())
	}
	if s.direction() != hostToDevice {
		t.Errorf("direction = %v, want hostToDevice", s.direction())
	}
}
