// Copyright (c) The Hotel Authors. All Rights Reserved.
//
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package usb

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"unicode/utf16"
)

// Fixed string-table indices every boot layer is expected to populate, in
// this order, after the reserved language-code slot at index 0.
const (
	stringLang       = 0
	stringVendor     = 1
	stringBoard      = 2
	stringPlatform   = 3
	stringInterface1 = 4
	stringInterface2 = 5
)

// stringTable holds the device's string descriptors, indexed the same way
// the low byte of a GET_DESCRIPTOR(STRING) request's wValue field addresses
// them: index 0 is the special
// language-code list, indices 1.. are UTF-16LE text strings added in
// registration order.
type stringTable struct {
	entries [][]byte
}

// setLanguageCodes installs the language-code list returned for string
// index 0, encoding each code little-endian per USB 2.0 table 9-15.
func (t *stringTable) setLanguageCodes(codes ...uint16) {
	buf := new(bytes.Buffer)
	for _, c := range codes {
		binary.Write(buf, binary.LittleEndian, c)
	}

	if len(t.entries) == 0 {
		t.entries = append(t.entries, nil)
	}
	t.entries[0] = buf.Bytes()
}

// addString registers s, encoded as UTF-16LE, and returns the 1-based index
// later GET_DESCRIPTOR(STRING, index) requests use to retrieve it.
func (t *stringTable) addString(s string) uint8 {
	if len(t.entries) == 0 {
		t.entries = append(t.entries, nil)
	}

	buf := new(bytes.Buffer)
	for _, r := range utf16.Encode([]rune(s)) {
		binary.Write(buf, binary.LittleEndian, r)
	}

	t.entries = append(t.entries, buf.Bytes())
	return uint8(len(t.entries) - 1)
}

// bytes returns the wire-format descriptor (length-prefixed, type-tagged)
// for string index idx.
func (t *stringTable) bytes(idx uint8) ([]byte, error) {
	if int(idx) >= len(t.entries) {
		return nil, fmt.Errorf("usb: no string descriptor at index %d", idx)
	}

	payload := t.entries[idx]
	out := make([]byte, 2+len(payload))
	out[0] = uint8(len(out))
	out[1] = descTypeString
	copy(out[2:], payload)
	return out, nil
}
