// Copyright (c) The Hotel Authors. All Rights Reserved.
//
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package usb

import "testing"

func TestDecodeTableCase(t *testing.T) {
	cases := []struct {
		name   string
		outInt uint32
		want   TableCase
	}{
		{"A: XferCompl only", epIntXferCompl, TableCaseA},
		{"B: SetUp only", epIntSetUp, TableCaseB},
		{"C: XferCompl + SetUp", epIntXferCompl | epIntSetUp, TableCaseC},
		{"D: StsPhseRcvd only", epIntStsPhseRcvd, TableCaseD},
		{"E: XferCompl + StsPhseRcvd", epIntXferCompl | epIntStsPhseRcvd, TableCaseE},
		// Unrelated bits in the same word must not disturb the
		// classification.
		{"C with Disabled set", epIntXferCompl | epIntSetUp | epIntDisabled, TableCaseC},
		{"D with no relevant bits", epIntDisabled, TableCaseD},
	}

	for _, c := range cases {
		if got := decodeTableCase(c.outInt); got != c.want {
			t.Errorf("%s: decodeTableCase(%#x) = %v, want %v", c.name, c.outInt, got, c.want)
		}
	}
}

// TestDecodeTableCaseSetUpTakesPriority pins the resolution order for bit
// combinations outside the documented table: SetUp is tested before
// StsPhseRcvd, so a word carrying both still classifies as B or C.
func TestDecodeTableCaseSetUpTakesPriority(t *testing.T) {
	if got := decodeTableCase(epIntSetUp | epIntStsPhseRcvd); got != TableCaseB {
		t.Errorf("SetUp+StsPhseRcvd = %v, want B", got)
	}
	if got := decodeTableCase(epIntXferCompl | epIntSetUp | epIntStsPhseRcvd); got != TableCaseC {
		t.Errorf("XferCompl+SetUp+StsPhseRcvd = %v, want C", got)
	}
}

func TestTableCaseString(t *testing.T) {
	want := map[TableCase]string{
		TableCaseA: "A",
		TableCaseB: "B",
		TableCaseC: "C",
		TableCaseD: "D",
		TableCaseE: "E",
	}
	for tc, s := range want {
		if got := tc.String(); got != s {
			t.Errorf("TableCase(%d).String() = %q, want %q", tc, got, s)
		}
	}
}
