// Copyright (c) The Hotel Authors. All Rights Reserved.
//
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package usb

import (
	"testing"
	"unsafe"
)

func identityAddr(p *byte) uint32 {
	return uint32(uintptr(unsafe.Pointer(p)))
}

func TestOutRingInitParksDescriptorsHostBusy(t *testing.T) {
	var r OutRing
	r.init(identityAddr)

	for i := range r.Descriptors {
		d := &r.Descriptors[i]
		if d.status() != statusHostBusy {
			t.Errorf("descriptor %d: status = %v, want HostBusy", i, d.status())
		}
		if d.Addr != identityAddr(&r.Buffers[i][0]) {
			t.Errorf("descriptor %d: Addr not bound to its own buffer", i)
		}
	}
	if r.nextOutIdx != 0 || r.lastOutIdx != 0 {
		t.Errorf("indices = (%d, %d), want (0, 0)", r.nextOutIdx, r.lastOutIdx)
	}
}

func TestOutRingArmNext(t *testing.T) {
	var r OutRing
	r.init(identityAddr)
	r.armNext()

	d := &r.Descriptors[0]
	if d.status() != statusHostReady {
		t.Errorf("status = %v, want HostReady", d.status())
	}
	if d.byteCount() != outBufferSize {
		t.Errorf("byteCount = %d, want %d", d.byteCount(), outBufferSize)
	}
	if !d.last() {
		t.Error("armed descriptor does not carry the L bit")
	}
	if d.Flags&descIOCBit == 0 {
		t.Error("armed descriptor does not carry the IOC bit")
	}
}

func TestOutRingArmNextStalledStaysSoftwareOwned(t *testing.T) {
	var r OutRing
	r.init(identityAddr)
	r.armNextStalled()

	d := &r.Descriptors[0]
	if d.status() != statusHostBusy {
		t.Errorf("status = %v, want HostBusy", d.status())
	}
	if d.byteCount() != outBufferSize || !d.last() {
		t.Error("stalled descriptor missing byte count or L bit")
	}
}

func TestOutRingSwapRotatesIndices(t *testing.T) {
	var r OutRing
	r.init(identityAddr)

	r.swap()
	if r.lastOutIdx != 0 || r.nextOutIdx != 1 {
		t.Fatalf("after first swap: (next, last) = (%d, %d), want (1, 0)", r.nextOutIdx, r.lastOutIdx)
	}

	r.swap()
	if r.lastOutIdx != 1 || r.nextOutIdx != 0 {
		t.Fatalf("after second swap: (next, last) = (%d, %d), want (0, 1)", r.nextOutIdx, r.lastOutIdx)
	}

	// Once rotating, the two indices never coincide.
	for i := 0; i < 8; i++ {
		r.swap()
		if r.nextOutIdx == r.lastOutIdx {
			t.Fatalf("swap %d: indices coincide at %d", i, r.nextOutIdx)
		}
	}
}

func TestOutRingSetupBufferTracksLastCompleted(t *testing.T) {
	var r OutRing
	r.init(identityAddr)

	copy(r.Buffers[0][:8], []byte{0x80, 0x06, 0x00, 0x01, 0x00, 0x00, 0x40, 0x00})
	r.swap() // descriptor 0 completed

	got := r.setupBuffer()
	if got[0] != 0x80 || got[1] != 0x06 {
		t.Errorf("setupBuffer = % x, want the packet written into buffer 0", got)
	}
	if len(got) != 8 {
		t.Errorf("setupBuffer length = %d, want 8", len(got))
	}
}

func TestInRingInitBindsChunkedOffsets(t *testing.T) {
	var r InRing
	r.init(identityAddr)

	for i := range r.Descriptors {
		want := identityAddr(&r.Buffer[i*inChunkSize])
		if r.Descriptors[i].Addr != want {
			t.Errorf("descriptor %d: Addr = %#x, want buffer offset %d", i, r.Descriptors[i].Addr, i*inChunkSize)
		}
		if r.Descriptors[i].status() != statusHostBusy {
			t.Errorf("descriptor %d: status = %v, want HostBusy", i, r.Descriptors[i].status())
		}
	}
}

func TestInRingStage(t *testing.T) {
	var r InRing
	r.init(identityAddr)

	data := []byte{1, 2, 3, 4}
	r.stage(data)

	d := &r.Descriptors[0]
	if d.status() != statusHostReady {
		t.Errorf("status = %v, want HostReady", d.status())
	}
	if d.byteCount() != 4 {
		t.Errorf("byteCount = %d, want 4", d.byteCount())
	}
	if !d.last() || !d.short() || d.Flags&descIOCBit == 0 {
		t.Error("staged descriptor missing L, Short or IOC")
	}
	for i, b := range data {
		if r.Buffer[i] != b {
			t.Fatalf("Buffer[%d] = %d, want %d", i, r.Buffer[i], b)
		}
	}
}

func TestInRingStageZeroLengthPacket(t *testing.T) {
	var r InRing
	r.init(identityAddr)
	r.stage(nil)

	d := &r.Descriptors[0]
	if d.byteCount() != 0 {
		t.Errorf("byteCount = %d, want 0", d.byteCount())
	}
	if d.status() != statusHostReady || !d.last() || !d.short() {
		t.Error("zero-length packet must be HostReady, last and short")
	}
}

func TestInRingStageTrimsToBufferCapacity(t *testing.T) {
	var r InRing
	r.init(identityAddr)

	big := make([]byte, inBufferSize+32)
	r.stage(big)

	if n := r.Descriptors[0].byteCount(); int(n) != inBufferSize {
		t.Errorf("byteCount = %d, want %d", n, inBufferSize)
	}
}
