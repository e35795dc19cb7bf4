// Copyright (c) The Hotel Authors. All Rights Reserved.
//
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package usb

import (
	"unsafe"

	"github.com/google/hotel-dwcotg/internal/bits"
)

// descStatus is the 2-bit buffer-status field occupying bits 31:30 of a
// descriptor's Flags word.
type descStatus uint32

const (
	statusHostBusy  descStatus = 0b00
	statusDMABusy   descStatus = 0b01
	statusDMADone   descStatus = 0b10
	statusHostReady descStatus = 0b11
)

// Bit positions within Descriptor.Flags, matching the DWC_otg Scatter/Gather
// DMA descriptor layout (Programmer's Guide ch. 5).
const (
	descStatusPos  = 30
	descStatusMask = 0x3

	descLastPos       = 28
	descSetupReadyPos = 27
	descIOCPos        = 26
	descShortPos      = 25

	descLastBit       = 1 << descLastPos
	descSetupReadyBit = 1 << descSetupReadyPos
	descIOCBit        = 1 << descIOCPos
	descShortBit      = 1 << descShortPos
	descLenMask       = 0xffff
)

// Descriptor is a single DWC_otg Scatter/Gather DMA descriptor: a 2-word
// record consisting of a control/status word and a data buffer address.
// This layout is fixed by the controller and must not be reordered or
// padded.
type Descriptor struct {
	Flags uint32
	Addr  uint32
}

func (d *Descriptor) status() descStatus {
	return descStatus(bits.Get(&d.Flags, descStatusPos, descStatusMask))
}

func (d *Descriptor) setStatus(s descStatus) {
	bits.SetN(&d.Flags, descStatusPos, descStatusMask, uint32(s))
}

// last reports whether this descriptor closes the ring (L bit).
func (d *Descriptor) last() bool { return d.Flags&descLastBit != 0 }

// setupReady reports whether this OUT descriptor received a SETUP packet
// (SR bit) rather than ordinary OUT data.
func (d *Descriptor) setupReady() bool { return d.Flags&descSetupReadyBit != 0 }

// short reports whether the transfer into this descriptor's buffer was
// shorter than the buffer's capacity.
func (d *Descriptor) short() bool { return d.Flags&descShortBit != 0 }

// byteCount returns the byte count field of the descriptor. Software arms it
// with the transfer length; on completion the controller has decremented it
// to the number of bytes it did not consume.
func (d *Descriptor) byteCount() uint16 {
	return uint16(bits.Get(&d.Flags, 0, descLenMask))
}

// arm rewrites the descriptor's Flags word for a fresh transfer of n bytes
// with the given flag bits, leaving Addr untouched (buffer bindings are
// fixed at ring initialization and never move). The status field is set
// last: writing HostReady is the hand-off to the controller.
func (d *Descriptor) arm(n uint16, status descStatus, last, short, ioc bool) {
	d.Flags = 0
	bits.SetN(&d.Flags, 0, descLenMask, uint32(n))
	if last {
		bits.Set(&d.Flags, descLastPos)
	}
	if short {
		bits.Set(&d.Flags, descShortPos)
	}
	if ioc {
		bits.Set(&d.Flags, descIOCPos)
	}
	d.setStatus(status)
}

const (
	outBufferSize     = 64
	numOutDescriptors = 2

	inBufferSize     = 256
	numInDescriptors = 4
	inChunkSize      = inBufferSize / numInDescriptors
)

// addrFunc resolves the DMA-visible address of a byte of backing memory.
// Descriptor Ring Manager types are address-scheme agnostic: Device is the
// only thing that knows whether that means a literal pointer value (bare
// metal) or something else (tests, using a scratch buffer standing in for
// bus-addressable memory).
type addrFunc func(p *byte) uint32

// OutRing is the endpoint-0 OUT descriptor ring: two descriptors, each
// pointing at its own 64-byte buffer. nextOutIdx is the descriptor armed to
// receive the controller's next completion; lastOutIdx is the one most
// recently completed. The two swap on every XferCompl so a fresh descriptor
// is always offered while the completed one is still being inspected.
type OutRing struct {
	Descriptors [numOutDescriptors]Descriptor
	Buffers     [numOutDescriptors][outBufferSize]byte

	nextOutIdx int
	lastOutIdx int
}

// init binds each descriptor to its buffer, parks all descriptors in
// HostBusy (software-owned) state and resets the rotation indices. Called
// once before the first arming and again on every bus reset.
func (r *OutRing) init(addrOf addrFunc) {
	for i := range r.Descriptors {
		r.Descriptors[i].Flags = 0
		r.Descriptors[i].Addr = addrOf(&r.Buffers[i][0])
	}
	r.nextOutIdx = 0
	r.lastOutIdx = 0
}

// armNext hands descriptor nextOutIdx to the controller, ready to receive a
// SETUP packet or OUT data of up to a full buffer.
func (r *OutRing) armNext() {
	r.Descriptors[r.nextOutIdx].arm(outBufferSize, statusHostReady, true, false, true)
}

// armNextStalled writes the same byte count and L/IOC flags as armNext but
// leaves the descriptor in HostBusy state: used while endpoint 0 is
// STALLed, when the controller must not receive into it until the host's
// next SETUP clears the stall.
func (r *OutRing) armNextStalled() {
	r.Descriptors[r.nextOutIdx].arm(outBufferSize, statusHostBusy, true, false, true)
}

// swap rotates the ring after an OUT completion: the descriptor that just
// completed becomes lastOutIdx, and the other one becomes nextOutIdx. The
// caller must repoint the controller's OUT-0 DMA address at the new next
// descriptor before inspecting the completed one, so the controller is
// never left without an armed descriptor.
func (r *OutRing) swap() {
	r.lastOutIdx = r.nextOutIdx
	r.nextOutIdx = (r.nextOutIdx + 1) % numOutDescriptors
}

// lastDescriptor returns the descriptor the controller most recently
// completed.
func (r *OutRing) lastDescriptor() *Descriptor {
	return &r.Descriptors[r.lastOutIdx]
}

// nextDescriptorAddr returns the DMA address of the currently armed
// descriptor, the value programmed into the OUT endpoint's DMA address
// register.
func (r *OutRing) nextDescriptorAddr(addrOf addrFunc) uint32 {
	return addrOf((*byte)(unsafe.Pointer(&r.Descriptors[r.nextOutIdx])))
}

// setupBuffer returns the raw 8-byte SETUP packet written into the most
// recently completed descriptor's buffer. A SETUP stage is always exactly
// one fixed-size packet, so no short-transfer trimming applies.
func (r *OutRing) setupBuffer() []byte {
	return r.Buffers[r.lastOutIdx][:8]
}

// InRing is the endpoint-0 IN descriptor ring: four descriptors over a
// single contiguous 256-byte buffer, descriptor i addressing offset 64*i.
// A control-read reply is staged as one blob in the buffer and handed to
// the controller through descriptor 0, whose byte count covers the whole
// reply; the controller splits it into max-packet-size bus transactions
// itself.
type InRing struct {
	Descriptors [numInDescriptors]Descriptor
	Buffer      [inBufferSize]byte
}

// init binds descriptor i to buffer offset 64*i and parks all descriptors
// in HostBusy state.
func (r *InRing) init(addrOf addrFunc) {
	for i := range r.Descriptors {
		r.Descriptors[i].Flags = 0
		r.Descriptors[i].Addr = addrOf(&r.Buffer[i*inChunkSize])
	}
}

// stage copies data into the shared buffer and arms descriptor 0 with the
// reply's full length, L, Short (the reply may be smaller than the max
// packet size) and IOC. A nil or empty data stages a zero-length packet.
func (r *InRing) stage(data []byte) {
	if len(data) > inBufferSize {
		data = data[:inBufferSize]
	}
	copy(r.Buffer[:], data)

	r.Descriptors[0].arm(uint16(len(data)), statusHostReady, true, true, true)
}

// descriptorArrayAddr returns the DMA address of the ring's descriptor
// array, the value programmed into the IN endpoint's DMA address register.
func (r *InRing) descriptorArrayAddr(addrOf addrFunc) uint32 {
	return addrOf((*byte)(unsafe.Pointer(&r.Descriptors[0])))
}
