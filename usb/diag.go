// Copyright (c) The Hotel Authors. All Rights Reserved.
//
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package usb

import (
	"log"

	"golang.org/x/time/rate"
)

// diagnostics rate-limits the noisy log paths: a confused or misbehaving
// host can retry a STALLed request far faster than any log reader can keep
// up with, and a flapping soft-reset timeout would otherwise fill the log
// once per interrupt. Each named condition gets its own rate.Sometimes so
// one noisy condition doesn't starve the budget for another.
type diagnostics struct {
	stall     rate.Sometimes
	fatal     rate.Sometimes
	softReset rate.Sometimes
}

func newDiagnostics() *diagnostics {
	return &diagnostics{
		stall:     rate.Sometimes{First: 1, Every: 50},
		fatal:     rate.Sometimes{First: 1, Every: 10},
		softReset: rate.Sometimes{First: 1},
	}
}

// logStall records a STALL issued because the host sent a request this
// driver doesn't understand.
func (d *diagnostics) logStall(format string, args ...interface{}) {
	d.stall.Do(func() { log.Printf("usb: stall: "+format, args...) })
}

// logFatal records a protocol violation immediately before the caller
// panics, so the condition is visible even when the panic itself is
// recovered by an outer supervisor.
func (d *diagnostics) logFatal(format string, args ...interface{}) {
	d.fatal.Do(func() { log.Printf("usb: fatal: "+format, args...) })
}

// logSoftResetTimeout records that a soft-reset spin-wait gave up without
// observing the expected register state. Logged once; the driver still
// silently continues its best-effort boot path, exactly as documented.
func (d *diagnostics) logSoftResetTimeout(stage string) {
	d.softReset.Do(func() { log.Printf("usb: soft reset: timed out waiting for %s", stage) })
}
