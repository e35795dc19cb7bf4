// Copyright (c) The Hotel Authors. All Rights Reserved.
//
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package usb

// Clock is the platform-provided clock gate this driver requires to be
// enabled before touching the controller's registers. Its implementation
// (PLL bring-up, gate enable, PHY power sequencing) is a platform concern
// and lives outside this package, the same way tamago's SoC clock trees are
// a collaborator of imx6/usb rather than something usb.Device reimplements.
type Clock interface {
	Enable()
}

// waiter abstracts the busy-wait primitive Init uses to hold the
// power-on-programming-done pulse, without pulling in a platform timer
// dependency.
type waiter interface {
	Wait(iterations int)
}

// spinWaiter is the default waiter: a pure iteration-counted spin with no
// platform dependency, suitable whenever no better timer is available.
type spinWaiter struct{}

func (spinWaiter) Wait(iterations int) {
	for i := 0; i < iterations; i++ {
	}
}
