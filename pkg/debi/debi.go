/*
 Licensed under the Apache License, Version 2.0 (the "License");
 you may not use this file except in compliance with the License.
 You may obtain a copy of the License at

     https://www.apache.org/licenses/LICENSE-2.0

 Unless required by applicable law or agreed to in writing, software
 distributed under the License is distributed on an "AS IS" BASIS,
 WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 See the License for the specific language governing permissions and
 limitations under the License.
*/

// Package debi implements the indirect bus protocol that reaches the
// gate array's local register space.  A transaction stages a command,
// address and (for writes) data into shadow registers, commands an
// upload of the shadow registers into the working set, and then waits
// out two independent bounded polls: upload confirmation and
// transfer-in-progress clearing.
package debi

import (
	"jinr.ru/greenlab/go-s626/pkg/hw"
	"jinr.ru/greenlab/go-s626/pkg/log"
	"jinr.ru/greenlab/go-s626/pkg/regs"
)

type DEBI struct {
	bus  hw.Bus
	poll hw.Poll
}

func New(bus hw.Bus, poll hw.Poll) *DEBI {
	return &DEBI{bus: bus, poll: poll}
}

// transfer executes the staged transaction.  A timeout is advisory for
// the upload phase and the drain phase alike: the error is logged and
// returned, but the transaction is not retried and the device stays
// usable.  Callers must tolerate a degraded read in that case.
func (d *DEBI) transfer() error {
	hw.MCEnable(d.bus, regs.MC2UpldDEBI, regs.PMC2)

	err := d.poll.Until(func() bool {
		return hw.MCTest(d.bus, regs.MC2UpldDEBI, regs.PMC2)
	})
	if err != nil {
		log.Warning("Timeout while uploading to DEBI control register")
		return ErrBusTimeout{Phase: "upload"}
	}

	err = d.poll.Until(func() bool {
		return d.bus.Read32(regs.PPSR)&regs.PSRDEBIS == 0
	})
	if err != nil {
		log.Warning("DEBI transfer timeout")
		return ErrBusTimeout{Phase: "transfer"}
	}
	return nil
}

// Read returns the value of a gate array register.  On timeout the
// returned value is whatever the data register holds and must be
// treated as suspect.
func (d *DEBI) Read(addr uint16) (uint16, error) {
	d.bus.Write32(regs.PDEBICmd, regs.DEBICmdRdWord|uint32(addr))
	err := d.transfer()
	return uint16(d.bus.Read32(regs.PDEBIAD)), err
}

// Write stores a value into a gate array register.
func (d *DEBI) Write(addr uint16, value uint16) error {
	d.bus.Write32(regs.PDEBICmd, regs.DEBICmdWrWord|uint32(addr))
	d.bus.Write32(regs.PDEBIAD, uint32(value))
	return d.transfer()
}

// Replace rewrites the bits of a gate array register that are not
// covered by preserve, or'ing in bits.  This is two full transactions,
// not an atomic read-modify-write; concurrent bus users must serialize
// above this layer.
func (d *DEBI) Replace(addr uint16, preserve uint16, bits uint16) error {
	v, err := d.Read(addr)
	if err != nil {
		return err
	}
	return d.Write(addr, v&preserve|bits)
}
