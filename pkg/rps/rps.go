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

// Package rps compiles an analog scan into a program for the on-board
// sequencer: a flat stream of 32-bit instructions in DMA memory that
// autonomously switches gain and channel, starts conversions, waits for
// the converter, and stores each sample word, looping until halted.
package rps

import (
	"jinr.ru/greenlab/go-s626/pkg/hw"
	"jinr.ru/greenlab/go-s626/pkg/regs"
)

// MaxSlots caps a scan at 16 channels; the build loop truncates longer
// poll lists even when the end-of-list flag is missing.
const MaxSlots = 16

// Options selects the trigger structure compiled into the program.
type Options struct {
	// ScanTriggered inserts a wait for the scan RPS signal before each
	// pass over the poll list.
	ScanTriggered bool
	// ConvertTriggered inserts a wait for the same signal before each
	// individual conversion.
	ConvertTriggered bool
	// IRQ raises the host interrupt after the scan's samples have been
	// stored.
	IRQ bool
}

// Item encodes one poll list entry: (EOPL, x, x, RANGE, CHAN<3:0>).
func Item(chann int, range5V bool, last bool) uint8 {
	item := uint8(chann) & 0x0F
	if range5V {
		item |= regs.Range5V
	}
	if last {
		item |= regs.EOPL
	}
	return item
}

// Builder appends instructions to the program region.
type Builder struct {
	prog *hw.DMARegion
	n    int
}

func (b *Builder) emit(words ...uint32) {
	copy(b.prog.Words[b.n:], words)
	b.n += len(words)
}

// debiWrite emits an inline gate-array register write: stage the DEBI
// command and data words, then run the upload handshake to completion.
func (b *Builder) debiWrite(addr uint32, value uint32) {
	b.emit(
		regs.RPSLdReg|regs.PDEBICmd>>2,
		regs.DEBICmdWrWord|addr,
		regs.RPSLdReg|regs.PDEBIAD>>2,
		value,
		regs.RPSClrSignal|regs.RPSDEBI,
		regs.RPSUpload|regs.RPSDEBI,
		regs.RPSPause|regs.RPSDEBI,
	)
}

// settle burns at least 10 microseconds for analog input settling.
// Jumps to the next instruction are used instead of no-ops: every jump
// flushes the sequencer's prefetch pipeline, so each pair buys more
// delay than a no-op would.
func (b *Builder) settle() {
	adrs := b.prog.PhysBase + uint32(b.n)<<2
	for i := 0; i < 10*regs.RPSClkPerUS/2; i++ {
		adrs += 8
		b.emit(regs.RPSJump, adrs)
	}
}

// triggerWait emits a wait for the scan RPS signal followed by its
// acknowledgment.
func (b *Builder) triggerWait() {
	b.emit(regs.RPSPause|regs.RPSSigADC, regs.RPSClrSignal|regs.RPSSigADC)
}

// convert pulses the start-convert line, waits for the converter to go
// idle and stores the resulting word at sample slot idx.  The no-op
// between the two GPIO writes stretches the start pulse.
func (b *Builder) convert(data *hw.DMARegion, idx int) {
	b.emit(
		regs.RPSLdReg|regs.PGPIO>>2,
		regs.GPIOBase|regs.GPIO1Lo,
		regs.RPSNop,
		regs.RPSLdReg|regs.PGPIO>>2,
		regs.GPIOBase|regs.GPIO1Hi,
		regs.RPSPause|regs.RPSGPIO2,
		regs.RPSStReg|regs.BugfixStReg(regs.PFBBuffer1)>>2,
		data.PhysBase+uint32(idx)<<2,
	)
}

// Build compiles the scan program for the given poll list into prog,
// storing sample words into data.  It returns the number of poll list
// items compiled, after end-of-list and MaxSlots truncation; the stored
// scan is one word longer than that because of the trailing dummy
// conversion.  The program must be rebuilt from scratch for every new
// command and the sequencer must be halted while building.
func Build(prog, data *hw.DMARegion, poll []uint8, opts Options) int {
	b := &Builder{prog: prog}

	if opts.ScanTriggered {
		b.triggerWait()
	}

	// Throw-away gate-array write: the first program-issued DEBI write
	// after a host-issued one does not take on this chip, so prime the
	// shadow RAM with an arbitrary gain value.
	b.debiWrite(uint32(regs.LPGSel), uint32(regs.GSelBipolar5V))

	items := 0
	for items < MaxSlots && items < len(poll) {
		item := poll[items]
		gsel := uint32(regs.GSelBipolar10V)
		if item&regs.Range5V != 0 {
			gsel = uint32(regs.GSelBipolar5V)
		}
		local := uint32(item)<<8 | gsel

		// Gain and input channel selectors take the same encoded
		// value; each write runs its own upload handshake inline.
		b.debiWrite(uint32(regs.LPGSel), local)
		b.debiWrite(uint32(regs.LPISel), local)
		b.settle()

		if opts.ConvertTriggered {
			b.triggerWait()
		}
		b.convert(data, items)
		items++
		if item&regs.EOPL != 0 {
			break
		}
	}

	// Let the converter stabilize for 2 microseconds, then run one
	// dummy conversion: the data path is one word deep, so the final
	// channel's sample only shifts into the feedback buffer while the
	// conversion after it runs.
	for n := 0; n < 2*regs.RPSClkPerUS; n++ {
		b.emit(regs.RPSNop)
	}
	b.convert(data, items)

	if opts.IRQ {
		b.emit(regs.RPSIRQ)
	}
	b.emit(regs.RPSJump, prog.PhysBase)
	return items
}

// Halt stops the sequencer.  Safe to call when it is already stopped.
func Halt(bus hw.Bus) {
	hw.MCDisable(bus, regs.MC1ERPS1, regs.PMC1)
}

// Arm points the sequencer's instruction pointer at the program.
func Arm(bus hw.Bus, prog *hw.DMARegion) {
	bus.Write32(regs.PRPSAddr1, prog.PhysBase)
}

// Start lets the sequencer run the armed program.
func Start(bus hw.Bus) {
	hw.MCEnable(bus, regs.MC1ERPS1, regs.PMC1)
}

// Trigger asserts the scan RPS signal that trigger waits in the
// program pause on.
func Trigger(bus hw.Bus) {
	hw.MCEnable(bus, regs.MC2ADCRPS, regs.PMC2)
}
