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

// Package dac drives the board's four 13-bit output channels and its
// eleven trim DAC channels over the Audio2 serial interface.  A
// setpoint travels as one DWORD through the output DMA engine into the
// A2 FIFO, from which time slot list 2 shifts it out serially.  Slot 0
// of the list acts as a trap: reprogramming it releases exactly one
// pass of the list per send and the byte it stores to FB_BUFFER2
// reports where the sequencer is.
package dac

import (
	"jinr.ru/greenlab/go-s626/pkg/debi"
	"jinr.ru/greenlab/go-s626/pkg/hw"
	"jinr.ru/greenlab/go-s626/pkg/regs"
)

// MaxData is the largest magnitude a DAC setpoint can take.
const MaxData = 0x1FFF

// TrimChannels is the number of logical trim DAC channels.
const TrimChannels = 11

// trimChan maps a logical trim channel to its physical device channel.
var trimChan = [TrimChannels]uint8{10, 9, 8, 3, 2, 7, 6, 1, 0, 5, 4}

// DAC owns the polarity control image, the trim setpoint shadow and the
// single output DMA word.  Callers serialize access; the device's
// mutual-exclusion domain covers all sends.
type DAC struct {
	bus  hw.Bus
	debi *debi.DEBI
	poll hw.Poll

	// wbuf is the one-DWORD output DMA window inside the audio DMA
	// buffer.  The protection address ends the transfer after this
	// word.
	wbuf *uint32

	pol   uint16
	trims [TrimChannels]uint8
}

// New wires a DAC over the given bus.  buf is the audio DMA buffer; the
// output word lives at a fixed offset behind the ADC data area.
func New(bus hw.Bus, d *debi.DEBI, poll hw.Poll, buf *hw.DMARegion) *DAC {
	return &DAC{
		bus:  bus,
		debi: d,
		poll: poll,
		wbuf: &buf.Words[regs.DACWDMABufOS],
	}
}

// Pol returns the current polarity control image, one sign bit per
// channel.
func (d *DAC) Pol() uint16 {
	return d.pol
}

// TrimSetpoint returns the last value written to a logical trim
// channel.
func (d *DAC) TrimSetpoint(logical int) uint8 {
	return d.trims[logical]
}

// Set writes a signed setpoint to output channel chan.  The sign goes
// into the polarity control image; the magnitude is clamped to MaxData.
func (d *DAC) Set(chann int, data int16) error {
	signmask := uint16(1) << uint(chann)
	if data < 0 {
		data = -data
		d.pol |= signmask
	} else {
		d.pol &^= signmask
	}
	if data > MaxData {
		data = MaxData
	}

	// Slots 2 and 3 shift the setpoint out to the addressed dual-DAC
	// device; slots 4 and 5 write a NOP to a nonexistent trim DAC
	// channel so the serial clock keeps running long enough for the
	// target device to latch.
	ws := regs.TSLWS2
	if chann&2 != 0 {
		ws = regs.TSLWS1
	}
	d.bus.Write32(regs.VectPort(2), regs.TSLXSD2|regs.TSLXFIFO1|ws)
	d.bus.Write32(regs.VectPort(3), regs.TSLXSD2|regs.TSLXFIFO0|ws)
	d.bus.Write32(regs.VectPort(4), regs.TSLXSD2|regs.TSLXFIFO3|regs.TSLWS3)
	d.bus.Write32(regs.VectPort(5),
		regs.TSLXSD2|regs.TSLXFIFO2|regs.TSLWS3|regs.TSLEOS)

	// Serial packet, transmitted high byte first:
	// (A10D DDDD)(DDDD DDDD) selects DAC channel A within the device
	// and carries the 13-bit magnitude; (0F 00) is the trailing trim
	// DAC NOP.
	val := uint32(0x0F000000) |
		uint32(0x00004000) |
		uint32(chann&1)<<15 |
		uint32(data)
	return d.send(val)
}

// WriteTrim writes an 8-bit setpoint to a logical trim DAC channel.
func (d *DAC) WriteTrim(logical int, data uint8) error {
	d.trims[logical] = data
	chann := trimChan[logical]

	// Slots 2 and 3 address the trim DAC device; slots 4 and 5 send a
	// NOP to main DAC device 0 to keep the clock running.
	d.bus.Write32(regs.VectPort(2), regs.TSLXSD2|regs.TSLXFIFO1|regs.TSLWS3)
	d.bus.Write32(regs.VectPort(3), regs.TSLXSD2|regs.TSLXFIFO0|regs.TSLWS3)
	d.bus.Write32(regs.VectPort(4), regs.TSLXSD2|regs.TSLXFIFO3|regs.TSLWS1)
	d.bus.Write32(regs.VectPort(5),
		regs.TSLXSD2|regs.TSLXFIFO2|regs.TSLWS1|regs.TSLEOS)

	// Packet: (0aaa aaaa)(dddd dddd) plus the trailing NOP bytes.
	return d.send(uint32(chann)<<8 | uint32(data))
}

// LoadTrims programs every trim DAC channel from the given table of
// setpoints, logical channel order.
func (d *DAC) LoadTrims(setpoints []uint8) error {
	for i := 0; i < TrimChannels && i < len(setpoints); i++ {
		if err := d.WriteTrim(i, setpoints[i]); err != nil {
			return err
		}
	}
	return nil
}

// send shifts one serialized packet out of the A2 FIFO.  The sequencer
// must be trapped at slot 0 on entry and is left trapped there, parked
// with FB_BUFFER2's MSB at 0xFF, on success.
func (d *DAC) send(val uint32) error {
	// Refresh the polarity control register while slot 0 still gates
	// the serial clock off.
	if err := d.debi.Write(regs.LPDACPol, d.pol); err != nil {
		return err
	}

	// Stage the packet and let the DMA engine copy it to the FIFO; the
	// protection address stops the transfer after one DWORD.
	*d.wbuf = val
	hw.MCEnable(d.bus, regs.MC1A2Out, regs.PMC1)

	// Reset the FIFO underflow flags; AF2_OUT going high later tells
	// us slot 1 has drained the FIFO.
	d.bus.Write32(regs.PISR, regs.ISRAFOU)

	if err := d.poll.Until(func() bool {
		return !hw.MCTest(d.bus, regs.MC1A2Out, regs.PMC1)
	}); err != nil {
		return ErrProtocolTimeout{Phase: "dma"}
	}

	// Release the trap: the list streams through slots 1..5 while
	// slot 0 shifts in SD3 and stores it to FB_BUFFER2 for
	// end-of-list detection.
	d.bus.Write32(regs.VectPort(0), regs.TSLXSD2|regs.TSLRSD3|regs.TSLSIBA2)

	if err := d.poll.Until(func() bool {
		return d.bus.Read32(regs.PSSR)&regs.SSRAF2Out != 0
	}); err != nil {
		return ErrProtocolTimeout{Phase: "fifo"}
	}

	// Re-arm the trap for the wrap back to slot 0, shifting out and
	// storing the 0x00 that always ends the FIFO's DWORD register.
	d.bus.Write32(regs.VectPort(0),
		regs.TSLXSD2|regs.TSLXFIFO2|regs.TSLRSD2|regs.TSLSIBA2|regs.TSLEOS)

	// If the MSB still reads 0xFF the sequencer is somewhere in slots
	// 2..5 and will hit the trap; wait for the stored 0x00.  If it
	// already reads 0x00 we set the trap too late and the sequencer
	// has wrapped already, which is just as final.
	if d.bus.Read32(regs.PFBBuffer2)&0xFF000000 != 0 {
		if err := d.poll.Until(func() bool {
			return d.bus.Read32(regs.PFBBuffer2)&0xFF000000 == 0
		}); err != nil {
			return ErrProtocolTimeout{Phase: "trap"}
		}
	}

	// Park: reprogram slot 0 to shift in SD3, which a pull-up holds
	// high, so the next send can again detect the 0xFF to 0x00 edge.
	d.bus.Write32(regs.VectPort(0),
		regs.TSLRSD3|regs.TSLSIBA2|regs.TSLEOS)

	if err := d.poll.Until(func() bool {
		return d.bus.Read32(regs.PFBBuffer2)&0xFF000000 != 0
	}); err != nil {
		return ErrProtocolTimeout{Phase: "park"}
	}
	return nil
}
