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

// Package sim is a software model of the board used as the hw.Bus
// backend in tests.  It models only as much of the gate array as the
// driver's handshakes observe: DEBI shadow upload, main control
// register semantics, the TSL2 slot-0 feedback transitions of the DAC
// serial engine, and write-1-to-clear interrupt status.  Fault toggles
// freeze individual handshakes so the bounded-poll paths can be
// exercised.
package sim

import (
	"sync"

	"jinr.ru/greenlab/go-s626/pkg/hw"
	"jinr.ru/greenlab/go-s626/pkg/regs"
)

type Board struct {
	mu sync.Mutex

	reg map[uint32]uint32 // primary window backing store
	lp  map[uint16]uint16 // gate array local registers

	mc1 uint32
	mc2 uint32
	isr uint32

	fb2MSB uint32 // MSB of FB_BUFFER2, the slot-0 trap feedback
	af2Out bool   // Audio2 output FIFO underflow flag

	// One-word ADC output pipeline: a start-convert pulse shifts the
	// previous conversion's result into FB_BUFFER1 while the current
	// input converts.
	adcInput uint32
	adcShift uint32

	alloc *hw.SimAllocator

	// Fault toggles: when set, the corresponding handshake never
	// completes.
	DEBIUploadStuck bool
	DEBIBusyStuck   bool
	DACDMAStuck     bool
	DACFIFOStuck    bool
	DACTrapStuck    bool // FB_BUFFER2 MSB never returns to 0x00
	DACParkStuck    bool // FB_BUFFER2 MSB never returns to 0xFF
	ADCBusyStuck    bool // GPIO2 stays low, conversions never finish

	// DACWords logs every DWORD the output DMA engine copied to the
	// Audio2 FIFO, i.e. every serialized DAC packet.
	DACWords []uint32

	// Slot0Records logs every record written to TSL2 slot 0, in
	// order.
	Slot0Records []uint32

	// Conversions counts start-convert pulses on GPIO1.
	Conversions int
}

var _ hw.Bus = &Board{}

func NewBoard(alloc *hw.SimAllocator) *Board {
	return &Board{
		reg:    make(map[uint32]uint32),
		lp:     make(map[uint16]uint16),
		fb2MSB: 0xFF,
		alloc:  alloc,
	}
}

func (b *Board) Read32(offset uint32) uint32 {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch offset {
	case regs.PMC1:
		return b.mc1
	case regs.PMC2:
		return b.mc2
	case regs.PISR:
		return b.isr
	case regs.PPSR:
		var v uint32
		if b.DEBIBusyStuck {
			v |= regs.PSRDEBIS
		}
		if !b.ADCBusyStuck {
			v |= regs.PSRGPIO2
		}
		return v
	case regs.PSSR:
		if b.af2Out {
			return regs.SSRAF2Out
		}
		return 0
	case regs.PFBBuffer2:
		return b.fb2MSB << 24
	}
	return b.reg[offset]
}

func (b *Board) Write32(offset uint32, value uint32) {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch offset {
	case regs.PMC1:
		b.mc1 = b.applyMC(b.mc1, value)
		if b.mc1&regs.MC1A2Out != 0 {
			if !b.DACDMAStuck {
				b.dacDMATransfer()
				b.mc1 &^= regs.MC1A2Out
			}
		}
	case regs.PMC2:
		b.mc2 = b.applyMC(b.mc2, value)
		if value>>16&regs.MC2UpldDEBI != 0 && value&regs.MC2UpldDEBI != 0 {
			if b.DEBIUploadStuck {
				b.mc2 &^= regs.MC2UpldDEBI
			} else {
				b.debiTransfer()
			}
		}
	case regs.PISR:
		b.isr &^= value
		if value&regs.ISRAFOU != 0 {
			b.af2Out = false
		}
	case regs.PGPIO:
		prev := b.reg[offset]
		b.reg[offset] = value
		if prev&regs.GPIO1Hi == 0 && value&regs.GPIO1Hi != 0 && !b.ADCBusyStuck {
			b.Conversions++
			b.reg[regs.PFBBuffer1] = b.adcShift
			b.adcShift = b.adcInput
		}
	case regs.VectPort(0):
		b.reg[offset] = value
		b.Slot0Records = append(b.Slot0Records, value)
		b.slot0(value)
	default:
		b.reg[offset] = value
	}
}

// applyMC applies a main-control write: the upper halfword is the mask
// of bits being addressed, the lower halfword their new values.
func (b *Board) applyMC(cur, value uint32) uint32 {
	mask := value >> 16
	return cur&^mask | value&mask
}

// debiTransfer executes the staged DEBI transaction against the local
// register space.  The upload bit stays set afterwards, which is what
// the driver polls for.
func (b *Board) debiTransfer() {
	cmd := b.reg[regs.PDEBICmd]
	addr := uint16(cmd & 0xFFFF)
	if cmd&regs.DEBICmdRead != 0 {
		b.reg[regs.PDEBIAD] = uint32(b.lpRead(addr))
	} else {
		b.lpWrite(addr, uint16(b.reg[regs.PDEBIAD]&0xFFFF))
	}
}

func (b *Board) lpRead(addr uint16) uint16 {
	return b.lp[addr]
}

func (b *Board) lpWrite(addr uint16, value uint16) {
	switch {
	case addr == regs.LPWrMisc2:
		// MISC2 writes take effect only inside a MISC1 write-enable
		// bracket.
		if b.lp[regs.LPMisc1] == regs.Misc1WEnable {
			b.lp[regs.LPRdMisc2] = value
		}
	case b.isWrCapSel(addr):
		bank := int((addr - 0x0046) / 0x10)
		if b.lp[regs.LPMisc1] == regs.Misc1EdCap {
			b.lp[addr] |= value
		} else {
			// Capture disable: clears the addressed capture flags.
			b.lp[regs.LPRdCapFlg(bank)] &^= value
			b.lp[addr] &^= value
		}
	default:
		b.lp[addr] = value
	}
}

func (b *Board) isWrCapSel(addr uint16) bool {
	for bank := 0; bank < regs.DIOBanks; bank++ {
		if addr == regs.LPWrCapSel(bank) {
			return true
		}
	}
	return false
}

// dacDMATransfer copies one DWORD from the Audio2 output DMA buffer to
// the FIFO, as the DMAC does when MC1_A2OUT is pulsed.
func (b *Board) dacDMATransfer() {
	if b.alloc == nil {
		return
	}
	region, idx, ok := b.alloc.Lookup(b.reg[regs.PBaseA2Out])
	if !ok {
		return
	}
	b.DACWords = append(b.DACWords, region.Words[idx])
}

// slot0 models the TSL2 slot-0 trap transitions observed by the DAC
// send protocol.
func (b *Board) slot0(record uint32) {
	switch {
	case record&regs.TSLEOS == 0:
		// Trap released: the slot list streams, slot 1 drains the
		// FIFO.
		if !b.DACFIFOStuck {
			b.af2Out = true
		}
		b.fb2MSB = 0xFF
	case record&regs.TSLXSD2 != 0:
		// Trap re-armed, shifting out/in the 0x00 that terminates the
		// stream.
		if !b.DACTrapStuck {
			b.fb2MSB = 0x00
		}
	case record&regs.TSLRSD3 != 0:
		// Trap flipped to shift in pulled-up SD3: parks at 0xFF.
		if !b.DACParkStuck {
			b.fb2MSB = 0xFF
		}
	}
}

// Test hooks.

// LP returns the current value of a gate array local register.
func (b *Board) LP(addr uint16) uint16 {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.lpRead(addr)
}

// SetLP stores a value into a gate array local register.
func (b *Board) SetLP(addr uint16, value uint16) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.lp[addr] = value
}

// SetADC sets the raw value the converter produces for subsequent
// conversions.
func (b *Board) SetADC(raw uint32) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.adcInput = raw
}

// RaiseIRQ injects interrupt cause bits into the status register.
func (b *Board) RaiseIRQ(bits uint32) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.isr |= bits
}

// SetReg stores a raw value into a primary window register.
func (b *Board) SetReg(offset uint32, value uint32) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.reg[offset] = value
}

// Slot returns the last record written to a TSL2 slot.
func (b *Board) Slot(n int) uint32 {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.reg[regs.VectPort(n)]
}
