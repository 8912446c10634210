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

// Package regs holds the register map of the board: byte offsets into the
// primary memory-mapped window and the bit layouts of its control words,
// plus the gate-array local register space reached over DEBI (lp.go).
package regs

// Primary register window byte offsets.
const (
	PPCIBTA    = 0x004C // Audio DMA burst/threshold control
	PDEBICfg   = 0x007C
	PDEBICmd   = 0x0080
	PDEBIPage  = 0x0084
	PDEBIAD    = 0x0088
	PI2CCtrl   = 0x008C
	PI2CStat   = 0x0090
	PBaseA2In  = 0x0094
	PProtA2In  = 0x0098
	PPageA2In  = 0x009C
	PBaseA2Out = 0x00A0
	PProtA2Out = 0x00A4
	PPageA2Out = 0x00A8
	PRPSPage0  = 0x00B0
	PRPSPage1  = 0x00B4
	PRPS0Tout  = 0x00B8
	PRPS1Tout  = 0x00BC
	PIER       = 0x00DC
	PGPIO      = 0x00E0
	PACON1     = 0x00F4
	PACON2     = 0x00F8
	PMC1       = 0x00FC
	PMC2       = 0x0100
	PRPSAddr0  = 0x0104
	PRPSAddr1  = 0x0108
	PISR       = 0x010C
	PPSR       = 0x0110
	PSSR       = 0x0114
	PFBBuffer1 = 0x0144
	PFBBuffer2 = 0x0148
	PTSL1      = 0x0180
	PTSL2      = 0x01C0
)

// Main control register 1 command bits.
const (
	MC1SoftReset uint32 = 0x80000000
	MC1Shutdown  uint32 = 0x3FFF0000
	MC1ERPS1     uint32 = 0x00002000 // enable RPS1 sequencer
	MC1ERPS0     uint32 = 0x00001000
	MC1DEBI      uint32 = 0x00000800
	MC1Audio     uint32 = 0x00000200
	MC1I2C       uint32 = 0x00000100
	MC1A2Out     uint32 = 0x00000008 // Audio2 output DMA enable
	MC1A2In      uint32 = 0x00000004
	MC1A1In      uint32 = 0x00000002
	MC1A1Out     uint32 = 0x00000001
)

// Main control register 2 command bits.
const (
	MC2UpldDEBI uint32 = 0x00000002 // upload DEBI shadow registers
	MC2UpldIIC  uint32 = 0x00000001
	MC2RPSSig0  uint32 = 0x00001000
	MC2RPSSig1  uint32 = 0x00002000
	MC2RPSSig2  uint32 = 0x00004000

	MC2ADCRPS = MC2RPSSig0 // RPS signal that starts the ADC scan loop
	MC2DACRPS = MC2RPSSig1
)

// Interrupt status/enable bits (PISR, PIER).
const (
	IRQRPS1  uint32 = 0x10000000 // RPS1 raised an interrupt (end of scan)
	IRQGPIO3 uint32 = 0x00000200 // DIO edge / counter event
	ISRAFOU  uint32 = 0x00000800 // audio FIFO underflow/overflow flags
)

// Status register bits (PPSR, PSSR).
const (
	PSRDEBIS uint32 = 0x00080000 // DEBI transfer in progress
	PSRGPIO2 uint32 = 0x00000004 // GPIO2 high = ADC not busy
	SSRAF2Out uint32 = 0x00000200 // Audio2 output FIFO underflow
)

// GPIO register. GPIO1 drives the ADC start-convert line, active low.
const (
	GPIOBase uint32 = 0x10004000
	GPIO1Hi  uint32 = 0x00001000
	GPIO1Lo  uint32 = 0x00000000
)

// DEBI configuration and command words.
const (
	DEBICfgSlave16  uint32 = 0x00080000
	DEBICfgSwap     uint32 = 0x00100000
	DEBICfgIntel    uint32 = 0x00020000
	DEBICfgToutBit         = 22
	DEBITout        uint32 = 7
	DEBIPageDisable uint32 = 0x00000000

	DEBICmdSize16 uint32 = 2 << 17
	DEBICmdRead   uint32 = 0x00010000
	DEBICmdWrite  uint32 = 0x00000000
	DEBICmdRdWord        = DEBICmdRead | DEBICmdSize16
	DEBICmdWrWord        = DEBICmdWrite | DEBICmdSize16
)

// I2C control bits, used only while resetting the bus at start-up.
const (
	I2CClkSel uint32 = 0x0400
	I2CAbort  uint32 = 0x0080
)

// Audio interface control words.
const (
	ACON1Base     uint32 = 0x00000000
	ACON1ADCStart uint32 = 0x00000001 // run TSL1 continuously
	ACON1DACStart uint32 = 0x00000003 // run TSL2 as well
	ACON2Init     uint32 = 0x00000047 // serial clock rates, DAC clock invert
)

// RPS instruction opcodes and condition signals.  An RPS program is a
// stream of 32-bit words in DMA memory executed by the on-board
// sequencer.
const (
	RPSClrSignal uint32 = 0x00000000
	RPSSetSignal uint32 = 0x10000000
	RPSNop       uint32 = 0x00000000
	RPSPause     uint32 = 0x20000000
	RPSUpload    uint32 = 0x40000000
	RPSJump      uint32 = 0x80000000
	RPSLdReg     uint32 = 0x90000100
	RPSStReg     uint32 = 0xA0000100
	RPSStop      uint32 = 0x50000000
	RPSIRQ       uint32 = 0x60000000

	RPSDEBI  uint32 = 0x00000002 // DEBI transfer done
	RPSSig0  uint32 = 0x00200000
	RPSSig1  uint32 = 0x00400000
	RPSSig2  uint32 = 0x00800000
	RPSGPIO2 uint32 = 0x00080000
	RPSGPIO3 uint32 = 0x00100000

	RPSSigADC = RPSSig0
	RPSSigDAC = RPSSig1
)

// RPS sequencer clock rate; jump/nop timing in the program builder is
// derived from it.  The scalar shortens the emitted delay loops to what
// the hardware actually needs; the nominal sequencer clock is 33 MHz.
const (
	RPSClkScalar = 8
	RPSClkPerUS  = 33 / RPSClkScalar
)

// Time slot list control record bits (TSL1, TSL2).
const (
	TSLEOS    uint32 = 0x80000000 // end of slot list
	TSLWS1    uint32 = 0x40000000 // chip select: DAC device 1 (chans 2,3)
	TSLWS2    uint32 = 0x20000000 // chip select: DAC device 0 (chans 0,1)
	TSLWS3    uint32 = 0x10000000 // chip select: trim DAC device
	TSLRSD3   uint32 = 0x00000800 // shift in SD3 (pulled up, reads 0xFF)
	TSLRSD2   uint32 = 0x00000400 // shift in SD2
	TSLXSD2   uint32 = 0x00000200 // shift out on SD2
	TSLSIBA2  uint32 = 0x00000100 // store shifted-in byte to FB_BUFFER2
	TSLLFA2   uint32 = 0x00000080 // load FIFO DWORD into output buffer
	TSLXFIFO0 uint32 = 0x00000010 // transmit FIFO byte 0
	TSLXFIFO1 uint32 = 0x00000020
	TSLXFIFO2 uint32 = 0x00000030
	TSLXFIFO3 uint32 = 0x00000040
	TSLRSD1   uint32 = 0x00000001 // shift in SD1 (ADC data)
	TSLSIBA1  uint32 = 0x00000002 // store shifted-in byte to FB_BUFFER1
)

// VectPort returns the primary window offset of TSL2 slot n.
func VectPort(n int) uint32 {
	return PTSL2 + uint32(n)<<2
}

// BugfixStReg adjusts a register address operand for the RPS STREG
// instruction; the sequencer applies a fixed +4 offset to the source
// address of a store.
func BugfixStReg(addr uint32) uint32 {
	return addr - 4
}

// Board geometry.
const (
	ADCChannels     = 16
	DACChannels     = 4
	EncoderChannels = 6
	DIOBanks        = 3

	// DMA buffer geometry.  The sample buffer leads with the ADC data
	// area; the DAC output DMA word sits behind it at a fixed offset.
	DMABufSize      = 4096
	ADCDMABufDwords = 40
	DACWDMABufOS    = ADCDMABufDwords

	// Program buffer size, covering the worst-case scan program: 16
	// slots with per-conversion trigger waits plus the fixed prologue
	// and epilogue.
	RPSBufSize = 8192
)
