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

package regs

// Gate array local register addresses, reached only through the DEBI
// protocol.  Each register is 16 bits wide.

// Counter control and latch registers.  A counter pair (nA, nB) shares
// one CRA/CRB register pair; the A and B families occupy different bit
// fields of it.
const (
	LPCR0A uint16 = 0x0000
	LPCR0B uint16 = 0x0002
	LPCR1A uint16 = 0x0004
	LPCR1B uint16 = 0x0006
	LPCR2A uint16 = 0x0008
	LPCR2B uint16 = 0x000A

	LPCntr0ALSW uint16 = 0x000C
	LPCntr1ALSW uint16 = 0x0010
	LPCntr2ALSW uint16 = 0x0014
	LPCntr0BLSW uint16 = 0x0018
	LPCntr1BLSW uint16 = 0x001C
	LPCntr2BLSW uint16 = 0x0020
)

// ADC gain and channel selectors, DAC polarity, misc control.
const (
	LPDACPol  uint16 = 0x0082
	LPGSel    uint16 = 0x0084
	LPISel    uint16 = 0x0086
	LPMisc1   uint16 = 0x0088
	LPRdMisc2 uint16 = 0x008A
	LPWrMisc2 uint16 = 0x0090
)

// MISC1 command words.
const (
	Misc1WEnable  uint16 = 0x8000 // enable writes to MISC2
	Misc1WDisable uint16 = 0x0000
	Misc1EdCap    uint16 = 0x4000 // WRCAPSEL writes enable edge capture
	Misc1NoEdCap  uint16 = 0x0000 // WRCAPSEL writes disable edge capture
)

// MISC2 bits.
const (
	Misc2BattEnable uint16 = 0x0001
)

// DIO register addresses per 16-channel bank.  Read and write functions
// of a bank live at distinct addresses; INTSEL/EDGSEL/CAPSEL read back
// at their write addresses.
func LPRdDIn(bank int) uint16    { return 0x0040 + uint16(bank)*0x10 }
func LPWrIntSel(bank int) uint16 { return 0x0042 + uint16(bank)*0x10 }
func LPWrEdgSel(bank int) uint16 { return 0x0044 + uint16(bank)*0x10 }
func LPWrCapSel(bank int) uint16 { return 0x0046 + uint16(bank)*0x10 }
func LPWrDOut(bank int) uint16   { return 0x0048 + uint16(bank)*0x10 }
func LPRdCapFlg(bank int) uint16 { return 0x004E + uint16(bank)*0x10 }

func LPRdIntSel(bank int) uint16 { return LPWrIntSel(bank) }
func LPRdEdgSel(bank int) uint16 { return LPWrEdgSel(bank) }
func LPRdCapSel(bank int) uint16 { return LPWrCapSel(bank) }

// ADC gain selector codes.
const (
	GSelBipolar5V  uint16 = 0x00F0
	GSelBipolar10V uint16 = 0x00A0
)

// Poll list item format: (EOPL, x, x, RANGE, CHAN<3:0>).
const (
	EOPL     uint8 = 0x80
	Range5V  uint8 = 0x10
	Range10V uint8 = 0x00
)

// CRA bit field positions.
const (
	CRABitCntSrcA  = 0 // 2 bits
	CRABitIndxSrcA = 2 // 2 bits
	CRABitClkPolA  = 4
	CRABitIntSrcA  = 5 // 2 bits
	CRABitClkMultA = 7 // 2 bits
	CRABitLoadSrcA = 9 // 2 bits
	CRABitIndxPolA = 11
	CRABitCntSrcB  = 12 // 2 bits
	CRABitIndxSrcB = 14 // 2 bits
)

// CRA bit field masks.
const (
	CRAMaskCntSrcA  uint16 = 3 << CRABitCntSrcA
	CRAMaskIndxSrcA uint16 = 3 << CRABitIndxSrcA
	CRAMaskClkPolA  uint16 = 1 << CRABitClkPolA
	CRAMaskIntSrcA  uint16 = 3 << CRABitIntSrcA
	CRAMaskClkMultA uint16 = 3 << CRABitClkMultA
	CRAMaskLoadSrcA uint16 = 3 << CRABitLoadSrcA
	CRAMaskIndxPolA uint16 = 1 << CRABitIndxPolA
	CRAMaskCntSrcB  uint16 = 3 << CRABitCntSrcB
	CRAMaskIndxSrcB uint16 = 3 << CRABitIndxSrcB
)

// CRB bit field positions.
const (
	CRBBitClkPolB     = 0
	CRBBitIndxPolB    = 1
	CRBBitClkEnabB    = 2
	CRBBitClkMultB    = 3 // 2 bits
	CRBBitLoadSrcB    = 6 // 2 bits
	CRBBitLatchSrc    = 8 // 2 bits
	CRBBitIntSrcB     = 10 // 2 bits
	CRBBitClkEnabA    = 12
	CRBBitIntResetA   = 13
	CRBBitIntResetB   = 14
	CRBBitIntResetCmd = 15
)

// CRB bit field masks.
const (
	CRBMaskClkPolB     uint16 = 1 << CRBBitClkPolB
	CRBMaskIndxPolB    uint16 = 1 << CRBBitIndxPolB
	CRBMaskClkEnabB    uint16 = 1 << CRBBitClkEnabB
	CRBMaskClkMultB    uint16 = 3 << CRBBitClkMultB
	CRBMaskLoadSrcB    uint16 = 3 << CRBBitLoadSrcB
	CRBMaskLatchSrc    uint16 = 3 << CRBBitLatchSrc
	CRBMaskIntSrcB     uint16 = 3 << CRBBitIntSrcB
	CRBMaskClkEnabA    uint16 = 1 << CRBBitClkEnabA
	CRBMaskIntResetA   uint16 = 1 << CRBBitIntResetA
	CRBMaskIntResetB   uint16 = 1 << CRBBitIntResetB
	CRBMaskIntResetCmd uint16 = 1 << CRBBitIntResetCmd

	// All write-only interrupt control bits; every read-modify-write of
	// CRB must mask these out to avoid clearing capture flags by
	// accident.
	CRBMaskIntCtrl = CRBMaskIntResetCmd | CRBMaskIntResetA | CRBMaskIntResetB
)

// Counter clock source codes (CNTSRC fields).  Bit 1 selects the system
// clock; bit 0 then gives the count direction.
const (
	CntSrcEncoder uint16 = 0
	CntSrcDigIn   uint16 = 1
	CntSrcSysClk  uint16 = 2
)

// Counter overflow/index capture flag positions in RDMISC2, by logical
// counter channel 0..5 (0A,1A,2A,0B,1B,2B).
func IndxMask(chan_ int) uint16 {
	if chan_ > 2 {
		return 1 << uint(chan_*2-1)
	}
	return 1 << uint(chan_*2+4)
}

func OverMask(chan_ int) uint16 {
	if chan_ > 2 {
		return 1 << uint(chan_*2+5)
	}
	return 1 << uint(chan_*2+10)
}
