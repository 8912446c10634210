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

package counter

import (
	"jinr.ru/greenlab/go-s626/pkg/regs"
)

// chanB is a family B counter channel.  Its count and index sources
// live in CRA's high fields; everything else is in CRB.  Family B
// additionally supports extender mode, selected by the special clock
// multiplier code.
type chanB struct {
	channel
}

var _ Chan = &chanB{}

func (c *chanB) GetMode() (Mode, error) {
	cra, err := c.bank.debi.Read(c.cra)
	if err != nil {
		return Mode{}, err
	}
	crb, err := c.bank.debi.Read(c.crb)
	if err != nil {
		return Mode{}, err
	}

	m := Mode{
		IntSrc:   IntSrc(crb >> regs.CRBBitIntSrcB & 3),
		LatchSrc: LatchSrc(crb >> regs.CRBBitLatchSrc & 3),
		LoadSrc:  LoadSrc(crb >> regs.CRBBitLoadSrcB & 3),
		IndexSrc: IndexSrc(cra >> regs.CRABitIndxSrcB & 3),
		IndexPol: Polarity(crb >> regs.CRBBitIndxPolB & 1),
		ClkEnab:  ClkEnab(crb >> regs.CRBBitClkEnabB & 1),
	}

	cntsrc := cra >> regs.CRABitCntSrcB & 3
	clkmult := ClkMult(crb >> regs.CRBBitClkMultB & 3)
	switch {
	case clkmult == MultSpecial:
		// Special multiplier code selects extender mode.
		m.Encoder = ModeExtender
		m.ClkPol = Polarity(cntsrc & 1)
		m.ClkMult = Mult1X
	case cntsrc&regs.CntSrcSysClk != 0:
		m.Encoder = ModeTimer
		m.ClkPol = Polarity(cntsrc & 1)
		m.ClkMult = Mult1X
	default:
		m.Encoder = ModeCounter
		m.ClkPol = Polarity(crb >> regs.CRBBitClkPolB & 1)
		m.ClkMult = clkmult
	}
	return m, nil
}

func (c *chanB) SetMode(m Mode, suppressInt bool) error {
	cra := uint16(m.IndexSrc) << regs.CRABitIndxSrcB

	// Always reset pending event captures for this channel.
	crb := regs.CRBMaskIntResetCmd | regs.CRBMaskIntResetB |
		uint16(m.ClkEnab)<<regs.CRBBitClkEnabB |
		uint16(m.LoadSrc)<<regs.CRBBitLoadSrcB

	if !suppressInt {
		crb |= uint16(m.IntSrc) << regs.CRBBitIntSrcB
	}

	clkpol := uint16(m.ClkPol)
	var cntsrc, clkmult uint16
	switch m.Encoder {
	case ModeTimer:
		cntsrc = regs.CntSrcSysClk | clkpol
		clkpol = 1
		clkmult = uint16(Mult1X)
	case ModeExtender:
		cntsrc = regs.CntSrcSysClk | clkpol
		clkpol = 1
		clkmult = uint16(MultSpecial)
	default:
		cntsrc = regs.CntSrcEncoder
		clkmult = uint16(normMult(m.ClkMult))
	}
	cra |= cntsrc << regs.CRABitCntSrcB
	crb |= clkpol<<regs.CRBBitClkPolB | clkmult<<regs.CRBBitClkMultB

	// A software-driven index is always positive polarity.
	if m.IndexSrc != IndexSoft {
		crb |= uint16(m.IndexPol) << regs.CRBBitIndxPolB
	}

	if suppressInt {
		c.bank.intEnabs &^= c.events[IntBoth]
	}

	// Program the new mode while retaining the sibling A channel's
	// fields and the pair-wide latch source.
	if err := c.bank.debi.Replace(c.cra,
		^(regs.CRAMaskIndxSrcB|regs.CRAMaskCntSrcB), cra); err != nil {
		return err
	}
	return c.bank.debi.Replace(c.crb,
		regs.CRBMaskClkEnabA|regs.CRBMaskLatchSrc, crb)
}

func (c *chanB) GetEnable() (ClkEnab, error) {
	crb, err := c.bank.debi.Read(c.crb)
	return ClkEnab(crb >> regs.CRBBitClkEnabB & 1), err
}

func (c *chanB) SetEnable(enab ClkEnab) error {
	return c.bank.debi.Replace(c.crb,
		^(regs.CRBMaskIntCtrl | regs.CRBMaskClkEnabB),
		uint16(enab)<<regs.CRBBitClkEnabB)
}

func (c *chanB) GetIntSrc() (IntSrc, error) {
	crb, err := c.bank.debi.Read(c.crb)
	return IntSrc(crb >> regs.CRBBitIntSrcB & 3), err
}

func (c *chanB) SetIntSrc(src IntSrc) error {
	// Reset any pending overflow or index captures first.
	if err := c.ResetCapFlags(); err != nil {
		return err
	}
	if err := c.bank.debi.Replace(c.crb,
		^(regs.CRBMaskIntCtrl|regs.CRBMaskIntSrcB),
		uint16(src)<<regs.CRBBitIntSrcB); err != nil {
		return err
	}
	c.updateIntEnabs(src)
	return nil
}

func (c *chanB) GetLoadTrig() (LoadSrc, error) {
	crb, err := c.bank.debi.Read(c.crb)
	return LoadSrc(crb >> regs.CRBBitLoadSrcB & 3), err
}

func (c *chanB) SetLoadTrig(trig LoadSrc) error {
	return c.bank.debi.Replace(c.crb,
		^(regs.CRBMaskIntCtrl|regs.CRBMaskLoadSrcB),
		uint16(trig)<<regs.CRBBitLoadSrcB)
}

func (c *chanB) PulseIndex() error {
	crb, err := c.bank.debi.Read(c.crb)
	if err != nil {
		return err
	}
	// Keep the write-only interrupt control strobes clear while
	// toggling the index polarity.
	crb &^= regs.CRBMaskIntCtrl
	if err := c.bank.debi.Write(c.crb, crb^regs.CRBMaskIndxPolB); err != nil {
		return err
	}
	return c.bank.debi.Write(c.crb, crb)
}

func (c *chanB) ResetCapFlags() error {
	return c.bank.debi.Replace(c.crb, ^regs.CRBMaskIntCtrl,
		regs.CRBMaskIntResetCmd|regs.CRBMaskIntResetB)
}
