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

// chanA is a family A counter channel.  Its fields live mostly in CRA,
// with clock enable and the interrupt reset strobes in CRB.
type chanA struct {
	channel
}

var _ Chan = &chanA{}

func (c *chanA) GetMode() (Mode, error) {
	cra, err := c.bank.debi.Read(c.cra)
	if err != nil {
		return Mode{}, err
	}
	crb, err := c.bank.debi.Read(c.crb)
	if err != nil {
		return Mode{}, err
	}

	m := Mode{
		LoadSrc:  LoadSrc(cra >> regs.CRABitLoadSrcA & 3),
		LatchSrc: LatchSrc(crb >> regs.CRBBitLatchSrc & 3),
		IntSrc:   IntSrc(cra >> regs.CRABitIntSrcA & 3),
		IndexSrc: IndexSrc(cra >> regs.CRABitIndxSrcA & 3),
		IndexPol: Polarity(cra >> regs.CRABitIndxPolA & 1),
		ClkEnab:  ClkEnab(crb >> regs.CRBBitClkEnabA & 1),
	}

	cntsrc := cra >> regs.CRABitCntSrcA & 3
	if cntsrc&regs.CntSrcSysClk != 0 {
		// Timer mode.  The low count source bit is the direction and
		// the multiplier is fixed at 1x.
		m.Encoder = ModeTimer
		m.ClkPol = Polarity(cntsrc & 1)
		m.ClkMult = Mult1X
	} else {
		m.Encoder = ModeCounter
		m.ClkPol = Polarity(cra >> regs.CRABitClkPolA & 1)
		m.ClkMult = normMult(ClkMult(cra >> regs.CRABitClkMultA & 3))
	}
	return m, nil
}

func (c *chanA) SetMode(m Mode, suppressInt bool) error {
	cra := uint16(m.LoadSrc)<<regs.CRABitLoadSrcA |
		uint16(m.IndexSrc)<<regs.CRABitIndxSrcA

	// Always reset pending event captures for this channel.
	crb := regs.CRBMaskIntResetCmd | regs.CRBMaskIntResetA |
		uint16(m.ClkEnab)<<regs.CRBBitClkEnabA

	if !suppressInt {
		cra |= uint16(m.IntSrc) << regs.CRABitIntSrcA
	}

	clkpol := uint16(m.ClkPol)
	var cntsrc, clkmult uint16
	switch m.Encoder {
	case ModeTimer, ModeExtender:
		// Extender mode exists only on B channels; fall back to timer.
		// Count on the system clock, direction from ClkPol; the
		// polarity bit then acts as an always-on clock enable.
		cntsrc = regs.CntSrcSysClk | clkpol
		clkpol = 1
		clkmult = uint16(Mult1X)
	default:
		cntsrc = regs.CntSrcEncoder
		clkmult = uint16(normMult(m.ClkMult))
	}
	cra |= cntsrc<<regs.CRABitCntSrcA |
		clkpol<<regs.CRABitClkPolA |
		clkmult<<regs.CRABitClkMultA

	// A software-driven index is always positive polarity.
	if m.IndexSrc != IndexSoft {
		cra |= uint16(m.IndexPol) << regs.CRABitIndxPolA
	}

	if suppressInt {
		c.bank.intEnabs &^= c.events[IntBoth]
	}

	// Program the new mode while retaining the sibling B channel's
	// fields and the pair-wide latch source.
	if err := c.bank.debi.Replace(c.cra,
		regs.CRAMaskIndxSrcB|regs.CRAMaskCntSrcB, cra); err != nil {
		return err
	}
	return c.bank.debi.Replace(c.crb,
		^(regs.CRBMaskIntCtrl | regs.CRBMaskClkEnabA), crb)
}

func (c *chanA) GetEnable() (ClkEnab, error) {
	crb, err := c.bank.debi.Read(c.crb)
	return ClkEnab(crb >> regs.CRBBitClkEnabA & 1), err
}

func (c *chanA) SetEnable(enab ClkEnab) error {
	return c.bank.debi.Replace(c.crb,
		^(regs.CRBMaskIntCtrl | regs.CRBMaskClkEnabA),
		uint16(enab)<<regs.CRBBitClkEnabA)
}

func (c *chanA) GetIntSrc() (IntSrc, error) {
	cra, err := c.bank.debi.Read(c.cra)
	return IntSrc(cra >> regs.CRABitIntSrcA & 3), err
}

func (c *chanA) SetIntSrc(src IntSrc) error {
	// Reset any pending overflow or index captures first.
	if err := c.ResetCapFlags(); err != nil {
		return err
	}
	if err := c.bank.debi.Replace(c.cra, ^regs.CRAMaskIntSrcA,
		uint16(src)<<regs.CRABitIntSrcA); err != nil {
		return err
	}
	c.updateIntEnabs(src)
	return nil
}

func (c *chanA) GetLoadTrig() (LoadSrc, error) {
	cra, err := c.bank.debi.Read(c.cra)
	return LoadSrc(cra >> regs.CRABitLoadSrcA & 3), err
}

func (c *chanA) SetLoadTrig(trig LoadSrc) error {
	return c.bank.debi.Replace(c.cra, ^regs.CRAMaskLoadSrcA,
		uint16(trig)<<regs.CRABitLoadSrcA)
}

func (c *chanA) PulseIndex() error {
	cra, err := c.bank.debi.Read(c.cra)
	if err != nil {
		return err
	}
	if err := c.bank.debi.Write(c.cra, cra^regs.CRAMaskIndxPolA); err != nil {
		return err
	}
	return c.bank.debi.Write(c.cra, cra)
}

func (c *chanA) ResetCapFlags() error {
	return c.bank.debi.Replace(c.crb, ^regs.CRBMaskIntCtrl,
		regs.CRBMaskIntResetCmd|regs.CRBMaskIntResetA)
}
