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

// Package dio drives the three 16-channel digital banks and their edge
// capture machinery.  Capture select writes are moded through MISC1:
// with edge capture enabled they arm the addressed channels, with it
// disabled they clear the addressed channels' pending capture flags.
package dio

import (
	"jinr.ru/greenlab/go-s626/pkg/debi"
	"jinr.ru/greenlab/go-s626/pkg/regs"
)

const (
	Banks        = regs.DIOBanks
	ChansPerBank = 16
	Channels     = Banks * ChansPerBank
)

type DIO struct {
	debi *debi.DEBI
	outs [Banks]uint16
}

func New(d *debi.DEBI) *DIO {
	return &DIO{debi: d}
}

// Init quiesces all banks: interrupts off, captures disarmed and
// cleared, default edge polarity, all outputs inactive.
func (d *DIO) Init() error {
	if err := d.debi.Write(regs.LPMisc1, regs.Misc1NoEdCap); err != nil {
		return err
	}
	for bank := 0; bank < Banks; bank++ {
		if err := d.debi.Write(regs.LPWrIntSel(bank), 0); err != nil {
			return err
		}
		if err := d.debi.Write(regs.LPWrCapSel(bank), 0xFFFF); err != nil {
			return err
		}
		if err := d.debi.Write(regs.LPWrEdgSel(bank), 0); err != nil {
			return err
		}
		if err := d.debi.Write(regs.LPWrDOut(bank), 0); err != nil {
			return err
		}
		d.outs[bank] = 0
	}
	return nil
}

// ReadInputs returns the live pin states of one bank.
func (d *DIO) ReadInputs(bank int) (uint16, error) {
	return d.debi.Read(regs.LPRdDIn(bank))
}

// WriteOutputs drives one bank's output register.
func (d *DIO) WriteOutputs(bank int, value uint16) error {
	if err := d.debi.Write(regs.LPWrDOut(bank), value); err != nil {
		return err
	}
	d.outs[bank] = value
	return nil
}

// Outputs returns the last value written to a bank's output register.
func (d *DIO) Outputs(bank int) uint16 {
	return d.outs[bank]
}

// SetEdgeIRQ arms one channel for rising-edge capture and interrupt
// delivery: positive edge polarity, interrupt select, then the capture
// enable itself under the MISC1 edge capture mode.
func (d *DIO) SetEdgeIRQ(chann int) error {
	bank := chann / ChansPerBank
	mask := uint16(1) << uint(chann%ChansPerBank)

	status, err := d.debi.Read(regs.LPRdEdgSel(bank))
	if err != nil {
		return err
	}
	if err := d.debi.Write(regs.LPWrEdgSel(bank), status|mask); err != nil {
		return err
	}

	status, err = d.debi.Read(regs.LPRdIntSel(bank))
	if err != nil {
		return err
	}
	if err := d.debi.Write(regs.LPWrIntSel(bank), status|mask); err != nil {
		return err
	}

	if err := d.debi.Write(regs.LPMisc1, regs.Misc1EdCap); err != nil {
		return err
	}
	status, err = d.debi.Read(regs.LPRdCapSel(bank))
	if err != nil {
		return err
	}
	return d.debi.Write(regs.LPWrCapSel(bank), status|mask)
}

// ResetIRQ acknowledges pending edge captures: with edge capture mode
// off, a capture select write clears the addressed capture flags.
func (d *DIO) ResetIRQ(bank int, mask uint16) error {
	if err := d.debi.Write(regs.LPMisc1, regs.Misc1NoEdCap); err != nil {
		return err
	}
	return d.debi.Write(regs.LPWrCapSel(bank), mask)
}

// ClearIRQs acknowledges every pending edge capture on all banks.
func (d *DIO) ClearIRQs() error {
	if err := d.debi.Write(regs.LPMisc1, regs.Misc1NoEdCap); err != nil {
		return err
	}
	for bank := 0; bank < Banks; bank++ {
		if err := d.debi.Write(regs.LPWrCapSel(bank), 0xFFFF); err != nil {
			return err
		}
	}
	return nil
}

// CapFlags returns one bank's pending edge capture flags.
func (d *DIO) CapFlags(bank int) (uint16, error) {
	return d.debi.Read(regs.LPRdCapFlg(bank))
}

// IntSel returns one bank's interrupt select mask.
func (d *DIO) IntSel(bank int) (uint16, error) {
	return d.debi.Read(regs.LPRdIntSel(bank))
}
