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

// Package counter normalizes the board's two counter/encoder hardware
// families into one behavioral contract.  Six logical channels
// (0A,1A,2A,0B,1B,2B) map onto three CRA/CRB control register pairs; an
// A channel and its B sibling occupy different bit fields of the same
// pair, so every configuration write is a masked read-modify-write that
// must not disturb the sibling's live fields.
package counter

import (
	"jinr.ru/greenlab/go-s626/pkg/debi"
	"jinr.ru/greenlab/go-s626/pkg/regs"
)

type LoadSrc uint16

const (
	LoadOnIndex    LoadSrc = 0
	LoadOnOverflow LoadSrc = 1
	LoadOnOverA    LoadSrc = 2 // B channels only
	LoadNone       LoadSrc = 3
)

type IndexSrc uint16

const (
	IndexEncoder  IndexSrc = 0
	IndexDigIn    IndexSrc = 1
	IndexSoft     IndexSrc = 2
	IndexDisabled IndexSrc = 3
)

type Polarity uint16

const (
	PolPos Polarity = 0
	PolNeg Polarity = 1

	// Aliases: in timer mode the clock polarity field carries the
	// count direction instead.
	CountUp   Polarity = 0
	CountDown Polarity = 1
)

type ClkEnab uint16

const (
	EnabAlways ClkEnab = 0
	EnabIndex  ClkEnab = 1
)

type ClkMult uint16

const (
	Mult4X      ClkMult = 0
	Mult2X      ClkMult = 1
	Mult1X      ClkMult = 2
	MultSpecial ClkMult = 3 // selects extender mode on B channels
)

type EncMode uint16

const (
	ModeCounter  EncMode = 0
	ModeTimer    EncMode = 2
	ModeExtender EncMode = 3
)

type IntSrc uint16

const (
	IntNone     IntSrc = 0
	IntOverflow IntSrc = 1
	IntIndex    IntSrc = 2
	IntBoth     IntSrc = 3
)

type LatchSrc uint16

const (
	LatchOnRead LatchSrc = 0
	LatchAIndxA LatchSrc = 1
	LatchBIndxB LatchSrc = 2
	LatchBOverA LatchSrc = 3
)

// Mode is the standardized counter setup, identical for both families.
// LatchSrc is reported by GetMode but ignored by SetMode; it is
// pair-wide and programmed through SetLatchSrc.
type Mode struct {
	LoadSrc  LoadSrc
	IndexSrc IndexSrc
	IndexPol Polarity
	ClkEnab  ClkEnab
	ClkPol   Polarity // count direction in timer/extender mode
	ClkMult  ClkMult
	Encoder  EncMode
	IntSrc   IntSrc
	LatchSrc LatchSrc
}

// Chan is the uniform capability set of one logical counter channel.
type Chan interface {
	GetMode() (Mode, error)
	// SetMode programs the standardized setup and, as a hardware side
	// effect, always resets the channel's pending capture flags.  When
	// suppressInt is set the interrupt source is forced to disabled
	// and the channel's bits are withdrawn from the shared
	// interrupt-enable image.
	SetMode(m Mode, suppressInt bool) error
	GetEnable() (ClkEnab, error)
	SetEnable(ClkEnab) error
	GetIntSrc() (IntSrc, error)
	// SetIntSrc programs the event that interrupts for this channel
	// and updates the shared interrupt-enable image; the register
	// write alone does not enable delivery.
	SetIntSrc(IntSrc) error
	GetLoadTrig() (LoadSrc, error)
	SetLoadTrig(LoadSrc) error
	// PulseIndex toggles and restores the index polarity, generating a
	// one-shot software index event.
	PulseIndex() error
	ResetCapFlags() error
	SetLatchSrc(LatchSrc) error
	ReadLatch() (uint32, error)
	Preload(uint32) error
	// OverMask and IndexMask are this channel's capture flag positions
	// in the RDMISC2 event register.
	OverMask() uint16
	IndexMask() uint16
}

// Bank owns the six logical channels and the shared interrupt-enable
// image that SetIntSrc/SetMode maintain.  The image mirrors which
// counter events are armed in WRMISC2; the acquisition layer merges it
// into the register when it owns the bus.  Bank performs no locking:
// all mutation happens inside the device's mutual-exclusion domain.
type Bank struct {
	debi     *debi.DEBI
	intEnabs uint16
	chans    [regs.EncoderChannels]Chan
}

func NewBank(d *debi.DEBI) *Bank {
	b := &Bank{debi: d}
	addrs := []struct {
		cra, crb, latch uint16
	}{
		{regs.LPCR0A, regs.LPCR0B, regs.LPCntr0ALSW},
		{regs.LPCR1A, regs.LPCR1B, regs.LPCntr1ALSW},
		{regs.LPCR2A, regs.LPCR2B, regs.LPCntr2ALSW},
		{regs.LPCR0A, regs.LPCR0B, regs.LPCntr0BLSW},
		{regs.LPCR1A, regs.LPCR1B, regs.LPCntr1BLSW},
		{regs.LPCR2A, regs.LPCR2B, regs.LPCntr2BLSW},
	}
	for i, a := range addrs {
		events := eventBits(i)
		ch := channel{
			bank:     b,
			cra:      a.cra,
			crb:      a.crb,
			latchLSW: a.latch,
			events:   events,
		}
		if i < 3 {
			b.chans[i] = &chanA{channel: ch}
		} else {
			b.chans[i] = &chanB{channel: ch}
		}
	}
	return b
}

// Chan returns logical channel n: 0=0A, 1=1A, 2=2A, 3=0B, 4=1B, 5=2B.
func (b *Bank) Chan(n int) Chan {
	return b.chans[n]
}

// IntEnabs returns the current interrupt-enable image for WRMISC2.
func (b *Bank) IntEnabs() uint16 {
	return b.intEnabs
}

// eventBits builds the 4-entry IntSrc-to-RDMISC2 translation table for
// logical channel n.
func eventBits(n int) [4]uint16 {
	over := regs.OverMask(n)
	indx := regs.IndxMask(n)
	return [4]uint16{0, over, indx, over | indx}
}

// channel carries the per-channel state common to both families.
type channel struct {
	bank     *Bank
	cra      uint16
	crb      uint16
	latchLSW uint16
	events   [4]uint16
}

func (c *channel) OverMask() uint16 {
	return c.events[IntOverflow]
}

func (c *channel) IndexMask() uint16 {
	return c.events[IntIndex]
}

// updateIntEnabs swaps this channel's contribution to the shared
// interrupt-enable image.
func (c *channel) updateIntEnabs(src IntSrc) {
	c.bank.intEnabs = c.bank.intEnabs&^c.events[IntBoth] | c.events[src]
}

// ReadLatch latches and returns the 32-bit count, LSW first.
func (c *channel) ReadLatch() (uint32, error) {
	lsw, err := c.bank.debi.Read(c.latchLSW)
	if err != nil {
		return 0, err
	}
	msw, err := c.bank.debi.Read(c.latchLSW + 2)
	if err != nil {
		return 0, err
	}
	return uint32(msw)<<16 | uint32(lsw), nil
}

// Preload stores a value into the preload register, LSW first.
func (c *channel) Preload(value uint32) error {
	if err := c.bank.debi.Write(c.latchLSW, uint16(value)); err != nil {
		return err
	}
	return c.bank.debi.Write(c.latchLSW+2, uint16(value>>16))
}

// SetLatchSrc programs the pair-wide latch trigger.
func (c *channel) SetLatchSrc(src LatchSrc) error {
	return c.bank.debi.Replace(c.crb,
		^(regs.CRBMaskIntCtrl | regs.CRBMaskLatchSrc),
		uint16(src)<<regs.CRBBitLatchSrc)
}

// normMult forces the multiplier to 1x where the special code is not
// legal for the resolved mode.
func normMult(m ClkMult) ClkMult {
	if m == MultSpecial {
		return Mult1X
	}
	return m
}
