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

// Package acq runs multi-channel analog acquisitions: it validates
// commands, compiles them into sequencer programs, arms trigger
// sources, services the board's interrupts and streams completed scans
// to the caller.
package acq

import (
	"sync"

	"jinr.ru/greenlab/go-s626/pkg/counter"
	"jinr.ru/greenlab/go-s626/pkg/debi"
	"jinr.ru/greenlab/go-s626/pkg/dio"
	"jinr.ru/greenlab/go-s626/pkg/hw"
	"jinr.ru/greenlab/go-s626/pkg/log"
	"jinr.ru/greenlab/go-s626/pkg/regs"
	"jinr.ru/greenlab/go-s626/pkg/rps"
)

// State of the acquisition machine.
type State int

const (
	Idle     State = iota
	Armed          // submitted, waiting for the start trigger
	Running        // sequencer executing scans
	Stopping       // tearing down after the final scan or a cancel
)

// scanTimer and convTimer are the logical counter channels that pace
// timer-driven scans and conversions.
const (
	scanTimer = 5
	convTimer = 4
)

// SampleFromRaw converts a raw sequencer-stored word to an unsigned
// 16-bit sample.
func SampleFromRaw(raw uint32) uint16 {
	return uint16(raw>>18&0x3FFF) ^ 0x2000
}

// Acq is the acquisition state machine.  All entry points, the
// interrupt dispatcher included, serialize on one mutex; the device
// layer shares it so counter, DAC and acquisition traffic never
// interleave on the bus.
type Acq struct {
	mu   *sync.Mutex
	bus  hw.Bus
	db   *debi.DEBI
	dio  *dio.DIO
	bank *counter.Bank

	prog *hw.DMARegion
	data *hw.DMARegion

	state        State
	cmd          Command
	items        int
	sampleCount  int
	continuous   bool
	convertCount int

	scans chan []uint16
	done  chan struct{}
}

// New builds the acquisition machine over already-initialized hardware.
// mu is the mutual-exclusion domain shared with the owning device; nil
// allocates a private one.
func New(mu *sync.Mutex, bus hw.Bus, db *debi.DEBI, d *dio.DIO,
	bank *counter.Bank, prog, data *hw.DMARegion) *Acq {
	if mu == nil {
		mu = &sync.Mutex{}
	}
	return &Acq{
		mu:   mu,
		bus:  bus,
		db:   db,
		dio:  d,
		bank: bank,
		prog: prog,
		data: data,
	}
}

// State returns the machine's current state.
func (a *Acq) State() State {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.state
}

// Scans returns the channel delivering one sample slice per completed
// scan of the active command.  Valid after a successful Submit until
// the next Submit.
func (a *Acq) Scans() <-chan []uint16 {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.scans
}

// Done returns a channel closed when the active command finishes its
// scan count.  A canceled command's channel is never closed.
func (a *Acq) Done() <-chan struct{} {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.done
}

// Submit validates, programs and arms a command.  Rejected commands
// leave the hardware untouched; a bus error during arming rolls back to
// Idle with the sequencer halted.
func (a *Acq) Submit(cmd Command) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.state != Idle {
		return ErrBusy{}
	}
	cmd, err := cmd.Validate()
	if err != nil {
		return err
	}

	if err := a.arm(cmd); err != nil {
		a.rollback()
		return err
	}
	return nil
}

func (a *Acq) arm(cmd Command) error {
	// Quiesce interrupt delivery while reprogramming.
	a.bus.Write32(regs.PIER, 0)
	a.bus.Write32(regs.PISR, regs.IRQRPS1|regs.IRQGPIO3)
	if err := a.dio.ClearIRQs(); err != nil {
		return err
	}

	a.cmd = cmd
	a.convertCount = 0

	switch cmd.ScanBegin {
	case ScanTimer:
		tick, _ := nsToTimer(cmd.ScanPeriodNS, cmd.Round)
		if err := a.timerLoad(a.bank.Chan(scanTimer), tick); err != nil {
			return err
		}
		if err := a.bank.Chan(scanTimer).SetEnable(counter.EnabAlways); err != nil {
			return err
		}
	case ScanExt:
		// When the start is also external its handler arms the scan
		// line once the command is running.
		if cmd.Start != StartExt {
			if err := a.dio.SetEdgeIRQ(cmd.ScanLine); err != nil {
				return err
			}
		}
	}

	switch cmd.Convert {
	case ConvTimer:
		tick, _ := nsToTimer(cmd.ConvPeriodNS, cmd.Round)
		if err := a.timerLoad(a.bank.Chan(convTimer), tick); err != nil {
			return err
		}
		// Held until the scan pacer releases it.
		if err := a.bank.Chan(convTimer).SetEnable(counter.EnabIndex); err != nil {
			return err
		}
	case ConvExt:
		if cmd.ScanBegin != ScanExt && cmd.Start == StartExt {
			if err := a.dio.SetEdgeIRQ(cmd.ConvLine); err != nil {
				return err
			}
		}
	}

	if err := a.applyIntEnabs(); err != nil {
		return err
	}

	switch cmd.Stop {
	case StopCount:
		a.sampleCount = cmd.StopCount
		a.continuous = false
	case StopNone:
		a.sampleCount = 1
		a.continuous = true
	}

	rps.Halt(a.bus)
	rps.Arm(a.bus, a.prog)
	a.items = rps.Build(a.prog, a.data, cmd.pollList(), rps.Options{
		ScanTriggered:    cmd.ScanBegin != ScanFollow,
		ConvertTriggered: cmd.Convert != ConvNow,
		IRQ:              true,
	})

	a.scans = make(chan []uint16, 64)
	a.done = make(chan struct{})

	switch cmd.Start {
	case StartNow:
		rps.Start(a.bus)
		a.state = Running
	case StartExt:
		if err := a.dio.SetEdgeIRQ(cmd.StartLine); err != nil {
			return err
		}
		a.state = Armed
	case StartSoft:
		a.state = Armed
	}

	a.bus.Write32(regs.PIER, regs.IRQGPIO3|regs.IRQRPS1)
	return nil
}

// rollback re-halts the sequencer and returns to Idle after a failed
// arm; the hardware is never left half-armed.
func (a *Acq) rollback() {
	rps.Halt(a.bus)
	a.bus.Write32(regs.PIER, 0)
	a.state = Idle
}

// Trigger starts an armed command that waits on a software start.
func (a *Acq) Trigger() error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.state != Armed || a.cmd.Start != StartSoft {
		return ErrNotArmed{}
	}
	rps.Start(a.bus)
	a.state = Running
	return nil
}

// Cancel stops the active command: the sequencer halts and interrupt
// delivery is disabled.  Idempotent; canceling an idle machine is a
// no-op.
func (a *Acq) Cancel() error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.state == Idle {
		return nil
	}
	a.state = Stopping
	rps.Halt(a.bus)
	a.bus.Write32(regs.PIER, 0)
	a.state = Idle
	return nil
}

// timerLoad programs a counter channel as a pacing timer: timer mode
// counting down from tick, preload forced in by a software index,
// reloading on overflow, interrupting on overflow.
func (a *Acq) timerLoad(ch counter.Chan, tick int) error {
	mode := counter.Mode{
		LoadSrc:  counter.LoadOnIndex,
		IndexSrc: counter.IndexSoft,
		Encoder:  counter.ModeTimer,
		ClkPol:   counter.CountDown,
		ClkMult:  counter.Mult1X,
		ClkEnab:  counter.EnabIndex,
	}
	if err := ch.SetMode(mode, false); err != nil {
		return err
	}
	if err := ch.Preload(uint32(tick)); err != nil {
		return err
	}
	if err := ch.SetLoadTrig(counter.LoadOnIndex); err != nil {
		return err
	}
	if err := ch.PulseIndex(); err != nil {
		return err
	}
	if err := ch.SetLoadTrig(counter.LoadOnOverflow); err != nil {
		return err
	}
	if err := ch.SetIntSrc(counter.IntOverflow); err != nil {
		return err
	}
	return ch.SetLatchSrc(counter.LatchAIndxA)
}

// applyIntEnabs writes the counter bank's interrupt-enable image to
// MISC2, preserving the battery backup bit.  MISC2 only accepts writes
// inside a MISC1 write-enable bracket.
func (a *Acq) applyIntEnabs() error {
	cur, err := a.db.Read(regs.LPRdMisc2)
	if err != nil {
		return err
	}
	image := cur&regs.Misc2BattEnable | a.bank.IntEnabs()
	if err := a.db.Write(regs.LPMisc1, regs.Misc1WEnable); err != nil {
		return err
	}
	if err := a.db.Write(regs.LPWrMisc2, image); err != nil {
		return err
	}
	return a.db.Write(regs.LPMisc1, regs.Misc1WDisable)
}

// Interrupt services one board interrupt.  Interrupt delivery is
// masked while dispatching; the end of the final scan leaves it masked
// for good.
func (a *Acq) Interrupt() {
	a.mu.Lock()
	defer a.mu.Unlock()

	ier := a.bus.Read32(regs.PIER)
	isr := a.bus.Read32(regs.PISR)
	a.bus.Write32(regs.PIER, 0)
	a.bus.Write32(regs.PISR, isr)

	switch isr {
	case regs.IRQRPS1:
		if a.handleEndOfScan() {
			ier = 0
		}
	case regs.IRQGPIO3:
		a.checkDIOInterrupts()
		a.checkCounterInterrupts()
	}

	a.bus.Write32(regs.PIER, ier)
}

// handleEndOfScan extracts the finished scan from the sample buffer and
// delivers it.  Reports whether the command completed.  The buffer's
// leading word is skipped: it holds stale data from the previous scan's
// dummy conversion.
func (a *Acq) handleEndOfScan() bool {
	// Interrupts raised before a cancel or the final teardown can
	// land after the command is gone; there is nothing to credit the
	// scan to.
	if a.state != Running {
		return false
	}

	scan := make([]uint16, len(a.cmd.Channels))
	for i := range scan {
		scan[i] = SampleFromRaw(a.data.Words[1+i])
	}
	select {
	case a.scans <- scan:
	default:
		log.Warning("scan dropped: consumer not keeping up")
	}

	if !a.continuous {
		a.sampleCount--
	}
	if a.sampleCount <= 0 {
		a.state = Stopping
		rps.Halt(a.bus)
		close(a.done)
		a.state = Idle
		return true
	}

	// Each externally triggered scan re-arms its line: the capture is
	// one-shot.
	if a.cmd.ScanBegin == ScanExt {
		if err := a.dio.SetEdgeIRQ(a.cmd.ScanLine); err != nil {
			log.Error("re-arming scan trigger line: %s", err)
		}
	}
	return false
}

// lineHit reports whether the captured bank flags name exactly the
// given digital line and nothing above it.
func lineHit(flags uint16, bank, line int) bool {
	if line/dio.ChansPerBank != bank {
		return false
	}
	return flags>>uint(line%dio.ChansPerBank) == 1
}

func (a *Acq) checkDIOInterrupts() {
	for bank := 0; bank < dio.Banks; bank++ {
		flags, err := a.dio.CapFlags(bank)
		if err != nil {
			log.Error("reading capture flags of bank %d: %s", bank, err)
			return
		}
		if flags != 0 {
			a.handleDIOInterrupt(flags, bank)
			return
		}
	}
}

func (a *Acq) handleDIOInterrupt(flags uint16, bank int) {
	if err := a.dio.ResetIRQ(bank, flags); err != nil {
		log.Error("acknowledging capture flags of bank %d: %s", bank, err)
	}
	if a.state == Idle {
		return
	}
	cmd := &a.cmd

	if cmd.Start == StartExt && lineHit(flags, bank, cmd.StartLine) {
		rps.Start(a.bus)
		a.state = Running

		if cmd.ScanBegin == ScanExt {
			if err := a.dio.SetEdgeIRQ(cmd.ScanLine); err != nil {
				log.Error("arming scan trigger line: %s", err)
			}
		}
	}
	if cmd.ScanBegin == ScanExt && lineHit(flags, bank, cmd.ScanLine) {
		rps.Trigger(a.bus)

		switch cmd.Convert {
		case ConvExt:
			a.convertCount = len(cmd.Channels)
			if err := a.dio.SetEdgeIRQ(cmd.ConvLine); err != nil {
				log.Error("arming convert trigger line: %s", err)
			}
		case ConvTimer:
			a.convertCount = len(cmd.Channels)
			if err := a.bank.Chan(convTimer).SetEnable(counter.EnabAlways); err != nil {
				log.Error("releasing conversion pacer: %s", err)
			}
		}
	}
	if cmd.Convert == ConvExt && lineHit(flags, bank, cmd.ConvLine) {
		rps.Trigger(a.bus)

		a.convertCount--
		if a.convertCount > 0 {
			if err := a.dio.SetEdgeIRQ(cmd.ConvLine); err != nil {
				log.Error("re-arming convert trigger line: %s", err)
			}
		}
	}
}

func (a *Acq) checkCounterInterrupts() {
	flags, err := a.db.Read(regs.LPRdMisc2)
	if err != nil {
		log.Error("reading counter event flags: %s", err)
		return
	}

	for n := 0; n < regs.EncoderChannels; n++ {
		ch := a.bank.Chan(n)
		if flags&ch.OverMask() == 0 {
			continue
		}
		if err := ch.ResetCapFlags(); err != nil {
			log.Error("resetting capture flags of counter %d: %s", n, err)
		}

		switch n {
		case convTimer:
			if a.convertCount > 0 {
				a.convertCount--
				if a.convertCount == 0 {
					// Scan complete: hold the pacer until the next
					// scan releases it.
					if err := ch.SetEnable(counter.EnabIndex); err != nil {
						log.Error("holding conversion pacer: %s", err)
					}
				}
				if a.cmd.Convert == ConvTimer {
					rps.Trigger(a.bus)
				}
			}
		case scanTimer:
			if a.cmd.ScanBegin == ScanTimer {
				rps.Trigger(a.bus)
			}
			if a.cmd.Convert == ConvTimer {
				a.convertCount = len(a.cmd.Channels)
				if err := a.bank.Chan(convTimer).SetEnable(counter.EnabAlways); err != nil {
					log.Error("releasing conversion pacer: %s", err)
				}
			}
		}
	}
}
