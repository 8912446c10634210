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

// Package device assembles the board subsystems behind one mutex and
// owns the power-up initialization sequence.
package device

import (
	"sync"
	"time"

	"jinr.ru/greenlab/go-s626/pkg/acq"
	"jinr.ru/greenlab/go-s626/pkg/config"
	"jinr.ru/greenlab/go-s626/pkg/counter"
	"jinr.ru/greenlab/go-s626/pkg/dac"
	"jinr.ru/greenlab/go-s626/pkg/debi"
	deviceifc "jinr.ru/greenlab/go-s626/pkg/device/ifc"
	"jinr.ru/greenlab/go-s626/pkg/dio"
	"jinr.ru/greenlab/go-s626/pkg/hw"
	"jinr.ru/greenlab/go-s626/pkg/regs"
	"jinr.ru/greenlab/go-s626/pkg/srv/control/ifc"
)

// AOMax is the largest accepted analog output code.  Output codes are
// offset binary: 0 is full negative, AOMax/2 is zero volts.
const AOMax = 0x3FFE

const (
	settleTime    = 10 * time.Microsecond
	interConvTime = 4 * time.Microsecond
)

type Device struct {
	mu   sync.Mutex
	bus  hw.Bus
	poll hw.Poll
	db   *debi.DEBI
	dio  *dio.DIO
	bank *counter.Bank
	dac  *dac.DAC
	acq  *acq.Acq

	prog *hw.DMARegion
	data *hw.DMARegion

	trims []uint8
	state ifc.State
	sleep func(time.Duration)
}

var _ deviceifc.Device = &Device{}

// NewDevice wires the board subsystems over the given bus.  The device
// is inert until Initialize runs the power-up sequence.
func NewDevice(bus hw.Bus, alloc hw.Allocator, cfg *config.Config, state ifc.State) (*Device, error) {
	prog, err := alloc.Alloc(regs.RPSBufSize)
	if err != nil {
		return nil, err
	}
	data, err := alloc.Alloc(regs.DMABufSize)
	if err != nil {
		return nil, err
	}

	poll := hw.NewPoll(cfg.Poll.Budget, time.Duration(cfg.Poll.IntervalUS)*time.Microsecond)
	db := debi.New(bus, poll)

	d := &Device{
		bus:   bus,
		poll:  poll,
		db:    db,
		dio:   dio.New(db),
		bank:  counter.NewBank(db),
		dac:   dac.New(bus, db, poll, data),
		prog:  prog,
		data:  data,
		trims: cfg.Trim.Setpoints,
		state: state,
		sleep: time.Sleep,
	}
	d.acq = acq.New(&d.mu, bus, db, d.dio, d.bank, prog, data)
	return d, nil
}

// WithSleep replaces the settling delay function.
func (d *Device) WithSleep(fn func(time.Duration)) *Device {
	d.sleep = fn
	return d
}

// Initialize runs the power-up sequence: enables the bus interfaces,
// resets the I2C engine, programs the audio slot lists for ADC and DAC
// traffic, calibrates the trim DACs, zeroes the outputs and quiesces
// the counters and digital banks.
func (d *Device) Initialize() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	hw.MCEnable(d.bus, regs.MC1DEBI|regs.MC1Audio|regs.MC1I2C, regs.PMC1)

	d.bus.Write32(regs.PDEBICfg, regs.DEBICfgSlave16|
		regs.DEBITout<<regs.DEBICfgToutBit|regs.DEBICfgSwap|regs.DEBICfgIntel)
	d.bus.Write32(regs.PDEBIPage, regs.DEBIPageDisable)

	d.bus.Write32(regs.PGPIO, regs.GPIOBase|regs.GPIO1Hi)

	// Halt any I2C transfer in progress, then clear the error flags.
	// The status register wants two writes for that.
	if err := d.i2cCommand(regs.I2CClkSel | regs.I2CAbort); err != nil {
		return err
	}
	for i := 0; i < 2; i++ {
		if err := d.i2cCommand(regs.I2CClkSel); err != nil {
			return err
		}
	}

	d.bus.Write32(regs.PACON2, regs.ACON2Init)

	// TSL1 shifts ADC data into FB_BUFFER1 on every audio frame.
	d.bus.Write32(regs.PTSL1, regs.TSLRSD1|regs.TSLSIBA1)
	d.bus.Write32(regs.PTSL1+4, regs.TSLRSD1|regs.TSLSIBA1|regs.TSLEOS)
	d.bus.Write32(regs.PACON1, regs.ACON1ADCStart)

	d.bus.Write32(regs.PRPSPage1, 0)
	d.bus.Write32(regs.PRPS1Tout, 0)
	d.bus.Write32(regs.PPCIBTA, 0)

	// DAC output DMA: one DWORD behind the ADC sample area.
	physDAC := d.data.PhysBase + regs.DACWDMABufOS*4
	d.bus.Write32(regs.PBaseA2Out, physDAC)
	d.bus.Write32(regs.PProtA2Out, physDAC+4)
	d.bus.Write32(regs.PPageA2Out, 8)

	// TSL2 starts with slot 0 parked and slot 1 loading the FIFO.
	d.bus.Write32(regs.VectPort(0), regs.TSLXSD2|regs.TSLRSD3|regs.TSLSIBA2|regs.TSLEOS)
	d.bus.Write32(regs.VectPort(1), regs.TSLLFA2)
	d.bus.Write32(regs.PACON1, regs.ACON1DACStart)

	// Load the trim DACs twice: the audio channel does not always
	// come out of reset properly on the first pass.
	for i := 0; i < 2; i++ {
		if err := d.dac.LoadTrims(d.trims); err != nil {
			return err
		}
	}
	for chann := 0; chann < regs.DACChannels; chann++ {
		if err := d.dac.Set(chann, 0); err != nil {
			return err
		}
	}

	if err := d.countersInit(); err != nil {
		return err
	}
	if err := d.batteryOnlyMisc2(); err != nil {
		return err
	}
	return d.dio.Init()
}

func (d *Device) i2cCommand(cmd uint32) error {
	d.bus.Write32(regs.PI2CStat, cmd)
	hw.MCEnable(d.bus, regs.MC2UpldIIC, regs.PMC2)
	return d.poll.Until(func() bool {
		return hw.MCTest(d.bus, regs.MC2UpldIIC, regs.PMC2)
	})
}

// countersInit parks every counter: counting disabled until an index,
// soft index source, all interrupts off, capture flags cleared.
func (d *Device) countersInit() error {
	mode := counter.Mode{
		LoadSrc:  counter.LoadOnIndex,
		IndexSrc: counter.IndexSoft,
		Encoder:  counter.ModeCounter,
		ClkPol:   counter.PolPos,
		ClkMult:  counter.Mult1X,
		ClkEnab:  counter.EnabIndex,
	}
	for n := 0; n < regs.EncoderChannels; n++ {
		ch := d.bank.Chan(n)
		if err := ch.SetMode(mode, true); err != nil {
			return err
		}
		if err := ch.SetIntSrc(counter.IntNone); err != nil {
			return err
		}
		if err := ch.SetEnable(counter.EnabIndex); err != nil {
			return err
		}
	}
	return nil
}

// batteryOnlyMisc2 strips everything but the battery backup bit from
// MISC2, turning off any stale counter interrupt enables.
func (d *Device) batteryOnlyMisc2() error {
	cur, err := d.db.Read(regs.LPRdMisc2)
	if err != nil {
		return err
	}
	if err := d.db.Write(regs.LPMisc1, regs.Misc1WEnable); err != nil {
		return err
	}
	if err := d.db.Write(regs.LPWrMisc2, cur&regs.Misc2BattEnable); err != nil {
		return err
	}
	return d.db.Write(regs.LPMisc1, regs.Misc1WDisable)
}

// Close cancels any acquisition and shuts the bus interfaces down.
func (d *Device) Close() error {
	if err := d.acq.Cancel(); err != nil {
		return err
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	d.bus.Write32(regs.PIER, 0)
	hw.MCDisable(d.bus, regs.MC1DEBI|regs.MC1Audio|regs.MC1I2C, regs.PMC1)
	return nil
}

// AIRead performs one polled conversion: selects gain and channel,
// lets the input settle, pulses the start-convert line and fetches the
// sample once the converter signals done.
func (d *Device) AIRead(chann int, range5V bool) (uint16, error) {
	if chann < 0 || chann >= regs.ADCChannels {
		return 0, ErrBadChannel{What: "analog input", Chan: chann}
	}
	d.mu.Lock()
	defer d.mu.Unlock()

	spec := uint16(chann) << 8
	if range5V {
		spec |= regs.GSelBipolar5V
	} else {
		spec |= regs.GSelBipolar10V
	}
	if err := d.db.Write(regs.LPGSel, spec); err != nil {
		return 0, err
	}
	if err := d.db.Write(regs.LPISel, spec); err != nil {
		return 0, err
	}
	d.sleep(settleTime)

	gpio := d.bus.Read32(regs.PGPIO)
	if err := d.startConvert(gpio); err != nil {
		return 0, err
	}

	// The converter's output pipelines by one word: a trailing dummy
	// conversion shifts the just-finished result into FB_BUFFER1.
	d.sleep(interConvTime)
	if err := d.startConvert(gpio); err != nil {
		return 0, err
	}
	return acq.SampleFromRaw(d.bus.Read32(regs.PFBBuffer1)), nil
}

// startConvert pulses the start-convert line and waits for the
// conversion to finish.  The line needs several bus writes to register
// on the converter before it is negated.
func (d *Device) startConvert(gpio uint32) error {
	for i := 0; i < 3; i++ {
		d.bus.Write32(regs.PGPIO, gpio&^regs.GPIO1Hi)
	}
	d.bus.Write32(regs.PGPIO, gpio|regs.GPIO1Hi)
	return d.poll.Until(func() bool {
		return d.bus.Read32(regs.PPSR)&regs.PSRGPIO2 != 0
	})
}

// AOWrite drives one analog output and records the setpoint for
// readback.  value is offset binary, 0..AOMax.
func (d *Device) AOWrite(chann int, value uint16) error {
	if chann < 0 || chann >= regs.DACChannels {
		return ErrBadChannel{What: "analog output", Chan: chann}
	}
	if value > AOMax {
		return ErrBadValue{What: "analog output", Value: int(value)}
	}
	d.mu.Lock()
	defer d.mu.Unlock()

	if err := d.dac.Set(chann, int16(value)-dac.MaxData); err != nil {
		return err
	}
	return d.state.SetAO(chann, value)
}

// AORead returns the last setpoint written to an output.  The hardware
// has no readback path; the value comes from the state store.
func (d *Device) AORead(chann int) (uint16, error) {
	if chann < 0 || chann >= regs.DACChannels {
		return 0, ErrBadChannel{What: "analog output", Chan: chann}
	}
	return d.state.GetAO(chann)
}

func (d *Device) EncoderSetMode(chann int, mode counter.Mode) error {
	if chann < 0 || chann >= regs.EncoderChannels {
		return ErrBadChannel{What: "encoder", Chan: chann}
	}
	d.mu.Lock()
	defer d.mu.Unlock()

	ch := d.bank.Chan(chann)
	if err := ch.SetMode(mode, false); err != nil {
		return err
	}
	return ch.SetEnable(mode.ClkEnab)
}

func (d *Device) EncoderRead(chann int) (uint32, error) {
	if chann < 0 || chann >= regs.EncoderChannels {
		return 0, ErrBadChannel{What: "encoder", Chan: chann}
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.bank.Chan(chann).ReadLatch()
}

// EncoderPreload sets the counter core to a value: the preload register
// is written, then forced into the core by a soft index pulse.
func (d *Device) EncoderPreload(chann int, value uint32) error {
	if chann < 0 || chann >= regs.EncoderChannels {
		return ErrBadChannel{What: "encoder", Chan: chann}
	}
	d.mu.Lock()
	defer d.mu.Unlock()

	ch := d.bank.Chan(chann)
	if err := ch.Preload(value); err != nil {
		return err
	}
	if err := ch.SetLoadTrig(counter.LoadOnIndex); err != nil {
		return err
	}
	if err := ch.PulseIndex(); err != nil {
		return err
	}
	return ch.SetLoadTrig(counter.LoadNone)
}

func (d *Device) DIRead(bank int) (uint16, error) {
	if bank < 0 || bank >= dio.Banks {
		return 0, ErrBadChannel{What: "digital bank", Chan: bank}
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.dio.ReadInputs(bank)
}

func (d *Device) DOWrite(bank int, value uint16) error {
	if bank < 0 || bank >= dio.Banks {
		return ErrBadChannel{What: "digital bank", Chan: bank}
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.dio.WriteOutputs(bank, value)
}

func (d *Device) DORead(bank int) (uint16, error) {
	if bank < 0 || bank >= dio.Banks {
		return 0, ErrBadChannel{What: "digital bank", Chan: bank}
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.dio.Outputs(bank), nil
}

// RegRead peeks a gate-array local register over DEBI.
func (d *Device) RegRead(addr uint16) (uint16, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.db.Read(addr)
}

// RegWrite pokes a gate-array local register over DEBI and shadows the
// write in the state store.
func (d *Device) RegWrite(addr uint16, value uint16) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.db.Write(addr, value); err != nil {
		return err
	}
	return d.state.SetReg(addr, value)
}

// Acquisition entry points delegate to the state machine, which locks
// the shared mutex itself.

func (d *Device) Submit(cmd acq.Command) error { return d.acq.Submit(cmd) }
func (d *Device) Trigger() error               { return d.acq.Trigger() }
func (d *Device) Cancel() error                { return d.acq.Cancel() }
func (d *Device) AcqState() acq.State          { return d.acq.State() }
func (d *Device) Scans() <-chan []uint16       { return d.acq.Scans() }
func (d *Device) Done() <-chan struct{}        { return d.acq.Done() }
func (d *Device) Interrupt()                   { d.acq.Interrupt() }
