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

package device

import (
	"errors"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"jinr.ru/greenlab/go-s626/pkg/config"
	"jinr.ru/greenlab/go-s626/pkg/hw"
	"jinr.ru/greenlab/go-s626/pkg/regs"
	"jinr.ru/greenlab/go-s626/pkg/sim"
)

type fakeState struct {
	ao      map[int]uint16
	shadows map[uint16]uint16
}

func newFakeState() *fakeState {
	return &fakeState{
		ao:      make(map[int]uint16),
		shadows: make(map[uint16]uint16),
	}
}

func (s *fakeState) SetAO(chann int, value uint16) error {
	s.ao[chann] = value
	return nil
}

func (s *fakeState) GetAO(chann int) (uint16, error) {
	return s.ao[chann], nil
}

func (s *fakeState) SetReg(addr uint16, value uint16) error {
	s.shadows[addr] = value
	return nil
}

func (s *fakeState) GetReg(addr uint16) (uint16, error) {
	return s.shadows[addr], nil
}

func (s *fakeState) RegAll() (map[uint16]uint16, error) {
	return s.shadows, nil
}

func (s *fakeState) Close() {}

func newTestDevice(t *testing.T) (*Device, *sim.Board, *fakeState) {
	t.Helper()
	alloc := hw.NewSimAllocator()
	board := sim.NewBoard(alloc)
	cfg := config.NewDefaultConfig()
	cfg.Poll.Budget = 16
	cfg.Poll.IntervalUS = 0
	state := newFakeState()
	dev, err := NewDevice(board, alloc, cfg, state)
	if err != nil {
		t.Fatalf("NewDevice: %v", err)
	}
	dev.WithSleep(func(time.Duration) {})
	return dev, board, state
}

func TestInitialize(t *testing.T) {
	dev, board, _ := newTestDevice(t)
	if err := dev.Initialize(); err != nil {
		t.Fatalf("Initialize: %v", err)
	}

	want := uint32(regs.MC1DEBI | regs.MC1Audio | regs.MC1I2C)
	if got := board.Read32(regs.PMC1) & want; got != want {
		t.Errorf("MC1 after init: got 0x%08x, want bits 0x%08x", got, want)
	}
	wantCfg := uint32(regs.DEBICfgSlave16 |
		regs.DEBITout<<regs.DEBICfgToutBit | regs.DEBICfgSwap | regs.DEBICfgIntel)
	if got := board.Read32(regs.PDEBICfg); got != wantCfg {
		t.Errorf("DEBI config: got 0x%08x, want 0x%08x", got, wantCfg)
	}

	// The DAC sequencer must be left trapped at slot 0.
	wantSlot0 := uint32(regs.TSLXSD2 | regs.TSLRSD3 | regs.TSLSIBA2 | regs.TSLEOS)
	if got := board.Slot(0); got != wantSlot0 {
		t.Errorf("TSL2 slot 0: got 0x%08x, want 0x%08x", got, wantSlot0)
	}
	if got, want := board.Slot(1), uint32(regs.TSLLFA2); got != want {
		t.Errorf("TSL2 slot 1: got 0x%08x, want 0x%08x", got, want)
	}

	// Two trim calibration passes plus one zeroing packet per output
	// channel.
	wantPackets := 2*config.NumTrimChans + regs.DACChannels
	if got := len(board.DACWords); got != wantPackets {
		t.Fatalf("serialized DAC packets: got %d, want %d", got, wantPackets)
	}
	wantZero := []uint32{0x0F004000, 0x0F00C000, 0x0F004000, 0x0F00C000}
	if diff := cmp.Diff(wantZero, board.DACWords[2*config.NumTrimChans:]); diff != "" {
		t.Errorf("output zeroing packets mismatch (-want +got):\n%s", diff)
	}
}

func TestCloseDisablesInterfaces(t *testing.T) {
	dev, board, _ := newTestDevice(t)
	if err := dev.Initialize(); err != nil {
		t.Fatalf("Initialize: %v", err)
	}
	if err := dev.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if got := board.Read32(regs.PIER); got != 0 {
		t.Errorf("IER after close: got 0x%08x, want 0", got)
	}
	bits := uint32(regs.MC1DEBI | regs.MC1Audio | regs.MC1I2C)
	if got := board.Read32(regs.PMC1) & bits; got != 0 {
		t.Errorf("MC1 after close: interfaces still enabled, 0x%08x", got)
	}
}

func TestAIRead(t *testing.T) {
	dev, board, _ := newTestDevice(t)
	if err := dev.Initialize(); err != nil {
		t.Fatalf("Initialize: %v", err)
	}

	const sample = uint16(0x1234)
	board.SetADC(uint32(sample^0x2000) << 18)
	pulses := board.Conversions

	got, err := dev.AIRead(3, true)
	if err != nil {
		t.Fatalf("AIRead: %v", err)
	}
	if got != sample {
		t.Errorf("sample: got 0x%04x, want 0x%04x", got, sample)
	}
	// One real conversion plus the dummy that shifts its result out of
	// the one-word pipeline.
	if n := board.Conversions - pulses; n != 2 {
		t.Errorf("start-convert pulses: got %d, want 2", n)
	}

	// A second read must not see residue of the first conversion.
	const next = uint16(0x0BAD)
	board.SetADC(uint32(next^0x2000) << 18)
	got, err = dev.AIRead(3, true)
	if err != nil {
		t.Fatalf("second AIRead: %v", err)
	}
	if got != next {
		t.Errorf("second sample: got 0x%04x, want 0x%04x", got, next)
	}

	wantSpec := uint16(3)<<8 | regs.GSelBipolar5V
	if v := board.LP(regs.LPGSel); v != wantSpec {
		t.Errorf("gain select: got 0x%04x, want 0x%04x", v, wantSpec)
	}
	if v := board.LP(regs.LPISel); v != wantSpec {
		t.Errorf("input select: got 0x%04x, want 0x%04x", v, wantSpec)
	}

	if _, err := dev.AIRead(regs.ADCChannels, true); err == nil {
		t.Error("AIRead accepted an out of range channel")
	}
}

func TestAIReadConverterStuck(t *testing.T) {
	dev, board, _ := newTestDevice(t)
	if err := dev.Initialize(); err != nil {
		t.Fatalf("Initialize: %v", err)
	}
	board.ADCBusyStuck = true
	if _, err := dev.AIRead(0, true); err == nil {
		t.Error("AIRead succeeded with the converter never finishing")
	}
}

func TestAOWriteReadback(t *testing.T) {
	dev, board, _ := newTestDevice(t)
	if err := dev.Initialize(); err != nil {
		t.Fatalf("Initialize: %v", err)
	}
	packets := len(board.DACWords)

	if err := dev.AOWrite(1, 0x2AAA); err != nil {
		t.Fatalf("AOWrite: %v", err)
	}
	if got := len(board.DACWords); got != packets+1 {
		t.Errorf("serialized packets after write: got %d, want %d", got, packets+1)
	}
	got, err := dev.AORead(1)
	if err != nil {
		t.Fatalf("AORead: %v", err)
	}
	if got != 0x2AAA {
		t.Errorf("readback: got 0x%04x, want 0x2aaa", got)
	}

	var badValue ErrBadValue
	if err := dev.AOWrite(0, AOMax+1); !errors.As(err, &badValue) {
		t.Errorf("AOWrite out of range value: got %v, want ErrBadValue", err)
	}
	var badChan ErrBadChannel
	if err := dev.AOWrite(regs.DACChannels, 0); !errors.As(err, &badChan) {
		t.Errorf("AOWrite out of range channel: got %v, want ErrBadChannel", err)
	}
	if _, err := dev.AORead(-1); !errors.As(err, &badChan) {
		t.Errorf("AORead out of range channel: got %v, want ErrBadChannel", err)
	}
}

func TestEncoderPreloadReadback(t *testing.T) {
	dev, _, _ := newTestDevice(t)
	if err := dev.Initialize(); err != nil {
		t.Fatalf("Initialize: %v", err)
	}

	const counts = uint32(0x00ABCDEF)
	if err := dev.EncoderPreload(2, counts); err != nil {
		t.Fatalf("EncoderPreload: %v", err)
	}
	got, err := dev.EncoderRead(2)
	if err != nil {
		t.Fatalf("EncoderRead: %v", err)
	}
	if got != counts {
		t.Errorf("counts: got 0x%06x, want 0x%06x", got, counts)
	}

	if err := dev.EncoderPreload(regs.EncoderChannels, 0); err == nil {
		t.Error("EncoderPreload accepted an out of range channel")
	}
}

func TestDigitalBanks(t *testing.T) {
	dev, board, _ := newTestDevice(t)
	if err := dev.Initialize(); err != nil {
		t.Fatalf("Initialize: %v", err)
	}

	if err := dev.DOWrite(1, 0x00F0); err != nil {
		t.Fatalf("DOWrite: %v", err)
	}
	got, err := dev.DORead(1)
	if err != nil {
		t.Fatalf("DORead: %v", err)
	}
	if got != 0x00F0 {
		t.Errorf("output readback: got 0x%04x, want 0x00f0", got)
	}

	board.SetLP(regs.LPRdDIn(2), 0x0A0A)
	in, err := dev.DIRead(2)
	if err != nil {
		t.Fatalf("DIRead: %v", err)
	}
	if in != 0x0A0A {
		t.Errorf("inputs: got 0x%04x, want 0x0a0a", in)
	}

	if _, err := dev.DIRead(3); err == nil {
		t.Error("DIRead accepted an out of range bank")
	}
}

func TestRegWriteShadow(t *testing.T) {
	dev, board, state := newTestDevice(t)
	if err := dev.Initialize(); err != nil {
		t.Fatalf("Initialize: %v", err)
	}

	if err := dev.RegWrite(regs.LPGSel, 0x1111); err != nil {
		t.Fatalf("RegWrite: %v", err)
	}
	if v := board.LP(regs.LPGSel); v != 0x1111 {
		t.Errorf("live register: got 0x%04x, want 0x1111", v)
	}
	if v := state.shadows[regs.LPGSel]; v != 0x1111 {
		t.Errorf("shadow: got 0x%04x, want 0x1111", v)
	}

	got, err := dev.RegRead(regs.LPGSel)
	if err != nil {
		t.Fatalf("RegRead: %v", err)
	}
	if got != 0x1111 {
		t.Errorf("RegRead: got 0x%04x, want 0x1111", got)
	}
}

func TestInitializeDEBIStuck(t *testing.T) {
	dev, board, _ := newTestDevice(t)
	board.DEBIUploadStuck = true
	if err := dev.Initialize(); err == nil {
		t.Error("Initialize succeeded with DEBI uploads never completing")
	}
}
