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

package dac

import (
	"errors"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"jinr.ru/greenlab/go-s626/pkg/debi"
	"jinr.ru/greenlab/go-s626/pkg/hw"
	"jinr.ru/greenlab/go-s626/pkg/regs"
	"jinr.ru/greenlab/go-s626/pkg/sim"
)

func newTestDAC(t *testing.T) (*DAC, *sim.Board) {
	t.Helper()
	alloc := hw.NewSimAllocator()
	buf, err := alloc.Alloc(regs.DMABufSize)
	if err != nil {
		t.Fatalf("Alloc: %v", err)
	}
	board := sim.NewBoard(alloc)
	// Point the output DMA engine at the single DAC word.
	board.SetReg(regs.PBaseA2Out, buf.PhysBase+regs.DACWDMABufOS*4)
	poll := hw.NewPoll(16, time.Microsecond).WithSleep(func(time.Duration) {})
	return New(board, debi.New(board, poll), poll, buf), board
}

func TestSetPacketShape(t *testing.T) {
	d, board := newTestDAC(t)

	cases := []struct {
		chann int
		data  int16
		want  uint32
		pol   uint16
	}{
		{0, 0x0AAA, 0x0F004AAA, 0x0000},
		{1, -0x0AAA, 0x0F00CAAA, 0x0002},
		{2, 0x1FFF, 0x0F005FFF, 0x0002},
		{3, -0x2444, 0x0F00DFFF, 0x000A}, // magnitude clamps at 0x1FFF
	}
	for _, c := range cases {
		if err := d.Set(c.chann, c.data); err != nil {
			t.Fatalf("Set(%d, %d): %v", c.chann, c.data, err)
		}
		if got := board.DACWords[len(board.DACWords)-1]; got != c.want {
			t.Errorf("Set(%d, %d): packet %#08x, want %#08x",
				c.chann, c.data, got, c.want)
		}
		if d.Pol() != c.pol {
			t.Errorf("Set(%d, %d): pol %#04x, want %#04x",
				c.chann, c.data, d.Pol(), c.pol)
		}
		if got := board.LP(regs.LPDACPol); got != c.pol {
			t.Errorf("Set(%d, %d): DACPOL register %#04x, want %#04x",
				c.chann, c.data, got, c.pol)
		}
	}
}

func TestSetChipSelects(t *testing.T) {
	d, board := newTestDAC(t)

	if err := d.Set(1, 100); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if cs := board.Slot(2) & (regs.TSLWS1 | regs.TSLWS2); cs != regs.TSLWS2 {
		t.Errorf("chan 1 slot 2 chip select: got %#08x, want WS2", cs)
	}
	if err := d.Set(2, 100); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if cs := board.Slot(2) & (regs.TSLWS1 | regs.TSLWS2); cs != regs.TSLWS1 {
		t.Errorf("chan 2 slot 2 chip select: got %#08x, want WS1", cs)
	}
	if board.Slot(5)&regs.TSLEOS == 0 {
		t.Error("slot 5 must terminate the list")
	}
	// The send leaves slot 0 parked, shifting in pulled-up SD3.
	want := regs.TSLRSD3 | regs.TSLSIBA2 | regs.TSLEOS
	if got := board.Slot(0); got != want {
		t.Errorf("slot 0 after send: got %#08x, want %#08x", got, want)
	}
}

func TestSendSlot0Sequence(t *testing.T) {
	d, board := newTestDAC(t)

	if err := d.Set(0, 100); err != nil {
		t.Fatalf("Set: %v", err)
	}
	// Trap release, trap re-arm shifting out the trailing 0x00, and
	// the final park on pulled-up SD3, in that order.
	want := []uint32{
		regs.TSLXSD2 | regs.TSLRSD3 | regs.TSLSIBA2,
		regs.TSLXSD2 | regs.TSLXFIFO2 | regs.TSLRSD2 | regs.TSLSIBA2 | regs.TSLEOS,
		regs.TSLRSD3 | regs.TSLSIBA2 | regs.TSLEOS,
	}
	n := len(board.Slot0Records)
	if n < len(want) {
		t.Fatalf("slot 0 records: got %d, want at least %d", n, len(want))
	}
	if diff := cmp.Diff(want, board.Slot0Records[n-3:]); diff != "" {
		t.Errorf("slot 0 sequence (-want +got):\n%s", diff)
	}
}

func TestWriteTrimPacket(t *testing.T) {
	d, board := newTestDAC(t)

	// Logical trim channel 3 is physical channel 3.
	if err := d.WriteTrim(3, 0x5C); err != nil {
		t.Fatalf("WriteTrim: %v", err)
	}
	if got := board.DACWords[len(board.DACWords)-1]; got != 0x035C {
		t.Errorf("trim packet: got %#08x, want 0x0000035C", got)
	}
	if d.TrimSetpoint(3) != 0x5C {
		t.Errorf("setpoint shadow: got %#02x, want 0x5C", d.TrimSetpoint(3))
	}
	// Trim writes address the trim device on slots 2-3 and keep the
	// clock running through main DAC device 0.
	if board.Slot(2)&regs.TSLWS3 == 0 {
		t.Error("slot 2 must select the trim DAC device")
	}
	if board.Slot(4)&regs.TSLWS1 == 0 {
		t.Error("slot 4 must select main DAC device 0")
	}
}

func TestLoadTrims(t *testing.T) {
	d, board := newTestDAC(t)

	setpoints := make([]uint8, TrimChannels)
	for i := range setpoints {
		setpoints[i] = uint8(0x10 + i)
	}
	if err := d.LoadTrims(setpoints); err != nil {
		t.Fatalf("LoadTrims: %v", err)
	}
	var want []uint32
	for i, phys := range trimChan {
		want = append(want, uint32(phys)<<8|uint32(setpoints[i]))
	}
	if diff := cmp.Diff(want, board.DACWords); diff != "" {
		t.Errorf("trim packets (-want +got):\n%s", diff)
	}
}

func TestSendPhaseTimeouts(t *testing.T) {
	cases := []struct {
		name  string
		stick func(*sim.Board)
		phase string
	}{
		{"dma", func(b *sim.Board) { b.DACDMAStuck = true }, "dma"},
		{"fifo", func(b *sim.Board) { b.DACFIFOStuck = true }, "fifo"},
		{"trap", func(b *sim.Board) { b.DACTrapStuck = true }, "trap"},
		{"park", func(b *sim.Board) { b.DACParkStuck = true }, "park"},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			d, board := newTestDAC(t)
			c.stick(board)
			err := d.Set(0, 1)
			var timeout ErrProtocolTimeout
			if !errors.As(err, &timeout) {
				t.Fatalf("Set: got %v, want protocol timeout", err)
			}
			if timeout.Phase != c.phase {
				t.Errorf("phase: got %q, want %q", timeout.Phase, c.phase)
			}
		})
	}
}

func TestBackToBackSends(t *testing.T) {
	d, board := newTestDAC(t)

	for i := 0; i < 3; i++ {
		if err := d.Set(0, int16(i*100)); err != nil {
			t.Fatalf("send %d: %v", i, err)
		}
	}
	if len(board.DACWords) != 3 {
		t.Errorf("sends recorded: got %d, want 3", len(board.DACWords))
	}
}
