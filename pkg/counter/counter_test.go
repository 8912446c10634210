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
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"jinr.ru/greenlab/go-s626/pkg/debi"
	"jinr.ru/greenlab/go-s626/pkg/hw"
	"jinr.ru/greenlab/go-s626/pkg/regs"
	"jinr.ru/greenlab/go-s626/pkg/sim"
)

func newTestBank(t *testing.T) (*Bank, *sim.Board) {
	t.Helper()
	board := sim.NewBoard(hw.NewSimAllocator())
	poll := hw.NewPoll(16, time.Microsecond).WithSleep(func(time.Duration) {})
	return NewBank(debi.New(board, poll)), board
}

// normalize maps a requested mode to the mode the hardware will report
// back after programming.
func normalize(m Mode) Mode {
	switch m.Encoder {
	case ModeTimer, ModeExtender:
		m.ClkMult = Mult1X
	default:
		m.ClkMult = normMult(m.ClkMult)
	}
	if m.IndexSrc == IndexSoft {
		m.IndexPol = PolPos
	}
	return m
}

func TestModeRoundTrip(t *testing.T) {
	modes := []Mode{
		{
			Encoder:  ModeCounter,
			ClkMult:  Mult4X,
			ClkPol:   PolNeg,
			ClkEnab:  EnabIndex,
			IndexSrc: IndexEncoder,
			IndexPol: PolNeg,
			LoadSrc:  LoadOnIndex,
			IntSrc:   IntIndex,
		},
		{
			Encoder:  ModeCounter,
			ClkMult:  MultSpecial, // reads back as 1x
			IndexSrc: IndexSoft,
			IndexPol: PolNeg, // forced positive for a soft index
			LoadSrc:  LoadNone,
			IntSrc:   IntBoth,
		},
		{
			Encoder:  ModeTimer,
			ClkPol:   CountDown,
			ClkMult:  Mult2X, // timers always run at 1x
			ClkEnab:  EnabAlways,
			IndexSrc: IndexDisabled,
			LoadSrc:  LoadOnOverflow,
			IntSrc:   IntOverflow,
		},
	}

	for n := 0; n < regs.EncoderChannels; n++ {
		bank, _ := newTestBank(t)
		ch := bank.Chan(n)
		for i, m := range modes {
			if err := ch.SetMode(m, false); err != nil {
				t.Fatalf("chan %d mode %d: SetMode: %v", n, i, err)
			}
			got, err := ch.GetMode()
			if err != nil {
				t.Fatalf("chan %d mode %d: GetMode: %v", n, i, err)
			}
			if diff := cmp.Diff(normalize(m), got); diff != "" {
				t.Errorf("chan %d mode %d mismatch (-want +got):\n%s", n, i, diff)
			}
		}
	}
}

func TestExtenderModeRoundTrip(t *testing.T) {
	bank, _ := newTestBank(t)
	ch := bank.Chan(3) // 0B; extender mode is a family B feature

	want := Mode{
		Encoder:  ModeExtender,
		ClkPol:   CountDown,
		ClkEnab:  EnabAlways,
		IndexSrc: IndexDigIn,
		IndexPol: PolNeg,
		LoadSrc:  LoadOnOverA,
		IntSrc:   IntNone,
	}
	if err := ch.SetMode(want, false); err != nil {
		t.Fatalf("SetMode: %v", err)
	}
	got, err := ch.GetMode()
	if err != nil {
		t.Fatalf("GetMode: %v", err)
	}
	if diff := cmp.Diff(normalize(want), got); diff != "" {
		t.Errorf("mode mismatch (-want +got):\n%s", diff)
	}
}

// Channels 0A and 0B share one CRA/CRB pair; programming one must not
// disturb the other's reported mode.
func TestSiblingIsolation(t *testing.T) {
	bank, _ := newTestBank(t)
	a := bank.Chan(0)
	b := bank.Chan(3)

	modeA := Mode{
		Encoder:  ModeCounter,
		ClkMult:  Mult2X,
		ClkPol:   PolNeg,
		ClkEnab:  EnabAlways,
		IndexSrc: IndexDigIn,
		IndexPol: PolNeg,
		LoadSrc:  LoadOnIndex,
		IntSrc:   IntIndex,
	}
	modeB := Mode{
		Encoder:  ModeTimer,
		ClkPol:   CountUp,
		ClkEnab:  EnabIndex,
		IndexSrc: IndexEncoder,
		LoadSrc:  LoadOnOverflow,
		IntSrc:   IntOverflow,
	}

	if err := a.SetMode(modeA, false); err != nil {
		t.Fatalf("SetMode 0A: %v", err)
	}
	if err := b.SetMode(modeB, false); err != nil {
		t.Fatalf("SetMode 0B: %v", err)
	}

	gotA, err := a.GetMode()
	if err != nil {
		t.Fatalf("GetMode 0A: %v", err)
	}
	if diff := cmp.Diff(normalize(modeA), gotA); diff != "" {
		t.Errorf("0A disturbed by 0B write (-want +got):\n%s", diff)
	}
	gotB, err := b.GetMode()
	if err != nil {
		t.Fatalf("GetMode 0B: %v", err)
	}
	if diff := cmp.Diff(normalize(modeB), gotB); diff != "" {
		t.Errorf("0B mismatch (-want +got):\n%s", diff)
	}
}

func TestSetIntSrcUpdatesEnableImage(t *testing.T) {
	bank, _ := newTestBank(t)

	ch1 := bank.Chan(1) // 1A
	ch5 := bank.Chan(5) // 2B

	if err := ch1.SetIntSrc(IntBoth); err != nil {
		t.Fatalf("SetIntSrc 1A: %v", err)
	}
	if err := ch5.SetIntSrc(IntOverflow); err != nil {
		t.Fatalf("SetIntSrc 2B: %v", err)
	}
	want := ch1.IndexMask() | ch1.OverMask() | ch5.OverMask()
	if got := bank.IntEnabs(); got != want {
		t.Errorf("enable image: got %#04x, want %#04x", got, want)
	}

	// Narrowing 1A to index-only withdraws its overflow bit.
	if err := ch1.SetIntSrc(IntIndex); err != nil {
		t.Fatalf("SetIntSrc 1A: %v", err)
	}
	want = ch1.IndexMask() | ch5.OverMask()
	if got := bank.IntEnabs(); got != want {
		t.Errorf("enable image after narrow: got %#04x, want %#04x", got, want)
	}

	// Suppressing interrupts in SetMode clears the channel's bits and
	// reads back as disabled.
	if err := ch5.SetMode(Mode{Encoder: ModeCounter, IntSrc: IntBoth}, true); err != nil {
		t.Fatalf("SetMode 2B: %v", err)
	}
	if got := bank.IntEnabs(); got != ch1.IndexMask() {
		t.Errorf("enable image after suppress: got %#04x, want %#04x",
			got, ch1.IndexMask())
	}
	src, err := ch5.GetIntSrc()
	if err != nil {
		t.Fatalf("GetIntSrc 2B: %v", err)
	}
	if src != IntNone {
		t.Errorf("suppressed int src: got %d, want %d", src, IntNone)
	}
}

func TestPreloadReadLatch(t *testing.T) {
	bank, board := newTestBank(t)
	ch := bank.Chan(2) // 2A

	if err := ch.Preload(0xBEEF1234); err != nil {
		t.Fatalf("Preload: %v", err)
	}
	if lsw := board.LP(regs.LPCntr2ALSW); lsw != 0x1234 {
		t.Errorf("preload LSW: got %#04x, want 0x1234", lsw)
	}
	if msw := board.LP(regs.LPCntr2ALSW + 2); msw != 0xBEEF {
		t.Errorf("preload MSW: got %#04x, want 0xBEEF", msw)
	}

	board.SetLP(regs.LPCntr0BLSW, 0x5678)
	board.SetLP(regs.LPCntr0BLSW+2, 0x0CAF)
	got, err := bank.Chan(3).ReadLatch()
	if err != nil {
		t.Fatalf("ReadLatch: %v", err)
	}
	if got != 0x0CAF5678 {
		t.Errorf("latch: got %#08x, want 0x0CAF5678", got)
	}
}

func TestPulseIndexRestoresRegister(t *testing.T) {
	bank, board := newTestBank(t)

	for _, n := range []int{0, 3} {
		ch := bank.Chan(n)
		if err := ch.SetMode(Mode{
			Encoder:  ModeCounter,
			IndexSrc: IndexSoft,
			LoadSrc:  LoadOnIndex,
		}, true); err != nil {
			t.Fatalf("chan %d: SetMode: %v", n, err)
		}
		craBefore := board.LP(regs.LPCR0A)
		crbBefore := board.LP(regs.LPCR0B)
		if err := ch.PulseIndex(); err != nil {
			t.Fatalf("chan %d: PulseIndex: %v", n, err)
		}
		if got := board.LP(regs.LPCR0A); got != craBefore {
			t.Errorf("chan %d: CRA after pulse: got %#04x, want %#04x",
				n, got, craBefore)
		}
		// CRB reads back with the write-only strobes clear.
		if got, want := board.LP(regs.LPCR0B), crbBefore&^regs.CRBMaskIntCtrl; got != want {
			t.Errorf("chan %d: CRB after pulse: got %#04x, want %#04x",
				n, got, want)
		}
	}
}

func TestEventMaskLayout(t *testing.T) {
	bank, _ := newTestBank(t)

	seen := map[uint16]int{}
	for n := 0; n < regs.EncoderChannels; n++ {
		ch := bank.Chan(n)
		for _, m := range []uint16{ch.IndexMask(), ch.OverMask()} {
			if m == 0 || m&(m-1) != 0 {
				t.Errorf("chan %d: mask %#04x is not a single bit", n, m)
			}
			if prev, dup := seen[m]; dup {
				t.Errorf("chan %d: mask %#04x collides with chan %d", n, m, prev)
			}
			seen[m] = n
		}
	}
}
