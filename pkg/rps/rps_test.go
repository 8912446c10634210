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

package rps

import (
	"testing"

	"jinr.ru/greenlab/go-s626/pkg/hw"
	"jinr.ru/greenlab/go-s626/pkg/regs"
)

func newRegions(t *testing.T) (*hw.DMARegion, *hw.DMARegion) {
	t.Helper()
	alloc := hw.NewSimAllocator()
	prog, err := alloc.Alloc(regs.RPSBufSize)
	if err != nil {
		t.Fatalf("Alloc prog: %v", err)
	}
	data, err := alloc.Alloc(regs.DMABufSize)
	if err != nil {
		t.Fatalf("Alloc data: %v", err)
	}
	return prog, data
}

func pollList(n int) []uint8 {
	poll := make([]uint8, n)
	for i := range poll {
		poll[i] = Item(i, i%2 == 1, i == n-1)
	}
	return poll
}

// countOps counts instruction words matching op in the program prefix
// of length n.  Operand words of jumps and stores are skipped so data
// values cannot be miscounted as opcodes.
func countOps(words []uint32, n int, op uint32) int {
	count := 0
	for i := 0; i < n; i++ {
		w := words[i]
		if w&0xF0000000 == op&0xF0000000 && w&op == op {
			count++
		}
		if w&0xF0000000 == regs.RPSJump || w&0xFF000000 == regs.RPSStReg&0xFF000000 {
			i++ // skip the operand word
		}
	}
	return count
}

func TestBuildItemCounts(t *testing.T) {
	for n := 1; n <= MaxSlots; n++ {
		prog, data := newRegions(t)
		items := Build(prog, data, pollList(n), Options{})
		if items != n {
			t.Errorf("%d channels: got %d items", n, items)
		}
	}
}

func TestBuildTruncatesWithoutEOPL(t *testing.T) {
	prog, data := newRegions(t)
	// No entry carries the end-of-list flag.
	poll := make([]uint8, 20)
	for i := range poll {
		poll[i] = Item(i&0x0F, false, false)
	}
	if items := Build(prog, data, poll, Options{}); items != MaxSlots {
		t.Errorf("unterminated list: got %d items, want %d", items, MaxSlots)
	}
}

func TestBuildStoreTargets(t *testing.T) {
	prog, data := newRegions(t)
	n := 4
	end := wordLen(t, prog, data, pollList(n), Options{})

	// One store per channel plus the dummy conversion's store, each
	// preceded by a wait for the converter and targeting consecutive
	// sample words.
	var stores []uint32
	for i := 0; i < end; i++ {
		w := prog.Words[i]
		if w&0xFF000000 == regs.RPSStReg&0xFF000000 {
			stores = append(stores, prog.Words[i+1])
			i++
		} else if w&0xF0000000 == regs.RPSJump {
			i++
		}
	}
	if len(stores) != n+1 {
		t.Fatalf("stores: got %d, want %d", len(stores), n+1)
	}
	for i, target := range stores {
		want := data.PhysBase + uint32(i)*4
		if target != want {
			t.Errorf("store %d: target %#08x, want %#08x", i, target, want)
		}
	}
}

// wordLen rebuilds and returns the program length in words, located by
// the terminating jump back to the program base.
func wordLen(t *testing.T, prog, data *hw.DMARegion, poll []uint8, opts Options) int {
	t.Helper()
	Build(prog, data, poll, opts)
	for i := len(prog.Words) - 1; i > 0; i-- {
		if prog.Words[i] == prog.PhysBase &&
			prog.Words[i-1]&0xF0000000 == regs.RPSJump {
			return i + 1
		}
	}
	t.Fatal("no terminating jump found")
	return 0
}

func TestBuildTriggerStructure(t *testing.T) {
	poll := pollList(3)

	prog, data := newRegions(t)
	end := wordLen(t, prog, data, poll, Options{})
	free := countOps(prog.Words, end, regs.RPSPause|regs.RPSSigADC)
	if free != 0 {
		t.Errorf("free-running scan: %d trigger waits, want 0", free)
	}

	prog, data = newRegions(t)
	end = wordLen(t, prog, data, poll, Options{ScanTriggered: true})
	if got := countOps(prog.Words, end, regs.RPSPause|regs.RPSSigADC); got != 1 {
		t.Errorf("scan-triggered: %d trigger waits, want 1", got)
	}
	if prog.Words[0] != regs.RPSPause|regs.RPSSigADC {
		t.Errorf("scan trigger wait must open the program, got %#08x",
			prog.Words[0])
	}

	prog, data = newRegions(t)
	end = wordLen(t, prog, data, poll,
		Options{ScanTriggered: true, ConvertTriggered: true})
	if got := countOps(prog.Words, end, regs.RPSPause|regs.RPSSigADC); got != 1+len(poll) {
		t.Errorf("convert-triggered: %d trigger waits, want %d",
			got, 1+len(poll))
	}
}

func TestBuildIRQAndLoop(t *testing.T) {
	prog, data := newRegions(t)
	end := wordLen(t, prog, data, pollList(2), Options{IRQ: true})

	if prog.Words[end-2]&0xF0000000 != regs.RPSJump {
		t.Errorf("program must end with a jump, got %#08x", prog.Words[end-2])
	}
	if prog.Words[end-1] != prog.PhysBase {
		t.Errorf("loop target: got %#08x, want %#08x",
			prog.Words[end-1], prog.PhysBase)
	}
	if prog.Words[end-3] != regs.RPSIRQ {
		t.Errorf("interrupt request must precede the loop, got %#08x",
			prog.Words[end-3])
	}

	prog, data = newRegions(t)
	end = wordLen(t, prog, data, pollList(2), Options{})
	if prog.Words[end-3] == regs.RPSIRQ {
		t.Error("no interrupt request expected without IRQ option")
	}
}

func TestBuildSettlingDelays(t *testing.T) {
	prog, data := newRegions(t)
	n := 2
	end := wordLen(t, prog, data, pollList(n), Options{})

	// Each channel slot carries its settling delay as jump pairs, plus
	// the one terminating jump.
	jumps := 0
	for i := 0; i < end; i++ {
		w := prog.Words[i]
		if w&0xF0000000 == regs.RPSJump {
			jumps++
			i++
		} else if w&0xFF000000 == regs.RPSStReg&0xFF000000 {
			i++
		}
	}
	want := n*(10*regs.RPSClkPerUS/2) + 1
	if jumps != want {
		t.Errorf("jumps: got %d, want %d", jumps, want)
	}

	// The self-jump chains advance by one instruction pair each.
	first := -1
	for i := 0; i < end-1; i++ {
		if prog.Words[i]&0xF0000000 == regs.RPSJump &&
			prog.Words[i+1] == prog.PhysBase+uint32(i+2)*4 {
			first = i
			break
		}
	}
	if first < 0 {
		t.Fatal("no self-jump chain found")
	}
}

func TestBuildWorstCaseFits(t *testing.T) {
	prog, data := newRegions(t)
	poll := make([]uint8, MaxSlots)
	for i := range poll {
		poll[i] = Item(i, true, false)
	}
	end := wordLen(t, prog, data, poll,
		Options{ScanTriggered: true, ConvertTriggered: true, IRQ: true})
	if end > len(prog.Words) {
		t.Errorf("worst-case program %d words exceeds buffer %d",
			end, len(prog.Words))
	}
}
