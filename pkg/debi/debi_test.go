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

package debi

import (
	"errors"
	"testing"
	"time"

	"jinr.ru/greenlab/go-s626/pkg/hw"
	"jinr.ru/greenlab/go-s626/pkg/regs"
	"jinr.ru/greenlab/go-s626/pkg/sim"
)

func newTestDEBI() (*DEBI, *sim.Board) {
	board := sim.NewBoard(hw.NewSimAllocator())
	poll := hw.NewPoll(16, time.Microsecond).WithSleep(func(time.Duration) {})
	return New(board, poll), board
}

func TestReadWrite(t *testing.T) {
	d, board := newTestDEBI()

	if err := d.Write(regs.LPGSel, 0x4321); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if v := board.LP(regs.LPGSel); v != 0x4321 {
		t.Errorf("register after write: got 0x%04x, want 0x4321", v)
	}

	board.SetLP(regs.LPISel, 0x00AA)
	v, err := d.Read(regs.LPISel)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if v != 0x00AA {
		t.Errorf("Read: got 0x%04x, want 0x00aa", v)
	}
}

func TestReplacePreservesBits(t *testing.T) {
	d, board := newTestDEBI()
	board.SetLP(regs.LPCR0B, 0xF00F)

	if err := d.Replace(regs.LPCR0B, 0xF000, 0x0050); err != nil {
		t.Fatalf("Replace: %v", err)
	}
	if v := board.LP(regs.LPCR0B); v != 0xF050 {
		t.Errorf("register after replace: got 0x%04x, want 0xf050", v)
	}
}

func TestUploadTimeout(t *testing.T) {
	d, board := newTestDEBI()
	board.DEBIUploadStuck = true

	err := d.Write(regs.LPGSel, 1)
	var timeout ErrBusTimeout
	if !errors.As(err, &timeout) {
		t.Fatalf("Write with stuck upload: got %v, want ErrBusTimeout", err)
	}
	if timeout.Phase != "upload" {
		t.Errorf("phase: got %q, want upload", timeout.Phase)
	}
}

func TestTransferTimeout(t *testing.T) {
	d, board := newTestDEBI()
	board.DEBIBusyStuck = true

	_, err := d.Read(regs.LPGSel)
	var timeout ErrBusTimeout
	if !errors.As(err, &timeout) {
		t.Fatalf("Read with stuck transfer: got %v, want ErrBusTimeout", err)
	}
	if timeout.Phase != "transfer" {
		t.Errorf("phase: got %q, want transfer", timeout.Phase)
	}
}
