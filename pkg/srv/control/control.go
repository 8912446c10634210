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

// Package control runs the board control server: it owns the device,
// persists its state and exposes the HTTP API.
package control

import (
	"context"
	"sync"
	"time"

	"jinr.ru/greenlab/go-s626/pkg/acq"
	"jinr.ru/greenlab/go-s626/pkg/config"
	"jinr.ru/greenlab/go-s626/pkg/device"
	deviceifc "jinr.ru/greenlab/go-s626/pkg/device/ifc"
	"jinr.ru/greenlab/go-s626/pkg/hw"
	"jinr.ru/greenlab/go-s626/pkg/log"
	"jinr.ru/greenlab/go-s626/pkg/regs"
	"jinr.ru/greenlab/go-s626/pkg/sim"
	"jinr.ru/greenlab/go-s626/pkg/srv/control/ifc"
)

// scanPumpPeriod paces end-of-scan delivery on the software board.
const scanPumpPeriod = 10 * time.Millisecond

type ControlServer struct {
	context.Context
	*config.Config
	device deviceifc.Device
	board  *sim.Board
	state  *BoardState
	api    ifc.ApiServer

	mu       sync.Mutex
	lastScan []uint16
	scanNum  uint64
}

var _ ifc.ControlServer = &ControlServer{}

// NewControlServer builds the server over the register-compatible
// software board.  A memory-mapped PCI window satisfying hw.Bus can
// take its place.
func NewControlServer(ctx context.Context, cfg *config.Config) (ifc.ControlServer, error) {
	log.Info("Initializing control server with address: %s port: %d", cfg.Api.Host, cfg.Api.Port)

	state, err := NewBoardState(cfg)
	if err != nil {
		return nil, err
	}

	alloc := hw.NewSimAllocator()
	board := sim.NewBoard(alloc)
	dev, err := device.NewDevice(board, alloc, cfg, state)
	if err != nil {
		state.Close()
		return nil, err
	}

	s := &ControlServer{
		Context: ctx,
		Config:  cfg,
		device:  dev,
		board:   board,
		state:   state,
	}

	apiServer, err := NewApiServer(ctx, cfg, s)
	if err != nil {
		state.Close()
		return nil, err
	}
	s.api = apiServer

	return s, nil
}

func (s *ControlServer) Run() error {
	defer s.state.Close()

	if err := s.device.Initialize(); err != nil {
		return err
	}
	defer s.device.Close()

	errChan := make(chan error, 1)

	// Drain completed scans so a slow or absent API consumer never
	// stalls the interrupt path.  The scan channel is refetched
	// periodically: each submitted command brings a fresh one.
	go func() {
		ticker := time.NewTicker(time.Second)
		defer ticker.Stop()
		for {
			select {
			case scan := <-s.device.Scans():
				s.keepScan(scan)
			case <-ticker.C:
			case <-s.Context.Done():
				return
			}
		}
	}()

	// The software board has no sequencer clock, so raise an
	// end-of-scan interrupt per pump tick while a command runs.
	// Scans surface at the pump period rather than the command's.
	go func() {
		ticker := time.NewTicker(scanPumpPeriod)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				if s.device.AcqState() == acq.Running {
					s.board.RaiseIRQ(regs.IRQRPS1)
					s.device.Interrupt()
				}
			case <-s.Context.Done():
				return
			}
		}
	}()

	go func() {
		errChan <- s.api.Run()
	}()

	select {
	case <-s.Context.Done():
		return s.Context.Err()
	case err := <-errChan:
		return err
	}
}

func (s *ControlServer) keepScan(scan []uint16) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastScan = scan
	s.scanNum++
}

// LastScan returns the most recent completed scan and its sequence
// number.
func (s *ControlServer) LastScan() ([]uint16, uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastScan, s.scanNum
}

func (s *ControlServer) Device() deviceifc.Device {
	return s.device
}

func (s *ControlServer) State() ifc.State {
	return s.state
}
