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

package control

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"jinr.ru/greenlab/go-s626/pkg/acq"
	"jinr.ru/greenlab/go-s626/pkg/config"
)

func TestRunDeliversScans(t *testing.T) {
	cfg := config.NewDefaultConfig()
	cfg.DBPath = filepath.Join(t.TempDir(), "state.db")
	cfg.Api.Host = "127.0.0.1"
	cfg.Api.Port = 0

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	srv, err := NewControlServer(ctx, cfg)
	if err != nil {
		t.Fatalf("NewControlServer: %v", err)
	}
	s := srv.(*ControlServer)
	go s.Run()

	cmd := acq.Command{
		Channels:  []acq.Channel{{Chan: 0}, {Chan: 1}},
		Stop:      acq.StopCount,
		StopCount: 2,
	}
	if err := s.Device().Submit(cmd); err != nil {
		t.Fatalf("Submit: %v", err)
	}

	select {
	case <-s.Device().Done():
	case <-time.After(2 * time.Second):
		t.Fatal("acquisition never completed")
	}

	deadline := time.After(2 * time.Second)
	for {
		if _, num := s.LastScan(); num > 0 {
			return
		}
		select {
		case <-deadline:
			t.Fatal("no scan recorded")
		case <-time.After(5 * time.Millisecond):
		}
	}
}
