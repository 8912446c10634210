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

package config

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
)

func TestPersistLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), ConfigDir, ConfigFile)

	cfg := NewDefaultConfig()
	cfg.filepath = path
	cfg.LogLevel = "debug"
	cfg.Api.Port = 9999
	cfg.Trim.Setpoints[0] = 0x42
	if err := cfg.Persist(false); err != nil {
		t.Fatalf("Persist: %v", err)
	}

	loaded := NewDefaultConfig()
	loaded.filepath = path
	if err := loaded.Load(); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if diff := cmp.Diff(cfg, loaded, cmpopts.IgnoreUnexported(Config{})); diff != "" {
		t.Errorf("config round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestPersistRefusesOverwrite(t *testing.T) {
	path := filepath.Join(t.TempDir(), ConfigFile)

	cfg := NewDefaultConfig()
	cfg.filepath = path
	if err := cfg.Persist(false); err != nil {
		t.Fatalf("Persist: %v", err)
	}

	var exists ErrConfigFileExists
	if err := cfg.Persist(false); !errors.As(err, &exists) {
		t.Fatalf("second Persist: got %v, want ErrConfigFileExists", err)
	}
	if err := cfg.Persist(true); err != nil {
		t.Errorf("Persist with overwrite: %v", err)
	}
}
