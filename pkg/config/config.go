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
	"io/ioutil"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v2"
)

type ApiConfig struct {
	Host string `json:"host,omitempty"`
	Port int    `json:"port,omitempty"`
}

type PollConfig struct {
	Budget     int `json:"budget,omitempty"`
	IntervalUS int `json:"interval_us,omitempty"`
}

// TrimConfig carries the trim DAC calibration bytes for the board.
// The bytes originate in the board EEPROM; reading them is outside
// this driver, they are delivered here in logical channel order.
type TrimConfig struct {
	Setpoints []uint8 `json:"setpoints"`
}

type Config struct {
	LogLevel string      `json:"log_level,omitempty"`
	DBPath   string      `json:"db_path,omitempty"`
	Api      *ApiConfig  `json:"api,omitempty"`
	Poll     *PollConfig `json:"poll,omitempty"`
	Trim     *TrimConfig `json:"trim,omitempty"`
	filepath string
}

func (c *Config) Persist(overwrite bool) error {
	if _, err := os.Stat(c.filepath); err == nil && !overwrite {
		return ErrConfigFileExists{Path: c.filepath}
	}

	data, err := yaml.Marshal(&c)
	if err != nil {
		return err
	}

	dir := filepath.Dir(c.filepath)
	err = os.MkdirAll(dir, 0755)
	if err != nil {
		return err
	}

	err = ioutil.WriteFile(c.filepath, data, 0644)
	if err != nil {
		return err
	}

	return nil
}

func (c *Config) Load() error {
	data, err := ioutil.ReadFile(c.filepath)
	if err != nil {
		return err
	}
	return yaml.Unmarshal(data, c)
}

func DefaultConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		home = ""
	}
	return filepath.Join(home, ConfigDir, ConfigFile)
}

func DefaultDBPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		home = ""
	}
	return filepath.Join(home, ConfigDir, DefaultDBFile)
}

func NewDefaultConfig() *Config {
	return &Config{
		LogLevel: DefaultLogLevel,
		DBPath:   DefaultDBPath(),
		Api: &ApiConfig{
			Host: DefaultApiHost,
			Port: DefaultApiPort,
		},
		Poll: &PollConfig{
			Budget:     DefaultPollBudget,
			IntervalUS: DefaultPollIntervalUS,
		},
		Trim: &TrimConfig{
			Setpoints: make([]uint8, NumTrimChans),
		},
		filepath: DefaultConfigPath(),
	}
}
