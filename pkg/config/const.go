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

const (
	ConfigDir  = ".go-s626"
	ConfigFile = "config"

	DefaultLogLevel = "info"
	DefaultApiHost  = "localhost"
	DefaultApiPort  = 8626
	DefaultDBFile   = "state.db"

	// Hardware handshake polling defaults, see pkg/hw.
	DefaultPollBudget     = 10000
	DefaultPollIntervalUS = 1

	// Number of trim DAC channels on the board.
	NumTrimChans = 11
)
