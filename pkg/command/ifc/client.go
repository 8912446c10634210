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

package ifc

import (
	"jinr.ru/greenlab/go-s626/pkg/acq"
	"jinr.ru/greenlab/go-s626/pkg/srv/control"
)

type ApiClient interface {
	RegRead(addr string) (*control.RegHex, error)
	RegWrite(addr, value string) error

	AIRead(chann int, range10V bool) (uint16, error)
	AOWrite(chann int, value uint16) error
	AORead(chann int) (uint16, error)

	DIRead(bank int) (uint16, error)
	DOWrite(bank int, value uint16) error
	DORead(bank int) (uint16, error)

	EncoderRead(chann int) (uint32, error)
	EncoderPreload(chann int, value uint32) error

	AcqStart(cmd acq.Command) error
	AcqTrigger() error
	AcqStop() error
	AcqStatus() (*control.AcqStatus, error)

	StateDump() (string, error)
}
