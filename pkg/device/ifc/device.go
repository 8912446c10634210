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
	"jinr.ru/greenlab/go-s626/pkg/counter"
)

type Device interface {
	Initialize() error
	Close() error

	AIRead(chann int, range5V bool) (uint16, error)

	AOWrite(chann int, value uint16) error
	AORead(chann int) (uint16, error)

	EncoderSetMode(chann int, mode counter.Mode) error
	EncoderRead(chann int) (uint32, error)
	EncoderPreload(chann int, value uint32) error

	DIRead(bank int) (uint16, error)
	DOWrite(bank int, value uint16) error
	DORead(bank int) (uint16, error)

	RegRead(addr uint16) (uint16, error)
	RegWrite(addr uint16, value uint16) error

	Submit(cmd acq.Command) error
	Trigger() error
	Cancel() error
	AcqState() acq.State
	Scans() <-chan []uint16
	Done() <-chan struct{}
	Interrupt()
}
