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

type ControlServer interface {
	Run() error
}

type ApiServer interface {
	Run() error
}

// State persists board settings that the hardware cannot read back:
// analog output setpoints and shadowed register pokes.
type State interface {
	SetAO(chann int, value uint16) error
	GetAO(chann int) (uint16, error)

	SetReg(addr uint16, value uint16) error
	GetReg(addr uint16) (uint16, error)
	RegAll() (map[uint16]uint16, error)

	Close()
}
