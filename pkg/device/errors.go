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

package device

import (
	"fmt"
)

// ErrBadChannel returned when a channel number is outside the board's
// range for the given subsystem
type ErrBadChannel struct {
	What string
	Chan int
}

func (e ErrBadChannel) Error() string {
	return fmt.Sprintf("No such %s channel: %d", e.What, e.Chan)
}

// ErrBadValue returned when a value does not fit the target register
type ErrBadValue struct {
	What  string
	Value int
}

func (e ErrBadValue) Error() string {
	return fmt.Sprintf("Value out of range for %s: %d", e.What, e.Value)
}

// ErrNoSuchReg returned when a register name is neither a known alias
// nor a parseable address
type ErrNoSuchReg struct {
	Name string
}

func (e ErrNoSuchReg) Error() string {
	return fmt.Sprintf("No such register: %s", e.Name)
}
