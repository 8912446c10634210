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

package acq

import "fmt"

// ErrInvalidCommand reports a command rejected by validation; nothing
// has touched the hardware.
type ErrInvalidCommand struct {
	Field  string
	Reason string
}

func (e ErrInvalidCommand) Error() string {
	return fmt.Sprintf("invalid command: %s: %s", e.Field, e.Reason)
}

// ErrBusy reports a command submitted while another one is active.
type ErrBusy struct {
}

func (e ErrBusy) Error() string {
	return "an acquisition command is already active"
}

// ErrNotArmed reports a software trigger with no armed command waiting
// for one.
type ErrNotArmed struct {
}

func (e ErrNotArmed) Error() string {
	return "no armed command awaits a software trigger"
}
