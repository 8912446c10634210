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

package dac

import "fmt"

// ErrProtocolTimeout is returned when one phase of the serial send
// handshake fails to complete within the poll budget.  Phase is one of
// "dma", "fifo", "trap", "park".
type ErrProtocolTimeout struct {
	Phase string
}

func (e ErrProtocolTimeout) Error() string {
	return fmt.Sprintf("dac send %s phase timed out", e.Phase)
}
