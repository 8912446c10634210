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

package hw

import (
	"fmt"
	"time"
)

// ErrPollTimeout returned when a bounded busy-wait exhausts its budget
type ErrPollTimeout struct {
	Budget   int
	Interval time.Duration
}

func (e ErrPollTimeout) Error() string {
	return fmt.Sprintf("Poll timed out after %d attempts at %s", e.Budget, e.Interval)
}

// ErrNoMemory returned when a DMA region cannot be allocated
type ErrNoMemory struct {
	Size int
}

func (e ErrNoMemory) Error() string {
	return fmt.Sprintf("Can not allocate DMA region of %d bytes", e.Size)
}
