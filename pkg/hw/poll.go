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
	"time"
)

// Poll is a bounded busy-wait: re-evaluate a condition up to Budget
// times, sleeping Interval between attempts.  Every hardware handshake
// wait in the driver goes through this one primitive so that timeout
// semantics stay uniform and testable.
type Poll struct {
	Budget   int
	Interval time.Duration

	// sleep is replaceable in tests; nil means time.Sleep.
	sleep func(time.Duration)
}

// NewPoll returns a Poll with the given iteration budget and per-attempt
// interval.
func NewPoll(budget int, interval time.Duration) Poll {
	return Poll{Budget: budget, Interval: interval}
}

// WithSleep returns a copy of the Poll that uses fn instead of
// time.Sleep between attempts.
func (p Poll) WithSleep(fn func(time.Duration)) Poll {
	p.sleep = fn
	return p
}

// Until busy-waits until cond returns true or the budget is exhausted.
func (p Poll) Until(cond func() bool) error {
	sleep := p.sleep
	if sleep == nil {
		sleep = time.Sleep
	}
	for i := 0; i < p.Budget; i++ {
		if cond() {
			return nil
		}
		sleep(p.Interval)
	}
	return ErrPollTimeout{Budget: p.Budget, Interval: p.Interval}
}
