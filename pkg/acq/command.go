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

import (
	"jinr.ru/greenlab/go-s626/pkg/dio"
	"jinr.ru/greenlab/go-s626/pkg/regs"
	"jinr.ru/greenlab/go-s626/pkg/rps"
)

// StartSrc selects how an armed command begins executing.
type StartSrc int

const (
	StartNow  StartSrc = iota // run immediately on submit
	StartSoft                 // wait for a software Trigger call
	StartExt                  // wait for an edge on a digital line
)

// ScanSrc selects what initiates each pass over the channel list.
type ScanSrc int

const (
	ScanFollow ScanSrc = iota // scans follow each other freely
	ScanTimer                 // paced by the scan interval timer
	ScanExt                   // an edge on a digital line per scan
)

// ConvSrc selects what initiates each conversion within a scan.
type ConvSrc int

const (
	ConvNow   ConvSrc = iota // conversions run back to back
	ConvTimer                // paced by the conversion interval timer
	ConvExt                  // an edge on a digital line per conversion
)

// StopSrc selects when the acquisition finishes.
type StopSrc int

const (
	StopCount StopSrc = iota // after a fixed number of scans
	StopNone                 // runs until canceled
)

// Round selects how timer periods round to the 500 ns timer grid.
type Round int

const (
	RoundNearest Round = iota
	RoundDown
	RoundUp
)

// Timing bounds for timer-paced scans and conversions, and the largest
// representable scan count.
const (
	MinPeriodNS  = 200000     // fastest supported pacing, 200 us
	MaxPeriodNS  = 2000000000 // slowest supported pacing, 2 s
	MaxStopCount = 0x00FFFFFF
)

// timerBaseNS is the period of one timer tick; the pacing counters run
// from a 2 MHz internal clock.
const timerBaseNS = 500

// Channel names one analog input and its gain range.
type Channel struct {
	Chan    int
	Range5V bool
}

// Command describes one acquisition: its trigger structure, pacing,
// stop condition and channel list.  Line fields name digital channels
// for the external trigger sources; PeriodNS fields give timer pacing
// in nanoseconds.
type Command struct {
	Start     StartSrc
	StartLine int

	ScanBegin    ScanSrc
	ScanPeriodNS int
	ScanLine     int

	Convert      ConvSrc
	ConvPeriodNS int
	ConvLine     int

	Stop      StopSrc
	StopCount int

	Channels []Channel
	Round    Round
}

// nsToTimer converts a period in nanoseconds to a pacing counter
// preload value, returning the tick count and the period actually
// realized.
func nsToTimer(ns int, r Round) (int, int) {
	var divider int
	switch r {
	case RoundDown:
		divider = ns / timerBaseNS
	case RoundUp:
		divider = (ns + timerBaseNS - 1) / timerBaseNS
	default:
		divider = (ns + timerBaseNS/2) / timerBaseNS
	}
	return divider - 1, divider * timerBaseNS
}

func validLine(line int) bool {
	return line >= 0 && line < dio.Channels-8 // lines 0..39 can interrupt
}

// Validate checks a command and returns a normalized copy: timer
// periods are rounded to the tick grid and a timer-paced scan period is
// raised to cover its conversions.  The original command is not
// modified; nothing touches hardware.
func (c Command) Validate() (Command, error) {
	if len(c.Channels) == 0 {
		return c, ErrInvalidCommand{"channels", "empty channel list"}
	}
	if len(c.Channels) > rps.MaxSlots {
		return c, ErrInvalidCommand{"channels", "more than 16 channels"}
	}
	for _, ch := range c.Channels {
		if ch.Chan < 0 || ch.Chan >= regs.ADCChannels {
			return c, ErrInvalidCommand{"channels", "channel out of range"}
		}
	}

	if c.Start == StartExt && !validLine(c.StartLine) {
		return c, ErrInvalidCommand{"start", "trigger line out of range"}
	}
	if c.ScanBegin == ScanExt && !validLine(c.ScanLine) {
		return c, ErrInvalidCommand{"scan_begin", "trigger line out of range"}
	}
	if c.Convert == ConvExt && !validLine(c.ConvLine) {
		return c, ErrInvalidCommand{"convert", "trigger line out of range"}
	}

	if c.ScanBegin == ScanTimer {
		if c.ScanPeriodNS < MinPeriodNS || c.ScanPeriodNS > MaxPeriodNS {
			return c, ErrInvalidCommand{"scan_begin", "period out of range"}
		}
		_, c.ScanPeriodNS = nsToTimer(c.ScanPeriodNS, c.Round)
	}
	if c.Convert == ConvTimer {
		if c.ConvPeriodNS < MinPeriodNS || c.ConvPeriodNS > MaxPeriodNS {
			return c, ErrInvalidCommand{"convert", "period out of range"}
		}
		_, c.ConvPeriodNS = nsToTimer(c.ConvPeriodNS, c.Round)

		// A scan must be long enough to hold all its conversions.
		if c.ScanBegin == ScanTimer {
			min := c.ConvPeriodNS * len(c.Channels)
			if c.ScanPeriodNS < min {
				c.ScanPeriodNS = min
			}
		}
	}

	switch c.Stop {
	case StopCount:
		if c.StopCount <= 0 || c.StopCount > MaxStopCount {
			return c, ErrInvalidCommand{"stop", "scan count out of range"}
		}
	case StopNone:
		if c.StopCount != 0 {
			return c, ErrInvalidCommand{"stop", "scan count set without a count stop"}
		}
	}
	return c, nil
}

// pollList converts the channel list to the poll list format the scan
// program builder consumes.
func (c Command) pollList() []uint8 {
	poll := make([]uint8, len(c.Channels))
	for i, ch := range c.Channels {
		poll[i] = rps.Item(ch.Chan, ch.Range5V, i == len(c.Channels)-1)
	}
	return poll
}
