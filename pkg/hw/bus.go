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

// Package hw defines the contracts the platform layer provides to the
// driver: 32-bit memory-mapped register access, DMA-capable memory and
// a bounded busy-wait primitive.  Everything above this package talks
// to the board exclusively through these interfaces.
package hw

// Bus is 32-bit-aligned access to the primary register window.  No
// endianness conversion is performed beyond the platform's native
// access.
type Bus interface {
	Read32(offset uint32) uint32
	Write32(offset uint32, value uint32)
}

// MCEnable sets function bit(s) in a main control register.  The upper
// halfword carries the write-enable mask for the bits being set.
func MCEnable(b Bus, cmd uint32, reg uint32) {
	b.Write32(reg, cmd<<16|cmd)
}

// MCDisable clears function bit(s) in a main control register.
func MCDisable(b Bus, cmd uint32, reg uint32) {
	b.Write32(reg, cmd<<16)
}

// MCTest reports whether function bit(s) in a main control register are
// currently set.
func MCTest(b Bus, cmd uint32, reg uint32) bool {
	return b.Read32(reg)&cmd != 0
}
