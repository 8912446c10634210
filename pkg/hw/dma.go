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

// DMARegion is a physically contiguous buffer visible to both the CPU
// and the board.  Words is the CPU view; PhysBase is the device-physical
// address the board uses, needed because RPS jump targets and store
// targets encode physical addresses.
type DMARegion struct {
	Words    []uint32
	PhysBase uint32
}

// Allocator hands out DMA regions.  The platform layer provides one; a
// simulated allocator backs the tests.
type Allocator interface {
	Alloc(size int) (*DMARegion, error)
}

// SimAllocator is a host-memory allocator for environments without real
// DMA, assigning fake but distinct physical base addresses.  The
// simulator resolves them back to the regions it handed out.
type SimAllocator struct {
	next    uint32
	Regions []*DMARegion
}

func NewSimAllocator() *SimAllocator {
	return &SimAllocator{next: 0x100000}
}

func (a *SimAllocator) Alloc(size int) (*DMARegion, error) {
	if size <= 0 {
		return nil, ErrNoMemory{Size: size}
	}
	r := &DMARegion{
		Words:    make([]uint32, size/4),
		PhysBase: a.next,
	}
	a.next += uint32(size)
	a.Regions = append(a.Regions, r)
	return r, nil
}

// Lookup resolves a physical address to a region and word index.
func (a *SimAllocator) Lookup(phys uint32) (*DMARegion, int, bool) {
	for _, r := range a.Regions {
		end := r.PhysBase + uint32(len(r.Words))*4
		if phys >= r.PhysBase && phys < end {
			return r, int(phys-r.PhysBase) / 4, true
		}
	}
	return nil, 0, false
}
