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
	"sort"
	"strconv"

	"jinr.ru/greenlab/go-s626/pkg/regs"
)

// RegMap names the gate-array local registers addressable through the
// peek/poke API.  Addresses are in pkg/regs.
var RegMap = map[string]uint16{
	"cr0a": regs.LPCR0A,
	"cr0b": regs.LPCR0B,
	"cr1a": regs.LPCR1A,
	"cr1b": regs.LPCR1B,
	"cr2a": regs.LPCR2A,
	"cr2b": regs.LPCR2B,

	"cntr0a": regs.LPCntr0ALSW,
	"cntr1a": regs.LPCntr1ALSW,
	"cntr2a": regs.LPCntr2ALSW,
	"cntr0b": regs.LPCntr0BLSW,
	"cntr1b": regs.LPCntr1BLSW,
	"cntr2b": regs.LPCntr2BLSW,

	"dacpol": regs.LPDACPol,
	"gsel":   regs.LPGSel,
	"isel":   regs.LPISel,
	"misc1":  regs.LPMisc1,
	"misc2":  regs.LPRdMisc2,

	"din0":    regs.LPRdDIn(0),
	"din1":    regs.LPRdDIn(1),
	"din2":    regs.LPRdDIn(2),
	"dout0":   regs.LPWrDOut(0),
	"dout1":   regs.LPWrDOut(1),
	"dout2":   regs.LPWrDOut(2),
	"intsel0": regs.LPWrIntSel(0),
	"intsel1": regs.LPWrIntSel(1),
	"intsel2": regs.LPWrIntSel(2),
	"edgsel0": regs.LPWrEdgSel(0),
	"edgsel1": regs.LPWrEdgSel(1),
	"edgsel2": regs.LPWrEdgSel(2),
	"capsel0": regs.LPWrCapSel(0),
	"capsel1": regs.LPWrCapSel(1),
	"capsel2": regs.LPWrCapSel(2),
	"capflg0": regs.LPRdCapFlg(0),
	"capflg1": regs.LPRdCapFlg(1),
	"capflg2": regs.LPRdCapFlg(2),
}

// ParseRegAddr resolves a register named either by its RegMap alias or
// by a numeric address, e.g. "0x0088".
func ParseRegAddr(name string) (uint16, error) {
	if addr, ok := RegMap[name]; ok {
		return addr, nil
	}
	addr, err := strconv.ParseUint(name, 0, 16)
	if err != nil {
		return 0, ErrNoSuchReg{Name: name}
	}
	return uint16(addr), nil
}

// RegNames returns the known register aliases in stable order.
func RegNames() []string {
	names := make([]string, 0, len(RegMap))
	for name := range RegMap {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
