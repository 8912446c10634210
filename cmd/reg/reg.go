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

package reg

import (
	"strings"

	"github.com/spf13/cobra"

	"jinr.ru/greenlab/go-s626/pkg/device"
)

const (
	AddrOptionName  = "addr"
	ValueOptionName = "value"
)

func NewCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "reg",
		Short: "Read/write gate-array local registers",
		Long: "Registers are addressed by alias or hexadecimal address.\n" +
			"Known aliases: " + strings.Join(device.RegNames(), " "),
	}
	cmd.AddCommand(NewGetCommand())
	cmd.AddCommand(NewSetCommand())
	cmd.AddCommand(NewDumpCommand())
	return cmd
}
