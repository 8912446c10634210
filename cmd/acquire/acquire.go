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

package acquire

import (
	"github.com/spf13/cobra"
)

const (
	ChannelsOptionName   = "channels"
	Range10VOptionName   = "range10v"
	StartOptionName      = "start"
	StartLineOptionName  = "start-line"
	ScanOptionName       = "scan"
	ScanPeriodOptionName = "scan-period"
	ScanLineOptionName   = "scan-line"
	ConvOptionName       = "conv"
	ConvPeriodOptionName = "conv-period"
	ConvLineOptionName   = "conv-line"
	CountOptionName      = "count"
)

func NewCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "acquire",
		Short: "Scanned analog acquisition",
	}
	cmd.AddCommand(NewStartCommand())
	cmd.AddCommand(NewTriggerCommand())
	cmd.AddCommand(NewStopCommand())
	cmd.AddCommand(NewStatusCommand())
	return cmd
}
