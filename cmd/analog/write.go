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

package analog

import (
	"github.com/spf13/cobra"

	"jinr.ru/greenlab/go-s626/pkg/command"
	"jinr.ru/greenlab/go-s626/pkg/config"
)

func NewWriteCommand() *cobra.Command {
	var chann int
	var value uint16
	cfg := config.NewDefaultConfig()
	cfg.Load()
	cmd := &cobra.Command{
		Use:   "write",
		Short: "Set DAC output",
		RunE: func(cmd *cobra.Command, args []string) error {
			apiClient := command.NewApiClient(cfg)
			return apiClient.AOWrite(chann, value)
		},
	}
	cmd.Flags().IntVar(&chann, ChanOptionName, 0, "DAC channel, 0 to 3")
	cmd.Flags().Uint16Var(&value, ValueOptionName, 0, "Offset binary value, 0 to 16382")
	return cmd
}
