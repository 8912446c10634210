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

func NewReadCommand() *cobra.Command {
	var chann int
	var range10V bool
	cfg := config.NewDefaultConfig()
	cfg.Load()
	cmd := &cobra.Command{
		Use:   "read",
		Short: "Read single ADC sample",
		RunE: func(cmd *cobra.Command, args []string) error {
			apiClient := command.NewApiClient(cfg)
			value, err := apiClient.AIRead(chann, range10V)
			if err != nil {
				return err
			}
			cmd.Printf("%d: %d\n", chann, value)
			return nil
		},
	}
	cmd.Flags().IntVar(&chann, ChanOptionName, 0, "ADC channel, 0 to 15")
	cmd.Flags().BoolVar(&range10V, RangeOptionName, false, "Use the 10V input range instead of 5V")
	return cmd
}
