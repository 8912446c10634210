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

package digital

import (
	"github.com/spf13/cobra"

	"jinr.ru/greenlab/go-s626/pkg/command"
	"jinr.ru/greenlab/go-s626/pkg/config"
)

func NewOutCommand() *cobra.Command {
	var bank int
	var value uint16
	cfg := config.NewDefaultConfig()
	cfg.Load()
	cmd := &cobra.Command{
		Use:   "out",
		Short: "Set a DIO output bank",
		RunE: func(cmd *cobra.Command, args []string) error {
			apiClient := command.NewApiClient(cfg)
			return apiClient.DOWrite(bank, value)
		},
	}
	cmd.Flags().IntVar(&bank, BankOptionName, 0, "DIO bank, 0 to 2")
	cmd.Flags().Uint16Var(&value, ValueOptionName, 0, "Output bits, active low on the connector")
	return cmd
}

func NewOutReadCommand() *cobra.Command {
	var bank int
	cfg := config.NewDefaultConfig()
	cfg.Load()
	cmd := &cobra.Command{
		Use:   "outread",
		Short: "Read back a DIO output bank",
		RunE: func(cmd *cobra.Command, args []string) error {
			apiClient := command.NewApiClient(cfg)
			value, err := apiClient.DORead(bank)
			if err != nil {
				return err
			}
			cmd.Printf("%d: 0x%04x\n", bank, value)
			return nil
		},
	}
	cmd.Flags().IntVar(&bank, BankOptionName, 0, "DIO bank, 0 to 2")
	return cmd
}
