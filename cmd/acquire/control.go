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

	"jinr.ru/greenlab/go-s626/pkg/command"
	"jinr.ru/greenlab/go-s626/pkg/config"
)

func NewTriggerCommand() *cobra.Command {
	cfg := config.NewDefaultConfig()
	cfg.Load()
	return &cobra.Command{
		Use:   "trigger",
		Short: "Release an armed soft-start acquisition",
		RunE: func(cmd *cobra.Command, args []string) error {
			apiClient := command.NewApiClient(cfg)
			return apiClient.AcqTrigger()
		},
	}
}

func NewStopCommand() *cobra.Command {
	cfg := config.NewDefaultConfig()
	cfg.Load()
	return &cobra.Command{
		Use:   "stop",
		Short: "Cancel a running acquisition",
		RunE: func(cmd *cobra.Command, args []string) error {
			apiClient := command.NewApiClient(cfg)
			return apiClient.AcqStop()
		},
	}
}

func NewStatusCommand() *cobra.Command {
	cfg := config.NewDefaultConfig()
	cfg.Load()
	return &cobra.Command{
		Use:   "status",
		Short: "Show acquisition state and the last scan",
		RunE: func(cmd *cobra.Command, args []string) error {
			apiClient := command.NewApiClient(cfg)
			status, err := apiClient.AcqStatus()
			if err != nil {
				return err
			}
			cmd.Printf("state: %s\n", status.State)
			cmd.Printf("scans: %d\n", status.ScanNum)
			if len(status.LastScan) > 0 {
				cmd.Printf("last: %v\n", status.LastScan)
			}
			return nil
		},
	}
}
