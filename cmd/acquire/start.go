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
	"fmt"

	"github.com/spf13/cobra"

	"jinr.ru/greenlab/go-s626/pkg/acq"
	"jinr.ru/greenlab/go-s626/pkg/command"
	"jinr.ru/greenlab/go-s626/pkg/config"
)

var startSources = map[string]acq.StartSrc{
	"now":  acq.StartNow,
	"soft": acq.StartSoft,
	"ext":  acq.StartExt,
}

var scanSources = map[string]acq.ScanSrc{
	"follow": acq.ScanFollow,
	"timer":  acq.ScanTimer,
	"ext":    acq.ScanExt,
}

var convSources = map[string]acq.ConvSrc{
	"now":   acq.ConvNow,
	"timer": acq.ConvTimer,
	"ext":   acq.ConvExt,
}

func NewStartCommand() *cobra.Command {
	var channels []int
	var range10V bool
	var start, scan, conv string
	var startLine, scanLine, convLine int
	var scanPeriod, convPeriod int
	var count int
	cfg := config.NewDefaultConfig()
	cfg.Load()
	cmd := &cobra.Command{
		Use:   "start",
		Short: "Submit an acquisition command",
		RunE: func(cmd *cobra.Command, args []string) error {
			startSrc, ok := startSources[start]
			if !ok {
				return fmt.Errorf("Unknown start source: %s", start)
			}
			scanSrc, ok := scanSources[scan]
			if !ok {
				return fmt.Errorf("Unknown scan source: %s", scan)
			}
			convSrc, ok := convSources[conv]
			if !ok {
				return fmt.Errorf("Unknown conversion source: %s", conv)
			}
			acqCmd := acq.Command{
				Start:        startSrc,
				StartLine:    startLine,
				ScanBegin:    scanSrc,
				ScanPeriodNS: scanPeriod,
				ScanLine:     scanLine,
				Convert:      convSrc,
				ConvPeriodNS: convPeriod,
				ConvLine:     convLine,
				StopCount:    count,
			}
			if count == 0 {
				acqCmd.Stop = acq.StopNone
			}
			for _, chann := range channels {
				acqCmd.Channels = append(acqCmd.Channels, acq.Channel{
					Chan:    chann,
					Range5V: !range10V,
				})
			}
			apiClient := command.NewApiClient(cfg)
			return apiClient.AcqStart(acqCmd)
		},
	}
	cmd.Flags().IntSliceVar(&channels, ChannelsOptionName, []int{0}, "ADC channels to scan")
	cmd.Flags().BoolVar(&range10V, Range10VOptionName, false, "Use the 10V input range instead of 5V")
	cmd.Flags().StringVar(&start, StartOptionName, "now", "Start source: now, soft, ext")
	cmd.Flags().IntVar(&startLine, StartLineOptionName, 0, "Digital line for the ext start source")
	cmd.Flags().StringVar(&scan, ScanOptionName, "follow", "Scan source: follow, timer, ext")
	cmd.Flags().IntVar(&scanPeriod, ScanPeriodOptionName, 0, "Scan period in nanoseconds for the timer scan source")
	cmd.Flags().IntVar(&scanLine, ScanLineOptionName, 0, "Digital line for the ext scan source")
	cmd.Flags().StringVar(&conv, ConvOptionName, "now", "Conversion source: now, timer, ext")
	cmd.Flags().IntVar(&convPeriod, ConvPeriodOptionName, 0, "Conversion period in nanoseconds for the timer conversion source")
	cmd.Flags().IntVar(&convLine, ConvLineOptionName, 0, "Digital line for the ext conversion source")
	cmd.Flags().IntVar(&count, CountOptionName, 1, "Number of scans to take, 0 to run until stopped")
	return cmd
}
