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

package command

import (
	"errors"
	"fmt"

	"github.com/imroc/req"

	"jinr.ru/greenlab/go-s626/pkg/acq"
	"jinr.ru/greenlab/go-s626/pkg/command/ifc"
	"jinr.ru/greenlab/go-s626/pkg/config"
	"jinr.ru/greenlab/go-s626/pkg/srv/control"
)

type ApiClient struct {
	*config.Config
	ApiPrefix string
}

var _ ifc.ApiClient = &ApiClient{}

func NewApiClient(cfg *config.Config) ifc.ApiClient {
	return &ApiClient{
		Config:    cfg,
		ApiPrefix: fmt.Sprintf("http://%s:%d/api", cfg.Api.Host, cfg.Api.Port),
	}
}

func checkStatus(r *req.Resp) error {
	if r.Response().StatusCode != 200 {
		return errors.New(r.Response().Status)
	}
	return nil
}

// RegRead sends a request to read a local register, named by alias or
// hexadecimal address
func (c *ApiClient) RegRead(addr string) (*control.RegHex, error) {
	r, err := req.Get(fmt.Sprintf("%s/reg/r/%s", c.ApiPrefix, addr))
	if err != nil {
		return nil, err
	}
	if err := checkStatus(r); err != nil {
		return nil, err
	}
	reg := &control.RegHex{}
	if err := r.ToJSON(reg); err != nil {
		return nil, err
	}
	return reg, nil
}

// RegWrite sends a request to write a value to a local register
func (c *ApiClient) RegWrite(addr, value string) error {
	reg := &control.RegHex{
		Addr:  addr,
		Value: value,
	}
	r, err := req.Post(fmt.Sprintf("%s/reg/w", c.ApiPrefix), req.BodyJSON(reg))
	if err != nil {
		return err
	}
	return checkStatus(r)
}

// AIRead sends a request for one analog input conversion
func (c *ApiClient) AIRead(chann int, range10V bool) (uint16, error) {
	url := fmt.Sprintf("%s/ai/%d", c.ApiPrefix, chann)
	if range10V {
		url += "?range=10"
	}
	r, err := req.Get(url)
	if err != nil {
		return 0, err
	}
	if err := checkStatus(r); err != nil {
		return 0, err
	}
	sample := &control.Sample{}
	if err := r.ToJSON(sample); err != nil {
		return 0, err
	}
	return sample.Value, nil
}

// AOWrite sends a request to drive an analog output
func (c *ApiClient) AOWrite(chann int, value uint16) error {
	setup := &control.AOSetup{Value: value}
	r, err := req.Post(fmt.Sprintf("%s/ao/%d", c.ApiPrefix, chann), req.BodyJSON(setup))
	if err != nil {
		return err
	}
	return checkStatus(r)
}

// AORead sends a request for an analog output's last setpoint
func (c *ApiClient) AORead(chann int) (uint16, error) {
	r, err := req.Get(fmt.Sprintf("%s/ao/%d", c.ApiPrefix, chann))
	if err != nil {
		return 0, err
	}
	if err := checkStatus(r); err != nil {
		return 0, err
	}
	sample := &control.Sample{}
	if err := r.ToJSON(sample); err != nil {
		return 0, err
	}
	return sample.Value, nil
}

// DIRead sends a request to read a digital input bank
func (c *ApiClient) DIRead(bank int) (uint16, error) {
	r, err := req.Get(fmt.Sprintf("%s/di/%d", c.ApiPrefix, bank))
	if err != nil {
		return 0, err
	}
	if err := checkStatus(r); err != nil {
		return 0, err
	}
	bv := &control.BankValue{}
	if err := r.ToJSON(bv); err != nil {
		return 0, err
	}
	return bv.Value, nil
}

// DOWrite sends a request to drive a digital output bank
func (c *ApiClient) DOWrite(bank int, value uint16) error {
	setup := &control.BankValue{Bank: bank, Value: value}
	r, err := req.Post(fmt.Sprintf("%s/do/%d", c.ApiPrefix, bank), req.BodyJSON(setup))
	if err != nil {
		return err
	}
	return checkStatus(r)
}

// DORead sends a request for a digital output bank's shadow
func (c *ApiClient) DORead(bank int) (uint16, error) {
	r, err := req.Get(fmt.Sprintf("%s/do/%d", c.ApiPrefix, bank))
	if err != nil {
		return 0, err
	}
	if err := checkStatus(r); err != nil {
		return 0, err
	}
	bv := &control.BankValue{}
	if err := r.ToJSON(bv); err != nil {
		return 0, err
	}
	return bv.Value, nil
}

// EncoderRead sends a request for an encoder's latched count
func (c *ApiClient) EncoderRead(chann int) (uint32, error) {
	r, err := req.Get(fmt.Sprintf("%s/enc/%d", c.ApiPrefix, chann))
	if err != nil {
		return 0, err
	}
	if err := checkStatus(r); err != nil {
		return 0, err
	}
	ev := &control.EncoderValue{}
	if err := r.ToJSON(ev); err != nil {
		return 0, err
	}
	return ev.Value, nil
}

// EncoderPreload sends a request to set an encoder's count
func (c *ApiClient) EncoderPreload(chann int, value uint32) error {
	setup := &control.EncoderPreload{Value: value}
	r, err := req.Post(fmt.Sprintf("%s/enc/%d/preload", c.ApiPrefix, chann), req.BodyJSON(setup))
	if err != nil {
		return err
	}
	return checkStatus(r)
}

// AcqStart submits an acquisition command
func (c *ApiClient) AcqStart(cmd acq.Command) error {
	r, err := req.Post(fmt.Sprintf("%s/acq/start", c.ApiPrefix), req.BodyJSON(&cmd))
	if err != nil {
		return err
	}
	return checkStatus(r)
}

// AcqTrigger starts an armed software-triggered acquisition
func (c *ApiClient) AcqTrigger() error {
	r, err := req.Get(fmt.Sprintf("%s/acq/trigger", c.ApiPrefix))
	if err != nil {
		return err
	}
	return checkStatus(r)
}

// AcqStop cancels the active acquisition
func (c *ApiClient) AcqStop() error {
	r, err := req.Get(fmt.Sprintf("%s/acq/stop", c.ApiPrefix))
	if err != nil {
		return err
	}
	return checkStatus(r)
}

// AcqStatus fetches the acquisition state and the latest scan
func (c *ApiClient) AcqStatus() (*control.AcqStatus, error) {
	r, err := req.Get(fmt.Sprintf("%s/acq/status", c.ApiPrefix))
	if err != nil {
		return nil, err
	}
	if err := checkStatus(r); err != nil {
		return nil, err
	}
	status := &control.AcqStatus{}
	if err := r.ToJSON(status); err != nil {
		return nil, err
	}
	return status, nil
}

// StateDump fetches the persisted board state as YAML
func (c *ApiClient) StateDump() (string, error) {
	r, err := req.Get(fmt.Sprintf("%s/state", c.ApiPrefix))
	if err != nil {
		return "", err
	}
	if err := checkStatus(r); err != nil {
		return "", err
	}
	return r.String(), nil
}
