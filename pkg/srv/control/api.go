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

// go-s626 API
//
// # RESTful API to interact with the go-s626 control server
//
// Schemes: http
// Host: localhost:8626
// Version: 1.0.0
//
//	Consumes:
//	- application/json
//
//	Produces:
//	- application/json
//
// swagger:meta
package control

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strconv"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"sigs.k8s.io/yaml"

	"jinr.ru/greenlab/go-s626/pkg/acq"
	"jinr.ru/greenlab/go-s626/pkg/config"
	"jinr.ru/greenlab/go-s626/pkg/counter"
	devicepkg "jinr.ru/greenlab/go-s626/pkg/device"
	"jinr.ru/greenlab/go-s626/pkg/log"
	"jinr.ru/greenlab/go-s626/pkg/regs"
	"jinr.ru/greenlab/go-s626/pkg/srv/control/ifc"
)

// RegHex names a local register and its value, both hexadecimal.  Addr
// also accepts the aliases of device.RegMap.
type RegHex struct {
	Addr  string
	Value string
}

type Sample struct {
	Chan  int
	Value uint16
}

type AOSetup struct {
	Value uint16
}

type BankValue struct {
	Bank  int
	Value uint16
}

type EncoderValue struct {
	Chan  int
	Value uint32
}

type EncoderPreload struct {
	Value uint32
}

type AcqStatus struct {
	State    string
	ScanNum  uint64
	LastScan []uint16
}

// StateDump is the YAML document served by the state endpoint.
type StateDump struct {
	AO   map[int]uint16    `json:"ao"`
	Regs map[string]string `json:"regs"`
}

type ApiServer struct {
	context.Context
	*config.Config
	*mux.Router
	ctrl *ControlServer
}

var _ ifc.ApiServer = &ApiServer{}

func NewApiServer(ctx context.Context, cfg *config.Config, ctrl *ControlServer) (ifc.ApiServer, error) {
	s := &ApiServer{
		Context: ctx,
		Config:  cfg,
		ctrl:    ctrl,
	}
	return s, nil
}

// Run ...
func (s *ApiServer) Run() error {
	log.Info("Starting API server: address: %s port: %d", s.Config.Api.Host, s.Config.Api.Port)
	s.configureRouter()
	httpServer := &http.Server{
		Handler: handlers.CombinedLoggingHandler(os.Stderr, s.Router),
		Addr:    fmt.Sprintf("%s:%d", s.Config.Api.Host, s.Config.Api.Port),
	}
	return httpServer.ListenAndServe()
}

func (s *ApiServer) configureRouter() {
	s.Router = mux.NewRouter()
	subRouter := s.Router.PathPrefix("/api").Subrouter()
	// swagger:operation GET /reg/r/{addr} read register
	subRouter.HandleFunc("/reg/r/{addr}", s.handleRegRead()).Methods("GET")
	// swagger:operation POST /reg/w write register
	subRouter.HandleFunc("/reg/w", s.handleRegWrite()).Methods("POST")
	// swagger:operation GET /ai/{chan} single conversion
	subRouter.HandleFunc("/ai/{chan:[0-9]+}", s.handleAIRead()).Methods("GET")
	subRouter.HandleFunc("/ao/{chan:[0-9]+}", s.handleAOWrite()).Methods("POST")
	subRouter.HandleFunc("/ao/{chan:[0-9]+}", s.handleAORead()).Methods("GET")
	subRouter.HandleFunc("/di/{bank:[0-2]}", s.handleDIRead()).Methods("GET")
	subRouter.HandleFunc("/do/{bank:[0-2]}", s.handleDOWrite()).Methods("POST")
	subRouter.HandleFunc("/do/{bank:[0-2]}", s.handleDORead()).Methods("GET")
	subRouter.HandleFunc("/enc/{chan:[0-5]}", s.handleEncoderRead()).Methods("GET")
	subRouter.HandleFunc("/enc/{chan:[0-5]}/preload", s.handleEncoderPreload()).Methods("POST")
	subRouter.HandleFunc("/enc/{chan:[0-5]}/mode", s.handleEncoderMode()).Methods("POST")
	// swagger:operation POST /acq/start submit acquisition command
	subRouter.HandleFunc("/acq/start", s.handleAcqStart()).Methods("POST")
	subRouter.HandleFunc("/acq/{action:trigger|stop}", s.handleAcqAction()).Methods("GET")
	subRouter.HandleFunc("/acq/status", s.handleAcqStatus()).Methods("GET")
	subRouter.HandleFunc("/state", s.handleStateDump()).Methods("GET")
}

// httpStatus maps device and acquisition errors onto response codes.
func httpStatus(err error) int {
	switch {
	case errors.As(err, &acq.ErrBusy{}), errors.As(err, &acq.ErrNotArmed{}):
		return http.StatusConflict
	case errors.As(err, &acq.ErrInvalidCommand{}),
		errors.As(err, &devicepkg.ErrBadValue{}):
		return http.StatusBadRequest
	case errors.As(err, &devicepkg.ErrBadChannel{}),
		errors.As(err, &devicepkg.ErrNoSuchReg{}):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

func pathInt(r *http.Request, name string) int {
	v, _ := strconv.Atoi(mux.Vars(r)[name])
	return v
}

func (s *ApiServer) handleRegRead() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		vars := mux.Vars(r)
		addr, err := devicepkg.ParseRegAddr(vars["addr"])
		if err != nil {
			http.Error(w, err.Error(), httpStatus(err))
			return
		}
		value, err := s.ctrl.Device().RegRead(addr)
		if err != nil {
			http.Error(w, err.Error(), httpStatus(err))
			return
		}
		json.NewEncoder(w).Encode(&RegHex{
			Addr:  fmt.Sprintf("%#04x", addr),
			Value: fmt.Sprintf("%#04x", value),
		})
	}
}

func (s *ApiServer) handleRegWrite() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		regHex := &RegHex{}
		if err := json.NewDecoder(r.Body).Decode(regHex); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		addr, err := devicepkg.ParseRegAddr(regHex.Addr)
		if err != nil {
			http.Error(w, err.Error(), httpStatus(err))
			return
		}
		value, err := strconv.ParseUint(regHex.Value, 0, 16)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		if err := s.ctrl.Device().RegWrite(addr, uint16(value)); err != nil {
			http.Error(w, err.Error(), httpStatus(err))
			return
		}
	}
}

func (s *ApiServer) handleAIRead() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		chann := pathInt(r, "chan")
		range5V := r.URL.Query().Get("range") != "10"
		value, err := s.ctrl.Device().AIRead(chann, range5V)
		if err != nil {
			http.Error(w, err.Error(), httpStatus(err))
			return
		}
		json.NewEncoder(w).Encode(&Sample{Chan: chann, Value: value})
	}
}

func (s *ApiServer) handleAOWrite() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		setup := &AOSetup{}
		if err := json.NewDecoder(r.Body).Decode(setup); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		if err := s.ctrl.Device().AOWrite(pathInt(r, "chan"), setup.Value); err != nil {
			http.Error(w, err.Error(), httpStatus(err))
			return
		}
	}
}

func (s *ApiServer) handleAORead() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		chann := pathInt(r, "chan")
		value, err := s.ctrl.Device().AORead(chann)
		if err != nil {
			http.Error(w, err.Error(), httpStatus(err))
			return
		}
		json.NewEncoder(w).Encode(&Sample{Chan: chann, Value: value})
	}
}

func (s *ApiServer) handleDIRead() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		bank := pathInt(r, "bank")
		value, err := s.ctrl.Device().DIRead(bank)
		if err != nil {
			http.Error(w, err.Error(), httpStatus(err))
			return
		}
		json.NewEncoder(w).Encode(&BankValue{Bank: bank, Value: value})
	}
}

func (s *ApiServer) handleDOWrite() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		setup := &BankValue{}
		if err := json.NewDecoder(r.Body).Decode(setup); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		if err := s.ctrl.Device().DOWrite(pathInt(r, "bank"), setup.Value); err != nil {
			http.Error(w, err.Error(), httpStatus(err))
			return
		}
	}
}

func (s *ApiServer) handleDORead() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		bank := pathInt(r, "bank")
		value, err := s.ctrl.Device().DORead(bank)
		if err != nil {
			http.Error(w, err.Error(), httpStatus(err))
			return
		}
		json.NewEncoder(w).Encode(&BankValue{Bank: bank, Value: value})
	}
}

func (s *ApiServer) handleEncoderRead() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		chann := pathInt(r, "chan")
		value, err := s.ctrl.Device().EncoderRead(chann)
		if err != nil {
			http.Error(w, err.Error(), httpStatus(err))
			return
		}
		json.NewEncoder(w).Encode(&EncoderValue{Chan: chann, Value: value})
	}
}

func (s *ApiServer) handleEncoderPreload() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		setup := &EncoderPreload{}
		if err := json.NewDecoder(r.Body).Decode(setup); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		if err := s.ctrl.Device().EncoderPreload(pathInt(r, "chan"), setup.Value); err != nil {
			http.Error(w, err.Error(), httpStatus(err))
			return
		}
	}
}

func (s *ApiServer) handleEncoderMode() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		mode := &counter.Mode{}
		if err := json.NewDecoder(r.Body).Decode(mode); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		if err := s.ctrl.Device().EncoderSetMode(pathInt(r, "chan"), *mode); err != nil {
			http.Error(w, err.Error(), httpStatus(err))
			return
		}
	}
}

func (s *ApiServer) handleAcqStart() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		cmd := &acq.Command{}
		if err := json.NewDecoder(r.Body).Decode(cmd); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		if err := s.ctrl.Device().Submit(*cmd); err != nil {
			http.Error(w, err.Error(), httpStatus(err))
			return
		}
	}
}

func (s *ApiServer) handleAcqAction() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var err error
		switch mux.Vars(r)["action"] {
		case "trigger":
			err = s.ctrl.Device().Trigger()
		case "stop":
			err = s.ctrl.Device().Cancel()
		}
		if err != nil {
			http.Error(w, err.Error(), httpStatus(err))
			return
		}
	}
}

func acqStateName(state acq.State) string {
	switch state {
	case acq.Idle:
		return "idle"
	case acq.Armed:
		return "armed"
	case acq.Running:
		return "running"
	default:
		return "stopping"
	}
}

func (s *ApiServer) handleAcqStatus() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		scan, num := s.ctrl.LastScan()
		json.NewEncoder(w).Encode(&AcqStatus{
			State:    acqStateName(s.ctrl.Device().AcqState()),
			ScanNum:  num,
			LastScan: scan,
		})
	}
}

func (s *ApiServer) handleStateDump() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		shadowed, err := s.ctrl.State().RegAll()
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		dump := &StateDump{
			AO:   make(map[int]uint16),
			Regs: make(map[string]string),
		}
		for addr, value := range shadowed {
			dump.Regs[fmt.Sprintf("%#04x", addr)] = fmt.Sprintf("%#04x", value)
		}
		for chann := 0; chann < regs.DACChannels; chann++ {
			value, err := s.ctrl.State().GetAO(chann)
			if err != nil {
				continue // never written
			}
			dump.AO[chann] = value
		}
		data, err := yaml.Marshal(dump)
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/yaml")
		w.Write(data)
	}
}
