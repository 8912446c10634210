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

package control

import (
	"encoding/binary"
	"fmt"

	"go.etcd.io/bbolt"

	"jinr.ru/greenlab/go-s626/pkg/config"
	"jinr.ru/greenlab/go-s626/pkg/log"
	"jinr.ru/greenlab/go-s626/pkg/srv/control/ifc"
)

const (
	BucketNameReg = "reg"
	BucketNameAO  = "ao"
)

// BoardState persists analog output setpoints and shadowed register
// pokes across server restarts.
type BoardState struct {
	DB *bbolt.DB
}

var _ ifc.State = &BoardState{}

func NewBoardState(cfg *config.Config) (*BoardState, error) {
	db, err := bbolt.Open(cfg.DBPath, 0600, nil)
	if err != nil {
		return nil, err
	}
	if err = db.Update(func(tx *bbolt.Tx) error {
		for _, name := range []string{BucketNameReg, BucketNameAO} {
			if _, err := tx.CreateBucketIfNotExists([]byte(name)); err != nil {
				return err
			}
		}
		return nil
	}); err != nil {
		return nil, err
	}
	return &BoardState{DB: db}, nil
}

func uint16ToByte(v uint16) []byte {
	b := make([]byte, 2)
	binary.BigEndian.PutUint16(b, v)
	return b
}

// Close ...
func (s *BoardState) Close() {
	s.DB.Close()
}

func (s *BoardState) put(bucket string, key, value uint16) error {
	return s.DB.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket([]byte(bucket))
		if b == nil {
			return fmt.Errorf("Bucket not found: %s", bucket)
		}
		return b.Put(uint16ToByte(key), uint16ToByte(value))
	})
}

func (s *BoardState) get(bucket string, key uint16) (uint16, error) {
	var value uint16
	if err := s.DB.View(func(tx *bbolt.Tx) error {
		b := tx.Bucket([]byte(bucket))
		if b == nil {
			return fmt.Errorf("Bucket not found: %s", bucket)
		}
		valueBytes := b.Get(uint16ToByte(key))
		if valueBytes == nil {
			return fmt.Errorf("Key not found: %d", key)
		}
		value = binary.BigEndian.Uint16(valueBytes)
		return nil
	}); err != nil {
		return 0, err
	}
	return value, nil
}

// SetAO ...
func (s *BoardState) SetAO(chann int, value uint16) error {
	log.Debug("Storing AO setpoint: chan: %d value: %x", chann, value)
	return s.put(BucketNameAO, uint16(chann), value)
}

// GetAO ...
func (s *BoardState) GetAO(chann int) (uint16, error) {
	return s.get(BucketNameAO, uint16(chann))
}

// SetReg ...
func (s *BoardState) SetReg(addr uint16, value uint16) error {
	log.Debug("Shadowing register write: addr: %x value: %x", addr, value)
	return s.put(BucketNameReg, addr, value)
}

// GetReg ...
func (s *BoardState) GetReg(addr uint16) (uint16, error) {
	return s.get(BucketNameReg, addr)
}

// RegAll returns every shadowed register write.
func (s *BoardState) RegAll() (map[uint16]uint16, error) {
	result := make(map[uint16]uint16)
	if err := s.DB.View(func(tx *bbolt.Tx) error {
		b := tx.Bucket([]byte(BucketNameReg))
		if b == nil {
			return fmt.Errorf("Bucket not found: %s", BucketNameReg)
		}
		return b.ForEach(func(k, v []byte) error {
			result[binary.BigEndian.Uint16(k)] = binary.BigEndian.Uint16(v)
			return nil
		})
	}); err != nil {
		return nil, err
	}
	return result, nil
}
