package modbusrelay

import (
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/lysa-se/controller/pkg/modbusclient"
)

// Relay energizes the load through a single coil on a modbus relay
// board. Writes are serialized, the override handler and the control
// loop may both drive it.
type Relay struct {
	client modbusclient.Client
	coil   uint16
	mutex  sync.Mutex
	on     atomic.Bool
}

func New(client modbusclient.Client, coil uint16) *Relay {
	return &Relay{
		client: client,
		coil:   coil,
	}
}

func (r *Relay) Set(on bool) error {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	_, err := r.client.WriteSingleCoil(r.coil, modbusclient.CoilValue(on))
	if err != nil {
		return fmt.Errorf("modbusrelay: %w", err)
	}
	r.on.Store(on)
	return nil
}

// On returns the last commanded state, not a fresh coil read. The coil is
// only ever written by this process.
func (r *Relay) On() bool {
	return r.on.Load()
}

// Verify reads the coil back and reports whether it matches the last
// commanded state.
func (r *Relay) Verify() (bool, error) {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	actual, err := r.client.ReadCoil(r.coil)
	if err != nil {
		return false, err
	}
	return actual == r.on.Load(), nil
}
