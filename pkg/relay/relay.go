package relay

import (
	"sync/atomic"

	"github.com/sirupsen/logrus"
)

// Relay drives the switched load. Implementations must be safe to call
// from both the control loop and the override edge handler.
type Relay interface {
	Set(on bool) error
	On() bool
}

// Dummy only logs transitions, for running without hardware.
type Dummy struct {
	on atomic.Bool
}

func NewDummy() *Dummy {
	return &Dummy{}
}

func (d *Dummy) Set(on bool) error {
	d.on.Store(on)
	logrus.Info("dummy relay: ", on)
	return nil
}

func (d *Dummy) On() bool {
	return d.on.Load()
}
