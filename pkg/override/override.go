package override

import (
	"time"

	"github.com/lysa-se/controller/pkg/relay"
	"github.com/lysa-se/controller/pkg/state"
	"github.com/sirupsen/logrus"
)

// Debounce is how long after an accepted edge further edges are treated
// as contact chatter.
const Debounce = 500 * time.Millisecond

// Controller is the manual override state machine. Every accepted edge
// toggles between automatic scheduling and a forced on lamp, regardless
// of edge direction. Engaging forces the relay on; releasing forces it
// off and immediately re-runs the schedule so the lamp does not wait for
// the next cycle.
//
// Edge runs on the broker's goroutine, concurrently with the control
// loop. All shared state goes through the atomic cells and every call it
// makes is bounded, it never blocks the broker and never lets a fault
// escape.
type Controller struct {
	cells      *state.Cells
	relay      relay.Relay
	reevaluate func()

	debounce time.Duration
	lastEdge int64 // unix nanos of the last accepted edge
	edgeLock chan struct{}
}

func New(cells *state.Cells, r relay.Relay, reevaluate func()) *Controller {
	c := &Controller{
		cells:      cells,
		relay:      r,
		reevaluate: reevaluate,
		debounce:   Debounce,
		edgeLock:   make(chan struct{}, 1),
	}
	c.edgeLock <- struct{}{}
	return c
}

// SetDebounce adjusts the chatter window, for inputs that already
// debounce in hardware.
func (c *Controller) SetDebounce(d time.Duration) {
	c.debounce = d
}

// Edge handles one edge from the manual input.
func (c *Controller) Edge() {
	defer func() {
		if r := recover(); r != nil {
			logrus.Errorf("override: recovered from edge handler fault: %v", r)
		}
	}()

	select {
	case <-c.edgeLock:
	default:
		return // an edge is already being handled, drop the re-entrant one
	}
	defer func() { c.edgeLock <- struct{}{} }()

	now := time.Now().UnixNano()
	if now-c.lastEdge < int64(c.debounce) {
		logrus.Debug("override: edge within debounce window, ignored")
		return
	}
	c.lastEdge = now

	if c.cells.Override() {
		c.release()
		return
	}
	c.engage()
}

func (c *Controller) engage() {
	c.cells.SetOverride(true)
	c.cells.SetRelay(true)
	err := c.relay.Set(true)
	if err != nil {
		logrus.WithError(err).Error("override: forcing relay on")
	}
	logrus.Info("override engaged")
}

func (c *Controller) release() {
	c.cells.SetRelay(false)
	err := c.relay.Set(false)
	if err != nil {
		logrus.WithError(err).Error("override: forcing relay off")
	}
	c.cells.SetOverride(false)
	logrus.Info("override released")
	c.reevaluate()
}
