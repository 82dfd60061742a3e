package app

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/goburrow/modbus"
	"github.com/lysa-se/controller/pkg/alarm"
	"github.com/lysa-se/controller/pkg/api/v1/config"
	"github.com/lysa-se/controller/pkg/api/v1/meter"
	"github.com/lysa-se/controller/pkg/clock"
	"github.com/lysa-se/controller/pkg/mbus"
	"github.com/lysa-se/controller/pkg/modbusclient"
	"github.com/lysa-se/controller/pkg/mqtt"
	"github.com/lysa-se/controller/pkg/ntp"
	"github.com/lysa-se/controller/pkg/override"
	"github.com/lysa-se/controller/pkg/relay"
	"github.com/lysa-se/controller/pkg/relay/modbusrelay"
	"github.com/lysa-se/controller/pkg/schedule"
	"github.com/lysa-se/controller/pkg/state"
	"github.com/lysa-se/controller/pkg/status"
	"github.com/lysa-se/controller/pkg/sunwindow"
	"github.com/lysa-se/controller/pkg/timezone"
	"github.com/sirupsen/logrus"
)

const (
	conditionTimeSource = "time source unreachable"
	conditionSunService = "sun service unreachable"
	conditionMeter      = "energy meter unreachable"
)

type App struct {
	wg     *sync.WaitGroup
	config *config.CliConfig

	cells      *state.Cells
	ntp        *ntp.Client
	resolver   *timezone.Resolver
	sun        *sunwindow.Provider
	relay      relay.Relay
	override   *override.Controller
	presenter  *status.Presenter
	conditions *alarm.Conditions

	meter      *mbus.Mbus
	meterCache *meter.Cache
}

func New(config *config.CliConfig) *App {
	a := &App{
		wg:         &sync.WaitGroup{},
		config:     config,
		cells:      &state.Cells{},
		conditions: &alarm.Conditions{},
		meterCache: &meter.Cache{},
	}
	a.ntp = ntp.New(config.NTPServer)
	if config.NTPTimeoutSeconds > 0 {
		a.ntp.Timeout = time.Duration(config.NTPTimeoutSeconds) * time.Second
	}
	a.resolver = timezone.New(config.TimezoneURL)
	a.sun = sunwindow.New(config.SunURL, a.resolver)
	return a
}

func (a *App) Start(ctx context.Context) error {
	rly, err := a.setupRelay()
	if err != nil {
		return err
	}
	a.relay = rly

	a.override = override.New(a.cells, rly, func() {
		a.cycle(context.Background())
	})

	if a.config.MeterModel != "" {
		a.meter = mbus.New(a.config.MbusDevice)
	}

	server, err := mqtt.Start(ctx, a.wg, a.config.MQTTAddress, a.config.ButtonTopic, a.override.Edge)
	if err != nil {
		return err
	}
	a.presenter = status.New(server, a.config.StatusTopic, a.config.MetricsTopic)

	// Evaluate once before the first tick so the lamp does not sit in
	// the default off state until the loop comes around.
	a.cycle(ctx)

	a.wg.Add(1)
	go a.controllerLoop(ctx)
	return nil
}

func (a *App) Wait() {
	a.wg.Wait()
}

// Relay exposes the commanded relay state, used by the e2e tests.
func (a *App) Relay() bool {
	return a.cells.Relay()
}

func (a *App) controllerLoop(ctx context.Context) {
	defer a.wg.Done()
	delay := nextCycleDelay()
	timer := time.NewTimer(delay)
	logrus.Debug("scheduling first cycle in ", delay)
	for {
		select {
		case <-timer.C:
			timer.Reset(nextCycleDelay())
			a.cycle(ctx)
		case <-ctx.Done():
			return
		}
	}
}

// cycle is one pass of the control loop: sync time, refresh the sun
// window when due, evaluate the schedule, drive the relay and present
// the result. Every remote failure degrades to a safe default, the loop
// itself never fails.
func (a *App) cycle(ctx context.Context) {
	local, day := a.syncTime(ctx)

	// Re-checked every cycle, the edge handler may have flipped it at
	// any point. While engaged the handler owns the relay and the
	// schedule must not run; the loop only reasserts the commanded
	// level.
	if a.cells.Override() {
		a.assertRelay()
		a.present(local, true)
		a.readMeter()
		return
	}

	if !local.Valid() {
		// No trustworthy time: keep the current relay state, skip the
		// daily trigger and retry next cycle.
		a.present(local, false)
		a.readMeter()
		return
	}

	if a.sun.NeedsRefresh(day, local.Hour, local.Minute) {
		err := a.sun.Refresh(ctx, day)
		if err != nil {
			a.conditions.Raise(conditionSunService)
		} else {
			a.conditions.Resolve(conditionSunService)
		}
	}

	night := schedule.Night(local.Hour, local.Minute, a.sun.Window())
	a.setRelay(night)
	a.present(local, false)
	a.readMeter()
}

func (a *App) syncTime(ctx context.Context) (clock.LocalTime, int) {
	epoch, err := a.ntp.Epoch(ctx)
	if err != nil {
		if a.conditions.Raise(conditionTimeSource) {
			logrus.WithError(err).Warn("time synchronization failed")
		}
		return clock.Sentinel(), 0
	}
	if a.conditions.Resolve(conditionTimeSource) {
		logrus.Info("time source reachable again")
	}

	utcHour, minute := clock.UTC(epoch)
	day := clock.Day(epoch)
	localHour := a.resolver.LocalHour(ctx, utcHour, day)
	return clock.New(localHour, minute), day
}

// setRelay applies the schedule verdict. An edge that landed mid cycle
// wins: the handler owns the relay from the moment override engages.
func (a *App) setRelay(on bool) {
	if a.cells.Override() {
		return
	}
	a.cells.SetRelay(on)
	err := a.relay.Set(on)
	if err != nil {
		logrus.WithError(err).Error("driving relay")
	}
}

// assertRelay re-sends the commanded level to the actuator without
// changing it, so a failed coil write heals on the next cycle.
func (a *App) assertRelay() {
	err := a.relay.Set(a.cells.Relay())
	if err != nil {
		logrus.WithError(err).Error("driving relay")
	}
}

func (a *App) present(local clock.LocalTime, overridden bool) {
	w := a.sun.Window()
	rep := state.Report{
		Relay:    pointer(a.cells.Relay()),
		Override: pointer(overridden),
		Time:     pointer(local.Display),

		SunriseHour:   pointer(w.RiseHour),
		SunriseMinute: pointer(w.RiseMinute),
		SunsetHour:    pointer(w.SetHour),
		SunsetMinute:  pointer(w.SetMinute),

		Alarms: a.conditions.Active(),
	}
	if p := a.resolver.Cached(); p != timezone.Unknown {
		rep.Daylight = pointer(p == timezone.Daylight)
	}
	if data := a.meterCache.Get(); data != nil {
		rep.LampPower = pointer(data.Current_W)
		rep.LampEnergy = pointer(data.Total_WH)
	}
	a.presenter.Render(rep)
}

func (a *App) readMeter() {
	if a.meter == nil {
		return
	}
	data, err := a.meter.ReadValues(a.config.MeterModel, a.config.MeterPrimaryID)
	if err != nil {
		if a.conditions.Raise(conditionMeter) {
			logrus.WithError(err).Warn("reading energy meter failed")
		}
		return
	}
	if a.conditions.Resolve(conditionMeter) {
		logrus.Info("energy meter reachable again")
	}
	a.meterCache.Set(data)
}

func (a *App) setupRelay() (relay.Relay, error) {
	switch a.config.RelayDriver {
	case "modbus":
		handler := modbus.NewTCPClientHandler(a.config.ModbusAddress)
		handler.Timeout = 5 * time.Second
		mcli := modbus.NewClient(handler)
		return modbusrelay.New(modbusclient.New(mcli, handler.Close), uint16(a.config.ModbusCoil)), nil
	case "dummy", "":
		return relay.NewDummy(), nil
	}
	return nil, fmt.Errorf("unknown relay driver %q", a.config.RelayDriver)
}
