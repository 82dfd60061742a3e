package app

import (
	"context"
	"encoding/binary"
	"fmt"
	"net"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/lysa-se/controller/pkg/alarm"
	"github.com/lysa-se/controller/pkg/api/v1/config"
	"github.com/lysa-se/controller/pkg/api/v1/meter"
	"github.com/lysa-se/controller/pkg/ntp"
	"github.com/lysa-se/controller/pkg/override"
	"github.com/lysa-se/controller/pkg/relay"
	"github.com/lysa-se/controller/pkg/state"
	"github.com/lysa-se/controller/pkg/status"
	"github.com/lysa-se/controller/pkg/sunwindow"
	"github.com/lysa-se/controller/pkg/timezone"
	"github.com/stretchr/testify/assert"
)

func fakeNTP(t *testing.T, epoch int64) string {
	pc, err := net.ListenPacket("udp", "127.0.0.1:0")
	assert.NoError(t, err)
	t.Cleanup(func() { pc.Close() })

	go func() {
		for {
			buf := make([]byte, 48)
			_, addr, err := pc.ReadFrom(buf)
			if err != nil {
				return
			}
			reply := make([]byte, 48)
			binary.BigEndian.PutUint32(reply[40:44], uint32(epoch+2208988800))
			_, _ = pc.WriteTo(reply, addr)
		}
	}()
	return pc.LocalAddr().String()
}

func serveBody(t *testing.T, body string) string {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, body)
	}))
	t.Cleanup(srv.Close)
	return srv.URL
}

// newTestApp wires an app around a dummy relay and a nil-server
// presenter, skipping the broker.
func newTestApp(t *testing.T, epoch int64, dst string) *App {
	t.Helper()
	conf := &config.CliConfig{
		NTPServer:         fakeNTP(t, epoch),
		NTPTimeoutSeconds: 1,
	}
	a := &App{
		config:     conf,
		cells:      &state.Cells{},
		conditions: &alarm.Conditions{},
		meterCache: &meter.Cache{},
		relay:      relay.NewDummy(),
		presenter:  status.New(nil, "light/status", "light/metrics"),
	}
	a.ntp = ntp.New(conf.NTPServer)
	a.ntp.Timeout = time.Second
	a.resolver = timezone.New(serveBody(t, fmt.Sprintf(`{"dst":%q}`, dst)))
	a.sun = sunwindow.New(serveBody(t, `{"results":{"sunrise":"2021-06-15T12:45:10+00:00","sunset":"2021-06-16T02:00:12+00:00"}}`), a.resolver)
	a.override = override.New(a.cells, a.relay, func() {
		a.cycle(context.Background())
	})
	return a
}

func TestCycleNightTurnsRelayOn(t *testing.T) {
	// 05:00 UTC, daylight offset 7 -> 22:00 local.
	a := newTestApp(t, 1623733200, "1")
	a.cycle(context.Background())

	assert.True(t, a.Relay())
	assert.True(t, a.relay.On())
}

func TestCycleDayTurnsRelayOff(t *testing.T) {
	// 19:00 UTC -> 12:00 local.
	a := newTestApp(t, 1623783600, "1")
	a.cells.SetRelay(true)
	a.cycle(context.Background())

	assert.False(t, a.Relay())
}

func TestCycleSentinelKeepsRelayState(t *testing.T) {
	a := newTestApp(t, 1623733200, "1")
	a.ntp = ntp.New("127.0.0.1:1") // unreachable
	a.ntp.Timeout = 100 * time.Millisecond

	a.cells.SetRelay(true)
	a.cycle(context.Background())

	// No trustworthy time: the previous relay command stands.
	assert.True(t, a.Relay())
	assert.Equal(t, []string{"time source unreachable"}, a.conditions.Active())
}

func TestCycleSkipsScheduleWhileOverridden(t *testing.T) {
	// 12:00 local would normally switch the lamp off.
	a := newTestApp(t, 1623783600, "1")

	a.override.Edge()
	assert.True(t, a.cells.Override())
	assert.True(t, a.Relay())

	a.cycle(context.Background())
	assert.True(t, a.Relay(), "schedule must not run while override is engaged")
}

func TestOverrideReleaseReturnsToSchedule(t *testing.T) {
	// 22:00 local -> the schedule wants the lamp on.
	a := newTestApp(t, 1623733200, "1")
	a.override.SetDebounce(0)

	a.override.Edge() // engage
	a.override.Edge() // release, re-evaluates immediately
	assert.False(t, a.cells.Override())
	assert.True(t, a.Relay(), "released override should hand back to the schedule")
}

func TestNextCycleDelay(t *testing.T) {
	d := nextCycleDelay()
	assert.Greater(t, d, time.Duration(0))
	assert.LessOrEqual(t, d, time.Minute)
}
