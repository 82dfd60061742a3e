package e2e

import (
	"context"
	"encoding/binary"
	"net"
	"testing"

	"github.com/fortnoxab/gohtmock"
	"github.com/lysa-se/controller/pkg/api/v1/config"
	"github.com/lysa-se/controller/pkg/app"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/tbrandon/mbserver"
)

const sunBody = `{"results":{"sunrise":"2021-06-15T12:45:10+00:00","sunset":"2021-06-16T02:00:12+00:00","day_length":"14:15:02"},"status":"OK"}`

// fakeNTP answers every query with the given unix epoch.
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

// silentNTP accepts queries and never answers.
func silentNTP(t *testing.T) string {
	pc, err := net.ListenPacket("udp", "127.0.0.1:0")
	assert.NoError(t, err)
	t.Cleanup(func() { pc.Close() })
	return pc.LocalAddr().String()
}

func newConfig(mockURL, ntpServer, modbusAddress, mqttAddress string) *config.CliConfig {
	return &config.CliConfig{
		NTPServer:         ntpServer,
		NTPTimeoutSeconds: 1,
		TimezoneURL:       mockURL + "/api/ip",
		SunURL:            mockURL + "/json",
		RelayDriver:       "modbus",
		ModbusAddress:     modbusAddress,
		ModbusCoil:        0,
		MQTTAddress:       mqttAddress,
		ButtonTopic:       "light/button",
		StatusTopic:       "light/status",
		MetricsTopic:      "light/metrics",
	}
}

func TestNightCycleEnergizesRelay(t *testing.T) {
	logrus.SetLevel(logrus.DebugLevel)
	mock := gohtmock.New()
	mock.Mock("/api/ip", `{"abbreviation":"PDT","dst":"1"}`)
	mock.Mock("/json", sunBody)

	serv := mbserver.NewServer()
	err := serv.ListenTCP("127.0.0.1:1502")
	assert.NoError(t, err)
	defer serv.Close()

	// 2021-06-15 05:00 UTC, daylight offset 7 -> 22:00 local, after the
	// 19:00 sunset.
	conf := newConfig(mock.URL(), fakeNTP(t, 1623733200), "127.0.0.1:1502", "127.0.0.1:11883")

	ctx, cancel := context.WithCancel(context.TODO())
	defer cancel()
	a := app.New(conf)
	err = a.Start(ctx)
	assert.NoError(t, err)

	assert.True(t, a.Relay())
	assert.Equal(t, byte(1), serv.Coils[0])
	mock.AssertMocksCalled(t)
}

func TestDaytimeCycleKeepsRelayOff(t *testing.T) {
	logrus.SetLevel(logrus.DebugLevel)
	mock := gohtmock.New()
	mock.Mock("/api/ip", `{"abbreviation":"PDT","dst":"1"}`)
	mock.Mock("/json", sunBody)

	serv := mbserver.NewServer()
	err := serv.ListenTCP("127.0.0.1:1503")
	assert.NoError(t, err)
	defer serv.Close()

	// 2021-06-15 19:00 UTC -> 12:00 local, inside the daylight window.
	conf := newConfig(mock.URL(), fakeNTP(t, 1623783600), "127.0.0.1:1503", "127.0.0.1:11884")

	ctx, cancel := context.WithCancel(context.TODO())
	defer cancel()
	a := app.New(conf)
	err = a.Start(ctx)
	assert.NoError(t, err)

	assert.False(t, a.Relay())
	assert.Equal(t, byte(0), serv.Coils[0])
}

func TestTimeSourceDownKeepsRunning(t *testing.T) {
	logrus.SetLevel(logrus.DebugLevel)
	mock := gohtmock.New()

	serv := mbserver.NewServer()
	err := serv.ListenTCP("127.0.0.1:1504")
	assert.NoError(t, err)
	defer serv.Close()

	conf := newConfig(mock.URL(), silentNTP(t), "127.0.0.1:1504", "127.0.0.1:11885")

	ctx, cancel := context.WithCancel(context.TODO())
	defer cancel()
	a := app.New(conf)
	err = a.Start(ctx)
	assert.NoError(t, err)

	// Sentinel time: no schedule decision, relay stays in its default
	// off state, the services are never hit.
	assert.False(t, a.Relay())
	assert.Equal(t, byte(0), serv.Coils[0])
	mock.AssertCallCount(t, "GET", "/api/ip", 0)
	mock.AssertCallCount(t, "GET", "/json", 0)
}
