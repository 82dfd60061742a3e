package status

import (
	"encoding/json"
	"strings"

	"github.com/lysa-se/controller/pkg/state"
	mqttv2 "github.com/mochi-mqtt/server/v2"
	"github.com/sirupsen/logrus"
)

// Presenter renders the two line status and publishes it, plus the full
// metrics map, to the embedded broker. A nil server only logs.
type Presenter struct {
	server       *mqttv2.Server
	statusTopic  string
	metricsTopic string
}

func New(server *mqttv2.Server, statusTopic, metricsTopic string) *Presenter {
	return &Presenter{
		server:       server,
		statusTopic:  statusTopic,
		metricsTopic: metricsTopic,
	}
}

// Lines renders the status: the relay line first, then either the
// override marker or the current time display.
func Lines(rep state.Report) []string {
	stateLine := "Light State: OFF"
	if rep.Relay != nil && *rep.Relay {
		stateLine = "Light State: ON"
	}

	second := ""
	switch {
	case rep.Override != nil && *rep.Override:
		second = "OVERRIDE ON"
	case rep.Time != nil:
		second = *rep.Time
	}
	if second == "" {
		return []string{stateLine}
	}
	return []string{stateLine, second}
}

func (p *Presenter) Render(rep state.Report) {
	lines := Lines(rep)
	logrus.Info(strings.Join(lines, " | "))

	if p.server == nil {
		return
	}

	err := p.server.Publish(p.statusTopic, []byte(strings.Join(lines, "\n")), true, 0)
	if err != nil {
		logrus.WithError(err).Error("status: publish status")
	}

	b, err := json.Marshal(rep.Map())
	if err != nil {
		logrus.WithError(err).Error("status: marshal metrics")
		return
	}
	err = p.server.Publish(p.metricsTopic, b, true, 0)
	if err != nil {
		logrus.WithError(err).Error("status: publish metrics")
	}
}
