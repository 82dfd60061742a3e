package mqtt

import (
	"context"
	"sync"

	mqttv2 "github.com/mochi-mqtt/server/v2"
	"github.com/mochi-mqtt/server/v2/hooks/auth"
	"github.com/mochi-mqtt/server/v2/listeners"
	"github.com/mochi-mqtt/server/v2/packets"
	"github.com/sirupsen/logrus"
)

// Start runs the embedded broker. The wall button (or any UI) publishes
// to buttonTopic and every message there counts as one edge; onEdge runs
// on the broker's goroutine.
func Start(ctx context.Context, wg *sync.WaitGroup, address, buttonTopic string, onEdge func()) (*mqttv2.Server, error) {
	wg.Add(1)
	server := mqttv2.New(&mqttv2.Options{
		InlineClient: true,
	})

	// Allow all connections.
	_ = server.AddHook(new(auth.AllowHook), nil)

	tcp := listeners.NewTCP(listeners.Config{ID: "t1", Address: address})
	err := server.AddListener(tcp)
	if err != nil {
		wg.Done()
		return server, err
	}

	err = server.Serve()
	if err != nil {
		wg.Done()
		return server, err
	}

	err = server.Subscribe(buttonTopic, 1, func(cl *mqttv2.Client, sub packets.Subscription, pk packets.Packet) {
		logrus.WithFields(logrus.Fields{
			"topic":   pk.TopicName,
			"payload": string(pk.Payload),
		}).Debug("mqtt: button edge")
		onEdge()
	})
	if err != nil {
		wg.Done()
		return server, err
	}

	// Run server until interrupted
	go func() {
		<-ctx.Done()
		server.Close()
		wg.Done()
	}()
	return server, nil
}
