// Package notify pushes schedule events to the renderer fleet over MQTT:
// one message when the active schedule changes, one per tick for the screen
// just selected. Renderers subscribe instead of polling the panel.
package notify

import (
	"encoding/json"
	"fmt"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/rs/zerolog/log"
)

// Publisher announces schedule events. A nil Publisher is a no-op, so
// callers never branch on whether MQTT is configured.
type Publisher struct {
	client mqtt.Client
	prefix string
}

var connectHandler mqtt.OnConnectHandler = func(mqtt.Client) {
	log.Info().Msg("[notify] connected to MQTT broker")
}

var connectLostHandler mqtt.ConnectionLostHandler = func(_ mqtt.Client, err error) {
	log.Error().Err(err).Msg("[notify] MQTT connection lost")
}

// Connect dials the broker. topicPrefix namespaces every topic this
// publisher uses, so several panels can share one broker.
func Connect(brokerURL, clientID, topicPrefix string) (*Publisher, error) {
	opts := mqtt.NewClientOptions()
	opts.AddBroker(brokerURL)
	opts.SetClientID(clientID)
	opts.OnConnect = connectHandler
	opts.OnConnectionLost = connectLostHandler

	client := mqtt.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		return nil, fmt.Errorf("notify: connect to MQTT broker: %w", token.Error())
	}
	return &Publisher{client: client, prefix: topicPrefix}, nil
}

func (p *Publisher) Close() {
	if p == nil {
		return
	}
	p.client.Disconnect(250)
}

// ScheduleUpdated announces a newly active schedule version.
func (p *Publisher) ScheduleUpdated(version int64, summary string) error {
	return p.publish("schedule/updated", map[string]any{
		"version": version,
		"summary": summary,
	})
}

// ScreenSelected announces the screen chosen this tick; an empty id means
// the tick yielded nothing.
func (p *Publisher) ScreenSelected(id string) error {
	return p.publish("screen/current", map[string]any{"screen": id})
}

func (p *Publisher) publish(suffix string, payload any) error {
	if p == nil {
		return nil
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("notify: encode %s: %w", suffix, err)
	}
	topic := p.topic(suffix)
	token := p.client.Publish(topic, 1, false, data)
	token.Wait()
	if token.Error() != nil {
		return fmt.Errorf("notify: publish %s: %w", topic, token.Error())
	}
	return nil
}

func (p *Publisher) topic(suffix string) string {
	if p.prefix == "" {
		return suffix
	}
	return p.prefix + "/" + suffix
}
