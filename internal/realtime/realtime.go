// fans live bus positions out to MQTT subscribers
package realtime

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/rs/zerolog/log"

	"github.com/aau-transit/bustrack/internal/model"
)

const publishTimeout = 5 * time.Second

var ErrPublishTimeout = errors.New("mqtt publish timed out")

type Publisher interface {
	PublishLocation(ctx context.Context, snapshot model.LiveSnapshot) error
	Close()
}

// LocationTopic is where snapshots for one bus are published.
func LocationTopic(busNumber int) string {
	return fmt.Sprintf("bus/%d/location", busNumber)
}

type MQTTPublisher struct {
	client mqtt.Client
}

var _ Publisher = (*MQTTPublisher)(nil)

// Connect dials the broker and keeps reconnecting in the background if the link drops.
func Connect(brokerURL, clientID string) (*MQTTPublisher, error) {
	opts := mqtt.NewClientOptions()
	opts.AddBroker(brokerURL)
	opts.SetClientID(clientID)
	opts.SetAutoReconnect(true)
	opts.SetConnectTimeout(10 * time.Second)
	opts.OnConnect = func(mqtt.Client) {
		log.Info().Str("broker", brokerURL).Msg("Connected to MQTT broker")
	}
	opts.OnConnectionLost = func(_ mqtt.Client, err error) {
		log.Warn().Err(err).Str("broker", brokerURL).Msg("MQTT connection lost")
	}

	client := mqtt.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		return nil, fmt.Errorf("failed to connect to MQTT broker: %w", token.Error())
	}
	return newMQTTPublisher(client), nil
}

func newMQTTPublisher(client mqtt.Client) *MQTTPublisher {
	return &MQTTPublisher{client: client}
}

func (p *MQTTPublisher) PublishLocation(ctx context.Context, snapshot model.LiveSnapshot) error {
	payload, err := json.Marshal(snapshot)
	if err != nil {
		return err
	}

	token := p.client.Publish(LocationTopic(snapshot.BusNumber), 1, true, payload)
	select {
	case <-token.Done():
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(publishTimeout):
		return ErrPublishTimeout
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("publish bus %d location: %w", snapshot.BusNumber, err)
	}
	return nil
}

func (p *MQTTPublisher) Close() {
	p.client.Disconnect(250)
}

// NopPublisher is used when no broker is configured.
type NopPublisher struct{}

func (NopPublisher) PublishLocation(context.Context, model.LiveSnapshot) error { return nil }
func (NopPublisher) Close()                                                    {}
