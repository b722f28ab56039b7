package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/levenlabs/go-lflag"

	"github.com/raterudder/froniuscollector/pkg/common"
	"github.com/raterudder/froniuscollector/pkg/log"
	"github.com/raterudder/froniuscollector/pkg/types"
)

// MQTT publishes every point as a JSON message to
// <prefix>/<measurement>[/<device_id>].
type MQTT struct {
	broker      string
	clientID    string
	username    string
	password    string
	topicPrefix string
	qos         byte
	retain      bool
	timeout     time.Duration

	client mqtt.Client
}

func configuredMQTT() *MQTT {
	broker := lflag.String("mqtt-broker", common.EnvDefault("MQTT_BROKER", "tcp://localhost:1883"), "MQTT broker URL")
	clientID := lflag.String("mqtt-client-id", "froniuscollector", "MQTT client ID")
	username := lflag.String("mqtt-username", common.EnvDefault("MQTT_USERNAME", ""), "MQTT username")
	password := lflag.String("mqtt-password", common.EnvDefault("MQTT_PASSWORD", ""), "MQTT password")
	topicPrefix := lflag.String("mqtt-topic-prefix", "fronius", "Prefix of the topics points are published to")
	qos := lflag.Int("mqtt-qos", 0, "MQTT QoS level (0, 1 or 2)")
	retain := lflag.Bool("mqtt-retain", true, "Publish points as retained messages")
	timeout := lflag.Duration("mqtt-timeout", 10*time.Second, "Timeout for connecting and publishing")

	m := &MQTT{}

	lflag.Do(func() {
		m.broker = *broker
		m.clientID = *clientID
		m.username = *username
		m.password = *password
		m.topicPrefix = strings.TrimSuffix(*topicPrefix, "/")
		m.retain = *retain
		m.timeout = *timeout

		if *qos < 0 || *qos > 2 {
			panic(fmt.Sprintf("invalid mqtt-qos: %d", *qos))
		}
		m.qos = byte(*qos)
	})

	return m
}

// Validate checks if the provider is properly configured.
func (m *MQTT) Validate() error {
	if m.broker == "" {
		return errors.New("mqtt-broker is required")
	}
	if m.topicPrefix == "" {
		return errors.New("mqtt-topic-prefix cannot be empty")
	}
	if m.qos > 2 {
		return fmt.Errorf("invalid qos %d", m.qos)
	}
	return nil
}

// Init connects to the broker. The client reconnects on its own afterwards.
func (m *MQTT) Init(ctx context.Context) error {
	opts := mqtt.NewClientOptions().
		AddBroker(m.broker).
		SetClientID(m.clientID).
		SetAutoReconnect(true).
		SetConnectTimeout(m.timeout).
		SetConnectionLostHandler(func(_ mqtt.Client, err error) {
			log.Ctx(context.Background()).Warn("mqtt connection lost", slog.Any("error", err))
		})
	if m.username != "" {
		opts.SetUsername(m.username)
		opts.SetPassword(m.password)
	}
	m.client = mqtt.NewClient(opts)

	token := m.client.Connect()
	if err := waitToken(ctx, token, m.timeout); err != nil {
		return fmt.Errorf("failed to connect to mqtt broker %s: %w", m.broker, err)
	}
	log.Ctx(ctx).InfoContext(ctx, "connected to mqtt broker", slog.String("broker", m.broker))
	return nil
}

// Close disconnects from the broker, giving in-flight messages 250ms.
func (m *MQTT) Close() error {
	if m.client != nil {
		m.client.Disconnect(250)
	}
	return nil
}

func (m *MQTT) topic(p types.Point) string {
	topic := m.topicPrefix + "/" + p.Measurement
	if id := p.Tags["device_id"]; id != "" {
		topic += "/" + id
	}
	return topic
}

// WritePoints publishes each valid point and waits for every publish to
// complete. Failed publishes are joined into the returned error.
func (m *MQTT) WritePoints(ctx context.Context, points []types.Point) error {
	valid, errs := validPoints(points)
	for _, err := range errs {
		log.Ctx(ctx).WarnContext(ctx, "skipping invalid point", slog.Any("error", err))
	}

	type pending struct {
		topic string
		token mqtt.Token
	}
	sent := make([]pending, 0, len(valid))
	for _, p := range valid {
		payload, err := json.Marshal(p)
		if err != nil {
			return fmt.Errorf("failed to marshal point %s: %w", p.Series(), err)
		}
		topic := m.topic(p)
		sent = append(sent, pending{topic: topic, token: m.client.Publish(topic, m.qos, m.retain, payload)})
	}

	var publishErrs []error
	for _, s := range sent {
		if err := waitToken(ctx, s.token, m.timeout); err != nil {
			publishErrs = append(publishErrs, fmt.Errorf("failed to publish to %s: %w", s.topic, err))
		}
	}
	return errors.Join(publishErrs...)
}

func waitToken(ctx context.Context, token mqtt.Token, timeout time.Duration) error {
	timer := time.NewTimer(timeout)
	defer timer.Stop()
	select {
	case <-token.Done():
		return token.Error()
	case <-timer.C:
		return errors.New("timed out")
	case <-ctx.Done():
		return ctx.Err()
	}
}
