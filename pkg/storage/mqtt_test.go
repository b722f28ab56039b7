package storage

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/raterudder/froniuscollector/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeToken struct {
	done chan struct{}
	err  error
}

func newFakeToken(err error, complete bool) *fakeToken {
	t := &fakeToken{done: make(chan struct{}), err: err}
	if complete {
		close(t.done)
	}
	return t
}

func (t *fakeToken) Wait() bool {
	<-t.done
	return true
}

func (t *fakeToken) WaitTimeout(d time.Duration) bool {
	select {
	case <-t.done:
		return true
	case <-time.After(d):
		return false
	}
}

func (t *fakeToken) Done() <-chan struct{} {
	return t.done
}

func (t *fakeToken) Error() error {
	return t.err
}

type published struct {
	topic    string
	qos      byte
	retained bool
	payload  []byte
}

// fakeClient only implements what the sink uses, any other call panics on
// the nil embedded interface.
type fakeClient struct {
	mqtt.Client

	mu        sync.Mutex
	messages  []published
	failTopic string
	hang      bool
}

func (c *fakeClient) Publish(topic string, qos byte, retained bool, payload interface{}) mqtt.Token {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.messages = append(c.messages, published{topic: topic, qos: qos, retained: retained, payload: payload.([]byte)})
	if c.hang {
		return newFakeToken(nil, false)
	}
	if topic == c.failTopic {
		return newFakeToken(errors.New("not authorized"), true)
	}
	return newFakeToken(nil, true)
}

func (c *fakeClient) Disconnect(uint) {}

func TestMQTTWritePoints(t *testing.T) {
	client := &fakeClient{}
	m := &MQTT{topicPrefix: "fronius", qos: 1, retain: true, timeout: time.Second, client: client}

	ts := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	soc := 55.5
	points := []types.Point{
		types.NewPoint("storage", ts).Tag("device_id", "0").Float("soc", &soc),
		types.NewPoint("powerflow", ts).Field("p_pv", 2000.0),
		types.NewPoint("broken", ts),
	}
	require.NoError(t, m.WritePoints(context.Background(), points))

	require.Len(t, client.messages, 2)
	assert.Equal(t, "fronius/storage/0", client.messages[0].topic)
	assert.Equal(t, byte(1), client.messages[0].qos)
	assert.True(t, client.messages[0].retained)
	assert.Equal(t, "fronius/powerflow", client.messages[1].topic)

	var got types.Point
	require.NoError(t, json.Unmarshal(client.messages[0].payload, &got))
	assert.Equal(t, "storage", got.Measurement)
	assert.Equal(t, 55.5, got.Fields["soc"])
	assert.True(t, got.Time.Equal(ts))
}

func TestMQTTWritePointsError(t *testing.T) {
	client := &fakeClient{failTopic: "fronius/meter/0"}
	m := &MQTT{topicPrefix: "fronius", timeout: time.Second, client: client}

	ts := time.Now()
	err := m.WritePoints(context.Background(), []types.Point{
		types.NewPoint("meter", ts).Tag("device_id", "0").Field("p", 1.0),
		types.NewPoint("meter", ts).Tag("device_id", "1").Field("p", 2.0),
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "fronius/meter/0")
	assert.NotContains(t, err.Error(), "fronius/meter/1")
	assert.Len(t, client.messages, 2)
}

func TestMQTTWritePointsTimeout(t *testing.T) {
	client := &fakeClient{hang: true}
	m := &MQTT{topicPrefix: "fronius", timeout: 20 * time.Millisecond, client: client}

	err := m.WritePoints(context.Background(), []types.Point{
		types.NewPoint("meter", time.Now()).Field("p", 1.0),
	})
	assert.ErrorContains(t, err, "timed out")
}

func TestMQTTValidate(t *testing.T) {
	assert.Error(t, (&MQTT{}).Validate())
	assert.Error(t, (&MQTT{broker: "tcp://b:1883"}).Validate())
	assert.Error(t, (&MQTT{broker: "tcp://b:1883", topicPrefix: "f", qos: 3}).Validate())
	assert.NoError(t, (&MQTT{broker: "tcp://b:1883", topicPrefix: "f"}).Validate())
}
