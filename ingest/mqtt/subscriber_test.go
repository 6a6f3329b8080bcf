package mqtt

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/joeecarter/heart-readings-server/internal/config"
	"github.com/joeecarter/heart-readings-server/reading"
)

const payload = `{"data": {
	"readings": [{"date": "2023-07-17 08:00:00 +0000", "heartRate": 70, "ecgType": "normal", "systolic": 121, "diastolic": 79}],
	"ecg": [{"classification": "Sinus Rhythm", "source": "Watch", "start": "2023-07-17 09:00:00 +0000", "averageHeartRate": 71.2}]
}}`

type fakeImporter struct {
	mu       sync.Mutex
	readings []*reading.Reading
	err      error
}

func (f *fakeImporter) Import(ctx context.Context, readings []*reading.Reading) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return 0, f.err
	}
	f.readings = append(f.readings, readings...)
	return len(readings), nil
}

func (f *fakeImporter) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.readings)
}

type fakeToken struct{ err error }

func (t fakeToken) Wait() bool                     { return true }
func (t fakeToken) WaitTimeout(time.Duration) bool { return true }
func (t fakeToken) Error() error                   { return t.err }
func (t fakeToken) Done() <-chan struct{} {
	ch := make(chan struct{})
	close(ch)
	return ch
}

type fakeMessage struct {
	paho.Message
	topic   string
	payload []byte
}

func (m fakeMessage) Topic() string   { return m.topic }
func (m fakeMessage) Payload() []byte { return m.payload }

type fakeClient struct {
	paho.Client
	opts       *paho.ClientOptions
	connectErr error

	subscribed   chan paho.MessageHandler
	unsubscribed bool
	disconnected bool
}

func (c *fakeClient) Connect() paho.Token { return fakeToken{err: c.connectErr} }

func (c *fakeClient) Subscribe(topic string, qos byte, callback paho.MessageHandler) paho.Token {
	c.subscribed <- callback
	return fakeToken{}
}

func (c *fakeClient) Unsubscribe(topics ...string) paho.Token {
	c.unsubscribed = true
	return fakeToken{}
}

func (c *fakeClient) Disconnect(quiesce uint) { c.disconnected = true }

func testConfig() config.MQTTConfig {
	return config.MQTTConfig{Broker: "tcp://localhost:1883", ClientID: "test", Topic: "heart/readings", QoS: 1}
}

func TestHandleMessage(t *testing.T) {
	importer := &fakeImporter{}
	s := NewSubscriber(testConfig(), importer, zap.NewNop())

	require.NoError(t, s.HandleMessage(context.Background(), "heart/readings", []byte(payload)))
	require.Len(t, importer.readings, 2)
	assert.Equal(t, 70, importer.readings[0].HeartRate)
	assert.Equal(t, reading.ECGNormal, importer.readings[1].ECGType)

	require.NoError(t, s.HandleMessage(context.Background(), "heart/readings", []byte(`{"data": {}}`)))
	assert.Len(t, importer.readings, 2)

	assert.Error(t, s.HandleMessage(context.Background(), "heart/readings", []byte(`nope`)))

	importer.err = errors.New("store offline")
	err := s.HandleMessage(context.Background(), "heart/readings", []byte(payload))
	assert.ErrorContains(t, err, "store offline")
}

func TestRun(t *testing.T) {
	importer := &fakeImporter{}
	s := NewSubscriber(testConfig(), importer, zap.NewNop())

	fake := &fakeClient{subscribed: make(chan paho.MessageHandler, 1)}
	s.newClient = func(opts *paho.ClientOptions) paho.Client {
		fake.opts = opts
		return fake
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()

	var callback paho.MessageHandler
	select {
	case callback = <-fake.subscribed:
	case <-time.After(5 * time.Second):
		t.Fatal("subscriber never subscribed")
	}

	callback(fake, fakeMessage{topic: "heart/readings", payload: []byte(payload)})
	assert.Equal(t, 2, importer.count())

	cancel()
	require.NoError(t, <-done)
	assert.True(t, fake.unsubscribed)
	assert.True(t, fake.disconnected)
	assert.Equal(t, "test", fake.opts.ClientID)
}

func TestRun_ConnectFailure(t *testing.T) {
	s := NewSubscriber(testConfig(), &fakeImporter{}, zap.NewNop())
	s.newClient = func(opts *paho.ClientOptions) paho.Client {
		return &fakeClient{connectErr: errors.New("refused")}
	}

	err := s.Run(context.Background())
	assert.ErrorContains(t, err, "refused")
}
