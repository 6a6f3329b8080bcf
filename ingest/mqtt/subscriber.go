package mqtt

import (
	"context"
	"fmt"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
	"go.uber.org/zap"

	"github.com/joeecarter/heart-readings-server/internal/config"
	"github.com/joeecarter/heart-readings-server/reading"
	"github.com/joeecarter/heart-readings-server/request"
)

const (
	disconnectQuiesce = 250
	importTimeout     = 30 * time.Second
)

// Importer stores readings received from the broker.
type Importer interface {
	Import(ctx context.Context, readings []*reading.Reading) (int, error)
}

// Subscriber imports export payloads published on a broker topic.
type Subscriber struct {
	cfg      config.MQTTConfig
	importer Importer
	logger   *zap.Logger

	newClient func(*paho.ClientOptions) paho.Client
}

func NewSubscriber(cfg config.MQTTConfig, importer Importer, logger *zap.Logger) *Subscriber {
	return &Subscriber{
		cfg:       cfg,
		importer:  importer,
		logger:    logger.With(zap.String("broker", cfg.Broker), zap.String("topic", cfg.Topic)),
		newClient: paho.NewClient,
	}
}

// HandleMessage parses one payload and imports its readings.
func (s *Subscriber) HandleMessage(ctx context.Context, topic string, payload []byte) error {
	export, err := request.Parse(payload)
	if err != nil {
		return fmt.Errorf("message on %s: %w", topic, err)
	}
	if export.TotalReadings() == 0 {
		s.logger.Debug("Ignoring message without readings")
		return nil
	}

	n, err := s.importer.Import(ctx, export.AllReadings())
	if err != nil {
		return fmt.Errorf("message on %s: %w", topic, err)
	}
	s.logger.Info("Imported readings from broker", zap.Int("readings", n))
	return nil
}

// Run connects, subscribes and blocks until ctx is cancelled.
func (s *Subscriber) Run(ctx context.Context) error {
	opts := paho.NewClientOptions()
	opts.AddBroker(s.cfg.Broker)
	opts.SetClientID(s.cfg.ClientID)
	if s.cfg.Username != "" {
		opts.SetUsername(s.cfg.Username)
	}
	if s.cfg.Password != "" {
		opts.SetPassword(s.cfg.Password)
	}
	opts.SetAutoReconnect(true)
	opts.SetCleanSession(true)
	opts.SetConnectionLostHandler(func(_ paho.Client, err error) {
		s.logger.Warn("Lost connection to broker", zap.Error(err))
	})

	client := s.newClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		return fmt.Errorf("failed to connect to MQTT broker: %w", token.Error())
	}
	defer client.Disconnect(disconnectQuiesce)

	token := client.Subscribe(s.cfg.Topic, s.cfg.QoS, func(_ paho.Client, msg paho.Message) {
		msgCtx, cancel := context.WithTimeout(ctx, importTimeout)
		defer cancel()
		if err := s.HandleMessage(msgCtx, msg.Topic(), msg.Payload()); err != nil {
			s.logger.Error("Error handling MQTT message", zap.Error(err))
		}
	})
	if token.Wait() && token.Error() != nil {
		return fmt.Errorf("failed to subscribe to topic %s: %w", s.cfg.Topic, token.Error())
	}
	s.logger.Info("Subscribed to broker")

	<-ctx.Done()

	if token := client.Unsubscribe(s.cfg.Topic); token.Wait() && token.Error() != nil {
		s.logger.Warn("Failed to unsubscribe", zap.Error(token.Error()))
	}
	return nil
}
