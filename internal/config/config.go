package config

import (
	"fmt"
	"os"
	"strconv"
)

// Config lists the tunable parameters for the readings server.
type Config struct {
	Addr        string
	LogLevel    string
	LogFormat   string
	StoresFile  string
	ProfilePath string
	SeedFile    string
	WatchSeed   bool
	MQTT        MQTTConfig
}

// MQTTConfig enables reading ingest from a broker when Broker is set.
type MQTTConfig struct {
	Broker   string
	ClientID string
	Username string
	Password string
	Topic    string
	QoS      byte
}

const (
	defaultAddr        = ":8080"
	defaultLogLevel    = "info"
	defaultLogFormat   = "json"
	defaultStoresFile  = "stores.yaml"
	defaultProfilePath = "data/profile.yaml"
	defaultMQTTClient  = "heart-readings-server"
	defaultMQTTTopic   = "heart/readings"
)

// Load derives configuration values from environment variables, falling back to defaults.
func Load() (Config, error) {
	cfg := Config{
		Addr:        defaultAddr,
		LogLevel:    defaultLogLevel,
		LogFormat:   defaultLogFormat,
		StoresFile:  defaultStoresFile,
		ProfilePath: defaultProfilePath,
		MQTT: MQTTConfig{
			ClientID: defaultMQTTClient,
			Topic:    defaultMQTTTopic,
			QoS:      1,
		},
	}

	if v := os.Getenv("HEART_ADDR"); v != "" {
		cfg.Addr = v
	}
	if v := os.Getenv("HEART_LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}
	if v := os.Getenv("HEART_LOG_FORMAT"); v != "" {
		cfg.LogFormat = v
	}
	if v := os.Getenv("HEART_STORES_FILE"); v != "" {
		cfg.StoresFile = v
	}
	if v := os.Getenv("HEART_PROFILE_PATH"); v != "" {
		cfg.ProfilePath = v
	}
	if v := os.Getenv("HEART_SEED_FILE"); v != "" {
		cfg.SeedFile = v
	}
	if v := os.Getenv("HEART_WATCH_SEED"); v != "" {
		watch, err := strconv.ParseBool(v)
		if err != nil {
			return Config{}, fmt.Errorf("invalid HEART_WATCH_SEED: %w", err)
		}
		cfg.WatchSeed = watch
	}

	if v := os.Getenv("HEART_MQTT_BROKER"); v != "" {
		cfg.MQTT.Broker = v
	}
	if v := os.Getenv("HEART_MQTT_CLIENT_ID"); v != "" {
		cfg.MQTT.ClientID = v
	}
	if v := os.Getenv("HEART_MQTT_USERNAME"); v != "" {
		cfg.MQTT.Username = v
	}
	if v := os.Getenv("HEART_MQTT_PASSWORD"); v != "" {
		cfg.MQTT.Password = v
	}
	if v := os.Getenv("HEART_MQTT_TOPIC"); v != "" {
		cfg.MQTT.Topic = v
	}
	if v := os.Getenv("HEART_MQTT_QOS"); v != "" {
		qos, err := strconv.ParseUint(v, 10, 8)
		if err != nil || qos > 2 {
			return Config{}, fmt.Errorf("invalid HEART_MQTT_QOS: %q", v)
		}
		cfg.MQTT.QoS = byte(qos)
	}

	return cfg, nil
}
