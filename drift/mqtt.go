package drift

import (
	"fmt"
	"log"
	"os"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
)

// connectTimeout bounds the initial broker connection
const connectTimeout = 10 * time.Second

// ResolveMQTTConfig applies MQTT_* environment overrides to cfg
func ResolveMQTTConfig(cfg MQTTConfig) MQTTConfig {
	if v := os.Getenv("MQTT_BROKER"); v != "" {
		cfg.Broker = v
	}
	if v := os.Getenv("MQTT_CLIENT_ID"); v != "" {
		cfg.ClientID = v
	}
	if v := os.Getenv("MQTT_USERNAME"); v != "" {
		cfg.Username = v
	}
	if v := os.Getenv("MQTT_PASSWORD"); v != "" {
		cfg.Password = v
	}
	if v := os.Getenv("MQTT_PUBLISH_PREFIX"); v != "" {
		cfg.PublishPrefix = v
	}
	if cfg.ClientID == "" {
		cfg.ClientID = DefaultClientID
	}
	if cfg.PublishPrefix == "" {
		cfg.PublishPrefix = DefaultPublishPrefix
	}
	return cfg
}

// NewClientOptions builds paho options for cfg
func NewClientOptions(cfg MQTTConfig) *mqtt.ClientOptions {
	opts := mqtt.NewClientOptions()
	opts.AddBroker(cfg.Broker)
	opts.SetClientID(cfg.ClientID)
	if cfg.Username != "" {
		opts.SetUsername(cfg.Username)
		opts.SetPassword(cfg.Password)
	}

	opts.SetAutoReconnect(true)
	opts.SetConnectRetry(true)
	opts.SetConnectRetryInterval(5 * time.Second)
	opts.SetMaxReconnectInterval(60 * time.Second)
	opts.SetKeepAlive(60 * time.Second)
	opts.SetPingTimeout(10 * time.Second)
	opts.SetCleanSession(true)

	opts.SetOnConnectHandler(func(mqtt.Client) {
		log.Printf("[MQTT] Connected to %s", cfg.Broker)
	})
	opts.SetConnectionLostHandler(func(_ mqtt.Client, err error) {
		log.Printf("[MQTT] Connection lost: %v", err)
	})
	opts.SetReconnectingHandler(func(mqtt.Client, *mqtt.ClientOptions) {
		log.Printf("[MQTT] Reconnecting to %s", cfg.Broker)
	})
	return opts
}

// ConnectMQTT connects a paho client for cfg after environment overrides.
// An empty broker disables MQTT and returns a nil client and nil error.
func ConnectMQTT(cfg MQTTConfig) (mqtt.Client, MQTTConfig, error) {
	cfg = ResolveMQTTConfig(cfg)
	if cfg.Broker == "" {
		log.Println("MQTT disabled: no broker configured")
		return nil, cfg, nil
	}

	client := mqtt.NewClient(NewClientOptions(cfg))
	if err := connectClient(client, connectTimeout); err != nil {
		return nil, cfg, err
	}
	return client, cfg, nil
}

// connectClient waits up to timeout for the connect token
func connectClient(client mqtt.Client, timeout time.Duration) error {
	token := client.Connect()
	if !token.WaitTimeout(timeout) {
		return fmt.Errorf("connecting to MQTT broker: timed out after %s", timeout)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("connecting to MQTT broker: %w", err)
	}
	return nil
}
