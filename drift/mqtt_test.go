package drift

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveMQTTConfig_FromEnvAndConfig(t *testing.T) {
	t.Setenv("MQTT_BROKER", "")
	t.Setenv("MQTT_CLIENT_ID", "")
	t.Setenv("MQTT_USERNAME", "")
	t.Setenv("MQTT_PASSWORD", "")
	t.Setenv("MQTT_PUBLISH_PREFIX", "")

	cfg := ResolveMQTTConfig(MQTTConfig{Broker: "tcp://config:1883"})
	assert.Equal(t, "tcp://config:1883", cfg.Broker)
	assert.Equal(t, DefaultClientID, cfg.ClientID)
	assert.Equal(t, DefaultPublishPrefix, cfg.PublishPrefix)

	t.Setenv("MQTT_BROKER", "tcp://env:1883")
	t.Setenv("MQTT_USERNAME", "ice")
	t.Setenv("MQTT_PUBLISH_PREFIX", "seaice")
	cfg = ResolveMQTTConfig(MQTTConfig{Broker: "tcp://config:1883", PublishPrefix: "cfg"})
	assert.Equal(t, "tcp://env:1883", cfg.Broker, "environment wins over config")
	assert.Equal(t, "ice", cfg.Username)
	assert.Equal(t, "seaice", cfg.PublishPrefix)
}

func TestConnectMQTT_Disabled(t *testing.T) {
	t.Setenv("MQTT_BROKER", "")
	client, cfg, err := ConnectMQTT(MQTTConfig{})
	assert.NoError(t, err)
	assert.Nil(t, client)
	assert.Equal(t, DefaultPublishPrefix, cfg.PublishPrefix)
}

func TestNewClientOptions(t *testing.T) {
	opts := NewClientOptions(MQTTConfig{
		Broker:   "tcp://localhost:1883",
		ClientID: "icedrift-test",
		Username: "user",
		Password: "secret",
	})
	require.Len(t, opts.Servers, 1)
	assert.Equal(t, "localhost:1883", opts.Servers[0].Host)
	assert.Equal(t, "icedrift-test", opts.ClientID)
	assert.Equal(t, "user", opts.Username)
	assert.True(t, opts.AutoReconnect)
}

func TestConnectClient_WithMock(t *testing.T) {
	mock := NewMockClient()
	require.NoError(t, connectClient(mock, time.Second))
	assert.True(t, mock.IsConnected())

	failing := NewMockClient()
	failing.SetConnectError(errors.New("refused"))
	err := connectClient(failing, time.Second)
	assert.Error(t, err)
	assert.False(t, failing.IsConnected())
}

func TestMockClient_PublishNotConnected(t *testing.T) {
	mock := NewMockClient()
	token := mock.Publish("t", 0, false, []byte("x"))
	assert.Error(t, token.Error())
	assert.Empty(t, mock.GetPublishedMessages())

	mock.SetConnected(true)
	token = mock.Publish("t", 0, false, "x")
	assert.NoError(t, token.Error())
	assert.Equal(t, []byte("x"), mock.GetPublishedMessages()[0].Payload)

	mock.Disconnect(0)
	assert.False(t, mock.IsConnectionOpen())
}
