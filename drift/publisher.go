package drift

import (
	"encoding/json"
	"fmt"
	"log"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/paulmach/orb/geojson"
)

// publishTimeout bounds each publish token wait
const publishTimeout = 2 * time.Second

// Publisher publishes run summaries and GeoJSON artifacts to MQTT
type Publisher struct {
	client        mqtt.Client
	publishPrefix string
	qos           byte
	retain        bool
}

// NewPublisher creates a publisher. A nil client makes every publish fail
// with a not-connected error.
func NewPublisher(client mqtt.Client, prefix string) *Publisher {
	if prefix == "" {
		prefix = DefaultPublishPrefix
	}
	return &Publisher{
		client:        client,
		publishPrefix: prefix,
		qos:           1,
		retain:        true,
	}
}

// SetQoS sets the Quality of Service level for publishing (0, 1, or 2)
func (p *Publisher) SetQoS(qos byte) {
	if qos <= 2 {
		p.qos = qos
	}
}

// SetRetain sets whether published messages should be retained by the broker
func (p *Publisher) SetRetain(retain bool) {
	p.retain = retain
}

// RunTopic returns the topic for one run summary
func (p *Publisher) RunTopic(name string) string {
	return fmt.Sprintf("%s/runs/%s", p.publishPrefix, name)
}

// LatestTopic returns the topic carrying the most recent summary
func (p *Publisher) LatestTopic() string {
	return p.publishPrefix + "/latest"
}

// GeoJSONTopic returns the topic for a run's point features
func (p *Publisher) GeoJSONTopic(name string) string {
	return fmt.Sprintf("%s/geojson/%s", p.publishPrefix, name)
}

// PublishRun publishes the summary to its run topic and to the latest topic
func (p *Publisher) PublishRun(summary *RunSummary) error {
	payload, err := json.Marshal(summary)
	if err != nil {
		return fmt.Errorf("marshaling run summary: %w", err)
	}
	if err := p.publish(p.RunTopic(summary.Name), payload); err != nil {
		return err
	}
	if err := p.publish(p.LatestTopic(), payload); err != nil {
		return err
	}

	log.Printf("[MQTT] Published %s: %d observations, %d outliers",
		summary.Name, summary.Observations, summary.Outliers)
	return nil
}

// PublishGeoJSON publishes a feature collection for a run
func (p *Publisher) PublishGeoJSON(name string, fc *geojson.FeatureCollection) error {
	payload, err := fc.MarshalJSON()
	if err != nil {
		return fmt.Errorf("marshaling GeoJSON: %w", err)
	}
	return p.publish(p.GeoJSONTopic(name), payload)
}

func (p *Publisher) publish(topic string, payload []byte) error {
	if p.client == nil || !p.client.IsConnected() {
		return fmt.Errorf("MQTT client not connected")
	}

	token := p.client.Publish(topic, p.qos, p.retain, payload)
	if !token.WaitTimeout(publishTimeout) {
		return fmt.Errorf("publishing to %s: timed out", topic)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("publishing to %s: %w", topic, err)
	}
	return nil
}
