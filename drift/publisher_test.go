package drift

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/paulmach/orb/geojson"
)

func testSummary() *RunSummary {
	return &RunSummary{
		Name:         "SIVelocity_SAR_20210101_000000_20210102_000000_v0",
		Method:       MethodZScore,
		Observations: 5,
		Outliers:     1,
		Categories:   map[Category]int{Category01: 4, Category11: 1},
	}
}

func TestNewPublisher(t *testing.T) {
	publisher := NewPublisher(nil, "")
	if publisher == nil {
		t.Fatal("NewPublisher() returned nil")
	}
	if publisher.publishPrefix != DefaultPublishPrefix {
		t.Errorf("Default prefix = %s, want %s", publisher.publishPrefix, DefaultPublishPrefix)
	}
	if publisher.qos != 1 {
		t.Errorf("Default QoS = %d, want 1", publisher.qos)
	}
	if !publisher.retain {
		t.Error("Default retain should be true")
	}
}

func TestPublisher_SetQoS(t *testing.T) {
	publisher := NewPublisher(nil, "x")
	publisher.SetQoS(2)
	if publisher.qos != 2 {
		t.Errorf("QoS = %d, want 2", publisher.qos)
	}
	publisher.SetQoS(5)
	if publisher.qos != 2 {
		t.Errorf("invalid QoS should be ignored, got %d", publisher.qos)
	}
	publisher.SetRetain(false)
	if publisher.retain {
		t.Error("retain should be false")
	}
}

func TestPublisher_Topics(t *testing.T) {
	publisher := NewPublisher(nil, "seaice")
	tests := []struct {
		got, want string
	}{
		{publisher.RunTopic("run1"), "seaice/runs/run1"},
		{publisher.LatestTopic(), "seaice/latest"},
		{publisher.GeoJSONTopic("run1"), "seaice/geojson/run1"},
	}
	for _, tt := range tests {
		if tt.got != tt.want {
			t.Errorf("topic = %s, want %s", tt.got, tt.want)
		}
	}
}

func TestPublisher_WithMock(t *testing.T) {
	mock := NewMockClient()
	mock.SetConnected(true)
	publisher := NewPublisher(mock, "icedrift")

	summary := testSummary()
	if err := publisher.PublishRun(summary); err != nil {
		t.Fatalf("PublishRun error = %v, want nil", err)
	}

	messages := mock.GetPublishedMessages()
	if len(messages) != 2 {
		t.Fatalf("Published messages count = %d, want 2 (run + latest)", len(messages))
	}
	if messages[0].Topic != "icedrift/runs/"+summary.Name {
		t.Errorf("Run topic = %s", messages[0].Topic)
	}
	if messages[1].Topic != "icedrift/latest" {
		t.Errorf("Latest topic = %s, want icedrift/latest", messages[1].Topic)
	}
	if !messages[0].Retain || messages[0].QoS != 1 {
		t.Errorf("Run message retain=%v qos=%d, want true/1", messages[0].Retain, messages[0].QoS)
	}

	var decoded RunSummary
	if err := json.Unmarshal(messages[0].Payload, &decoded); err != nil {
		t.Fatalf("Failed to unmarshal run message: %v", err)
	}
	if decoded.Outliers != 1 || decoded.Categories[Category01] != 4 {
		t.Errorf("decoded summary = %+v", decoded)
	}
}

func TestPublisher_PublishGeoJSON(t *testing.T) {
	mock := NewMockClient()
	mock.SetConnected(true)
	publisher := NewPublisher(mock, "icedrift")

	fc := ObservationPoints(table(clusterScene("a", "b")...))
	if err := publisher.PublishGeoJSON("run1", fc); err != nil {
		t.Fatalf("PublishGeoJSON error = %v", err)
	}

	messages := mock.GetPublishedMessages()
	if len(messages) != 1 || messages[0].Topic != "icedrift/geojson/run1" {
		t.Fatalf("messages = %+v", messages)
	}
	decoded, err := geojson.UnmarshalFeatureCollection(messages[0].Payload)
	if err != nil {
		t.Fatalf("payload is not GeoJSON: %v", err)
	}
	if len(decoded.Features) != 5 {
		t.Errorf("features = %d, want 5", len(decoded.Features))
	}
}

func TestPublisher_WithMock_NotConnected(t *testing.T) {
	mock := NewMockClient()
	publisher := NewPublisher(mock, "")

	if err := publisher.PublishRun(testSummary()); err == nil {
		t.Error("PublishRun should error when client not connected")
	}
	if len(mock.GetPublishedMessages()) != 0 {
		t.Error("nothing should be published")
	}

	if err := NewPublisher(nil, "").PublishRun(testSummary()); err == nil {
		t.Error("PublishRun should error with nil client")
	}
}

func TestPublisher_WithMock_PublishError(t *testing.T) {
	mock := NewMockClient()
	mock.SetConnected(true)
	mock.SetPublishError(errors.New("publish failed"))
	publisher := NewPublisher(mock, "")

	err := publisher.PublishRun(testSummary())
	if err == nil {
		t.Fatal("PublishRun should return publish error")
	}
	if !errors.Is(err, mock.publishError) {
		t.Errorf("error should wrap the client error, got %v", err)
	}
}
