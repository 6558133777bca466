// Package mqttsink publishes stretch progress and job-complete events to
// an MQTT broker, following the connect/publish shape of
// ka9q_ubersdr's mqtt_publisher.go.
package mqttsink

import (
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
)

// Sink publishes PaulStretch job events to a single MQTT topic.
type Sink struct {
	client mqtt.Client
	topic  string
}

func generateClientID() string {
	b := make([]byte, 8)
	rand.Read(b)
	return "paulstretch_" + hex.EncodeToString(b)
}

// New connects to broker (e.g. "tcp://localhost:1883") and returns a Sink
// that publishes to topic. clientID may be empty to auto-generate one.
func New(broker, clientID, topic string) (*Sink, error) {
	if clientID == "" {
		clientID = generateClientID()
	}

	opts := mqtt.NewClientOptions()
	opts.AddBroker(broker)
	opts.SetClientID(clientID)
	opts.SetConnectTimeout(5 * time.Second)
	opts.SetAutoReconnect(true)

	client := mqtt.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		return nil, fmt.Errorf("mqttsink: connecting to %s: %w", broker, token.Error())
	}

	return &Sink{client: client, topic: topic}, nil
}

// progressPayload is the JSON body published on every progress callback.
type progressPayload struct {
	JobID     string  `json:"job_id"`
	Fraction  float64 `json:"fraction"`
	Timestamp int64   `json:"timestamp"`
}

// ProgressFunc returns a stretch.ProgressFunc-compatible callback that
// publishes each fraction under jobID. Publish errors are logged, not
// returned: a dropped telemetry message must never fail the stretch call
// itself (progress is advisory, per spec.md section 6).
func (s *Sink) ProgressFunc(jobID string) func(float64) {
	return func(fraction float64) {
		payload := progressPayload{JobID: jobID, Fraction: fraction, Timestamp: time.Now().Unix()}
		body, err := json.Marshal(payload)
		if err != nil {
			log.Printf("mqttsink: marshal error: %v", err)
			return
		}
		token := s.client.Publish(s.topic, 0, false, body)
		if token.WaitTimeout(time.Second) && token.Error() != nil {
			log.Printf("mqttsink: publish error: %v", token.Error())
		}
	}
}

// PublishJobComplete publishes a final message when a stretch finishes.
func (s *Sink) PublishJobComplete(jobID string, outputFrames int, err error) {
	status := "ok"
	if err != nil {
		status = err.Error()
	}
	body, marshalErr := json.Marshal(map[string]any{
		"job_id":        jobID,
		"status":        status,
		"output_frames": outputFrames,
		"timestamp":     time.Now().Unix(),
	})
	if marshalErr != nil {
		log.Printf("mqttsink: marshal error: %v", marshalErr)
		return
	}
	token := s.client.Publish(s.topic+"/complete", 0, false, body)
	token.WaitTimeout(time.Second)
}

// Close disconnects the MQTT client.
func (s *Sink) Close() {
	s.client.Disconnect(250)
}
