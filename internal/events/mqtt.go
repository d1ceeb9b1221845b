package events

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
)

// MQTTConfig holds MQTT sink settings.
type MQTTConfig struct {
	Broker   string
	ClientID string
	Username string
	Password string
	// Topic is the prefix; each event goes to <Topic>/<event name>.
	Topic string
}

// publisher is the part of mqtt.Client the sink uses.
type publisher interface {
	Publish(topic string, qos byte, retained bool, payload interface{}) mqtt.Token
	Disconnect(quiesce uint)
}

// MQTTSink publishes events as JSON so home automation or other devices
// can react to dictation state.
type MQTTSink struct {
	client publisher
	topic  string
}

type mqttMessage struct {
	Event     string    `json:"event"`
	Payload   any       `json:"payload,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// NewMQTTSink connects to the broker.
func NewMQTTSink(cfg MQTTConfig) (*MQTTSink, error) {
	opts := mqtt.NewClientOptions()
	opts.AddBroker(cfg.Broker)
	opts.SetClientID(cfg.ClientID)
	opts.SetUsername(cfg.Username)
	opts.SetPassword(cfg.Password)
	opts.SetAutoReconnect(true)
	opts.SetKeepAlive(60 * time.Second)
	opts.SetConnectTimeout(10 * time.Second)
	opts.SetConnectionLostHandler(func(_ mqtt.Client, err error) {
		slog.Warn("[mqtt] connection lost", "err", err)
	})

	client := mqtt.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		return nil, fmt.Errorf("events: connect to MQTT broker %s: %w", cfg.Broker, token.Error())
	}
	slog.Info("[mqtt] connected", "broker", cfg.Broker, "topic", cfg.Topic)

	return newMQTTSink(client, cfg.Topic), nil
}

func newMQTTSink(client publisher, topic string) *MQTTSink {
	return &MQTTSink{client: client, topic: strings.TrimSuffix(topic, "/")}
}

// Emit implements Sink. Publishing is QoS 0 and does not wait for the
// broker.
func (s *MQTTSink) Emit(name string, payload any) {
	data, err := json.Marshal(mqttMessage{Event: name, Payload: payload, Timestamp: time.Now().UTC()})
	if err != nil {
		slog.Warn("[mqtt] encoding event", "event", name, "err", err)
		return
	}
	token := s.client.Publish(s.topic+"/"+name, 0, false, data)
	go func() {
		if token.WaitTimeout(5*time.Second) && token.Error() != nil {
			slog.Warn("[mqtt] publish failed", "event", name, "err", token.Error())
		}
	}()
}

// Close disconnects from the broker.
func (s *MQTTSink) Close() {
	s.client.Disconnect(250)
}
