// Package ingest feeds odometer and hour-meter readings published over MQTT into the
// fleet service.
package ingest

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	log "github.com/sirupsen/logrus"
	"github.com/ukydev/fleet-maintenance/internal/models"
)

// DefaultTopic is the subscription filter; the wildcard level carries the equipment id.
const DefaultTopic = "equipment/+/readings"

const (
	qos            = 1
	connectTimeout = 10 * time.Second
	applyTimeout   = 5 * time.Second
)

// ReadingApplier applies one reading to stored equipment. *fleet.Service implements it.
type ReadingApplier interface {
	ApplyReading(ctx context.Context, equipmentID string, reading models.Reading) (bool, error)
}

// Message is the JSON payload of a reading. EquipmentID is only consulted when the topic
// does not carry one.
type Message struct {
	EquipmentID string `json:"equipment_id,omitempty"`
	models.Reading
}

// Subscriber consumes reading messages from a broker.
type Subscriber struct {
	client  mqtt.Client
	topic   string
	applier ReadingApplier
}

// NewSubscriber creates a subscriber for broker. Nothing connects until Start.
func NewSubscriber(broker, clientID, topic string, applier ReadingApplier) *Subscriber {
	if topic == "" {
		topic = DefaultTopic
	}
	s := &Subscriber{topic: topic, applier: applier}

	opts := mqtt.NewClientOptions().
		AddBroker(broker).
		SetClientID(clientID).
		SetCleanSession(false).
		SetAutoReconnect(true).
		SetConnectTimeout(connectTimeout).
		SetOnConnectHandler(s.subscribe).
		SetConnectionLostHandler(func(_ mqtt.Client, err error) {
			log.WithError(err).Warn("MQTT connection lost, reconnecting")
		})
	s.client = mqtt.NewClient(opts)
	return s
}

// Start connects to the broker. The subscription is (re)established on every connect.
func (s *Subscriber) Start() error {
	token := s.client.Connect()
	if !token.WaitTimeout(connectTimeout) {
		return fmt.Errorf("connect to mqtt broker: timed out after %s", connectTimeout)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("connect to mqtt broker: %w", err)
	}
	return nil
}

// Stop unsubscribes and disconnects, waiting briefly for in-flight work.
func (s *Subscriber) Stop() {
	if !s.client.IsConnected() {
		return
	}
	s.client.Unsubscribe(s.topic).WaitTimeout(time.Second)
	s.client.Disconnect(250)
}

func (s *Subscriber) subscribe(c mqtt.Client) {
	token := c.Subscribe(s.topic, qos, s.HandleMessage)
	if token.Wait() && token.Error() != nil {
		log.WithError(token.Error()).WithField("topic", s.topic).Error("MQTT subscribe failed")
		return
	}
	log.WithField("topic", s.topic).Info("Subscribed to equipment readings")
}

// HandleMessage decodes one reading and applies it. Bad messages are logged and dropped.
func (s *Subscriber) HandleMessage(_ mqtt.Client, msg mqtt.Message) {
	logger := log.WithField("topic", msg.Topic())

	var m Message
	if err := json.Unmarshal(msg.Payload(), &m); err != nil {
		logger.WithError(err).Warn("Dropping malformed reading")
		return
	}
	equipmentID, ok := EquipmentIDFromTopic(s.topic, msg.Topic())
	if !ok {
		equipmentID = m.EquipmentID
	}
	if equipmentID == "" {
		logger.Warn("Dropping reading without equipment id")
		return
	}
	logger = logger.WithField("equipment_id", equipmentID)

	ctx, cancel := context.WithTimeout(context.Background(), applyTimeout)
	defer cancel()

	changed, err := s.applier.ApplyReading(ctx, equipmentID, m.Reading)
	if err != nil {
		logger.WithError(err).Warn("Reading rejected")
		return
	}
	if changed {
		logger.Debug("Reading applied")
	}
}

// EquipmentIDFromTopic returns the topic level matching the single-level wildcard of
// filter, e.g. "abc" for filter "equipment/+/readings" and topic "equipment/abc/readings".
func EquipmentIDFromTopic(filter, topic string) (string, bool) {
	fl := strings.Split(filter, "/")
	tl := strings.Split(topic, "/")
	if len(fl) != len(tl) {
		return "", false
	}
	id := ""
	for i := range fl {
		switch fl[i] {
		case "+":
			if id != "" || tl[i] == "" {
				return "", false
			}
			id = tl[i]
		default:
			if fl[i] != tl[i] {
				return "", false
			}
		}
	}
	return id, id != ""
}

// ReadingTopic is the topic a reading for equipmentID is published on under filter.
func ReadingTopic(filter, equipmentID string) (string, error) {
	if strings.Count(filter, "+") != 1 {
		return "", errors.New("topic filter must contain exactly one '+' level")
	}
	return strings.Replace(filter, "+", equipmentID, 1), nil
}
