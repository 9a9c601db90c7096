// Package events pushes dispatch and now-playing updates to studio
// dashboards over MQTT. Everything here is best effort: a broker outage
// must never affect dispatching itself.
package events

import (
	"encoding/json"
	"fmt"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/rs/zerolog/log"

	"github.com/Andes-Streaming/cartwall/internal/model"
)

const publishTimeout = 5 * time.Second

// Publisher is nil-safe: a nil *Publisher silently drops every publish, so
// deployments without a broker just leave MQTT_BROKER_URL unset.
type Publisher struct {
	client    mqtt.Client
	stationID int
}

func NewPublisher(brokerURL, clientID string, stationID int) (*Publisher, error) {
	opts := mqtt.NewClientOptions()
	opts.AddBroker(brokerURL)
	opts.SetClientID(clientID)
	opts.SetAutoReconnect(true)
	opts.OnConnect = func(mqtt.Client) {
		log.Info().Str("broker", brokerURL).Msg("connected to MQTT broker")
	}
	opts.OnConnectionLost = func(_ mqtt.Client, err error) {
		log.Warn().Err(err).Msg("MQTT connection lost")
	}

	client := mqtt.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		return nil, fmt.Errorf("failed to connect to MQTT broker: %w", token.Error())
	}
	return &Publisher{client: client, stationID: stationID}, nil
}

type dispatchEvent struct {
	ScheduleID int    `json:"schedule_id"`
	Title      string `json:"title"`
	Filename   string `json:"filename"`
	Status     string `json:"status"`
	Message    string `json:"message"`
	At         string `json:"at"`
}

// PublishDispatch announces one dispatch outcome. Satisfies the
// dispatch.Publisher interface.
func (p *Publisher) PublishDispatch(rec model.ScheduleRecord, status model.ExecutionStatus, message string) {
	if p == nil {
		return
	}
	payload, err := json.Marshal(dispatchEvent{
		ScheduleID: rec.ID,
		Title:      rec.Title,
		Filename:   rec.Filename,
		Status:     string(status),
		Message:    message,
		At:         time.Now().UTC().Format(time.RFC3339),
	})
	if err != nil {
		return
	}
	p.publish(fmt.Sprintf("station/%d/dispatch", p.stationID), payload)
}

// PublishNowPlaying forwards the serialized now-playing payload.
func (p *Publisher) PublishNowPlaying(payload []byte) {
	if p == nil {
		return
	}
	p.publish(fmt.Sprintf("station/%d/nowplaying", p.stationID), payload)
}

func (p *Publisher) publish(topic string, payload []byte) {
	token := p.client.Publish(topic, 1, false, payload)
	if !token.WaitTimeout(publishTimeout) {
		log.Warn().Str("topic", topic).Msg("MQTT publish timed out")
		return
	}
	if err := token.Error(); err != nil {
		log.Warn().Err(err).Str("topic", topic).Msg("MQTT publish failed")
	}
}

// Close disconnects from the broker.
func (p *Publisher) Close() {
	if p == nil {
		return
	}
	p.client.Disconnect(250)
}
