// Package mqttsource subscribes to the network server's uplink topic and
// feeds each message through the same ingest pipeline as the HTTP webhook.
package mqttsource

import (
	"context"
	"errors"
	"log"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"parking-status-backend/config"
	"parking-status-backend/internal/ingest"
)

// Source consumes uplink envelopes from an MQTT broker. Broker credentials
// stand in for the webhook bearer token; rate limiting and payload
// validation still apply to every message.
type Source struct {
	cfg    *config.MQTTConfig
	ingest *ingest.Service
}

// NewSource creates an MQTT uplink source.
func NewSource(cfg *config.MQTTConfig, svc *ingest.Service) *Source {
	return &Source{cfg: cfg, ingest: svc}
}

// Run connects, subscribes and blocks until the context is cancelled.
func (s *Source) Run(ctx context.Context) {
	if !s.cfg.Enabled {
		log.Println("MQTT source is disabled. Not starting.")
		return
	}

	opts := mqtt.NewClientOptions().
		AddBroker(s.cfg.Broker).
		SetClientID(s.cfg.ClientID).
		SetUsername(s.cfg.Username).
		SetPassword(s.cfg.Password).
		SetAutoReconnect(true)

	client := mqtt.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		log.Printf("MQTT connect failed: %v", token.Error())
		return
	}
	log.Printf("MQTT source connected to %s", s.cfg.Broker)

	handler := func(_ mqtt.Client, msg mqtt.Message) {
		s.handleMessage(ctx, msg.Payload())
	}
	if token := client.Subscribe(s.cfg.Topic, 1, handler); token.Wait() && token.Error() != nil {
		log.Printf("MQTT subscribe to %q failed: %v", s.cfg.Topic, token.Error())
		client.Disconnect(250)
		return
	}
	log.Printf("MQTT source subscribed to %q", s.cfg.Topic)

	<-ctx.Done()
	log.Println("MQTT source shutting down.")
	client.Disconnect(250)
}

// handleMessage ingests one uplink payload. Rejections are logged and
// dropped; the broker is not asked to redeliver caller-attributable errors.
func (s *Source) handleMessage(ctx context.Context, payload []byte) {
	_, err := s.ingest.IngestTrusted(ctx, payload)
	if err == nil {
		return
	}

	var vErr *ingest.ValidationError
	switch {
	case errors.As(err, &vErr):
		log.Printf("MQTT uplink rejected: %v", vErr)
	case errors.Is(err, ingest.ErrRateLimited):
		log.Printf("MQTT uplink rate-limited, dropping message")
	default:
		log.Printf("MQTT uplink ingest failed: %v", err)
	}
}
