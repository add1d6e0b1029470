// Package mqtt mirrors the monitor status to an MQTT broker as a retained
// JSON message.
package mqtt

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
	"github.com/smazurov/gridlight/internal/events"
)

const (
	connectTimeout = 5 * time.Second
	publishTimeout = 2 * time.Second
	qos            = 1
)

// Client is the part of paho.Client the publisher uses.
type Client interface {
	Connect() paho.Token
	Publish(topic string, qos byte, retained bool, payload any) paho.Token
	Disconnect(quiesce uint)
}

// Config holds broker settings.
type Config struct {
	Broker   string
	ClientID string
	Topic    string
}

// Message is the retained payload.
type Message struct {
	Status    string `json:"status"`
	Signal    *int   `json:"signal,omitempty"`
	State     string `json:"state"`
	Timestamp string `json:"timestamp"`
}

// Publisher publishes status changes seen on the event bus.
type Publisher struct {
	client Client
	topic  string
	logger *slog.Logger

	mu        sync.Mutex
	state     string
	published *Message

	cancel context.CancelFunc
	done   chan struct{}
}

// NewPublisher creates a paho client for cfg. Reconnects are handled by
// paho; the last will marks the topic offline.
func NewPublisher(cfg Config, logger *slog.Logger) *Publisher {
	will, _ := json.Marshal(Message{Status: "offline", State: "off"})

	opts := paho.NewClientOptions().
		AddBroker(cfg.Broker).
		SetClientID(cfg.ClientID).
		SetAutoReconnect(true).
		SetConnectRetry(true).
		SetConnectRetryInterval(10 * time.Second).
		SetBinaryWill(cfg.Topic, will, qos, true).
		SetOnConnectHandler(func(paho.Client) {
			logger.Info("Connected to MQTT broker", "broker", cfg.Broker)
		}).
		SetConnectionLostHandler(func(_ paho.Client, err error) {
			logger.Warn("MQTT connection lost", "error", err)
		})

	return newPublisher(paho.NewClient(opts), cfg.Topic, logger)
}

func newPublisher(client Client, topic string, logger *slog.Logger) *Publisher {
	return &Publisher{
		client: client,
		topic:  topic,
		logger: logger,
		state:  "off",
	}
}

// Start connects and begins forwarding events until Stop. A broker that is
// not reachable yet is not an error; paho keeps retrying in the background.
func (p *Publisher) Start(bus *events.Bus) error {
	token := p.client.Connect()
	if token.WaitTimeout(connectTimeout) && token.Error() != nil {
		return fmt.Errorf("mqtt connect: %w", token.Error())
	}

	ch := make(chan any, 16)
	unsubscribers := []func(){
		events.SubscribeToChannel[events.IndicatorChangedEvent](bus, ch),
		events.SubscribeToChannel[events.StatusUpdatedEvent](bus, ch),
	}

	ctx, cancel := context.WithCancel(context.Background())
	p.cancel = cancel
	p.done = make(chan struct{})

	go func() {
		defer close(p.done)
		defer func() {
			for _, unsub := range unsubscribers {
				unsub()
			}
		}()
		for {
			select {
			case <-ctx.Done():
				return
			case ev := <-ch:
				p.handle(ev)
			}
		}
	}()

	p.logger.Info("MQTT publisher started", "topic", p.topic)
	return nil
}

// Stop stops forwarding and disconnects.
func (p *Publisher) Stop() {
	if p.cancel != nil {
		p.cancel()
		<-p.done
	}
	p.client.Disconnect(250)
	p.logger.Info("MQTT publisher stopped")
}

func (p *Publisher) handle(ev any) {
	switch e := ev.(type) {
	case events.IndicatorChangedEvent:
		p.mu.Lock()
		p.state = e.State
		p.mu.Unlock()
	case events.StatusUpdatedEvent:
		p.publishStatus(e)
	}
}

func (p *Publisher) publishStatus(e events.StatusUpdatedEvent) {
	p.mu.Lock()
	msg := &Message{Status: e.Status, Signal: e.Signal, State: p.state, Timestamp: e.Timestamp}
	if p.published != nil && sameStatus(p.published, msg) {
		p.mu.Unlock()
		return
	}
	p.mu.Unlock()

	payload, err := json.Marshal(msg)
	if err != nil {
		p.logger.Error("Failed to encode MQTT message", "error", err)
		return
	}

	token := p.client.Publish(p.topic, qos, true, payload)
	if !token.WaitTimeout(publishTimeout) {
		p.logger.Warn("MQTT publish timed out", "topic", p.topic)
		return
	}
	if token.Error() != nil {
		p.logger.Warn("MQTT publish failed", "topic", p.topic, "error", token.Error())
		return
	}

	p.mu.Lock()
	p.published = msg
	p.mu.Unlock()
	p.logger.Debug("Published status", "topic", p.topic, "status", msg.Status)
}

func sameStatus(a, b *Message) bool {
	if a.Status != b.Status {
		return false
	}
	if (a.Signal == nil) != (b.Signal == nil) {
		return false
	}
	return a.Signal == nil || *a.Signal == *b.Signal
}
