// Package mqtt subscribes to the fleet telemetry feed and applies
// vehicle position reports to the registry.
package mqtt

import (
	"encoding/json"
	"fmt"
	"math"
	"strings"

	paho "github.com/eclipse/paho.mqtt.golang"

	"github.com/veloway/rentd/core/clock"
	"github.com/veloway/rentd/core/registry"
	"github.com/veloway/rentd/infra/logger"
)

// Config defines the connection parameters for the telemetry
// subscriber.
type Config struct {
	Enabled  bool   `json:"enabled"`
	Broker   string `json:"broker"`
	ClientID string `json:"client_id"`
	Username string `json:"username"`
	Password string `json:"password"`
	Topic    string `json:"topic"`
	QoS      byte   `json:"qos"`
}

// SetDefaults applies sane defaults.
func (c *Config) SetDefaults() {
	if c.ClientID == "" {
		c.ClientID = "rentd-telemetry"
	}
	if c.Topic == "" {
		c.Topic = "fleet/+/telemetry"
	}
}

// position is the JSON payload vehicles publish on their telemetry
// topic.
type position struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// Subscriber feeds position reports into the vehicle registry. Updates
// go through the registry's exclusive section, so they serialize with
// rental start/end on the same vehicle.
type Subscriber struct {
	cli paho.Client
	cfg Config
	reg *registry.Registry
	clk clock.Clock
	log logger.Logger
}

var newMQTTClient = func(opts *paho.ClientOptions) paho.Client {
	return paho.NewClient(opts)
}

// NewSubscriber connects to the broker and subscribes to the telemetry
// topic.
func NewSubscriber(cfg Config, reg *registry.Registry, clk clock.Clock) (*Subscriber, error) {
	cfg.SetDefaults()
	if clk == nil {
		clk = clock.System()
	}
	s := &Subscriber{cfg: cfg, reg: reg, clk: clk, log: logger.New("telemetry")}

	opts := paho.NewClientOptions().AddBroker(cfg.Broker).SetClientID(cfg.ClientID)
	if cfg.Username != "" {
		opts.SetUsername(cfg.Username)
		opts.SetPassword(cfg.Password)
	}
	opts.OnConnect = func(c paho.Client) {
		s.log.Infof("MQTT connected, subscribing %s", cfg.Topic)
		if token := c.Subscribe(cfg.Topic, cfg.QoS, s.onMessage); token.Wait() && token.Error() != nil {
			s.log.Errorf("subscribe error: %v", token.Error())
		}
	}
	opts.OnConnectionLost = func(_ paho.Client, err error) {
		s.log.Warnf("MQTT connection lost: %v", err)
	}

	cli := newMQTTClient(opts)
	if token := cli.Connect(); token.Wait() && token.Error() != nil {
		return nil, fmt.Errorf("mqtt connect: %w", token.Error())
	}
	s.cli = cli
	return s, nil
}

func (s *Subscriber) onMessage(_ paho.Client, msg paho.Message) {
	s.handle(msg.Topic(), msg.Payload())
}

// handle applies one report. Topic layout: fleet/<vehicle_id>/telemetry.
func (s *Subscriber) handle(topic string, payload []byte) {
	parts := strings.Split(topic, "/")
	if len(parts) != 3 {
		s.log.Debugf("unexpected telemetry topic %q", topic)
		return
	}
	id := parts[1]

	var p position
	if err := json.Unmarshal(payload, &p); err != nil {
		s.log.Warnf("bad telemetry payload on %s: %v", topic, err)
		return
	}
	if math.IsNaN(p.Lat) || math.IsNaN(p.Lng) || math.IsInf(p.Lat, 0) || math.IsInf(p.Lng, 0) ||
		p.Lat < -90 || p.Lat > 90 || p.Lng < -180 || p.Lng > 180 {
		s.log.Warnf("out-of-range coordinates for %s: %v,%v", id, p.Lat, p.Lng)
		return
	}

	now := s.clk.Now()
	err := s.reg.WithExclusive(id, func(h registry.Handle) error {
		h.UpdatePosition(p.Lat, p.Lng)
		h.TouchLastSeen(now)
		return nil
	})
	if err != nil {
		s.log.Debugf("telemetry for unknown vehicle %s", id)
	}
}

// Close disconnects from the broker.
func (s *Subscriber) Close() {
	if s.cli != nil && s.cli.IsConnected() {
		s.cli.Disconnect(250)
	}
}
