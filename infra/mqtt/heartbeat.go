package mqtt

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"

	"github.com/kilianp07/cabmatch/core/model"
	coremon "github.com/kilianp07/cabmatch/core/monitoring"
	"github.com/kilianp07/cabmatch/core/registry"
	"github.com/kilianp07/cabmatch/infra/logger"
	"github.com/kilianp07/cabmatch/internal/eventbus"
)

// HeartbeatPayload is the JSON body drivers publish. Timestamp is in epoch
// seconds; zero means the time of receipt.
type HeartbeatPayload struct {
	DriverID  string  `json:"driver_id"`
	Timestamp float64 `json:"timestamp"`
	State     string  `json:"state"`
}

// HeartbeatSubscriber turns MQTT heartbeat messages into registry
// heartbeats published on a typed bus.
type HeartbeatSubscriber struct {
	cli    pahoClient
	topic  string
	qos    byte
	out    *eventbus.TypedBus[registry.Heartbeat]
	logger logger.Logger
	now    func() time.Time
}

// NewHeartbeatSubscriber connects to the broker and subscribes to the
// heartbeat topic. The subscription is renewed on every reconnect.
func NewHeartbeatSubscriber(cfg Config, out *eventbus.TypedBus[registry.Heartbeat], log logger.Logger) (*HeartbeatSubscriber, error) {
	if out == nil {
		return nil, fmt.Errorf("mqtt: heartbeat bus is required")
	}
	cfg.SetDefaults()
	opts, err := NewClientOptions(cfg)
	if err != nil {
		return nil, err
	}
	if log == nil {
		log = logger.New("mqtt_heartbeat")
	}
	s := &HeartbeatSubscriber{
		topic:  cfg.HeartbeatTopic,
		qos:    cfg.HeartbeatQoS,
		out:    out,
		logger: log,
		now:    time.Now,
	}
	opts.OnConnect = func(c paho.Client) {
		log.Infof("MQTT connected, subscribing to %s", s.topic)
		if token := c.Subscribe(s.topic, s.qos, s.onMessage); token.Wait() && token.Error() != nil {
			log.Errorf("subscribe error: %v", token.Error())
			coremon.CaptureException(token.Error(), "mqtt", map[string]string{"topic": s.topic})
		}
	}
	opts.OnConnectionLost = func(_ paho.Client, err error) {
		log.Errorf("connection lost: %v", err)
	}
	opts.OnReconnecting = func(_ paho.Client, _ *paho.ClientOptions) {
		log.Warnf("reconnecting to MQTT broker")
	}
	c := newMQTTClient(opts)
	if token := c.Connect(); token.Wait() && token.Error() != nil {
		return nil, fmt.Errorf("mqtt connect %s: %w", cfg.Broker, token.Error())
	}
	s.cli = c
	return s, nil
}

func (s *HeartbeatSubscriber) onMessage(_ paho.Client, msg paho.Message) {
	hb, err := s.parse(msg.Topic(), msg.Payload())
	if err != nil {
		s.logger.Warnf("drop heartbeat on %s: %v", msg.Topic(), err)
		coremon.CaptureException(err, "mqtt", map[string]string{"topic": msg.Topic()})
		return
	}
	s.out.Publish(hb)
}

func (s *HeartbeatSubscriber) parse(topic string, payload []byte) (registry.Heartbeat, error) {
	var p HeartbeatPayload
	if len(payload) > 0 {
		if err := json.Unmarshal(payload, &p); err != nil {
			return registry.Heartbeat{}, fmt.Errorf("decode heartbeat: %w", err)
		}
	}
	hb := registry.Heartbeat{DriverID: p.DriverID}
	if hb.DriverID == "" {
		hb.DriverID = topicDriverID(s.topic, topic)
	}
	if hb.DriverID == "" {
		return registry.Heartbeat{}, fmt.Errorf("heartbeat without driver id")
	}
	if p.State != "" {
		st, err := model.ParseState(p.State)
		if err != nil {
			return registry.Heartbeat{}, err
		}
		if !st.Settable() {
			return registry.Heartbeat{}, fmt.Errorf("state %q cannot be reported", st)
		}
		hb.State = st
	}
	if p.Timestamp > 0 {
		sec := int64(p.Timestamp)
		hb.At = time.Unix(sec, int64((p.Timestamp-float64(sec))*1e9))
	} else {
		hb.At = s.now()
	}
	return hb, nil
}

// topicDriverID returns the topic level matched by the first "+" wildcard of
// pattern, or "" when the topic does not fit the pattern.
func topicDriverID(pattern, topic string) string {
	pl := strings.Split(pattern, "/")
	tl := strings.Split(topic, "/")
	if len(pl) != len(tl) {
		return ""
	}
	id := ""
	for i, p := range pl {
		switch {
		case p == "+":
			if id == "" {
				id = tl[i]
			}
		case p != tl[i]:
			return ""
		}
	}
	return id
}

// HeartbeatTopic fills the first "+" wildcard of pattern with driverID.
func HeartbeatTopic(pattern, driverID string) string {
	return strings.Replace(pattern, "+", driverID, 1)
}

// Close disconnects from the broker.
func (s *HeartbeatSubscriber) Close() {
	if s.cli != nil && s.cli.IsConnected() {
		s.cli.Disconnect(250)
	}
}
