package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"

	"github.com/kilianp07/cabmatch/api/wire"
	"github.com/kilianp07/cabmatch/core/model"
	"github.com/kilianp07/cabmatch/infra/mqtt"
)

// publisher is the subset of paho.Client used to send heartbeats.
type publisher interface {
	Publish(topic string, qos byte, retained bool, payload interface{}) paho.Token
}

func newMQTTClient(broker, clientID string) (paho.Client, error) {
	opts := paho.NewClientOptions().AddBroker(broker).SetClientID(clientID)
	opts.AutoReconnect = true
	cli := paho.NewClient(opts)
	if token := cli.Connect(); token.Wait() && token.Error() != nil {
		return nil, token.Error()
	}
	return cli, nil
}

func publishHeartbeat(cli publisher, pattern, driverID string, state model.DriverState, now time.Time) error {
	payload, err := json.Marshal(mqtt.HeartbeatPayload{
		DriverID:  driverID,
		Timestamp: float64(wire.FromTime(now)),
		State:     string(state),
	})
	if err != nil {
		return fmt.Errorf("marshal heartbeat: %w", err)
	}
	token := cli.Publish(mqtt.HeartbeatTopic(pattern, driverID), 0, false, payload)
	if !token.WaitTimeout(5 * time.Second) {
		return fmt.Errorf("heartbeat publish timeout for %s", driverID)
	}
	return token.Error()
}

// registerFleet posts every driver to the API so heartbeats refer to known
// drivers.
func registerFleet(ctx context.Context, client *http.Client, apiURL string, fleet []SimulatedDriver, now time.Time) error {
	for _, d := range fleet {
		body, err := json.Marshal(d.Registration(now))
		if err != nil {
			return err
		}
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, apiURL+"/drivers", bytes.NewReader(body))
		if err != nil {
			return err
		}
		req.Header.Set("Content-Type", "application/json")
		resp, err := client.Do(req)
		if err != nil {
			return fmt.Errorf("register %s: %w", d.ID, err)
		}
		resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			return fmt.Errorf("register %s: status %d", d.ID, resp.StatusCode)
		}
	}
	return nil
}
