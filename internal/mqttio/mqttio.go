// Package mqttio is the broker adapter: connection bootstrap, QoS-1 topic
// subscriptions routed into the station machine, and the QoS-1 publisher the
// dispatcher writes through. Reconnection is delegated to the paho client.
package mqttio

import (
	"fmt"
	"log"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/google/uuid"
)

// #region options

// Options holds the broker connection settings.
type Options struct {
	BrokerURL string
	Username  string
	Password  string
}

// #endregion options

// #region client

// Client wraps the paho connection.
type Client struct {
	mqtt mqtt.Client
}

// Connect dials the broker with a randomized backend client ID. Blocks until
// the initial connection succeeds or fails.
func Connect(opts Options) (*Client, error) {
	clientID := "backend_" + uuid.NewString()[:8]

	o := mqtt.NewClientOptions().
		AddBroker(opts.BrokerURL).
		SetClientID(clientID).
		SetUsername(opts.Username).
		SetPassword(opts.Password).
		SetAutoReconnect(true)
	o.OnConnect = func(mqtt.Client) {
		log.Printf("[MQTT] connected to broker as %s", clientID)
	}
	o.OnConnectionLost = func(_ mqtt.Client, err error) {
		log.Printf("[MQTT] connection lost: %v", err)
	}

	c := mqtt.NewClient(o)
	if token := c.Connect(); token.Wait() && token.Error() != nil {
		return nil, fmt.Errorf("connect to broker %s: %w", opts.BrokerURL, token.Error())
	}
	return &Client{mqtt: c}, nil
}

// Disconnect closes the connection, allowing in-flight messages to drain.
func (c *Client) Disconnect() {
	c.mqtt.Disconnect(250)
}

// #endregion client

// #region subscribe

// Subscribe routes messages on topic to handler at QoS 1.
func (c *Client) Subscribe(topic string, handler func(payload []byte)) error {
	token := c.mqtt.Subscribe(topic, 1, func(_ mqtt.Client, msg mqtt.Message) {
		handler(msg.Payload())
	})
	if token.Wait() && token.Error() != nil {
		return fmt.Errorf("subscribe %s: %w", topic, token.Error())
	}
	return nil
}

// #endregion subscribe

// #region publish

// Publish sends payload to topic at QoS 1. The delivery token is checked in
// the background; no acknowledgment is awaited by the caller.
func (c *Client) Publish(topic string, payload []byte) error {
	token := c.mqtt.Publish(topic, 1, false, payload)
	go func() {
		if token.Wait() && token.Error() != nil {
			log.Printf("[MQTT] publish to %s failed: %v", topic, token.Error())
		}
	}()
	return nil
}

// #endregion publish
