// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 OceanOps Robotics

package bus

import (
	"context"
	"crypto/tls"
	"encoding/base64"
	"fmt"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
)

// Handler receives inbound bus events. Called from the client's read
// goroutine, one event at a time.
type Handler interface {
	HandleEvent(ev Event)
}

// HandlerFunc adapts a function to Handler.
type HandlerFunc func(ev Event)

func (f HandlerFunc) HandleEvent(ev Event) { f(ev) }

// Options configures Dial.
type Options struct {
	URL         string
	Username    string
	Password    string
	NoSSLVerify bool
}

// Client is a WebSocket connection to the domain bus. Publish is safe
// from any goroutine; inbound events are dispatched to the handler from
// a single read goroutine.
type Client struct {
	conn *websocket.Conn
	log  zerolog.Logger

	writeMu sync.Mutex
	stop    chan struct{}
	done    chan struct{}
	once    sync.Once
}

// Dial connects to the bus endpoint. The scheme must be ws or wss;
// credentials go out as HTTP Basic auth on the handshake.
func Dial(opts Options, log zerolog.Logger) (*Client, error) {
	u, err := url.Parse(opts.URL)
	if err != nil {
		return nil, fmt.Errorf("invalid bus URL: %w", err)
	}
	switch u.Scheme {
	case "ws", "wss":
	default:
		return nil, fmt.Errorf("unsupported bus URL scheme %q (use ws:// or wss://)", u.Scheme)
	}

	dialer := websocket.Dialer{HandshakeTimeout: 10 * time.Second}
	if u.Scheme == "wss" {
		dialer.TLSClientConfig = &tls.Config{InsecureSkipVerify: opts.NoSSLVerify}
	}

	headers := http.Header{}
	if opts.Username != "" && opts.Password != "" {
		credentials := base64.StdEncoding.EncodeToString([]byte(opts.Username + ":" + opts.Password))
		headers.Set("Authorization", "Basic "+credentials)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	conn, resp, err := dialer.DialContext(ctx, opts.URL, headers)
	if err != nil {
		if resp != nil {
			return nil, fmt.Errorf("bus connection failed (HTTP %d): %w", resp.StatusCode, err)
		}
		return nil, fmt.Errorf("bus connection failed: %w", err)
	}

	return &Client{
		conn: conn,
		log:  log.With().Str("component", "bus").Logger(),
		stop: make(chan struct{}),
		done: make(chan struct{}),
	}, nil
}

// Publish sends one event to the bus.
func (c *Client) Publish(ev Event) error {
	raw, err := marshalEvent(ev, time.Now())
	if err != nil {
		return err
	}
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	if err := c.conn.WriteMessage(websocket.BinaryMessage, raw); err != nil {
		return fmt.Errorf("publish %s: %w", ev.Kind(), err)
	}
	return nil
}

// Listen starts the read loop, dispatching inbound events to h until
// the connection fails or Close is called. It returns immediately.
func (c *Client) Listen(h Handler) {
	go func() {
		defer close(c.done)
		for {
			messageType, raw, err := c.conn.ReadMessage()
			if err != nil {
				select {
				case <-c.stop:
				default:
					c.log.Warn().Err(err).Msg("bus read failed")
				}
				return
			}
			if messageType != websocket.BinaryMessage {
				continue
			}
			ev, err := unmarshalEvent(raw)
			if err != nil {
				c.log.Debug().Err(err).Msg("skipping bus event")
				continue
			}
			h.HandleEvent(ev)
		}
	}()
}

// Close tears the connection down. Idempotent.
func (c *Client) Close() {
	c.once.Do(func() {
		close(c.stop)
		c.conn.Close()
	})
}

// Discard is a Publisher for running without a bus endpoint.
type Discard struct{}

// Publish drops the event.
func (Discard) Publish(Event) error { return nil }
