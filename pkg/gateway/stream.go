// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 OceanOps Robotics

package gateway

import (
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

const joinTimeout = 2 * time.Second

// StreamChannel is the reliable, connection-oriented command/reply
// channel. It accumulates received bytes and hands complete frames to
// the injected processor and raw sink from its own receive goroutine.
// The channel never reconnects on its own; after a transport failure it
// parks in StateError and waits for the owner to call Connect again.
type StreamChannel struct {
	name   string
	dialer StreamDialer
	proc   FrameProcessor
	sink   RawSink
	states StateSink
	log    zerolog.Logger

	mu     sync.Mutex
	conn   StreamTransport
	state  State
	stop   chan struct{}
	done   chan struct{}
	sendMu sync.Mutex
}

// NewStreamChannel wires a stream channel. All capabilities are required
// except states, which may be nil.
func NewStreamChannel(dialer StreamDialer, proc FrameProcessor, sink RawSink, states StateSink, log zerolog.Logger) *StreamChannel {
	return &StreamChannel{
		name:   "stream",
		dialer: dialer,
		proc:   proc,
		sink:   sink,
		states: states,
		log:    log.With().Str("channel", "stream").Logger(),
	}
}

// Connect dials the transport and starts the receive loop. It is an
// error to call Connect while connected; call Disconnect first.
func (c *StreamChannel) Connect() error {
	c.mu.Lock()
	if c.state == StateConnected || c.state == StateConnecting {
		c.mu.Unlock()
		return fmt.Errorf("stream channel already %s", c.state)
	}
	c.state = StateConnecting
	c.mu.Unlock()
	c.notify(StateConnecting, nil)

	conn, err := c.dialer.Dial()
	if err != nil {
		c.setState(StateError)
		c.notify(StateError, err)
		return err
	}

	stop := make(chan struct{})
	done := make(chan struct{})

	c.mu.Lock()
	c.conn = conn
	c.stop = stop
	c.done = done
	c.state = StateConnected
	c.mu.Unlock()
	c.notify(StateConnected, nil)
	c.log.Info().Str("via", c.dialer.String()).Msg("command channel connected")

	go c.recvLoop(conn, stop, done)
	return nil
}

// Disconnect stops the receive loop and releases the transport. It is
// idempotent and safe while the loop is blocked in a read: closing the
// transport unblocks the read, and the join is bounded.
func (c *StreamChannel) Disconnect() {
	c.mu.Lock()
	conn := c.conn
	stop := c.stop
	done := c.done
	c.conn = nil
	c.stop = nil
	c.done = nil
	prev := c.state
	c.state = StateDisconnected
	c.mu.Unlock()

	if stop != nil {
		close(stop)
	}
	if conn != nil {
		if err := conn.Close(); err != nil {
			c.log.Debug().Err(err).Msg("transport close")
		}
	}
	if done != nil {
		select {
		case <-done:
		case <-time.After(joinTimeout):
			c.log.Warn().Msg("receive loop did not stop within join timeout")
		}
	}
	if prev != StateDisconnected {
		c.notify(StateDisconnected, nil)
	}
}

// IsConnected reports whether the channel is usable for Send.
func (c *StreamChannel) IsConnected() bool {
	return c.State() == StateConnected
}

// State returns the current channel state.
func (c *StreamChannel) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Send transmits p. Safe from any goroutine; writes are serialized. It
// returns the byte count, or 0 when disconnected or on a transport
// failure (the failure also parks the channel in StateError).
func (c *StreamChannel) Send(p []byte) int {
	c.mu.Lock()
	conn := c.conn
	connected := c.state == StateConnected
	c.mu.Unlock()
	if !connected || conn == nil {
		return 0
	}

	c.sendMu.Lock()
	n, err := conn.Write(p)
	c.sendMu.Unlock()
	if err != nil {
		c.log.Warn().Err(err).Msg("send failed")
		c.fail(err)
		return 0
	}
	return n
}

func (c *StreamChannel) recvLoop(conn StreamTransport, stop, done chan struct{}) {
	defer close(done)

	buf := make([]byte, 0, 4096)
	tmp := make([]byte, 1024)

	for {
		select {
		case <-stop:
			return
		default:
		}

		n, err := conn.Read(tmp)
		if n > 0 {
			buf = append(buf, tmp[:n]...)
			buf = c.drain(buf)
		}
		if err != nil {
			select {
			case <-stop:
				// Teardown closed the transport under us.
				return
			default:
			}
			c.log.Warn().Err(err).Msg("receive failed")
			c.fail(err)
			return
		}
	}
}

// drain runs the processor over the buffered bytes and forwards every
// consumed span to the raw sink. Whatever the processor leaves behind
// is kept as the prefix of the next read.
func (c *StreamChannel) drain(buf []byte) []byte {
	offset := 0
	for offset < len(buf) {
		n := c.proc.ProcessFrame(buf, offset, len(buf))
		if n <= 0 {
			break
		}
		c.sink.WriteRaw(buf[offset : offset+n])
		offset += n
	}
	if offset == 0 {
		return buf
	}
	return append(buf[:0], buf[offset:]...)
}

func (c *StreamChannel) fail(err error) {
	c.mu.Lock()
	if c.state != StateConnected {
		c.mu.Unlock()
		return
	}
	c.state = StateError
	conn := c.conn
	c.conn = nil
	c.mu.Unlock()

	if conn != nil {
		conn.Close()
	}
	c.notify(StateError, err)
}

func (c *StreamChannel) setState(s State) {
	c.mu.Lock()
	c.state = s
	c.mu.Unlock()
}

func (c *StreamChannel) notify(s State, cause error) {
	if c.states != nil {
		c.states.ChannelState(c.name, s, cause)
	}
}
