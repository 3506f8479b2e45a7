// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 OceanOps Robotics

package gateway

import (
	"errors"
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// readPoll bounds how long the datagram loop blocks before checking the
// stop channel again.
const readPoll = 500 * time.Millisecond

// DatagramChannel is the best-effort, connectionless telemetry channel.
// Each datagram is run through the optional acceptance predicate, then
// the processor/sink pipeline. Unconsumed trailing bytes of a datagram
// are discarded; datagram framing does not carry over packets.
type DatagramChannel struct {
	name   string
	proc   FrameProcessor
	sink   RawSink
	states StateSink
	accept AcceptFunc
	log    zerolog.Logger

	mu    sync.Mutex
	conn  *net.UDPConn
	state State
	stop  chan struct{}
	done  chan struct{}
}

// NewDatagramChannel wires a datagram channel. accept and states may be
// nil.
func NewDatagramChannel(proc FrameProcessor, sink RawSink, states StateSink, accept AcceptFunc, log zerolog.Logger) *DatagramChannel {
	return &DatagramChannel{
		name:   "datagram",
		proc:   proc,
		sink:   sink,
		states: states,
		accept: accept,
		log:    log.With().Str("channel", "datagram").Logger(),
	}
}

// Connect binds the listen port and starts the receive loop.
func (c *DatagramChannel) Connect(listenPort int) error {
	c.mu.Lock()
	if c.state == StateConnected || c.state == StateConnecting {
		c.mu.Unlock()
		return fmt.Errorf("datagram channel already %s", c.state)
	}
	c.state = StateConnecting
	c.mu.Unlock()
	c.notify(StateConnecting, nil)

	conn, err := net.ListenUDP("udp", &net.UDPAddr{Port: listenPort})
	if err != nil {
		c.mu.Lock()
		c.state = StateError
		c.mu.Unlock()
		c.notify(StateError, err)
		return fmt.Errorf("listen udp :%d: %w", listenPort, err)
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
	c.log.Info().Int("port", listenPort).Msg("telemetry channel listening")

	go c.recvLoop(conn, stop, done)
	return nil
}

// Disconnect stops the receive loop and closes the socket. Idempotent;
// the join is bounded.
func (c *DatagramChannel) Disconnect() {
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
			c.log.Debug().Err(err).Msg("socket close")
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

// State returns the current channel state.
func (c *DatagramChannel) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// LocalPort returns the bound port, or 0 when not listening. Useful when
// the listen port was 0.
func (c *DatagramChannel) LocalPort() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.conn == nil {
		return 0
	}
	return c.conn.LocalAddr().(*net.UDPAddr).Port
}

// Send transmits one datagram to the given destination. Returns the byte
// count, 0 on failure or when not listening.
func (c *DatagramChannel) Send(p []byte, address string, port int) int {
	c.mu.Lock()
	conn := c.conn
	c.mu.Unlock()
	if conn == nil {
		return 0
	}

	ip := net.ParseIP(address)
	if ip == nil {
		c.log.Warn().Str("address", address).Msg("unresolvable datagram destination")
		return 0
	}
	n, err := conn.WriteToUDP(p, &net.UDPAddr{IP: ip, Port: port})
	if err != nil {
		c.log.Warn().Err(err).Msg("datagram send failed")
		return 0
	}
	return n
}

func (c *DatagramChannel) recvLoop(conn *net.UDPConn, stop, done chan struct{}) {
	defer close(done)

	buf := make([]byte, 2048)

	for {
		select {
		case <-stop:
			return
		default:
		}

		conn.SetReadDeadline(time.Now().Add(readPoll))
		n, sender, err := conn.ReadFromUDP(buf)
		if err != nil {
			var nerr net.Error
			if errors.As(err, &nerr) && nerr.Timeout() {
				continue
			}
			select {
			case <-stop:
				return
			default:
			}
			c.log.Warn().Err(err).Msg("receive failed")
			c.fail(err)
			return
		}
		if n == 0 {
			continue
		}
		if c.accept != nil && !c.accept(sender) {
			// Deliberate noise filter: not processed, not captured.
			continue
		}
		c.processDatagram(buf[:n])
	}
}

// processDatagram walks one datagram, which may pack several frames.
func (c *DatagramChannel) processDatagram(data []byte) {
	offset := 0
	for offset < len(data) {
		n := c.proc.ProcessFrame(data, offset, len(data))
		if n <= 0 {
			// Truncated tail; nothing more will arrive for this
			// datagram.
			return
		}
		c.sink.WriteRaw(data[offset : offset+n])
		offset += n
	}
}

func (c *DatagramChannel) fail(err error) {
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

func (c *DatagramChannel) notify(s State, cause error) {
	if c.states != nil {
		c.states.ChannelState(c.name, s, cause)
	}
}
