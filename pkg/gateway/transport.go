// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 OceanOps Robotics

package gateway

import (
	"fmt"
	"io"
	"net"
	"time"

	"go.bug.st/serial"
)

// StreamTransport is a connected byte stream to the vehicle.
type StreamTransport interface {
	io.Reader
	io.Writer
	io.Closer
}

// StreamDialer opens a StreamTransport. The command channel dials
// through one of these so TCP (tether) and serial (bench maintenance
// port) links share the same receive loop.
type StreamDialer interface {
	Dial() (StreamTransport, error)
	String() string
}

// TCPDialer connects to the vehicle command port over the tether.
type TCPDialer struct {
	Address string
	Port    int
	Timeout time.Duration
}

func (d TCPDialer) Dial() (StreamTransport, error) {
	timeout := d.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	addr := net.JoinHostPort(d.Address, fmt.Sprintf("%d", d.Port))
	conn, err := net.DialTimeout("tcp", addr, timeout)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", addr, err)
	}
	if tcp, ok := conn.(*net.TCPConn); ok {
		tcp.SetNoDelay(true)
	}
	return conn, nil
}

func (d TCPDialer) String() string {
	return fmt.Sprintf("tcp %s:%d", d.Address, d.Port)
}

// SerialDialer opens the vehicle maintenance port directly.
type SerialDialer struct {
	Device string
	Baud   int
}

func (d SerialDialer) Dial() (StreamTransport, error) {
	mode := &serial.Mode{
		BaudRate: d.Baud,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	}
	port, err := serial.Open(d.Device, mode)
	if err != nil {
		return nil, fmt.Errorf("open serial port %s: %w", d.Device, err)
	}
	return port, nil
}

func (d SerialDialer) String() string {
	return fmt.Sprintf("serial %s @ %d baud", d.Device, d.Baud)
}
