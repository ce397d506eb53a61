// Package clock provides media playback clocks backed by mpv's JSON IPC
// interface. Each mpv instance started with --input-ipc-server exposes one
// independently controlled playback clock.
package clock

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"sync"
	"time"
)

var (
	// ErrNotConnected is returned for operations on a closed client.
	ErrNotConnected = errors.New("clock: not connected")
	// ErrSocketNotFound is returned when the mpv socket cannot be reached.
	ErrSocketNotFound = errors.New("clock: mpv socket not found - is mpv running with --input-ipc-server?")
)

type request struct {
	Command   []interface{} `json:"command"`
	RequestID uint64        `json:"request_id"`
}

type response struct {
	Data      interface{} `json:"data"`
	RequestID uint64      `json:"request_id"`
	Error     string      `json:"error"`
}

// MPV is a playback clock driven over mpv's JSON IPC socket. It satisfies
// the align.Media interface. All methods are safe for concurrent use; each
// command holds the connection for one request/response exchange.
type MPV struct {
	socketPath string

	mu     sync.Mutex
	conn   net.Conn
	reader *bufio.Reader
	nextID uint64
}

// NewMPV creates a clock for the mpv instance listening on socketPath. The
// connection is established by Connect.
func NewMPV(socketPath string) *MPV {
	return &MPV{socketPath: socketPath}
}

// Connect dials the mpv IPC socket.
func (c *MPV) Connect() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.conn != nil {
		return nil
	}
	conn, err := net.Dial("unix", c.socketPath)
	if err != nil {
		return ErrSocketNotFound
	}
	c.conn = conn
	c.reader = bufio.NewReader(conn)
	return nil
}

// ConnectWithRetry polls the socket until it accepts a connection or the
// wait budget runs out. mpv creates the socket shortly after launch.
func (c *MPV) ConnectWithRetry(wait time.Duration) error {
	deadline := time.Now().Add(wait)
	for {
		err := c.Connect()
		if err == nil {
			return nil
		}
		if time.Now().After(deadline) {
			return err
		}
		time.Sleep(100 * time.Millisecond)
	}
}

// Close closes the IPC connection.
func (c *MPV) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.conn == nil {
		return nil
	}
	err := c.conn.Close()
	c.conn = nil
	c.reader = nil
	return err
}

// SocketPath returns the configured socket path.
func (c *MPV) SocketPath() string {
	return c.socketPath
}

// Position returns the current playback position in seconds.
func (c *MPV) Position() (float64, error) {
	return c.getFloat("time-pos")
}

// SetPosition seeks to the given position in seconds.
func (c *MPV) SetPosition(seconds float64) error {
	_, err := c.command("set_property", "time-pos", seconds)
	return err
}

// Duration returns the media duration in seconds.
func (c *MPV) Duration() (float64, error) {
	return c.getFloat("duration")
}

// SetRate sets the playback speed multiplier.
func (c *MPV) SetRate(rate float64) error {
	_, err := c.command("set_property", "speed", rate)
	return err
}

// Play resumes playback.
func (c *MPV) Play() error {
	_, err := c.command("set_property", "pause", false)
	return err
}

// Pause suspends playback.
func (c *MPV) Pause() error {
	_, err := c.command("set_property", "pause", true)
	return err
}

// Paused reports whether playback is suspended.
func (c *MPV) Paused() (bool, error) {
	data, err := c.command("get_property", "pause")
	if err != nil {
		return false, err
	}
	paused, ok := data.(bool)
	if !ok {
		return false, fmt.Errorf("clock: unexpected pause value type %T", data)
	}
	return paused, nil
}

func (c *MPV) getFloat(property string) (float64, error) {
	data, err := c.command("get_property", property)
	if err != nil {
		return 0, err
	}
	switch n := data.(type) {
	case float64:
		return n, nil
	case int:
		return float64(n), nil
	default:
		return 0, fmt.Errorf("clock: unexpected %s value type %T", property, data)
	}
}

// command sends one newline-terminated JSON command and reads lines until
// the reply carrying its request id arrives. Event lines and replies to
// stale requests are skipped.
func (c *MPV) command(name string, args ...interface{}) (interface{}, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.conn == nil {
		return nil, ErrNotConnected
	}

	c.nextID++
	req := request{
		Command:   append([]interface{}{name}, args...),
		RequestID: c.nextID,
	}
	data, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("clock: marshaling command: %w", err)
	}
	if _, err := c.conn.Write(append(data, '\n')); err != nil {
		return nil, fmt.Errorf("clock: sending command: %w", err)
	}

	for {
		line, err := c.reader.ReadBytes('\n')
		if err != nil {
			return nil, fmt.Errorf("clock: reading response: %w", err)
		}
		var resp response
		if err := json.Unmarshal(line, &resp); err != nil {
			continue
		}
		if resp.RequestID != req.RequestID {
			continue
		}
		if resp.Error != "" && resp.Error != "success" {
			return nil, fmt.Errorf("clock: mpv: %s", resp.Error)
		}
		return resp.Data, nil
	}
}
