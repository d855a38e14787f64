package speech

import (
	"bufio"
	"encoding/json"
	"fmt"
	"net"
	"sync"
)

// conn is one NDJSON connection to the transcription daemon.
type conn struct {
	nc      net.Conn
	scanner *bufio.Scanner
	mu      sync.Mutex
}

func dial(socketPath string) (*conn, error) {
	nc, err := net.Dial("unix", socketPath)
	if err != nil {
		return nil, fmt.Errorf("connect to speech daemon: %w", err)
	}
	scanner := bufio.NewScanner(nc)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	return &conn{nc: nc, scanner: scanner}, nil
}

func (c *conn) Close() error {
	return c.nc.Close()
}

// send writes a command and reads one response line.
func (c *conn) send(cmd Command) (Response, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	data, err := json.Marshal(cmd)
	if err != nil {
		return Response{}, fmt.Errorf("marshal command: %w", err)
	}
	if _, err := c.nc.Write(append(data, '\n')); err != nil {
		return Response{}, fmt.Errorf("write command: %w", err)
	}

	if !c.scanner.Scan() {
		if err := c.scanner.Err(); err != nil {
			return Response{}, fmt.Errorf("read response: %w", err)
		}
		return Response{}, fmt.Errorf("connection closed")
	}

	var resp Response
	if err := json.Unmarshal(c.scanner.Bytes(), &resp); err != nil {
		return Response{}, fmt.Errorf("unmarshal response: %w", err)
	}
	if !resp.OK {
		return resp, fmt.Errorf("%s: %s", cmd.Cmd, resp.Error)
	}
	return resp, nil
}

// readEvent blocks until the next event line arrives.
func (c *conn) readEvent() (Event, error) {
	if !c.scanner.Scan() {
		if err := c.scanner.Err(); err != nil {
			return Event{}, fmt.Errorf("read event: %w", err)
		}
		return Event{}, fmt.Errorf("connection closed")
	}

	var ev Event
	if err := json.Unmarshal(c.scanner.Bytes(), &ev); err != nil {
		return Event{}, fmt.Errorf("unmarshal event: %w", err)
	}
	return ev, nil
}
