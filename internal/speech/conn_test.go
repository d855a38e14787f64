package speech

import (
	"bufio"
	"encoding/json"
	"net"
	"path/filepath"
	"sync"
	"testing"
)

// mockDaemon accepts any number of connections. Every command gets an OK
// response; subscribers then receive the canned events.
type mockDaemon struct {
	sockPath string
	events   []Event
	fail     map[string]string
	hang     map[string]bool

	mu   sync.Mutex
	cmds []Command
}

func startMockDaemon(t *testing.T, events []Event) *mockDaemon {
	t.Helper()

	d := &mockDaemon{
		sockPath: filepath.Join(t.TempDir(), "test.sock"),
		events:   events,
		fail:     map[string]string{},
		hang:     map[string]bool{},
	}
	ln, err := net.Listen("unix", d.sockPath)
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	t.Cleanup(func() { ln.Close() })

	go func() {
		for {
			c, err := ln.Accept()
			if err != nil {
				return
			}
			go d.serve(c)
		}
	}()
	return d
}

func (d *mockDaemon) serve(c net.Conn) {
	defer c.Close()
	scanner := bufio.NewScanner(c)
	for scanner.Scan() {
		var cmd Command
		if err := json.Unmarshal(scanner.Bytes(), &cmd); err != nil {
			return
		}
		d.mu.Lock()
		d.cmds = append(d.cmds, cmd)
		failure := d.fail[cmd.Cmd]
		hang := d.hang[cmd.Cmd]
		d.mu.Unlock()
		if hang {
			continue
		}

		resp := Response{OK: failure == "", Error: failure, SessionID: "sess-1"}
		data, _ := json.Marshal(resp)
		c.Write(append(data, '\n'))

		if cmd.Cmd == "subscribe" {
			for _, ev := range d.events {
				data, _ := json.Marshal(ev)
				c.Write(append(data, '\n'))
			}
		}
	}
}

func (d *mockDaemon) commands() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	var out []string
	for _, c := range d.cmds {
		out = append(out, c.Cmd)
	}
	return out
}

func TestConnSend(t *testing.T) {
	d := startMockDaemon(t, nil)

	c, err := dial(d.sockPath)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer c.Close()

	got, err := c.send(Command{Cmd: "start", Locale: "en-US"})
	if err != nil {
		t.Fatalf("send: %v", err)
	}
	if got.SessionID != "sess-1" {
		t.Errorf("sessionId = %q, want %q", got.SessionID, "sess-1")
	}
}

func TestConnSendNotOK(t *testing.T) {
	d := startMockDaemon(t, nil)
	d.fail["start"] = "no microphone"

	c, err := dial(d.sockPath)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer c.Close()

	if _, err := c.send(Command{Cmd: "start"}); err == nil {
		t.Error("expected error for ok=false response")
	}
}

func TestDialFailure(t *testing.T) {
	if _, err := dial("/nonexistent/path/steno.sock"); err == nil {
		t.Error("expected error connecting to nonexistent socket")
	}
}

func TestConnReadEvents(t *testing.T) {
	d := startMockDaemon(t, []Event{
		{Event: EventStatus, Recording: boolPtr(true)},
		{Event: EventSegment, Text: "hello"},
	})

	c, err := dial(d.sockPath)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer c.Close()

	if _, err := c.send(Command{Cmd: "subscribe"}); err != nil {
		t.Fatalf("subscribe: %v", err)
	}

	ev1, err := c.readEvent()
	if err != nil {
		t.Fatalf("read event 1: %v", err)
	}
	if ev1.Event != EventStatus || ev1.Recording == nil || !*ev1.Recording {
		t.Errorf("event1 = %+v", ev1)
	}

	ev2, err := c.readEvent()
	if err != nil {
		t.Fatalf("read event 2: %v", err)
	}
	if ev2.Event != EventSegment || ev2.Text != "hello" {
		t.Errorf("event2 = %+v", ev2)
	}
}

func boolPtr(b bool) *bool { return &b }
