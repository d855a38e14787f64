package speech

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
)

// DaemonRecognizer captures one utterance per Begin from the transcription
// daemon. Two connections are used: one for commands, one subscribed to the
// event stream.
type DaemonRecognizer struct {
	SocketPath string
	Locale     string
	Log        *zap.Logger
}

// NewDaemonRecognizer returns a recognizer for the daemon at socketPath.
func NewDaemonRecognizer(socketPath, locale string, log *zap.Logger) *DaemonRecognizer {
	if log == nil {
		log = zap.NewNop()
	}
	return &DaemonRecognizer{SocketPath: socketPath, Locale: locale, Log: log}
}

// Available reports whether the daemon socket exists.
func (r *DaemonRecognizer) Available() bool {
	if r.SocketPath == "" {
		return false
	}
	_, err := os.Stat(r.SocketPath)
	return err == nil
}

// Begin subscribes to recognition events and starts recording.
func (r *DaemonRecognizer) Begin(ctx context.Context) (Capture, error) {
	if !r.Available() {
		return nil, ErrUnsupported
	}

	events, err := dial(r.SocketPath)
	if err != nil {
		return nil, err
	}
	if _, err := events.send(Command{
		Cmd:    "subscribe",
		Events: []string{EventSegment, EventError, EventStatus},
	}); err != nil {
		events.Close()
		return nil, fmt.Errorf("subscribe: %w", err)
	}

	cmds, err := dial(r.SocketPath)
	if err != nil {
		events.Close()
		return nil, err
	}
	resp, err := cmds.send(Command{Cmd: "start", Locale: r.Locale})
	if err != nil {
		events.Close()
		cmds.Close()
		return nil, fmt.Errorf("start recording: %w", err)
	}
	r.Log.Debug("capture started", zap.String("session_id", resp.SessionID), zap.String("locale", r.Locale))

	c := &daemonCapture{
		cmds:   cmds,
		events: events,
		done:   make(chan struct{}),
		log:    r.Log,
	}
	go c.readLoop()
	go func() {
		select {
		case <-ctx.Done():
			c.Stop()
		case <-c.done:
		}
	}()
	return c, nil
}

// stopTimeout bounds the stop command sent when a capture ends.
var stopTimeout = 2 * time.Second

type daemonCapture struct {
	cmds   *conn
	events *conn
	log    *zap.Logger

	once    sync.Once
	mu      sync.Mutex
	stopped bool
	text    string
	err     error
	done    chan struct{}
}

func (c *daemonCapture) readLoop() {
	for {
		ev, err := c.events.readEvent()
		if err != nil {
			c.finish("", err)
			return
		}
		switch ev.Event {
		case EventSegment:
			if text := strings.TrimSpace(ev.Text); text != "" {
				c.finish(text, nil)
				return
			}
		case EventError:
			if ev.Transient != nil && *ev.Transient {
				c.log.Debug("transient recognition error", zap.String("message", ev.Message))
				continue
			}
			c.finish("", fmt.Errorf("recognition: %s", ev.Message))
			return
		case EventStatus:
			if ev.Recording != nil && !*ev.Recording {
				c.finish("", ErrNoSpeech)
				return
			}
		}
	}
}

// finish records the outcome once and tears down both connections.
func (c *daemonCapture) finish(text string, err error) {
	c.once.Do(func() {
		c.mu.Lock()
		if c.stopped {
			text, err = "", ErrStopped
		}
		c.text, c.err = text, err
		c.mu.Unlock()

		// A hung daemon must not block shutdown.
		_ = c.cmds.nc.SetDeadline(time.Now().Add(stopTimeout))
		if _, serr := c.cmds.send(Command{Cmd: "stop"}); serr != nil {
			c.log.Debug("stop recording", zap.Error(serr))
		}
		c.cmds.Close()
		c.events.Close()
		close(c.done)
	})
}

func (c *daemonCapture) Wait() (string, error) {
	<-c.done
	return c.text, c.err
}

func (c *daemonCapture) Stop() error {
	c.mu.Lock()
	c.stopped = true
	c.mu.Unlock()
	c.finish("", ErrStopped)
	return nil
}

var _ Recognizer = (*DaemonRecognizer)(nil)

// IsStopped reports whether err came from an explicit Stop.
func IsStopped(err error) bool { return errors.Is(err, ErrStopped) }
