// Package bus is a client for the voice assistant's websocket message bus.
//
// Every message is a JSON text frame of the form
//
//	{"type": "speak", "data": {...}, "context": {...}}
//
// Handlers registered with On run synchronously on the read loop, in the
// order messages arrive.
package bus

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	log "github.com/sirupsen/logrus"
)

const (
	writeWait        = 10 * time.Second
	handshakeTimeout = 10 * time.Second
)

var ErrClosed = errors.New("bus connection closed")

type Message struct {
	Type    string         `json:"type"`
	Data    map[string]any `json:"data"`
	Context map[string]any `json:"context,omitempty"`
}

// String returns the string value of a data field, or "" if it is missing.
func (m Message) String(key string) string {
	s, _ := m.Data[key].(string)
	return s
}

// Strings returns a data field that holds a list of strings.
func (m Message) Strings(key string) []string {
	switch v := m.Data[key].(type) {
	case []string:
		return v
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out
	case string:
		return []string{v}
	}
	return nil
}

type HandlerFunc func(Message)

type Client struct {
	conn    *websocket.Conn
	writeMu sync.Mutex

	source  string
	session string

	handlersMu sync.RWMutex
	handlers   map[string][]HandlerFunc
}

// Dial connects to the bus at url, e.g. ws://127.0.0.1:8181/core.
func Dial(ctx context.Context, url, source string) (*Client, error) {
	dialer := websocket.Dialer{
		HandshakeTimeout: handshakeTimeout,
	}
	conn, _, err := dialer.DialContext(ctx, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to message bus %s: %w", url, err)
	}
	return &Client{
		conn:     conn,
		source:   source,
		session:  uuid.New().String(),
		handlers: make(map[string][]HandlerFunc),
	}, nil
}

func (c *Client) Session() string {
	return c.session
}

// On registers fn for messages of the given type.
func (c *Client) On(msgType string, fn HandlerFunc) {
	c.handlersMu.Lock()
	defer c.handlersMu.Unlock()
	c.handlers[msgType] = append(c.handlers[msgType], fn)
}

func (c *Client) Emit(msg Message) error {
	if msg.Data == nil {
		msg.Data = map[string]any{}
	}
	if msg.Context == nil {
		msg.Context = map[string]any{}
	}
	if _, ok := msg.Context["source"]; !ok {
		msg.Context["source"] = c.source
	}
	if _, ok := msg.Context["session"]; !ok {
		msg.Context["session"] = c.session
	}

	data, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("failed to encode %s message: %w", msg.Type, err)
	}
	log.Debugf("emitting bus message: %s", string(data))

	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	c.conn.SetWriteDeadline(time.Now().Add(writeWait))
	if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
		return fmt.Errorf("failed to send %s message: %w", msg.Type, err)
	}
	return nil
}

// Speak asks the host to say text. With expectResponse the host listens
// again right after speaking.
func (c *Client) Speak(text string, expectResponse bool) error {
	return c.Emit(Message{
		Type: "speak",
		Data: map[string]any{
			"utterance":       text,
			"expect_response": expectResponse,
		},
	})
}

// Run reads messages until the connection fails or ctx is done.
func (c *Client) Run(ctx context.Context) error {
	go func() {
		<-ctx.Done()
		c.conn.Close()
	}()

	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				return ErrClosed
			}
			return fmt.Errorf("failed to read from message bus: %w", err)
		}

		var msg Message
		if err := json.Unmarshal(raw, &msg); err != nil {
			log.Errorf("failed to decode bus message: %s\n%v", string(raw), err)
			continue
		}
		c.dispatch(msg)
	}
}

func (c *Client) dispatch(msg Message) {
	c.handlersMu.RLock()
	handlers := c.handlers[msg.Type]
	c.handlersMu.RUnlock()
	if len(handlers) == 0 {
		return
	}

	log.Debugf("received bus message: %s", msg.Type)
	for _, fn := range handlers {
		fn(msg)
	}
}

func (c *Client) Close() error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	c.conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		time.Now().Add(writeWait))
	return c.conn.Close()
}
