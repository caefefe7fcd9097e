// Package ipc holds the wire format shared by the potbrainz daemon and its
// command-line clients: line-delimited JSON over a unix domain socket.
//
// Each request is one line, {"type": "...", "data": {...}}, answered by one
// line, {"status": "ok"} or {"status": "error", "error": "..."}.
package ipc

import (
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"time"
)

// DefaultSocketPath is where the daemon listens unless configured otherwise.
const DefaultSocketPath = "/tmp/potbrainz.sock"

// Event type names.
const (
	TypeDrag             = "drag"
	TypeSetValue         = "set_value"
	TypeRotaryTurn       = "rotary_turn"
	TypeResize           = "resize"
	TypeSetLineWidthMode = "set_line_width_mode"
)

// Response statuses.
const (
	StatusOK    = "ok"
	StatusError = "error"
)

// Envelope wraps an event payload with its type discriminator.
type Envelope struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data,omitempty"`
}

// Response is the daemon's reply to one request line.
type Response struct {
	Status string `json:"status"`
	Error  string `json:"error,omitempty"`
}

// OK reports whether the response carries StatusOK.
func (r Response) OK() bool { return r.Status == StatusOK }

// ErrorResponse builds an error reply.
func ErrorResponse(format string, args ...any) Response {
	return Response{Status: StatusError, Error: fmt.Sprintf(format, args...)}
}

// Encode marshals data into an envelope of the given type.
func Encode(typ string, data any) ([]byte, error) {
	if typ == "" {
		return nil, errors.New("ipc: empty event type")
	}
	raw, err := json.Marshal(data)
	if err != nil {
		return nil, fmt.Errorf("marshal %s: %w", typ, err)
	}
	return json.Marshal(Envelope{Type: typ, Data: raw})
}

// Timeout bounds connect and the request/response round trip in Send.
var Timeout = 2 * time.Second

// Send delivers one event to the daemon at socketPath and waits for the reply.
// A StatusError reply is returned as an error.
func Send(socketPath, typ string, data any) error {
	line, err := Encode(typ, data)
	if err != nil {
		return err
	}

	conn, err := net.DialTimeout("unix", socketPath, Timeout)
	if err != nil {
		return fmt.Errorf("connect to %s: %w", socketPath, err)
	}
	defer conn.Close()
	_ = conn.SetDeadline(time.Now().Add(Timeout))

	if _, err := conn.Write(append(line, '\n')); err != nil {
		return fmt.Errorf("send %s: %w", typ, err)
	}

	var resp Response
	if err := json.NewDecoder(conn).Decode(&resp); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	if !resp.OK() {
		return fmt.Errorf("daemon error: %s", resp.Error)
	}
	return nil
}
