// Package wsbridge carries editor requests over a websocket. The server side
// (Bridge) accepts one editor connection and acts as the engine's Messenger;
// the agent side (Serve) answers requests from a local Messenger.
package wsbridge

import (
	"encoding/json"
	"errors"
)

// Frame types
const (
	FrameRequest  = "request"
	FrameResponse = "response"
)

var (
	// ErrNoEditor is returned when a request is made with no editor connected
	ErrNoEditor = errors.New("no editor connected")

	// ErrDisconnected is returned for requests pending when the editor went away
	ErrDisconnected = errors.New("editor disconnected")
)

// Frame is one message on the bridge. Requests carry a channel, a message
// and arguments; responses echo the request id with a result or an error.
type Frame struct {
	ID      string            `json:"id"`
	Type    string            `json:"type"`
	Channel string            `json:"channel,omitempty"`
	Message string            `json:"message,omitempty"`
	Args    []json.RawMessage `json:"args,omitempty"`
	Result  json.RawMessage   `json:"result,omitempty"`
	Error   string            `json:"error,omitempty"`
}
