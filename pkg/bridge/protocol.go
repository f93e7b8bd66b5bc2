package bridge

import (
	"encoding/json"

	navErrors "github.com/vango-dev/navflow/internal/errors"
	"github.com/vango-dev/navflow/pkg/navigate"
	"github.com/vango-dev/navflow/pkg/navstate"
)

// Client to server message types.
const (
	// MsgLocation reports that the client's reactive location changed.
	MsgLocation = "location"

	// MsgPlatform reports a native platform event and the address the
	// client read directly at that moment.
	MsgPlatform = "platform"

	// MsgAck settles a router command.
	MsgAck = "ack"

	// MsgNavigate asks the session's coordinator to navigate.
	MsgNavigate = "navigate"
)

// Server to client message types.
const (
	// MsgHello is the first message of every session.
	MsgHello = "hello"

	// MsgCommand asks the client to perform a router operation.
	MsgCommand = "command"

	// MsgState carries the navigation record after every change.
	MsgState = "state"

	// MsgError reports a rejected client message.
	MsgError = "error"
)

// ClientMessage is a message received from the browser client. Which fields
// are set depends on Type.
type ClientMessage struct {
	Type string `json:"type"`

	// location
	Path  string `json:"path,omitempty"`
	Query string `json:"query,omitempty"`

	// platform
	Event string `json:"event,omitempty"`
	Href  string `json:"href,omitempty"`

	// ack
	Seq   uint64 `json:"seq,omitempty"`
	Error string `json:"error,omitempty"`

	// navigate (Path is shared with location)
	Op      string         `json:"op,omitempty"`
	Element string         `json:"element,omitempty"`
	Params  map[string]any `json:"params,omitempty"`
}

// ServerMessage is a message sent to the browser client.
type ServerMessage struct {
	Type string `json:"type"`

	// hello
	Session string `json:"session,omitempty"`

	// command
	Seq  uint64 `json:"seq,omitempty"`
	Op   string `json:"op,omitempty"`
	Path string `json:"path,omitempty"`

	// state
	State *navstate.State `json:"state,omitempty"`

	// error
	Code  string `json:"code,omitempty"`
	Error string `json:"error,omitempty"`
}

// DecodeClientMessage parses one client frame.
func DecodeClientMessage(data []byte) (ClientMessage, error) {
	var msg ClientMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return ClientMessage{}, navErrors.New("N061").Wrap(err)
	}
	switch msg.Type {
	case MsgLocation, MsgPlatform, MsgAck:
	case MsgNavigate:
		switch navigate.Op(msg.Op) {
		case navigate.OpPush, navigate.OpReplace, navigate.OpBack, navigate.OpForward, navigate.OpRefresh:
		default:
			return ClientMessage{}, navErrors.New("N061").
				WithDetail("Unknown navigate op " + msg.Op).
				WithField("op", msg.Op)
		}
	default:
		return ClientMessage{}, navErrors.New("N061").
			WithDetail("Unknown message type " + msg.Type).
			WithField("type", msg.Type)
	}
	return msg, nil
}

func stateMessage(st navstate.State) ServerMessage {
	return ServerMessage{Type: MsgState, State: &st}
}

func errorMessage(err error) ServerMessage {
	msg := ServerMessage{Type: MsgError, Error: err.Error()}
	if ne := navErrors.FromError(err, "N061"); ne != nil {
		msg.Code = ne.Code
	}
	return msg
}
