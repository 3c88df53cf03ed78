// Package jsonrpc implements the JSON-RPC 2.0 envelope exchanged between
// peers on the order-relay network. The response id echoing the request id is
// the only correlation mechanism between the two.
package jsonrpc

import (
	"encoding/json"
	"strconv"

	"github.com/thanhpk/randstr"
)

// Version is the protocol version stamped on every message.
const Version = "2.0"

// Message is a JSON-RPC message of either direction. Requests carry a method
// and params, responses carry a result or an error.
type Message struct {
	ID      json.RawMessage `json:"id,omitempty"`
	Jsonrpc string          `json:"jsonrpc"`
	Method  string          `json:"method,omitempty"`
	Params  json.RawMessage `json:"params,omitempty"`
	Result  json.RawMessage `json:"result,omitempty"`
	Error   *Error          `json:"error,omitempty"`
}

// Error is a JSON-RPC error object.
type Error struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (e *Error) String() string {
	return strconv.Itoa(e.Code) + ": " + e.Message
}

// IsRequest reports whether the message carries a method, ie. it expects a
// correlated response.
func (m *Message) IsRequest() bool {
	return m.Method != ""
}

// IDKey returns the message id in a form usable as a map key, unquoting
// string ids so that "abc" and abc correlate.
func (m *Message) IDKey() string {
	if s, err := strconv.Unquote(string(m.ID)); err == nil {
		return s
	}
	return string(m.ID)
}

// NewRequest returns a request message with a fresh random id.
func NewRequest(method string, params interface{}) (*Message, error) {
	rawParams, err := json.Marshal(params)
	if err != nil {
		return nil, err
	}
	id, _ := json.Marshal(randstr.Hex(8))
	return &Message{
		ID:      id,
		Jsonrpc: Version,
		Method:  method,
		Params:  rawParams,
	}, nil
}

// NewResponse returns a response message echoing the given request id.
func NewResponse(id json.RawMessage, result interface{}) (*Message, error) {
	rawResult, err := json.Marshal(result)
	if err != nil {
		return nil, err
	}
	return &Message{
		ID:      id,
		Jsonrpc: Version,
		Result:  rawResult,
	}, nil
}
