package messaging

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openswap-network/maker-daemon/pkg/jsonrpc"
)

func frame(t *testing.T, sender string, msg *jsonrpc.Message) []byte {
	t.Helper()
	serialized, err := json.Marshal(msg)
	require.NoError(t, err)
	raw, err := json.Marshal(envelope{
		Sender:   sender,
		Receiver: "0xmaker",
		Message:  string(serialized),
	})
	require.NoError(t, err)
	return raw
}

func TestDispatchRoutesRequestToHandler(t *testing.T) {
	router := NewRouter("ws://relay", "0xmaker", nil)

	type inbound struct {
		method string
		sender string
	}
	received := make(chan inbound, 1)
	router.Handle("getOrder", func(_ context.Context, msg *jsonrpc.Message, sender string) {
		received <- inbound{method: msg.Method, sender: sender}
	})

	req, err := jsonrpc.NewRequest("getOrder", map[string]string{"makerToken": "0xabc"})
	require.NoError(t, err)
	router.dispatch(context.Background(), frame(t, "0xtaker", req))

	select {
	case got := <-received:
		assert.Equal(t, "getOrder", got.method)
		assert.Equal(t, "0xtaker", got.sender)
	case <-time.After(time.Second):
		t.Fatal("handler never invoked")
	}
}

func TestDispatchIgnoresUnhandledMethodsAndGarbage(t *testing.T) {
	router := NewRouter("ws://relay", "0xmaker", nil)

	req, err := jsonrpc.NewRequest("fillOrder", nil)
	require.NoError(t, err)

	// None of these may panic or block.
	router.dispatch(context.Background(), frame(t, "0xtaker", req))
	router.dispatch(context.Background(), []byte("not json"))
	router.dispatch(context.Background(), []byte(`{"sender":"x","message":"not json"}`))
}

func TestDispatchCorrelatesResponseById(t *testing.T) {
	router := NewRouter("ws://relay", "0xmaker", nil)

	waiter := router.addPending("req-42")
	resp, err := jsonrpc.NewResponse(json.RawMessage(`"req-42"`), map[string]string{
		"makerAmount": "100",
	})
	require.NoError(t, err)
	router.dispatch(context.Background(), frame(t, "0xtaker", resp))

	select {
	case msg := <-waiter:
		assert.JSONEq(t, `{"makerAmount":"100"}`, string(msg.Result))
	case <-time.After(time.Second):
		t.Fatal("pending request never resolved")
	}

	// A second response with the same id has nobody waiting: dropped quietly.
	router.dispatch(context.Background(), frame(t, "0xtaker", resp))
}
