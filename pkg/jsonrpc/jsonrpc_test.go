package jsonrpc

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRequest(t *testing.T) {
	req, err := NewRequest("getOrder", map[string]string{"makerToken": "0xabc"})
	require.NoError(t, err)

	assert.True(t, req.IsRequest())
	assert.Equal(t, Version, req.Jsonrpc)
	assert.NotEmpty(t, req.ID)

	other, err := NewRequest("getOrder", nil)
	require.NoError(t, err)
	assert.NotEqual(t, req.IDKey(), other.IDKey())
}

func TestResponseEchoesRequestID(t *testing.T) {
	req, err := NewRequest("getQuote", nil)
	require.NoError(t, err)

	resp, err := NewResponse(req.ID, map[string]string{"makerAmount": "100"})
	require.NoError(t, err)

	assert.False(t, resp.IsRequest())
	assert.Equal(t, req.IDKey(), resp.IDKey())

	buf, err := json.Marshal(resp)
	require.NoError(t, err)

	var decoded Message
	require.NoError(t, json.Unmarshal(buf, &decoded))
	assert.Equal(t, req.IDKey(), decoded.IDKey())
	assert.False(t, decoded.IsRequest())
}

func TestIDKeyHandlesNumericAndStringIDs(t *testing.T) {
	var numeric Message
	require.NoError(t, json.Unmarshal([]byte(`{"id":42,"jsonrpc":"2.0","method":"getOrder"}`), &numeric))
	assert.Equal(t, "42", numeric.IDKey())

	var str Message
	require.NoError(t, json.Unmarshal([]byte(`{"id":"42","jsonrpc":"2.0","method":"getOrder"}`), &str))
	assert.Equal(t, "42", str.IDKey())
}
