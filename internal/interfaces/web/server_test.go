package web

import (
	"context"
	"encoding/json"
	"math/big"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openswap-network/maker-daemon/internal/core/domain"
	"github.com/openswap-network/maker-daemon/internal/core/ports"
)

type fakeRequester struct {
	peer   string
	method string
	params interface{}
	result json.RawMessage
	err    error
}

func (f *fakeRequester) Request(
	_ context.Context, peer, method string, params interface{},
) (json.RawMessage, error) {
	f.peer, f.method, f.params = peer, method, params
	return f.result, f.err
}

type fakeWebSigner struct{}

func (fakeWebSigner) Address() string { return "0xmaker" }

func (fakeWebSigner) SignOrder(
	_ context.Context, _ domain.SwapVersion, _ *domain.Order,
) (*domain.Signature, error) {
	return &domain.Signature{R: "0xaa", S: "0xbb", V: 28}, nil
}

type fakeTx struct{ hash string }

func (tx fakeTx) Hash() string               { return tx.hash }
func (tx fakeTx) Wait(context.Context) error { return nil }

type fakeVault struct{ wrapped *big.Int }

func (v *fakeVault) Wrap(_ context.Context, amount *big.Int) (ports.PendingTx, error) {
	v.wrapped = amount
	return fakeTx{hash: "0xwrap"}, nil
}

func (v *fakeVault) Unwrap(_ context.Context, amount *big.Int) (ports.PendingTx, error) {
	return fakeTx{hash: "0xunwrap"}, nil
}

func newTestServer(requester *fakeRequester, vault *fakeVault) *Server {
	return NewServer(requester, fakeWebSigner{}, nil, vault, nil, nil)
}

func TestPeerProxyForwardsAndStripsPeer(t *testing.T) {
	requester := &fakeRequester{result: json.RawMessage(`{"makerAmount":"100"}`)}
	handler := newTestServer(requester, &fakeVault{}).Handler()

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(
		http.MethodPost, "/getOrder",
		strings.NewReader(`{"makerAddress":"0xpeer","makerToken":"0xabc","takerAmount":"5"}`),
	))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"makerAmount":"100"}`, rec.Body.String())
	assert.Equal(t, "0xpeer", requester.peer)
	assert.Equal(t, "getOrder", requester.method)

	forwarded, ok := requester.params.(map[string]interface{})
	require.True(t, ok)
	assert.NotContains(t, forwarded, "makerAddress")
	assert.Equal(t, "0xabc", forwarded["makerToken"])
}

func TestPeerProxyRejectsMissingPeer(t *testing.T) {
	handler := newTestServer(&fakeRequester{}, &fakeVault{}).Handler()

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(
		http.MethodPost, "/getQuote", strings.NewReader(`{"makerToken":"0xabc"}`),
	))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSignOrderReturnsSignedPayload(t *testing.T) {
	handler := newTestServer(&fakeRequester{}, &fakeVault{}).Handler()

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(
		http.MethodPost, "/signOrder", strings.NewReader(`{
			"signerWallet": "0xmaker",
			"signerToken": "0xabc",
			"signerParam": "100",
			"senderWallet": "0xtaker",
			"senderToken": "0xdef",
			"senderParam": "200",
			"nonce": "7",
			"expiry": 1700000300
		}`),
	))

	require.Equal(t, http.StatusOK, rec.Code)
	var fields map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &fields))
	assert.Equal(t, "0xaa", fields["r"])
	assert.Equal(t, float64(28), fields["v"])
	assert.Equal(t, "100", fields["signerParam"])
}

func TestWrapWethValidatesAmount(t *testing.T) {
	vault := &fakeVault{}
	handler := newTestServer(&fakeRequester{}, vault).Handler()

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(
		http.MethodPost, "/wrapWeth", strings.NewReader(`{"amount":"-5"}`),
	))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(
		http.MethodPost, "/wrapWeth", strings.NewReader(`{"amount":"1000000000000000000"}`),
	))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "1000000000000000000", vault.wrapped.String())
}

func TestHealthz(t *testing.T) {
	handler := newTestServer(&fakeRequester{}, &fakeVault{}).Handler()

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}
