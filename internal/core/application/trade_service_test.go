package application

import (
	"context"
	"encoding/json"
	"errors"
	"math/big"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openswap-network/maker-daemon/internal/core/domain"
	"github.com/openswap-network/maker-daemon/pkg/jsonrpc"
)

const (
	makerWallet = "0x1111111111111111111111111111111111111111"
	takerWallet = "0x2222222222222222222222222222222222222222"
)

type fakeSigner struct {
	err   error
	calls int
}

func (s *fakeSigner) Address() string { return makerWallet }

func (s *fakeSigner) SignOrder(
	_ context.Context, _ domain.SwapVersion, _ *domain.Order,
) (*domain.Signature, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	return &domain.Signature{R: "0xaa", S: "0xbb", V: 28}, nil
}

type fakeDecrypter struct {
	plain []byte
	err   error
}

func (d *fakeDecrypter) Decrypt(string) ([]byte, error) {
	return d.plain, d.err
}

type sentMessage struct {
	peer string
	msg  *jsonrpc.Message
}

type fakeCaller struct {
	mtx  sync.Mutex
	sent []sentMessage
}

func (c *fakeCaller) Call(_ context.Context, peer string, msg *jsonrpc.Message) error {
	c.mtx.Lock()
	defer c.mtx.Unlock()
	c.sent = append(c.sent, sentMessage{peer: peer, msg: msg})
	return nil
}

type fakeBalanceReader struct {
	token  *big.Int
	native *big.Int
	err    error
}

func (b *fakeBalanceReader) TokenBalance(
	_ context.Context, _, _ string,
) (*big.Int, error) {
	return b.token, b.err
}

func (b *fakeBalanceReader) NativeBalance(
	_ context.Context, _ string,
) (*big.Int, error) {
	return b.native, b.err
}

type tradeFixture struct {
	service   TradeService
	signer    *fakeSigner
	decrypter *fakeDecrypter
	caller    *fakeCaller
	balances  *fakeBalanceReader
}

func newTradeFixture(price int64) *tradeFixture {
	signer := &fakeSigner{}
	decrypter := &fakeDecrypter{}
	caller := &fakeCaller{}
	balances := &fakeBalanceReader{token: big.NewInt(0)}
	pricing := NewPricingService(
		testRegistry(), NewFixedPriceStrategy(decimal.NewFromInt(price)),
	)
	assembler := domain.NewAssembler(
		domain.DefaultTradeWindow, domain.DefaultERC20Kind,
		func() time.Time { return time.Unix(1700000000, 0) },
	)
	return &tradeFixture{
		service: NewTradeService(
			signer, decrypter, caller, balances,
			pricing, assembler, domain.DefaultERC20Kind,
		),
		signer:    signer,
		decrypter: decrypter,
		caller:    caller,
		balances:  balances,
	}
}

func request(method string, params string) *jsonrpc.Message {
	return &jsonrpc.Message{
		ID:      json.RawMessage(`"req-1"`),
		Jsonrpc: jsonrpc.Version,
		Method:  method,
		Params:  json.RawMessage(params),
	}
}

func resultFields(t *testing.T, msg *jsonrpc.Message) map[string]interface{} {
	t.Helper()
	var fields map[string]interface{}
	require.NoError(t, json.Unmarshal(msg.Result, &fields))
	return fields
}

func TestHandleRPCGetOrderParamSchema(t *testing.T) {
	f := newTradeFixture(200)

	f.service.HandleRPC(context.Background(), request("getOrder", `{
		"signerToken": "`+wethAddress+`",
		"senderToken": "`+daiAddress+`",
		"senderParam": "200000000000000000000",
		"senderWallet": "`+takerWallet+`"
	}`), takerWallet)

	require.Len(t, f.caller.sent, 1)
	assert.Equal(t, takerWallet, f.caller.sent[0].peer)
	assert.Equal(t, json.RawMessage(`"req-1"`), f.caller.sent[0].msg.ID)

	fields := resultFields(t, f.caller.sent[0].msg)
	assert.Equal(t, makerWallet, fields["signerWallet"])
	assert.Equal(t, takerWallet, fields["senderWallet"])
	assert.Equal(t, "1000000000000000000", fields["signerParam"])
	assert.Equal(t, "200000000000000000000", fields["senderParam"])
	assert.Equal(t, wethAddress, fields["signerToken"])
	assert.Equal(t, daiAddress, fields["senderToken"])
	assert.Equal(t, "1700000000000", fields["nonce"])
	assert.Equal(t, float64(1700000300), fields["expiry"])
	assert.Equal(t, "0xaa", fields["r"])
	assert.Equal(t, "0xbb", fields["s"])
	assert.Equal(t, float64(28), fields["v"])
	assert.Equal(t, 1, f.signer.calls)
}

func TestHandleRPCGetOrderLegacySchema(t *testing.T) {
	f := newTradeFixture(200)

	f.service.HandleRPC(context.Background(), request("getMakerSideOrder", `{
		"makerToken": "`+wethAddress+`",
		"takerToken": "`+daiAddress+`",
		"takerAmount": "200000000000000000000",
		"takerAddress": "`+takerWallet+`"
	}`), takerWallet)

	require.Len(t, f.caller.sent, 1)
	fields := resultFields(t, f.caller.sent[0].msg)
	assert.Equal(t, makerWallet, fields["makerAddress"])
	assert.Equal(t, "1000000000000000000", fields["makerAmount"])
	assert.Equal(t, float64(1700000300), fields["expiration"])
	assert.NotContains(t, fields, "signerWallet")
	assert.NotContains(t, fields, "expiry")
}

func TestHandleRPCGetQuoteIsNotBinding(t *testing.T) {
	f := newTradeFixture(200)

	f.service.HandleRPC(context.Background(), request("getSignerSideQuote", `{
		"signerToken": "`+wethAddress+`",
		"senderToken": "`+daiAddress+`",
		"senderParam": "200000000000000000000"
	}`), takerWallet)

	require.Len(t, f.caller.sent, 1)
	fields := resultFields(t, f.caller.sent[0].msg)
	assert.Equal(t, "1000000000000000000", fields["signerParam"])
	assert.Equal(t, domain.DefaultERC20Kind, fields["signerKind"])
	assert.Equal(t, domain.DefaultERC20Kind, fields["senderKind"])
	assert.NotContains(t, fields, "nonce")
	assert.NotContains(t, fields, "expiry")
	assert.NotContains(t, fields, "r")
	assert.Equal(t, 0, f.signer.calls)
}

func TestHandleRPCGetMaxQuoteUsesLiveBalance(t *testing.T) {
	f := newTradeFixture(1)
	f.balances.token, _ = new(big.Int).SetString("5000000000000000000", 10)

	f.service.HandleRPC(context.Background(), request("getMaxQuote", `{
		"signerToken": "`+wethAddress+`",
		"senderToken": "`+daiAddress+`"
	}`), takerWallet)

	require.Len(t, f.caller.sent, 1)
	fields := resultFields(t, f.caller.sent[0].msg)
	assert.Equal(t, "5000000000000000000", fields["signerParam"])
	assert.Equal(t, "5000000000000000000", fields["senderParam"])
}

func TestHandleRPCDropsUnpricableRequests(t *testing.T) {
	f := newTradeFixture(200)

	// No amount on either side.
	f.service.HandleRPC(context.Background(), request("getOrder", `{
		"signerToken": "`+wethAddress+`",
		"senderToken": "`+daiAddress+`",
		"senderWallet": "`+takerWallet+`"
	}`), takerWallet)

	// Amounts on both sides.
	f.service.HandleRPC(context.Background(), request("getOrder", `{
		"signerToken": "`+wethAddress+`",
		"senderToken": "`+daiAddress+`",
		"signerParam": "1",
		"senderParam": "1"
	}`), takerWallet)

	assert.Empty(t, f.caller.sent)
	assert.Equal(t, 0, f.signer.calls)
}

func TestHandleRPCDropsUnknownMethod(t *testing.T) {
	f := newTradeFixture(200)

	f.service.HandleRPC(
		context.Background(), request("fillOrder", `{}`), takerWallet,
	)

	assert.Empty(t, f.caller.sent)
}

func TestHandleRPCDropsUndecryptableParams(t *testing.T) {
	f := newTradeFixture(200)
	f.decrypter.err = errors.New("no matching key")

	f.service.HandleRPC(context.Background(), request(
		"getOrder", `"-----BEGIN PGP MESSAGE-----\n\ngarbage\n-----END PGP MESSAGE-----"`,
	), takerWallet)

	assert.Empty(t, f.caller.sent)
	assert.Equal(t, 0, f.signer.calls)
}

func TestHandleRPCDecryptsArmoredParams(t *testing.T) {
	f := newTradeFixture(200)
	f.decrypter.plain = []byte(`{
		"signerToken": "` + wethAddress + `",
		"senderToken": "` + daiAddress + `",
		"senderParam": "200000000000000000000",
		"senderWallet": "` + takerWallet + `"
	}`)

	f.service.HandleRPC(context.Background(), request(
		"getOrder", `"-----BEGIN PGP MESSAGE-----\n\nd2VsbCBmb3JtZWQ=\n-----END PGP MESSAGE-----"`,
	), takerWallet)

	require.Len(t, f.caller.sent, 1)
	fields := resultFields(t, f.caller.sent[0].msg)
	assert.Equal(t, "1000000000000000000", fields["signerParam"])
}

func TestHandleRPCDropsOnSignerFailure(t *testing.T) {
	f := newTradeFixture(200)
	f.signer.err = errors.New("keystore locked")

	f.service.HandleRPC(context.Background(), request("getOrder", `{
		"signerToken": "`+wethAddress+`",
		"senderToken": "`+daiAddress+`",
		"senderParam": "200000000000000000000"
	}`), takerWallet)

	assert.Empty(t, f.caller.sent)
	// One attempt, no retry: retrying would sign a stale price.
	assert.Equal(t, 1, f.signer.calls)
}

func TestHandleRPCDropsOnBalanceFailure(t *testing.T) {
	f := newTradeFixture(1)
	f.balances.err = errors.New("rpc node down")

	f.service.HandleRPC(context.Background(), request("getMaxQuote", `{
		"signerToken": "`+wethAddress+`",
		"senderToken": "`+daiAddress+`"
	}`), takerWallet)

	assert.Empty(t, f.caller.sent)
}
