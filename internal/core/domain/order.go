package domain

import (
	"math/rand"
	"strconv"
	"time"
)

// SwapVersion selects the wire schema generation an order or quote is
// serialized with. The two schemas differ only in field names, not semantics.
type SwapVersion int

const (
	// SwapVersionLegacy is the maker/taker schema
	// (makerAddress/takerAddress/makerAmount/.../expiration).
	SwapVersionLegacy SwapVersion = 1
	// SwapVersionParam is the signer/sender schema
	// (signerWallet/senderWallet/signerParam/.../expiry).
	SwapVersionParam SwapVersion = 2
)

// DefaultERC20Kind tags the amount-transfer interface of a quoted leg. It is
// a configurable constant, never derived from token introspection.
const DefaultERC20Kind = "0x277f8169"

// DefaultTradeWindow is how long an assembled order stays valid.
const DefaultTradeWindow = 300 * time.Second

// TradeLeg is one side of a trade: who moves which token and how much, with
// the amount always in atomic units.
type TradeLeg struct {
	Wallet string
	Token  string
	Amount string
}

// Signature is the detached signature attached to an order by the signer.
type Signature struct {
	R string `json:"r"`
	S string `json:"s"`
	V uint8  `json:"v"`
}

// Order is the canonical, schema-agnostic representation of a binding trade
// commitment. It is unsigned until passed to the signer.
type Order struct {
	Maker     TradeLeg
	Taker     TradeLeg
	Nonce     string
	Expiry    int64
	Signature *Signature
}

// Quote carries the same leg shape as an Order but is non-binding: it never
// has a nonce, expiry or signature.
type Quote struct {
	Maker TradeLeg
	Taker TradeLeg
}

// Assembler builds orders and quotes with the nonce and expiry policy of this
// maker. The clock is injectable for tests.
type Assembler struct {
	window    time.Duration
	erc20Kind string
	now       func() time.Time
}

func NewAssembler(window time.Duration, erc20Kind string, now func() time.Time) *Assembler {
	if window <= 0 {
		window = DefaultTradeWindow
	}
	if erc20Kind == "" {
		erc20Kind = DefaultERC20Kind
	}
	if now == nil {
		now = time.Now
	}
	return &Assembler{window: window, erc20Kind: erc20Kind, now: now}
}

// Order assembles an unsigned order. Expiry is computed at assembly time, not
// at request time, to avoid clock-skew amplification.
//
// Nonce uniqueness is per signer wallet per validity window and is not
// persisted across restarts: legacy orders draw a wide random integer, param
// orders use a millisecond timestamp.
func (a *Assembler) Order(version SwapVersion, maker, taker TradeLeg) *Order {
	now := a.now()
	return &Order{
		Maker:  maker,
		Taker:  taker,
		Nonce:  newNonce(version, now),
		Expiry: now.Unix() + int64(a.window/time.Second),
	}
}

// Quote assembles a non-binding quote.
func (a *Assembler) Quote(maker, taker TradeLeg) *Quote {
	return &Quote{Maker: maker, Taker: taker}
}

func newNonce(version SwapVersion, now time.Time) string {
	if version == SwapVersionLegacy {
		return strconv.FormatUint(rand.Uint64(), 10)
	}
	return strconv.FormatInt(now.UnixMilli(), 10)
}

type legacyOrder struct {
	MakerAddress string `json:"makerAddress"`
	TakerAddress string `json:"takerAddress"`
	MakerAmount  string `json:"makerAmount"`
	TakerAmount  string `json:"takerAmount"`
	MakerToken   string `json:"makerToken"`
	TakerToken   string `json:"takerToken"`
	Nonce        string `json:"nonce"`
	Expiration   int64  `json:"expiration"`
	R            string `json:"r,omitempty"`
	S            string `json:"s,omitempty"`
	V            uint8  `json:"v,omitempty"`
}

type paramOrder struct {
	SignerWallet string `json:"signerWallet"`
	SenderWallet string `json:"senderWallet"`
	SignerParam  string `json:"signerParam"`
	SenderParam  string `json:"senderParam"`
	SignerToken  string `json:"signerToken"`
	SenderToken  string `json:"senderToken"`
	Nonce        string `json:"nonce"`
	Expiry       int64  `json:"expiry"`
	R            string `json:"r,omitempty"`
	S            string `json:"s,omitempty"`
	V            uint8  `json:"v,omitempty"`
}

type legacyQuote struct {
	MakerAddress string `json:"makerAddress"`
	MakerAmount  string `json:"makerAmount"`
	TakerAmount  string `json:"takerAmount"`
	MakerToken   string `json:"makerToken"`
	TakerToken   string `json:"takerToken"`
}

type paramQuote struct {
	SignerWallet string `json:"signerWallet"`
	SignerParam  string `json:"signerParam"`
	SenderParam  string `json:"senderParam"`
	SignerToken  string `json:"signerToken"`
	SenderToken  string `json:"senderToken"`
	SignerKind   string `json:"signerKind"`
	SenderKind   string `json:"senderKind"`
}

// WirePayload expands the canonical order to the requested wire schema. This
// is the only place the two schema generations diverge.
func (o *Order) WirePayload(version SwapVersion) interface{} {
	if version == SwapVersionLegacy {
		out := legacyOrder{
			MakerAddress: o.Maker.Wallet,
			TakerAddress: o.Taker.Wallet,
			MakerAmount:  o.Maker.Amount,
			TakerAmount:  o.Taker.Amount,
			MakerToken:   o.Maker.Token,
			TakerToken:   o.Taker.Token,
			Nonce:        o.Nonce,
			Expiration:   o.Expiry,
		}
		if o.Signature != nil {
			out.R, out.S, out.V = o.Signature.R, o.Signature.S, o.Signature.V
		}
		return out
	}

	out := paramOrder{
		SignerWallet: o.Maker.Wallet,
		SenderWallet: o.Taker.Wallet,
		SignerParam:  o.Maker.Amount,
		SenderParam:  o.Taker.Amount,
		SignerToken:  o.Maker.Token,
		SenderToken:  o.Taker.Token,
		Nonce:        o.Nonce,
		Expiry:       o.Expiry,
	}
	if o.Signature != nil {
		out.R, out.S, out.V = o.Signature.R, o.Signature.S, o.Signature.V
	}
	return out
}

// WirePayload expands the quote to the requested wire schema. Param-schema
// quotes carry the fixed kind tags and nothing else beyond legs.
func (q *Quote) WirePayload(version SwapVersion, erc20Kind string) interface{} {
	if version == SwapVersionLegacy {
		return legacyQuote{
			MakerAddress: q.Maker.Wallet,
			MakerAmount:  q.Maker.Amount,
			TakerAmount:  q.Taker.Amount,
			MakerToken:   q.Maker.Token,
			TakerToken:   q.Taker.Token,
		}
	}

	if erc20Kind == "" {
		erc20Kind = DefaultERC20Kind
	}
	return paramQuote{
		SignerWallet: q.Maker.Wallet,
		SignerParam:  q.Maker.Amount,
		SenderParam:  q.Taker.Amount,
		SignerToken:  q.Maker.Token,
		SenderToken:  q.Taker.Token,
		SignerKind:   erc20Kind,
		SenderKind:   erc20Kind,
	}
}
