package application

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	log "github.com/sirupsen/logrus"

	"github.com/openswap-network/maker-daemon/internal/core/domain"
	"github.com/openswap-network/maker-daemon/internal/core/ports"
	"github.com/openswap-network/maker-daemon/pkg/jsonrpc"
	"github.com/openswap-network/maker-daemon/pkg/stats"
)

const armoredPrefix = "-----BEGIN PGP MESSAGE-----"

type requestKind int

const (
	kindOrder requestKind = iota
	kindQuote
	kindMaxQuote
)

// methodSpec maps an RPC method name to what is being asked for and, where
// the name itself pins a schema generation, to that generation. A zero
// version means "infer from the params".
type methodSpec struct {
	kind    requestKind
	version domain.SwapVersion
}

var methodTable = map[string]methodSpec{
	"getOrder":    {kind: kindOrder},
	"getQuote":    {kind: kindQuote},
	"getMaxQuote": {kind: kindMaxQuote},

	"getMakerSideOrder": {kind: kindOrder, version: domain.SwapVersionLegacy},
	"getTakerSideOrder": {kind: kindOrder, version: domain.SwapVersionLegacy},
	"getMakerSideQuote": {kind: kindQuote, version: domain.SwapVersionLegacy},
	"getTakerSideQuote": {kind: kindQuote, version: domain.SwapVersionLegacy},

	"getSignerSideOrder": {kind: kindOrder, version: domain.SwapVersionParam},
	"getSenderSideOrder": {kind: kindOrder, version: domain.SwapVersionParam},
	"getSignerSideQuote": {kind: kindQuote, version: domain.SwapVersionParam},
	"getSenderSideQuote": {kind: kindQuote, version: domain.SwapVersionParam},
}

// TradeService answers inbound peer negotiation requests. Every failure on
// this path is logged and the request dropped without a response: the peer
// receives silence, never error detail.
type TradeService interface {
	// HandleRPC processes one inbound request from the given sender
	// identity. Invocations are independent: no mutable state is shared
	// between in-flight requests.
	HandleRPC(ctx context.Context, msg *jsonrpc.Message, sender string)
	// Methods lists the RPC method names the service answers.
	Methods() []string
}

type tradeService struct {
	signer    ports.Signer
	decrypter ports.Decrypter
	caller    ports.PeerCaller
	balances  ports.BalanceReader
	pricing   PricingService
	assembler *domain.Assembler
	erc20Kind string
}

func NewTradeService(
	signer ports.Signer,
	decrypter ports.Decrypter,
	caller ports.PeerCaller,
	balances ports.BalanceReader,
	pricing PricingService,
	assembler *domain.Assembler,
	erc20Kind string,
) TradeService {
	return &tradeService{
		signer:    signer,
		decrypter: decrypter,
		caller:    caller,
		balances:  balances,
		pricing:   pricing,
		assembler: assembler,
		erc20Kind: erc20Kind,
	}
}

func (s *tradeService) Methods() []string {
	methods := make([]string, 0, len(methodTable))
	for m := range methodTable {
		methods = append(methods, m)
	}
	return methods
}

func (s *tradeService) HandleRPC(
	ctx context.Context, msg *jsonrpc.Message, sender string,
) {
	spec, ok := methodTable[msg.Method]
	if !ok {
		stats.RequestsDropped.WithLabelValues(msg.Method, "unknown_method").Inc()
		log.WithField("method", msg.Method).Debug("ignoring unknown RPC method")
		return
	}
	stats.RequestsReceived.WithLabelValues(msg.Method).Inc()

	payload, err := s.answer(ctx, spec, msg)
	if err != nil {
		s.drop(msg.Method, sender, err)
		return
	}

	resp, err := jsonrpc.NewResponse(msg.ID, payload)
	if err != nil {
		s.drop(msg.Method, sender, err)
		return
	}
	if err := s.caller.Call(ctx, sender, resp); err != nil {
		s.drop(msg.Method, sender, err)
		return
	}

	stats.ResponsesSent.WithLabelValues(msg.Method).Inc()
	log.WithFields(log.Fields{
		"method": msg.Method,
		"sender": sender,
	}).Info("sent response")
}

func (s *tradeService) answer(
	ctx context.Context, spec methodSpec, msg *jsonrpc.Message,
) (interface{}, error) {
	params, err := s.resolveParams(msg.Params)
	if err != nil {
		return nil, err
	}

	req := params.normalize(msg.Method)
	if spec.version != 0 {
		req.Version = spec.version
	}

	switch spec.kind {
	case kindOrder:
		return s.answerOrder(ctx, req)
	case kindMaxQuote:
		return s.answerMaxQuote(ctx, req)
	default:
		return s.answerQuote(req)
	}
}

// resolveParams parses request params, decrypting them first when they come
// as an armored string instead of a plain object.
func (s *tradeService) resolveParams(raw json.RawMessage) (tradeParams, error) {
	var armored string
	if len(raw) > 0 && json.Unmarshal(raw, &armored) == nil {
		if !strings.HasPrefix(armored, armoredPrefix) {
			return tradeParams{}, fmt.Errorf("%w: unexpected string params", ErrMalformedParams)
		}
		plain, err := s.decrypter.Decrypt(armored)
		if err != nil {
			return tradeParams{}, fmt.Errorf("%w: %s", ErrDecryptionFailure, err)
		}
		raw = plain
	}

	var params tradeParams
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &params); err != nil {
			return tradeParams{}, fmt.Errorf("%w: %s", ErrMalformedParams, err)
		}
	}
	return params, nil
}

func (s *tradeService) answerOrder(
	ctx context.Context, req TradeRequest,
) (interface{}, error) {
	priced, err := s.pricing.PriceTrade(req)
	if err != nil {
		return nil, err
	}

	order := s.assembler.Order(
		req.Version,
		domain.TradeLeg{
			Wallet: s.signer.Address(),
			Token:  req.MakerToken,
			Amount: priced.MakerAmount,
		},
		domain.TradeLeg{
			Wallet: req.TakerWallet,
			Token:  req.TakerToken,
			Amount: priced.TakerAmount,
		},
	)

	// A failed signature is never retried: honoring a stale price on retry
	// is worse than dropping the request.
	sig, err := s.signer.SignOrder(ctx, req.Version, order)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrSigningFailure, err)
	}
	order.Signature = sig

	return order.WirePayload(req.Version), nil
}

func (s *tradeService) answerQuote(req TradeRequest) (interface{}, error) {
	priced, err := s.pricing.PriceTrade(req)
	if err != nil {
		return nil, err
	}

	quote := s.assembler.Quote(
		domain.TradeLeg{
			Wallet: s.signer.Address(),
			Token:  req.MakerToken,
			Amount: priced.MakerAmount,
		},
		domain.TradeLeg{
			Wallet: req.TakerWallet,
			Token:  req.TakerToken,
			Amount: priced.TakerAmount,
		},
	)
	return quote.WirePayload(req.Version, s.erc20Kind), nil
}

// answerMaxQuote prices the largest trade the maker can currently serve: the
// live balance of the supply-side token becomes the known amount. The
// balance is not reserved, so concurrent callers may both be offered it.
func (s *tradeService) answerMaxQuote(
	ctx context.Context, req TradeRequest,
) (interface{}, error) {
	balance, err := s.balances.TokenBalance(ctx, req.MakerToken, s.signer.Address())
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrBalanceLookupFailure, err)
	}

	req.MakerAmount = balance.String()
	req.TakerAmount = ""
	return s.answerQuote(req)
}

func (s *tradeService) drop(method, sender string, err error) {
	stats.RequestsDropped.WithLabelValues(method, dropReason(err)).Inc()
	log.WithError(err).WithFields(log.Fields{
		"method": method,
		"sender": sender,
	}).Warn("dropping request")
}

func dropReason(err error) string {
	switch {
	case errors.Is(err, ErrDecryptionFailure):
		return "decryption"
	case errors.Is(err, ErrMalformedParams):
		return "malformed_params"
	case errors.Is(err, domain.ErrUnpricableRequest):
		return "unpricable"
	case errors.Is(err, domain.ErrUnknownToken):
		return "unknown_token"
	case errors.Is(err, domain.ErrInvalidAmount):
		return "invalid_amount"
	case errors.Is(err, ErrSigningFailure):
		return "signing"
	case errors.Is(err, ErrBalanceLookupFailure):
		return "balance_lookup"
	default:
		return "internal"
	}
}
