package application

import (
	"strings"

	"github.com/openswap-network/maker-daemon/internal/core/domain"
)

// tradeParams mirrors every field spelling the two wire schema generations
// use for trade request parameters. The tagged variant is resolved once here,
// at the protocol boundary, and normalized to a TradeRequest; pricing and
// assembly only ever see the canonical form.
type tradeParams struct {
	MakerToken string `json:"makerToken"`
	TakerToken string `json:"takerToken"`

	SignerToken string `json:"signerToken"`
	SenderToken string `json:"senderToken"`

	MakerAmount string `json:"makerAmount"`
	TakerAmount string `json:"takerAmount"`

	MakerParam string `json:"makerParam"`
	TakerParam string `json:"takerParam"`

	SignerParam string `json:"signerParam"`
	SenderParam string `json:"senderParam"`

	TakerAddress string `json:"takerAddress"`
	TakerWallet  string `json:"takerWallet"`
	SenderWallet string `json:"senderWallet"`
}

// TradeRequest is the canonical trade request: maker/taker tokens, at most
// one amount side, and the counterparty wallet.
type TradeRequest struct {
	Version     domain.SwapVersion
	MakerToken  string
	TakerToken  string
	MakerAmount string
	TakerAmount string
	TakerWallet string
}

func coalesce(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

// normalize folds both schema spellings into a TradeRequest and infers the
// schema generation from the populated fields and the method name.
func (p tradeParams) normalize(method string) TradeRequest {
	version := domain.SwapVersionLegacy
	usesParamSchema := p.SignerToken != "" || p.SenderToken != "" ||
		p.SignerParam != "" || p.SenderParam != "" ||
		p.MakerParam != "" || p.TakerParam != "" ||
		p.SenderWallet != "" || p.TakerWallet != ""
	if usesParamSchema ||
		strings.Contains(method, "Signer") || strings.Contains(method, "Sender") {
		version = domain.SwapVersionParam
	}

	return TradeRequest{
		Version:     version,
		MakerToken:  coalesce(p.MakerToken, p.SignerToken),
		TakerToken:  coalesce(p.TakerToken, p.SenderToken),
		MakerAmount: coalesce(p.MakerAmount, p.MakerParam, p.SignerParam),
		TakerAmount: coalesce(p.TakerAmount, p.TakerParam, p.SenderParam),
		TakerWallet: coalesce(p.TakerAddress, p.TakerWallet, p.SenderWallet),
	}
}

// Market is a configured token pair this maker is willing to quote, by
// symbol, maker side first.
type Market struct {
	MakerToken string
	TakerToken string
}
