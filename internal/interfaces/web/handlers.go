package web

import (
	"fmt"
	"math/big"
	"net/http"

	"github.com/openswap-network/maker-daemon/internal/core/domain"
)

// peerProxy forwards a trade query to a peer over the relay and returns the
// peer's result untouched. The peer identity comes from the request body and
// is stripped before forwarding.
func (s *Server) peerProxy(method string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body map[string]interface{}
		if err := ParseJSON(r, &body); err != nil {
			WriteError(w, http.StatusBadRequest, err)
			return
		}

		peer := popPeer(body)
		if peer == "" {
			WriteError(w, http.StatusBadRequest,
				fmt.Errorf("missing peer address in request body"))
			return
		}

		result, err := s.peers.Request(r.Context(), peer, method, body)
		if err != nil {
			WriteError(w, http.StatusInternalServerError, err)
			return
		}
		WriteRaw(w, http.StatusOK, result)
	}
}

func popPeer(body map[string]interface{}) string {
	for _, key := range []string{"peer", "makerAddress", "signerWallet"} {
		if value, ok := body[key].(string); ok && value != "" {
			delete(body, key)
			return value
		}
	}
	return ""
}

// orderPayload accepts an order in either wire schema.
type orderPayload struct {
	MakerAddress string `json:"makerAddress"`
	TakerAddress string `json:"takerAddress"`
	MakerAmount  string `json:"makerAmount"`
	TakerAmount  string `json:"takerAmount"`
	MakerToken   string `json:"makerToken"`
	TakerToken   string `json:"takerToken"`
	Expiration   int64  `json:"expiration"`

	SignerWallet string `json:"signerWallet"`
	SenderWallet string `json:"senderWallet"`
	SignerParam  string `json:"signerParam"`
	SenderParam  string `json:"senderParam"`
	SignerToken  string `json:"signerToken"`
	SenderToken  string `json:"senderToken"`
	Expiry       int64  `json:"expiry"`

	Nonce string `json:"nonce"`
	R     string `json:"r"`
	S     string `json:"s"`
	V     uint8  `json:"v"`
}

func coalesce(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

func (p orderPayload) toDomain() (*domain.Order, domain.SwapVersion) {
	version := domain.SwapVersionLegacy
	if p.SignerWallet != "" || p.SignerToken != "" || p.Expiry != 0 {
		version = domain.SwapVersionParam
	}

	expiry := p.Expiration
	if expiry == 0 {
		expiry = p.Expiry
	}
	order := &domain.Order{
		Maker: domain.TradeLeg{
			Wallet: coalesce(p.MakerAddress, p.SignerWallet),
			Token:  coalesce(p.MakerToken, p.SignerToken),
			Amount: coalesce(p.MakerAmount, p.SignerParam),
		},
		Taker: domain.TradeLeg{
			Wallet: coalesce(p.TakerAddress, p.SenderWallet),
			Token:  coalesce(p.TakerToken, p.SenderToken),
			Amount: coalesce(p.TakerAmount, p.SenderParam),
		},
		Nonce:  p.Nonce,
		Expiry: expiry,
	}
	if p.R != "" {
		order.Signature = &domain.Signature{R: p.R, S: p.S, V: p.V}
	}
	return order, version
}

func (s *Server) signOrder(w http.ResponseWriter, r *http.Request) {
	var payload orderPayload
	if err := ParseJSON(r, &payload); err != nil {
		WriteError(w, http.StatusBadRequest, err)
		return
	}

	order, version := payload.toDomain()
	sig, err := s.signer.SignOrder(r.Context(), version, order)
	if err != nil {
		WriteError(w, http.StatusInternalServerError, err)
		return
	}
	order.Signature = sig
	WriteJSON(w, http.StatusOK, order.WirePayload(version))
}

func (s *Server) fillOrder(w http.ResponseWriter, r *http.Request) {
	var payload orderPayload
	if err := ParseJSON(r, &payload); err != nil {
		WriteError(w, http.StatusBadRequest, err)
		return
	}

	order, version := payload.toDomain()
	tx, err := s.swap.Fill(r.Context(), version, order)
	if err != nil {
		WriteError(w, http.StatusInternalServerError, err)
		return
	}
	WriteJSON(w, http.StatusOK, map[string]string{"hash": tx.Hash()})
}

type amountPayload struct {
	Amount string `json:"amount"`
}

func parseAtomic(raw string) (*big.Int, error) {
	amount, ok := new(big.Int).SetString(raw, 10)
	if !ok || amount.Sign() <= 0 {
		return nil, fmt.Errorf("invalid amount %q", raw)
	}
	return amount, nil
}

func (s *Server) wrapWeth(w http.ResponseWriter, r *http.Request) {
	var payload amountPayload
	if err := ParseJSON(r, &payload); err != nil {
		WriteError(w, http.StatusBadRequest, err)
		return
	}
	amount, err := parseAtomic(payload.Amount)
	if err != nil {
		WriteError(w, http.StatusBadRequest, err)
		return
	}

	tx, err := s.vault.Wrap(r.Context(), amount)
	if err != nil {
		WriteError(w, http.StatusInternalServerError, err)
		return
	}
	WriteJSON(w, http.StatusOK, map[string]string{"hash": tx.Hash()})
}

func (s *Server) unwrapWeth(w http.ResponseWriter, r *http.Request) {
	var payload amountPayload
	if err := ParseJSON(r, &payload); err != nil {
		WriteError(w, http.StatusBadRequest, err)
		return
	}
	amount, err := parseAtomic(payload.Amount)
	if err != nil {
		WriteError(w, http.StatusBadRequest, err)
		return
	}

	tx, err := s.vault.Unwrap(r.Context(), amount)
	if err != nil {
		WriteError(w, http.StatusInternalServerError, err)
		return
	}
	WriteJSON(w, http.StatusOK, map[string]string{"hash": tx.Hash()})
}

type approvePayload struct {
	Token string `json:"tokenContractAddr"`
}

func (s *Server) approveToken(w http.ResponseWriter, r *http.Request) {
	var payload approvePayload
	if err := ParseJSON(r, &payload); err != nil {
		WriteError(w, http.StatusBadRequest, err)
		return
	}
	if payload.Token == "" {
		WriteError(w, http.StatusBadRequest, fmt.Errorf("missing tokenContractAddr"))
		return
	}

	tx, err := s.approver.Approve(r.Context(), payload.Token)
	if err != nil {
		WriteError(w, http.StatusInternalServerError, err)
		return
	}
	if err := tx.Wait(r.Context()); err != nil {
		WriteError(w, http.StatusInternalServerError, err)
		return
	}
	WriteJSON(w, http.StatusOK, map[string]string{"hash": tx.Hash()})
}

type setIntentsPayload struct {
	Intents []domain.Intent `json:"intents"`
}

func (s *Server) setIntents(w http.ResponseWriter, r *http.Request) {
	var payload setIntentsPayload
	if err := ParseJSON(r, &payload); err != nil {
		WriteError(w, http.StatusBadRequest, err)
		return
	}

	if err := s.intents.SetIntents(r.Context(), payload.Intents); err != nil {
		WriteError(w, http.StatusInternalServerError, err)
		return
	}
	WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type getIntentsPayload struct {
	Address string `json:"address"`
}

func (s *Server) getIntents(w http.ResponseWriter, r *http.Request) {
	var payload getIntentsPayload
	if err := ParseJSON(r, &payload); err != nil {
		WriteError(w, http.StatusBadRequest, err)
		return
	}

	intents, err := s.intents.GetIntents(r.Context(), payload.Address)
	if err != nil {
		WriteError(w, http.StatusInternalServerError, err)
		return
	}
	WriteJSON(w, http.StatusOK, intents)
}

type findIntentsPayload struct {
	MakerTokens []string `json:"makerTokens"`
	TakerTokens []string `json:"takerTokens"`
	Role        string   `json:"role"`
}

func (s *Server) findIntents(w http.ResponseWriter, r *http.Request) {
	var payload findIntentsPayload
	if err := ParseJSON(r, &payload); err != nil {
		WriteError(w, http.StatusBadRequest, err)
		return
	}
	if payload.Role == "" {
		payload.Role = domain.RoleMaker
	}

	intents, err := s.intents.FindIntents(
		r.Context(), payload.MakerTokens, payload.TakerTokens, payload.Role,
	)
	if err != nil {
		WriteError(w, http.StatusInternalServerError, err)
		return
	}
	WriteJSON(w, http.StatusOK, intents)
}
