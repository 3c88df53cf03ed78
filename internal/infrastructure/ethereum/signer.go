package ethereum

import (
	"context"
	"crypto/ecdsa"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/common/math"
	"github.com/ethereum/go-ethereum/crypto"

	"github.com/openswap-network/maker-daemon/internal/core/domain"
)

const personalMessagePrefix = "\x19Ethereum Signed Message:\n32"

// OrderSigner produces the detached ECDSA signature a counterparty needs to
// settle an order on-chain. The order hash is the keccak of the tightly
// packed order fields, bound to the swap contract address, signed under the
// EIP-191 personal-message prefix.
type OrderSigner struct {
	privateKey  *ecdsa.PrivateKey
	address     common.Address
	swapAddress common.Address
}

func NewOrderSigner(privateKey *ecdsa.PrivateKey, swapContract string) *OrderSigner {
	return &OrderSigner{
		privateKey:  privateKey,
		address:     crypto.PubkeyToAddress(privateKey.PublicKey),
		swapAddress: common.HexToAddress(swapContract),
	}
}

// Address implements ports.Signer.
func (s *OrderSigner) Address() string {
	return strings.ToLower(s.address.Hex())
}

// SignOrder implements ports.Signer.
func (s *OrderSigner) SignOrder(
	_ context.Context, version domain.SwapVersion, order *domain.Order,
) (*domain.Signature, error) {
	hash, err := s.orderHash(version, order)
	if err != nil {
		return nil, err
	}

	prefixed := crypto.Keccak256([]byte(personalMessagePrefix), hash)
	sig, err := crypto.Sign(prefixed, s.privateKey)
	if err != nil {
		return nil, err
	}

	// crypto.Sign yields a recovery id of 0 or 1; contracts expect 27 or 28.
	return &domain.Signature{
		R: hexutil.Encode(sig[:32]),
		S: hexutil.Encode(sig[32:64]),
		V: sig[64] + 27,
	}, nil
}

func (s *OrderSigner) orderHash(
	version domain.SwapVersion, order *domain.Order,
) ([]byte, error) {
	nonce, ok := new(big.Int).SetString(order.Nonce, 10)
	if !ok {
		return nil, fmt.Errorf("invalid order nonce %q", order.Nonce)
	}
	makerAmount, ok := new(big.Int).SetString(order.Maker.Amount, 10)
	if !ok {
		return nil, fmt.Errorf("invalid maker amount %q", order.Maker.Amount)
	}
	takerAmount, ok := new(big.Int).SetString(order.Taker.Amount, 10)
	if !ok {
		return nil, fmt.Errorf("invalid taker amount %q", order.Taker.Amount)
	}

	if version == domain.SwapVersionLegacy {
		return crypto.Keccak256(
			common.HexToAddress(order.Maker.Wallet).Bytes(),
			math.U256Bytes(makerAmount),
			common.HexToAddress(order.Maker.Token).Bytes(),
			common.HexToAddress(order.Taker.Wallet).Bytes(),
			math.U256Bytes(takerAmount),
			common.HexToAddress(order.Taker.Token).Bytes(),
			math.U256Bytes(big.NewInt(order.Expiry)),
			math.U256Bytes(nonce),
		), nil
	}

	return crypto.Keccak256(
		s.swapAddress.Bytes(),
		math.U256Bytes(nonce),
		math.U256Bytes(big.NewInt(order.Expiry)),
		common.HexToAddress(order.Maker.Wallet).Bytes(),
		common.HexToAddress(order.Maker.Token).Bytes(),
		math.U256Bytes(makerAmount),
		common.HexToAddress(order.Taker.Wallet).Bytes(),
		common.HexToAddress(order.Taker.Token).Bytes(),
		math.U256Bytes(takerAmount),
	), nil
}
