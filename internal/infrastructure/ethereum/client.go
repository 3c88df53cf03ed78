package ethereum

import (
	"context"
	"crypto/ecdsa"
	"fmt"
	"math/big"
	"strings"
	"sync"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/sony/gobreaker"
	"go.uber.org/ratelimit"

	"github.com/openswap-network/maker-daemon/internal/core/domain"
	"github.com/openswap-network/maker-daemon/internal/core/ports"
)

const erc20ABIJSON = `[
	{"constant":true,"inputs":[{"name":"owner","type":"address"}],"name":"balanceOf","outputs":[{"name":"","type":"uint256"}],"type":"function"},
	{"constant":true,"inputs":[{"name":"owner","type":"address"},{"name":"spender","type":"address"}],"name":"allowance","outputs":[{"name":"","type":"uint256"}],"type":"function"},
	{"constant":false,"inputs":[{"name":"spender","type":"address"},{"name":"value","type":"uint256"}],"name":"approve","outputs":[{"name":"","type":"bool"}],"type":"function"},
	{"constant":true,"inputs":[],"name":"decimals","outputs":[{"name":"","type":"uint8"}],"type":"function"}
]`

const wethABIJSON = `[
	{"constant":false,"inputs":[],"name":"deposit","outputs":[],"payable":true,"type":"function"},
	{"constant":false,"inputs":[{"name":"wad","type":"uint256"}],"name":"withdraw","outputs":[],"type":"function"}
]`

const swapABIJSON = `[
	{"constant":false,"inputs":[
		{"name":"makerAddress","type":"address"},
		{"name":"makerAmount","type":"uint256"},
		{"name":"makerToken","type":"address"},
		{"name":"takerAddress","type":"address"},
		{"name":"takerAmount","type":"uint256"},
		{"name":"takerToken","type":"address"},
		{"name":"expiration","type":"uint256"},
		{"name":"nonce","type":"uint256"},
		{"name":"v","type":"uint8"},
		{"name":"r","type":"bytes32"},
		{"name":"s","type":"bytes32"}
	],"name":"fill","outputs":[],"payable":true,"type":"function"},
	{"constant":false,"inputs":[
		{"name":"nonce","type":"uint256"},
		{"name":"expiry","type":"uint256"},
		{"name":"signerWallet","type":"address"},
		{"name":"signerToken","type":"address"},
		{"name":"signerAmount","type":"uint256"},
		{"name":"senderWallet","type":"address"},
		{"name":"senderToken","type":"address"},
		{"name":"senderAmount","type":"uint256"},
		{"name":"v","type":"uint8"},
		{"name":"r","type":"bytes32"},
		{"name":"s","type":"bytes32"}
	],"name":"swap","outputs":[],"type":"function"}
]`

// maxUint256 is the allowance granted on approval.
var maxUint256 = new(big.Int).Sub(
	new(big.Int).Lsh(big.NewInt(1), 256), big.NewInt(1),
)

// requestsPerSecond caps outbound RPC calls to the node.
const requestsPerSecond = 20

// Client talks to an Ethereum node over JSON-RPC. All reads and writes go
// through a rate limiter and a circuit breaker so a flapping node degrades
// into fast failures instead of pile-ups. Transactions are serialized with a
// mutex so the wallet nonce never races itself.
type Client struct {
	eth         *ethclient.Client
	chainID     *big.Int
	privateKey  *ecdsa.PrivateKey
	address     common.Address
	swapAddress common.Address
	wethAddress common.Address
	gasLimit    uint64

	erc20ABI abi.ABI
	wethABI  abi.ABI
	swapABI  abi.ABI

	breaker *gobreaker.CircuitBreaker
	limiter ratelimit.Limiter
	txMtx   sync.Mutex
}

type ClientOpts struct {
	RPCURL        string
	PrivateKeyHex string
	ChainID       int64
	SwapContract  string
	WethContract  string
	GasLimit      uint64
}

func NewClient(opts ClientOpts) (*Client, error) {
	eth, err := ethclient.Dial(opts.RPCURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to ethereum node: %w", err)
	}

	privateKey, err := crypto.HexToECDSA(strings.TrimPrefix(opts.PrivateKeyHex, "0x"))
	if err != nil {
		return nil, fmt.Errorf("invalid private key: %w", err)
	}

	erc20ABI, err := abi.JSON(strings.NewReader(erc20ABIJSON))
	if err != nil {
		return nil, err
	}
	wethABI, err := abi.JSON(strings.NewReader(wethABIJSON))
	if err != nil {
		return nil, err
	}
	swapABI, err := abi.JSON(strings.NewReader(swapABIJSON))
	if err != nil {
		return nil, err
	}

	return &Client{
		eth:         eth,
		chainID:     big.NewInt(opts.ChainID),
		privateKey:  privateKey,
		address:     crypto.PubkeyToAddress(privateKey.PublicKey),
		swapAddress: common.HexToAddress(opts.SwapContract),
		wethAddress: common.HexToAddress(opts.WethContract),
		gasLimit:    opts.GasLimit,
		erc20ABI:    erc20ABI,
		wethABI:     wethABI,
		swapABI:     swapABI,
		breaker: gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name: "ethereum",
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				ratio := float64(counts.TotalFailures) / float64(counts.Requests)
				return counts.Requests > 10 && ratio >= 0.6
			},
		}),
		limiter: ratelimit.New(requestsPerSecond),
	}, nil
}

// Address returns the wallet address derived from the configured key.
func (c *Client) Address() string {
	return strings.ToLower(c.address.Hex())
}

// PrivateKey exposes the wallet key for the order signer.
func (c *Client) PrivateKey() *ecdsa.PrivateKey {
	return c.privateKey
}

// SignMessage signs an arbitrary message under the EIP-191 personal-message
// prefix, as the relay's connection challenge requires.
func (c *Client) SignMessage(message string) (string, error) {
	prefixed := crypto.Keccak256([]byte(
		fmt.Sprintf("\x19Ethereum Signed Message:\n%d%s", len(message), message),
	))
	sig, err := crypto.Sign(prefixed, c.privateKey)
	if err != nil {
		return "", err
	}
	sig[64] += 27
	return hexutil.Encode(sig), nil
}

func (c *Client) guard(fn func() (interface{}, error)) (interface{}, error) {
	c.limiter.Take()
	return c.breaker.Execute(fn)
}

func (c *Client) call(
	ctx context.Context,
	contract common.Address,
	contractABI abi.ABI,
	method string,
	out interface{},
	args ...interface{},
) error {
	_, err := c.guard(func() (interface{}, error) {
		bound := bind.NewBoundContract(contract, contractABI, c.eth, c.eth, c.eth)
		results := []interface{}{out}
		return nil, bound.Call(&bind.CallOpts{Context: ctx}, &results, method, args...)
	})
	return err
}

func (c *Client) transact(
	ctx context.Context,
	contract common.Address,
	contractABI abi.ABI,
	value *big.Int,
	method string,
	args ...interface{},
) (ports.PendingTx, error) {
	c.txMtx.Lock()
	defer c.txMtx.Unlock()

	res, err := c.guard(func() (interface{}, error) {
		opts, err := bind.NewKeyedTransactorWithChainID(c.privateKey, c.chainID)
		if err != nil {
			return nil, err
		}
		opts.Context = ctx
		opts.GasLimit = c.gasLimit
		opts.Value = value

		bound := bind.NewBoundContract(contract, contractABI, c.eth, c.eth, c.eth)
		return bound.Transact(opts, method, args...)
	})
	if err != nil {
		return nil, err
	}
	return &pendingTx{tx: res.(*types.Transaction), eth: c.eth}, nil
}

// TokenBalance implements ports.BalanceReader.
func (c *Client) TokenBalance(
	ctx context.Context, token, wallet string,
) (*big.Int, error) {
	balance := new(big.Int)
	err := c.call(
		ctx, common.HexToAddress(token), c.erc20ABI,
		"balanceOf", balance, common.HexToAddress(wallet),
	)
	if err != nil {
		return nil, fmt.Errorf("balanceOf %s: %w", token, err)
	}
	return balance, nil
}

// NativeBalance implements ports.BalanceReader.
func (c *Client) NativeBalance(
	ctx context.Context, wallet string,
) (*big.Int, error) {
	res, err := c.guard(func() (interface{}, error) {
		return c.eth.BalanceAt(ctx, common.HexToAddress(wallet), nil)
	})
	if err != nil {
		return nil, err
	}
	return res.(*big.Int), nil
}

// TokenDecimals reads the decimals of a token contract, for registry entries
// configured without an explicit precision.
func (c *Client) TokenDecimals(ctx context.Context, token string) (uint32, error) {
	decimals := new(uint8)
	err := c.call(
		ctx, common.HexToAddress(token), c.erc20ABI, "decimals", decimals,
	)
	if err != nil {
		return 0, fmt.Errorf("decimals %s: %w", token, err)
	}
	return uint32(*decimals), nil
}

// Allowance implements ports.TokenApprover, reading the allowance granted to
// the swap contract.
func (c *Client) Allowance(
	ctx context.Context, token, owner string,
) (*big.Int, error) {
	allowance := new(big.Int)
	err := c.call(
		ctx, common.HexToAddress(token), c.erc20ABI,
		"allowance", allowance, common.HexToAddress(owner), c.swapAddress,
	)
	if err != nil {
		return nil, fmt.Errorf("allowance %s: %w", token, err)
	}
	return allowance, nil
}

// Approve implements ports.TokenApprover, granting the swap contract the
// maximum allowance for the token.
func (c *Client) Approve(ctx context.Context, token string) (ports.PendingTx, error) {
	return c.transact(
		ctx, common.HexToAddress(token), c.erc20ABI, nil,
		"approve", c.swapAddress, maxUint256,
	)
}

// Wrap implements ports.WethVault.
func (c *Client) Wrap(ctx context.Context, amount *big.Int) (ports.PendingTx, error) {
	return c.transact(ctx, c.wethAddress, c.wethABI, amount, "deposit")
}

// Unwrap implements ports.WethVault.
func (c *Client) Unwrap(ctx context.Context, amount *big.Int) (ports.PendingTx, error) {
	return c.transact(ctx, c.wethAddress, c.wethABI, nil, "withdraw", amount)
}

// Fill implements ports.SwapContract, settling a signed order on-chain as the
// taker side.
func (c *Client) Fill(
	ctx context.Context, version domain.SwapVersion, order *domain.Order,
) (ports.PendingTx, error) {
	if order.Signature == nil {
		return nil, fmt.Errorf("cannot fill an unsigned order")
	}

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
	r := common.HexToHash(order.Signature.R)
	s := common.HexToHash(order.Signature.S)

	if version == domain.SwapVersionLegacy {
		return c.transact(
			ctx, c.swapAddress, c.swapABI, nil, "fill",
			common.HexToAddress(order.Maker.Wallet), makerAmount,
			common.HexToAddress(order.Maker.Token),
			common.HexToAddress(order.Taker.Wallet), takerAmount,
			common.HexToAddress(order.Taker.Token),
			big.NewInt(order.Expiry), nonce,
			order.Signature.V, r, s,
		)
	}

	return c.transact(
		ctx, c.swapAddress, c.swapABI, nil, "swap",
		nonce, big.NewInt(order.Expiry),
		common.HexToAddress(order.Maker.Wallet),
		common.HexToAddress(order.Maker.Token), makerAmount,
		common.HexToAddress(order.Taker.Wallet),
		common.HexToAddress(order.Taker.Token), takerAmount,
		order.Signature.V, r, s,
	)
}

// pendingTx awaits mining through the node the transaction was sent to.
type pendingTx struct {
	tx  *types.Transaction
	eth *ethclient.Client
}

func (p *pendingTx) Hash() string {
	return p.tx.Hash().Hex()
}

func (p *pendingTx) Wait(ctx context.Context) error {
	receipt, err := bind.WaitMined(ctx, p.eth, p.tx)
	if err != nil {
		return err
	}
	if receipt.Status != types.ReceiptStatusSuccessful {
		return fmt.Errorf("transaction %s reverted", p.tx.Hash().Hex())
	}
	return nil
}
