package ports

import (
	"context"
	"math/big"

	"github.com/openswap-network/maker-daemon/internal/core/domain"
)

// BalanceReader reads live on-chain balances. Balances are snapshots: they
// become stale the instant any transaction is mined, so callers must not
// cache them.
type BalanceReader interface {
	// TokenBalance returns the wallet's balance of the token, atomic units.
	TokenBalance(ctx context.Context, token, wallet string) (*big.Int, error)
	// NativeBalance returns the wallet's native-currency balance in wei.
	NativeBalance(ctx context.Context, wallet string) (*big.Int, error)
}

// PendingTx is a submitted transaction whose mining can be awaited.
type PendingTx interface {
	Hash() string
	// Wait blocks until the transaction is mined, returning an error if it
	// reverted or the wait was cancelled.
	Wait(ctx context.Context) error
}

// TokenApprover reads and grants ERC-20 spending allowances for the swap
// contract.
type TokenApprover interface {
	Allowance(ctx context.Context, token, owner string) (*big.Int, error)
	Approve(ctx context.Context, token string) (PendingTx, error)
}

// WethVault wraps and unwraps the native currency.
type WethVault interface {
	Wrap(ctx context.Context, amount *big.Int) (PendingTx, error)
	Unwrap(ctx context.Context, amount *big.Int) (PendingTx, error)
}

// SwapContract settles a signed order on-chain.
type SwapContract interface {
	Fill(
		ctx context.Context, version domain.SwapVersion, order *domain.Order,
	) (PendingTx, error)
}
