package ports

import (
	"context"

	"github.com/openswap-network/maker-daemon/internal/core/domain"
)

// Signer is the wallet identity of this maker. It is passed explicitly as a
// capability so multiple identities can run or be tested in-process.
type Signer interface {
	// Address returns the signing wallet address, lowercase hex.
	Address() string
	// SignOrder returns a detached signature over a deterministic encoding
	// of the order fields. It never mutates the order.
	SignOrder(
		ctx context.Context, version domain.SwapVersion, order *domain.Order,
	) (*domain.Signature, error)
}
