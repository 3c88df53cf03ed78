package ports

import (
	"context"

	"github.com/openswap-network/maker-daemon/internal/core/domain"
)

// Indexer publishes and queries trading intents on the relay network's
// indexer.
type Indexer interface {
	SetIntents(ctx context.Context, intents []domain.Intent) error
	GetIntents(ctx context.Context, address string) ([]domain.Intent, error)
	FindIntents(
		ctx context.Context, makerTokens, takerTokens []string, role string,
	) ([]domain.Intent, error)
}
