package application

import (
	"context"

	log "github.com/sirupsen/logrus"

	"github.com/openswap-network/maker-daemon/internal/core/domain"
	"github.com/openswap-network/maker-daemon/internal/core/ports"
)

// IntentService builds the intents for the configured markets and manages
// them on the indexer.
type IntentService interface {
	// AnnounceIntents publishes one maker-side intent per configured
	// market. It is meant to run once at startup, after approvals.
	AnnounceIntents(ctx context.Context) error
	// MakerTokens returns the distinct supply-side token addresses of the
	// configured markets, the set needing spending approval.
	MakerTokens() []string

	SetIntents(ctx context.Context, intents []domain.Intent) error
	GetIntents(ctx context.Context, address string) ([]domain.Intent, error)
	FindIntents(
		ctx context.Context, makerTokens, takerTokens []string, role string,
	) ([]domain.Intent, error)
}

type intentService struct {
	indexer  ports.Indexer
	registry *domain.TokenRegistry
	markets  []Market
	version  domain.SwapVersion
}

func NewIntentService(
	indexer ports.Indexer,
	registry *domain.TokenRegistry,
	markets []Market,
	version domain.SwapVersion,
) IntentService {
	return &intentService{
		indexer:  indexer,
		registry: registry,
		markets:  markets,
		version:  version,
	}
}

func (s *intentService) AnnounceIntents(ctx context.Context) error {
	intents := make([]domain.Intent, 0, len(s.markets))
	for _, market := range s.markets {
		maker, err := s.registry.BySymbol(market.MakerToken)
		if err != nil {
			return err
		}
		taker, err := s.registry.BySymbol(market.TakerToken)
		if err != nil {
			return err
		}
		intents = append(intents, domain.NewIntent(maker.Address, taker.Address, s.version))
	}

	if err := s.indexer.SetIntents(ctx, intents); err != nil {
		return err
	}
	for _, market := range s.markets {
		log.WithFields(log.Fields{
			"maker": market.MakerToken,
			"taker": market.TakerToken,
		}).Info("intent announced")
	}
	return nil
}

func (s *intentService) MakerTokens() []string {
	seen := make(map[string]struct{}, len(s.markets))
	tokens := make([]string, 0, len(s.markets))
	for _, market := range s.markets {
		maker, err := s.registry.BySymbol(market.MakerToken)
		if err != nil {
			continue
		}
		if _, ok := seen[maker.Address]; ok {
			continue
		}
		seen[maker.Address] = struct{}{}
		tokens = append(tokens, maker.Address)
	}
	return tokens
}

func (s *intentService) SetIntents(
	ctx context.Context, intents []domain.Intent,
) error {
	return s.indexer.SetIntents(ctx, intents)
}

func (s *intentService) GetIntents(
	ctx context.Context, address string,
) ([]domain.Intent, error) {
	return s.indexer.GetIntents(ctx, address)
}

func (s *intentService) FindIntents(
	ctx context.Context, makerTokens, takerTokens []string, role string,
) ([]domain.Intent, error) {
	return s.indexer.FindIntents(ctx, makerTokens, takerTokens, role)
}
