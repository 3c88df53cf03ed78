package application

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/openswap-network/maker-daemon/internal/core/domain"
	"github.com/openswap-network/maker-daemon/pkg/amount"
)

// PriceStrategy supplies the spot price of a market in display units: how
// many taker units one maker unit is worth.
type PriceStrategy interface {
	Spot(makerToken, takerToken domain.Token) (decimal.Decimal, error)
}

// FixedPriceStrategy quotes the same price for every market.
type FixedPriceStrategy struct {
	price decimal.Decimal
}

func NewFixedPriceStrategy(price decimal.Decimal) *FixedPriceStrategy {
	return &FixedPriceStrategy{price: price}
}

func (s *FixedPriceStrategy) Spot(_, _ domain.Token) (decimal.Decimal, error) {
	return s.price, nil
}

// PricedAmounts holds both sides of a priced trade in atomic units: the side
// supplied by the counterparty and the side derived from it.
type PricedAmounts struct {
	MakerAmount string
	TakerAmount string
}

// PricingService derives the missing side of a trade from the known side and
// the market's spot price.
type PricingService interface {
	PriceTrade(req TradeRequest) (PricedAmounts, error)
}

type pricingService struct {
	registry *domain.TokenRegistry
	strategy PriceStrategy
}

func NewPricingService(
	registry *domain.TokenRegistry, strategy PriceStrategy,
) PricingService {
	return &pricingService{registry: registry, strategy: strategy}
}

// PriceTrade converts the known atomic amount to display units, applies the
// spot price (multiplying when the maker leg is known, dividing when the
// taker leg is), and converts back with the other token's decimals. Both
// returned amounts are atomic integers.
func (s *pricingService) PriceTrade(req TradeRequest) (PricedAmounts, error) {
	makerToken, err := s.registry.ByAddress(req.MakerToken)
	if err != nil {
		return PricedAmounts{}, err
	}
	takerToken, err := s.registry.ByAddress(req.TakerToken)
	if err != nil {
		return PricedAmounts{}, err
	}

	makerKnown := req.MakerAmount != ""
	takerKnown := req.TakerAmount != ""
	if makerKnown == takerKnown {
		return PricedAmounts{}, domain.ErrUnpricableRequest
	}

	price, err := s.strategy.Spot(makerToken, takerToken)
	if err != nil {
		return PricedAmounts{}, err
	}
	if !price.IsPositive() {
		return PricedAmounts{}, fmt.Errorf("spot price for %s/%s must be positive",
			makerToken.Symbol, takerToken.Symbol)
	}

	if makerKnown {
		makerDisplay, err := amount.ToDisplay(req.MakerAmount, makerToken.Decimals)
		if err != nil {
			return PricedAmounts{}, fmt.Errorf("%w: %s", domain.ErrInvalidAmount, err)
		}
		return PricedAmounts{
			MakerAmount: req.MakerAmount,
			TakerAmount: amount.ToAtomic(makerDisplay.Mul(price), takerToken.Decimals),
		}, nil
	}

	takerDisplay, err := amount.ToDisplay(req.TakerAmount, takerToken.Decimals)
	if err != nil {
		return PricedAmounts{}, fmt.Errorf("%w: %s", domain.ErrInvalidAmount, err)
	}
	return PricedAmounts{
		MakerAmount: amount.ToAtomic(takerDisplay.Div(price), makerToken.Decimals),
		TakerAmount: req.TakerAmount,
	}, nil
}
