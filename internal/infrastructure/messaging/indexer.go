package messaging

import (
	"context"
	"encoding/json"

	"github.com/openswap-network/maker-daemon/internal/core/domain"
	"github.com/openswap-network/maker-daemon/internal/core/ports"
)

// IndexerClient talks to the network indexer over the same relay transport as
// peer negotiation. The indexer is just another peer identity.
type IndexerClient struct {
	requester ports.PeerRequester
	address   string
}

func NewIndexerClient(requester ports.PeerRequester, address string) *IndexerClient {
	return &IndexerClient{requester: requester, address: address}
}

type setIntentsParams struct {
	Address string          `json:"address"`
	Intents []domain.Intent `json:"intents"`
}

type getIntentsParams struct {
	Address string `json:"address"`
}

type findIntentsParams struct {
	MakerTokens []string `json:"makerTokens"`
	TakerTokens []string `json:"takerTokens"`
	Role        string   `json:"role"`
}

// SetIntents implements ports.Indexer, replacing this peer's intents.
func (c *IndexerClient) SetIntents(
	ctx context.Context, intents []domain.Intent,
) error {
	_, err := c.requester.Request(ctx, c.address, "setIntents", setIntentsParams{
		Intents: intents,
	})
	return err
}

// GetIntents implements ports.Indexer.
func (c *IndexerClient) GetIntents(
	ctx context.Context, address string,
) ([]domain.Intent, error) {
	result, err := c.requester.Request(ctx, c.address, "getIntents", getIntentsParams{
		Address: address,
	})
	if err != nil {
		return nil, err
	}
	var intents []domain.Intent
	if err := json.Unmarshal(result, &intents); err != nil {
		return nil, err
	}
	return intents, nil
}

// FindIntents implements ports.Indexer, looking up peers trading the given
// tokens in the given role.
func (c *IndexerClient) FindIntents(
	ctx context.Context, makerTokens, takerTokens []string, role string,
) ([]domain.Intent, error) {
	result, err := c.requester.Request(ctx, c.address, "findIntents", findIntentsParams{
		MakerTokens: makerTokens,
		TakerTokens: takerTokens,
		Role:        role,
	})
	if err != nil {
		return nil, err
	}
	var intents []domain.Intent
	if err := json.Unmarshal(result, &intents); err != nil {
		return nil, err
	}
	return intents, nil
}
