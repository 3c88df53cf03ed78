package domain

// RoleMaker is the only role this daemon announces: it offers liquidity and
// supplies the price.
const RoleMaker = "maker"

// SupportedMethods are the RPC methods a maker intent advertises.
var SupportedMethods = []string{"getOrder", "getQuote", "getMaxQuote"}

// Intent is a public declaration of willingness to trade a token pair in a
// given role, pushed to the indexer. It is set at startup and may be revoked
// or replaced; its lifecycle is not owned here beyond construction.
type Intent struct {
	MakerToken       string   `json:"makerToken"`
	TakerToken       string   `json:"takerToken"`
	Role             string   `json:"role"`
	SupportedMethods []string `json:"supportedMethods,omitempty"`
	SwapVersion      int      `json:"swapVersion"`
}

// NewIntent returns a maker-side intent for the given pair.
func NewIntent(makerToken, takerToken string, version SwapVersion) Intent {
	return Intent{
		MakerToken:       makerToken,
		TakerToken:       takerToken,
		Role:             RoleMaker,
		SupportedMethods: SupportedMethods,
		SwapVersion:      int(version),
	}
}
