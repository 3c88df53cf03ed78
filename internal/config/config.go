package config

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/openswap-network/maker-daemon/internal/core/application"
	"github.com/openswap-network/maker-daemon/internal/core/domain"
)

const (
	// LogLevelKey are the different logging levels. For reference on the values https://godoc.org/github.com/sirupsen/logrus#Level
	LogLevelKey = "LOG_LEVEL"
	// HTTPPortKey is the port the operator HTTP interface listens on
	HTTPPortKey = "HTTP_PORT"
	// EthRPCURLKey is the JSON-RPC endpoint of the Ethereum node
	EthRPCURLKey = "ETH_RPC_URL"
	// ChainIDKey is the chain id transactions are bound to
	ChainIDKey = "CHAIN_ID"
	// RelayURLKey is the websocket endpoint of the order relay
	RelayURLKey = "RELAY_URL"
	// IndexerAddressKey is the peer identity of the network indexer
	IndexerAddressKey = "INDEXER_ADDRESS"
	// PrivateKeyKey is the hex-encoded wallet private key, 0x-prefixed
	PrivateKeyKey = "PRIVATE_KEY"
	// PGPKeyKey is the armored PGP private key for encrypted peer params, may be empty
	PGPKeyKey = "PGP_KEY"
	// PGPPassphraseKey unlocks the PGP key when it is protected
	PGPPassphraseKey = "PGP_PASSPHRASE"
	// SwapContractKey is the address of the swap settlement contract
	SwapContractKey = "SWAP_CONTRACT"
	// WethContractKey is the address of the canonical WETH contract
	WethContractKey = "WETH_CONTRACT"
	// SwapVersionKey selects the wire schema generation announced in intents
	SwapVersionKey = "SWAP_VERSION"
	// ERC20KindKey is the kind tag stamped on param-schema quotes
	ERC20KindKey = "ERC20_KIND"
	// TradeWindowKey is the validity window of assembled orders, in seconds
	TradeWindowKey = "TRADE_WINDOW"
	// PriceKey is the fixed spot price quoted for every market
	PriceKey = "PRICE"
	// TokensKey lists the known tokens as SYMBOL:address:decimals entries
	TokensKey = "TOKENS"
	// MarketsKey lists the quoted markets as MAKERSYMBOL/TAKERSYMBOL pairs
	MarketsKey = "MARKETS"
	// GasLimitKey caps the gas of submitted transactions
	GasLimitKey = "GAS_LIMIT"
	// StatsIntervalKey defines the interval for printing basic daemon statistics
	StatsIntervalKey = "STATS_INTERVAL"
)

var vip *viper.Viper

func InitConfig() error {
	vip = viper.New()
	vip.SetEnvPrefix("MAKER")
	vip.AutomaticEnv()

	vip.SetDefault(LogLevelKey, 4)
	vip.SetDefault(HTTPPortKey, 5005)
	vip.SetDefault(ChainIDKey, 1)
	vip.SetDefault(SwapVersionKey, int(domain.SwapVersionParam))
	vip.SetDefault(ERC20KindKey, domain.DefaultERC20Kind)
	vip.SetDefault(TradeWindowKey, 300)
	vip.SetDefault(PriceKey, 1.0)
	vip.SetDefault(GasLimitKey, 160000)
	vip.SetDefault(StatsIntervalKey, 600)

	if err := validate(); err != nil {
		return fmt.Errorf("error while validating config: %s", err)
	}
	return nil
}

func GetString(key string) string {
	return vip.GetString(key)
}

func GetInt(key string) int {
	return vip.GetInt(key)
}

func GetFloat(key string) float64 {
	return vip.GetFloat64(key)
}

func GetStringSlice(key string) []string {
	return vip.GetStringSlice(key)
}

func GetDuration(key string) time.Duration {
	return vip.GetDuration(key)
}

// GetTokens parses the configured token list. Each entry is
// SYMBOL:address:decimals, eg. WETH:0xc02a...:18.
func GetTokens() ([]domain.Token, error) {
	entries := GetStringSlice(TokensKey)
	tokens := make([]domain.Token, 0, len(entries))
	for _, entry := range entries {
		parts := strings.Split(entry, ":")
		if len(parts) != 3 {
			return nil, fmt.Errorf(
				"invalid token entry %q, expected SYMBOL:address:decimals", entry,
			)
		}
		decimals, err := strconv.ParseUint(parts[2], 10, 32)
		if err != nil {
			return nil, fmt.Errorf("invalid decimals in token entry %q: %s", entry, err)
		}
		tokens = append(tokens, domain.Token{
			Symbol:   parts[0],
			Address:  parts[1],
			Decimals: uint32(decimals),
		})
	}
	return tokens, nil
}

// GetMarkets parses the configured market list. Each entry is a
// MAKERSYMBOL/TAKERSYMBOL pair, maker side first, eg. WETH/DAI.
func GetMarkets() ([]application.Market, error) {
	entries := GetStringSlice(MarketsKey)
	markets := make([]application.Market, 0, len(entries))
	for _, entry := range entries {
		parts := strings.Split(entry, "/")
		if len(parts) != 2 {
			return nil, fmt.Errorf(
				"invalid market entry %q, expected MAKERSYMBOL/TAKERSYMBOL", entry,
			)
		}
		markets = append(markets, application.Market{
			MakerToken: parts[0],
			TakerToken: parts[1],
		})
	}
	return markets, nil
}

func validate() error {
	if !vip.IsSet(EthRPCURLKey) {
		return fmt.Errorf("missing ethereum rpc url")
	}
	if !vip.IsSet(RelayURLKey) {
		return fmt.Errorf("missing relay url")
	}
	if !vip.IsSet(SwapContractKey) {
		return fmt.Errorf("missing swap contract address")
	}

	privateKey := GetString(PrivateKeyKey)
	if privateKey == "" {
		return fmt.Errorf("missing wallet private key")
	}
	if !strings.HasPrefix(privateKey, "0x") {
		return fmt.Errorf("wallet private key must be 0x-prefixed")
	}

	version := GetInt(SwapVersionKey)
	if version != int(domain.SwapVersionLegacy) && version != int(domain.SwapVersionParam) {
		return fmt.Errorf("unsupported swap version %d", version)
	}

	if GetFloat(PriceKey) <= 0 {
		return fmt.Errorf("%s must be positive", PriceKey)
	}
	if GetInt(TradeWindowKey) <= 0 {
		return fmt.Errorf("%s must be positive", TradeWindowKey)
	}
	return nil
}
