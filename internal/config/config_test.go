package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setRequiredEnv(t *testing.T) {
	t.Setenv("MAKER_ETH_RPC_URL", "http://localhost:8545")
	t.Setenv("MAKER_RELAY_URL", "ws://localhost:8080")
	t.Setenv("MAKER_SWAP_CONTRACT", "0x4572f2554421bd64bef1c22c8a81840e8d496bea")
	t.Setenv("MAKER_PRIVATE_KEY",
		"0x1122334455667788990011223344556677889900112233445566778899001122")
}

func TestInitConfigDefaults(t *testing.T) {
	setRequiredEnv(t)
	require.NoError(t, InitConfig())

	assert.Equal(t, 5005, GetInt(HTTPPortKey))
	assert.Equal(t, 300, GetInt(TradeWindowKey))
	assert.Equal(t, "0x277f8169", GetString(ERC20KindKey))
	assert.Equal(t, 1.0, GetFloat(PriceKey))
}

func TestInitConfigRequiresPrefixedPrivateKey(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("MAKER_PRIVATE_KEY", "deadbeef")

	err := InitConfig()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "0x-prefixed")
}

func TestInitConfigRejectsUnknownSwapVersion(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("MAKER_SWAP_VERSION", "3")

	assert.Error(t, InitConfig())
}

func TestGetTokens(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("MAKER_TOKENS",
		"WETH:0xc02aaa39b223fe8d0a0e5c4f27ead9083c756cc2:18 DAI:0x6b175474e89094c44da98b954eedeac495271d0f:18")
	require.NoError(t, InitConfig())

	tokens, err := GetTokens()
	require.NoError(t, err)
	require.Len(t, tokens, 2)
	assert.Equal(t, "WETH", tokens[0].Symbol)
	assert.Equal(t, uint32(18), tokens[0].Decimals)

	t.Setenv("MAKER_TOKENS", "WETH:missing-decimals")
	require.NoError(t, InitConfig())
	_, err = GetTokens()
	assert.Error(t, err)
}

func TestGetMarkets(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("MAKER_MARKETS", "WETH/DAI WETH/USDT")
	require.NoError(t, InitConfig())

	markets, err := GetMarkets()
	require.NoError(t, err)
	require.Len(t, markets, 2)
	assert.Equal(t, "WETH", markets[0].MakerToken)
	assert.Equal(t, "DAI", markets[0].TakerToken)

	t.Setenv("MAKER_MARKETS", "WETHDAI")
	require.NoError(t, InitConfig())
	_, err = GetMarkets()
	assert.Error(t, err)
}
