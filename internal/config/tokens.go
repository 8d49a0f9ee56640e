package config

import "strings"

// TokenInfo is static metadata for a supported ecosystem token.
type TokenInfo struct {
	Chain       string
	CoinGeckoID string
}

// SupportedTokens maps token symbols to their ecosystem metadata.
var SupportedTokens = map[string]TokenInfo{
	"BTC":   {Chain: "Bitcoin", CoinGeckoID: "bitcoin"},
	"ETH":   {Chain: "Ethereum", CoinGeckoID: "ethereum"},
	"SOL":   {Chain: "Solana", CoinGeckoID: "solana"},
	"ADA":   {Chain: "Cardano", CoinGeckoID: "cardano"},
	"DOT":   {Chain: "Polkadot", CoinGeckoID: "polkadot"},
	"AVAX":  {Chain: "Avalanche", CoinGeckoID: "avalanche-2"},
	"MATIC": {Chain: "Polygon", CoinGeckoID: "matic-network"},
	"POL":   {Chain: "Polygon", CoinGeckoID: "matic-network"},
	"LINK":  {Chain: "Ethereum", CoinGeckoID: "chainlink"},
	"UNI":   {Chain: "Ethereum", CoinGeckoID: "uniswap"},
	"ATOM":  {Chain: "Cosmos", CoinGeckoID: "cosmos"},
	"XRP":   {Chain: "Ripple", CoinGeckoID: "ripple"},
	"DOGE":  {Chain: "Dogecoin", CoinGeckoID: "dogecoin"},
	"LTC":   {Chain: "Litecoin", CoinGeckoID: "litecoin"},
	"XLM":   {Chain: "Stellar", CoinGeckoID: "stellar"},
	"ALGO":  {Chain: "Algorand", CoinGeckoID: "algorand"},
	"FIL":   {Chain: "Filecoin", CoinGeckoID: "filecoin"},
	"ARB":   {Chain: "Arbitrum", CoinGeckoID: "arbitrum"},
	"BNB":   {Chain: "BNB Chain", CoinGeckoID: "binancecoin"},
	"USDC":  {Chain: "Multi-chain", CoinGeckoID: "usd-coin"},
	"USDT":  {Chain: "Multi-chain", CoinGeckoID: "tether"},
	"XDC":   {Chain: "XDC Network", CoinGeckoID: "xdce-crowd-sale"},
	"FLR":   {Chain: "Flare", CoinGeckoID: "flare-networks"},
}

// TokenMeta returns metadata for a symbol, case-insensitive.
func TokenMeta(symbol string) (TokenInfo, bool) {
	info, ok := SupportedTokens[strings.ToUpper(symbol)]
	return info, ok
}

// TokenSymbols returns all supported symbols.
func TokenSymbols() []string {
	symbols := make([]string, 0, len(SupportedTokens))
	for symbol := range SupportedTokens {
		symbols = append(symbols, symbol)
	}
	return symbols
}
