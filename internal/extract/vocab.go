package extract

// DefaultSymbol is used when chart intent is detected without any explicit
// ticker in either text.
const DefaultSymbol = "BTC"

// tickerVocabulary lists the recognized ticker tokens plus the major-asset
// full names; matching is case-insensitive on word boundaries. Longer
// alternatives come first so e.g. BITCOIN is not split around BTC.
var tickerVocabulary = []string{
	"BITCOIN", "ETHEREUM", "SOLANA", "CARDANO", "POLKADOT", "CHAINLINK",
	"UNISWAP", "POLYGON", "AVALANCHE", "COSMOS", "ALGORAND", "RIPPLE",
	"LITECOIN",
	"BTC", "ETH", "SOL", "ADA", "DOT", "LINK", "UNI", "AAVE", "MATIC",
	"AVAX", "ATOM", "NEAR", "FTM", "ALGO", "XRP", "LTC", "BCH", "ETC",
	"XLM", "VET", "THETA", "HBAR", "ICP", "EGLD", "FLOW", "MANA", "SAND",
	"AXS", "ENJ", "CHZ", "BAT", "ZRX", "COMP", "MKR", "SNX", "YFI", "CRV",
	"SUSHI", "1INCH", "ALPHA", "RUNE", "LUNA", "UST", "DOGE", "SHIB",
	"PEPE", "FLOKI",
}

// symbolAliases maps full asset names onto their ticker.
var symbolAliases = map[string]string{
	"BITCOIN":   "BTC",
	"ETHEREUM":  "ETH",
	"SOLANA":    "SOL",
	"CARDANO":   "ADA",
	"POLKADOT":  "DOT",
	"CHAINLINK": "LINK",
	"UNISWAP":   "UNI",
	"POLYGON":   "MATIC",
	"AVALANCHE": "AVAX",
	"COSMOS":    "ATOM",
	"ALGORAND":  "ALGO",
	"RIPPLE":    "XRP",
	"LITECOIN":  "LTC",
}
