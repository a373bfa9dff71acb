package domain

// Trade represents a single classified buy/sell event derived from one
// launchpad transaction. Trades are immutable once constructed: the classifier
// is the only producer, and consumers must treat them as read-only.
type Trade struct {
	TimestampMs  int64   `json:"timestampMs"`  // Unix timestamp in milliseconds
	Price        float64 `json:"price"`        // quote per base (SOL per token)
	BaseAmount   float64 `json:"baseAmount"`   // token amount, decimals-adjusted
	QuoteAmount  float64 `json:"quoteAmount"`  // SOL amount
	Side         string  `json:"side"`         // "buy" | "sell"
	TxSignature  string  `json:"txSignature"`  // source transaction signature, unique per trade
	Counterparty string  `json:"counterparty"` // user wallet that signed the transaction
}

// Trade side constants
const (
	TradeSideBuy  = "buy"
	TradeSideSell = "sell"
)

// Valid reports whether the trade satisfies the classifier's output contract:
// strictly positive price and amounts. A zero-valued trade must never be
// retained.
func (t *Trade) Valid() bool {
	return t != nil && t.Price > 0 && t.BaseAmount > 0 && t.QuoteAmount > 0
}
