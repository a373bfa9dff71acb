package domain

// Snapshot is the read-only view handed to UI consumers for one tracked
// subject. Consumers must treat all referenced data as immutable; a refresh
// replaces the snapshot as a whole, never field by field.
type Snapshot struct {
	Pool        *Pool     `json:"pool"`
	Trades      []*Trade  `json:"trades"`  // newest first, capped at the retention limit
	Candles     []*Candle `json:"candles"` // ascending by bucket start
	IsLoading   bool      `json:"isLoading"`
	Error       string    `json:"error,omitempty"`
	LastUpdated int64     `json:"lastUpdated"` // ms; 0 until the first successful refresh
}
