package domain

// Pool is a discovered bonding-curve trading venue pairing a launched token
// (base) with SOL (quote). Each discovery pass produces a fresh authoritative
// set that replaces the previous one; pools are never diffed or merged across
// scans because on-chain state can change shape between them.
type Pool struct {
	PoolAddress string `json:"poolAddress"`
	BaseMint    string `json:"baseMint"`   // launched token mint, bytes [16,48) of the pool record
	QuoteMint   string `json:"quoteMint"`  // quote token mint (WSOL), bytes [88,120)
	BaseVault   string `json:"baseVault"`  // derived: ATA(pool signer, base mint)
	QuoteVault  string `json:"quoteVault"` // derived: ATA(pool signer, quote mint)
	IsActive    bool   `json:"isActive"`   // quote vault balance > 0
	Locked      bool   `json:"locked"`     // bonding curve sold out or halted
	Migrated    bool   `json:"migrated"`   // liquidity moved to the external AMM
	CreatedAt   int64  `json:"createdAt"`  // best-effort creation time, ms; 0 when unknown
}
