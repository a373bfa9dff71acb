// Package pools discovers launchpad bonding-curve pools on chain.
package pools

import (
	"context"
	"encoding/binary"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/mr-tron/base58"

	"launchpad-scope/internal/domain"
	"launchpad-scope/internal/solana"
)

const (
	// poolAccountSize is the exact byte length of a bonding-curve pool
	// account. Records of any other length are not pools.
	poolAccountSize = 394

	// Pool account layout. The mints sit inside the two reserve structs
	// after the 8-byte account discriminator; the state flags trail the
	// record.
	baseMintOffset  = 16
	quoteMintOffset = 88
	mintLen         = 32
	lockedOffset    = 392
	migratedOffset  = 393

	// tokenAmountOffset is where the u64 amount sits in an SPL token
	// account (mint 32 + owner 32).
	tokenAmountOffset = 64
)

// SkippedAccount records one program account that could not be decoded
// into a pool, with the reason it was passed over.
type SkippedAccount struct {
	Address string
	Reason  string
}

// ScanResult is the outcome of one program scan. Pools is the fresh
// authoritative set; Skipped lists accounts that were passed over.
type ScanResult struct {
	Pools   []*domain.Pool
	Skipped []SkippedAccount
}

// Locator discovers pools owned by the launchpad program.
type Locator struct {
	rpc       solana.RPCClient
	programID string
	logger    *log.Logger
	now       func() time.Time
}

// LocatorOption configures Locator.
type LocatorOption func(*Locator)

// WithLogger sets the locator's logger.
func WithLogger(logger *log.Logger) LocatorOption {
	return func(l *Locator) {
		l.logger = logger
	}
}

// NewLocator creates a pool locator for the given program.
func NewLocator(rpc solana.RPCClient, programID string, opts ...LocatorOption) *Locator {
	l := &Locator{
		rpc:       rpc,
		programID: programID,
		logger:    log.New(os.Stdout, "[pools] ", log.LstdFlags),
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Scan fetches all program accounts and decodes the pools among them.
// Each call returns a fresh set; decode failures are skipped, not fatal.
func (l *Locator) Scan(ctx context.Context) (*ScanResult, error) {
	accounts, err := l.rpc.GetProgramAccounts(ctx, l.programID)
	if err != nil {
		return nil, fmt.Errorf("get program accounts: %w", err)
	}

	result := &ScanResult{
		Pools:   make([]*domain.Pool, 0, len(accounts)),
		Skipped: make([]SkippedAccount, 0),
	}

	for _, acct := range accounts {
		pool, err := l.decodePool(ctx, acct.Address, acct.Data)
		if err != nil {
			result.Skipped = append(result.Skipped, SkippedAccount{
				Address: acct.Address,
				Reason:  err.Error(),
			})
			continue
		}
		result.Pools = append(result.Pools, pool)
	}

	l.logger.Printf("scan complete: %d pools, %d skipped", len(result.Pools), len(result.Skipped))
	return result, nil
}

// Locate fetches and decodes a single pool account by address.
func (l *Locator) Locate(ctx context.Context, poolAddress string) (*domain.Pool, error) {
	info, err := l.rpc.GetAccountInfo(ctx, poolAddress)
	if err != nil {
		return nil, fmt.Errorf("get pool account: %w", err)
	}
	if info == nil {
		return nil, fmt.Errorf("pool account %s not found", poolAddress)
	}

	return l.decodePool(ctx, poolAddress, info.Data)
}

// decodePool decodes a raw pool account into the domain model, deriving
// the signer authority and vault addresses.
func (l *Locator) decodePool(ctx context.Context, address string, data []byte) (*domain.Pool, error) {
	if len(data) != poolAccountSize {
		return nil, fmt.Errorf("account size %d, want %d", len(data), poolAccountSize)
	}

	baseMint := base58.Encode(data[baseMintOffset : baseMintOffset+mintLen])
	quoteMint := base58.Encode(data[quoteMintOffset : quoteMintOffset+mintLen])

	signer, err := DeriveSignerPDA(address, l.programID)
	if err != nil {
		return nil, fmt.Errorf("derive signer: %w", err)
	}

	baseVault, err := DeriveATA(signer, baseMint)
	if err != nil {
		return nil, fmt.Errorf("derive base vault: %w", err)
	}
	quoteVault, err := DeriveATA(signer, quoteMint)
	if err != nil {
		return nil, fmt.Errorf("derive quote vault: %w", err)
	}

	pool := &domain.Pool{
		PoolAddress: address,
		BaseMint:    baseMint,
		QuoteMint:   quoteMint,
		BaseVault:   baseVault,
		QuoteVault:  quoteVault,
		Locked:      data[lockedOffset] != 0,
		Migrated:    data[migratedOffset] != 0,
		CreatedAt:   l.now().UnixMilli(),
	}

	pool.IsActive = l.vaultHasBalance(ctx, quoteVault)

	return pool, nil
}

// vaultHasBalance reports whether the vault token account holds a nonzero
// amount. Lookup failures leave the pool active rather than hiding it.
func (l *Locator) vaultHasBalance(ctx context.Context, vault string) bool {
	info, err := l.rpc.GetAccountInfo(ctx, vault)
	if err != nil || info == nil {
		return true
	}
	if len(info.Data) < tokenAmountOffset+8 {
		return true
	}
	amount := binary.LittleEndian.Uint64(info.Data[tokenAmountOffset : tokenAmountOffset+8])
	return amount > 0
}
