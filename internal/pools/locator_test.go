package pools

import (
	"bytes"
	"context"
	"encoding/binary"
	"io"
	"log"
	"testing"

	"github.com/mr-tron/base58"

	"launchpad-scope/internal/solana"
)

type fakeRPC struct {
	programAccounts []solana.ProgramAccount
	accounts        map[string]*solana.AccountInfo
}

func (f *fakeRPC) GetSignaturesForAddress(ctx context.Context, address string, opts *solana.SignaturesOpts) ([]solana.SignatureInfo, error) {
	return nil, nil
}

func (f *fakeRPC) GetTransaction(ctx context.Context, signature string) (*solana.Transaction, error) {
	return nil, nil
}

func (f *fakeRPC) GetAccountInfo(ctx context.Context, pubkey string) (*solana.AccountInfo, error) {
	return f.accounts[pubkey], nil
}

func (f *fakeRPC) GetProgramAccounts(ctx context.Context, programID string) ([]solana.ProgramAccount, error) {
	return f.programAccounts, nil
}

var _ solana.RPCClient = (*fakeRPC)(nil)

func addr(fill byte) string {
	b := make([]byte, 32)
	for i := range b {
		b[i] = fill
	}
	return base58.Encode(b)
}

// poolAccount builds a pool record with the given mints and flags.
func poolAccount(baseMint, quoteMint string, locked, migrated bool) []byte {
	data := make([]byte, poolAccountSize)
	base, _ := base58.Decode(baseMint)
	quote, _ := base58.Decode(quoteMint)
	copy(data[baseMintOffset:], base)
	copy(data[quoteMintOffset:], quote)
	if locked {
		data[lockedOffset] = 1
	}
	if migrated {
		data[migratedOffset] = 1
	}
	return data
}

// tokenAccount builds SPL token account bytes holding the given amount.
func tokenAccount(amount uint64) []byte {
	data := make([]byte, 165)
	binary.LittleEndian.PutUint64(data[tokenAmountOffset:], amount)
	return data
}

func quietLogger() *log.Logger {
	return log.New(io.Discard, "", 0)
}

func TestScan_DecodesPools(t *testing.T) {
	programID := addr(0x10)
	poolAddr := addr(0x20)
	baseMint := addr(0x30)
	quoteMint := addr(0x40)

	rpc := &fakeRPC{
		programAccounts: []solana.ProgramAccount{
			{Address: poolAddr, Data: poolAccount(baseMint, quoteMint, true, false)},
		},
		accounts: map[string]*solana.AccountInfo{},
	}

	l := NewLocator(rpc, programID, WithLogger(quietLogger()))
	result, err := l.Scan(context.Background())
	if err != nil {
		t.Fatalf("Scan failed: %v", err)
	}

	if len(result.Pools) != 1 {
		t.Fatalf("expected 1 pool, got %d", len(result.Pools))
	}

	pool := result.Pools[0]
	if pool.PoolAddress != poolAddr {
		t.Errorf("wrong pool address: %s", pool.PoolAddress)
	}
	if pool.BaseMint != baseMint || pool.QuoteMint != quoteMint {
		t.Errorf("wrong mints: base=%s quote=%s", pool.BaseMint, pool.QuoteMint)
	}
	if !pool.Locked || pool.Migrated {
		t.Errorf("wrong flags: locked=%v migrated=%v", pool.Locked, pool.Migrated)
	}
	if pool.BaseVault == "" || pool.QuoteVault == "" || pool.BaseVault == pool.QuoteVault {
		t.Errorf("vault derivation wrong: base=%s quote=%s", pool.BaseVault, pool.QuoteVault)
	}
	// Vault account unknown, pool stays visible.
	if !pool.IsActive {
		t.Error("pool with unknown vault should stay active")
	}
}

func TestScan_SkipsWrongSizeAccounts(t *testing.T) {
	programID := addr(0x10)
	goodAddr := addr(0x21)

	rpc := &fakeRPC{
		programAccounts: []solana.ProgramAccount{
			{Address: addr(0x22), Data: make([]byte, poolAccountSize-1)},
			{Address: addr(0x23), Data: make([]byte, poolAccountSize+1)},
			{Address: goodAddr, Data: poolAccount(addr(0x30), addr(0x40), false, false)},
			{Address: addr(0x24), Data: nil},
		},
		accounts: map[string]*solana.AccountInfo{},
	}

	l := NewLocator(rpc, programID, WithLogger(quietLogger()))
	result, err := l.Scan(context.Background())
	if err != nil {
		t.Fatalf("Scan failed: %v", err)
	}

	if len(result.Pools) != 1 {
		t.Fatalf("expected 1 pool, got %d", len(result.Pools))
	}
	if result.Pools[0].PoolAddress != goodAddr {
		t.Errorf("kept wrong pool: %s", result.Pools[0].PoolAddress)
	}
	if len(result.Skipped) != 3 {
		t.Errorf("expected 3 skipped, got %d: %+v", len(result.Skipped), result.Skipped)
	}
}

func TestScan_SkipsUnparseableAddress(t *testing.T) {
	programID := addr(0x10)
	goodAddr := addr(0x21)

	// Right-sized record, but the account address is not valid base58 so
	// the signer derivation cannot run.
	rpc := &fakeRPC{
		programAccounts: []solana.ProgramAccount{
			{Address: "0-not-base58-!!", Data: make([]byte, poolAccountSize)},
			{Address: goodAddr, Data: poolAccount(addr(0x30), addr(0x40), false, false)},
		},
		accounts: map[string]*solana.AccountInfo{},
	}

	l := NewLocator(rpc, programID, WithLogger(quietLogger()))
	result, err := l.Scan(context.Background())
	if err != nil {
		t.Fatalf("Scan failed: %v", err)
	}

	if len(result.Pools) != 1 || result.Pools[0].PoolAddress != goodAddr {
		t.Fatalf("expected only the decodable pool, got %+v", result.Pools)
	}
	if len(result.Skipped) != 1 {
		t.Fatalf("expected 1 skipped, got %d: %+v", len(result.Skipped), result.Skipped)
	}
	if result.Skipped[0].Address != "0-not-base58-!!" || result.Skipped[0].Reason == "" {
		t.Errorf("unexpected skip entry: %+v", result.Skipped[0])
	}
}

func TestLocate_ActiveFromVaultBalance(t *testing.T) {
	programID := addr(0x10)
	poolAddr := addr(0x20)
	quoteMint := addr(0x40)

	l := NewLocator(&fakeRPC{}, programID, WithLogger(quietLogger()))

	signer, err := DeriveSignerPDA(poolAddr, programID)
	if err != nil {
		t.Fatalf("DeriveSignerPDA failed: %v", err)
	}
	quoteVault, err := DeriveATA(signer, quoteMint)
	if err != nil {
		t.Fatalf("DeriveATA failed: %v", err)
	}

	rpc := &fakeRPC{
		accounts: map[string]*solana.AccountInfo{
			poolAddr:   {Data: poolAccount(addr(0x30), quoteMint, false, false)},
			quoteVault: {Data: tokenAccount(0)},
		},
	}
	l = NewLocator(rpc, programID, WithLogger(quietLogger()))

	pool, err := l.Locate(context.Background(), poolAddr)
	if err != nil {
		t.Fatalf("Locate failed: %v", err)
	}
	if pool.IsActive {
		t.Error("pool with empty quote vault should be inactive")
	}

	rpc.accounts[quoteVault] = &solana.AccountInfo{Data: tokenAccount(1_000_000)}
	pool, err = l.Locate(context.Background(), poolAddr)
	if err != nil {
		t.Fatalf("Locate failed: %v", err)
	}
	if !pool.IsActive {
		t.Error("pool with funded quote vault should be active")
	}
}

func TestLocate_NotFound(t *testing.T) {
	l := NewLocator(&fakeRPC{accounts: map[string]*solana.AccountInfo{}}, addr(0x10), WithLogger(quietLogger()))

	_, err := l.Locate(context.Background(), addr(0x99))
	if err == nil {
		t.Fatal("expected error for missing pool account")
	}
}

func TestDerivePDA_Deterministic(t *testing.T) {
	programID := addr(0x10)
	seeds := [][]byte{[]byte(signerSeed), bytes.Repeat([]byte{0x20}, 32)}

	first, err := DerivePDA(seeds, programID)
	if err != nil {
		t.Fatalf("DerivePDA failed: %v", err)
	}
	second, err := DerivePDA(seeds, programID)
	if err != nil {
		t.Fatalf("DerivePDA failed: %v", err)
	}

	if first != second {
		t.Errorf("derivation not deterministic: %s vs %s", first, second)
	}

	other, err := DerivePDA(seeds, addr(0x11))
	if err != nil {
		t.Fatalf("DerivePDA failed: %v", err)
	}
	if other == first {
		t.Error("different programs must derive different addresses")
	}
}
