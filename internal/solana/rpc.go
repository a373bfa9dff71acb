package solana

import "context"

// RPCClient defines the chain-data capabilities the ingestion pipeline
// consumes. Implementations perform a single attempt per call; retry policy
// lives in the fetch package.
type RPCClient interface {
	// GetSignaturesForAddress retrieves signatures for an address, newest first.
	GetSignaturesForAddress(ctx context.Context, address string, opts *SignaturesOpts) ([]SignatureInfo, error)

	// GetTransaction retrieves a parsed transaction by signature.
	// Returns (nil, nil) when the transaction is unknown.
	GetTransaction(ctx context.Context, signature string) (*Transaction, error)

	// GetAccountInfo retrieves raw account data by public key.
	// Returns (nil, nil) when the account does not exist.
	GetAccountInfo(ctx context.Context, pubkey string) (*AccountInfo, error)

	// GetProgramAccounts retrieves all accounts owned by a program.
	GetProgramAccounts(ctx context.Context, programID string) ([]ProgramAccount, error)
}

// Transaction represents a parsed Solana transaction.
type Transaction struct {
	Slot      int64
	Signature string
	BlockTime int64 // Unix timestamp (seconds)
	Meta      *TransactionMeta
	Message   *TransactionMessage
}

// TransactionMeta contains transaction metadata. Pre/PostBalances are
// lamport balances indexed in parallel with Message.AccountKeys.
type TransactionMeta struct {
	Err          interface{}
	PreBalances  []uint64
	PostBalances []uint64
	LogMessages  []string
}

// TransactionMessage contains the parsed transaction message. The first
// NumRequiredSignatures account keys are the transaction's signers.
type TransactionMessage struct {
	AccountKeys           []string
	NumRequiredSignatures int
}
