// Package classify turns raw Solana transactions into launchpad trades.
//
// Classification is heuristic. The user is the first signer that is neither
// the pool nor the program, the trade side comes from the signer's lamport
// balance delta, and the token leg is recovered from the program's swap logs.
package classify

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"

	"launchpad-scope/internal/domain"
	"launchpad-scope/internal/solana"
)

var (
	// ErrFailedTransaction marks transactions that errored on chain.
	ErrFailedTransaction = errors.New("transaction failed on chain")

	// ErrNoUserSigner marks transactions with no signer besides the pool
	// or the program itself.
	ErrNoUserSigner = errors.New("no user signer found")

	// ErrNoBalanceChange marks transactions where the user's lamport
	// balance did not move.
	ErrNoBalanceChange = errors.New("no SOL balance change for user")

	// ErrZeroAmount marks trades whose recovered amounts round to zero.
	ErrZeroAmount = errors.New("trade has zero amount")

	// ErrIncompleteTransaction marks transactions missing meta or message.
	ErrIncompleteTransaction = errors.New("transaction missing meta or message")
)

const (
	lamportsPerSOL = 1_000_000_000

	// DefaultTokenDecimals is the launchpad token mint decimal count.
	DefaultTokenDecimals = 6

	// DefaultFallbackTokensPerSOL estimates the token leg when the swap
	// logs are absent or unparseable.
	DefaultFallbackTokensPerSOL = 1_000_000
)

// AmountDecoder recovers the token-side amount of a swap from transaction
// logs. ok is false when the logs carry no usable amount.
type AmountDecoder interface {
	DecodeBaseAmount(logs []string, side string) (amount float64, ok bool)
}

// swappedInRe and swappedOutRe match the launchpad program's swap log lines.
var (
	swappedInRe  = regexp.MustCompile(`swapped_in:\s*(\d+)`)
	swappedOutRe = regexp.MustCompile(`swapped_out:\s*(\d+)`)
)

// LogAmountDecoder parses swap amounts out of program log messages.
// On a buy the token leg is the swap output, on a sell it is the input.
type LogAmountDecoder struct {
	decimals int
}

// NewLogAmountDecoder creates a decoder for mints with the given decimals.
func NewLogAmountDecoder(decimals int) *LogAmountDecoder {
	if decimals <= 0 {
		decimals = DefaultTokenDecimals
	}
	return &LogAmountDecoder{decimals: decimals}
}

var _ AmountDecoder = (*LogAmountDecoder)(nil)

func (d *LogAmountDecoder) DecodeBaseAmount(logs []string, side string) (float64, bool) {
	re := swappedOutRe
	if side == domain.TradeSideSell {
		re = swappedInRe
	}

	for _, line := range logs {
		m := re.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		raw, err := strconv.ParseUint(m[1], 10, 64)
		if err != nil {
			continue
		}
		divisor := 1.0
		for i := 0; i < d.decimals; i++ {
			divisor *= 10
		}
		return float64(raw) / divisor, true
	}

	return 0, false
}

// Classifier classifies transactions against a single pool.
type Classifier struct {
	decoder           AmountDecoder
	fallbackTokensPer float64
}

// Option configures Classifier.
type Option func(*Classifier)

// WithAmountDecoder replaces the log-based amount decoder.
func WithAmountDecoder(d AmountDecoder) Option {
	return func(c *Classifier) {
		c.decoder = d
	}
}

// WithFallbackRate sets the tokens-per-SOL estimate used when logs carry
// no amount.
func WithFallbackRate(tokensPerSOL float64) Option {
	return func(c *Classifier) {
		c.fallbackTokensPer = tokensPerSOL
	}
}

// NewClassifier creates a classifier with the default log decoder.
func NewClassifier(opts ...Option) *Classifier {
	c := &Classifier{
		decoder:           NewLogAmountDecoder(DefaultTokenDecimals),
		fallbackTokensPer: DefaultFallbackTokensPerSOL,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Classify extracts a trade from a transaction touching the given pool.
// A non-nil error means the transaction is not a usable trade; callers
// should skip it rather than abort the batch.
func (c *Classifier) Classify(tx *solana.Transaction, poolAddress, programAddress string) (*domain.Trade, error) {
	if tx == nil || tx.Meta == nil || tx.Message == nil {
		return nil, ErrIncompleteTransaction
	}
	if tx.Meta.Err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFailedTransaction, tx.Meta.Err)
	}

	userIdx := c.findUserSigner(tx.Message, poolAddress, programAddress)
	if userIdx < 0 {
		return nil, ErrNoUserSigner
	}

	if userIdx >= len(tx.Meta.PreBalances) || userIdx >= len(tx.Meta.PostBalances) {
		return nil, ErrIncompleteTransaction
	}

	// Lamport delta for the user. The delta folds in the fee, which is
	// negligible next to a swap amount.
	pre := tx.Meta.PreBalances[userIdx]
	post := tx.Meta.PostBalances[userIdx]
	if pre == post {
		return nil, ErrNoBalanceChange
	}

	var side string
	var solChange float64
	if post < pre {
		side = domain.TradeSideBuy
		solChange = float64(pre-post) / lamportsPerSOL
	} else {
		side = domain.TradeSideSell
		solChange = float64(post-pre) / lamportsPerSOL
	}

	baseAmount, ok := c.decoder.DecodeBaseAmount(tx.Meta.LogMessages, side)
	if !ok || baseAmount <= 0 {
		baseAmount = solChange * c.fallbackTokensPer
	}

	if solChange <= 0 || baseAmount <= 0 {
		return nil, ErrZeroAmount
	}

	trade := &domain.Trade{
		TimestampMs:  tx.BlockTime * 1000,
		Price:        solChange / baseAmount,
		BaseAmount:   baseAmount,
		QuoteAmount:  solChange,
		Side:         side,
		TxSignature:  tx.Signature,
		Counterparty: tx.Message.AccountKeys[userIdx],
	}

	if !trade.Valid() {
		return nil, ErrZeroAmount
	}

	return trade, nil
}

// findUserSigner returns the index of the first signer that is neither the
// pool nor the program, or -1.
func (c *Classifier) findUserSigner(msg *solana.TransactionMessage, poolAddress, programAddress string) int {
	n := msg.NumRequiredSignatures
	if n > len(msg.AccountKeys) {
		n = len(msg.AccountKeys)
	}
	for i := 0; i < n; i++ {
		key := msg.AccountKeys[i]
		if key != poolAddress && key != programAddress {
			return i
		}
	}
	return -1
}
