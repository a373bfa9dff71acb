package pools

import (
	"crypto/sha256"
	"fmt"

	"filippo.io/edwards25519"
	"github.com/mr-tron/base58"
)

const (
	// TokenProgramID is the SPL Token program.
	TokenProgramID = "TokenkegQfeZyiNwAJbNbGKPFXCWuBvf9Ss623VQ5DA"

	// ATAProgramID is the SPL Associated Token Account program.
	ATAProgramID = "ATokenGPvbdGVxr1b2hvZbsiqW5xWH25efTNsLJA8knL"

	// signerSeed prefixes the pool signer PDA derivation.
	signerSeed = "signer"
)

// DerivePDA derives a Program Derived Address using the Solana algorithm:
// concatenate seeds with a bump, append the program ID and the
// "ProgramDerivedAddress" marker, SHA256, and take the first bump whose
// hash is off the ed25519 curve.
func DerivePDA(seeds [][]byte, programID string) (string, error) {
	program, err := base58.Decode(programID)
	if err != nil {
		return "", fmt.Errorf("decode program ID: %w", err)
	}

	for bump := byte(255); bump > 0; bump-- {
		data := make([]byte, 0, 128)
		for _, seed := range seeds {
			data = append(data, seed...)
		}
		data = append(data, bump)
		data = append(data, program...)
		data = append(data, []byte("ProgramDerivedAddress")...)

		hash := sha256.Sum256(data)
		if !isOnCurve(hash[:]) {
			return base58.Encode(hash[:]), nil
		}
	}

	return "", fmt.Errorf("no off-curve bump for program %s", programID)
}

func isOnCurve(point []byte) bool {
	if len(point) != 32 {
		return false
	}
	_, err := new(edwards25519.Point).SetBytes(point)
	return err == nil
}

// DeriveSignerPDA derives the pool signer authority for a pool account.
func DeriveSignerPDA(poolAddress, programID string) (string, error) {
	pool, err := base58.Decode(poolAddress)
	if err != nil {
		return "", fmt.Errorf("decode pool address: %w", err)
	}
	return DerivePDA([][]byte{[]byte(signerSeed), pool}, programID)
}

// DeriveATA derives the associated token account for (owner, mint).
func DeriveATA(owner, mint string) (string, error) {
	ownerBytes, err := base58.Decode(owner)
	if err != nil {
		return "", fmt.Errorf("decode owner: %w", err)
	}
	mintBytes, err := base58.Decode(mint)
	if err != nil {
		return "", fmt.Errorf("decode mint: %w", err)
	}
	tokenProgram, err := base58.Decode(TokenProgramID)
	if err != nil {
		return "", fmt.Errorf("decode token program: %w", err)
	}

	return DerivePDA([][]byte{ownerBytes, tokenProgram, mintBytes}, ATAProgramID)
}
