// internal/chains/solana/token_account.go
package solana

import (
	"errors"
	"fmt"
	"math/big"

	"github.com/gagliardetto/solana-go"
)

// SPL token account layout: mint (0..32) | owner (32..64) | amount (64..72) | ...
const (
	tokenAccountOwnerOffset = 32
	tokenAccountOwnerEnd    = 64
)

var token2022ProgramID = solana.MustPublicKeyFromBase58("TokenzQdBNbLqP5VEhdkAS6EPFLC1PHnBqCXEpPxuEb")

var (
	ErrNotTokenAccount    = errors.New("account is not owned by a token program")
	ErrShortAccountData   = errors.New("token account data too short")
	ErrNoDestination      = errors.New("no token account received funds")
	ErrBadAccountIndex    = errors.New("token balance references unknown account")
	ErrUndeterminedMint   = errors.New("could not determine mint")
	ErrInconsistentMint   = errors.New("pre and post balances disagree on mint")
	ErrInvalidTokenAmount = errors.New("invalid token amount")
)

// decodeTokenAccountOwner extracts the wallet that owns an SPL token account
// from its raw data. program is the account's owning program.
func decodeTokenAccountOwner(program solana.PublicKey, data []byte) (solana.PublicKey, error) {
	if program != solana.TokenProgramID && program != token2022ProgramID {
		return solana.PublicKey{}, fmt.Errorf("%w: %s", ErrNotTokenAccount, program)
	}
	if len(data) < tokenAccountOwnerEnd {
		return solana.PublicKey{}, fmt.Errorf("%w: %d bytes", ErrShortAccountData, len(data))
	}
	return solana.PublicKeyFromBytes(data[tokenAccountOwnerOffset:tokenAccountOwnerEnd]), nil
}

// tokenBalance is one pre/post token balance entry
type tokenBalance struct {
	AccountIndex uint16
	Mint         solana.PublicKey
	Amount       *big.Int
	Decimals     uint8
}

// txView is the part of a fetched transaction needed to find a deposit
type txView struct {
	Failed      bool
	AccountKeys []solana.PublicKey
	Pre         []tokenBalance
	Post        []tokenBalance
}

// tokenCredit is the token account that received funds in a transaction
type tokenCredit struct {
	Account  solana.PublicKey
	Mint     solana.PublicKey
	Amount   *big.Int
	Decimals uint8
	Sender   solana.PublicKey
}

// findTokenCredit locates the first token account whose balance grew.
// The amount is the post minus pre delta, so earlier holdings of the
// destination are never counted.
func findTokenCredit(tx *txView) (*tokenCredit, error) {
	pre := make(map[uint16]tokenBalance, len(tx.Pre))
	for _, b := range tx.Pre {
		pre[b.AccountIndex] = b
	}

	var (
		dest  *tokenBalance
		delta *big.Int
	)
	for i := range tx.Post {
		post := tx.Post[i]
		if post.Amount == nil || post.Amount.Sign() <= 0 {
			continue
		}
		d := new(big.Int).Set(post.Amount)
		if before, ok := pre[post.AccountIndex]; ok && before.Amount != nil {
			d.Sub(d, before.Amount)
		}
		if d.Sign() <= 0 {
			continue
		}
		dest, delta = &post, d
		break
	}
	if dest == nil {
		return nil, ErrNoDestination
	}
	if int(dest.AccountIndex) >= len(tx.AccountKeys) {
		return nil, fmt.Errorf("%w: index %d of %d", ErrBadAccountIndex, dest.AccountIndex, len(tx.AccountKeys))
	}

	var mint solana.PublicKey
	if before, ok := pre[dest.AccountIndex]; ok {
		mint = before.Mint
	} else if len(tx.Pre) > 0 {
		mint = tx.Pre[0].Mint
	} else {
		return nil, ErrUndeterminedMint
	}
	if mint == (solana.PublicKey{}) {
		return nil, ErrUndeterminedMint
	}
	if mint != dest.Mint {
		return nil, fmt.Errorf("%w: %s != %s", ErrInconsistentMint, mint, dest.Mint)
	}

	return &tokenCredit{
		Account:  tx.AccountKeys[dest.AccountIndex],
		Mint:     mint,
		Amount:   delta,
		Decimals: dest.Decimals,
		Sender:   tx.AccountKeys[0],
	}, nil
}

// parseTokenAmount parses the raw integer amount of a UI token amount
func parseTokenAmount(raw string) (*big.Int, error) {
	amount, ok := new(big.Int).SetString(raw, 10)
	if !ok || amount.Sign() < 0 {
		return nil, fmt.Errorf("%w: %q", ErrInvalidTokenAmount, raw)
	}
	return amount, nil
}
